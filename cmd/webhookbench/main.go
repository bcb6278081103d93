package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/punchamoorthee/rageshop/internal/domain"
	"github.com/punchamoorthee/rageshop/internal/payment"
)

// Config holds the benchmark settings
var (
	targetURL   string
	concurrency int
	sessions    int
	duplicates  int
	secret      string
	login       string
)

// Metrics
var (
	totalRequests uint64
	acked200      uint64
	rejected400   uint64
	failed500     uint64
	limited429    uint64
	failOther     uint64
)

func init() {
	flag.StringVar(&targetURL, "url", "http://localhost:8080", "Shop base URL")
	flag.IntVar(&concurrency, "workers", 10, "Number of concurrent workers")
	flag.IntVar(&sessions, "sessions", 200, "Distinct checkout sessions to complete")
	flag.IntVar(&duplicates, "duplicates", 5, "Deliveries per session")
	flag.StringVar(&secret, "secret", os.Getenv("STRIPE_WEBHOOK_SECRET"), "Webhook signing secret")
	flag.StringVar(&login, "login", "player0001", "Account credited by every session")
}

type delivery struct {
	payload []byte
}

func main() {
	flag.Parse()
	if secret == "" {
		log.Fatal("webhook secret required (-secret or STRIPE_WEBHOOK_SECRET)")
	}
	log.Printf("Starting Webhook Benchmark: %d sessions x %d deliveries | Workers: %d", sessions, duplicates, concurrency)

	// Duplicates of a session are queued back to back so workers race on them.
	jobs := make(chan delivery, concurrency)
	go func() {
		for i := 0; i < sessions; i++ {
			p := completedSession("cs_bench_" + uuid.NewString())
			for d := 0; d < duplicates; d++ {
				jobs <- delivery{payload: p}
			}
		}
		close(jobs)
	}()

	start := time.Now()
	var wg sync.WaitGroup
	wg.Add(concurrency)
	for i := 0; i < concurrency; i++ {
		go worker(&wg, jobs)
	}
	wg.Wait()
	printResults(time.Since(start))
}

func completedSession(id string) []byte {
	meta := domain.PurchaseIntent{BuyerLogin: login, Kind: domain.KindPackage, Redbucks: 1}.Metadata()
	body, _ := json.Marshal(map[string]interface{}{
		"id":     "evt_" + id,
		"object": "event",
		"type":   "checkout.session.completed",
		"data": map[string]interface{}{"object": map[string]interface{}{
			"id":             id,
			"object":         "checkout.session",
			"payment_status": "paid",
			"amount_total":   100,
			"currency":       "eur",
			"metadata":       meta,
		}},
	})
	return body
}

func worker(wg *sync.WaitGroup, jobs <-chan delivery) {
	defer wg.Done()
	client := &http.Client{Timeout: 5 * time.Second}

	for job := range jobs {
		req, _ := http.NewRequest("POST", targetURL+"/api/stripe/webhook", bytes.NewReader(job.payload))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Stripe-Signature", payment.SignPayload(job.payload, secret, time.Now()))

		resp, err := client.Do(req)
		if err != nil {
			atomic.AddUint64(&failOther, 1)
			continue
		}

		atomic.AddUint64(&totalRequests, 1)
		switch resp.StatusCode {
		case http.StatusOK:
			atomic.AddUint64(&acked200, 1)
		case http.StatusBadRequest:
			atomic.AddUint64(&rejected400, 1)
		case http.StatusTooManyRequests:
			atomic.AddUint64(&limited429, 1)
		case http.StatusInternalServerError:
			atomic.AddUint64(&failed500, 1)
		default:
			atomic.AddUint64(&failOther, 1)
		}
		resp.Body.Close()
	}
}

func printResults(d time.Duration) {
	total := atomic.LoadUint64(&totalRequests)

	results := map[string]interface{}{
		"sessions":         sessions,
		"duplicates":       duplicates,
		"duration_sec":     d.Seconds(),
		"total_requests":   total,
		"throughput_rps":   float64(total) / d.Seconds(),
		"acknowledged":     atomic.LoadUint64(&acked200),
		"rejected":         atomic.LoadUint64(&rejected400),
		"server_errors":    atomic.LoadUint64(&failed500),
		"rate_limited":     atomic.LoadUint64(&limited429),
		"errors":           atomic.LoadUint64(&failOther),
		"expected_credit":  sessions,
		"expected_account": login,
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(results)

	filename := fmt.Sprintf("results_webhook_%d.json", sessions)
	file, err := os.Create(filename)
	if err != nil {
		log.Printf("could not save results: %v", err)
		return
	}
	defer file.Close()
	json.NewEncoder(file).Encode(results)
}
