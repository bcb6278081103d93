package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/punchamoorthee/rageshop/internal/domain"
	"github.com/punchamoorthee/rageshop/internal/payment"
	"golang.org/x/exp/slog"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shop_http_requests_total",
		Help: "Total HTTP requests processed, labeled by status code",
	}, []string{"method", "endpoint", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "shop_http_request_duration_seconds",
		Help:    "Latency distribution of HTTP requests",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "endpoint"})
)

const maxBodyBytes = 1 << 20

// Store is the account ledger as the HTTP layer sees it.
type Store interface {
	Ping(ctx context.Context) error
	GetAccountByEmail(ctx context.Context, email string) (*domain.Account, error)
	Profile(ctx context.Context, login string) (*domain.Profile, error)
	UpdateColumns(ctx context.Context, login string, u domain.AccountUpdate) error
	ListHouses(ctx context.Context) ([]domain.House, error)
	ListEvents(ctx context.Context, login string) ([]domain.Event, error)
	JoinEvent(ctx context.Context, eventID, login string) (int, error)
	LeaveEvent(ctx context.Context, eventID, login string) (int, error)
}

type Checkout interface {
	CreateCheckout(ctx context.Context, buyer domain.User, req domain.CheckoutRequest) (*domain.CheckoutSession, error)
}

type Payments interface {
	PublishableKey() string
	GetSession(ctx context.Context, id string) (*domain.PaymentSession, error)
	VerifyWebhook(payload []byte, signature string) (*payment.WebhookEvent, error)
}

type Fulfiller interface {
	Fulfil(ctx context.Context, ev domain.CompletionEvent) (domain.FulfillmentResult, error)
}

type Handler struct {
	store    Store
	checkout Checkout
	payments Payments
	engine   Fulfiller
	sessions sessions.Store
	logger   *slog.Logger
}

func NewHandler(s Store, c Checkout, p Payments, f Fulfiller, ss sessions.Store, logger *slog.Logger) *Handler {
	return &Handler{
		store:    s,
		checkout: c,
		payments: p,
		engine:   f,
		sessions: ss,
		logger:   logger.With(slog.String("component", "api")),
	}
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrProvider):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// fail writes the status for err. Server-side failures are logged and their
// details kept out of the response.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			slog.String("request_id", requestID(r.Context())),
			slog.String("path", r.URL.Path),
			slog.Any("err", err),
		)
	}
	msg := err.Error()
	switch code {
	case http.StatusInternalServerError:
		msg = "internal server error"
	case http.StatusBadGateway:
		msg = "payment provider unavailable"
	}
	respondWithError(w, code, msg)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", domain.ErrInvalidRequest)
		}
		return fmt.Errorf("%w: malformed JSON body", domain.ErrInvalidRequest)
	}
	return nil
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}
