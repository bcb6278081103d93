package fulfillment

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/punchamoorthee/rageshop/internal/domain"
	"golang.org/x/exp/slog"
)

var fulfillmentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "shop_fulfillments_total",
	Help: "Payment completion signals processed, labeled by kind, channel and outcome",
}, []string{"kind", "channel", "outcome"})

// Guard remembers which payment sessions were already credited.
type Guard interface {
	// TestAndSet inserts sessionID and reports whether it was absent.
	TestAndSet(ctx context.Context, sessionID string) (bool, error)
}

// Ledger holds the conditional account updates fulfillment issues.
type Ledger interface {
	IncrementBalance(ctx context.Context, login string, amount int64) error
	CharacterUUID(ctx context.Context, login string) (string, error)
	SetHouseOwnerIfUnset(ctx context.Context, houseID, ownerID string) (bool, error)
	ClearBan(ctx context.Context, login string) error
	DecrementWarnings(ctx context.Context, login string) error
}

// Tx is a guard and a ledger bound to the same transaction.
type Tx interface {
	Guard
	Ledger
}

// Store runs fn in one transaction and commits only when fn returns nil.
type Store interface {
	InTx(ctx context.Context, fn func(tx Tx) error) error
}

var errAlreadyProcessed = errors.New("session already processed")

type request struct {
	ctx   context.Context
	event domain.CompletionEvent
	reply chan response
}

type response struct {
	result domain.FulfillmentResult
	err    error
}

// Engine credits completed payments exactly once. Webhook and poll handlers
// both submit through Fulfil; Run applies the submissions one at a time.
type Engine struct {
	store    Store
	logger   *slog.Logger
	requests chan request
}

func NewEngine(store Store, logger *slog.Logger) *Engine {
	return &Engine{
		store:    store,
		logger:   logger.With(slog.String("component", "fulfillment")),
		requests: make(chan request),
	}
}

// Run is the single writer. It returns when ctx is done.
func (e *Engine) Run(ctx context.Context) error {
	e.logger.Info("fulfillment loop started")
	for {
		select {
		case <-ctx.Done():
			e.logger.Info("fulfillment loop stopped")
			return ctx.Err()
		case req := <-e.requests:
			res, err := e.apply(req.ctx, req.event)
			req.reply <- response{result: res, err: err}
		}
	}
}

// Fulfil credits the purchase behind ev unless its session was already credited.
// Once accepted by the loop the apply step runs to completion even if ctx is cancelled.
func (e *Engine) Fulfil(ctx context.Context, ev domain.CompletionEvent) (domain.FulfillmentResult, error) {
	if ev.PaymentStatus != domain.PaymentStatusPaid {
		fulfillmentsTotal.WithLabelValues(ev.Metadata[domain.MetaType], string(ev.Channel), "unpaid").Inc()
		return domain.FulfillmentResult{OK: false, Status: ev.PaymentStatus}, nil
	}

	reply := make(chan response, 1)
	select {
	case e.requests <- request{ctx: context.WithoutCancel(ctx), event: ev, reply: reply}:
	case <-ctx.Done():
		return domain.FulfillmentResult{}, ctx.Err()
	}
	res := <-reply
	return res.result, res.err
}

func (e *Engine) apply(ctx context.Context, ev domain.CompletionEvent) (domain.FulfillmentResult, error) {
	logger := e.logger.With(slog.String("session_id", ev.SessionID), slog.String("channel", string(ev.Channel)))

	intent, err := domain.IntentFromMetadata(ev.Metadata)
	if err != nil {
		fulfillmentsTotal.WithLabelValues("unknown", string(ev.Channel), "invalid").Inc()
		logger.Warn("unusable session metadata", slog.Any("err", err))
		return domain.FulfillmentResult{}, fmt.Errorf("session %s: %w", ev.SessionID, err)
	}
	kind := string(intent.Kind)

	benefit := domain.Benefit{Kind: intent.Kind}
	err = e.store.InTx(ctx, func(tx Tx) error {
		fresh, err := tx.TestAndSet(ctx, ev.SessionID)
		if err != nil {
			return fmt.Errorf("guard: %w", err)
		}
		if !fresh {
			return errAlreadyProcessed
		}
		return grant(ctx, tx, intent, ev.AmountPaidMinor, &benefit)
	})

	result := domain.FulfillmentResult{OK: true, Login: intent.BuyerLogin}
	switch {
	case errors.Is(err, errAlreadyProcessed):
		fulfillmentsTotal.WithLabelValues(kind, string(ev.Channel), "duplicate").Inc()
		logger.Debug("session already credited")
		return result, nil
	case err != nil:
		fulfillmentsTotal.WithLabelValues(kind, string(ev.Channel), "failed").Inc()
		logger.Error("crediting failed, nothing recorded", slog.String("login", intent.BuyerLogin), slog.Any("err", err))
		return domain.FulfillmentResult{}, fmt.Errorf("%w: session %s: %v", domain.ErrPersistence, ev.SessionID, err)
	}

	fulfillmentsTotal.WithLabelValues(kind, string(ev.Channel), "credited").Inc()
	if intent.Kind == domain.KindHouse && !benefit.HouseAssigned {
		logger.Warn("house paid but not assigned", slog.String("login", intent.BuyerLogin), slog.String("house_id", intent.HouseID))
	}
	logger.Info("session credited",
		slog.String("login", intent.BuyerLogin),
		slog.String("kind", kind),
		slog.Int64("redbucks", benefit.Redbucks),
	)

	result.Credited = true
	result.Redbucks = benefit.Redbucks
	result.Benefit = &benefit
	return result, nil
}

// grant applies the benefit of intent through l and records it in b.
func grant(ctx context.Context, l Ledger, intent domain.PurchaseIntent, amountPaid int64, b *domain.Benefit) error {
	switch intent.Kind {
	case domain.KindPackage, domain.KindCustom:
		rb := intent.Redbucks
		if intent.Kind == domain.KindCustom || rb <= 0 {
			rb = domain.CustomRedbucks(amountPaid)
		}
		b.Redbucks = rb
		return l.IncrementBalance(ctx, intent.BuyerLogin, rb)

	case domain.KindHouse:
		b.HouseID = intent.HouseID
		owner, err := l.CharacterUUID(ctx, intent.BuyerLogin)
		if err != nil {
			return err
		}
		if owner == "" {
			return nil
		}
		assigned, err := l.SetHouseOwnerIfUnset(ctx, intent.HouseID, owner)
		if err != nil {
			return err
		}
		b.HouseAssigned = assigned
		return nil

	case domain.KindSanction:
		b.Action = intent.Action
		switch intent.Action {
		case domain.ActionUnban, domain.ActionTimedUnban:
			return l.ClearBan(ctx, intent.BuyerLogin)
		case domain.ActionUnwarn:
			return l.DecrementWarnings(ctx, intent.BuyerLogin)
		}
		return nil
	}
	// donations grant nothing in-game
	return nil
}
