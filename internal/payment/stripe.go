package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/punchamoorthee/rageshop/internal/config"
	"github.com/punchamoorthee/rageshop/internal/domain"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

var ErrNotConfigured = errors.New("stripe is not configured")

// WebhookEvent is a verified provider event. Session is set for checkout events.
type WebhookEvent struct {
	ID      string
	Type    string
	Session *domain.PaymentSession
}

// Completes reports whether the event signals a finished checkout.
func (e *WebhookEvent) Completes() bool {
	switch stripe.EventType(e.Type) {
	case stripe.EventTypeCheckoutSessionCompleted, stripe.EventTypeCheckoutSessionAsyncPaymentSucceeded:
		return e.Session != nil
	}
	return false
}

// Stripe adapts the Stripe API to the shop's session model.
type Stripe struct {
	api            *client.API
	publishableKey string
	webhookSecret  string
}

func NewStripe(cfg config.Stripe) *Stripe {
	s := &Stripe{publishableKey: cfg.PublishableKey, webhookSecret: cfg.WebhookSecret}
	if cfg.SecretKey != "" {
		s.api = client.New(cfg.SecretKey, nil)
	}
	return s
}

func (s *Stripe) PublishableKey() string { return s.publishableKey }

// CreateSession creates a one-off payment session with a single line item.
func (s *Stripe) CreateSession(ctx context.Context, req domain.SessionRequest) (*domain.PaymentSession, error) {
	if s.api == nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProvider, ErrNotConfigured)
	}

	params := &stripe.CheckoutSessionParams{
		Mode:     stripe.String(string(stripe.CheckoutSessionModePayment)),
		Currency: stripe.String(req.Currency),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(req.Currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(req.ProductName),
				},
				UnitAmount: stripe.Int64(req.AmountMinor),
			},
			Quantity: stripe.Int64(1),
		}},
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
	}
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}
	params.Context = ctx
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	sess, err := s.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("%w: create session: %v", domain.ErrProvider, err)
	}
	return fromStripe(sess), nil
}

// GetSession fetches the current state of a session.
func (s *Stripe) GetSession(ctx context.Context, id string) (*domain.PaymentSession, error) {
	if s.api == nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProvider, ErrNotConfigured)
	}
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	sess, err := s.api.CheckoutSessions.Get(id, params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.HTTPStatusCode == 404 {
			return nil, fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("%w: retrieve session: %v", domain.ErrProvider, err)
	}
	return fromStripe(sess), nil
}

// VerifyWebhook checks the Stripe-Signature header against the raw payload and
// decodes the event. Nothing in the payload is trusted before this succeeds.
func (s *Stripe) VerifyWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	if s.webhookSecret == "" {
		return nil, fmt.Errorf("%w: %v", domain.ErrProvider, ErrNotConfigured)
	}
	event, err := webhook.ConstructEventWithOptions(payload, signature, s.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%w: webhook signature: %v", domain.ErrProvider, err)
	}

	out := &WebhookEvent{ID: event.ID, Type: string(event.Type)}
	if event.Data == nil || len(event.Data.Raw) == 0 {
		return out, nil
	}
	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted, stripe.EventTypeCheckoutSessionAsyncPaymentSucceeded:
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return nil, fmt.Errorf("%w: decode session: %v", domain.ErrInvalidRequest, err)
		}
		out.Session = fromStripe(&sess)
	}
	return out, nil
}

func fromStripe(sess *stripe.CheckoutSession) *domain.PaymentSession {
	return &domain.PaymentSession{
		ID:            sess.ID,
		URL:           sess.URL,
		PaymentStatus: domain.PaymentStatus(sess.PaymentStatus),
		AmountTotal:   sess.AmountTotal,
		Currency:      string(sess.Currency),
		Metadata:      sess.Metadata,
	}
}

// SignPayload builds a Stripe-Signature header for payload, as Stripe would
// when delivering it. Used by tests and the webhook benchmark.
func SignPayload(payload []byte, secret string, at time.Time) string {
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    secret,
		Timestamp: at,
	})
	return signed.Header
}
