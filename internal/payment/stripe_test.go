package payment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/punchamoorthee/rageshop/internal/config"
	"github.com/punchamoorthee/rageshop/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "whsec_test_secret"

func completedPayload(status string) []byte {
	return []byte(`{
		"id": "evt_1",
		"object": "event",
		"type": "checkout.session.completed",
		"data": {"object": {
			"id": "cs_test_1",
			"object": "checkout.session",
			"payment_status": "` + status + `",
			"amount_total": 1500,
			"currency": "eur",
			"metadata": {"login": "ana", "type": "custom"}
		}}
	}`)
}

func TestVerifyWebhook_ValidSignature(t *testing.T) {
	s := NewStripe(config.Stripe{WebhookSecret: testSecret})
	payload := completedPayload("paid")

	ev, err := s.VerifyWebhook(payload, SignPayload(payload, testSecret, time.Now()))
	require.NoError(t, err)
	require.True(t, ev.Completes())
	assert.Equal(t, "evt_1", ev.ID)
	assert.Equal(t, "cs_test_1", ev.Session.ID)
	assert.Equal(t, domain.PaymentStatusPaid, ev.Session.PaymentStatus)
	assert.Equal(t, int64(1500), ev.Session.AmountTotal)
	assert.Equal(t, "ana", ev.Session.Metadata[domain.MetaLogin])
}

func TestVerifyWebhook_RejectsBadSignature(t *testing.T) {
	s := NewStripe(config.Stripe{WebhookSecret: testSecret})
	payload := completedPayload("paid")

	tests := map[string]string{
		"wrong secret": SignPayload(payload, "whsec_other", time.Now()),
		"stale":        SignPayload(payload, testSecret, time.Now().Add(-time.Hour)),
		"missing":      "",
		"garbage":      "t=1,v1=deadbeef",
	}
	for name, sig := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := s.VerifyWebhook(payload, sig)
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrProvider))
		})
	}
}

func TestVerifyWebhook_TamperedPayload(t *testing.T) {
	s := NewStripe(config.Stripe{WebhookSecret: testSecret})
	sig := SignPayload(completedPayload("unpaid"), testSecret, time.Now())

	_, err := s.VerifyWebhook(completedPayload("paid"), sig)
	require.ErrorIs(t, err, domain.ErrProvider)
}

func TestVerifyWebhook_OtherEventType(t *testing.T) {
	s := NewStripe(config.Stripe{WebhookSecret: testSecret})
	payload := []byte(`{"id":"evt_2","object":"event","type":"charge.refunded","data":{"object":{"id":"ch_1","object":"charge"}}}`)

	ev, err := s.VerifyWebhook(payload, SignPayload(payload, testSecret, time.Now()))
	require.NoError(t, err)
	assert.False(t, ev.Completes())
	assert.Nil(t, ev.Session)
}

func TestUnconfigured(t *testing.T) {
	s := NewStripe(config.Stripe{})

	_, err := s.CreateSession(context.Background(), domain.SessionRequest{})
	require.ErrorIs(t, err, domain.ErrProvider)

	_, err = s.GetSession(context.Background(), "cs_1")
	require.ErrorIs(t, err, domain.ErrProvider)

	_, err = s.VerifyWebhook([]byte(`{}`), "t=1,v1=00")
	require.ErrorIs(t, err, domain.ErrProvider)
}
