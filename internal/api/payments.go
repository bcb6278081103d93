package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/punchamoorthee/rageshop/internal/domain"
	"golang.org/x/exp/slog"
)

const maxWebhookBytes = 65536

// WebhookHandler receives Stripe deliveries. Anything other than a 2xx makes
// Stripe redeliver, so only ledger failures answer with 5xx.
func (h *Handler) WebhookHandler(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("request_id", requestID(r.Context())))

	// 1. Read the raw body; the signature covers the exact bytes
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "unreadable body")
		return
	}

	// 2. Verify before looking at anything in the payload
	event, err := h.payments.VerifyWebhook(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		logger.Warn("webhook rejected", slog.Any("err", err))
		respondWithError(w, http.StatusBadRequest, "webhook signature verification failed")
		return
	}

	// 3. Acknowledge events we do not act on
	if !event.Completes() {
		respondWithJSON(w, http.StatusOK, map[string]bool{"received": true})
		return
	}

	// 4. Fulfil
	res, err := h.engine.Fulfil(r.Context(), event.Session.CompletionEvent(domain.ChannelWebhook))
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		// redelivery would carry the same metadata
		logger.Error("webhook session not fulfillable",
			slog.String("event_id", event.ID),
			slog.String("session_id", event.Session.ID),
			slog.Any("err", err),
		)
	case err != nil:
		logger.Error("webhook fulfillment failed, asking for redelivery",
			slog.String("event_id", event.ID),
			slog.String("session_id", event.Session.ID),
			slog.Any("err", err),
		)
		respondWithError(w, http.StatusInternalServerError, "fulfillment failed")
		return
	default:
		logger.Info("webhook processed",
			slog.String("event_id", event.ID),
			slog.String("session_id", event.Session.ID),
			slog.Bool("credited", res.Credited),
		)
	}
	respondWithJSON(w, http.StatusOK, map[string]bool{"received": true})
}

// ConfirmHandler is polled by the success page. It credits through the same
// engine, so a session already credited by the webhook reports credited=false.
func (h *Handler) ConfirmHandler(w http.ResponseWriter, r *http.Request) {
	sid := r.URL.Query().Get("sid")
	if sid == "" {
		respondWithError(w, http.StatusBadRequest, "missing sid")
		return
	}

	sess, err := h.payments.GetSession(r.Context(), sid)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	res, err := h.engine.Fulfil(r.Context(), sess.CompletionEvent(domain.ChannelPoll))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, res)
}
