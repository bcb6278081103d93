package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"strings"

	"github.com/punchamoorthee/rageshop/internal/auth"
	"github.com/punchamoorthee/rageshop/internal/domain"
	"golang.org/x/exp/slog"
)

func (h *Handler) HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		h.logger.Warn("health check failed", slog.Any("err", err))
		respondWithJSON(w, http.StatusServiceUnavailable, map[string]bool{"ok": false})
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Remember bool   `json:"remember"`
}

func (h *Handler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		respondWithError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	acc, err := h.store.GetAccountByEmail(r.Context(), req.Email)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		h.fail(w, r, err)
		return
	}
	if acc == nil || !auth.VerifyPassword(req.Password, acc.PasswordHash) {
		respondWithError(w, http.StatusUnauthorized, "wrong email or password")
		return
	}

	if err := h.saveUser(w, r, domain.User{Login: acc.Login, Email: acc.Email}, req.Remember); err != nil {
		h.fail(w, r, fmt.Errorf("save session: %w", err))
		return
	}
	h.logger.Info("user logged in", slog.String("login", acc.Login), slog.String("request_id", requestID(r.Context())))
	respondWithJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.clearUser(w, r); err != nil {
		h.fail(w, r, fmt.Errorf("clear session: %w", err))
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handler) MeHandler(w http.ResponseWriter, r *http.Request) {
	u, ok := h.sessionUser(r)
	if !ok {
		respondWithJSON(w, http.StatusOK, map[string]any{"user": nil})
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{"user": u})
}

func (h *Handler) ProfileHandler(w http.ResponseWriter, r *http.Request) {
	p, err := h.store.Profile(r.Context(), userFrom(r.Context()).Login)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, p)
}

type updateRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateUserHandler changes the signed-in user's email and/or password.
func (h *Handler) UpdateUserHandler(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())

	var req updateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	var u domain.AccountUpdate
	if email := strings.TrimSpace(req.Email); email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			respondWithError(w, http.StatusBadRequest, "invalid email")
			return
		}
		u.Email = &email
	}
	if req.Password != "" {
		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		u.PasswordHash = &hash
	}
	if u.Email == nil && u.PasswordHash == nil {
		respondWithError(w, http.StatusBadRequest, "nothing to update")
		return
	}

	if err := h.store.UpdateColumns(r.Context(), user.Login, u); err != nil {
		h.fail(w, r, err)
		return
	}
	if u.Email != nil {
		if err := h.setSessionEmail(w, r, *u.Email); err != nil {
			h.logger.Warn("session refresh failed", slog.String("login", user.Login), slog.Any("err", err))
		}
	}
	respondWithJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handler) ListHousesHandler(w http.ResponseWriter, r *http.Request) {
	houses, err := h.store.ListHouses(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{"houses": houses})
}

func (h *Handler) ListEventsHandler(w http.ResponseWriter, r *http.Request) {
	u, _ := h.sessionUser(r)
	events, err := h.store.ListEvents(r.Context(), u.Login)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{"events": events})
}

type eventRequest struct {
	ID domain.FlexString `json:"id"`
}

func (h *Handler) JoinEventHandler(w http.ResponseWriter, r *http.Request) {
	h.changeParticipation(w, r, true)
}

func (h *Handler) LeaveEventHandler(w http.ResponseWriter, r *http.Request) {
	h.changeParticipation(w, r, false)
}

func (h *Handler) changeParticipation(w http.ResponseWriter, r *http.Request, join bool) {
	login := userFrom(r.Context()).Login

	var req eventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if req.ID == "" {
		respondWithError(w, http.StatusBadRequest, "missing event id")
		return
	}

	change := h.store.LeaveEvent
	if join {
		change = h.store.JoinEvent
	}
	count, err := change(r.Context(), string(req.ID), login)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{"ok": true, "count": count, "joined": join})
}

func (h *Handler) StripeConfigHandler(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"publishableKey": h.payments.PublishableKey()})
}

func (h *Handler) CreateCheckoutHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.CheckoutRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	sess, err := h.checkout.CreateCheckout(r.Context(), userFrom(r.Context()), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, sess)
}
