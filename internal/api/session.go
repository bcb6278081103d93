package api

import (
	"context"
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/punchamoorthee/rageshop/internal/domain"
)

const (
	sessionName    = "rage.sid"
	rememberMaxAge = 30 * 24 * 60 * 60
)

// NewCookieStore returns the signed cookie store that holds the logged-in user.
func NewCookieStore(secret string, secure bool) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   rememberMaxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// sessionUser reads the user from the cookie. A missing or tampered cookie is
// an anonymous visitor.
func (h *Handler) sessionUser(r *http.Request) (domain.User, bool) {
	sess, err := h.sessions.Get(r, sessionName)
	if err != nil {
		return domain.User{}, false
	}
	login, _ := sess.Values["login"].(string)
	email, _ := sess.Values["email"].(string)
	if login == "" {
		return domain.User{}, false
	}
	return domain.User{Login: login, Email: email}, true
}

func (h *Handler) saveUser(w http.ResponseWriter, r *http.Request, u domain.User, remember bool) error {
	sess, _ := h.sessions.Get(r, sessionName)
	sess.Values["login"] = u.Login
	sess.Values["email"] = u.Email
	opts := *sess.Options
	if remember {
		opts.MaxAge = rememberMaxAge
	} else {
		// browser-session cookie
		opts.MaxAge = 0
	}
	sess.Options = &opts
	return sess.Save(r, w)
}

// setSessionEmail updates the cached email and keeps the cookie lifetime.
func (h *Handler) setSessionEmail(w http.ResponseWriter, r *http.Request, email string) error {
	sess, _ := h.sessions.Get(r, sessionName)
	sess.Values["email"] = email
	return sess.Save(r, w)
}

func (h *Handler) clearUser(w http.ResponseWriter, r *http.Request) error {
	sess, _ := h.sessions.Get(r, sessionName)
	sess.Values = map[interface{}]interface{}{}
	opts := *sess.Options
	opts.MaxAge = -1
	sess.Options = &opts
	return sess.Save(r, w)
}

func userFrom(ctx context.Context) domain.User {
	u, _ := ctx.Value(userKey).(domain.User)
	return u
}

// requireUser rejects anonymous requests and puts the user in the context.
func (h *Handler) requireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := h.sessionUser(r)
		if !ok {
			respondWithError(w, http.StatusUnauthorized, "login required")
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), userKey, u)))
	}
}
