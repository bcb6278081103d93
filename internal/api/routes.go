package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Routes builds the router. limiter may be nil; publicDir empty disables static files.
func (h *Handler) Routes(limiter *RateLimiter, publicDir string) *mux.Router {
	r := mux.NewRouter()
	r.Use(h.instrument)

	r.Handle("/metrics", promhttp.Handler()).Methods("GET")
	// Stripe retries on its own schedule, so deliveries skip the client rate limit.
	r.HandleFunc("/api/stripe/webhook", h.WebhookHandler).Methods("POST")

	api := r.PathPrefix("/api").Subrouter()
	if limiter != nil {
		api.Use(limiter.Middleware)
	}
	api.HandleFunc("/health", h.HealthCheckHandler).Methods("GET")

	api.HandleFunc("/login", h.LoginHandler).Methods("POST")
	api.HandleFunc("/logout", h.LogoutHandler).Methods("POST")
	api.HandleFunc("/me", h.MeHandler).Methods("GET")
	api.HandleFunc("/user/profile", h.requireUser(h.ProfileHandler)).Methods("GET")
	api.HandleFunc("/user/update", h.requireUser(h.UpdateUserHandler)).Methods("POST")

	api.HandleFunc("/houses", h.ListHousesHandler).Methods("GET")
	api.HandleFunc("/events", h.ListEventsHandler).Methods("GET")
	api.HandleFunc("/events/join", h.requireUser(h.JoinEventHandler)).Methods("POST")
	api.HandleFunc("/events/leave", h.requireUser(h.LeaveEventHandler)).Methods("POST")

	api.HandleFunc("/stripe/config", h.StripeConfigHandler).Methods("GET")
	api.HandleFunc("/create-checkout-session", h.requireUser(h.CreateCheckoutHandler)).Methods("POST")
	api.HandleFunc("/checkout/confirm", h.ConfirmHandler).Methods("GET")

	if publicDir != "" {
		r.PathPrefix("/").Handler(http.FileServer(http.Dir(publicDir))).Methods("GET", "HEAD")
	}
	return r
}
