package handlers

import (
	"github.com/go-chi/chi"
	"github.com/go-chi/jwtauth"
	log "github.com/sirupsen/logrus"
)

func (h *Handler) SetRoutes(r *chi.Mux) {
	// public routes here
	r.Get("/", h.HealthHandler)

	if h.tokenAuth == nil {
		return
	}

	r.Route("/v1", func(r chi.Router) {
		// Secure routes
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(h.tokenAuth))
			r.Use(jwtauth.Authenticator)

			r.Get("/subscribers", h.ListSubscribersHandler)
		})
	})
}

// InitAuth enables the /v1 admin routes. Without a key they are not mounted.
func (h *Handler) InitAuth(jwtKey string) {
	if jwtKey == "" {
		log.Warn("JWT_SECRET_KEY not set, admin http routes disabled")
		return
	}
	h.tokenAuth = jwtauth.New("HS256", []byte(jwtKey), nil)
}
