package main

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bookstore-api/tokenauth"
	"github.com/bookstore-api/tokenauth/internal/keycloak"
)

// adminRole guards the key inspection endpoint.
const adminRole = "admin"

type profileResponse struct {
	Email      string   `json:"email"`
	GivenName  string   `json:"given_name"`
	FamilyName string   `json:"family_name"`
	Roles      []string `json:"roles"`
}

type keyResponse struct {
	ID        string `json:"kid"`
	Algorithm string `json:"alg"`
}

// newRouter builds the HTTP API. reg receives the verification metrics and
// is served on /metrics.
func newRouter(a *app, reg *prometheus.Registry, tracer tokenauth.Tracer) (http.Handler, error) {
	metrics, err := tokenauth.NewPrometheusMetrics(reg)
	if err != nil {
		return nil, err
	}

	m, err := tokenauth.New(
		tokenauth.WithVerifier(a.verifier),
		tokenauth.WithLogger(a.logger),
		tokenauth.WithMetrics(metrics),
		tokenauth.WithTracer(tracer),
		tokenauth.WithValidateOnOptions(false),
	)
	if err != nil {
		return nil, err
	}

	introspector, err := keycloak.NewIntrospector(a.urls.Introspect(), a.cfg.Keycloak.ClientID,
		&http.Client{Timeout: a.cfg.Keycloak.HTTPTimeout}, a.logger)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	r.Route("/auth", func(r chi.Router) {
		r.With(m.RequireToken).Post("/check_token", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"message": "Token is valid"})
		})
		r.Post("/introspect", introspectHandler(introspector, m.ErrorHandler()))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(m.RequireToken)

		r.Get("/profile", func(w http.ResponseWriter, r *http.Request) {
			identity := tokenauth.MustGetIdentity(r.Context())
			writeJSON(w, http.StatusOK, profileResponse{
				Email:      identity.Email,
				GivenName:  identity.GivenName,
				FamilyName: identity.FamilyName,
				Roles:      identity.Roles,
			})
		})

		r.With(m.RequireRoles(adminRole)).Get("/admin/keys", func(w http.ResponseWriter, _ *http.Request) {
			keys := a.provider.Keys()
			out := make([]keyResponse, 0, keys.Len())
			for _, kid := range keys.IDs() {
				k, _ := keys.Lookup(kid)
				out = append(out, keyResponse{ID: k.ID(), Algorithm: k.Algorithm().String()})
			}
			writeJSON(w, http.StatusOK, map[string]any{"keys": out})
		})
	})

	return r, nil
}

// introspectHandler asks the IdP whether the bearer token is still active.
func introspectHandler(in *keycloak.Introspector, onError tokenauth.ErrorHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, err := tokenauth.AuthHeaderTokenExtractor(r)
		if err == nil && token == "" {
			err = tokenauth.ErrTokenMissing
		}
		if err != nil {
			onError(w, r, err)
			return
		}

		active, err := in.Introspect(r.Context(), token)
		if errors.Is(err, keycloak.ErrIntrospectionUnavailable) {
			writeJSON(w, http.StatusServiceUnavailable, tokenauth.ErrorResponse{
				Message: "Introspection endpoint is unavailable.",
				Code:    "introspection_unavailable",
			})
			return
		}
		if err != nil {
			onError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]bool{"active": active})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
