package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-verify-bot/internal/config"
	"github.com/go-verify-bot/internal/transport/http/handler"
	appmiddleware "github.com/go-verify-bot/internal/transport/http/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// RoleAdmin is the token role allowed on the admin API.
const RoleAdmin = "admin"

// NewRouter builds the health, metrics and admin API router. ctx bounds background cleanup.
func NewRouter(ctx context.Context, cfg *config.Config, deps *Deps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(appmiddleware.RequestLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	trusted, err := appmiddleware.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		logger.Warn("ignoring invalid TRUSTED_PROXIES, forwarding headers disabled", zap.Error(err))
		trusted = nil
	}
	// 5 requests/second, burst of 10 per client IP on the admin API.
	adminRL := appmiddleware.NewRateLimiter(ctx, rate.Limit(5), 10, trusted)

	healthH := handler.NewHealthHandler(deps.Ready)
	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/v1", func(r chi.Router) {
		r.Get("/health-check/{action}", healthH.Ping)

		if deps.Tokens == nil {
			logger.Warn("no JWT public key configured, admin API disabled")
			return
		}
		guildH := handler.NewGuildHandler(deps.Verification)
		verificationH := handler.NewVerificationHandler(deps.Verification, deps.Evidence)

		r.Group(func(r chi.Router) {
			r.Use(adminRL.Limit)
			r.Use(appmiddleware.Auth(deps.Tokens))
			r.Use(appmiddleware.RequireRole(RoleAdmin))

			r.Get("/guilds/{guildID}/config", guildH.GetConfig)
			r.Put("/guilds/{guildID}/config", guildH.PutConfig)
			r.Get("/guilds/{guildID}/stats", guildH.GetStats)

			r.Get("/verifications/pending", verificationH.ListPending)
			r.Get("/verifications/pending/{userID}", verificationH.GetPending)
			r.Get("/verifications/pending/{userID}/evidence", verificationH.Evidence)
		})
	})

	return r
}
