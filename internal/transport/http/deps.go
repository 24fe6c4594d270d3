package http

import (
	"github.com/go-verify-bot/internal/transport/http/handler"
	appmiddleware "github.com/go-verify-bot/internal/transport/http/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// VerificationService is the part of the verification engine the admin API needs.
type VerificationService interface {
	handler.GuildConfigService
	handler.PendingService
}

// Deps holds the collaborators the router wires into handlers.
type Deps struct {
	Verification VerificationService
	// Evidence is nil when no archive bucket is configured.
	Evidence handler.EvidencePresigner
	// Tokens is nil when no JWT public key is configured; admin routes are then not mounted.
	Tokens   appmiddleware.TokenVerifier
	Gatherer prometheus.Gatherer
	// Ready reports whether the gateway session is connected.
	Ready  func() bool
	Logger *zap.Logger
}
