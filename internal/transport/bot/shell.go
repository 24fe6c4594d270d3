// Package bot wires gateway events to the router and registers the bot's
// commands, review buttons, DM intake, welcome DMs and triggers.
package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/go-verify-bot/internal/application/dispatch"
	"github.com/go-verify-bot/internal/application/verification"
	"github.com/go-verify-bot/internal/config"
	"github.com/go-verify-bot/internal/infrastructure/discord"
	"github.com/go-verify-bot/internal/metrics"
	"github.com/go-verify-bot/internal/platform"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// limiterSweepPeriod is how often idle rate-limit buckets are dropped.
const limiterSweepPeriod = time.Minute

// Welcome DMs go out at most one per second with a small burst.
const (
	welcomeRate  = rate.Limit(1)
	welcomeBurst = 5
)

// Conn is the gateway connection the shell drives.
type Conn interface {
	Bind(ctx context.Context, d discord.Dispatcher)
	Open() error
	Close() error
}

// Loader restores persisted state before events are accepted.
type Loader interface {
	Load(ctx context.Context) error
}

// Deps holds what the shell needs to run.
type Deps struct {
	Config  *config.Config
	Conn    Conn
	Client  platform.Client
	Store   Loader
	Service verification.Service
	Metrics *metrics.Metrics
	Logger  *zap.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

// Shell owns the router and the gateway lifecycle.
type Shell struct {
	conn     Conn
	store    Loader
	router   *dispatch.Router
	limiters []*dispatch.RateLimiter
	logger   *zap.Logger
	cancel   context.CancelFunc
}

func New(d Deps) *Shell {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := d.Now
	if now == nil {
		now = time.Now
	}
	rl := d.Config.RateLimits
	cmdLimiter := dispatch.NewRateLimiter(rl.Commands.Amount, rl.Commands.Interval)
	trigLimiter := dispatch.NewRateLimiter(rl.Triggers.Amount, rl.Triggers.Interval)

	router := dispatch.NewRouter(dispatch.Options{
		SelfID:         d.Client.SelfID,
		CommandLimiter: cmdLimiter,
		TriggerLimiter: trigLimiter,
		Permissions:    dispatch.InteractionPermissions{},
		Metrics:        d.Metrics,
		Logger:         logger,
	})

	review := reviewButton{svc: d.Service, client: d.Client, now: now, logger: logger}
	router.RegisterCommands(
		&pingCommand{client: d.Client, started: now(), now: now},
		&verificationCommand{svc: d.Service},
	)
	router.RegisterButtons(&approveButton{review}, &rejectButton{review})
	router.RegisterTriggers(&verifyMeTrigger{svc: d.Service, client: d.Client})
	router.RegisterMessageHandlers(&submissionHandler{svc: d.Service, client: d.Client, logger: logger})
	if d.Config.WelcomeDMEnabled {
		router.RegisterJoinHandlers(&welcomeHandler{
			svc:     d.Service,
			client:  d.Client,
			limiter: rate.NewLimiter(welcomeRate, welcomeBurst),
			logger:  logger,
		})
	}

	return &Shell{
		conn:     d.Conn,
		store:    d.Store,
		router:   router,
		limiters: []*dispatch.RateLimiter{cmdLimiter, trigLimiter},
		logger:   logger,
	}
}

// Router exposes the router for tests and additional registrations.
func (s *Shell) Router() *dispatch.Router { return s.router }

// Start loads persisted state, binds the router and opens the gateway.
func (s *Shell) Start(ctx context.Context) error {
	if err := s.store.Load(ctx); err != nil {
		return fmt.Errorf("load verification state: %w", err)
	}
	ctx, s.cancel = context.WithCancel(ctx)
	for _, l := range s.limiters {
		go l.Run(ctx, limiterSweepPeriod)
	}
	s.conn.Bind(ctx, s.router)
	if err := s.conn.Open(); err != nil {
		s.cancel()
		return err
	}
	s.logger.Info("bot connected")
	return nil
}

// Stop cancels in-flight handlers and closes the gateway.
func (s *Shell) Stop() error {
	if s.cancel != nil {
		s.cancel()
	}
	return s.conn.Close()
}
