package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/go-verify-bot/internal/application/verification"
	"github.com/go-verify-bot/internal/infrastructure/discord"
	"github.com/go-verify-bot/internal/infrastructure/docstore"
	jwtinfra "github.com/go-verify-bot/internal/infrastructure/jwt"
	s3infra "github.com/go-verify-bot/internal/infrastructure/s3"
	snsinfra "github.com/go-verify-bot/internal/infrastructure/sns"
	"github.com/go-verify-bot/internal/metrics"
	"github.com/go-verify-bot/internal/transport/bot"
	transporthttp "github.com/go-verify-bot/internal/transport/http"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Connect to the gateway and serve the admin API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return run(ctx)
	},
}

func run(ctx context.Context) error {
	if cfg.Discord.Token == "" {
		return errors.New("DISCORD_BOT_TOKEN is required")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	docs, err := docstore.New(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("init database: %w", err)
	}
	if docs == nil {
		log.Warn("database disabled, verification state lives in memory only")
	}
	store := verification.NewStore(docs, m, log)

	client, err := discord.New(cfg.Discord.Token, log)
	if err != nil {
		return err
	}

	opts := []verification.Option{verification.WithMetrics(m), verification.WithLogger(log)}
	deps := &transporthttp.Deps{Gatherer: reg, Logger: log}

	// Evidence archive (optional).
	if cfg.S3EvidenceBucket != "" {
		s3Client, err := s3infra.NewClient(ctx, cfg)
		if err != nil {
			return fmt.Errorf("init s3: %w", err)
		}
		archive := s3infra.NewArchive(s3Client, cfg.S3EvidenceBucket)
		opts = append(opts, verification.WithArchive(archive))
		deps.Evidence = archive
	}

	// Audit feed (optional).
	if cfg.SNSAuditTopicARN != "" {
		pub, err := snsinfra.NewPublisher(ctx, cfg)
		if err != nil {
			return fmt.Errorf("init sns: %w", err)
		}
		opts = append(opts, verification.WithAuditor(pub))
	}

	// JWT provider (optional, admin API stays unmounted without keys).
	if p, err := jwtinfra.NewProvider(cfg); err == nil {
		deps.Tokens = p
	} else {
		log.Warn("JWT provider not available", zap.Error(err))
	}

	svc := verification.NewService(store, client, opts...)
	deps.Verification = svc

	var ready atomic.Bool
	client.OnReady(func(userTag string, guilds int) {
		ready.Store(true)
		log.Info("logged in", zap.String("user", userTag), zap.Int("guilds", guilds))
	})
	deps.Ready = ready.Load

	shell := bot.New(bot.Deps{
		Config:  cfg,
		Conn:    client,
		Client:  client,
		Store:   store,
		Service: svc,
		Metrics: m,
		Logger:  log,
	})
	if err := shell.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err := shell.Stop(); err != nil {
			log.Warn("close gateway", zap.Error(err))
		}
	}()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      transporthttp.NewRouter(ctx, cfg, deps),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server starting", zap.String("port", cfg.HTTPPort), zap.String("env", cfg.AppEnv))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}
	log.Info("stopped")
	return nil
}
