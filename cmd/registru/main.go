package main

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"registru/internal/cache"
	"registru/internal/cli"
	"registru/internal/config"
	apphttp "registru/internal/http"
	"registru/internal/log"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger, (*config.Config).ValidateServer)

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	b, err := cli.OpenBackend(ctx, logger, cfg)
	if err != nil {
		cli.Fatal(logger, "Failed to open backend", err)
	}
	defer func() {
		if err := b.Cleanup(); err != nil {
			logger.Error("Error during cleanup", "error", err)
		}
	}()

	proxies := make([]string, 0, len(cfg.TrustedProxies))
	for _, cidr := range cfg.TrustedProxies {
		proxies = append(proxies, strings.TrimSpace(cidr))
	}

	srv := apphttp.NewServer(":"+cfg.Port, b.Registry, apphttp.Options{
		JWTSecret:              []byte(cfg.JWTSecret),
		TokenTTL:               cfg.TokenTTL,
		LoginRequestsPerMinute: cfg.LoginRateLimit,
		TrustedProxies:         proxies,
		Ready:                  b.Repository.Ping,
	})
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	caches := cache.NewManager()
	if b.ReportCache != nil {
		caches.Register(b.ReportCache)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting registru server",
			"port", cfg.Port,
			"db_driver", cfg.DBDriver,
			"amqp_enabled", b.Publisher != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return caches.Run(gctx, time.Minute)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err)
		return
	}
	logger.Info("Server stopped gracefully")
}
