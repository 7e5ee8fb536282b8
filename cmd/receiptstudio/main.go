package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"receiptstudio/infrastructure/audit"
	"receiptstudio/infrastructure/cache"
	"receiptstudio/infrastructure/config"
	httpserver "receiptstudio/infrastructure/http"
	"receiptstudio/infrastructure/logger"
	"receiptstudio/infrastructure/metrics"
	"receiptstudio/infrastructure/rbac"
	"receiptstudio/infrastructure/sqlite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := logger.New(logger.Options{ServiceName: "receiptstudio", Format: "console"})
		boot.Error(context.Background(), "load config", err)
		os.Exit(1)
	}

	log := logger.New(logger.Options{
		ServiceName: "receiptstudio",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})
	ctx := context.Background()

	db, err := sqlite.OpenDB(cfg.DB.SQLitePath)
	if err != nil {
		log.Error(ctx, "open db", err)
		os.Exit(1)
	}
	defer db.Close()

	applied, err := sqlite.ApplyMigrations(ctx, db, cfg.DB.MigrationsDir)
	if err != nil {
		log.Error(ctx, "apply migrations", err)
		os.Exit(1)
	}
	if len(applied) > 0 {
		log.Info(log.WithField(ctx, "migrations", strings.Join(applied, ",")), "migrations applied")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	rbacCache := cache.NewRbacRolesCache()
	server := httpserver.NewServer(httpserver.Config{
		Addr:           cfg.App.Addr,
		PublicBaseURL:  cfg.App.PublicBaseURL,
		SessionTTL:     cfg.App.SessionTTL,
		ImageScale:     cfg.Render.ImageScale,
		QRSize:         cfg.Render.QRSize,
		LoginPerMinute: cfg.RateLimit.LoginPerMinute,
		SharePerMinute: cfg.RateLimit.SharePerMinute,
		TrustProxy:     cfg.App.TrustProxy,
		SweepInterval:  10 * time.Minute,
	}, httpserver.Deps{
		DB:           db,
		Log:          log,
		Metrics:      metrics.New(reg),
		Gatherer:     reg,
		SessionCache: cache.NewUserSessionCache(),
		UserCache:    cache.NewUserCache(),
		RbacCache:    rbacCache,
		Rbac:         rbac.New(rbacCache),
		Audit:        audit.NewService(),
	})
	if err := server.Start(); err != nil {
		log.Error(ctx, "start server", err)
		os.Exit(1)
	}
	log.Info(log.WithField(ctx, "addr", server.ListenAddr()), "receiptstudio listening")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	if err := server.Stop(); err != nil {
		log.Error(ctx, "graceful shutdown", err)
	}
}
