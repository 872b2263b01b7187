package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"acs-platform/internal/audit"
	"acs-platform/internal/auth"
	"acs-platform/internal/biostar"
	"acs-platform/internal/config"
	"acs-platform/internal/directory"
	"acs-platform/internal/extlog"
	"acs-platform/internal/httpapi"
	"acs-platform/internal/invitations"
	"acs-platform/internal/whitelist"
	"acs-platform/pkg/logger"
	"acs-platform/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/microsoft/go-mssqldb"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
	if err != nil {
		log.Error("redis init failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	dir := directory.NewPostgresRepo(db)
	wlStore := whitelist.NewPostgresStore(db)
	wlService := whitelist.NewService(wlStore, dir, whitelist.NewRedisPairLocker(rdb))
	auditService := audit.NewService(audit.NewPostgresRepo(db))
	invService := invitations.NewService(invitations.NewPostgresRepo(db), dir)

	extStore := extlog.NewPostgresStore(db)
	var syncer *extlog.Synchronizer
	if cfg.ExtSource.Enabled {
		fetcher, err := extlog.NewFetcher(extlog.SourceConfig{
			Enabled:      cfg.ExtSource.Enabled,
			Host:         cfg.ExtSource.Host,
			Port:         cfg.ExtSource.Port,
			Database:     cfg.ExtSource.Database,
			User:         cfg.ExtSource.User,
			Password:     cfg.ExtSource.Password,
			Table:        cfg.ExtSource.Table,
			DefaultLimit: cfg.ExtSource.DefaultLimit,
		})
		if err != nil {
			log.Error("external log source init failed", "err", err)
			os.Exit(1)
		}
		syncer = extlog.NewSynchronizer(fetcher, extStore, fetcher.DefaultLimit(), log)
		go syncer.Run(rootCtx, cfg.ExtSource.PollInterval)
		log.Info("external log synchronizer started", "interval", cfg.ExtSource.PollInterval)
	}

	var bioService *biostar.Service
	if cfg.BioStar.BaseURL != "" {
		client := biostar.NewClient(biostar.Config{
			BaseURL:       cfg.BioStar.BaseURL,
			Username:      cfg.BioStar.Username,
			Password:      cfg.BioStar.Password,
			VerifyTLS:     cfg.BioStar.VerifyTLS,
			Timeout:       cfg.BioStar.Timeout,
			SessionMaxAge: cfg.BioStar.SessionMaxAge,
		})
		bioService = biostar.NewService(client, biostar.NewPostgresStore(db), log)
	}

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	handlers := httpapi.Handlers{
		Auth:        authManager,
		Whitelist:   wlService,
		Invitations: invService,
		ExtLogs:     extStore,
		Syncer:      syncer,
		BioStar:     bioService,
		Audit:       auditService,
	}
	registerRoutes(r, handlers, auth.RequireAccessToken(authManager))

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}

	_ = logger.ShutdownFlush(shutdownCtx, 2*time.Second)
}
