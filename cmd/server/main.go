package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/eirikhm/tripfellows/internal/api"
	"github.com/eirikhm/tripfellows/internal/app"
	"github.com/eirikhm/tripfellows/internal/app/maintenance"
	iauth "github.com/eirikhm/tripfellows/internal/auth"
	"github.com/eirikhm/tripfellows/internal/database"
	"github.com/eirikhm/tripfellows/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "tripfellows:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("tripfellows", flag.ContinueOnError)
	configPath := fs.String("config", "", "additional directory to search for config.yaml")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var paths []string
	if *configPath != "" {
		paths = append(paths, *configPath)
	}

	cfg, err := app.LoadConfig(paths...)
	if err != nil {
		return err
	}

	if err := app.ConfigureLogging(cfg.Server.LogLevel); err != nil {
		return err
	}
	defer logger.Sync()

	log := logger.WithModule("server")

	db, err := database.Open(databaseConfig(cfg))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	if err := database.AutoMigrate(db); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	jwtService, err := iauth.NewJWTService(iauth.JWTConfig{
		Secret:         cfg.Auth.JWT.Secret,
		Issuer:         cfg.Auth.JWT.Issuer,
		AccessTokenTTL: cfg.Auth.JWT.TTL,
	})
	if err != nil {
		return fmt.Errorf("init jwt: %w", err)
	}

	cleaner, err := maintenance.NewCleaner(db, maintenance.Options{
		Schedule:           cfg.Maintenance.AuditSchedule,
		AuditRetentionDays: cfg.Maintenance.AuditRetentionDays,
	})
	if err != nil {
		return fmt.Errorf("init cleaner: %w", err)
	}
	if err := cleaner.Start(); err != nil {
		return fmt.Errorf("start cleaner: %w", err)
	}
	defer cleaner.Stop()

	router, err := api.NewRouter(db, jwtService, cfg)
	if err != nil {
		return fmt.Errorf("build router: %w", err)
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}

func databaseConfig(cfg *app.Config) database.Config {
	dbCfg := database.Config{
		Driver: cfg.Database.Driver,
		Path:   cfg.Database.Path,
		DSN:    cfg.Database.DSN,
	}

	switch cfg.Database.Driver {
	case "postgres", "postgresql":
		dbCfg.Host = cfg.Database.Postgres.Host
		dbCfg.Port = cfg.Database.Postgres.Port
		dbCfg.Name = cfg.Database.Postgres.Database
		dbCfg.User = cfg.Database.Postgres.Username
		dbCfg.Password = cfg.Database.Postgres.Password
	case "mysql":
		dbCfg.Host = cfg.Database.MySQL.Host
		dbCfg.Port = cfg.Database.MySQL.Port
		dbCfg.Name = cfg.Database.MySQL.Database
		dbCfg.User = cfg.Database.MySQL.Username
		dbCfg.Password = cfg.Database.MySQL.Password
	}

	return dbCfg
}
