package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/uptrace/bun"

	"receiptstudio/frontend/login"
	"receiptstudio/infrastructure/audit"
	"receiptstudio/infrastructure/config"
	"receiptstudio/infrastructure/logger"
	"receiptstudio/infrastructure/sqlite"
	"receiptstudio/infrastructure/templates"
)

func main() {
	log := logger.New(logger.Options{ServiceName: "seedAdmin", Format: "console"})
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Error(ctx, "load config", err)
		os.Exit(1)
	}

	migrationsDir := cfg.DB.MigrationsDir
	if migrationsDir == "" {
		if migrationsDir, err = resolveMigrationsDir(); err != nil {
			log.Error(ctx, "resolve migrations dir", err)
			os.Exit(1)
		}
	}

	db, err := sqlite.OpenDB(cfg.DB.SQLitePath)
	if err != nil {
		log.Error(ctx, "open db", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := seed(ctx, db, migrationsDir, cfg.Admin.Username, cfg.Admin.Password); err != nil {
		log.Error(ctx, "seed", err)
		os.Exit(1)
	}
	fmt.Printf("seeded admin user (username=%s) and default template\n", cfg.Admin.Username)
}

// seed migrates the database, upserts the admin user and makes sure the public
// default template exists.
func seed(ctx context.Context, db *sqlite.DB, migrationsDir, username, password string) error {
	if _, err := sqlite.ApplyMigrations(ctx, db, migrationsDir); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	if err := login.UpsertUserPasswordHash(ctx, db, username, "admin", password); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	var adminID int64
	err := db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		return tx.NewRaw(`SELECT id FROM users WHERE username = ?`, strings.TrimSpace(username)).Scan(ctx, &adminID)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("admin %q missing after upsert", username)
	}
	if err != nil {
		return err
	}
	if _, err := templates.EnsureDefault(ctx, db, audit.NewService(), adminID); err != nil {
		return fmt.Errorf("ensure default template: %w", err)
	}
	return nil
}

func resolveMigrationsDir() (string, error) {
	candidates := []string{
		filepath.Join("infrastructure", "sqlite", "migrations"),
		filepath.Join("..", "..", "infrastructure", "sqlite", "migrations"),
	}

	if _, file, _, ok := runtime.Caller(0); ok {
		candidates = append(candidates, filepath.Join(filepath.Dir(file), "..", "..", "infrastructure", "sqlite", "migrations"))
	}

	tried := make([]string, 0, len(candidates))
	for _, candidate := range candidates {
		absPath, err := filepath.Abs(candidate)
		if err != nil {
			continue
		}
		tried = append(tried, absPath)

		info, err := os.Stat(absPath)
		if err != nil {
			continue
		}
		if info.IsDir() {
			return absPath, nil
		}
	}

	return "", fmt.Errorf("migrations dir not found; tried: %s", strings.Join(tried, ", "))
}
