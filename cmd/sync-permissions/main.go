package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/primepath/primepath-backend/internal/config"
	"github.com/primepath/primepath-backend/internal/database"
	"github.com/primepath/primepath-backend/internal/logger"
	"github.com/primepath/primepath-backend/internal/model"
	"github.com/primepath/primepath-backend/internal/repository"
	"github.com/primepath/primepath-backend/internal/service"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	fmt.Println("=== Sync Permissions ===")
	fmt.Printf("Registers every permission code and grants all of them to role %d (Administrator).\n", service.AdministratorRoleID)

	codes := make([]string, 0, len(model.AllPermissions))
	for _, p := range model.AllPermissions {
		codes = append(codes, string(p))
	}

	var added, granted int64
	err = database.WithTx(ctx, pool, func(tx pgx.Tx) error {
		roles := repository.NewRoleRepository(pool).WithTx(tx)
		var err error
		if added, err = roles.EnsurePermissions(ctx, codes); err != nil {
			return fmt.Errorf("ensure permissions: %w", err)
		}
		if granted, err = roles.GrantAllPermissions(ctx, service.AdministratorRoleID); err != nil {
			return fmt.Errorf("grant permissions: %w", err)
		}
		return nil
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to sync permissions")
	}

	fmt.Printf("\nSuccess! %d new permission codes registered, %d grants added to the Administrator role.\n", added, granted)
}
