package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	_ "github.com/go-sql-driver/mysql"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/stockroom/stockroom/internal/adapter/storage"
	"github.com/stockroom/stockroom/internal/auth"
	"github.com/stockroom/stockroom/internal/config"
	"github.com/stockroom/stockroom/internal/core/domain"
	"github.com/stockroom/stockroom/internal/logging"
)

const seedAdminEmail = "admin@admin.com"

// NewSeedCommand creates the seed subcommand: initial admin account plus a
// handful of sample inventory items.
func NewSeedCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Seed the database with an admin account and sample inventory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.ConfigPath)
			if err != nil {
				return err
			}
			logger, err := logging.New(cfg.LogLevel)
			if err != nil {
				return err
			}
			defer logger.Sync()

			db, err := sql.Open("mysql", cfg.MySQLDSN)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := db.PingContext(cmd.Context()); err != nil {
				return err
			}

			password := os.Getenv("SEED_ADMIN_PASSWORD")
			if password == "" {
				return errors.New("seed: SEED_ADMIN_PASSWORD is required")
			}

			return seedStore(cmd.Context(), storage.NewMySQLStore(db), password, logger)
		},
	}
}

// seedStore is shared by the seed command and serve --dev.
func seedStore(ctx context.Context, st store, adminPassword string, logger *zap.Logger) error {
	if _, err := st.UserByEmail(ctx, seedAdminEmail); err == nil {
		logger.Info("admin account already exists, skipping")
	} else if errors.Is(err, domain.ErrNotFound) {
		hash, err := auth.HashPassword(adminPassword)
		if err != nil {
			return fmt.Errorf("hash admin password: %w", err)
		}
		admin, err := st.CreateUser(ctx, domain.User{
			Email:        seedAdminEmail,
			FirstName:    "System",
			LastName:     "Administrator",
			PasswordHash: hash,
			Role:         domain.RoleAdmin,
			Status:       domain.UserStatusActive,
		})
		if err != nil {
			return fmt.Errorf("create admin account: %w", err)
		}
		logger.Info("admin account created", zap.String("user_id", admin.ID))
	} else {
		return fmt.Errorf("check admin account: %w", err)
	}

	samples := []domain.InventoryItem{
		{Name: "Box of A4 paper", Description: "500 sheets, 80gsm", StockLevel: 120, LowStockThreshold: 20},
		{Name: "Stapler", Description: "Desktop stapler, 20-sheet capacity", StockLevel: 35, LowStockThreshold: 5},
		{Name: "Whiteboard marker", Description: "Black, bullet tip", StockLevel: 200, LowStockThreshold: 50},
	}
	for _, item := range samples {
		if _, err := st.ItemByName(ctx, item.Name); err == nil {
			continue
		} else if !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("check sample item: %w", err)
		}
		created, err := st.CreateItem(ctx, item)
		if err != nil {
			return fmt.Errorf("create sample item: %w", err)
		}
		logger.Info("sample item created", zap.String("item_id", created.ID), zap.String("name", created.Name))
	}

	return nil
}
