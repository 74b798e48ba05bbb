package cmd

import (
	"context"
	"fmt"

	"github.com/frahmantamala/digital-notary/internal/core/database"
	"github.com/frahmantamala/digital-notary/internal/seed"
	"github.com/frahmantamala/digital-notary/pkg/logger"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with the demo dataset",
	Long: `Seed the database with three users, their companies and mandates, and one
completed virtual office. Use --clear to wipe every table first. The sqlite
driver keeps its data in memory, so seeding it only makes sense through
database.seed_on_start.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(configPath)
		if err != nil {
			return err
		}
		initLogger(cfg)
		lg := logger.LoggerWrapper()

		db, err := database.Open(cfg.Database, lg)
		if err != nil {
			return fmt.Errorf("failed to init db: %w", err)
		}

		ctx := context.Background()
		if clearData {
			if err := seed.Reset(ctx, db); err != nil {
				return err
			}
			lg.Info("database cleared and seeded")
			return nil
		}

		err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return seed.Load(tx, seed.Demo())
		})
		if err != nil {
			return fmt.Errorf("failed to seed (run with --clear if demo data already exists): %w", err)
		}
		lg.Info("database seeded")
		return nil
	},
}
