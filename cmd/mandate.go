package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	companyPostgres "github.com/frahmantamala/digital-notary/internal/company/postgres"
	"github.com/frahmantamala/digital-notary/internal/core/database"
	"github.com/frahmantamala/digital-notary/internal/mandate"
	mandatePostgres "github.com/frahmantamala/digital-notary/internal/mandate/postgres"
	"github.com/frahmantamala/digital-notary/internal/user"
	userPostgres "github.com/frahmantamala/digital-notary/internal/user/postgres"
	"github.com/frahmantamala/digital-notary/pkg/logger"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var mandateCmd = &cobra.Command{
	Use:   "mandate",
	Short: "Operator actions on company mandates",
	Long: `Operator actions on company mandates. Revoking and expiring have no HTTP
route; they run against the configured database.`,
}

var expireMandatesCmd = &cobra.Command{
	Use:   "expire",
	Short: "Expire active mandates whose validity has ended",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMandates(func(svc *mandate.Service) error {
			return expireMandates(cmd.Context(), svc, cmd.OutOrStdout(), time.Now().UTC())
		})
	},
}

var revokeMandateCmd = &cobra.Command{
	Use:   "revoke [mandate-id]",
	Short: "Revoke an active mandate",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMandates(func(svc *mandate.Service) error {
			return revokeMandate(cmd.Context(), svc, cmd.OutOrStdout(), args[0])
		})
	},
}

func withMandates(fn func(svc *mandate.Service) error) error {
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
	return fn(newMandateService(db, lg))
}

func newMandateService(db *gorm.DB, lg *slog.Logger) *mandate.Service {
	users := user.NewService(userPostgres.NewUserRepository(db), lg)
	return mandate.NewService(mandatePostgres.NewMandateRepository(db),
		companyPostgres.NewCompanyRepository(db), users, nil, lg)
}

func expireMandates(ctx context.Context, svc *mandate.Service, out io.Writer, now time.Time) error {
	if ctx == nil {
		ctx = context.Background()
	}
	n, err := svc.ExpireOverdue(ctx, now)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "expired %d mandate(s)\n", n)
	return nil
}

func revokeMandate(ctx context.Context, svc *mandate.Service, out io.Writer, id string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	m, err := svc.Revoke(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "mandate %s is now %s\n", m.ID, m.Status)
	return nil
}

func init() {
	mandateCmd.AddCommand(expireMandatesCmd)
	mandateCmd.AddCommand(revokeMandateCmd)

	rootCmd.AddCommand(mandateCmd)
}
