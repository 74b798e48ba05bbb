package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/frahmantamala/digital-notary/internal"
	"github.com/frahmantamala/digital-notary/internal/core/database"
	mandateDatamodel "github.com/frahmantamala/digital-notary/internal/core/datamodel/mandate"
	"github.com/frahmantamala/digital-notary/internal/mandate"
	"github.com/frahmantamala/digital-notary/internal/seed"
	"github.com/frahmantamala/digital-notary/pkg/logger"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"
)

const testConfig = `
http_server:
  port: 9090
  allowed_origins: http://localhost:3000, https://notary.example.sk
database:
  driver: sqlite
security:
  session_secret: 0123456789abcdef0123456789abcdef
  allow_data_reset: true
observability:
  logging:
    level: warn
`

var _ = Describe("loadConfig", func() {
	var dir string

	write := func(body string) {
		Expect(os.WriteFile(filepath.Join(dir, "config.yml"), []byte(body), 0o600)).To(Succeed())
	}

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		GinkgoT().Setenv("APP_ENV", "")
		GinkgoT().Setenv("DOCKER_ENV", "")
	})

	It("reads the file and fills defaults", func() {
		write(testConfig)

		cfg, err := loadConfig(dir)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Server.Port).To(Equal(9090))
		Expect(cfg.Server.Origins()).To(Equal([]string{"http://localhost:3000", "https://notary.example.sk"}))
		Expect(cfg.Database.GetDSN()).To(ContainSubstring("mode=memory"))
		Expect(cfg.Security.SessionDuration).To(Equal(8 * time.Hour))
		Expect(cfg.Security.AllowDataReset).To(BeTrue())
		Expect(cfg.Security.EnforceMandateValidity).To(BeFalse())
		Expect(cfg.Observability.Logging.Level).To(Equal("warn"))
		Expect(cfg.Observability.Metrics.Path).To(Equal("/metrics"))
	})

	It("lets prefixed environment variables override the file", func() {
		write(testConfig)
		GinkgoT().Setenv("ENV_SECURITY_ENFORCE_MANDATE_VALIDITY", "true")
		GinkgoT().Setenv("ENV_HTTP_SERVER_PORT", "7070")

		cfg, err := loadConfig(dir)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Security.EnforceMandateValidity).To(BeTrue())
		Expect(cfg.Server.Port).To(Equal(7070))
	})

	It("rejects a short session secret", func() {
		write(`
database:
  driver: sqlite
security:
  session_secret: too-short
`)
		_, err := loadConfig(dir)
		Expect(err).To(MatchError(ContainSubstring("session secret")))
	})

	It("requires a source for postgres", func() {
		write(`
database:
  driver: postgres
security:
  session_secret: 0123456789abcdef0123456789abcdef
`)
		_, err := loadConfig(dir)
		Expect(err).To(MatchError(ContainSubstring("source is required")))
	})

	It("reads the environment in container deployments", func() {
		GinkgoT().Setenv("DOCKER_ENV", "true")
		GinkgoT().Setenv("DB_DRIVER", "sqlite")
		GinkgoT().Setenv("SESSION_SECRET", "0123456789abcdef0123456789abcdef")
		GinkgoT().Setenv("ALLOW_DATA_RESET", "true")

		cfg, err := loadConfig(dir)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Database.Driver).To(Equal("sqlite"))
		Expect(cfg.Security.AllowDataReset).To(BeTrue())
	})

	It("picks the sqlx bind driver from the database driver", func() {
		Expect(sqlxDriver("sqlite")).To(Equal("sqlite3"))
		Expect(sqlxDriver("postgres")).To(Equal("pgx"))
	})
})

var _ = Describe("event publish", func() {
	AfterEach(func() {
		eventAsync = false
	})

	It("delivers synchronously by default", func() {
		Expect(publishTestEvent(context.Background(), "office.completed")).To(Succeed())
	})

	It("waits for a background delivery", func() {
		eventAsync = true
		Expect(publishTestEvent(context.Background(), "mandate.invited")).To(Succeed())
	})
})

var _ = Describe("mandate operator commands", func() {
	var (
		db  *gorm.DB
		svc *mandate.Service
		out *bytes.Buffer
		ctx context.Context
	)

	BeforeEach(func() {
		var err error
		db, err = database.OpenInMemory()
		Expect(err).NotTo(HaveOccurred())
		ctx = context.Background()
		Expect(seed.Reset(ctx, db)).To(Succeed())
		svc = newMandateService(db, logger.Discard())
		out = &bytes.Buffer{}
	})

	status := func(id string) string {
		var m mandateDatamodel.Mandate
		Expect(db.First(&m, "id = ?", id).Error).To(Succeed())
		return m.Status
	}

	It("revokes a seeded mandate", func() {
		id := "mandate-" + seed.CompanyAutoPredaj
		Expect(revokeMandate(ctx, svc, out, id)).To(Succeed())
		Expect(out.String()).To(ContainSubstring("is now revoked"))
		Expect(status(id)).To(Equal(mandate.StatusRevoked))

		err := revokeMandate(ctx, svc, out, id)
		appErr, ok := internal.IsAppError(err)
		Expect(ok).To(BeTrue())
		Expect(appErr.Code).To(Equal(internal.ErrCodeInvalidTransition))
	})

	It("expires mandates past their validity", func() {
		id := "mandate-" + seed.CompanyReality
		ended := time.Now().UTC().Add(-time.Hour)
		Expect(db.Model(&mandateDatamodel.Mandate{}).Where("id = ?", id).Update("valid_until", ended).Error).To(Succeed())

		Expect(expireMandates(ctx, svc, out, time.Now().UTC())).To(Succeed())
		Expect(out.String()).To(Equal("expired 1 mandate(s)\n"))
		Expect(status(id)).To(Equal(mandate.StatusExpired))
		Expect(status("mandate-" + seed.CompanyDigitalNotary)).To(Equal(mandate.StatusActive))
	})
})
