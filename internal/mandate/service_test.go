package mandate_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/frahmantamala/digital-notary/internal"
	companyPostgres "github.com/frahmantamala/digital-notary/internal/company/postgres"
	"github.com/frahmantamala/digital-notary/internal/core/database"
	companyDatamodel "github.com/frahmantamala/digital-notary/internal/core/datamodel/company"
	mandateDatamodel "github.com/frahmantamala/digital-notary/internal/core/datamodel/mandate"
	userDatamodel "github.com/frahmantamala/digital-notary/internal/core/datamodel/user"
	"github.com/frahmantamala/digital-notary/internal/core/events"
	"github.com/frahmantamala/digital-notary/internal/mandate"
	mandatePostgres "github.com/frahmantamala/digital-notary/internal/mandate/postgres"
	"github.com/frahmantamala/digital-notary/internal/user"
	userPostgres "github.com/frahmantamala/digital-notary/internal/user/postgres"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"
)

type recordingBus struct {
	published []events.Event
}

func (b *recordingBus) PublishSync(_ context.Context, e events.Event) error {
	b.published = append(b.published, e)
	return nil
}

// staleRepository loses every conditional update, as if another request
// answered the mandate first.
type staleRepository struct {
	mandate.Repository
}

func (s staleRepository) TransitionStatus(context.Context, string, string, string) (*mandateDatamodel.Mandate, error) {
	return nil, mandate.ErrStatusChanged
}

func expectAppError(err error, status int) *internal.AppError {
	appErr, ok := internal.IsAppError(err)
	ExpectWithOffset(1, ok).To(BeTrue(), "expected AppError, got %v", err)
	ExpectWithOffset(1, appErr.StatusCode).To(Equal(status))
	return appErr
}

var _ = Describe("Mandate Service", func() {
	var (
		db      *gorm.DB
		repo    mandate.Repository
		bus     *recordingBus
		service *mandate.Service
		logger  *slog.Logger
		ctx     context.Context
	)

	build := func(r mandate.Repository, opts ...mandate.Option) *mandate.Service {
		users := user.NewService(userPostgres.NewUserRepository(db), logger)
		return mandate.NewService(r, companyPostgres.NewCompanyRepository(db), users, bus, logger, opts...)
	}

	grant := func(id, userID, role, status string) {
		Expect(db.Create(&mandateDatamodel.Mandate{
			ID: id, UserID: userID, CompanyID: "co-1", Role: role, Scope: mandate.ScopeAlone,
			ValidFrom: time.Now().UTC().Add(-time.Hour), Status: status, VerificationSource: mandate.SourceSeed,
		}).Error).To(Succeed())
	}

	BeforeEach(func() {
		var err error
		db, err = database.OpenInMemory()
		Expect(err).NotTo(HaveOccurred())
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
		ctx = context.Background()
		bus = &recordingBus{}

		for _, u := range []*userDatamodel.User{
			{ID: "boss", Name: "Ján Novák", Email: "jan@example.sk"},
			{ID: "clerk", Name: "Eva Tóthová", Email: "eva@example.sk"},
			{ID: "newbie", Name: "Peter Horváth", Email: "peter@example.sk"},
			{ID: "outsider", Name: "Mária Kováčová", Email: "maria@example.sk"},
		} {
			Expect(db.Create(u).Error).To(Succeed())
		}
		Expect(db.Create(&companyDatamodel.Company{ID: "co-1", ICO: "12345678", Name: "Digital Notary s.r.o.", Status: "active"}).Error).To(Succeed())
		grant("m-boss", "boss", mandate.RoleKonatel, mandate.StatusActive)
		grant("m-clerk", "clerk", mandate.RoleZamestnanec, mandate.StatusActive)

		repo = mandatePostgres.NewMandateRepository(db)
		service = build(repo)
	})

	Describe("authorization predicates", func() {
		It("finds the active mandate", func() {
			m, err := service.GetActiveMandate(ctx, "boss", "12345678")
			Expect(err).NotTo(HaveOccurred())
			Expect(m).NotTo(BeNil())
			Expect(m.Role).To(Equal(mandate.RoleKonatel))
		})

		It("returns nothing for unknown companies or users", func() {
			m, err := service.GetActiveMandate(ctx, "boss", "00000000")
			Expect(err).NotTo(HaveOccurred())
			Expect(m).To(BeNil())

			m, err = service.GetActiveMandate(ctx, "outsider", "12345678")
			Expect(err).NotTo(HaveOccurred())
			Expect(m).To(BeNil())
		})

		It("distinguishes plain and privileged mandates", func() {
			Expect(service.RequireMandate(ctx, "clerk", "12345678")).To(Succeed())

			err := service.RequirePrivileged(ctx, "clerk", "12345678")
			appErr := expectAppError(err, http.StatusForbidden)
			Expect(appErr.Code).To(Equal(internal.ErrCodeRoleNotAllowed))
			Expect(appErr.Message).To(ContainSubstring("Zamestnanec"))

			err = service.RequireMandate(ctx, "outsider", "12345678")
			appErr = expectAppError(err, http.StatusForbidden)
			Expect(appErr.Code).To(Equal(internal.ErrCodeMandateRequired))
		})

		It("ignores pending mandates", func() {
			grant("m-new", "newbie", mandate.RoleKonatel, mandate.StatusPendingConfirmation)
			expectAppError(service.RequireMandate(ctx, "newbie", "12345678"), http.StatusForbidden)
		})

		It("honours the validity window only when configured", func() {
			expired := time.Now().UTC().Add(-time.Minute)
			Expect(db.Model(&mandateDatamodel.Mandate{}).Where("id = ?", "m-boss").Update("valid_until", expired).Error).To(Succeed())

			Expect(service.RequirePrivileged(ctx, "boss", "12345678")).To(Succeed())

			strict := build(repo, mandate.WithValidityEnforcement(true))
			expectAppError(strict.RequirePrivileged(ctx, "boss", "12345678"), http.StatusForbidden)
		})
	})

	Describe("Invite", func() {
		dto := func(email string) mandate.InviteDTO {
			return mandate.InviteDTO{Email: email, Role: mandate.RoleZamestnanec, Scope: mandate.ScopeRestrict}
		}

		It("creates a pending mandate when a Konateľ invites", func() {
			m, err := service.Invite(ctx, "boss", "12345678", dto("peter@example.sk"))
			Expect(err).NotTo(HaveOccurred())
			Expect(m.UserID).To(Equal("newbie"))
			Expect(m.Status).To(Equal(mandate.StatusPendingConfirmation))
			Expect(m.InvitedByID).To(HaveValue(Equal("boss")))
			Expect(m.VerificationSource).To(Equal(mandate.SourceInvitation))
			Expect(bus.published).To(HaveLen(1))
		})

		It("forbids users without a privileged role", func() {
			_, err := service.Invite(ctx, "clerk", "12345678", dto("peter@example.sk"))
			expectAppError(err, http.StatusForbidden)

			_, err = service.Invite(ctx, "outsider", "12345678", dto("peter@example.sk"))
			expectAppError(err, http.StatusForbidden)
		})

		It("requires the invitee to be registered", func() {
			_, err := service.Invite(ctx, "boss", "12345678", dto("ghost@example.sk"))
			appErr := expectAppError(err, http.StatusNotFound)
			Expect(appErr.Code).To(Equal(internal.ErrCodeUserNotFound))
		})

		It("conflicts on a second mandate for the same user", func() {
			_, err := service.Invite(ctx, "boss", "12345678", dto("peter@example.sk"))
			Expect(err).NotTo(HaveOccurred())

			_, err = service.Invite(ctx, "boss", "12345678", dto("peter@example.sk"))
			appErr := expectAppError(err, http.StatusConflict)
			Expect(appErr.Code).To(Equal(internal.ErrCodeDuplicateMandate))
		})

		It("validates the payload", func() {
			from := time.Now().UTC()
			until := from.Add(-time.Hour)
			bad := mandate.InviteDTO{Email: "peter@example.sk", Role: "Konateľ", Scope: "all", ValidFrom: &from, ValidUntil: &until}
			_, err := service.Invite(ctx, "boss", "12345678", bad)
			appErr := expectAppError(err, http.StatusBadRequest)
			details := appErr.Details.(internal.ValidationErrors)
			Expect(details.Errors).To(HaveLen(2))
		})
	})

	Describe("Respond", func() {
		var pending *mandate.Mandate

		BeforeEach(func() {
			var err error
			pending, err = service.Invite(ctx, "boss", "12345678", mandate.InviteDTO{
				Email: "peter@example.sk", Role: mandate.RoleProkurista, Scope: mandate.ScopeAlone,
			})
			Expect(err).NotTo(HaveOccurred())
		})

		It("lets the invitee accept", func() {
			m, err := service.Respond(ctx, "newbie", pending.ID, mandate.RespondDTO{Status: mandate.StatusActive})
			Expect(err).NotTo(HaveOccurred())
			Expect(m.Status).To(Equal(mandate.StatusActive))
			Expect(service.RequirePrivileged(ctx, "newbie", "12345678")).To(Succeed())
		})

		It("lets the invitee reject", func() {
			m, err := service.Respond(ctx, "newbie", pending.ID, mandate.RespondDTO{Status: mandate.StatusRejected})
			Expect(err).NotTo(HaveOccurred())
			Expect(m.Status).To(Equal(mandate.StatusRejected))
		})

		It("refuses answers from anyone else", func() {
			_, err := service.Respond(ctx, "boss", pending.ID, mandate.RespondDTO{Status: mandate.StatusActive})
			appErr := expectAppError(err, http.StatusForbidden)
			Expect(appErr.Code).To(Equal(internal.ErrCodeNotMandateOwner))
		})

		It("refuses to accept twice", func() {
			_, err := service.Respond(ctx, "newbie", pending.ID, mandate.RespondDTO{Status: mandate.StatusActive})
			Expect(err).NotTo(HaveOccurred())

			_, err = service.Respond(ctx, "newbie", pending.ID, mandate.RespondDTO{Status: mandate.StatusActive})
			appErr := expectAppError(err, http.StatusBadRequest)
			Expect(appErr.Code).To(Equal(internal.ErrCodeInvalidTransition))
		})

		It("rejects statuses outside accept and reject", func() {
			_, err := service.Respond(ctx, "newbie", pending.ID, mandate.RespondDTO{Status: mandate.StatusPendingConfirmation})
			expectAppError(err, http.StatusBadRequest)
		})

		It("returns not found for unknown mandates", func() {
			_, err := service.Respond(ctx, "newbie", "missing", mandate.RespondDTO{Status: mandate.StatusActive})
			expectAppError(err, http.StatusNotFound)
		})

		It("reports a lost compare-and-set as a conflict", func() {
			racing := build(staleRepository{Repository: repo})
			_, err := racing.Respond(ctx, "newbie", pending.ID, mandate.RespondDTO{Status: mandate.StatusActive})
			expectAppError(err, http.StatusConflict)
		})
	})

	Describe("Revoke", func() {
		It("withdraws an active mandate", func() {
			m, err := service.Revoke(ctx, "m-clerk")
			Expect(err).NotTo(HaveOccurred())
			Expect(m.Status).To(Equal(mandate.StatusRevoked))
			expectAppError(service.RequireMandate(ctx, "clerk", "12345678"), http.StatusForbidden)
		})

		It("refuses mandates that are not active", func() {
			grant("m-new", "newbie", mandate.RoleZamestnanec, mandate.StatusPendingConfirmation)
			_, err := service.Revoke(ctx, "m-new")
			appErr := expectAppError(err, http.StatusBadRequest)
			Expect(appErr.Code).To(Equal(internal.ErrCodeInvalidTransition))
		})

		It("returns not found for unknown mandates", func() {
			_, err := service.Revoke(ctx, "missing")
			expectAppError(err, http.StatusNotFound)
		})

		It("reports a lost compare-and-set as a conflict", func() {
			racing := build(staleRepository{Repository: repo})
			_, err := racing.Revoke(ctx, "m-clerk")
			expectAppError(err, http.StatusConflict)
		})
	})

	Describe("ExpireOverdue", func() {
		It("expires active mandates past their validity and leaves the rest", func() {
			ended := time.Now().UTC().Add(-time.Minute)
			Expect(db.Model(&mandateDatamodel.Mandate{}).Where("id = ?", "m-clerk").Update("valid_until", ended).Error).To(Succeed())

			n, err := service.ExpireOverdue(ctx, time.Now().UTC())
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(1))

			stored, err := repo.GetByID(ctx, "m-clerk")
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.Status).To(Equal(mandate.StatusExpired))
			Expect(service.RequirePrivileged(ctx, "boss", "12345678")).To(Succeed())

			n, err = service.ExpireOverdue(ctx, time.Now().UTC())
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(BeZero())
		})

		It("skips mandates changed by someone else", func() {
			ended := time.Now().UTC().Add(-time.Minute)
			Expect(db.Model(&mandateDatamodel.Mandate{}).Where("id = ?", "m-clerk").Update("valid_until", ended).Error).To(Succeed())

			racing := build(staleRepository{Repository: repo})
			n, err := racing.ExpireOverdue(ctx, time.Now().UTC())
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(BeZero())
		})
	})

	Describe("listing", func() {
		It("lists the user's mandates with their company", func() {
			views, err := service.ListForUser(ctx, "boss")
			Expect(err).NotTo(HaveOccurred())
			Expect(views).To(HaveLen(1))
			Expect(views[0].Company.ICO).To(Equal("12345678"))
		})

		It("lists a company's mandates for its members only", func() {
			views, err := service.ListForCompany(ctx, "clerk", "12345678")
			Expect(err).NotTo(HaveOccurred())
			Expect(views).To(HaveLen(2))
			Expect(views[0].User).NotTo(BeNil())

			_, err = service.ListForCompany(ctx, "outsider", "12345678")
			expectAppError(err, http.StatusForbidden)
		})

		It("fails fast on a mandate pointing at a missing user", func() {
			// rows written around the foreign keys, as a bad import would
			Expect(db.Exec("PRAGMA foreign_keys = OFF").Error).To(Succeed())
			grant("m-ghost", "ghost", mandate.RoleZamestnanec, mandate.StatusActive)
			Expect(db.Exec("PRAGMA foreign_keys = ON").Error).To(Succeed())
			_, err := service.ListForCompany(ctx, "boss", "12345678")
			expectAppError(err, http.StatusInternalServerError)
		})
	})
})
