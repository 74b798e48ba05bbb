package office_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/frahmantamala/digital-notary/internal"
	companyPostgres "github.com/frahmantamala/digital-notary/internal/company/postgres"
	"github.com/frahmantamala/digital-notary/internal/contract"
	contractPostgres "github.com/frahmantamala/digital-notary/internal/contract/postgres"
	"github.com/frahmantamala/digital-notary/internal/core/database"
	companyDatamodel "github.com/frahmantamala/digital-notary/internal/core/datamodel/company"
	contractDatamodel "github.com/frahmantamala/digital-notary/internal/core/datamodel/contract"
	mandateDatamodel "github.com/frahmantamala/digital-notary/internal/core/datamodel/mandate"
	officeDatamodel "github.com/frahmantamala/digital-notary/internal/core/datamodel/office"
	userDatamodel "github.com/frahmantamala/digital-notary/internal/core/datamodel/user"
	"github.com/frahmantamala/digital-notary/internal/core/events"
	"github.com/frahmantamala/digital-notary/internal/mandate"
	mandatePostgres "github.com/frahmantamala/digital-notary/internal/mandate/postgres"
	"github.com/frahmantamala/digital-notary/internal/office"
	officePostgres "github.com/frahmantamala/digital-notary/internal/office/postgres"
	"github.com/frahmantamala/digital-notary/internal/user"
	userPostgres "github.com/frahmantamala/digital-notary/internal/user/postgres"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type recordingBus struct {
	published []events.Event
}

func (b *recordingBus) PublishSync(_ context.Context, e events.Event) error {
	b.published = append(b.published, e)
	return nil
}

func (b *recordingBus) types() []string {
	var out []string
	for _, e := range b.published {
		out = append(out, e.EventType())
	}
	return out
}

func expectAppError(err error, status int) *internal.AppError {
	appErr, ok := internal.IsAppError(err)
	ExpectWithOffset(1, ok).To(BeTrue(), "expected AppError, got %v", err)
	ExpectWithOffset(1, appErr.StatusCode).To(Equal(status))
	return appErr
}

const contractContent = `{"seller":{"name":"Ján Novák"},"buyer":{"name":"Mária Kováčová"},"vehicle":{"make":"Škoda","model":"Octavia","vin":"TMBJJ7NE8L0123456"},"price":15900}`

var _ = Describe("Office Service", func() {
	var (
		db      *gorm.DB
		bus     *recordingBus
		service *office.Service
		ctx     context.Context
	)

	BeforeEach(func() {
		var err error
		db, err = database.OpenInMemory()
		Expect(err).NotTo(HaveOccurred())
		ctx = context.Background()
		bus = &recordingBus{}
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))

		for _, u := range []*userDatamodel.User{
			{ID: "jan", Name: "Ján Novák", Email: "jan@example.sk"},
			{ID: "maria", Name: "Mária Kováčová", Email: "maria@example.sk"},
			{ID: "peter", Name: "Peter Horváth", Email: "peter@example.sk"},
		} {
			Expect(db.Create(u).Error).To(Succeed())
		}
		Expect(db.Create(&companyDatamodel.Company{ID: "co-1", ICO: "12345678", Name: "Digital Notary s.r.o.", Status: "active"}).Error).To(Succeed())
		Expect(db.Create(&mandateDatamodel.Mandate{
			ID: "m-jan", UserID: "jan", CompanyID: "co-1", Role: mandate.RoleKonatel, Scope: mandate.ScopeAlone,
			ValidFrom: time.Now().UTC(), Status: mandate.StatusActive, VerificationSource: mandate.SourceSeed,
		}).Error).To(Succeed())
		Expect(db.Create(&contractDatamodel.Contract{
			ID: "contract-1", Title: "Predaj Škoda Octavia", Type: contract.TypeVehicle,
			Content: datatypes.JSON(contractContent), OwnerEmail: "jan@example.sk", Status: contract.StatusDraft,
		}).Error).To(Succeed())

		users := user.NewService(userPostgres.NewUserRepository(db), logger)
		companies := companyPostgres.NewCompanyRepository(db)
		mandates := mandate.NewService(mandatePostgres.NewMandateRepository(db), companies, users, nil, logger)
		service = office.NewService(officePostgres.NewOfficeRepository(db), users,
			contractPostgres.NewContractRepository(db), companies, mandates, bus, logger)
	})

	newOffice := func() *office.View {
		v, err := service.CreateOffice(ctx, "jan", office.CreateDTO{Name: "Predaj auta"})
		Expect(err).NotTo(HaveOccurred())
		return v
	}

	invite := func(officeID, email string) *office.ParticipantView {
		p, err := service.InviteParticipant(ctx, "jan", officeID, office.InviteDTO{Email: email})
		Expect(err).NotTo(HaveOccurred())
		return p
	}

	respond := func(userID, officeID, participantID, status string) {
		_, err := service.RespondToInvitation(ctx, userID, officeID, participantID, office.RespondDTO{Status: status})
		Expect(err).NotTo(HaveOccurred())
	}

	contractStatus := func() string {
		var c contractDatamodel.Contract
		Expect(db.First(&c, "id = ?", "contract-1").Error).To(Succeed())
		return c.Status
	}

	Describe("CreateOffice", func() {
		It("makes the creator an accepted participant", func() {
			v := newOffice()
			Expect(v.Status).To(Equal(office.StatusActive))
			Expect(v.Participants).To(HaveLen(1))
			Expect(v.Participants[0].Status).To(Equal(office.ParticipantAccepted))
			Expect(v.Participants[0].User.Name).To(Equal("Ján Novák"))
			Expect(v.Documents).To(BeEmpty())
		})

		It("requires a mandate for the owner company", func() {
			ico := "12345678"
			v, err := service.CreateOffice(ctx, "jan", office.CreateDTO{Name: "Firemná", OwnerCompanyICO: &ico})
			Expect(err).NotTo(HaveOccurred())
			Expect(v.OwnerCompanyID).To(HaveValue(Equal("co-1")))

			_, err = service.CreateOffice(ctx, "maria", office.CreateDTO{Name: "Firemná", OwnerCompanyICO: &ico})
			appErr := expectAppError(err, http.StatusForbidden)
			Expect(appErr.Code).To(Equal(internal.ErrCodeMandateRequired))
		})
	})

	Describe("access", func() {
		It("hides offices from non participants", func() {
			v := newOffice()
			_, err := service.GetOffice(ctx, "maria", v.ID)
			appErr := expectAppError(err, http.StatusForbidden)
			Expect(appErr.Code).To(Equal(internal.ErrCodeNotParticipant))

			_, err = service.GetOffice(ctx, "jan", "missing")
			expectAppError(err, http.StatusNotFound)
		})

		It("does not let invited participants act yet", func() {
			v := newOffice()
			invite(v.ID, "maria@example.sk")

			_, err := service.InviteParticipant(ctx, "maria", v.ID, office.InviteDTO{Email: "peter@example.sk"})
			expectAppError(err, http.StatusForbidden)

			_, err = service.ListDocuments(ctx, "maria", v.ID)
			expectAppError(err, http.StatusForbidden)
		})
	})

	Describe("InviteParticipant", func() {
		It("invites registered users once", func() {
			v := newOffice()
			p := invite(v.ID, "maria@example.sk")
			Expect(p.Status).To(Equal(office.ParticipantInvited))
			Expect(p.User.ID).To(Equal("maria"))

			_, err := service.InviteParticipant(ctx, "jan", v.ID, office.InviteDTO{Email: "maria@example.sk"})
			appErr := expectAppError(err, http.StatusConflict)
			Expect(appErr.Code).To(Equal(internal.ErrCodeDuplicateInvite))

			_, err = service.InviteParticipant(ctx, "jan", v.ID, office.InviteDTO{Email: "nobody@example.sk"})
			expectAppError(err, http.StatusNotFound)

			invitations, err := service.ListInvitations(ctx, "maria")
			Expect(err).NotTo(HaveOccurred())
			Expect(invitations).To(HaveLen(1))
			Expect(invitations[0].Office.ID).To(Equal(v.ID))
		})
	})

	Describe("RespondToInvitation", func() {
		It("only lets the invitee answer, once", func() {
			v := newOffice()
			p := invite(v.ID, "maria@example.sk")

			_, err := service.RespondToInvitation(ctx, "jan", v.ID, p.ID, office.RespondDTO{Status: office.ParticipantAccepted})
			appErr := expectAppError(err, http.StatusForbidden)
			Expect(appErr.Code).To(Equal(internal.ErrCodeNotInvitee))

			respond("maria", v.ID, p.ID, office.ParticipantAccepted)

			_, err = service.RespondToInvitation(ctx, "maria", v.ID, p.ID, office.RespondDTO{Status: office.ParticipantRejected})
			expectAppError(err, http.StatusBadRequest)

			offices, err := service.ListOffices(ctx, "maria")
			Expect(err).NotTo(HaveOccurred())
			Expect(offices).To(HaveLen(1))
		})

		It("gives late joiners a pending signature on attached documents", func() {
			v := newOffice()
			_, err := service.AttachContract(ctx, "jan", v.ID, "contract-1")
			Expect(err).NotTo(HaveOccurred())

			p := invite(v.ID, "maria@example.sk")
			respond("maria", v.ID, p.ID, office.ParticipantAccepted)

			docs, err := service.ListDocuments(ctx, "maria", v.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(docs).To(HaveLen(1))
			Expect(docs[0].Signatures).To(HaveLen(2))
		})

		It("checks the company requirement of an invitation", func() {
			v := newOffice()
			ico := "12345678"
			role := mandate.RoleKonatel
			p, err := service.InviteParticipant(ctx, "jan", v.ID, office.InviteDTO{
				Email: "maria@example.sk", RequiredCompanyICO: &ico, RequiredRole: &role,
			})
			Expect(err).NotTo(HaveOccurred())

			_, err = service.RespondToInvitation(ctx, "maria", v.ID, p.ID, office.RespondDTO{Status: office.ParticipantAccepted})
			expectAppError(err, http.StatusForbidden)

			respond("maria", v.ID, p.ID, office.ParticipantRejected)
		})

		It("completes the office when a rejection leaves nothing outstanding", func() {
			v := newOffice()
			attached, err := service.AttachContract(ctx, "jan", v.ID, "contract-1")
			Expect(err).NotTo(HaveOccurred())
			p := invite(v.ID, "maria@example.sk")

			res, err := service.SignDocument(ctx, "jan", v.ID, attached.Documents[0].ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.OfficeStatus).To(Equal(office.StatusActive))

			respond("maria", v.ID, p.ID, office.ParticipantRejected)

			got, err := service.GetOffice(ctx, "jan", v.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Status).To(Equal(office.StatusCompleted))
			Expect(contractStatus()).To(Equal(contract.StatusCompleted))
			Expect(bus.types()).To(ContainElement(events.EventTypeOfficeCompleted))
		})
	})

	Describe("CreateOffice for a deleted user", func() {
		It("reports the dangling creator as a conflict and stores nothing", func() {
			_, err := service.CreateOffice(ctx, "ghost", office.CreateDTO{Name: "Sirota"})
			appErr := expectAppError(err, http.StatusConflict)
			Expect(appErr.Code).To(Equal(internal.ErrCodeDanglingRef))

			var count int64
			Expect(db.Model(&officeDatamodel.VirtualOffice{}).Count(&count).Error).To(Succeed())
			Expect(count).To(BeZero())
		})
	})

	Describe("AttachContract", func() {
		It("adds the document, renames the office and marks the contract pending", func() {
			v := newOffice()
			p := invite(v.ID, "maria@example.sk")
			respond("maria", v.ID, p.ID, office.ParticipantAccepted)

			updated, err := service.AttachContract(ctx, "jan", v.ID, "contract-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Name).To(Equal("Predaj Škoda Octavia"))
			Expect(updated.Documents).To(HaveLen(1))
			Expect(updated.Documents[0].Contract.ID).To(Equal("contract-1"))
			Expect(updated.Documents[0].Signatures).To(HaveLen(2))
			Expect(contractStatus()).To(Equal(contract.StatusPending))

			_, err = service.AttachContract(ctx, "jan", v.ID, "contract-1")
			appErr := expectAppError(err, http.StatusConflict)
			Expect(appErr.Code).To(Equal(internal.ErrCodeDuplicateDocument))
		})

		It("refuses contracts the participant cannot see", func() {
			v, err := service.CreateOffice(ctx, "maria", office.CreateDTO{Name: "Cudzia"})
			Expect(err).NotTo(HaveOccurred())

			_, err = service.AttachContract(ctx, "maria", v.ID, "contract-1")
			expectAppError(err, http.StatusForbidden)

			_, err = service.AttachContract(ctx, "maria", v.ID, "missing")
			expectAppError(err, http.StatusNotFound)
		})

		It("is reachable through UpdateOffice", func() {
			v := newOffice()
			id := "contract-1"
			updated, err := service.UpdateOffice(ctx, "jan", v.ID, office.UpdateDTO{ContractID: &id})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Documents).To(HaveLen(1))
		})
	})

	Describe("signing", func() {
		var (
			v     *office.View
			docID string
		)

		BeforeEach(func() {
			v = newOffice()
			p := invite(v.ID, "maria@example.sk")
			respond("maria", v.ID, p.ID, office.ParticipantAccepted)
			attached, err := service.AttachContract(ctx, "jan", v.ID, "contract-1")
			Expect(err).NotTo(HaveOccurred())
			docID = attached.Documents[0].ID
		})

		It("completes the office with the last signature", func() {
			completed := office.StatusCompleted
			_, err := service.UpdateOffice(ctx, "jan", v.ID, office.UpdateDTO{Status: &completed})
			appErr := expectAppError(err, http.StatusConflict)
			Expect(appErr.Code).To(Equal(internal.ErrCodeOfficeNotReady))

			res, err := service.SignDocument(ctx, "jan", v.ID, docID)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.OfficeStatus).To(Equal(office.StatusActive))
			Expect(res.Signature.Status).To(Equal(office.SignatureSigned))
			Expect(*res.Signature.SignatureData).To(Equal(office.SignatureDigest([]byte(contractContent), res.Signature.ParticipantID)))

			_, err = service.SignDocument(ctx, "jan", v.ID, docID)
			expectAppError(err, http.StatusConflict)

			res, err = service.SignDocument(ctx, "maria", v.ID, docID)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.OfficeStatus).To(Equal(office.StatusCompleted))

			got, err := service.GetOffice(ctx, "jan", v.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Status).To(Equal(office.StatusCompleted))
			Expect(got.CompletedAt).NotTo(BeNil())
			Expect(got.Documents[0].Status).To(Equal(office.DocumentSigned))
			Expect(contractStatus()).To(Equal(contract.StatusCompleted))
			Expect(bus.types()).To(ContainElement(events.EventTypeOfficeCompleted))

			_, err = service.SignDocument(ctx, "maria", v.ID, docID)
			appErr = expectAppError(err, http.StatusConflict)
			Expect(appErr.Code).To(Equal(internal.ErrCodeOfficeCompleted))
		})

		It("waits for open invitations before completing", func() {
			pending := invite(v.ID, "peter@example.sk")

			_, err := service.SignDocument(ctx, "jan", v.ID, docID)
			Expect(err).NotTo(HaveOccurred())
			res, err := service.SignDocument(ctx, "maria", v.ID, docID)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.OfficeStatus).To(Equal(office.StatusActive))

			respond("peter", v.ID, pending.ID, office.ParticipantRejected)

			completed := office.StatusCompleted
			got, err := service.UpdateOffice(ctx, "jan", v.ID, office.UpdateDTO{Status: &completed})
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Status).To(Equal(office.StatusCompleted))
		})

		It("rejects documents of another office", func() {
			other := newOffice()
			_, err := service.SignDocument(ctx, "jan", other.ID, docID)
			expectAppError(err, http.StatusNotFound)
		})

		It("shares the contract with accepted participants", func() {
			ok, err := service.HasContractAccess(ctx, "maria", "contract-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())

			ok, err = service.HasContractAccess(ctx, "peter", "contract-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeFalse())
		})
	})

	Describe("UpdateOffice", func() {
		It("renames and rejects unknown statuses", func() {
			v := newOffice()
			name := "Nový názov"
			got, err := service.UpdateOffice(ctx, "jan", v.ID, office.UpdateDTO{Name: &name})
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Name).To(Equal(name))
			Expect(got.CreatedAt).To(BeTemporally("==", v.CreatedAt))

			active := office.StatusActive
			_, err = service.UpdateOffice(ctx, "jan", v.ID, office.UpdateDTO{Status: &active})
			expectAppError(err, http.StatusBadRequest)
		})
	})

	It("fails fast on a participant without a user", func() {
		v := newOffice()
		Expect(db.Exec("PRAGMA foreign_keys = OFF").Error).To(Succeed())
		Expect(db.Create(&officeDatamodel.Participant{
			ID: "ghost-p", OfficeID: v.ID, UserID: "ghost", Status: office.ParticipantAccepted, InvitedAt: time.Now().UTC(),
		}).Error).To(Succeed())
		Expect(db.Exec("PRAGMA foreign_keys = ON").Error).To(Succeed())

		_, err := service.GetOffice(ctx, "jan", v.ID)
		appErr := expectAppError(err, http.StatusInternalServerError)
		Expect(appErr.Code).To(Equal(internal.ErrCodeDanglingRef))
	})
})
