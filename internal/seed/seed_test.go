package seed_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"

	"github.com/frahmantamala/digital-notary/internal"
	"github.com/frahmantamala/digital-notary/internal/core/database"
	auditDatamodel "github.com/frahmantamala/digital-notary/internal/core/datamodel/audit"
	companyDatamodel "github.com/frahmantamala/digital-notary/internal/core/datamodel/company"
	contractDatamodel "github.com/frahmantamala/digital-notary/internal/core/datamodel/contract"
	mandateDatamodel "github.com/frahmantamala/digital-notary/internal/core/datamodel/mandate"
	officeDatamodel "github.com/frahmantamala/digital-notary/internal/core/datamodel/office"
	userDatamodel "github.com/frahmantamala/digital-notary/internal/core/datamodel/user"
	"github.com/frahmantamala/digital-notary/internal/office"
	"github.com/frahmantamala/digital-notary/internal/seed"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"
)

func count(db *gorm.DB, model interface{}) int64 {
	var n int64
	ExpectWithOffset(1, db.Model(model).Count(&n).Error).To(Succeed())
	return n
}

type stubResetter struct {
	calls int
	err   error
}

func (s *stubResetter) Reset(context.Context) error {
	s.calls++
	return s.err
}

var _ = Describe("Demo data", func() {
	var (
		db  *gorm.DB
		ctx context.Context
	)

	BeforeEach(func() {
		var err error
		db, err = database.OpenInMemory()
		Expect(err).NotTo(HaveOccurred())
		ctx = context.Background()
	})

	expectDemoState := func() {
		Expect(count(db, &userDatamodel.User{})).To(Equal(int64(3)))
		Expect(count(db, &companyDatamodel.Company{})).To(Equal(int64(3)))
		Expect(count(db, &mandateDatamodel.Mandate{})).To(Equal(int64(3)))
		Expect(count(db, &contractDatamodel.Contract{})).To(Equal(int64(1)))
		Expect(count(db, &officeDatamodel.VirtualOffice{})).To(Equal(int64(1)))
		Expect(count(db, &officeDatamodel.Participant{})).To(Equal(int64(1)))
		Expect(count(db, &officeDatamodel.Document{})).To(Equal(int64(1)))
		Expect(count(db, &officeDatamodel.Signature{})).To(Equal(int64(1)))
		Expect(count(db, &auditDatamodel.Log{})).To(Equal(int64(2)))
	}

	It("loads the demo dataset into an empty store", func() {
		Expect(seed.Reset(ctx, db)).To(Succeed())
		expectDemoState()

		var vo officeDatamodel.VirtualOffice
		Expect(db.First(&vo, "id = ?", seed.OfficeSkoda).Error).To(Succeed())
		Expect(vo.Status).To(Equal(office.StatusCompleted))
		Expect(vo.CompletedAt).NotTo(BeNil())
	})

	It("is idempotent and discards anything added in between", func() {
		Expect(seed.Reset(ctx, db)).To(Succeed())
		Expect(db.Create(&userDatamodel.User{ID: "extra", Name: "Extra", Email: "extra@example.sk"}).Error).To(Succeed())

		var before userDatamodel.User
		Expect(db.First(&before, "id = ?", seed.UserJan).Error).To(Succeed())

		Expect(seed.Reset(ctx, db)).To(Succeed())
		expectDemoState()

		var after userDatamodel.User
		Expect(db.First(&after, "id = ?", seed.UserJan).Error).To(Succeed())
		Expect(after.CreatedAt.Equal(before.CreatedAt)).To(BeTrue())
		Expect(db.First(&userDatamodel.User{}, "id = ?", "extra").Error).To(MatchError(gorm.ErrRecordNotFound))
	})

	It("stores a signature that verifies against the contract content", func() {
		Expect(seed.Reset(ctx, db)).To(Succeed())

		var c contractDatamodel.Contract
		Expect(db.First(&c, "id = ?", seed.ContractSkoda).Error).To(Succeed())
		Expect(json.Valid(c.Content)).To(BeTrue())

		var sig officeDatamodel.Signature
		Expect(db.First(&sig, "id = ?", seed.SignatureSkoda).Error).To(Succeed())
		Expect(sig.SignatureData).NotTo(BeNil())
		Expect(*sig.SignatureData).To(Equal(office.SignatureDigest(c.Content, seed.ParticipantSkoda)))
	})

	It("gives every seeded company an active mandate", func() {
		Expect(seed.Reset(ctx, db)).To(Succeed())

		var mandates []mandateDatamodel.Mandate
		Expect(db.Find(&mandates).Error).To(Succeed())
		for _, m := range mandates {
			Expect(m.Status).To(Equal("active"))
			Expect(m.Role).To(Equal("Konateľ"))
		}
	})
})

var _ = Describe("Reset handler", func() {
	var (
		stub *stubResetter
		rec  *httptest.ResponseRecorder
	)

	authed := func() *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/api/reset-data", nil)
		return req.WithContext(internal.ContextWithSession(req.Context(), &internal.Session{
			UserID: seed.UserJan, Email: "jan.novak@example.sk", Context: internal.ContextPersonal,
		}))
	}

	BeforeEach(func() {
		stub = &stubResetter{}
		rec = httptest.NewRecorder()
	})

	It("refuses when reset is disabled", func() {
		seed.NewHandler(stub, false).ResetData(rec, authed())

		Expect(rec.Code).To(Equal(http.StatusForbidden))
		Expect(rec.Body.String()).To(ContainSubstring("RESET_DISABLED"))
		Expect(stub.calls).To(BeZero())
	})

	It("requires a session", func() {
		seed.NewHandler(stub, true).ResetData(rec, httptest.NewRequest(http.MethodPost, "/api/reset-data", nil))

		Expect(rec.Code).To(Equal(http.StatusUnauthorized))
		Expect(stub.calls).To(BeZero())
	})

	It("resets when allowed", func() {
		seed.NewHandler(stub, true).ResetData(rec, authed())

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring(`"success":true`))
		Expect(stub.calls).To(Equal(1))
	})

	It("reports a store failure as 503", func() {
		stub.err = internal.NewStoreError(errors.New("disk full"))
		seed.NewHandler(stub, true).ResetData(rec, authed())

		Expect(rec.Code).To(Equal(http.StatusServiceUnavailable))
		Expect(rec.Body.String()).NotTo(ContainSubstring("disk full"))
	})

	It("resets a real store through the service", func() {
		db, err := database.OpenInMemory()
		Expect(err).NotTo(HaveOccurred())
		svc := seed.NewService(db, slog.New(slog.NewTextHandler(io.Discard, nil)))

		seed.NewHandler(svc, true).ResetData(rec, authed())

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(count(db, &userDatamodel.User{})).To(Equal(int64(3)))
	})
})
