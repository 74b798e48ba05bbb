package audit_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sort"

	"github.com/frahmantamala/digital-notary/internal"
	"github.com/frahmantamala/digital-notary/internal/audit"
	auditDatamodel "github.com/frahmantamala/digital-notary/internal/core/datamodel/audit"
	"github.com/frahmantamala/digital-notary/internal/core/events"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type mockRepository struct {
	logs       []*auditDatamodel.Log
	shouldFail bool
}

func (m *mockRepository) Append(_ context.Context, l *auditDatamodel.Log) error {
	if m.shouldFail {
		return errors.New("disk full")
	}
	m.logs = append(m.logs, l)
	return nil
}

func (m *mockRepository) filter(keep func(*auditDatamodel.Log) bool) []*auditDatamodel.Log {
	var out []*auditDatamodel.Log
	for _, l := range m.logs {
		if keep(l) {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (m *mockRepository) ListByCompany(_ context.Context, companyID string) ([]*auditDatamodel.Log, error) {
	if m.shouldFail {
		return nil, errors.New("disk full")
	}
	return m.filter(func(l *auditDatamodel.Log) bool { return l.CompanyID != nil && *l.CompanyID == companyID }), nil
}

func (m *mockRepository) ListByUser(_ context.Context, userID string) ([]*auditDatamodel.Log, error) {
	if m.shouldFail {
		return nil, errors.New("disk full")
	}
	return m.filter(func(l *auditDatamodel.Log) bool { return l.UserID == userID }), nil
}

var _ = Describe("Audit Service", func() {
	var (
		repo    *mockRepository
		service *audit.Service
		logger  *slog.Logger
		ctx     context.Context
	)

	BeforeEach(func() {
		repo = &mockRepository{}
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
		service = audit.NewService(repo, logger)
		ctx = context.Background()
	})

	It("records entries with sortable ULID ids", func() {
		companyID := "co1"
		first, err := service.Record(ctx, "company.connected", "connected", "u1", &companyID)
		Expect(err).NotTo(HaveOccurred())
		second, err := service.Record(ctx, "company.security_updated", "2FA on", "u1", &companyID)
		Expect(err).NotTo(HaveOccurred())

		Expect(first.ID).To(HaveLen(26))
		Expect(second.ID > first.ID).To(BeTrue())

		entries, err := service.ListForCompany(ctx, companyID)
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(HaveLen(2))
		Expect(entries[0].Action).To(Equal("company.security_updated"))
	})

	It("keeps personal actions out of company listings", func() {
		_, err := service.Record(ctx, "contract.created", "draft", "u1", nil)
		Expect(err).NotTo(HaveOccurred())

		entries, err := service.ListForCompany(ctx, "co1")
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(BeEmpty())

		mine, err := service.ListForUser(ctx, "u1")
		Expect(err).NotTo(HaveOccurred())
		Expect(mine).To(HaveLen(1))
	})

	It("reports store failures as unavailable", func() {
		repo.shouldFail = true
		_, err := service.Record(ctx, "x", "y", "u1", nil)
		appErr, ok := internal.IsAppError(err)
		Expect(ok).To(BeTrue())
		Expect(appErr.StatusCode).To(Equal(http.StatusServiceUnavailable))
	})

	Describe("EventHandler", func() {
		It("persists every audited event published on the bus", func() {
			bus := events.NewEventBus(logger)
			audit.NewEventHandler(service, logger).RegisterEventHandlers(bus)

			Expect(bus.PublishSync(ctx, events.NewCompanyConnectedEvent("u1", "co1", "12345678", "Demo"))).To(Succeed())
			Expect(bus.PublishSync(ctx, events.NewOfficeCompletedEvent("u2", "o1", "Predaj", nil))).To(Succeed())

			Expect(repo.logs).To(HaveLen(2))
			Expect(repo.logs[0].Action).To(Equal(events.EventTypeCompanyConnected))
			Expect(repo.logs[0].CompanyID).To(HaveValue(Equal("co1")))
			Expect(repo.logs[1].UserID).To(Equal("u2"))
		})

		It("refuses events without audit information", func() {
			handler := audit.NewEventHandler(service, logger)
			err := handler.HandleAuditable(ctx, events.BaseEvent{ID: "1", Type: "raw"})
			Expect(err).To(HaveOccurred())
		})
	})
})
