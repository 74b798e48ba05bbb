package contract_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/digital-notary/internal"
	"github.com/frahmantamala/digital-notary/internal/contract"
	contractDatamodel "github.com/frahmantamala/digital-notary/internal/core/datamodel/contract"
	"github.com/frahmantamala/digital-notary/internal/core/events"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type mockRepository struct {
	contracts  map[string]*contractDatamodel.Contract
	shouldFail bool
}

func newMockRepository() *mockRepository {
	return &mockRepository{contracts: make(map[string]*contractDatamodel.Contract)}
}

func (m *mockRepository) Create(_ context.Context, c *contractDatamodel.Contract) error {
	if m.shouldFail {
		return errors.New("connection refused")
	}
	m.contracts[c.ID] = c
	return nil
}

func (m *mockRepository) GetByID(_ context.Context, id string) (*contractDatamodel.Contract, error) {
	if m.shouldFail {
		return nil, errors.New("connection refused")
	}
	if c, ok := m.contracts[id]; ok {
		return c, nil
	}
	return nil, internal.ErrNotFound
}

func (m *mockRepository) ListByOwner(_ context.Context, ownerEmail string) ([]*contractDatamodel.Contract, error) {
	var out []*contractDatamodel.Contract
	for _, c := range m.contracts {
		if c.OwnerEmail == ownerEmail {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *mockRepository) ListByIDs(_ context.Context, ids []string) ([]*contractDatamodel.Contract, error) {
	var out []*contractDatamodel.Contract
	for _, id := range ids {
		if c, ok := m.contracts[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *mockRepository) Update(_ context.Context, id string, updates map[string]interface{}) (*contractDatamodel.Contract, error) {
	c, ok := m.contracts[id]
	if !ok {
		return nil, internal.ErrNotFound
	}
	if title, ok := updates["title"].(string); ok {
		c.Title = title
	}
	return c, nil
}

type mockShared struct {
	allowed map[string]bool
}

func (m *mockShared) HasContractAccess(_ context.Context, userID, contractID string) (bool, error) {
	return m.allowed[userID+"/"+contractID], nil
}

type recordingBus struct {
	published []events.Event
}

func (b *recordingBus) PublishSync(_ context.Context, e events.Event) error {
	b.published = append(b.published, e)
	return nil
}

func expectAppError(err error, status int) *internal.AppError {
	appErr, ok := internal.IsAppError(err)
	ExpectWithOffset(1, ok).To(BeTrue(), "expected AppError, got %v", err)
	ExpectWithOffset(1, appErr.StatusCode).To(Equal(status))
	return appErr
}

var _ = Describe("Contract Service", func() {
	var (
		repo    *mockRepository
		shared  *mockShared
		bus     *recordingBus
		service *contract.Service
		ctx     context.Context
		owner   contract.Actor
	)

	BeforeEach(func() {
		repo = newMockRepository()
		shared = &mockShared{allowed: map[string]bool{}}
		bus = &recordingBus{}
		service = contract.NewService(repo, bus, slog.New(slog.NewTextHandler(io.Discard, nil)))
		service.SetSharedAccess(shared)
		ctx = context.Background()
		owner = contract.Actor{UserID: "u1", Email: "Jan@Example.sk"}
	})

	create := func() *contract.Contract {
		c, err := service.Create(ctx, owner, contract.CreateDTO{
			Title: "Predaj Škoda Octavia", Type: contract.TypeVehicle, Content: []byte(vehicleContent),
		})
		Expect(err).NotTo(HaveOccurred())
		return c
	}

	Describe("Create", func() {
		It("stores a draft with the raw content", func() {
			c := create()
			Expect(c.Status).To(Equal(contract.StatusDraft))
			Expect(c.OwnerEmail).To(Equal("jan@example.sk"))
			Expect(string(c.Content)).To(Equal(vehicleContent))
			Expect(string(repo.contracts[c.ID].Content)).To(Equal(vehicleContent))
			Expect(bus.published).To(HaveLen(1))
			Expect(bus.published[0].EventType()).To(Equal(events.EventTypeContractCreated))
		})

		It("accepts content serialized into a string", func() {
			var dto contract.CreateDTO
			body := `{"title":"Plná moc","type":"power_of_attorney","content":"{ \"principal\": {\"name\":\"A\"},\"agent\":{\"name\":\"B\"},\"scope\":\"všetko\"}"}`
			Expect(json.Unmarshal([]byte(body), &dto)).To(Succeed())

			c, err := service.Create(ctx, owner, dto)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(c.Content)).To(Equal(`{ "principal": {"name":"A"},"agent":{"name":"B"},"scope":"všetko"}`))
		})

		It("rejects content that does not match the type", func() {
			_, err := service.Create(ctx, owner, contract.CreateDTO{
				Title: "Nájom", Type: contract.TypeRental, Content: []byte(vehicleContent),
			})
			expectAppError(err, http.StatusBadRequest)
			Expect(repo.contracts).To(BeEmpty())
		})

		It("reports store failures as unavailable", func() {
			repo.shouldFail = true
			_, err := service.Create(ctx, owner, contract.CreateDTO{
				Title: "x", Type: contract.TypeVehicle, Content: []byte(vehicleContent),
			})
			expectAppError(err, http.StatusServiceUnavailable)
		})
	})

	Describe("Get", func() {
		It("returns the contract to its owner", func() {
			c := create()
			got, err := service.Get(ctx, contract.Actor{UserID: "u1", Email: "jan@example.sk"}, c.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.ID).To(Equal(c.ID))
		})

		It("returns the contract to office participants", func() {
			c := create()
			stranger := contract.Actor{UserID: "u2", Email: "maria@example.sk"}

			_, err := service.Get(ctx, stranger, c.ID)
			expectAppError(err, http.StatusForbidden)

			shared.allowed["u2/"+c.ID] = true
			_, err = service.Get(ctx, stranger, c.ID)
			Expect(err).NotTo(HaveOccurred())
		})

		It("distinguishes missing contracts from store failures", func() {
			_, err := service.Get(ctx, owner, "missing")
			expectAppError(err, http.StatusNotFound)

			repo.shouldFail = true
			_, err = service.Get(ctx, owner, "missing")
			expectAppError(err, http.StatusServiceUnavailable)
		})
	})

	Describe("ListByOwner", func() {
		It("lists only the caller's contracts", func() {
			create()
			list, err := service.ListByOwner(ctx, owner, "")
			Expect(err).NotTo(HaveOccurred())
			Expect(list).To(HaveLen(1))

			list, err = service.ListByOwner(ctx, owner, "JAN@example.sk")
			Expect(err).NotTo(HaveOccurred())
			Expect(list).To(HaveLen(1))

			_, err = service.ListByOwner(ctx, owner, "maria@example.sk")
			expectAppError(err, http.StatusForbidden)
		})
	})

	Describe("Rename", func() {
		It("renames drafts for the owner only", func() {
			c := create()
			renamed, err := service.Rename(ctx, owner, c.ID, contract.UpdateDTO{Title: "Predaj auta"})
			Expect(err).NotTo(HaveOccurred())
			Expect(renamed.Title).To(Equal("Predaj auta"))

			_, err = service.Rename(ctx, contract.Actor{UserID: "u2", Email: "maria@example.sk"}, c.ID, contract.UpdateDTO{Title: "x"})
			expectAppError(err, http.StatusForbidden)
		})

		It("refuses contracts already in signing", func() {
			c := create()
			repo.contracts[c.ID].Status = contract.StatusPending
			_, err := service.Rename(ctx, owner, c.ID, contract.UpdateDTO{Title: "x"})
			expectAppError(err, http.StatusConflict)
		})
	})
})
