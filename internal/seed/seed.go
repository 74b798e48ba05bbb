package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/frahmantamala/digital-notary/internal/company"
	"github.com/frahmantamala/digital-notary/internal/contract"
	"github.com/frahmantamala/digital-notary/internal/core/datamodel"
	auditDatamodel "github.com/frahmantamala/digital-notary/internal/core/datamodel/audit"
	companyDatamodel "github.com/frahmantamala/digital-notary/internal/core/datamodel/company"
	contractDatamodel "github.com/frahmantamala/digital-notary/internal/core/datamodel/contract"
	mandateDatamodel "github.com/frahmantamala/digital-notary/internal/core/datamodel/mandate"
	officeDatamodel "github.com/frahmantamala/digital-notary/internal/core/datamodel/office"
	userDatamodel "github.com/frahmantamala/digital-notary/internal/core/datamodel/user"
	"github.com/frahmantamala/digital-notary/internal/mandate"
	"github.com/frahmantamala/digital-notary/internal/office"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Fixed ids of the demo dataset.
const (
	UserJan   = "user-jan-novak"
	UserMaria = "user-maria-kovacova"
	UserPeter = "user-peter-horvath"

	CompanyDigitalNotary = "company-digital-notary"
	CompanyAutoPredaj    = "company-auto-predaj"
	CompanyReality       = "company-reality-horvath"

	ContractSkoda    = "contract-skoda-octavia"
	OfficeSkoda      = "example-office-skoda-octavia"
	ParticipantSkoda = "participant-skoda-jan"
	DocumentSkoda    = "document-skoda-octavia"
	SignatureSkoda   = "signature-skoda-jan"
)

// epoch is the timestamp of every seeded row, so two loads are identical.
var epoch = time.Date(2025, time.January, 15, 9, 0, 0, 0, time.UTC)

const skodaContent = `{"seller":{"name":"Ján Novák","address":"Hlavná 1, 811 01 Bratislava"},"buyer":{"name":"Mária Kováčová","address":"Mlynská 12, 040 01 Košice"},"vehicle":{"make":"Škoda","model":"Octavia","vin":"TMBJJ7NE8L0123456","year":2020,"licensePlate":"BA123XY","mileage":48000},"price":15900,"currency":"EUR"}`

// Dataset is the complete demo state.
type Dataset struct {
	Users       []*userDatamodel.User
	Companies   []*companyDatamodel.Company
	Mandates    []*mandateDatamodel.Mandate
	Contracts   []*contractDatamodel.Contract
	Offices     []*officeDatamodel.VirtualOffice
	Participant []*officeDatamodel.Participant
	Documents   []*officeDatamodel.Document
	Signatures  []*officeDatamodel.Signature
	AuditLogs   []*auditDatamodel.Log
}

// Demo builds a fresh copy of the demo dataset.
func Demo() *Dataset {
	registry := company.NewMockRegistry()
	verified := epoch

	users := []*userDatamodel.User{
		{ID: UserJan, Name: "Ján Novák", Email: "jan.novak@example.sk", CreatedAt: epoch},
		{ID: UserMaria, Name: "Mária Kováčová", Email: "maria.kovacova@example.sk", CreatedAt: epoch},
		{ID: UserPeter, Name: "Peter Horváth", Email: "peter.horvath@example.sk", CreatedAt: epoch},
	}

	owners := []struct {
		companyID string
		ico       string
		userID    string
	}{
		{CompanyDigitalNotary, "12345678", UserJan},
		{CompanyAutoPredaj, "87654321", UserMaria},
		{CompanyReality, "11223344", UserPeter},
	}

	var (
		companies []*companyDatamodel.Company
		mandates  []*mandateDatamodel.Mandate
	)
	for _, o := range owners {
		rec, _ := registry.Lookup(o.ico)
		companies = append(companies, &companyDatamodel.Company{
			ID:         o.companyID,
			ICO:        rec.ICO,
			Name:       rec.Name,
			Address:    rec.Address,
			LegalForm:  rec.LegalForm,
			Status:     company.StatusActive,
			VerifiedAt: &verified,
			CreatedAt:  epoch,
			UpdatedAt:  epoch,
		})
		mandates = append(mandates, &mandateDatamodel.Mandate{
			ID:                 "mandate-" + o.companyID,
			UserID:             o.userID,
			CompanyID:          o.companyID,
			Role:               rec.StatutoryRole,
			Scope:              rec.AuthorizingScope,
			ValidFrom:          epoch,
			Status:             mandate.StatusActive,
			VerificationSource: mandate.SourceSeed,
			CreatedAt:          epoch,
			UpdatedAt:          epoch,
		})
	}

	ownerCompany := CompanyDigitalNotary
	processType := "vehicle_sale"
	signedAt := epoch.Add(30 * time.Minute)
	completedAt := signedAt
	digest := office.SignatureDigest([]byte(skodaContent), ParticipantSkoda)

	return &Dataset{
		Users:     users,
		Companies: companies,
		Mandates:  mandates,
		Contracts: []*contractDatamodel.Contract{{
			ID:         ContractSkoda,
			Title:      "Kúpna zmluva Škoda Octavia",
			Type:       contract.TypeVehicle,
			Content:    datatypes.JSON(skodaContent),
			OwnerEmail: "jan.novak@example.sk",
			Status:     contract.StatusCompleted,
			CreatedAt:  epoch,
			UpdatedAt:  signedAt,
		}},
		Offices: []*officeDatamodel.VirtualOffice{{
			ID:             OfficeSkoda,
			Name:           "Kúpna zmluva Škoda Octavia",
			CreatedByID:    UserJan,
			OwnerCompanyID: &ownerCompany,
			ProcessType:    &processType,
			Status:         office.StatusCompleted,
			CompletedAt:    &completedAt,
			CreatedAt:      epoch,
			UpdatedAt:      signedAt,
		}},
		Participant: []*officeDatamodel.Participant{{
			ID:          ParticipantSkoda,
			OfficeID:    OfficeSkoda,
			UserID:      UserJan,
			Status:      office.ParticipantAccepted,
			InvitedAt:   epoch,
			RespondedAt: &verified,
		}},
		Documents: []*officeDatamodel.Document{{
			ID:         DocumentSkoda,
			OfficeID:   OfficeSkoda,
			ContractID: ContractSkoda,
			Status:     office.DocumentSigned,
			CreatedAt:  epoch,
		}},
		Signatures: []*officeDatamodel.Signature{{
			ID:            SignatureSkoda,
			DocumentID:    DocumentSkoda,
			ParticipantID: ParticipantSkoda,
			Status:        office.SignatureSigned,
			SignedAt:      &signedAt,
			SignatureData: &digest,
			CreatedAt:     epoch,
		}},
		AuditLogs: []*auditDatamodel.Log{
			{
				ID:        "01JHNV8X0000000000000SEED1",
				Timestamp: epoch,
				Action:    "company.connected",
				Details:   "Company Digital Notary s.r.o. (12345678) connected",
				UserID:    UserJan,
				CompanyID: &ownerCompany,
			},
			{
				ID:        "01JHNV8X0000000000000SEED2",
				Timestamp: signedAt,
				Action:    "office.completed",
				Details:   "Virtual office Kúpna zmluva Škoda Octavia completed",
				UserID:    UserJan,
				CompanyID: &ownerCompany,
			},
		},
	}
}

// rows lists the dataset in insert order, parents first.
func (d *Dataset) rows() []interface{} {
	return []interface{}{
		d.Users, d.Companies, d.Mandates, d.Contracts, d.Offices,
		d.Participant, d.Documents, d.Signatures, d.AuditLogs,
	}
}

// Clear deletes every row of every table in tx, children first.
func Clear(tx *gorm.DB) error {
	models := datamodel.All()
	for i := len(models) - 1; i >= 0; i-- {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(models[i]).Error; err != nil {
			return fmt.Errorf("failed to clear %T: %w", models[i], err)
		}
	}
	return nil
}

// Load inserts the demo dataset in tx.
func Load(tx *gorm.DB, d *Dataset) error {
	for _, rows := range d.rows() {
		if err := tx.Create(rows).Error; err != nil {
			return fmt.Errorf("failed to seed %T: %w", rows, err)
		}
	}
	return nil
}

// Reset wipes the store and loads the demo dataset in one transaction.
func Reset(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := Clear(tx); err != nil {
			return err
		}
		return Load(tx, Demo())
	})
}
