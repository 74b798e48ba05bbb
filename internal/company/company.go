package company

import (
	"time"

	companyDatamodel "github.com/frahmantamala/digital-notary/internal/core/datamodel/company"
)

type Company struct {
	ID                   string     `json:"id"`
	ICO                  string     `json:"ico"`
	Name                 string     `json:"name"`
	Address              string     `json:"address"`
	LegalForm            string     `json:"legalForm"`
	Status               string     `json:"status"`
	EnforceTwoFactorAuth bool       `json:"enforceTwoFactorAuth"`
	VerifiedAt           *time.Time `json:"verifiedAt,omitempty"`
	CreatedAt            time.Time  `json:"createdAt"`
	UpdatedAt            time.Time  `json:"updatedAt"`
}

const (
	StatusActive = "active"

	// Statutory roles as registered in the business register.
	RoleKonatel    = "Konateľ"
	RoleProkurista = "Prokurista"
)

func ToDataModel(c *Company) *companyDatamodel.Company {
	return &companyDatamodel.Company{
		ID:                   c.ID,
		ICO:                  c.ICO,
		Name:                 c.Name,
		Address:              c.Address,
		LegalForm:            c.LegalForm,
		Status:               c.Status,
		EnforceTwoFactorAuth: c.EnforceTwoFactorAuth,
		VerifiedAt:           c.VerifiedAt,
		CreatedAt:            c.CreatedAt,
		UpdatedAt:            c.UpdatedAt,
	}
}

func FromDataModel(c *companyDatamodel.Company) *Company {
	return &Company{
		ID:                   c.ID,
		ICO:                  c.ICO,
		Name:                 c.Name,
		Address:              c.Address,
		LegalForm:            c.LegalForm,
		Status:               c.Status,
		EnforceTwoFactorAuth: c.EnforceTwoFactorAuth,
		VerifiedAt:           c.VerifiedAt,
		CreatedAt:            c.CreatedAt,
		UpdatedAt:            c.UpdatedAt,
	}
}
