package auth

import (
	"time"

	"github.com/frahmantamala/digital-notary/internal"
	"github.com/frahmantamala/digital-notary/internal/core/common/validation"
	"github.com/frahmantamala/digital-notary/internal/mandate"
	"github.com/frahmantamala/digital-notary/internal/user"
)

// MockLoginDTO stands in for the identity wallet response.
type MockLoginDTO struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (d MockLoginDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("email", d.Email).Required().MaxLength(254).Email()
	v.Field("name", d.Name).MaxLength(200)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type SetContextDTO struct {
	Type       string `json:"type"`
	CompanyICO string `json:"companyIco,omitempty"`
}

func (d SetContextDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("type", d.Type).Required().OneOf(internal.ContextPersonal, internal.ContextCompany)
	if d.Type == internal.ContextCompany {
		v.Field("companyIco", d.CompanyICO).Required().ICO()
	}
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type SessionContext struct {
	Type       string `json:"type"`
	CompanyICO string `json:"companyIco,omitempty"`
}

type LoginResponse struct {
	User      *user.User `json:"user"`
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expiresAt"`
}

type ContextResponse struct {
	Context   SessionContext `json:"context"`
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expiresAt"`
}

type CurrentUserResponse struct {
	User     *user.User      `json:"user"`
	Mandates []*mandate.View `json:"mandates"`
	Context  SessionContext  `json:"context"`
}
