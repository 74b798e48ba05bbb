package mandate

import (
	"time"

	"github.com/frahmantamala/digital-notary/internal/core/common/validation"
)

type InviteDTO struct {
	Email      string     `json:"email"`
	Role       string     `json:"role"`
	Scope      string     `json:"scope"`
	ValidFrom  *time.Time `json:"validFrom,omitempty"`
	ValidUntil *time.Time `json:"validUntil,omitempty"`
}

func (d InviteDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("email", d.Email).Required().MaxLength(254).Email()
	v.Field("role", d.Role).Required().MaxLength(64)
	v.Field("scope", d.Scope).Required().OneOf(ScopeAlone, ScopeJointly, ScopeRestrict)
	v.Field("validUntil", d.ValidUntil).After(d.ValidFrom, "validFrom")
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

// RespondDTO answers a pending mandate with "active" or "rejected".
type RespondDTO struct {
	Status string `json:"status"`
}

func (d RespondDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("status", d.Status).Required().OneOf(StatusActive, StatusRejected)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type ListResponse struct {
	Mandates []*View `json:"mandates"`
}
