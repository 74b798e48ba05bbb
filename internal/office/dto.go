package office

import (
	"github.com/frahmantamala/digital-notary/internal/core/common/validation"
)

type CreateDTO struct {
	Name            string  `json:"name"`
	OwnerCompanyICO *string `json:"ownerCompanyIco,omitempty"`
	ProcessType     *string `json:"processType,omitempty"`
}

func (d CreateDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("name", d.Name).Required().MaxLength(200)
	if d.OwnerCompanyICO != nil {
		v.Field("ownerCompanyIco", *d.OwnerCompanyICO).Required().ICO()
	}
	if d.ProcessType != nil {
		v.Field("processType", *d.ProcessType).MaxLength(64)
	}
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type InviteDTO struct {
	Email              string  `json:"email"`
	RequiredRole       *string `json:"requiredRole,omitempty"`
	RequiredCompanyICO *string `json:"requiredCompanyIco,omitempty"`
}

func (d InviteDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("email", d.Email).Required().MaxLength(254).Email()
	if d.RequiredCompanyICO != nil {
		v.Field("requiredCompanyIco", *d.RequiredCompanyICO).Required().ICO()
	}
	if d.RequiredRole != nil {
		v.Field("requiredRole", *d.RequiredRole).Required().MaxLength(64)
	}
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

// RespondDTO answers an invitation with ACCEPTED or REJECTED.
type RespondDTO struct {
	Status string `json:"status"`
}

func (d RespondDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("status", d.Status).Required().OneOf(ParticipantAccepted, ParticipantRejected)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

// UpdateDTO is a partial office update; every field is optional.
type UpdateDTO struct {
	Name       *string `json:"name,omitempty"`
	Status     *string `json:"status,omitempty"`
	ContractID *string `json:"contractId,omitempty"`
}

func (d UpdateDTO) Validate() error {
	v := validation.NewValidator()
	if d.Name != nil {
		v.Field("name", *d.Name).Required().MaxLength(200)
	}
	if d.Status != nil {
		v.Field("status", *d.Status).Required().OneOf(StatusCompleted)
	}
	if d.ContractID != nil {
		v.Field("contractId", *d.ContractID).Required()
	}
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type ListResponse struct {
	Offices []*View `json:"offices"`
}

type InvitationsResponse struct {
	Invitations []*InvitationView `json:"invitations"`
}

type ParticipantsResponse struct {
	Participants []*ParticipantView `json:"participants"`
}

type DocumentsResponse struct {
	Documents []*DocumentView `json:"documents"`
}

type SignResponse struct {
	Signature    *Signature `json:"signature"`
	OfficeStatus string     `json:"officeStatus"`
}
