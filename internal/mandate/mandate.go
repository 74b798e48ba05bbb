package mandate

import (
	"errors"
	"fmt"
	"time"

	"github.com/frahmantamala/digital-notary/internal/company"
	mandateDatamodel "github.com/frahmantamala/digital-notary/internal/core/datamodel/mandate"
	"github.com/frahmantamala/digital-notary/internal/user"
)

const (
	StatusPendingConfirmation = mandateDatamodel.StatusPendingConfirmation
	StatusActive              = mandateDatamodel.StatusActive
	StatusRejected            = mandateDatamodel.StatusRejected
	StatusRevoked             = mandateDatamodel.StatusRevoked
	StatusExpired             = mandateDatamodel.StatusExpired

	RoleKonatel     = company.RoleKonatel
	RoleProkurista  = company.RoleProkurista
	RoleZamestnanec = "Zamestnanec"

	ScopeAlone    = "samostatne"
	ScopeJointly  = "spolocne_s_inym"
	ScopeRestrict = "obmedzene"

	SourceEUDI       = mandateDatamodel.SourceEUDI
	SourceKEP        = mandateDatamodel.SourceKEP
	SourceInvitation = mandateDatamodel.SourceInvitation
	SourceSeed       = mandateDatamodel.SourceSeed
)

// PrivilegedRoles may invite mandates and change company security settings.
var PrivilegedRoles = []string{RoleKonatel, RoleProkurista}

// ErrStatusChanged is returned by a conditional status update that lost
// against a concurrent change.
var ErrStatusChanged = errors.New("mandate status changed concurrently")

var transitions = map[string][]string{
	StatusPendingConfirmation: {StatusActive, StatusRejected},
	StatusActive:              {StatusRevoked, StatusExpired},
}

type Mandate struct {
	ID                 string     `json:"id"`
	UserID             string     `json:"userId"`
	CompanyID          string     `json:"companyId"`
	Role               string     `json:"role"`
	Scope              string     `json:"scope"`
	ValidFrom          time.Time  `json:"validFrom"`
	ValidUntil         *time.Time `json:"validUntil,omitempty"`
	Status             string     `json:"status"`
	InvitedByID        *string    `json:"invitedById,omitempty"`
	VerificationSource string     `json:"verificationSource"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

// View is a mandate joined with the records it points at.
type View struct {
	*Mandate
	Company *company.Company `json:"company,omitempty"`
	User    *user.User       `json:"user,omitempty"`
}

func CanTransition(from, to string) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

func (m *Mandate) transition(to string) error {
	if !CanTransition(m.Status, to) {
		return fmt.Errorf("mandate cannot move from %s to %s", m.Status, to)
	}
	m.Status = to
	m.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *Mandate) Accept() error { return m.transition(StatusActive) }
func (m *Mandate) Reject() error { return m.transition(StatusRejected) }
func (m *Mandate) Revoke() error { return m.transition(StatusRevoked) }
func (m *Mandate) Expire() error { return m.transition(StatusExpired) }

// answer applies the invited user's decision to a pending mandate.
func (m *Mandate) answer(status string) error {
	switch status {
	case StatusActive:
		return m.Accept()
	case StatusRejected:
		return m.Reject()
	}
	return fmt.Errorf("mandate cannot be answered with %s", status)
}

// IsActive reports whether the mandate grants authority at now. The validity
// window only counts when enforceValidity is set.
func (m *Mandate) IsActive(now time.Time, enforceValidity bool) bool {
	if m.Status != StatusActive {
		return false
	}
	if !enforceValidity {
		return true
	}
	if now.Before(m.ValidFrom) {
		return false
	}
	return m.ValidUntil == nil || now.Before(*m.ValidUntil)
}

func (m *Mandate) IsPrivileged() bool {
	for _, role := range PrivilegedRoles {
		if m.Role == role {
			return true
		}
	}
	return false
}

func ToDataModel(m *Mandate) *mandateDatamodel.Mandate {
	return &mandateDatamodel.Mandate{
		ID:                 m.ID,
		UserID:             m.UserID,
		CompanyID:          m.CompanyID,
		Role:               m.Role,
		Scope:              m.Scope,
		ValidFrom:          m.ValidFrom,
		ValidUntil:         m.ValidUntil,
		Status:             m.Status,
		InvitedByID:        m.InvitedByID,
		VerificationSource: m.VerificationSource,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}

func FromDataModel(m *mandateDatamodel.Mandate) *Mandate {
	return &Mandate{
		ID:                 m.ID,
		UserID:             m.UserID,
		CompanyID:          m.CompanyID,
		Role:               m.Role,
		Scope:              m.Scope,
		ValidFrom:          m.ValidFrom,
		ValidUntil:         m.ValidUntil,
		Status:             m.Status,
		InvitedByID:        m.InvitedByID,
		VerificationSource: m.VerificationSource,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}
