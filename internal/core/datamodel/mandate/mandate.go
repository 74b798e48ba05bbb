package mandate

import (
	"time"

	"github.com/frahmantamala/digital-notary/internal/core/datamodel/company"
	"github.com/frahmantamala/digital-notary/internal/core/datamodel/user"
)

// Status and verification source values shared by every package that writes
// mandate rows.
const (
	StatusPendingConfirmation = "pending_confirmation"
	StatusActive              = "active"
	StatusRejected            = "rejected"
	StatusRevoked             = "revoked"
	StatusExpired             = "expired"

	SourceEUDI       = "EUDI"
	SourceKEP        = "KEP"
	SourceInvitation = "invitation"
	SourceSeed       = "seed"
)

type Mandate struct {
	ID                 string     `gorm:"primaryKey;size:64"`
	UserID             string     `gorm:"column:user_id;size:64;not null;uniqueIndex:idx_mandates_user_company"`
	CompanyID          string     `gorm:"column:company_id;size:64;not null;uniqueIndex:idx_mandates_user_company;index"`
	Role               string     `gorm:"column:role;not null"`
	Scope              string     `gorm:"column:scope;not null"`
	ValidFrom          time.Time  `gorm:"column:valid_from;not null"`
	ValidUntil         *time.Time `gorm:"column:valid_until"`
	Status             string     `gorm:"column:status;not null;default:pending_confirmation"`
	InvitedByID        *string    `gorm:"column:invited_by_id;size:64"`
	VerificationSource string     `gorm:"column:verification_source"`
	CreatedAt          time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time  `gorm:"column:updated_at;autoUpdateTime"`

	User    *user.User       `gorm:"foreignKey:UserID"`
	Company *company.Company `gorm:"foreignKey:CompanyID"`
	Inviter *user.User       `gorm:"foreignKey:InvitedByID"`
}

func (Mandate) TableName() string {
	return "user_company_mandates"
}
