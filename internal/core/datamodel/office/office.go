package office

import (
	"time"

	"github.com/frahmantamala/digital-notary/internal/core/datamodel/company"
	"github.com/frahmantamala/digital-notary/internal/core/datamodel/contract"
	"github.com/frahmantamala/digital-notary/internal/core/datamodel/user"
)

// The pointer fields on these models declare foreign keys for AutoMigrate.
// Nothing preloads them.
type VirtualOffice struct {
	ID             string     `gorm:"primaryKey;size:64"`
	Name           string     `gorm:"column:name;not null"`
	CreatedByID    string     `gorm:"column:created_by_id;size:64;not null"`
	OwnerCompanyID *string    `gorm:"column:owner_company_id;size:64;index"`
	ProcessType    *string    `gorm:"column:process_type"`
	Status         string     `gorm:"column:status;not null;default:active"`
	CompletedAt    *time.Time `gorm:"column:completed_at"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time  `gorm:"column:updated_at;autoUpdateTime"`

	Creator      *user.User       `gorm:"foreignKey:CreatedByID"`
	OwnerCompany *company.Company `gorm:"foreignKey:OwnerCompanyID"`
}

func (VirtualOffice) TableName() string {
	return "virtual_offices"
}

type Participant struct {
	ID                 string     `gorm:"primaryKey;size:64"`
	OfficeID           string     `gorm:"column:office_id;size:64;not null;uniqueIndex:idx_participants_office_user"`
	UserID             string     `gorm:"column:user_id;size:64;not null;uniqueIndex:idx_participants_office_user;index"`
	Status             string     `gorm:"column:status;not null;default:INVITED"`
	RequiredRole       *string    `gorm:"column:required_role"`
	RequiredCompanyICO *string    `gorm:"column:required_company_ico;size:8"`
	InvitedByID        *string    `gorm:"column:invited_by_id;size:64"`
	InvitedAt          time.Time  `gorm:"column:invited_at;not null"`
	RespondedAt        *time.Time `gorm:"column:responded_at"`

	Office  *VirtualOffice `gorm:"foreignKey:OfficeID"`
	User    *user.User     `gorm:"foreignKey:UserID"`
	Inviter *user.User     `gorm:"foreignKey:InvitedByID"`
}

func (Participant) TableName() string {
	return "virtual_office_participants"
}

type Document struct {
	ID         string    `gorm:"primaryKey;size:64"`
	OfficeID   string    `gorm:"column:office_id;size:64;not null;uniqueIndex:idx_documents_office_contract"`
	ContractID string    `gorm:"column:contract_id;size:64;not null;uniqueIndex:idx_documents_office_contract;index"`
	Status     string    `gorm:"column:status;not null;default:pending"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`

	Office   *VirtualOffice     `gorm:"foreignKey:OfficeID"`
	Contract *contract.Contract `gorm:"foreignKey:ContractID"`
}

func (Document) TableName() string {
	return "virtual_office_documents"
}

type Signature struct {
	ID            string     `gorm:"primaryKey;size:64"`
	DocumentID    string     `gorm:"column:document_id;size:64;not null;uniqueIndex:idx_signatures_document_participant"`
	ParticipantID string     `gorm:"column:participant_id;size:64;not null;uniqueIndex:idx_signatures_document_participant;index"`
	Status        string     `gorm:"column:status;not null;default:PENDING"`
	SignedAt      *time.Time `gorm:"column:signed_at"`
	SignatureData *string    `gorm:"column:signature_data"`
	CreatedAt     time.Time  `gorm:"column:created_at;autoCreateTime"`

	Document    *Document    `gorm:"foreignKey:DocumentID"`
	Participant *Participant `gorm:"foreignKey:ParticipantID"`
}

func (Signature) TableName() string {
	return "virtual_office_signatures"
}
