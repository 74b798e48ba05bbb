package company

import "time"

type Company struct {
	ID                   string     `gorm:"primaryKey;size:64"`
	ICO                  string     `gorm:"column:ico;size:8;uniqueIndex;not null"`
	Name                 string     `gorm:"column:name;not null"`
	Address              string     `gorm:"column:address"`
	LegalForm            string     `gorm:"column:legal_form"`
	Status               string     `gorm:"column:status;default:active"`
	EnforceTwoFactorAuth bool       `gorm:"column:enforce_two_factor_auth;default:false"`
	VerifiedAt           *time.Time `gorm:"column:verified_at"`
	CreatedAt            time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (Company) TableName() string {
	return "companies"
}
