package contract

import (
	"time"

	"gorm.io/datatypes"
)

type Contract struct {
	ID    string `gorm:"primaryKey;size:64"`
	Title string `gorm:"column:title;not null"`
	Type  string `gorm:"column:type;not null"`
	// text instead of jsonb so the stored bytes come back unchanged
	Content    datatypes.JSON `gorm:"column:content;type:text;not null"`
	OwnerEmail string         `gorm:"column:owner_email;size:254;not null;index"`
	Status     string         `gorm:"column:status;not null;default:draft"`
	CreatedAt  time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

func (Contract) TableName() string {
	return "contracts"
}
