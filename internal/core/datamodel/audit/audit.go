package audit

import "time"

type Log struct {
	ID        string    `gorm:"primaryKey;size:32" db:"id"`
	Timestamp time.Time `gorm:"column:timestamp;not null;index" db:"timestamp"`
	Action    string    `gorm:"column:action;not null" db:"action"`
	Details   string    `gorm:"column:details" db:"details"`
	UserID    string    `gorm:"column:user_id;size:64;not null" db:"user_id"`
	CompanyID *string   `gorm:"column:company_id;size:64;index" db:"company_id"`
}

func (Log) TableName() string {
	return "audit_logs"
}
