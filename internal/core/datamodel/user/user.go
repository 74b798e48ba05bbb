package user

import "time"

type User struct {
	ID        string    `gorm:"primaryKey;size:64"`
	Name      string    `gorm:"column:name;not null"`
	Email     string    `gorm:"column:email;size:254;uniqueIndex;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (User) TableName() string {
	return "users"
}
