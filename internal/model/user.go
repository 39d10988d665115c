package model

import (
	"strconv"
	"time"
)

type (
	UserID uint
)

// User - site account. IsActive gates the login, IsStaff marks a privileged operator.
type User struct {
	ID UserID `gorm:"primaryKey" json:"id"`

	// User fields
	Username     string `gorm:"uniqueIndex;size:150;not null" json:"username"`
	Email        string `gorm:"size:254"                      json:"email"`
	PasswordHash string `gorm:"not null"                      json:"-"`
	IsActive     bool   `gorm:"not null"                      json:"is_active"`
	IsStaff      bool   `gorm:"not null;default:false"        json:"is_staff"`

	// Meta fields
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"` // Time when the user was last updated.
}

// TableName - set the table name.
func (User) TableName() string {
	return "users"
}

// GetID - get the user ID.
func (obj *User) GetID() int64 {
	return int64(obj.ID)
}

// ToInt64 - get the user ID.
func (id UserID) ToInt64() int64 {
	return int64(id)
}

// ToString - get the user ID.
func (id UserID) ToString() string {
	return strconv.FormatUint(uint64(id), 10)
}
