package model

import (
	"database/sql"
	"time"
)

// SystemIssuer is printed instead of the issuer name when a ban has no issuer.
const SystemIssuer = "system"

// BanRecord represents one ban event. Records are never deleted:
// lifting a ban sets ExpiresAt on the open-ended records instead.
type BanRecord struct {
	ID         uint         `gorm:"primaryKey"                      json:"id"`
	UserID     UserID       `gorm:"not null;index"                  json:"user_id"`                // Banned user
	User       *User        `gorm:"constraint:OnDelete:CASCADE"     json:"user,omitempty"`         // Banned user
	BannedByID *UserID      `gorm:"index"                           json:"banned_by_id,omitempty"` // Issuer, nil for the system
	BannedBy   *User        `gorm:"constraint:OnDelete:SET NULL"    json:"banned_by,omitempty"`    // Issuer, nil for the system
	Reason     string       `gorm:"size:255"                        json:"reason"`                 // Reason for the ban
	CreatedAt  time.Time    `gorm:"autoCreateTime;index"            json:"created_at"`             // The time when the user was banned
	ExpiresAt  sql.NullTime `gorm:"index"                           json:"expires_at"`             // Expiry time of the ban, null if permanent
}

// TableName - set the table name.
func (BanRecord) TableName() string {
	return "ban_records"
}

// IsActive - the ban is permanent or has not expired yet.
func (obj *BanRecord) IsActive(now time.Time) bool {
	if !obj.ExpiresAt.Valid {
		return true
	}
	return now.Before(obj.ExpiresAt.Time)
}

// IsPermanent - the record has no expiry.
func (obj *BanRecord) IsPermanent() bool {
	return !obj.ExpiresAt.Valid
}

// SubjectName - username of the banned user, when preloaded.
func (obj *BanRecord) SubjectName() string {
	if obj.User == nil {
		return "#" + obj.UserID.ToString()
	}
	return obj.User.Username
}

// IssuerName - username of the issuer or "system".
func (obj *BanRecord) IssuerName() string {
	if obj.BannedBy == nil {
		if obj.BannedByID != nil {
			return "#" + obj.BannedByID.ToString()
		}
		return SystemIssuer
	}
	return obj.BannedBy.Username
}

// ExpiresAtNullable - helper for constructing the expiry.
func ExpiresAtNullable(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
