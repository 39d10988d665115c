package model

import "time"

// Report - abuse report submitted by a signed-in user.
type Report struct {
	ID          uint      `gorm:"primaryKey"          json:"id"`
	ReporterID  *UserID   `gorm:"index"               json:"reporter_id,omitempty"`
	Reporter    *User     `gorm:"constraint:OnDelete:SET NULL" json:"reporter,omitempty"`
	URL         string    `gorm:"size:500"            json:"url"`
	Description string    `gorm:"type:text;not null"  json:"description"`
	CreatedAt   time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	Resolved    bool      `gorm:"not null;default:false" json:"resolved"`
	HandledByID *UserID   `gorm:"index"               json:"handled_by_id,omitempty"`
	HandledBy   *User     `gorm:"constraint:OnDelete:SET NULL" json:"handled_by,omitempty"`
}

// TableName - set the table name.
func (Report) TableName() string {
	return "reports"
}
