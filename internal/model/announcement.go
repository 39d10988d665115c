package model

import "time"

// Announcement - staff news item, only published ones are shown on the site.
type Announcement struct {
	ID        uint      `gorm:"primaryKey"                   json:"id"`
	Title     string    `gorm:"size:200;not null"            json:"title"`
	Content   string    `gorm:"type:text;not null"           json:"content"`
	VideoURL  string    `gorm:"size:500"                     json:"video_url,omitempty"`
	Published bool      `gorm:"not null;index"               json:"published"`
	AuthorID  *UserID   `gorm:"index"                        json:"author_id,omitempty"`
	Author    *User     `gorm:"constraint:OnDelete:SET NULL" json:"author,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"         json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"               json:"updated_at"`
}

// TableName - set the table name.
func (Announcement) TableName() string {
	return "announcements"
}
