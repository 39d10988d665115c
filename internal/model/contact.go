package model

import "time"

// ContactMessage - message sent through the public contact form.
type ContactMessage struct {
	ID          uint           `gorm:"primaryKey"                   json:"id"`
	Name        string         `gorm:"size:200;not null"            json:"name"`
	Email       string         `gorm:"size:254;not null;index"      json:"email"`
	Subject     string         `gorm:"size:200"                     json:"subject"`
	Message     string         `gorm:"type:text;not null"           json:"message"`
	CreatedAt   time.Time      `gorm:"autoCreateTime;index"         json:"created_at"`
	Handled     bool           `gorm:"not null;default:false"       json:"handled"`
	HandledByID *UserID        `gorm:"index"                        json:"handled_by_id,omitempty"`
	HandledBy   *User          `gorm:"constraint:OnDelete:SET NULL" json:"handled_by,omitempty"`
	Replies     []ContactReply `gorm:"foreignKey:ContactID"         json:"replies,omitempty"`
}

// TableName - set the table name.
func (ContactMessage) TableName() string {
	return "contact_messages"
}

// ContactReply - staff reply to a contact message, kept after the mail is sent.
type ContactReply struct {
	ID          uint      `gorm:"primaryKey"                   json:"id"`
	ContactID   uint      `gorm:"not null;index"               json:"contact_id"`
	Subject     string    `gorm:"size:200"                     json:"subject"`
	Message     string    `gorm:"type:text;not null"           json:"message"`
	RepliedAt   time.Time `gorm:"autoCreateTime"               json:"replied_at"`
	RepliedByID *UserID   `gorm:"index"                        json:"replied_by_id,omitempty"`
	RepliedBy   *User     `gorm:"constraint:OnDelete:SET NULL" json:"replied_by,omitempty"`
}

// TableName - set the table name.
func (ContactReply) TableName() string {
	return "contact_replies"
}
