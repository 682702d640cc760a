package model

import "time"

// ContactMessage is a submission of the public contact form. Rows are
// immutable once written; CreatedAt is always assigned by the server.
type ContactMessage struct {
    ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
    Name      string    `gorm:"type:text;not null" json:"name"`
    Email     string    `gorm:"size:255;not null;index:contacts_email_idx" json:"email"`
    Subject   string    `gorm:"type:text;not null" json:"subject"`
    Message   string    `gorm:"type:text;not null" json:"message"`
    CreatedAt time.Time `gorm:"not null" json:"createdAt"`
}

func (ContactMessage) TableName() string { return "contacts" }
