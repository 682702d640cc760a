package model

import "time"

// Session models a row in the `session` table. The raw session id only
// ever lives in the client's signed cookie; ID stores its SHA-256 hex
// digest so a leaked table cannot be replayed.
//
// Fields:
//  ID        – SHA-256 hex digest of the raw session id.
//  UserID    – authenticated admin.
//  ExpiresAt – absolute expiry; expired rows are treated as absent.
//  CreatedAt – timestamp of creation.
type Session struct {
    ID        string    `gorm:"column:sid;primaryKey;size:64"`
    UserID    uint64    `gorm:"index;not null"`
    ExpiresAt time.Time `gorm:"column:expire;index;not null"`
    CreatedAt time.Time `gorm:"not null"`
}

func (Session) TableName() string { return "session" }

// Expired reports whether the session is no longer usable at now.
func (s Session) Expired(now time.Time) bool {
    return !now.Before(s.ExpiresAt)
}
