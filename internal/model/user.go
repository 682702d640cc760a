package model

// AdminUser represents the single administrator stored in the `users`
// table. The password column holds a bcrypt hash and is never serialized.
//
// Fields:
//  ID           – primary key identifier.
//  Username     – unique login name.
//  PasswordHash – bcrypt hash of the password (users.password).
type AdminUser struct {
    ID           uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
    Username     string `gorm:"size:191;not null;uniqueIndex" json:"username"`
    PasswordHash string `gorm:"column:password;size:255;not null" json:"-"`
}

func (AdminUser) TableName() string { return "users" }
