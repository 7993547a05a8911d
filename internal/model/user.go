// Package model defines the Go structs mapped to database tables.
package model

import "time"

// Roles accepted at registration. Admins and secretaries manage minutes,
// regular users query them.
const (
	RoleAdmin     = "admin"
	RoleSecretary = "secretary"
	RoleUser      = "user"
)

// User is the ORM model for the users table.
type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"username"`
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"type:varchar(255);not null" json:"-"`
	Role         string    `gorm:"type:varchar(20);not null;default:'user'" json:"role"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

// TableName specifies the database table for this model.
func (User) TableName() string {
	return "users"
}
