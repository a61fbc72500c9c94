// Package domain contains persistence models for administrator accounts.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// User is an administrator account. Accounts created by registration start
// inactive and unverified; activation happens through the verification flow.
type User struct {
	ID                snowflake.ID `gorm:"primaryKey"`
	Email             string       `gorm:"type:text;not null;uniqueIndex:ux_users_email"`
	PasswordHash      string       `gorm:"type:text;not null"`
	FullName          string       `gorm:"type:text"`
	Active            bool         `gorm:"not null;default:false"`
	EmailVerified     bool         `gorm:"not null;default:false"`
	VerificationToken string       `gorm:"type:text"`
	CreatedAt         time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt         time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (User) TableName() string { return "users" }

// UserRole grants a named role to a user within an organization.
type UserRole struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	UserID    snowflake.ID `gorm:"not null;index;uniqueIndex:ux_user_roles,priority:1"`
	OrgID     snowflake.ID `gorm:"not null;index;uniqueIndex:ux_user_roles,priority:2"`
	Role      string       `gorm:"type:text;not null;uniqueIndex:ux_user_roles,priority:3"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (UserRole) TableName() string { return "user_roles" }

// RoleOrgAdmin is granted to the administrator account created at registration.
const RoleOrgAdmin = "org_admin"
