package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type CreateAccountRequest struct {
	Email    string
	Password string
	FullName string
}

type Service interface {
	CreateAccount(ctx context.Context, req CreateAccountRequest) (User, error)
	AssignRole(ctx context.Context, userID, orgID snowflake.ID, role string) error
}

// Repository methods take an explicit *gorm.DB so registration can enroll
// account creation in its own transaction.
type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, user *User) error
	InsertRole(ctx context.Context, db *gorm.DB, role *UserRole) error
	FindActiveByEmail(ctx context.Context, db *gorm.DB, email string) (*User, error)
}

var (
	ErrInvalidEmail    = errors.New("invalid_email")
	ErrInvalidPassword = errors.New("invalid_password")
	ErrDuplicateEmail  = errors.New("duplicate_email")
	ErrUserNotFound    = errors.New("user_not_found")
)
