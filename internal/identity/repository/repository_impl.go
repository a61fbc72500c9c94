package repository

import (
	"context"
	"errors"
	"strings"

	identitydomain "github.com/kilatlabs/nusabill/internal/identity/domain"
	"gorm.io/gorm"
)

type repositoryImpl struct{}

func Provide() identitydomain.Repository {
	return &repositoryImpl{}
}

func (r *repositoryImpl) Insert(ctx context.Context, db *gorm.DB, user *identitydomain.User) error {
	return db.WithContext(ctx).Create(user).Error
}

func (r *repositoryImpl) InsertRole(ctx context.Context, db *gorm.DB, role *identitydomain.UserRole) error {
	return db.WithContext(ctx).Create(role).Error
}

func (r *repositoryImpl) FindActiveByEmail(ctx context.Context, db *gorm.DB, email string) (*identitydomain.User, error) {
	var user identitydomain.User
	err := db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}
