package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	orgdomain "github.com/kilatlabs/nusabill/internal/organization/domain"
	"gorm.io/gorm"
)

type repositoryImpl struct{}

func Provide() orgdomain.Repository {
	return &repositoryImpl{}
}

func (r *repositoryImpl) Insert(ctx context.Context, db *gorm.DB, organization *orgdomain.Organization) error {
	return db.WithContext(ctx).Create(organization).Error
}

func (r *repositoryImpl) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*orgdomain.Organization, error) {
	var organization orgdomain.Organization
	err := db.WithContext(ctx).Where("id = ?", id).First(&organization).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &organization, nil
}

func (r *repositoryImpl) FindActiveByCode(ctx context.Context, db *gorm.DB, code string) (*orgdomain.Organization, error) {
	return r.findNonTerminal(ctx, db, "code = ?", code)
}

func (r *repositoryImpl) FindActiveByVillage(ctx context.Context, db *gorm.DB, villageID snowflake.ID) (*orgdomain.Organization, error) {
	return r.findNonTerminal(ctx, db, "village_id = ?", villageID)
}

func (r *repositoryImpl) findNonTerminal(ctx context.Context, db *gorm.DB, where string, arg any) (*orgdomain.Organization, error) {
	var organization orgdomain.Organization
	err := db.WithContext(ctx).
		Where(where, arg).
		Where("status IN ?", orgdomain.NonTerminalStatuses()).
		First(&organization).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &organization, nil
}
