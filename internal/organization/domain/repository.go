package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Repository methods take an explicit *gorm.DB so callers can enroll them in
// their own transaction.
type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, organization *Organization) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Organization, error)
	FindActiveByCode(ctx context.Context, db *gorm.DB, code string) (*Organization, error)
	FindActiveByVillage(ctx context.Context, db *gorm.DB, villageID snowflake.ID) (*Organization, error)
}
