package domain

import (
	"context"
	"errors"
)

type Service interface {
	GetPackage(ctx context.Context, id string) (SubscriptionPackage, error)
	ListActive(ctx context.Context) ([]SubscriptionPackage, error)
}

var (
	ErrInvalidPackageID = errors.New("invalid_package_id")
	ErrPackageNotFound  = errors.New("package_not_found")
)
