package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/kilatlabs/nusabill/internal/catalog/domain"
	"github.com/kilatlabs/nusabill/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB  *gorm.DB
	Log *zap.Logger
}

type Service struct {
	log         *zap.Logger
	packagerepo repository.Repository[catalogdomain.SubscriptionPackage]
}

func NewService(p ServiceParam) catalogdomain.Service {
	return &Service{
		log:         p.Log.Named("catalog.service"),
		packagerepo: repository.ProvideStore[catalogdomain.SubscriptionPackage](p.DB),
	}
}

func (s *Service) GetPackage(ctx context.Context, id string) (catalogdomain.SubscriptionPackage, error) {
	packageID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || packageID == 0 {
		return catalogdomain.SubscriptionPackage{}, catalogdomain.ErrInvalidPackageID
	}

	item, err := s.packagerepo.FindOne(ctx, &catalogdomain.SubscriptionPackage{ID: packageID})
	if err != nil {
		return catalogdomain.SubscriptionPackage{}, err
	}
	if item == nil || !item.Active {
		return catalogdomain.SubscriptionPackage{}, catalogdomain.ErrPackageNotFound
	}

	return *item, nil
}

func (s *Service) ListActive(ctx context.Context) ([]catalogdomain.SubscriptionPackage, error) {
	items, err := s.packagerepo.Find(ctx, &catalogdomain.SubscriptionPackage{Active: true})
	if err != nil {
		return nil, err
	}

	packages := make([]catalogdomain.SubscriptionPackage, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		packages = append(packages, *item)
	}
	return packages, nil
}
