package service

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	orgdomain "github.com/kilatlabs/nusabill/internal/organization/domain"
	regiondomain "github.com/kilatlabs/nusabill/internal/region/domain"
	"github.com/kilatlabs/nusabill/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// lookupTimeout bounds every directory call independently of the caller.
const lookupTimeout = 3 * time.Second

type ServiceParam struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	OrgRepo orgdomain.Repository
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	provincerepo repository.Repository[regiondomain.Province]
	regencyrepo  repository.Repository[regiondomain.Regency]
	districtrepo repository.Repository[regiondomain.District]
	villagerepo  repository.Repository[regiondomain.Village]
	orgRepo      orgdomain.Repository
}

func NewDirectory(p ServiceParam) regiondomain.Directory {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("region.directory"),

		provincerepo: repository.ProvideStore[regiondomain.Province](p.DB),
		regencyrepo:  repository.ProvideStore[regiondomain.Regency](p.DB),
		districtrepo: repository.ProvideStore[regiondomain.District](p.DB),
		villagerepo:  repository.ProvideStore[regiondomain.Village](p.DB),
		orgRepo:      p.OrgRepo,
	}
}

func (s *Service) ValidateHierarchy(ctx context.Context, provinceID, regencyID, districtID, villageID snowflake.ID) (regiondomain.HierarchyResult, error) {
	ctx, cancel := context.WithTimeout(ctx, lookupTimeout)
	defer cancel()

	var fieldErrors []regiondomain.FieldError

	province, err := s.provincerepo.FindOne(ctx, &regiondomain.Province{ID: provinceID})
	if err != nil {
		return regiondomain.HierarchyResult{}, lookupErr(err)
	}
	if province == nil {
		fieldErrors = append(fieldErrors, notFound("province_id"))
	}

	regency, err := s.regencyrepo.FindOne(ctx, &regiondomain.Regency{ID: regencyID})
	if err != nil {
		return regiondomain.HierarchyResult{}, lookupErr(err)
	}
	switch {
	case regency == nil:
		fieldErrors = append(fieldErrors, notFound("regency_id"))
	case province != nil && regency.ProvinceID != province.ID:
		fieldErrors = append(fieldErrors, mismatch("regency_id", "regency does not belong to the selected province"))
	}

	district, err := s.districtrepo.FindOne(ctx, &regiondomain.District{ID: districtID})
	if err != nil {
		return regiondomain.HierarchyResult{}, lookupErr(err)
	}
	switch {
	case district == nil:
		fieldErrors = append(fieldErrors, notFound("district_id"))
	case regency != nil && district.RegencyID != regency.ID:
		fieldErrors = append(fieldErrors, mismatch("district_id", "district does not belong to the selected regency"))
	}

	village, err := s.villagerepo.FindOne(ctx, &regiondomain.Village{ID: villageID})
	if err != nil {
		return regiondomain.HierarchyResult{}, lookupErr(err)
	}
	switch {
	case village == nil:
		fieldErrors = append(fieldErrors, notFound("village_id"))
	case district != nil && village.DistrictID != district.ID:
		fieldErrors = append(fieldErrors, mismatch("village_id", "village does not belong to the selected district"))
	}

	return regiondomain.HierarchyResult{
		Valid:  len(fieldErrors) == 0,
		Errors: fieldErrors,
	}, nil
}

func (s *Service) CheckSlotAvailability(ctx context.Context, villageID snowflake.ID) (regiondomain.SlotAvailability, error) {
	ctx, cancel := context.WithTimeout(ctx, lookupTimeout)
	defer cancel()

	holder, err := s.orgRepo.FindActiveByVillage(ctx, s.db, villageID)
	if err != nil {
		return regiondomain.SlotAvailability{}, lookupErr(err)
	}
	if holder == nil {
		return regiondomain.SlotAvailability{Available: true}, nil
	}

	return regiondomain.SlotAvailability{
		Available:    false,
		ConflictID:   holder.ID,
		ConflictCode: holder.Code,
		ConflictName: holder.Name,
	}, nil
}

// lookupErr classifies a failed reference read as a collaborator outage so
// callers can report it as retryable.
func lookupErr(err error) error {
	return errors.Join(regiondomain.ErrDirectoryUnavailable, err)
}

func notFound(field string) regiondomain.FieldError {
	return regiondomain.FieldError{
		Field:   field,
		Code:    regiondomain.FieldErrorCodeNotFound,
		Message: "unknown region identifier",
	}
}

func mismatch(field, message string) regiondomain.FieldError {
	return regiondomain.FieldError{
		Field:   field,
		Code:    regiondomain.FieldErrorCodeMismatch,
		Message: message,
	}
}
