package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/kilatlabs/nusabill/internal/catalog/domain"
	"github.com/kilatlabs/nusabill/internal/clock"
	"github.com/kilatlabs/nusabill/internal/config"
	identitydomain "github.com/kilatlabs/nusabill/internal/identity/domain"
	identityservice "github.com/kilatlabs/nusabill/internal/identity/service"
	notificationdomain "github.com/kilatlabs/nusabill/internal/notification/domain"
	organizationdomain "github.com/kilatlabs/nusabill/internal/organization/domain"
	regiondomain "github.com/kilatlabs/nusabill/internal/region/domain"
	"github.com/kilatlabs/nusabill/internal/registration/domain"
	subscriptiondomain "github.com/kilatlabs/nusabill/internal/subscription/domain"
	pkgdb "github.com/kilatlabs/nusabill/pkg/db"
	"github.com/gosimple/slug"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Params collects the orchestrator's collaborators.
type Params struct {
	fx.In

	DB           *gorm.DB
	OrgRepo      organizationdomain.Repository
	SubRepo      subscriptiondomain.Repository
	IdentityRepo identitydomain.Repository
	CatalogSvc   catalogdomain.Service
	Directory    regiondomain.Directory
	Dispatcher   notificationdomain.Dispatcher
	Config       config.Config
	Clock        clock.Clock
	GenID        *snowflake.Node
	Log          *zap.Logger
}

type registrationService struct {
	db           *gorm.DB
	orgRepo      organizationdomain.Repository
	subRepo      subscriptiondomain.Repository
	identityRepo identitydomain.Repository
	catalogSvc   catalogdomain.Service
	directory    regiondomain.Directory
	dispatcher   notificationdomain.Dispatcher
	cfg          config.BillingConfig
	clock        clock.Clock
	genID        *snowflake.Node
	log          *zap.Logger
}

// NewOrchestrator builds the registration orchestrator.
func NewOrchestrator(p Params) domain.Orchestrator {
	return &registrationService{
		db:           p.DB,
		orgRepo:      p.OrgRepo,
		subRepo:      p.SubRepo,
		identityRepo: p.IdentityRepo,
		catalogSvc:   p.CatalogSvc,
		directory:    p.Directory,
		dispatcher:   p.Dispatcher,
		cfg:          p.Config.Billing,
		clock:        p.Clock,
		genID:        p.GenID,
		log:          p.Log.Named("registration.service"),
	}
}

func (s *registrationService) Register(ctx context.Context, req domain.Request) (*domain.Result, error) {
	code := slug.Make(req.Code)
	if err := validate(req, code); err != nil {
		return nil, err
	}

	// Collaborator reads run before the transaction opens.
	hierarchy, err := s.directory.ValidateHierarchy(ctx, req.ProvinceID, req.RegencyID, req.DistrictID, req.VillageID)
	if err != nil {
		return nil, err
	}
	if !hierarchy.Valid {
		return nil, &domain.InvalidRegionHierarchyError{Fields: hierarchy.Errors}
	}

	slot, err := s.directory.CheckSlotAvailability(ctx, req.VillageID)
	if err != nil {
		return nil, err
	}
	if !slot.Available {
		return nil, &domain.RegionSlotClaimedError{
			ConflictID:   slot.ConflictID,
			ConflictCode: slot.ConflictCode,
			ConflictName: slot.ConflictName,
		}
	}

	pkg, err := s.catalogSvc.GetPackage(ctx, req.PackageID)
	if err != nil {
		return nil, err
	}

	if existing, err := s.orgRepo.FindActiveByCode(ctx, s.db, code); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, domain.ErrDuplicateOrganizationCode
	}
	if existing, err := s.identityRepo.FindActiveByEmail(ctx, s.db, strings.ToLower(strings.TrimSpace(req.AdminEmail))); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, domain.ErrDuplicateAdministratorEmail
	}

	now := s.clock.Now()
	interval := subscriptiondomain.IntervalMonthly
	if req.BillingInterval == string(subscriptiondomain.IntervalYearly) {
		interval = subscriptiondomain.IntervalYearly
	}

	org := organizationdomain.Organization{
		ID:           s.genID.Generate(),
		Code:         code,
		Name:         strings.TrimSpace(req.Name),
		ContactName:  strings.TrimSpace(req.ContactName),
		ContactEmail: strings.ToLower(strings.TrimSpace(req.ContactEmail)),
		ContactPhone: strings.TrimSpace(req.ContactPhone),
		AddressLine:  strings.TrimSpace(req.AddressLine),
		ProvinceID:   req.ProvinceID,
		RegencyID:    req.RegencyID,
		DistrictID:   req.DistrictID,
		VillageID:    req.VillageID,
		Status:       organizationdomain.OrganizationStatusPendingApproval,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	sub := subscriptiondomain.NewTrial(s.genID, org.ID, pkg, interval, s.cfg.DefaultTrialDays, now)

	user, err := identityservice.NewAccount(s.genID, identitydomain.CreateAccountRequest{
		Email:    req.AdminEmail,
		Password: req.AdminPassword,
		FullName: req.AdminFullName,
	}, now)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.orgRepo.Insert(ctx, tx, &org); err != nil {
			return err
		}
		if err := s.subRepo.Insert(ctx, tx, &sub); err != nil {
			return err
		}
		if err := s.identityRepo.Insert(ctx, tx, &user); err != nil {
			return err
		}
		return s.identityRepo.InsertRole(ctx, tx, &identitydomain.UserRole{
			ID:        s.genID.Generate(),
			UserID:    user.ID,
			OrgID:     org.ID,
			Role:      identitydomain.RoleOrgAdmin,
			CreatedAt: now,
		})
	})
	if err != nil {
		return nil, s.classifyDuplicate(ctx, err, req.VillageID)
	}

	result := &domain.Result{
		Organization: org,
		Subscription: sub,
		AdminUser:    user,
	}

	if _, err := s.dispatcher.SendVerificationEmail(ctx, notificationdomain.VerificationEmail{
		To:      user.Email,
		Name:    user.FullName,
		OrgName: org.Name,
		Token:   user.VerificationToken,
	}); err != nil {
		// Verification resend is a separate flow; registration stands.
		result.Warning = "verification_email_not_sent"
		s.log.Warn("verification email dispatch failed",
			zap.String("org_id", org.ID.String()),
			zap.Error(err),
		)
	}

	s.log.Info("organization registered",
		zap.String("org_id", org.ID.String()),
		zap.String("code", org.Code),
		zap.String("subscription_id", sub.ID.String()),
		zap.Time("trial_end", sub.EndDate),
	)
	return result, nil
}

func validate(req domain.Request, code string) error {
	var fields []regiondomain.FieldError

	missing := func(field string) {
		fields = append(fields, regiondomain.FieldError{
			Field:   field,
			Code:    "required",
			Message: field + " is required",
		})
	}

	if code == "" {
		missing("code")
	}
	if strings.TrimSpace(req.Name) == "" {
		missing("name")
	}
	if strings.TrimSpace(req.ContactEmail) == "" {
		missing("contact_email")
	}
	if req.ProvinceID == 0 {
		missing("province_id")
	}
	if req.RegencyID == 0 {
		missing("regency_id")
	}
	if req.DistrictID == 0 {
		missing("district_id")
	}
	if req.VillageID == 0 {
		missing("village_id")
	}
	if strings.TrimSpace(req.PackageID) == "" {
		missing("package_id")
	}
	if strings.TrimSpace(req.AdminEmail) == "" {
		missing("admin_email")
	}
	if req.AdminPassword == "" {
		missing("admin_password")
	}

	if len(fields) > 0 {
		return &domain.ValidationError{Fields: fields}
	}
	return nil
}

// classifyDuplicate maps a storage uniqueness violation from a lost race
// back to the typed failure the pre-checks would have produced.
func (s *registrationService) classifyDuplicate(ctx context.Context, err error, villageID snowflake.ID) error {
	if !pkgdb.IsDuplicateKeyErr(err) {
		return err
	}

	name := pkgdb.ConstraintName(err)
	switch {
	case strings.Contains(name, "organizations_code") || strings.Contains(name, "organizations.code"):
		return domain.ErrDuplicateOrganizationCode
	case strings.Contains(name, "users_email") || strings.Contains(name, "users.email"):
		return domain.ErrDuplicateAdministratorEmail
	case strings.Contains(name, "region_slot") || strings.Contains(name, "organizations.village_id"):
		claimed := &domain.RegionSlotClaimedError{}
		if holder, lookupErr := s.orgRepo.FindActiveByVillage(ctx, s.db, villageID); lookupErr == nil && holder != nil {
			claimed.ConflictID = holder.ID
			claimed.ConflictCode = holder.Code
			claimed.ConflictName = holder.Name
		}
		return claimed
	}
	return err
}
