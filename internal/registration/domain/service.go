// Package domain defines the registration orchestrator contract and its
// typed failure modes.
package domain

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/snowflake"
	identitydomain "github.com/kilatlabs/nusabill/internal/identity/domain"
	organizationdomain "github.com/kilatlabs/nusabill/internal/organization/domain"
	regiondomain "github.com/kilatlabs/nusabill/internal/region/domain"
	subscriptiondomain "github.com/kilatlabs/nusabill/internal/subscription/domain"
)

// Request carries everything needed to onboard a tenant.
type Request struct {
	Code         string `json:"code"`
	Name         string `json:"name"`
	ContactName  string `json:"contact_name"`
	ContactEmail string `json:"contact_email"`
	ContactPhone string `json:"contact_phone"`
	AddressLine  string `json:"address_line"`

	ProvinceID snowflake.ID `json:"province_id"`
	RegencyID  snowflake.ID `json:"regency_id"`
	DistrictID snowflake.ID `json:"district_id"`
	VillageID  snowflake.ID `json:"village_id"`

	PackageID       string `json:"package_id"`
	BillingInterval string `json:"billing_interval"`

	AdminEmail    string `json:"admin_email"`
	AdminPassword string `json:"admin_password"`
	AdminFullName string `json:"admin_full_name"`
}

// Result reports the entities created by one registration. Warning is set
// when the post-commit verification email could not be dispatched; the
// registration itself stands.
type Result struct {
	Organization organizationdomain.Organization
	Subscription subscriptiondomain.Subscription
	AdminUser    identitydomain.User
	Warning      string
}

// Orchestrator onboards tenants. The multi-entity creation is all or
// nothing; a failure in any step persists nothing.
type Orchestrator interface {
	Register(ctx context.Context, req Request) (*Result, error)
}

var (
	ErrDuplicateOrganizationCode   = errors.New("duplicate_organization_code")
	ErrDuplicateAdministratorEmail = errors.New("duplicate_administrator_email")
	ErrInvalidRegionHierarchy      = errors.New("invalid_region_hierarchy")
	ErrRegionSlotClaimed           = errors.New("region_slot_already_claimed")
	ErrMissingFields               = errors.New("missing_required_fields")
)

// ValidationError lists the input fields rejected before any write.
type ValidationError struct {
	Fields []regiondomain.FieldError
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing_required_fields: %d field(s)", len(e.Fields))
}

func (e *ValidationError) Unwrap() error { return ErrMissingFields }

// InvalidRegionHierarchyError carries the field-level results of a failed
// hierarchy validation.
type InvalidRegionHierarchyError struct {
	Fields []regiondomain.FieldError
}

func (e *InvalidRegionHierarchyError) Error() string {
	return fmt.Sprintf("invalid_region_hierarchy: %d field(s)", len(e.Fields))
}

func (e *InvalidRegionHierarchyError) Unwrap() error { return ErrInvalidRegionHierarchy }

// RegionSlotClaimedError identifies the organization already holding the
// village-level slot, for user-facing disambiguation.
type RegionSlotClaimedError struct {
	ConflictID   snowflake.ID
	ConflictCode string
	ConflictName string
}

func (e *RegionSlotClaimedError) Error() string {
	return fmt.Sprintf("region_slot_already_claimed: held by %s", e.ConflictCode)
}

func (e *RegionSlotClaimedError) Unwrap() error { return ErrRegionSlotClaimed }
