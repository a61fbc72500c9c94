// Package domain contains persistence models for tenant organizations.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// OrganizationStatus represents lifecycle states for a tenant organization.
type OrganizationStatus string

const (
	OrganizationStatusPendingApproval OrganizationStatus = "PENDING_APPROVAL"
	OrganizationStatusActive          OrganizationStatus = "ACTIVE"
	OrganizationStatusSuspended       OrganizationStatus = "SUSPENDED"
	OrganizationStatusRejected        OrganizationStatus = "REJECTED"
	OrganizationStatusClosed          OrganizationStatus = "CLOSED"
)

// IsTerminal reports whether the status frees the organization's code and
// region slot for reuse.
func (s OrganizationStatus) IsTerminal() bool {
	return s == OrganizationStatusRejected || s == OrganizationStatusClosed
}

// NonTerminalStatuses lists the states that still claim the code and region slot.
func NonTerminalStatuses() []OrganizationStatus {
	return []OrganizationStatus{
		OrganizationStatusPendingApproval,
		OrganizationStatusActive,
		OrganizationStatusSuspended,
	}
}

// Organization represents a tenant. Code and the village-level region slot
// are unique among organizations in non-terminal states; the postgres
// migration backs both with partial unique indexes.
type Organization struct {
	ID           snowflake.ID       `gorm:"primaryKey"`
	Code         string             `gorm:"type:text;not null;uniqueIndex:ux_organizations_code"`
	Name         string             `gorm:"type:text;not null"`
	ContactName  string             `gorm:"type:text"`
	ContactEmail string             `gorm:"type:text;not null"`
	ContactPhone string             `gorm:"type:text"`
	AddressLine  string             `gorm:"type:text"`
	ProvinceID   snowflake.ID       `gorm:"not null"`
	RegencyID    snowflake.ID       `gorm:"not null"`
	DistrictID   snowflake.ID       `gorm:"not null"`
	VillageID    snowflake.ID       `gorm:"not null;uniqueIndex:ux_organizations_region_slot"`
	Status       OrganizationStatus `gorm:"type:text;not null;default:'PENDING_APPROVAL'"`
	Metadata     datatypes.JSONMap  `gorm:"type:jsonb"`
	CreatedAt    time.Time          `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time          `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Organization) TableName() string { return "organizations" }
