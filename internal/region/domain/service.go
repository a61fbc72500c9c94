package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

// FieldError attributes a hierarchy failure to a specific input field.
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

const (
	FieldErrorCodeNotFound = "not_found"
	FieldErrorCodeMismatch = "parent_mismatch"
)

// HierarchyResult reports whether the four supplied region identifiers form a
// consistent province → regency → district → village chain.
type HierarchyResult struct {
	Valid  bool
	Errors []FieldError
}

// SlotAvailability reports whether the village-level slot is free, and when
// claimed, who holds it.
type SlotAvailability struct {
	Available    bool
	ConflictID   snowflake.ID
	ConflictCode string
	ConflictName string
}

// Directory is the geography collaborator. Calls are read-only and bounded by
// the caller's context deadline; they run before any billing transaction opens.
type Directory interface {
	ValidateHierarchy(ctx context.Context, provinceID, regencyID, districtID, villageID snowflake.ID) (HierarchyResult, error)
	CheckSlotAvailability(ctx context.Context, villageID snowflake.ID) (SlotAvailability, error)
}

var ErrDirectoryUnavailable = errors.New("region_directory_unavailable")
