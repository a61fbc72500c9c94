package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	catalogdomain "github.com/kilatlabs/nusabill/internal/catalog/domain"
	invoicedomain "github.com/kilatlabs/nusabill/internal/invoice/domain"
	notificationdomain "github.com/kilatlabs/nusabill/internal/notification/domain"
	paymentdomain "github.com/kilatlabs/nusabill/internal/payment/domain"
	regiondomain "github.com/kilatlabs/nusabill/internal/region/domain"
	registrationdomain "github.com/kilatlabs/nusabill/internal/registration/domain"
	subscriptiondomain "github.com/kilatlabs/nusabill/internal/subscription/domain"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v *ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type      string            `json:"type"`
	Message   string            `json:"message"`
	Retryable bool              `json:"retryable,omitempty"`
	Errors    []ValidationError `json:"errors,omitempty"`
	Conflict  *conflictOrg      `json:"conflict,omitempty"`
}

type conflictOrg struct {
	ID   string `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	var regValidation *registrationdomain.ValidationError
	if errors.As(err, &regValidation) {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  fieldErrors(regValidation.Fields),
		}
	}

	var hierarchy *registrationdomain.InvalidRegionHierarchyError
	if errors.As(err, &hierarchy) {
		return http.StatusBadRequest, errorPayload{
			Type:    "invalid_region_hierarchy",
			Message: "region hierarchy is inconsistent",
			Errors:  fieldErrors(hierarchy.Fields),
		}
	}

	var slot *registrationdomain.RegionSlotClaimedError
	if errors.As(err, &slot) {
		payload := errorPayload{
			Type:    "region_slot_already_claimed",
			Message: "region slot is already claimed",
		}
		if slot.ConflictID != 0 {
			payload.Conflict = &conflictOrg{
				ID:   slot.ConflictID.String(),
				Code: slot.ConflictCode,
				Name: slot.ConflictName,
			}
		}
		return http.StatusConflict, payload
	}

	var invalidTransition *invoicedomain.InvalidTransitionError
	if errors.As(err, &invalidTransition) {
		return http.StatusConflict, errorPayload{
			Type:    "invalid_invoice_transition",
			Message: invalidTransition.Error(),
		}
	}

	switch {
	case isValidationError(err):
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: err.Error(),
		}
	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: err.Error(),
		}
	case isStateError(err):
		return http.StatusConflict, errorPayload{
			Type:    "invalid_state",
			Message: err.Error(),
		}
	case isRetryableConflict(err):
		return http.StatusConflict, errorPayload{
			Type:      "conflict",
			Message:   err.Error(),
			Retryable: true,
		}
	case errors.Is(err, paymentdomain.ErrRefundExceedsBalance):
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    "refund_exceeds_balance",
			Message: "refund would exceed the refundable balance",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case isCollaboratorError(err):
		return http.StatusServiceUnavailable, errorPayload{
			Type:      "collaborator_unavailable",
			Message:   err.Error(),
			Retryable: true,
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func fieldErrors(fields []regiondomain.FieldError) []ValidationError {
	out := make([]ValidationError, 0, len(fields))
	for _, f := range fields {
		out = append(out, ValidationError{Field: f.Field, Code: f.Code, Message: f.Message})
	}
	return out
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, subscriptiondomain.ErrInvalidSubscriptionID),
		errors.Is(err, invoicedomain.ErrInvalidInvoiceID),
		errors.Is(err, invoicedomain.ErrInvalidPeriod),
		errors.Is(err, paymentdomain.ErrInvalidPaymentID),
		errors.Is(err, paymentdomain.ErrInvalidAmount),
		errors.Is(err, paymentdomain.ErrInvalidMethod),
		errors.Is(err, catalogdomain.ErrInvalidPackageID):
		return true
	default:
		return false
	}
}

func isConflictError(err error) bool {
	switch {
	case errors.Is(err, registrationdomain.ErrDuplicateOrganizationCode),
		errors.Is(err, registrationdomain.ErrDuplicateAdministratorEmail),
		errors.Is(err, invoicedomain.ErrInvoiceExistsForPeriod):
		return true
	default:
		return false
	}
}

func isStateError(err error) bool {
	switch {
	case errors.Is(err, subscriptiondomain.ErrInvalidTransition),
		errors.Is(err, invoicedomain.ErrInvalidInvoiceTransition),
		errors.Is(err, paymentdomain.ErrInvoiceNotPayable),
		errors.Is(err, paymentdomain.ErrPaymentNotPending),
		errors.Is(err, paymentdomain.ErrRefundNotAllowed):
		return true
	default:
		return false
	}
}

// isRetryableConflict covers lost optimistic writes: the entity moved under
// the caller, who may retry against the fresh state.
func isRetryableConflict(err error) bool {
	switch {
	case errors.Is(err, subscriptiondomain.ErrTransitionConflict),
		errors.Is(err, invoicedomain.ErrTransitionConflict),
		errors.Is(err, paymentdomain.ErrTransitionConflict),
		errors.Is(err, paymentdomain.ErrRefundConflict):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, subscriptiondomain.ErrSubscriptionNotFound),
		errors.Is(err, invoicedomain.ErrInvoiceNotFound),
		errors.Is(err, paymentdomain.ErrPaymentNotFound),
		errors.Is(err, catalogdomain.ErrPackageNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func isCollaboratorError(err error) bool {
	switch {
	case errors.Is(err, regiondomain.ErrDirectoryUnavailable),
		errors.Is(err, notificationdomain.ErrDispatchFailed):
		return true
	default:
		return false
	}
}
