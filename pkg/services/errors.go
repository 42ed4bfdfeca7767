// Package services is the validation layer sitting between pkg/api and
// pkg/database: it owns input validation and business rules, and leaves
// row shapes and SQL to the Persistence Gateway.
package services

import "github.com/codeready-toolchain/orchestrator-core/pkg/apperrors"

// Shared sentinel errors reused by every service in this package, so handlers
// in pkg/api can map them through apperrors.StatusFor without per-service
// special-casing.
var (
	ErrNotFound     = apperrors.ErrNotFound
	ErrInvalidInput = apperrors.ErrInvalidInput
)

// NewValidationError builds a field-scoped CodeInvalidInput error.
func NewValidationError(field, message string) error {
	return apperrors.Wrap(apperrors.CodeInvalidInput, field+": "+message, apperrors.ErrInvalidInput)
}
