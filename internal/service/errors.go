package service

import "errors"

// Common service errors
var (
	// ErrNotFound is returned when a resource is not found (or hidden by scope)
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrConflict is returned when there's a conflict (e.g., duplicate)
	ErrConflict = errors.New("resource conflict")

	// ErrPermissionDenied is returned when a user doesn't have permission for an action
	ErrPermissionDenied = errors.New("permission denied")

	// ErrInvalidCredentials is returned on a failed login attempt
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrLeadAlreadyConverted is returned when converting a lead that is already CONVERTED
	ErrLeadAlreadyConverted = errors.New("lead is already converted")

	// ErrTargetExists is returned when a KPI target already exists for the (staff, month) pair
	ErrTargetExists = errors.New("kpi target already exists for this staff member and month")

	// ErrMissingLinkage is returned when a transaction references neither a client nor a project
	ErrMissingLinkage = errors.New("transaction must reference a client or a project")

	// ErrNonPositiveAmount is returned when a transaction amount is zero or negative
	ErrNonPositiveAmount = errors.New("transaction amount must be greater than zero")
)
