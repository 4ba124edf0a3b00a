package apperrors

import "errors"

// Recoverable, user-facing errors. Handlers map these to 4xx responses; any
// other error is an internal fault of the request and is surfaced generically.
var ErrNotFound = errors.New("entity not found")
var ErrInvalidInterval = errors.New("end time must be after start time")
var ErrSlotConflict = errors.New("space is already reserved for the selected period")
var ErrInvalidState = errors.New("operation is not valid for the current status")
var ErrInvalidTransition = errors.New("status transition is not allowed")
var ErrInsufficientBalance = errors.New("insufficient points balance")
var ErrConflict = errors.New("conflicting resource already exists")
var ErrUnauthorized = errors.New("user is not authorized")
var ErrForbidden = errors.New("operation is forbidden for user")

var recoverable = []error{
	ErrNotFound, ErrInvalidInterval, ErrSlotConflict, ErrInvalidState,
	ErrInvalidTransition, ErrInsufficientBalance, ErrConflict,
	ErrUnauthorized, ErrForbidden,
}

// IsRecoverable reports whether err belongs to the user-facing taxonomy.
func IsRecoverable(err error) bool {
	for _, e := range recoverable {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}
