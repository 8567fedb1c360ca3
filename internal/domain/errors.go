// Package domain contains the core business entities and interfaces for the
// donations service.
package domain

import "errors"

// Domain errors represent business rule violations and integration failures.
var (
	// ErrInvalidDonation is returned for donor input that fails validation.
	ErrInvalidDonation = errors.New("invalid donation input")

	// ErrDonationNotFound is returned when no record matches the given
	// id, merchant reference or order tracking id.
	ErrDonationNotFound = errors.New("donation not found")

	// ErrPersistenceFailed is returned when the repository cannot store or
	// mutate a donation record.
	ErrPersistenceFailed = errors.New("could not persist donation")

	// ErrGatewayAuth is returned when the key/secret exchange for a bearer
	// token fails.
	ErrGatewayAuth = errors.New("payment gateway authentication failed")

	// ErrGatewayRegistration is returned when the IPN endpoint cannot be
	// registered with the gateway.
	ErrGatewayRegistration = errors.New("payment gateway IPN registration failed")

	// ErrGatewaySubmission is returned when order submission fails or the
	// gateway response carries no redirect URL.
	ErrGatewaySubmission = errors.New("payment gateway order submission failed")

	// ErrGatewayLookup is returned when a transaction status lookup fails.
	ErrGatewayLookup = errors.New("payment gateway status lookup failed")
)

// DonationError wraps a domain error with additional context.
type DonationError struct {
	Err     error
	Message string
	Code    string
}

// Error implements the error interface.
func (e *DonationError) Error() string {
	if e.Message != "" {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

// Unwrap allows errors.Is and errors.As to work with DonationError.
func (e *DonationError) Unwrap() error {
	return e.Err
}

// NewDonationError creates a new DonationError with the given error and message.
func NewDonationError(err error, message, code string) *DonationError {
	return &DonationError{
		Err:     err,
		Message: message,
		Code:    code,
	}
}
