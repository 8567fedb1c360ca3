// Package domain contains the core business entities and interfaces for the
// donations service.
package domain

import "context"

// DonationRepository defines the persistence port for donation records.
// This is a "port" in hexagonal architecture - the domain defines what it
// needs, and infrastructure provides the implementation.
type DonationRepository interface {
	// Create persists a new donation. The merchant reference carries a
	// unique constraint: a duplicate insert fails instead of silently
	// succeeding.
	Create(ctx context.Context, d *Donation) error

	// SetTrackingID attaches the gateway tracking id to a donation.
	// A tracking id is assigned exactly once; the update targets only
	// records that do not have one yet and reports ErrDonationNotFound
	// otherwise.
	SetTrackingID(ctx context.Context, id uint, trackingID string) error

	// UpdateStatus overwrites the status fields of the record matching the
	// tracking id and reports how many rows matched. Zero rows means the
	// tracking id is unknown.
	UpdateStatus(ctx context.Context, trackingID, status string, method, confirmationCode *string) (int64, error)

	FindByID(ctx context.Context, id uint) (*Donation, error)
	FindByReference(ctx context.Context, reference string) (*Donation, error)
	FindByTrackingID(ctx context.Context, trackingID string) (*Donation, error)

	// List returns matching donations ordered by creation date, newest first.
	List(ctx context.Context, filter ListFilter) ([]Donation, error)

	// Stats aggregates counts and sums for the admin dashboard.
	Stats(ctx context.Context) (*Stats, error)
}

// PaymentGateway defines the port for the hosted payment provider. Each call
// is synchronous and stateless; no call retries internally, and callers
// persist whatever the gateway returns.
type PaymentGateway interface {
	// Authenticate exchanges the configured key/secret pair for a bearer
	// token.
	Authenticate(ctx context.Context) (string, error)

	// RegisterIPN registers the server-to-server notification endpoint and
	// returns the notification id to attach to submitted orders. The
	// gateway deduplicates registrations of the same URL on its side.
	RegisterIPN(ctx context.Context, token, url string) (string, error)

	// SubmitOrder creates a hosted payment page order. It fails, with no
	// partial result, when the response carries no redirect URL.
	SubmitOrder(ctx context.Context, token string, order OrderRequest) (*OrderSubmission, error)

	// TransactionStatus fetches the current provider-side status of an
	// order by its tracking id.
	TransactionStatus(ctx context.Context, token, trackingID string) (*TransactionStatus, error)
}

// ReceiptSender delivers a receipt to the donor once a donation completes.
// Delivery is best effort; the donation record is the source of truth either
// way.
type ReceiptSender interface {
	Send(ctx context.Context, d *Donation) error
}
