// Package donation implements the core donation lifecycle: submission through
// the payment gateway and status reconciliation afterwards.
// This is the service/use-case layer in Clean Architecture.
package donation

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/harambee/harambee-donations/internal/domain"
)

// Options carries the deployment-fixed settings the service needs.
type Options struct {
	// Currency is the single currency code this deployment accepts.
	Currency string

	// CallbackURL is the public page the donor's browser returns to after
	// payment. The donation id is appended as a query parameter.
	CallbackURL string

	// IPNURL is the public endpoint Pesapal delivers server-to-server
	// notifications to. It is registered on every submission; Pesapal
	// deduplicates registrations of the same URL.
	IPNURL string
}

// Service orchestrates the donation lifecycle. It depends only on the domain
// ports, so tests substitute in-memory fakes for all three.
type Service struct {
	repo     domain.DonationRepository
	gateway  domain.PaymentGateway
	receipts domain.ReceiptSender // optional, nil disables receipts
	opts     Options
}

// NewService creates a new donation service with the required dependencies.
// receipts may be nil when no mailer is configured.
func NewService(
	repo domain.DonationRepository,
	gateway domain.PaymentGateway,
	receipts domain.ReceiptSender,
	opts Options,
) *Service {
	return &Service{
		repo:     repo,
		gateway:  gateway,
		receipts: receipts,
		opts:     opts,
	}
}

// SubmitRequest is the validated donor input for one donation attempt.
type SubmitRequest struct {
	DonorName     string
	DonorEmail    string
	DonorPhone    string
	DonorIDNumber string
	Amount        decimal.Decimal
}

// SubmitResult is returned on a successful submission. RedirectURL points at
// the gateway's hosted payment page.
type SubmitResult struct {
	DonationID        uint   `json:"donation_id"`
	MerchantReference string `json:"merchant_reference"`
	RedirectURL       string `json:"redirect_url"`
}

// Submit runs the donation submission pipeline:
//  1. Validate donor input.
//  2. Persist a new PENDING record; no gateway call happens when this fails.
//  3. Authenticate with the gateway.
//  4. Register the IPN endpoint.
//  5. Submit the order.
//  6. Attach the returned tracking id and hand back the redirect URL.
//
// A gateway failure after step 2 leaves the PENDING record in place as an
// orphaned attempt; there is no compensating delete.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (*SubmitResult, error) {
	if err := validateSubmit(req); err != nil {
		return nil, err
	}

	d := &domain.Donation{
		DonorName:         req.DonorName,
		DonorEmail:        req.DonorEmail,
		DonorPhone:        req.DonorPhone,
		DonorIDNumber:     req.DonorIDNumber,
		Amount:            req.Amount,
		Currency:          s.opts.Currency,
		MerchantReference: NewMerchantReference(),
		PaymentStatus:     domain.StatusPending,
	}
	if err := s.repo.Create(ctx, d); err != nil {
		log.Printf("Failed to save donation for %s: %v", req.DonorEmail, err)
		return nil, domain.NewDonationError(domain.ErrPersistenceFailed,
			"failed to save donation", "PERSISTENCE_ERROR")
	}

	token, err := s.gateway.Authenticate(ctx)
	if err != nil {
		log.Printf("Gateway auth failed, donation %s left pending: %v", d.MerchantReference, err)
		return nil, err
	}

	notificationID, err := s.gateway.RegisterIPN(ctx, token, s.opts.IPNURL)
	if err != nil {
		log.Printf("IPN registration failed, donation %s left pending: %v", d.MerchantReference, err)
		return nil, err
	}

	order := domain.OrderRequest{
		MerchantReference: d.MerchantReference,
		Amount:            d.Amount,
		Currency:          d.Currency,
		Description:       "Donation from " + d.DonorName,
		CallbackURL:       fmt.Sprintf("%s?donation_id=%d", s.opts.CallbackURL, d.ID),
		NotificationID:    notificationID,
		DonorName:         d.DonorName,
		DonorEmail:        d.DonorEmail,
		DonorPhone:        d.DonorPhone,
	}
	submission, err := s.gateway.SubmitOrder(ctx, token, order)
	if err != nil {
		log.Printf("Order submission failed, donation %s left pending: %v", d.MerchantReference, err)
		return nil, err
	}

	if err := s.repo.SetTrackingID(ctx, d.ID, submission.TrackingID); err != nil {
		log.Printf("Failed to attach tracking id %s to donation %s: %v",
			submission.TrackingID, d.MerchantReference, err)
		return nil, domain.NewDonationError(domain.ErrPersistenceFailed,
			"failed to record order tracking id", "PERSISTENCE_ERROR")
	}

	log.Printf("Donation %s submitted, tracking id %s, amount %s %s",
		d.MerchantReference, submission.TrackingID, d.Amount.StringFixed(2), d.Currency)

	return &SubmitResult{
		DonationID:        d.ID,
		MerchantReference: d.MerchantReference,
		RedirectURL:       submission.RedirectURL,
	}, nil
}

// Reconcile fetches the current provider-side status for a tracking id and
// overwrites the matching record's status fields. The browser callback, the
// IPN webhook and the admin status check all funnel through here; last write
// wins when two triggers race, since both converge on the provider's state.
func (s *Service) Reconcile(ctx context.Context, trackingID string) (*domain.Donation, error) {
	if trackingID == "" {
		return nil, domain.NewDonationError(domain.ErrInvalidDonation,
			"order tracking id is required", "VALIDATION_ERROR")
	}

	before, err := s.repo.FindByTrackingID(ctx, trackingID)
	if err != nil {
		return nil, domain.NewDonationError(domain.ErrDonationNotFound,
			"no donation with tracking id "+trackingID, "NOT_FOUND")
	}

	token, err := s.gateway.Authenticate(ctx)
	if err != nil {
		log.Printf("Gateway auth failed while reconciling %s: %v", trackingID, err)
		return nil, err
	}

	status, err := s.gateway.TransactionStatus(ctx, token, trackingID)
	if err != nil {
		log.Printf("Status lookup failed while reconciling %s: %v", trackingID, err)
		return nil, err
	}

	rows, err := s.repo.UpdateStatus(ctx, trackingID, status.Status,
		optional(status.PaymentMethod), optional(status.ConfirmationCode))
	if err != nil {
		log.Printf("Failed to store status %q for %s: %v", status.Status, trackingID, err)
		return nil, domain.NewDonationError(domain.ErrPersistenceFailed,
			"failed to update payment status", "PERSISTENCE_ERROR")
	}
	if rows == 0 {
		return nil, domain.NewDonationError(domain.ErrDonationNotFound,
			"no donation with tracking id "+trackingID, "NOT_FOUND")
	}

	updated, err := s.repo.FindByTrackingID(ctx, trackingID)
	if err != nil {
		return nil, domain.NewDonationError(domain.ErrPersistenceFailed,
			"failed to reload donation", "PERSISTENCE_ERROR")
	}

	log.Printf("Reconciled %s: status %q, method %q", trackingID, updated.PaymentStatus,
		status.PaymentMethod)

	s.maybeSendReceipt(ctx, before, updated)

	return updated, nil
}

// maybeSendReceipt emails the donor when reconciliation newly classifies the
// donation as successful. Delivery failures are logged and never surfaced.
func (s *Service) maybeSendReceipt(ctx context.Context, before, after *domain.Donation) {
	if s.receipts == nil {
		return
	}
	if domain.ClassifyStatus(after.PaymentStatus) != domain.OutcomeSuccess {
		return
	}
	if domain.ClassifyStatus(before.PaymentStatus) == domain.OutcomeSuccess {
		return
	}
	if err := s.receipts.Send(ctx, after); err != nil {
		log.Printf("Failed to send receipt for %s to %s: %v",
			after.MerchantReference, after.DonorEmail, err)
	}
}

// Lookup is a pure read used by the result page: by donation id when given,
// otherwise by merchant reference. It never touches the gateway.
func (s *Service) Lookup(ctx context.Context, donationID uint, merchantReference string) (*domain.Donation, error) {
	if donationID > 0 {
		d, err := s.repo.FindByID(ctx, donationID)
		if err == nil {
			return d, nil
		}
	}
	if merchantReference != "" {
		d, err := s.repo.FindByReference(ctx, merchantReference)
		if err == nil {
			return d, nil
		}
	}
	return nil, domain.NewDonationError(domain.ErrDonationNotFound,
		"donation not found", "NOT_FOUND")
}

// List returns donations for the admin view, optionally filtered by raw
// payment status, newest first.
func (s *Service) List(ctx context.Context, status string) ([]domain.Donation, error) {
	donations, err := s.repo.List(ctx, domain.ListFilter{Status: status})
	if err != nil {
		return nil, domain.NewDonationError(domain.ErrPersistenceFailed,
			"failed to list donations", "PERSISTENCE_ERROR")
	}
	return donations, nil
}

// Stats returns the admin dashboard aggregates.
func (s *Service) Stats(ctx context.Context) (*domain.Stats, error) {
	stats, err := s.repo.Stats(ctx)
	if err != nil {
		return nil, domain.NewDonationError(domain.ErrPersistenceFailed,
			"failed to aggregate donations", "PERSISTENCE_ERROR")
	}
	return stats, nil
}

// exportHeader is the fixed column order of the CSV export.
var exportHeader = []string{
	"ID", "Donor Name", "Email", "Phone", "ID Number", "Amount", "Currency",
	"Status", "Payment Method", "Confirmation Code", "Created Date",
}

// ExportCSV streams all donations matching the status filter as CSV.
func (s *Service) ExportCSV(ctx context.Context, status string, w io.Writer) error {
	donations, err := s.List(ctx, status)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return err
	}
	for i := range donations {
		d := &donations[i]
		row := []string{
			strconv.FormatUint(uint64(d.ID), 10),
			d.DonorName,
			d.DonorEmail,
			d.DonorPhone,
			d.DonorIDNumber,
			d.Amount.StringFixed(2),
			d.Currency,
			d.PaymentStatus,
			deref(d.PaymentMethod),
			deref(d.ConfirmationCode),
			d.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// validateSubmit fails fast on the first violated donor-input rule.
func validateSubmit(req SubmitRequest) error {
	if req.DonorName == "" {
		return invalid("donor_name is required")
	}
	if req.DonorEmail == "" {
		return invalid("donor_email is required")
	}
	if req.DonorPhone == "" {
		return invalid("donor_phone is required")
	}
	if req.DonorIDNumber == "" {
		return invalid("donor_id_number is required")
	}
	if !req.Amount.IsPositive() {
		return invalid("amount must be greater than 0")
	}
	return nil
}

func invalid(message string) error {
	return domain.NewDonationError(domain.ErrInvalidDonation, message, "VALIDATION_ERROR")
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
