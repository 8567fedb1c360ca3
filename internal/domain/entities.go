// Package domain contains the core business entities and interfaces for the
// donations service. This is the innermost layer - it has no dependencies on
// external frameworks or infrastructure.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Donation is the sole persisted entity: one record per donation attempt.
// MerchantReference correlates the record with the gateway-side order;
// OrderTrackingID is assigned by the gateway once the order is accepted and
// never changes afterwards.
type Donation struct {
	ID uint `gorm:"primarykey" json:"id"`

	DonorName     string `gorm:"size:255;not null" json:"donor_name"`
	DonorEmail    string `gorm:"size:255;not null" json:"donor_email"`
	DonorPhone    string `gorm:"size:20;not null" json:"donor_phone"`
	DonorIDNumber string `gorm:"size:20;not null" json:"donor_id_number"`

	Amount   decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"amount"`
	Currency string          `gorm:"size:3;default:KES" json:"currency"`

	MerchantReference string  `gorm:"size:50;not null;uniqueIndex" json:"merchant_reference"`
	OrderTrackingID   *string `gorm:"size:255" json:"order_tracking_id,omitempty"`

	// PaymentStatus stores the provider-reported status string verbatim.
	// Interpretation happens through ClassifyStatus, never here.
	PaymentStatus    string  `gorm:"size:20;default:PENDING" json:"payment_status"`
	PaymentMethod    *string `gorm:"size:50" json:"payment_method,omitempty"`
	ConfirmationCode *string `gorm:"size:255" json:"confirmation_code,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StatusPending is the initial payment status of every donation.
const StatusPending = "PENDING"

// OrderRequest carries everything the gateway needs to create a hosted
// payment page order for a donation.
type OrderRequest struct {
	MerchantReference string
	Amount            decimal.Decimal
	Currency          string
	Description       string
	CallbackURL       string
	NotificationID    string
	DonorName         string
	DonorEmail        string
	DonorPhone        string
}

// OrderSubmission is the gateway's answer to a submitted order: the tracking
// id for all later status lookups and the URL to redirect the donor to.
type OrderSubmission struct {
	TrackingID  string `json:"order_tracking_id"`
	RedirectURL string `json:"redirect_url"`
}

// TransactionStatus is the provider-side state of a submitted order.
type TransactionStatus struct {
	Status           string `json:"payment_status_description"`
	PaymentMethod    string `json:"payment_method"`
	ConfirmationCode string `json:"confirmation_code"`
}

// Stats aggregates donation records for the admin dashboard.
type Stats struct {
	TotalDonations int64           `json:"total_donations"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	Completed      int64           `json:"completed"`
	Pending        int64           `json:"pending"`
	Failed         int64           `json:"failed"`
	ThisMonth      decimal.Decimal `json:"this_month"`
}

// ListFilter narrows admin listings and exports.
type ListFilter struct {
	// Status filters on the raw stored payment status; empty means all.
	Status string
}
