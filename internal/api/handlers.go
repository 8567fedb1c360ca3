// Package api contains the HTTP handlers and routing for the donations
// service.
package api

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/harambee/harambee-donations/internal/domain"
	"github.com/harambee/harambee-donations/internal/donation"
)

// Handler contains the HTTP handlers for the donations API.
type Handler struct {
	donations *donation.Service
}

// NewHandler creates a new API handler with the donation service.
func NewHandler(donations *donation.Service) *Handler {
	return &Handler{
		donations: donations,
	}
}

// DonationRequest represents the JSON body for the donation endpoint.
type DonationRequest struct {
	DonorName     string          `json:"donor_name" binding:"required"`
	DonorEmail    string          `json:"donor_email" binding:"required,email"`
	DonorPhone    string          `json:"donor_phone" binding:"required,msisdn"`
	DonorIDNumber string          `json:"donor_id_number" binding:"required"`
	Amount        decimal.Decimal `json:"amount" binding:"required"`
}

// DonationResponse represents the response to a successful submission.
type DonationResponse struct {
	Success           bool   `json:"success"`
	DonationID        uint   `json:"donation_id"`
	MerchantReference string `json:"merchant_reference"`
	RedirectURL       string `json:"redirect_url"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
}

// CreateDonation handles POST /api/v1/donations
// Validates the donor input, runs the submission pipeline and returns the
// gateway redirect URL.
func (h *Handler) CreateDonation(c *gin.Context) {
	var req DonationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Success: false,
			Error:   "Invalid request body: " + err.Error(),
			Code:    "VALIDATION_ERROR",
		})
		return
	}

	result, err := h.donations.Submit(c.Request.Context(), donation.SubmitRequest{
		DonorName:     req.DonorName,
		DonorEmail:    req.DonorEmail,
		DonorPhone:    req.DonorPhone,
		DonorIDNumber: req.DonorIDNumber,
		Amount:        req.Amount,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, DonationResponse{
		Success:           true,
		DonationID:        result.DonationID,
		MerchantReference: result.MerchantReference,
		RedirectURL:       result.RedirectURL,
	})
}

// CallbackResponse carries the donation state for the result page to render.
type CallbackResponse struct {
	Success  bool             `json:"success"`
	Outcome  domain.Outcome   `json:"outcome"`
	Donation *domain.Donation `json:"donation"`
}

// Callback handles GET /api/v1/donations/callback
// The donor's browser lands here after the hosted payment page. When a
// tracking id is present the record is reconciled first; either way the
// current state is returned for rendering. A reconciliation failure is not
// fatal - the page still shows whatever status is stored.
func (h *Handler) Callback(c *gin.Context) {
	trackingID := c.Query("OrderTrackingId")
	merchantReference := c.Query("OrderMerchantReference")
	donationID := parseUint(c.Query("donation_id"))

	if trackingID != "" {
		if _, err := h.donations.Reconcile(c.Request.Context(), trackingID); err != nil {
			log.Printf("Callback reconciliation failed for %s: %v", trackingID, err)
		}
	}

	d, err := h.donations.Lookup(c.Request.Context(), donationID, merchantReference)
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Success: false,
			Error:   "Donation not found",
			Code:    "NOT_FOUND",
		})
		return
	}

	c.JSON(http.StatusOK, CallbackResponse{
		Success:  true,
		Outcome:  domain.ClassifyStatus(d.PaymentStatus),
		Donation: d,
	})
}

// IPN handles GET /api/v1/donations/ipn
// Pesapal delivers server-to-server notifications here. The acknowledgment
// payload is fixed and returned regardless of the reconciliation outcome so
// the provider stops redelivering; an internal failure is only logged.
func (h *Handler) IPN(c *gin.Context) {
	trackingID := c.Query("OrderTrackingId")
	merchantReference := c.Query("OrderMerchantReference")

	if trackingID != "" {
		if _, err := h.donations.Reconcile(c.Request.Context(), trackingID); err != nil {
			log.Printf("IPN reconciliation failed for tracking id %s (ref %s): %v",
				trackingID, merchantReference, err)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"orderNotificationType":  "IPNCHANGE",
		"orderTrackingId":        trackingID,
		"orderMerchantReference": merchantReference,
		"status":                 200,
	})
}

// CheckStatusRequest represents the admin status-check body.
type CheckStatusRequest struct {
	OrderTrackingID string `json:"order_tracking_id" binding:"required"`
	DonationID      uint   `json:"donation_id"`
}

// CheckStatus handles POST /api/v1/admin/donations/check-status
// Manually reconciles one donation against the gateway.
func (h *Handler) CheckStatus(c *gin.Context) {
	var req CheckStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Success: false,
			Error:   "Invalid request body: " + err.Error(),
			Code:    "VALIDATION_ERROR",
		})
		return
	}

	d, err := h.donations.Reconcile(c.Request.Context(), req.OrderTrackingID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "donation": d})
}

// ListDonations handles GET /api/v1/admin/donations?status=
func (h *Handler) ListDonations(c *gin.Context) {
	donations, err := h.donations.List(c.Request.Context(), c.Query("status"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "donations": donations})
}

// DonationStats handles GET /api/v1/admin/donations/stats
func (h *Handler) DonationStats(c *gin.Context) {
	stats, err := h.donations.Stats(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "stats": stats})
}

// ExportDonations handles GET /api/v1/admin/donations/export?status=
// Streams matching records as a CSV attachment.
func (h *Handler) ExportDonations(c *gin.Context) {
	filename := fmt.Sprintf("donations_%s.csv", time.Now().Format("2006-01-02"))
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	if err := h.donations.ExportCSV(c.Request.Context(), c.Query("status"), c.Writer); err != nil {
		log.Printf("Export failed: %v", err)
	}
}

// Health handles GET /health
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "harambee-donations",
	})
}

// handleServiceError maps domain errors to HTTP responses.
func handleServiceError(c *gin.Context, err error) {
	var donationErr *domain.DonationError
	if errors.As(err, &donationErr) {
		statusCode := http.StatusInternalServerError

		switch {
		case errors.Is(donationErr.Err, domain.ErrInvalidDonation):
			statusCode = http.StatusBadRequest
		case errors.Is(donationErr.Err, domain.ErrDonationNotFound):
			statusCode = http.StatusNotFound
		case errors.Is(donationErr.Err, domain.ErrPersistenceFailed):
			statusCode = http.StatusInternalServerError
		case errors.Is(donationErr.Err, domain.ErrGatewayAuth),
			errors.Is(donationErr.Err, domain.ErrGatewayRegistration),
			errors.Is(donationErr.Err, domain.ErrGatewaySubmission),
			errors.Is(donationErr.Err, domain.ErrGatewayLookup):
			statusCode = http.StatusBadGateway
		}

		c.JSON(statusCode, ErrorResponse{
			Success: false,
			Error:   donationErr.Message,
			Code:    donationErr.Code,
		})
		return
	}

	// Generic error
	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Success: false,
		Error:   "Internal server error",
		Code:    "INTERNAL_ERROR",
	})
}

func parseUint(s string) uint {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0
	}
	return uint(v)
}
