// Package pesapal implements the domain.PaymentGateway interface against the
// Pesapal API 3.0 JSON endpoints.
package pesapal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/harambee/harambee-donations/internal/domain"
)

const (
	liveBaseURL    = "https://pay.pesapal.com/v3"
	sandboxBaseURL = "https://cybqa.pesapal.com/pesapalv3"

	// Order submission waits longer than the other calls; the hosted page
	// setup is the slowest operation on Pesapal's side.
	defaultTimeout = 30 * time.Second
	submitTimeout  = 45 * time.Second
)

// BaseURLFor returns the API base URL for a configured environment.
// Anything other than "live" selects the sandbox.
func BaseURLFor(environment string) string {
	if environment == "live" {
		return liveBaseURL
	}
	return sandboxBaseURL
}

// Client is a stateless wrapper over the four Pesapal operations. It never
// retries internally; callers treat any failure as a terminal failure of that
// attempt.
type Client struct {
	baseURL        string
	consumerKey    string
	consumerSecret string
	httpClient     *http.Client
}

// NewClient creates a new Pesapal client against the given base URL.
func NewClient(baseURL, consumerKey, consumerSecret string) *Client {
	return &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		consumerKey:    consumerKey,
		consumerSecret: consumerSecret,
		httpClient: &http.Client{
			Timeout: submitTimeout,
		},
	}
}

type authRequest struct {
	ConsumerKey    string `json:"consumer_key"`
	ConsumerSecret string `json:"consumer_secret"`
}

type authResponse struct {
	Token string `json:"token"`
}

// Authenticate exchanges the consumer key/secret pair for a bearer token.
// POST /api/Auth/RequestToken
func (c *Client) Authenticate(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var resp authResponse
	err := c.postJSON(ctx, "/api/Auth/RequestToken", "", authRequest{
		ConsumerKey:    c.consumerKey,
		ConsumerSecret: c.consumerSecret,
	}, &resp)
	if err != nil {
		return "", domain.NewDonationError(domain.ErrGatewayAuth,
			"token request failed: "+err.Error(), "GATEWAY_AUTH_ERROR")
	}
	if resp.Token == "" {
		return "", domain.NewDonationError(domain.ErrGatewayAuth,
			"token missing from gateway response", "GATEWAY_AUTH_ERROR")
	}
	return resp.Token, nil
}

type registerIPNRequest struct {
	URL              string `json:"url"`
	NotificationType string `json:"ipn_notification_type"`
}

type registerIPNResponse struct {
	IPNID string `json:"ipn_id"`
}

// RegisterIPN registers the notification endpoint and returns its id.
// POST /api/URLSetup/RegisterIPN
func (c *Client) RegisterIPN(ctx context.Context, token, ipnURL string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var resp registerIPNResponse
	err := c.postJSON(ctx, "/api/URLSetup/RegisterIPN", token, registerIPNRequest{
		URL:              ipnURL,
		NotificationType: "GET",
	}, &resp)
	if err != nil {
		return "", domain.NewDonationError(domain.ErrGatewayRegistration,
			"IPN registration failed: "+err.Error(), "GATEWAY_IPN_ERROR")
	}
	if resp.IPNID == "" {
		return "", domain.NewDonationError(domain.ErrGatewayRegistration,
			"ipn_id missing from gateway response", "GATEWAY_IPN_ERROR")
	}
	return resp.IPNID, nil
}

type billingAddress struct {
	EmailAddress string `json:"email_address"`
	PhoneNumber  string `json:"phone_number"`
	CountryCode  string `json:"country_code"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Line1        string `json:"line_1"`
	City         string `json:"city"`
	State        string `json:"state"`
	PostalCode   string `json:"postal_code"`
	ZipCode      string `json:"zip_code"`
}

type submitOrderRequest struct {
	ID             string         `json:"id"`
	Currency       string         `json:"currency"`
	Amount         float64        `json:"amount"`
	Description    string         `json:"description"`
	CallbackURL    string         `json:"callback_url"`
	NotificationID string         `json:"notification_id"`
	BillingAddress billingAddress `json:"billing_address"`
}

// SubmitOrder creates a hosted payment page order for a donation.
// POST /api/Transactions/SubmitOrderRequest
func (c *Client) SubmitOrder(ctx context.Context, token string, order domain.OrderRequest) (*domain.OrderSubmission, error) {
	ctx, cancel := context.WithTimeout(ctx, submitTimeout)
	defer cancel()

	firstName, lastName := splitName(order.DonorName)
	body := submitOrderRequest{
		ID:             order.MerchantReference,
		Currency:       order.Currency,
		Amount:         order.Amount.InexactFloat64(),
		Description:    order.Description,
		CallbackURL:    order.CallbackURL,
		NotificationID: order.NotificationID,
		BillingAddress: billingAddress{
			EmailAddress: order.DonorEmail,
			PhoneNumber:  order.DonorPhone,
			CountryCode:  "KE",
			FirstName:    firstName,
			LastName:     lastName,
			Line1:        "Online Donation",
			City:         "Nairobi",
			State:        "Nairobi",
			PostalCode:   "00100",
			ZipCode:      "00100",
		},
	}

	var resp domain.OrderSubmission
	if err := c.postJSON(ctx, "/api/Transactions/SubmitOrderRequest", token, body, &resp); err != nil {
		return nil, domain.NewDonationError(domain.ErrGatewaySubmission,
			"order submission failed: "+err.Error(), "GATEWAY_SUBMIT_ERROR")
	}
	if resp.RedirectURL == "" {
		return nil, domain.NewDonationError(domain.ErrGatewaySubmission,
			"redirect_url missing from gateway response", "GATEWAY_SUBMIT_ERROR")
	}
	return &resp, nil
}

// TransactionStatus fetches the current provider-side status of an order.
// GET /api/Transactions/GetTransactionStatus?orderTrackingId=
func (c *Client) TransactionStatus(ctx context.Context, token, trackingID string) (*domain.TransactionStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	endpoint := "/api/Transactions/GetTransactionStatus?orderTrackingId=" + url.QueryEscape(trackingID)
	var resp domain.TransactionStatus
	if err := c.getJSON(ctx, endpoint, token, &resp); err != nil {
		return nil, domain.NewDonationError(domain.ErrGatewayLookup,
			"status lookup failed: "+err.Error(), "GATEWAY_LOOKUP_ERROR")
	}
	if resp.Status == "" {
		return nil, domain.NewDonationError(domain.ErrGatewayLookup,
			"payment_status_description missing from gateway response", "GATEWAY_LOOKUP_ERROR")
	}
	return &resp, nil
}

// postJSON performs an authenticated JSON POST and decodes the response.
func (c *Client) postJSON(ctx context.Context, path, token string, body, out any) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return c.do(req, token, out)
}

// getJSON performs an authenticated JSON GET and decodes the response.
func (c *Client) getJSON(ctx context.Context, path, token string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return c.do(req, token, out)
}

func (c *Client) do(req *http.Request, token string, out any) error {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("gateway returned status %d: %s", resp.StatusCode, string(raw))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// splitName derives the billing first/last name pair from the donor's full
// name.
func splitName(full string) (string, string) {
	parts := strings.SplitN(strings.TrimSpace(full), " ", 2)
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], parts[1]
}
