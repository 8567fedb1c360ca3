package pesapal

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harambee/harambee-donations/internal/domain"
)

func TestBaseURLFor(t *testing.T) {
	assert.Equal(t, liveBaseURL, BaseURLFor("live"))
	assert.Equal(t, sandboxBaseURL, BaseURLFor("sandbox"))
	assert.Equal(t, sandboxBaseURL, BaseURLFor(""))
}

func TestAuthenticate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/Auth/RequestToken", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "key", body["consumer_key"])
		assert.Equal(t, "secret", body["consumer_secret"])

		json.NewEncoder(w).Encode(map[string]string{"token": "tok-123"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key", "secret")
	token, err := c.Authenticate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-123", token)
}

func TestAuthenticateMissingToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"error": "invalid credentials"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key", "secret")
	_, err := c.Authenticate(context.Background())
	assert.True(t, errors.Is(err, domain.ErrGatewayAuth))
}

func TestRegisterIPN(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/URLSetup/RegisterIPN", r.URL.Path)
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "https://example.com/ipn", body["url"])
		assert.Equal(t, "GET", body["ipn_notification_type"])

		json.NewEncoder(w).Encode(map[string]string{"ipn_id": "ipn-9"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key", "secret")
	id, err := c.RegisterIPN(context.Background(), "tok-123", "https://example.com/ipn")
	require.NoError(t, err)
	assert.Equal(t, "ipn-9", id)
}

func TestSubmitOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/Transactions/SubmitOrderRequest", r.URL.Path)
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))

		var body submitOrderRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "DON_1700000000_1234", body.ID)
		assert.Equal(t, "KES", body.Currency)
		assert.Equal(t, 500.0, body.Amount)
		assert.Equal(t, "ipn-9", body.NotificationID)
		assert.Equal(t, "KE", body.BillingAddress.CountryCode)
		assert.Equal(t, "Jane", body.BillingAddress.FirstName)
		assert.Equal(t, "Doe", body.BillingAddress.LastName)
		assert.Equal(t, "Online Donation", body.BillingAddress.Line1)

		json.NewEncoder(w).Encode(map[string]string{
			"order_tracking_id": "trk-42",
			"redirect_url":      "https://pay.example.com/trk-42",
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key", "secret")
	sub, err := c.SubmitOrder(context.Background(), "tok-123", domain.OrderRequest{
		MerchantReference: "DON_1700000000_1234",
		Amount:            decimal.NewFromInt(500),
		Currency:          "KES",
		Description:       "Donation from Jane Doe",
		CallbackURL:       "https://example.com/callback?donation_id=1",
		NotificationID:    "ipn-9",
		DonorName:         "Jane Doe",
		DonorEmail:        "jane@x.com",
		DonorPhone:        "0712345678",
	})
	require.NoError(t, err)
	assert.Equal(t, "trk-42", sub.TrackingID)
	assert.Equal(t, "https://pay.example.com/trk-42", sub.RedirectURL)
}

func TestSubmitOrderMissingRedirectURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"order_tracking_id": "trk-42"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key", "secret")
	sub, err := c.SubmitOrder(context.Background(), "tok-123", domain.OrderRequest{
		MerchantReference: "DON_1700000000_1234",
		Amount:            decimal.NewFromInt(500),
		Currency:          "KES",
	})
	assert.Nil(t, sub)
	assert.True(t, errors.Is(err, domain.ErrGatewaySubmission))
}

func TestTransactionStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/Transactions/GetTransactionStatus", r.URL.Path)
		assert.Equal(t, "trk-42", r.URL.Query().Get("orderTrackingId"))
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))

		json.NewEncoder(w).Encode(map[string]string{
			"payment_status_description": "COMPLETED",
			"payment_method":             "MpesaKE",
			"confirmation_code":          "ABC123XYZ",
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key", "secret")
	st, err := c.TransactionStatus(context.Background(), "tok-123", "trk-42")
	require.NoError(t, err)
	assert.Equal(t, "COMPLETED", st.Status)
	assert.Equal(t, "MpesaKE", st.PaymentMethod)
	assert.Equal(t, "ABC123XYZ", st.ConfirmationCode)
}

func TestTransactionStatusMissingStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"payment_method": "MpesaKE"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key", "secret")
	st, err := c.TransactionStatus(context.Background(), "tok-123", "trk-42")
	assert.Nil(t, st)
	assert.True(t, errors.Is(err, domain.ErrGatewayLookup))
}

func TestTransportErrorWrapsSentinel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key", "secret")
	_, err := c.Authenticate(context.Background())
	assert.True(t, errors.Is(err, domain.ErrGatewayAuth))

	var derr *domain.DonationError
	require.True(t, errors.As(err, &derr))
	assert.Equal(t, "GATEWAY_AUTH_ERROR", derr.Code)
}

func TestSplitName(t *testing.T) {
	first, last := splitName("Jane Doe")
	assert.Equal(t, "Jane", first)
	assert.Equal(t, "Doe", last)

	first, last = splitName("Cher")
	assert.Equal(t, "Cher", first)
	assert.Equal(t, "", last)

	first, last = splitName("Jane Anne Doe")
	assert.Equal(t, "Jane", first)
	assert.Equal(t, "Anne Doe", last)
}
