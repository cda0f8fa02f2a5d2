package cinetpay

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davybookzone/server/internal/gateway"
	apperrors "github.com/davybookzone/server/pkg/errors"
)

func testClient(url string) *Client {
	return New(Config{
		APIURL:  url,
		APIKey:  "test-key",
		SiteID:  "test-site",
		Timeout: 5 * time.Second,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func testInput() *gateway.CreateTransactionInput {
	return &gateway.CreateTransactionInput{
		TransactionID: "txn_1700000000000_abc123xyz",
		Amount:        5000,
		Description:   "Achat du livre Les Richesses",
		ReturnURL:     "https://example.com/purchases/txn_1700000000000_abc123xyz/verify",
		NotifyURL:     "https://example.com/purchases/txn_1700000000000_abc123xyz/notify",
		Customer: gateway.Customer{
			Name:        "Awa",
			Surname:     "Kone",
			PhoneNumber: "+2250700000000",
			Email:       "awa@example.com",
			Address:     "Cocody",
			City:        "Abidjan",
			Country:     "CI",
			State:       "CI",
			ZipCode:     "00225",
		},
	}
}

func TestCreateTransaction_Success(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"code": "201",
			"message": "CREATED",
			"data": {"payment_url": "https://checkout.example.com/pay/tok", "payment_token": "tok"}
		}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	res, err := c.CreateTransaction(context.Background(), testInput())
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.example.com/pay/tok", res.PaymentURL)
	assert.Equal(t, "tok", res.PaymentToken)

	assert.Equal(t, "test-key", got["apikey"])
	assert.Equal(t, "test-site", got["site_id"])
	assert.Equal(t, "txn_1700000000000_abc123xyz", got["transaction_id"])
	assert.Equal(t, float64(5000), got["amount"])
	assert.Equal(t, "XOF", got["currency"])
	assert.Equal(t, "ALL", got["channels"])
	assert.Equal(t, "Awa", got["customer_name"])
	assert.Equal(t, "Kone", got["customer_surname"])
	assert.Equal(t, "+2250700000000", got["customer_phone_number"])
	assert.Equal(t, "00225", got["customer_zip_code"])
}

func TestCreateTransaction_Refused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"code": "608", "message": "MINIMUM_REQUIRED_FIELDS"}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.CreateTransaction(context.Background(), testInput())
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrGateway)
}

func TestCreateTransaction_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused

	c := testClient(srv.URL)
	_, err := c.CreateTransaction(context.Background(), testInput())
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrGateway)
}

func TestCreateTransaction_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>not json</html>`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.CreateTransaction(context.Background(), testInput())
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrGateway)
}

func TestCheckStatus(t *testing.T) {
	cases := []struct {
		name      string
		code      string
		message   string
		succeeded bool
	}{
		{"confirmed", "00", "SUCCES", true},
		{"declined", "627", "PAYMENT_FAILED", false},
		{"still waiting", "600", "WAITING_CUSTOMER_PAYMENT", false},
		{"right code wrong message", "00", "PENDING", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/check", r.URL.Path)

				var req map[string]any
				require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				assert.Equal(t, "test-key", req["apikey"])
				assert.Equal(t, "test-site", req["site_id"])
				assert.Equal(t, "txn_1700000000000_abc123xyz", req["transaction_id"])

				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode(map[string]string{"code": tc.code, "message": tc.message})
			}))
			defer srv.Close()

			c := testClient(srv.URL)
			res, err := c.CheckStatus(context.Background(), "txn_1700000000000_abc123xyz")
			require.NoError(t, err)
			assert.Equal(t, tc.succeeded, res.Succeeded)
			assert.Equal(t, tc.code, res.Code)
			assert.Equal(t, tc.message, res.Message)
		})
	}
}

func TestCheckStatus_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := testClient(srv.URL)
	_, err := c.CheckStatus(context.Background(), "txn_1700000000000_abc123xyz")
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "GATEWAY_ERROR", appErr.Code)
	assert.True(t, errors.Is(err, apperrors.ErrGateway))
}
