// Package cinetpay implements the payment gateway client for the CinetPay
// checkout API.
package cinetpay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/davybookzone/server/internal/gateway"
	apperrors "github.com/davybookzone/server/pkg/errors"
	"github.com/davybookzone/server/pkg/httpclient"
)

// Config holds the CinetPay credentials and endpoint. It is injected at
// construction time; the package keeps no global state.
type Config struct {
	APIURL  string
	APIKey  string
	SiteID  string
	Timeout time.Duration
}

// Client talks to the CinetPay checkout API. Requests are never retried:
// replaying a payment call could double-charge, so the underlying HTTP
// client runs with retries disabled and failures surface immediately.
type Client struct {
	cfg    Config
	http   *httpclient.CircuitBreakerClient
	logger *slog.Logger
}

// New creates a CinetPay client.
func New(cfg Config, logger *slog.Logger) *Client {
	httpCfg := httpclient.DefaultConfig()
	httpCfg.Timeout = cfg.Timeout
	httpCfg.MaxRetries = 0

	base := httpclient.New(httpCfg)
	cb := httpclient.NewCircuitBreakerClient(base, httpclient.DefaultCircuitBreakerConfig("cinetpay"), logger)

	return &Client{
		cfg:    cfg,
		http:   cb,
		logger: logger.With(slog.String("component", "cinetpay")),
	}
}

type createRequest struct {
	APIKey              string  `json:"apikey"`
	SiteID              string  `json:"site_id"`
	TransactionID       string  `json:"transaction_id"`
	Amount              float64 `json:"amount"`
	Currency            string  `json:"currency"`
	Description         string  `json:"description"`
	ReturnURL           string  `json:"return_url"`
	NotifyURL           string  `json:"notify_url"`
	Channels            string  `json:"channels"`
	CustomerName        string  `json:"customer_name"`
	CustomerSurname     string  `json:"customer_surname"`
	CustomerPhoneNumber string  `json:"customer_phone_number"`
	CustomerEmail       string  `json:"customer_email"`
	CustomerAddress     string  `json:"customer_address"`
	CustomerCity        string  `json:"customer_city"`
	CustomerCountry     string  `json:"customer_country"`
	CustomerState       string  `json:"customer_state"`
	CustomerZipCode     string  `json:"customer_zip_code"`
}

type createResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Data    struct {
		PaymentURL   string `json:"payment_url"`
		PaymentToken string `json:"payment_token"`
	} `json:"data"`
}

type checkRequest struct {
	APIKey        string `json:"apikey"`
	SiteID        string `json:"site_id"`
	TransactionID string `json:"transaction_id"`
}

type checkResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// CreateTransaction opens a checkout session. Success is exactly the
// (code, message) pair ("201", "CREATED"); any other well-formed answer is a
// hard failure.
func (c *Client) CreateTransaction(ctx context.Context, in *gateway.CreateTransactionInput) (*gateway.CreateTransactionResult, error) {
	req := createRequest{
		APIKey:              c.cfg.APIKey,
		SiteID:              c.cfg.SiteID,
		TransactionID:       in.TransactionID,
		Amount:              in.Amount,
		Currency:            "XOF",
		Description:         in.Description,
		ReturnURL:           in.ReturnURL,
		NotifyURL:           in.NotifyURL,
		Channels:            "ALL",
		CustomerName:        in.Customer.Name,
		CustomerSurname:     in.Customer.Surname,
		CustomerPhoneNumber: in.Customer.PhoneNumber,
		CustomerEmail:       in.Customer.Email,
		CustomerAddress:     in.Customer.Address,
		CustomerCity:        in.Customer.City,
		CustomerCountry:     in.Customer.Country,
		CustomerState:       in.Customer.State,
		CustomerZipCode:     in.Customer.ZipCode,
	}

	var resp createResponse
	if err := c.post(ctx, c.cfg.APIURL, req, &resp); err != nil {
		return nil, err
	}

	if resp.Code != "201" || resp.Message != "CREATED" {
		c.logger.Warn("checkout creation refused",
			slog.String("transaction_id", in.TransactionID),
			slog.String("code", resp.Code),
			slog.String("message", resp.Message),
		)
		return nil, apperrors.Gateway(fmt.Errorf("checkout refused: code=%s message=%s", resp.Code, resp.Message))
	}

	return &gateway.CreateTransactionResult{
		PaymentURL:   resp.Data.PaymentURL,
		PaymentToken: resp.Data.PaymentToken,
	}, nil
}

// CheckStatus asks the provider for the current state of a transaction.
// Succeeded is true only for the exact pair ("00", "SUCCES"); every other
// well-formed answer comes back with Succeeded false and the provider's
// code and message untouched.
func (c *Client) CheckStatus(ctx context.Context, transactionID string) (*gateway.StatusResult, error) {
	req := checkRequest{
		APIKey:        c.cfg.APIKey,
		SiteID:        c.cfg.SiteID,
		TransactionID: transactionID,
	}

	var resp checkResponse
	if err := c.post(ctx, c.cfg.APIURL+"/check", req, &resp); err != nil {
		return nil, err
	}

	return &gateway.StatusResult{
		Succeeded: resp.Code == "00" && resp.Message == "SUCCES",
		Code:      resp.Code,
		Message:   resp.Message,
	}, nil
}

func (c *Client) post(ctx context.Context, url string, req, out any) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	resp, err := c.http.Post(ctx, url, "application/json", bytes.NewReader(body))
	if err != nil {
		return apperrors.Gateway(err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.Gateway(fmt.Errorf("decode response: %w", err))
	}

	return nil
}
