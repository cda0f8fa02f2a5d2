// Package gateway defines the payment provider abstraction used by the
// purchase service. Implementations live in sub-packages.
package gateway

import "context"

// CreateTransactionInput carries everything the provider needs to open a
// checkout session for one purchase.
type CreateTransactionInput struct {
	TransactionID string
	Amount        float64
	Description   string
	ReturnURL     string
	NotifyURL     string
	Customer      Customer
}

// Customer is the buyer snapshot forwarded to the provider.
type Customer struct {
	Name        string
	Surname     string
	PhoneNumber string
	Email       string
	Address     string
	City        string
	Country     string
	State       string
	ZipCode     string
}

// CreateTransactionResult is returned on a successful checkout creation.
type CreateTransactionResult struct {
	PaymentURL   string
	PaymentToken string
}

// StatusResult is the outcome of a provider-side status check. Succeeded is
// true only when the provider confirms the payment; otherwise Code and
// Message carry the provider's verdict as-is.
type StatusResult struct {
	Succeeded bool
	Code      string
	Message   string
}

// Client is a payment provider. Transport or decode failures return a
// gateway error; a well-formed negative answer from the provider does not.
type Client interface {
	CreateTransaction(ctx context.Context, in *CreateTransactionInput) (*CreateTransactionResult, error)
	CheckStatus(ctx context.Context, transactionID string) (*StatusResult, error)
}
