package domain

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"
)

// Purchase status constants.
const (
	PurchaseStatusPending   = "pending"
	PurchaseStatusCompleted = "completed"
	PurchaseStatusFailed    = "failed"
	PurchaseStatusRefunded  = "refunded"
)

// CustomerInfo is the buyer snapshot captured when a purchase is initiated.
// It is written once and never updated afterwards.
type CustomerInfo struct {
	Name        string `json:"name"`
	Surname     string `json:"surname"`
	PhoneNumber string `json:"phone_number"`
	Email       string `json:"email"`
	Address     string `json:"address"`
	City        string `json:"city"`
	Country     string `json:"country"`
	State       string `json:"state"`
	ZipCode     string `json:"zip_code"`
}

// MissingFields returns the json names of all empty customer fields, in
// declaration order. An empty slice means the snapshot is complete.
func (c CustomerInfo) MissingFields() []string {
	var missing []string
	for _, f := range []struct {
		name  string
		value string
	}{
		{"name", c.Name},
		{"surname", c.Surname},
		{"phone_number", c.PhoneNumber},
		{"email", c.Email},
		{"address", c.Address},
		{"city", c.City},
		{"country", c.Country},
		{"state", c.State},
		{"zip_code", c.ZipCode},
	} {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

// Validate checks the length bounds on a snapshot: country and state are
// 2-letter codes, zip_code holds at most 5 characters.
func (c CustomerInfo) Validate() error {
	var invalid []string
	if len(c.Country) > 2 {
		invalid = append(invalid, "country")
	}
	if len(c.State) > 2 {
		invalid = append(invalid, "state")
	}
	if len(c.ZipCode) > 5 {
		invalid = append(invalid, "zip_code")
	}
	if len(invalid) > 0 {
		return fmt.Errorf("invalid customer fields: %s", strings.Join(invalid, ", "))
	}
	return nil
}

// Purchase represents one attempt to buy a book. The price is captured at
// initiation time and never re-read from the catalog.
type Purchase struct {
	ID            string       `json:"id"`
	UserID        string       `json:"user_id"`
	BookID        string       `json:"book_id"`
	Price         float64      `json:"price"`
	TransactionID string       `json:"transaction_id"`
	Status        string       `json:"status"`
	PurchasedAt   *time.Time   `json:"purchased_at,omitempty"`
	CustomerInfo  CustomerInfo `json:"customer_info"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// IsTerminal reports whether the purchase has reached a final status.
// Terminal statuses never change again.
func (p *Purchase) IsTerminal() bool {
	return p.Status != PurchaseStatusPending
}

// ValidPurchaseStatuses returns all valid purchase statuses.
func ValidPurchaseStatuses() []string {
	return []string{
		PurchaseStatusPending,
		PurchaseStatusCompleted,
		PurchaseStatusFailed,
		PurchaseStatusRefunded,
	}
}

// IsValidPurchaseStatus checks whether the given status is a valid purchase status.
func IsValidPurchaseStatus(status string) bool {
	for _, s := range ValidPurchaseStatuses() {
		if s == status {
			return true
		}
	}
	return false
}

// CanTransitionPurchase reports whether a purchase may move from one status
// to another. Only pending purchases move, and only to completed or failed;
// refunded is set out-of-band by support tooling.
func CanTransitionPurchase(from, to string) bool {
	if from != PurchaseStatusPending {
		return false
	}
	return to == PurchaseStatusCompleted || to == PurchaseStatusFailed
}

const transactionIDAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// NewTransactionID generates a provider-facing transaction identifier of the
// form txn_<unix-millis>_<9 alphanumeric chars>. Uniqueness is ultimately
// enforced by the ledger's unique constraint, not by this generator.
func NewTransactionID() string {
	suffix := make([]byte, 9)
	for i := range suffix {
		suffix[i] = transactionIDAlphabet[rand.IntN(len(transactionIDAlphabet))] // #nosec G404 -- collisions are caught by the DB constraint
	}
	return fmt.Sprintf("txn_%d_%s", time.Now().UnixMilli(), suffix)
}
