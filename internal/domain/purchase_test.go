package domain

import (
	"regexp"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCustomerInfo_MissingFields(t *testing.T) {
	full := CustomerInfo{
		Name: "Ada", Surname: "Lovelace", PhoneNumber: "+2250102030405",
		Email: "ada@example.com", Address: "1 Rue des Jardins", City: "Abidjan",
		Country: "CI", State: "LG", ZipCode: "00225",
	}
	assert.Empty(t, full.MissingFields())

	partial := CustomerInfo{Name: "Ada", Email: "ada@example.com"}
	assert.Equal(t,
		[]string{"surname", "phone_number", "address", "city", "country", "state", "zip_code"},
		partial.MissingFields(),
	)
}

func TestCustomerInfo_Validate(t *testing.T) {
	base := CustomerInfo{
		Name: "Ada", Surname: "Lovelace", PhoneNumber: "+2250102030405",
		Email: "ada@example.com", Address: "1 Rue des Jardins", City: "Abidjan",
		Country: "CI", State: "LG", ZipCode: "00225",
	}

	tests := []struct {
		name    string
		mutate  func(c *CustomerInfo)
		wantErr string
	}{
		{"complete snapshot", func(c *CustomerInfo) {}, ""},
		{"empty optional-length fields", func(c *CustomerInfo) { c.ZipCode = "" }, ""},
		{"country too long", func(c *CustomerInfo) { c.Country = "CIV" }, "country"},
		{"state too long", func(c *CustomerInfo) { c.State = "Lagunes" }, "state"},
		{"zip code too long", func(c *CustomerInfo) { c.ZipCode = "0022556789" }, "zip_code"},
		{"several fields too long", func(c *CustomerInfo) {
			c.Country = "CIV"
			c.ZipCode = "0022556789"
		}, "country, zip_code"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base
			tt.mutate(&c)

			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, "invalid customer fields: "+tt.wantErr)
		})
	}
}

func TestCanTransitionPurchase(t *testing.T) {
	assert.True(t, CanTransitionPurchase(PurchaseStatusPending, PurchaseStatusCompleted))
	assert.True(t, CanTransitionPurchase(PurchaseStatusPending, PurchaseStatusFailed))

	// Terminal states never move.
	assert.False(t, CanTransitionPurchase(PurchaseStatusCompleted, PurchaseStatusFailed))
	assert.False(t, CanTransitionPurchase(PurchaseStatusFailed, PurchaseStatusCompleted))
	assert.False(t, CanTransitionPurchase(PurchaseStatusRefunded, PurchaseStatusCompleted))

	// Refunded is not reachable through the normal flow.
	assert.False(t, CanTransitionPurchase(PurchaseStatusPending, PurchaseStatusRefunded))
	assert.False(t, CanTransitionPurchase(PurchaseStatusPending, PurchaseStatusPending))
}

func TestPurchase_IsTerminal(t *testing.T) {
	p := &Purchase{Status: PurchaseStatusPending}
	assert.False(t, p.IsTerminal())

	for _, s := range []string{PurchaseStatusCompleted, PurchaseStatusFailed, PurchaseStatusRefunded} {
		p.Status = s
		assert.True(t, p.IsTerminal())
	}
}

func TestNewTransactionID_Format(t *testing.T) {
	pattern := regexp.MustCompile(`^txn_\d{13,}_[a-z0-9]{9}$`)

	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		id := NewTransactionID()
		assert.Regexp(t, pattern, id)
		seen[id] = struct{}{}
	}
	assert.Len(t, seen, 100)
}

func TestNewTransactionID_UniqueUnderConcurrency(t *testing.T) {
	const (
		workers    = 16
		perWorker  = 50
		totalCount = workers * perWorker
	)

	ids := make(chan string, totalCount)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				ids <- NewTransactionID()
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]struct{}, totalCount)
	for id := range ids {
		seen[id] = struct{}{}
	}
	assert.Len(t, seen, totalCount)
}

func TestIsValidPurchaseStatus(t *testing.T) {
	for _, s := range ValidPurchaseStatuses() {
		assert.True(t, IsValidPurchaseStatus(s))
	}
	assert.False(t, IsValidPurchaseStatus("processing"))
}
