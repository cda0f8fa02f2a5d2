package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/davybookzone/server/internal/domain"
	"github.com/davybookzone/server/internal/event"
	"github.com/davybookzone/server/internal/gateway"
	"github.com/davybookzone/server/internal/repository"
	apperrors "github.com/davybookzone/server/pkg/errors"
)

// PurchaseService orchestrates the purchase lifecycle against the payment
// provider. Status moves only pending→completed or pending→failed; terminal
// records are never rewritten.
type PurchaseService struct {
	purchases repository.PurchaseRepository
	books     repository.BookRepository
	gateway   gateway.Client
	events    *event.Producer
	appURL    string
	logger    *slog.Logger

	now func() time.Time
}

// NewPurchaseService creates the purchase orchestrator. appURL is the public
// base URL used to build the provider's return and notify callbacks.
func NewPurchaseService(
	purchases repository.PurchaseRepository,
	books repository.BookRepository,
	gw gateway.Client,
	events *event.Producer,
	appURL string,
	logger *slog.Logger,
) *PurchaseService {
	return &PurchaseService{
		purchases: purchases,
		books:     books,
		gateway:   gw,
		events:    events,
		appURL:    appURL,
		logger:    logger.With(slog.String("component", "purchase_service")),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// InitiateResult is returned to the buyer after a checkout session opens.
type InitiateResult struct {
	TransactionID string `json:"transaction_id"`
	PaymentURL    string `json:"payment_url"`
}

// Initiate opens a purchase. The book's current price is captured on the
// record and never re-read afterwards. If the provider cannot be reached the
// record stays pending and the gateway error propagates to the caller.
func (s *PurchaseService) Initiate(ctx context.Context, userID, bookID string, customer domain.CustomerInfo) (*InitiateResult, error) {
	if missing := customer.MissingFields(); len(missing) > 0 {
		return nil, apperrors.MissingFields("missing required customer information", missing)
	}
	if err := customer.Validate(); err != nil {
		return nil, apperrors.InvalidInput(err.Error())
	}

	book, err := s.books.GetByID(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("load book: %w", err)
	}
	if !book.IsActive {
		return nil, apperrors.NotFound("book", bookID)
	}

	now := s.now()
	purchase := &domain.Purchase{
		ID:            uuid.New().String(),
		UserID:        userID,
		BookID:        book.ID,
		Price:         book.Price,
		TransactionID: domain.NewTransactionID(),
		Status:        domain.PurchaseStatusPending,
		CustomerInfo:  customer,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.purchases.Create(ctx, purchase); err != nil {
		return nil, fmt.Errorf("create purchase: %w", err)
	}

	s.events.PurchaseInitiated(ctx, purchase)

	res, err := s.gateway.CreateTransaction(ctx, &gateway.CreateTransactionInput{
		TransactionID: purchase.TransactionID,
		Amount:        purchase.Price,
		Description:   "Achat du livre " + book.Title,
		ReturnURL:     fmt.Sprintf("%s/purchases/%s/verify", s.appURL, purchase.TransactionID),
		NotifyURL:     fmt.Sprintf("%s/api/purchases/%s/notify", s.appURL, purchase.TransactionID),
		Customer: gateway.Customer{
			Name:        customer.Name,
			Surname:     customer.Surname,
			PhoneNumber: customer.PhoneNumber,
			Email:       customer.Email,
			Address:     customer.Address,
			City:        customer.City,
			Country:     customer.Country,
			State:       customer.State,
			ZipCode:     customer.ZipCode,
		},
	})
	if err != nil {
		// The record stays pending; a later notify or verify can still
		// resolve it if the provider accepted the session after all.
		s.logger.ErrorContext(ctx, "checkout creation failed",
			slog.String("transaction_id", purchase.TransactionID),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	s.logger.InfoContext(ctx, "purchase initiated",
		slog.String("transaction_id", purchase.TransactionID),
		slog.String("book_id", book.ID),
		slog.Float64("price", purchase.Price),
	)

	return &InitiateResult{TransactionID: purchase.TransactionID, PaymentURL: res.PaymentURL}, nil
}

// reconcile loads a purchase and, if it is still pending, asks the provider
// for the transaction's current state and applies the outcome. Terminal
// records are returned unchanged without any provider call. Provider
// transport errors leave the record untouched and propagate.
func (s *PurchaseService) reconcile(ctx context.Context, transactionID string) (*domain.Purchase, error) {
	purchase, err := s.purchases.GetByTransactionID(ctx, transactionID)
	if err != nil {
		return nil, fmt.Errorf("load purchase: %w", err)
	}

	if purchase.IsTerminal() {
		return purchase, nil
	}

	status, err := s.gateway.CheckStatus(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	if status.Succeeded {
		return s.complete(ctx, purchase)
	}
	return s.fail(ctx, purchase, status)
}

func (s *PurchaseService) complete(ctx context.Context, purchase *domain.Purchase) (*domain.Purchase, error) {
	at := s.now()
	changed, err := s.purchases.UpdateStatus(ctx, purchase.TransactionID, domain.PurchaseStatusCompleted, &at)
	if err != nil {
		return nil, fmt.Errorf("complete purchase: %w", err)
	}
	if !changed {
		// Lost the race to a concurrent notify/verify; the stored row is
		// already terminal and authoritative.
		return s.purchases.GetByTransactionID(ctx, purchase.TransactionID)
	}

	purchase.Status = domain.PurchaseStatusCompleted
	purchase.PurchasedAt = &at
	purchase.UpdatedAt = at

	if err := s.books.IncrementPurchaseCount(ctx, purchase.BookID); err != nil {
		s.logger.WarnContext(ctx, "increment purchase count failed",
			slog.String("book_id", purchase.BookID),
			slog.String("error", err.Error()),
		)
	}

	s.events.PurchaseCompleted(ctx, purchase)
	s.logger.InfoContext(ctx, "purchase completed",
		slog.String("transaction_id", purchase.TransactionID),
	)

	return purchase, nil
}

func (s *PurchaseService) fail(ctx context.Context, purchase *domain.Purchase, status *gateway.StatusResult) (*domain.Purchase, error) {
	changed, err := s.purchases.UpdateStatus(ctx, purchase.TransactionID, domain.PurchaseStatusFailed, nil)
	if err != nil {
		return nil, fmt.Errorf("fail purchase: %w", err)
	}
	if !changed {
		return s.purchases.GetByTransactionID(ctx, purchase.TransactionID)
	}

	purchase.Status = domain.PurchaseStatusFailed
	purchase.UpdatedAt = s.now()

	s.events.PurchaseFailed(ctx, purchase)
	s.logger.InfoContext(ctx, "purchase failed",
		slog.String("transaction_id", purchase.TransactionID),
		slog.String("provider_code", status.Code),
		slog.String("provider_message", status.Message),
	)

	return purchase, nil
}

// HandleNotify processes the provider's webhook for a transaction. The
// caller acknowledges the webhook regardless of the outcome; the returned
// error is for logging only.
func (s *PurchaseService) HandleNotify(ctx context.Context, transactionID string) error {
	_, err := s.reconcile(ctx, transactionID)
	return err
}

// Verify reconciles a transaction and reports whether it completed. Both a
// declined payment and one still awaiting the customer come back as the same
// payment-not-completed error; callers are expected to poll again.
func (s *PurchaseService) Verify(ctx context.Context, transactionID string) (*domain.Purchase, error) {
	purchase, err := s.reconcile(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	if purchase.Status != domain.PurchaseStatusCompleted {
		return nil, apperrors.PaymentNotCompleted("payment has not been completed")
	}

	return purchase, nil
}

// GetByTransactionID returns a purchase if it belongs to the given user.
// Admins may read any purchase.
func (s *PurchaseService) GetByTransactionID(ctx context.Context, transactionID, userID, role string) (*domain.Purchase, error) {
	purchase, err := s.purchases.GetByTransactionID(ctx, transactionID)
	if err != nil {
		return nil, fmt.Errorf("load purchase: %w", err)
	}

	if purchase.UserID != userID && role != domain.RoleAdmin {
		return nil, apperrors.Forbidden("purchase belongs to another user")
	}

	return purchase, nil
}

// History returns all purchases of a buyer, most recent payment first.
func (s *PurchaseService) History(ctx context.Context, userID string) ([]*domain.Purchase, error) {
	purchases, err := s.purchases.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}
	return purchases, nil
}

// ListAll returns every purchase in the ledger. Admin only.
func (s *PurchaseService) ListAll(ctx context.Context) ([]*domain.Purchase, error) {
	purchases, err := s.purchases.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}
	return purchases, nil
}
