package service

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/davybookzone/server/internal/domain"
	"github.com/davybookzone/server/internal/gateway"
	apperrors "github.com/davybookzone/server/pkg/errors"
)

const (
	testUserID = "22222222-2222-2222-2222-222222222222"
	testBookID = "33333333-3333-3333-3333-333333333333"
	testTxnID  = "txn_1700000000000_abc123xyz"
)

func completeCustomer() domain.CustomerInfo {
	return domain.CustomerInfo{
		Name:        "Awa",
		Surname:     "Kone",
		PhoneNumber: "+2250700000000",
		Email:       "awa@example.com",
		Address:     "Cocody",
		City:        "Abidjan",
		Country:     "CI",
		State:       "CI",
		ZipCode:     "00225",
	}
}

func activeBook() *domain.Book {
	return &domain.Book{
		ID:       testBookID,
		Title:    "Les Richesses",
		Price:    5000,
		IsActive: true,
	}
}

func pendingPurchase() *domain.Purchase {
	return &domain.Purchase{
		ID:            "11111111-1111-1111-1111-111111111111",
		UserID:        testUserID,
		BookID:        testBookID,
		Price:         5000,
		TransactionID: testTxnID,
		Status:        domain.PurchaseStatusPending,
		CustomerInfo:  completeCustomer(),
	}
}

func newPurchaseService(purchases *mockPurchaseRepo, books *mockBookRepo, gw *mockGateway) *PurchaseService {
	return NewPurchaseService(purchases, books, gw, nil, "https://books.example.com", testLogger())
}

func TestInitiate_OpensPendingPurchase(t *testing.T) {
	purchases := new(mockPurchaseRepo)
	books := new(mockBookRepo)
	gw := new(mockGateway)
	svc := newPurchaseService(purchases, books, gw)

	books.On("GetByID", mock.Anything, testBookID).Return(activeBook(), nil)

	var created *domain.Purchase
	purchases.On("Create", mock.Anything, mock.AnythingOfType("*domain.Purchase")).
		Run(func(args mock.Arguments) { created = args.Get(1).(*domain.Purchase) }).
		Return(nil)

	gw.On("CreateTransaction", mock.Anything, mock.MatchedBy(func(in *gateway.CreateTransactionInput) bool {
		return in.Amount == 5000 &&
			in.Customer.Name == "Awa" &&
			in.ReturnURL == "https://books.example.com/purchases/"+in.TransactionID+"/verify" &&
			in.NotifyURL == "https://books.example.com/api/purchases/"+in.TransactionID+"/notify"
	})).Return(&gateway.CreateTransactionResult{PaymentURL: "https://checkout.example.com/pay"}, nil)

	res, err := svc.Initiate(context.Background(), testUserID, testBookID, completeCustomer())
	require.NoError(t, err)

	assert.Equal(t, "https://checkout.example.com/pay", res.PaymentURL)
	assert.Regexp(t, regexp.MustCompile(`^txn_\d+_[a-z0-9]{9}$`), res.TransactionID)

	require.NotNil(t, created)
	assert.Equal(t, res.TransactionID, created.TransactionID)
	assert.Equal(t, domain.PurchaseStatusPending, created.Status)
	assert.Equal(t, float64(5000), created.Price)
	assert.Nil(t, created.PurchasedAt)
	assert.Equal(t, completeCustomer(), created.CustomerInfo)

	purchases.AssertExpectations(t)
	books.AssertExpectations(t)
	gw.AssertExpectations(t)
}

func TestInitiate_MissingCustomerFields(t *testing.T) {
	purchases := new(mockPurchaseRepo)
	books := new(mockBookRepo)
	gw := new(mockGateway)
	svc := newPurchaseService(purchases, books, gw)

	customer := completeCustomer()
	customer.PhoneNumber = ""
	customer.City = ""
	customer.ZipCode = ""

	_, err := svc.Initiate(context.Background(), testUserID, testBookID, customer)
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "MISSING_FIELDS", appErr.Code)
	assert.Equal(t, http.StatusBadRequest, appErr.Status)
	assert.Equal(t, []string{"phone_number", "city", "zip_code"}, appErr.Fields)

	// Nothing was written and the provider was never contacted.
	purchases.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	gw.AssertNotCalled(t, "CreateTransaction", mock.Anything, mock.Anything)
}

func TestInitiate_OverlongCustomerFields(t *testing.T) {
	purchases := new(mockPurchaseRepo)
	books := new(mockBookRepo)
	gw := new(mockGateway)
	svc := newPurchaseService(purchases, books, gw)

	customer := completeCustomer()
	customer.ZipCode = "0022556789"

	_, err := svc.Initiate(context.Background(), testUserID, testBookID, customer)
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, http.StatusBadRequest, appErr.Status)
	assert.Contains(t, appErr.Message, "zip_code")

	purchases.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	gw.AssertNotCalled(t, "CreateTransaction", mock.Anything, mock.Anything)
}

func TestInitiate_GatewayFailureLeavesRecordPending(t *testing.T) {
	purchases := new(mockPurchaseRepo)
	books := new(mockBookRepo)
	gw := new(mockGateway)
	svc := newPurchaseService(purchases, books, gw)

	books.On("GetByID", mock.Anything, testBookID).Return(activeBook(), nil)
	purchases.On("Create", mock.Anything, mock.Anything).Return(nil)
	gw.On("CreateTransaction", mock.Anything, mock.Anything).
		Return(nil, apperrors.Gateway(errors.New("connection refused")))

	_, err := svc.Initiate(context.Background(), testUserID, testBookID, completeCustomer())
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "GATEWAY_ERROR", appErr.Code)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)

	// The pending record was created and never rewritten.
	purchases.AssertCalled(t, "Create", mock.Anything, mock.Anything)
	purchases.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestInitiate_TransactionIDCollision(t *testing.T) {
	purchases := new(mockPurchaseRepo)
	books := new(mockBookRepo)
	gw := new(mockGateway)
	svc := newPurchaseService(purchases, books, gw)

	books.On("GetByID", mock.Anything, testBookID).Return(activeBook(), nil)
	purchases.On("Create", mock.Anything, mock.Anything).
		Return(apperrors.Conflict("TRANSACTION_EXISTS", "transaction already recorded"))

	_, err := svc.Initiate(context.Background(), testUserID, testBookID, completeCustomer())
	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, apperrors.HTTPStatus(err))
	gw.AssertNotCalled(t, "CreateTransaction", mock.Anything, mock.Anything)
}

func TestInitiate_InactiveBook(t *testing.T) {
	purchases := new(mockPurchaseRepo)
	books := new(mockBookRepo)
	gw := new(mockGateway)
	svc := newPurchaseService(purchases, books, gw)

	book := activeBook()
	book.IsActive = false
	books.On("GetByID", mock.Anything, testBookID).Return(book, nil)

	_, err := svc.Initiate(context.Background(), testUserID, testBookID, completeCustomer())
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	purchases.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestHandleNotify_CompletesPendingPurchase(t *testing.T) {
	purchases := new(mockPurchaseRepo)
	books := new(mockBookRepo)
	gw := new(mockGateway)
	svc := newPurchaseService(purchases, books, gw)

	purchases.On("GetByTransactionID", mock.Anything, testTxnID).Return(pendingPurchase(), nil)
	gw.On("CheckStatus", mock.Anything, testTxnID).
		Return(&gateway.StatusResult{Succeeded: true, Code: "00", Message: "SUCCES"}, nil)
	purchases.On("UpdateStatus", mock.Anything, testTxnID, domain.PurchaseStatusCompleted, mock.MatchedBy(func(at *time.Time) bool {
		return at != nil
	})).Return(true, nil)
	books.On("IncrementPurchaseCount", mock.Anything, testBookID).Return(nil)

	require.NoError(t, svc.HandleNotify(context.Background(), testTxnID))

	purchases.AssertExpectations(t)
	books.AssertExpectations(t)
}

func TestHandleNotify_TerminalRecordSkipsProvider(t *testing.T) {
	purchases := new(mockPurchaseRepo)
	books := new(mockBookRepo)
	gw := new(mockGateway)
	svc := newPurchaseService(purchases, books, gw)

	done := pendingPurchase()
	done.Status = domain.PurchaseStatusCompleted
	at := time.Now().UTC()
	done.PurchasedAt = &at

	purchases.On("GetByTransactionID", mock.Anything, testTxnID).Return(done, nil)

	require.NoError(t, svc.HandleNotify(context.Background(), testTxnID))

	gw.AssertNotCalled(t, "CheckStatus", mock.Anything, mock.Anything)
	purchases.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleNotify_DeclinedPaymentFailsPurchase(t *testing.T) {
	purchases := new(mockPurchaseRepo)
	books := new(mockBookRepo)
	gw := new(mockGateway)
	svc := newPurchaseService(purchases, books, gw)

	purchases.On("GetByTransactionID", mock.Anything, testTxnID).Return(pendingPurchase(), nil)
	gw.On("CheckStatus", mock.Anything, testTxnID).
		Return(&gateway.StatusResult{Succeeded: false, Code: "627", Message: "PAYMENT_FAILED"}, nil)
	purchases.On("UpdateStatus", mock.Anything, testTxnID, domain.PurchaseStatusFailed, (*time.Time)(nil)).
		Return(true, nil)

	require.NoError(t, svc.HandleNotify(context.Background(), testTxnID))

	// purchased_at is only ever set on completion.
	purchases.AssertExpectations(t)
	books.AssertNotCalled(t, "IncrementPurchaseCount", mock.Anything, mock.Anything)
}

func TestHandleNotify_LostRaceLoadsAuthoritativeRow(t *testing.T) {
	purchases := new(mockPurchaseRepo)
	books := new(mockBookRepo)
	gw := new(mockGateway)
	svc := newPurchaseService(purchases, books, gw)

	purchases.On("GetByTransactionID", mock.Anything, testTxnID).Return(pendingPurchase(), nil)
	gw.On("CheckStatus", mock.Anything, testTxnID).
		Return(&gateway.StatusResult{Succeeded: true, Code: "00", Message: "SUCCES"}, nil)
	// A concurrent notify already moved the row; the guarded update matches nothing.
	purchases.On("UpdateStatus", mock.Anything, testTxnID, domain.PurchaseStatusCompleted, mock.Anything).
		Return(false, nil)

	require.NoError(t, svc.HandleNotify(context.Background(), testTxnID))

	books.AssertNotCalled(t, "IncrementPurchaseCount", mock.Anything, mock.Anything)
}

func TestVerify_CompletedPurchase(t *testing.T) {
	purchases := new(mockPurchaseRepo)
	books := new(mockBookRepo)
	gw := new(mockGateway)
	svc := newPurchaseService(purchases, books, gw)

	done := pendingPurchase()
	done.Status = domain.PurchaseStatusCompleted
	at := time.Now().UTC()
	done.PurchasedAt = &at

	purchases.On("GetByTransactionID", mock.Anything, testTxnID).Return(done, nil)

	got, err := svc.Verify(context.Background(), testTxnID)
	require.NoError(t, err)
	assert.Equal(t, domain.PurchaseStatusCompleted, got.Status)
}

func TestVerify_NotCompletedIsCoarse(t *testing.T) {
	// A declined payment and one still awaiting the customer produce the
	// same answer; the caller polls again.
	cases := []struct {
		name   string
		status *gateway.StatusResult
	}{
		{"declined", &gateway.StatusResult{Succeeded: false, Code: "627", Message: "PAYMENT_FAILED"}},
		{"waiting", &gateway.StatusResult{Succeeded: false, Code: "600", Message: "WAITING_CUSTOMER_PAYMENT"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			purchases := new(mockPurchaseRepo)
			books := new(mockBookRepo)
			gw := new(mockGateway)
			svc := newPurchaseService(purchases, books, gw)

			purchases.On("GetByTransactionID", mock.Anything, testTxnID).Return(pendingPurchase(), nil)
			gw.On("CheckStatus", mock.Anything, testTxnID).Return(tc.status, nil)
			purchases.On("UpdateStatus", mock.Anything, testTxnID, domain.PurchaseStatusFailed, (*time.Time)(nil)).
				Return(true, nil)

			_, err := svc.Verify(context.Background(), testTxnID)
			require.Error(t, err)

			var appErr *apperrors.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, "PAYMENT_NOT_COMPLETED", appErr.Code)
			assert.Equal(t, http.StatusBadRequest, appErr.Status)
		})
	}
}

func TestVerify_GatewayErrorLeavesRecordUntouched(t *testing.T) {
	purchases := new(mockPurchaseRepo)
	books := new(mockBookRepo)
	gw := new(mockGateway)
	svc := newPurchaseService(purchases, books, gw)

	purchases.On("GetByTransactionID", mock.Anything, testTxnID).Return(pendingPurchase(), nil)
	gw.On("CheckStatus", mock.Anything, testTxnID).
		Return(nil, apperrors.Gateway(errors.New("timeout")))

	_, err := svc.Verify(context.Background(), testTxnID)
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "GATEWAY_ERROR", appErr.Code)

	purchases.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestVerify_UnknownTransaction(t *testing.T) {
	purchases := new(mockPurchaseRepo)
	books := new(mockBookRepo)
	gw := new(mockGateway)
	svc := newPurchaseService(purchases, books, gw)

	purchases.On("GetByTransactionID", mock.Anything, "txn_missing").Return(nil, apperrors.ErrNotFound)

	_, err := svc.Verify(context.Background(), "txn_missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestGetByTransactionID_OwnershipEnforced(t *testing.T) {
	purchases := new(mockPurchaseRepo)
	books := new(mockBookRepo)
	gw := new(mockGateway)
	svc := newPurchaseService(purchases, books, gw)

	purchases.On("GetByTransactionID", mock.Anything, testTxnID).Return(pendingPurchase(), nil)

	_, err := svc.GetByTransactionID(context.Background(), testTxnID, "someone-else", domain.RoleUser)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	got, err := svc.GetByTransactionID(context.Background(), testTxnID, "someone-else", domain.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, testTxnID, got.TransactionID)

	got, err = svc.GetByTransactionID(context.Background(), testTxnID, testUserID, domain.RoleUser)
	require.NoError(t, err)
	assert.Equal(t, testUserID, got.UserID)
}

func TestHistory(t *testing.T) {
	purchases := new(mockPurchaseRepo)
	books := new(mockBookRepo)
	gw := new(mockGateway)
	svc := newPurchaseService(purchases, books, gw)

	purchases.On("ListByUser", mock.Anything, testUserID).
		Return([]*domain.Purchase{pendingPurchase()}, nil)

	got, err := svc.History(context.Background(), testUserID)
	require.NoError(t, err)
	require.Len(t, got, 1)
}
