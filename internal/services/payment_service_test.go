package services_test

import (
	"errors"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"ecommerce/internal/httperr"
	"ecommerce/internal/models"
	"ecommerce/internal/repositories"
	"ecommerce/internal/services"
	"ecommerce/pkg/money"
)

// MockPaymentRepository is a mock implementation of repositories.PaymentRepository.
type MockPaymentRepository struct {
	mock.Mock
	captured []*models.OutboxMessage
}

func (m *MockPaymentRepository) Create(payment *models.Payment, buildOutbox repositories.OutboxFunc) error {
	args := m.Called(payment, buildOutbox)
	if args.Error(0) == nil {
		payment.ID = 1
		if buildOutbox != nil {
			m.captured, _ = buildOutbox()
		}
	}
	return args.Error(0)
}

func (m *MockPaymentRepository) ListByUser(userID uint) ([]models.Payment, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Payment), args.Error(1)
}

func (m *MockPaymentRepository) GetByUser(id, userID uint) (*models.Payment, error) {
	args := m.Called(id, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

func (m *MockPaymentRepository) ListByOrder(orderID, userID uint) ([]models.Payment, error) {
	args := m.Called(orderID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Payment), args.Error(1)
}

func (m *MockPaymentRepository) Update(payment *models.Payment, buildOutbox repositories.OutboxFunc) error {
	args := m.Called(payment, buildOutbox)
	if args.Error(0) == nil && buildOutbox != nil {
		m.captured, _ = buildOutbox()
	}
	return args.Error(0)
}

var transactionIDPattern = regexp.MustCompile(`^txn_[0-9a-f]{16}$`)

func TestCreatePaymentStubAlwaysCompletes(t *testing.T) {
	mockRepo := new(MockPaymentRepository)
	svc := services.NewPaymentService(mockRepo)

	mockRepo.On("Create", mock.AnythingOfType("*models.Payment"), mock.Anything).Return(nil).Once()

	payment, err := svc.CreatePayment(buyer, services.CreatePaymentRequest{
		OrderID: 1,
		Amount:  money.Cents(9999),
	})
	assert.NoError(t, err)
	assert.Equal(t, models.PaymentCompleted, payment.Status)
	assert.Equal(t, money.Cents(9999), payment.Amount)
	assert.Equal(t, "credit_card", payment.PaymentMethod)
	assert.Regexp(t, transactionIDPattern, payment.TransactionID)
	mockRepo.AssertExpectations(t)
}

// The persisted owner is the token identity, never the body field.
func TestCreatePaymentIgnoresBodyUserID(t *testing.T) {
	mockRepo := new(MockPaymentRepository)
	svc := services.NewPaymentService(mockRepo)

	mockRepo.On("Create", mock.AnythingOfType("*models.Payment"), mock.Anything).Return(nil).Once()

	payment, err := svc.CreatePayment(buyer, services.CreatePaymentRequest{
		OrderID: 1,
		Amount:  money.Cents(100),
		UserID:  999,
	})
	assert.NoError(t, err)
	assert.Equal(t, buyer.UserID, payment.UserID)
}

func TestCreatePaymentEnqueuesCompletedEvent(t *testing.T) {
	mockRepo := new(MockPaymentRepository)
	svc := services.NewPaymentService(mockRepo)

	mockRepo.On("Create", mock.AnythingOfType("*models.Payment"), mock.Anything).Return(nil).Once()

	payment, err := svc.CreatePayment(buyer, services.CreatePaymentRequest{
		OrderID: 7,
		Amount:  money.Cents(9999),
	})
	assert.NoError(t, err)
	assert.Len(t, mockRepo.captured, 1)

	event := mockRepo.captured[0]
	assert.Equal(t, models.OutboxEvent, event.Kind)
	assert.Equal(t, "payment.completed", event.RoutingKey)
	assert.JSONEq(t,
		`{"payment_id":1,"order_id":7,"amount":99.99,"transaction_id":"`+payment.TransactionID+`"}`,
		string(event.Payload))
}

func TestTransactionIDsAreUnique(t *testing.T) {
	mockRepo := new(MockPaymentRepository)
	svc := services.NewPaymentService(mockRepo)

	mockRepo.On("Create", mock.AnythingOfType("*models.Payment"), mock.Anything).Return(nil)

	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		payment, err := svc.CreatePayment(buyer, services.CreatePaymentRequest{OrderID: 1, Amount: 100})
		assert.NoError(t, err)
		assert.False(t, seen[payment.TransactionID], "duplicate transaction id")
		seen[payment.TransactionID] = true
	}
}

func TestUpdatePaymentRefund(t *testing.T) {
	mockRepo := new(MockPaymentRepository)
	svc := services.NewPaymentService(mockRepo)

	existing := &models.Payment{ID: 2, OrderID: 7, UserID: 1, Status: models.PaymentCompleted}
	mockRepo.On("GetByUser", uint(2), uint(1)).Return(existing, nil).Once()
	mockRepo.On("Update", existing, mock.Anything).Return(nil).Once()

	status := "refunded"
	payment, err := svc.UpdatePayment(buyer, 2, services.UpdatePaymentRequest{Status: &status})
	assert.NoError(t, err)
	assert.Equal(t, models.PaymentRefunded, payment.Status)
	assert.Equal(t, "payment.updated", mockRepo.captured[0].RoutingKey)
	assert.JSONEq(t, `{"payment_id":2,"order_id":7,"status":"refunded"}`,
		string(mockRepo.captured[0].Payload))
}

func TestUpdatePaymentRejectsBackwardTransition(t *testing.T) {
	mockRepo := new(MockPaymentRepository)
	svc := services.NewPaymentService(mockRepo)

	existing := &models.Payment{ID: 2, UserID: 1, Status: models.PaymentCompleted}
	mockRepo.On("GetByUser", uint(2), uint(1)).Return(existing, nil).Once()

	status := "pending"
	_, err := svc.UpdatePayment(buyer, 2, services.UpdatePaymentRequest{Status: &status})
	assert.True(t, errors.Is(err, httperr.ErrValidation))
	mockRepo.AssertNotCalled(t, "Update")
}

func TestGetPaymentNotOwned(t *testing.T) {
	mockRepo := new(MockPaymentRepository)
	svc := services.NewPaymentService(mockRepo)

	mockRepo.On("GetByUser", uint(8), uint(1)).
		Return(nil, httperr.NotFoundf("payment not found")).Once()

	_, err := svc.GetPayment(buyer, 8)
	assert.True(t, errors.Is(err, httperr.ErrNotFound))
}
