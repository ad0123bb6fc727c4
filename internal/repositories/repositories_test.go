package repositories_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"ecommerce/internal/httperr"
	"ecommerce/internal/models"
	"ecommerce/internal/repositories"
	"ecommerce/pkg/money"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Order{}, &models.OrderItem{}, &models.Payment{}, &models.OutboxMessage{}))
	return db
}

func TestOrderCreateIsAtomicWithOutbox(t *testing.T) {
	db := openTestDB(t)
	repo := repositories.NewGORMOrderRepository(db)

	order := &models.Order{
		UserID: 1,
		Status: models.OrderPending,
		Total:  money.Cents(2000),
		Items: []models.OrderItem{
			{ProductID: 1, Quantity: 2, Price: money.Cents(1000)},
		},
	}
	err := repo.Create(order, func() ([]*models.OutboxMessage, error) {
		msg, err := models.NewEventMessage("order.created", map[string]interface{}{"order_id": order.ID})
		if err != nil {
			return nil, err
		}
		return []*models.OutboxMessage{msg}, nil
	})
	require.NoError(t, err)
	assert.NotZero(t, order.ID)
	assert.NotZero(t, order.Items[0].ID)

	var outboxCount int64
	db.Model(&models.OutboxMessage{}).Count(&outboxCount)
	assert.EqualValues(t, 1, outboxCount)
}

// A failing outbox build must roll back the order and its items.
func TestOrderCreateRollsBackOnOutboxFailure(t *testing.T) {
	db := openTestDB(t)
	repo := repositories.NewGORMOrderRepository(db)

	order := &models.Order{
		UserID: 1,
		Status: models.OrderPending,
		Items:  []models.OrderItem{{ProductID: 1, Quantity: 1, Price: money.Cents(500)}},
	}
	err := repo.Create(order, func() ([]*models.OutboxMessage, error) {
		return nil, errors.New("marshal failed")
	})
	assert.Error(t, err)

	var orderCount, itemCount int64
	db.Model(&models.Order{}).Count(&orderCount)
	db.Model(&models.OrderItem{}).Count(&itemCount)
	assert.EqualValues(t, 0, orderCount)
	assert.EqualValues(t, 0, itemCount)
}

func TestOrderGetByUserScopesOwnership(t *testing.T) {
	db := openTestDB(t)
	repo := repositories.NewGORMOrderRepository(db)

	order := &models.Order{UserID: 1, Status: models.OrderPending}
	require.NoError(t, repo.Create(order, nil))

	found, err := repo.GetByUser(order.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, order.ID, found.ID)

	_, err = repo.GetByUser(order.ID, 2)
	assert.True(t, errors.Is(err, httperr.ErrNotFound))

	_, err = repo.GetByUser(99999, 1)
	assert.True(t, errors.Is(err, httperr.ErrNotFound))
}

func TestPaymentRepoListsByOrderAndUser(t *testing.T) {
	db := openTestDB(t)
	repo := repositories.NewGORMPaymentRepository(db)

	for _, p := range []*models.Payment{
		{OrderID: 1, UserID: 1, Amount: 100, Status: models.PaymentCompleted},
		{OrderID: 1, UserID: 2, Amount: 200, Status: models.PaymentCompleted},
		{OrderID: 2, UserID: 1, Amount: 300, Status: models.PaymentCompleted},
	} {
		require.NoError(t, repo.Create(p, nil))
	}

	mine, err := repo.ListByUser(1)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	byOrder, err := repo.ListByOrder(1, 1)
	require.NoError(t, err)
	require.Len(t, byOrder, 1)
	assert.Equal(t, money.Cents(100), byOrder[0].Amount)
}

func TestOutboxRepoLifecycle(t *testing.T) {
	db := openTestDB(t)
	repo := repositories.NewGORMOutboxRepository(db)

	due, err := models.NewEventMessage("order.created", map[string]interface{}{"order_id": 1})
	require.NoError(t, err)
	future, err := models.NewEventMessage("order.updated", map[string]interface{}{"order_id": 2})
	require.NoError(t, err)
	future.NextAttemptAt = time.Now().Add(time.Hour)
	require.NoError(t, db.Create(due).Error)
	require.NoError(t, db.Create(future).Error)

	rows, err := repo.Due(time.Now(), 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "order.created", rows[0].RoutingKey)

	require.NoError(t, repo.MarkDelivered(rows[0].ID, time.Now()))
	rows, err = repo.Due(time.Now(), 10)
	require.NoError(t, err)
	assert.Empty(t, rows)

	// Rescheduling pushes the retry into the future.
	require.NoError(t, repo.Reschedule(future.ID, 1, time.Now().Add(-time.Second)))
	rows, err = repo.Due(time.Now(), 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 1, rows[0].Attempts)

	require.NoError(t, repo.MarkFailed(future.ID, 2))
	rows, err = repo.Due(time.Now(), 10)
	require.NoError(t, err)
	assert.Empty(t, rows)
}
