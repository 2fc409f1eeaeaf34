package repos_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"farmfresh/internal/domain"
	"farmfresh/internal/repos"
)

func newTomatoOrder(id string, qty int) *domain.Order {
	return &domain.Order{
		ID: id, CustomerID: "u-carla", FarmerID: "u-asha", ProductID: "p-tomato",
		Quantity: qty, TotalPrice: float64(qty) * 40, Status: domain.StatusPending,
		PickupDate: time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC), PaymentMethod: domain.PaymentCash,
	}
}

func TestOrderRepo_CreateWithStockIsAtomic(t *testing.T) {
	db := seededDB(t)
	orders := repos.NewOrderRepo(db)
	inv := repos.NewInventoryRepo(db)
	ctx := context.Background()
	now := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)

	require.NoError(t, orders.CreateWithStock(ctx, newTomatoOrder("o-1", 20), now))
	qty, err := inv.Qty(ctx, "p-tomato")
	require.NoError(t, err)
	assert.Equal(t, 5, qty)

	err = orders.CreateWithStock(ctx, newTomatoOrder("o-2", 6), now)
	assert.True(t, errors.Is(err, repos.ErrInsufficientStock))
	_, err = orders.Get(ctx, "o-2")
	assert.Error(t, err, "order row must be rolled back")

	o, err := orders.Get(ctx, "o-1")
	require.NoError(t, err)
	assert.Equal(t, "Heirloom Tomatoes", o.Product.Name)
	assert.Equal(t, "Carla", o.Customer.Name)
	assert.Equal(t, "Green Valley Farm", o.Farmer.FarmName)
	assert.True(t, o.CreatedAt.Equal(now))
}

func TestOrderRepo_CancelGuardAndRestock(t *testing.T) {
	db := seededDB(t)
	orders := repos.NewOrderRepo(db)
	inv := repos.NewInventoryRepo(db)
	ctx := context.Background()
	now := time.Now()

	o := newTomatoOrder("o-1", 4)
	require.NoError(t, orders.CreateWithStock(ctx, o, now))
	require.NoError(t, orders.CancelWithRestock(ctx, *o, "gone", now))
	qty, _ := inv.Qty(ctx, "p-tomato")
	assert.Equal(t, 25, qty)

	err := orders.CancelWithRestock(ctx, *o, "again", now)
	assert.True(t, errors.Is(err, repos.ErrStaleOrder))
	qty, _ = inv.Qty(ctx, "p-tomato")
	assert.Equal(t, 25, qty, "a stale cancel must not restock")

	assert.True(t, errors.Is(orders.MarkPaid(ctx, "o-1", domain.PaymentUPI, now), repos.ErrStaleOrder))
	require.NoError(t, orders.Delete(ctx, "o-1"))
	assert.True(t, errors.Is(orders.Delete(ctx, "o-1"), repos.ErrStaleOrder))
}

func TestOrderRepo_StatusUpdateIsGuarded(t *testing.T) {
	db := seededDB(t)
	orders := repos.NewOrderRepo(db)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, orders.CreateWithStock(ctx, newTomatoOrder("o-1", 1), now))
	require.NoError(t, orders.UpdateStatus(ctx, "o-1", domain.StatusPending, domain.StatusConfirmed, now))
	err := orders.UpdateStatus(ctx, "o-1", domain.StatusPending, domain.StatusReady, now)
	assert.True(t, errors.Is(err, repos.ErrStaleOrder))

	assert.True(t, errors.Is(orders.Delete(ctx, "o-1"), repos.ErrStaleOrder), "only cancelled orders can be deleted")
}
