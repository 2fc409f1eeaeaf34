package services_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"farmfresh/internal/domain"
	"farmfresh/internal/repos"
	"farmfresh/internal/services"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

var (
	asha  = domain.Principal{ID: "u-asha", Role: domain.RoleFarmer}
	ben   = domain.Principal{ID: "u-ben", Role: domain.RoleFarmer}
	carla = domain.Principal{ID: "u-carla", Role: domain.RoleCustomer}
	dev   = domain.Principal{ID: "u-dev", Role: domain.RoleCustomer}
)

type env struct {
	db      *sqlx.DB
	clock   *fakeClock
	media   *repos.MediaRepo
	auth    *services.AuthService
	catalog *services.CatalogService
	inv     *services.InventoryService
	cart    *services.CartService
	orders  *services.OrderService
}

// newEnv opens a seeded in-memory store. The clock starts at
// 2026-10-16 09:00 UTC.
func newEnv(t *testing.T) *env {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, repos.SeedDemo(db))

	media, err := repos.NewMediaRepo(t.TempDir())
	require.NoError(t, err)

	clock := &fakeClock{t: time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)}
	prods := repos.NewProductRepo(db)
	carts := repos.NewCartRepo(db)
	return &env{
		db:      db,
		clock:   clock,
		media:   media,
		auth:    services.NewAuthService(repos.NewUserRepo(db), "test-secret", 30*24*time.Hour, clock),
		catalog: services.NewCatalogService(prods, media, clock),
		inv:     services.NewInventoryService(repos.NewInventoryRepo(db)),
		cart:    services.NewCartService(carts, clock),
		orders:  services.NewOrderService(repos.NewOrderRepo(db), prods, carts, clock),
	}
}

func (e *env) tomorrow() time.Time {
	return time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC)
}

func requireKind(t *testing.T, err error, kind error) {
	t.Helper()
	require.Error(t, err)
	require.True(t, errors.Is(err, kind), "want %v, got %v", kind, err)
}
