//go:build integration

package repository_test

// Repository tests against real Postgres via testcontainers. The in-memory
// stubs used by the service suite swap whole aggregates, so association and
// index semantics are exercised here against the actual schema.
// Run with: go test -tags integration ./internal/repository/... -v

import (
	"context"
	"sync"
	"testing"

	"platepos/internal/infra"
	"platepos/internal/model"
	"platepos/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	pgC, err := tcPostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcPostgres.WithDatabase("platepos_test"),
		tcPostgres.WithUsername("platepos"),
		tcPostgres.WithPassword("platepos"),
		testcontainers.WithWaitStrategy(
			tcPostgres.BasicWaitStrategies()...,
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	pgURL, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := infra.NewDatabase(pgURL)
	require.NoError(t, err)
	return db
}

func d(s string) decimal.Decimal {
	v, _ := decimal.NewFromString(s)
	return v
}

func newOrder(restaurantID uuid.UUID, number string, items ...model.OrderItem) *model.Order {
	o := &model.Order{
		RestaurantID:  restaurantID,
		OrderNumber:   number,
		Items:         items,
		Status:        model.StatusPending,
		PaymentStatus: model.PaymentPending,
		CreatedBy:     uuid.New(),
	}
	o.Recalculate(true)
	return o
}

func item(name string, price string, qty int) model.OrderItem {
	return model.OrderItem{
		MenuItemID: uuid.New(),
		Name:       name,
		UnitPrice:  d(price),
		Quantity:   qty,
	}
}

func TestUpdateReplacesItemSet(t *testing.T) {
	db := setupDB(t)
	repo := repository.NewOrderRepository(db)
	ctx := context.Background()

	order := newOrder(uuid.New(), "240501-0001",
		item("Burger", "40.00", 2),
		item("Fries", "20.00", 1),
	)
	require.NoError(t, repo.Create(ctx, order))

	// replace both lines with a single new one
	order.Items = []model.OrderItem{item("Salad", "15.00", 1)}
	order.Recalculate(true)
	require.NoError(t, repo.Update(ctx, order))

	stored, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, stored.Items, 1, "removed line items must not survive the update")
	assert.Equal(t, "Salad", stored.Items[0].Name)
	assert.True(t, stored.Subtotal.Equal(d("15.00")), "subtotal=%s", stored.Subtotal)

	// the stored items still satisfy subtotal = Σ price×quantity
	sum := decimal.Zero
	for _, it := range stored.Items {
		sum = sum.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	assert.True(t, stored.Subtotal.Equal(sum))
}

func TestUpdateCanClearItems(t *testing.T) {
	db := setupDB(t)
	repo := repository.NewOrderRepository(db)
	ctx := context.Background()

	order := newOrder(uuid.New(), "240501-0001", item("Burger", "40.00", 1))
	require.NoError(t, repo.Create(ctx, order))

	order.Items = nil
	order.Recalculate(true)
	require.NoError(t, repo.Update(ctx, order))

	stored, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Items)
	assert.True(t, stored.Subtotal.IsZero())
}

func TestOrderNumberUniquePerTenantOnly(t *testing.T) {
	db := setupDB(t)
	repo := repository.NewOrderRepository(db)
	ctx := context.Background()
	tenantA := uuid.New()
	tenantB := uuid.New()

	require.NoError(t, repo.Create(ctx, newOrder(tenantA, "240501-0001", item("Burger", "40.00", 1))))

	// same number in another tenant is valid
	require.NoError(t, repo.Create(ctx, newOrder(tenantB, "240501-0001", item("Fries", "20.00", 1))))

	// same number in the same tenant hits the composite unique index
	err := repo.Create(ctx, newOrder(tenantA, "240501-0001", item("Salad", "15.00", 1)))
	assert.Error(t, err)
}

func TestNextSeqConcurrentUnique(t *testing.T) {
	db := setupDB(t)
	repo := repository.NewOrderRepository(db)
	tenant := uuid.New()

	const n = 16
	seqs := make(chan int, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			seq, err := repo.NextSeq(context.Background(), tenant, "240501")
			if err != nil {
				seqs <- -1
				return
			}
			seqs <- seq
		}()
	}
	wg.Wait()
	close(seqs)

	seen := make(map[int]bool)
	for s := range seqs {
		require.Greater(t, s, 0)
		assert.False(t, seen[s], "duplicate sequence %d", s)
		seen[s] = true
	}
	assert.Len(t, seen, n)

	// a different day starts over at 1
	seq, err := repo.NextSeq(context.Background(), tenant, "240502")
	require.NoError(t, err)
	assert.Equal(t, 1, seq)
}
