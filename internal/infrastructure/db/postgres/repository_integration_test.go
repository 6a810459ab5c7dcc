//go:build integration

package postgres

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"

	"github.com/pureline/storefront-api/internal/core/domain"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:17-alpine",
		tcpostgres.WithDatabase("storefront"),
		tcpostgres.WithUsername("storefront"),
		tcpostgres.WithPassword("storefront"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate postgres container: %v", err)
		}
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	require.NoError(t, runMigrations(connStr))

	db, sqlDB, err := Connect(ctx, Config{URL: connStr}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func runMigrations(connStr string) error {
	_, filename, _, _ := runtime.Caller(0)
	root := filepath.Join(filepath.Dir(filename), "..", "..", "..", "..")

	m, err := migrate.New("file://"+filepath.Join(root, "migrations"), connStr)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer func() { _, _ = m.Close() }()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func seedUser(t *testing.T, db *gorm.DB, email string) *domain.User {
	t.Helper()
	now := time.Now().UTC()
	user := &domain.User{ID: uuid.NewString(), Email: email, Name: "Test", Password: "x", Role: domain.RoleUser, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, NewUserRepository(db).CreateWithCart(context.Background(), user))
	return user
}

func seedProduct(t *testing.T, db *gorm.DB, price string) *domain.Product {
	t.Helper()
	now := time.Now().UTC()
	p := &domain.Product{ID: uuid.NewString(), Name: "Widget", Description: "A widget", Price: decimal.RequireFromString(price), CreatedAt: now, UpdatedAt: now}
	require.NoError(t, NewProductRepository(db).Create(context.Background(), p))
	return p
}

func newOrder(userID, paymentID string, items ...domain.OrderItem) *domain.Order {
	id := uuid.NewString()
	total := decimal.Zero
	for i := range items {
		items[i].ID = uuid.NewString()
		items[i].OrderID = id
		total = total.Add(items[i].LineTotal())
	}
	now := time.Now().UTC()
	return &domain.Order{
		ID: id, UserID: userID, TotalAmount: total, ShippingAddress: "221B Baker Street",
		Status: domain.OrderStatusPaid, PaymentID: paymentID, Items: items, CreatedAt: now, UpdatedAt: now,
	}
}

func TestRepositories(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	t.Run("signup creates cart and rejects duplicate email", func(t *testing.T) {
		user := seedUser(t, db, "alice@example.com")

		cart, err := NewCartRepository(db).FindByUserID(ctx, user.ID)
		require.NoError(t, err)
		assert.Empty(t, cart.Items)

		dup := &domain.User{ID: uuid.NewString(), Email: "alice@example.com", Password: "x", Role: domain.RoleUser}
		err = NewUserRepository(db).CreateWithCart(ctx, dup)
		assert.ErrorIs(t, err, domain.ErrUserExists)
	})

	t.Run("cart item ownership", func(t *testing.T) {
		owner := seedUser(t, db, "owner@example.com")
		other := seedUser(t, db, "other@example.com")
		product := seedProduct(t, db, "10.00")
		carts := NewCartRepository(db)

		cart, err := carts.FindByUserID(ctx, owner.ID)
		require.NoError(t, err)
		item, err := carts.CreateItem(ctx, &domain.CartItem{ID: uuid.NewString(), CartID: cart.ID, ProductID: product.ID, Quantity: 1})
		require.NoError(t, err)
		require.NotNil(t, item.Product)

		item, err = carts.IncrementItem(ctx, item.ID, 2)
		require.NoError(t, err)
		assert.Equal(t, 3, item.Quantity)

		assert.ErrorIs(t, carts.UpdateItemQuantity(ctx, other.ID, item.ID, 5), domain.ErrCartItemNotFound)
		assert.ErrorIs(t, carts.DeleteItem(ctx, other.ID, item.ID), domain.ErrCartItemNotFound)
		require.NoError(t, carts.UpdateItemQuantity(ctx, owner.ID, item.ID, 5))
		require.NoError(t, carts.DeleteItem(ctx, owner.ID, item.ID))
		assert.ErrorIs(t, carts.DeleteItem(ctx, owner.ID, "not-a-uuid"), domain.ErrCartItemNotFound)
	})

	t.Run("order header and items are written together", func(t *testing.T) {
		user := seedUser(t, db, "buyer@example.com")
		p1 := seedProduct(t, db, "100.00")
		p2 := seedProduct(t, db, "50.00")
		orders := NewOrderRepository(db)

		order := newOrder(user.ID, "pay_ok",
			domain.OrderItem{ProductID: p1.ID, Quantity: 2, Price: p1.Price},
			domain.OrderItem{ProductID: p2.ID, Quantity: 3, Price: p2.Price},
		)
		require.NoError(t, orders.CreateWithItems(ctx, order))

		got, err := orders.FindByID(ctx, order.ID)
		require.NoError(t, err)
		assert.True(t, got.TotalAmount.Equal(decimal.RequireFromString("350")))
		assert.Len(t, got.Items, 2)
		require.NotNil(t, got.User)
		assert.Equal(t, "buyer@example.com", got.User.Email)

		list, err := orders.List(ctx, user.ID)
		require.NoError(t, err)
		assert.Len(t, list, 1)
	})

	t.Run("failed item insert leaves no header", func(t *testing.T) {
		user := seedUser(t, db, "rollback@example.com")
		p := seedProduct(t, db, "5.00")
		orders := NewOrderRepository(db)

		order := newOrder(user.ID, "pay_rollback",
			domain.OrderItem{ProductID: p.ID, Quantity: 1, Price: p.Price},
			domain.OrderItem{ProductID: uuid.NewString(), Quantity: 1, Price: p.Price},
		)
		require.Error(t, orders.CreateWithItems(ctx, order))

		_, err := orders.FindByID(ctx, order.ID)
		assert.ErrorIs(t, err, domain.ErrOrderNotFound)

		var items int64
		require.NoError(t, db.Model(&domain.OrderItem{}).Where("order_id = ?", order.ID).Count(&items).Error)
		assert.Zero(t, items)
	})

	t.Run("concurrent replays of one payment create a single order", func(t *testing.T) {
		user := seedUser(t, db, "racer@example.com")
		p := seedProduct(t, db, "20.00")
		orders := NewOrderRepository(db)

		const attempts = 8
		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			created int
			dupes   int
		)
		for i := 0; i < attempts; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := orders.CreateWithItems(ctx, newOrder(user.ID, "pay_race",
					domain.OrderItem{ProductID: p.ID, Quantity: 1, Price: p.Price}))
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					created++
				case errors.Is(err, domain.ErrPaymentAlreadyProcessed):
					dupes++
				default:
					t.Errorf("unexpected error: %v", err)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, created)
		assert.Equal(t, attempts-1, dupes)
	})

	t.Run("concurrent checkouts for one user keep their own items", func(t *testing.T) {
		user := seedUser(t, db, "busy@example.com")
		a := seedProduct(t, db, "12.50")
		b := seedProduct(t, db, "3.00")
		orders := NewOrderRepository(db)

		const workers = 8
		want := make(map[string][]domain.OrderItem, workers)
		pending := make([]*domain.Order, workers)
		for i := 0; i < workers; i++ {
			lines := []domain.OrderItem{{ProductID: a.ID, Quantity: i + 1, Price: a.Price}}
			if i%2 == 1 {
				lines = append(lines, domain.OrderItem{ProductID: b.ID, Quantity: 10 + i, Price: b.Price})
			}
			pending[i] = newOrder(user.ID, fmt.Sprintf("pay_%d", i), lines...)
			want[pending[i].PaymentID] = pending[i].Items
		}

		var wg sync.WaitGroup
		for _, order := range pending {
			wg.Add(1)
			go func() {
				defer wg.Done()
				assert.NoError(t, orders.CreateWithItems(ctx, order))
			}()
		}
		wg.Wait()

		list, err := orders.List(ctx, user.ID)
		require.NoError(t, err)
		require.Len(t, list, workers)

		for _, got := range list {
			lines, ok := want[got.PaymentID]
			require.True(t, ok, "unexpected payment %s", got.PaymentID)
			require.Len(t, got.Items, len(lines), "payment %s", got.PaymentID)

			quantities := make(map[string]int, len(got.Items))
			sum := decimal.Zero
			for _, item := range got.Items {
				assert.Equal(t, got.ID, item.OrderID)
				quantities[item.ProductID] = item.Quantity
				sum = sum.Add(item.LineTotal())
			}
			for _, line := range lines {
				assert.Equal(t, line.Quantity, quantities[line.ProductID], "payment %s", got.PaymentID)
			}
			assert.True(t, got.TotalAmount.Equal(sum), "payment %s total %s, lines sum %s", got.PaymentID, got.TotalAmount, sum)
		}
	})

	t.Run("product lookups", func(t *testing.T) {
		products := NewProductRepository(db)
		p := seedProduct(t, db, "1.50")

		_, err := products.FindByID(ctx, "missing")
		assert.ErrorIs(t, err, domain.ErrProductNotFound)

		found, err := products.FindByIDs(ctx, []string{p.ID, uuid.NewString(), "bogus"})
		require.NoError(t, err)
		assert.Len(t, found, 1)

		name := "Renamed"
		updated, err := products.Update(ctx, p.ID, domain.ProductPatch{Name: &name})
		require.NoError(t, err)
		assert.Equal(t, "Renamed", updated.Name)
		assert.True(t, updated.Price.Equal(decimal.RequireFromString("1.5")))

		require.NoError(t, products.Delete(ctx, p.ID))
		assert.ErrorIs(t, products.Delete(ctx, p.ID), domain.ErrProductNotFound)
	})
}
