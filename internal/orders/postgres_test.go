package orders

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/migrate"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// TestConcurrentOrdersPostgres hammers a single size from many goroutines
// against a real database. Runs only when STOREFRONT_DB_DSN is set.
func TestConcurrentOrdersPostgres(t *testing.T) {
	dsn := os.Getenv(config.EnvDBDSN)
	if dsn == "" {
		t.Skip("STOREFRONT_DB_DSN not set")
	}

	ctx := context.Background()
	client, err := db.New(ctx, config.DBConfig{DSN: dsn, MaxOpenConns: 20}, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	sqlDB, err := client.SQL()
	require.NoError(t, err)
	require.NoError(t, migrate.Run(ctx, sqlDB, "up"))

	role := models.Role{Name: "buyer", DisplayName: "Buyer"}
	require.NoError(t, client.DB().Where("name = ?", role.Name).FirstOrCreate(&role).Error)
	users := make([]models.User, 2)
	for i := range users {
		suffix := uuid.NewString()
		users[i] = models.User{
			FirstName:    "Load",
			LastName:     "Tester",
			Email:        "load+" + suffix + "@example.com",
			PasswordHash: "x",
			PhoneNumber:  "+1" + suffix[:12],
			RoleID:       role.ID,
		}
		require.NoError(t, client.DB().Create(&users[i]).Error)
	}

	f := newFixtureWithDB(t, client.DB(), false, users[0].ID, users[1].ID)
	size := f.addSize(t, "M", 10, 25, 0)
	t.Cleanup(func() {
		client.DB().Exec("DELETE FROM order_items WHERE product_id = ?", f.product.ID)
		client.DB().Exec("DELETE FROM orders WHERE user_id = ?", f.buyer)
		client.DB().Exec("DELETE FROM products WHERE id = ?", f.product.ID)
		client.DB().Exec("DELETE FROM users WHERE id IN ?", []uuid.UUID{users[0].ID, users[1].ID})
	})

	const buyers = 25
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.svc.Create(ctx, f.order("M", 1)); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 10, successes)
	after := f.size(t, size.ID)
	require.Equal(t, 0, after.Quantity)
	require.False(t, after.Available)
}
