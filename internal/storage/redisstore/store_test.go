package redisstore

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/lunchtab/internal/models"
	"github.com/mmynk/lunchtab/internal/storage"
)

func newTestStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := New(rdb, "test")
	t.Cleanup(func() { store.Close() })
	return store, mr
}

func TestRedisStore_Menu(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	empty, err := store.GetMenu(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty.Items)

	menu := &models.Menu{
		Restaurant:    models.Restaurant{Name: "Noodle House"},
		Items:         []models.Item{{ID: "1", Name: "Fried Rice", Price: 100}, {ID: "2", Name: "Soup", Price: 80}},
		OrderDeadline: "13:00",
	}
	require.NoError(t, store.SaveMenu(ctx, menu))
	assert.False(t, menu.UpdatedAt.IsZero())

	got, err := store.GetMenu(ctx)
	require.NoError(t, err)
	assert.Equal(t, menu.Restaurant, got.Restaurant)
	assert.Equal(t, menu.Items, got.Items)
	assert.Equal(t, "13:00", got.OrderDeadline)
}

func TestRedisStore_Users(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	alice, err := store.EnsureUser(ctx, "Alice", "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(0), alice.Balance)

	_, err = store.IncrementBalance(ctx, "Alice", 250)
	require.NoError(t, err)

	again, err := store.EnsureUser(ctx, "ALICE", "alice")
	require.NoError(t, err)
	assert.Equal(t, "Alice", again.Name, "existing key resolves to stored name")
	assert.Equal(t, int64(250), again.Balance, "login must not reset the balance")

	_, err = store.IncrementBalance(ctx, "Nobody", 1)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = store.EnsureUser(ctx, "Bob", "bob")
	require.NoError(t, err)
	users, err := store.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
}

func TestRedisStore_ConcurrentIncrements(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	_, err := store.EnsureUser(ctx, "Carol", "carol")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.IncrementBalance(ctx, "Carol", 4)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	user, err := store.GetUser(ctx, "Carol")
	require.NoError(t, err)
	assert.Equal(t, int64(100), user.Balance)
}

func TestRedisStore_Orders(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2020, 1, 6, 12, 0, 0, 0, time.UTC)

	older := &models.Order{UserName: "Alice", ItemID: "1", ItemName: "Fried Rice", UnitPrice: 100, Quantity: 3, Price: 300, CreatedAt: base}
	newer := &models.Order{UserName: "Bob", ItemID: "2", ItemName: "Soup", UnitPrice: 80, Quantity: 1, Price: 80, CreatedAt: base.Add(time.Minute)}
	require.NoError(t, store.CreateOrder(ctx, older))
	require.NoError(t, store.CreateOrder(ctx, newer))
	assert.NotEmpty(t, older.ID)

	stamped := &models.Order{UserName: "Bob", ItemID: "2", ItemName: "Soup", UnitPrice: 80, Quantity: 1, Price: 80}
	require.NoError(t, store.CreateOrder(ctx, stamped))
	assert.False(t, stamped.CreatedAt.IsZero(), "server assigns the timestamp")

	orders, err := store.ListOrders(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 3)
	assert.Equal(t, newer.ID, orders[1].ID)
	assert.Equal(t, older.ID, orders[2].ID)

	got, err := store.GetOrder(ctx, older.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(300), got.Price)
	assert.True(t, got.CreatedAt.Equal(base))

	require.NoError(t, store.DeleteOrder(ctx, older.ID))
	assert.ErrorIs(t, store.DeleteOrder(ctx, older.ID), storage.ErrNotFound)
	_, err = store.GetOrder(ctx, older.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRedisStore_Settlements(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateSettlement(ctx, &models.Settlement{UserName: "Alice", Amount: 100, CreatedBy: "Admin"}))
	require.NoError(t, store.CreateSettlement(ctx, &models.Settlement{UserName: "Bob", Amount: 50, CreatedBy: "Admin"}))

	list, err := store.ListSettlements(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Bob", list[0].UserName, "newest first")
}

func TestRedisStore_Subscribe(t *testing.T) {
	store, _ := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes, err := store.Subscribe(ctx, storage.StreamUsers)
	require.NoError(t, err)

	require.NoError(t, store.SaveMenu(ctx, &models.Menu{}))
	_, err = store.EnsureUser(ctx, "Dave", "dave")
	require.NoError(t, err)

	select {
	case c := <-changes:
		assert.Equal(t, storage.StreamUsers, c.Stream)
		assert.Equal(t, "Dave", c.Key)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for change")
	}
}

func TestRedisStore_ConnectionFailure(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	store := New(redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1}), "test")
	defer store.Close()
	mr.Close()

	_, err = store.IncrementBalance(context.Background(), "Alice", 10)
	assert.Error(t, err)
}
