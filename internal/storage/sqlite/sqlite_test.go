package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/mmynk/lunchtab/internal/models"
	"github.com/mmynk/lunchtab/internal/storage"
)

func newTestStore(t *testing.T, opts ...Option) *SQLiteStore {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "test.db"), opts...)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStore_Menu(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("GetMenu before any save returns empty menu", func(t *testing.T) {
		menu, err := store.GetMenu(ctx)
		if err != nil {
			t.Fatalf("GetMenu failed: %v", err)
		}
		if len(menu.Items) != 0 || menu.Restaurant.Name != "" {
			t.Errorf("Expected empty menu, got %+v", menu)
		}
	})

	t.Run("SaveMenu round-trips and keeps item order", func(t *testing.T) {
		original := &models.Menu{
			Restaurant:    models.Restaurant{Name: "Noodle House", Phone: "555-0100", Address: "1 Main St"},
			Items:         []models.Item{{ID: "3", Name: "Soup", Price: 80}, {ID: "1", Name: "Fried Rice", Price: 100}},
			ImageURL:      "data:image/jpeg;base64,AAAA",
			OrderDeadline: "11:30",
		}
		if err := store.SaveMenu(ctx, original); err != nil {
			t.Fatalf("SaveMenu failed: %v", err)
		}
		if original.UpdatedAt.IsZero() {
			t.Error("Expected UpdatedAt to be set")
		}

		got, err := store.GetMenu(ctx)
		if err != nil {
			t.Fatalf("GetMenu failed: %v", err)
		}
		if got.Restaurant != original.Restaurant {
			t.Errorf("Restaurant mismatch: got %+v, want %+v", got.Restaurant, original.Restaurant)
		}
		if got.OrderDeadline != "11:30" || got.ImageURL != original.ImageURL {
			t.Errorf("Menu fields mismatch: got %+v", got)
		}
		if len(got.Items) != 2 || got.Items[0].ID != "3" || got.Items[1].Name != "Fried Rice" {
			t.Errorf("Items mismatch: got %+v", got.Items)
		}
	})

	t.Run("SaveMenu replaces items wholesale", func(t *testing.T) {
		if err := store.SaveMenu(ctx, &models.Menu{Items: []models.Item{{ID: "9", Name: "Tea", Price: 30}}}); err != nil {
			t.Fatalf("SaveMenu failed: %v", err)
		}
		got, _ := store.GetMenu(ctx)
		if len(got.Items) != 1 || got.Items[0].ID != "9" {
			t.Errorf("Expected only the new item, got %+v", got.Items)
		}
		if got.OrderDeadline != "" {
			t.Errorf("Expected deadline cleared by wholesale save, got %q", got.OrderDeadline)
		}
	})
}

func TestSQLiteStore_Users(t *testing.T) {
	current := time.Date(2026, 10, 17, 9, 0, 0, 0, time.Local)
	store := newTestStore(t, WithClock(func() time.Time { return current }))
	ctx := context.Background()

	t.Run("EnsureUser creates with zero balance", func(t *testing.T) {
		user, err := store.EnsureUser(ctx, "Alice", "alice")
		if err != nil {
			t.Fatalf("EnsureUser failed: %v", err)
		}
		if user.Balance != 0 || user.Name != "Alice" {
			t.Errorf("Unexpected user: %+v", user)
		}
	})

	t.Run("EnsureUser resolves existing key to stored name", func(t *testing.T) {
		current = current.Add(time.Minute)
		user, err := store.EnsureUser(ctx, "ALICE", "alice")
		if err != nil {
			t.Fatalf("EnsureUser failed: %v", err)
		}
		if user.Name != "Alice" {
			t.Errorf("Expected stored name Alice, got %q", user.Name)
		}
		if !user.LastActive.Equal(current) {
			t.Errorf("Expected LastActive refreshed to %v, got %v", current, user.LastActive)
		}
	})

	t.Run("ListUsers orders by last activity", func(t *testing.T) {
		current = current.Add(time.Minute)
		if _, err := store.EnsureUser(ctx, "Bob", "bob"); err != nil {
			t.Fatalf("EnsureUser failed: %v", err)
		}
		users, err := store.ListUsers(ctx)
		if err != nil {
			t.Fatalf("ListUsers failed: %v", err)
		}
		if len(users) != 2 || users[0].Name != "Bob" || users[1].Name != "Alice" {
			t.Errorf("Unexpected order: %v, %v", users[0].Name, users[1].Name)
		}
	})

	t.Run("IncrementBalance is additive and may go negative", func(t *testing.T) {
		if _, err := store.IncrementBalance(ctx, "Alice", 300); err != nil {
			t.Fatalf("IncrementBalance failed: %v", err)
		}
		balance, err := store.IncrementBalance(ctx, "Alice", -500)
		if err != nil {
			t.Fatalf("IncrementBalance failed: %v", err)
		}
		if balance != -200 {
			t.Errorf("Expected -200, got %d", balance)
		}
	})

	t.Run("IncrementBalance on unknown user", func(t *testing.T) {
		_, err := store.IncrementBalance(ctx, "Nobody", 1)
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("GetUser on unknown user", func(t *testing.T) {
		_, err := store.GetUser(ctx, "Nobody")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})
}

func TestSQLiteStore_ConcurrentIncrements(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	if _, err := store.EnsureUser(ctx, "Carol", "carol"); err != nil {
		t.Fatalf("EnsureUser failed: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.IncrementBalance(ctx, "Carol", 10); err != nil {
				t.Errorf("IncrementBalance failed: %v", err)
			}
		}()
	}
	wg.Wait()

	user, err := store.GetUser(ctx, "Carol")
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if user.Balance != 200 {
		t.Errorf("Expected 200 after 20 concurrent increments, got %d", user.Balance)
	}
}

func TestSQLiteStore_Orders(t *testing.T) {
	base := time.Date(2026, 10, 17, 12, 0, 0, 0, time.Local)
	current := base
	store := newTestStore(t, WithClock(func() time.Time { return current }))
	ctx := context.Background()

	first := &models.Order{UserName: "Alice", ItemID: "1", ItemName: "Fried Rice", UnitPrice: 100, Quantity: 3, Price: 300}
	if err := store.CreateOrder(ctx, first); err != nil {
		t.Fatalf("CreateOrder failed: %v", err)
	}
	if first.ID == "" || !first.CreatedAt.Equal(base) {
		t.Errorf("Expected generated ID and server timestamp, got %+v", first)
	}

	current = base.Add(time.Second)
	second := &models.Order{ID: "fixed-id", UserName: "Bob", ItemID: "2", ItemName: "Soup", UnitPrice: 80, Quantity: 1, Price: 80, Note: "extra hot"}
	if err := store.CreateOrder(ctx, second); err != nil {
		t.Fatalf("CreateOrder failed: %v", err)
	}

	t.Run("ListOrders newest first", func(t *testing.T) {
		orders, err := store.ListOrders(ctx)
		if err != nil {
			t.Fatalf("ListOrders failed: %v", err)
		}
		if len(orders) != 2 || orders[0].ID != "fixed-id" || orders[1].ID != first.ID {
			t.Errorf("Unexpected order list: %+v", orders)
		}
	})

	t.Run("GetOrder keeps all fields", func(t *testing.T) {
		got, err := store.GetOrder(ctx, "fixed-id")
		if err != nil {
			t.Fatalf("GetOrder failed: %v", err)
		}
		if got.Note != "extra hot" || got.Price != 80 || !got.CreatedAt.Equal(current) {
			t.Errorf("Unexpected order: %+v", got)
		}
	})

	t.Run("CreateOrder keeps an explicit timestamp", func(t *testing.T) {
		restored := *first
		restored.ID = "restored"
		if err := store.CreateOrder(ctx, &restored); err != nil {
			t.Fatalf("CreateOrder failed: %v", err)
		}
		got, _ := store.GetOrder(ctx, "restored")
		if !got.CreatedAt.Equal(base) {
			t.Errorf("Expected original timestamp %v, got %v", base, got.CreatedAt)
		}
	})

	t.Run("DeleteOrder twice reports not found", func(t *testing.T) {
		if err := store.DeleteOrder(ctx, "fixed-id"); err != nil {
			t.Fatalf("DeleteOrder failed: %v", err)
		}
		if err := store.DeleteOrder(ctx, "fixed-id"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})
}

func TestSQLiteStore_Settlements(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	s := &models.Settlement{UserName: "Alice", Amount: 250, CreatedBy: "Admin"}
	if err := store.CreateSettlement(ctx, s); err != nil {
		t.Fatalf("CreateSettlement failed: %v", err)
	}
	if s.ID == "" {
		t.Error("Expected settlement ID to be generated")
	}

	list, err := store.ListSettlements(ctx)
	if err != nil {
		t.Fatalf("ListSettlements failed: %v", err)
	}
	if len(list) != 1 || list[0].Amount != 250 || list[0].CreatedBy != "Admin" {
		t.Errorf("Unexpected settlements: %+v", list)
	}
}

func TestSQLiteStore_Subscribe(t *testing.T) {
	store := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes, err := store.Subscribe(ctx, storage.StreamOrders)
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	order := &models.Order{ID: "o-1", UserName: "Alice", ItemID: "1", ItemName: "Tea", UnitPrice: 30, Quantity: 1, Price: 30}
	if err := store.CreateOrder(ctx, order); err != nil {
		t.Fatalf("CreateOrder failed: %v", err)
	}

	select {
	case c := <-changes:
		if c.Stream != storage.StreamOrders || c.Key != "o-1" {
			t.Errorf("Unexpected change: %+v", c)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for change notification")
	}
}
