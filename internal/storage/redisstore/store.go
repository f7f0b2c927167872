// Package redisstore provides a Redis-backed implementation of the storage.Store
// interface. Balances live in hashes updated with HINCRBY, change
// notifications travel over Redis pub/sub, and timestamps come from the
// server's TIME so every instance agrees on when an order was placed.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/mmynk/lunchtab/internal/models"
	"github.com/mmynk/lunchtab/internal/storage"
)

// Ensure RedisStore implements storage.Store
var _ storage.Store = (*RedisStore)(nil)

const changeBuffer = 64

// RedisStore implements storage.Store on a shared Redis instance.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
}

// New wraps a connected client. prefix namespaces every key ("lunchtab").
func New(rdb *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "lunchtab"
	}
	return &RedisStore{rdb: rdb, prefix: prefix}
}

// Connect dials addr and verifies the connection with PING.
func Connect(ctx context.Context, addr, prefix string) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return New(rdb, prefix), nil
}

// Close closes the client.
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

func (s *RedisStore) menuKey() string           { return s.prefix + ":menu:" + models.TodayMenuID }
func (s *RedisStore) userKey(name string) string { return s.prefix + ":user:" + name }
func (s *RedisStore) userIndexKey() string       { return s.prefix + ":users" }
func (s *RedisStore) userKeysKey() string        { return s.prefix + ":userkeys" }
func (s *RedisStore) orderKey(id string) string  { return s.prefix + ":order:" + id }
func (s *RedisStore) orderIndexKey() string      { return s.prefix + ":orders" }
func (s *RedisStore) settlementsKey() string     { return s.prefix + ":settlements" }
func (s *RedisStore) changesChannel() string     { return s.prefix + ":changes" }

// serverTime asks Redis for the current time.
func (s *RedisStore) serverTime(ctx context.Context) (time.Time, error) {
	now, err := s.rdb.Time(ctx).Result()
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read server time: %w", err)
	}
	return now, nil
}

func (s *RedisStore) publish(ctx context.Context, stream storage.Stream, key string) {
	payload, _ := json.Marshal(storage.Change{Stream: stream, Key: key})
	if err := s.rdb.Publish(ctx, s.changesChannel(), payload).Err(); err != nil {
		slog.Warn("Failed to publish change", "stream", stream, "key", key, "error", err)
	}
}

// GetMenu returns today's menu, or an empty one if none was ever saved.
func (s *RedisStore) GetMenu(ctx context.Context) (*models.Menu, error) {
	raw, err := s.rdb.Get(ctx, s.menuKey()).Bytes()
	if errors.Is(err, redis.Nil) {
		return &models.Menu{Items: []models.Item{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get menu: %w", err)
	}

	menu := &models.Menu{}
	if err := json.Unmarshal(raw, menu); err != nil {
		return nil, fmt.Errorf("failed to decode menu: %w", err)
	}
	if menu.Items == nil {
		menu.Items = []models.Item{}
	}
	return menu, nil
}

// SaveMenu replaces the menu document.
func (s *RedisStore) SaveMenu(ctx context.Context, menu *models.Menu) error {
	now, err := s.serverTime(ctx)
	if err != nil {
		return err
	}

	doc := *menu
	doc.UpdatedAt = now
	payload, err := json.Marshal(&doc)
	if err != nil {
		return fmt.Errorf("failed to encode menu: %w", err)
	}
	if err := s.rdb.Set(ctx, s.menuKey(), payload, 0).Err(); err != nil {
		return fmt.Errorf("failed to save menu: %w", err)
	}

	menu.UpdatedAt = now
	s.publish(ctx, storage.StreamMenu, models.TodayMenuID)
	return nil
}

// EnsureUser claims key for name with HSETNX, so two concurrent first logins
// under the same key end up as one user.
func (s *RedisStore) EnsureUser(ctx context.Context, name, key string) (*models.User, error) {
	now, err := s.serverTime(ctx)
	if err != nil {
		return nil, err
	}

	if _, err := s.rdb.HSetNX(ctx, s.userKeysKey(), key, name).Result(); err != nil {
		return nil, fmt.Errorf("failed to claim user key: %w", err)
	}
	stored, err := s.rdb.HGet(ctx, s.userKeysKey(), key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve user key: %w", err)
	}

	userKey := s.userKey(stored)
	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSetNX(ctx, userKey, "balance", 0)
		pipe.HSet(ctx, userKey, "name", stored, "key", key, "last_active", now.UnixNano())
		pipe.ZAdd(ctx, s.userIndexKey(), redis.Z{Score: float64(now.UnixMilli()), Member: stored})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save user: %w", err)
	}

	s.publish(ctx, storage.StreamUsers, stored)
	return s.GetUser(ctx, stored)
}

func decodeUser(fields map[string]string) (*models.User, error) {
	balance, err := strconv.ParseInt(fields["balance"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("bad balance %q: %w", fields["balance"], err)
	}
	lastActive, _ := strconv.ParseInt(fields["last_active"], 10, 64)
	return &models.User{
		Name:       fields["name"],
		Key:        fields["key"],
		Balance:    balance,
		LastActive: time.Unix(0, lastActive),
	}, nil
}

// GetUser retrieves a user by name.
func (s *RedisStore) GetUser(ctx context.Context, name string) (*models.User, error) {
	fields, err := s.rdb.HGetAll(ctx, s.userKey(name)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("user %q: %w", name, storage.ErrNotFound)
	}
	return decodeUser(fields)
}

// ListUsers returns all users, most recently active first.
func (s *RedisStore) ListUsers(ctx context.Context) ([]*models.User, error) {
	names, err := s.rdb.ZRevRange(ctx, s.userIndexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	cmds := make([]*redis.MapStringStringCmd, len(names))
	_, err = s.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, name := range names {
			cmds[i] = pipe.HGetAll(ctx, s.userKey(name))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}

	users := make([]*models.User, 0, len(names))
	for _, cmd := range cmds {
		fields := cmd.Val()
		if len(fields) == 0 {
			continue
		}
		user, err := decodeUser(fields)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

// IncrementBalance applies delta with HINCRBY.
func (s *RedisStore) IncrementBalance(ctx context.Context, name string, delta int64) (int64, error) {
	userKey := s.userKey(name)
	exists, err := s.rdb.Exists(ctx, userKey).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to check user: %w", err)
	}
	if exists == 0 {
		return 0, fmt.Errorf("user %q: %w", name, storage.ErrNotFound)
	}

	balance, err := s.rdb.HIncrBy(ctx, userKey, "balance", delta).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to increment balance: %w", err)
	}

	s.publish(ctx, storage.StreamUsers, name)
	return balance, nil
}

// CreateOrder stores the order document and indexes it by creation time.
func (s *RedisStore) CreateOrder(ctx context.Context, order *models.Order) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	if order.CreatedAt.IsZero() {
		now, err := s.serverTime(ctx)
		if err != nil {
			return err
		}
		order.CreatedAt = now
	}

	payload, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("failed to encode order: %w", err)
	}

	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.orderKey(order.ID), payload, 0)
		pipe.ZAdd(ctx, s.orderIndexKey(), redis.Z{Score: float64(order.CreatedAt.UnixMicro()), Member: order.ID})
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	s.publish(ctx, storage.StreamOrders, order.ID)
	return nil
}

// GetOrder retrieves an order by ID.
func (s *RedisStore) GetOrder(ctx context.Context, orderID string) (*models.Order, error) {
	raw, err := s.rdb.Get(ctx, s.orderKey(orderID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("order %s: %w", orderID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	order := &models.Order{}
	if err := json.Unmarshal(raw, order); err != nil {
		return nil, fmt.Errorf("failed to decode order: %w", err)
	}
	return order, nil
}

// DeleteOrder removes the order document and its index entry.
func (s *RedisStore) DeleteOrder(ctx context.Context, orderID string) error {
	var del *redis.IntCmd
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, s.orderKey(orderID))
		pipe.ZRem(ctx, s.orderIndexKey(), orderID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}
	if del.Val() == 0 {
		return fmt.Errorf("order %s: %w", orderID, storage.ErrNotFound)
	}

	s.publish(ctx, storage.StreamOrders, orderID)
	return nil
}

// ListOrders returns every order, newest first.
func (s *RedisStore) ListOrders(ctx context.Context) ([]*models.Order, error) {
	ids, err := s.rdb.ZRevRange(ctx, s.orderIndexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.orderKey(id)
	}
	values, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load orders: %w", err)
	}

	orders := make([]*models.Order, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			// deleted between ZREVRANGE and MGET
			continue
		}
		order := &models.Order{}
		if err := json.Unmarshal([]byte(raw), order); err != nil {
			return nil, fmt.Errorf("failed to decode order: %w", err)
		}
		orders = append(orders, order)
	}
	return orders, nil
}

// CreateSettlement prepends the settlement to the settlement log.
func (s *RedisStore) CreateSettlement(ctx context.Context, settlement *models.Settlement) error {
	if settlement.ID == "" {
		settlement.ID = uuid.New().String()
	}
	if settlement.CreatedAt.IsZero() {
		now, err := s.serverTime(ctx)
		if err != nil {
			return err
		}
		settlement.CreatedAt = now
	}

	payload, err := json.Marshal(settlement)
	if err != nil {
		return fmt.Errorf("failed to encode settlement: %w", err)
	}
	if err := s.rdb.LPush(ctx, s.settlementsKey(), payload).Err(); err != nil {
		return fmt.Errorf("failed to insert settlement: %w", err)
	}
	return nil
}

// ListSettlements returns every settlement, newest first.
func (s *RedisStore) ListSettlements(ctx context.Context) ([]*models.Settlement, error) {
	raws, err := s.rdb.LRange(ctx, s.settlementsKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list settlements: %w", err)
	}

	settlements := make([]*models.Settlement, 0, len(raws))
	for _, raw := range raws {
		settlement := &models.Settlement{}
		if err := json.Unmarshal([]byte(raw), settlement); err != nil {
			return nil, fmt.Errorf("failed to decode settlement: %w", err)
		}
		settlements = append(settlements, settlement)
	}
	return settlements, nil
}

// Subscribe listens on the change channel. The subscription is confirmed
// before returning, so writes made after Subscribe returns are observed.
func (s *RedisStore) Subscribe(ctx context.Context, streams ...storage.Stream) (<-chan storage.Change, error) {
	if len(streams) == 0 {
		streams = storage.AllStreams
	}

	pubsub := s.rdb.Subscribe(ctx, s.changesChannel())
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}

	out := make(chan storage.Change, changeBuffer)
	go func() {
		defer close(out)
		defer pubsub.Close()

		msgs := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var change storage.Change
				if err := json.Unmarshal([]byte(msg.Payload), &change); err != nil {
					slog.Warn("Ignoring malformed change", "payload", msg.Payload, "error", err)
					continue
				}
				if !slices.Contains(streams, change.Stream) {
					continue
				}
				select {
				case out <- change:
				default:
				}
			}
		}
	}()

	return out, nil
}
