package sqlite

import (
	"context"
	"database/sql"
)

// schema sets up the database. It runs on startup to ensure tables exist.
// Timestamps are stored as Unix nanoseconds so orders written in the same
// millisecond still sort deterministically.
const schema = `
CREATE TABLE IF NOT EXISTS menus (
    id TEXT PRIMARY KEY,
    restaurant_name TEXT NOT NULL DEFAULT '',
    restaurant_phone TEXT NOT NULL DEFAULT '',
    restaurant_address TEXT NOT NULL DEFAULT '',
    image_url TEXT NOT NULL DEFAULT '',
    order_deadline TEXT NOT NULL DEFAULT '',
    updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS menu_items (
    menu_id TEXT NOT NULL,
    id TEXT NOT NULL,
    position INTEGER NOT NULL,
    name TEXT NOT NULL,
    price INTEGER NOT NULL,
    PRIMARY KEY (menu_id, id),
    FOREIGN KEY (menu_id) REFERENCES menus(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS users (
    name TEXT PRIMARY KEY,
    name_key TEXT NOT NULL UNIQUE,
    balance INTEGER NOT NULL DEFAULT 0,
    last_active INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS orders (
    id TEXT PRIMARY KEY,
    user_name TEXT NOT NULL,
    item_id TEXT NOT NULL,
    item_name TEXT NOT NULL,
    unit_price INTEGER NOT NULL,
    quantity INTEGER NOT NULL,
    note TEXT NOT NULL DEFAULT '',
    price INTEGER NOT NULL,
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS settlements (
    id TEXT PRIMARY KEY,
    user_name TEXT NOT NULL,
    amount INTEGER NOT NULL,
    created_by TEXT NOT NULL,
    created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_menu_items_menu_id ON menu_items(menu_id, position);
CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders(created_at);
CREATE INDEX IF NOT EXISTS idx_orders_user_name ON orders(user_name);
CREATE INDEX IF NOT EXISTS idx_settlements_user_name ON settlements(user_name);
`

// runMigrations executes the schema setup.
func runMigrations(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schema)
	return err
}
