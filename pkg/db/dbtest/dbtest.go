// Package dbtest opens throwaway SQLite databases carrying the application schema.
package dbtest

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/rentwise/rentwise-backend/pkg/db"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// schema mirrors pkg/migrate/migrations in SQLite syntax.
var schema = []string{
	`CREATE TABLE users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT,
		first_name TEXT NOT NULL DEFAULT '',
		last_name TEXT NOT NULL DEFAULT '',
		phone TEXT,
		role TEXT NOT NULL DEFAULT 'customer',
		is_active BOOLEAN NOT NULL DEFAULT 1,
		email_verified BOOLEAN NOT NULL DEFAULT 0,
		last_login_at DATETIME,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE oauth_providers (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		provider TEXT NOT NULL,
		provider_user_id TEXT NOT NULL,
		email TEXT,
		created_at DATETIME,
		updated_at DATETIME,
		UNIQUE (provider, provider_user_id)
	)`,
	`CREATE TABLE product_categories (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		slug TEXT NOT NULL UNIQUE,
		description TEXT,
		sort_order INTEGER NOT NULL DEFAULT 0,
		is_active BOOLEAN NOT NULL DEFAULT 1,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE product_templates (
		id TEXT PRIMARY KEY,
		category_id TEXT NOT NULL REFERENCES product_categories(id) ON DELETE RESTRICT,
		name TEXT NOT NULL,
		slug TEXT NOT NULL UNIQUE,
		description TEXT,
		base_price_cents INTEGER NOT NULL,
		rental_period_days INTEGER NOT NULL DEFAULT 1 CHECK (rental_period_days >= 1),
		deposit_cents INTEGER NOT NULL DEFAULT 0,
		replacement_cost_cents INTEGER NOT NULL DEFAULT 0,
		is_active BOOLEAN NOT NULL DEFAULT 1,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE product_colors (
		id TEXT PRIMARY KEY,
		product_template_id TEXT NOT NULL REFERENCES product_templates(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		hex_code TEXT,
		is_active BOOLEAN NOT NULL DEFAULT 1,
		created_at DATETIME,
		updated_at DATETIME,
		UNIQUE (product_template_id, name)
	)`,
	`CREATE TABLE accessories (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		slug TEXT NOT NULL UNIQUE,
		description TEXT,
		price_cents INTEGER NOT NULL DEFAULT 0,
		is_active BOOLEAN NOT NULL DEFAULT 1,
		track_inventory BOOLEAN NOT NULL DEFAULT 0,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE accessory_colors (
		id TEXT PRIMARY KEY,
		accessory_id TEXT NOT NULL REFERENCES accessories(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		hex_code TEXT,
		created_at DATETIME,
		updated_at DATETIME,
		UNIQUE (accessory_id, name)
	)`,
	`CREATE TABLE product_accessory_links (
		id TEXT PRIMARY KEY,
		product_template_id TEXT NOT NULL REFERENCES product_templates(id) ON DELETE CASCADE,
		accessory_id TEXT NOT NULL REFERENCES accessories(id) ON DELETE CASCADE,
		is_required BOOLEAN NOT NULL DEFAULT 0,
		is_default BOOLEAN NOT NULL DEFAULT 0,
		sort_order INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME,
		updated_at DATETIME,
		UNIQUE (product_template_id, accessory_id)
	)`,
	`CREATE TABLE inventory_items (
		id TEXT PRIMARY KEY,
		product_template_id TEXT REFERENCES product_templates(id) ON DELETE RESTRICT,
		accessory_id TEXT REFERENCES accessories(id) ON DELETE RESTRICT,
		color_id TEXT REFERENCES product_colors(id) ON DELETE SET NULL,
		serial_number TEXT NOT NULL UNIQUE,
		status TEXT NOT NULL DEFAULT 'available',
		condition TEXT NOT NULL DEFAULT 'good',
		location TEXT,
		notes TEXT,
		purchase_date DATE,
		purchase_price_cents INTEGER,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE rentals (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE RESTRICT,
		inventory_item_id TEXT REFERENCES inventory_items(id) ON DELETE RESTRICT,
		product_template_id TEXT NOT NULL REFERENCES product_templates(id) ON DELETE RESTRICT,
		color_id TEXT,
		start_date DATE NOT NULL,
		end_date DATE NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		rental_days INTEGER NOT NULL DEFAULT 1,
		base_price_cents INTEGER NOT NULL DEFAULT 0,
		accessories_cents INTEGER NOT NULL DEFAULT 0,
		subtotal_cents INTEGER NOT NULL DEFAULT 0,
		discount_cents INTEGER NOT NULL DEFAULT 0,
		fee_cents INTEGER NOT NULL DEFAULT 0,
		deposit_cents INTEGER NOT NULL DEFAULT 0,
		total_cents INTEGER NOT NULL DEFAULT 0,
		applied_modifiers TEXT,
		notes TEXT,
		cancelled_at DATETIME,
		cancel_reason TEXT,
		picked_up_at DATETIME,
		returned_at DATETIME,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE rental_accessories (
		id TEXT PRIMARY KEY,
		rental_id TEXT NOT NULL REFERENCES rentals(id) ON DELETE CASCADE,
		accessory_id TEXT NOT NULL REFERENCES accessories(id) ON DELETE RESTRICT,
		accessory_color_id TEXT,
		quantity INTEGER NOT NULL DEFAULT 1 CHECK (quantity >= 1),
		unit_price_cents INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE pricing_modifiers (
		id TEXT PRIMARY KEY,
		code TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		kind TEXT NOT NULL,
		percentage NUMERIC NOT NULL,
		applies_to TEXT NOT NULL DEFAULT 'subtotal',
		is_automatic BOOLEAN NOT NULL DEFAULT 0,
		is_active BOOLEAN NOT NULL DEFAULT 1,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE kb_categories (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		slug TEXT NOT NULL UNIQUE,
		description TEXT,
		sort_order INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE kb_articles (
		id TEXT PRIMARY KEY,
		category_id TEXT REFERENCES kb_categories(id) ON DELETE SET NULL,
		author_id TEXT NOT NULL REFERENCES users(id) ON DELETE RESTRICT,
		title TEXT NOT NULL,
		slug TEXT NOT NULL UNIQUE,
		summary TEXT,
		body TEXT NOT NULL DEFAULT '',
		tags TEXT NOT NULL DEFAULT '{}',
		status TEXT NOT NULL DEFAULT 'draft',
		published_at DATETIME,
		view_count INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME,
		updated_at DATETIME
	)`,
}

// Open returns a fresh in-memory database with the schema applied and foreign keys enforced.
func Open(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	// a single connection keeps the in-memory database alive and serializes transactions
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	for _, stmt := range schema {
		if err := conn.Exec(stmt).Error; err != nil {
			t.Fatalf("apply schema: %v", err)
		}
	}
	return conn
}

// Client wraps Open in a db.Client.
func Client(t *testing.T) *db.Client {
	t.Helper()
	return db.NewFromConn(Open(t))
}
