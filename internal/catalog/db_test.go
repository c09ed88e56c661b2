package catalog

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var schemaStatements = []string{
	`CREATE TABLE products (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		product_code TEXT NOT NULL UNIQUE,
		handle TEXT NOT NULL DEFAULT '',
		title TEXT,
		description TEXT,
		vendor TEXT,
		product_type TEXT,
		tags TEXT,
		category TEXT,
		subcategory TEXT,
		gamme TEXT,
		base_url TEXT,
		status TEXT NOT NULL DEFAULT 'pending',
		error_message TEXT,
		is_new INTEGER NOT NULL DEFAULT 0,
		retry_count INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE product_variants (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		product_id INTEGER NOT NULL,
		code_vl TEXT NOT NULL UNIQUE,
		url TEXT NOT NULL DEFAULT '',
		size_text TEXT,
		status TEXT NOT NULL DEFAULT 'pending',
		error_message TEXT,
		sku TEXT,
		gencode TEXT,
		price_pa TEXT,
		price_pvc TEXT,
		stock INTEGER,
		size TEXT,
		color TEXT,
		material TEXT,
		retry_count INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE product_images (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		product_id INTEGER NOT NULL,
		image_url TEXT NOT NULL,
		image_position INTEGER NOT NULL DEFAULT 1,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE gammes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT,
		url TEXT NOT NULL UNIQUE,
		category TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'pending',
		retry_count INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE gamme_products (
		gamme_id INTEGER NOT NULL,
		product_id INTEGER NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (gamme_id, product_id)
	)`,
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:catalog_%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	for _, stmt := range schemaStatements {
		if err := conn.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	return conn
}

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	return NewRepository(openTestDB(t), 3)
}

func strPtr(s string) *string {
	return &s
}
