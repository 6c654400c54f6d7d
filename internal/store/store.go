// Package store is the persistence layer: a single sqlite database holding
// cards, receipts, line items, products and families. All monetary values are
// stored as decimal strings and never pass through floats.
//
// Uniqueness of the receipt invoice number is enforced by the schema, not by
// application logic, so overlapping ingestion runs cannot both insert the
// same invoice. Line items cascade on receipt deletion; products and families
// survive it.
package store

import (
	"context"
	"database/sql"
	"fmt"

	"fjacquet/ticket-tracker/internal/logging"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS cards (
	id     INTEGER PRIMARY KEY AUTOINCREMENT,
	last4  TEXT NOT NULL UNIQUE,
	label  TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS families (
	id     INTEGER PRIMARY KEY,
	name   TEXT NOT NULL UNIQUE,
	emoji  TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS products (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	key        TEXT NOT NULL UNIQUE,
	name       TEXT NOT NULL,
	family_id  INTEGER REFERENCES families(id)
);

CREATE TABLE IF NOT EXISTS receipts (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	invoice_number  TEXT NOT NULL UNIQUE,
	date            TEXT NOT NULL,
	store           TEXT NOT NULL DEFAULT '',
	postal_code     TEXT NOT NULL DEFAULT '',
	card_id         INTEGER REFERENCES cards(id),
	total           TEXT NOT NULL,
	source          TEXT NOT NULL,
	needs_review    INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS line_items (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	receipt_id  INTEGER NOT NULL REFERENCES receipts(id) ON DELETE CASCADE,
	product_id  INTEGER REFERENCES products(id),
	description TEXT NOT NULL,
	kind        TEXT NOT NULL,
	quantity    TEXT NOT NULL,
	unit_price  TEXT NOT NULL,
	total       TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_line_items_receipt ON line_items(receipt_id);
CREATE INDEX IF NOT EXISTS idx_line_items_product ON line_items(product_id);
CREATE INDEX IF NOT EXISTS idx_receipts_date ON receipts(date);
`

// seedFamilies is the fixed category set. IDs are stable so keyword rules and
// seasonal handling can reference them; the seed is applied with INSERT OR
// IGNORE and is safe to run on every startup.
var seedFamilies = []struct {
	ID    int64
	Name  string
	Emoji string
}{
	{1, "Frutas y verduras", "🥦"},
	{2, "Carne y charcutería", "🥩"},
	{3, "Pescado y marisco", "🐟"},
	{4, "Lácteos y huevos", "🥛"},
	{5, "Pan y bollería", "🍞"},
	{6, "Conservas y legumbres", "🥫"},
	{7, "Pasta, arroz y cereales", "🍝"},
	{8, "Aceites, salsas y condimentos", "🫙"},
	{9, "Snacks y dulces", "🍫"},
	{10, "Bebidas", "🧃"},
	{11, "Congelados", "🧊"},
	{12, "Droguería y limpieza", "🧹"},
	{13, "Higiene y cuidado personal", "🧴"},
	{14, "Otras", "🗂️"},
	{15, "Comidas preparadas", "🥘"},
}

// FamilyFruitsVegetables is the family whose products have seasonal price
// swings; the analyzer applies a wider alert threshold to it.
const FamilyFruitsVegetables int64 = 1

// Store wraps the sqlite database.
type Store struct {
	db     *sql.DB
	logger logging.Logger
}

// Open opens (creating if needed) the database at path, applies the schema
// and seeds the family set. Use ":memory:" for an ephemeral database.
func Open(path string, logger logging.Logger) (*Store, error) {
	if logger == nil {
		logger = logging.Default()
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", path, err)
	}
	// The sqlite driver serializes access per connection; a single
	// connection avoids table-lock errors from concurrent statements.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}

	s := &Store{db: db, logger: logger}
	if err := s.SeedFamilies(context.Background()); err != nil {
		db.Close()
		return nil, err
	}

	logger.WithField("path", path).Debug("Database opened")
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SeedFamilies idempotently ensures the fixed family set exists.
func (s *Store) SeedFamilies(ctx context.Context) error {
	for _, f := range seedFamilies {
		_, err := s.db.ExecContext(ctx,
			"INSERT OR IGNORE INTO families (id, name, emoji) VALUES (?, ?, ?)",
			f.ID, f.Name, f.Emoji)
		if err != nil {
			return fmt.Errorf("seeding family %q: %w", f.Name, err)
		}
	}
	return nil
}
