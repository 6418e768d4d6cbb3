package database

import (
	"database/sql"
	"fmt"
	"log"
	"time"
)

const migrationsTableName = "schema_migrations"

type migration struct {
	name  string
	apply func(*sql.DB) error
}

// migrations применяются по порядку, каждая один раз
var migrations = []migration{
	{name: "001_reference_tables", apply: createReferenceTables},
	{name: "002_sales_data", apply: createSalesTables},
	{name: "003_reconcile_runs", apply: createReconcileTables},
}

// InitSchema создает таблицы и применяет недостающие миграции
func InitSchema(db *sql.DB) error {
	_, err := db.Exec(fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			name TEXT PRIMARY KEY,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`, migrationsTableName))
	if err != nil {
		return fmt.Errorf("failed to ensure schema_migrations table: %w", err)
	}

	for _, m := range migrations {
		var appliedAt sql.NullTime
		err := db.QueryRow(fmt.Sprintf(`SELECT applied_at FROM %s WHERE name = ?`, migrationsTableName), m.name).Scan(&appliedAt)
		switch {
		case err == nil && appliedAt.Valid:
			continue
		case err != nil && err != sql.ErrNoRows:
			return fmt.Errorf("failed to check migration %s: %w", m.name, err)
		}

		if err := m.apply(db); err != nil {
			return fmt.Errorf("migration %s failed: %w", m.name, err)
		}
		if _, err := db.Exec(fmt.Sprintf(`INSERT OR REPLACE INTO %s(name, applied_at) VALUES(?, ?)`, migrationsTableName), m.name, time.Now()); err != nil {
			return fmt.Errorf("failed to mark migration %s as applied: %w", m.name, err)
		}
		log.Printf("[Migrations] %s applied successfully", m.name)
	}
	return nil
}

func execAll(db *sql.DB, statements ...string) error {
	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func createReferenceTables(db *sql.DB) error {
	return execAll(db,
		`CREATE TABLE IF NOT EXISTS region (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE
		)`,
		`CREATE TABLE IF NOT EXISTS golden_address (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			lookup_key TEXT NOT NULL,
			delivery_address TEXT NOT NULL,
			city TEXT,
			street TEXT,
			house_number TEXT,
			territory TEXT,
			region_id INTEGER NOT NULL REFERENCES region(id) ON DELETE CASCADE,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(lookup_key, region_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_golden_address_region ON golden_address(region_id)`,
		`CREATE TABLE IF NOT EXISTS client_directory (
			client TEXT PRIMARY KEY,
			new_client TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS product_line (
			code TEXT PRIMARY KEY,
			line TEXT NOT NULL
		)`,
	)
}

func createSalesTables(db *sql.DB) error {
	return execAll(db,
		`CREATE TABLE IF NOT EXISTS sales_data (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			distributor TEXT,
			region TEXT,
			city_xls TEXT,
			edrpou TEXT,
			client TEXT,
			client_legal_address TEXT,
			delivery_address TEXT,
			product_name TEXT,
			quantity TEXT NOT NULL DEFAULT '0',
			adding TEXT,
			city TEXT,
			street TEXT,
			house_number TEXT,
			territory TEXT,
			product_line TEXT,
			year INTEGER,
			month INTEGER,
			decade TEXT,
			new_client TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sales_data_filters ON sales_data(region, territory, product_line, month)`,
	)
}

func createReconcileTables(db *sql.DB) error {
	return execAll(db,
		`CREATE TABLE IF NOT EXISTS reconcile_runs (
			id TEXT PRIMARY KEY,
			created_at TIMESTAMP NOT NULL,
			outcome TEXT NOT NULL,
			duplicate_policy TEXT NOT NULL,
			filter TEXT,
			input_rows INTEGER NOT NULL DEFAULT 0,
			dropped_unresolved INTEGER NOT NULL DEFAULT 0,
			duplicates_merged INTEGER NOT NULL DEFAULT 0,
			groups_count INTEGER NOT NULL DEFAULT 0,
			zero_suppressed INTEGER NOT NULL DEFAULT 0,
			negative_increments INTEGER NOT NULL DEFAULT 0,
			output_rows INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS actual_sales (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL REFERENCES reconcile_runs(id) ON DELETE CASCADE,
			distributor TEXT,
			product_name TEXT,
			full_address TEXT,
			year INTEGER,
			month INTEGER,
			decade TEXT,
			actual_quantity TEXT NOT NULL,
			new_client TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_actual_sales_run ON actual_sales(run_id)`,
	)
}
