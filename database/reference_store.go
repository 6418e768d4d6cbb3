package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"salesrecon/address"
	"salesrecon/normalization"
)

// Region регион из справочника
type Region struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// GoldenAddress эталонный адрес с исходной строкой доставки
type GoldenAddress struct {
	DeliveryAddress string
	City            string
	Street          string
	HouseNumber     string
	Territory       string
}

type execQueryer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// ensureRegion возвращает id региона, создавая его при необходимости
func ensureRegion(ctx context.Context, q execQueryer, name string) (int64, error) {
	if _, err := q.ExecContext(ctx, `INSERT OR IGNORE INTO region(name) VALUES(?)`, name); err != nil {
		return 0, fmt.Errorf("failed to insert region %q: %w", name, err)
	}
	var id int64
	if err := q.QueryRowContext(ctx, `SELECT id FROM region WHERE name = ?`, name).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to get region %q: %w", name, err)
	}
	return id, nil
}

// EnsureRegion добавляет регион в справочник
func (db *SalesDB) EnsureRegion(ctx context.Context, name string) (int64, error) {
	name = normalization.Normalize(name)
	if name == "" {
		return 0, fmt.Errorf("region name is empty")
	}
	return ensureRegion(ctx, db.conn, name)
}

// ListRegions возвращает регионы по алфавиту
func (db *SalesDB) ListRegions(ctx context.Context) ([]Region, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT id, name FROM region ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query regions: %w", err)
	}
	defer rows.Close()

	regions := []Region{}
	for rows.Next() {
		var region Region
		if err := rows.Scan(&region.ID, &region.Name); err != nil {
			return nil, fmt.Errorf("failed to scan region: %w", err)
		}
		regions = append(regions, region)
	}
	return regions, rows.Err()
}

// UpsertGoldenAddresses сохраняет эталонные адреса региона.
// Ключ поиска строится из адреса доставки через NormalizeKey.
func (db *SalesDB) UpsertGoldenAddresses(ctx context.Context, region string, addresses []GoldenAddress) (int, error) {
	region = normalization.Normalize(region)
	if region == "" {
		return 0, fmt.Errorf("region name is empty")
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	regionID, err := ensureRegion(ctx, tx, region)
	if err != nil {
		return 0, err
	}

	saved := 0
	for _, golden := range addresses {
		key := normalization.NormalizeKey(golden.DeliveryAddress)
		if key == "" {
			continue
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO golden_address (lookup_key, delivery_address, city, street, house_number, territory, region_id)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(lookup_key, region_id) DO UPDATE SET
				delivery_address = excluded.delivery_address,
				city = excluded.city,
				street = excluded.street,
				house_number = excluded.house_number,
				territory = excluded.territory,
				updated_at = CURRENT_TIMESTAMP
		`, key, golden.DeliveryAddress, toNull(golden.City), toNull(golden.Street),
			toNull(golden.HouseNumber), toNull(golden.Territory), regionID)
		if err != nil {
			return 0, fmt.Errorf("failed to upsert golden address %q: %w", golden.DeliveryAddress, err)
		}
		saved++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit golden addresses: %w", err)
	}
	log.Printf("[SalesDB] Saved %d golden addresses for region %q", saved, region)
	return saved, nil
}

// LoadRegistry читает эталонные адреса региона. Пустой регион означает все регионы.
func (db *SalesDB) LoadRegistry(ctx context.Context, region string) ([]address.CanonicalAddress, error) {
	query := `
		SELECT g.lookup_key, g.city, g.street, g.house_number, g.territory
		FROM golden_address g`
	var args []interface{}
	if !isAll(region) {
		query += ` JOIN region r ON r.id = g.region_id WHERE r.name = ?`
		args = append(args, normalization.Normalize(region))
	}
	query += ` ORDER BY g.id`

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query golden addresses: %w", err)
	}
	defer rows.Close()

	records := []address.CanonicalAddress{}
	for rows.Next() {
		var key string
		var city, street, house, territory sql.NullString
		if err := rows.Scan(&key, &city, &street, &house, &territory); err != nil {
			return nil, fmt.Errorf("failed to scan golden address: %w", err)
		}
		records = append(records, address.CanonicalAddress{
			LookupKey:   key,
			City:        nullablePtr(city),
			Street:      nullablePtr(street),
			HouseNumber: nullablePtr(house),
			Territory:   nullablePtr(territory),
		})
	}
	return records, rows.Err()
}

// UpsertClients сохраняет соответствие клиент -> клиент сети
func (db *SalesDB) UpsertClients(ctx context.Context, clients map[string]string) (int, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	saved := 0
	for client, newClient := range clients {
		client = normalization.Normalize(client)
		if client == "" {
			continue
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO client_directory (client, new_client) VALUES (?, ?)
			ON CONFLICT(client) DO UPDATE SET new_client = excluded.new_client
		`, client, normalization.Normalize(newClient))
		if err != nil {
			return 0, fmt.Errorf("failed to upsert client %q: %w", client, err)
		}
		saved++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit clients: %w", err)
	}
	return saved, nil
}

// LoadClientDirectory возвращает справочник клиентов
func (db *SalesDB) LoadClientDirectory(ctx context.Context) (map[string]string, error) {
	return db.loadPairs(ctx, `SELECT client, new_client FROM client_directory`)
}

// UpsertProductLines сохраняет соответствие код товара -> товарная линия
func (db *SalesDB) UpsertProductLines(ctx context.Context, lines map[string]string) (int, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	saved := 0
	for code, line := range lines {
		code = normalization.Normalize(code)
		if code == "" {
			continue
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO product_line (code, line) VALUES (?, ?)
			ON CONFLICT(code) DO UPDATE SET line = excluded.line
		`, code, normalization.Normalize(line))
		if err != nil {
			return 0, fmt.Errorf("failed to upsert product line %q: %w", code, err)
		}
		saved++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit product lines: %w", err)
	}
	return saved, nil
}

// LoadProductLines возвращает справочник товарных линий
func (db *SalesDB) LoadProductLines(ctx context.Context) (map[string]string, error) {
	return db.loadPairs(ctx, `SELECT code, line FROM product_line`)
}

func (db *SalesDB) loadPairs(ctx context.Context, query string) (map[string]string, error) {
	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query directory: %w", err)
	}
	defer rows.Close()

	pairs := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan directory row: %w", err)
		}
		pairs[key] = value
	}
	return pairs, rows.Err()
}
