package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	"github.com/shopspring/decimal"

	"salesrecon/normalization"
	"salesrecon/reconciliation"
)

// AllValues значение фильтра, означающее отсутствие ограничения
const AllValues = normalization.AllValues

// SalesFilter фильтр выборки продаж. Пустое значение или AllValues не ограничивает выборку.
type SalesFilter struct {
	Region      string `json:"region,omitempty"`
	Territory   string `json:"territory,omitempty"`
	ProductLine string `json:"product_line,omitempty"`
	Months      []int  `json:"months,omitempty"`
}

func isAll(value string) bool {
	return normalization.IsAll(value)
}

// where строит условие WHERE и аргументы для фильтра
func (f SalesFilter) where() (string, []interface{}) {
	var conditions []string
	var args []interface{}

	if !isAll(f.Region) {
		conditions = append(conditions, "region = ?")
		args = append(args, normalization.Normalize(f.Region))
	}
	if !isAll(f.Territory) {
		conditions = append(conditions, "territory = ?")
		args = append(args, normalization.Normalize(f.Territory))
	}
	if !isAll(f.ProductLine) {
		conditions = append(conditions, "product_line = ?")
		args = append(args, normalization.Normalize(f.ProductLine))
	}
	if len(f.Months) > 0 {
		placeholders := make([]string, len(f.Months))
		for i, month := range f.Months {
			placeholders[i] = "?"
			args = append(args, month)
		}
		conditions = append(conditions, "month IN ("+strings.Join(placeholders, ",")+")")
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

// SalesBatch загружаемые строки одного отчета
type SalesBatch struct {
	Region  string
	Adding  string
	Records []reconciliation.RawSalesRecord
	// Regions регион каждой записи; пустой элемент или отсутствие заменяется Region
	Regions []string
}

// InsertSales сохраняет строки отчета в одной транзакции
func (db *SalesDB) InsertSales(ctx context.Context, batch SalesBatch) (int, error) {
	if len(batch.Records) == 0 {
		return 0, nil
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO sales_data (
			distributor, region, client, new_client, product_name, quantity,
			city, street, house_number, delivery_address, year, month, decade,
			territory, product_line, adding
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	region := normalization.Normalize(batch.Region)
	for i, record := range batch.Records {
		recordRegion := region
		if i < len(batch.Regions) {
			if r := normalization.Normalize(batch.Regions[i]); r != "" {
				recordRegion = r
			}
		}
		_, err := stmt.ExecContext(ctx,
			record.Distributor, toNull(recordRegion), toNull(record.Client), toNull(record.NewClient),
			record.ProductName, record.Quantity.String(),
			toNull(record.City), toNull(record.Street), toNull(record.HouseNumber),
			toNull(record.DeliveryAddress), record.Year, record.Month, record.Decade,
			toNull(record.Territory), toNull(record.ProductLine), toNull(batch.Adding),
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert sales row %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit sales rows: %w", err)
	}
	log.Printf("[SalesDB] Inserted %d sales rows for region %q", len(batch.Records), region)
	return len(batch.Records), nil
}

// CountSales возвращает число строк, подходящих под фильтр
func (db *SalesDB) CountSales(ctx context.Context, filter SalesFilter) (int, error) {
	where, args := filter.where()
	var count int
	if err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM sales_data"+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count sales: %w", err)
	}
	return count, nil
}

// FetchSalesPage возвращает одну страницу продаж в порядке загрузки
func (db *SalesDB) FetchSalesPage(ctx context.Context, filter SalesFilter, offset, limit int) ([]reconciliation.RawSalesRecord, error) {
	if limit <= 0 {
		limit = db.pageSize
	}
	if offset < 0 {
		offset = 0
	}

	where, args := filter.where()
	query := `
		SELECT distributor, client, new_client, product_name, quantity, city, street,
			house_number, delivery_address, year, month, decade, territory, product_line
		FROM sales_data` + where + `
		ORDER BY id
		LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sales page: %w", err)
	}
	defer rows.Close()

	records := make([]reconciliation.RawSalesRecord, 0, limit)
	for rows.Next() {
		var record reconciliation.RawSalesRecord
		var distributor, client, newClient, productName, city, street, house sql.NullString
		var deliveryAddress, decade, territory, productLine sql.NullString
		var quantity string
		var year, month sql.NullInt64

		if err := rows.Scan(&distributor, &client, &newClient, &productName, &quantity, &city, &street,
			&house, &deliveryAddress, &year, &month, &decade, &territory, &productLine); err != nil {
			return nil, fmt.Errorf("failed to scan sales row: %w", err)
		}

		record.Distributor = nullString(distributor)
		record.Client = nullString(client)
		record.NewClient = nullString(newClient)
		record.ProductName = nullString(productName)
		record.City = nullString(city)
		record.Street = nullString(street)
		record.HouseNumber = nullString(house)
		record.DeliveryAddress = nullString(deliveryAddress)
		record.Year = int(year.Int64)
		record.Month = int(month.Int64)
		record.Decade = nullString(decade)
		record.Territory = nullString(territory)
		record.ProductLine = nullString(productLine)

		record.Quantity, err = decimal.NewFromString(quantity)
		if err != nil {
			log.Printf("[SalesDB] Warning: invalid stored quantity %q: %v", quantity, err)
			record.Quantity = decimal.Zero
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sales rows: %w", err)
	}
	return records, nil
}

// FetchAllSales читает все подходящие строки постранично и собирает одну таблицу
func (db *SalesDB) FetchAllSales(ctx context.Context, filter SalesFilter) (reconciliation.Table, error) {
	all := make([]reconciliation.RawSalesRecord, 0)
	for offset := 0; ; offset += db.pageSize {
		page, err := db.FetchSalesPage(ctx, filter, offset, db.pageSize)
		if err != nil {
			return reconciliation.Table{}, err
		}
		all = append(all, page...)
		if len(page) < db.pageSize {
			break
		}
	}
	return reconciliation.NewTable(all), nil
}

// ListTerritories возвращает территории, встречающиеся в продажах региона
func (db *SalesDB) ListTerritories(ctx context.Context, region string) ([]string, error) {
	filter := SalesFilter{Region: region}
	where, args := filter.where()
	if where == "" {
		where = " WHERE territory IS NOT NULL"
	} else {
		where += " AND territory IS NOT NULL"
	}

	rows, err := db.conn.QueryContext(ctx, "SELECT DISTINCT territory FROM sales_data"+where+" ORDER BY territory", args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query territories: %w", err)
	}
	defer rows.Close()

	territories := []string{}
	for rows.Next() {
		var territory string
		if err := rows.Scan(&territory); err != nil {
			return nil, fmt.Errorf("failed to scan territory: %w", err)
		}
		territories = append(territories, territory)
	}
	return territories, rows.Err()
}
