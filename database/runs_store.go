package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"salesrecon/reconciliation"
)

// ErrRunNotFound прогон сверки не найден
var ErrRunNotFound = errors.New("reconcile run not found")

// ReconcileRun метаданные сохраненного прогона сверки
type ReconcileRun struct {
	ID              string               `json:"id"`
	CreatedAt       time.Time            `json:"created_at"`
	DuplicatePolicy string               `json:"duplicate_policy"`
	Filter          SalesFilter          `json:"filter"`
	Stats           reconciliation.Stats `json:"stats"`
}

// SaveReconcileRun сохраняет статистику и строки результата сверки.
// Пустой run.ID заменяется новым UUID.
func (db *SalesDB) SaveReconcileRun(ctx context.Context, run ReconcileRun, result reconciliation.Result) (string, error) {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	if run.DuplicatePolicy == "" {
		run.DuplicatePolicy = string(reconciliation.DuplicateSum)
	}

	filterJSON, err := json.Marshal(run.Filter)
	if err != nil {
		return "", fmt.Errorf("failed to marshal run filter: %w", err)
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stats := result.Stats
	_, err = tx.ExecContext(ctx, `
		INSERT INTO reconcile_runs (
			id, created_at, outcome, duplicate_policy, filter, input_rows, dropped_unresolved,
			duplicates_merged, groups_count, zero_suppressed, negative_increments, output_rows
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.CreatedAt, string(stats.Outcome), run.DuplicatePolicy, string(filterJSON),
		stats.InputRows, stats.DroppedUnresolved, stats.DuplicatesMerged, stats.Groups,
		stats.ZeroSuppressed, stats.NegativeIncrements, stats.OutputRows)
	if err != nil {
		return "", fmt.Errorf("failed to insert reconcile run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO actual_sales (
			run_id, distributor, product_name, full_address, year, month, decade,
			actual_quantity, new_client
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return "", fmt.Errorf("failed to prepare actual sales insert: %w", err)
	}
	defer stmt.Close()

	for _, row := range result.Rows {
		if _, err := stmt.ExecContext(ctx, run.ID, row.Distributor, row.ProductName, row.FullAddress,
			row.Year, row.Month, row.Decade, row.ActualQuantity.String(), toNull(row.NewClient)); err != nil {
			return "", fmt.Errorf("failed to insert actual sales row: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit reconcile run: %w", err)
	}
	return run.ID, nil
}

// GetReconcileRun возвращает метаданные прогона
func (db *SalesDB) GetReconcileRun(ctx context.Context, id string) (*ReconcileRun, error) {
	var run ReconcileRun
	var outcome string
	var filter sql.NullString

	err := db.conn.QueryRowContext(ctx, `
		SELECT id, created_at, outcome, duplicate_policy, filter, input_rows, dropped_unresolved,
			duplicates_merged, groups_count, zero_suppressed, negative_increments, output_rows
		FROM reconcile_runs WHERE id = ?
	`, id).Scan(&run.ID, &run.CreatedAt, &outcome, &run.DuplicatePolicy, &filter,
		&run.Stats.InputRows, &run.Stats.DroppedUnresolved, &run.Stats.DuplicatesMerged,
		&run.Stats.Groups, &run.Stats.ZeroSuppressed, &run.Stats.NegativeIncrements, &run.Stats.OutputRows)
	if err == sql.ErrNoRows {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reconcile run: %w", err)
	}

	run.Stats.Outcome = reconciliation.Outcome(outcome)
	if filter.Valid && filter.String != "" {
		if err := json.Unmarshal([]byte(filter.String), &run.Filter); err != nil {
			return nil, fmt.Errorf("failed to decode run filter: %w", err)
		}
	}
	return &run, nil
}

// ListActualSales возвращает строки результата прогона в порядке сохранения
func (db *SalesDB) ListActualSales(ctx context.Context, runID string) ([]reconciliation.ActualSalesRecord, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT distributor, product_name, full_address, year, month, decade, actual_quantity, new_client
		FROM actual_sales WHERE run_id = ? ORDER BY id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query actual sales: %w", err)
	}
	defer rows.Close()

	records := []reconciliation.ActualSalesRecord{}
	for rows.Next() {
		var record reconciliation.ActualSalesRecord
		var quantity string
		var newClient sql.NullString
		if err := rows.Scan(&record.Distributor, &record.ProductName, &record.FullAddress,
			&record.Year, &record.Month, &record.Decade, &quantity, &newClient); err != nil {
			return nil, fmt.Errorf("failed to scan actual sales row: %w", err)
		}
		record.ActualQuantity, err = decimal.NewFromString(quantity)
		if err != nil {
			return nil, fmt.Errorf("invalid actual quantity %q: %w", quantity, err)
		}
		record.NewClient = nullString(newClient)
		records = append(records, record)
	}
	return records, rows.Err()
}
