// Package tableio читает и пишет таблицы продаж для утилит командной строки:
// CSV и JSON на входе, CSV и XLSX на выходе.
package tableio

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"salesrecon/normalization"
	"salesrecon/reconciliation"
)

// ErrUnsupportedFormat расширение файла не поддерживается
var ErrUnsupportedFormat = errors.New("unsupported table format")

// ResultSheet имя листа с результатом в XLSX
const ResultSheet = "actual_sales"

// ReadTable читает сырую таблицу продаж из .csv или .json.
// Колонки CSV берутся из заголовка, поэтому отсутствующие колонки видны сверке.
func ReadTable(path string) (reconciliation.Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return reconciliation.Table{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return ReadCSVTable(file)
	case ".json":
		return ReadJSONTable(file)
	default:
		return reconciliation.Table{}, fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
	}
}

// ReadJSONTable читает {"columns": [...], "rows": [...]} или просто массив строк
func ReadJSONTable(r io.Reader) (reconciliation.Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return reconciliation.Table{}, fmt.Errorf("failed to read json table: %w", err)
	}

	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var rows []reconciliation.RawSalesRecord
		if err := json.Unmarshal(data, &rows); err != nil {
			return reconciliation.Table{}, fmt.Errorf("failed to parse json rows: %w", err)
		}
		return reconciliation.NewTable(rows), nil
	}

	var table reconciliation.Table
	if err := json.Unmarshal(data, &table); err != nil {
		return reconciliation.Table{}, fmt.Errorf("failed to parse json table: %w", err)
	}
	if len(table.Columns) == 0 {
		table.Columns = append([]string(nil), reconciliation.RawColumns...)
	}
	return table, nil
}

// ReadCSVTable читает CSV с заголовком из имен колонок
func ReadCSVTable(r io.Reader) (reconciliation.Table, error) {
	records, err := ReadRecords(r)
	if err != nil {
		return reconciliation.Table{}, err
	}

	table := reconciliation.Table{Columns: records.Columns, Rows: make([]reconciliation.RawSalesRecord, 0, len(records.Rows))}
	for _, row := range records.Rows {
		quantity, err := decimal.NewFromString(strings.ReplaceAll(row[reconciliation.ColumnQuantity], ",", "."))
		if err != nil {
			quantity = decimal.Zero
		}
		year, _ := strconv.Atoi(row[reconciliation.ColumnYear])
		month, _ := strconv.Atoi(row[reconciliation.ColumnMonth])

		table.Rows = append(table.Rows, reconciliation.RawSalesRecord{
			Distributor:     row[reconciliation.ColumnDistributor],
			Client:          row[reconciliation.ColumnClient],
			NewClient:       row[reconciliation.ColumnNewClient],
			ProductName:     row[reconciliation.ColumnProductName],
			Quantity:        quantity,
			City:            row[reconciliation.ColumnCity],
			Street:          row[reconciliation.ColumnStreet],
			HouseNumber:     row[reconciliation.ColumnHouseNumber],
			DeliveryAddress: row[reconciliation.ColumnDeliveryAddress],
			Year:            year,
			Month:           month,
			Decade:          row[reconciliation.ColumnDecade],
			Territory:       row[reconciliation.ColumnTerritory],
			ProductLine:     row[reconciliation.ColumnProductLine],
			FullAddress:     row[reconciliation.ColumnFullAddress],
		})
	}
	return table, nil
}

// Records строки CSV, где значения доступны по имени колонки
type Records struct {
	Columns []string
	Rows    []map[string]string
}

// ReadRecordsFile читает CSV-файл с заголовком
func ReadRecordsFile(path string) (Records, error) {
	file, err := os.Open(path)
	if err != nil {
		return Records{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()
	return ReadRecords(file)
}

// ReadRecords читает CSV с заголовком. Имена колонок приводятся к нижнему регистру.
func ReadRecords(r io.Reader) (Records, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return Records{Columns: []string{}, Rows: []map[string]string{}}, nil
	}
	if err != nil {
		return Records{}, fmt.Errorf("failed to read csv header: %w", err)
	}

	columns := make([]string, len(header))
	for i, name := range header {
		columns[i] = normalization.NormalizeKey(strings.TrimPrefix(name, "\ufeff"))
	}

	rows := []map[string]string{}
	for {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Records{}, fmt.Errorf("failed to read csv row: %w", err)
		}
		row := make(map[string]string, len(columns))
		for i, column := range columns {
			if i < len(fields) {
				row[column] = fields[i]
			}
		}
		rows = append(rows, row)
	}
	return Records{Columns: columns, Rows: rows}, nil
}

// WriteResult пишет результат сверки в .csv или .xlsx по расширению пути
func WriteResult(path string, result reconciliation.Result) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return WriteResultXLSX(path, result)
	case ".csv":
		file, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", path, err)
		}
		if err := WriteResultCSV(file, result); err != nil {
			file.Close()
			return err
		}
		return file.Close()
	default:
		return fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
	}
}

func resultRow(row reconciliation.ActualSalesRecord) []string {
	return []string{
		row.Distributor,
		row.ProductName,
		row.FullAddress,
		strconv.Itoa(row.Year),
		strconv.Itoa(row.Month),
		row.Decade,
		row.ActualQuantity.String(),
		row.NewClient,
	}
}

// WriteResultCSV пишет результат в CSV с заголовком OutputColumns
func WriteResultCSV(w io.Writer, result reconciliation.Result) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(reconciliation.OutputColumns); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, row := range result.Rows {
		if err := writer.Write(resultRow(row)); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteResultXLSX пишет результат в лист ResultSheet
func WriteResultXLSX(path string, result reconciliation.Result) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), ResultSheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}

	header := make([]interface{}, len(reconciliation.OutputColumns))
	for i, column := range reconciliation.OutputColumns {
		header[i] = column
	}
	if err := f.SetSheetRow(ResultSheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, row := range result.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		quantity, _ := row.ActualQuantity.Float64()
		values := []interface{}{
			row.Distributor, row.ProductName, row.FullAddress, row.Year, row.Month,
			row.Decade, quantity, row.NewClient,
		}
		if err := f.SetSheetRow(ResultSheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}
