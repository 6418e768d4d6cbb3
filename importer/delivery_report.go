package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"salesrecon/normalization"
)

// Заголовки колонок отчета о доставках
const (
	HeaderRegion             = "Регіон"
	HeaderDeliveryAddress    = "Факт.адреса доставки"
	HeaderProductName        = "Найменування"
	HeaderClient             = "Клієнт"
	HeaderDistributor        = "Дистриб'ютор"
	HeaderQuantity           = "Кількість"
	HeaderEDRPOU             = "ЄДРПОУ"
	HeaderCity               = "Місто"
	HeaderClientLegalAddress = "Юр. адреса клієнта"
)

// RequiredHeaders колонки, без которых отчет не обрабатывается
var RequiredHeaders = []string{HeaderRegion, HeaderDeliveryAddress, HeaderProductName, HeaderClient}

// ErrUnsupportedFormat неподдерживаемое расширение файла
var ErrUnsupportedFormat = errors.New("unsupported report format (expected .xlsx or .csv)")

// MissingColumnsError отчет не содержит обязательных колонок
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("report is missing required columns: %s", strings.Join(e.Columns, ", "))
}

// DeliveryRow строка отчета о доставках дистрибьютора
type DeliveryRow struct {
	Line               int             `json:"line"`
	Distributor        string          `json:"distributor"`
	Region             string          `json:"region"`
	CityXLS            string          `json:"city_xls,omitempty"`
	EDRPOU             string          `json:"edrpou,omitempty"`
	Client             string          `json:"client"`
	ClientLegalAddress string          `json:"client_legal_address,omitempty"`
	DeliveryAddress    string          `json:"delivery_address"`
	ProductName        string          `json:"product_name"`
	Quantity           decimal.Decimal `json:"quantity"`
}

// Report разобранный отчет
type Report struct {
	FileName string        `json:"file_name"`
	Period   Period        `json:"period"`
	Rows     []DeliveryRow `json:"rows"`
	// InvalidQuantities количество строк с нечисловым количеством (записано как 0)
	InvalidQuantities int `json:"invalid_quantities"`
}

// ParseDeliveryReport читает отчет из файла .xlsx или .csv
func ParseDeliveryReport(path string) (*Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open report: %w", err)
	}
	defer f.Close()

	return ParseDeliveryReportReader(filepath.Base(path), f)
}

// ParseDeliveryReportReader читает отчет из потока, формат определяется по имени файла
func ParseDeliveryReportReader(fileName string, r io.Reader) (*Report, error) {
	var (
		rows [][]string
		err  error
	)

	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".xlsx", ".xlsm":
		rows, err = readExcelRows(r)
	case ".csv":
		rows, err = readCSVRows(r)
	default:
		return nil, fmt.Errorf("%s: %w", fileName, ErrUnsupportedFormat)
	}
	if err != nil {
		return nil, err
	}

	report, err := buildReport(rows)
	if err != nil {
		return nil, err
	}
	report.FileName = fileName
	report.Period = ParsePeriod(fileName)
	return report, nil
}

func readExcelRows(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("no sheets found in Excel file")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}
	return rows, nil
}

// readCSVRows читает CSV в UTF-8 или Windows-1251, разделитель "," или ";"
func readCSVRows(r io.Reader) ([][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}

	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if !utf8.Valid(data) {
		decoded, _, err := transform.Bytes(charmap.Windows1251.NewDecoder(), data)
		if err != nil {
			return nil, fmt.Errorf("failed to decode CSV from Windows-1251: %w", err)
		}
		data = decoded
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	reader.Comma = detectDelimiter(data)

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	return rows, nil
}

func detectDelimiter(data []byte) rune {
	header := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		header = data[:i]
	}
	if bytes.Count(header, []byte(";")) > bytes.Count(header, []byte(",")) {
		return ';'
	}
	return ','
}

func buildReport(rows [][]string) (*Report, error) {
	if len(rows) == 0 {
		return nil, &MissingColumnsError{Columns: RequiredHeaders}
	}

	headerMap := make(map[string]int)
	for i, header := range rows[0] {
		name := normalization.Normalize(header)
		if _, exists := headerMap[name]; !exists {
			headerMap[name] = i
		}
	}

	var missing []string
	for _, header := range RequiredHeaders {
		if _, ok := headerMap[header]; !ok {
			missing = append(missing, header)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingColumnsError{Columns: missing}
	}

	cell := func(row []string, header string) string {
		idx, ok := headerMap[header]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	report := &Report{Rows: make([]DeliveryRow, 0, len(rows)-1)}
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if isEmptyRow(row) {
			continue
		}

		quantity, ok := parseQuantity(cell(row, HeaderQuantity))
		if !ok {
			report.InvalidQuantities++
			log.Printf("[Importer] Warning: line %d has invalid quantity %q, using 0", i+1, cell(row, HeaderQuantity))
		}

		report.Rows = append(report.Rows, DeliveryRow{
			Line:               i + 1,
			Distributor:        cell(row, HeaderDistributor),
			Region:             cell(row, HeaderRegion),
			CityXLS:            cell(row, HeaderCity),
			EDRPOU:             cell(row, HeaderEDRPOU),
			Client:             cell(row, HeaderClient),
			ClientLegalAddress: cell(row, HeaderClientLegalAddress),
			DeliveryAddress:    cell(row, HeaderDeliveryAddress),
			ProductName:        cell(row, HeaderProductName),
			Quantity:           quantity,
		})
	}

	return report, nil
}

// parseQuantity принимает "12", "12,5", "1 200"; пустое значение считается нулем
func parseQuantity(value string) (decimal.Decimal, bool) {
	value = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\u00a0', '\u202f':
			return -1
		case ',':
			return '.'
		}
		return r
	}, value)
	if value == "" {
		return decimal.Zero, true
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// isEmptyRow проверяет, пуста ли строка
func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
