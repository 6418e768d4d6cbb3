package reconciliation

import (
	"github.com/shopspring/decimal"
)

// Имена колонок входной и выходной таблиц
const (
	ColumnDistributor     = "distributor"
	ColumnClient          = "client"
	ColumnNewClient       = "new_client"
	ColumnProductName     = "product_name"
	ColumnQuantity        = "quantity"
	ColumnCity            = "city"
	ColumnStreet          = "street"
	ColumnHouseNumber     = "house_number"
	ColumnDeliveryAddress = "delivery_address"
	ColumnYear            = "year"
	ColumnMonth           = "month"
	ColumnDecade          = "decade"
	ColumnTerritory       = "territory"
	ColumnProductLine     = "product_line"
	ColumnFullAddress     = "full_address"
	ColumnActualQuantity  = "actual_quantity"
)

// RequiredColumns колонки, без которых сверка невозможна
var RequiredColumns = []string{
	ColumnDecade, ColumnDistributor, ColumnProductName, ColumnQuantity, ColumnYear,
	ColumnMonth, ColumnCity, ColumnStreet, ColumnHouseNumber, ColumnNewClient,
}

// RawColumns полный набор колонок сырой таблицы продаж без full_address
var RawColumns = []string{
	ColumnDistributor, ColumnClient, ColumnNewClient, ColumnProductName, ColumnQuantity,
	ColumnCity, ColumnStreet, ColumnHouseNumber, ColumnDeliveryAddress, ColumnYear,
	ColumnMonth, ColumnDecade, ColumnTerritory, ColumnProductLine,
}

// OutputColumns колонки результата сверки
var OutputColumns = []string{
	ColumnDistributor, ColumnProductName, ColumnFullAddress, ColumnYear, ColumnMonth,
	ColumnDecade, ColumnActualQuantity, ColumnNewClient,
}

// RawSalesRecord строка отчета дистрибьютора.
// Quantity накопительный итог с начала месяца по текущую декаду включительно.
type RawSalesRecord struct {
	Distributor     string          `json:"distributor"`
	Client          string          `json:"client,omitempty"`
	NewClient       string          `json:"new_client"`
	ProductName     string          `json:"product_name"`
	Quantity        decimal.Decimal `json:"quantity"`
	City            string          `json:"city"`
	Street          string          `json:"street"`
	HouseNumber     string          `json:"house_number"`
	DeliveryAddress string          `json:"delivery_address,omitempty"`
	Year            int             `json:"year"`
	Month           int             `json:"month"`
	Decade          string          `json:"decade"`
	Territory       string          `json:"territory,omitempty"`
	ProductLine     string          `json:"product_line,omitempty"`
	FullAddress     string          `json:"full_address,omitempty"`
}

// Table сырая таблица с явным набором колонок
type Table struct {
	Columns []string         `json:"columns"`
	Rows    []RawSalesRecord `json:"rows"`
}

// NewTable создает таблицу со всеми колонками RawColumns
func NewTable(rows []RawSalesRecord) Table {
	return Table{Columns: append([]string(nil), RawColumns...), Rows: rows}
}

// HasColumn проверяет наличие колонки
func (t Table) HasColumn(name string) bool {
	for _, column := range t.Columns {
		if column == name {
			return true
		}
	}
	return false
}

// MissingColumns возвращает отсутствующие обязательные колонки
func (t Table) MissingColumns() []string {
	var missing []string
	for _, column := range RequiredColumns {
		if !t.HasColumn(column) {
			missing = append(missing, column)
		}
	}
	return missing
}

// ActualSalesRecord фактические продажи за одну декаду
type ActualSalesRecord struct {
	Distributor    string          `json:"distributor"`
	ProductName    string          `json:"product_name"`
	FullAddress    string          `json:"full_address"`
	Year           int             `json:"year"`
	Month          int             `json:"month"`
	Decade         string          `json:"decade"`
	ActualQuantity decimal.Decimal `json:"actual_quantity"`
	NewClient      string          `json:"new_client"`
}

// Outcome итог сверки
type Outcome string

const (
	OutcomeOK            Outcome = "ok"
	OutcomeMissingColumn Outcome = "missing_column"
	OutcomeEmptyInput    Outcome = "empty_input"
	OutcomeNoDistributor Outcome = "no_distributor"
)

// Stats статистика прогона сверки
type Stats struct {
	Outcome            Outcome  `json:"outcome"`
	MissingColumns     []string `json:"missing_columns,omitempty"`
	InputRows          int      `json:"input_rows"`
	DroppedUnresolved  int      `json:"dropped_unresolved"`
	DuplicatesMerged   int      `json:"duplicates_merged"`
	Groups             int      `json:"groups"`
	ZeroSuppressed     int      `json:"zero_suppressed"`
	NegativeIncrements int      `json:"negative_increments"`
	OutputRows         int      `json:"output_rows"`
}

// Result результат сверки. Rows никогда не nil, Columns всегда OutputColumns.
type Result struct {
	Columns []string            `json:"columns"`
	Rows    []ActualSalesRecord `json:"rows"`
	Stats   Stats               `json:"stats"`
}

// IsEmpty возвращает true, если нет данных для отображения
func (r Result) IsEmpty() bool {
	return len(r.Rows) == 0
}

func emptyResult(stats Stats) Result {
	return Result{
		Columns: append([]string(nil), OutputColumns...),
		Rows:    []ActualSalesRecord{},
		Stats:   stats,
	}
}
