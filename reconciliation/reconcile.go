package reconciliation

import (
	"context"
	"log"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"salesrecon/address"
	"salesrecon/normalization"
)

// groupKey группа сверки: один дистрибьютор, товар, адрес, клиент и месяц
type groupKey struct {
	distributor string
	product     string
	fullAddress string
	year        int
	month       int
	newClient   string
}

func (k groupKey) less(other groupKey) bool {
	switch {
	case k.distributor != other.distributor:
		return k.distributor < other.distributor
	case k.product != other.product:
		return k.product < other.product
	case k.fullAddress != other.fullAddress:
		return k.fullAddress < other.fullAddress
	case k.year != other.year:
		return k.year < other.year
	case k.month != other.month:
		return k.month < other.month
	default:
		return k.newClient < other.newClient
	}
}

// decadePoint накопительный итог группы на конец декады
type decadePoint struct {
	decade   int
	quantity decimal.Decimal
}

type group struct {
	key    groupKey
	points []decadePoint
}

// EnsureFullAddress заполняет FullAddress там, где он пуст. Повторный вызов ничего не меняет.
func EnsureFullAddress(records []RawSalesRecord) {
	for i := range records {
		if records[i].FullAddress == "" {
			records[i].FullAddress = address.BuildKey(records[i].City, records[i].Street, records[i].HouseNumber)
		}
	}
}

// ParseDecade приводит метку декады к числу. Нечисловые, дробные и слишком большие значения дают 0.
func ParseDecade(value string) int {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if n, err := strconv.Atoi(value); err == nil {
		return n
	}
	d, err := decimal.NewFromString(value)
	if err != nil || !d.IsInteger() || d.LessThan(minDecade) || d.GreaterThan(maxDecade) {
		return 0
	}
	return int(d.IntPart())
}

var (
	minDecade = decimal.NewFromInt(math.MinInt32)
	maxDecade = decimal.NewFromInt(math.MaxInt32)
)

// Reconcile переводит накопительные итоги по декадам в фактические продажи каждой декады
func Reconcile(table Table, opts ...Option) Result {
	result, _ := ReconcileContext(context.Background(), table, opts...)
	return result
}

// ReconcileContext аналог Reconcile с возможностью отмены параллельной обработки.
// Ошибка возвращается только при отмене контекста.
func ReconcileContext(ctx context.Context, table Table, opts ...Option) (Result, error) {
	o := buildOptions(opts)
	stats := Stats{InputRows: len(table.Rows)}

	if missing := table.MissingColumns(); len(missing) > 0 {
		log.Printf("[Reconcile] Warning: missing required columns: %s", strings.Join(missing, ", "))
		stats.Outcome = OutcomeMissingColumn
		stats.MissingColumns = missing
		return emptyResult(stats), nil
	}
	if len(table.Rows) == 0 {
		stats.Outcome = OutcomeEmptyInput
		return emptyResult(stats), nil
	}

	rows := normalizeRows(table)

	kept := rows[:0]
	for _, row := range rows {
		if row.FullAddress == "" {
			stats.DroppedUnresolved++
			continue
		}
		kept = append(kept, row)
	}
	rows = kept
	if stats.DroppedUnresolved > 0 {
		log.Printf("[Reconcile] Dropped %d rows with unresolved address", stats.DroppedUnresolved)
	}

	if !hasDistributor(rows) {
		log.Printf("[Reconcile] Warning: distributor is empty for every row")
		stats.Outcome = OutcomeNoDistributor
		return emptyResult(stats), nil
	}

	groups, merged := aggregate(rows, o.policy)
	stats.DuplicatesMerged = merged
	stats.Groups = len(groups)

	perGroup := make([][]ActualSalesRecord, len(groups))
	if o.workers > 1 && len(groups) > 1 {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(o.workers)
		for i := range groups {
			i := i
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				perGroup[i] = groups[i].increments()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return emptyResult(stats), err
		}
	} else {
		for i := range groups {
			perGroup[i] = groups[i].increments()
		}
	}

	out := make([]ActualSalesRecord, 0, len(rows))
	for _, records := range perGroup {
		for _, record := range records {
			switch {
			case record.ActualQuantity.IsZero():
				stats.ZeroSuppressed++
				continue
			case record.ActualQuantity.IsNegative():
				stats.NegativeIncrements++
			}
			out = append(out, record)
		}
	}

	stats.Outcome = OutcomeOK
	stats.OutputRows = len(out)
	return Result{
		Columns: append([]string(nil), OutputColumns...),
		Rows:    out,
		Stats:   stats,
	}, nil
}

// normalizeRows копирует строки с нормализованными текстовыми полями и ключом адреса
func normalizeRows(table Table) []RawSalesRecord {
	keepExisting := table.HasColumn(ColumnFullAddress)

	rows := make([]RawSalesRecord, len(table.Rows))
	for i, row := range table.Rows {
		row.Distributor = normalization.Normalize(row.Distributor)
		row.ProductName = normalization.Normalize(row.ProductName)
		row.City = normalization.Normalize(row.City)
		row.Street = normalization.Normalize(row.Street)
		row.HouseNumber = normalization.Normalize(row.HouseNumber)
		row.NewClient = normalization.Normalize(row.NewClient)
		if keepExisting {
			row.FullAddress = normalization.Normalize(row.FullAddress)
		} else {
			row.FullAddress = ""
		}
		rows[i] = row
	}

	EnsureFullAddress(rows)
	return rows
}

func hasDistributor(rows []RawSalesRecord) bool {
	for _, row := range rows {
		if row.Distributor != "" {
			return true
		}
	}
	return false
}

// aggregate объединяет строки одной декады и группирует их.
// Возвращает группы в детерминированном порядке и число объединенных дублей.
func aggregate(rows []RawSalesRecord, policy DuplicatePolicy) ([]group, int) {
	index := make(map[groupKey]int)
	var groups []group
	merged := 0

	for _, row := range rows {
		key := groupKey{
			distributor: row.Distributor,
			product:     row.ProductName,
			fullAddress: row.FullAddress,
			year:        row.Year,
			month:       row.Month,
			newClient:   row.NewClient,
		}
		gi, ok := index[key]
		if !ok {
			gi = len(groups)
			index[key] = gi
			groups = append(groups, group{key: key})
		}

		decade := ParseDecade(row.Decade)
		g := &groups[gi]
		found := false
		for pi := range g.points {
			if g.points[pi].decade != decade {
				continue
			}
			found = true
			merged++
			if policy == DuplicateMax {
				g.points[pi].quantity = decimal.Max(g.points[pi].quantity, row.Quantity)
			} else {
				g.points[pi].quantity = g.points[pi].quantity.Add(row.Quantity)
			}
			break
		}
		if !found {
			g.points = append(g.points, decadePoint{decade: decade, quantity: row.Quantity})
		}
	}

	sort.Slice(groups, func(i, j int) bool { return groups[i].key.less(groups[j].key) })
	for i := range groups {
		points := groups[i].points
		sort.Slice(points, func(a, b int) bool { return points[a].decade < points[b].decade })
	}
	return groups, merged
}

// increments вычисляет прирост каждой декады относительно предыдущей строки группы
func (g group) increments() []ActualSalesRecord {
	records := make([]ActualSalesRecord, 0, len(g.points))
	previous := decimal.Zero
	for _, point := range g.points {
		records = append(records, ActualSalesRecord{
			Distributor:    g.key.distributor,
			ProductName:    g.key.product,
			FullAddress:    g.key.fullAddress,
			Year:           g.key.year,
			Month:          g.key.month,
			Decade:         strconv.Itoa(point.decade),
			ActualQuantity: point.quantity.Sub(previous),
			NewClient:      g.key.newClient,
		})
		previous = point.quantity
	}
	return records
}
