package summary

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"salesrecon/address"
	"salesrecon/reconciliation"
)

// TopN количество товаров в рейтингах
const TopN = 5

var hundred = decimal.NewFromInt(100)

// Row минимальный набор полей для расчета показателей
type Row struct {
	ProductName string
	NewClient   string
	FullAddress string
	Quantity    decimal.Decimal
}

// ProductTotal суммарное количество по товару
type ProductTotal struct {
	ProductName string          `json:"product_name"`
	Quantity    decimal.Decimal `json:"quantity"`
}

// KPIs ключевые показатели продаж
type KPIs struct {
	TotalQuantity        decimal.Decimal `json:"total_quantity"`
	UniqueProducts       int             `json:"unique_products"`
	UniqueClients        int             `json:"unique_clients"`
	AvgQuantityPerClient decimal.Decimal `json:"avg_quantity_per_client"`
	Top5Share            decimal.Decimal `json:"top5_share"`
	TopProducts          []ProductTotal  `json:"top_products"`
	BottomProducts       []ProductTotal  `json:"bottom_products"`
}

// FromActual преобразует результат сверки в строки для расчета показателей
func FromActual(records []reconciliation.ActualSalesRecord) []Row {
	rows := make([]Row, 0, len(records))
	for _, r := range records {
		rows = append(rows, Row{
			ProductName: r.ProductName,
			NewClient:   r.NewClient,
			FullAddress: r.FullAddress,
			Quantity:    r.ActualQuantity,
		})
	}
	return rows
}

// FromRaw преобразует сырые строки отчета. Пустой full_address строится из компонентов.
func FromRaw(records []reconciliation.RawSalesRecord) []Row {
	rows := make([]Row, 0, len(records))
	for _, r := range records {
		rows = append(rows, Row{
			ProductName: r.ProductName,
			NewClient:   r.NewClient,
			FullAddress: fullAddress(r),
			Quantity:    r.Quantity,
		})
	}
	return rows
}

// Compute рассчитывает показатели. Для пустого входа возвращаются нули и пустые рейтинги.
// Клиентом считается уникальная пара (new_client, full_address).
func Compute(rows []Row) KPIs {
	kpis := KPIs{
		TotalQuantity:        decimal.Zero,
		AvgQuantityPerClient: decimal.Zero,
		Top5Share:            decimal.Zero,
		TopProducts:          []ProductTotal{},
		BottomProducts:       []ProductTotal{},
	}
	if len(rows) == 0 {
		return kpis
	}

	type clientKey struct{ client, address string }
	clients := make(map[clientKey]struct{})
	byProduct := make(map[string]decimal.Decimal)

	for _, row := range rows {
		kpis.TotalQuantity = kpis.TotalQuantity.Add(row.Quantity)
		clients[clientKey{row.NewClient, row.FullAddress}] = struct{}{}
		byProduct[row.ProductName] = byProduct[row.ProductName].Add(row.Quantity)
	}

	kpis.UniqueProducts = len(byProduct)
	kpis.UniqueClients = len(clients)
	if kpis.UniqueClients > 0 {
		kpis.AvgQuantityPerClient = kpis.TotalQuantity.Div(decimal.NewFromInt(int64(kpis.UniqueClients))).Round(2)
	}

	totals := make([]ProductTotal, 0, len(byProduct))
	for name, quantity := range byProduct {
		totals = append(totals, ProductTotal{ProductName: name, Quantity: quantity})
	}

	sort.Slice(totals, func(i, j int) bool {
		if c := totals[i].Quantity.Cmp(totals[j].Quantity); c != 0 {
			return c > 0
		}
		return totals[i].ProductName < totals[j].ProductName
	})
	kpis.TopProducts = append(kpis.TopProducts, totals[:min(TopN, len(totals))]...)

	top5Total := decimal.Zero
	for _, p := range kpis.TopProducts {
		top5Total = top5Total.Add(p.Quantity)
	}
	if !kpis.TotalQuantity.IsZero() {
		kpis.Top5Share = top5Total.Div(kpis.TotalQuantity).Mul(hundred).Round(2)
	}

	sort.Slice(totals, func(i, j int) bool {
		if c := totals[i].Quantity.Cmp(totals[j].Quantity); c != 0 {
			return c < 0
		}
		return totals[i].ProductName < totals[j].ProductName
	})
	kpis.BottomProducts = append(kpis.BottomProducts, totals[:min(TopN, len(totals))]...)

	return kpis
}

// AddressClients сопоставляет полный адрес со списком клиентов ("Аптека-1, Аптека-2")
func AddressClients(records []reconciliation.RawSalesRecord) map[string]string {
	sets := make(map[string]map[string]struct{})
	for _, r := range records {
		addr := fullAddress(r)
		client := strings.TrimSpace(r.Client)
		if addr == "" || client == "" {
			continue
		}
		if sets[addr] == nil {
			sets[addr] = make(map[string]struct{})
		}
		sets[addr][client] = struct{}{}
	}

	result := make(map[string]string, len(sets))
	for addr, set := range sets {
		names := make([]string, 0, len(set))
		for name := range set {
			names = append(names, name)
		}
		sort.Strings(names)
		result[addr] = strings.Join(names, ", ")
	}
	return result
}

// LatestDecade возвращает максимальную декаду в данных
func LatestDecade(records []reconciliation.RawSalesRecord) (int, bool) {
	latest, found := 0, false
	for _, r := range records {
		if strings.TrimSpace(r.Decade) == "" {
			continue
		}
		decade := reconciliation.ParseDecade(r.Decade)
		if !found || decade > latest {
			latest, found = decade, true
		}
	}
	return latest, found
}

func fullAddress(r reconciliation.RawSalesRecord) string {
	if r.FullAddress != "" {
		return r.FullAddress
	}
	return address.BuildKey(strings.TrimSpace(r.City), strings.TrimSpace(r.Street), strings.TrimSpace(r.HouseNumber))
}
