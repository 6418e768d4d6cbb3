package importer

import (
	"fmt"
	"log"

	"salesrecon/address"
	"salesrecon/normalization"
	"salesrecon/reconciliation"
)

// productCodeOffset число символов префикса перед кодом товара в наименовании
const productCodeOffset = 3

// PreparedUpload отчет, приведенный к строкам таблицы продаж
type PreparedUpload struct {
	FileName   string                          `json:"file_name"`
	Region     string                          `json:"region"`
	Period     Period                          `json:"period"`
	TotalRows  int                             `json:"total_rows"`
	RegionRows int                             `json:"region_rows"`
	Records    []reconciliation.RawSalesRecord `json:"records"`
	// RecordRegions регион исходной строки для каждой записи Records
	RecordRegions      []string               `json:"-"`
	Sources            map[address.Source]int `json:"sources"`
	UnmatchedAddresses []string               `json:"unmatched_addresses"`
	UnmatchedClients   []string               `json:"unmatched_clients"`
}

// Lookups справочники, применяемые при подготовке отчета
type Lookups struct {
	Resolver *address.Resolver
	Registry *address.Registry
	// Clients клиент из отчета -> клиент сети (new_client)
	Clients map[string]string
	// ProductLines код товара -> товарная линия
	ProductLines map[string]string
}

// Prepare отбирает строки региона и обогащает их адресом, клиентом сети и товарной линией.
// Пустой region или "Всі" означает весь отчет.
func Prepare(report *Report, region string, lookups Lookups) (*PreparedUpload, error) {
	if report == nil {
		return nil, fmt.Errorf("report is nil")
	}
	if lookups.Resolver == nil {
		return nil, fmt.Errorf("address resolver is not configured")
	}

	region = normalization.Normalize(region)
	if normalization.IsAll(region) {
		region = ""
	}
	clients := make(map[string]string, len(lookups.Clients))
	for client, newClient := range lookups.Clients {
		clients[normalization.Normalize(client)] = newClient
	}

	prepared := &PreparedUpload{
		FileName:           report.FileName,
		Region:             region,
		Period:             report.Period,
		TotalRows:          len(report.Rows),
		Records:            make([]reconciliation.RawSalesRecord, 0, len(report.Rows)),
		RecordRegions:      make([]string, 0, len(report.Rows)),
		Sources:            make(map[address.Source]int),
		UnmatchedAddresses: []string{},
		UnmatchedClients:   []string{},
	}
	seenAddresses := make(map[string]bool)
	seenClients := make(map[string]bool)

	for _, row := range report.Rows {
		rowRegion := normalization.Normalize(row.Region)
		if region != "" && rowRegion != region {
			continue
		}
		prepared.RegionRows++

		resolution, err := lookups.Resolver.ResolveDetailed(row.DeliveryAddress, lookups.Registry)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", row.Line, err)
		}
		prepared.Sources[resolution.Source]++

		resolved := resolution.Address
		if resolved.City == nil && !seenAddresses[row.DeliveryAddress] {
			seenAddresses[row.DeliveryAddress] = true
			prepared.UnmatchedAddresses = append(prepared.UnmatchedAddresses, row.DeliveryAddress)
		}

		client := normalization.Normalize(row.Client)
		newClient, matched := clients[client]
		if !matched && client != "" && !seenClients[client] {
			seenClients[client] = true
			prepared.UnmatchedClients = append(prepared.UnmatchedClients, client)
		}

		prepared.Records = append(prepared.Records, reconciliation.RawSalesRecord{
			Distributor:     row.Distributor,
			Client:          row.Client,
			NewClient:       newClient,
			ProductName:     row.ProductName,
			Quantity:        row.Quantity,
			City:            deref(resolved.City),
			Street:          deref(resolved.Street),
			HouseNumber:     deref(resolved.HouseNumber),
			DeliveryAddress: row.DeliveryAddress,
			Year:            report.Period.Year,
			Month:           report.Period.Month,
			Decade:          report.Period.Decade,
			Territory:       deref(resolved.Territory),
			ProductLine:     lookups.ProductLines[ProductCode(row.ProductName)],
			FullAddress:     resolved.FullAddress(),
		})
		prepared.RecordRegions = append(prepared.RecordRegions, rowRegion)
	}

	if prepared.RegionRows == 0 {
		log.Printf("[Importer] Warning: no rows for region %q in %s", region, report.FileName)
	}
	return prepared, nil
}

// ProductCode возвращает код товара: наименование без трехсимвольного префикса
func ProductCode(productName string) string {
	runes := []rune(productName)
	if len(runes) <= productCodeOffset {
		return ""
	}
	return string(runes[productCodeOffset:])
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
