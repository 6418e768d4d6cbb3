package importer

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesrecon/address"
)

func strPtr(s string) *string { return &s }

func testLookups(t *testing.T) Lookups {
	t.Helper()
	resolver, err := address.NewResolver(address.DefaultReference())
	require.NoError(t, err)

	return Lookups{
		Resolver: resolver,
		Registry: address.NewRegistry([]address.CanonicalAddress{{
			LookupKey:   "м. Київ, вул. Хрещатик, 22",
			City:        strPtr("Київ"),
			Street:      strPtr("вул. Хрещатик"),
			HouseNumber: strPtr("22"),
			Territory:   strPtr("Центр"),
		}}),
		Clients:      map[string]string{" Аптека-1 ": "Мережа А"},
		ProductLines: map[string]string{"001": "Кардіо"},
	}
}

func TestPrepare(t *testing.T) {
	report := &Report{
		FileName: "sales_2024_05_20.xlsx",
		Period:   ParsePeriod("sales_2024_05_20.xlsx"),
		Rows: []DeliveryRow{
			{Line: 2, Distributor: "Д1", Region: "Київ", Client: "Аптека-1", DeliveryAddress: "м. Київ, вул. Хрещатик, 22", ProductName: "ABC001", Quantity: decimal.NewFromInt(10)},
			{Line: 3, Distributor: "Д1", Region: "Київ", Client: "Аптека-9", DeliveryAddress: "вул. Садова, 3", ProductName: "ABC002", Quantity: decimal.NewFromInt(4)},
			{Line: 4, Distributor: "Д1", Region: "Київ", Client: "Аптека-9", DeliveryAddress: "вул. Садова, 3", ProductName: "AB", Quantity: decimal.NewFromInt(1)},
			{Line: 5, Distributor: "Д1", Region: "Одеса", Client: "Аптека-1", DeliveryAddress: "м. Одеса", ProductName: "ABC001", Quantity: decimal.NewFromInt(7)},
		},
	}

	prepared, err := Prepare(report, "Київ", testLookups(t))
	require.NoError(t, err)

	assert.Equal(t, 4, prepared.TotalRows)
	assert.Equal(t, 3, prepared.RegionRows)
	require.Len(t, prepared.Records, 3)

	first := prepared.Records[0]
	assert.Equal(t, "Мережа А", first.NewClient)
	assert.Equal(t, "Київ", first.City)
	assert.Equal(t, "Центр", first.Territory)
	assert.Equal(t, "Кардіо", first.ProductLine)
	assert.Equal(t, "Київ, вул. Хрещатик, 22", first.FullAddress)
	assert.Equal(t, 2024, first.Year)
	assert.Equal(t, 5, first.Month)
	assert.Equal(t, "20", first.Decade)

	second := prepared.Records[1]
	assert.Empty(t, second.NewClient)
	assert.Equal(t, "вул. Садова", second.Street)
	assert.Equal(t, "3", second.HouseNumber)
	assert.Empty(t, second.ProductLine)
	assert.Empty(t, prepared.Records[2].ProductLine, "short names have no product code")

	assert.Equal(t, []string{"вул. Садова, 3"}, prepared.UnmatchedAddresses)
	assert.Equal(t, []string{"Аптека-9"}, prepared.UnmatchedClients)
	assert.Equal(t, 1, prepared.Sources[address.SourceRegistry])
	assert.Equal(t, 2, prepared.Sources[address.SourceHeuristic])
}

func TestPrepare_AllRegions(t *testing.T) {
	report := &Report{Rows: []DeliveryRow{
		{Region: "Київ", DeliveryAddress: "м. Київ"},
		{Region: "Одеса", DeliveryAddress: "м. Одеса"},
	}}

	for _, region := range []string{"", "Всі", " Всі "} {
		t.Run("region="+region, func(t *testing.T) {
			prepared, err := Prepare(report, region, testLookups(t))
			require.NoError(t, err)
			assert.Equal(t, 2, prepared.RegionRows)
			assert.Len(t, prepared.Records, 2)
			assert.Empty(t, prepared.Region)
			assert.Empty(t, prepared.UnmatchedAddresses)
			assert.NotNil(t, prepared.UnmatchedClients)
		})
	}
}

func TestPrepare_Errors(t *testing.T) {
	_, err := Prepare(nil, "Київ", testLookups(t))
	assert.Error(t, err)

	_, err = Prepare(&Report{}, "Київ", Lookups{})
	assert.Error(t, err)

	lookups := testLookups(t)
	lookups.Registry = nil
	_, err = Prepare(&Report{Rows: []DeliveryRow{{Region: "Київ"}}}, "Київ", lookups)
	assert.ErrorIs(t, err, address.ErrNilRegistry)
}

func TestProductCode(t *testing.T) {
	assert.Equal(t, "001", ProductCode("ABC001"))
	assert.Equal(t, "45", ProductCode("Аб 45"))
	assert.Equal(t, "", ProductCode("ABC"))
	assert.Equal(t, "", ProductCode(""))
}
