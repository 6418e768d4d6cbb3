package reconciliation

import (
	"context"
	"fmt"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rawRow(distributor string, quantity int64, decade string) RawSalesRecord {
	return RawSalesRecord{
		Distributor: distributor,
		ProductName: "P1",
		Quantity:    decimal.NewFromInt(quantity),
		Year:        2024,
		Month:       5,
		Decade:      decade,
		City:        "Kyiv",
		Street:      "Main",
		HouseNumber: "1",
		NewClient:   "C1",
	}
}

// flatten представляет результат в виде "дистрибьютор/декада=количество"
func flatten(rows []ActualSalesRecord) []string {
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		out = append(out, fmt.Sprintf("%s/%s=%s", row.Distributor, row.Decade, row.ActualQuantity.String()))
	}
	return out
}

func TestReconcile_Scenario(t *testing.T) {
	result := Reconcile(NewTable([]RawSalesRecord{
		rawRow("D1", 10, "10"),
		rawRow("D1", 25, "20"),
	}))

	require.Equal(t, OutcomeOK, result.Stats.Outcome)
	require.Len(t, result.Rows, 2)
	assert.Equal(t, []string{"D1/10=10", "D1/20=15"}, flatten(result.Rows))

	first := result.Rows[0]
	assert.Equal(t, "Kyiv, Main, 1", first.FullAddress)
	assert.Equal(t, "P1", first.ProductName)
	assert.Equal(t, 2024, first.Year)
	assert.Equal(t, 5, first.Month)
	assert.Equal(t, "C1", first.NewClient)
	assert.Equal(t, OutputColumns, result.Columns)
}

func TestReconcile_CumulativeDecomposition(t *testing.T) {
	tests := []struct {
		name     string
		rows     []RawSalesRecord
		expected []string
	}{
		{
			name:     "three decades",
			rows:     []RawSalesRecord{rawRow("D1", 10, "10"), rawRow("D1", 25, "20"), rawRow("D1", 40, "30")},
			expected: []string{"D1/10=10", "D1/20=15", "D1/30=15"},
		},
		{
			name:     "missing middle decade",
			rows:     []RawSalesRecord{rawRow("D1", 10, "10"), rawRow("D1", 40, "30")},
			expected: []string{"D1/10=10", "D1/30=30"},
		},
		{
			name:     "zero increment suppressed",
			rows:     []RawSalesRecord{rawRow("D1", 15, "10"), rawRow("D1", 15, "20")},
			expected: []string{"D1/10=15"},
		},
		{
			name:     "negative increment preserved",
			rows:     []RawSalesRecord{rawRow("D1", 20, "10"), rawRow("D1", 12, "20")},
			expected: []string{"D1/10=20", "D1/20=-8"},
		},
		{
			name:     "unsorted input",
			rows:     []RawSalesRecord{rawRow("D1", 40, "30"), rawRow("D1", 10, "10"), rawRow("D1", 25, "20")},
			expected: []string{"D1/10=10", "D1/20=15", "D1/30=15"},
		},
		{
			name:     "malformed decade becomes baseline",
			rows:     []RawSalesRecord{rawRow("D1", 5, "n/a"), rawRow("D1", 12, "10")},
			expected: []string{"D1/0=5", "D1/10=7"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Reconcile(NewTable(tt.rows))
			assert.Equal(t, tt.expected, flatten(result.Rows))
		})
	}
}

func TestReconcile_StatsCounters(t *testing.T) {
	rows := []RawSalesRecord{
		rawRow("D1", 15, "10"),
		rawRow("D1", 15, "20"),
		rawRow("D1", 10, "30"),
	}
	result := Reconcile(NewTable(rows))
	assert.Equal(t, 3, result.Stats.InputRows)
	assert.Equal(t, 1, result.Stats.Groups)
	assert.Equal(t, 1, result.Stats.ZeroSuppressed)
	assert.Equal(t, 1, result.Stats.NegativeIncrements)
	assert.Equal(t, 2, result.Stats.OutputRows)
}

func TestReconcile_GroupIndependence(t *testing.T) {
	result := Reconcile(NewTable([]RawSalesRecord{
		rawRow("D1", 10, "10"),
		rawRow("D2", 100, "10"),
		rawRow("D1", 25, "20"),
		rawRow("D2", 130, "20"),
	}))

	assert.Equal(t, []string{"D1/10=10", "D1/20=15", "D2/10=100", "D2/20=30"}, flatten(result.Rows))
}

func TestReconcile_GroupIndependenceGenerated(t *testing.T) {
	faker := gofakeit.New(7)

	for iteration := 0; iteration < 20; iteration++ {
		var rows []RawSalesRecord
		expected := make(map[string][]string)
		for _, distributor := range []string{"D1", "D2", "D3"} {
			cumulative := int64(0)
			previous := int64(0)
			for _, decade := range []string{"10", "20", "30"} {
				cumulative += int64(faker.IntRange(1, 500))
				rows = append(rows, rawRow(distributor, cumulative, decade))
				expected[distributor] = append(expected[distributor], fmt.Sprintf("%s/%s=%d", distributor, decade, cumulative-previous))
				previous = cumulative
			}
		}
		faker.ShuffleAnySlice(rows)

		result := Reconcile(NewTable(rows))
		var want []string
		for _, distributor := range []string{"D1", "D2", "D3"} {
			want = append(want, expected[distributor]...)
		}
		require.Equal(t, want, flatten(result.Rows), "iteration %d", iteration)
	}
}

func TestReconcile_DuplicatePolicy(t *testing.T) {
	rows := []RawSalesRecord{
		rawRow("D1", 10, "10"),
		rawRow("D1", 10, "10"),
		rawRow("D1", 30, "20"),
	}

	sum := Reconcile(NewTable(rows))
	assert.Equal(t, []string{"D1/10=20", "D1/20=10"}, flatten(sum.Rows))
	assert.Equal(t, 1, sum.Stats.DuplicatesMerged)

	snapshots := Reconcile(NewTable(rows), WithDuplicatePolicy(DuplicateMax))
	assert.Equal(t, []string{"D1/10=10", "D1/20=20"}, flatten(snapshots.Rows))
}

func TestReconcile_EmptyAndMissingColumns(t *testing.T) {
	empty := Reconcile(NewTable(nil))
	assert.Equal(t, OutcomeEmptyInput, empty.Stats.Outcome)
	assert.NotNil(t, empty.Rows)
	assert.Empty(t, empty.Rows)
	assert.Equal(t, OutputColumns, empty.Columns)
	assert.True(t, empty.IsEmpty())

	var columns []string
	for _, column := range RawColumns {
		if column != ColumnNewClient && column != ColumnDecade {
			columns = append(columns, column)
		}
	}
	missing := Reconcile(Table{Columns: columns, Rows: []RawSalesRecord{rawRow("D1", 10, "10")}})
	assert.Equal(t, OutcomeMissingColumn, missing.Stats.Outcome)
	assert.ElementsMatch(t, []string{ColumnNewClient, ColumnDecade}, missing.Stats.MissingColumns)
	assert.Empty(t, missing.Rows)
	assert.Equal(t, OutputColumns, missing.Columns)
}

func TestReconcile_NoDistributor(t *testing.T) {
	result := Reconcile(NewTable([]RawSalesRecord{rawRow("  ", 10, "10"), rawRow("", 20, "20")}))
	assert.Equal(t, OutcomeNoDistributor, result.Stats.Outcome)
	assert.Empty(t, result.Rows)
}

func TestReconcile_DropsUnresolvedAddresses(t *testing.T) {
	unresolved := rawRow("D1", 99, "10")
	unresolved.City, unresolved.Street, unresolved.HouseNumber = "", " ", ""

	result := Reconcile(NewTable([]RawSalesRecord{unresolved, rawRow("D1", 10, "10")}))
	assert.Equal(t, 1, result.Stats.DroppedUnresolved)
	assert.Equal(t, []string{"D1/10=10"}, flatten(result.Rows))
}

func TestReconcile_NormalizesTextColumns(t *testing.T) {
	a := rawRow(" D1 ", 10, "10")
	a.City = "Kyiv\u00a0"
	b := rawRow("D1", 25, "20")
	b.Street = "  Main  "

	result := Reconcile(NewTable([]RawSalesRecord{a, b}))
	assert.Equal(t, []string{"D1/10=10", "D1/20=15"}, flatten(result.Rows))
	assert.Equal(t, 1, result.Stats.Groups)
}

func TestReconcile_ExistingFullAddressColumn(t *testing.T) {
	a := rawRow("D1", 10, "10")
	a.FullAddress = "Склад 1"
	b := rawRow("D1", 25, "20")
	b.FullAddress = "Склад 1"
	c := rawRow("D1", 7, "10")

	table := Table{Columns: append(append([]string(nil), RawColumns...), ColumnFullAddress), Rows: []RawSalesRecord{a, b, c}}
	result := Reconcile(table)

	require.Len(t, result.Rows, 3)
	assert.Equal(t, "Kyiv, Main, 1", result.Rows[0].FullAddress, "empty values are filled from components")
	assert.Equal(t, "Склад 1", result.Rows[1].FullAddress)

	// без колонки значения пересчитываются из компонентов
	rebuilt := Reconcile(NewTable([]RawSalesRecord{a, b}))
	assert.Equal(t, "Kyiv, Main, 1", rebuilt.Rows[0].FullAddress)
}

func TestReconcile_DoesNotMutateInput(t *testing.T) {
	rows := []RawSalesRecord{rawRow(" D1 ", 10, "10")}
	Reconcile(NewTable(rows))
	assert.Equal(t, " D1 ", rows[0].Distributor)
	assert.Empty(t, rows[0].FullAddress)
}

func generatedRows(faker *gofakeit.Faker, n int) []RawSalesRecord {
	distributors := []string{"Альфа", "Бета", "Гамма"}
	products := []string{"P1", "P2", "P3", "P4"}
	cities := []string{"Київ", "Бровари", "Бориспіль"}
	decades := []string{"10", "20", "30"}

	rows := make([]RawSalesRecord, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, RawSalesRecord{
			Distributor: faker.RandomString(distributors),
			ProductName: faker.RandomString(products),
			Quantity:    decimal.NewFromInt(int64(faker.IntRange(0, 300))),
			Year:        2024,
			Month:       faker.IntRange(1, 3),
			Decade:      faker.RandomString(decades),
			City:        faker.RandomString(cities),
			Street:      faker.StreetName(),
			HouseNumber: fmt.Sprint(faker.IntRange(1, 5)),
			NewClient:   fmt.Sprintf("Клієнт %d", faker.IntRange(1, 4)),
		})
	}
	return rows
}

func TestReconcile_ParallelMatchesSequential(t *testing.T) {
	faker := gofakeit.New(42)
	table := NewTable(generatedRows(faker, 600))

	sequential := Reconcile(table)
	parallel := Reconcile(table, WithWorkers(4))

	assert.Equal(t, flatten(sequential.Rows), flatten(parallel.Rows))
	assert.Equal(t, sequential.Stats, parallel.Stats)
	assert.Greater(t, sequential.Stats.Groups, 1)
}

func TestReconcile_DeterministicOrder(t *testing.T) {
	faker := gofakeit.New(3)
	rows := generatedRows(faker, 200)
	first := Reconcile(NewTable(rows))

	faker.ShuffleAnySlice(rows)
	second := Reconcile(NewTable(rows))

	assert.Equal(t, flatten(first.Rows), flatten(second.Rows))
}

func TestReconcileContext_Cancelled(t *testing.T) {
	faker := gofakeit.New(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := ReconcileContext(ctx, NewTable(generatedRows(faker, 100)), WithWorkers(2))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, result.Rows)
}

func TestEnsureFullAddress_Idempotent(t *testing.T) {
	rows := []RawSalesRecord{rawRow("D1", 1, "10"), {City: "Kyiv", HouseNumber: "5"}, {}}

	EnsureFullAddress(rows)
	once := []string{rows[0].FullAddress, rows[1].FullAddress, rows[2].FullAddress}
	EnsureFullAddress(rows)
	twice := []string{rows[0].FullAddress, rows[1].FullAddress, rows[2].FullAddress}

	assert.Equal(t, []string{"Kyiv, Main, 1", "Kyiv, 5", ""}, once)
	assert.Equal(t, once, twice)
}

func TestParseDecade(t *testing.T) {
	tests := map[string]int{
		"10": 10, " 20 ": 20, "30.0": 30, "": 0, "abc": 0, "0": 0,
		"10.5":                  0,
		"99999999999999999999":  0,
		"-99999999999999999999": 0,
		"1e30":                  0,
	}
	for input, expected := range tests {
		assert.Equal(t, expected, ParseDecade(input), "input %q", input)
	}
}

func TestParseDuplicatePolicy(t *testing.T) {
	policy, err := ParseDuplicatePolicy("")
	require.NoError(t, err)
	assert.Equal(t, DuplicateSum, policy)

	policy, err = ParseDuplicatePolicy(" MAX ")
	require.NoError(t, err)
	assert.Equal(t, DuplicateMax, policy)

	_, err = ParseDuplicatePolicy("last")
	assert.Error(t, err)
}
