package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesrecon/database"
	"salesrecon/reconciliation"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const salesCSV = "distributor,new_client,product_name,quantity,city,street,house_number,year,month,decade\n" +
	"Д1,Мережа А,A,10,Київ,вул. Хрещатик,22,2024,5,10\n" +
	"Д1,Мережа А,A,25,Київ,вул. Хрещатик,22,2024,5,20\n"

func TestParseMonths(t *testing.T) {
	months, err := parseMonths("5, 6,Всі")
	require.NoError(t, err)
	assert.Equal(t, []int{5, 6}, months)

	months, err = parseMonths("")
	require.NoError(t, err)
	assert.Nil(t, months)

	_, err = parseMonths("13")
	assert.Error(t, err)
}

func TestRunReconcile_FromCSV(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "sales.csv", salesCSV)

	var out bytes.Buffer
	require.NoError(t, runReconcile(context.Background(), []string{"-in", in}, &out))

	var result reconciliation.Result
	require.NoError(t, json.Unmarshal(out.Bytes(), &result))
	assert.Equal(t, reconciliation.OutcomeOK, result.Stats.Outcome)
	require.Len(t, result.Rows, 2)
	assert.Equal(t, "10", result.Rows[0].ActualQuantity.String())
	assert.Equal(t, "15", result.Rows[1].ActualQuantity.String())
}

func TestRunReconcile_WritesXLSX(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "sales.csv", salesCSV)
	target := filepath.Join(dir, "actual.xlsx")

	require.NoError(t, runReconcile(context.Background(), []string{"-in", in, "-out", target}, &bytes.Buffer{}))
	assert.FileExists(t, target)
}

func TestRunReconcile_FlagErrors(t *testing.T) {
	ctx := context.Background()
	var out bytes.Buffer

	assert.Error(t, runReconcile(ctx, nil, &out))
	assert.Error(t, runReconcile(ctx, []string{"-in", "a.csv", "-db", "b.db"}, &out))
	assert.Error(t, runReconcile(ctx, []string{"-in", "a.csv", "-save"}, &out))
	assert.Error(t, runReconcile(ctx, []string{"-in", "a.csv", "-policy", "avg"}, &out))
}

func TestLoadReferenceAndReconcileFromDB(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "sales.db")

	golden := writeFile(t, dir, "golden.csv",
		"delivery_address,city,street,house_number,territory\n"+
			"\"Київ, Хрещатик 22\",Київ,вул. Хрещатик,22,Центр\n")
	clients := writeFile(t, dir, "clients.csv", "client,new_client\nАптека 1,Мережа А\n,пропуск\n")
	lines := writeFile(t, dir, "lines.csv", "product_code,product_line\nABC001,Лінія 1\n")

	var out bytes.Buffer
	require.NoError(t, runLoadReference(ctx, []string{
		"-db", dbPath, "-region", "Київ", "-golden", golden, "-clients", clients, "-lines", lines,
	}, &out))
	assert.Contains(t, out.String(), "golden addresses: 1")
	assert.Contains(t, out.String(), "clients: 1")
	assert.Contains(t, out.String(), "product lines: 1")

	db, err := database.NewSalesDB(dbPath)
	require.NoError(t, err)
	registry, err := db.LoadRegistry(ctx, "Київ")
	require.NoError(t, err)
	require.Len(t, registry, 1)

	table, err := reconciliationTable()
	require.NoError(t, err)
	_, err = db.InsertSales(ctx, database.SalesBatch{Region: "Київ", Adding: "2024_05", Records: table})
	require.NoError(t, err)
	require.NoError(t, db.Close())

	out.Reset()
	require.NoError(t, runReconcile(ctx, []string{"-db", dbPath, "-region", "Київ", "-months", "5", "-save"}, &out))
	assert.Contains(t, out.String(), "run_id: ")
	assert.Contains(t, out.String(), `"actual_quantity": "15"`)
}

func reconciliationTable() ([]reconciliation.RawSalesRecord, error) {
	var rows []reconciliation.RawSalesRecord
	err := json.Unmarshal([]byte(`[
		{"distributor": "Д1", "new_client": "Мережа А", "product_name": "A", "quantity": "10",
		 "city": "Київ", "street": "вул. Хрещатик", "house_number": "22", "year": 2024, "month": 5, "decade": "10"},
		{"distributor": "Д1", "new_client": "Мережа А", "product_name": "A", "quantity": "25",
		 "city": "Київ", "street": "вул. Хрещатик", "house_number": "22", "year": 2024, "month": 5, "decade": "20"}
	]`), &rows)
	return rows, err
}

func TestLoadReference_FlagErrors(t *testing.T) {
	ctx := context.Background()
	assert.Error(t, runLoadReference(ctx, nil, &bytes.Buffer{}))
	assert.Error(t, runLoadReference(ctx, []string{"-golden", "g.csv"}, &bytes.Buffer{}))
}

func TestRunImport_RequiresFileAndRegion(t *testing.T) {
	assert.Error(t, runImport(context.Background(), []string{"-file", "report.xlsx"}, &bytes.Buffer{}))
}
