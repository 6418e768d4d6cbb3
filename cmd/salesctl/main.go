package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"salesrecon/address"
	"salesrecon/database"
	"salesrecon/importer"
	"salesrecon/internal/tableio"
	"salesrecon/reconciliation"
)

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stdout)
		os.Exit(1)
	}

	ctx := context.Background()
	args := os.Args[2:]

	var err error
	switch os.Args[1] {
	case "reconcile":
		err = runReconcile(ctx, args, os.Stdout)
	case "import":
		err = runImport(ctx, args, os.Stdout)
	case "load-reference":
		err = runLoadReference(ctx, args, os.Stdout)
	case "help", "-h", "--help":
		printUsage(os.Stdout)
		return
	default:
		fmt.Printf("Unknown command: %s\n\n", os.Args[1])
		printUsage(os.Stdout)
		os.Exit(1)
	}

	if err != nil {
		log.Fatalf("%s: %v", os.Args[1], err)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "salesctl - утилита сверки декадных продаж")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage: salesctl <command> [options]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  reconcile       Сверка таблицы (-in file.csv|json) или данных БД (-db)")
	fmt.Fprintln(w, "  import          Загрузка отчета дистрибьютора в БД")
	fmt.Fprintln(w, "  load-reference  Загрузка эталонных адресов, клиентов сетей и товарных линий")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Examples:")
	fmt.Fprintln(w, "  salesctl reconcile -in sales.csv -out actual.xlsx")
	fmt.Fprintln(w, "  salesctl reconcile -db sales.db -region Київ -months 5,6 -save")
	fmt.Fprintln(w, "  salesctl import -db sales.db -region Київ -file 'Отчет 01.05.2024-31.05.2024.xlsx'")
	fmt.Fprintln(w, "  salesctl load-reference -db sales.db -region Київ -golden golden.csv -clients clients.csv")
}

// parseMonths разбирает список месяцев 1-12 через запятую
func parseMonths(value string) ([]int, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	var months []int
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" || part == database.AllValues {
			continue
		}
		month, err := strconv.Atoi(part)
		if err != nil || month < 1 || month > 12 {
			return nil, fmt.Errorf("invalid month %q", part)
		}
		months = append(months, month)
	}
	return months, nil
}

func runReconcile(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("reconcile", flag.ContinueOnError)
	fs.SetOutput(stdout)
	in := fs.String("in", "", "входная таблица (.csv или .json)")
	dbPath := fs.String("db", "", "путь к базе продаж вместо -in")
	region := fs.String("region", database.AllValues, "регион")
	territory := fs.String("territory", database.AllValues, "территория")
	productLine := fs.String("line", database.AllValues, "товарная линия")
	months := fs.String("months", "", "месяцы через запятую")
	policy := fs.String("policy", string(reconciliation.DuplicateSum), "объединение дублей: sum или max")
	workers := fs.Int("workers", 4, "число воркеров")
	out := fs.String("out", "", "файл результата (.csv или .xlsx), по умолчанию JSON в stdout")
	save := fs.Bool("save", false, "сохранить запуск в БД (только с -db)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if (*in == "") == (*dbPath == "") {
		return errors.New("exactly one of -in or -db is required")
	}
	if *save && *dbPath == "" {
		return errors.New("-save requires -db")
	}

	duplicatePolicy, err := reconciliation.ParseDuplicatePolicy(*policy)
	if err != nil {
		return err
	}
	opts := []reconciliation.Option{
		reconciliation.WithDuplicatePolicy(duplicatePolicy),
		reconciliation.WithWorkers(*workers),
	}

	var (
		table  reconciliation.Table
		db     *database.SalesDB
		filter database.SalesFilter
	)
	if *in != "" {
		table, err = tableio.ReadTable(*in)
		if err != nil {
			return err
		}
	} else {
		monthList, err := parseMonths(*months)
		if err != nil {
			return err
		}
		filter = database.SalesFilter{Region: *region, Territory: *territory, ProductLine: *productLine, Months: monthList}

		db, err = database.NewSalesDB(*dbPath)
		if err != nil {
			return err
		}
		defer db.Close()

		table, err = db.FetchAllSales(ctx, filter)
		if err != nil {
			return err
		}
	}

	result, err := reconciliation.ReconcileContext(ctx, table, opts...)
	if err != nil {
		return err
	}
	log.Printf("Сверка: %s, строк на входе %d, на выходе %d", result.Stats.Outcome, result.Stats.InputRows, result.Stats.OutputRows)

	if *save {
		runID, err := db.SaveReconcileRun(ctx, database.ReconcileRun{DuplicatePolicy: string(duplicatePolicy), Filter: filter}, result)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "run_id: %s\n", runID)
	}

	if *out != "" {
		return tableio.WriteResult(*out, result)
	}
	encoder := json.NewEncoder(stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

func runImport(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	fs.SetOutput(stdout)
	dbPath := fs.String("db", "sales.db", "путь к базе продаж")
	file := fs.String("file", "", "отчет дистрибьютора (.xlsx или .csv)")
	region := fs.String("region", "", "регион отчета")
	referencePath := fs.String("reference", "", "JSON-справочник населенных пунктов и улиц")
	dryRun := fs.Bool("dry-run", false, "только подготовить отчет без записи в БД")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" || *region == "" {
		return errors.New("-file and -region are required")
	}

	reference := address.DefaultReference()
	if *referencePath != "" {
		loaded, err := address.LoadReference(*referencePath)
		if err != nil {
			return err
		}
		reference = loaded
	}
	resolver, err := address.NewResolver(reference)
	if err != nil {
		return err
	}

	db, err := database.NewSalesDB(*dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	report, err := importer.ParseDeliveryReport(*file)
	if err != nil {
		return err
	}

	canonical, err := db.LoadRegistry(ctx, *region)
	if err != nil {
		return err
	}
	clients, err := db.LoadClientDirectory(ctx)
	if err != nil {
		return err
	}
	lines, err := db.LoadProductLines(ctx)
	if err != nil {
		return err
	}

	prepared, err := importer.Prepare(report, *region, importer.Lookups{
		Resolver:     resolver,
		Registry:     address.NewRegistry(canonical),
		Clients:      clients,
		ProductLines: lines,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "%s: строк %d, по региону %d, нераспознанных адресов %d, клиентов без сети %d\n",
		prepared.FileName, prepared.TotalRows, prepared.RegionRows,
		len(prepared.UnmatchedAddresses), len(prepared.UnmatchedClients))
	if *dryRun {
		return nil
	}

	inserted, err := db.InsertSales(ctx, database.SalesBatch{
		Region:  prepared.Region,
		Adding:  prepared.Period.Tag,
		Records: prepared.Records,
		Regions: prepared.RecordRegions,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "inserted: %d\n", inserted)
	return nil
}

func runLoadReference(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("load-reference", flag.ContinueOnError)
	fs.SetOutput(stdout)
	dbPath := fs.String("db", "sales.db", "путь к базе продаж")
	region := fs.String("region", "", "регион эталонных адресов")
	golden := fs.String("golden", "", "CSV: delivery_address,city,street,house_number,territory")
	clientsPath := fs.String("clients", "", "CSV: client,new_client")
	linesPath := fs.String("lines", "", "CSV: product_code,product_line")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *golden == "" && *clientsPath == "" && *linesPath == "" {
		return errors.New("at least one of -golden, -clients or -lines is required")
	}
	if *golden != "" && *region == "" {
		return errors.New("-golden requires -region")
	}

	db, err := database.NewSalesDB(*dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	if *golden != "" {
		records, err := tableio.ReadRecordsFile(*golden)
		if err != nil {
			return err
		}
		addresses := make([]database.GoldenAddress, 0, len(records.Rows))
		for _, row := range records.Rows {
			addresses = append(addresses, database.GoldenAddress{
				DeliveryAddress: row["delivery_address"],
				City:            row["city"],
				Street:          row["street"],
				HouseNumber:     row["house_number"],
				Territory:       row["territory"],
			})
		}
		n, err := db.UpsertGoldenAddresses(ctx, *region, addresses)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "golden addresses: %d\n", n)
	}

	if *clientsPath != "" {
		pairs, err := readPairs(*clientsPath, "client", "new_client")
		if err != nil {
			return err
		}
		n, err := db.UpsertClients(ctx, pairs)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "clients: %d\n", n)
	}

	if *linesPath != "" {
		pairs, err := readPairs(*linesPath, "product_code", "product_line")
		if err != nil {
			return err
		}
		n, err := db.UpsertProductLines(ctx, pairs)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "product lines: %d\n", n)
	}
	return nil
}

func readPairs(path, keyColumn, valueColumn string) (map[string]string, error) {
	records, err := tableio.ReadRecordsFile(path)
	if err != nil {
		return nil, err
	}
	pairs := make(map[string]string, len(records.Rows))
	for _, row := range records.Rows {
		key := strings.TrimSpace(row[keyColumn])
		if key == "" {
			continue
		}
		pairs[key] = strings.TrimSpace(row[valueColumn])
	}
	return pairs, nil
}
