package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/akkupratap323/warehouse-inventory/config"
	"github.com/akkupratap323/warehouse-inventory/models"
	"github.com/akkupratap323/warehouse-inventory/utils"
	"github.com/akkupratap323/warehouse-inventory/workflow"
)

func main() {
	file := flag.String("file", "", "Required: XLSX file with code, name, category, unit_price columns")
	dryRun := flag.Bool("dry-run", false, "Parse and report rows without creating products")
	continueOnError := flag.Bool("continue-on-error", false, "Exit 0 even when some rows fail")
	flag.Parse()

	if strings.TrimSpace(*file) == "" {
		fmt.Fprintln(os.Stderr, "--file is required")
		os.Exit(1)
	}
	f, err := os.Open(*file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open %s: %v\n", *file, err)
		os.Exit(1)
	}
	defer f.Close()

	rows, err := models.ReadProductsXlsx(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read sheet: %v\n", err)
		os.Exit(1)
	}
	if *dryRun {
		bad := 0
		for _, r := range rows {
			if r.Err != nil {
				bad++
				fmt.Printf("row %d: %v\n", r.Row, r.Err)
			}
		}
		fmt.Printf("parsed %d rows, %d unreadable\n", len(rows), bad)
		return
	}

	logger := config.GetLogger()
	store, err := workflow.OpenStore(logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open store: %v\n", err)
		os.Exit(1)
	}
	engine := models.NewInventoryEngine(store, models.WithLogger(logger))

	ctx := utils.SetRequestSourceInContext(context.Background(), "import")
	result, err := engine.ImportProducts(ctx, rows)
	if err != nil {
		fmt.Fprintf(os.Stderr, "import aborted after %d products: %v\n", len(result.Created), err)
		os.Exit(1)
	}
	for _, failed := range result.Failed {
		fmt.Printf("row %d: %s %s\n", failed.Row, failed.Code, failed.Message)
	}
	fmt.Printf("created %d products, %d rows failed\n", len(result.Created), len(result.Failed))
	if len(result.Failed) > 0 && !*continueOnError {
		os.Exit(2)
	}
}
