package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/akkupratap323/warehouse-inventory/config"
	"github.com/akkupratap323/warehouse-inventory/models"
	"github.com/akkupratap323/warehouse-inventory/utils"
	"github.com/akkupratap323/warehouse-inventory/workflow"
)

func main() {
	out := flag.String("out", "", "Output file (default inventory_<timestamp>.xlsx)")
	toGCS := flag.Bool("gcs", false, "Upload to GCS_BUCKET instead of writing a local file")
	search := flag.String("search", "", "Optional: name/code filter")
	category := flag.String("category", "", "Optional: category filter")
	sortField := flag.String("sort", "", "Optional: sort field (name, code, current_stock, unit_price, stock_value)")
	sortOrder := flag.String("order", "", "Optional: asc or desc")
	flag.Parse()

	logger := config.GetLogger()
	store, err := workflow.OpenStore(logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open store: %v\n", err)
		os.Exit(1)
	}
	engine := models.NewInventoryEngine(store, models.WithLogger(logger))
	ctx := context.Background()

	rows, summary, err := engine.ExportInventory(ctx, models.QueryCriteria{
		Search:    *search,
		Category:  *category,
		SortField: *sortField,
		SortOrder: *sortOrder,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "export inventory: %v\n", err)
		os.Exit(1)
	}

	var buf bytes.Buffer
	if err := models.WriteSnapshotXlsx(&buf, rows, summary); err != nil {
		fmt.Fprintf(os.Stderr, "write xlsx: %v\n", err)
		os.Exit(1)
	}

	name := strings.TrimSpace(*out)
	if name == "" {
		name = fmt.Sprintf("inventory_%s.xlsx", time.Now().UTC().Format("20060102_150405"))
	}
	if *toGCS {
		url, err := utils.UploadBytesToGCS(ctx, "exports/"+name, buf.Bytes(), utils.XlsxContentType)
		if err != nil {
			fmt.Fprintf(os.Stderr, "upload: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(url)
		return
	}
	if err := os.WriteFile(name, buf.Bytes(), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "write %s: %v\n", name, err)
		os.Exit(1)
	}
	fmt.Printf("exported %d rows to %s\n", len(rows), name)
}
