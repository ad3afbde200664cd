package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/akkupratap323/warehouse-inventory/config"
	"github.com/akkupratap323/warehouse-inventory/models"
	"github.com/akkupratap323/warehouse-inventory/workflow"
)

// inventory-verify replays the whole ledger and exits 2 when any product
// went negative or a line points at a missing product.
func main() {
	asJSON := flag.Bool("json", false, "Print the report as JSON")
	flag.Parse()

	logger := config.GetLogger()
	store, err := workflow.OpenStore(logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open store: %v\n", err)
		os.Exit(1)
	}
	engine := models.NewInventoryEngine(store, models.WithLogger(logger))

	report, err := engine.VerifyLedger(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "verify ledger: %v\n", err)
		os.Exit(1)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(report)
	} else {
		fmt.Printf("products=%d transactions=%d total_stock_value=%s low_stock_items=%d\n",
			report.Products, report.Transactions, report.Summary.TotalStockValue.StringFixed(2), report.Summary.LowStockItems)
		for _, v := range report.Violations {
			fmt.Printf("NEGATIVE product=%d transaction=%d stock=%d\n", v.ProductId, v.TransactionId, v.Stock)
		}
		for _, id := range report.UnknownProductIds {
			fmt.Printf("UNKNOWN product=%d\n", id)
		}
	}

	if !report.OK() {
		os.Exit(2)
	}
	if !*asJSON {
		fmt.Println("ledger verified")
	}
}
