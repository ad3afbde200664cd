package models_test

import (
	"context"
	"errors"
	"io"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/akkupratap323/warehouse-inventory/models"
	"github.com/akkupratap323/warehouse-inventory/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []models.InventoryEvent
}

func (n *recordingNotifier) Notify(_ context.Context, e models.InventoryEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, e)
}

func (n *recordingNotifier) kinds() []models.EventKind {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]models.EventKind, 0, len(n.events))
	for _, e := range n.events {
		out = append(out, e.Kind)
	}
	return out
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newTestEngine(t *testing.T, opts ...models.EngineOption) (*models.InventoryEngine, *models.MemoryStore) {
	t.Helper()
	store := models.NewMemoryStore()
	opts = append([]models.EngineOption{models.WithLogger(quietLogger())}, opts...)
	return models.NewInventoryEngine(store, opts...), store
}

func mustCreateProduct(t *testing.T, engine *models.InventoryEngine, code string, price string, minStock int) *models.Product {
	t.Helper()
	p, err := engine.CreateProduct(context.Background(), models.ProductInput{
		Code:          code,
		Name:          "Product " + code,
		Category:      models.CategoryElectronics,
		UnitPrice:     decimal.RequireFromString(price),
		MinStockLevel: minStock,
	})
	if err != nil {
		t.Fatalf("CreateProduct(%s): %v", code, err)
	}
	return p
}

func line(productId, qty int, cost string) models.TransactionLineInput {
	return models.TransactionLineInput{ProductId: productId, Quantity: qty, UnitCost: decimal.RequireFromString(cost)}
}

func mustSubmit(t *testing.T, engine *models.InventoryEngine, typ models.TransactionType, lines ...models.TransactionLineInput) *models.Transaction {
	t.Helper()
	txn, err := engine.SubmitTransaction(context.Background(), models.TransactionInput{Type: typ, Lines: lines})
	if err != nil {
		t.Fatalf("SubmitTransaction(%s): %v", typ, err)
	}
	return txn
}

func stockOf(t *testing.T, engine *models.InventoryEngine, productId int) int {
	t.Helper()
	rows, err := engine.GetSnapshot(context.Background())
	if err != nil {
		t.Fatalf("GetSnapshot: %v", err)
	}
	for _, r := range rows {
		if r.Product.ID == productId {
			return r.CurrentStock
		}
	}
	t.Fatalf("product %d missing from snapshot", productId)
	return 0
}

func expectCode(t *testing.T, err error, code models.ErrorCode) *models.ValidationError {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s, got nil", code)
	}
	ve, ok := models.AsValidationError(err)
	if !ok {
		t.Fatalf("expected ValidationError %s, got %T: %v", code, err, err)
	}
	if ve.Code != code {
		t.Fatalf("expected code %s, got %s (%s)", code, ve.Code, ve.Message)
	}
	return ve
}

func TestSubmitTransactionComputesTotalAmount(t *testing.T) {
	engine, _ := newTestEngine(t)
	a := mustCreateProduct(t, engine, "A-1", "12.00", 0)
	b := mustCreateProduct(t, engine, "B-1", "7.00", 0)

	txn := mustSubmit(t, engine, models.TransactionTypeIn, line(a.ID, 3, "10.00"), line(b.ID, 2, "5.50"))

	if !txn.TotalAmount.Equal(decimal.RequireFromString("41.00")) {
		t.Fatalf("expected total 41.00, got %s", txn.TotalAmount)
	}
	if txn.ID != 1 {
		t.Fatalf("expected first transaction id 1, got %d", txn.ID)
	}
	if len(txn.Lines) != 2 || txn.Lines[0].LineNo != 1 || txn.Lines[1].LineNo != 2 {
		t.Fatalf("unexpected lines: %+v", txn.Lines)
	}
	for _, l := range txn.Lines {
		if l.Direction != models.AdjustmentIncrease {
			t.Fatalf("IN line stored with direction %q", l.Direction)
		}
	}
}

func TestLowStockAfterInAndOut(t *testing.T) {
	engine, _ := newTestEngine(t)
	a := mustCreateProduct(t, engine, "A", "4.50", 5)

	mustSubmit(t, engine, models.TransactionTypeIn, line(a.ID, 10, "2.00"))
	mustSubmit(t, engine, models.TransactionTypeOut, line(a.ID, 7, "2.00"))

	rows, err := engine.GetSnapshot(context.Background())
	if err != nil {
		t.Fatalf("GetSnapshot: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	r := rows[0]
	if r.CurrentStock != 3 {
		t.Fatalf("expected stock 3, got %d", r.CurrentStock)
	}
	if !r.IsLowStock {
		t.Fatalf("expected low stock at 3 <= 5")
	}
	if !r.StockValue.Equal(decimal.RequireFromString("13.50")) {
		t.Fatalf("expected stock value 13.50, got %s", r.StockValue)
	}

	summary, err := engine.GetSummary(context.Background())
	if err != nil {
		t.Fatalf("GetSummary: %v", err)
	}
	if summary.TotalProducts != 1 || summary.LowStockItems != 1 || summary.TotalTransactions != 2 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if !summary.TotalStockValue.Equal(decimal.RequireFromString("13.50")) {
		t.Fatalf("expected total stock value 13.50, got %s", summary.TotalStockValue)
	}
}

func TestSubmitRejectsInsufficientStock(t *testing.T) {
	engine, store := newTestEngine(t)
	a := mustCreateProduct(t, engine, "A", "1.00", 0)
	mustSubmit(t, engine, models.TransactionTypeIn, line(a.ID, 3, "1.00"))

	_, err := engine.SubmitTransaction(context.Background(), models.TransactionInput{
		Type:  models.TransactionTypeOut,
		Lines: []models.TransactionLineInput{line(a.ID, 100, "1.00")},
	})
	ve := expectCode(t, err, models.CodeInsufficientStock)
	if ve.ProductId != a.ID || ve.Shortfall != 97 {
		t.Fatalf("expected product %d shortfall 97, got product %d shortfall %d", a.ID, ve.ProductId, ve.Shortfall)
	}
	if ve.LineIndex == nil || *ve.LineIndex != 0 {
		t.Fatalf("expected line index 0, got %v", ve.LineIndex)
	}
	if !errors.Is(err, models.ErrInsufficientStock) {
		t.Fatalf("errors.Is should match the sentinel")
	}

	n, _ := store.CountTransactions(context.Background())
	if n != 1 {
		t.Fatalf("ledger length changed: %d", n)
	}
	if got := stockOf(t, engine, a.ID); got != 3 {
		t.Fatalf("stock changed to %d", got)
	}
}

func TestSubmitNetsLinesForSameProduct(t *testing.T) {
	engine, _ := newTestEngine(t)
	a := mustCreateProduct(t, engine, "A", "1.00", 0)
	b := mustCreateProduct(t, engine, "B", "1.00", 0)
	mustSubmit(t, engine, models.TransactionTypeIn, line(a.ID, 5, "1.00"), line(b.ID, 5, "1.00"))

	_, err := engine.SubmitTransaction(context.Background(), models.TransactionInput{
		Type:  models.TransactionTypeOut,
		Lines: []models.TransactionLineInput{line(b.ID, 1, "1.00"), line(a.ID, 3, "1.00"), line(a.ID, 3, "1.00")},
	})
	ve := expectCode(t, err, models.CodeInsufficientStock)
	if ve.ProductId != a.ID || ve.Shortfall != 1 {
		t.Fatalf("expected product %d shortfall 1, got %+v", a.ID, ve)
	}
	if *ve.LineIndex != 1 {
		t.Fatalf("expected first line of the product (1), got %d", *ve.LineIndex)
	}
	if got := stockOf(t, engine, b.ID); got != 5 {
		t.Fatalf("rejected transaction applied a line: stock of B is %d", got)
	}
}

func TestSubmitValidationOrder(t *testing.T) {
	engine, _ := newTestEngine(t)
	a := mustCreateProduct(t, engine, "A", "1.00", 0)

	cases := []struct {
		name  string
		input models.TransactionInput
		code  models.ErrorCode
		line  int
	}{
		{
			name:  "no lines",
			input: models.TransactionInput{Type: models.TransactionTypeIn},
			code:  models.CodeEmptyTransaction,
			line:  -1,
		},
		{
			name:  "bad type",
			input: models.TransactionInput{Type: "MOVE", Lines: []models.TransactionLineInput{line(a.ID, 1, "1")}},
			code:  models.CodeInvalidTransactionType,
			line:  -1,
		},
		{
			name: "reference too long",
			input: models.TransactionInput{
				Type:      models.TransactionTypeIn,
				Reference: strings.Repeat("r", 101),
				Lines:     []models.TransactionLineInput{line(a.ID, 1, "1")},
			},
			code: models.CodeInvalidTransaction,
			line: -1,
		},
		{
			name:  "unknown product reported before bad quantity",
			input: models.TransactionInput{Type: models.TransactionTypeIn, Lines: []models.TransactionLineInput{line(a.ID, 0, "1"), line(999, 1, "1")}},
			code:  models.CodeUnknownProduct,
			line:  1,
		},
		{
			name:  "zero quantity",
			input: models.TransactionInput{Type: models.TransactionTypeIn, Lines: []models.TransactionLineInput{line(a.ID, 1, "1"), line(a.ID, 0, "1")}},
			code:  models.CodeInvalidLineValue,
			line:  1,
		},
		{
			name:  "negative cost",
			input: models.TransactionInput{Type: models.TransactionTypeIn, Lines: []models.TransactionLineInput{line(a.ID, 1, "-1")}},
			code:  models.CodeInvalidLineValue,
			line:  0,
		},
		{
			name: "bad adjustment direction",
			input: models.TransactionInput{Type: models.TransactionTypeAdjustment, Lines: []models.TransactionLineInput{
				{ProductId: a.ID, Quantity: 1, UnitCost: decimal.NewFromInt(1), Direction: "sideways"},
			}},
			code: models.CodeInvalidLineValue,
			line: 0,
		},
		{
			name:  "out with no stock",
			input: models.TransactionInput{Type: models.TransactionTypeOut, Lines: []models.TransactionLineInput{line(a.ID, 1, "1")}},
			code:  models.CodeInsufficientStock,
			line:  0,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := engine.SubmitTransaction(context.Background(), tc.input)
			ve := expectCode(t, err, tc.code)
			if tc.line < 0 {
				if ve.LineIndex != nil {
					t.Fatalf("expected no line index, got %d", *ve.LineIndex)
				}
				return
			}
			if ve.LineIndex == nil || *ve.LineIndex != tc.line {
				t.Fatalf("expected line index %d, got %v", tc.line, ve.LineIndex)
			}
		})
	}

	summary, err := engine.GetSummary(context.Background())
	if err != nil {
		t.Fatalf("GetSummary: %v", err)
	}
	if summary.TotalTransactions != 0 {
		t.Fatalf("rejected transactions reached the ledger: %d", summary.TotalTransactions)
	}
}

func TestAdjustmentDirections(t *testing.T) {
	engine, _ := newTestEngine(t)
	a := mustCreateProduct(t, engine, "A", "1.00", 0)

	mustSubmit(t, engine, models.TransactionTypeAdjustment, line(a.ID, 4, "1.00"))
	if got := stockOf(t, engine, a.ID); got != 4 {
		t.Fatalf("expected default increase to 4, got %d", got)
	}

	dec := models.TransactionLineInput{ProductId: a.ID, Quantity: 3, UnitCost: decimal.NewFromInt(1), Direction: models.AdjustmentDecrease}
	mustSubmit(t, engine, models.TransactionTypeAdjustment, dec)
	if got := stockOf(t, engine, a.ID); got != 1 {
		t.Fatalf("expected decrease to 1, got %d", got)
	}

	_, err := engine.SubmitTransaction(context.Background(), models.TransactionInput{
		Type:  models.TransactionTypeAdjustment,
		Lines: []models.TransactionLineInput{dec},
	})
	ve := expectCode(t, err, models.CodeInsufficientStock)
	if ve.Shortfall != 2 {
		t.Fatalf("expected shortfall 2, got %d", ve.Shortfall)
	}
}

func TestSubmitTransactionHeaderDefaults(t *testing.T) {
	fixed := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	engine, _ := newTestEngine(t, models.WithClock(func() time.Time { return fixed }), models.WithDefaultCreatedBy("system"))
	a := mustCreateProduct(t, engine, "A", "1.00", 0)

	txn := mustSubmit(t, engine, models.TransactionTypeIn, line(a.ID, 1, "1"))
	if !txn.Timestamp.Equal(fixed) {
		t.Fatalf("expected clock timestamp %s, got %s", fixed, txn.Timestamp)
	}
	if txn.CreatedBy != "system" {
		t.Fatalf("expected default created_by, got %q", txn.CreatedBy)
	}

	supplied := time.Date(2025, 12, 31, 23, 0, 0, 0, time.FixedZone("MMT", 6*3600+1800))
	ctx := utils.SetUserNameInContext(context.Background(), "clerk")
	txn, err := engine.SubmitTransaction(ctx, models.TransactionInput{
		Timestamp: &supplied,
		Type:      "in",
		Reference: "  PO-7  ",
		Lines:     []models.TransactionLineInput{line(a.ID, 1, "1")},
	})
	if err != nil {
		t.Fatalf("SubmitTransaction: %v", err)
	}
	if !txn.Timestamp.Equal(supplied) || txn.Timestamp.Location() != time.UTC {
		t.Fatalf("expected caller timestamp in UTC, got %s", txn.Timestamp)
	}
	if txn.CreatedBy != "clerk" || txn.Reference != "PO-7" || txn.Type != models.TransactionTypeIn {
		t.Fatalf("unexpected header: %+v", txn)
	}
}

func TestDeleteProductInUse(t *testing.T) {
	engine, _ := newTestEngine(t)
	used := mustCreateProduct(t, engine, "USED", "1.00", 0)
	unused := mustCreateProduct(t, engine, "FREE", "1.00", 0)
	mustSubmit(t, engine, models.TransactionTypeIn, line(used.ID, 1, "1"))

	if err := engine.DeleteProduct(context.Background(), unused.ID); err != nil {
		t.Fatalf("DeleteProduct(unreferenced): %v", err)
	}
	ve := expectCode(t, engine.DeleteProduct(context.Background(), used.ID), models.CodeProductInUse)
	if ve.ProductId != used.ID {
		t.Fatalf("expected product id %d, got %d", used.ID, ve.ProductId)
	}
	expectCode(t, engine.DeleteProduct(context.Background(), unused.ID), models.CodeProductNotFound)

	products, err := engine.ListProducts(context.Background())
	if err != nil {
		t.Fatalf("ListProducts: %v", err)
	}
	if len(products) != 1 || products[0].ID != used.ID {
		t.Fatalf("unexpected catalog after delete: %+v", products)
	}
}

func TestUpdateProduct(t *testing.T) {
	engine, _ := newTestEngine(t)
	a := mustCreateProduct(t, engine, "A", "1.00", 0)
	b := mustCreateProduct(t, engine, "B", "1.00", 0)

	input := models.ProductInput{Code: "A2", Name: "Renamed", Category: "Books", UnitPrice: decimal.NewFromInt(3), MinStockLevel: 2}
	p, err := engine.UpdateProduct(context.Background(), a.ID, input)
	if err != nil {
		t.Fatalf("UpdateProduct: %v", err)
	}
	if p.Code != "A2" || p.Category != models.CategoryBooks || p.MinStockLevel != 2 {
		t.Fatalf("unexpected product: %+v", p)
	}

	input.Code = "b"
	expectCode(t, func() error { _, err := engine.UpdateProduct(context.Background(), a.ID, input); return err }(), models.CodeDuplicateProductCode)

	mustSubmit(t, engine, models.TransactionTypeIn, line(b.ID, 1, "1"))
	same := models.ProductInput{Code: "B", Name: "Still B", Category: "other", UnitPrice: decimal.NewFromInt(2)}
	if _, err := engine.UpdateProduct(context.Background(), b.ID, same); err != nil {
		t.Fatalf("updating a referenced product without changing code: %v", err)
	}
	same.Code = "B-NEW"
	_, err = engine.UpdateProduct(context.Background(), b.ID, same)
	expectCode(t, err, models.CodeImmutableProductCode)

	_, err = engine.UpdateProduct(context.Background(), 404, same)
	expectCode(t, err, models.CodeProductNotFound)
}

func TestCreateProductValidation(t *testing.T) {
	engine, _ := newTestEngine(t)
	mustCreateProduct(t, engine, "SKU-1", "1.00", 0)

	cases := []struct {
		name  string
		input models.ProductInput
		code  models.ErrorCode
		field string
	}{
		{"blank code", models.ProductInput{Code: "  ", Name: "x", Category: "food", UnitPrice: decimal.NewFromInt(1)}, models.CodeInvalidProduct, "code"},
		{"unknown category", models.ProductInput{Code: "X", Name: "x", Category: "toys", UnitPrice: decimal.NewFromInt(1)}, models.CodeInvalidProduct, "category"},
		{"zero price", models.ProductInput{Code: "X", Name: "x", Category: "food"}, models.CodeInvalidProduct, "unit_price"},
		{"negative min stock", models.ProductInput{Code: "X", Name: "x", Category: "food", UnitPrice: decimal.NewFromInt(1), MinStockLevel: -1}, models.CodeInvalidProduct, "min_stock_level"},
		{"duplicate code ignoring case", models.ProductInput{Code: "sku-1", Name: "x", Category: "food", UnitPrice: decimal.NewFromInt(1)}, models.CodeDuplicateProductCode, "code"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := engine.CreateProduct(context.Background(), tc.input)
			ve := expectCode(t, err, tc.code)
			if ve.Field != tc.field {
				t.Fatalf("expected field %q, got %q", tc.field, ve.Field)
			}
		})
	}
}

func TestSnapshotCacheInvalidatedByWrites(t *testing.T) {
	cache := models.NewMemorySnapshotCache()
	engine, _ := newTestEngine(t, models.WithSnapshotCache(cache))
	a := mustCreateProduct(t, engine, "A", "2.00", 0)

	if got := stockOf(t, engine, a.ID); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
	gen, _ := cache.Generation(context.Background())
	if _, ok, _ := cache.Load(context.Background(), gen); !ok {
		t.Fatalf("snapshot was not cached")
	}

	mustSubmit(t, engine, models.TransactionTypeIn, line(a.ID, 6, "2"))
	if got := stockOf(t, engine, a.ID); got != 6 {
		t.Fatalf("stale snapshot served after write: %d", got)
	}

	b := mustCreateProduct(t, engine, "B", "2.00", 0)
	summary, err := engine.GetSummary(context.Background())
	if err != nil {
		t.Fatalf("GetSummary: %v", err)
	}
	if summary.TotalProducts != 2 {
		t.Fatalf("catalog write did not invalidate snapshot: %+v", summary)
	}
	if err := engine.DeleteProduct(context.Background(), b.ID); err != nil {
		t.Fatalf("DeleteProduct: %v", err)
	}
	summary, _ = engine.GetSummary(context.Background())
	if summary.TotalProducts != 1 || summary.TotalTransactions != 1 {
		t.Fatalf("unexpected summary after delete: %+v", summary)
	}
}

func TestNotifierReceivesCommittedWrites(t *testing.T) {
	notifier := &recordingNotifier{}
	engine, _ := newTestEngine(t, models.WithNotifier(notifier))
	a := mustCreateProduct(t, engine, "A", "1.00", 0)
	txn := mustSubmit(t, engine, models.TransactionTypeIn, line(a.ID, 2, "1.25"))
	_, _ = engine.SubmitTransaction(context.Background(), models.TransactionInput{Type: models.TransactionTypeOut, Lines: []models.TransactionLineInput{line(a.ID, 9, "1")}})

	kinds := notifier.kinds()
	want := []models.EventKind{models.EventKindProductCreated, models.EventKindTransactionRecorded}
	if len(kinds) != len(want) {
		t.Fatalf("expected events %v, got %v", want, kinds)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("expected events %v, got %v", want, kinds)
		}
	}
	ev := notifier.events[1]
	if ev.TransactionId != txn.ID || ev.TotalAmount == nil || !ev.TotalAmount.Equal(decimal.RequireFromString("2.50")) {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if ev.ID == "" || len(ev.ProductIds) != 1 || ev.ProductIds[0] != a.ID {
		t.Fatalf("unexpected event identity: %+v", ev)
	}
}

func TestListTransactionsNewestFirst(t *testing.T) {
	engine, _ := newTestEngine(t)
	a := mustCreateProduct(t, engine, "A-CODE", "1.00", 0)
	first := mustSubmit(t, engine, models.TransactionTypeIn, line(a.ID, 5, "1.00"))
	second := mustSubmit(t, engine, models.TransactionTypeOut, line(a.ID, 2, "1.50"))

	views, err := engine.ListTransactions(context.Background())
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	if len(views) != 2 || views[0].ID != second.ID || views[1].ID != first.ID {
		t.Fatalf("expected newest first, got %+v", views)
	}
	lv := views[0].Lines[0]
	if lv.ProductCode != "A-CODE" || lv.ProductName != "Product A-CODE" || !lv.TotalCost.Equal(decimal.RequireFromString("3")) {
		t.Fatalf("unexpected line view: %+v", lv)
	}

	view, err := engine.GetTransaction(context.Background(), first.ID)
	if err != nil {
		t.Fatalf("GetTransaction: %v", err)
	}
	if !view.TotalAmount.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("expected total 5, got %s", view.TotalAmount)
	}
	_, err = engine.GetTransaction(context.Background(), 99)
	expectCode(t, err, models.CodeTransactionNotFound)
}

func TestCategoriesInFirstAppearanceOrder(t *testing.T) {
	engine, _ := newTestEngine(t)
	for _, in := range []models.ProductInput{
		{Code: "1", Name: "n", Category: "food", UnitPrice: decimal.NewFromInt(1)},
		{Code: "2", Name: "n", Category: "books", UnitPrice: decimal.NewFromInt(1)},
		{Code: "3", Name: "n", Category: "food", UnitPrice: decimal.NewFromInt(1)},
	} {
		if _, err := engine.CreateProduct(context.Background(), in); err != nil {
			t.Fatalf("CreateProduct: %v", err)
		}
	}
	cats, err := engine.Categories(context.Background())
	if err != nil {
		t.Fatalf("Categories: %v", err)
	}
	if len(cats) != 2 || cats[0] != models.CategoryFood || cats[1] != models.CategoryBooks {
		t.Fatalf("unexpected categories: %v", cats)
	}
}

func TestConcurrentOutNeverOverdraws(t *testing.T) {
	engine, _ := newTestEngine(t, models.WithSnapshotCache(models.NewMemorySnapshotCache()))
	a := mustCreateProduct(t, engine, "A", "1.00", 0)
	b := mustCreateProduct(t, engine, "B", "1.00", 0)
	mustSubmit(t, engine, models.TransactionTypeIn, line(a.ID, 10, "1"), line(b.ID, 10, "1"))

	const workers = 30
	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted, rejected := 0, 0
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			lines := []models.TransactionLineInput{line(a.ID, 1, "1")}
			if i%2 == 0 {
				lines = append(lines, line(b.ID, 1, "1"))
			}
			_, err := engine.SubmitTransaction(context.Background(), models.TransactionInput{Type: models.TransactionTypeOut, Lines: lines})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				accepted++
			case errors.Is(err, models.ErrInsufficientStock):
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
		// readers run alongside writers
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = engine.GetSummary(context.Background())
		}()
	}
	wg.Wait()

	if accepted != 10 || rejected != workers-10 {
		t.Fatalf("expected 10 accepted, got %d accepted and %d rejected", accepted, rejected)
	}
	if got := stockOf(t, engine, a.ID); got != 0 {
		t.Fatalf("expected stock 0, got %d", got)
	}
	if got := stockOf(t, engine, b.ID); got < 0 {
		t.Fatalf("stock of B went negative: %d", got)
	}
	report, err := engine.VerifyLedger(context.Background())
	if err != nil {
		t.Fatalf("VerifyLedger: %v", err)
	}
	if !report.OK() {
		t.Fatalf("ledger violations: %+v", report)
	}
}

func TestQueryInventoryThroughEngine(t *testing.T) {
	engine, _ := newTestEngine(t)
	mustCreateProduct(t, engine, "ZED", "1.00", 0)
	mustCreateProduct(t, engine, "ALPHA", "1.00", 0)

	rows, err := engine.QueryInventory(context.Background(), models.QueryCriteria{SortField: "code"})
	if err != nil {
		t.Fatalf("QueryInventory: %v", err)
	}
	if len(rows) != 2 || rows[0].Product.Code != "ALPHA" {
		t.Fatalf("unexpected order: %+v", rows)
	}
	rows, err = engine.QueryInventory(context.Background(), models.QueryCriteria{Category: "toys"})
	if err != nil || len(rows) != 0 {
		t.Fatalf("expected no rows for unknown category, got %d rows, err %v", len(rows), err)
	}
	_, err = engine.QueryInventory(context.Background(), models.QueryCriteria{SortField: "weight"})
	expectCode(t, err, models.CodeInvalidQuery)
}

func TestSubmitRejectsQuantitiesBeyondStockCap(t *testing.T) {
	engine, _ := newTestEngine(t)
	a := mustCreateProduct(t, engine, "CAP-A", "1.00", 0)
	b := mustCreateProduct(t, engine, "CAP-B", "1.00", 0)
	ctx := context.Background()

	_, err := engine.SubmitTransaction(ctx, models.TransactionInput{
		Type:  models.TransactionTypeOut,
		Lines: []models.TransactionLineInput{line(a.ID, math.MaxInt, "1"), line(a.ID, math.MaxInt, "1")},
	})
	ve := expectCode(t, err, models.CodeInvalidLineValue)
	if ve.Field != "quantity" || ve.LineIndex == nil || *ve.LineIndex != 0 {
		t.Fatalf("expected quantity error on line 0, got %+v", ve)
	}

	_, err = engine.SubmitTransaction(ctx, models.TransactionInput{
		Type:  models.TransactionTypeOut,
		Lines: []models.TransactionLineInput{line(a.ID, models.MaxStockQuantity, "1"), line(a.ID, models.MaxStockQuantity, "1")},
	})
	ve = expectCode(t, err, models.CodeInsufficientStock)
	if ve.Shortfall != 2*models.MaxStockQuantity {
		t.Fatalf("expected shortfall %d, got %d", 2*models.MaxStockQuantity, ve.Shortfall)
	}
	if got := stockOf(t, engine, a.ID); got != 0 {
		t.Fatalf("rejected OUT changed stock to %d", got)
	}

	_, err = engine.SubmitTransaction(ctx, models.TransactionInput{
		Type:  models.TransactionTypeIn,
		Lines: []models.TransactionLineInput{line(b.ID, models.MaxStockQuantity, "1"), line(b.ID, 1, "1")},
	})
	ve = expectCode(t, err, models.CodeInvalidLineValue)
	if ve.Field != "quantity" || ve.ProductId != b.ID {
		t.Fatalf("expected quantity error for product %d, got %+v", b.ID, ve)
	}

	mustSubmit(t, engine, models.TransactionTypeIn, line(b.ID, models.MaxStockQuantity, "1"))
	_, err = engine.SubmitTransaction(ctx, models.TransactionInput{
		Type:  models.TransactionTypeIn,
		Lines: []models.TransactionLineInput{line(b.ID, 1, "1")},
	})
	expectCode(t, err, models.CodeInvalidLineValue)
	_, err = engine.SubmitTransaction(ctx, models.TransactionInput{
		Type:  models.TransactionTypeAdjustment,
		Lines: []models.TransactionLineInput{{ProductId: b.ID, Quantity: 1, UnitCost: decimal.NewFromInt(1), Direction: models.AdjustmentIncrease}},
	})
	expectCode(t, err, models.CodeInvalidLineValue)

	if got := stockOf(t, engine, b.ID); got != models.MaxStockQuantity {
		t.Fatalf("expected stock %d, got %d", models.MaxStockQuantity, got)
	}
	summary, err := engine.GetSummary(ctx)
	if err != nil {
		t.Fatalf("GetSummary: %v", err)
	}
	if !summary.TotalStockValue.Equal(decimal.NewFromInt(models.MaxStockQuantity)) {
		t.Fatalf("unexpected stock value %s", summary.TotalStockValue)
	}

	mustSubmit(t, engine, models.TransactionTypeOut, line(b.ID, models.MaxStockQuantity, "1"))
	if got := stockOf(t, engine, b.ID); got != 0 {
		t.Fatalf("expected stock 0 after draining, got %d", got)
	}
}

// commitAfterReadStore appends a transaction straight to the inner store right
// after the first read view completes once armed.
type commitAfterReadStore struct {
	*models.MemoryStore
	armed     bool
	productId int
	reads     int
}

func (s *commitAfterReadStore) ReadView(ctx context.Context, fn models.ReadViewFunc) error {
	err := s.MemoryStore.ReadView(ctx, fn)
	if !s.armed {
		return err
	}
	s.reads++
	if s.reads == 1 {
		txn := &models.Transaction{
			Timestamp: time.Now().UTC(),
			Type:      models.TransactionTypeIn,
			CreatedBy: "other",
			Lines:     []models.TransactionLine{{LineNo: 1, ProductId: s.productId, Quantity: 3, UnitCost: decimal.NewFromInt(1)}},
		}
		if appendErr := s.MemoryStore.AppendTransaction(ctx, txn); appendErr != nil {
			return appendErr
		}
	}
	return err
}

func TestExportInventoryReadsOneLedgerPrefix(t *testing.T) {
	store := &commitAfterReadStore{MemoryStore: models.NewMemoryStore()}
	engine := models.NewInventoryEngine(store, models.WithLogger(quietLogger()))
	a := mustCreateProduct(t, engine, "EXP-A", "2.00", 0)
	mustCreateProduct(t, engine, "EXP-B", "5.00", 0)
	mustSubmit(t, engine, models.TransactionTypeIn, line(a.ID, 5, "1"))

	store.productId = a.ID
	store.armed = true
	rows, summary, err := engine.ExportInventory(context.Background(), models.QueryCriteria{Search: "EXP-A"})
	if err != nil {
		t.Fatalf("ExportInventory: %v", err)
	}
	if store.reads != 1 {
		t.Fatalf("expected one read view, got %d", store.reads)
	}
	if len(rows) != 1 || rows[0].CurrentStock != 5 {
		t.Fatalf("unexpected rows: %+v", rows)
	}
	if summary.TotalProducts != 2 || summary.TotalTransactions != 1 || !summary.TotalStockValue.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("summary does not match the exported rows: %+v", summary)
	}

	store.armed = false
	if got := stockOf(t, engine, a.ID); got != 8 {
		t.Fatalf("expected the concurrent IN to land afterwards, stock %d", got)
	}
}
