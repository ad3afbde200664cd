package models

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/akkupratap323/warehouse-inventory/config"
	"github.com/akkupratap323/warehouse-inventory/utils"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	engineModule   = "models/engine.go"
	engineTracer   = "github.com/akkupratap323/warehouse-inventory/models"
	defaultCreator = "admin"
)

// InventoryEngine is the single entry point for catalog and ledger writes and
// for stock reads. Writes to the same product are serialized through the
// Locker; reads never take a lock.
type InventoryEngine struct {
	store            Store
	locker           Locker
	cache            SnapshotCache
	notifier         EventNotifier
	logger           *logrus.Logger
	tracer           trace.Tracer
	now              func() time.Time
	defaultCreatedBy string
}

type EngineOption func(*InventoryEngine)

func WithLocker(l Locker) EngineOption {
	return func(e *InventoryEngine) {
		if l != nil {
			e.locker = l
		}
	}
}

func WithSnapshotCache(c SnapshotCache) EngineOption {
	return func(e *InventoryEngine) {
		if c != nil {
			e.cache = c
		}
	}
}

func WithNotifier(n EventNotifier) EngineOption {
	return func(e *InventoryEngine) {
		if n != nil {
			e.notifier = n
		}
	}
}

func WithLogger(l *logrus.Logger) EngineOption {
	return func(e *InventoryEngine) {
		if l != nil {
			e.logger = l
		}
	}
}

func WithTracer(t trace.Tracer) EngineOption {
	return func(e *InventoryEngine) {
		if t != nil {
			e.tracer = t
		}
	}
}

func WithClock(now func() time.Time) EngineOption {
	return func(e *InventoryEngine) {
		if now != nil {
			e.now = now
		}
	}
}

func WithDefaultCreatedBy(name string) EngineOption {
	return func(e *InventoryEngine) {
		if name = strings.TrimSpace(name); name != "" {
			e.defaultCreatedBy = name
		}
	}
}

func NewInventoryEngine(store Store, opts ...EngineOption) *InventoryEngine {
	e := &InventoryEngine{
		store:            store,
		locker:           NewMemoryLocker(),
		cache:            NoopSnapshotCache{},
		notifier:         NoopNotifier{},
		logger:           config.GetLogger(),
		tracer:           otel.Tracer(engineTracer),
		now:              time.Now,
		defaultCreatedBy: defaultCreator,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *InventoryEngine) Store() Store {
	return e.store
}

func recordSpanError(span trace.Span, err error) {
	span.RecordError(err)
	if ve, ok := AsValidationError(err); ok {
		span.SetAttributes(attribute.String("inventory.error_code", string(ve.Code)))
	}
	span.SetStatus(codes.Error, err.Error())
}

// logUnexpected logs everything except domain rejections, which are the caller's problem.
func (e *InventoryEngine) logUnexpected(funcName, what string, data any, err error) {
	if _, ok := AsValidationError(err); ok {
		return
	}
	config.LogError(e.logger, engineModule, funcName, what, data, err)
}

func (e *InventoryEngine) invalidate(ctx context.Context, funcName string) {
	if err := e.cache.Invalidate(ctx); err != nil {
		config.LogError(e.logger, engineModule, funcName, "invalidate snapshot cache", nil, err)
	}
}

// SubmitTransaction validates a transaction against the catalog and the
// current stock and appends it to the ledger. Either every line is applied or
// nothing is.
func (e *InventoryEngine) SubmitTransaction(ctx context.Context, input TransactionInput) (*Transaction, error) {
	ctx, span := e.tracer.Start(ctx, "InventoryEngine.SubmitTransaction", trace.WithAttributes(
		attribute.String("inventory.transaction.type", string(input.Type)),
		attribute.Int("inventory.transaction.lines", len(input.Lines)),
	))
	defer span.End()

	txn, err := e.submitTransaction(ctx, input)
	if err != nil {
		recordSpanError(span, err)
		e.logUnexpected("SubmitTransaction", "submit transaction", input, err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("inventory.transaction.id", txn.ID))

	cid, _ := utils.GetCorrelationIdFromContext(ctx)
	source, _ := utils.GetRequestSourceFromContext(ctx)
	e.logger.WithFields(logrus.Fields{
		"module":         engineModule,
		"source":         source,
		"transaction_id": txn.ID,
		"type":           txn.Type,
		"lines":          len(txn.Lines),
		"total_amount":   txn.TotalAmount.String(),
		"correlation_id": cid,
	}).Info("transaction recorded")
	return txn, nil
}

func (e *InventoryEngine) submitTransaction(ctx context.Context, input TransactionInput) (*Transaction, error) {
	if len(input.Lines) == 0 {
		return nil, ErrEmptyTransaction
	}
	txnType, err := ParseTransactionType(string(input.Type))
	if err != nil {
		return nil, newValidationError(CodeInvalidTransactionType, "type %q must be IN, OUT or ADJ", input.Type)
	}
	input.Type = txnType
	if err := e.normalizeHeader(ctx, &input); err != nil {
		return nil, err
	}

	ids := make([]int, 0, len(input.Lines))
	for _, l := range input.Lines {
		ids = append(ids, l.ProductId)
	}
	ids = utils.UniqueSlice(ids)

	known, err := e.store.GetProductsByIds(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	if err := checkKnownProducts(input.Lines, known); err != nil {
		return nil, err
	}
	lines, err := buildLines(txnType, input.Lines)
	if err != nil {
		return nil, err
	}

	release, err := e.locker.Acquire(ctx, productLockKeys(ids))
	if err != nil {
		return nil, err
	}
	defer release()

	// A product may have been deleted between the check above and the lock.
	var stock map[int]int
	err = e.store.ReadView(ctx, func(catalog []Product, ledger []Transaction) error {
		if err := checkKnownProducts(input.Lines, catalog); err != nil {
			return err
		}
		stock = ProjectStock(ledger, nil)
		return nil
	})
	if err != nil {
		if _, ok := AsValidationError(err); ok {
			return nil, err
		}
		return nil, fmt.Errorf("read ledger: %w", err)
	}
	if err := checkSufficientStock(txnType, lines, stock); err != nil {
		return nil, err
	}

	ts := e.now().UTC()
	if input.Timestamp != nil && !input.Timestamp.IsZero() {
		ts = input.Timestamp.UTC()
	}
	txn := &Transaction{
		Timestamp: ts,
		Type:      txnType,
		Reference: input.Reference,
		Remarks:   input.Remarks,
		CreatedBy: input.CreatedBy,
		Lines:     lines,
	}
	if err := e.store.AppendTransaction(ctx, txn); err != nil {
		if errors.Is(err, utils.ErrorRecordNotFound) {
			return nil, newValidationError(CodeUnknownProduct, "a product in the transaction no longer exists")
		}
		return nil, fmt.Errorf("append transaction: %w", err)
	}
	e.invalidate(ctx, "SubmitTransaction")

	event := newInventoryEvent(ctx, EventKindTransactionRecorded, e.now(), ids...)
	event.TransactionId = txn.ID
	event.TransactionType = txn.Type
	total := txn.TotalAmount
	event.TotalAmount = &total
	e.notifier.Notify(ctx, event)

	return txn, nil
}

// normalizeHeader trims the free-text fields, fills created_by and checks lengths.
func (e *InventoryEngine) normalizeHeader(ctx context.Context, input *TransactionInput) error {
	input.Reference = strings.TrimSpace(input.Reference)
	input.Remarks = strings.TrimSpace(input.Remarks)
	input.CreatedBy = strings.TrimSpace(input.CreatedBy)
	if input.CreatedBy == "" {
		if name, ok := utils.GetUserNameFromContext(ctx); ok && strings.TrimSpace(name) != "" {
			input.CreatedBy = strings.TrimSpace(name)
		} else {
			input.CreatedBy = e.defaultCreatedBy
		}
	}
	if err := validate.Struct(input); err != nil {
		return &ValidationError{
			Code:    CodeInvalidTransaction,
			Message: utils.DescribeValidationErrors(err),
			Field:   firstInvalidField(err),
		}
	}
	return nil
}

// checkKnownProducts reports the first line whose product is not in catalog.
func checkKnownProducts(lines []TransactionLineInput, catalog []Product) error {
	present := make(map[int]bool, len(catalog))
	for _, p := range catalog {
		present[p.ID] = true
	}
	for i, l := range lines {
		if !present[l.ProductId] {
			return newLineError(CodeUnknownProduct, i, l.ProductId, "line %d: product %d does not exist", i, l.ProductId)
		}
	}
	return nil
}

func buildLines(t TransactionType, inputs []TransactionLineInput) ([]TransactionLine, error) {
	lines := make([]TransactionLine, 0, len(inputs))
	for i, in := range inputs {
		if in.Quantity <= 0 {
			ve := newLineError(CodeInvalidLineValue, i, in.ProductId, "line %d: quantity must be positive", i)
			ve.Field = "quantity"
			return nil, ve
		}
		if in.Quantity > MaxStockQuantity {
			ve := newLineError(CodeInvalidLineValue, i, in.ProductId, "line %d: quantity must not exceed %d", i, MaxStockQuantity)
			ve.Field = "quantity"
			return nil, ve
		}
		if !in.UnitCost.IsPositive() {
			ve := newLineError(CodeInvalidLineValue, i, in.ProductId, "line %d: unit_cost must be positive", i)
			ve.Field = "unit_cost"
			return nil, ve
		}
		var dir AdjustmentDirection
		switch t {
		case TransactionTypeIn:
			dir = AdjustmentIncrease
		case TransactionTypeOut:
			dir = AdjustmentDecrease
		default:
			parsed, err := ParseAdjustmentDirection(string(in.Direction))
			if err != nil {
				ve := newLineError(CodeInvalidLineValue, i, in.ProductId, "line %d: direction %q must be increase or decrease", i, in.Direction)
				ve.Field = "direction"
				return nil, ve
			}
			dir = parsed
		}
		lines = append(lines, TransactionLine{
			LineNo:    i + 1,
			ProductId: in.ProductId,
			Quantity:  in.Quantity,
			UnitCost:  in.UnitCost,
			Direction: dir,
		})
	}
	return lines, nil
}

// checkSufficientStock rejects the transaction if any product would end below
// zero or above MaxStockQuantity. Lines for the same product are netted first.
// Capacity is checked before shortfall; in both passes the lowest product id
// is reported.
func checkSufficientStock(t TransactionType, lines []TransactionLine, stock map[int]int) error {
	deltas, overflowAt := netDeltas(t, lines)
	if overflowAt >= 0 {
		l := lines[overflowAt]
		ve := newLineError(CodeInvalidLineValue, overflowAt, l.ProductId, "line %d: product %d movement is out of range", overflowAt, l.ProductId)
		ve.Field = "quantity"
		return ve
	}
	ids := make([]int, 0, len(deltas))
	for pid := range deltas {
		ids = append(ids, pid)
	}
	sort.Ints(ids)

	for _, pid := range ids {
		if deltas[pid] <= 0 {
			continue
		}
		if after, ok := addQuantity(stock[pid], deltas[pid]); ok && after <= MaxStockQuantity {
			continue
		}
		idx := firstLineFor(lines, pid)
		ve := newLineError(CodeInvalidLineValue, idx, pid,
			"product %d has %d in stock, adding %d exceeds %d", pid, stock[pid], deltas[pid], MaxStockQuantity)
		ve.Field = "quantity"
		return ve
	}

	for _, pid := range ids {
		if deltas[pid] >= 0 {
			continue
		}
		after, ok := addQuantity(stock[pid], deltas[pid])
		if ok && after >= 0 {
			continue
		}
		ve := newLineError(CodeInsufficientStock, firstLineFor(lines, pid), pid,
			"product %d has %d in stock, transaction removes %d", pid, stock[pid], -deltas[pid])
		if ok {
			ve.Shortfall = -after
		}
		return ve
	}
	return nil
}

func firstLineFor(lines []TransactionLine, productId int) int {
	for i, l := range lines {
		if l.ProductId == productId {
			return i
		}
	}
	return 0
}

// loadSnapshot serves the cached snapshot for the current generation or
// rebuilds it from one consistent read of catalog and ledger. Cache failures
// are logged and the snapshot is recomputed.
func (e *InventoryEngine) loadSnapshot(ctx context.Context) (*CachedSnapshot, error) {
	gen, genErr := e.cache.Generation(ctx)
	if genErr != nil {
		config.LogError(e.logger, engineModule, "loadSnapshot", "read cache generation", nil, genErr)
	} else {
		snap, ok, err := e.cache.Load(ctx, gen)
		if err != nil {
			config.LogError(e.logger, engineModule, "loadSnapshot", "load cached snapshot", gen, err)
		} else if ok {
			return snap, nil
		}
	}

	snap := &CachedSnapshot{Generation: gen, BuiltAt: e.now().UTC()}
	err := e.store.ReadView(ctx, func(catalog []Product, ledger []Transaction) error {
		snap.Rows = BuildSnapshot(catalog, ProjectStock(ledger, catalog))
		snap.LedgerLength = len(ledger)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read inventory: %w", err)
	}
	if genErr == nil {
		if err := e.cache.Store(ctx, snap); err != nil {
			config.LogError(e.logger, engineModule, "loadSnapshot", "store snapshot", gen, err)
		}
	}
	return snap, nil
}

// GetSnapshot returns one row per catalog product in catalog order.
func (e *InventoryEngine) GetSnapshot(ctx context.Context) ([]InventorySnapshotRow, error) {
	ctx, span := e.tracer.Start(ctx, "InventoryEngine.GetSnapshot")
	defer span.End()

	snap, err := e.loadSnapshot(ctx)
	if err != nil {
		recordSpanError(span, err)
		config.LogError(e.logger, engineModule, "GetSnapshot", "load snapshot", nil, err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("inventory.snapshot.rows", len(snap.Rows)))
	return snap.Rows, nil
}

// GetSummary aggregates the same snapshot GetSnapshot would return.
func (e *InventoryEngine) GetSummary(ctx context.Context) (SummaryData, error) {
	ctx, span := e.tracer.Start(ctx, "InventoryEngine.GetSummary")
	defer span.End()

	snap, err := e.loadSnapshot(ctx)
	if err != nil {
		recordSpanError(span, err)
		config.LogError(e.logger, engineModule, "GetSummary", "load snapshot", nil, err)
		return SummaryData{}, err
	}
	return Summarize(snap.Rows, snap.LedgerLength), nil
}

func (e *InventoryEngine) QueryInventory(ctx context.Context, criteria QueryCriteria) ([]InventorySnapshotRow, error) {
	ctx, span := e.tracer.Start(ctx, "InventoryEngine.QueryInventory", trace.WithAttributes(
		attribute.String("inventory.query.category", criteria.Category),
		attribute.String("inventory.query.sort", criteria.SortField),
	))
	defer span.End()

	// Reject bad criteria before touching the store.
	if _, err := criteria.parse(); err != nil {
		recordSpanError(span, err)
		return nil, err
	}
	snap, err := e.loadSnapshot(ctx)
	if err != nil {
		recordSpanError(span, err)
		config.LogError(e.logger, engineModule, "QueryInventory", "load snapshot", criteria, err)
		return nil, err
	}
	return QueryInventory(snap.Rows, criteria)
}

// ExportInventory reads one snapshot and returns the rows matching criteria
// together with the summary of that whole snapshot, so both describe the
// same ledger prefix.
func (e *InventoryEngine) ExportInventory(ctx context.Context, criteria QueryCriteria) ([]InventorySnapshotRow, SummaryData, error) {
	ctx, span := e.tracer.Start(ctx, "InventoryEngine.ExportInventory")
	defer span.End()

	if _, err := criteria.parse(); err != nil {
		recordSpanError(span, err)
		return nil, SummaryData{}, err
	}
	snap, err := e.loadSnapshot(ctx)
	if err != nil {
		recordSpanError(span, err)
		config.LogError(e.logger, engineModule, "ExportInventory", "load snapshot", criteria, err)
		return nil, SummaryData{}, err
	}
	rows, err := QueryInventory(snap.Rows, criteria)
	if err != nil {
		return nil, SummaryData{}, err
	}
	span.SetAttributes(attribute.Int("inventory.snapshot.rows", len(rows)))
	return rows, Summarize(snap.Rows, snap.LedgerLength), nil
}

func (e *InventoryEngine) ListProducts(ctx context.Context) ([]Product, error) {
	products, err := e.store.ListProducts(ctx)
	if err != nil {
		config.LogError(e.logger, engineModule, "ListProducts", "list products", nil, err)
		return nil, err
	}
	return products, nil
}

func (e *InventoryEngine) GetProduct(ctx context.Context, id int) (*Product, error) {
	p, err := e.store.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, utils.ErrorRecordNotFound) {
			return nil, newValidationError(CodeProductNotFound, "product %d not found", id)
		}
		config.LogError(e.logger, engineModule, "GetProduct", "get product", id, err)
		return nil, err
	}
	return p, nil
}

// Categories lists the categories in use, in order of first appearance in the catalog.
func (e *InventoryEngine) Categories(ctx context.Context) ([]Category, error) {
	products, err := e.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	return distinctCategories(products), nil
}

func (e *InventoryEngine) CreateProduct(ctx context.Context, input ProductInput) (*Product, error) {
	ctx, span := e.tracer.Start(ctx, "InventoryEngine.CreateProduct")
	defer span.End()

	if err := input.validate(); err != nil {
		recordSpanError(span, err)
		return nil, err
	}
	p := input.toProduct()
	if err := e.store.CreateProduct(ctx, &p); err != nil {
		if errors.Is(err, ErrDuplicateProductCode) {
			err = &ValidationError{Code: CodeDuplicateProductCode, Message: fmt.Sprintf("product code %q already exists", p.Code), Field: "code"}
		}
		recordSpanError(span, err)
		e.logUnexpected("CreateProduct", "create product", input, err)
		return nil, err
	}
	e.invalidate(ctx, "CreateProduct")
	e.notifier.Notify(ctx, newInventoryEvent(ctx, EventKindProductCreated, e.now(), p.ID))
	span.SetAttributes(attribute.Int("inventory.product.id", p.ID))
	return &p, nil
}

// UpdateProduct replaces a product's attributes. The code of a product that
// the ledger references cannot change.
func (e *InventoryEngine) UpdateProduct(ctx context.Context, id int, input ProductInput) (*Product, error) {
	ctx, span := e.tracer.Start(ctx, "InventoryEngine.UpdateProduct", trace.WithAttributes(
		attribute.Int("inventory.product.id", id),
	))
	defer span.End()

	p, err := e.updateProduct(ctx, id, input)
	if err != nil {
		recordSpanError(span, err)
		e.logUnexpected("UpdateProduct", "update product", input, err)
		return nil, err
	}
	return p, nil
}

func (e *InventoryEngine) updateProduct(ctx context.Context, id int, input ProductInput) (*Product, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	release, err := e.locker.Acquire(ctx, productLockKeys([]int{id}))
	if err != nil {
		return nil, err
	}
	defer release()

	existing, err := e.store.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, utils.ErrorRecordNotFound) {
			return nil, newValidationError(CodeProductNotFound, "product %d not found", id)
		}
		return nil, err
	}
	if existing.Code != input.Code {
		refs, err := e.store.CountProductReferences(ctx, id)
		if err != nil {
			return nil, err
		}
		if refs > 0 {
			return nil, &ValidationError{
				Code:      CodeImmutableProductCode,
				Message:   fmt.Sprintf("product %d is referenced by %d ledger lines; code %q cannot change", id, refs, existing.Code),
				ProductId: id,
				Field:     "code",
			}
		}
	}

	p := input.toProduct()
	p.ID = id
	if err := e.store.UpdateProduct(ctx, &p); err != nil {
		switch {
		case errors.Is(err, ErrDuplicateProductCode):
			return nil, &ValidationError{Code: CodeDuplicateProductCode, Message: fmt.Sprintf("product code %q already exists", p.Code), Field: "code"}
		case errors.Is(err, utils.ErrorRecordNotFound):
			return nil, newValidationError(CodeProductNotFound, "product %d not found", id)
		}
		return nil, err
	}
	e.invalidate(ctx, "UpdateProduct")
	e.notifier.Notify(ctx, newInventoryEvent(ctx, EventKindProductUpdated, e.now(), id))
	return &p, nil
}

// DeleteProduct removes a product that no ledger entry references.
func (e *InventoryEngine) DeleteProduct(ctx context.Context, id int) error {
	ctx, span := e.tracer.Start(ctx, "InventoryEngine.DeleteProduct", trace.WithAttributes(
		attribute.Int("inventory.product.id", id),
	))
	defer span.End()

	if err := e.deleteProduct(ctx, id); err != nil {
		recordSpanError(span, err)
		e.logUnexpected("DeleteProduct", "delete product", id, err)
		return err
	}
	return nil
}

func (e *InventoryEngine) deleteProduct(ctx context.Context, id int) error {
	release, err := e.locker.Acquire(ctx, productLockKeys([]int{id}))
	if err != nil {
		return err
	}
	defer release()

	if _, err := e.store.GetProduct(ctx, id); err != nil {
		if errors.Is(err, utils.ErrorRecordNotFound) {
			return newValidationError(CodeProductNotFound, "product %d not found", id)
		}
		return err
	}
	refs, err := e.store.CountProductReferences(ctx, id)
	if err != nil {
		return err
	}
	if refs > 0 {
		return &ValidationError{
			Code:      CodeProductInUse,
			Message:   fmt.Sprintf("product %d is referenced by %d ledger lines", id, refs),
			ProductId: id,
		}
	}
	if err := e.store.DeleteProduct(ctx, id); err != nil {
		switch {
		case errors.Is(err, ErrProductInUse):
			return &ValidationError{Code: CodeProductInUse, Message: fmt.Sprintf("product %d is referenced by ledger entries", id), ProductId: id}
		case errors.Is(err, utils.ErrorRecordNotFound):
			return newValidationError(CodeProductNotFound, "product %d not found", id)
		}
		return err
	}
	e.invalidate(ctx, "DeleteProduct")
	e.notifier.Notify(ctx, newInventoryEvent(ctx, EventKindProductDeleted, e.now(), id))
	return nil
}

// ListTransactions returns the ledger newest first, with lines enriched for display.
func (e *InventoryEngine) ListTransactions(ctx context.Context) ([]TransactionView, error) {
	ctx, span := e.tracer.Start(ctx, "InventoryEngine.ListTransactions")
	defer span.End()

	var views []TransactionView
	err := e.store.ReadView(ctx, func(catalog []Product, ledger []Transaction) error {
		products := productIndex(catalog)
		views = make([]TransactionView, 0, len(ledger))
		for i := len(ledger) - 1; i >= 0; i-- {
			views = append(views, NewTransactionView(ledger[i].clone(), products))
		}
		return nil
	})
	if err != nil {
		recordSpanError(span, err)
		config.LogError(e.logger, engineModule, "ListTransactions", "read ledger", nil, err)
		return nil, err
	}
	return views, nil
}

func (e *InventoryEngine) GetTransaction(ctx context.Context, id int) (*TransactionView, error) {
	txn, err := e.store.GetTransaction(ctx, id)
	if err != nil {
		if errors.Is(err, utils.ErrorRecordNotFound) {
			return nil, newValidationError(CodeTransactionNotFound, "transaction %d not found", id)
		}
		config.LogError(e.logger, engineModule, "GetTransaction", "get transaction", id, err)
		return nil, err
	}
	// Referenced products cannot be deleted, so every line resolves.
	products, err := e.store.GetProductsByIds(ctx, txn.ProductIds())
	if err != nil {
		config.LogError(e.logger, engineModule, "GetTransaction", "load products", id, err)
		return nil, err
	}
	view := NewTransactionView(*txn, productIndex(products))
	return &view, nil
}

func productIndex(products []Product) map[int]*Product {
	index := make(map[int]*Product, len(products))
	for i := range products {
		index[products[i].ID] = &products[i]
	}
	return index
}

// LedgerReport is the result of replaying the whole ledger.
type LedgerReport struct {
	Products          int                      `json:"products"`
	Transactions      int                      `json:"transactions"`
	Violations        []NegativeStockViolation `json:"violations"`
	UnknownProductIds []int                    `json:"unknown_product_ids"`
	Summary           SummaryData              `json:"summary"`
}

func (r LedgerReport) OK() bool {
	return len(r.Violations) == 0 && len(r.UnknownProductIds) == 0
}

// VerifyLedger replays the ledger from one consistent read and reports any
// product that went negative or any line pointing at a missing product.
func (e *InventoryEngine) VerifyLedger(ctx context.Context) (LedgerReport, error) {
	ctx, span := e.tracer.Start(ctx, "InventoryEngine.VerifyLedger")
	defer span.End()

	var report LedgerReport
	err := e.store.ReadView(ctx, func(catalog []Product, ledger []Transaction) error {
		report.Products = len(catalog)
		report.Transactions = len(ledger)
		report.Violations = FindNegativeStock(ledger)

		present := productIndex(catalog)
		missing := map[int]bool{}
		for _, t := range ledger {
			for _, l := range t.Lines {
				if present[l.ProductId] == nil && !missing[l.ProductId] {
					missing[l.ProductId] = true
					report.UnknownProductIds = append(report.UnknownProductIds, l.ProductId)
				}
			}
		}
		sort.Ints(report.UnknownProductIds)
		report.Summary = Summarize(BuildSnapshot(catalog, ProjectStock(ledger, catalog)), len(ledger))
		return nil
	})
	if err != nil {
		recordSpanError(span, err)
		config.LogError(e.logger, engineModule, "VerifyLedger", "read ledger", nil, err)
		return LedgerReport{}, err
	}
	span.SetAttributes(
		attribute.Int("inventory.verify.violations", len(report.Violations)),
		attribute.Int("inventory.verify.unknown_products", len(report.UnknownProductIds)),
	)
	return report, nil
}
