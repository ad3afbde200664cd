package models

import (
	"context"
	"time"

	"github.com/akkupratap323/warehouse-inventory/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InventoryEvent announces a committed write. Consumers re-derive what they
// need; events carry identifiers, not state.
type InventoryEvent struct {
	ID              string           `json:"id"`
	Kind            EventKind        `json:"kind"`
	OccurredAt      time.Time        `json:"occurred_at"`
	CorrelationId   string           `json:"correlation_id,omitempty"`
	TransactionId   int              `json:"transaction_id,omitempty"`
	TransactionType TransactionType  `json:"transaction_type,omitempty"`
	TotalAmount     *decimal.Decimal `json:"total_amount,omitempty"`
	ProductIds      []int            `json:"product_ids"`
}

// EventNotifier receives events after the write is durable. It must not block
// the caller on broker I/O.
type EventNotifier interface {
	Notify(ctx context.Context, event InventoryEvent)
}

type NoopNotifier struct{}

func (NoopNotifier) Notify(context.Context, InventoryEvent) {}

func newInventoryEvent(ctx context.Context, kind EventKind, at time.Time, productIds ...int) InventoryEvent {
	cid, _ := utils.GetCorrelationIdFromContext(ctx)
	return InventoryEvent{
		ID:            uuid.NewString(),
		Kind:          kind,
		OccurredAt:    at.UTC(),
		CorrelationId: cid,
		ProductIds:    productIds,
	}
}
