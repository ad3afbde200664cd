package workflow

import (
	"context"
	"time"

	"github.com/akkupratap323/warehouse-inventory/models"
	"github.com/akkupratap323/warehouse-inventory/utils"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const defaultDispatchBuffer = 256

var _ models.EventNotifier = (*Dispatcher)(nil)

// Dispatcher hands committed inventory events to a Publisher from a single
// goroutine. Notify never blocks: when the buffer is full the event is dropped
// and logged, since consumers re-derive state from the ledger.
type Dispatcher struct {
	Publisher    Publisher
	Logger       *logrus.Logger
	DispatcherID string

	MaxAttempts    int
	InitialBackoff time.Duration

	events chan queuedEvent
}

type queuedEvent struct {
	event         models.InventoryEvent
	correlationId string
}

func NewDispatcher(publisher Publisher, logger *logrus.Logger, buffer int) *Dispatcher {
	if buffer <= 0 {
		buffer = defaultDispatchBuffer
	}
	return &Dispatcher{
		Publisher:      publisher,
		Logger:         logger,
		DispatcherID:   uuid.NewString(),
		MaxAttempts:    3,
		InitialBackoff: 200 * time.Millisecond,
		events:         make(chan queuedEvent, buffer),
	}
}

// Notify implements models.EventNotifier.
func (d *Dispatcher) Notify(ctx context.Context, event models.InventoryEvent) {
	cid, _ := utils.GetCorrelationIdFromContext(ctx)
	select {
	case d.events <- queuedEvent{event: event, correlationId: cid}:
	default:
		if d.Logger != nil {
			d.Logger.WithFields(logrus.Fields{
				"field":         "Dispatcher",
				"dispatcher_id": d.DispatcherID,
				"event_id":      event.ID,
				"kind":          event.Kind,
			}).Warn("event buffer full, dropping inventory event")
		}
	}
}

// Pending reports how many events are waiting to be published.
func (d *Dispatcher) Pending() int {
	return len(d.events)
}

// Run publishes queued events until ctx is done. Events still buffered at
// that point are not published.
func (d *Dispatcher) Run(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	for {
		select {
		case <-ctx.Done():
			return
		case q := <-d.events:
			d.dispatchOne(ctx, q)
		}
	}
}

func (d *Dispatcher) dispatchOne(ctx context.Context, q queuedEvent) {
	pubCtx := ctx
	if q.correlationId != "" {
		pubCtx = utils.SetCorrelationIdInContext(ctx, q.correlationId)
	}

	backoff := d.InitialBackoff
	attempts := d.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = d.Publisher.Publish(pubCtx, q.event)
		if err == nil {
			return
		}
		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff *= 2
	}

	if d.Logger != nil {
		d.Logger.WithFields(logrus.Fields{
			"field":          "Dispatcher",
			"dispatcher_id":  d.DispatcherID,
			"event_id":       q.event.ID,
			"kind":           q.event.Kind,
			"correlation_id": q.correlationId,
			"attempts":       attempts,
		}).WithError(err).Error("inventory event publish failed")
	}
}
