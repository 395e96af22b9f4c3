package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/aws/aws-lambda-go/events"

	"github.com/cakedaddy/storefront/internal/aws"
	"github.com/cakedaddy/storefront/internal/idempotency"
	"github.com/cakedaddy/storefront/internal/orders"
)

// Processor confirms freshly placed orders. The API writes every order
// as PENDING and enqueues a message; this worker moves it to CONFIRMED,
// after which the bakery staff drive the remaining lifecycle from the
// admin console.
type Processor struct {
	idempStore *idempotency.Store
	orderStore *orders.Store
	metrics    *aws.MetricsRecorder
}

// NewProcessor creates a new worker processor with AWS clients injected.
func NewProcessor(clients *aws.AWSClients, idempTable, ordersTable string) *Processor {
	return &Processor{
		idempStore: idempotency.NewStore(clients.DynamoDB, idempTable, 48*time.Hour),
		orderStore: orders.NewStore(clients.DynamoDB, ordersTable),
		metrics:    aws.NewMetricsRecorder(clients.CloudWatch),
	}
}

// Handle receives an SQS batch event and processes each message.
func (p *Processor) Handle(ctx context.Context, ev events.SQSEvent) error {
	for _, rec := range ev.Records {
		if err := p.processMessage(ctx, rec); err != nil {
			// Return error: Lambda will retry. After too many failures the
			// message goes to the DLQ.
			log.Printf("[worker] error: %v", err)
			return err
		}
	}
	return nil
}

func (p *Processor) processMessage(ctx context.Context, rec events.SQSMessage) error {
	var msg WorkerMessage
	if err := json.Unmarshal([]byte(rec.Body), &msg); err != nil {
		return fmt.Errorf("invalid message body: %w", err)
	}

	log.Printf("[worker] received order=%s idempotency_key=%s corr=%s",
		msg.OrderID, msg.IdempotencyKey, msg.CorrelationID)

	// Step 1: Read the current order
	order, err := p.orderStore.Get(ctx, msg.OrderID)
	if err != nil {
		return fmt.Errorf("failed to fetch order: %w", err)
	}
	if order == nil {
		// Should never happen, DLQ if it does
		return fmt.Errorf("order not found: %s", msg.OrderID)
	}

	// Step 2: Move PENDING -> CONFIRMED (idempotent)
	err = p.orderStore.UpdateStatus(ctx, msg.OrderID, orders.StatusPending, orders.StatusConfirmed)
	if err == orders.ErrStatusMismatch {
		// Already confirmed or a competing worker got there first.
		// Anything past PENDING means the confirmation already happened;
		// CANCELLED means the customer withdrew before we got here.
		o2, _ := p.orderStore.Get(ctx, msg.OrderID)
		switch o2.Status {
		case orders.StatusConfirmed, orders.StatusBaking, orders.StatusReady, orders.StatusDelivered:
			log.Printf("[worker] already confirmed order=%s status=%s", msg.OrderID, o2.Status)
			return nil
		case orders.StatusCancelled:
			log.Printf("[worker] order=%s cancelled before confirmation", msg.OrderID)
			return nil
		default:
			return fmt.Errorf("unexpected status for order=%s: %s", msg.OrderID, o2.Status)
		}
	}
	if err != nil {
		return fmt.Errorf("failed to update status to CONFIRMED: %w", err)
	}

	// Step 3: Record the confirmed response against the idempotency key
	// so duplicate submissions see the final state.
	response := fmt.Sprintf(`{"id":"%s","status":"%s"}`, msg.OrderID, orders.StatusConfirmed)
	if err := p.idempStore.MarkDone(ctx, msg.IdempotencyKey, response, http.StatusCreated); err != nil {
		return fmt.Errorf("failed to update idempotency: %w", err)
	}

	p.metrics.Count(ctx, "OrdersConfirmed")
	log.Printf("[worker] confirmed order=%s", msg.OrderID)
	return nil
}
