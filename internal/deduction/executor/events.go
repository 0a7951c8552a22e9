package executor

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/deduction/dto"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	EventInventoryDeducted = "inventory.deducted"
	EventLowStock          = "inventory.low_stock"
)

// EventPublisher is satisfied by broker.KafkaProducer.
type EventPublisher interface {
	Publish(ctx context.Context, key, eventType string, value []byte) error
}

type DeductedEvent struct {
	EventID       string           `json:"event_id"`
	EventType     string           `json:"event_type"`
	StoreID       string           `json:"store_id"`
	SaleReference string           `json:"sale_reference"`
	Success       bool             `json:"success"`
	Deductions    []dto.ItemResult `json:"deductions"`
	Failures      int              `json:"failures"`
	Compensated   bool             `json:"compensated"`
	Timestamp     time.Time        `json:"timestamp"`
}

type LowStockEvent struct {
	EventID         string    `json:"event_id"`
	EventType       string    `json:"event_type"`
	StoreID         string    `json:"store_id"`
	InventoryItemID string    `json:"inventory_item_id"`
	Item            string    `json:"item"`
	Quantity        float64   `json:"quantity"`
	SaleReference   string    `json:"sale_reference"`
	Timestamp       time.Time `json:"timestamp"`
}

func (e *Executor) publishOutcome(ctx context.Context, out *dto.DeductionOutcome) {
	if e.events == nil || (out.Written() == 0 && len(out.Errors) == 0) {
		return
	}
	now := e.now()
	e.publish(ctx, out.StoreID, EventInventoryDeducted, DeductedEvent{
		EventID:       uuid.New().String(),
		EventType:     EventInventoryDeducted,
		StoreID:       out.StoreID,
		SaleReference: out.SaleReference,
		Success:       out.Success,
		Deductions:    out.Deductions,
		Failures:      len(out.Errors),
		Compensated:   len(out.Compensated) > 0,
		Timestamp:     now,
	})

	if len(out.Compensated) > 0 {
		return
	}
	for _, d := range out.Deductions {
		if !d.LowStock || d.AlreadyApplied {
			continue
		}
		e.publish(ctx, out.StoreID, EventLowStock, LowStockEvent{
			EventID:         uuid.New().String(),
			EventType:       EventLowStock,
			StoreID:         out.StoreID,
			InventoryItemID: d.InventoryItemID,
			Item:            d.Name,
			Quantity:        d.NewQuantity,
			SaleReference:   out.SaleReference,
			Timestamp:       now,
		})
	}
}

func (e *Executor) publish(ctx context.Context, key, eventType string, payload interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		e.logger.Error("Failed to marshal event", zap.String("event_type", eventType), zap.Error(err))
		return
	}
	if err := e.events.Publish(ctx, key, eventType, body); err != nil {
		e.logger.Warn("Failed to publish event", zap.String("event_type", eventType), zap.Error(err))
	}
}
