package listener

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/deduction"
	"github.com/fekuna/omnipos-inventory-service/internal/deduction/dto"
	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/fekuna/omnipos-inventory-service/pkg/logger"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const EventTransactionCompleted = "TransactionCompleted"

const (
	defaultAttempts = 3
	defaultBackoff  = 500 * time.Millisecond
)

// MessageReader is satisfied by broker.KafkaConsumer.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

type TransactionListener struct {
	consumer MessageReader
	uc       deduction.UseCase
	logger   logger.ZapLogger
	attempts int
	backoff  time.Duration
}

func NewTransactionListener(consumer MessageReader, uc deduction.UseCase, logger logger.ZapLogger) *TransactionListener {
	return &TransactionListener{
		consumer: consumer,
		uc:       uc,
		logger:   logger,
		attempts: defaultAttempts,
		backoff:  defaultBackoff,
	}
}

// Start blocks until ctx is done.
func (l *TransactionListener) Start(ctx context.Context) {
	l.logger.Info("Starting transaction Kafka listener")
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Stopping transaction Kafka listener")
			return
		default:
			msg, err := l.consumer.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				l.logger.Error("Failed to read kafka message", zap.Error(err))
				if sleep(ctx, time.Second) != nil {
					return
				}
				continue
			}
			l.processMessage(ctx, msg.Value)
		}
	}
}

type TransactionCompletedEvent struct {
	EventID   string             `json:"event_id"`
	EventType string             `json:"event_type"`
	Payload   TransactionPayload `json:"payload"`
	Timestamp time.Time          `json:"timestamp"`
}

type TransactionPayload struct {
	ID            string           `json:"id"`
	StoreID       string           `json:"store_id"`
	ReceiptNumber string           `json:"receipt_number"`
	UserID        string           `json:"user_id"`
	Items         []model.SaleLine `json:"items"`
}

func (l *TransactionListener) processMessage(ctx context.Context, value []byte) {
	var event TransactionCompletedEvent
	if err := json.Unmarshal(value, &event); err != nil {
		l.logger.Error("Failed to unmarshal event", zap.Error(err))
		return
	}

	if event.EventType != EventTransactionCompleted {
		return
	}

	p := event.Payload
	l.logger.Info("Processing TransactionCompleted event",
		zap.String("transaction_id", p.ID),
		zap.String("receipt_number", p.ReceiptNumber),
	)

	req := &dto.CheckoutRequest{
		StoreID:       p.StoreID,
		SaleReference: p.ID,
		UserID:        p.UserID,
		Lines:         p.Items,
	}

	var err error
	for attempt := 1; attempt <= l.attempts; attempt++ {
		var out *dto.DeductionOutcome
		out, err = l.uc.CheckoutDeduct(ctx, req)
		if err == nil {
			if !out.Success {
				l.logger.Warn("Transaction deducted with errors",
					zap.String("transaction_id", p.ID),
					zap.Int("written", out.Written()),
					zap.Int("errors", len(out.Errors)),
				)
			}
			return
		}
		if errors.Is(err, deduction.ErrSaleInProgress) || !deduction.IsRetryable(err) {
			break
		}
		l.logger.Warn("Retrying transaction deduction",
			zap.String("transaction_id", p.ID),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		if sleep(ctx, l.backoff*time.Duration(attempt)) != nil {
			return
		}
	}

	if errors.Is(err, deduction.ErrSaleInProgress) {
		l.logger.Info("Transaction already being deducted elsewhere", zap.String("transaction_id", p.ID))
		return
	}
	// Left for the recovery scan to replay.
	l.logger.Error("Failed to deduct inventory for transaction",
		zap.String("transaction_id", p.ID),
		zap.Error(err),
	)
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
