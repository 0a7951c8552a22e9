package dto

import (
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/model"
)

type RecoveryRequest struct {
	StoreID string    `json:"store_id"`
	From    time.Time `json:"from"`
	To      time.Time `json:"to"`
	// DryRun lists sales lacking movements without replaying them.
	DryRun bool `json:"dry_run"`
}

const (
	SaleRecovered = "recovered"
	SaleFailed    = "failed"
	SaleSkipped   = "skipped"
	SalePending   = "pending"
)

type RecoveredSale struct {
	SaleID        string    `json:"sale_id"`
	ReceiptNumber string    `json:"receipt_number"`
	CreatedAt     time.Time `json:"created_at"`
	Status        string    `json:"status"`
	Written       int       `json:"written"`
	Errors        []string  `json:"errors,omitempty"`
}

type RecoverySummary struct {
	StoreID        string                `json:"store_id"`
	From           time.Time             `json:"from"`
	To             time.Time             `json:"to"`
	DryRun         bool                  `json:"dry_run"`
	Scanned        int                   `json:"scanned"`
	RecoveredCount int                   `json:"recovered_count"`
	FailedCount    int                   `json:"failed_count"`
	SkippedCount   int                   `json:"skipped_count"`
	PendingCount   int                   `json:"pending_count"`
	Sales          []RecoveredSale       `json:"sales"`
	Errors         []string              `json:"errors"`
	LowStock       []model.InventoryItem `json:"low_stock"`
	// Err combines every per-sale failure; nil when the batch was clean.
	Err error `json:"-"`
}
