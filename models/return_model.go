package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	ReturnStatusReceived  = "RECEIVED"
	ReturnStatusDecided   = "DECIDED"
	ReturnStatusCompleted = "COMPLETED"
	ReturnStatusCancelled = "CANCELLED"

	ReturnDecisionRestock = "RESTOCK"
	ReturnDecisionDiscard = "DISCARD"
)

// ReturnReceipt is goods coming back from a customer. It moves
// RECEIVED -> DECIDED -> COMPLETED, with CANCELLED reachable from
// RECEIVED only. Restocked lines feed on-hand stock at process time.
type ReturnReceipt struct {
	gorm.Model
	CompanyID  uint   `json:"company_id" gorm:"index;not null"`
	CustomerID *uint  `json:"customer_id"`
	Memo       string `json:"memo"`
	Status     string `json:"status" gorm:"default:'RECEIVED'"`
	Version    int    `json:"version" gorm:"default:0"`

	ReceivedByUserID  uint       `json:"received_by_user_id"`
	ReceivedAt        time.Time  `json:"received_at"`
	DecidedByUserID   *uint      `json:"decided_by_user_id"`
	DecidedAt         *time.Time `json:"decided_at"`
	CompletedByUserID *uint      `json:"completed_by_user_id"`
	CompletedAt       *time.Time `json:"completed_at"`

	Customer *Customer    `json:"customer" gorm:"foreignKey:CustomerID"`
	Lines    []ReturnLine `json:"lines" gorm:"foreignKey:ReceiptID;references:ID;constraint:OnDelete:CASCADE"`
}

// ReturnLine carries the physical description of what came back.
// Decision is empty until a warehouse manager rules RESTOCK or DISCARD;
// ProcessedAt marks the line as booked (or written off) for good.
type ReturnLine struct {
	gorm.Model
	ReceiptID   uint       `json:"receipt_id" gorm:"index;not null"`
	ItemID      uint       `json:"item_id" gorm:"not null"`
	StorageType string     `json:"storage_type"`
	ExpiryDate  *time.Time `json:"expiry_date"`
	Qty         int        `json:"qty" gorm:"not null"`

	Decision          string     `json:"decision"`
	DecidedByUserID   *uint      `json:"decided_by_user_id"`
	DecidedAt         *time.Time `json:"decided_at"`
	ProcessedByUserID *uint      `json:"processed_by_user_id"`
	ProcessedAt       *time.Time `json:"processed_at"`
}
