package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	OrderStatusDraft       = "DRAFT"
	OrderStatusPicking     = "PICKING"
	OrderStatusPicked      = "PICKED"
	OrderStatusReadyToShip = "READY_TO_SHIP"
	OrderStatusShipping    = "SHIPPING"
	OrderStatusDelivered   = "DELIVERED"
	OrderStatusCancelled   = "CANCELLED"

	LineStatusActive    = "ACTIVE"
	LineStatusCancelled = "CANCELLED"
)

type OutboundOrder struct {
	gorm.Model
	CompanyID   uint      `json:"company_id" gorm:"index;not null"`
	CustomerID  uint      `json:"customer_id" gorm:"not null"`
	PlannedDate time.Time `json:"planned_date"`
	Memo        string    `json:"memo"`
	Status      string    `json:"status" gorm:"default:'DRAFT'"`

	// Version counts user-visible edits only. Internal reconciliation
	// (auto-reserve, submit sync, status rollback) never bumps it.
	Version int `json:"version" gorm:"default:0"`

	CreatedByUserID uint `json:"created_by_user_id"`

	ReservedByUserID        *uint      `json:"reserved_by_user_id"`
	ReservedAt              *time.Time `json:"reserved_at"`
	PickedSubmittedByUserID *uint      `json:"picked_submitted_by_user_id"`
	PickedSubmittedAt       *time.Time `json:"picked_submitted_at"`
	VerifiedByUserID        *uint      `json:"verified_by_user_id"`
	VerifiedAt              *time.Time `json:"verified_at"`
	ShippingStartedByUserID *uint      `json:"shipping_started_by_user_id"`
	ShippingStartedAt       *time.Time `json:"shipping_started_at"`
	DeliveredByUserID       *uint      `json:"delivered_by_user_id"`
	DeliveredAt             *time.Time `json:"delivered_at"`

	Customer Customer       `json:"customer" gorm:"foreignKey:CustomerID"`
	Lines    []OutboundLine `json:"lines" gorm:"foreignKey:OrderID;references:ID;constraint:OnDelete:CASCADE"`
}

type OutboundLine struct {
	gorm.Model
	OrderID      uint   `json:"order_id" gorm:"index;not null"`
	ItemID       uint   `json:"item_id" gorm:"not null"`
	RequestedQty int    `json:"requested_qty" gorm:"not null"`
	PickedQty    int    `json:"picked_qty" gorm:"default:0"`
	ShippedQty   int    `json:"shipped_qty" gorm:"default:0"`
	Status       string `json:"status" gorm:"default:'ACTIVE'"`
}
