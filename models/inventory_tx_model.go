package models

import (
	"time"

	"fulfillment-app/controllers/idgen"
	"fulfillment-app/types"

	"gorm.io/gorm"
)

const (
	TxTypePickReserve     = "PICK_RESERVE"
	TxTypePickRelease     = "PICK_RELEASE"
	TxTypeInboundConfirm  = "INBOUND_CONFIRM"
	TxTypeOutboundConfirm = "OUTBOUND_CONFIRM"
	TxTypeReturnRestock   = "RETURN_RESTOCK"
	TxTypeReturnDiscard   = "RETURN_DISCARD"

	TxRefOutboundOrder = "OUTBOUND_ORDER"
	TxRefOutboundLine  = "OUTBOUND_LINE"
	TxRefInboundUpload = "INBOUND_UPLOAD"
	TxRefReturnReceipt = "RETURN_RECEIPT"
)

// InventoryTx is an append-only audit entry. Rows are written once and
// never updated or deleted.
type InventoryTx struct {
	ID          types.SnowflakeID `json:"ID" gorm:"primaryKey"`
	CompanyID   uint              `json:"company_id" gorm:"index;not null"`
	Type        string            `json:"type" gorm:"not null"`
	ActorUserID uint              `json:"actor_user_id"`
	RefType     string            `json:"ref_type"`
	RefID       uint              `json:"ref_id"`
	CreatedAt   time.Time

	Lines []InventoryTxLine `json:"lines" gorm:"foreignKey:TxID;references:ID"`
}

func (t *InventoryTx) BeforeCreate(tx *gorm.DB) (err error) {
	if t.ID == 0 {
		t.ID = types.SnowflakeID(idgen.GenerateID())
	}
	return
}

type InventoryTxLine struct {
	ID          uint              `gorm:"primaryKey"`
	TxID        types.SnowflakeID `json:"tx_id" gorm:"index;not null"`
	WarehouseID uint              `json:"warehouse_id"`
	LotID       uint              `json:"lot_id"`
	QtyDelta    int               `json:"qty_delta"`
}
