package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	PickSourceAutoFefo = "AUTO_FEFO"
	PickSourceManual   = "MANUAL"
)

// PickAllocation is a claim of Qty units of one (warehouse, lot) stock
// row against one outbound line. An allocation is exactly one of
// active, released or committed; it is never hard-deleted and doubles as
// the audit trail of what was reserved when.
type PickAllocation struct {
	gorm.Model
	CompanyID      uint   `json:"company_id" gorm:"index;not null"`
	OutboundLineID uint   `json:"outbound_line_id" gorm:"index;not null"`
	WarehouseID    uint   `json:"warehouse_id" gorm:"not null"`
	LotID          uint   `json:"lot_id" gorm:"not null"`
	Qty            int    `json:"qty" gorm:"not null"`
	PickedQty      int    `json:"picked_qty" gorm:"default:0"`
	Source         string `json:"source" gorm:"default:'AUTO_FEFO'"`

	IsReleased  bool       `json:"is_released" gorm:"default:false"`
	ReleasedAt  *time.Time `json:"released_at"`
	IsCommitted bool       `json:"is_committed" gorm:"default:false"`
	CommittedAt *time.Time `json:"committed_at"`
}

// CommitQty is the quantity actually shipped at delivery: the recorded
// picked amount when one exists, the reserved amount otherwise. Not
// every allocation path records a distinct picked quantity, so the
// fallback lives here rather than at each call site.
func (a *PickAllocation) CommitQty() int {
	if a.PickedQty > 0 {
		return a.PickedQty
	}
	return a.Qty
}
