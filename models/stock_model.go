package models

import "gorm.io/gorm"

// Stock is the ledger row for one (company, warehouse, lot). OnHand is
// the physical quantity present, Reserved the portion claimed by active
// allocations. 0 <= Reserved <= OnHand holds at all times; rows are never
// deleted, a zero-quantity row is valid and reusable.
type Stock struct {
	gorm.Model
	CompanyID   uint `json:"company_id" gorm:"uniqueIndex:idx_stock_company_whs_lot;not null"`
	WarehouseID uint `json:"warehouse_id" gorm:"uniqueIndex:idx_stock_company_whs_lot;not null"`
	LotID       uint `json:"lot_id" gorm:"uniqueIndex:idx_stock_company_whs_lot;not null"`
	OnHand      int  `json:"on_hand" gorm:"default:0"`
	Reserved    int  `json:"reserved" gorm:"default:0"`
}

func (s *Stock) Available() int {
	return s.OnHand - s.Reserved
}
