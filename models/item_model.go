package models

import (
	"time"

	"gorm.io/gorm"
)

type Item struct {
	gorm.Model
	CompanyID uint   `json:"company_id" gorm:"uniqueIndex:idx_item_company_code;not null"`
	ItemCode  string `json:"item_code" gorm:"uniqueIndex:idx_item_company_code" validate:"required"`
	ItemName  string `json:"item_name" validate:"required"`
	CreatedBy int
	UpdatedBy int
}

// Lot is a batch of an item sharing one expiry date (nil for
// non-perishables). Lots are created lazily on first inbound receipt and
// act as the FEFO sort key.
type Lot struct {
	gorm.Model
	CompanyID  uint       `json:"company_id" gorm:"index;not null"`
	ItemID     uint       `json:"item_id" gorm:"index;not null"`
	ExpiryDate *time.Time `json:"expiry_date" gorm:"index"`
}
