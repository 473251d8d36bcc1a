package models

import "gorm.io/gorm"

const (
	StorageDry    = "DRY"
	StorageCool   = "COOL"
	StorageFrozen = "FRZ"
)

// Warehouse is one physical storage area per (company, storage type).
// The set is fixed per tenant and seeded at company creation.
type Warehouse struct {
	gorm.Model
	CompanyID   uint   `json:"company_id" gorm:"uniqueIndex:idx_warehouse_company_type;not null"`
	StorageType string `json:"storage_type" gorm:"uniqueIndex:idx_warehouse_company_type" validate:"required,oneof=DRY COOL FRZ"`
	Name        string `json:"name"`
}
