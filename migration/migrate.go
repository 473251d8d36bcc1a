package migration

import (
	"fulfillment-app/models"

	"gorm.io/gorm"
)

// RunMigrations creates or updates every table the application uses.
func RunMigrations(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Company{},
		&models.User{},
		&models.Customer{},
		&models.Item{},
		&models.Lot{},
		&models.Warehouse{},
		&models.Stock{},
		&models.OutboundOrder{},
		&models.OutboundLine{},
		&models.PickAllocation{},
		&models.InventoryTx{},
		&models.InventoryTxLine{},
		&models.InboundUpload{},
		&models.InboundUploadRow{},
		&models.ReturnReceipt{},
		&models.ReturnLine{},
	)
}
