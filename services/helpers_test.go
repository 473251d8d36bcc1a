package services_test

import (
	"testing"
	"time"

	"fulfillment-app/models"
	"fulfillment-app/testutil"

	"gorm.io/gorm"
)

type lineSpec struct {
	ItemID       uint
	RequestedQty int
}

func newOrder(t *testing.T, db *gorm.DB, fx *testutil.Fixture, status string, lines ...lineSpec) models.OutboundOrder {
	t.Helper()

	order := models.OutboundOrder{
		CompanyID:       fx.Company.ID,
		CustomerID:      fx.Customer.ID,
		PlannedDate:     time.Now(),
		Status:          status,
		Version:         1,
		CreatedByUserID: fx.User.ID,
	}
	for _, spec := range lines {
		order.Lines = append(order.Lines, models.OutboundLine{
			ItemID:       spec.ItemID,
			RequestedQty: spec.RequestedQty,
			Status:       models.LineStatusActive,
		})
	}
	if err := db.Create(&order).Error; err != nil {
		t.Fatalf("create order: %v", err)
	}
	return order
}

func reloadOrder(t *testing.T, db *gorm.DB, orderID uint) models.OutboundOrder {
	t.Helper()
	var order models.OutboundOrder
	if err := db.Preload("Lines").First(&order, orderID).Error; err != nil {
		t.Fatalf("reload order %d: %v", orderID, err)
	}
	return order
}

func reloadLine(t *testing.T, db *gorm.DB, lineID uint) models.OutboundLine {
	t.Helper()
	var line models.OutboundLine
	if err := db.First(&line, lineID).Error; err != nil {
		t.Fatalf("reload line %d: %v", lineID, err)
	}
	return line
}

func activeAllocations(t *testing.T, db *gorm.DB, lineID uint) []models.PickAllocation {
	t.Helper()
	var allocations []models.PickAllocation
	err := db.Where("outbound_line_id = ? AND is_released = ? AND is_committed = ?", lineID, false, false).
		Order("id ASC").
		Find(&allocations).Error
	if err != nil {
		t.Fatalf("load allocations for line %d: %v", lineID, err)
	}
	return allocations
}

func countAudit(t *testing.T, db *gorm.DB, companyID uint, txType string) int64 {
	t.Helper()
	var count int64
	err := db.Model(&models.InventoryTx{}).
		Where("company_id = ? AND type = ?", companyID, txType).
		Count(&count).Error
	if err != nil {
		t.Fatalf("count audit %s: %v", txType, err)
	}
	return count
}
