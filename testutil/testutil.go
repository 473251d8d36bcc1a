package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"fulfillment-app/database"
	"fulfillment-app/migration"
	"fulfillment-app/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var dbSeq int64

// NewTestDB opens a fresh in-memory sqlite database with the full schema
// migrated. Each call gets its own database, tests never share state.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", atomic.AddInt64(&dbSeq, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	// A named shared-cache memory db disappears when its last connection
	// closes; a single connection also avoids sqlite write contention.
	sqlDB.SetMaxOpenConns(1)

	if err := migration.RunMigrations(db); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}

	t.Cleanup(func() { sqlDB.Close() })
	return db
}

// Fixture is a seeded tenant: one company, the fixed warehouse set and a
// user to act as.
type Fixture struct {
	Company    models.Company
	User       models.User
	Customer   models.Customer
	Warehouses map[string]models.Warehouse
}

func NewFixture(t *testing.T, db *gorm.DB) *Fixture {
	t.Helper()

	company := models.Company{Code: "TST", Name: "Test Co"}
	if err := db.Create(&company).Error; err != nil {
		t.Fatalf("create company: %v", err)
	}

	if err := database.SeedWarehouses(db, company.ID); err != nil {
		t.Fatalf("seed warehouses: %v", err)
	}

	var warehouses []models.Warehouse
	if err := db.Where("company_id = ?", company.ID).Find(&warehouses).Error; err != nil {
		t.Fatalf("load warehouses: %v", err)
	}
	byType := make(map[string]models.Warehouse, len(warehouses))
	for _, w := range warehouses {
		byType[w.StorageType] = w
	}

	user := models.User{
		CompanyID: company.ID,
		Name:      "Tester",
		Email:     fmt.Sprintf("tester%d@local", company.ID),
		Password:  "x",
		Role:      "ADMIN",
		IsActive:  true,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}

	customer := models.Customer{
		CompanyID:    company.ID,
		CustomerCode: "CUST-1",
		CustomerName: "Test Customer",
		IsActive:     true,
	}
	if err := db.Create(&customer).Error; err != nil {
		t.Fatalf("create customer: %v", err)
	}

	return &Fixture{Company: company, User: user, Customer: customer, Warehouses: byType}
}

func (f *Fixture) NewItem(t *testing.T, db *gorm.DB, code string) models.Item {
	t.Helper()
	item := models.Item{CompanyID: f.Company.ID, ItemCode: code, ItemName: "Item " + code}
	if err := db.Create(&item).Error; err != nil {
		t.Fatalf("create item %s: %v", code, err)
	}
	return item
}

func (f *Fixture) NewLot(t *testing.T, db *gorm.DB, itemID uint, expiry *time.Time) models.Lot {
	t.Helper()
	lot := models.Lot{CompanyID: f.Company.ID, ItemID: itemID, ExpiryDate: expiry}
	if err := db.Create(&lot).Error; err != nil {
		t.Fatalf("create lot: %v", err)
	}
	return lot
}

func (f *Fixture) NewStock(t *testing.T, db *gorm.DB, warehouseID, lotID uint, onHand int) models.Stock {
	t.Helper()
	stock := models.Stock{
		CompanyID:   f.Company.ID,
		WarehouseID: warehouseID,
		LotID:       lotID,
		OnHand:      onHand,
	}
	if err := db.Create(&stock).Error; err != nil {
		t.Fatalf("create stock: %v", err)
	}
	return stock
}

// Days returns a pointer to now+days, truncated to whole days so expiry
// comparisons stay deterministic.
func Days(days int) *time.Time {
	t := time.Now().AddDate(0, 0, days).Truncate(24 * time.Hour)
	return &t
}

// ReloadStock fetches the current ledger row.
func ReloadStock(t *testing.T, db *gorm.DB, stockID uint) models.Stock {
	t.Helper()
	var stock models.Stock
	if err := db.First(&stock, stockID).Error; err != nil {
		t.Fatalf("reload stock %d: %v", stockID, err)
	}
	return stock
}
