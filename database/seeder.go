package database

import (
	"errors"
	"log"

	"fulfillment-app/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Seed creates the default company with its fixed warehouse set and an
// admin account. Running it twice is safe.
func Seed(db *gorm.DB) error {
	var company models.Company
	err := db.Where("code = ?", "DEFAULT").First(&company).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		company = models.Company{Code: "DEFAULT", Name: "Default Company"}
		if err := db.Create(&company).Error; err != nil {
			return err
		}
	}

	if err := SeedWarehouses(db, company.ID); err != nil {
		return err
	}

	var admin models.User
	err = db.Where("email = ?", "admin@local").First(&admin).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		hashed, err := bcrypt.GenerateFromPassword([]byte("admin12345"), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		admin = models.User{
			CompanyID: company.ID,
			Name:      "Administrator",
			Email:     "admin@local",
			Password:  string(hashed),
			Role:      "ADMIN",
			IsActive:  true,
		}
		if err := db.Create(&admin).Error; err != nil {
			return err
		}
		log.Println("seeded admin user admin@local")
	} else if err != nil {
		return err
	}

	return nil
}

// SeedWarehouses guarantees one warehouse per storage type for the
// company. The set is fixed, tenants never add or remove warehouses.
func SeedWarehouses(db *gorm.DB, companyID uint) error {
	defaults := []models.Warehouse{
		{CompanyID: companyID, StorageType: models.StorageDry, Name: "Dry Storage"},
		{CompanyID: companyID, StorageType: models.StorageCool, Name: "Cool Storage"},
		{CompanyID: companyID, StorageType: models.StorageFrozen, Name: "Frozen Storage"},
	}

	for _, warehouse := range defaults {
		var existing models.Warehouse
		err := db.Where("company_id = ? AND storage_type = ?", companyID, warehouse.StorageType).
			First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := db.Create(&warehouse).Error; err != nil {
			return err
		}
	}
	return nil
}
