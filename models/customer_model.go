package models

import "gorm.io/gorm"

type Customer struct {
	gorm.Model
	CompanyID    uint   `json:"company_id" gorm:"index;not null"`
	CustomerCode string `json:"customer_code" validate:"required"`
	CustomerName string `json:"customer_name" validate:"required"`
	Email        string `json:"email" validate:"omitempty,email"`
	Address      string `json:"address"`
	City         string `json:"city"`
	IsActive     bool   `json:"is_active" gorm:"default:true"`
	CreatedBy    int
	UpdatedBy    int
}
