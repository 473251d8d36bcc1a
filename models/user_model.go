package models

import "gorm.io/gorm"

type Company struct {
	gorm.Model
	Code string `json:"code" gorm:"unique"`
	Name string `json:"name"`
}

type User struct {
	gorm.Model
	CompanyID uint   `json:"company_id" gorm:"index;not null"`
	Name      string `json:"name"`
	Email     string `json:"email" gorm:"unique" validate:"required,email"`
	Password  string `json:"-"`
	Role      string `json:"role" gorm:"default:'STAFF'"`
	IsActive  bool   `json:"is_active" gorm:"default:true"`
}
