package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	UploadStatusUploaded  = "UPLOADED"
	UploadStatusConfirmed = "CONFIRMED"
)

type InboundUpload struct {
	gorm.Model
	CompanyID        uint   `json:"company_id" gorm:"index;not null"`
	UploadedByUserID uint   `json:"uploaded_by_user_id"`
	FileName         string `json:"file_name"`
	Status           string `json:"status" gorm:"default:'UPLOADED'"`

	Rows []InboundUploadRow `json:"rows" gorm:"foreignKey:UploadID;references:ID;constraint:OnDelete:CASCADE"`
}

type InboundUploadRow struct {
	gorm.Model
	UploadID     uint       `json:"upload_id" gorm:"index;not null"`
	ItemCode     string     `json:"item_code"`
	ItemName     string     `json:"item_name"`
	StorageType  string     `json:"storage_type"`
	Quantity     int        `json:"quantity"`
	ExpiryDate   *time.Time `json:"expiry_date"`
	IsValid      bool       `json:"is_valid"`
	ErrorMessage string     `json:"error_message"`
}
