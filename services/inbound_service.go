package services

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"fulfillment-app/apperr"
	"fulfillment-app/models"
	"fulfillment-app/repositories"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// InboundService takes receipt spreadsheets in, validates them row by
// row, and on confirmation turns valid rows into on-hand stock.
type InboundService struct {
	db *gorm.DB
}

func NewInboundService(db *gorm.DB) *InboundService {
	return &InboundService{db: db}
}

var expiryLayouts = []string{"2006-01-02", "01-02-06", "2006/01/02", "02-Jan-06"}

func parseExpiry(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range expiryLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("unrecognized expiry date %q", raw)
}

// CreateUpload parses the sheet and stores every row, valid or not.
// Expected columns: ItemCode, ItemName, StorageType, Quantity, ExpiryDate.
// Invalid rows carry their error message and are skipped at confirm time.
func (s *InboundService) CreateUpload(companyID, userID uint, fileName string, file io.Reader) (*models.InboundUpload, error) {
	xls, err := excelize.OpenReader(file)
	if err != nil {
		return nil, apperr.BadRequest("cannot read excel file: " + err.Error())
	}
	defer xls.Close()

	sheetName := xls.GetSheetName(0)
	rows, err := xls.GetRows(sheetName)
	if err != nil {
		return nil, apperr.BadRequest("cannot read sheet: " + err.Error())
	}
	if len(rows) < 2 {
		return nil, apperr.BadRequest("sheet has no data rows")
	}

	upload := models.InboundUpload{
		CompanyID:        companyID,
		UploadedByUserID: userID,
		FileName:         fileName,
		Status:           models.UploadStatusUploaded,
	}

	cell := func(row []string, idx int) string {
		if idx < len(row) {
			return strings.TrimSpace(row[idx])
		}
		return ""
	}

	for _, row := range rows[1:] {
		parsed := models.InboundUploadRow{
			ItemCode:    cell(row, 0),
			ItemName:    cell(row, 1),
			StorageType: strings.ToUpper(cell(row, 2)),
			IsValid:     true,
		}

		if parsed.ItemCode == "" {
			parsed.IsValid = false
			parsed.ErrorMessage = "item code is required"
		}

		switch parsed.StorageType {
		case models.StorageDry, models.StorageCool, models.StorageFrozen:
		default:
			parsed.IsValid = false
			parsed.ErrorMessage = "storage type must be DRY, COOL or FRZ"
		}

		qty, err := strconv.Atoi(cell(row, 3))
		if err != nil || qty <= 0 {
			parsed.IsValid = false
			parsed.ErrorMessage = "quantity must be a positive number"
		} else {
			parsed.Quantity = qty
		}

		expiry, err := parseExpiry(cell(row, 4))
		if err != nil {
			parsed.IsValid = false
			parsed.ErrorMessage = err.Error()
		} else {
			parsed.ExpiryDate = expiry
		}

		upload.Rows = append(upload.Rows, parsed)
	}

	if err := s.db.Create(&upload).Error; err != nil {
		return nil, err
	}
	return &upload, nil
}

func (s *InboundService) GetUpload(companyID, uploadID uint) (*models.InboundUpload, error) {
	var upload models.InboundUpload
	err := s.db.Preload("Rows").
		Where("id = ? AND company_id = ?", uploadID, companyID).
		First(&upload).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("inbound upload")
		}
		return nil, err
	}
	return &upload, nil
}

// Confirm books every valid row of an UPLOADED sheet into stock. Items
// and lots are created lazily; the warehouse comes from the tenant's
// fixed per-storage-type set.
func (s *InboundService) Confirm(companyID, userID, uploadID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var upload models.InboundUpload
		if err := tx.Preload("Rows").
			Where("id = ? AND company_id = ?", uploadID, companyID).
			First(&upload).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("inbound upload")
			}
			return err
		}
		if upload.Status != models.UploadStatusUploaded {
			return apperr.InvalidState("confirm upload", upload.Status)
		}

		stockRepo := repositories.NewStockRepository(tx)
		var auditLines []models.InventoryTxLine

		for _, row := range upload.Rows {
			if !row.IsValid {
				continue
			}

			item, err := findOrCreateItemTx(tx, companyID, row.ItemCode, row.ItemName)
			if err != nil {
				return err
			}

			var warehouse models.Warehouse
			if err := tx.Where("company_id = ? AND storage_type = ?", companyID, row.StorageType).
				First(&warehouse).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperr.NotFound("warehouse for storage type " + row.StorageType)
				}
				return err
			}

			lot, err := findOrCreateLotTx(tx, companyID, item.ID, row.ExpiryDate)
			if err != nil {
				return err
			}

			stock, err := stockRepo.FindOrCreate(companyID, warehouse.ID, lot.ID)
			if err != nil {
				return err
			}
			if err := stockRepo.Receive(companyID, stock.ID, row.Quantity); err != nil {
				return err
			}

			auditLines = append(auditLines, models.InventoryTxLine{
				WarehouseID: warehouse.ID,
				LotID:       lot.ID,
				QtyDelta:    row.Quantity,
			})
		}

		if len(auditLines) == 0 {
			return apperr.BadRequest("upload has no valid rows")
		}

		auditRepo := repositories.NewAuditRepository(tx)
		if err := auditRepo.Append(companyID, userID, models.TxTypeInboundConfirm,
			models.TxRefInboundUpload, uploadID, auditLines); err != nil {
			return err
		}

		return tx.Model(&models.InboundUpload{}).
			Where("id = ?", uploadID).
			Update("status", models.UploadStatusConfirmed).Error
	})
}

func findOrCreateItemTx(tx *gorm.DB, companyID uint, code, name string) (*models.Item, error) {
	var item models.Item
	err := tx.Where("company_id = ? AND item_code = ?", companyID, code).First(&item).Error
	if err == nil {
		if name != "" && name != item.ItemName {
			if err := tx.Model(&item).Update("item_name", name).Error; err != nil {
				return nil, err
			}
		}
		return &item, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	item = models.Item{CompanyID: companyID, ItemCode: code, ItemName: name}
	if err := tx.Create(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func findOrCreateLotTx(tx *gorm.DB, companyID, itemID uint, expiry *time.Time) (*models.Lot, error) {
	query := tx.Where("company_id = ? AND item_id = ?", companyID, itemID)
	if expiry == nil {
		query = query.Where("expiry_date IS NULL")
	} else {
		query = query.Where("expiry_date = ?", *expiry)
	}

	var lot models.Lot
	err := query.First(&lot).Error
	if err == nil {
		return &lot, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	lot = models.Lot{CompanyID: companyID, ItemID: itemID, ExpiryDate: expiry}
	if err := tx.Create(&lot).Error; err != nil {
		return nil, err
	}
	return &lot, nil
}
