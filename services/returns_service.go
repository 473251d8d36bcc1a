package services

import (
	"errors"
	"time"

	"fulfillment-app/apperr"
	"fulfillment-app/models"
	"fulfillment-app/repositories"

	"gorm.io/gorm"
)

// ReturnsService handles goods coming back from customers: receipt
// intake, per-line restock/discard decisions, and the processing step
// that books restocked quantities back on hand. Discarded lines leave
// an audit entry but never touch the ledger.
type ReturnsService struct {
	db *gorm.DB
}

func NewReturnsService(db *gorm.DB) *ReturnsService {
	return &ReturnsService{db: db}
}

type CreateReturnLineInput struct {
	ItemID      uint       `json:"item_id" validate:"required"`
	StorageType string     `json:"storage_type" validate:"required,oneof=DRY COOL FRZ"`
	ExpiryDate  *time.Time `json:"expiry_date"`
	Qty         int        `json:"qty" validate:"required,min=1"`
}

type CreateReturnInput struct {
	CustomerID *uint                   `json:"customer_id"`
	ReceivedAt *time.Time              `json:"received_at"`
	Memo       string                  `json:"memo"`
	Lines      []CreateReturnLineInput `json:"lines" validate:"required,min=1,dive"`
}

// Create stores the receipt as RECEIVED. The customer is optional
// (walk-in returns have none); items must belong to the tenant.
func (s *ReturnsService) Create(companyID, userID uint, input *CreateReturnInput) (*models.ReturnReceipt, error) {
	var receipt *models.ReturnReceipt
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if input.CustomerID != nil {
			if err := findCustomerTx(tx, companyID, *input.CustomerID); err != nil {
				return err
			}
		}
		for _, lineInput := range input.Lines {
			if err := findItemTx(tx, companyID, lineInput.ItemID); err != nil {
				return err
			}
		}

		receivedAt := time.Now()
		if input.ReceivedAt != nil {
			receivedAt = *input.ReceivedAt
		}

		created := models.ReturnReceipt{
			CompanyID:        companyID,
			CustomerID:       input.CustomerID,
			Memo:             input.Memo,
			Status:           models.ReturnStatusReceived,
			Version:          1,
			ReceivedByUserID: userID,
			ReceivedAt:       receivedAt,
		}
		for _, lineInput := range input.Lines {
			created.Lines = append(created.Lines, models.ReturnLine{
				ItemID:      lineInput.ItemID,
				StorageType: lineInput.StorageType,
				ExpiryDate:  lineInput.ExpiryDate,
				Qty:         lineInput.Qty,
			})
		}
		if err := tx.Create(&created).Error; err != nil {
			return err
		}

		loaded, err := loadReturnReceiptTx(tx, companyID, created.ID)
		if err != nil {
			return err
		}
		receipt = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return receipt, nil
}

func (s *ReturnsService) List(companyID uint) ([]models.ReturnReceipt, error) {
	var receipts []models.ReturnReceipt
	err := s.db.Preload("Customer").Preload("Lines").
		Where("company_id = ?", companyID).
		Order("received_at DESC").
		Find(&receipts).Error
	if err != nil {
		return nil, err
	}
	return receipts, nil
}

func (s *ReturnsService) Detail(companyID, receiptID uint) (*models.ReturnReceipt, error) {
	return loadReturnReceiptTx(s.db, companyID, receiptID)
}

type ReturnLinePatch struct {
	ID          uint       `json:"id"`
	ItemID      uint       `json:"item_id"`
	StorageType string     `json:"storage_type" validate:"omitempty,oneof=DRY COOL FRZ"`
	ExpiryDate  *time.Time `json:"expiry_date"`
	ClearExpiry bool       `json:"clear_expiry"`
	Qty         int        `json:"qty" validate:"min=0"`
	IsDeleted   bool       `json:"is_deleted"`
}

type UpdateReturnInput struct {
	CustomerID *uint             `json:"customer_id"`
	ReceivedAt *time.Time        `json:"received_at"`
	Memo       *string           `json:"memo"`
	Lines      []ReturnLinePatch `json:"lines" validate:"dive"`
}

// Update edits a RECEIVED receipt in place. Line patches carry an ID to
// modify or delete an existing line, or no ID to add one. Lines that
// already have a decision or were processed are off limits.
func (s *ReturnsService) Update(companyID, receiptID uint, input *UpdateReturnInput) (*models.ReturnReceipt, error) {
	var receipt *models.ReturnReceipt
	err := s.db.Transaction(func(tx *gorm.DB) error {
		loaded, err := loadReturnReceiptTx(tx, companyID, receiptID)
		if err != nil {
			return err
		}
		if loaded.Status != models.ReturnStatusReceived {
			return apperr.InvalidState("update return", loaded.Status)
		}

		if input.CustomerID != nil {
			if err := findCustomerTx(tx, companyID, *input.CustomerID); err != nil {
				return err
			}
		}

		header := map[string]interface{}{"version": gorm.Expr("version + 1")}
		if input.CustomerID != nil {
			header["customer_id"] = *input.CustomerID
		}
		if input.ReceivedAt != nil {
			header["received_at"] = *input.ReceivedAt
		}
		if input.Memo != nil {
			header["memo"] = *input.Memo
		}
		if err := tx.Model(&models.ReturnReceipt{}).
			Where("id = ?", receiptID).
			Updates(header).Error; err != nil {
			return err
		}

		existing := map[uint]models.ReturnLine{}
		for _, line := range loaded.Lines {
			existing[line.ID] = line
		}

		for _, patch := range input.Lines {
			if patch.ID != 0 {
				line, ok := existing[patch.ID]
				if !ok {
					return apperr.BadRequest("invalid line id")
				}
				if line.Decision != "" || line.ProcessedAt != nil {
					return apperr.BadRequest("cannot update a decided or processed line")
				}

				if patch.IsDeleted {
					if err := tx.Delete(&models.ReturnLine{}, patch.ID).Error; err != nil {
						return err
					}
					continue
				}

				updates := map[string]interface{}{}
				if patch.ItemID != 0 {
					if err := findItemTx(tx, companyID, patch.ItemID); err != nil {
						return err
					}
					updates["item_id"] = patch.ItemID
				}
				if patch.StorageType != "" {
					updates["storage_type"] = patch.StorageType
				}
				if patch.Qty > 0 {
					updates["qty"] = patch.Qty
				}
				if patch.ClearExpiry {
					updates["expiry_date"] = nil
				} else if patch.ExpiryDate != nil {
					updates["expiry_date"] = *patch.ExpiryDate
				}
				if len(updates) == 0 {
					continue
				}
				if err := tx.Model(&models.ReturnLine{}).
					Where("id = ?", patch.ID).
					Updates(updates).Error; err != nil {
					return err
				}
				continue
			}

			if patch.IsDeleted {
				return apperr.BadRequest("invalid line patch")
			}
			if patch.ItemID == 0 || patch.StorageType == "" || patch.Qty <= 0 {
				return apperr.BadRequest("new line requires item, storage type and qty")
			}
			if err := findItemTx(tx, companyID, patch.ItemID); err != nil {
				return err
			}
			line := models.ReturnLine{
				ReceiptID:   receiptID,
				ItemID:      patch.ItemID,
				StorageType: patch.StorageType,
				ExpiryDate:  patch.ExpiryDate,
				Qty:         patch.Qty,
			}
			if err := tx.Create(&line).Error; err != nil {
				return err
			}
		}

		receipt, err = loadReturnReceiptTx(tx, companyID, receiptID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return receipt, nil
}

// Cancel voids a receipt that was taken in error. Only RECEIVED
// receipts cancel; once decided the lines must be processed out.
func (s *ReturnsService) Cancel(companyID, receiptID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		receipt, err := loadReturnReceiptTx(tx, companyID, receiptID)
		if err != nil {
			return err
		}
		if receipt.Status != models.ReturnStatusReceived {
			return apperr.InvalidState("cancel return", receipt.Status)
		}

		return tx.Model(&models.ReturnReceipt{}).
			Where("id = ?", receiptID).
			Updates(map[string]interface{}{
				"status":  models.ReturnStatusCancelled,
				"version": gorm.Expr("version + 1"),
			}).Error
	})
}

type ReturnDecisionInput struct {
	LineID   uint   `json:"line_id" validate:"required"`
	Decision string `json:"decision" validate:"required,oneof=RESTOCK DISCARD"`
}

// Decide rules RESTOCK or DISCARD per line and moves the receipt to
// DECIDED. Every decided line carries its own stamp so a partial
// process run later knows who ruled what.
func (s *ReturnsService) Decide(companyID, userID, receiptID uint, decisions []ReturnDecisionInput) (*models.ReturnReceipt, error) {
	if len(decisions) == 0 {
		return nil, apperr.BadRequest("decisions are required")
	}

	var receipt *models.ReturnReceipt
	err := s.db.Transaction(func(tx *gorm.DB) error {
		loaded, err := loadReturnReceiptTx(tx, companyID, receiptID)
		if err != nil {
			return err
		}
		if loaded.Status != models.ReturnStatusReceived {
			return apperr.InvalidState("decide return", loaded.Status)
		}

		existing := map[uint]models.ReturnLine{}
		for _, line := range loaded.Lines {
			existing[line.ID] = line
		}

		now := time.Now()
		for _, decision := range decisions {
			if _, ok := existing[decision.LineID]; !ok {
				return apperr.BadRequest("invalid line id")
			}
			if err := tx.Model(&models.ReturnLine{}).
				Where("id = ?", decision.LineID).
				Updates(map[string]interface{}{
					"decision":           decision.Decision,
					"decided_by_user_id": userID,
					"decided_at":         now,
				}).Error; err != nil {
				return err
			}
		}

		if err := tx.Model(&models.ReturnReceipt{}).
			Where("id = ?", receiptID).
			Updates(map[string]interface{}{
				"status":             models.ReturnStatusDecided,
				"decided_by_user_id": userID,
				"decided_at":         now,
				"version":            gorm.Expr("version + 1"),
			}).Error; err != nil {
			return err
		}

		receipt, err = loadReturnReceiptTx(tx, companyID, receiptID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return receipt, nil
}

// Process books the named DECIDED lines. RESTOCK lines find or create
// their lot, land in the tenant's warehouse for the storage type and
// increment on-hand; DISCARD lines only leave an audit header. Already
// processed lines are skipped, so a partial run can be repeated. Once
// no unprocessed line remains the receipt completes.
func (s *ReturnsService) Process(companyID, userID, receiptID uint, lineIDs []uint) (*models.ReturnReceipt, error) {
	if len(lineIDs) == 0 {
		return nil, apperr.BadRequest("line ids are required")
	}

	var receipt *models.ReturnReceipt
	err := s.db.Transaction(func(tx *gorm.DB) error {
		loaded, err := loadReturnReceiptTx(tx, companyID, receiptID)
		if err != nil {
			return err
		}
		if loaded.Status != models.ReturnStatusDecided {
			return apperr.InvalidState("process return", loaded.Status)
		}

		existing := map[uint]models.ReturnLine{}
		for _, line := range loaded.Lines {
			existing[line.ID] = line
		}

		stockRepo := repositories.NewStockRepository(tx)
		var restocked []models.InventoryTxLine
		discarded := false
		now := time.Now()

		for _, lineID := range lineIDs {
			line, ok := existing[lineID]
			if !ok {
				return apperr.BadRequest("invalid line id")
			}
			if line.Decision == "" {
				return apperr.BadRequest("line has no decision")
			}
			if line.ProcessedAt != nil {
				continue
			}

			if line.Decision == models.ReturnDecisionRestock {
				var warehouse models.Warehouse
				if err := tx.Where("company_id = ? AND storage_type = ?", companyID, line.StorageType).
					First(&warehouse).Error; err != nil {
					if errors.Is(err, gorm.ErrRecordNotFound) {
						return apperr.NotFound("warehouse for storage type " + line.StorageType)
					}
					return err
				}

				lot, err := findOrCreateLotTx(tx, companyID, line.ItemID, line.ExpiryDate)
				if err != nil {
					return err
				}

				stock, err := stockRepo.FindOrCreate(companyID, warehouse.ID, lot.ID)
				if err != nil {
					return err
				}
				if err := stockRepo.Receive(companyID, stock.ID, line.Qty); err != nil {
					return err
				}

				restocked = append(restocked, models.InventoryTxLine{
					WarehouseID: warehouse.ID,
					LotID:       lot.ID,
					QtyDelta:    line.Qty,
				})
			} else {
				discarded = true
			}

			if err := tx.Model(&models.ReturnLine{}).
				Where("id = ?", lineID).
				Updates(map[string]interface{}{
					"processed_by_user_id": userID,
					"processed_at":         now,
				}).Error; err != nil {
				return err
			}
			line.ProcessedAt = &now
			existing[lineID] = line
		}

		auditRepo := repositories.NewAuditRepository(tx)
		if len(restocked) > 0 {
			if err := auditRepo.Append(companyID, userID, models.TxTypeReturnRestock,
				models.TxRefReturnReceipt, receiptID, restocked); err != nil {
				return err
			}
		}
		if discarded {
			if err := auditRepo.Append(companyID, userID, models.TxTypeReturnDiscard,
				models.TxRefReturnReceipt, receiptID, nil); err != nil {
				return err
			}
		}

		var remaining int64
		if err := tx.Model(&models.ReturnLine{}).
			Where("receipt_id = ? AND processed_at IS NULL", receiptID).
			Count(&remaining).Error; err != nil {
			return err
		}
		if remaining == 0 {
			if err := tx.Model(&models.ReturnReceipt{}).
				Where("id = ?", receiptID).
				Updates(map[string]interface{}{
					"status":               models.ReturnStatusCompleted,
					"completed_by_user_id": userID,
					"completed_at":         now,
					"version":              gorm.Expr("version + 1"),
				}).Error; err != nil {
				return err
			}
		}

		receipt, err = loadReturnReceiptTx(tx, companyID, receiptID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return receipt, nil
}

func loadReturnReceiptTx(tx *gorm.DB, companyID, receiptID uint) (*models.ReturnReceipt, error) {
	var receipt models.ReturnReceipt
	err := tx.Preload("Customer").Preload("Lines").
		Where("id = ? AND company_id = ?", receiptID, companyID).
		First(&receipt).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("return receipt")
		}
		return nil, err
	}
	return &receipt, nil
}

func findCustomerTx(tx *gorm.DB, companyID, customerID uint) error {
	var customer models.Customer
	err := tx.Where("id = ? AND company_id = ?", customerID, companyID).First(&customer).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound("customer")
	}
	return err
}

func findItemTx(tx *gorm.DB, companyID, itemID uint) error {
	var item models.Item
	err := tx.Where("id = ? AND company_id = ?", itemID, companyID).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound("item")
	}
	return err
}
