package services

import (
	"errors"
	"time"

	"fulfillment-app/apperr"
	"fulfillment-app/models"
	"fulfillment-app/repositories"

	"gorm.io/gorm"
)

// OrderService owns the outbound order lifecycle and line edits.
// Every edit keeps the reservation picture in sync: growing a line
// reserves the delta, shrinking or cancelling releases it.
type OrderService struct {
	db      *gorm.DB
	picking *PickingService
}

func NewOrderService(db *gorm.DB, picking *PickingService) *OrderService {
	return &OrderService{db: db, picking: picking}
}

type CreateOrderLineInput struct {
	ItemID       uint `json:"item_id" validate:"required"`
	RequestedQty int  `json:"requested_qty" validate:"required,min=1"`
}

type CreateOrderInput struct {
	CustomerID  uint                   `json:"customer_id" validate:"required"`
	PlannedDate time.Time              `json:"planned_date"`
	Memo        string                 `json:"memo"`
	Lines       []CreateOrderLineInput `json:"lines" validate:"required,min=1,dive"`
}

type CreateOrderResult struct {
	Order          *models.OutboundOrder `json:"order"`
	ShortageByLine map[uint]int          `json:"shortage_by_line,omitempty"`
}

// Create stores the order as DRAFT and immediately reserves it. Stock
// shortage does not fail the call, the result reports what is missing.
func (s *OrderService) Create(companyID, userID uint, input *CreateOrderInput) (*CreateOrderResult, error) {
	result := &CreateOrderResult{}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var customer models.Customer
		if err := tx.Where("id = ? AND company_id = ?", input.CustomerID, companyID).
			First(&customer).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("customer")
			}
			return err
		}

		for _, lineInput := range input.Lines {
			var item models.Item
			if err := tx.Where("id = ? AND company_id = ?", lineInput.ItemID, companyID).
				First(&item).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperr.NotFound("item")
				}
				return err
			}
		}

		order := models.OutboundOrder{
			CompanyID:       companyID,
			CustomerID:      input.CustomerID,
			PlannedDate:     input.PlannedDate,
			Memo:            input.Memo,
			Status:          models.OrderStatusDraft,
			Version:         1,
			CreatedByUserID: userID,
		}
		for _, lineInput := range input.Lines {
			order.Lines = append(order.Lines, models.OutboundLine{
				ItemID:       lineInput.ItemID,
				RequestedQty: lineInput.RequestedQty,
				Status:       models.LineStatusActive,
			})
		}
		if err := tx.Create(&order).Error; err != nil {
			return err
		}

		reserved, err := s.picking.ReserveForOrderTx(tx, companyID, userID, order.ID,
			[]string{models.OrderStatusDraft}, false)
		if err != nil {
			return err
		}
		result.ShortageByLine = reserved.ShortageByLine

		loaded, err := loadOrderWithLinesTx(tx, companyID, order.ID)
		if err != nil {
			return err
		}
		result.Order = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *OrderService) List(companyID uint, status string) ([]models.OutboundOrder, error) {
	var orders []models.OutboundOrder
	query := s.db.Preload("Customer").Where("company_id = ?", companyID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Order("id DESC").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (s *OrderService) Detail(companyID, orderID uint) (*models.OutboundOrder, error) {
	var order models.OutboundOrder
	err := s.db.Preload("Customer").Preload("Lines").
		Where("id = ? AND company_id = ?", orderID, companyID).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("outbound order")
		}
		return nil, err
	}
	return &order, nil
}

// ensureEditableTx enforces the edit window. DRAFT and PICKING orders
// edit in place. PICKED and READY_TO_SHIP orders drop back to PICKING
// first, which resets picked quantities and clears stage stamps so the
// pick has to be signed off again. A SHIPPING order refuses edits but
// can still be cancelled; DELIVERED and CANCELLED are final.
func (s *OrderService) ensureEditableTx(tx *gorm.DB, order *models.OutboundOrder) error {
	switch order.Status {
	case models.OrderStatusDraft, models.OrderStatusPicking:
		return nil
	case models.OrderStatusPicked, models.OrderStatusReadyToShip:
		if err := tx.Model(&models.OutboundLine{}).
			Where("order_id = ?", order.ID).
			Update("picked_qty", 0).Error; err != nil {
			return err
		}
		if err := rollbackToPickingTx(tx, order.ID); err != nil {
			return err
		}
		order.Status = models.OrderStatusPicking
		return nil
	case models.OrderStatusShipping:
		return apperr.ErrOrderNotEditable
	default:
		return apperr.ErrOrderFinal
	}
}

func (s *OrderService) bumpVersionTx(tx *gorm.DB, orderID uint) error {
	return tx.Model(&models.OutboundOrder{}).
		Where("id = ?", orderID).
		Update("version", gorm.Expr("version + 1")).Error
}

type AddLineInput struct {
	ItemID       uint `json:"item_id" validate:"required"`
	RequestedQty int  `json:"requested_qty" validate:"required,min=1"`
}

func (s *OrderService) AddLine(companyID, userID, orderID uint, input *AddLineInput) (int, error) {
	shortage := 0
	err := s.db.Transaction(func(tx *gorm.DB) error {
		order, err := loadOrderTx(tx, companyID, orderID)
		if err != nil {
			return err
		}
		if err := s.ensureEditableTx(tx, order); err != nil {
			return err
		}

		var item models.Item
		if err := tx.Where("id = ? AND company_id = ?", input.ItemID, companyID).
			First(&item).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("item")
			}
			return err
		}

		line := models.OutboundLine{
			OrderID:      orderID,
			ItemID:       input.ItemID,
			RequestedQty: input.RequestedQty,
			Status:       models.LineStatusActive,
		}
		if err := tx.Create(&line).Error; err != nil {
			return err
		}

		if order.Status == models.OrderStatusPicking {
			shortage, err = s.picking.ReserveAdditionalForLineTx(tx, companyID, line.ID, line.ItemID, line.RequestedQty)
			if err != nil {
				return err
			}
			allocRepo := repositories.NewAllocationRepository(tx)
			reservedNow, err := allocRepo.SumActiveQtyByLine(companyID, line.ID)
			if err != nil {
				return err
			}
			if reservedNow > 0 {
				allocations, err := allocRepo.ActiveByLine(companyID, line.ID)
				if err != nil {
					return err
				}
				var auditLines []models.InventoryTxLine
				for _, alloc := range allocations {
					auditLines = append(auditLines, models.InventoryTxLine{
						WarehouseID: alloc.WarehouseID,
						LotID:       alloc.LotID,
						QtyDelta:    alloc.Qty,
					})
				}
				auditRepo := repositories.NewAuditRepository(tx)
				if err := auditRepo.Append(companyID, userID, models.TxTypePickReserve,
					models.TxRefOutboundLine, line.ID, auditLines); err != nil {
					return err
				}
			}
		}

		return s.bumpVersionTx(tx, orderID)
	})
	if err != nil {
		return 0, err
	}
	return shortage, nil
}

type UpdateLineInput struct {
	RequestedQty int `json:"requested_qty" validate:"required,min=1"`
}

// UpdateLine reconciles reservations toward the new requested quantity:
// the line keeps its existing allocations and only the delta moves.
func (s *OrderService) UpdateLine(companyID, userID, orderID, lineID uint, input *UpdateLineInput) (int, error) {
	shortage := 0
	err := s.db.Transaction(func(tx *gorm.DB) error {
		order, err := loadOrderTx(tx, companyID, orderID)
		if err != nil {
			return err
		}
		if err := s.ensureEditableTx(tx, order); err != nil {
			return err
		}

		var line models.OutboundLine
		if err := tx.Where("id = ? AND order_id = ?", lineID, orderID).
			First(&line).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("line")
			}
			return err
		}
		if line.Status == models.LineStatusCancelled {
			return apperr.BadRequest("cannot edit cancelled line")
		}

		if err := tx.Model(&models.OutboundLine{}).
			Where("id = ?", lineID).
			Update("requested_qty", input.RequestedQty).Error; err != nil {
			return err
		}

		if order.Status == models.OrderStatusPicking {
			allocRepo := repositories.NewAllocationRepository(tx)
			reserved, err := allocRepo.SumActiveQtyByLine(companyID, lineID)
			if err != nil {
				return err
			}

			switch {
			case reserved > input.RequestedQty:
				released, err := s.picking.ReleaseQtyForLineTx(tx, companyID, lineID, reserved-input.RequestedQty)
				if err != nil {
					return err
				}
				auditRepo := repositories.NewAuditRepository(tx)
				if err := auditRepo.Append(companyID, userID, models.TxTypePickRelease,
					models.TxRefOutboundLine, lineID, released); err != nil {
					return err
				}
			case reserved < input.RequestedQty:
				shortage, err = s.picking.ReserveAdditionalForLineTx(tx, companyID, lineID, line.ItemID, input.RequestedQty-reserved)
				if err != nil {
					return err
				}
			}
		}

		return s.bumpVersionTx(tx, orderID)
	})
	if err != nil {
		return 0, err
	}
	return shortage, nil
}

func (s *OrderService) CancelLine(companyID, userID, orderID, lineID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		order, err := loadOrderTx(tx, companyID, orderID)
		if err != nil {
			return err
		}
		if err := s.ensureEditableTx(tx, order); err != nil {
			return err
		}

		var line models.OutboundLine
		if err := tx.Where("id = ? AND order_id = ?", lineID, orderID).
			First(&line).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("line")
			}
			return err
		}
		if line.Status == models.LineStatusCancelled {
			return apperr.BadRequest("line already cancelled")
		}

		allocRepo := repositories.NewAllocationRepository(tx)
		reserved, err := allocRepo.SumActiveQtyByLine(companyID, lineID)
		if err != nil {
			return err
		}
		if reserved > 0 {
			released, err := s.picking.ReleaseQtyForLineTx(tx, companyID, lineID, reserved)
			if err != nil {
				return err
			}
			auditRepo := repositories.NewAuditRepository(tx)
			if err := auditRepo.Append(companyID, userID, models.TxTypePickRelease,
				models.TxRefOutboundLine, lineID, released); err != nil {
				return err
			}
		}

		if err := tx.Model(&models.OutboundLine{}).
			Where("id = ?", lineID).
			Updates(map[string]interface{}{
				"status":      models.LineStatusCancelled,
				"picked_qty":  0,
				"shipped_qty": 0,
			}).Error; err != nil {
			return err
		}

		return s.bumpVersionTx(tx, orderID)
	})
}

// CancelOrder works from any non-terminal status and releases every
// outstanding reservation.
func (s *OrderService) CancelOrder(companyID, userID, orderID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		order, err := loadOrderTx(tx, companyID, orderID)
		if err != nil {
			return err
		}

		switch order.Status {
		case models.OrderStatusDelivered, models.OrderStatusCancelled:
			return apperr.ErrOrderFinal
		}

		released, err := s.picking.ReleaseAllForOrderTx(tx, companyID, orderID)
		if err != nil {
			return err
		}
		if len(released) > 0 {
			auditRepo := repositories.NewAuditRepository(tx)
			if err := auditRepo.Append(companyID, userID, models.TxTypePickRelease,
				models.TxRefOutboundOrder, orderID, released); err != nil {
				return err
			}
		}

		if err := tx.Model(&models.OutboundLine{}).
			Where("order_id = ?", orderID).
			Updates(map[string]interface{}{
				"picked_qty":  0,
				"shipped_qty": 0,
			}).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.OutboundOrder{}).
			Where("id = ?", orderID).
			Update("status", models.OrderStatusCancelled).Error; err != nil {
			return err
		}

		return s.bumpVersionTx(tx, orderID)
	})
}
