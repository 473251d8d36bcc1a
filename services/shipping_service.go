package services

import (
	"time"

	"fulfillment-app/apperr"
	"fulfillment-app/models"
	"fulfillment-app/notifier"
	"fulfillment-app/repositories"

	"gorm.io/gorm"
)

// ShippingService moves orders through the post-pick stages and, on
// completion, converts reservations into real on-hand deductions.
type ShippingService struct {
	db     *gorm.DB
	mailer *notifier.Mailer
}

func NewShippingService(db *gorm.DB, mailer *notifier.Mailer) *ShippingService {
	return &ShippingService{db: db, mailer: mailer}
}

// Verify signs off a submitted pick: PICKED moves to READY_TO_SHIP.
func (s *ShippingService) Verify(companyID, userID, orderID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		order, err := loadOrderTx(tx, companyID, orderID)
		if err != nil {
			return err
		}
		if order.Status != models.OrderStatusPicked {
			return apperr.InvalidState("verify", order.Status)
		}

		now := time.Now()
		return tx.Model(&models.OutboundOrder{}).
			Where("id = ?", orderID).
			Updates(map[string]interface{}{
				"status":              models.OrderStatusReadyToShip,
				"verified_by_user_id": userID,
				"verified_at":         now,
			}).Error
	})
}

// Start begins physical shipping: READY_TO_SHIP moves to SHIPPING.
// From here on the order can no longer be edited, only cancelled.
func (s *ShippingService) Start(companyID, userID, orderID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		order, err := loadOrderTx(tx, companyID, orderID)
		if err != nil {
			return err
		}
		if order.Status != models.OrderStatusReadyToShip {
			return apperr.InvalidState("start shipping", order.Status)
		}

		now := time.Now()
		return tx.Model(&models.OutboundOrder{}).
			Where("id = ?", orderID).
			Updates(map[string]interface{}{
				"status":                      models.OrderStatusShipping,
				"shipping_started_by_user_id": userID,
				"shipping_started_at":         now,
			}).Error
	})
}

// Complete settles a SHIPPING order. Every active allocation on a live
// line commits: reserved drops by the allocated quantity, on-hand drops
// by the quantity actually shipped. Shipping more than was allocated is
// corruption and aborts everything.
func (s *ShippingService) Complete(companyID, userID, orderID uint) error {
	var delivered *models.OutboundOrder

	err := s.db.Transaction(func(tx *gorm.DB) error {
		order, err := loadOrderWithLinesTx(tx, companyID, orderID)
		if err != nil {
			return err
		}
		if order.Status != models.OrderStatusShipping {
			return apperr.InvalidState("complete", order.Status)
		}

		stockRepo := repositories.NewStockRepository(tx)
		allocRepo := repositories.NewAllocationRepository(tx)

		allocations, err := allocRepo.ActiveByOrder(companyID, orderID, true)
		if err != nil {
			return err
		}
		if len(allocations) == 0 {
			return apperr.BadRequest("nothing allocated to ship")
		}

		shippedByLine := map[uint]int{}
		var auditLines []models.InventoryTxLine

		for _, alloc := range allocations {
			committed := alloc.CommitQty()
			if committed > alloc.Qty {
				return apperr.Inconsistent("allocation %d commits %d over its reserved %d", alloc.ID, committed, alloc.Qty)
			}

			stock, err := stockRepo.FindByKeyForUpdate(companyID, alloc.WarehouseID, alloc.LotID)
			if err != nil {
				return err
			}
			if err := stockRepo.Commit(companyID, stock.ID, committed, alloc.Qty); err != nil {
				return err
			}
			if err := allocRepo.MarkCommitted(alloc.ID); err != nil {
				return err
			}

			shippedByLine[alloc.OutboundLineID] += committed
			auditLines = append(auditLines, models.InventoryTxLine{
				WarehouseID: alloc.WarehouseID,
				LotID:       alloc.LotID,
				QtyDelta:    -committed,
			})
		}

		for _, line := range order.Lines {
			if line.Status == models.LineStatusCancelled {
				continue
			}
			if err := tx.Model(&models.OutboundLine{}).
				Where("id = ?", line.ID).
				Update("shipped_qty", shippedByLine[line.ID]).Error; err != nil {
				return err
			}
		}

		now := time.Now()
		if err := tx.Model(&models.OutboundOrder{}).
			Where("id = ?", orderID).
			Updates(map[string]interface{}{
				"status":               models.OrderStatusDelivered,
				"delivered_by_user_id": userID,
				"delivered_at":         now,
			}).Error; err != nil {
			return err
		}

		auditRepo := repositories.NewAuditRepository(tx)
		if err := auditRepo.Append(companyID, userID, models.TxTypeOutboundConfirm,
			models.TxRefOutboundOrder, orderID, auditLines); err != nil {
			return err
		}

		var full models.OutboundOrder
		if err := tx.Preload("Customer").First(&full, orderID).Error; err != nil {
			return err
		}
		delivered = &full
		return nil
	})
	if err != nil {
		return err
	}

	if s.mailer != nil && delivered != nil {
		go s.mailer.SendDeliveryNotice(delivered)
	}
	return nil
}
