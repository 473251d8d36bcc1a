package services

import (
	"errors"

	"fulfillment-app/apperr"
	"fulfillment-app/models"

	"gorm.io/gorm"
)

func loadOrderTx(tx *gorm.DB, companyID, orderID uint) (*models.OutboundOrder, error) {
	var order models.OutboundOrder
	err := tx.Where("id = ? AND company_id = ?", orderID, companyID).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("outbound order")
		}
		return nil, err
	}
	return &order, nil
}

func loadOrderWithLinesTx(tx *gorm.DB, companyID, orderID uint) (*models.OutboundOrder, error) {
	var order models.OutboundOrder
	err := tx.Preload("Lines").Where("id = ? AND company_id = ?", orderID, companyID).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("outbound order")
		}
		return nil, err
	}
	return &order, nil
}

func statusIn(status string, allowed []string) bool {
	for _, s := range allowed {
		if s == status {
			return true
		}
	}
	return false
}

// clearStageMetadataTx wipes every stage stamp downstream of reservation.
// A re-reserve or rollback makes prior sign-offs meaningless, so they
// must not survive on the row.
func clearStageMetadataTx(tx *gorm.DB, orderID uint) error {
	return tx.Model(&models.OutboundOrder{}).
		Where("id = ?", orderID).
		Updates(map[string]interface{}{
			"picked_submitted_by_user_id": nil,
			"picked_submitted_at":         nil,
			"verified_by_user_id":         nil,
			"verified_at":                 nil,
			"shipping_started_by_user_id": nil,
			"shipping_started_at":         nil,
			"delivered_by_user_id":        nil,
			"delivered_at":                nil,
		}).Error
}

// rollbackToPickingTx drops an order back to PICKING and clears the
// stamps that justified its previous stage.
func rollbackToPickingTx(tx *gorm.DB, orderID uint) error {
	if err := tx.Model(&models.OutboundOrder{}).
		Where("id = ?", orderID).
		Update("status", models.OrderStatusPicking).Error; err != nil {
		return err
	}
	return clearStageMetadataTx(tx, orderID)
}
