package services

import (
	"errors"
	"time"

	"fulfillment-app/apperr"
	"fulfillment-app/models"
	"fulfillment-app/repositories"

	"gorm.io/gorm"
)

// PickingService coordinates reservations: whole-order FEFO reserve,
// per-line deltas, LIFO release, pick submission and manual picks.
// Public methods own the transaction; Tx methods compose inside one.
type PickingService struct {
	db        *gorm.DB
	allocator *AllocatorService
}

func NewPickingService(db *gorm.DB, allocator *AllocatorService) *PickingService {
	return &PickingService{db: db, allocator: allocator}
}

// ReserveResult reports what a reserve call actually did. ShortageByLine
// is non-empty when stock could not cover every line in full.
type ReserveResult struct {
	OrderID        uint         `json:"order_id"`
	ShortageByLine map[uint]int `json:"shortage_by_line,omitempty"`
}

func (s *PickingService) ReserveForOrder(companyID, userID, orderID uint, force bool) (*ReserveResult, error) {
	var result *ReserveResult
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var txErr error
		result, txErr = s.ReserveForOrderTx(tx, companyID, userID, orderID,
			[]string{models.OrderStatusDraft, models.OrderStatusPicking}, force)
		return txErr
	})
	return result, err
}

// ReserveForOrderTx reserves every active line of the order via FEFO.
// An order that already has active allocations rejects with
// AlreadyReserved unless force is set, in which case everything is
// released first and re-allocated from scratch. On success the order
// moves to PICKING and any stale downstream stage stamps are cleared.
func (s *PickingService) ReserveForOrderTx(tx *gorm.DB, companyID, userID, orderID uint, allowStatuses []string, force bool) (*ReserveResult, error) {
	order, err := loadOrderWithLinesTx(tx, companyID, orderID)
	if err != nil {
		return nil, err
	}

	if !statusIn(order.Status, allowStatuses) {
		return nil, apperr.InvalidState("reserve", order.Status)
	}

	allocRepo := repositories.NewAllocationRepository(tx)

	existing, err := allocRepo.CountActiveByOrder(companyID, orderID)
	if err != nil {
		return nil, err
	}
	if existing > 0 {
		if !force {
			return nil, apperr.ErrAlreadyReserved
		}
		released, err := s.ReleaseAllForOrderTx(tx, companyID, orderID)
		if err != nil {
			return nil, err
		}
		auditRepo := repositories.NewAuditRepository(tx)
		if err := auditRepo.Append(companyID, userID, models.TxTypePickRelease,
			models.TxRefOutboundOrder, orderID, released); err != nil {
			return nil, err
		}
	}

	result := &ReserveResult{OrderID: orderID, ShortageByLine: map[uint]int{}}
	var auditLines []models.InventoryTxLine

	for _, line := range order.Lines {
		if line.Status == models.LineStatusCancelled || line.RequestedQty <= 0 {
			continue
		}

		allocations, shortage, err := s.allocator.AllocateTx(tx, companyID, line.ID, line.ItemID, line.RequestedQty)
		if err != nil {
			return nil, err
		}
		if shortage > 0 {
			result.ShortageByLine[line.ID] = shortage
		}
		for _, alloc := range allocations {
			auditLines = append(auditLines, models.InventoryTxLine{
				WarehouseID: alloc.WarehouseID,
				LotID:       alloc.LotID,
				QtyDelta:    alloc.Qty,
			})
		}
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":              models.OrderStatusPicking,
		"reserved_by_user_id": userID,
		"reserved_at":         now,
	}
	if err := tx.Model(&models.OutboundOrder{}).Where("id = ?", orderID).Updates(updates).Error; err != nil {
		return nil, err
	}
	if err := clearStageMetadataTx(tx, orderID); err != nil {
		return nil, err
	}

	auditRepo := repositories.NewAuditRepository(tx)
	if err := auditRepo.Append(companyID, userID, models.TxTypePickReserve,
		models.TxRefOutboundOrder, orderID, auditLines); err != nil {
		return nil, err
	}

	if len(result.ShortageByLine) == 0 {
		result.ShortageByLine = nil
	}
	return result, nil
}

// ReserveAdditionalForLineTx reserves only the delta for a line whose
// requested quantity grew. Shortage follows the same partial policy as
// whole-order reserve.
func (s *PickingService) ReserveAdditionalForLineTx(tx *gorm.DB, companyID, lineID, itemID uint, addQty int) (int, error) {
	if addQty <= 0 {
		return 0, nil
	}
	_, shortage, err := s.allocator.AllocateTx(tx, companyID, lineID, itemID, addQty)
	return shortage, err
}

// ReleaseQtyForLineTx undoes qty reserved units on the line, newest
// allocations first. An allocation consumed exactly is flagged released;
// a partially consumed one shrinks in place. Needing to release more
// than is reserved means the ledger and allocations disagree, which is
// corruption, so it aborts the transaction.
func (s *PickingService) ReleaseQtyForLineTx(tx *gorm.DB, companyID, lineID uint, qty int) ([]models.InventoryTxLine, error) {
	if qty <= 0 {
		return nil, nil
	}

	stockRepo := repositories.NewStockRepository(tx)
	allocRepo := repositories.NewAllocationRepository(tx)

	allocations, err := allocRepo.ActiveByLine(companyID, lineID)
	if err != nil {
		return nil, err
	}

	var released []models.InventoryTxLine
	remaining := qty
	for _, alloc := range allocations {
		if remaining <= 0 {
			break
		}

		releaseQty := alloc.Qty
		if remaining < releaseQty {
			releaseQty = remaining
		}

		stock, err := stockRepo.FindByKeyForUpdate(companyID, alloc.WarehouseID, alloc.LotID)
		if err != nil {
			return nil, err
		}
		if err := stockRepo.Release(companyID, stock.ID, releaseQty); err != nil {
			return nil, err
		}

		if releaseQty == alloc.Qty {
			if err := allocRepo.MarkReleased(alloc.ID); err != nil {
				return nil, err
			}
		} else {
			if err := allocRepo.ShrinkQty(alloc.ID, alloc.Qty-releaseQty); err != nil {
				return nil, err
			}
		}

		released = append(released, models.InventoryTxLine{
			WarehouseID: alloc.WarehouseID,
			LotID:       alloc.LotID,
			QtyDelta:    -releaseQty,
		})
		remaining -= releaseQty
	}

	if remaining > 0 {
		return nil, apperr.Inconsistent("line %d has %d units less reserved than the release of %d requires", lineID, remaining, qty)
	}
	return released, nil
}

// ReleaseAllForOrderTx unconditionally releases every active allocation
// across the order's lines. Used on cancellation and forced re-reserve.
func (s *PickingService) ReleaseAllForOrderTx(tx *gorm.DB, companyID, orderID uint) ([]models.InventoryTxLine, error) {
	stockRepo := repositories.NewStockRepository(tx)
	allocRepo := repositories.NewAllocationRepository(tx)

	allocations, err := allocRepo.ActiveByOrder(companyID, orderID, false)
	if err != nil {
		return nil, err
	}

	var released []models.InventoryTxLine
	for _, alloc := range allocations {
		stock, err := stockRepo.FindByKeyForUpdate(companyID, alloc.WarehouseID, alloc.LotID)
		if err != nil {
			return nil, err
		}
		if err := stockRepo.Release(companyID, stock.ID, alloc.Qty); err != nil {
			return nil, err
		}
		if err := allocRepo.MarkReleased(alloc.ID); err != nil {
			return nil, err
		}
		released = append(released, models.InventoryTxLine{
			WarehouseID: alloc.WarehouseID,
			LotID:       alloc.LotID,
			QtyDelta:    -alloc.Qty,
		})
	}

	return released, nil
}

// RecordPickedQty stores the quantity physically picked against one
// allocation. Zero means not picked yet; the shipped amount falls back
// to the reserved quantity when no pick was recorded.
func (s *PickingService) RecordPickedQty(companyID, userID, orderID, allocID uint, pickedQty int) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if pickedQty < 0 {
			return apperr.BadRequest("picked qty cannot be negative")
		}

		order, err := loadOrderTx(tx, companyID, orderID)
		if err != nil {
			return err
		}
		if order.Status != models.OrderStatusPicking {
			return apperr.InvalidState("record pick", order.Status)
		}

		var alloc models.PickAllocation
		if err := tx.Where("id = ? AND company_id = ?", allocID, companyID).
			First(&alloc).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("allocation")
			}
			return err
		}
		if alloc.IsReleased || alloc.IsCommitted {
			return apperr.BadRequest("allocation is no longer active")
		}
		if pickedQty > alloc.Qty {
			return apperr.ErrOverPick
		}

		var line models.OutboundLine
		if err := tx.Where("id = ? AND order_id = ?", alloc.OutboundLineID, orderID).
			First(&line).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("line")
			}
			return err
		}

		allocRepo := repositories.NewAllocationRepository(tx)
		return allocRepo.SetPickedQty(allocID, pickedQty)
	})
}

// Submit closes the picking stage: per-line picked sums are validated
// against requested quantities and written back, and the order moves to
// PICKED. Under-picking is a supported outcome; over-picking never is.
func (s *PickingService) Submit(companyID, userID, orderID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		order, err := loadOrderWithLinesTx(tx, companyID, orderID)
		if err != nil {
			return err
		}

		if order.Status != models.OrderStatusPicking {
			return apperr.InvalidState("submit", order.Status)
		}

		allocRepo := repositories.NewAllocationRepository(tx)
		allocations, err := allocRepo.ActiveByOrder(companyID, orderID, false)
		if err != nil {
			return err
		}
		if len(allocations) == 0 {
			return apperr.BadRequest("no active allocations to submit")
		}

		pickedByLine := map[uint]int{}
		for _, alloc := range allocations {
			pickedByLine[alloc.OutboundLineID] += alloc.CommitQty()
		}

		for _, line := range order.Lines {
			if line.Status == models.LineStatusCancelled {
				continue
			}

			picked := pickedByLine[line.ID]
			if picked > line.RequestedQty {
				return apperr.ErrOverPick
			}

			if err := tx.Model(&models.OutboundLine{}).
				Where("id = ?", line.ID).
				Update("picked_qty", picked).Error; err != nil {
				return err
			}
		}

		now := time.Now()
		return tx.Model(&models.OutboundOrder{}).
			Where("id = ?", orderID).
			Updates(map[string]interface{}{
				"status":                      models.OrderStatusPicked,
				"picked_submitted_by_user_id": userID,
				"picked_submitted_at":         now,
			}).Error
	})
}

// ManualPick reserves qty on an operator-chosen stock row. Unlike FEFO
// reserve this is strict: less than qty available fails the whole call.
// A manual pick after submission or verification invalidates the prior
// sign-off, so the order drops back to PICKING.
func (s *PickingService) ManualPick(companyID, userID, orderID, lineID, warehouseID, lotID uint, qty int) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if qty <= 0 {
			return apperr.BadRequest("qty must be positive")
		}

		order, err := loadOrderWithLinesTx(tx, companyID, orderID)
		if err != nil {
			return err
		}

		allowed := []string{models.OrderStatusPicking, models.OrderStatusPicked, models.OrderStatusReadyToShip}
		if !statusIn(order.Status, allowed) {
			return apperr.InvalidState("manual pick", order.Status)
		}

		var line *models.OutboundLine
		for i := range order.Lines {
			if order.Lines[i].ID == lineID {
				line = &order.Lines[i]
				break
			}
		}
		if line == nil {
			return apperr.NotFound("line")
		}
		if line.Status == models.LineStatusCancelled {
			return apperr.BadRequest("cannot pick cancelled line")
		}

		stockRepo := repositories.NewStockRepository(tx)
		stock, err := stockRepo.FindByKeyForUpdate(companyID, warehouseID, lotID)
		if err != nil {
			return err
		}

		var lot models.Lot
		if err := tx.Where("id = ? AND company_id = ?", lotID, companyID).First(&lot).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("lot")
			}
			return err
		}
		if lot.ItemID != line.ItemID {
			return apperr.BadRequest("lot does not belong to the line item")
		}

		if stock.Available() < qty {
			return apperr.ErrInsufficientStock
		}
		if err := stockRepo.Reserve(companyID, stock.ID, qty); err != nil {
			return err
		}

		allocRepo := repositories.NewAllocationRepository(tx)
		alloc := models.PickAllocation{
			CompanyID:      companyID,
			OutboundLineID: lineID,
			WarehouseID:    warehouseID,
			LotID:          lotID,
			Qty:            qty,
			Source:         models.PickSourceManual,
		}
		if err := allocRepo.Create(&alloc); err != nil {
			return err
		}

		if order.Status != models.OrderStatusPicking {
			if err := tx.Model(&models.OutboundLine{}).
				Where("id = ?", lineID).
				Update("picked_qty", 0).Error; err != nil {
				return err
			}
			if err := rollbackToPickingTx(tx, orderID); err != nil {
				return err
			}
		}

		auditRepo := repositories.NewAuditRepository(tx)
		return auditRepo.Append(companyID, userID, models.TxTypePickReserve,
			models.TxRefOutboundLine, lineID, []models.InventoryTxLine{
				{WarehouseID: warehouseID, LotID: lotID, QtyDelta: qty},
			})
	})
}
