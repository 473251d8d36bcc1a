package repositories

import (
	"time"

	"fulfillment-app/models"

	"gorm.io/gorm"
)

// AllocationRepository owns PickAllocation rows. Allocations are only
// ever created, flag-flipped or shrunk; nothing here deletes them.
type AllocationRepository struct {
	db *gorm.DB
}

func NewAllocationRepository(db *gorm.DB) *AllocationRepository {
	return &AllocationRepository{db: db}
}

func (r *AllocationRepository) Create(alloc *models.PickAllocation) error {
	return r.db.Create(alloc).Error
}

// ActiveByLine lists the line's active allocations newest first, the
// order the release path consumes them in (LIFO).
func (r *AllocationRepository) ActiveByLine(companyID, lineID uint) ([]models.PickAllocation, error) {
	var allocations []models.PickAllocation
	err := r.db.
		Where("company_id = ? AND outbound_line_id = ? AND is_released = ? AND is_committed = ?",
			companyID, lineID, false, false).
		Order("created_at DESC, id DESC").
		Find(&allocations).Error
	return allocations, err
}

// ActiveByOrder lists active allocations across all of the order's lines.
// When activeLinesOnly is set, allocations of cancelled lines are skipped.
func (r *AllocationRepository) ActiveByOrder(companyID, orderID uint, activeLinesOnly bool) ([]models.PickAllocation, error) {
	var allocations []models.PickAllocation

	query := r.db.
		Joins("INNER JOIN outbound_lines ol ON pick_allocations.outbound_line_id = ol.id").
		Where("pick_allocations.company_id = ? AND ol.order_id = ?", companyID, orderID).
		Where("pick_allocations.is_released = ? AND pick_allocations.is_committed = ?", false, false)

	if activeLinesOnly {
		query = query.Where("ol.status = ?", models.LineStatusActive)
	}

	err := query.Order("pick_allocations.id ASC").Find(&allocations).Error
	return allocations, err
}

func (r *AllocationRepository) CountActiveByOrder(companyID, orderID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.PickAllocation{}).
		Joins("INNER JOIN outbound_lines ol ON pick_allocations.outbound_line_id = ol.id").
		Where("pick_allocations.company_id = ? AND ol.order_id = ?", companyID, orderID).
		Where("pick_allocations.is_released = ? AND pick_allocations.is_committed = ?", false, false).
		Count(&count).Error
	return count, err
}

func (r *AllocationRepository) SumActiveQtyByLine(companyID, lineID uint) (int, error) {
	var total struct {
		Total int
	}
	err := r.db.Model(&models.PickAllocation{}).
		Select("COALESCE(SUM(qty), 0) AS total").
		Where("company_id = ? AND outbound_line_id = ? AND is_released = ? AND is_committed = ?",
			companyID, lineID, false, false).
		Scan(&total).Error
	return total.Total, err
}

func (r *AllocationRepository) MarkReleased(allocID uint) error {
	now := time.Now()
	return r.db.Model(&models.PickAllocation{}).
		Where("id = ?", allocID).
		Updates(map[string]interface{}{
			"is_released": true,
			"released_at": now,
		}).Error
}

// ShrinkQty reduces a partially released allocation in place.
func (r *AllocationRepository) ShrinkQty(allocID uint, newQty int) error {
	return r.db.Model(&models.PickAllocation{}).
		Where("id = ?", allocID).
		Update("qty", newQty).Error
}

func (r *AllocationRepository) MarkCommitted(allocID uint) error {
	now := time.Now()
	return r.db.Model(&models.PickAllocation{}).
		Where("id = ?", allocID).
		Updates(map[string]interface{}{
			"is_committed": true,
			"committed_at": now,
		}).Error
}

func (r *AllocationRepository) SetPickedQty(allocID uint, pickedQty int) error {
	return r.db.Model(&models.PickAllocation{}).
		Where("id = ?", allocID).
		Update("picked_qty", pickedQty).Error
}
