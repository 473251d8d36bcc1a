package services

import (
	"fulfillment-app/models"
	"fulfillment-app/repositories"

	"gorm.io/gorm"
)

// AllocatorService implements the FEFO allocation policy: expiring lots
// are consumed before non-perishable ones, earliest expiry first.
type AllocatorService struct {
	db *gorm.DB
}

func NewAllocatorService(db *gorm.DB) *AllocatorService {
	return &AllocatorService{db: db}
}

// AllocateTx reserves up to qty units of the item for the line inside
// the caller's transaction and returns the created allocations together
// with the unmet shortage. Partial allocation is deliberate: the caller
// decides whether a shortage is acceptable, and a later inbound receipt
// can fill the gap. It never fails just because stock ran out.
func (s *AllocatorService) AllocateTx(tx *gorm.DB, companyID, lineID, itemID uint, qty int) ([]models.PickAllocation, int, error) {
	if qty <= 0 {
		return nil, 0, nil
	}

	stockRepo := repositories.NewStockRepository(tx)
	allocRepo := repositories.NewAllocationRepository(tx)

	candidates, err := stockRepo.FefoCandidates(companyID, itemID)
	if err != nil {
		return nil, 0, err
	}

	var created []models.PickAllocation
	remaining := qty

	for _, candidate := range candidates {
		if remaining <= 0 {
			break
		}

		// Re-read under lock; the candidate snapshot may be stale by the
		// time this row is reached.
		stock, err := stockRepo.GetForUpdate(companyID, candidate.StockID)
		if err != nil {
			return nil, 0, err
		}

		available := stock.Available()
		if available <= 0 {
			continue
		}

		take := remaining
		if available < take {
			take = available
		}

		if err := stockRepo.Reserve(companyID, stock.ID, take); err != nil {
			return nil, 0, err
		}

		alloc := models.PickAllocation{
			CompanyID:      companyID,
			OutboundLineID: lineID,
			WarehouseID:    stock.WarehouseID,
			LotID:          stock.LotID,
			Qty:            take,
			Source:         models.PickSourceAutoFefo,
		}
		if err := allocRepo.Create(&alloc); err != nil {
			return nil, 0, err
		}

		created = append(created, alloc)
		remaining -= take
	}

	return created, remaining, nil
}
