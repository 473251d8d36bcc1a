package repositories

import (
	"fulfillment-app/models"

	"gorm.io/gorm"
)

// AuditRepository appends inventory transaction entries. Entries are
// write-once; consumers read them through reporting, never through the
// engine.
type AuditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Append(companyID, actorUserID uint, txType, refType string, refID uint, lines []models.InventoryTxLine) error {
	entry := models.InventoryTx{
		CompanyID:   companyID,
		Type:        txType,
		ActorUserID: actorUserID,
		RefType:     refType,
		RefID:       refID,
	}

	if err := r.db.Create(&entry).Error; err != nil {
		return err
	}

	for i := range lines {
		lines[i].TxID = entry.ID
	}
	if len(lines) > 0 {
		if err := r.db.Create(&lines).Error; err != nil {
			return err
		}
	}

	return nil
}
