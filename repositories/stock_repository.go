package repositories

import (
	"errors"
	"time"

	"fulfillment-app/apperr"
	"fulfillment-app/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StockRepository is the stock ledger. Every mutation runs in the
// caller's transaction (construct it with the tx handle); the ledger
// itself never begins or commits one. Stock rows are always locked
// before allocation rows so concurrent reservations serialize in a
// fixed order.
type StockRepository struct {
	db *gorm.DB
}

func NewStockRepository(db *gorm.DB) *StockRepository {
	return &StockRepository{db: db}
}

// sqlite has no row locks and a single writer, so the locking clause is
// only added for the server databases.
func (r *StockRepository) forUpdate() *gorm.DB {
	if r.db.Dialector.Name() == "sqlite" {
		return r.db
	}
	return r.db.Clauses(clause.Locking{Strength: "UPDATE"})
}

func (r *StockRepository) GetForUpdate(companyID, stockID uint) (*models.Stock, error) {
	var stock models.Stock
	err := r.forUpdate().
		Where("company_id = ? AND id = ?", companyID, stockID).
		First(&stock).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("stock")
	}
	if err != nil {
		return nil, err
	}
	return &stock, nil
}

func (r *StockRepository) FindByKeyForUpdate(companyID, warehouseID, lotID uint) (*models.Stock, error) {
	var stock models.Stock
	err := r.forUpdate().
		Where("company_id = ? AND warehouse_id = ? AND lot_id = ?", companyID, warehouseID, lotID).
		First(&stock).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("stock")
	}
	if err != nil {
		return nil, err
	}
	return &stock, nil
}

// FindOrCreate returns the ledger row for (warehouse, lot), creating a
// zero row on first receipt.
func (r *StockRepository) FindOrCreate(companyID, warehouseID, lotID uint) (*models.Stock, error) {
	stock, err := r.FindByKeyForUpdate(companyID, warehouseID, lotID)
	if err == nil {
		return stock, nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}

	created := models.Stock{CompanyID: companyID, WarehouseID: warehouseID, LotID: lotID}
	if err := r.db.Create(&created).Error; err != nil {
		return nil, err
	}
	return &created, nil
}

// Reserve claims qty units on the row. Fails with InsufficientStock when
// fewer than qty units are available; on success reserved grows by qty.
func (r *StockRepository) Reserve(companyID, stockID uint, qty int) error {
	if qty <= 0 {
		return apperr.BadRequest("reserve qty must be positive")
	}

	stock, err := r.GetForUpdate(companyID, stockID)
	if err != nil {
		return err
	}
	if stock.Available() < qty {
		return apperr.ErrInsufficientStock
	}

	return r.db.Model(&models.Stock{}).
		Where("id = ?", stockID).
		Updates(map[string]interface{}{
			"reserved":   gorm.Expr("reserved + ?", qty),
			"updated_at": time.Now(),
		}).Error
}

// Release returns qty reserved units to availability. Driving reserved
// negative means the ledger no longer matches the allocations that feed
// it, which is corruption, not a caller mistake.
func (r *StockRepository) Release(companyID, stockID uint, qty int) error {
	if qty <= 0 {
		return apperr.BadRequest("release qty must be positive")
	}

	stock, err := r.GetForUpdate(companyID, stockID)
	if err != nil {
		return err
	}
	if stock.Reserved-qty < 0 {
		return apperr.Inconsistent("release of %d exceeds reserved %d on stock %d", qty, stock.Reserved, stockID)
	}

	return r.db.Model(&models.Stock{}).
		Where("id = ?", stockID).
		Updates(map[string]interface{}{
			"reserved":   gorm.Expr("reserved - ?", qty),
			"updated_at": time.Now(),
		}).Error
}

// Receive books qty units onto the row (inbound confirmation).
func (r *StockRepository) Receive(companyID, stockID uint, qty int) error {
	if qty <= 0 {
		return apperr.BadRequest("receive qty must be positive")
	}

	if _, err := r.GetForUpdate(companyID, stockID); err != nil {
		return err
	}

	return r.db.Model(&models.Stock{}).
		Where("id = ?", stockID).
		Updates(map[string]interface{}{
			"on_hand":    gorm.Expr("on_hand + ?", qty),
			"updated_at": time.Now(),
		}).Error
}

// Commit converts a reservation into a permanent deduction at shipment:
// reserved drops by the full allocated quantity, on-hand only by what
// was actually picked. The gap silently returns to availability.
func (r *StockRepository) Commit(companyID, stockID uint, committedQty, allocatedQty int) error {
	if committedQty > allocatedQty {
		return apperr.Inconsistent("committed qty %d exceeds allocated qty %d on stock %d", committedQty, allocatedQty, stockID)
	}

	stock, err := r.GetForUpdate(companyID, stockID)
	if err != nil {
		return err
	}
	if stock.Reserved-allocatedQty < 0 || stock.OnHand-committedQty < 0 {
		return apperr.Inconsistent("commit of %d/%d exceeds reserved %d / on-hand %d on stock %d",
			committedQty, allocatedQty, stock.Reserved, stock.OnHand, stockID)
	}

	return r.db.Model(&models.Stock{}).
		Where("id = ?", stockID).
		Updates(map[string]interface{}{
			"reserved":   gorm.Expr("reserved - ?", allocatedQty),
			"on_hand":    gorm.Expr("on_hand - ?", committedQty),
			"updated_at": time.Now(),
		}).Error
}

// FefoCandidate is one stock row in allocation order.
type FefoCandidate struct {
	StockID     uint       `json:"stock_id"`
	WarehouseID uint       `json:"warehouse_id"`
	LotID       uint       `json:"lot_id"`
	OnHand      int        `json:"on_hand"`
	Reserved    int        `json:"reserved"`
	ExpiryDate  *time.Time `json:"expiry_date"`
}

// FefoCandidates lists the item's stock rows with on-hand quantity in
// FEFO order: expiring lots first (earliest expiry, then warehouse
// precedence), then non-perishable lots (warehouse precedence, then
// oldest lot).
func (r *StockRepository) FefoCandidates(companyID, itemID uint) ([]FefoCandidate, error) {
	var withExpiry []FefoCandidate

	sqlWithExpiry := `SELECT s.id AS stock_id, s.warehouse_id, s.lot_id, s.on_hand, s.reserved, l.expiry_date
		FROM stocks s
		INNER JOIN lots l ON s.lot_id = l.id
		INNER JOIN warehouses w ON s.warehouse_id = w.id
		WHERE s.company_id = ? AND l.item_id = ? AND s.on_hand > 0
		AND l.expiry_date IS NOT NULL
		AND s.deleted_at IS NULL AND l.deleted_at IS NULL
		ORDER BY l.expiry_date ASC, w.storage_type ASC, s.id ASC`

	if err := r.db.Raw(sqlWithExpiry, companyID, itemID).Scan(&withExpiry).Error; err != nil {
		return nil, err
	}

	var noExpiry []FefoCandidate

	sqlNoExpiry := `SELECT s.id AS stock_id, s.warehouse_id, s.lot_id, s.on_hand, s.reserved, l.expiry_date
		FROM stocks s
		INNER JOIN lots l ON s.lot_id = l.id
		INNER JOIN warehouses w ON s.warehouse_id = w.id
		WHERE s.company_id = ? AND l.item_id = ? AND s.on_hand > 0
		AND l.expiry_date IS NULL
		AND s.deleted_at IS NULL AND l.deleted_at IS NULL
		ORDER BY w.storage_type ASC, l.created_at ASC, s.id ASC`

	if err := r.db.Raw(sqlNoExpiry, companyID, itemID).Scan(&noExpiry).Error; err != nil {
		return nil, err
	}

	return append(withExpiry, noExpiry...), nil
}
