package services

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

type StockService struct {
	db *gorm.DB
}

func NewStockService(db *gorm.DB) *StockService {
	return &StockService{db: db}
}

type StockRow struct {
	StockID       uint       `json:"stock_id"`
	ItemCode      string     `json:"item_code"`
	ItemName      string     `json:"item_name"`
	StorageType   string     `json:"storage_type"`
	WarehouseName string     `json:"warehouse_name"`
	ExpiryDate    *time.Time `json:"expiry_date"`
	OnHand        int        `json:"on_hand"`
	Reserved      int        `json:"reserved"`
	Available     int        `json:"available"`
}

type StockFilter struct {
	StorageType string `query:"storage_type"`
	ItemCode    string `query:"item_code"`
}

// List returns the tenant's stock position joined down to item and lot,
// expiring lots first so the report reads in pick order.
func (s *StockService) List(companyID uint, filter StockFilter) ([]StockRow, error) {
	var rows []StockRow

	sql := `SELECT s.id AS stock_id,
		i.item_code, i.item_name,
		w.storage_type, w.name AS warehouse_name,
		l.expiry_date,
		s.on_hand, s.reserved, s.on_hand - s.reserved AS available
		FROM stocks s
		JOIN warehouses w ON w.id = s.warehouse_id
		JOIN lots l ON l.id = s.lot_id
		JOIN items i ON i.id = l.item_id
		WHERE s.company_id = ? AND s.deleted_at IS NULL
		AND (s.on_hand > 0 OR s.reserved > 0)`
	args := []interface{}{companyID}

	if filter.StorageType != "" {
		sql += ` AND w.storage_type = ?`
		args = append(args, filter.StorageType)
	}
	if filter.ItemCode != "" {
		sql += ` AND i.item_code LIKE ?`
		args = append(args, "%"+filter.ItemCode+"%")
	}

	sql += ` ORDER BY i.item_code ASC,
		CASE WHEN l.expiry_date IS NULL THEN 1 ELSE 0 END,
		l.expiry_date ASC, w.storage_type ASC`

	if err := s.db.Raw(sql, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Export renders the same listing as an xlsx workbook.
func (s *StockService) Export(companyID uint, filter StockFilter) (*bytes.Buffer, error) {
	rows, err := s.List(companyID, filter)
	if err != nil {
		return nil, err
	}

	xls := excelize.NewFile()
	defer xls.Close()

	sheet := "Stock"
	xls.SetSheetName(xls.GetSheetName(0), sheet)

	headers := []string{"Item Code", "Item Name", "Storage Type", "Warehouse", "Expiry Date", "On Hand", "Reserved", "Available"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		xls.SetCellValue(sheet, cell, h)
	}

	for rowIdx, row := range rows {
		expiry := ""
		if row.ExpiryDate != nil {
			expiry = row.ExpiryDate.Format("2006-01-02")
		}
		values := []interface{}{
			row.ItemCode, row.ItemName, row.StorageType, row.WarehouseName,
			expiry, row.OnHand, row.Reserved, row.Available,
		}
		for colIdx, v := range values {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			xls.SetCellValue(sheet, cell, v)
		}
	}

	buf, err := xls.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write stock export: %w", err)
	}
	return buf, nil
}
