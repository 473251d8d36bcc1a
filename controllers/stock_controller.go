package controllers

import (
	"fmt"
	"time"

	"fulfillment-app/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type StockController struct {
	DB     *gorm.DB
	Stocks *services.StockService
}

func NewStockController(db *gorm.DB, stocks *services.StockService) *StockController {
	return &StockController{DB: db, Stocks: stocks}
}

func stockFilter(ctx *fiber.Ctx) services.StockFilter {
	return services.StockFilter{
		StorageType: ctx.Query("storage_type"),
		ItemCode:    ctx.Query("item_code"),
	}
}

func (c *StockController) List(ctx *fiber.Ctx) error {
	companyID, _ := tenant(ctx)

	rows, err := c.Stocks.List(companyID, stockFilter(ctx))
	if err != nil {
		return errorJSON(ctx, err)
	}
	return okJSON(ctx, "stock position", rows)
}

func (c *StockController) Export(ctx *fiber.Ctx) error {
	companyID, _ := tenant(ctx)

	buf, err := c.Stocks.Export(companyID, stockFilter(ctx))
	if err != nil {
		return errorJSON(ctx, err)
	}

	fileName := fmt.Sprintf("stock_%s.xlsx", time.Now().Format("20060102_150405"))
	ctx.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	ctx.Set("Content-Disposition", `attachment; filename="`+fileName+`"`)
	return ctx.Send(buf.Bytes())
}
