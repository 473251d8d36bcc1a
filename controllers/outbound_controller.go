package controllers

import (
	"strconv"

	"fulfillment-app/apperr"
	"fulfillment-app/services"

	"github.com/go-playground/validator"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// OutboundController exposes the outbound order lifecycle over HTTP.
// Tenancy comes off the JWT locals, never off the payload.
type OutboundController struct {
	DB       *gorm.DB
	Orders   *services.OrderService
	Picking  *services.PickingService
	Shipping *services.ShippingService
}

func NewOutboundController(db *gorm.DB, orders *services.OrderService, picking *services.PickingService, shipping *services.ShippingService) *OutboundController {
	return &OutboundController{DB: db, Orders: orders, Picking: picking, Shipping: shipping}
}

func tenant(ctx *fiber.Ctx) (companyID, userID uint) {
	companyID = ctx.Locals("companyID").(uint)
	userID = ctx.Locals("userID").(uint)
	return
}

func paramID(ctx *fiber.Ctx, name string) (uint, error) {
	raw := ctx.Params(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.BadRequest("invalid " + name)
	}
	return uint(id), nil
}

var validate = validator.New()

func (c *OutboundController) Create(ctx *fiber.Ctx) error {
	companyID, userID := tenant(ctx)

	var input services.CreateOrderInput
	if err := ctx.BodyParser(&input); err != nil {
		return errorJSON(ctx, apperr.BadRequest("invalid request body"))
	}
	if err := validate.Struct(input); err != nil {
		return errorJSON(ctx, apperr.BadRequest(err.Error()))
	}

	result, err := c.Orders.Create(companyID, userID, &input)
	if err != nil {
		return errorJSON(ctx, err)
	}
	return createdJSON(ctx, "outbound order created", result)
}

func (c *OutboundController) List(ctx *fiber.Ctx) error {
	companyID, _ := tenant(ctx)

	orders, err := c.Orders.List(companyID, ctx.Query("status"))
	if err != nil {
		return errorJSON(ctx, err)
	}
	return okJSON(ctx, "outbound orders", orders)
}

func (c *OutboundController) Detail(ctx *fiber.Ctx) error {
	companyID, _ := tenant(ctx)
	orderID, err := paramID(ctx, "id")
	if err != nil {
		return errorJSON(ctx, err)
	}

	order, err := c.Orders.Detail(companyID, orderID)
	if err != nil {
		return errorJSON(ctx, err)
	}
	return okJSON(ctx, "outbound order", order)
}

func (c *OutboundController) AddLine(ctx *fiber.Ctx) error {
	companyID, userID := tenant(ctx)
	orderID, err := paramID(ctx, "id")
	if err != nil {
		return errorJSON(ctx, err)
	}

	var input services.AddLineInput
	if err := ctx.BodyParser(&input); err != nil {
		return errorJSON(ctx, apperr.BadRequest("invalid request body"))
	}
	if err := validate.Struct(input); err != nil {
		return errorJSON(ctx, apperr.BadRequest(err.Error()))
	}

	shortage, err := c.Orders.AddLine(companyID, userID, orderID, &input)
	if err != nil {
		return errorJSON(ctx, err)
	}
	return okJSON(ctx, "line added", fiber.Map{"shortage": shortage})
}

func (c *OutboundController) UpdateLine(ctx *fiber.Ctx) error {
	companyID, userID := tenant(ctx)
	orderID, err := paramID(ctx, "id")
	if err != nil {
		return errorJSON(ctx, err)
	}
	lineID, err := paramID(ctx, "lineId")
	if err != nil {
		return errorJSON(ctx, err)
	}

	var input services.UpdateLineInput
	if err := ctx.BodyParser(&input); err != nil {
		return errorJSON(ctx, apperr.BadRequest("invalid request body"))
	}
	if err := validate.Struct(input); err != nil {
		return errorJSON(ctx, apperr.BadRequest(err.Error()))
	}

	shortage, err := c.Orders.UpdateLine(companyID, userID, orderID, lineID, &input)
	if err != nil {
		return errorJSON(ctx, err)
	}
	return okJSON(ctx, "line updated", fiber.Map{"shortage": shortage})
}

func (c *OutboundController) CancelLine(ctx *fiber.Ctx) error {
	companyID, userID := tenant(ctx)
	orderID, err := paramID(ctx, "id")
	if err != nil {
		return errorJSON(ctx, err)
	}
	lineID, err := paramID(ctx, "lineId")
	if err != nil {
		return errorJSON(ctx, err)
	}

	if err := c.Orders.CancelLine(companyID, userID, orderID, lineID); err != nil {
		return errorJSON(ctx, err)
	}
	return okJSON(ctx, "line cancelled", nil)
}

func (c *OutboundController) Cancel(ctx *fiber.Ctx) error {
	companyID, userID := tenant(ctx)
	orderID, err := paramID(ctx, "id")
	if err != nil {
		return errorJSON(ctx, err)
	}

	if err := c.Orders.CancelOrder(companyID, userID, orderID); err != nil {
		return errorJSON(ctx, err)
	}
	return okJSON(ctx, "order cancelled", nil)
}

func (c *OutboundController) Reserve(ctx *fiber.Ctx) error {
	companyID, userID := tenant(ctx)
	orderID, err := paramID(ctx, "id")
	if err != nil {
		return errorJSON(ctx, err)
	}

	force := ctx.QueryBool("force")
	result, err := c.Picking.ReserveForOrder(companyID, userID, orderID, force)
	if err != nil {
		return errorJSON(ctx, err)
	}
	return okJSON(ctx, "order reserved", result)
}

func (c *OutboundController) SubmitPicking(ctx *fiber.Ctx) error {
	companyID, userID := tenant(ctx)
	orderID, err := paramID(ctx, "id")
	if err != nil {
		return errorJSON(ctx, err)
	}

	if err := c.Picking.Submit(companyID, userID, orderID); err != nil {
		return errorJSON(ctx, err)
	}
	return okJSON(ctx, "picking submitted", nil)
}

type manualPickInput struct {
	LineID      uint `json:"line_id" validate:"required"`
	WarehouseID uint `json:"warehouse_id" validate:"required"`
	LotID       uint `json:"lot_id" validate:"required"`
	Qty         int  `json:"qty" validate:"required,min=1"`
}

func (c *OutboundController) ManualPick(ctx *fiber.Ctx) error {
	companyID, userID := tenant(ctx)
	orderID, err := paramID(ctx, "id")
	if err != nil {
		return errorJSON(ctx, err)
	}

	var input manualPickInput
	if err := ctx.BodyParser(&input); err != nil {
		return errorJSON(ctx, apperr.BadRequest("invalid request body"))
	}
	if err := validate.Struct(input); err != nil {
		return errorJSON(ctx, apperr.BadRequest(err.Error()))
	}

	if err := c.Picking.ManualPick(companyID, userID, orderID, input.LineID, input.WarehouseID, input.LotID, input.Qty); err != nil {
		return errorJSON(ctx, err)
	}
	return okJSON(ctx, "manual pick recorded", nil)
}

type recordPickInput struct {
	AllocationID uint `json:"allocation_id" validate:"required"`
	PickedQty    int  `json:"picked_qty" validate:"min=0"`
}

func (c *OutboundController) RecordPick(ctx *fiber.Ctx) error {
	companyID, userID := tenant(ctx)
	orderID, err := paramID(ctx, "id")
	if err != nil {
		return errorJSON(ctx, err)
	}

	var input recordPickInput
	if err := ctx.BodyParser(&input); err != nil {
		return errorJSON(ctx, apperr.BadRequest("invalid request body"))
	}
	if err := validate.Struct(input); err != nil {
		return errorJSON(ctx, apperr.BadRequest(err.Error()))
	}

	if err := c.Picking.RecordPickedQty(companyID, userID, orderID, input.AllocationID, input.PickedQty); err != nil {
		return errorJSON(ctx, err)
	}
	return okJSON(ctx, "pick recorded", nil)
}

func (c *OutboundController) Verify(ctx *fiber.Ctx) error {
	companyID, userID := tenant(ctx)
	orderID, err := paramID(ctx, "id")
	if err != nil {
		return errorJSON(ctx, err)
	}

	if err := c.Shipping.Verify(companyID, userID, orderID); err != nil {
		return errorJSON(ctx, err)
	}
	return okJSON(ctx, "order verified", nil)
}

func (c *OutboundController) StartShipping(ctx *fiber.Ctx) error {
	companyID, userID := tenant(ctx)
	orderID, err := paramID(ctx, "id")
	if err != nil {
		return errorJSON(ctx, err)
	}

	if err := c.Shipping.Start(companyID, userID, orderID); err != nil {
		return errorJSON(ctx, err)
	}
	return okJSON(ctx, "shipping started", nil)
}

func (c *OutboundController) Complete(ctx *fiber.Ctx) error {
	companyID, userID := tenant(ctx)
	orderID, err := paramID(ctx, "id")
	if err != nil {
		return errorJSON(ctx, err)
	}

	if err := c.Shipping.Complete(companyID, userID, orderID); err != nil {
		return errorJSON(ctx, err)
	}
	return okJSON(ctx, "order delivered", nil)
}
