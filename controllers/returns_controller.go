package controllers

import (
	"fulfillment-app/apperr"
	"fulfillment-app/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type ReturnsController struct {
	DB      *gorm.DB
	Returns *services.ReturnsService
}

func NewReturnsController(db *gorm.DB, returns *services.ReturnsService) *ReturnsController {
	return &ReturnsController{DB: db, Returns: returns}
}

func (c *ReturnsController) Create(ctx *fiber.Ctx) error {
	companyID, userID := tenant(ctx)

	var input services.CreateReturnInput
	if err := ctx.BodyParser(&input); err != nil {
		return errorJSON(ctx, apperr.BadRequest("invalid request body"))
	}
	if err := validate.Struct(input); err != nil {
		return errorJSON(ctx, apperr.BadRequest(err.Error()))
	}

	receipt, err := c.Returns.Create(companyID, userID, &input)
	if err != nil {
		return errorJSON(ctx, err)
	}
	return createdJSON(ctx, "return receipt created", receipt)
}

func (c *ReturnsController) List(ctx *fiber.Ctx) error {
	companyID, _ := tenant(ctx)

	receipts, err := c.Returns.List(companyID)
	if err != nil {
		return errorJSON(ctx, err)
	}
	return okJSON(ctx, "return receipts", receipts)
}

func (c *ReturnsController) Detail(ctx *fiber.Ctx) error {
	companyID, _ := tenant(ctx)
	receiptID, err := paramID(ctx, "id")
	if err != nil {
		return errorJSON(ctx, err)
	}

	receipt, err := c.Returns.Detail(companyID, receiptID)
	if err != nil {
		return errorJSON(ctx, err)
	}
	return okJSON(ctx, "return receipt", receipt)
}

func (c *ReturnsController) Update(ctx *fiber.Ctx) error {
	companyID, _ := tenant(ctx)
	receiptID, err := paramID(ctx, "id")
	if err != nil {
		return errorJSON(ctx, err)
	}

	var input services.UpdateReturnInput
	if err := ctx.BodyParser(&input); err != nil {
		return errorJSON(ctx, apperr.BadRequest("invalid request body"))
	}
	if err := validate.Struct(input); err != nil {
		return errorJSON(ctx, apperr.BadRequest(err.Error()))
	}

	receipt, err := c.Returns.Update(companyID, receiptID, &input)
	if err != nil {
		return errorJSON(ctx, err)
	}
	return okJSON(ctx, "return receipt updated", receipt)
}

func (c *ReturnsController) Cancel(ctx *fiber.Ctx) error {
	companyID, _ := tenant(ctx)
	receiptID, err := paramID(ctx, "id")
	if err != nil {
		return errorJSON(ctx, err)
	}

	if err := c.Returns.Cancel(companyID, receiptID); err != nil {
		return errorJSON(ctx, err)
	}
	return okJSON(ctx, "return receipt cancelled", nil)
}

type decideReturnInput struct {
	Lines []services.ReturnDecisionInput `json:"lines" validate:"required,min=1,dive"`
}

func (c *ReturnsController) Decide(ctx *fiber.Ctx) error {
	companyID, userID := tenant(ctx)
	receiptID, err := paramID(ctx, "id")
	if err != nil {
		return errorJSON(ctx, err)
	}

	var input decideReturnInput
	if err := ctx.BodyParser(&input); err != nil {
		return errorJSON(ctx, apperr.BadRequest("invalid request body"))
	}
	if err := validate.Struct(input); err != nil {
		return errorJSON(ctx, apperr.BadRequest(err.Error()))
	}

	receipt, err := c.Returns.Decide(companyID, userID, receiptID, input.Lines)
	if err != nil {
		return errorJSON(ctx, err)
	}
	return okJSON(ctx, "return receipt decided", receipt)
}

type processReturnInput struct {
	LineIDs []uint `json:"line_ids" validate:"required,min=1"`
}

func (c *ReturnsController) Process(ctx *fiber.Ctx) error {
	companyID, userID := tenant(ctx)
	receiptID, err := paramID(ctx, "id")
	if err != nil {
		return errorJSON(ctx, err)
	}

	var input processReturnInput
	if err := ctx.BodyParser(&input); err != nil {
		return errorJSON(ctx, apperr.BadRequest("invalid request body"))
	}
	if err := validate.Struct(input); err != nil {
		return errorJSON(ctx, apperr.BadRequest(err.Error()))
	}

	receipt, err := c.Returns.Process(companyID, userID, receiptID, input.LineIDs)
	if err != nil {
		return errorJSON(ctx, err)
	}
	return okJSON(ctx, "return receipt processed", receipt)
}
