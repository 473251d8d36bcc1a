package controllers

import (
	"fulfillment-app/apperr"
	"fulfillment-app/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type InboundController struct {
	DB      *gorm.DB
	Inbound *services.InboundService
}

func NewInboundController(db *gorm.DB, inbound *services.InboundService) *InboundController {
	return &InboundController{DB: db, Inbound: inbound}
}

// Upload takes a multipart xlsx under the "file" field.
func (c *InboundController) Upload(ctx *fiber.Ctx) error {
	companyID, userID := tenant(ctx)

	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		return errorJSON(ctx, apperr.BadRequest("file is required"))
	}

	file, err := fileHeader.Open()
	if err != nil {
		return errorJSON(ctx, apperr.BadRequest("cannot open uploaded file"))
	}
	defer file.Close()

	upload, err := c.Inbound.CreateUpload(companyID, userID, fileHeader.Filename, file)
	if err != nil {
		return errorJSON(ctx, err)
	}
	return createdJSON(ctx, "inbound upload created", upload)
}

func (c *InboundController) Detail(ctx *fiber.Ctx) error {
	companyID, _ := tenant(ctx)
	uploadID, err := paramID(ctx, "id")
	if err != nil {
		return errorJSON(ctx, err)
	}

	upload, err := c.Inbound.GetUpload(companyID, uploadID)
	if err != nil {
		return errorJSON(ctx, err)
	}
	return okJSON(ctx, "inbound upload", upload)
}

func (c *InboundController) Confirm(ctx *fiber.Ctx) error {
	companyID, userID := tenant(ctx)
	uploadID, err := paramID(ctx, "id")
	if err != nil {
		return errorJSON(ctx, err)
	}

	if err := c.Inbound.Confirm(companyID, userID, uploadID); err != nil {
		return errorJSON(ctx, err)
	}
	return okJSON(ctx, "inbound upload confirmed", nil)
}
