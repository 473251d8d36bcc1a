package controllers

import (
	"errors"
	"log"

	"fulfillment-app/apperr"

	"github.com/gofiber/fiber/v2"
)

func errorJSON(ctx *fiber.Ctx, err error) error {
	var inconsistent *apperr.DataInconsistencyError
	if errors.As(err, &inconsistent) {
		log.Printf("FATAL %s %s: %v", ctx.Method(), ctx.Path(), err)
	}

	return ctx.Status(apperr.HTTPStatus(err)).JSON(fiber.Map{
		"success": false,
		"message": err.Error(),
	})
}

func okJSON(ctx *fiber.Ctx, message string, data interface{}) error {
	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": message,
		"data":    data,
	})
}

func createdJSON(ctx *fiber.Ctx, message string, data interface{}) error {
	return ctx.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": message,
		"data":    data,
	})
}
