package routes

import (
	"fulfillment-app/config"
	"fulfillment-app/controllers"

	"github.com/gofiber/fiber/v2"
)

func SetupInboundRoutes(app *fiber.App, cfg *config.Config, auth fiber.Handler, c *controllers.InboundController) {
	api := app.Group(cfg.MainRoutes+"/inbound", auth)

	api.Post("/upload-excel", c.Upload)
	api.Get("/:id", c.Detail)
	api.Post("/:id/confirm", c.Confirm)
}
