package routes

import (
	"fulfillment-app/config"
	"fulfillment-app/controllers"

	"github.com/gofiber/fiber/v2"
)

func SetupOutboundRoutes(app *fiber.App, cfg *config.Config, auth fiber.Handler, c *controllers.OutboundController) {
	api := app.Group(cfg.MainRoutes+"/outbound", auth)

	api.Post("/", c.Create)
	api.Get("/", c.List)
	api.Get("/:id", c.Detail)
	api.Post("/:id/cancel", c.Cancel)

	api.Post("/:id/lines", c.AddLine)
	api.Put("/:id/lines/:lineId", c.UpdateLine)
	api.Post("/:id/lines/:lineId/cancel", c.CancelLine)

	api.Post("/:id/reserve", c.Reserve)
	api.Post("/:id/picking/manual", c.ManualPick)
	api.Post("/:id/picking/record", c.RecordPick)
	api.Post("/:id/picking/submit", c.SubmitPicking)

	api.Post("/:id/verify", c.Verify)
	api.Post("/:id/shipping/start", c.StartShipping)
	api.Post("/:id/shipping/complete", c.Complete)
}
