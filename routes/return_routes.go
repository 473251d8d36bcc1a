package routes

import (
	"fulfillment-app/config"
	"fulfillment-app/controllers"

	"github.com/gofiber/fiber/v2"
)

func SetupReturnRoutes(app *fiber.App, cfg *config.Config, auth fiber.Handler, c *controllers.ReturnsController) {
	api := app.Group(cfg.MainRoutes+"/returns", auth)

	api.Post("/", c.Create)
	api.Get("/", c.List)
	api.Get("/:id", c.Detail)
	api.Put("/:id", c.Update)
	api.Post("/:id/cancel", c.Cancel)

	api.Post("/:id/decide", c.Decide)
	api.Post("/:id/process", c.Process)
}
