package routes

import (
	"fulfillment-app/config"
	"fulfillment-app/controllers"

	"github.com/gofiber/fiber/v2"
)

func SetupCustomerRoutes(app *fiber.App, cfg *config.Config, auth fiber.Handler, c *controllers.CustomerController) {
	api := app.Group(cfg.MainRoutes+"/customers", auth)

	api.Post("/", c.Create)
	api.Get("/", c.List)
	api.Get("/:id", c.Detail)
	api.Put("/:id", c.Update)
}
