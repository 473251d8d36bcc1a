package routes

import (
	"fulfillment-app/config"
	"fulfillment-app/controllers"

	"github.com/gofiber/fiber/v2"
)

func SetupStockRoutes(app *fiber.App, cfg *config.Config, auth fiber.Handler, c *controllers.StockController) {
	api := app.Group(cfg.MainRoutes+"/stock", auth)

	api.Get("/", c.List)
	api.Get("/export", c.Export)
}
