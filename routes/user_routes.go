package routes

import (
	"fulfillment-app/config"
	"fulfillment-app/controllers"
	"fulfillment-app/middleware"

	"github.com/gofiber/fiber/v2"
)

func SetupUserRoutes(app *fiber.App, cfg *config.Config, auth fiber.Handler, c *controllers.UserController) {
	api := app.Group(cfg.MainRoutes+"/users", auth, middleware.RequireRole("ADMIN"))

	api.Post("/", c.Create)
	api.Get("/", c.List)
}
