package routes

import (
	"fulfillment-app/config"
	"fulfillment-app/controllers"

	"github.com/gofiber/fiber/v2"
)

func SetupAuthRoutes(app *fiber.App, cfg *config.Config, auth fiber.Handler, c *controllers.AuthController) {
	api := app.Group(cfg.MainRoutes + "/auth")

	api.Post("/login", c.Login)
	api.Get("/profile", auth, c.Profile)
}
