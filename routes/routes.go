package routes

import (
	"fulfillment-app/config"
	"fulfillment-app/controllers"
	"fulfillment-app/middleware"
	"fulfillment-app/notifier"
	"fulfillment-app/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Setup wires services, controllers and route groups onto the app.
func Setup(app *fiber.App, db *gorm.DB, cfg *config.Config) {
	allocator := services.NewAllocatorService(db)
	picking := services.NewPickingService(db, allocator)
	orders := services.NewOrderService(db, picking)
	shipping := services.NewShippingService(db, notifier.NewMailer(cfg))
	inbound := services.NewInboundService(db)
	returns := services.NewReturnsService(db)
	stocks := services.NewStockService(db)

	authController := controllers.NewAuthController(db, cfg)
	outboundController := controllers.NewOutboundController(db, orders, picking, shipping)
	inboundController := controllers.NewInboundController(db, inbound)
	returnsController := controllers.NewReturnsController(db, returns)
	stockController := controllers.NewStockController(db, stocks)
	customerController := controllers.NewCustomerController(db)
	userController := controllers.NewUserController(db)

	auth := middleware.AuthMiddleware(cfg)

	SetupAuthRoutes(app, cfg, auth, authController)
	SetupOutboundRoutes(app, cfg, auth, outboundController)
	SetupInboundRoutes(app, cfg, auth, inboundController)
	SetupReturnRoutes(app, cfg, auth, returnsController)
	SetupStockRoutes(app, cfg, auth, stockController)
	SetupCustomerRoutes(app, cfg, auth, customerController)
	SetupUserRoutes(app, cfg, auth, userController)
}
