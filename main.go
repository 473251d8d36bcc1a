package main

import (
	"log"

	"fulfillment-app/config"
	"fulfillment-app/controllers/idgen"
	"fulfillment-app/database"
	"fulfillment-app/migration"
	"fulfillment-app/routes"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	cfg := config.Load()

	idgen.Init()

	db, err := config.OpenDatabase(cfg)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := migration.RunMigrations(db); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}
	if err := database.Seed(db); err != nil {
		log.Fatalf("failed to seed database: %v", err)
	}

	app := fiber.New(fiber.Config{
		AppName:   "fulfillment-app",
		BodyLimit: 20 * 1024 * 1024,
	})

	app.Use(recover.New())
	app.Use(logger.New())
	cfg.SetupCORS(app)

	routes.Setup(app, db, cfg)

	log.Fatal(app.Listen(":" + cfg.AppPort))
}
