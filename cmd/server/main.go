package main

import (
	"log"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"github.com/helmlegal/helm-backend/internal/assistant"
	"github.com/helmlegal/helm-backend/internal/backup"
	"github.com/helmlegal/helm-backend/internal/cases"
	"github.com/helmlegal/helm-backend/internal/clients"
	"github.com/helmlegal/helm-backend/internal/dashboard"
	"github.com/helmlegal/helm-backend/internal/finance"
	"github.com/helmlegal/helm-backend/internal/office"
	"github.com/helmlegal/helm-backend/internal/storage"
	"github.com/helmlegal/helm-backend/internal/store"
	"github.com/helmlegal/helm-backend/pkg/database"
	"github.com/helmlegal/helm-backend/pkg/httpx"
	"github.com/helmlegal/helm-backend/pkg/models"
	"github.com/helmlegal/helm-backend/pkg/notify"
	"github.com/helmlegal/helm-backend/pkg/sequence"
)

// @title Helm Legal Office API
// @version 1.0
// @description Back office for a legal consulting practice: clients, cases,
// @description ledger, backups and the assistant panel.
// @BasePath /
func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	db := database.Init()
	if err := db.AutoMigrate(
		&models.Client{},
		&models.Document{},
		&models.Case{},
		&models.CaseActivity{},
		&models.LedgerEntry{},
		&models.BackupRecord{},
		&models.Reminder{},
		&models.OfficeProfile{},
		&sequence.Row{},
	); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	secret := os.Getenv("BACKUP_KEY")
	if secret == "" {
		secret = "dev-only-backup-key"
		log.Println("BACKUP_KEY not set, using insecure development key")
	}

	st := store.New(db)
	files := storage.NewLocal()
	bus := notify.NewBus(100)

	app := fiber.New(fiber.Config{
		AppName:      "helm-backend",
		ErrorHandler: httpx.ErrorHandler,
		BodyLimit:    12 << 20,
	})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: envOr("CORS_ORIGINS", "*"),
		AllowHeaders: "Origin, Content-Type, Accept",
	}))

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	clients.RegisterRoutes(app, clients.NewHandler(db, st, files, bus))
	cases.RegisterRoutes(app, cases.NewHandler(db, st, bus))
	finance.RegisterRoutes(app, finance.NewHandler(db, st, bus))
	dashboard.RegisterRoutes(app, dashboard.NewHandler(db, st, bus))
	office.RegisterRoutes(app, office.NewHandler(db, files, bus))
	backup.RegisterRoutes(app, backup.NewHandler(db, files, bus, secret))
	assistant.RegisterRoutes(app, assistant.NewHandler(assistant.NewClientFromEnv()))

	port := envOr("PORT", "3000")
	log.Fatal(app.Listen(":" + port))
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
