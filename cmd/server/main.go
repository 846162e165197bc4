package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"

	httpadapter "github.com/ncastro/finanzas-backend/internal/adapter/http"
	"github.com/ncastro/finanzas-backend/internal/adapter/repository/postgres"
	"github.com/ncastro/finanzas-backend/internal/usecase/ledger"
	"github.com/ncastro/finanzas-backend/internal/usecase/patrimony"
	"github.com/ncastro/finanzas-backend/internal/usecase/period"
	"github.com/ncastro/finanzas-backend/internal/usecase/projection"
	"github.com/ncastro/finanzas-backend/internal/usecase/seeder"
)

const (
	defaultAPIToken = "dev-token"
	httpPort        = ":8080"
)

func main() {
	// 1. Setup Database
	dbConnStr := os.Getenv("DB_CONN_STR")
	if dbConnStr == "" {
		// If explicit string is missing, build it from individual vars (Docker friendly)
		host := os.Getenv("DB_HOST")
		if host == "" {
			host = "localhost" // Default for local run without docker
		}
		port := os.Getenv("DB_PORT")
		if port == "" {
			port = "5432"
		}
		user := os.Getenv("DB_USER")
		if user == "" {
			user = "postgres"
		}
		password := os.Getenv("DB_PASSWORD")
		if password == "" {
			password = "postgres"
		}
		dbname := os.Getenv("DB_NAME")
		if dbname == "" {
			dbname = "finanzas"
		}

		dbConnStr = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			host, port, user, password, dbname)
	}

	// Add 2-second delay to ensure Postgres is up (Simple retry)
	time.Sleep(2 * time.Second)

	db, err := postgres.NewDB(dbConnStr)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// 2. Initialize Repositories (Postgres)
	periodRepo := postgres.NewPeriodRepository(db)
	movementRepo := postgres.NewMovementRepository(db)
	conceptRepo := postgres.NewConceptRepository(db)
	tramoRepo := postgres.NewTramoRepository(db)
	assetRepo := postgres.NewAssetRepository(db)

	// 3. Initialize Services (Use Cases)
	periodService := period.NewService(periodRepo)
	ledgerService := ledger.NewService(movementRepo, conceptRepo, periodService)
	projectionService := projection.NewService(tramoRepo, ledgerService)
	patrimonyService := patrimony.NewService(assetRepo, ledgerService)

	// Initialize Concept Seeder and run it
	conceptSeeder := seeder.NewConceptSeeder(conceptRepo)
	ctx := context.Background()
	if err := conceptSeeder.Seed(ctx); err != nil {
		log.Fatalf("Failed to seed default concepts: %v", err)
	}
	log.Println("Default concepts seeded successfully")

	// 4. Start HTTP Server
	// Get API token from environment or use default
	apiToken := os.Getenv("API_TOKEN")
	if apiToken == "" {
		apiToken = defaultAPIToken
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{
					"error": e.Message,
				})
			}
			log.Println("Unexpected error:", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "internal server error",
			})
		},
	})

	app.Use(httpadapter.AuthMiddleware(apiToken))

	server := httpadapter.NewServer(ledgerService, periodService, projectionService, patrimonyService)
	server.RegisterRoutes(app)

	// Start server in a goroutine
	go func() {
		log.Printf("HTTP server listening on %s", httpPort)
		if err := app.Listen(httpPort); err != nil {
			log.Fatalf("Failed to serve HTTP server: %v", err)
		}
	}()

	// Graceful shutdown
	waitForShutdown(app, db)
}

// waitForShutdown waits for SIGTERM or SIGINT and gracefully shuts down the server
func waitForShutdown(app *fiber.App, db *postgres.DB) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	sig := <-sigChan
	log.Printf("Received signal: %v. Shutting down gracefully...", sig)

	if err := app.Shutdown(); err != nil {
		log.Printf("Error during HTTP server shutdown: %v", err)
	}
	if err := db.Close(); err != nil {
		log.Printf("Error closing database: %v", err)
	}
	log.Println("HTTP server stopped")
}
