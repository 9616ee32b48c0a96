package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/joho/godotenv"

	"github.com/yourorg/runcutweb/internal/cache"
	appdb "github.com/yourorg/runcutweb/internal/db"
	"github.com/yourorg/runcutweb/internal/routes"
)

func main() {
	_ = godotenv.Load()

	app := fiber.New(fiber.Config{
		BodyLimit: 256 * 1024 * 1024, // stop_times uploads can be very large
	})
	app.Use(logger.New())

	cache.InitCaches()

	// ============================================================================
	// DB CONNECTION
	// ============================================================================
	var dbReady bool

	go func() {
		for {
			db, err := appdb.Connect()
			if err != nil {
				log.Printf("db connect error: %v (retrying in 5s)", err)
				time.Sleep(5 * time.Second)
				continue
			}
			if err := appdb.EnsureSchema(db); err != nil {
				log.Printf("ensure schema error: %v (retrying in 5s)", err)
				time.Sleep(5 * time.Second)
				continue
			}
			routes.Register(app, db)
			dbReady = true
			log.Printf("database ready and routes registered")
			return
		}
	}()

	// Wait briefly for DB to be ready
	for i := 0; i < 10 && !dbReady; i++ {
		time.Sleep(500 * time.Millisecond)
	}

	// ============================================================================
	// GRACEFUL SHUTDOWN
	// ============================================================================
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Println("shutdown signal received, stopping server...")

		cache.StopCaches()

		if err := app.Shutdown(); err != nil {
			log.Printf("error shutting down server: %v", err)
		}

		log.Println("server stopped")
		os.Exit(0)
	}()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("server listening on :%s", port)
	log.Println("endpoints:")
	log.Println("   POST   /api/datasets/import           - Import GTFS CSV files as a new dataset")
	log.Println("   GET    /api/datasets                  - List datasets")
	log.Println("   GET    /api/datasets/:id/runcut       - Generate run-cut report")
	log.Println("   GET    /api/datasets/:id/export       - Main-stop export matrix")
	log.Println("   GET    /api/diagnostics               - Database contents check")
	log.Println("   GET    /api/health                    - Health check")

	if err := app.Listen(":" + port); err != nil {
		log.Fatal(err)
	}
}
