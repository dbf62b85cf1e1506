package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/oakmart-dev/storefront-api/analytics"
	"github.com/oakmart-dev/storefront-api/checkout"
	orderControllers "github.com/oakmart-dev/storefront-api/controllers/order"
	"github.com/oakmart-dev/storefront-api/gateway"
	"github.com/oakmart-dev/storefront-api/models"
	"github.com/oakmart-dev/storefront-api/routes"
	"github.com/oakmart-dev/storefront-api/store"
)

func main() {
	log.Println("✅ Starting application...")

	// Load environment variables
	_ = godotenv.Load()

	// Init DB
	db := initDatabase()

	// Auto-migrate all tables
	if err := db.AutoMigrate(
		&models.Product{},
		&models.Category{},
		&models.Order{},
		&models.CheckoutAttempt{},
		&models.StockClampEvent{},
	); err != nil {
		log.Fatalf("❌ AutoMigrate failed: %v", err)
	}

	// Payment gateway
	gwConfig, err := gateway.ConfigFromEnv()
	if err != nil {
		log.Fatalf("❌ Gateway config: %v", err)
	}
	gwClient := gateway.NewClient(gwConfig)

	// Reconciliation wiring: both the webhook and the success redirect
	// run the same procedure against the same two atomic primitives.
	orders := store.NewOrders(db)
	inventory := store.NewInventory(db)
	attempts := store.NewAttempts(db)

	feed := orderControllers.NewFeed()
	var emitter analytics.Emitter = feed
	if url := os.Getenv("ANALYTICS_URL"); url != "" {
		emitter = analytics.Multi{analytics.NewHTTPEmitter(url), feed}
	}

	reconciler := checkout.NewReconciler(gwClient, orders, inventory, attempts, emitter)

	currency := os.Getenv("STORE_CURRENCY")
	if currency == "" {
		currency = "USD"
	}

	// Gin setup
	r := gin.Default()

	// CORS settings
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-API-KEY"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Setup routes
	routes.SetupRoutes(r, db, routes.Deps{
		Gateway:       gwClient,
		Reconciler:    reconciler,
		Inventory:     inventory,
		Feed:          feed,
		WebhookSecret: gwConfig.WebhookSecret,
		Currency:      currency,
	})

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("🚀 Server running on port %s...", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}

// initDatabase sets up the GORM DB connection
func initDatabase() *gorm.DB {
	if databaseURL := os.Getenv("DATABASE_URL"); databaseURL != "" {
		db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{})
		if err != nil {
			log.Fatalf("❌ DB connection failed: %v", err)
		}
		return db
	}

	host := os.Getenv("DB_HOST")
	port := os.Getenv("DB_PORT")
	user := os.Getenv("DB_USER")
	password := os.Getenv("DB_PASSWORD")
	dbname := os.Getenv("DB_NAME")

	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		host, user, password, dbname, port,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("❌ Failed to connect DB: %v", err)
	}
	return db
}
