package main

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"schoolpay_backend/internal/gateway"
	"schoolpay_backend/internal/handlers"
	appmw "schoolpay_backend/internal/middleware"
	"schoolpay_backend/internal/services"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}

	// Initialize Firebase
	credPath := os.Getenv("FIREBASE_CREDENTIALS_PATH")
	if credPath == "" {
		credPath = "./firebase-service-account.json"
	}

	authClient, err := services.InitFirebase(context.Background(), credPath)
	if err != nil {
		log.Printf("Warning: Firebase initialization failed: %v", err)
		log.Println("Auth features will not work until valid credentials are provided")
	}

	// Initialize Database
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL not set")
	}
	db, err := services.InitDB(databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := services.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run database migrations: %v", err)
	}

	// Initialize Redis (notification queue). The engine runs without it;
	// notifications are dropped with a log line.
	var cache *services.RedisCache
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		cache, err = services.NewRedisCache(redisURL)
		if err != nil {
			log.Printf("Warning: Redis initialization failed: %v", err)
		}
	} else {
		log.Println("Warning: REDIS_URL not set, notifications disabled")
	}

	// Wire the engine
	gateways := &gateway.DBResolver{DB: db}
	notifier := services.NewQueueNotifier(cache)
	orders := services.NewOrderService(db, gateways, os.Getenv("APP_BASE_URL"), os.Getenv("FEE_CURRENCY"))
	verifier := services.NewVerificationService(db, gateways, notifier)
	refunds := services.NewRefundService(db, gateways, notifier)
	ledger := services.NewLedgerService(db)
	extraFees := services.NewExtraFeeService(db)

	paymentHandler := handlers.NewPaymentHandler(orders, verifier, refunds, ledger)
	extraFeeHandler := handlers.NewExtraFeeHandler(extraFees)

	// Create Echo instance
	e := echo.New()
	e.HTTPErrorHandler = appmw.CustomErrorHandler
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())

	api := e.Group("/api")
	api.Use(appmw.RequireAuth(authClient, db))

	// Student-facing payment flow
	api.POST("/payments/orders", paymentHandler.CreateOrder)
	api.POST("/payments/verify", paymentHandler.Verify)
	api.GET("/students/:id/fee", paymentHandler.GetStudentFee)
	api.GET("/students/:id/payments", paymentHandler.ListStudentPayments)

	// Admin operations
	admin := api.Group("", appmw.RequireAdmin())
	admin.POST("/students/:id/fee", paymentHandler.AdmitStudentFee)
	admin.POST("/payments/:id/refunds", paymentHandler.CreateRefund)
	admin.GET("/payments/:id/refunds", paymentHandler.ListRefunds)
	admin.POST("/extra-fees", extraFeeHandler.Create)
	admin.PUT("/extra-fees/:id", extraFeeHandler.Update)
	admin.DELETE("/extra-fees/:id", extraFeeHandler.Delete)
	admin.GET("/extra-fees", extraFeeHandler.List)

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s", port)
	e.Logger.Fatal(e.Start(":" + port))
}
