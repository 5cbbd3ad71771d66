package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"schoolpay_backend/internal/services"
	"schoolpay_backend/internal/tasks"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
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

	// Initialize Redis queue
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		log.Fatal("REDIS_URL not set")
	}
	cache, err := services.NewRedisCache(redisURL)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer cache.Close()

	// Register delivery handlers
	tasks.Initialize(services.NewEmailService())

	log.Println("Worker started. Waiting for notifications...")

	// Create context that cancels on interrupt
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		log.Println("Shutting down worker...")
		cancel()
	}()

	for {
		if ctx.Err() != nil {
			return
		}

		payload, err := cache.QueuePop(ctx, services.NotificationQueueKey, 5*time.Second)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("Error reading notification queue: %v", err)
			time.Sleep(2 * time.Second)
			continue
		}
		if payload == nil {
			continue
		}

		processMessage(ctx, db, cache, payload)
	}
}

func processMessage(ctx context.Context, db *gorm.DB, cache *services.RedisCache, payload []byte) {
	var msg services.NotificationMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		log.Printf("Dropping unreadable notification message: %v", err)
		return
	}

	handler, found := tasks.GetHandler(msg.Category)
	if !found {
		log.Printf("No handler for notification category %q, dropping", msg.Category)
		return
	}

	if err := handler(ctx, db, msg); err != nil {
		log.Printf("Delivery failed for user %d (attempt %d): %v", msg.UserID, msg.Attempt, err)
		if msg.Attempt < tasks.MaxDeliveryAttempts {
			msg.Attempt++
			if pushErr := cache.QueuePush(ctx, services.NotificationQueueKey, msg); pushErr != nil {
				log.Printf("Failed to requeue notification for user %d: %v", msg.UserID, pushErr)
			}
		} else {
			log.Printf("Max attempts (%d) reached for user %d, giving up", tasks.MaxDeliveryAttempts, msg.UserID)
		}
		return
	}

	log.Printf("Notification delivered to user %d (%s)", msg.UserID, msg.Category)
}
