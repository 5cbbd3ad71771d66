package services

import (
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"schoolpay_backend/internal/models"
)

// InitDB initializes the database connection with connection pooling
func InitDB(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	})
	if err != nil {
		return nil, err
	}

	// Get underlying sql.DB to configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// Connection pool settings
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.Println("Database connection established")
	return db, nil
}

// AutoMigrate runs database migrations for all models
func AutoMigrate(db *gorm.DB) error {
	log.Println("Running database migrations...")

	err := db.AutoMigrate(
		&models.School{},
		&models.SchoolGatewayConfig{},
		&models.User{},
		&models.Student{},
		&models.StudentFee{},
		&models.Payment{},
		&models.Refund{},
		&models.ExtraFee{},
		&models.EventRegistration{},
		&models.NotificationLog{},
	)
	if err != nil {
		return err
	}

	log.Println("Database migrations completed")
	return nil
}

// lockForUpdate adds SELECT ... FOR UPDATE where the dialect supports it.
// Row locks on the StudentFee/Payment primary keys are the sole mutual
// exclusion for concurrent ledger mutations. sqlite (used in tests) has no
// row locks; its single-writer lock covers the same guarantee there.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}
