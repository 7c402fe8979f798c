// internal/database/connection.go
package database

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/storelink/storelink-backend/internal/config"
	"github.com/storelink/storelink-backend/internal/models"
)

var DB *gorm.DB

func Initialize(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var err error
	var gormConfig *gorm.Config

	// Configure GORM logger
	if cfg.LogLevel == "silent" {
		gormConfig = &gorm.Config{
			Logger:         logger.Default.LogMode(logger.Silent),
			TranslateError: true,
		}
	} else {
		gormConfig = &gorm.Config{
			Logger:         logger.Default.LogMode(logger.Info),
			TranslateError: true,
		}
	}

	// Connect to database
	DB, err = gorm.Open(postgres.Open(cfg.DSN()), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying sql.DB
	sqlDB, err := DB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Configure connection pool
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.MaxLifetime) * time.Second)

	// Test connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("Database connection established successfully")
	return DB, nil
}

func Close(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		log.Printf("Error getting underlying sql.DB: %v", err)
		return
	}

	if err := sqlDB.Close(); err != nil {
		log.Printf("Error closing database connection: %v", err)
	} else {
		log.Println("Database connection closed successfully")
	}
}

func RunMigrations(db *gorm.DB) error {
	log.Println("Running database migrations...")

	// Enable UUID extension
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\"").Error; err != nil {
		return fmt.Errorf("failed to create UUID extension: %w", err)
	}

	// Run auto-migrations
	err := db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.StorefrontProduct{},
		&models.Order{},
		&models.WalletTransaction{},
		&models.PayoutRequest{},
		&models.PlatformSetting{},
		&models.AuditLog{},
		&models.Notification{},
		&models.KYCSubmission{},
	)

	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// Create indexes
	if err := createIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	log.Println("Database migrations completed successfully")
	return nil
}

func createIndexes(db *gorm.DB) error {
	indexes := []string{
		// User indexes
		"CREATE INDEX IF NOT EXISTS idx_users_email ON users(email)",
		"CREATE INDEX IF NOT EXISTS idx_users_role_status ON users(role, status)",
		"CREATE INDEX IF NOT EXISTS idx_users_kyc_status ON users(kyc_status)",

		// Product indexes
		"CREATE INDEX IF NOT EXISTS idx_products_category_active ON products(category, is_active)",
		"CREATE INDEX IF NOT EXISTS idx_products_sku ON products(sku)",
		"CREATE INDEX IF NOT EXISTS idx_storefront_products_user ON storefront_products(user_id, is_active)",

		// Order indexes
		"CREATE INDEX IF NOT EXISTS idx_orders_affiliate ON orders(affiliate_user_id)",
		"CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status)",
		"CREATE INDEX IF NOT EXISTS idx_orders_affiliate_status ON orders(affiliate_user_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders(created_at DESC)",

		// Wallet indexes
		"CREATE INDEX IF NOT EXISTS idx_wallet_transactions_user ON wallet_transactions(user_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_wallet_transactions_type ON wallet_transactions(type)",
		"CREATE INDEX IF NOT EXISTS idx_wallet_transactions_order ON wallet_transactions(order_id)",

		// Payout indexes. The partial unique index enforces at most one
		// pending request per user at the database level.
		"CREATE INDEX IF NOT EXISTS idx_payout_requests_user_status ON payout_requests(user_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_payout_requests_status ON payout_requests(status, created_at DESC)",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_payout_requests_one_pending ON payout_requests(user_id) WHERE status = 'pending' AND deleted_at IS NULL",

		// Audit and notification indexes
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_entity ON audit_logs(entity_type, entity_id)",
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_admin ON audit_logs(admin_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_created ON audit_logs(created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_notifications_status ON notifications(status, created_at)",

		// KYC indexes
		"CREATE INDEX IF NOT EXISTS idx_kyc_submissions_user ON kyc_submissions(user_id, status)",
	}

	for _, index := range indexes {
		if err := db.Exec(index).Error; err != nil {
			log.Printf("Warning: Failed to create index: %s, Error: %v", index, err)
			// Continue with other indexes instead of failing completely
		}
	}

	return nil
}

// Seed initial data
func SeedInitialData(db *gorm.DB) error {
	log.Println("Seeding initial data...")

	// Create default admin user
	var adminCount int64
	db.Model(&models.User{}).Where("role = ?", models.UserRoleAdmin).Count(&adminCount)

	if adminCount == 0 {
		admin := &models.User{
			Name:      "System Administrator",
			Email:     "admin@storelink.io",
			Role:      models.UserRoleAdmin,
			Status:    models.UserStatusApproved,
			Level:     models.UserLevelGold,
			KYCStatus: models.KYCStatusApproved,
		}

		if err := admin.SetPassword("admin123!@#"); err != nil {
			return fmt.Errorf("failed to set admin password: %w", err)
		}

		if err := db.Create(admin).Error; err != nil {
			return fmt.Errorf("failed to create admin user: %w", err)
		}

		log.Println("Default admin user created successfully")
	}

	// Create default platform settings
	defaultSettings := []models.PlatformSetting{
		{Key: "commission_type", Value: "percentage", Description: "Commission mode: percentage of profit or fixed per-unit amount"},
		{Key: "commission_rate", Value: "100", Description: "Commission rate: percent of profit, or per-unit amount in hundredths for fixed mode"},
		{Key: "currency", Value: "USD", Description: "Platform display currency"},
		{Key: "auto_credit_on_complete", Value: "true", Description: "Credit affiliate commission when an order completes"},
		{Key: "auto_payout_enabled", Value: "false", Description: "Enable the scheduled auto-payout batch"},
		{Key: "auto_payout_threshold", Value: "1000", Description: "Minimum wallet balance for an automatic payout"},
		{Key: "silver_threshold", Value: "10", Description: "Completed orders required for silver level"},
		{Key: "gold_threshold", Value: "50", Description: "Completed orders required for gold level"},
		{Key: "public_ordering_enabled", Value: "false", Description: "Allow order creation from public storefront pages"},
		{Key: "restricted_countries", Value: "IN", Description: "Comma-separated country codes blocked from public ordering"},
		{Key: "geo_rejection_message", Value: "Ordering is not available in your region.", Description: "Message returned when the geo gate rejects a request"},
	}

	for _, setting := range defaultSettings {
		var count int64
		db.Model(&models.PlatformSetting{}).Where("key = ?", setting.Key).Count(&count)

		if count == 0 {
			if err := db.Create(&setting).Error; err != nil {
				log.Printf("Warning: Failed to create setting %s: %v", setting.Key, err)
			}
		}
	}

	log.Println("Initial data seeding completed")
	return nil
}

// Transaction helper
func WithTransaction(db *gorm.DB, fn func(*gorm.DB) error) error {
	tx := db.Begin()
	if tx.Error != nil {
		return tx.Error
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}
