// internal/database/connection.go
package database

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/javajoker/shop-catalog/internal/config"
	"github.com/javajoker/shop-catalog/internal/models"
)

func Initialize(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		// Unique violations surface as gorm.ErrDuplicatedKey.
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	}
	if cfg.LogLevel != "silent" {
		gormConfig.Logger = logger.Default.LogMode(logger.Info)
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime())

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"host":     cfg.Host,
		"database": cfg.Database,
	}).Info("Database connection established")
	return db, nil
}

func Close(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		logrus.WithError(err).Error("Error getting underlying sql.DB")
		return
	}

	if err := sqlDB.Close(); err != nil {
		logrus.WithError(err).Error("Error closing database connection")
		return
	}
	logrus.Info("Database connection closed")
}

func RunMigrations(db *gorm.DB) error {
	logrus.Info("Running database migrations")

	// gen_random_uuid() is built in from Postgres 13; pgcrypto covers older servers.
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "pgcrypto"`).Error; err != nil {
		return fmt.Errorf("failed to create pgcrypto extension: %w", err)
	}

	// Referenced tables first so foreign keys resolve.
	err := db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Collection{},
		&models.Size{},
		&models.Color{},
		&models.Product{},
		&models.Image{},
		&models.ProductColor{},
		&models.ProductSize{},
		&models.Rating{},
		&models.Cart{},
		&models.Contact{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	createIndexes(db)

	logrus.Info("Database migrations completed")
	return nil
}

func createIndexes(db *gorm.DB) {
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_products_created_at ON products(created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_products_base_price ON products(base_price)",
		"CREATE INDEX IF NOT EXISTS idx_products_average_rating ON products(average_rating DESC)",
		"CREATE INDEX IF NOT EXISTS idx_ratings_product_created ON ratings(product_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_product_sizes_product ON product_sizes(product_id)",
		"CREATE INDEX IF NOT EXISTS idx_product_colors_product ON product_colors(product_id)",
		"CREATE INDEX IF NOT EXISTS idx_carts_user ON carts(user_id)",
		"CREATE INDEX IF NOT EXISTS idx_contacts_created_at ON contacts(created_at DESC)",

		// Full-text search over the product catalog
		"CREATE INDEX IF NOT EXISTS idx_products_search ON products USING GIN(to_tsvector('english', name || ' ' || coalesce(description, '')))",

		// remaining_qty is derived; keep the database honest about it
		`DO $$ BEGIN
			ALTER TABLE product_sizes ADD CONSTRAINT chk_product_sizes_ledger CHECK (remaining_qty = original_qty - purchase_qty);
		EXCEPTION WHEN duplicate_object THEN NULL; END $$`,
	}

	for _, index := range indexes {
		if err := db.Exec(index).Error; err != nil {
			// Continue with other indexes instead of failing completely
			logrus.WithError(err).WithField("statement", index).Warn("Failed to create index")
		}
	}
}

// SeedInitialData creates the configured administrator when no user holds
// that email yet.
func SeedInitialData(db *gorm.DB, admin config.AdminConfig) error {
	if admin.Password == "" {
		logrus.Warn("ADMIN_PASSWORD not set, skipping admin seed")
		return nil
	}

	var existing models.User
	err := db.Where("email = ?", admin.Email).First(&existing).Error
	if err == nil {
		if !existing.IsAdmin {
			return db.Model(&existing).Update("is_admin", true).Error
		}
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to look up admin user: %w", err)
	}

	user := &models.User{
		Username: admin.Username,
		Email:    admin.Email,
		IsAdmin:  true,
	}
	if err := user.SetPassword(admin.Password); err != nil {
		return fmt.Errorf("failed to set admin password: %w", err)
	}
	if err := db.Create(user).Error; err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	logrus.WithField("email", admin.Email).Info("Admin user created")
	return nil
}

// WithTransaction runs fn in a transaction that commits when fn returns nil
// and rolls back on an error or a panic.
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
