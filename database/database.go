package database

import (
	"fmt"
	"time"

	"rewards-dashboard/config"
	"rewards-dashboard/logger"
	"rewards-dashboard/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var DB *gorm.DB

func ConnectDatabase(cfg *config.Config) error {
	log := logger.Component("database")

	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		cfg.DbHost,
		cfg.DbPort,
		cfg.DbUser,
		cfg.DbPass,
		cfg.DbName,
		cfg.DbSslMode,
		cfg.DbTz,
	)

	// Configure GORM logger based on environment
	gormLogger := gormlogger.Default.LogMode(gormlogger.Warn)
	if cfg.Env == "production" {
		gormLogger = gormlogger.Default.LogMode(gormlogger.Silent)
	}

	location, err := time.LoadLocation(cfg.DbTz)
	if err != nil {
		location = time.UTC
	}

	maxRetries := 5
	retryInterval := time.Second * 10

	for attempt := 1; attempt <= maxRetries; attempt++ {
		log.Infof("Attempting to connect to database (attempt %d/%d)...", attempt, maxRetries)

		var err error
		DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
			Logger: gormLogger,
			NowFunc: func() time.Time {
				return time.Now().In(location)
			},
		})

		if err == nil {
			sqlDB, err := DB.DB()

			if err == nil {
				err = sqlDB.Ping()
				if err == nil {
					// Client storage is tiny; keep the pool small
					sqlDB.SetMaxIdleConns(2)
					sqlDB.SetMaxOpenConns(10)
					sqlDB.SetConnMaxLifetime(time.Hour)

					log.Info("Database connection established.")
					return nil
				}
				log.Warnf("Database ping failed: %v", err)
			} else {
				log.Warnf("Failed to get database instance: %v", err)
			}
		} else {
			log.Warnf("Failed to connect to database: %v", err)
		}

		if attempt < maxRetries {
			log.Infof("Retrying in %s...", retryInterval)
			time.Sleep(retryInterval)
		}
	}

	return fmt.Errorf("failed to connect to database after %d attempts", maxRetries)
}

// MigrateDatabase performs automatic migration of database schemas
func MigrateDatabase() error {
	log := logger.Component("database")
	log.Info("🔄 Starting database migration...")

	if err := DB.AutoMigrate(&models.ClientStorageItem{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Info("✅ Database migrations completed successfully")
	return nil
}

// GetDB returns the database instance
func GetDB() *gorm.DB {
	return DB
}
