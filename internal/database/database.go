package database

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/sikp/kp-portal/internal/config"
	"github.com/sikp/kp-portal/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Initialize opens the configured database, migrates it and seeds the coordinator account
func Initialize(cfg *config.Config) error {
	db, err := Open(cfg)
	if err != nil {
		return err
	}

	DB = db
	slog.Info("Database connected", "type", cfg.DatabaseType)

	if err := AutoMigrate(db); err != nil {
		return err
	}

	if err := seedCoordinator(db, cfg); err != nil {
		slog.Warn("Seed coordinator failed", "error", err)
	}

	return nil
}

// Open connects to the database named by cfg without migrating it
func Open(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch cfg.DatabaseType {
	case "postgres":
		dialector = postgres.Open(cfg.DatabaseURL)
	default:
		dialector = sqlite.Open(cfg.DatabaseURL)
	}

	level := logger.Warn
	if cfg.LogLevel == "debug" {
		level = logger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(level),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.DatabaseType, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.DatabaseType == "sqlite" {
		// sqlite serialises writers; one connection avoids SQLITE_BUSY under fan-out
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	return db, nil
}

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Team{},
		&models.TeamMember{},
		&models.TeamSupervisor{},
		&models.Proposal{},
		&models.ProposalFeedback{},
		&models.ProposalDocument{},
	)
}

func seedCoordinator(db *gorm.DB, cfg *config.Config) error {
	var existing models.User
	err := db.Where("email = ?", cfg.CoordinatorEmail).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	coordinator := &models.User{
		Email: cfg.CoordinatorEmail,
		Name:  "Koordinator KP",
		Role:  models.RoleCoordinator,
	}
	if err := db.Create(coordinator).Error; err != nil {
		return err
	}
	slog.Info("Seeded coordinator account", "email", coordinator.Email, "id", coordinator.ID)
	return nil
}

func GetDB() *gorm.DB {
	return DB
}

// Close releases the pooled connections
func Close() error {
	if DB == nil {
		return nil
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
