package pkg

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/campus-gigs/marketplace-service/internal/config"
	"github.com/campus-gigs/marketplace-service/internal/models"
)

// Opener opens a database handle.
type Opener func(ctx context.Context) (*gorm.DB, error)

// DatabaseProvider hands out one process-wide *gorm.DB. The first caller
// opens it while concurrent callers wait; a failed open is not remembered,
// so the next caller tries again.
type DatabaseProvider struct {
	mu     sync.Mutex
	db     *gorm.DB
	open   Opener
	logger *slog.Logger
}

func NewDatabaseProvider(cfg *config.Config, log *slog.Logger) *DatabaseProvider {
	return NewDatabaseProviderWithOpener(func(ctx context.Context) (*gorm.DB, error) {
		return InitDatabase(ctx, cfg, log)
	}, log)
}

// NewDatabaseProviderWithOpener lets tests substitute the connection step.
func NewDatabaseProviderWithOpener(open Opener, log *slog.Logger) *DatabaseProvider {
	return &DatabaseProvider{open: open, logger: log}
}

// Get returns the shared handle, opening it on first use.
func (p *DatabaseProvider) Get(ctx context.Context) (*gorm.DB, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.db != nil {
		return p.db, nil
	}

	db, err := p.open(ctx)
	if err != nil {
		p.logger.Error("Database connection failed", "error", err)
		return nil, err
	}

	p.db = db
	return db, nil
}

// InitDatabase connects to PostgreSQL, tunes the pool and migrates the schema
func InitDatabase(ctx context.Context, cfg *config.Config, log *slog.Logger) (*gorm.DB, error) {
	gormLogger := logger.New(
		slog.NewLogLogger(log.Handler(), slog.LevelWarn),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			ParameterizedQueries:      true,
		},
	)

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql db: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := db.WithContext(ctx).AutoMigrate(
		&models.User{},
		&models.StudentProfile{},
		&models.Project{},
		&models.Application{},
		&models.Invitation{},
		&models.Notification{},
		&models.Message{},
	); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to auto migrate: %w", err)
	}

	log.Info("Connected to database")
	return db, nil
}
