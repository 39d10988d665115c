package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	config "github.com/plugfox/addonhub/internal/config"
	"github.com/plugfox/addonhub/internal/model"
	storage_logger "github.com/plugfox/addonhub/internal/storage/storage_logger"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// ErrNotFound is returned when the requested row does not exist.
var ErrNotFound = errors.New("not found")

type Storage struct {
	db *gorm.DB
}

func New(config *config.Config, logger *slog.Logger) (*Storage, error) {
	dialector, err := createDialector(&config.Database)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(
		dialector,
		&gorm.Config{
			NamingStrategy: schema.NamingStrategy{},
			Logger:         storage_logger.NewGormSlogLogger(logger),
			NowFunc:        func() time.Time { return time.Now().UTC() },
		})
	if err != nil {
		return nil, err
	}

	// Migrations
	const timeoutSeconds = 15 * 60
	ctx, cancel := context.WithTimeout(context.Background(), timeoutSeconds*time.Second)
	defer cancel() // releases resources if slowOperation completes before timeout elapses
	if err := db.WithContext(ctx).AutoMigrate(
		&model.User{},
		&model.BanRecord{},
		&model.Report{},
		&model.ContactMessage{},
		&model.ContactReply{},
		&model.Announcement{},
	); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &Storage{db: db}, nil
}

// Close - close the database connection
func (s *Storage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping - check the database connection
func (s *Storage) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Transaction - run fn inside a single database transaction.
// The store passed to fn is bound to the transaction; returning an error rolls it back.
func (s *Storage) Transaction(ctx context.Context, fn func(tx *Storage) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Storage{db: tx})
	})
}

// notFound - translate gorm's sentinel into the package one
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
