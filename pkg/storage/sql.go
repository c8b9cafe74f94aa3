package storage

import (
	"errors"
	"fmt"
	"time"

	"github.com/raykavin/coinwatch/pkg/core"
	"gorm.io/gorm"
)

// SQLStorage implements core.SubscriptionStorage using a SQL database
// via GORM. The dialector is injected so callers pick the driver.
type SQLStorage struct {
	db *gorm.DB
}

// FromSQL creates a new SQL storage instance.
func FromSQL(dialect gorm.Dialector, opts ...gorm.Option) (core.SubscriptionStorage, error) {
	db, err := gorm.Open(dialect, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&core.Subscription{}); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLStorage{db: db}, nil
}

// Set stores or replaces a user's subscription.
func (s *SQLStorage) Set(userID int64, ticker string) error {
	var existing core.Subscription
	result := s.db.Where("user_id = ?", userID).First(&existing)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		sub := core.Subscription{UserID: userID, Ticker: ticker}
		if err := s.db.Create(&sub).Error; err != nil {
			return fmt.Errorf("failed to create subscription: %w", err)
		}
		return nil
	}
	if result.Error != nil {
		return fmt.Errorf("failed to query subscription: %w", result.Error)
	}

	existing.Ticker = ticker
	if err := s.db.Save(&existing).Error; err != nil {
		return fmt.Errorf("failed to update subscription: %w", err)
	}
	return nil
}

// Get retrieves a user's subscription.
func (s *SQLStorage) Get(userID int64) (*core.Subscription, bool, error) {
	var sub core.Subscription
	result := s.db.Where("user_id = ?", userID).First(&sub)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if result.Error != nil {
		return nil, false, fmt.Errorf("failed to query subscription: %w", result.Error)
	}

	return &sub, true, nil
}

// Delete removes a user's subscription.
func (s *SQLStorage) Delete(userID int64) error {
	result := s.db.Where("user_id = ?", userID).Delete(&core.Subscription{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete subscription: %w", result.Error)
	}
	return nil
}

// All retrieves every subscription ordered by update time.
func (s *SQLStorage) All() ([]*core.Subscription, error) {
	var subs []*core.Subscription
	result := s.db.Order("updated_at").Find(&subs)
	if result.Error != nil && !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to fetch subscriptions: %w", result.Error)
	}
	return subs, nil
}

// Close closes the database connection.
func (s *SQLStorage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	return sqlDB.Close()
}
