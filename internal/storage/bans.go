package storage

import (
	"context"
	"time"

	"github.com/plugfox/addonhub/internal/model"
)

// BanFilter - selection of ban records. Zero value selects every record.
type BanFilter struct {
	UserID        *model.UserID // Only records of this user
	ExpiredAtOrBy *time.Time    // Only records with a non-null expiry <= this time
	OnlyOpenEnded bool          // Only records without expiry
	Limit         int           // 0 means no limit
	PreloadUsers  bool          // Load the subject and the issuer
}

// BanStore - persistence contract of the moderation core.
// *Storage implements it; tests substitute an in-memory fake.
type BanStore interface {
	UserByUsername(ctx context.Context, username string) (*model.User, error)
	UserByID(ctx context.Context, id model.UserID) (*model.User, error)
	SetUserActive(ctx context.Context, id model.UserID, active bool) error
	CreateBanRecord(ctx context.Context, record *model.BanRecord) error
	BanRecords(ctx context.Context, filter BanFilter) ([]model.BanRecord, error)
	ExpireBanRecords(ctx context.Context, userID model.UserID, onlyOpenEnded bool, at time.Time) (int64, error)
	InTransaction(ctx context.Context, fn func(tx BanStore) error) error
}

var _ BanStore = (*Storage)(nil)

// InTransaction - Transaction narrowed to the BanStore contract
func (s *Storage) InTransaction(ctx context.Context, fn func(tx BanStore) error) error {
	return s.Transaction(ctx, func(tx *Storage) error {
		return fn(tx)
	})
}

// CreateBanRecord - insert a new ban record
func (s *Storage) CreateBanRecord(ctx context.Context, record *model.BanRecord) error {
	return s.db.WithContext(ctx).Omit("User", "BannedBy").Create(record).Error
}

// BanRecords - query ban records, most recent first
func (s *Storage) BanRecords(ctx context.Context, filter BanFilter) ([]model.BanRecord, error) {
	query := s.db.WithContext(ctx).Model(&model.BanRecord{})

	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.ExpiredAtOrBy != nil {
		query = query.Where("expires_at IS NOT NULL AND expires_at <= ?", filter.ExpiredAtOrBy.UTC())
	}
	if filter.OnlyOpenEnded {
		query = query.Where("expires_at IS NULL")
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.PreloadUsers {
		query = query.Preload("User").Preload("BannedBy")
	}

	var records []model.BanRecord
	if err := query.Order("created_at DESC").Order("id DESC").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// ExpireBanRecords - set the expiry of the user's records to at.
// With onlyOpenEnded only permanent records are touched, history is kept either way.
func (s *Storage) ExpireBanRecords(ctx context.Context, userID model.UserID, onlyOpenEnded bool, at time.Time) (int64, error) {
	query := s.db.WithContext(ctx).Model(&model.BanRecord{}).Where("user_id = ?", userID)
	if onlyOpenEnded {
		query = query.Where("expires_at IS NULL")
	}

	result := query.Update("expires_at", at.UTC())
	return result.RowsAffected, result.Error
}
