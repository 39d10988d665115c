package storage

import (
	"context"

	"github.com/plugfox/addonhub/internal/model"
)

// CreateAnnouncement - insert a new announcement
func (s *Storage) CreateAnnouncement(ctx context.Context, announcement *model.Announcement) error {
	return s.db.WithContext(ctx).Omit("Author").Create(announcement).Error
}

// AnnouncementByID - get the announcement by ID
func (s *Storage) AnnouncementByID(ctx context.Context, id uint) (*model.Announcement, error) {
	var announcement model.Announcement
	if err := s.db.WithContext(ctx).First(&announcement, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &announcement, nil
}

// Announcements - newest first, drafts only when onlyPublished is false
func (s *Storage) Announcements(ctx context.Context, onlyPublished bool, limit int) ([]model.Announcement, error) {
	var announcements []model.Announcement
	query := s.db.WithContext(ctx).Order("created_at DESC").Order("id DESC")
	if onlyPublished {
		query = query.Where("published = ?", true)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&announcements).Error; err != nil {
		return nil, err
	}
	return announcements, nil
}

// UpdateAnnouncementPublished - persist only the published flag
func (s *Storage) UpdateAnnouncementPublished(ctx context.Context, id uint, published bool) error {
	result := s.db.WithContext(ctx).
		Model(&model.Announcement{}).
		Where("id = ?", id).
		Update("published", published)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
