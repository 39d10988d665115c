package storage

import (
	"context"

	"github.com/plugfox/addonhub/internal/model"
)

// UserByID - get the user by ID
func (s *Storage) UserByID(ctx context.Context, id model.UserID) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// UserByUsername - get the user by username
func (s *Storage) UserByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// CreateUser - insert a new user
func (s *Storage) CreateUser(ctx context.Context, user *model.User) error {
	return s.db.WithContext(ctx).Create(user).Error
}

// SetUserActive - update only the active flag of the user
func (s *Storage) SetUserActive(ctx context.Context, id model.UserID, active bool) error {
	result := s.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", id).
		Update("is_active", active)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Users - get all users ordered by username
func (s *Storage) Users(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := s.db.WithContext(ctx).Order("username").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}
