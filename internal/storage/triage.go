package storage

import (
	"context"

	"github.com/plugfox/addonhub/internal/model"
	"gorm.io/gorm"
)

// CreateReport - insert a new abuse report
func (s *Storage) CreateReport(ctx context.Context, report *model.Report) error {
	return s.db.WithContext(ctx).Omit("Reporter", "HandledBy").Create(report).Error
}

// ReportByID - get the report by ID
func (s *Storage) ReportByID(ctx context.Context, id uint) (*model.Report, error) {
	var report model.Report
	if err := s.db.WithContext(ctx).First(&report, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &report, nil
}

// Reports - most recent reports first
func (s *Storage) Reports(ctx context.Context, limit int) ([]model.Report, error) {
	var reports []model.Report
	query := s.db.WithContext(ctx).Preload("Reporter").Preload("HandledBy").Order("created_at DESC").Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&reports).Error; err != nil {
		return nil, err
	}
	return reports, nil
}

// UpdateReportStatus - persist the resolved flag and the handler
func (s *Storage) UpdateReportStatus(ctx context.Context, report *model.Report) error {
	return notFound(s.db.WithContext(ctx).
		Model(report).
		Select("Resolved", "HandledByID").
		Updates(report).Error)
}

// CreateContact - insert a new contact message
func (s *Storage) CreateContact(ctx context.Context, contact *model.ContactMessage) error {
	return s.db.WithContext(ctx).Omit("HandledBy", "Replies").Create(contact).Error
}

// ContactByID - get the contact message by ID, replies included
func (s *Storage) ContactByID(ctx context.Context, id uint) (*model.ContactMessage, error) {
	var contact model.ContactMessage
	if err := s.db.WithContext(ctx).Preload("Replies").First(&contact, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &contact, nil
}

// Contacts - most recent contact messages first, optionally only those sent from email
func (s *Storage) Contacts(ctx context.Context, email string, limit int) ([]model.ContactMessage, error) {
	var contacts []model.ContactMessage
	query := s.db.WithContext(ctx).
		Preload("HandledBy").
		Preload("Replies", func(db *gorm.DB) *gorm.DB { return db.Order("replied_at DESC") }).
		Order("created_at DESC").
		Order("id DESC")
	if email != "" {
		query = query.Where("email = ?", email)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&contacts).Error; err != nil {
		return nil, err
	}
	return contacts, nil
}

// UpdateContactStatus - persist the handled flag and the handler
func (s *Storage) UpdateContactStatus(ctx context.Context, contact *model.ContactMessage) error {
	return notFound(s.db.WithContext(ctx).
		Model(contact).
		Select("Handled", "HandledByID").
		Updates(contact).Error)
}

// RecordContactReply - mark the contact handled and store the reply in one transaction
func (s *Storage) RecordContactReply(ctx context.Context, contact *model.ContactMessage, reply *model.ContactReply) error {
	return s.Transaction(ctx, func(tx *Storage) error {
		if err := tx.UpdateContactStatus(ctx, contact); err != nil {
			return err
		}
		reply.ContactID = contact.ID
		return tx.db.WithContext(ctx).Omit("RepliedBy").Create(reply).Error
	})
}
