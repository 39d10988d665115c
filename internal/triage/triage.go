// Package triage handles abuse reports, contact messages and announcements on the staff side.
package triage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/plugfox/addonhub/internal/email"
	"github.com/plugfox/addonhub/internal/metrics"
	"github.com/plugfox/addonhub/internal/model"
	"github.com/plugfox/addonhub/internal/notify"
)

const (
	// StaffListLimit - rows shown to the staff.
	StaffListLimit = 200
	// OwnListLimit - rows a user sees of their own contact messages.
	OwnListLimit = 50
)

var ErrEmptyReply = errors.New("reply message is empty")

// Store - persistence needed by the service, implemented by storage.Storage.
type Store interface {
	CreateReport(ctx context.Context, report *model.Report) error
	ReportByID(ctx context.Context, id uint) (*model.Report, error)
	Reports(ctx context.Context, limit int) ([]model.Report, error)
	UpdateReportStatus(ctx context.Context, report *model.Report) error
	CreateContact(ctx context.Context, contact *model.ContactMessage) error
	ContactByID(ctx context.Context, id uint) (*model.ContactMessage, error)
	Contacts(ctx context.Context, email string, limit int) ([]model.ContactMessage, error)
	UpdateContactStatus(ctx context.Context, contact *model.ContactMessage) error
	RecordContactReply(ctx context.Context, contact *model.ContactMessage, reply *model.ContactReply) error
	CreateAnnouncement(ctx context.Context, announcement *model.Announcement) error
	AnnouncementByID(ctx context.Context, id uint) (*model.Announcement, error)
	Announcements(ctx context.Context, onlyPublished bool, limit int) ([]model.Announcement, error)
	UpdateAnnouncementPublished(ctx context.Context, id uint, published bool) error
}

type Service struct {
	store    Store
	mail     email.Sender
	notifier notify.Notifier
	metrics  metrics.Metrics
	logger   *slog.Logger
}

func NewService(store Store, mail email.Sender, notifier notify.Notifier, m metrics.Metrics, logger *slog.Logger) *Service {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	if m == nil {
		m = metrics.NewMetricsNop()
	}
	return &Service{store: store, mail: mail, notifier: notifier, metrics: m, logger: logger}
}

// SubmitReport stores an abuse report filed by a signed-in user.
func (s *Service) SubmitReport(ctx context.Context, reporter *model.User, url, description string) (*model.Report, error) {
	report := &model.Report{
		URL:         strings.TrimSpace(url),
		Description: strings.TrimSpace(description),
	}
	if reporter != nil {
		report.ReporterID = &reporter.ID
	}

	if err := s.store.CreateReport(ctx, report); err != nil {
		return nil, fmt.Errorf("create report: %w", err)
	}

	s.logger.InfoContext(ctx, "report submitted", slog.Uint64("id", uint64(report.ID)), slog.String("url", report.URL))
	s.metrics.LogEvent("report", nil, map[string]interface{}{"count": 1})
	subject := report.URL
	if subject == "" {
		subject = "(no url)"
	}
	s.notify(ctx, fmt.Sprintf("new report #%d: %s", report.ID, subject))

	return report, nil
}

// SubmitContact stores a message from the public contact form.
func (s *Service) SubmitContact(ctx context.Context, name, address, subject, message string) (*model.ContactMessage, error) {
	contact := &model.ContactMessage{
		Name:    strings.TrimSpace(name),
		Email:   strings.TrimSpace(address),
		Subject: strings.TrimSpace(subject),
		Message: message,
	}

	if err := s.store.CreateContact(ctx, contact); err != nil {
		return nil, fmt.Errorf("create contact message: %w", err)
	}

	s.logger.InfoContext(ctx, "contact message received", slog.Uint64("id", uint64(contact.ID)), slog.String("email", contact.Email))
	s.metrics.LogEvent("contact", nil, map[string]interface{}{"count": 1})
	s.notify(ctx, fmt.Sprintf("new contact message #%d from %s: %s", contact.ID, contact.Email, subjectOrDefault(contact.Subject)))

	return contact, nil
}

// ToggleReport flips the resolved flag. The staff member is recorded when it gets set.
func (s *Service) ToggleReport(ctx context.Context, id uint, staff *model.User) (*model.Report, error) {
	report, err := s.store.ReportByID(ctx, id)
	if err != nil {
		return nil, err
	}

	report.Resolved = !report.Resolved
	report.HandledByID = handler(report.Resolved, staff)

	if err := s.store.UpdateReportStatus(ctx, report); err != nil {
		return nil, fmt.Errorf("update report %d: %w", id, err)
	}

	s.logger.InfoContext(ctx, "report toggled", slog.Uint64("id", uint64(id)), slog.Bool("resolved", report.Resolved), slog.String("staff", staffName(staff)))
	return report, nil
}

// ToggleContact flips the handled flag. The staff member is recorded when it gets set.
func (s *Service) ToggleContact(ctx context.Context, id uint, staff *model.User) (*model.ContactMessage, error) {
	contact, err := s.store.ContactByID(ctx, id)
	if err != nil {
		return nil, err
	}

	contact.Handled = !contact.Handled
	contact.HandledByID = handler(contact.Handled, staff)

	if err := s.store.UpdateContactStatus(ctx, contact); err != nil {
		return nil, fmt.Errorf("update contact message %d: %w", id, err)
	}

	s.logger.InfoContext(ctx, "contact message toggled", slog.Uint64("id", uint64(id)), slog.Bool("handled", contact.Handled), slog.String("staff", staffName(staff)))
	return contact, nil
}

// ReplyContact mails the reply to the sender. Only a delivered reply is stored
// and marks the message handled.
func (s *Service) ReplyContact(ctx context.Context, id uint, staff *model.User, subject, message string) (*model.ContactReply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyReply
	}

	contact, err := s.store.ContactByID(ctx, id)
	if err != nil {
		return nil, err
	}

	subject = strings.TrimSpace(subject)
	if subject == "" {
		subject = "Re: " + subjectOrDefault(contact.Subject)
	}

	if err := s.mail.Send(ctx, email.Message{To: contact.Email, Subject: subject, Body: message}); err != nil {
		s.logger.WarnContext(ctx, "reply delivery failed", slog.Uint64("id", uint64(id)), slog.String("error", err.Error()))
		return nil, fmt.Errorf("deliver reply to contact message %d: %w", id, err)
	}

	contact.Handled = true
	contact.HandledByID = &staff.ID
	reply := &model.ContactReply{
		Subject:     subject,
		Message:     message,
		RepliedByID: &staff.ID,
	}

	if err := s.store.RecordContactReply(ctx, contact, reply); err != nil {
		return nil, fmt.Errorf("record reply to contact message %d: %w", id, err)
	}

	s.logger.InfoContext(ctx, "contact message answered", slog.Uint64("id", uint64(id)), slog.String("staff", staffName(staff)))
	s.metrics.LogEvent("contact_reply", nil, map[string]interface{}{"count": 1})

	return reply, nil
}

// Reports - newest first, capped at StaffListLimit.
func (s *Service) Reports(ctx context.Context, limit int) ([]model.Report, error) {
	return s.store.Reports(ctx, capLimit(limit, StaffListLimit))
}

// Contacts - newest first, capped at StaffListLimit.
func (s *Service) Contacts(ctx context.Context, limit int) ([]model.ContactMessage, error) {
	return s.store.Contacts(ctx, "", capLimit(limit, StaffListLimit))
}

// OwnContacts - messages sent from the user's email address.
func (s *Service) OwnContacts(ctx context.Context, user *model.User) ([]model.ContactMessage, error) {
	if user.Email == "" {
		return []model.ContactMessage{}, nil
	}
	return s.store.Contacts(ctx, user.Email, OwnListLimit)
}

// CreateAnnouncement stores a staff announcement, published right away unless draft is set.
func (s *Service) CreateAnnouncement(ctx context.Context, staff *model.User, title, content, videoURL string, draft bool) (*model.Announcement, error) {
	announcement := &model.Announcement{
		Title:     strings.TrimSpace(title),
		Content:   strings.TrimSpace(content),
		VideoURL:  strings.TrimSpace(videoURL),
		Published: !draft,
	}
	if staff != nil {
		announcement.AuthorID = &staff.ID
	}

	if err := s.store.CreateAnnouncement(ctx, announcement); err != nil {
		return nil, fmt.Errorf("create announcement: %w", err)
	}

	s.logger.InfoContext(ctx, "announcement created",
		slog.Uint64("id", uint64(announcement.ID)),
		slog.Bool("published", announcement.Published),
		slog.String("staff", staffName(staff)))
	return announcement, nil
}

// ToggleAnnouncement flips the published flag.
func (s *Service) ToggleAnnouncement(ctx context.Context, id uint, staff *model.User) (*model.Announcement, error) {
	announcement, err := s.store.AnnouncementByID(ctx, id)
	if err != nil {
		return nil, err
	}

	announcement.Published = !announcement.Published
	if err := s.store.UpdateAnnouncementPublished(ctx, id, announcement.Published); err != nil {
		return nil, fmt.Errorf("update announcement %d: %w", id, err)
	}

	s.logger.InfoContext(ctx, "announcement toggled", slog.Uint64("id", uint64(id)), slog.Bool("published", announcement.Published), slog.String("staff", staffName(staff)))
	return announcement, nil
}

// Announcements - published ones for everybody, drafts included for the staff.
func (s *Service) Announcements(ctx context.Context, withDrafts bool, limit int) ([]model.Announcement, error) {
	return s.store.Announcements(ctx, !withDrafts, capLimit(limit, StaffListLimit))
}

func (s *Service) notify(ctx context.Context, text string) {
	if err := s.notifier.Notify(ctx, text); err != nil {
		s.logger.WarnContext(ctx, "staff notification failed", slog.String("error", err.Error()))
	}
}

func staffName(staff *model.User) string {
	if staff == nil {
		return model.SystemIssuer
	}
	return staff.Username
}

func handler(set bool, staff *model.User) *model.UserID {
	if !set || staff == nil {
		return nil
	}
	id := staff.ID
	return &id
}

func subjectOrDefault(subject string) string {
	if subject == "" {
		return "(no subject)"
	}
	return subject
}

func capLimit(limit, ceiling int) int {
	if limit <= 0 || limit > ceiling {
		return ceiling
	}
	return limit
}
