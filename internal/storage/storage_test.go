package storage

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/plugfox/addonhub/internal/config"
	"github.com/plugfox/addonhub/internal/log"
	"github.com/plugfox/addonhub/internal/model"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := New(&config.Config{
		Database: config.DatabaseConfig{Driver: "sqlite", Connection: "memory:" + name},
	}, log.Discard())
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}

func createUser(t *testing.T, db *Storage, username string) *model.User {
	t.Helper()

	user := &model.User{Username: username, PasswordHash: "x", IsActive: true}
	require.NoError(t, db.CreateUser(context.Background(), user))
	require.NotZero(t, user.ID)

	return user
}

func TestUnsupportedDriver(t *testing.T) {
	_, err := New(&config.Config{
		Database: config.DatabaseConfig{Driver: "oracle"},
	}, log.Discard())
	require.ErrorIs(t, err, errorUnsupportedDriver)
}

func TestUsers(t *testing.T) {
	ctx := context.Background()
	db := newTestStorage(t)
	require.NoError(t, db.Ping(ctx))

	alice := createUser(t, db, "alice")

	found, err := db.UserByUsername(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, alice.ID, found.ID)
	require.True(t, found.IsActive)

	_, err = db.UserByUsername(ctx, "nobody")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, db.SetUserActive(ctx, alice.ID, false))
	found, err = db.UserByID(ctx, alice.ID)
	require.NoError(t, err)
	require.False(t, found.IsActive)

	require.ErrorIs(t, db.SetUserActive(ctx, 9999, true), ErrNotFound)
}

func TestBanRecords(t *testing.T) {
	ctx := context.Background()
	db := newTestStorage(t)

	admin := createUser(t, db, "admin")
	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")

	now := time.Now().UTC()
	past := now.Add(-2 * time.Hour)
	future := now.Add(2 * time.Hour)

	records := []*model.BanRecord{
		{UserID: alice.ID, BannedByID: &admin.ID, Reason: "expired", CreatedAt: now.Add(-3 * time.Hour), ExpiresAt: model.ExpiresAtNullable(&past)},
		{UserID: alice.ID, Reason: "permanent", CreatedAt: now.Add(-time.Hour)},
		{UserID: bob.ID, BannedByID: &admin.ID, Reason: "temporary", CreatedAt: now.Add(-30 * time.Minute), ExpiresAt: model.ExpiresAtNullable(&future)},
	}
	for _, record := range records {
		require.NoError(t, db.CreateBanRecord(ctx, record))
	}

	t.Run("All most recent first", func(t *testing.T) {
		all, err := db.BanRecords(ctx, BanFilter{PreloadUsers: true})
		require.NoError(t, err)
		require.Len(t, all, 3)
		require.Equal(t, "temporary", all[0].Reason)
		require.Equal(t, "permanent", all[1].Reason)
		require.Equal(t, "expired", all[2].Reason)
		require.Equal(t, "bob", all[0].SubjectName())
		require.Equal(t, "admin", all[0].IssuerName())
		require.Equal(t, model.SystemIssuer, all[1].IssuerName())
	})

	t.Run("Limit", func(t *testing.T) {
		limited, err := db.BanRecords(ctx, BanFilter{Limit: 2})
		require.NoError(t, err)
		require.Len(t, limited, 2)
	})

	t.Run("By user", func(t *testing.T) {
		own, err := db.BanRecords(ctx, BanFilter{UserID: &alice.ID})
		require.NoError(t, err)
		require.Len(t, own, 2)
	})

	t.Run("Expired", func(t *testing.T) {
		expired, err := db.BanRecords(ctx, BanFilter{ExpiredAtOrBy: &now})
		require.NoError(t, err)
		require.Len(t, expired, 1)
		require.Equal(t, "expired", expired[0].Reason)
	})

	t.Run("Open ended", func(t *testing.T) {
		open, err := db.BanRecords(ctx, BanFilter{OnlyOpenEnded: true})
		require.NoError(t, err)
		require.Len(t, open, 1)
		require.Equal(t, "permanent", open[0].Reason)
	})

	t.Run("Expire open ended", func(t *testing.T) {
		affected, err := db.ExpireBanRecords(ctx, alice.ID, true, now)
		require.NoError(t, err)
		require.EqualValues(t, 1, affected)

		open, err := db.BanRecords(ctx, BanFilter{UserID: &alice.ID, OnlyOpenEnded: true})
		require.NoError(t, err)
		require.Empty(t, open)

		own, err := db.BanRecords(ctx, BanFilter{UserID: &alice.ID})
		require.NoError(t, err)
		require.Len(t, own, 2, "history is kept")
	})
}

func TestTransactionRollback(t *testing.T) {
	ctx := context.Background()
	db := newTestStorage(t)
	alice := createUser(t, db, "alice")

	err := db.InTransaction(ctx, func(tx BanStore) error {
		require.NoError(t, tx.CreateBanRecord(ctx, &model.BanRecord{UserID: alice.ID, Reason: "rolled back"}))
		return tx.SetUserActive(ctx, 9999, false) // unknown user
	})
	require.ErrorIs(t, err, ErrNotFound)

	records, err := db.BanRecords(ctx, BanFilter{UserID: &alice.ID})
	require.NoError(t, err)
	require.Empty(t, records)
}

func TestTriage(t *testing.T) {
	ctx := context.Background()
	db := newTestStorage(t)
	staff := createUser(t, db, "staff")
	alice := createUser(t, db, "alice")

	report := &model.Report{ReporterID: &alice.ID, URL: "https://example.com/addons/1", Description: "malware"}
	require.NoError(t, db.CreateReport(ctx, report))

	report.Resolved = true
	report.HandledByID = &staff.ID
	require.NoError(t, db.UpdateReportStatus(ctx, report))

	stored, err := db.ReportByID(ctx, report.ID)
	require.NoError(t, err)
	require.True(t, stored.Resolved)
	require.Equal(t, staff.ID, *stored.HandledByID)

	_, err = db.ReportByID(ctx, 9999)
	require.ErrorIs(t, err, ErrNotFound)

	contact := &model.ContactMessage{Name: "Alice", Email: "alice@example.com", Message: "hello"}
	require.NoError(t, db.CreateContact(ctx, contact))
	require.NoError(t, db.CreateContact(ctx, &model.ContactMessage{Name: "Bob", Email: "bob@example.com", Message: "hi"}))

	contact.Handled = true
	contact.HandledByID = &staff.ID
	reply := &model.ContactReply{Subject: "Re: hello", Message: "thanks", RepliedByID: &staff.ID}
	require.NoError(t, db.RecordContactReply(ctx, contact, reply))
	require.NotZero(t, reply.ID)

	own, err := db.Contacts(ctx, "alice@example.com", 50)
	require.NoError(t, err)
	require.Len(t, own, 1)
	require.True(t, own[0].Handled)
	require.Len(t, own[0].Replies, 1)
	require.Equal(t, "thanks", own[0].Replies[0].Message)

	all, err := db.Contacts(ctx, "", 200)
	require.NoError(t, err)
	require.Len(t, all, 2)

	reports, err := db.Reports(ctx, 200)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	require.Equal(t, "alice", reports[0].Reporter.Username)
}

func TestAnnouncements(t *testing.T) {
	ctx := context.Background()
	db := newTestStorage(t)
	staff := createUser(t, db, "staff")

	draft := &model.Announcement{Title: "Maintenance", Content: "Sunday night", AuthorID: &staff.ID}
	require.NoError(t, db.CreateAnnouncement(ctx, draft))
	live := &model.Announcement{Title: "Welcome", Content: "Hello", Published: true}
	require.NoError(t, db.CreateAnnouncement(ctx, live))

	published, err := db.Announcements(ctx, true, 0)
	require.NoError(t, err)
	require.Len(t, published, 1)
	require.Equal(t, "Welcome", published[0].Title)

	all, err := db.Announcements(ctx, false, 0)
	require.NoError(t, err)
	require.Len(t, all, 2)

	require.NoError(t, db.UpdateAnnouncementPublished(ctx, draft.ID, true))
	stored, err := db.AnnouncementByID(ctx, draft.ID)
	require.NoError(t, err)
	require.True(t, stored.Published)

	require.ErrorIs(t, db.UpdateAnnouncementPublished(ctx, 9999, true), ErrNotFound)
	_, err = db.AnnouncementByID(ctx, 9999)
	require.ErrorIs(t, err, ErrNotFound)
}
