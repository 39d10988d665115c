package moderation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/plugfox/addonhub/internal/metrics"
	"github.com/plugfox/addonhub/internal/model"
	"github.com/plugfox/addonhub/internal/storage"
)

const (
	// ConsoleBanReason is stored as the reason of bans issued from the console.
	ConsoleBanReason = "admin console ban"

	defaultBanListLimit = 50
	secondsPerDay       = 24 * 60 * 60

	// maxBanDays bounds every duration component before the sum is taken.
	maxBanDays = 10_000 * 366
)

// ErrDurationOutOfRange - the ban would end after MaxExpiry.
var ErrDurationOutOfRange = errors.New("ban duration out of range")

// MaxExpiry is the latest expiry a ban record may carry.
var MaxExpiry = time.Date(9999, time.December, 31, 23, 59, 59, 0, time.UTC)

// Transcript - output lines of a single console request.
type Transcript []string

// Notifier delivers short moderation notices to the staff.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// Console executes staff commands against the ban store.
// Callers must have verified that the operator is staff.
type Console struct {
	store        storage.BanStore
	logger       *slog.Logger
	metrics      metrics.Metrics
	notifier     Notifier
	now          func() time.Time
	banListLimit int
}

// ConsoleOption configures a Console.
type ConsoleOption func(*Console)

// WithClock - replace time.Now.
func WithClock(now func() time.Time) ConsoleOption {
	return func(c *Console) { c.now = now }
}

// WithMetrics - report mutations as metric events.
func WithMetrics(m metrics.Metrics) ConsoleOption {
	return func(c *Console) { c.metrics = m }
}

// WithNotifier - announce mutations to the staff.
func WithNotifier(n Notifier) ConsoleOption {
	return func(c *Console) { c.notifier = n }
}

// WithBanListLimit - number of records printed by banlist.
func WithBanListLimit(limit int) ConsoleOption {
	return func(c *Console) {
		if limit > 0 {
			c.banListLimit = limit
		}
	}
}

// NewConsole creates a console over the store.
func NewConsole(store storage.BanStore, logger *slog.Logger, opts ...ConsoleOption) *Console {
	c := &Console{
		store:        store,
		logger:       logger,
		metrics:      metrics.NewMetricsNop(),
		now:          func() time.Time { return time.Now().UTC() },
		banListLimit: defaultBanListLimit,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Execute runs one line and returns its transcript. Unknown users and malformed input
// end up in the transcript; only store failures are returned as errors.
func (c *Console) Execute(ctx context.Context, operator *model.User, line string) (Transcript, error) {
	out := Transcript{}
	if line == "" {
		return out, nil
	}
	out = append(out, "> "+line)

	switch cmd := Parse(line).(type) {
	case BanCommand:
		return c.ban(ctx, operator, cmd, out)
	case UnbanCommand:
		return c.unban(ctx, operator, cmd, out)
	case BanListCommand:
		return c.banList(ctx, out)
	case KickCommand:
		c.logger.InfoContext(ctx, "kick requested", slog.String("operator", operatorName(operator)), slog.String("username", cmd.Username))
		return append(out, fmt.Sprintf("user %s kicked (no live session was disconnected)", cmd.Username)), nil
	case UsageCommand:
		return append(out, fmt.Sprintf("usage: %s <username>", cmd.Verb)), nil
	default:
		return append(out, "unrecognized command"), nil
	}
}

// Expiry - approximate calendar arithmetic: a year is 365 days, a month 30 days.
// Zero duration means a permanent ban and returns nil.
// An expiry past MaxExpiry returns ErrDurationOutOfRange.
func Expiry(cmd BanCommand, now time.Time) (*time.Time, error) {
	if cmd.Years < 0 || cmd.Months < 0 || cmd.Seconds < 0 {
		return nil, ErrDurationOutOfRange
	}
	if cmd.Years == 0 && cmd.Months == 0 && cmd.Seconds == 0 {
		return nil, nil
	}
	if cmd.Years > maxBanDays/365 || cmd.Months > maxBanDays/30 || cmd.Seconds/secondsPerDay > maxBanDays {
		return nil, ErrDurationOutOfRange
	}

	days := cmd.Years*365 + cmd.Months*30 + cmd.Seconds/secondsPerDay
	rest := time.Duration(cmd.Seconds%secondsPerDay) * time.Second
	expires := now.AddDate(0, 0, days).Add(rest)
	if !expires.After(now) || expires.After(MaxExpiry) {
		return nil, ErrDurationOutOfRange
	}
	return &expires, nil
}

func (c *Console) ban(ctx context.Context, operator *model.User, cmd BanCommand, out Transcript) (Transcript, error) {
	user, err := c.store.UserByUsername(ctx, cmd.Username)
	if errors.Is(err, storage.ErrNotFound) {
		return append(out, fmt.Sprintf("user %s not found", cmd.Username)), nil
	} else if err != nil {
		return out, fmt.Errorf("find user %s: %w", cmd.Username, err)
	}

	expires, err := Expiry(cmd, c.now())
	if errors.Is(err, ErrDurationOutOfRange) {
		return append(out, fmt.Sprintf("ban duration out of range, latest expiry is %s", MaxExpiry.Format(time.RFC3339))), nil
	}

	record := &model.BanRecord{
		UserID:    user.ID,
		Reason:    ConsoleBanReason,
		ExpiresAt: model.ExpiresAtNullable(expires),
	}
	if operator != nil {
		record.BannedByID = &operator.ID
	}

	err = c.store.InTransaction(ctx, func(tx storage.BanStore) error {
		if err := tx.CreateBanRecord(ctx, record); err != nil {
			return err
		}
		return tx.SetUserActive(ctx, user.ID, false)
	})
	if err != nil {
		return out, fmt.Errorf("ban %s: %w", cmd.Username, err)
	}

	c.logger.InfoContext(ctx, "user banned",
		slog.String("operator", operatorName(operator)),
		slog.String("username", user.Username),
		slog.String("expires", formatExpiry(record.ExpiresAt.Valid, record.ExpiresAt.Time)))
	c.metrics.LogModerationEvent("ban", user.Username, map[string]interface{}{
		"count":     1,
		"permanent": expires == nil,
	})

	line := fmt.Sprintf("user %s banned, expires: %s", user.Username, formatExpiry(record.ExpiresAt.Valid, record.ExpiresAt.Time))
	c.notify(ctx, fmt.Sprintf("%s by %s", line, operatorName(operator)))

	return append(out, line), nil
}

func (c *Console) unban(ctx context.Context, operator *model.User, cmd UnbanCommand, out Transcript) (Transcript, error) {
	user, err := c.store.UserByUsername(ctx, cmd.Username)
	if errors.Is(err, storage.ErrNotFound) {
		return append(out, fmt.Sprintf("user %s not found", cmd.Username)), nil
	} else if err != nil {
		return out, fmt.Errorf("find user %s: %w", cmd.Username, err)
	}

	var expired int64
	err = c.store.InTransaction(ctx, func(tx storage.BanStore) error {
		if err := tx.SetUserActive(ctx, user.ID, true); err != nil {
			return err
		}
		n, err := tx.ExpireBanRecords(ctx, user.ID, true, c.now())
		expired = n
		return err
	})
	if err != nil {
		return out, fmt.Errorf("unban %s: %w", cmd.Username, err)
	}

	c.logger.InfoContext(ctx, "user unbanned",
		slog.String("operator", operatorName(operator)),
		slog.String("username", user.Username),
		slog.Int64("expired_records", expired))
	c.metrics.LogModerationEvent("unban", user.Username, map[string]interface{}{
		"count":           1,
		"expired_records": expired,
	})

	line := fmt.Sprintf("user %s unbanned", user.Username)
	c.notify(ctx, fmt.Sprintf("%s by %s", line, operatorName(operator)))

	return append(out, line), nil
}

func (c *Console) banList(ctx context.Context, out Transcript) (Transcript, error) {
	records, err := c.store.BanRecords(ctx, storage.BanFilter{Limit: c.banListLimit, PreloadUsers: true})
	if err != nil {
		return out, fmt.Errorf("list bans: %w", err)
	}

	if len(records) == 0 {
		return append(out, "no ban records"), nil
	}

	for i := range records {
		out = append(out, fmt.Sprintf("%s by %s expires=%s",
			records[i].SubjectName(),
			records[i].IssuerName(),
			formatExpiry(records[i].ExpiresAt.Valid, records[i].ExpiresAt.Time)))
	}
	return out, nil
}

// notify - staff notices are best effort
func (c *Console) notify(ctx context.Context, text string) {
	if c.notifier == nil {
		return
	}
	if err := c.notifier.Notify(ctx, text); err != nil {
		c.logger.WarnContext(ctx, "staff notification failed", slog.String("error", err.Error()))
	}
}

func formatExpiry(valid bool, t time.Time) string {
	if !valid {
		return "never"
	}
	return t.UTC().Format(time.RFC3339)
}

func operatorName(operator *model.User) string {
	if operator == nil {
		return model.SystemIssuer
	}
	return operator.Username
}
