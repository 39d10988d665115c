package moderation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/plugfox/addonhub/internal/metrics"
	"github.com/plugfox/addonhub/internal/model"
	"github.com/plugfox/addonhub/internal/storage"
)

// SweepResult - counters of one sweep.
type SweepResult struct {
	Examined    int `json:"examined"`    // expired records seen
	Reactivated int `json:"reactivated"` // users whose active flag was restored
}

// Sweeper reactivates users whose bans have lapsed.
type Sweeper struct {
	store   storage.BanStore
	logger  *slog.Logger
	metrics metrics.Metrics
	now     func() time.Time
}

// NewSweeper creates a sweeper. A nil clock means time.Now and nil metrics a no-op.
func NewSweeper(store storage.BanStore, logger *slog.Logger, m metrics.Metrics, now func() time.Time) *Sweeper {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	if m == nil {
		m = metrics.NewMetricsNop()
	}
	return &Sweeper{store: store, logger: logger, metrics: m, now: now}
}

// Sweep - one pass. A user is reactivated only when the full set of their records
// no longer contains an active ban, so a permanent ban next to an expired one holds.
func (s *Sweeper) Sweep(ctx context.Context) (SweepResult, error) {
	var result SweepResult

	now := s.now()
	expired, err := s.store.BanRecords(ctx, storage.BanFilter{ExpiredAtOrBy: &now})
	if err != nil {
		return result, fmt.Errorf("load expired bans: %w", err)
	}
	result.Examined = len(expired)

	seen := make(map[model.UserID]struct{}, len(expired))
	for i := range expired {
		userID := expired[i].UserID
		if _, ok := seen[userID]; ok {
			continue
		}
		seen[userID] = struct{}{}

		reactivated, err := s.reconcile(ctx, userID, now)
		if err != nil {
			return result, err
		}
		if reactivated {
			result.Reactivated++
		}
	}

	s.logger.InfoContext(ctx, "expired bans swept",
		slog.Int("examined", result.Examined),
		slog.Int("reactivated", result.Reactivated))
	if result.Examined > 0 {
		s.metrics.LogModerationEvent("sweep", "", map[string]interface{}{
			"examined":    result.Examined,
			"reactivated": result.Reactivated,
		})
	}

	return result, nil
}

// reconcile - the record check and the reactivation share one transaction,
// a ban committed in between cannot be overwritten.
func (s *Sweeper) reconcile(ctx context.Context, userID model.UserID, now time.Time) (bool, error) {
	var (
		username    string
		reactivated bool
	)

	err := s.store.InTransaction(ctx, func(tx storage.BanStore) error {
		user, err := tx.UserByID(ctx, userID)
		if err != nil {
			return fmt.Errorf("load user %d: %w", userID, err)
		}
		username = user.Username
		if user.IsActive {
			return nil
		}

		records, err := tx.BanRecords(ctx, storage.BanFilter{UserID: &userID})
		if err != nil {
			return fmt.Errorf("load bans of %s: %w", user.Username, err)
		}
		if IsBanned(records, now) {
			return nil
		}

		if err := tx.SetUserActive(ctx, userID, true); err != nil {
			return fmt.Errorf("reactivate %s: %w", user.Username, err)
		}
		reactivated = true
		return nil
	})
	if err != nil || !reactivated {
		return false, err
	}

	s.logger.InfoContext(ctx, "user reactivated", slog.String("username", username))
	return true, nil
}

// Run sweeps every interval until ctx is done. Failed passes are logged and retried on the next tick.
func (s *Sweeper) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil {
				s.logger.ErrorContext(ctx, "sweep failed", slog.String("error", err.Error()))
			}
		}
	}
}
