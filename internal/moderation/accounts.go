package moderation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/plugfox/addonhub/internal/model"
	"github.com/plugfox/addonhub/internal/storage"
)

// ActivationResult - outcome of a bulk active toggle.
type ActivationResult struct {
	Updated []string `json:"updated"`
	Missing []string `json:"missing"`
}

// SetActive switches the active flag of many accounts in one transaction.
// No ban records are written: an activated user with a running ban is still refused by the gate.
func (c *Console) SetActive(ctx context.Context, operator *model.User, usernames []string, active bool) (ActivationResult, error) {
	result := ActivationResult{Updated: []string{}, Missing: []string{}}
	seen := make(map[string]struct{}, len(usernames))

	err := c.store.InTransaction(ctx, func(tx storage.BanStore) error {
		for _, username := range usernames {
			if _, ok := seen[username]; ok {
				continue
			}
			seen[username] = struct{}{}

			user, err := tx.UserByUsername(ctx, username)
			if errors.Is(err, storage.ErrNotFound) {
				result.Missing = append(result.Missing, username)
				continue
			} else if err != nil {
				return fmt.Errorf("find user %s: %w", username, err)
			}

			if err := tx.SetUserActive(ctx, user.ID, active); err != nil {
				return fmt.Errorf("set active %s: %w", username, err)
			}
			result.Updated = append(result.Updated, user.Username)
		}
		return nil
	})
	if err != nil {
		return ActivationResult{}, err
	}

	action := "deactivate"
	if active {
		action = "activate"
	}

	c.logger.InfoContext(ctx, "accounts updated",
		slog.String("operator", operatorName(operator)),
		slog.String("action", action),
		slog.Int("updated", len(result.Updated)),
		slog.Int("missing", len(result.Missing)))
	if len(result.Updated) == 0 {
		return result, nil
	}

	c.metrics.LogModerationEvent(action, "", map[string]interface{}{
		"count": len(result.Updated),
	})
	c.notify(ctx, fmt.Sprintf("%d users %sd by %s: %s",
		len(result.Updated), action, operatorName(operator), strings.Join(result.Updated, ", ")))

	return result, nil
}
