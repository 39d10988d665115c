package moderation

import (
	"context"
	"fmt"
	"time"

	"github.com/plugfox/addonhub/internal/model"
	"github.com/plugfox/addonhub/internal/storage"
)

// BanRecordReader - the part of the store the gate needs.
type BanRecordReader interface {
	BanRecords(ctx context.Context, filter storage.BanFilter) ([]model.BanRecord, error)
}

// Gate adds the ban check on top of the credential check.
// Every call reads the store, so a fresh ban applies to the very next attempt.
type Gate struct {
	store BanRecordReader
	now   func() time.Time
}

// NewGate creates a gate. A nil clock means time.Now.
func NewGate(store BanRecordReader, now func() time.Time) *Gate {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Gate{store: store, now: now}
}

// CanAuthenticate - credentialsOK is the verdict of the underlying check (password, active flag).
// When it is false the store is not consulted.
func (g *Gate) CanAuthenticate(ctx context.Context, user *model.User, credentialsOK bool) (bool, error) {
	if !credentialsOK || user == nil {
		return false, nil
	}

	records, err := g.store.BanRecords(ctx, storage.BanFilter{UserID: &user.ID})
	if err != nil {
		return false, fmt.Errorf("load bans of %s: %w", user.Username, err)
	}

	return !IsBanned(records, g.now()), nil
}
