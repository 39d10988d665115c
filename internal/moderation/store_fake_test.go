package moderation

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/plugfox/addonhub/internal/model"
	"github.com/plugfox/addonhub/internal/storage"
)

// fakeStore is an in-memory storage.BanStore.
type fakeStore struct {
	mu      sync.Mutex
	users   map[model.UserID]*model.User
	records []model.BanRecord
	nextID  uint
	now     func() time.Time
	failing error // returned by every call when set

	txDepth         int
	writesOutsideTx int // mutations issued without InTransaction
}

var _ storage.BanStore = (*fakeStore)(nil)

func newFakeStore(now func() time.Time) *fakeStore {
	return &fakeStore{users: map[model.UserID]*model.User{}, now: now}
}

func (f *fakeStore) addUser(username string, active bool) *model.User {
	f.mu.Lock()
	defer f.mu.Unlock()

	user := &model.User{ID: model.UserID(len(f.users) + 1), Username: username, IsActive: active}
	f.users[user.ID] = user
	clone := *user
	return &clone
}

func (f *fakeStore) user(id model.UserID) model.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.users[id]
}

func (f *fakeStore) recordsOf(id model.UserID) []model.BanRecord {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []model.BanRecord
	for _, r := range f.records {
		if r.UserID == id {
			out = append(out, r)
		}
	}
	return out
}

func (f *fakeStore) UserByUsername(_ context.Context, username string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing != nil {
		return nil, f.failing
	}

	for _, u := range f.users {
		if u.Username == username {
			clone := *u
			return &clone, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (f *fakeStore) UserByID(_ context.Context, id model.UserID) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing != nil {
		return nil, f.failing
	}

	u, ok := f.users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	clone := *u
	return &clone, nil
}

func (f *fakeStore) SetUserActive(_ context.Context, id model.UserID, active bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing != nil {
		return f.failing
	}

	u, ok := f.users[id]
	if !ok {
		return storage.ErrNotFound
	}
	f.countWrite()
	u.IsActive = active
	return nil
}

func (f *fakeStore) CreateBanRecord(_ context.Context, record *model.BanRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing != nil {
		return f.failing
	}

	f.countWrite()
	f.nextID++
	record.ID = f.nextID
	if record.CreatedAt.IsZero() {
		record.CreatedAt = f.now()
	}
	f.records = append(f.records, *record)
	return nil
}

func (f *fakeStore) BanRecords(_ context.Context, filter storage.BanFilter) ([]model.BanRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing != nil {
		return nil, f.failing
	}

	var out []model.BanRecord
	for _, r := range f.records {
		if filter.UserID != nil && r.UserID != *filter.UserID {
			continue
		}
		if filter.ExpiredAtOrBy != nil && (!r.ExpiresAt.Valid || r.ExpiresAt.Time.After(*filter.ExpiredAtOrBy)) {
			continue
		}
		if filter.OnlyOpenEnded && r.ExpiresAt.Valid {
			continue
		}
		if filter.PreloadUsers {
			if u, ok := f.users[r.UserID]; ok {
				clone := *u
				r.User = &clone
			}
			if r.BannedByID != nil {
				if u, ok := f.users[*r.BannedByID]; ok {
					clone := *u
					r.BannedBy = &clone
				}
			}
		}
		out = append(out, r)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (f *fakeStore) ExpireBanRecords(_ context.Context, userID model.UserID, onlyOpenEnded bool, at time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing != nil {
		return 0, f.failing
	}

	f.countWrite()
	var n int64
	for i := range f.records {
		r := &f.records[i]
		if r.UserID != userID || (onlyOpenEnded && r.ExpiresAt.Valid) {
			continue
		}
		r.ExpiresAt = model.ExpiresAtNullable(&at)
		n++
	}
	return n, nil
}

// countWrite - called with mu held.
func (f *fakeStore) countWrite() {
	if f.txDepth == 0 {
		f.writesOutsideTx++
	}
}

func (f *fakeStore) outsideTx() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writesOutsideTx
}

// InTransaction has no rollback, tests that need it use the sqlite store.
func (f *fakeStore) InTransaction(_ context.Context, fn func(tx storage.BanStore) error) error {
	f.mu.Lock()
	f.txDepth++
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.txDepth--
		f.mu.Unlock()
	}()

	return fn(f)
}

var errStoreDown = errors.New("store is down")

// fakeClock - manually advanced time
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}
