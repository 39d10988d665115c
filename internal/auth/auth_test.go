package auth

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/plugfox/addonhub/internal/log"
	"github.com/plugfox/addonhub/internal/model"
	"github.com/plugfox/addonhub/internal/storage"
	"github.com/stretchr/testify/require"
)

type fakeUsers struct {
	users map[string]*model.User
	err   error
}

func (f *fakeUsers) UserByUsername(_ context.Context, username string) (*model.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	if user, ok := f.users[username]; ok {
		return user, nil
	}
	return nil, storage.ErrNotFound
}

func (f *fakeUsers) UserByID(_ context.Context, id model.UserID) (*model.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, user := range f.users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, storage.ErrNotFound
}

type fakeGate struct {
	banned map[model.UserID]bool
	err    error
	calls  int
}

func (g *fakeGate) CanAuthenticate(_ context.Context, user *model.User, credentialsOK bool) (bool, error) {
	g.calls++
	if !credentialsOK {
		return false, nil
	}
	if g.err != nil {
		return false, g.err
	}
	return !g.banned[user.ID], nil
}

func newTestService(t *testing.T, throttle *Throttle) (*Service, *fakeUsers, *fakeGate) {
	t.Helper()

	hash, err := HashPassword("secret")
	require.NoError(t, err)

	users := &fakeUsers{users: map[string]*model.User{
		"alice":  {ID: 1, Username: "alice", PasswordHash: hash, IsActive: true},
		"bob":    {ID: 2, Username: "bob", PasswordHash: hash, IsActive: false},
		"carol":  {ID: 3, Username: "carol", PasswordHash: hash, IsActive: true, IsStaff: true},
		"mallet": {ID: 4, Username: "mallet", PasswordHash: hash, IsActive: true},
	}}
	gate := &fakeGate{banned: map[model.UserID]bool{4: true}}

	return NewService(users, gate, NewTokens("test-secret", time.Hour), throttle, log.Discard()), users, gate
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter2")
	require.NoError(t, err)
	require.NotEqual(t, "hunter2", hash)
	require.True(t, CheckPassword(hash, "hunter2"))
	require.False(t, CheckPassword(hash, "hunter3"))
	require.False(t, CheckPassword("not-a-hash", "hunter2"))

	_, err = HashPassword("")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestTokensRoundTrip(t *testing.T) {
	tokens := NewTokens("s3cr3t", time.Hour)
	user := &model.User{ID: 7, Username: "carol", IsStaff: true}

	token, expires, err := tokens.Issue(user)
	require.NoError(t, err)
	require.WithinDuration(t, time.Now().Add(time.Hour), expires, 5*time.Second)

	claims, err := tokens.Parse(token)
	require.NoError(t, err)
	require.Equal(t, model.UserID(7), claims.UserID)
	require.Equal(t, "carol", claims.Username)
	require.True(t, claims.Staff)
	require.Equal(t, "7", claims.Subject)
}

func TestTokensRejected(t *testing.T) {
	tokens := NewTokens("s3cr3t", time.Minute)
	token, _, err := tokens.Issue(&model.User{ID: 1, Username: "alice"})
	require.NoError(t, err)

	t.Run("wrong secret", func(t *testing.T) {
		_, err := NewTokens("other", time.Minute).Parse(token)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		later := NewTokens("s3cr3t", time.Minute)
		later.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
		_, err := later.Parse(token)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := tokens.Parse("not.a.token")
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("other algorithm", func(t *testing.T) {
		unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: 1}).
			SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = tokens.Parse(unsigned)
		require.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newTestService(t, nil)

	t.Run("ok", func(t *testing.T) {
		session, err := service.Login(ctx, "alice", "secret")
		require.NoError(t, err)
		require.NotEmpty(t, session.Token)
		require.Equal(t, "alice", session.User.Username)

		user, err := service.Authorize(ctx, session.Token)
		require.NoError(t, err)
		require.Equal(t, model.UserID(1), user.ID)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := service.Login(ctx, "alice", "nope")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := service.Login(ctx, "nobody", "secret")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("inactive user", func(t *testing.T) {
		_, err := service.Login(ctx, "bob", "secret")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("banned user", func(t *testing.T) {
		_, err := service.Login(ctx, "mallet", "secret")
		require.ErrorIs(t, err, ErrBanned)
	})
}

func TestLoginWrongPasswordSkipsBanLookup(t *testing.T) {
	service, _, gate := newTestService(t, nil)
	gate.err = errors.New("ban store down")

	_, err := service.Login(context.Background(), "mallet", "nope")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginStoreFailure(t *testing.T) {
	service, users, _ := newTestService(t, nil)
	users.err = errors.New("connection refused")

	_, err := service.Login(context.Background(), "alice", "secret")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthorizeSeesFreshBan(t *testing.T) {
	ctx := context.Background()
	service, _, gate := newTestService(t, nil)

	session, err := service.Login(ctx, "alice", "secret")
	require.NoError(t, err)

	gate.banned[1] = true
	_, err = service.Authorize(ctx, session.Token)
	require.ErrorIs(t, err, ErrBanned)
}

func TestAuthorizeDeletedUser(t *testing.T) {
	ctx := context.Background()
	service, users, _ := newTestService(t, nil)

	session, err := service.Login(ctx, "alice", "secret")
	require.NoError(t, err)

	delete(users.users, "alice")
	_, err = service.Authorize(ctx, session.Token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestLoginThrottle(t *testing.T) {
	throttle, err := NewThrottle(2, time.Minute)
	require.NoError(t, err)
	t.Cleanup(throttle.Close)

	ctx := context.Background()
	service, _, _ := newTestService(t, throttle)

	for range 2 {
		_, err := service.Login(ctx, "alice", "nope")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	}

	_, err = service.Login(ctx, "alice", "secret")
	require.ErrorIs(t, err, ErrTooManyAttempts)

	// usernames are counted case-insensitively
	_, err = service.Login(ctx, "ALICE", "secret")
	require.ErrorIs(t, err, ErrTooManyAttempts)

	_, err = service.Login(ctx, "carol", "secret")
	require.NoError(t, err)
}

func TestThrottleWindowAndReset(t *testing.T) {
	throttle, err := NewThrottle(1, time.Minute)
	require.NoError(t, err)
	t.Cleanup(throttle.Close)

	now := time.Now()
	throttle.now = func() time.Time { return now }

	throttle.Fail("dave")
	require.False(t, throttle.Allowed("dave"))

	now = now.Add(2 * time.Minute)
	require.True(t, throttle.Allowed("dave"))

	now = now.Add(-2 * time.Minute)
	throttle.Reset("dave")
	require.True(t, throttle.Allowed("dave"))
}

func TestThrottleCountsConcurrentFailures(t *testing.T) {
	const limit = 50

	throttle, err := NewThrottle(limit, time.Minute)
	require.NoError(t, err)
	t.Cleanup(throttle.Close)

	var (
		wg      sync.WaitGroup
		dropped atomic.Int32
	)
	for range limit - 1 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if !throttle.Fail("frank") {
				dropped.Add(1)
			}
		}()
	}
	wg.Wait()
	require.Zero(t, dropped.Load())
	require.True(t, throttle.Allowed("frank"))

	require.True(t, throttle.Fail("frank"))
	require.False(t, throttle.Allowed("frank"))
}

func TestThrottleDisabled(t *testing.T) {
	throttle, err := NewThrottle(0, time.Minute)
	require.NoError(t, err)

	for range 10 {
		throttle.Fail("erin")
	}
	require.True(t, throttle.Allowed("erin"))
	throttle.Close()
}
