package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/jhyun-dev/todoboard/internal/user"
)

type engineFixture struct {
	engine *Engine
	users  *user.MemoryStore
	cache  *SessionCache
	issuer *Issuer
	mr     *miniredis.Miniredis
}

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()

	cache, mr := newTestCache(t)
	issuer := newTestIssuer(t)
	users := user.NewMemoryStore()

	return &engineFixture{
		engine: NewEngine(users, cache, issuer, nil, nil),
		users:  users,
		cache:  cache,
		issuer: issuer,
		mr:     mr,
	}
}

func (f *engineFixture) signupAndLogin(t *testing.T, email string) (*user.User, TokenPair) {
	t.Helper()
	ctx := context.Background()

	_, err := f.engine.Signup(ctx, email, "correct-horse")
	require.NoError(t, err)

	u, pair, err := f.engine.Login(ctx, email, "correct-horse")
	require.NoError(t, err)
	return u, pair
}

func TestLoginEmbedsCurrentDurableVersion(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	u, pair := f.signupAndLogin(t, "alice@example.com")

	// Bump and log in again: the fresh access token must embed the new
	// version, not the one from signup time.
	_, err := f.users.BumpTokenVersion(ctx, u.ID)
	require.NoError(t, err)

	_, pair2, err := f.engine.Login(ctx, "alice@example.com", "correct-horse")
	require.NoError(t, err)

	claims, err := f.issuer.VerifyAccess(pair2.Access)
	require.NoError(t, err)
	require.Equal(t, int64(1), *claims.TokenVersion)

	claims, err = f.issuer.VerifyAccess(pair.Access)
	require.NoError(t, err)
	require.Equal(t, int64(0), *claims.TokenVersion)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	f.signupAndLogin(t, "alice@example.com")

	_, _, err := f.engine.Login(ctx, "alice@example.com", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = f.engine.Login(ctx, "nobody@example.com", "correct-horse")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefreshRotatesAndOldTokenDies(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	_, pair := f.signupAndLogin(t, "alice@example.com")

	rotated, err := f.engine.Refresh(ctx, pair.Refresh)
	require.NoError(t, err)
	require.NotEqual(t, pair.Refresh, rotated.Refresh)
	require.NotEmpty(t, rotated.Access)

	// Single-use property: the consumed token must fail a second rotation.
	_, err = f.engine.Refresh(ctx, pair.Refresh)
	require.ErrorIs(t, err, ErrRefreshMismatch)
}

func TestRefreshReplayTearsDownBothSessions(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	_, pair := f.signupAndLogin(t, "alice@example.com")

	rotated, err := f.engine.Refresh(ctx, pair.Refresh)
	require.NoError(t, err)

	// Attacker replays the pre-rotation token: mismatch, session destroyed.
	_, err = f.engine.Refresh(ctx, pair.Refresh)
	require.ErrorIs(t, err, ErrRefreshMismatch)

	// The legitimate holder's rotated token is collateral damage, by design.
	_, err = f.engine.Refresh(ctx, rotated.Refresh)
	require.ErrorIs(t, err, ErrRefreshMismatch)
}

func TestRefreshMissingAndInvalid(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	_, err := f.engine.Refresh(ctx, "")
	require.ErrorIs(t, err, ErrRefreshMissing)

	_, err = f.engine.Refresh(ctx, "not-a-jwt")
	require.ErrorIs(t, err, ErrRefreshInvalid)
}

func TestRefreshExpiredTokenIsInvalid(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	_, pair := f.signupAndLogin(t, "alice@example.com")

	// Shift the verification clock past the refresh lifetime: the engine
	// reports RefreshInvalid, same terminal outcome as a forged token.
	f.issuer.now = func() time.Time { return time.Now().Add(8 * 24 * time.Hour) }

	_, err := f.engine.Refresh(ctx, pair.Refresh)
	require.ErrorIs(t, err, ErrRefreshInvalid)
}

func TestRefreshSubjectDeleted(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	u, pair := f.signupAndLogin(t, "alice@example.com")

	// Force version resolution to the durable store, where the user is gone.
	f.mr.Del("user_version:" + u.ID)
	f.users.Delete(ctx, u.ID)

	_, err := f.engine.Refresh(ctx, pair.Refresh)
	require.ErrorIs(t, err, ErrUserNotFound)

	// All-or-nothing: the failed rotation left the stored token untouched.
	stored, getErr := f.mr.Get("refresh_token:" + u.ID)
	require.NoError(t, getErr)
	require.Equal(t, pair.Refresh, stored)
}

func TestAuthenticateHappyPath(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	u, pair := f.signupAndLogin(t, "alice@example.com")

	identity, err := f.engine.Authenticate(ctx, pair.Access)
	require.NoError(t, err)
	require.Equal(t, u.ID, identity.UserID)
}

func TestAuthenticateVersionBumpInvalidatesOnlyThatUser(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	alice, alicePair := f.signupAndLogin(t, "alice@example.com")
	_, bobPair := f.signupAndLogin(t, "bob@example.com")

	_, err := f.engine.LogoutAll(ctx, alice.ID)
	require.NoError(t, err)

	_, err = f.engine.Authenticate(ctx, alicePair.Access)
	require.ErrorIs(t, err, ErrSessionExpired)

	// Bob is untouched.
	_, err = f.engine.Authenticate(ctx, bobPair.Access)
	require.NoError(t, err)
}

func TestAuthenticateCacheMissFallsBackToDurableStore(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	u, pair := f.signupAndLogin(t, "alice@example.com")

	f.mr.Del("user_version:" + u.ID)

	identity, err := f.engine.Authenticate(ctx, pair.Access)
	require.NoError(t, err)
	require.Equal(t, u.ID, identity.UserID)

	// Fallback repopulated the cache.
	require.True(t, f.mr.Exists("user_version:"+u.ID))
}

func TestAuthenticateSubjectDeleted(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	u, pair := f.signupAndLogin(t, "alice@example.com")

	f.mr.Del("user_version:" + u.ID)
	f.users.Delete(ctx, u.ID)

	_, err := f.engine.Authenticate(ctx, pair.Access)
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestLogoutBlocksRefreshButNotUnexpiredAccess(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	u, pair := f.signupAndLogin(t, "alice@example.com")

	require.NoError(t, f.engine.Logout(ctx, u.ID))

	// Refresh issuance stops immediately.
	_, err := f.engine.Refresh(ctx, pair.Refresh)
	require.ErrorIs(t, err, ErrRefreshMismatch)

	// The unexpired access token still passes: logout alone does not bump
	// the durable version, so the cache-then-store fallback resolves the
	// same version the token embeds. Stronger revocation requires LogoutAll.
	_, err = f.engine.Authenticate(ctx, pair.Access)
	require.NoError(t, err)
}

func TestConcurrentRotationsSingleWinner(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	_, pair := f.signupAndLogin(t, "alice@example.com")

	const workers = 8
	start := make(chan struct{})
	results := make(chan error, workers)

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			<-start
			_, err := f.engine.Refresh(ctx, pair.Refresh)
			results <- err
		}()
	}

	close(start)
	wg.Wait()
	close(results)

	success := 0
	for err := range results {
		switch {
		case err == nil:
			success++
		default:
			require.ErrorIs(t, err, ErrRefreshMismatch)
		}
	}
	require.Equal(t, 1, success, "expected exactly one rotation winner")
}
