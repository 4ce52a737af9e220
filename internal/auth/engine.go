package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/jhyun-dev/todoboard/internal/metrics"
	"github.com/jhyun-dev/todoboard/internal/user"
)

// Identity is what the subsystem asserts to the rest of the application once
// a request passes the access guard. Nothing else crosses that boundary.
type Identity struct {
	UserID string
}

// TokenPair is the result of login and refresh. The refresh token must only
// ever travel through the HTTP-only cookie channel, never a response body.
type TokenPair struct {
	Access  string
	Refresh string
}

// Engine drives the session lifecycle: signup, login, access validation,
// refresh rotation and the two logout variants. All shared mutable state
// lives in the session cache and the user store; Engine itself holds no
// per-session memory and is safe for concurrent use.
type Engine struct {
	users   user.Store
	cache   *SessionCache
	issuer  *Issuer
	log     *slog.Logger
	metrics *metrics.Auth
}

// NewEngine wires the engine. logger and auth metrics may be nil.
func NewEngine(users user.Store, cache *SessionCache, issuer *Issuer, logger *slog.Logger, m *metrics.Auth) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{users: users, cache: cache, issuer: issuer, log: logger, metrics: m}
}

// Signup creates a new account with a bcrypt-hashed password. It issues no
// tokens; the caller logs in afterwards.
func (e *Engine) Signup(ctx context.Context, email, password string) (*user.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u, err := e.users.Create(ctx, email, string(hash))
	if err != nil {
		return nil, err
	}
	e.log.InfoContext(ctx, "user signed up", "user_id", u.ID)
	return u, nil
}

// ErrInvalidCredentials covers both unknown email and wrong password, so a
// login response never reveals which of the two failed.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Login verifies credentials and establishes a session: a fresh token pair
// plus cache entries for the refresh token and the user's current version.
func (e *Engine) Login(ctx context.Context, email, password string) (*user.User, TokenPair, error) {
	u, err := e.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			e.loginMetric("rejected")
			return nil, TokenPair{}, ErrInvalidCredentials
		}
		e.loginMetric("error")
		return nil, TokenPair{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		e.loginMetric("rejected")
		return nil, TokenPair{}, ErrInvalidCredentials
	}

	pair, err := e.establishSession(ctx, u.ID, u.TokenVersion)
	if err != nil {
		e.loginMetric("error")
		return nil, TokenPair{}, err
	}

	e.loginMetric("ok")
	e.log.InfoContext(ctx, "login succeeded", "user_id", u.ID)
	return u, pair, nil
}

func (e *Engine) establishSession(ctx context.Context, userID string, version int64) (TokenPair, error) {
	access, err := e.issuer.IssueAccess(userID, version)
	if err != nil {
		return TokenPair{}, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := e.issuer.IssueRefresh(userID)
	if err != nil {
		return TokenPair{}, fmt.Errorf("issue refresh token: %w", err)
	}
	if err := e.cache.SaveRefresh(ctx, userID, refresh); err != nil {
		return TokenPair{}, err
	}
	if err := e.cache.SetVersion(ctx, userID, version); err != nil {
		return TokenPair{}, err
	}
	return TokenPair{Access: access, Refresh: refresh}, nil
}

// Refresh runs the rotation state machine against the presented refresh
// token. On success both tokens are reissued; on any failure the prior cache
// state is either untouched or fully destroyed, never half-replaced.
func (e *Engine) Refresh(ctx context.Context, presented string) (TokenPair, error) {
	if presented == "" {
		e.refreshMetric("missing")
		return TokenPair{}, ErrRefreshMissing
	}

	claims, err := e.issuer.VerifyRefresh(presented)
	if err != nil {
		// Expired and forged collapse to the same terminal outcome: the
		// credential can never be redeemed, so the client cookie is cleared.
		e.refreshMetric("invalid")
		return TokenPair{}, wrapKind(KindRefreshInvalid, "refresh token rejected", err)
	}
	userID := claims.UserID
	if userID == "" {
		e.refreshMetric("invalid")
		return TokenPair{}, ErrRefreshInvalid
	}

	if err := e.cache.CheckCurrent(ctx, userID, presented); err != nil {
		if errors.Is(err, ErrRefreshMismatch) {
			e.refreshMetric("mismatch")
			e.log.WarnContext(ctx, "refresh reuse detected, session destroyed", "user_id", userID)
		} else {
			e.refreshMetric("error")
		}
		return TokenPair{}, err
	}

	version, err := e.resolveVersion(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			e.refreshMetric("user_not_found")
		} else {
			e.refreshMetric("error")
		}
		return TokenPair{}, err
	}

	next, err := e.issuer.IssueRefresh(userID)
	if err != nil {
		e.refreshMetric("error")
		return TokenPair{}, fmt.Errorf("issue refresh token: %w", err)
	}
	if err := e.cache.Rotate(ctx, userID, presented, next); err != nil {
		if errors.Is(err, ErrRefreshMismatch) {
			// A concurrent rotation won the race after our freshness check.
			// Fail closed: both sessions are gone.
			e.refreshMetric("mismatch")
			e.log.WarnContext(ctx, "refresh lost rotation race, session destroyed", "user_id", userID)
		} else {
			e.refreshMetric("error")
		}
		return TokenPair{}, err
	}

	access, err := e.issuer.IssueAccess(userID, version)
	if err != nil {
		e.refreshMetric("error")
		return TokenPair{}, fmt.Errorf("issue access token: %w", err)
	}

	e.refreshMetric("rotated")
	return TokenPair{Access: access, Refresh: next}, nil
}

// Authenticate is the access guard core: verify the bearer token, require a
// complete payload, and compare the embedded version against authoritative
// truth. It returns the asserted identity or a classified failure.
func (e *Engine) Authenticate(ctx context.Context, accessToken string) (*Identity, error) {
	if accessToken == "" {
		return nil, ErrNoToken
	}

	claims, err := e.issuer.VerifyAccess(accessToken)
	if err != nil {
		return nil, err
	}
	if claims.UserID == "" || claims.TokenVersion == nil {
		return nil, ErrInvalidPayload
	}

	version, err := e.resolveVersion(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if *claims.TokenVersion != version {
		return nil, ErrSessionExpired
	}

	return &Identity{UserID: claims.UserID}, nil
}

// resolveVersion returns the authoritative token version: cache first, then
// the durable store with cache repopulation. A cache miss is normal
// operation, not an error.
func (e *Engine) resolveVersion(ctx context.Context, userID string) (int64, error) {
	version, found, err := e.cache.Version(ctx, userID)
	if err != nil {
		return 0, err
	}
	if found {
		return version, nil
	}

	version, err = e.users.TokenVersion(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return 0, ErrUserNotFound
		}
		return 0, err
	}
	if err := e.cache.SetVersion(ctx, userID, version); err != nil {
		// Repopulation is best-effort; authoritative truth was already read.
		e.log.WarnContext(ctx, "version cache repopulation failed", "user_id", userID, "error", err)
	}
	return version, nil
}

// Logout drops the session cache entries for userID. Refresh issuance stops
// immediately; already-issued unexpired access tokens keep working until
// their natural expiry because the durable version is unchanged.
func (e *Engine) Logout(ctx context.Context, userID string) error {
	if err := e.cache.Drop(ctx, userID); err != nil {
		return err
	}
	e.log.InfoContext(ctx, "logout", "user_id", userID)
	return nil
}

// LogoutAll bumps the durable token version and drops the cache entries:
// every previously issued access token for userID fails its next version
// check, and the next refresh cycle fails until a fresh login.
func (e *Engine) LogoutAll(ctx context.Context, userID string) (int64, error) {
	version, err := e.users.BumpTokenVersion(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return 0, ErrUserNotFound
		}
		return 0, err
	}
	if err := e.cache.Drop(ctx, userID); err != nil {
		return 0, err
	}
	e.log.InfoContext(ctx, "logout all sessions", "user_id", userID, "token_version", version)
	return version, nil
}

func (e *Engine) loginMetric(result string) {
	if e.metrics != nil {
		e.metrics.Logins.WithLabelValues(result).Inc()
	}
}

func (e *Engine) refreshMetric(result string) {
	if e.metrics != nil {
		e.metrics.Refreshes.WithLabelValues(result).Inc()
	}
}
