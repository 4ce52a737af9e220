package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// IssuerConfig holds the signing material and lifetimes for both token
// families. Access and refresh tokens are signed with independent secrets so
// a refresh token can never be replayed as an access token.
type IssuerConfig struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration // default 15m
	RefreshTTL    time.Duration // default 7d
	Issuer        string
	Leeway        time.Duration
}

const (
	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

// AccessClaims is the access token claim bundle. TokenVersion is a pointer so
// a token signed under a different claim schema (field absent entirely) is
// distinguishable from version zero.
type AccessClaims struct {
	UserID       string `json:"uid,omitempty"`
	TokenVersion *int64 `json:"ver,omitempty"`
	jwt.RegisteredClaims
}

// RefreshClaims deliberately excludes the token version: refresh validity is
// decided by comparison against the session cache, never by a value embedded
// at issue time that could go stale.
type RefreshClaims struct {
	UserID string `json:"uid,omitempty"`
	jwt.RegisteredClaims
}

// Issuer creates and verifies signed tokens. It performs no I/O; given the
// same secrets and clock its output is deterministic up to the jti claim.
type Issuer struct {
	config IssuerConfig
	now    func() time.Time
}

// NewIssuer validates cfg and returns a ready Issuer. Missing secrets are a
// construction-time error, not a per-request one.
func NewIssuer(cfg IssuerConfig) (*Issuer, error) {
	if len(cfg.AccessSecret) == 0 || len(cfg.RefreshSecret) == 0 {
		return nil, errors.New("issuer requires access and refresh secrets")
	}
	if cfg.AccessTTL < 0 || cfg.RefreshTTL < 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if cfg.AccessTTL == 0 {
		cfg.AccessTTL = DefaultAccessTTL
	}
	if cfg.RefreshTTL == 0 {
		cfg.RefreshTTL = DefaultRefreshTTL
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	return &Issuer{config: cfg, now: time.Now}, nil
}

// IssueAccess signs a short-lived access token embedding the user ID and the
// user's current token version.
func (i *Issuer) IssueAccess(userID string, tokenVersion int64) (string, error) {
	now := i.now()
	claims := AccessClaims{
		UserID:       userID,
		TokenVersion: &tokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    i.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.config.AccessTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.config.AccessSecret)
}

// IssueRefresh signs a long-lived refresh token carrying only the user ID.
// The jti claim guarantees two rotations in the same second still produce
// distinct token strings, which the byte-exact freshness check relies on.
func (i *Issuer) IssueRefresh(userID string) (string, error) {
	now := i.now()
	claims := RefreshClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    i.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.config.RefreshTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.config.RefreshSecret)
}

// VerifyAccess checks signature then expiry. Expired tokens come back as
// ErrTokenExpired, everything else as ErrTokenInvalid; the guard and the
// client coordinator react differently to the two.
func (i *Issuer) VerifyAccess(tokenStr string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := i.parse(tokenStr, claims, i.config.AccessSecret); err != nil {
		return nil, i.classify(err)
	}
	return claims, nil
}

// VerifyRefresh is the refresh-side counterpart of VerifyAccess.
func (i *Issuer) VerifyRefresh(tokenStr string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := i.parse(tokenStr, claims, i.config.RefreshSecret); err != nil {
		return nil, i.classify(err)
	}
	return claims, nil
}

func (i *Issuer) parse(tokenStr string, claims jwt.Claims, secret []byte) error {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
	}
	if i.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(i.config.Leeway))
	}
	if i.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(i.config.Issuer))
	}

	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, options...)
	if err != nil {
		return err
	}
	if !token.Valid {
		return jwt.ErrTokenInvalidClaims
	}
	return nil
}

func (i *Issuer) classify(err error) error {
	if errors.Is(err, jwt.ErrTokenExpired) {
		return wrapKind(KindTokenExpired, "token expired", err)
	}
	return wrapKind(KindTokenInvalid, "token invalid", err)
}
