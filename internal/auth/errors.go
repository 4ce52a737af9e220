package auth

import (
	"errors"
	"fmt"
)

// Kind is the closed set of authentication failure classes. Every 401 the
// server produces maps to exactly one Kind, and every Kind maps to exactly
// one wire code, so clients can branch on the code without string matching
// free-form messages.
type Kind int

const (
	KindNone Kind = iota

	// Access token failures (guard path).
	KindNoToken        // no bearer token supplied
	KindTokenInvalid   // signature failure or structurally broken token
	KindTokenExpired   // structurally valid, past expiry
	KindInvalidPayload // verified but missing userId/tokenVersion claims
	KindSessionExpired // embedded version no longer matches authoritative version
	KindUserNotFound   // subject deleted from the durable store

	// Refresh failures (rotation path).
	KindRefreshMissing  // no refresh credential supplied
	KindRefreshInvalid  // refresh token forged, corrupt, or expired
	KindRefreshMismatch // valid signature but superseded or reused
)

// Wire codes carried in the errorCode field of 401 responses. These are a
// hard contract with clients: only CodeExpiredToken may trigger an automatic
// refresh-and-retry.
const (
	CodeNoToken         = "AUTH_NO_TOKEN"
	CodeInvalidToken    = "AUTH_INVALID_TOKEN"
	CodeExpiredToken    = "AUTH_EXPIRED_TOKEN"
	CodeInvalidPayload  = "AUTH_INVALID_PAYLOAD"
	CodeSessionExpired  = "AUTH_SESSION_EXPIRED"
	CodeUserNotFound    = "AUTH_USER_NOT_FOUND"
	CodeRefreshMissing  = "AUTH_REFRESH_MISSING"
	CodeRefreshInvalid  = "AUTH_REFRESH_INVALID"
	CodeRefreshMismatch = "AUTH_REFRESH_MISMATCH"
)

// Code returns the stable wire code for k, or "" for KindNone.
func (k Kind) Code() string {
	switch k {
	case KindNoToken:
		return CodeNoToken
	case KindTokenInvalid:
		return CodeInvalidToken
	case KindTokenExpired:
		return CodeExpiredToken
	case KindInvalidPayload:
		return CodeInvalidPayload
	case KindSessionExpired:
		return CodeSessionExpired
	case KindUserNotFound:
		return CodeUserNotFound
	case KindRefreshMissing:
		return CodeRefreshMissing
	case KindRefreshInvalid:
		return CodeRefreshInvalid
	case KindRefreshMismatch:
		return CodeRefreshMismatch
	default:
		return ""
	}
}

// Error is a classified authentication failure. Two Errors compare equal
// under errors.Is when their kinds match, so call sites can test against the
// exported sentinels regardless of wrapping.
type Error struct {
	kind Kind
	msg  string
	err  error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.err)
	}
	return e.msg
}

func (e *Error) Unwrap() error { return e.err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.kind == e.kind
}

// Kind reports the failure class of e.
func (e *Error) Kind() Kind { return e.kind }

func wrapKind(kind Kind, msg string, err error) *Error {
	return &Error{kind: kind, msg: msg, err: err}
}

var (
	ErrNoToken         = &Error{kind: KindNoToken, msg: "access token missing"}
	ErrTokenInvalid    = &Error{kind: KindTokenInvalid, msg: "access token invalid"}
	ErrTokenExpired    = &Error{kind: KindTokenExpired, msg: "access token expired"}
	ErrInvalidPayload  = &Error{kind: KindInvalidPayload, msg: "invalid token payload"}
	ErrSessionExpired  = &Error{kind: KindSessionExpired, msg: "session expired"}
	ErrUserNotFound    = &Error{kind: KindUserNotFound, msg: "user not found"}
	ErrRefreshMissing  = &Error{kind: KindRefreshMissing, msg: "refresh token missing"}
	ErrRefreshInvalid  = &Error{kind: KindRefreshInvalid, msg: "refresh token invalid"}
	ErrRefreshMismatch = &Error{kind: KindRefreshMismatch, msg: "refresh token superseded or reused"}
)

// KindOf extracts the failure class from err, or KindNone when err is not an
// authentication failure (infrastructure errors stay KindNone and surface as
// HTTP 500, never as a 401 the client could misread as an auth state).
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.kind
	}
	return KindNone
}
