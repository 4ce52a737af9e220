package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jhyun-dev/todoboard/internal/auth"
	"github.com/jhyun-dev/todoboard/internal/user"
)

// AuthController adapts the auth engine to the HTTP surface: signup, login,
// refresh, logout and logout-all. The refresh token only ever leaves through
// the cookie channel; response bodies carry the access token alone.
type AuthController struct {
	engine       *auth.Engine
	refreshTTL   time.Duration
	cookieSecure bool
}

func NewAuthController(engine *auth.Engine, refreshTTL time.Duration, cookieSecure bool) *AuthController {
	if refreshTTL <= 0 {
		refreshTTL = auth.DefaultRefreshTTL
	}
	return &AuthController{engine: engine, refreshTTL: refreshTTL, cookieSecure: cookieSecure}
}

type credentialsForm struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Signup handles POST /auth/signup.
func (ac *AuthController) Signup(c *gin.Context) {
	var form credentialsForm
	if err := c.ShouldBindJSON(&form); err != nil || form.Email == "" || form.Password == "" {
		respondError(c, http.StatusBadRequest, "email and password are required")
		return
	}

	u, err := ac.engine.Signup(c.Request.Context(), form.Email, form.Password)
	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			respondError(c, http.StatusConflict, "email already registered")
			return
		}
		respondInternal(c)
		return
	}

	respondOK(c, http.StatusCreated, gin.H{"user": u})
}

// Login handles POST /auth/login. Success sets the refresh cookie and
// returns the access token in the body.
func (ac *AuthController) Login(c *gin.Context) {
	var form credentialsForm
	if err := c.ShouldBindJSON(&form); err != nil || form.Email == "" || form.Password == "" {
		respondError(c, http.StatusBadRequest, "email and password are required")
		return
	}

	u, pair, err := ac.engine.Login(c.Request.Context(), form.Email, form.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			respondError(c, http.StatusUnauthorized, "email or password is incorrect")
			return
		}
		respondInternal(c)
		return
	}

	ac.setRefreshCookie(c, pair.Refresh)
	respondOK(c, http.StatusOK, gin.H{
		"user":        gin.H{"id": u.ID, "email": u.Email},
		"accessToken": pair.Access,
	})
}

// Refresh handles POST /auth/refresh. The credential arrives via the cookie,
// never the body. Terminal failures clear the cookie so the client stops
// presenting a credential that can never be redeemed.
func (ac *AuthController) Refresh(c *gin.Context) {
	presented, _ := c.Cookie(RefreshCookieName)

	pair, err := ac.engine.Refresh(c.Request.Context(), presented)
	if err != nil {
		kind := auth.KindOf(err)
		switch kind {
		case auth.KindRefreshMissing:
			// Nothing was presented; there is no cookie to clear.
			respondAuthError(c, kind)
		case auth.KindRefreshInvalid, auth.KindRefreshMismatch, auth.KindUserNotFound:
			ac.clearRefreshCookie(c)
			respondAuthError(c, kind)
		default:
			respondInternal(c)
		}
		return
	}

	ac.setRefreshCookie(c, pair.Refresh)
	respondOK(c, http.StatusOK, gin.H{"accessToken": pair.Access})
}

// Logout handles POST /auth/logout. Requires a valid access token; drops the
// cache entries and clears the cookie. Already-issued unexpired access
// tokens remain valid until expiry; only refresh issuance stops.
func (ac *AuthController) Logout(c *gin.Context) {
	identity, ok := IdentityFromContext(c)
	if !ok {
		respondAuthError(c, auth.KindNoToken)
		return
	}

	if err := ac.engine.Logout(c.Request.Context(), identity.UserID); err != nil {
		respondInternal(c)
		return
	}

	ac.clearRefreshCookie(c)
	respondOK(c, http.StatusOK, gin.H{"message": "logged out"})
}

// LogoutAll handles POST /auth/logout-all: bump the durable token version so
// every outstanding access token for the user dies on its next check.
func (ac *AuthController) LogoutAll(c *gin.Context) {
	identity, ok := IdentityFromContext(c)
	if !ok {
		respondAuthError(c, auth.KindNoToken)
		return
	}

	if _, err := ac.engine.LogoutAll(c.Request.Context(), identity.UserID); err != nil {
		if auth.KindOf(err) == auth.KindUserNotFound {
			respondAuthError(c, auth.KindUserNotFound)
			return
		}
		respondInternal(c)
		return
	}

	ac.clearRefreshCookie(c)
	respondOK(c, http.StatusOK, gin.H{"message": "all sessions invalidated"})
}
