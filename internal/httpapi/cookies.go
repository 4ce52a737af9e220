package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// RefreshCookieName is the transport credential for refresh tokens. The
// cookie is HTTP-only and scoped to the refresh path, so application code on
// the client never sees the refresh token and cannot leak it into logs or
// storage.
const RefreshCookieName = "refresh_token"

// RefreshCookiePath limits where the browser sends the credential.
const RefreshCookiePath = "/auth/refresh"

func (ac *AuthController) setRefreshCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(RefreshCookieName, token, int(ac.refreshTTL/time.Second), RefreshCookiePath, "", ac.cookieSecure, true)
}

// clearRefreshCookie instructs the client to erase the credential. Emitted
// whenever the server decides the held refresh token can never be redeemed.
func (ac *AuthController) clearRefreshCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(RefreshCookieName, "", -1, RefreshCookiePath, "", ac.cookieSecure, true)
}
