package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jhyun-dev/todoboard/internal/auth"
)

// Responses follow the ok-envelope: {"ok":true,...} on success and
// {"ok":false,"errorCode":...,"message":...} on failure. errorCode is only
// present for classified auth failures; clients branch on it, never on the
// human-readable message.

func respondOK(c *gin.Context, status int, payload gin.H) {
	body := gin.H{"ok": true}
	for k, v := range payload {
		body[k] = v
	}
	c.JSON(status, body)
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"ok": false, "message": message})
}

func respondAuthError(c *gin.Context, kind auth.Kind) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"ok":        false,
		"errorCode": kind.Code(),
		"message":   authMessage(kind),
	})
}

func respondInternal(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
		"ok":      false,
		"message": "internal server error",
	})
}

func authMessage(kind auth.Kind) string {
	switch kind {
	case auth.KindNoToken:
		return "access token missing"
	case auth.KindTokenInvalid:
		return "access token invalid"
	case auth.KindTokenExpired:
		return "access token expired"
	case auth.KindInvalidPayload:
		return "invalid token payload"
	case auth.KindSessionExpired:
		return "session expired"
	case auth.KindUserNotFound:
		return "user not found"
	case auth.KindRefreshMissing:
		return "refresh token required"
	case auth.KindRefreshInvalid:
		return "refresh token invalid"
	case auth.KindRefreshMismatch:
		return "refresh token rejected"
	default:
		return "unauthorized"
	}
}
