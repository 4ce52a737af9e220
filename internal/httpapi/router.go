// Package httpapi wires the auth subsystem and the CRUD controllers onto a
// gin router. It owns everything transport-shaped: JSON envelopes, the
// refresh cookie, bearer extraction and wire error codes.
package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"

	"github.com/jhyun-dev/todoboard/internal/auth"
	"github.com/jhyun-dev/todoboard/internal/metrics"
)

// RouterDeps carries everything the router mounts.
type RouterDeps struct {
	Auth    *AuthController
	Todos   *TodoController
	Engine  *auth.Engine
	Metrics *metrics.Auth
	Logger  *slog.Logger
}

// NewRouter builds the full route table. Every /api route and both logout
// variants sit behind the access guard; the auth endpoints themselves do not.
func NewRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestid.New())
	if deps.Logger != nil {
		r.Use(RequestLogger(deps.Logger))
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	if deps.Metrics != nil {
		r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	guard := Guard(deps.Engine, deps.Metrics)

	authGroup := r.Group("/auth")
	{
		authGroup.POST("/signup", deps.Auth.Signup)
		authGroup.POST("/login", deps.Auth.Login)
		authGroup.POST("/refresh", deps.Auth.Refresh)
		authGroup.POST("/logout", guard, deps.Auth.Logout)
		authGroup.POST("/logout-all", guard, deps.Auth.LogoutAll)
	}

	api := r.Group("/api", guard)
	{
		api.GET("/me", func(c *gin.Context) {
			identity, _ := IdentityFromContext(c)
			respondOK(c, http.StatusOK, gin.H{"userId": identity.UserID})
		})

		api.GET("/categories", deps.Todos.ListCategories)
		api.POST("/categories", deps.Todos.CreateCategory)
		api.PUT("/categories/:id", deps.Todos.RenameCategory)
		api.DELETE("/categories/:id", deps.Todos.DeleteCategory)

		api.GET("/todos", deps.Todos.ListTodos)
		api.POST("/todos", deps.Todos.CreateTodo)
		api.PUT("/todos/:id", deps.Todos.UpdateTodo)
		api.PATCH("/todos/:id/complete", deps.Todos.ToggleComplete)
		api.DELETE("/todos/:id", deps.Todos.DeleteTodo)
	}

	return r
}
