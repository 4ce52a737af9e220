package client

import (
	"context"
	"net/http"
)

// User mirrors the public user fields the server returns.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Todo mirrors the server-side todo resource.
type Todo struct {
	ID          string  `json:"id"`
	CategoryID  *string `json:"category_id"`
	Title       string  `json:"title"`
	Content     *string `json:"content"`
	DueDate     string  `json:"due_date"`
	IsCompleted bool    `json:"is_completed"`
}

// Category mirrors the server-side category resource.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TodoInput carries the writable todo fields. DueDate is YYYY-MM-DD.
type TodoInput struct {
	CategoryID *string `json:"category_id,omitempty"`
	Title      string  `json:"title"`
	Content    *string `json:"content,omitempty"`
	DueDate    string  `json:"due_date"`
}

// Signup registers a new account. It does not log in.
func (c *Client) Signup(ctx context.Context, email, password string) (*User, error) {
	var out struct {
		User User `json:"user"`
	}
	if err := c.do(ctx, http.MethodPost, "/auth/signup", credentials{email, password}, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// Login authenticates and stores the returned access token; the refresh
// cookie lands in the cookie jar.
func (c *Client) Login(ctx context.Context, email, password string) (*User, error) {
	var out struct {
		User        User   `json:"user"`
		AccessToken string `json:"accessToken"`
	}
	if err := c.do(ctx, http.MethodPost, "/auth/login", credentials{email, password}, &out); err != nil {
		return nil, err
	}
	c.setToken(out.AccessToken)
	return &out.User, nil
}

// Logout ends the current session server-side and drops the local token.
func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/auth/logout", nil, nil)
	c.clearToken()
	return err
}

// LogoutAll invalidates every session for the account, this one included.
func (c *Client) LogoutAll(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/auth/logout-all", nil, nil)
	c.clearToken()
	return err
}

// Me returns the user id the server resolves from the access token.
func (c *Client) Me(ctx context.Context) (string, error) {
	var out struct {
		UserID string `json:"userId"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/me", nil, &out); err != nil {
		return "", err
	}
	return out.UserID, nil
}

// ListTodos fetches todos, optionally filtered by today, week or incomplete.
func (c *Client) ListTodos(ctx context.Context, filter string) ([]Todo, error) {
	path := "/api/todos"
	if filter != "" {
		path += "?filter=" + filter
	}
	var out struct {
		Todos []Todo `json:"todos"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Todos, nil
}

// CreateTodo adds a todo for the logged-in user.
func (c *Client) CreateTodo(ctx context.Context, in TodoInput) (*Todo, error) {
	var out struct {
		Todo Todo `json:"todo"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/todos", in, &out); err != nil {
		return nil, err
	}
	return &out.Todo, nil
}

// ListCategories fetches the user's categories.
func (c *Client) ListCategories(ctx context.Context) ([]Category, error) {
	var out struct {
		Categories []Category `json:"categories"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/categories", nil, &out); err != nil {
		return nil, err
	}
	return out.Categories, nil
}

// CreateCategory adds a category for the logged-in user.
func (c *Client) CreateCategory(ctx context.Context, name string) (*Category, error) {
	var out struct {
		Category Category `json:"category"`
	}
	body := map[string]string{"name": name}
	if err := c.do(ctx, http.MethodPost, "/api/categories", body, &out); err != nil {
		return nil, err
	}
	return &out.Category, nil
}
