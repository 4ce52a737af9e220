// Package todo is the CRUD side of the application: categories and todos
// scoped to the identity asserted by the auth subsystem. Ownership is
// enforced in SQL: every statement filters on user_id.
package todo

import (
	"errors"
	"time"
)

// Filter narrows a todo listing.
type Filter string

const (
	FilterNone       Filter = ""
	FilterToday      Filter = "today"
	FilterWeek       Filter = "week"
	FilterIncomplete Filter = "incomplete"
)

// Valid reports whether f is one of the supported filters.
func (f Filter) Valid() bool {
	switch f {
	case FilterNone, FilterToday, FilterWeek, FilterIncomplete:
		return true
	default:
		return false
	}
}

type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type Todo struct {
	ID          string     `json:"id"`
	CategoryID  *string    `json:"category_id"`
	Title       string     `json:"title"`
	Content     *string    `json:"content"`
	DueDate     time.Time  `json:"due_date"`
	IsCompleted bool       `json:"is_completed"`
	CompletedAt *time.Time `json:"completed_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TodoInput carries the writable todo fields for create and update.
type TodoInput struct {
	CategoryID *string
	Title      string
	Content    *string
	DueDate    time.Time
}

var (
	// ErrNotFound is returned when the row does not exist or belongs to
	// another user; the two are indistinguishable on purpose.
	ErrNotFound = errors.New("not found")
	// ErrNameTaken is returned when a category name collides for the user.
	ErrNameTaken = errors.New("category name already exists")
)
