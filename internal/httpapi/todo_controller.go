package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jhyun-dev/todoboard/internal/todo"
)

// TodoController serves the CRUD routes. It only ever acts on behalf of the
// identity the guard attached to the request.
type TodoController struct {
	store *todo.Store
}

func NewTodoController(store *todo.Store) *TodoController {
	return &TodoController{store: store}
}

const dueDateLayout = "2006-01-02"

type todoForm struct {
	CategoryID *string `json:"category_id"`
	Title      string  `json:"title"`
	Content    *string `json:"content"`
	DueDate    string  `json:"due_date"`
}

func (f todoForm) toInput() (todo.TodoInput, error) {
	due, err := time.Parse(dueDateLayout, f.DueDate)
	if err != nil {
		return todo.TodoInput{}, err
	}
	return todo.TodoInput{
		CategoryID: f.CategoryID,
		Title:      f.Title,
		Content:    f.Content,
		DueDate:    due,
	}, nil
}

// ListTodos handles GET /api/todos?filter=today|week|incomplete.
func (tc *TodoController) ListTodos(c *gin.Context) {
	identity, _ := IdentityFromContext(c)

	filter := todo.Filter(c.Query("filter"))
	if !filter.Valid() {
		respondError(c, http.StatusBadRequest, "unknown filter")
		return
	}

	todos, err := tc.store.ListTodos(c.Request.Context(), identity.UserID, filter)
	if err != nil {
		respondInternal(c)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"todos": todos})
}

// CreateTodo handles POST /api/todos.
func (tc *TodoController) CreateTodo(c *gin.Context) {
	identity, _ := IdentityFromContext(c)

	var form todoForm
	if err := c.ShouldBindJSON(&form); err != nil || form.Title == "" || form.DueDate == "" {
		respondError(c, http.StatusBadRequest, "title and due_date are required")
		return
	}
	input, err := form.toInput()
	if err != nil {
		respondError(c, http.StatusBadRequest, "due_date must be YYYY-MM-DD")
		return
	}

	t, err := tc.store.CreateTodo(c.Request.Context(), identity.UserID, input)
	if err != nil {
		respondInternal(c)
		return
	}
	respondOK(c, http.StatusCreated, gin.H{"todo": t})
}

// UpdateTodo handles PUT /api/todos/:id.
func (tc *TodoController) UpdateTodo(c *gin.Context) {
	identity, _ := IdentityFromContext(c)

	var form todoForm
	if err := c.ShouldBindJSON(&form); err != nil || form.Title == "" || form.DueDate == "" {
		respondError(c, http.StatusBadRequest, "title and due_date are required")
		return
	}
	input, err := form.toInput()
	if err != nil {
		respondError(c, http.StatusBadRequest, "due_date must be YYYY-MM-DD")
		return
	}

	t, err := tc.store.UpdateTodo(c.Request.Context(), identity.UserID, c.Param("id"), input)
	if err != nil {
		if errors.Is(err, todo.ErrNotFound) {
			respondError(c, http.StatusNotFound, "todo not found")
			return
		}
		respondInternal(c)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"todo": t})
}

// ToggleComplete handles PATCH /api/todos/:id/complete.
func (tc *TodoController) ToggleComplete(c *gin.Context) {
	identity, _ := IdentityFromContext(c)

	t, err := tc.store.ToggleComplete(c.Request.Context(), identity.UserID, c.Param("id"))
	if err != nil {
		if errors.Is(err, todo.ErrNotFound) {
			respondError(c, http.StatusNotFound, "todo not found")
			return
		}
		respondInternal(c)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"todo": t})
}

// DeleteTodo handles DELETE /api/todos/:id.
func (tc *TodoController) DeleteTodo(c *gin.Context) {
	identity, _ := IdentityFromContext(c)

	err := tc.store.DeleteTodo(c.Request.Context(), identity.UserID, c.Param("id"))
	if err != nil {
		if errors.Is(err, todo.ErrNotFound) {
			respondError(c, http.StatusNotFound, "todo not found")
			return
		}
		respondInternal(c)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"message": "deleted"})
}

// ListCategories handles GET /api/categories.
func (tc *TodoController) ListCategories(c *gin.Context) {
	identity, _ := IdentityFromContext(c)

	categories, err := tc.store.ListCategories(c.Request.Context(), identity.UserID)
	if err != nil {
		respondInternal(c)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"categories": categories})
}

type categoryForm struct {
	Name string `json:"name" binding:"required"`
}

// CreateCategory handles POST /api/categories.
func (tc *TodoController) CreateCategory(c *gin.Context) {
	identity, _ := IdentityFromContext(c)

	var form categoryForm
	if err := c.ShouldBindJSON(&form); err != nil {
		respondError(c, http.StatusBadRequest, "name is required")
		return
	}

	category, err := tc.store.CreateCategory(c.Request.Context(), identity.UserID, form.Name)
	if err != nil {
		if errors.Is(err, todo.ErrNameTaken) {
			respondError(c, http.StatusConflict, "category name already exists")
			return
		}
		respondInternal(c)
		return
	}
	respondOK(c, http.StatusCreated, gin.H{"category": category})
}

// RenameCategory handles PUT /api/categories/:id.
func (tc *TodoController) RenameCategory(c *gin.Context) {
	identity, _ := IdentityFromContext(c)

	var form categoryForm
	if err := c.ShouldBindJSON(&form); err != nil {
		respondError(c, http.StatusBadRequest, "name is required")
		return
	}

	category, err := tc.store.RenameCategory(c.Request.Context(), identity.UserID, c.Param("id"), form.Name)
	if err != nil {
		switch {
		case errors.Is(err, todo.ErrNotFound):
			respondError(c, http.StatusNotFound, "category not found")
		case errors.Is(err, todo.ErrNameTaken):
			respondError(c, http.StatusConflict, "category name already exists")
		default:
			respondInternal(c)
		}
		return
	}
	respondOK(c, http.StatusOK, gin.H{"category": category})
}

// DeleteCategory handles DELETE /api/categories/:id.
func (tc *TodoController) DeleteCategory(c *gin.Context) {
	identity, _ := IdentityFromContext(c)

	err := tc.store.DeleteCategory(c.Request.Context(), identity.UserID, c.Param("id"))
	if err != nil {
		if errors.Is(err, todo.ErrNotFound) {
			respondError(c, http.StatusNotFound, "category not found")
			return
		}
		respondInternal(c)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"message": "deleted"})
}
