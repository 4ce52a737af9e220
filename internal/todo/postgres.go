package todo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhyun-dev/todoboard/internal/dbx"
)

const pgUniqueViolation = "23505"

// Store runs the category and todo statements. Methods never return rows
// belonging to a different user than the one passed in.
type Store struct {
	db dbx.DBTX
}

func NewStore(db dbx.DBTX) *Store {
	return &Store{db: db}
}

func (s *Store) ListCategories(ctx context.Context, userID string) ([]Category, error) {
	query := `SELECT id, name, created_at FROM categories
	          WHERE user_id = $1 ORDER BY created_at ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	categories := []Category{}
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (s *Store) CreateCategory(ctx context.Context, userID, name string) (*Category, error) {
	c := &Category{ID: uuid.NewString(), Name: name}

	query := `INSERT INTO categories (id, user_id, name)
	          VALUES ($1, $2, $3)
	          RETURNING created_at`

	if err := s.db.QueryRowContext(ctx, query, c.ID, userID, name).Scan(&c.CreatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, ErrNameTaken
		}
		return nil, fmt.Errorf("create category: %w", err)
	}
	return c, nil
}

func (s *Store) RenameCategory(ctx context.Context, userID, id, name string) (*Category, error) {
	c := &Category{ID: id, Name: name}

	query := `UPDATE categories SET name = $1
	          WHERE id = $2 AND user_id = $3
	          RETURNING created_at`

	err := s.db.QueryRowContext(ctx, query, name, id, userID).Scan(&c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, ErrNameTaken
		}
		return nil, fmt.Errorf("rename category: %w", err)
	}
	return c, nil
}

func (s *Store) DeleteCategory(ctx context.Context, userID, id string) error {
	query := `DELETE FROM categories WHERE id = $1 AND user_id = $2`

	res, err := s.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return requireRow(res)
}

const todoColumns = `id, category_id, title, content, due_date,
	is_completed, completed_at, created_at, updated_at`

func (s *Store) ListTodos(ctx context.Context, userID string, filter Filter) ([]Todo, error) {
	query := `SELECT ` + todoColumns + ` FROM todos WHERE user_id = $1`
	switch filter {
	case FilterToday:
		query += ` AND due_date = CURRENT_DATE`
	case FilterWeek:
		query += ` AND due_date >= CURRENT_DATE AND due_date < CURRENT_DATE + INTERVAL '7 days'`
	case FilterIncomplete:
		query += ` AND is_completed = false`
	}
	query += ` ORDER BY due_date ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	defer rows.Close()

	todos := []Todo{}
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			return nil, err
		}
		todos = append(todos, *t)
	}
	return todos, rows.Err()
}

func (s *Store) CreateTodo(ctx context.Context, userID string, in TodoInput) (*Todo, error) {
	id := uuid.NewString()

	query := `INSERT INTO todos (id, user_id, category_id, title, content, due_date)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING ` + todoColumns

	row := s.db.QueryRowContext(ctx, query, id, userID, in.CategoryID, in.Title, in.Content, in.DueDate)
	return scanTodo(row)
}

func (s *Store) UpdateTodo(ctx context.Context, userID, id string, in TodoInput) (*Todo, error) {
	query := `UPDATE todos
	          SET category_id = $1, title = $2, content = $3, due_date = $4, updated_at = NOW()
	          WHERE id = $5 AND user_id = $6
	          RETURNING ` + todoColumns

	row := s.db.QueryRowContext(ctx, query, in.CategoryID, in.Title, in.Content, in.DueDate, id, userID)
	t, err := scanTodo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return t, err
}

// ToggleComplete flips is_completed and stamps or clears completed_at in the
// same statement.
func (s *Store) ToggleComplete(ctx context.Context, userID, id string) (*Todo, error) {
	query := `UPDATE todos
	          SET is_completed = NOT is_completed,
	              completed_at = CASE WHEN is_completed = false THEN NOW() ELSE NULL END,
	              updated_at = NOW()
	          WHERE id = $1 AND user_id = $2
	          RETURNING ` + todoColumns

	t, err := scanTodo(s.db.QueryRowContext(ctx, query, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return t, err
}

func (s *Store) DeleteTodo(ctx context.Context, userID, id string) error {
	query := `DELETE FROM todos WHERE id = $1 AND user_id = $2`

	res, err := s.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("delete todo: %w", err)
	}
	return requireRow(res)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTodo(row rowScanner) (*Todo, error) {
	t := &Todo{}
	err := row.Scan(
		&t.ID, &t.CategoryID, &t.Title, &t.Content, &t.DueDate,
		&t.IsCompleted, &t.CompletedAt, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("scan todo: %w", err)
	}
	return t, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
