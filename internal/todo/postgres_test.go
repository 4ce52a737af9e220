package todo

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewStore(db), mock
}

func todoRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "category_id", "title", "content", "due_date",
		"is_completed", "completed_at", "created_at", "updated_at",
	})
}

func TestCreateCategoryNameTaken(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("INSERT INTO categories").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "categories_user_id_name_key"})

	_, err := store.CreateCategory(context.Background(), "u1", "work")
	require.ErrorIs(t, err, ErrNameTaken)
}

func TestRenameCategoryScopedToOwner(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("UPDATE categories SET name").
		WithArgs("home", "c1", "intruder").
		WillReturnError(sql.ErrNoRows)

	_, err := store.RenameCategory(context.Background(), "intruder", "c1", "home")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteCategoryNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("DELETE FROM categories").
		WithArgs("c1", "u1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.DeleteCategory(context.Background(), "u1", "c1")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestListTodosFilterClauses(t *testing.T) {
	cases := []struct {
		filter Filter
		clause string
	}{
		{FilterToday, "due_date = CURRENT_DATE"},
		{FilterWeek, "INTERVAL '7 days'"},
		{FilterIncomplete, "is_completed = false"},
	}

	for _, tc := range cases {
		t.Run(string(tc.filter), func(t *testing.T) {
			store, mock := newMockStore(t)

			mock.ExpectQuery(tc.clause).
				WithArgs("u1").
				WillReturnRows(todoRows())

			todos, err := store.ListTodos(context.Background(), "u1", tc.filter)
			require.NoError(t, err)
			require.Empty(t, todos)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestListTodosScansNullableColumns(t *testing.T) {
	store, mock := newMockStore(t)

	now := time.Now()
	due := now.AddDate(0, 0, 1)
	mock.ExpectQuery("SELECT (.+) FROM todos").
		WithArgs("u1").
		WillReturnRows(todoRows().
			AddRow("t1", nil, "buy milk", nil, due, false, nil, now, now).
			AddRow("t2", "c1", "write report", "draft first", due, true, now, now, now))

	todos, err := store.ListTodos(context.Background(), "u1", FilterNone)
	require.NoError(t, err)
	require.Len(t, todos, 2)

	require.Nil(t, todos[0].CategoryID)
	require.Nil(t, todos[0].Content)
	require.Nil(t, todos[0].CompletedAt)

	require.NotNil(t, todos[1].CategoryID)
	require.Equal(t, "c1", *todos[1].CategoryID)
	require.True(t, todos[1].IsCompleted)
	require.NotNil(t, todos[1].CompletedAt)
}

func TestUpdateTodoNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("UPDATE todos").
		WillReturnError(sql.ErrNoRows)

	_, err := store.UpdateTodo(context.Background(), "u1", "t1", TodoInput{Title: "x", DueDate: time.Now()})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestToggleCompleteFlipsInOneStatement(t *testing.T) {
	store, mock := newMockStore(t)

	now := time.Now()
	mock.ExpectQuery("SET is_completed = NOT is_completed").
		WithArgs("t1", "u1").
		WillReturnRows(todoRows().
			AddRow("t1", nil, "buy milk", nil, now, true, now, now, now))

	got, err := store.ToggleComplete(context.Background(), "u1", "t1")
	require.NoError(t, err)
	require.True(t, got.IsCompleted)
	require.NotNil(t, got.CompletedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteTodoNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("DELETE FROM todos").
		WithArgs("t1", "u1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.DeleteTodo(context.Background(), "u1", "t1")
	require.ErrorIs(t, err, ErrNotFound)
}
