package sqlbackend

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/spartasim/simdb/internal/backendproxy"
	"github.com/spartasim/simdb/internal/schema"
)

func newMockBackend(t *testing.T) (*Backend, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &Backend{db: db, realized: make(map[string]schema.Table)}, mock
}

func TestCreateObjectBuildsOrderedInsert(t *testing.T) {
	b, mock := newMockBackend(t)
	mock.ExpectExec("INSERT INTO `Stats\\$T` \\(`Age`, `Name`\\) VALUES \\(\\?, \\?\\)").
		WithArgs(30, "alice").
		WillReturnResult(sqlmock.NewResult(7, 1))

	id, err := b.CreateObject(context.Background(), "Stats$T", backendproxy.RowValues{
		"Name": "alice",
		"Age":  30,
	})
	require.NoError(t, err)
	require.Equal(t, int64(7), id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPerformUpdateRequiresColumns(t *testing.T) {
	b, _ := newMockBackend(t)
	_, err := b.PerformUpdate(context.Background(), "T", backendproxy.RowValues{}, nil)
	require.Error(t, err)
}

func TestPerformDeleteWithConstraint(t *testing.T) {
	b, mock := newMockBackend(t)
	mock.ExpectExec("DELETE FROM `T` WHERE `Id` = \\?").
		WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	n, err := b.PerformDelete(context.Background(), "T", []backendproxy.Constraint{
		{Column: "Id", Op: backendproxy.OpEq, Value: int64(3)},
	})
	require.NoError(t, err)
	require.Equal(t, int64(1), n)
	require.NoError(t, mock.ExpectationsWereMet())
}
