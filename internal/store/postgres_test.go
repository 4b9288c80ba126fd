package store

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresStore(sqlx.NewDb(db, "postgres")), mock
}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS kv_store").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Get(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT value FROM kv_store WHERE key = $1`)).
		WithArgs(LastForecastKey).
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow([]byte(`{"region":"Idaho"}`)))

	got, err := s.Get(context.Background(), LastForecastKey)
	require.NoError(t, err)
	assert.JSONEq(t, `{"region":"Idaho"}`, string(got))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetMissing(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT value FROM kv_store WHERE key = $1`)).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"value"}))

	_, err := s.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresStore_Put(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec("INSERT INTO kv_store").
		WithArgs(LastForecastKey, `{"year":2025}`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.Put(context.Background(), LastForecastKey, []byte(`{"year":2025}`)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_PutError(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec("INSERT INTO kv_store").WillReturnError(errors.New("connection reset"))

	err := s.Put(context.Background(), LastForecastKey, []byte(`{}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestPostgresStore_BacksForecastRepository(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery("SELECT value FROM kv_store").
		WillReturnRows(sqlmock.NewRows([]string{"value"}).
			AddRow([]byte(`{"region":"Oregon","year":2024,"fireRisk":"Medium","populationDensity":"Medium"}`)))

	got, ok, err := NewForecastRepository(s).LoadLast(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, sampleInput, got)
}
