package migrations

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"testing/fstest"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func migrationFS() fstest.MapFS {
	return fstest.MapFS{
		"0002_customers.sql":    {Data: []byte("CREATE TABLE customers (id INT);")},
		"0001_businesses.sql":   {Data: []byte("CREATE TABLE businesses (id INT);")},
		"0003_appointments.sql": {Data: []byte("CREATE TABLE appointments (id INT);")},
		"README.md":             {Data: []byte("not a migration")},
		"archive/0000_old.sql":  {Data: []byte("DROP TABLE everything;")},
	}
}

func expectBookkeeping(mock pgxmock.PgxPoolIface, applied ...string) {
	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE IF NOT EXISTS migrations`)).
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
	rows := pgxmock.NewRows([]string{"name", "executed_at"})
	for _, name := range applied {
		rows.AddRow(name, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	}
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT name, executed_at FROM migrations ORDER BY id ASC`)).WillReturnRows(rows)
}

func expectApply(mock pgxmock.PgxPoolIface, name, content string) {
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`SELECT pg_advisory_xact_lock($1)`)).
		WithArgs(lockKey).
		WillReturnResult(pgxmock.NewResult("SELECT", 1))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS (SELECT 1 FROM migrations WHERE name = $1)`)).
		WithArgs(name).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec(regexp.QuoteMeta(content)).WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO migrations (name) VALUES ($1)`)).
		WithArgs(name).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()
}

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func TestRun_AppliesPendingInLexicographicOrder(t *testing.T) {
	mock := newMock(t)
	expectBookkeeping(mock, "0001_businesses.sql")
	expectApply(mock, "0002_customers.sql", "CREATE TABLE customers (id INT);")
	expectApply(mock, "0003_appointments.sql", "CREATE TABLE appointments (id INT);")

	result, err := NewRunner(mock, migrationFS(), zap.NewNop()).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"0002_customers.sql", "0003_appointments.sql"}, result.Applied)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRun_FailureAtKKeepsEarlierFilesAndSkipsLater(t *testing.T) {
	for k := 1; k <= 3; k++ {
		t.Run("", func(t *testing.T) {
			mock := newMock(t)
			files := []struct{ name, content string }{
				{"0001_businesses.sql", "CREATE TABLE businesses (id INT);"},
				{"0002_customers.sql", "CREATE TABLE customers (id INT);"},
				{"0003_appointments.sql", "CREATE TABLE appointments (id INT);"},
			}

			expectBookkeeping(mock)
			for i := 0; i < k-1; i++ {
				expectApply(mock, files[i].name, files[i].content)
			}
			failing := files[k-1]
			mock.ExpectBegin()
			mock.ExpectExec(regexp.QuoteMeta(`SELECT pg_advisory_xact_lock($1)`)).
				WithArgs(lockKey).
				WillReturnResult(pgxmock.NewResult("SELECT", 1))
			mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS (SELECT 1 FROM migrations WHERE name = $1)`)).
				WithArgs(failing.name).
				WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
			mock.ExpectExec(regexp.QuoteMeta(failing.content)).WillReturnError(errors.New("syntax error"))
			mock.ExpectRollback()

			result, err := NewRunner(mock, migrationFS(), zap.NewNop()).Run(context.Background())
			require.Error(t, err)
			assert.Contains(t, err.Error(), failing.name)

			want := []string{}
			for i := 0; i < k-1; i++ {
				want = append(want, files[i].name)
			}
			assert.Equal(t, want, result.Applied)
			// no Begin for files after k
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRun_NothingPendingPerformsNoWrites(t *testing.T) {
	mock := newMock(t)
	expectBookkeeping(mock, "0001_businesses.sql", "0002_customers.sql", "0003_appointments.sql")

	result, err := NewRunner(mock, migrationFS(), zap.NewNop()).Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, result.Applied)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRun_SkipsFileRecordedByConcurrentRunner(t *testing.T) {
	mock := newMock(t)
	fsys := fstest.MapFS{"0001_businesses.sql": {Data: []byte("CREATE TABLE businesses (id INT);")}}

	expectBookkeeping(mock)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`SELECT pg_advisory_xact_lock($1)`)).
		WithArgs(lockKey).
		WillReturnResult(pgxmock.NewResult("SELECT", 1))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS (SELECT 1 FROM migrations WHERE name = $1)`)).
		WithArgs("0001_businesses.sql").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	result, err := NewRunner(mock, fsys, zap.NewNop()).Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, result.Applied)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStatus(t *testing.T) {
	mock := newMock(t)
	expectBookkeeping(mock, "0001_businesses.sql")

	statuses, err := NewRunner(mock, migrationFS(), zap.NewNop()).Status(context.Background())
	require.NoError(t, err)
	require.Len(t, statuses, 3)
	assert.True(t, statuses[0].Applied)
	assert.NotNil(t, statuses[0].ExecutedAt)
	assert.Equal(t, "0002_customers.sql", statuses[1].Name)
	assert.False(t, statuses[1].Applied)
	assert.Nil(t, statuses[2].ExecutedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}
