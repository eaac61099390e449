package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockBreaker(t *testing.T) (*DBCircuitBreaker, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewDBCircuitBreaker(db), mock
}

// twitchyConfig trips after 3 consecutive failures and recovers quickly,
// keeping the state-transition tests fast.
func twitchyConfig() Config {
	return Config{
		Name:             "corpus-db-test",
		MaxRequests:      2,
		Interval:         time.Minute,
		Timeout:          50 * time.Millisecond,
		FailureThreshold: 1.0,
		MinRequests:      3,
	}
}

func TestDBCircuitBreakerStartsClosed(t *testing.T) {
	dcb, _ := newMockBreaker(t)

	assert.Equal(t, gobreaker.StateClosed, dcb.State())
	assert.False(t, dcb.IsOpen())
}

func TestDBCircuitBreakerQueryContext(t *testing.T) {
	dcb, mock := newMockBreaker(t)

	mock.ExpectQuery("SELECT (.+) FROM rulings").
		WillReturnRows(sqlmock.NewRows([]string{"id", "source_card_code"}).
			AddRow("r1", "01001"))

	rows, err := dcb.QueryContext(context.Background(), "SELECT id, source_card_code FROM rulings ORDER BY id")
	require.NoError(t, err)
	defer func() { _ = rows.Close() }()

	require.True(t, rows.Next())
	var id, card string
	require.NoError(t, rows.Scan(&id, &card))
	assert.Equal(t, "r1", id)
	assert.Equal(t, "01001", card)

	assert.Equal(t, gobreaker.StateClosed, dcb.State())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDBCircuitBreakerSingleFailureStaysClosed(t *testing.T) {
	dcb, mock := newMockBreaker(t)

	mock.ExpectQuery("SELECT (.+) FROM rulings").
		WillReturnError(errors.New("connection refused"))

	_, err := dcb.QueryContext(context.Background(), "SELECT id FROM rulings")
	require.Error(t, err)

	assert.False(t, dcb.IsOpen(), "one failure must not trip the circuit")
}

func TestDBCircuitBreakerExecContext(t *testing.T) {
	dcb, mock := newMockBreaker(t)

	mock.ExpectExec("DELETE FROM rulings").
		WillReturnResult(sqlmock.NewResult(0, 42))

	result, err := dcb.ExecContext(context.Background(), "DELETE FROM rulings")
	require.NoError(t, err)

	affected, err := result.RowsAffected()
	require.NoError(t, err)
	assert.Equal(t, int64(42), affected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDBCircuitBreakerBeginTx(t *testing.T) {
	dcb, mock := newMockBreaker(t)

	mock.ExpectBegin()
	mock.ExpectRollback()

	tx, err := dcb.BeginTx(context.Background(), nil)
	require.NoError(t, err)
	require.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDBCircuitBreakerTripsAfterConsecutiveFailures(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	dcb := NewDBCircuitBreakerWithConfig(db, twitchyConfig())

	dbErr := errors.New("connection refused")
	for i := 0; i < 3; i++ {
		mock.ExpectQuery("SELECT (.+)").WillReturnError(dbErr)
	}
	for i := 0; i < 3; i++ {
		_, err := dcb.QueryContext(context.Background(), "SELECT id FROM rulings")
		require.Error(t, err)
	}

	require.True(t, dcb.IsOpen())

	// rejected at the breaker, never reaching the database
	_, err = dcb.QueryContext(context.Background(), "SELECT id FROM rulings")
	require.Error(t, err)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDBCircuitBreakerRecoversAfterTimeout(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	dcb := NewDBCircuitBreakerWithConfig(db, twitchyConfig())

	dbErr := errors.New("connection refused")
	for i := 0; i < 3; i++ {
		mock.ExpectQuery("SELECT (.+)").WillReturnError(dbErr)
	}
	for i := 0; i < 3; i++ {
		_, _ = dcb.QueryContext(context.Background(), "SELECT id FROM rulings")
	}
	require.True(t, dcb.IsOpen())

	time.Sleep(100 * time.Millisecond)

	mock.ExpectQuery("SELECT (.+)").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("r1"))

	rows, err := dcb.QueryContext(context.Background(), "SELECT id FROM rulings")
	require.NoError(t, err, "half-open breaker should let a trial request through")
	_ = rows.Close()
}

func TestDBCircuitBreakerExposesConnection(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	dcb := NewDBCircuitBreaker(db)
	assert.Same(t, db, dcb.DB())
}

func TestDBConfig(t *testing.T) {
	cfg := DBConfig()

	assert.Equal(t, "corpus-db", cfg.Name)
	assert.Equal(t, uint32(3), cfg.MaxRequests)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, uint32(5), cfg.MinRequests)
	assert.Equal(t, 1.0, cfg.FailureThreshold)
}
