package distinctcache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"analytics-workers/internal/common/logger"
)

// ==========================
// Test Helpers
// ==========================

func createTestCache(t *testing.T) (*Cache, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return New(db, time.Hour, logger.NewTestLogger(t)), mock
}

func insurerRows(names ...string) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"insurername"})
	for _, n := range names {
		rows.AddRow(n)
	}
	return rows
}

// ==========================
// Values Tests
// ==========================

func TestValues_FetchesOnceWithinTTL(t *testing.T) {
	cache, mock := createTestCache(t)

	mock.ExpectQuery(`SELECT DISTINCT insurername FROM sme_analytics\.sme_leadbookingrevenue WHERE insurername IS NOT NULL LIMIT 100`).
		WillReturnRows(insurerRows("ICICI Lombard", "HDFC Ergo"))

	got, err := cache.Values(context.Background(), "insurername")
	require.NoError(t, err)
	assert.Equal(t, []string{"ICICI Lombard", "HDFC Ergo"}, got)

	// Second call is served from the cache; no second query expected.
	got, err = cache.Values(context.Background(), "insurername")
	require.NoError(t, err)
	assert.Equal(t, []string{"ICICI Lombard", "HDFC Ergo"}, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestValues_RefetchesAfterTTL(t *testing.T) {
	cache, mock := createTestCache(t)
	now := time.Now()
	cache.nowFn = func() time.Time { return now }

	mock.ExpectQuery(`SELECT DISTINCT insurername`).
		WillReturnRows(insurerRows("ICICI Lombard"))
	mock.ExpectQuery(`SELECT DISTINCT insurername`).
		WillReturnRows(insurerRows("ICICI Lombard", "Tata AIG"))

	_, err := cache.Values(context.Background(), "insurername")
	require.NoError(t, err)

	now = now.Add(2 * time.Hour)

	got, err := cache.Values(context.Background(), "insurername")
	require.NoError(t, err)
	assert.Equal(t, []string{"ICICI Lombard", "Tata AIG"}, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestValues_ServesStaleWhenRefreshFails(t *testing.T) {
	cache, mock := createTestCache(t)
	now := time.Now()
	cache.nowFn = func() time.Time { return now }

	mock.ExpectQuery(`SELECT DISTINCT booking_status`).
		WillReturnRows(sqlmock.NewRows([]string{"booking_status"}).AddRow("IssuedBusiness").AddRow("Lost"))
	mock.ExpectQuery(`SELECT DISTINCT booking_status`).
		WillReturnError(errors.New("connection refused"))

	first, err := cache.Values(context.Background(), "booking_status")
	require.NoError(t, err)

	now = now.Add(2 * time.Hour)

	got, err := cache.Values(context.Background(), "booking_status")
	require.NoError(t, err)
	assert.Equal(t, first, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestValues_FirstFetchFailureSurfaces(t *testing.T) {
	cache, mock := createTestCache(t)

	mock.ExpectQuery(`SELECT DISTINCT city`).
		WillReturnError(errors.New("connection refused"))

	_, err := cache.Values(context.Background(), "city")
	assert.Error(t, err)
}

func TestValues_RejectsUnknownAndNonCategoricalColumns(t *testing.T) {
	cache, _ := createTestCache(t)

	_, err := cache.Values(context.Background(), "customer_email")
	assert.Error(t, err)

	_, err = cache.Values(context.Background(), "revenue")
	assert.Error(t, err)
}

func TestValues_NumericColumnsStringified(t *testing.T) {
	cache, mock := createTestCache(t)

	mock.ExpectQuery(`SELECT DISTINCT paymentstatus`).
		WillReturnRows(sqlmock.NewRows([]string{"paymentstatus"}).AddRow(int64(300)).AddRow(int64(100)))

	got, err := cache.Values(context.Background(), "paymentstatus")
	require.NoError(t, err)
	assert.Equal(t, []string{"300", "100"}, got)
}
