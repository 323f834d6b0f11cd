package handlequery

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"analytics-workers/internal/catalog"
	apperrors "analytics-workers/internal/common/errors"
	"analytics-workers/internal/common/logger"
	"analytics-workers/internal/executor"
	"analytics-workers/internal/feedback"
	"analytics-workers/internal/formatter"
	"analytics-workers/internal/masking"
	"analytics-workers/internal/pipeline"
	"analytics-workers/internal/querycache"
	"analytics-workers/internal/resolver"
	"analytics-workers/internal/timeparse"
)

// ==========================
// Test Helpers
// ==========================

func createTestHandler(t *testing.T) (*Handler, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	log := logger.NewTestLogger(t)
	cat := catalog.Default()

	svc := pipeline.NewService(
		resolver.New(cat, nil, log),
		querycache.New(querycache.NewMemoryStore(), time.Minute),
		executor.New(db, time.Second, log),
		formatter.New(cat, masking.NewMasker(1), 10),
		feedback.NoopSink{},
		log,
	)
	cfg := &Config{Timeout: 60 * time.Second, ExportDir: t.TempDir()}
	return NewHandler(cfg, svc, nil, log), mock
}

// ==========================
// Execute Tests
// ==========================

func TestExecute_AnswersMetricQuery(t *testing.T) {
	handler, mock := createTestHandler(t)
	label := timeparse.Label(time.Now())

	mock.ExpectQuery(`SELECT COUNT\(CASE WHEN booking_status = 'IssuedBusiness' THEN 1 END\) AS bookings`).
		WithArgs(13, label).
		WillReturnRows(sqlmock.NewRows([]string{"bookings"}).AddRow(int64(42)))

	output, err := handler.Execute(context.Background(), &Input{
		Text:   "marine insurance bookings this month",
		UserID: "U1",
	})
	require.NoError(t, err)

	assert.Equal(t, "Bookings for Marine Insurance in "+label+": 42", output.Summary)
	assert.False(t, output.Ambiguous)
	assert.NotEmpty(t, output.QueryID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecute_LargeResultWritesExportToDisk(t *testing.T) {
	handler, mock := createTestHandler(t)
	label := timeparse.Label(time.Now())

	rows := sqlmock.NewRows([]string{"leadassignedagentname", "leads"})
	for i := 0; i < 15; i++ {
		rows.AddRow(fmt.Sprintf("Agent %02d", i), int64(100-i))
	}
	mock.ExpectQuery(`SELECT leadassignedagentname, COUNT\(\*\) AS leads`).
		WithArgs(label).
		WillReturnRows(rows)

	output, err := handler.Execute(context.Background(), &Input{
		Text:   "leads by agent this month",
		UserID: "U1",
	})
	require.NoError(t, err)

	assert.Equal(t, 15, output.RowCount)
	assert.Contains(t, output.Summary, "see attached export")
	assert.Equal(t, "leads_by_agent.xlsx", output.ExportFilename)

	require.NotEmpty(t, output.ExportPath)
	assert.Equal(t, output.QueryID+"_leads_by_agent.xlsx", filepath.Base(output.ExportPath))
	data, err := os.ReadFile(output.ExportPath)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecute_AmbiguousProductReturnsOptions(t *testing.T) {
	handler, mock := createTestHandler(t)

	output, err := handler.Execute(context.Background(), &Input{
		Text:   "indemnity leads this month",
		UserID: "U1",
	})
	require.NoError(t, err)

	assert.True(t, output.Ambiguous)
	assert.NotEmpty(t, output.ClarificationOptions)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecute_UnresolvableTextSurfacesStandardError(t *testing.T) {
	handler, _ := createTestHandler(t)

	_, err := handler.Execute(context.Background(), &Input{Text: "good morning", UserID: "U1"})
	require.Error(t, err)

	var stdErr *apperrors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, apperrors.ErrCodeUnresolvableIntent, stdErr.Code)
}

// ==========================
// BPMN Mapping Tests
// ==========================

func TestBPMNMapping_QueryTimeout(t *testing.T) {
	bpmnErr := apperrors.ToBPMNError(apperrors.NewQueryTimeoutError())

	assert.Equal(t, "QUERY_TIMEOUT", bpmnErr.Code)
	assert.True(t, bpmnErr.Retryable)
	assert.Equal(t, 2, bpmnErr.Retries)
}

func TestBPMNMapping_AmbiguousProductCarriesOptions(t *testing.T) {
	bpmnErr := apperrors.ToBPMNError(apperrors.NewAmbiguousProductError([]string{"Fire Insurance", "Marine Insurance"}))

	assert.Equal(t, "AMBIGUOUS_PRODUCT", bpmnErr.Code)
	vars := bpmnErr.ToErrorVariables()
	assert.Contains(t, vars, "metadata")
}
