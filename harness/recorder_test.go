package harness

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderRoundTrip(t *testing.T) {
	r, err := OpenRecorder(filepath.Join(t.TempDir(), "results.db"))
	require.NoError(t, err)
	defer r.Close()

	ctx := context.Background()
	require.NoError(t, r.Record(ctx, CaseResult{
		Case:      "eventstream-restJson",
		Mode:      "client",
		Direction: "marshall",
		Protocol:  "stencil.protocols#restJson",
		Success:   true,
		Output:    "ok",
		Duration:  1200 * time.Millisecond,
	}))
	require.NoError(t, r.Record(ctx, CaseResult{
		Case:      "eventstream-restXml",
		Mode:      "server",
		Direction: "unmarshall",
		Protocol:  "stencil.protocols#restXml",
		Success:   false,
		Output:    "go vet: boom",
		Duration:  300 * time.Millisecond,
	}))

	failures, err := r.Failures(ctx)
	require.NoError(t, err)
	require.Len(t, failures, 1)
	assert.Equal(t, "eventstream-restXml", failures[0].Case)
	assert.Equal(t, "go vet: boom", failures[0].Output)
	assert.Equal(t, 300*time.Millisecond, failures[0].Duration)
	assert.False(t, failures[0].Success)
}

func TestRecorderReopenKeepsRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.db")
	ctx := context.Background()

	r, err := OpenRecorder(path)
	require.NoError(t, err)
	require.NoError(t, r.Record(ctx, CaseResult{Case: "a", Success: false}))
	require.NoError(t, r.Close())

	// Schema creation is idempotent across opens.
	r, err = OpenRecorder(path)
	require.NoError(t, err)
	defer r.Close()
	failures, err := r.Failures(ctx)
	require.NoError(t, err)
	assert.Len(t, failures, 1)
}

func TestRecorderRecordFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO case_results").WillReturnError(errors.New("disk full"))
	r := NewRecorder(db)
	err = r.Record(context.Background(), CaseResult{Case: "eventstream-restJson"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "eventstream-restJson")
	assert.NoError(t, mock.ExpectationsWereMet())
}
