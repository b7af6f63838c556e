package badger

import (
	"context"
	"testing"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/stockbrief/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

func openTestDB(t *testing.T) *BadgerDB {
	t.Helper()

	tmpDir := t.TempDir()
	options := badgerhold.DefaultOptions
	options.Options = badgerdb.DefaultOptions(tmpDir).WithLogger(nil)

	store, err := badgerhold.Open(options)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return &BadgerDB{store: store}
}

func testRecord(id, ticker string, generatedAt time.Time) *models.AnalysisRecord {
	return &models.AnalysisRecord{
		ID:             id,
		Ticker:         ticker,
		RunID:          "run-" + id,
		Recommendation: models.RecommendationHold,
		OverallScore:   5.0,
		GeneratedAt:    generatedAt,
	}
}

func TestAnalysisStorageSaveAndGet(t *testing.T) {
	db := openTestDB(t)
	storage := NewAnalysisStorage(db, arbor.NewLogger())
	ctx := context.Background()

	now := time.Now().UTC()
	require.NoError(t, storage.SaveRecord(ctx, testRecord("rec-1", "ACME", now)))

	got, err := storage.GetRecord(ctx, "ACME")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "rec-1", got.ID)
	assert.Equal(t, "ACME", got.Ticker)

	missing, err := storage.GetRecord(ctx, "GLOBEX")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestAnalysisStorageSaveRequiresIDAndTicker(t *testing.T) {
	db := openTestDB(t)
	storage := NewAnalysisStorage(db, arbor.NewLogger())
	ctx := context.Background()

	assert.Error(t, storage.SaveRecord(ctx, testRecord("", "ACME", time.Now())))
	assert.Error(t, storage.SaveRecord(ctx, testRecord("rec-1", "", time.Now())))
}

func TestAnalysisStorageLatestWins(t *testing.T) {
	db := openTestDB(t)
	storage := NewAnalysisStorage(db, arbor.NewLogger())
	ctx := context.Background()

	now := time.Now().UTC()
	require.NoError(t, storage.SaveRecord(ctx, testRecord("rec-old", "ACME", now.Add(-24*time.Hour))))
	require.NoError(t, storage.SaveRecord(ctx, testRecord("rec-new", "ACME", now)))

	got, err := storage.GetRecord(ctx, "ACME")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "rec-new", got.ID)

	// The old generation is gone, not shadowed.
	all, err := storage.ListRecords(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestAnalysisStorageDelete(t *testing.T) {
	db := openTestDB(t)
	storage := NewAnalysisStorage(db, arbor.NewLogger())
	ctx := context.Background()

	require.NoError(t, storage.SaveRecord(ctx, testRecord("rec-1", "ACME", time.Now().UTC())))
	require.NoError(t, storage.DeleteRecord(ctx, "ACME"))

	got, err := storage.GetRecord(ctx, "ACME")
	require.NoError(t, err)
	assert.Nil(t, got)

	// Deleting a missing record is not an error.
	assert.NoError(t, storage.DeleteRecord(ctx, "ACME"))
}

func TestAnalysisStorageListNewestFirst(t *testing.T) {
	db := openTestDB(t)
	storage := NewAnalysisStorage(db, arbor.NewLogger())
	ctx := context.Background()

	now := time.Now().UTC()
	require.NoError(t, storage.SaveRecord(ctx, testRecord("rec-a", "ACME", now.Add(-2*time.Hour))))
	require.NoError(t, storage.SaveRecord(ctx, testRecord("rec-b", "GLOBEX", now.Add(-time.Hour))))
	require.NoError(t, storage.SaveRecord(ctx, testRecord("rec-c", "INITECH", now)))

	all, err := storage.ListRecords(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "INITECH", all[0].Ticker)
	assert.Equal(t, "GLOBEX", all[1].Ticker)
	assert.Equal(t, "ACME", all[2].Ticker)
}
