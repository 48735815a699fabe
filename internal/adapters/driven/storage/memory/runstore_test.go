package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/dsbulk/internal/core/domain"
)

func TestRunStore_GetRun_NotFound(t *testing.T) {
	store := NewRunStore()

	_, err := store.GetRun(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRunStore_SaveRun_Update(t *testing.T) {
	store := NewRunStore()
	ctx := context.Background()

	require.NoError(t, store.SaveRun(ctx, domain.RunRecord{JobID: "job", Status: domain.RunStatusRunning}))
	require.NoError(t, store.SaveRun(ctx, domain.RunRecord{JobID: "job", Status: domain.RunStatusCompleted}))

	got, err := store.GetRun(ctx, "job")
	require.NoError(t, err)
	assert.Equal(t, domain.RunStatusCompleted, got.Status)
}

func TestRunStore_ListRuns_NewestFirst(t *testing.T) {
	store := NewRunStore()
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, store.SaveRun(ctx, domain.RunRecord{
			JobID:     id,
			StartedAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}

	all, err := store.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "c", all[0].JobID)
	assert.Equal(t, "a", all[2].JobID)

	limited, err := store.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, "b", limited[1].JobID)
}

func TestRunStore_Batches_PreserveOrder(t *testing.T) {
	store := NewRunStore()
	ctx := context.Background()

	items := []domain.WorkItem{"u1"}
	require.NoError(t, store.SaveBatch(ctx, domain.BatchRecord{JobID: "job", BatchIndex: 1, Items: items}))
	require.NoError(t, store.SaveBatch(ctx, domain.BatchRecord{JobID: "job", BatchIndex: 0}))
	items[0] = "mutated"

	batches, err := store.ListBatches(ctx, "job")
	require.NoError(t, err)
	require.Len(t, batches, 2)
	assert.Equal(t, 1, batches[0].BatchIndex)
	assert.Equal(t, domain.WorkItem("u1"), batches[0].Items[0])

	none, err := store.ListBatches(ctx, "other")
	require.NoError(t, err)
	assert.Empty(t, none)
}
