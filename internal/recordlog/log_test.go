package recordlog_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/tcmreview/internal/apperr"
	"github.com/your-org/tcmreview/internal/models"
	"github.com/your-org/tcmreview/internal/recordlog"
)

func newReviewLog(t *testing.T) *recordlog.Log[models.ReviewRecord] {
	t.Helper()
	b, err := recordlog.OpenCSV[models.ReviewRecord](filepath.Join(t.TempDir(), "history.csv"), models.ReviewSchema{})
	require.NoError(t, err)
	return recordlog.New[models.ReviewRecord]("review", b)
}

func TestNextID(t *testing.T) {
	idOf := models.ReviewSchema{}.ID
	assert.Equal(t, 1, recordlog.NextID(nil, idOf))
	assert.Equal(t, 8, recordlog.NextID([]models.ReviewRecord{rec(3, "a"), rec(7, "b"), rec(2, "c")}, idOf))
}

func TestLog_ConcurrentAppendsGetContiguousIDs(t *testing.T) {
	l := newReviewLog(t)
	ctx := context.Background()
	idOf := models.ReviewSchema{}.ID

	const n = 40
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.AppendWith(ctx, func(rows []models.ReviewRecord) (models.ReviewRecord, error) {
				return rec(recordlog.NextID(rows, idOf), "x.jpg"), nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	rows, err := l.Scan(ctx)
	require.NoError(t, err)
	require.Len(t, rows, n)
	seen := map[int]bool{}
	for _, r := range rows {
		seen[r.ID] = true
	}
	for id := 1; id <= n; id++ {
		assert.True(t, seen[id], "missing id %d", id)
	}
}

func TestLog_MutateKeepsUntouchedRows(t *testing.T) {
	l := newReviewLog(t)
	ctx := context.Background()
	for i := 1; i <= 3; i++ {
		_, err := l.AppendWith(ctx, func(rows []models.ReviewRecord) (models.ReviewRecord, error) {
			return rec(len(rows)+1, "f.jpg"), nil
		})
		require.NoError(t, err)
	}

	err := l.Mutate(ctx, func(rows []models.ReviewRecord) (bool, error) {
		rows[1].Status = models.StatusPass
		return true, nil
	})
	require.NoError(t, err)

	rows, err := l.Scan(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, models.StatusPending, rows[0].Status)
	assert.Equal(t, models.StatusPass, rows[1].Status)
	assert.Equal(t, models.StatusPending, rows[2].Status)
}

func TestLog_MutateErrorWritesNothing(t *testing.T) {
	l := newReviewLog(t)
	ctx := context.Background()
	_, err := l.AppendWith(ctx, func([]models.ReviewRecord) (models.ReviewRecord, error) { return rec(1, "a.jpg"), nil })
	require.NoError(t, err)

	boom := errors.New("boom")
	err = l.Mutate(ctx, func(rows []models.ReviewRecord) (bool, error) {
		rows[0].Status = models.StatusFail
		return true, boom
	})
	assert.ErrorIs(t, err, boom)

	rows, err := l.Scan(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, rows[0].Status)
}

type brokenBackend struct{}

func (brokenBackend) Append(context.Context, models.ReviewRecord) error { return errors.New("disk gone") }
func (brokenBackend) ReadAll(context.Context) ([]models.ReviewRecord, error) {
	return nil, nil
}
func (brokenBackend) RewriteAll(context.Context, []models.ReviewRecord) error {
	return errors.New("disk gone")
}

func TestLog_BackendFailuresAreInternal(t *testing.T) {
	l := recordlog.New[models.ReviewRecord]("review", brokenBackend{})
	ctx := context.Background()

	_, err := l.AppendWith(ctx, func([]models.ReviewRecord) (models.ReviewRecord, error) { return rec(1, "a"), nil })
	assert.True(t, apperr.Is(err, apperr.KindInternal))

	err = l.Mutate(ctx, func([]models.ReviewRecord) (bool, error) { return true, nil })
	assert.True(t, apperr.Is(err, apperr.KindInternal))
	assert.Equal(t, "review", l.Name())
}
