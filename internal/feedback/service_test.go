package feedback_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/tcmreview/internal/apperr"
	"github.com/your-org/tcmreview/internal/events"
	"github.com/your-org/tcmreview/internal/feedback"
	"github.com/your-org/tcmreview/internal/models"
	"github.com/your-org/tcmreview/internal/recordlog"
	"github.com/your-org/tcmreview/internal/storage"
)

type stubClassifier struct {
	result string
	err    error
	calls  int
}

func (c *stubClassifier) Classify(_ context.Context, _ []byte) (string, error) {
	c.calls++
	return c.result, c.err
}

type fixture struct {
	svc      *feedback.Service
	log      *recordlog.Log[models.FeedbackRecord]
	imageDir string
	cls      *stubClassifier
	events   *events.Recorder
	now      time.Time
}

func newFixture(t *testing.T, suffixes ...string) *fixture {
	t.Helper()
	dir := t.TempDir()
	backend, err := recordlog.OpenCSV[models.FeedbackRecord](filepath.Join(dir, "finetune.csv"), models.FeedbackSchema{}, recordlog.WithBOM())
	require.NoError(t, err)
	imageDir := filepath.Join(dir, "images")
	blobs, err := storage.NewFSStore(imageDir)
	require.NoError(t, err)

	f := &fixture{
		log:      recordlog.New[models.FeedbackRecord]("feedback", backend),
		imageDir: imageDir,
		cls:      &stubClassifier{result: "桑葉飲片(C0035-1)"},
		events:   &events.Recorder{},
		now:      time.Date(2025, 3, 18, 12, 45, 0, 0, time.UTC),
	}
	next := 0
	f.svc = feedback.NewService(f.log, blobs, f.cls,
		feedback.WithClock(func() time.Time { return f.now }),
		feedback.WithSuffix(func() string {
			if next < len(suffixes) {
				next++
				return suffixes[next-1]
			}
			return "zzzz"
		}),
		feedback.WithLabels([]string{"a", "b"}),
		feedback.WithNotifier(f.events),
	)
	return f
}

func TestPredict_RecordsPrediction(t *testing.T) {
	f := newFixture(t, "ab12")
	ctx := context.Background()

	p, err := f.svc.Predict(ctx, "leaf.png", []byte("img"))
	require.NoError(t, err)
	assert.Equal(t, "桑葉飲片(C0035-1)", p.Result)
	assert.Equal(t, "leaf_ab12.jpg", p.Filename)

	data, err := os.ReadFile(filepath.Join(f.imageDir, "leaf_ab12.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "img", string(data))

	rows, err := f.log.Scan(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, models.FeedbackRecord{
		ID:       1,
		Filename: "leaf_ab12.jpg",
		Predict:  "桑葉飲片(C0035-1)",
		Time:     "2025-03-18 12:45:00",
	}, rows[0])

	evs := f.events.Events()
	require.Len(t, evs, 1)
	assert.Equal(t, events.FeedbackPredicted, evs[0].Type)
}

func TestPredict_ClassifierFailureWritesNoRecord(t *testing.T) {
	f := newFixture(t, "ab12")
	f.cls.err = apperr.E(apperr.KindUpstream, "classifier.Classify", errors.New("status 500"))
	ctx := context.Background()

	_, err := f.svc.Predict(ctx, "leaf.jpg", []byte("img"))
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindUpstream))

	rows, err := f.log.Scan(ctx)
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.FileExists(t, filepath.Join(f.imageDir, "leaf_ab12.jpg"))
	assert.Empty(t, f.events.Events())
}

func TestPredict_IDsIncrease(t *testing.T) {
	f := newFixture(t, "0001", "0002", "0003")
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := f.svc.Predict(ctx, "x.jpg", []byte("x"))
		require.NoError(t, err)
	}
	rows, err := f.log.Scan(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	for i, r := range rows {
		assert.Equal(t, i+1, r.ID)
	}
}

func TestAnnotate_UpdatesFirstMatchOnly(t *testing.T) {
	f := newFixture(t, "dupe", "dupe")
	ctx := context.Background()
	_, err := f.svc.Predict(ctx, "x.jpg", []byte("1"))
	require.NoError(t, err)
	_, err = f.svc.Predict(ctx, "x.jpg", []byte("2"))
	require.NoError(t, err)

	f.now = f.now.Add(time.Hour)
	require.NoError(t, f.svc.Annotate(ctx, "x_dupe.jpg", "白芷飲片(C0015-1)", models.JudgmentFalse))

	rows, err := f.log.Scan(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "白芷飲片(C0015-1)", rows[0].GroundTruth)
	assert.Equal(t, models.JudgmentFalse, rows[0].Judgment)
	assert.Equal(t, "2025-03-18 13:45:00", rows[0].Time)
	assert.Empty(t, rows[1].GroundTruth)
	assert.Empty(t, rows[1].Judgment)
	assert.Equal(t, "2025-03-18 12:45:00", rows[1].Time)
}

func TestAnnotate_Overwrites(t *testing.T) {
	f := newFixture(t, "ab12")
	ctx := context.Background()
	p, err := f.svc.Predict(ctx, "x.jpg", []byte("1"))
	require.NoError(t, err)

	require.NoError(t, f.svc.Annotate(ctx, p.Filename, "a", models.JudgmentFalse))
	require.NoError(t, f.svc.Annotate(ctx, p.Filename, "b", models.JudgmentTrue))

	rows, err := f.log.Scan(ctx)
	require.NoError(t, err)
	assert.Equal(t, "b", rows[0].GroundTruth)
	assert.Equal(t, models.JudgmentTrue, rows[0].Judgment)
}

func TestAnnotate_UnknownFilenameIsNotFound(t *testing.T) {
	f := newFixture(t)
	err := f.svc.Annotate(context.Background(), "ghost.jpg", "a", models.JudgmentTrue)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestAnnotate_RejectsBadJudgment(t *testing.T) {
	f := newFixture(t, "ab12")
	ctx := context.Background()
	p, err := f.svc.Predict(ctx, "x.jpg", []byte("1"))
	require.NoError(t, err)

	err = f.svc.Annotate(ctx, p.Filename, "a", "maybe")
	assert.True(t, apperr.Is(err, apperr.KindInvalid))

	rows, err := f.log.Scan(ctx)
	require.NoError(t, err)
	assert.False(t, rows[0].Annotated())
}

func TestLabels_ReturnsCopy(t *testing.T) {
	f := newFixture(t)
	labels := f.svc.Labels()
	assert.Equal(t, []string{"a", "b"}, labels)
	labels[0] = "mutated"
	assert.Equal(t, []string{"a", "b"}, f.svc.Labels())
}
