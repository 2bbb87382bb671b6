// Package feedback collects classifier predictions and the ground truth a
// human judge attaches to them afterwards.
package feedback

import (
	"context"
	"log/slog"
	"time"

	"github.com/your-org/tcmreview/internal/apperr"
	"github.com/your-org/tcmreview/internal/events"
	"github.com/your-org/tcmreview/internal/models"
	"github.com/your-org/tcmreview/internal/observability"
	"github.com/your-org/tcmreview/internal/recordlog"
	"github.com/your-org/tcmreview/internal/storage"
)

// Classifier returns the predicted label for an image.
type Classifier interface {
	Classify(ctx context.Context, image []byte) (string, error)
}

type Service struct {
	log        *recordlog.Log[models.FeedbackRecord]
	blobs      storage.BlobStore
	classifier Classifier
	labels     []string
	notify     events.Notifier
	now        func() time.Time
	suffix     func() string
}

type Option func(*Service)

func WithNotifier(n events.Notifier) Option {
	return func(s *Service) { s.notify = n }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithSuffix(suffix func() string) Option {
	return func(s *Service) { s.suffix = suffix }
}

// WithLabels replaces the label catalog returned by Labels.
func WithLabels(labels []string) Option {
	return func(s *Service) { s.labels = append([]string(nil), labels...) }
}

func NewService(log *recordlog.Log[models.FeedbackRecord], blobs storage.BlobStore, classifier Classifier, opts ...Option) *Service {
	s := &Service{
		log:        log,
		blobs:      blobs,
		classifier: classifier,
		notify:     events.Nop{},
		now:        time.Now,
		suffix:     models.RandomSuffix,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type Prediction struct {
	Result   string
	Filename string
}

// Predict stores the image, asks the classifier for a label and records the
// prediction. A classifier failure leaves the stored image in place but
// writes no record.
func (s *Service) Predict(ctx context.Context, originalName string, data []byte) (Prediction, error) {
	const op = "feedback.Predict"

	filename := models.BlobName(models.TrimExt(originalName), s.suffix())
	if err := s.blobs.Save(ctx, filename, data); err != nil {
		return Prediction{}, apperr.E(apperr.KindInternal, op, err)
	}

	result, err := s.classifier.Classify(ctx, data)
	if err != nil {
		slog.Warn("classification failed", "filename", filename, "error", err)
		return Prediction{}, err
	}

	rec, err := s.log.AppendWith(ctx, func(rows []models.FeedbackRecord) (models.FeedbackRecord, error) {
		return models.FeedbackRecord{
			ID:       recordlog.NextID(rows, models.FeedbackSchema{}.ID),
			Filename: filename,
			Predict:  result,
			Time:     s.now().Format(models.TimeLayout),
		}, nil
	})
	if err != nil {
		return Prediction{}, err
	}

	slog.Info("prediction recorded", "id", rec.ID, "filename", rec.Filename, "predict", rec.Predict)
	ev := events.New(events.FeedbackPredicted, rec.Filename)
	ev.Label, ev.At = rec.Predict, rec.Time
	s.notify.Notify(ctx, ev)
	return Prediction{Result: result, Filename: filename}, nil
}

// Annotate attaches ground truth and a judgment to the first record with
// the given file name. An earlier annotation is overwritten.
func (s *Service) Annotate(ctx context.Context, filename, groundTruth, judgment string) error {
	const op = "feedback.Annotate"

	if !models.ValidJudgment(judgment) {
		return apperr.Errorf(apperr.KindInvalid, op, "judgment must be %s or %s, got %q", models.JudgmentTrue, models.JudgmentFalse, judgment)
	}
	at := s.now().Format(models.TimeLayout)

	var annotated models.FeedbackRecord
	err := s.log.Mutate(ctx, func(rows []models.FeedbackRecord) (bool, error) {
		for i := range rows {
			if rows[i].Filename != filename {
				continue
			}
			rows[i].GroundTruth = groundTruth
			rows[i].Judgment = judgment
			rows[i].Time = at
			annotated = rows[i]
			return true, nil
		}
		return false, apperr.Errorf(apperr.KindNotFound, op, "no feedback record for %s", filename)
	})
	if err != nil {
		return err
	}

	observability.Annotations.Inc()
	slog.Info("prediction annotated", "id", annotated.ID, "filename", filename, "judgment", judgment)
	ev := events.New(events.FeedbackAnnotated, filename)
	ev.Label, ev.Status, ev.At = groundTruth, judgment, at
	s.notify.Notify(ctx, ev)
	return nil
}

// Labels returns the label catalog offered to judges.
func (s *Service) Labels() []string {
	return append([]string(nil), s.labels...)
}
