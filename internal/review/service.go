// Package review implements the human review lifecycle of submitted images:
// pending on upload, then pass or fail exactly once.
package review

import (
	"context"
	"encoding/base64"
	"errors"
	"log/slog"
	"time"

	"github.com/your-org/tcmreview/internal/apperr"
	"github.com/your-org/tcmreview/internal/events"
	"github.com/your-org/tcmreview/internal/models"
	"github.com/your-org/tcmreview/internal/observability"
	"github.com/your-org/tcmreview/internal/recordlog"
	"github.com/your-org/tcmreview/internal/storage"
)

type Service struct {
	log    *recordlog.Log[models.ReviewRecord]
	blobs  storage.BlobStore
	notify events.Notifier
	now    func() time.Time
	suffix func() string
}

type Option func(*Service)

func WithNotifier(n events.Notifier) Option {
	return func(s *Service) { s.notify = n }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithSuffix replaces the random file name suffix generator.
func WithSuffix(suffix func() string) Option {
	return func(s *Service) { s.suffix = suffix }
}

func NewService(log *recordlog.Log[models.ReviewRecord], blobs storage.BlobStore, opts ...Option) *Service {
	s := &Service{
		log:    log,
		blobs:  blobs,
		notify: events.Nop{},
		now:    time.Now,
		suffix: models.RandomSuffix,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SubmitItem is one image of a batch upload; Data is Base64 encoded.
type SubmitItem struct {
	BaseName string
	Label    string
	Data     string
}

// Decision is one reviewer verdict. CustomReason takes precedence over
// FailureReason; both are ignored for a pass.
type Decision struct {
	Filename      string
	Status        string
	FailureReason string
	CustomReason  string
}

type PendingImage struct {
	Filename string
	Label    string
	Blob     []byte
}

// HistoryFilter narrows ListHistory. Status "" or "all" matches every
// record; StartDate and EndDate are inclusive bounds compared as strings
// against uploaded_at and may be empty.
type HistoryFilter struct {
	Status    string
	StartDate string
	EndDate   string
}

type HistoryEntry struct {
	Filename   string
	Label      string
	Status     models.ReviewStatus
	UploadedAt string
	Blob       []byte
	Reason     string
}

func (s *Service) timestamp() string {
	return s.now().Format(models.TimeLayout)
}

// Submit stores the image blob and appends a pending record for it.
func (s *Service) Submit(ctx context.Context, baseName, label string, data []byte) (models.ReviewRecord, error) {
	const op = "review.Submit"

	filename := models.BlobName(baseName, s.suffix())
	if err := s.blobs.Save(ctx, filename, data); err != nil {
		return models.ReviewRecord{}, apperr.E(apperr.KindInternal, op, err)
	}

	rec, err := s.log.AppendWith(ctx, func(rows []models.ReviewRecord) (models.ReviewRecord, error) {
		return models.ReviewRecord{
			ID:         recordlog.NextID(rows, models.ReviewSchema{}.ID),
			Filename:   filename,
			Label:      label,
			Status:     models.StatusPending,
			UploadedAt: s.timestamp(),
		}, nil
	})
	if err != nil {
		return models.ReviewRecord{}, err
	}

	slog.Info("review record submitted", "id", rec.ID, "filename", rec.Filename, "label", rec.Label)
	ev := events.New(events.ReviewSubmitted, rec.Filename)
	ev.Label, ev.Status, ev.At = rec.Label, string(rec.Status), rec.UploadedAt
	s.notify.Notify(ctx, ev)
	return rec, nil
}

// SubmitBatch submits items in order. The first item whose data is not
// valid Base64 stops the batch with a decode error; records created for
// earlier items are kept and returned alongside the error.
func (s *Service) SubmitBatch(ctx context.Context, items []SubmitItem) ([]models.ReviewRecord, error) {
	const op = "review.SubmitBatch"

	out := make([]models.ReviewRecord, 0, len(items))
	for i, item := range items {
		data, err := base64.StdEncoding.DecodeString(item.Data)
		if err != nil {
			return out, apperr.Errorf(apperr.KindDecode, op, "image %d (%s): invalid base64 data: %v", i, item.BaseName, err)
		}
		rec, err := s.Submit(ctx, item.BaseName, item.Label, data)
		if err != nil {
			return out, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// Review applies decisions to records that are pending and returns how
// many records changed. Records already passed or failed are left alone.
// When a file name appears more than once, its decisions apply in order and
// the last one stands. The log is rewritten at most once.
func (s *Service) Review(ctx context.Context, decisions []Decision) (int, error) {
	const op = "review.Review"

	byFile := make(map[string][]Decision, len(decisions))
	for _, d := range decisions {
		if _, ok := models.ParseDecision(d.Status); !ok {
			return 0, apperr.Errorf(apperr.KindInvalid, op, "%s: status must be pass or fail, got %q", d.Filename, d.Status)
		}
		byFile[d.Filename] = append(byFile[d.Filename], d)
	}
	reviewedAt := s.timestamp()

	var updated []models.ReviewRecord
	err := s.log.Mutate(ctx, func(rows []models.ReviewRecord) (bool, error) {
		for i := range rows {
			matches := byFile[rows[i].Filename]
			if len(matches) == 0 || !rows[i].Pending() {
				continue
			}
			for _, d := range matches {
				applyDecision(&rows[i], d, reviewedAt)
			}
			updated = append(updated, rows[i])
		}
		return len(updated) > 0, nil
	})
	if err != nil {
		return 0, err
	}

	for _, rec := range updated {
		observability.ReviewsDecided.WithLabelValues(string(rec.Status)).Inc()
		slog.Info("review record decided", "id", rec.ID, "filename", rec.Filename, "status", rec.Status)
		ev := events.New(events.ReviewDecided, rec.Filename)
		ev.Label, ev.Status, ev.Reason, ev.At = rec.Label, string(rec.Status), rec.Reason, rec.ReviewedAt
		s.notify.Notify(ctx, ev)
	}
	return len(updated), nil
}

func applyDecision(rec *models.ReviewRecord, d Decision, reviewedAt string) {
	status, _ := models.ParseDecision(d.Status)
	rec.Status = status
	rec.ReviewedAt = reviewedAt
	rec.Reason = ""
	if status == models.StatusFail {
		rec.Reason = d.FailureReason
		if d.CustomReason != "" {
			rec.Reason = d.CustomReason
		}
	}
}

// ListPending returns every pending record with its image. Records whose
// blob is gone are skipped.
func (s *Service) ListPending(ctx context.Context) ([]PendingImage, error) {
	const op = "review.ListPending"

	rows, err := s.log.Scan(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]PendingImage, 0)
	for _, r := range rows {
		if !r.Pending() {
			continue
		}
		blob, ok, err := s.loadBlob(ctx, r.Filename)
		if err != nil {
			return nil, apperr.E(apperr.KindInternal, op, err)
		}
		if !ok {
			continue
		}
		out = append(out, PendingImage{Filename: r.Filename, Label: r.Label, Blob: blob})
	}
	return out, nil
}

// ListHistory returns the records matching f in log order, each with its
// image. Reason is only filled for failed records.
func (s *Service) ListHistory(ctx context.Context, f HistoryFilter) ([]HistoryEntry, error) {
	const op = "review.ListHistory"

	var status models.ReviewStatus
	switch f.Status {
	case "", "all":
	case string(models.StatusPending), string(models.StatusPass), string(models.StatusFail):
		status = models.ReviewStatus(f.Status)
	default:
		return nil, apperr.Errorf(apperr.KindInvalid, op, "unknown status filter %q", f.Status)
	}

	rows, err := s.log.Scan(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]HistoryEntry, 0)
	for _, r := range rows {
		if status != "" && r.Status != status {
			continue
		}
		if f.StartDate != "" && r.UploadedAt < f.StartDate {
			continue
		}
		if f.EndDate != "" && r.UploadedAt > f.EndDate {
			continue
		}
		blob, ok, err := s.loadBlob(ctx, r.Filename)
		if err != nil {
			return nil, apperr.E(apperr.KindInternal, op, err)
		}
		if !ok {
			continue
		}
		entry := HistoryEntry{
			Filename:   r.Filename,
			Label:      r.Label,
			Status:     r.Status,
			UploadedAt: r.UploadedAt,
			Blob:       blob,
		}
		if r.Status == models.StatusFail {
			entry.Reason = r.Reason
		}
		out = append(out, entry)
	}
	return out, nil
}

// loadBlob reports ok=false for a missing blob instead of an error.
func (s *Service) loadBlob(ctx context.Context, filename string) ([]byte, bool, error) {
	blob, err := s.blobs.Load(ctx, filename)
	if errors.Is(err, storage.ErrNotFound) {
		observability.BlobsMissing.WithLabelValues("review").Inc()
		slog.Debug("skipping record without blob", "filename", filename)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return blob, true, nil
}
