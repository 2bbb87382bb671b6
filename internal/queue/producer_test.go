package queue_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/your-org/tcmreview/internal/events"
	"github.com/your-org/tcmreview/internal/queue"
)

func TestSubject(t *testing.T) {
	assert.Equal(t, "tcm.review.submitted", queue.Subject(events.ReviewSubmitted))
	assert.Equal(t, "tcm.feedback.annotated", queue.Subject(events.FeedbackAnnotated))
}

func TestProducer_ImplementsNotifier(t *testing.T) {
	var _ events.Notifier = (*queue.Producer)(nil)
}
