package events_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/your-org/tcmreview/internal/events"
)

func TestType_Kind(t *testing.T) {
	assert.Equal(t, "review", events.ReviewDecided.Kind())
	assert.Equal(t, "feedback", events.FeedbackAnnotated.Kind())
}

func TestFanout(t *testing.T) {
	a, b := &events.Recorder{}, &events.Recorder{}
	f := events.Fanout{a, events.Nop{}, b}

	f.Notify(context.Background(), events.New(events.ReviewSubmitted, "cat_0000.jpg"))

	assert.Len(t, a.Events(), 1)
	assert.Len(t, b.Events(), 1)
	assert.Equal(t, "review", b.Events()[0].Kind)
	assert.Equal(t, "cat_0000.jpg", b.Events()[0].Filename)
}
