package apperr_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/your-org/tcmreview/internal/apperr"
)

func TestKindOf_ThroughWrapping(t *testing.T) {
	base := apperr.E(apperr.KindNotFound, "feedback.Annotate", errors.New("x.jpg"))
	wrapped := fmt.Errorf("handler: %w", base)

	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(wrapped))
	assert.True(t, apperr.Is(wrapped, apperr.KindNotFound))
	assert.False(t, apperr.Is(nil, apperr.KindNotFound))
}

func TestKindOf_DefaultsToInternal(t *testing.T) {
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(errors.New("disk full")))
}

func TestKind_HTTPStatus(t *testing.T) {
	cases := map[apperr.Kind]int{
		apperr.KindDecode:   http.StatusBadRequest,
		apperr.KindInvalid:  http.StatusBadRequest,
		apperr.KindNotFound: http.StatusNotFound,
		apperr.KindUpstream: http.StatusBadGateway,
		apperr.KindInternal: http.StatusInternalServerError,
	}
	for kind, want := range cases {
		assert.Equal(t, want, kind.HTTPStatus(), kind.String())
	}
}

func TestError_Message(t *testing.T) {
	err := apperr.Errorf(apperr.KindDecode, "review.SubmitBatch", "item %d: bad base64", 2)
	assert.Equal(t, "review.SubmitBatch: item 2: bad base64", err.Error())
	assert.Equal(t, "review.Review: invalid request", apperr.E(apperr.KindInvalid, "review.Review", nil).Error())
}
