package classifier_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/tcmreview/internal/apperr"
	"github.com/your-org/tcmreview/internal/classifier"
)

func TestClient_Classify(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "AQID", body["bs64"])
		_, _ = w.Write([]byte(`{"result":"白芷飲片(C0015-1)"}`))
	}))
	defer srv.Close()

	label, err := classifier.NewClient(srv.URL, time.Second).Classify(context.Background(), []byte{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, "白芷飲片(C0015-1)", label)
}

func TestClient_Classify_Failures(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"server error": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		},
		"not json": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("<html>"))
		},
		"missing result": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"label":"x"}`))
		},
	}
	for name, h := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(h)
			defer srv.Close()

			_, err := classifier.NewClient(srv.URL, time.Second).Classify(context.Background(), []byte("img"))
			require.Error(t, err)
			assert.True(t, apperr.Is(err, apperr.KindUpstream))
		})
	}
}

func TestClient_Classify_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	start := time.Now()
	_, err := classifier.NewClient(srv.URL, 50*time.Millisecond).Classify(context.Background(), []byte("img"))
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindUpstream))
	assert.Contains(t, err.Error(), "timed out")
	assert.Less(t, time.Since(start), 2*time.Second)
}
