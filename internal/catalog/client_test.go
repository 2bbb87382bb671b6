package catalog_test

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
	"github.com/your-org/tcmreview/internal/catalog"
)

func decodeItems(t *testing.T, raw string) []any {
	t.Helper()
	var items []any
	require.NoError(t, json.Unmarshal([]byte(raw), &items))
	return items
}

func TestFilterNames(t *testing.T) {
	items := decodeItems(t, `[
		{"NAME":"白芷飲片","TORW":"中藥","SKDIACODE":"C0015-1"},
		{"NAME":"白芷飲片","TORW":"中藥","SKDIACODE":"C0015-1"},
		{"NAME":"白芷","TORW":"中藥","SKDIACODE":"C0015"},
		{"NAME":"黃芩飲片","TORW":"西藥","SKDIACODE":"C0044-1"},
		{"NAME":"桑葉飲片","TORW":"中藥"},
		"garbage",
		{"NAME":"桑葉飲片","TORW":"中藥","SKDIACODE":"C0035-1"}
	]`)

	got := catalog.FilterNames(items, "中藥", "飲片")
	assert.Equal(t, []string{"白芷飲片(C0015-1)", "桑葉飲片(C0035-1)"}, got)
}

func TestFilterNames_Empty(t *testing.T) {
	assert.Empty(t, catalog.FilterNames(nil, "中藥", "飲片"))
}

func TestClient_Names(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		_, _ = w.Write([]byte(`{"Data":[{"NAME":"白芨飲片","TORW":"中藥","SKDIACODE":"C0076-1"}]}`))
	}))
	defer srv.Close()

	names, err := catalog.NewClient(srv.URL, time.Second, "中藥", "飲片").Names(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"白芨飲片(C0076-1)"}, names)
}

func TestClient_Names_UnexpectedShapes(t *testing.T) {
	bodies := map[string]string{
		"not a dictionary": `[1,2,3]`,
		"missing 'Data'":   `{"data":[]}`,
		"format in 'Data'": `{"Data":{"NAME":"x"}}`,
	}
	for want, body := range bodies {
		t.Run(want, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			}))
			defer srv.Close()

			_, err := catalog.NewClient(srv.URL, time.Second, "中藥", "飲片").Names(context.Background())
			require.Error(t, err)
			assert.True(t, apperr.Is(err, apperr.KindUpstream))
			assert.Contains(t, err.Error(), want)
		})
	}
}
