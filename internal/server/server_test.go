// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/advisor-search/internal/history"
	"github.com/pdiddy/advisor-search/internal/metrics"
	"github.com/pdiddy/advisor-search/internal/search"
	"github.com/pdiddy/advisor-search/internal/transport"
	"github.com/pdiddy/advisor-search/pkg/types"
)

// --- fakes ---

type scriptedGenerator struct {
	text string
	err  error
}

func (g *scriptedGenerator) Name() string { return "fake" }

func (g *scriptedGenerator) Generate(context.Context, string) (string, error) {
	return g.text, g.err
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type fixture struct {
	ts      *httptest.Server
	store   *history.Store
	metrics *metrics.Metrics
}

func newFixture(t *testing.T, gen transport.Generator, record bool) fixture {
	t.Helper()
	store, err := history.Open(types.HistoryConfig{Path: filepath.Join(t.TempDir(), "history.db")})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	m := metrics.New()
	searcher := &search.Searcher{
		Backend: gen,
		Logger:  quietLogger(),
		Hooks:   m,
		Sleep:   func(context.Context, time.Duration) error { return nil },
	}
	srv := New(Options{
		Searcher: searcher,
		History:  store,
		Metrics:  m,
		Provider: "fake",
		Record:   record,
		Logger:   quietLogger(),
	})
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return fixture{ts: ts, store: store, metrics: m}
}

func postSearch(t *testing.T, url, body string) (int, map[string]any) {
	t.Helper()
	resp, err := http.Post(url+"/api/search", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

const janeBody = `{"keywords":["Computer Vision"],"filters":{"rankingRange":"Top 25","department":"Computer Science"}}`

// --- POST /api/search ---

func TestSearchOK(t *testing.T) {
	f := newFixture(t, &scriptedGenerator{text: "```json\n[{\"name\":\"Jane Doe\",\"university\":\"MIT\",\"matchScore\":95}]\n```"}, false)

	status, out := postSearch(t, f.ts.URL, janeBody)

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, StatusOK, out["status"])
	results, _ := out["results"].([]any)
	require.Len(t, results, 1)
	first := results[0].(map[string]any)
	assert.Equal(t, "Jane Doe", first["name"])
	assert.Equal(t, "Matched based on keywords.", first["matchReason"])
	_, hasID := out["id"]
	assert.False(t, hasID)
}

func TestSearchEmpty(t *testing.T) {
	f := newFixture(t, &scriptedGenerator{text: "[]"}, false)

	status, out := postSearch(t, f.ts.URL, janeBody)

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, StatusEmpty, out["status"])
	assert.Equal(t, []any{}, out["results"])
	_, hasError := out["error"]
	assert.False(t, hasError)
}

func TestSearchErrorStatuses(t *testing.T) {
	tests := []struct {
		name    string
		gen     *scriptedGenerator
		status  int
		message string
	}{
		{"quota", &scriptedGenerator{err: &transport.TransportError{Status: 429}}, http.StatusTooManyRequests, search.MsgQuota},
		{"fetch", &scriptedGenerator{err: errors.New("connection reset")}, http.StatusBadGateway, search.MsgFetch},
		{"parse", &scriptedGenerator{text: "not json"}, http.StatusBadGateway, search.MsgParse},
		{"config", &scriptedGenerator{err: transport.ErrMissingAPIKey}, http.StatusInternalServerError, search.MsgConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.gen, false)
			status, out := postSearch(t, f.ts.URL, janeBody)

			assert.Equal(t, tt.status, status)
			assert.Equal(t, StatusError, out["status"])
			assert.Equal(t, tt.message, out["error"])
			_, hasResults := out["results"]
			assert.False(t, hasResults)
		})
	}
}

func TestSearchInvalidRequest(t *testing.T) {
	f := newFixture(t, &scriptedGenerator{text: "[]"}, false)

	status, out := postSearch(t, f.ts.URL, `{"keywords":[]}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, out["error"], "at least one keyword")

	status, out = postSearch(t, f.ts.URL, `not json`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, StatusError, out["status"])
}

func TestSearchRecordsHistory(t *testing.T) {
	f := newFixture(t, &scriptedGenerator{text: `[{"name":"Jane Doe","matchScore":95}]`}, true)

	_, out := postSearch(t, f.ts.URL, janeBody)
	id, _ := out["id"].(string)
	require.NotEmpty(t, id)

	resp, err := http.Get(f.ts.URL + "/api/history/" + id)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var entry history.Entry
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&entry))
	assert.Equal(t, []string{"Computer Vision"}, entry.Keywords)
	assert.Equal(t, "fake", entry.Provider)
	require.Len(t, entry.Results, 1)
	assert.Equal(t, "Jane Doe", entry.Results[0].Name)
}

func TestSearchRecordsCanceledRequest(t *testing.T) {
	f := newFixture(t, &scriptedGenerator{text: "[]"}, true)
	srv := New(Options{
		Searcher: &search.Searcher{Backend: &scriptedGenerator{text: "[]"}, Logger: quietLogger()},
		History:  f.store,
		Provider: "fake",
		Record:   true,
		Logger:   quietLogger(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/api/search", strings.NewReader(janeBody)).WithContext(ctx)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.NotEmpty(t, out["id"])

	entries, err := f.store.List(context.Background(), history.ListOptions{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, history.StatusError, entries[0].Status)
	assert.Equal(t, string(search.KindCanceled), entries[0].ErrorKind)
}

// --- history ---

func TestListHistory(t *testing.T) {
	f := newFixture(t, &scriptedGenerator{text: "[]"}, true)
	postSearch(t, f.ts.URL, janeBody)
	postSearch(t, f.ts.URL, `{"keywords":["Robotics"]}`)

	resp, err := http.Get(f.ts.URL + "/api/history?limit=1")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Searches []history.Entry `json:"searches"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Len(t, out.Searches, 1)
	assert.Equal(t, history.StatusEmpty, out.Searches[0].Status)

	bad, err := http.Get(f.ts.URL + "/api/history?limit=abc")
	require.NoError(t, err)
	bad.Body.Close()
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)
}

func TestGetHistoryNotFound(t *testing.T) {
	f := newFixture(t, &scriptedGenerator{text: "[]"}, false)

	resp, err := http.Get(f.ts.URL + "/api/history/missing")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHistoryDisabled(t *testing.T) {
	srv := New(Options{Searcher: &search.Searcher{Backend: &scriptedGenerator{text: "[]"}, Logger: quietLogger()}, Logger: quietLogger()})
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/history")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	metricsResp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	metricsResp.Body.Close()
	assert.Equal(t, http.StatusNotFound, metricsResp.StatusCode)
}

// --- health, metrics, CORS ---

func TestHealth(t *testing.T) {
	f := newFixture(t, &scriptedGenerator{text: "[]"}, false)

	resp, err := http.Get(f.ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "ok", out["status"])
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t, &scriptedGenerator{text: "[]"}, false)
	postSearch(t, f.ts.URL, janeBody)

	resp, err := http.Get(f.ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `advisor_search_searches_total{outcome="ok",provider="fake"} 1`)
}

func TestCORSPreflight(t *testing.T) {
	f := newFixture(t, &scriptedGenerator{text: "[]"}, false)

	req, err := http.NewRequest(http.MethodOptions, f.ts.URL+"/api/search", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusFor(search.KindInvalid))
	assert.Equal(t, http.StatusServiceUnavailable, statusFor(search.KindCanceled))
	assert.Equal(t, http.StatusBadGateway, statusFor(search.KindParse))
}
