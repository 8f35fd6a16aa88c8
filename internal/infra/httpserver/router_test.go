package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/automaton-review/internal/application"
	"github.com/bryanwahyu/automaton-review/internal/application/dispatch"
	"github.com/bryanwahyu/automaton-review/internal/domain/analysis"
	"github.com/bryanwahyu/automaton-review/internal/middleware"
)

type stubStore struct {
	content string
	getErr  error
}

func (s *stubStore) Get(ctx context.Context, bucket, key string) (*analysis.SourceObject, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return &analysis.SourceObject{
		Bucket:    bucket,
		Key:       key,
		Content:   s.content,
		SizeBytes: int64(len(s.content)),
		FileType:  analysis.FileTypeFromKey(key),
	}, nil
}

func (s *stubStore) Put(ctx context.Context, out *analysis.OutputObject) error { return nil }

type stubAI struct {
	text string
	err  error
}

func (s *stubAI) Analyze(ctx context.Context, prompt string) (string, error) {
	return s.text, s.err
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(ctx context.Context) error { return p.err }

func newTestServer(t *testing.T, store analysis.ObjectStore, ai analysis.Client, pingErr error) *httptest.Server {
	t.Helper()
	svc := &dispatch.Service{
		Store: store,
		AI:    ai,
		Clock: application.SystemClock{},
	}
	checkers := map[string]middleware.HealthChecker{
		"object_store": &middleware.ObjectStoreHealthChecker{Store: stubPinger{err: pingErr}},
	}
	ts := httptest.NewServer(NewRouter(svc, checkers))
	t.Cleanup(ts.Close)
	return ts
}

func postInvoke(t *testing.T, ts *httptest.Server, body string, header map[string]string) (*http.Response, dispatch.Envelope) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, ts.URL+"/v1/invoke", bytes.NewBufferString(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env dispatch.Envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp, env
}

func TestInvokeStatusReply(t *testing.T) {
	ts := newTestServer(t, &stubStore{}, &stubAI{}, nil)

	resp, env := postInvoke(t, ts, `{}`, nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, dispatch.StatusSuccess, env.Status)
	assert.Equal(t, dispatch.Version, env.Version)
	assert.NotEmpty(t, env.RequestID, "a request id is generated when none is supplied")
}

func TestInvokeEchoesRequestID(t *testing.T) {
	ts := newTestServer(t, &stubStore{}, &stubAI{}, nil)

	_, env := postInvoke(t, ts, `{}`, map[string]string{"X-Request-Id": "abc-123"})

	assert.Equal(t, "abc-123", env.RequestID)
}

func TestInvokePromptAnalysis(t *testing.T) {
	ts := newTestServer(t, &stubStore{}, &stubAI{text: "OK"}, nil)

	resp, env := postInvoke(t, ts, `{"prompt":"review this snippet"}`, nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, dispatch.StatusSuccess, env.Status)
	assert.Equal(t, "OK", env.Analysis)
	require.NotNil(t, env.InputPrompt)
	assert.Equal(t, "review this snippet", *env.InputPrompt)
}

func TestInvokeFileAnalysis(t *testing.T) {
	ts := newTestServer(t, &stubStore{content: "print(1)"}, &stubAI{text: "Looks fine."}, nil)

	resp, env := postInvoke(t, ts, `{"source":"eventbridge","bucket":"src","key":"app.py","outputBucket":"out"}`, nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, dispatch.StatusSuccess, env.Status)
	require.NotNil(t, env.Input)
	assert.Equal(t, "py", env.Input.FileType)
	require.NotNil(t, env.Output)
	assert.Equal(t, len("Looks fine."), env.Output.AnalysisLength)
}

func TestInvokeFileAnalysisValidationError(t *testing.T) {
	ts := newTestServer(t, &stubStore{}, &stubAI{}, nil)

	resp, env := postInvoke(t, ts, `{"source":"eventbridge","bucket":"src"}`, nil)

	// transport always answers 200; the envelope carries the failure
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, dispatch.StatusError, env.Status)
	assert.Contains(t, env.Message, "missing bucket name or object key")
}

func TestInvokeRejectsMalformedBody(t *testing.T) {
	ts := newTestServer(t, &stubStore{}, &stubAI{}, nil)

	resp, env := postInvoke(t, ts, `{not json`, nil)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, dispatch.StatusError, env.Status)
	assert.Contains(t, env.Message, "invalid request body")
}

func TestHealthEndpoints(t *testing.T) {
	ts := newTestServer(t, &stubStore{}, &stubAI{}, nil)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/livez")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHealthDegradesWhenStoreUnreachable(t *testing.T) {
	ts := newTestServer(t, &stubStore{}, &stubAI{}, errors.New("connection refused"))

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	var health middleware.HealthStatus
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "unhealthy", health.Status)
	assert.Contains(t, health.Checks["object_store"].Message, "connection refused")
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t, &stubStore{}, &stubAI{text: "OK"}, nil)

	postInvoke(t, ts, `{"prompt":"hi"}`, nil)

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var m map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&m))
	assert.Contains(t, m, "requests_total")
	assert.Contains(t, m, "prompt_analyses")
	assert.Contains(t, m, "uptime_seconds")
}

func TestProcessingTimeIsFinite(t *testing.T) {
	ts := newTestServer(t, &stubStore{}, &stubAI{text: "OK"}, nil)

	start := time.Now()
	_, env := postInvoke(t, ts, `{"prompt":"hi"}`, nil)

	assert.GreaterOrEqual(t, env.ProcessingTimeSeconds, 0.0)
	assert.LessOrEqual(t, env.ProcessingTimeSeconds, time.Since(start).Seconds()+1)
}
