package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cabellfineart/gallery-api/internal/token"
)

func TestRequireJSON(t *testing.T) {
	tests := []struct {
		contentType string
		wantCalled  bool
	}{
		{"application/json", true},
		{"application/json; charset=utf-8", true},
		{"application/vnd.api+json", true},
		{"text/plain", false},
		{"multipart/form-data; boundary=x", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			dummy := &dummyHandler{}
			rec := httptest.NewRecorder()
			req := httptest.NewRequest("POST", "/art/", nil)
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			RequireJSON(dummy).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCalled, dummy.called)
			if !tt.wantCalled {
				assert.Equal(t, http.StatusBadRequest, rec.Code)
				assert.JSONEq(t, `{"msg":"Request body must be application/json"}`, rec.Body.String())
			}
		})
	}
}

func TestWithRequestLogging(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	h := WithRequestLogging(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/psalms/", nil))

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "GET", fields["method"])
	assert.Equal(t, "/psalms/", fields["path"])
	assert.EqualValues(t, http.StatusTeapot, fields["status"])
	assert.EqualValues(t, len("short and stout"), fields["bytes"])
}

func TestWithRequestLogging_AuthenticatedUser(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	auth := BearerAuth(&fakeVerifier{}, token.Access)
	h := WithRequestLogging(zap.New(core))(auth(&dummyHandler{}))

	for _, header := range []string{"Bearer good-alice", "Bearer forged"} {
		req := httptest.NewRequest("POST", "/art/update", nil)
		req.Header.Set("Authorization", header)
		h.ServeHTTP(httptest.NewRecorder(), req)
	}

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, "alice", logs.All()[0].ContextMap()["user"])
	assert.Equal(t, "", logs.All()[1].ContextMap()["user"])
}

type recordingReporter struct {
	errs []error
}

func (r *recordingReporter) Report(_ context.Context, err error) { r.errs = append(r.errs, err) }

func (r *recordingReporter) Flush(time.Duration) bool { return true }

func TestRecover(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	rep := &recordingReporter{}
	boom := errors.New("boom")
	h := Recover(zap.New(core), rep)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(boom)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"msg":"An internal error occurred"}`, rec.Body.String())
	require.Len(t, rep.errs, 1)
	assert.ErrorIs(t, rep.errs[0], boom)
	assert.Equal(t, 1, logs.Len())
}

func TestRecover_NonErrorPanic(t *testing.T) {
	rep := &recordingReporter{}
	h := Recover(zap.NewNop(), rep)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("plain string")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	require.Len(t, rep.errs, 1)
	assert.Contains(t, rep.errs[0].Error(), "plain string")
}
