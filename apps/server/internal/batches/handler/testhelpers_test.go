package handler_test

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/tilsley/hgraph/apps/server/internal/batches"
	"github.com/tilsley/hgraph/apps/server/internal/batches/handler"
	"github.com/tilsley/hgraph/apps/server/internal/batches/memstore"
	"github.com/tilsley/hgraph/apps/server/internal/batches/uploads"
	"github.com/tilsley/hgraph/apps/server/internal/platform/validation"
	"github.com/tilsley/hgraph/pkg/logging"
	"github.com/tilsley/hgraph/schemas"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var fixedNow = time.Date(2025, time.June, 15, 9, 30, 0, 0, time.UTC)

// ─── Test server builder ──────────────────────────────────────────────────────

type testServer struct {
	router  *gin.Engine
	store   *memstore.Store
	uploads string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ts := &testServer{store: memstore.New(), uploads: t.TempDir()}
	ts.router = ts.build(nil)
	return ts
}

func newTestServerWithValidation(t *testing.T) *testServer {
	t.Helper()
	mw, err := validation.New(schemas.OpenAPISpec)
	require.NoError(t, err)
	ts := &testServer{store: memstore.New(), uploads: t.TempDir()}
	ts.router = ts.build(mw)
	return ts
}

func (ts *testServer) build(mw gin.HandlerFunc) *gin.Engine {
	log := logging.Discard()
	svc := batches.NewService(ts.store, nil, uploads.NewLocalStore(ts.uploads), log,
		batches.WithClock(func() time.Time { return fixedNow }))
	r := gin.New()
	if mw != nil {
		r.Use(mw)
	}
	handler.RegisterRoutes(r, svc, log)
	return r
}

func (ts *testServer) do(method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func (ts *testServer) doRaw(method, path, contentType string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

type part struct {
	field    string
	filename string
	content  []byte
}

func multipartBody(t *testing.T, parts ...part) (string, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, p := range parts {
		w, err := mw.CreateFormFile(p.field, p.filename)
		require.NoError(t, err)
		_, err = w.Write(p.content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return mw.FormDataContentType(), &buf
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}
