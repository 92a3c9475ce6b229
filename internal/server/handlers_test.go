package server

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fetchview/fetchview/internal/fetch"
	"github.com/fetchview/fetchview/internal/logging"
	"github.com/fetchview/fetchview/internal/monitoring"
	"github.com/fetchview/fetchview/internal/relay"
	"github.com/fetchview/fetchview/internal/render"
)

func newTestRouter(t *testing.T, limit int64) (*gin.Engine, *monitoring.Metrics) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := logging.NewNop()
	metrics := monitoring.NewMetrics()
	renderer, err := render.New()
	require.NoError(t, err)

	handlers := NewHandlers(
		fetch.New(fetch.Config{}, logger),
		relay.NewCollector(limit),
		relay.NewProxy(limit, logger),
		renderer,
		logger,
		metrics,
	)

	router := gin.New()
	router.Use(monitoring.Middleware(metrics))
	registerRoutes(router, handlers, metrics)
	return router, metrics
}

func postFetch(router *gin.Engine, target string) *httptest.ResponseRecorder {
	form := url.Values{"url": {target}}
	req := httptest.NewRequest(http.MethodPost, "/fetch", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func staticUpstream(contentType string, body []byte) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if contentType != "" {
			w.Header().Set("Content-Type", contentType)
		}
		w.Write(body)
	}))
}

// chunkedUpstream streams total bytes in flushed chunks so no Content-Length
// is declared.
func chunkedUpstream(contentType string, total, chunk int) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentType)
		flusher := w.(http.Flusher)
		buf := bytes.Repeat([]byte("x"), chunk)
		for sent := 0; sent < total; sent += chunk {
			w.Write(buf)
			flusher.Flush()
		}
	}))
}

func TestFetchRendersEscapedText(t *testing.T) {
	upstream := staticUpstream("text/plain", []byte("hello <world>"))
	defer upstream.Close()

	router, _ := newTestRouter(t, relay.MaxTransferSize)
	rec := postFetch(router, upstream.URL)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "hello &lt;world&gt;")

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, "hello <world>", doc.Find("pre code").Text())

	meta := doc.Find("p.meta").Text()
	assert.Contains(t, meta, "declared text/plain")
	assert.Contains(t, meta, "detected text/plain")
}

func TestFetchRendersImageReference(t *testing.T) {
	upstream := staticUpstream("image/png", []byte{0x89, 0x50, 0x4e, 0x47})
	defer upstream.Close()

	router, _ := newTestRouter(t, relay.MaxTransferSize)
	rec := postFetch(router, upstream.URL)

	require.Equal(t, http.StatusOK, rec.Code)

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)

	src, ok := doc.Find("img.result").Attr("src")
	require.True(t, ok, "result page must reference the image proxy")
	assert.Equal(t, "/image?url="+url.QueryEscape(upstream.URL), src)
}

func TestFetchUnsupportedType(t *testing.T) {
	upstream := staticUpstream("application/pdf", []byte("%PDF-1.4"))
	defer upstream.Close()

	router, _ := newTestRouter(t, relay.MaxTransferSize)
	rec := postFetch(router, upstream.URL)

	require.Equal(t, http.StatusOK, rec.Code, "errors render inline, never as raw statuses")

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	assert.Contains(t, doc.Find("p.error").Text(), "application/pdf")
}

func TestFetchUpstreamFailure(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer upstream.Close()

	router, _ := newTestRouter(t, relay.MaxTransferSize)
	rec := postFetch(router, upstream.URL)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Upstream returned status 502")
}

func TestFetchMissingURL(t *testing.T) {
	router, _ := newTestRouter(t, relay.MaxTransferSize)
	rec := postFetch(router, "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "URL is required")
}

func TestFetchDeclaredTooLarge(t *testing.T) {
	upstream := staticUpstream("text/plain", bytes.Repeat([]byte("x"), 2048))
	defer upstream.Close()

	router, _ := newTestRouter(t, 1024)
	rec := postFetch(router, upstream.URL)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "File exceeds 10 MB limit")
}

func TestFetchObservedTooLarge(t *testing.T) {
	upstream := chunkedUpstream("text/plain", 4096, 256)
	defer upstream.Close()

	router, _ := newTestRouter(t, 1024)
	rec := postFetch(router, upstream.URL)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "File exceeds 10 MB limit")
	assert.NotContains(t, body, "xxxxxxxx", "no partial text on the failure path")
}

func TestImageMissingURL(t *testing.T) {
	router, _ := newTestRouter(t, relay.MaxTransferSize)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/image", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestImageRelaysBytes(t *testing.T) {
	payload := bytes.Repeat([]byte{0x89, 0x50, 0x4e, 0x47}, 256)
	upstream := staticUpstream("image/png", payload)
	defer upstream.Close()

	router, _ := newTestRouter(t, relay.MaxTransferSize)
	srv := httptest.NewServer(router)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/image?url=" + url.QueryEscape(upstream.URL))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, payload, body)
}

func TestImageNonImageContentType(t *testing.T) {
	upstream := staticUpstream("text/html", []byte("<html></html>"))
	defer upstream.Close()

	router, _ := newTestRouter(t, relay.MaxTransferSize)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/image?url="+url.QueryEscape(upstream.URL), nil))

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	assert.NotContains(t, rec.Body.String(), "<html>", "zero upstream bytes forwarded")
}

func TestImageUpstreamNotFound(t *testing.T) {
	upstream := httptest.NewServer(http.NotFoundHandler())
	defer upstream.Close()

	router, _ := newTestRouter(t, relay.MaxTransferSize)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/image?url="+url.QueryEscape(upstream.URL), nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestImageTruncatesOversizedStream(t *testing.T) {
	// Upstream declares a large Content-Length; the proxy must stream up to
	// the cap and then break the transfer, not reject it outright.
	payload := bytes.Repeat([]byte("x"), 4096)
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Content-Length", "4096")
		w.Write(payload)
	}))
	defer upstream.Close()

	router, _ := newTestRouter(t, 1024)
	srv := httptest.NewServer(router)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/image?url=" + url.QueryEscape(upstream.URL))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	assert.Error(t, err, "oversized transfer ends in a broken body, not a clean close")
	assert.Equal(t, 1024, len(body), "streaming stops exactly at the cap")
}

func TestHealth(t *testing.T) {
	router, _ := newTestRouter(t, relay.MaxTransferSize)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"healthy"`)
	assert.Contains(t, rec.Body.String(), "fetchview")
}

func TestMetricsEndpoints(t *testing.T) {
	upstream := staticUpstream("text/plain", []byte("metrics probe"))
	defer upstream.Close()

	router, metrics := newTestRouter(t, relay.MaxTransferSize)
	postFetch(router, upstream.URL)

	snap := metrics.GetSnapshot()
	assert.GreaterOrEqual(t, snap.TotalRequests, int64(1))
	assert.GreaterOrEqual(t, snap.BytesRelayed, int64(len("metrics probe")))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics/json", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "total_requests")

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "fetchview_http_requests_total")
}
