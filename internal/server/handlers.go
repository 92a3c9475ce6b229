package server

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fetchview/fetchview/internal/fetch"
	"github.com/fetchview/fetchview/internal/logging"
	"github.com/fetchview/fetchview/internal/monitoring"
	"github.com/fetchview/fetchview/internal/relay"
	"github.com/fetchview/fetchview/internal/render"
)

const serviceVersion = "1.0.0"

// Handlers contains all HTTP handlers.
type Handlers struct {
	fetcher   *fetch.Fetcher
	collector *relay.Collector
	proxy     *relay.Proxy
	renderer  *render.Renderer
	logger    *logging.Logger
	metrics   *monitoring.Metrics
	started   time.Time
}

// NewHandlers creates the handler set.
func NewHandlers(
	fetcher *fetch.Fetcher,
	collector *relay.Collector,
	proxy *relay.Proxy,
	renderer *render.Renderer,
	logger *logging.Logger,
	metrics *monitoring.Metrics,
) *Handlers {
	return &Handlers{
		fetcher:   fetcher,
		collector: collector,
		proxy:     proxy,
		renderer:  renderer,
		logger:    logger,
		metrics:   metrics,
		started:   time.Now(),
	}
}

// Index renders the fetch form.
func (h *Handlers) Index(c *gin.Context) {
	h.renderPage(c, render.Page{})
}

// Fetch retrieves the submitted URL and renders the result inline. Every
// error lands in the page as a message; this endpoint never answers with a
// raw error status.
func (h *Handlers) Fetch(c *gin.Context) {
	rawURL := strings.TrimSpace(c.PostForm("url"))
	page := render.Page{URL: rawURL}

	if rawURL == "" {
		page.Error = "URL is required"
		h.renderPage(c, page)
		return
	}

	upstream, err := h.fetcher.Fetch(c.Request.Context(), rawURL,
		fetch.WithDeclaredLimit(h.collector.Limit()))
	if err != nil {
		page.Error = h.errorMessage(err)
		h.renderPage(c, page)
		return
	}
	defer upstream.Close()

	page.HasResult = true
	page.FinalURL = upstream.FinalURL
	page.StatusCode = upstream.StatusCode
	page.ContentType = h.renderer.SanitizeLabel(upstream.ContentType)

	switch fetch.Classify(upstream.ContentType) {
	case fetch.Text:
		text, cerr := h.collector.Collect(c.Request.Context(), upstream.Body)
		if cerr != nil {
			page.HasResult = false
			page.Error = h.errorMessage(cerr)
			h.metrics.RecordTransfer("fetch", transferOutcome(cerr), 0)
			h.renderPage(c, page)
			return
		}
		page.Text = template.HTML(render.EscapeText(text))
		page.Size = int64(len(text))
		page.DetectedType = mimetype.Detect([]byte(text)).String()
		h.metrics.RecordTransfer("fetch", monitoring.OutcomeCompleted, int64(len(text)))

	case fetch.Image:
		page.ImageSrc = "/image?url=" + url.QueryEscape(rawURL)

	default:
		page.HasResult = false
		page.Error = h.errorMessage(&fetch.UnsupportedTypeError{ContentType: upstream.ContentType})
		h.metrics.RecordTransfer("fetch", monitoring.OutcomeUnsupported, 0)
	}

	h.renderPage(c, page)
}

// Image relays the upstream image through the bounded stream proxy.
func (h *Handlers) Image(c *gin.Context) {
	rawURL := c.Query("url")
	if rawURL == "" {
		c.String(http.StatusBadRequest, "url query parameter is required")
		return
	}

	// No declared-length fast path here: oversized upstreams stream up to
	// the cap and then truncate, they are not rejected with a status.
	upstream, err := h.fetcher.Fetch(c.Request.Context(), rawURL)
	if err != nil {
		var valErr *fetch.ValidationError
		if errors.As(err, &valErr) {
			c.String(http.StatusBadRequest, "url must be an absolute http(s) URL")
			return
		}
		// Transport failure or non-2xx upstream both read as "not there".
		c.String(http.StatusNotFound, "upstream fetch failed")
		h.metrics.RecordTransfer("image", monitoring.OutcomeUpstreamError, 0)
		return
	}
	defer upstream.Close()

	written, err := h.proxy.Relay(c.Request.Context(), c.Writer, upstream)
	if err != nil {
		h.recordRelayFailure(c, rawURL, written, err)
		return
	}
	h.metrics.RecordTransfer("image", monitoring.OutcomeCompleted, written)
}

func (h *Handlers) recordRelayFailure(c *gin.Context, rawURL string, written int64, err error) {
	var typeErr *fetch.UnsupportedTypeError
	var sizeErr *fetch.SizeLimitError
	var upErr *fetch.UpstreamError

	switch {
	case errors.As(err, &typeErr):
		c.String(http.StatusUnsupportedMediaType, "upstream content is not an image")
		h.metrics.RecordTransfer("image", monitoring.OutcomeUnsupported, 0)

	case errors.As(err, &sizeErr):
		// The proxy already tore the connection down; nothing more may be
		// written here.
		h.metrics.RecordTransfer("image", monitoring.OutcomeSizeLimit, written)

	case errors.As(err, &upErr):
		if written == 0 {
			c.String(http.StatusInternalServerError, "upstream transfer failed")
		}
		h.metrics.RecordTransfer("image", monitoring.OutcomeUpstreamError, written)

	case errors.Is(err, context.Canceled):
		h.metrics.RecordTransfer("image", monitoring.OutcomeDisconnect, written)

	default:
		// Downstream write error: the client is gone.
		h.metrics.RecordTransfer("image", monitoring.OutcomeDisconnect, written)
	}

	h.logger.Info("image relay ended early",
		zap.String("url", rawURL),
		zap.Int64("bytes_written", written),
		zap.Error(err),
	)
}

// Health reports liveness.
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":         "healthy",
		"service":        "fetchview",
		"version":        serviceVersion,
		"uptime_seconds": time.Since(h.started).Seconds(),
	})
}

// MetricsJSON serves the metrics snapshot as JSON.
func (h *Handlers) MetricsJSON(c *gin.Context) {
	snap := h.metrics.GetSnapshot()
	data, err := sonic.Marshal(snap)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to marshal metrics"})
		return
	}
	c.Data(http.StatusOK, "application/json", data)
}

func (h *Handlers) renderPage(c *gin.Context, page render.Page) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := h.renderer.Render(c.Writer, page); err != nil {
		h.logger.Error("failed to render page", zap.Error(err))
	}
}

// errorMessage maps the error taxonomy to user-visible page messages.
func (h *Handlers) errorMessage(err error) string {
	var sizeErr *fetch.SizeLimitError
	var typeErr *fetch.UnsupportedTypeError
	var upErr *fetch.UpstreamError
	var valErr *fetch.ValidationError

	switch {
	case errors.As(err, &sizeErr):
		return "File exceeds 10 MB limit"
	case errors.As(err, &typeErr):
		if typeErr.ContentType == "" {
			return "Upstream did not declare a content type"
		}
		return "Unsupported content type: " + h.renderer.SanitizeLabel(typeErr.ContentType)
	case errors.As(err, &upErr):
		if upErr.StatusCode != 0 {
			return fmt.Sprintf("Upstream returned status %d", upErr.StatusCode)
		}
		return "Could not fetch URL: the upstream request failed"
	case errors.As(err, &valErr):
		return "Please enter an absolute http(s) URL"
	default:
		return "Unexpected error while fetching the URL"
	}
}

func transferOutcome(err error) string {
	var sizeErr *fetch.SizeLimitError
	if errors.As(err, &sizeErr) {
		return monitoring.OutcomeSizeLimit
	}
	return monitoring.OutcomeUpstreamError
}
