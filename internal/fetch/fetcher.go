package fetch

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/fetchview/fetchview/internal/logging"
)

// DefaultUserAgent identifies outbound requests.
const DefaultUserAgent = "fetchview/1.0"

// Config holds outbound client settings.
type Config struct {
	// Timeout bounds the whole outbound request. Zero disables the client
	// timeout; a hung upstream then hangs the inbound request with it.
	Timeout   time.Duration
	UserAgent string
}

// Fetcher performs single-attempt outbound GETs with redirect following and
// hands the raw body stream to the caller. The body is consumed exactly once,
// by either the text collector or the stream proxy.
type Fetcher struct {
	client *resty.Client
	logger *logging.Logger
}

// Response is the upstream answer with its body still unread.
type Response struct {
	StatusCode    int
	Header        http.Header
	Body          io.ReadCloser
	ContentType   string
	ContentLength int64 // -1 when the upstream did not declare a length
	FinalURL      string
}

// Close releases the upstream connection.
func (r *Response) Close() error {
	if r.Body == nil {
		return nil
	}
	return r.Body.Close()
}

// New creates a Fetcher. Redirects are followed (resty default policy),
// retries are disabled: a fetch is a single attempt.
func New(cfg Config, logger *logging.Logger) *Fetcher {
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}

	client := resty.New().
		SetRetryCount(0).
		SetDoNotParseResponse(true).
		SetHeader("User-Agent", cfg.UserAgent).
		SetHeader("Accept", "*/*")
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}

	return &Fetcher{client: client, logger: logger}
}

// Option adjusts a single fetch.
type Option func(*fetchOptions)

type fetchOptions struct {
	declaredLimit int64
}

// WithDeclaredLimit rejects the response before reading any body bytes when
// the upstream declares a Content-Length above limit. The collect-then-render
// flow uses this fast path; the stream proxy skips it and relies on the
// observed cap so oversized transfers truncate instead of erroring.
func WithDeclaredLimit(limit int64) Option {
	return func(o *fetchOptions) { o.declaredLimit = limit }
}

// Fetch performs the outbound GET. The returned Response owns a live body
// stream; the caller must Close it.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, opts ...Option) (*Response, error) {
	var options fetchOptions
	for _, opt := range opts {
		opt(&options)
	}

	target, err := url.Parse(rawURL)
	if err != nil || (target.Scheme != "http" && target.Scheme != "https") {
		return nil, &ValidationError{Field: "url", Reason: "must be an absolute http(s) URL"}
	}

	resp, err := f.client.R().SetContext(ctx).Get(rawURL)
	if err != nil {
		f.logger.Warn("upstream fetch failed",
			zap.String("url", rawURL),
			zap.Error(err),
		)
		return nil, &UpstreamError{URL: rawURL, Err: err}
	}

	raw := resp.RawResponse
	body := resp.RawBody()

	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		body.Close()
		f.logger.Info("upstream returned non-success status",
			zap.String("url", rawURL),
			zap.Int("status", resp.StatusCode()),
		)
		return nil, &UpstreamError{URL: rawURL, StatusCode: resp.StatusCode()}
	}

	if options.declaredLimit > 0 && raw.ContentLength > options.declaredLimit {
		body.Close()
		return nil, &SizeLimitError{Limit: options.declaredLimit, Declared: raw.ContentLength}
	}

	finalURL := rawURL
	if raw.Request != nil && raw.Request.URL != nil {
		finalURL = raw.Request.URL.String()
	}

	f.logger.Debug("upstream fetch succeeded",
		zap.String("url", rawURL),
		zap.String("final_url", finalURL),
		zap.Int("status", resp.StatusCode()),
		zap.String("content_type", raw.Header.Get("Content-Type")),
		zap.Int64("content_length", raw.ContentLength),
	)

	return &Response{
		StatusCode:    resp.StatusCode(),
		Header:        raw.Header,
		Body:          body,
		ContentType:   raw.Header.Get("Content-Type"),
		ContentLength: raw.ContentLength,
		FinalURL:      finalURL,
	}, nil
}
