package fetch

import "fmt"

// UpstreamError reports a failed outbound fetch: either the transport could
// not complete the request, or the upstream answered with a non-2xx status.
// The status is carried for display, it is not re-raised as a generic error.
type UpstreamError struct {
	URL        string
	StatusCode int   // non-zero when the upstream answered with a non-2xx status
	Err        error // non-nil for transport failures (DNS, connection, TLS)
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("upstream returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("upstream request failed: %v", e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// SizeLimitError reports a payload over the transfer cap, either declared via
// Content-Length before any body bytes were read, or observed mid-transfer.
type SizeLimitError struct {
	Limit    int64
	Declared int64 // Content-Length fast-path; zero when detected mid-transfer
	Observed int64 // running total at the moment of failure; zero on fast-path
}

func (e *SizeLimitError) Error() string {
	if e.Declared > 0 {
		return fmt.Sprintf("declared size %d exceeds limit of %d bytes", e.Declared, e.Limit)
	}
	return fmt.Sprintf("transfer exceeded limit of %d bytes", e.Limit)
}

// UnsupportedTypeError reports a content type that is neither text-like nor
// image-like.
type UnsupportedTypeError struct {
	ContentType string
}

func (e *UnsupportedTypeError) Error() string {
	if e.ContentType == "" {
		return "upstream did not declare a content type"
	}
	return fmt.Sprintf("unsupported content type %q", e.ContentType)
}

// ValidationError reports a missing or malformed request parameter.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid request: %s %s", e.Field, e.Reason)
}
