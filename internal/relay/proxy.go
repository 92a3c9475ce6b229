package relay

import (
	"context"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/fetchview/fetchview/internal/fetch"
	"github.com/fetchview/fetchview/internal/logging"
)

// Proxy forwards an upstream body to a downstream HTTP response chunk by
// chunk while enforcing the transfer cap. Chunk boundaries are not preserved,
// byte order and fidelity are.
type Proxy struct {
	limit  int64
	logger *logging.Logger
}

// NewProxy creates a proxy with the given cap. Callers outside tests pass
// MaxTransferSize.
func NewProxy(limit int64, logger *logging.Logger) *Proxy {
	return &Proxy{limit: limit, logger: logger}
}

// Relay streams the upstream body into w.
//
// Before the first byte is forwarded the upstream content type must classify
// as Image; otherwise no bytes are written and an UnsupportedTypeError is
// returned for the caller to map to 415. The upstream Content-Type is set on
// w before writing begins and cannot change afterwards.
//
// Each chunk is flushed as it is written, so downstream backpressure pauses
// upstream reads: a slow client cannot cause unbounded buffering. Reads stop
// when ctx is canceled (inbound client disconnect).
//
// Once the running total would exceed the cap the fitting prefix of the
// final chunk is forwarded, so exactly the cap's worth of bytes reach the
// client, and the downstream connection is then torn down without a clean
// end-of-body marker: the client observes a truncated transfer, never a
// valid short payload. The same teardown happens when the upstream fails
// after bytes are in flight. The byte count returned never exceeds the cap.
func (p *Proxy) Relay(ctx context.Context, w http.ResponseWriter, upstream *fetch.Response) (int64, error) {
	if fetch.Classify(upstream.ContentType) != fetch.Image {
		return 0, &fetch.UnsupportedTypeError{ContentType: upstream.ContentType}
	}

	w.Header().Set("Content-Type", upstream.ContentType)

	flusher, _ := w.(http.Flusher)
	chunk := make([]byte, chunkSize)
	var written int64

	for {
		select {
		case <-ctx.Done():
			p.logger.Debug("client disconnected mid-relay, stopping upstream reads",
				zap.Int64("bytes_written", written),
			)
			return written, ctx.Err()
		default:
		}

		n, err := upstream.Body.Read(chunk)
		if n > 0 {
			if written+int64(n) > p.limit {
				// Forward the fitting prefix so exactly the cap's worth of
				// bytes reach the client, then break the transfer.
				observed := written + int64(n)
				if keep := p.limit - written; keep > 0 {
					if _, werr := w.Write(chunk[:keep]); werr != nil {
						return written, werr
					}
					written += keep
					if flusher != nil {
						flusher.Flush()
					}
				}
				p.logger.Warn("transfer cap exceeded mid-stream, aborting relay",
					zap.Int64("limit", p.limit),
					zap.Int64("observed", observed),
				)
				p.abort(w)
				return written, &fetch.SizeLimitError{Limit: p.limit, Observed: observed}
			}
			if _, werr := w.Write(chunk[:n]); werr != nil {
				return written, werr
			}
			written += int64(n)
			if flusher != nil {
				flusher.Flush()
			}
		}
		if err == io.EOF {
			return written, nil
		}
		if err != nil {
			if written == 0 {
				// Nothing sent yet; the caller can still answer with a
				// proper error status.
				return 0, &fetch.UpstreamError{Err: err}
			}
			p.logger.Warn("upstream failed mid-relay, aborting",
				zap.Int64("bytes_written", written),
				zap.Error(err),
			)
			p.abort(w)
			return written, &fetch.UpstreamError{Err: err}
		}
	}
}

// abort tears down the downstream connection without a terminating chunk.
// HTTP framing cannot downgrade to an error status once the body is in
// flight; closing the socket is the only way to signal an incomplete
// transfer.
func (p *Proxy) abort(w http.ResponseWriter) {
	if hj, ok := w.(http.Hijacker); ok {
		if conn, _, err := hj.Hijack(); err == nil {
			conn.Close()
			return
		}
	}
	panic(http.ErrAbortHandler)
}
