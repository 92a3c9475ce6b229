package relay

import (
	"bytes"
	"context"
	"io"
	"strings"

	"github.com/saintfish/chardet"
	"golang.org/x/net/html/charset"

	"github.com/fetchview/fetchview/internal/fetch"
)

// MaxTransferSize caps any single relayed body, declared or observed, at
// 10 MiB. Process-wide constant, not configuration.
const MaxTransferSize = 10 * 1024 * 1024

// chunkSize is the read granularity for both the collector and the proxy.
const chunkSize = 32 * 1024

// Collector accumulates an upstream body in memory while enforcing a byte
// cap, then decodes the result as UTF-8 text.
type Collector struct {
	limit int64
}

// NewCollector creates a collector with the given cap. Callers outside tests
// pass MaxTransferSize.
func NewCollector(limit int64) *Collector {
	return &Collector{limit: limit}
}

// Limit returns the collector's byte cap.
func (c *Collector) Limit() int64 { return c.limit }

// Collect consumes src to completion. The moment the running total exceeds
// the cap it stops reading and returns a SizeLimitError; accumulated bytes
// are discarded, no partial text is ever returned. On success the buffered
// bytes are decoded to UTF-8 (see decodeText).
func (c *Collector) Collect(ctx context.Context, src io.Reader) (string, error) {
	var buf bytes.Buffer
	chunk := make([]byte, chunkSize)
	var total int64

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		n, err := src.Read(chunk)
		if n > 0 {
			total += int64(n)
			if total > c.limit {
				return "", &fetch.SizeLimitError{Limit: c.limit, Observed: total}
			}
			buf.Write(chunk[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", &fetch.UpstreamError{Err: err}
		}
	}

	return decodeText(buf.Bytes()), nil
}

// decodeText converts raw bytes to UTF-8 text. The charset is detected with
// chardet and converted through x/net/html/charset; byte sequences that are
// invalid in the detected encoding come out as U+FFFD. When detection or
// conversion fails the bytes are taken as UTF-8 with invalid sequences
// replaced by U+FFFD. That replacement policy is the documented decode
// behavior: malformed input never aborts a render.
func decodeText(data []byte) string {
	if len(data) == 0 {
		return ""
	}

	result, err := chardet.NewTextDetector().DetectBest(data)
	if err == nil && result.Charset != "" && !strings.EqualFold(result.Charset, "utf-8") {
		if reader, rerr := charset.NewReaderLabel(result.Charset, bytes.NewReader(data)); rerr == nil {
			if converted, cerr := io.ReadAll(reader); cerr == nil {
				return strings.ToValidUTF8(string(converted), "�")
			}
		}
	}

	return strings.ToValidUTF8(string(data), "�")
}
