package fetch

import "strings"

// Classification is the three-way routing decision derived from a declared
// content type.
type Classification int

const (
	Unsupported Classification = iota
	Text
	Image
)

func (c Classification) String() string {
	switch c {
	case Text:
		return "text"
	case Image:
		return "image"
	default:
		return "unsupported"
	}
}

// textTypes are non-"text/*" media types still rendered as text.
var textTypes = map[string]bool{
	"application/json":       true,
	"application/xml":        true,
	"application/javascript": true,
}

// Classify derives a Classification from a Content-Type header value.
// Parameters after ";" are ignored, matching is case-insensitive, and a
// missing header classifies as Unsupported. Text patterns win over image
// patterns; in practice the prefixes never overlap.
func Classify(contentType string) Classification {
	mt := strings.TrimSpace(strings.ToLower(contentType))
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}

	switch {
	case strings.HasPrefix(mt, "text/") || textTypes[mt]:
		return Text
	case strings.HasPrefix(mt, "image/"):
		return Image
	default:
		return Unsupported
	}
}
