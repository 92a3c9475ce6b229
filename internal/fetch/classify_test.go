package fetch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		contentType string
		want        Classification
	}{
		{"text/plain", Text},
		{"text/html", Text},
		{"text/css", Text},
		{"text/plain; charset=utf-8", Text},
		{"TEXT/PLAIN", Text},
		{"application/json", Text},
		{"application/json; charset=utf-8", Text},
		{"application/xml", Text},
		{"application/javascript", Text},
		{"image/png", Image},
		{"image/jpeg", Image},
		{"image/svg+xml", Image},
		{"IMAGE/GIF", Image},
		{"image/webp; some=param", Image},
		{"application/octet-stream", Unsupported},
		{"application/pdf", Unsupported},
		{"audio/mpeg", Unsupported},
		{"video/mp4", Unsupported},
		{"application/jsonx", Unsupported},
		{"", Unsupported},
	}

	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.contentType))
		})
	}
}

func TestClassifyTextWinsOverImage(t *testing.T) {
	// Text patterns are evaluated first; a "text/*" type is Text even if an
	// image pattern could somehow match too.
	assert.Equal(t, Text, Classify("text/x-image-description"))
}

func TestClassificationString(t *testing.T) {
	assert.Equal(t, "text", Text.String())
	assert.Equal(t, "image", Image.String())
	assert.Equal(t, "unsupported", Unsupported.String())
}
