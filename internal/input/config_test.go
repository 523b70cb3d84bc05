package input

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatForPath(t *testing.T) {
	tests := []struct {
		path   string
		format Format
		ok     bool
	}{
		{path: "data/books.json", format: FormatJSON, ok: true},
		{path: "books.yaml", format: FormatYAML, ok: true},
		{path: "books.yml", format: FormatYAML, ok: true},
		{path: "export.XML", format: FormatXML, ok: true},
		{path: "notes.txt", ok: false},
		{path: "noext", ok: false},
		{path: "dir.json/file", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			format, ok := FormatForPath(tt.path)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.format, format)
		})
	}
}
