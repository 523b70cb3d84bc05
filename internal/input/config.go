// Package input turns raw JSON/YAML/XML text into schema-typed
// documents: parse into generic records, apply declared field
// renames and type conversions, then resolve every field against the
// index schema.
package input

import (
	"path/filepath"
	"strings"
)

// Format identifies the wire format of one ingestion payload.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatXML  Format = "xml"
)

// ValueType classifies a generic value for declared conversions.
type ValueType string

const (
	TypeString ValueType = "string"
	TypeNumber ValueType = "number"
)

// Mapping renames a source field to a target field. When the target
// already exists in the record the mapped value wins.
type Mapping struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// Conversion converts a field's value between the String and Number
// representations. A field absent from the record is a no-op; a value
// whose representation does not match From is skipped silently.
type Conversion struct {
	Field string    `yaml:"field"`
	From  ValueType `yaml:"from"`
	To    ValueType `yaml:"to"`
}

// Config declares how one ingestion payload is parsed and normalized.
// It is immutable and scoped to a single Add/Update call. Mappings
// and conversions apply in declared order, so results are
// deterministic for a fixed config.
type Config struct {
	Format      Format
	Mappings    []Mapping
	Conversions []Conversion
}

// NewConfig builds an input config.
func NewConfig(format Format, mappings []Mapping, conversions []Conversion) Config {
	return Config{Format: format, Mappings: mappings, Conversions: conversions}
}

// FormatForPath maps a file extension to its input format.
func FormatForPath(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, true
	case ".yaml", ".yml":
		return FormatYAML, true
	case ".xml":
		return FormatXML, true
	default:
		return "", false
	}
}
