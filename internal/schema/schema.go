// Package schema defines the field schema a Quarry index is built
// around: declared field kinds, per-field indexing options, and the
// coercion of generic JSON-like values into schema-typed field values.
package schema

import (
	"encoding/json"
	"math"
	"strconv"

	qerrors "github.com/quarrysearch/quarry/internal/errors"
)

// IDFieldName is the designated unique field used for upsert semantics.
const IDFieldName = "id"

// Kind is the declared value type of a schema field.
type Kind string

const (
	// KindText is full-text analyzed string content.
	KindText Kind = "text"
	// KindUint is an unsigned 64-bit integer.
	KindUint Kind = "uint"
	// KindInt is a signed 64-bit integer.
	KindInt Kind = "int"
	// KindFloat is a 64-bit float.
	KindFloat Kind = "float"
)

// Field declares one schema field.
type Field struct {
	Name    string `yaml:"name"`
	Kind    Kind   `yaml:"kind"`
	Stored  bool   `yaml:"stored"`
	Indexed bool   `yaml:"indexed"`
}

// Schema is an immutable set of field declarations, shared read-only
// by the normalizer, the pipeline, and the read path.
type Schema struct {
	fields map[string]Field
	order  []string
}

// New builds a schema from field declarations.
// Field names must be unique and kinds must be known.
func New(fields []Field) (*Schema, error) {
	s := &Schema{fields: make(map[string]Field, len(fields))}
	for _, f := range fields {
		if f.Name == "" {
			return nil, qerrors.Newf(qerrors.ErrCodeConfigInvalid, "schema field with empty name")
		}
		if _, dup := s.fields[f.Name]; dup {
			return nil, qerrors.Newf(qerrors.ErrCodeConfigInvalid, "duplicate schema field %q", f.Name)
		}
		switch f.Kind {
		case KindText, KindUint, KindInt, KindFloat:
		default:
			return nil, qerrors.Newf(qerrors.ErrCodeConfigInvalid, "schema field %q has unknown kind %q", f.Name, f.Kind)
		}
		s.fields[f.Name] = f
		s.order = append(s.order, f.Name)
	}
	if len(s.order) == 0 {
		return nil, qerrors.Newf(qerrors.ErrCodeConfigInvalid, "schema declares no fields")
	}
	return s, nil
}

// Field looks up a field declaration by name.
func (s *Schema) Field(name string) (Field, bool) {
	f, ok := s.fields[name]
	return f, ok
}

// Fields returns the declarations in declared order.
func (s *Schema) Fields() []Field {
	out := make([]Field, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.fields[name])
	}
	return out
}

// IDField returns the designated id field if the schema declares one
// with the uint kind.
func (s *Schema) IDField() (Field, bool) {
	f, ok := s.fields[IDFieldName]
	if !ok || f.Kind != KindUint {
		return Field{}, false
	}
	return f, true
}

// Coerce converts a generic JSON-like scalar into the field's typed
// value (string, uint64, int64 or float64). The value kinds handled
// here are the closed set produced by the input parsers.
func (f Field) Coerce(value any) (any, error) {
	switch f.Kind {
	case KindText:
		s, ok := value.(string)
		if !ok {
			return nil, valueError(f, value, "expected string")
		}
		return s, nil
	case KindUint:
		return coerceUint(f, value)
	case KindInt:
		return coerceInt(f, value)
	case KindFloat:
		return coerceFloat(f, value)
	default:
		return nil, valueError(f, value, "unknown kind")
	}
}

func coerceUint(f Field, value any) (any, error) {
	switch v := value.(type) {
	case json.Number:
		n, err := strconv.ParseUint(v.String(), 10, 64)
		if err != nil {
			return nil, valueError(f, value, "expected unsigned integer")
		}
		return n, nil
	case int:
		if v < 0 {
			return nil, valueError(f, value, "negative value")
		}
		return uint64(v), nil
	case int64:
		if v < 0 {
			return nil, valueError(f, value, "negative value")
		}
		return uint64(v), nil
	case uint64:
		return v, nil
	case float64:
		if v < 0 || v != math.Trunc(v) {
			return nil, valueError(f, value, "expected unsigned integer")
		}
		return uint64(v), nil
	default:
		return nil, valueError(f, value, "expected unsigned integer")
	}
}

func coerceInt(f Field, value any) (any, error) {
	switch v := value.(type) {
	case json.Number:
		n, err := strconv.ParseInt(v.String(), 10, 64)
		if err != nil {
			return nil, valueError(f, value, "expected integer")
		}
		return n, nil
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	case uint64:
		if v > math.MaxInt64 {
			return nil, valueError(f, value, "integer overflow")
		}
		return int64(v), nil
	case float64:
		if v != math.Trunc(v) {
			return nil, valueError(f, value, "expected integer")
		}
		return int64(v), nil
	default:
		return nil, valueError(f, value, "expected integer")
	}
}

func coerceFloat(f Field, value any) (any, error) {
	switch v := value.(type) {
	case json.Number:
		n, err := v.Float64()
		if err != nil {
			return nil, valueError(f, value, "expected number")
		}
		return n, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case uint64:
		return float64(v), nil
	case float64:
		return v, nil
	default:
		return nil, valueError(f, value, "expected number")
	}
}

func valueError(f Field, value any, reason string) error {
	return qerrors.Newf(qerrors.ErrCodeSchemaValue,
		"value %v incompatible with field %q (%s): %s", value, f.Name, f.Kind, reason).
		WithDetail("field", f.Name)
}
