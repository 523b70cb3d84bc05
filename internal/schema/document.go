package schema

// FieldValue is one typed value attached to a document under a field
// name. Repeated values under the same field model array expansion.
type FieldValue struct {
	Field string
	Value any
}

// Document is a typed, schema-conformant record ready for insertion
// into the index. Field values are kept in insertion order.
type Document struct {
	values []FieldValue
}

// Add appends a typed value under the given field.
func (d *Document) Add(field string, value any) {
	d.values = append(d.values, FieldValue{Field: field, Value: value})
}

// Len returns the number of field values.
func (d *Document) Len() int {
	return len(d.values)
}

// FieldValues returns all field values in insertion order.
func (d *Document) FieldValues() []FieldValue {
	return d.values
}

// Values returns every value stored under the given field.
func (d *Document) Values(field string) []any {
	var out []any
	for _, fv := range d.values {
		if fv.Field == field {
			out = append(out, fv.Value)
		}
	}
	return out
}

// ID resolves the document's upsert identity: it exists only when the
// document carries exactly one uint64 value under the id field.
func (d *Document) ID() (uint64, bool) {
	vals := d.Values(IDFieldName)
	if len(vals) != 1 {
		return 0, false
	}
	id, ok := vals[0].(uint64)
	return id, ok
}

// ToMap flattens the document for the engine: single values map
// directly, repeated values collapse into a slice under their field.
func (d *Document) ToMap() map[string]any {
	out := make(map[string]any, len(d.values))
	for _, fv := range d.values {
		existing, ok := out[fv.Field]
		if !ok {
			out[fv.Field] = fv.Value
			continue
		}
		if list, isList := existing.([]any); isList {
			out[fv.Field] = append(list, fv.Value)
		} else {
			out[fv.Field] = []any{existing, fv.Value}
		}
	}
	return out
}
