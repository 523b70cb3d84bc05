package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	qerrors "github.com/quarrysearch/quarry/internal/errors"
)

func testSchema(t *testing.T) *Schema {
	t.Helper()
	s, err := New([]Field{
		{Name: "id", Kind: KindUint, Stored: true, Indexed: true},
		{Name: "title", Kind: KindText, Stored: true, Indexed: true},
		{Name: "content", Kind: KindText, Stored: true, Indexed: true},
		{Name: "rating", Kind: KindFloat, Stored: true},
	})
	require.NoError(t, err)
	return s
}

func TestNew_RejectsInvalidDeclarations(t *testing.T) {
	tests := []struct {
		name   string
		fields []Field
	}{
		{name: "empty schema", fields: nil},
		{name: "empty field name", fields: []Field{{Name: "", Kind: KindText}}},
		{name: "duplicate field", fields: []Field{
			{Name: "a", Kind: KindText}, {Name: "a", Kind: KindUint},
		}},
		{name: "unknown kind", fields: []Field{{Name: "a", Kind: "blob"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.fields)
			require.Error(t, err)
			assert.True(t, qerrors.IsCode(err, qerrors.ErrCodeConfigInvalid))
		})
	}
}

func TestFields_PreservesDeclaredOrder(t *testing.T) {
	s := testSchema(t)

	var names []string
	for _, f := range s.Fields() {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"id", "title", "content", "rating"}, names)
}

func TestIDField_RequiresUintKind(t *testing.T) {
	s := testSchema(t)
	f, ok := s.IDField()
	require.True(t, ok)
	assert.Equal(t, KindUint, f.Kind)

	noID, err := New([]Field{{Name: "title", Kind: KindText}})
	require.NoError(t, err)
	_, ok = noID.IDField()
	assert.False(t, ok)

	textID, err := New([]Field{{Name: "id", Kind: KindText}})
	require.NoError(t, err)
	_, ok = textID.IDField()
	assert.False(t, ok)
}

func TestCoerce_Uint(t *testing.T) {
	f := Field{Name: "id", Kind: KindUint}

	tests := []struct {
		name    string
		value   any
		want    uint64
		wantErr bool
	}{
		{name: "json number", value: json.Number("1024"), want: 1024},
		{name: "int", value: 42, want: 42},
		{name: "int64", value: int64(7), want: 7},
		{name: "float64 integral", value: float64(13), want: 13},
		{name: "uint64", value: uint64(99), want: 99},
		{name: "negative", value: -1, wantErr: true},
		{name: "fractional", value: 1.5, wantErr: true},
		{name: "string", value: "1024", wantErr: true},
		{name: "non-numeric json number", value: json.Number("abc"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.Coerce(tt.value)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, qerrors.IsCode(err, qerrors.ErrCodeSchemaValue))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCoerce_Text(t *testing.T) {
	f := Field{Name: "title", Kind: KindText}

	got, err := f.Coerce("hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", got)

	_, err = f.Coerce(json.Number("3"))
	assert.Error(t, err)
}

func TestCoerce_Float(t *testing.T) {
	f := Field{Name: "rating", Kind: KindFloat}

	got, err := f.Coerce(json.Number("4.5"))
	require.NoError(t, err)
	assert.Equal(t, 4.5, got)

	got, err = f.Coerce(int64(3))
	require.NoError(t, err)
	assert.Equal(t, 3.0, got)

	_, err = f.Coerce("4.5")
	assert.Error(t, err)
}

func TestDocument_IDResolution(t *testing.T) {
	t.Run("single uint id resolves", func(t *testing.T) {
		var doc Document
		doc.Add("id", uint64(1024))
		doc.Add("title", "t")

		id, ok := doc.ID()
		require.True(t, ok)
		assert.Equal(t, uint64(1024), id)
	})

	t.Run("missing id does not resolve", func(t *testing.T) {
		var doc Document
		doc.Add("title", "t")
		_, ok := doc.ID()
		assert.False(t, ok)
	})

	t.Run("repeated id does not resolve", func(t *testing.T) {
		var doc Document
		doc.Add("id", uint64(1))
		doc.Add("id", uint64(2))
		_, ok := doc.ID()
		assert.False(t, ok)
	})

	t.Run("non-uint id does not resolve", func(t *testing.T) {
		var doc Document
		doc.Add("id", "1024")
		_, ok := doc.ID()
		assert.False(t, ok)
	})
}

func TestDocument_ToMapCollapsesRepeatedFields(t *testing.T) {
	var doc Document
	doc.Add("tag", "a")
	doc.Add("tag", "b")
	doc.Add("title", "t")

	m := doc.ToMap()
	assert.Equal(t, []any{"a", "b"}, m["tag"])
	assert.Equal(t, "t", m["title"])
}
