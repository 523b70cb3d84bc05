package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DerivesCategoryFromCode(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		category Category
	}{
		{name: "config", code: ErrCodeConfigInvalid, category: CategoryConfig},
		{name: "storage", code: ErrCodeStorage, category: CategoryStorage},
		{name: "parse", code: ErrCodeParse, category: CategoryInput},
		{name: "schema", code: ErrCodeSchemaMismatch, category: CategorySchema},
		{name: "pipeline", code: ErrCodePipelineClosed, category: CategoryPipeline},
		{name: "query", code: ErrCodeQueryParse, category: CategoryQuery},
		{name: "malformed code", code: "ERR", category: CategoryInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code, "boom", nil)
			assert.Equal(t, tt.category, err.Category)
		})
	}
}

func TestError_FormatsCodeAndMessage(t *testing.T) {
	err := Newf(ErrCodeParse, "bad input at line %d", 3)
	assert.Equal(t, "[ERR_301_PARSE] bad input at line 3", err.Error())
}

func TestWrap_PreservesCause(t *testing.T) {
	cause := fmt.Errorf("disk on fire")
	err := Wrap(ErrCodeStorage, cause)

	require.NotNil(t, err)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, cause, errors.Unwrap(err))
}

func TestWrap_NilReturnsNil(t *testing.T) {
	assert.Nil(t, Wrap(ErrCodeStorage, nil))
}

func TestIs_MatchesByCode(t *testing.T) {
	a := Newf(ErrCodeConversion, "field id")
	b := Newf(ErrCodeConversion, "field count")

	assert.ErrorIs(t, a, b)
	assert.NotErrorIs(t, a, Newf(ErrCodeParse, "other"))
}

func TestIsCode_WalksWrappedChain(t *testing.T) {
	inner := ConversionError("id", fmt.Errorf("not a number"))
	outer := fmt.Errorf("normalize record 2: %w", inner)

	assert.True(t, IsCode(outer, ErrCodeConversion))
	assert.False(t, IsCode(outer, ErrCodeParse))
	assert.False(t, IsCode(nil, ErrCodeParse))
}

func TestWithDetail_AccumulatesDetails(t *testing.T) {
	err := SchemaMismatchError("author").WithDetail("record", "7")

	assert.Equal(t, "author", err.Details["field"])
	assert.Equal(t, "7", err.Details["record"])
}
