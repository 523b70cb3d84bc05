// Package errors provides structured error handling for Quarry.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: Storage and I/O errors
//   - 3XX: Input parsing and conversion errors
//   - 4XX: Schema and validation errors
//   - 5XX: Pipeline and internal errors
//   - 6XX: Query errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryStorage indicates index storage and I/O errors.
	CategoryStorage Category = "STORAGE"
	// CategoryInput indicates input parsing and conversion errors.
	CategoryInput Category = "INPUT"
	// CategorySchema indicates schema resolution errors.
	CategorySchema Category = "SCHEMA"
	// CategoryPipeline indicates mutation pipeline errors.
	CategoryPipeline Category = "PIPELINE"
	// CategoryQuery indicates search query errors.
	CategoryQuery Category = "QUERY"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "ERR_102_CONFIG_INVALID"

	// Storage errors (200-299)
	ErrCodeStorage      = "ERR_201_STORAGE"
	ErrCodeCorruptIndex = "ERR_202_CORRUPT_INDEX"
	ErrCodeIndexLocked  = "ERR_203_INDEX_LOCKED"
	ErrCodeIndexClosed  = "ERR_204_INDEX_CLOSED"

	// Input errors (300-399)
	ErrCodeParse      = "ERR_301_PARSE"
	ErrCodeConversion = "ERR_302_CONVERSION"

	// Schema errors (400-499)
	ErrCodeSchemaMismatch = "ERR_401_SCHEMA_MISMATCH"
	ErrCodeSchemaValue    = "ERR_402_SCHEMA_VALUE"

	// Pipeline errors (500-599)
	ErrCodePipelineClosed = "ERR_501_PIPELINE_CLOSED"
	ErrCodeInternal       = "ERR_502_INTERNAL"

	// Query errors (600-699)
	ErrCodeQueryParse = "ERR_601_QUERY_PARSE"
)

// categoryFromCode derives the category from an error code prefix.
func categoryFromCode(code string) Category {
	if len(code) < 5 {
		return CategoryInternal
	}
	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryStorage
	case '3':
		return CategoryInput
	case '4':
		return CategorySchema
	case '5':
		return CategoryPipeline
	case '6':
		return CategoryQuery
	default:
		return CategoryInternal
	}
}
