package indexer

import (
	"github.com/quarrysearch/quarry/internal/input"
	"github.com/quarrysearch/quarry/internal/pipeline"
	"github.com/quarrysearch/quarry/internal/schema"
)

// Re-exported input types so callers only import this package.
type (
	// InputConfig declares the format, field mapping and conversions
	// of one ingestion payload.
	InputConfig = input.Config
	// Format identifies an input wire format.
	Format = input.Format
	// Mapping renames a source field to a target field.
	Mapping = input.Mapping
	// Conversion converts a field between string and number.
	Conversion = input.Conversion
	// ValueType classifies a value for conversions.
	ValueType = input.ValueType
)

// Input formats and conversion value types.
const (
	FormatJSON = input.FormatJSON
	FormatYAML = input.FormatYAML
	FormatXML  = input.FormatXML

	TypeString = input.TypeString
	TypeNumber = input.TypeNumber
)

// NewInputConfig builds an input config.
func NewInputConfig(format Format, mappings []Mapping, conversions []Conversion) InputConfig {
	return input.NewConfig(format, mappings, conversions)
}

// Updater is a producer-side handle on the mutation pipeline. A
// successful Add/Update means "accepted into the pipeline": documents
// become searchable only after Commit and a subsequent Reload.
type Updater struct {
	coord    *pipeline.Coordinator
	schema   *schema.Schema
	simplify bool
}

// Add normalizes the raw text and enqueues an insert-only mutation.
// Parse, conversion and schema errors are returned synchronously and
// never reach the pipeline.
func (u *Updater) Add(text string, cfg InputConfig) error {
	docs, err := u.build(text, cfg)
	if err != nil {
		return err
	}
	return u.coord.Submit(pipeline.Create(docs))
}

// Update normalizes the raw text and enqueues an upsert mutation:
// documents carrying a resolvable id replace any previous document
// with that id, the rest behave as plain inserts.
func (u *Updater) Update(text string, cfg InputConfig) error {
	docs, err := u.build(text, cfg)
	if err != nil {
		return err
	}
	return u.coord.Submit(pipeline.Update(docs))
}

// Commit enqueues a commit, making everything queued ahead of it
// durable and visible to readers after the next Reload.
func (u *Updater) Commit() error {
	return u.coord.Submit(pipeline.Commit())
}

// Clear enqueues deletion of all documents; it takes effect for
// readers after a following Commit.
func (u *Updater) Clear() error {
	return u.coord.Submit(pipeline.Clear())
}

func (u *Updater) build(text string, cfg InputConfig) ([]*schema.Document, error) {
	records, err := input.Normalize(text, cfg, u.simplify)
	if err != nil {
		return nil, err
	}
	return input.BuildDocuments(records, u.schema)
}
