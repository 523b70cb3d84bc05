// Package config loads and validates Quarry index configuration from
// YAML.
package config

import (
	"os"

	"gopkg.in/yaml.v3"

	qerrors "github.com/quarrysearch/quarry/internal/errors"
	"github.com/quarrysearch/quarry/internal/logging"
	"github.com/quarrysearch/quarry/internal/schema"
)

// LanguageMode selects the text analysis chain.
type LanguageMode string

const (
	// LangWestern uses the engine's standard analyzer.
	LangWestern LanguageMode = "western"
	// LangChinese uses the CJK analyzer, optionally folding
	// traditional input to simplified before parsing.
	LangChinese LanguageMode = "chinese"
)

// TextLanguage configures the language mode of text fields.
type TextLanguage struct {
	Mode LanguageMode `yaml:"mode"`
	// Simplify folds traditional Chinese input to simplified before
	// parsing. Only meaningful in chinese mode.
	Simplify bool `yaml:"simplify"`
}

// IndexConfig is the immutable configuration of one index instance.
type IndexConfig struct {
	// Path is the index directory. Empty means an ephemeral
	// in-memory index.
	Path string `yaml:"path"`

	// Fields declares the index schema.
	Fields []schema.Field `yaml:"schema"`

	// TextLanguage selects the analyzer for text fields.
	TextLanguage TextLanguage `yaml:"text_language"`

	// WriterMemory is the staged-write memory budget in bytes. The
	// writer warns when a pending batch grows past it.
	WriterMemory uint64 `yaml:"writer_memory"`

	// Logging configures the library logger.
	Logging logging.Config `yaml:"logging"`
}

// DefaultWriterMemory is the staged-write budget applied when the
// config does not set one.
const DefaultWriterMemory = 100_000_000

// Default returns a config with defaults applied; the schema must
// still be supplied.
func Default() IndexConfig {
	return IndexConfig{
		TextLanguage: TextLanguage{Mode: LangWestern},
		WriterMemory: DefaultWriterMemory,
		Logging:      logging.DefaultConfig(),
	}
}

// FromString parses a YAML config document.
func FromString(text string) (IndexConfig, error) {
	cfg := Default()
	if err := yaml.Unmarshal([]byte(text), &cfg); err != nil {
		return cfg, qerrors.Wrap(qerrors.ErrCodeConfigInvalid, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Load reads a YAML config file.
func Load(path string) (IndexConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Default(), qerrors.Wrap(qerrors.ErrCodeConfigNotFound, err)
	}
	return FromString(string(data))
}

// Validate checks the config for consistency.
func (c *IndexConfig) Validate() error {
	switch c.TextLanguage.Mode {
	case LangWestern, LangChinese:
	default:
		return qerrors.Newf(qerrors.ErrCodeConfigInvalid,
			"unknown text language mode %q", c.TextLanguage.Mode)
	}
	if c.WriterMemory == 0 {
		c.WriterMemory = DefaultWriterMemory
	}
	// schema.New reports empty or malformed field declarations.
	_, err := schema.New(c.Fields)
	return err
}

// BuildSchema constructs the schema from the declared fields.
func (c *IndexConfig) BuildSchema() (*schema.Schema, error) {
	return schema.New(c.Fields)
}

// Simplify reports whether input text should be folded to simplified
// Chinese before parsing.
func (c *IndexConfig) Simplify() bool {
	return c.TextLanguage.Mode == LangChinese && c.TextLanguage.Simplify
}
