package input

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/clbanning/mxj/v2"
	"github.com/siongui/gojianfan"
	"gopkg.in/yaml.v3"

	qerrors "github.com/quarrysearch/quarry/internal/errors"
)

// Record is one normalized record: field name to generic JSON-like
// value (string, number, bool, array, nested object).
type Record = map[string]any

// parsePrefixLen bounds the input excerpt carried by parse errors.
const parsePrefixLen = 40

// Normalize parses raw text in the declared format into records and
// applies the config's field mappings and conversions. With simplify
// set, the whole input is folded from traditional to simplified
// Chinese before parsing.
func Normalize(text string, cfg Config, simplify bool) ([]Record, error) {
	if simplify {
		text = gojianfan.T2S(text)
	}

	records, err := parseRecords(text, cfg.Format)
	if err != nil {
		return nil, err
	}

	for _, rec := range records {
		applyMappings(rec, cfg.Mappings)
		if err := applyConversions(rec, cfg.Conversions); err != nil {
			return nil, err
		}
	}
	return records, nil
}

// parseRecords parses text as an array of records, falling back to a
// single record object. Only when both fail does it report a
// ParseError carrying a bounded prefix of the input.
func parseRecords(text string, format Format) ([]Record, error) {
	if format == FormatXML {
		return parseXMLRecords(text)
	}

	var many []map[string]any
	if err := parseInto(text, format, &many); err == nil {
		records := make([]Record, 0, len(many))
		for _, m := range many {
			records = append(records, m)
		}
		return records, nil
	}

	var one map[string]any
	if err := parseInto(text, format, &one); err != nil {
		return nil, qerrors.ParseError("input is not valid "+string(format), inputPrefix(text))
	}
	return []Record{one}, nil
}

func parseInto(text string, format Format, out any) error {
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(strings.NewReader(text))
		dec.UseNumber()
		if err := dec.Decode(out); err != nil {
			return err
		}
		if dec.More() {
			return qerrors.Newf(qerrors.ErrCodeParse, "trailing content after JSON value")
		}
		return nil
	case FormatYAML:
		return yaml.Unmarshal([]byte(text), out)
	default:
		return qerrors.Newf(qerrors.ErrCodeParse, "unknown input format %q", format)
	}
}

// parseXMLRecords maps XML onto the record model: a root element
// holding one repeated child element is an array of records, any
// other root is a single record. Scalars are cast, so numeric text
// arrives as float64.
func parseXMLRecords(text string) ([]Record, error) {
	m, err := mxj.NewMapXml([]byte(text), true)
	if err != nil {
		return nil, qerrors.ParseError("input is not valid xml", inputPrefix(text))
	}
	root := map[string]any(m)
	if len(root) != 1 {
		return []Record{root}, nil
	}

	var inner any
	for _, v := range root {
		inner = v
	}
	obj, ok := inner.(map[string]any)
	if !ok {
		return []Record{root}, nil
	}
	if len(obj) == 1 {
		for _, v := range obj {
			if records, ok := recordSlice(v); ok {
				return records, nil
			}
			if rec, ok := v.(map[string]any); ok {
				return []Record{rec}, nil
			}
		}
	}
	return []Record{obj}, nil
}

func recordSlice(v any) ([]Record, bool) {
	list, ok := v.([]any)
	if !ok {
		return nil, false
	}
	records := make([]Record, 0, len(list))
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, false
		}
		records = append(records, m)
	}
	return records, len(records) > 0
}

// applyMappings renames source fields to their targets in declared
// order. A source absent from the record is a no-op; a collision on
// the target is last-write-wins.
func applyMappings(rec Record, mappings []Mapping) {
	for _, m := range mappings {
		v, ok := rec[m.From]
		if !ok {
			continue
		}
		delete(rec, m.From)
		rec[m.To] = v
	}
}

// applyConversions rewrites field values between the String and
// Number representations. Number→String always succeeds for numeric
// values; String→Number on non-numeric text is a hard
// ConversionError that aborts the record. Any other mismatch between
// the declared source type and the actual value is skipped.
func applyConversions(rec Record, conversions []Conversion) error {
	for _, c := range conversions {
		v, ok := rec[c.Field]
		if !ok {
			continue
		}
		switch {
		case c.From == TypeNumber && c.To == TypeString:
			if s, numeric := numberToString(v); numeric {
				rec[c.Field] = s
			}
		case c.From == TypeString && c.To == TypeNumber:
			s, isString := v.(string)
			if !isString {
				continue
			}
			n, err := parseNumber(s)
			if err != nil {
				return qerrors.ConversionError(c.Field, err)
			}
			rec[c.Field] = n
		}
	}
	return nil
}

// numberToString renders a numeric value as canonical decimal text.
func numberToString(v any) (string, bool) {
	switch n := v.(type) {
	case json.Number:
		return n.String(), true
	case int:
		return strconv.FormatInt(int64(n), 10), true
	case int64:
		return strconv.FormatInt(n, 10), true
	case uint64:
		return strconv.FormatUint(n, 10), true
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64), true
	default:
		return "", false
	}
}

func parseNumber(s string) (json.Number, error) {
	if _, err := strconv.ParseInt(s, 10, 64); err == nil {
		return json.Number(s), nil
	}
	if _, err := strconv.ParseFloat(s, 64); err == nil {
		return json.Number(s), nil
	}
	return "", qerrors.Newf(qerrors.ErrCodeConversion, "%q is not numeric", s)
}

func inputPrefix(s string) string {
	runes := []rune(s)
	if len(runes) <= parsePrefixLen {
		return s
	}
	return string(runes[:parsePrefixLen]) + "..."
}
