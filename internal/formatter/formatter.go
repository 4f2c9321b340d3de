// package formatter renders output records as JSON, CSV, Markdown or plain text
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/desertthunder/crates/internal/shared"
)

// Tabular is implemented by records that can be rendered as a table row.
type Tabular interface {
	Columns() []string
	Values() []string
}

// Labeled is implemented by records with a one-line description.
type Labeled interface {
	Label() string
}

// Format is an output format accepted by --format.
type Format string

const (
	JSON     Format = "json"
	CSV      Format = "csv"
	Markdown Format = "markdown"
	Text     Format = "text"
)

// Formats lists the accepted formats in help order.
var Formats = []Format{JSON, CSV, Markdown, Text}

// ParseFormat validates a --format value. An empty value selects JSON.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return JSON, nil
	case JSON, CSV, Markdown, Text:
		return f, nil
	default:
		return "", fmt.Errorf("%w: format %q (want one of %v)", shared.ErrInvalidFlag, s, Formats)
	}
}

// Render serializes records in the given format.
//
// JSON output is a single array, even when records is empty.
func Render[T Tabular](records []T, format Format, pretty bool) ([]byte, error) {
	if records == nil {
		records = []T{}
	}

	switch format {
	case JSON, "":
		return ToJSON(records, pretty)
	case CSV:
		return ToCSV(records)
	case Markdown:
		return ToMarkdown(records)
	case Text:
		return ToText(records)
	default:
		return nil, fmt.Errorf("%w: format %q", shared.ErrInvalidFlag, format)
	}
}

// ToJSON marshals v followed by a newline.
func ToJSON(v any, pretty bool) ([]byte, error) {
	data, err := shared.MarshalJSON(v, pretty)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return append(data, '\n'), nil
}

// ToCSV writes a header row from the record type's columns followed by one row per record.
func ToCSV[T Tabular](records []T) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	var zero T
	if err := writer.Write(zero.Columns()); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, r := range records {
		if err := writer.Write(r.Values()); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ToMarkdown renders records as a Markdown table.
func ToMarkdown[T Tabular](records []T) ([]byte, error) {
	var buf bytes.Buffer

	var zero T
	columns := zero.Columns()
	separators := make([]string, len(columns))
	for i := range separators {
		separators[i] = "---"
	}

	fmt.Fprintf(&buf, "| %s |\n", strings.Join(columns, " | "))
	fmt.Fprintf(&buf, "| %s |\n", strings.Join(separators, " | "))

	for _, r := range records {
		values := r.Values()
		for i, v := range values {
			values[i] = strings.ReplaceAll(v, "|", `\|`)
		}
		fmt.Fprintf(&buf, "| %s |\n", strings.Join(values, " | "))
	}

	return buf.Bytes(), nil
}

// ToText renders one numbered line per record.
func ToText[T Tabular](records []T) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Records: %d\n\n", len(records))
	for i, r := range records {
		line := strings.Join(r.Values(), " - ")
		if l, ok := any(r).(Labeled); ok {
			line = l.Label()
		}
		fmt.Fprintf(&buf, "%d. %s\n", i+1, line)
	}

	return buf.Bytes(), nil
}

// WriteFile writes rendered output to path.
func WriteFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
