package report

import (
	"encoding/json"
	"io"

	"github.com/abdullahbaluch/sitegraph/internal/model"
)

// JSONWriter outputs crawl results in JSON format.
// This format is designed for tool integration and programmatic processing.
//
// Design decision: We use standard encoding/json rather than a third-party
// JSON library because:
// 1. It's part of the standard library (no extra dependencies)
// 2. The model types already carry JSON tags describing the wire shape
// 3. It provides consistent behavior across Go versions
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	// When false, output is compact (no extra whitespace).
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with default indentation.
// This is a convenience wrapper for WithIndent("", "  ").
func WithPrettyPrint() JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = ""
		w.indentString = "  "
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter:   newBaseWriter(output),
		indent:       false,
		indentPrefix: "",
		indentString: "",
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the full crawl result in JSON format.
func (w *JSONWriter) Write(result *model.CrawlResult) (int, error) {
	// Ensure Stats is populated even if the stats step never ran
	if result.Stats == nil {
		result.Stats = model.NewCrawlStats(result.Pages)
	}

	return w.writeJSON(result)
}

// writeJSON marshals the given value to JSON and writes it to the output.
func (w *JSONWriter) writeJSON(v interface{}) (int, error) {
	var data []byte
	var err error

	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}

	if err != nil {
		return 0, err
	}

	// Add trailing newline for better terminal output
	data = append(data, '\n')

	return w.output.Write(data)
}

// JSONReport is a wrapper for the full result with additional metadata.
// This is used when writing the complete result with contextual information.
//
// Design decision: We wrap the result rather than modifying CrawlResult
// because this allows us to add output-specific fields without polluting
// the core data structure.
type JSONReport struct {
	// Version is the sitegraph version that generated this report.
	Version string `json:"version"`

	// Result is the full crawl result.
	Result *model.CrawlResult `json:"result"`

	// Stats is the aggregate statistics for quick access.
	Stats *model.CrawlStats `json:"stats,omitempty"`
}

// NewJSONReport creates a JSONReport wrapper with version information.
func NewJSONReport(result *model.CrawlResult, version string) *JSONReport {
	return &JSONReport{
		Version: version,
		Result:  result,
		Stats:   result.Stats,
	}
}

// FullJSONWriter outputs complete results with a metadata wrapper.
type FullJSONWriter struct {
	*JSONWriter

	// version is the sitegraph version string.
	version string
}

// NewFullJSONWriter creates a writer for complete results with metadata.
func NewFullJSONWriter(output io.Writer, version string, opts ...JSONWriterOption) *FullJSONWriter {
	return &FullJSONWriter{
		JSONWriter: NewJSONWriter(output, opts...),
		version:    version,
	}
}

// Write outputs the full result wrapped with metadata.
func (w *FullJSONWriter) Write(result *model.CrawlResult) (int, error) {
	// Ensure Stats is populated even if the stats step never ran
	if result.Stats == nil {
		result.Stats = model.NewCrawlStats(result.Pages)
	}

	wrapped := NewJSONReport(result, w.version)
	return w.writeJSON(wrapped)
}
