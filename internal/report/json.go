package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/pagescope/internal/model"
)

// JSONWriter outputs results in JSON format.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	indent bool

	indentPrefix string
	indentString string

	// version, when set, wraps each result in a JSONReport.
	version string
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

// WithPrettyPrint enables pretty-printed JSON with two-space indentation.
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// WithVersion wraps every result in a JSONReport carrying version.
func WithVersion(version string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.version = version
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// WriteAnalysis outputs the analysis in JSON format.
func (w *JSONWriter) WriteAnalysis(result *model.AnalysisResult) (int, error) {
	if w.version != "" {
		return w.writeJSON(&JSONReport{Version: w.version, Analysis: result})
	}
	return w.writeJSON(result)
}

// WriteScore outputs the score in JSON format.
func (w *JSONWriter) WriteScore(result *model.ScoreResult) (int, error) {
	if w.version != "" {
		return w.writeJSON(&JSONReport{Version: w.version, Score: result})
	}
	return w.writeJSON(result)
}

func (w *JSONWriter) writeJSON(v any) (int, error) {
	var (
		data []byte
		err  error
	)
	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return 0, err
	}

	data = append(data, '\n')
	return w.output.Write(data)
}

// JSONReport wraps a result with the version of the tool that produced it.
type JSONReport struct {
	Version  string                `json:"version"`
	Analysis *model.AnalysisResult `json:"analysis,omitempty"`
	Score    *model.ScoreResult    `json:"score,omitempty"`
}
