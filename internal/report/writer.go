package report

import (
	"io"

	"github.com/nao1215/pagescope/internal/model"
)

// Writer renders results to a destination.
type Writer interface {
	// WriteAnalysis outputs an analysis result.
	// Returns the number of bytes written and any error encountered.
	WriteAnalysis(result *model.AnalysisResult) (int, error)

	// WriteScore outputs a score result.
	WriteScore(result *model.ScoreResult) (int, error)
}

// MultiWriter writes to multiple Writers in order.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// WriteAnalysis outputs the analysis to all configured Writers.
// It stops on the first error.
func (m *MultiWriter) WriteAnalysis(result *model.AnalysisResult) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteAnalysis(result)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// WriteScore outputs the score to all configured Writers.
func (m *MultiWriter) WriteScore(result *model.ScoreResult) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteScore(result)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// truncateString shortens s to maxLen runes, ending with "..." when cut.
func truncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func derefOrDash(s *string) string {
	if s == nil {
		return "-"
	}
	return orDash(*s)
}
