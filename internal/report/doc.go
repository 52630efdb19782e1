// Package report renders analysis and score results.
//
// Three writers are provided:
//   - SimpleWriter: plain text for terminal display
//   - JSONWriter: structured JSON for tool integration
//   - MarkdownWriter: GitHub-flavored Markdown with a category chart
//
// Writers implement the Writer interface and can be combined with
// MultiWriter to print and save a report at the same time.
package report
