// Package markdown converts HTML pages into clean Markdown.
//
// Boilerplate is removed first, then the main content root is walked
// node by node and the result is normalized: Unicode whitespace and
// zero-width characters are cleaned up, well-known boilerplate sentences
// are dropped and duplicate lines and blank-line runs are collapsed.
package markdown
