// Package htmldoc holds the DOM helpers shared by the Markdown extractor,
// the signal extractors, the scoring engine and the site probe: parsing,
// boilerplate removal, main-content selection and URL resolution.
package htmldoc
