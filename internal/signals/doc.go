// Package signals extracts typed metadata from a parsed page: content type,
// entity, links, actions, summary, language, title and JSON-LD structured data.
// Every extractor is a pure function of the document and never fails; a
// signal that cannot be found yields its zero value.
package signals
