package config

import "errors"

// Configuration validation errors returned by Config.Validate and
// Config.ValidateTargets. Callers match them with errors.Is.
var (
	// ErrNoTarget is returned when no URL was given.
	ErrNoTarget = errors.New("no target specified: provide a URL or use --list")

	// ErrInvalidTimeout is returned when the fetch timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidProbeTimeout is returned when the probe timeout is not positive.
	ErrInvalidProbeTimeout = errors.New("invalid probe timeout: must be positive")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrConflictingReportFormats is returned when both --json and --markdown are set.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidMaxBodySize is returned when the body size ceiling is not positive.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be positive")

	// ErrInvalidMinBodySize is returned when the minimum viable body size is
	// negative or larger than the ceiling.
	ErrInvalidMinBodySize = errors.New("invalid min body size: must be between 0 and the max body size")

	// ErrUnknownFallback is returned for a fallback mode other than reader, browser or none.
	ErrUnknownFallback = errors.New("unknown fallback: must be reader, browser or none")

	// ErrInvalidReaderURL is returned when the reader endpoint is not an absolute http(s) URL.
	ErrInvalidReaderURL = errors.New("invalid reader url: must be an absolute http or https URL")

	// ErrInvalidProtocolName is returned when the protocol name is not a
	// lower-case token usable in a media type and header name.
	ErrInvalidProtocolName = errors.New("invalid protocol name: use lower-case letters, digits and hyphens")

	// ErrInvalidSiteProbeLimit is returned when the site probe limit is not positive.
	ErrInvalidSiteProbeLimit = errors.New("invalid site probe limit: must be positive")
)
