package config

import (
	"net/url"
	"path/filepath"
	"regexp"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is used for XDG directory paths.
	AppName = "pagescope"

	// DefaultTimeout bounds each fetch attempt, direct or fallback.
	DefaultTimeout = 15 * time.Second

	// DefaultProbeTimeout bounds each protocol and discovery request.
	DefaultProbeTimeout = 5 * time.Second

	// DefaultMaxBodySize is the page size ceiling. Larger bodies are truncated.
	DefaultMaxBodySize = 1 << 20

	// DefaultMinBodySize is the smallest direct body accepted without
	// trying the fallback transport.
	DefaultMinBodySize = 500

	// DefaultUserAgent identifies pagescope to the sites it analyzes.
	DefaultUserAgent = "pagescope/1.0 (+https://github.com/nao1215/pagescope)"

	// DefaultReaderURL is the remote reader service used by the reader fallback.
	DefaultReaderURL = "https://r.jina.ai/"

	// DefaultProtocolName is the negotiation protocol probed on every page.
	DefaultProtocolName = "llm"

	// DefaultSiteProbeLimit is the number of navigation links sampled by the site probe.
	DefaultSiteProbeLimit = 10

	// DefaultBatchSize is the number of URLs processed concurrently in batch mode.
	DefaultBatchSize = 4

	// DefaultListenAddress is the address the serve command listens on.
	DefaultListenAddress = ":8080"
)

// Fallback transport modes.
const (
	FallbackReader  = "reader"
	FallbackBrowser = "browser"
	FallbackNone    = "none"
)

var protocolNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

// Config holds all configuration options. It is populated from defaults,
// the configuration file and CLI flags, and passed down explicitly.
type Config struct {
	// Timeout bounds each fetch attempt.
	Timeout time.Duration

	// ProbeTimeout bounds each protocol, site and discovery request.
	ProbeTimeout time.Duration

	// MaxBodySize is the page size ceiling in bytes.
	MaxBodySize int64

	// MinBodySize is the direct body size below which the fallback is tried.
	MinBodySize int

	// UserAgent is sent with every request unless a site override replaces it.
	UserAgent string

	// Fallback selects the fallback transport: reader, browser or none.
	Fallback string

	// ReaderURL is the reader service endpoint. The page URL is appended to it.
	ReaderURL string

	// ReaderAPIKey is sent to the reader service as a bearer token. Optional.
	ReaderAPIKey string

	// BrowserExecPath overrides the Chrome binary used by the browser fallback.
	BrowserExecPath string

	// ProtocolName names the negotiation protocol (text/<name>+markdown).
	ProtocolName string

	// SiteProbeLimit is the number of navigation links sampled by the site probe.
	SiteProbeLimit int

	// BatchSize is the number of URLs processed concurrently.
	BatchSize int

	// Verbose enables debug logging.
	Verbose bool

	// ConfigFilePath is an explicit configuration file. When empty the file
	// is searched for, see FindConfigFile.
	ConfigFilePath string

	// SiteConfigs holds the per-host overrides loaded from the config file.
	SiteConfigs *File

	// JSONReport and MarkdownReport select the report format. They are
	// mutually exclusive; neither means plain text.
	JSONReport     bool
	MarkdownReport bool

	// ReportFile writes the report to a file instead of stdout.
	ReportFile string

	// Targets are the URLs to analyze or score.
	Targets []string

	// Public lists score results in the public history.
	Public bool

	// DBDir is the directory of the SQLite database. Empty disables persistence.
	DBDir string

	// SaveToDB is set when DBDir is configured.
	SaveToDB bool

	// ListenAddress is the serve command's listen address.
	ListenAddress string
}

// NewConfig returns a Config populated with defaults.
func NewConfig() *Config {
	return &Config{
		Timeout:        DefaultTimeout,
		ProbeTimeout:   DefaultProbeTimeout,
		MaxBodySize:    DefaultMaxBodySize,
		MinBodySize:    DefaultMinBodySize,
		UserAgent:      DefaultUserAgent,
		Fallback:       FallbackReader,
		ReaderURL:      DefaultReaderURL,
		ProtocolName:   DefaultProtocolName,
		SiteProbeLimit: DefaultSiteProbeLimit,
		BatchSize:      DefaultBatchSize,
		ListenAddress:  DefaultListenAddress,
	}
}

// XDGDataDir returns the XDG data directory, which holds the database.
// On Linux: ~/.local/share/pagescope
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory.
// On Linux: ~/.config/pagescope
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks every setting except the targets and returns the first
// problem found.
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.ProbeTimeout <= 0 {
		return ErrInvalidProbeTimeout
	}
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	if c.MaxBodySize <= 0 {
		return ErrInvalidMaxBodySize
	}
	if c.MinBodySize < 0 || int64(c.MinBodySize) > c.MaxBodySize {
		return ErrInvalidMinBodySize
	}
	switch c.Fallback {
	case FallbackReader:
		if !isHTTPURL(c.ReaderURL) {
			return ErrInvalidReaderURL
		}
	case FallbackBrowser, FallbackNone:
	default:
		return ErrUnknownFallback
	}
	if !protocolNamePattern.MatchString(c.ProtocolName) {
		return ErrInvalidProtocolName
	}
	if c.SiteProbeLimit <= 0 {
		return ErrInvalidSiteProbeLimit
	}
	return nil
}

// ValidateTargets runs Validate and also requires at least one target.
func (c *Config) ValidateTargets() error {
	if len(c.Targets) == 0 {
		return ErrNoTarget
	}
	return c.Validate()
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
