package pipeline

import (
	"log/slog"

	"github.com/nao1215/pagescope/internal/config"
	"github.com/nao1215/pagescope/internal/fetcher"
	"github.com/nao1215/pagescope/internal/metrics"
	"github.com/nao1215/pagescope/internal/protocol"
	"github.com/nao1215/pagescope/internal/scoring"
	"github.com/nao1215/pagescope/internal/siteprobe"
)

// NewAnalyzerFromConfig wires the fetcher, probes and scoring engine from
// cfg. Probe outcomes are counted on m.
func NewAnalyzerFromConfig(cfg *config.Config, m *metrics.Metrics, logger *slog.Logger, opts ...AnalyzerOption) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	if m == nil {
		m = metrics.New(nil)
	}

	f := fetcher.New(
		fetcher.WithUserAgent(cfg.UserAgent),
		fetcher.WithTimeout(cfg.Timeout),
		fetcher.WithMaxBodySize(cfg.MaxBodySize),
		fetcher.WithMinBodySize(cfg.MinBodySize),
		fetcher.WithFallback(fallbackTransport(cfg)),
		fetcher.WithHeaderFunc(cfg.SiteConfigs.Headers),
		fetcher.WithLogger(logger),
	)

	probeOpts := []protocol.Option{
		protocol.WithHTTPClient(f.Client()),
		protocol.WithProtocolName(cfg.ProtocolName),
		protocol.WithTimeout(cfg.ProbeTimeout),
		protocol.WithUserAgent(cfg.UserAgent),
		protocol.WithObserver(m.ObserveProbe),
		protocol.WithLogger(logger),
	}
	prober := protocol.NewProber(probeOpts...)
	discoverer := protocol.NewDiscoverer(probeOpts...)

	site := siteprobe.New(prober,
		siteprobe.WithLimit(cfg.SiteProbeLimit),
		siteprobe.WithLogger(logger),
	)
	engine := scoring.NewEngine(discoverer,
		scoring.WithNegotiation(prober.Negotiation()),
		scoring.WithLogger(logger),
	)

	opts = append([]AnalyzerOption{WithMetrics(m), WithAnalyzerLogger(logger)}, opts...)
	return NewAnalyzer(f, prober, site, engine, opts...)
}

// fallbackTransport returns the transport selected by cfg.Fallback, or
// nil when the fallback is disabled.
func fallbackTransport(cfg *config.Config) fetcher.Transport {
	switch cfg.Fallback {
	case config.FallbackReader:
		return fetcher.NewReaderTransport(cfg.ReaderURL,
			fetcher.WithReaderAPIKey(cfg.ReaderAPIKey),
			fetcher.WithReaderUserAgent(cfg.UserAgent),
		)
	case config.FallbackBrowser:
		opts := []fetcher.BrowserOption{fetcher.WithBrowserUserAgent(cfg.UserAgent)}
		if cfg.BrowserExecPath != "" {
			opts = append(opts, fetcher.WithBrowserExecPath(cfg.BrowserExecPath))
		}
		return fetcher.NewBrowserTransport(opts...)
	default:
		return nil
	}
}
