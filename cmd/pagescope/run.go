package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nao1215/pagescope/internal/config"
	"github.com/nao1215/pagescope/internal/database"
	"github.com/nao1215/pagescope/internal/log"
	"github.com/nao1215/pagescope/internal/report"
)

// readerAPIKeyEnv names the environment variable holding the reader
// service API key. It is not a flag so that it stays out of shell history.
const readerAPIKeyEnv = "PAGESCOPE_READER_API_KEY"

// addFetchFlags registers the flags shared by every command that runs the
// pipeline.
func addFetchFlags(cmd *cobra.Command) {
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout of the page fetch")
	cmd.Flags().Duration("probe-timeout", config.DefaultProbeTimeout,
		"Timeout of each protocol and discovery probe request")
	cmd.Flags().StringP("fallback", "F", config.FallbackReader,
		"Fallback transport when the direct fetch fails: reader, browser or none")
	cmd.Flags().String("reader-url", config.DefaultReaderURL,
		"Endpoint of the reader service used by the reader fallback")
	cmd.Flags().String("browser-path", "",
		"Path of the Chrome executable used by the browser fallback")
	cmd.Flags().String("protocol", config.DefaultProtocolName,
		"Protocol name used for negotiation headers and discovery paths")
	cmd.Flags().Int("site-limit", config.DefaultSiteProbeLimit,
		"Maximum number of same-site pages probed for protocol adoption")
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .pagescope.yaml in current, config or home directory)")
	cmd.Flags().String("db-dir", "",
		"Database directory (default: XDG data directory)")
	cmd.Flags().Bool("no-save", false,
		"Do not store results in the database")
}

// addReportFlags registers the flags of the commands that print reports.
func addReportFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("list", "l", "",
		"Read target URLs from a file, one per line")
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of targets processed concurrently")
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from the fetch flags and the configuration file.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	var err error
	if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
		return nil, err
	}
	if cfg.ProbeTimeout, err = flags.GetDuration("probe-timeout"); err != nil {
		return nil, err
	}
	if cfg.Fallback, err = flags.GetString("fallback"); err != nil {
		return nil, err
	}
	if cfg.ReaderURL, err = flags.GetString("reader-url"); err != nil {
		return nil, err
	}
	if cfg.BrowserExecPath, err = flags.GetString("browser-path"); err != nil {
		return nil, err
	}
	if cfg.ProtocolName, err = flags.GetString("protocol"); err != nil {
		return nil, err
	}
	if cfg.SiteProbeLimit, err = flags.GetInt("site-limit"); err != nil {
		return nil, err
	}
	if cfg.ConfigFilePath, err = flags.GetString("config"); err != nil {
		return nil, err
	}
	if cfg.DBDir, err = flags.GetString("db-dir"); err != nil {
		return nil, err
	}
	noSave, err := flags.GetBool("no-save")
	if err != nil {
		return nil, err
	}

	cfg.Fallback = strings.ToLower(cfg.Fallback)
	cfg.ReaderAPIKey = os.Getenv(readerAPIKeyEnv)
	cfg.Verbose = getVerboseFlag(cmd)
	cfg.SaveToDB = !noSave
	if cfg.DBDir == "" {
		cfg.DBDir = config.XDGDataDir()
	}

	// An explicit --config must exist; otherwise a missing file means no overrides.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	switch {
	case configPath != "":
		cfg.SiteConfigs, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	case explicitConfigPath:
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	default:
		cfg.SiteConfigs = &config.File{Sites: make(map[string]config.SiteConfig)}
	}

	return cfg, nil
}

// applyReportFlags reads the report flags and the targets into cfg.
func applyReportFlags(cmd *cobra.Command, cfg *config.Config, args []string) error {
	flags := cmd.Flags()

	var err error
	if cfg.BatchSize, err = flags.GetInt("batch"); err != nil {
		return err
	}
	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return err
	}
	if cfg.ReportFile, err = flags.GetString("output"); err != nil {
		return err
	}
	listFile, err := flags.GetString("list")
	if err != nil {
		return err
	}

	cfg.Targets = append(cfg.Targets, args...)
	if listFile != "" {
		targets, err := readTargetList(listFile)
		if err != nil {
			return err
		}
		cfg.Targets = append(cfg.Targets, targets...)
	}
	return nil
}

// readTargetList reads one URL per line. Blank lines and lines starting
// with '#' are skipped.
func readTargetList(path string) ([]string, error) {
	f, err := os.Open(path) //nolint:gosec // User-provided list path is intentional
	if err != nil {
		return nil, fmt.Errorf("failed to open target list: %w", err)
	}
	defer f.Close()

	var targets []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		targets = append(targets, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read target list: %w", err)
	}
	return targets, nil
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context, logger *slog.Logger) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			logger.Info("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

// newLogger creates the text logger used by the one-shot commands and
// makes it the default.
func newLogger(cmd *cobra.Command, verbose bool) *slog.Logger {
	logger := log.NewSecureLogger(cmd.ErrOrStderr(), verbose)
	slog.SetDefault(logger)
	return logger
}

// openStore opens the result database when saving is enabled. It returns
// nil when cfg.SaveToDB is false.
func openStore(cfg *config.Config, logger *slog.Logger) (*database.ResultDB, error) {
	if !cfg.SaveToDB {
		return nil, nil
	}
	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	logger.Info("database opened", "path", db.Path())
	return db, nil
}

// openOutput returns the report destination: cfg.ReportFile when set,
// otherwise stdout. The returned function closes the file.
func openOutput(cfg *config.Config, stdout io.Writer) (io.Writer, func() error, error) {
	if cfg.ReportFile == "" {
		return stdout, func() error { return nil }, nil
	}

	dir := filepath.Dir(cfg.ReportFile)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, f.Close, nil
}

// newReportWriter returns the writer for the requested report format.
func newReportWriter(cfg *config.Config, output io.Writer) report.Writer {
	switch {
	case cfg.JSONReport:
		return report.NewJSONWriter(output, report.WithPrettyPrint(), report.WithVersion(getVersion()))
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(output, report.WithContent(cfg.Verbose))
	default:
		return report.NewSimpleWriter(output,
			report.WithShowPassed(cfg.Verbose),
			report.WithVerbose(cfg.Verbose),
		)
	}
}
