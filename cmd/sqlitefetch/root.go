package main

import (
	"fmt"
	"io"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/ochairo/sqlitefetch/internal/domain-adapters/gateways"
	orchestrators "github.com/ochairo/sqlitefetch/internal/domain-orchestrators"
	"github.com/ochairo/sqlitefetch/internal/domain/entities"
	"github.com/ochairo/sqlitefetch/internal/domain/interfaces"
	domaingateways "github.com/ochairo/sqlitefetch/internal/domain/interfaces/gateways"
	"github.com/ochairo/sqlitefetch/internal/domain/services"
	"github.com/ochairo/sqlitefetch/internal/external-adapters/env"
	"github.com/ochairo/sqlitefetch/internal/external-adapters/gpg"
	"github.com/ochairo/sqlitefetch/internal/external-adapters/logging"
	"github.com/ochairo/sqlitefetch/internal/external-adapters/yaml"
)

type rootOptions struct {
	configPath  string
	debug       bool
	jsonLogs    bool
	progress    bool
	pageURL     string
	baseURL     string
	urlTemplate string
	dest        string
	year        int
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "sqlitefetch",
		Short: "Download the latest SQLite release and verify its SHA3-256",
		Long: `sqlitefetch reads the SQLite download page, downloads the artifact it
lists and checks it against the published SHA3-256 hash. The file only
appears in the destination directory once the hash matches.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runFetch(cmd, opts)
		},
	}

	f := cmd.PersistentFlags()
	f.StringVarP(&opts.configPath, "config", "c", "", "YAML config file (default $SQLITEFETCH_CONFIG)")
	f.BoolVar(&opts.debug, "debug", false, "enable debug logging")
	f.BoolVar(&opts.jsonLogs, "json-logs", false, "emit logs as JSON")
	f.StringVar(&opts.pageURL, "page-url", "", "release page URL (default "+entities.DefaultPageURL+")")
	f.StringVar(&opts.baseURL, "base-url", "", "vendor base URL substituted for {base} (default "+entities.DefaultBaseURL+")")
	f.StringVar(&opts.urlTemplate, "url-template", "", "download URL template (default "+entities.DefaultURLTemplate+")")
	f.IntVar(&opts.year, "year", 0, "year path segment of the download URL (default current year)")
	f.StringVarP(&opts.dest, "dest", "d", "", "destination directory (default "+entities.DefaultDestination+")")
	cmd.Flags().BoolVar(&opts.progress, "progress", false, "show a download progress bar on stderr")

	cmd.AddCommand(newVerifyCmd(opts), newInspectCmd(opts))
	return cmd
}

func runFetch(cmd *cobra.Command, opts *rootOptions) error {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}
	logger := newLogger(cmd, opts)

	var progress gateways.ProgressFunc
	if opts.progress {
		progress = progressBar(cmd.ErrOrStderr())
	}

	orch, err := newFetchOrchestrator(cfg, logger, progress)
	if err != nil {
		return err
	}

	result, err := orch.Run(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "✅ Saved %s (%d bytes)\n", result.Artifact.LocalPath, result.Artifact.ByteLength)
	fmt.Fprintf(out, "   sha3-256: %s\n", result.Verification.Actual)
	if result.SignatureVerified {
		fmt.Fprintf(out, "   signature: verified\n")
	}
	return nil
}

// loadConfig layers defaults, config file, environment and flags
func loadConfig(cmd *cobra.Command, opts *rootOptions) (entities.FetchConfig, error) {
	envRepo := env.NewConfigRepository()

	path := opts.configPath
	if path == "" {
		p, err := envRepo.ConfigPath()
		if err != nil {
			return entities.FetchConfig{}, fmt.Errorf("%w: %v", services.ErrInvalidConfig, err)
		}
		path = p
	}

	cfg, err := services.LoadConfig(
		entities.DefaultFetchConfig(),
		yaml.NewConfigRepository(path),
		envRepo,
		&flagRepository{cmd: cmd, opts: opts},
	)
	if err != nil {
		return cfg, err
	}

	dest, err := env.ExpandPath(cfg.Destination)
	if err != nil {
		return cfg, fmt.Errorf("%w: %v", services.ErrInvalidConfig, err)
	}
	cfg.Destination = dest
	return cfg, nil
}

// flagRepository applies only the flags the user actually set
type flagRepository struct {
	cmd  *cobra.Command
	opts *rootOptions
}

func (r *flagRepository) Load(base entities.FetchConfig) (entities.FetchConfig, error) {
	cfg := base
	f := r.cmd.Flags()
	if f.Changed("page-url") {
		cfg.PageURL = r.opts.pageURL
	}
	if f.Changed("base-url") {
		cfg.BaseURL = r.opts.baseURL
	}
	if f.Changed("url-template") {
		cfg.URLTemplate = r.opts.urlTemplate
	}
	if f.Changed("year") {
		cfg.Year = r.opts.year
	}
	if f.Changed("dest") {
		cfg.Destination = r.opts.dest
	}
	return cfg, nil
}

func newLogger(cmd *cobra.Command, opts *rootOptions) interfaces.Logger {
	return logging.New(cmd.ErrOrStderr(), logging.Config{
		Debug: opts.debug,
		JSON:  opts.jsonLogs,
	})
}

func httpClientConfig(cfg entities.FetchConfig) gateways.HTTPClientConfig {
	return gateways.HTTPClientConfig{
		ConnectTimeout: cfg.ConnectTimeout,
		ReadTimeout:    cfg.ReadTimeout,
		UserAgent:      cfg.UserAgent,
	}
}

// newGateways builds the page extractor and downloader on one shared client
func newGateways(cfg entities.FetchConfig, logger interfaces.Logger, progress gateways.ProgressFunc) (*gateways.PageExtractor, *gateways.Downloader) {
	client := gateways.NewHTTPClient(httpClientConfig(cfg), logger)
	extractor := gateways.NewPageExtractor(client, gateways.NewSQLiteDownloadPage(cfg.FilenameElementID), logger)
	downloader := gateways.NewDownloader(client, gateways.DownloaderConfig{
		BaseURL:     cfg.BaseURL,
		URLTemplate: cfg.URLTemplate,
		Year:        cfg.Year,
		ChunkSize:   cfg.ChunkSize,
		Progress:    progress,
	}, logger)
	return extractor, downloader
}

func newFetchOrchestrator(cfg entities.FetchConfig, logger interfaces.Logger, progress gateways.ProgressFunc) (*orchestrators.FetchOrchestrator, error) {
	extractor, downloader := newGateways(cfg, logger, progress)

	var sigVerifier domaingateways.SignatureVerifier
	if cfg.Signature.Enabled() {
		keyring, err := env.ExpandPath(cfg.Signature.Keyring)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", services.ErrInvalidConfig, err)
		}
		v := gpg.NewVerifier(gateways.NewHTTPClient(httpClientConfig(cfg), logger))
		if err := v.ImportKeyFromFile(keyring); err != nil {
			return nil, fmt.Errorf("%w: keyring: %v", services.ErrInvalidConfig, err)
		}
		sigVerifier = v
	}

	return orchestrators.NewFetchOrchestrator(
		extractor,
		downloader,
		gateways.NewChecksumVerifier(cfg.ChunkSize),
		sigVerifier,
		orchestrators.FetchOrchestratorConfig{
			PageURL:              cfg.PageURL,
			Destination:          cfg.Destination,
			SignatureURLTemplate: cfg.Signature.URLTemplate,
		},
		logger,
	), nil
}

func progressBar(w io.Writer) gateways.ProgressFunc {
	return func(total int64) io.Writer {
		return progressbar.NewOptions64(total,
			progressbar.OptionSetWriter(w),
			progressbar.OptionSetDescription("downloading"),
			progressbar.OptionShowBytes(true),
			progressbar.OptionSetWidth(30),
			progressbar.OptionThrottle(80*time.Millisecond),
			progressbar.OptionOnCompletion(func() { fmt.Fprintln(w) }),
		)
	}
}
