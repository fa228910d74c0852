package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	danzohttp "github.com/tanq16/symfetch/internal/downloaders/http"
	"github.com/tanq16/symfetch/internal/mirror"
	"github.com/tanq16/symfetch/internal/output"
	"github.com/tanq16/symfetch/internal/pool"
	"github.com/tanq16/symfetch/internal/scheduler"
	"github.com/tanq16/symfetch/internal/utils"
)

var SymfetchVersion = "dev"

// flagValues holds raw flag values. They are applied on top of the config
// file only when the user actually set them.
type flagValues struct {
	configFile string
	output     string
	logPath    string
	baseURL    string
	workers    int
	mode       string
	chunkSize  int64
	bufferSize int
	timeout    time.Duration
	userAgent  string
	headers    []string
	proxyURL   string
	s3Bucket   string
	s3Prefix   string
	s3Profile  string
	debug      bool
}

func newRootCmd() *cobra.Command {
	return buildRootCmd(&flagValues{})
}

func buildRootCmd(flags *flagValues) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "symfetch [LIST_FILE] [OPTIONS]",
		Short:         "Symfetch mirrors files from a symbol server with concurrent range requests",
		Version:       SymfetchVersion,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, flags)
			if err != nil {
				return err
			}
			return runBatch(cmd.Context(), cfg, flags.debug, args[0])
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&flags.configFile, "config", "f", "", "YAML run configuration file")
	pf.StringVarP(&flags.output, "output", "o", "", "Output root directory (for get: output file path)")
	pf.StringVarP(&flags.logPath, "log", "l", utils.DefaultLogFile, "Completion log file")
	pf.StringVarP(&flags.baseURL, "base-url", "b", utils.DefaultBaseURL, "Base URL of the symbol server")
	pf.IntVarP(&flags.workers, "workers", "w", utils.DefaultRunConfig().Workers, "Size of the shared worker pool (above 8 enables high-thread-mode)")
	pf.StringVarP(&flags.mode, "mode", "m", string(utils.ModeRange), "Transfer mode: range or stream")
	pf.Int64Var(&flags.chunkSize, "chunk-size", utils.DefaultChunkSize, "Bytes per range request")
	pf.IntVar(&flags.bufferSize, "buffer-size", utils.DefaultBufferSize, "Read buffer size in stream mode")
	pf.DurationVarP(&flags.timeout, "timeout", "t", utils.DefaultTimeout, "Connection timeout (eg. 5s, 10m)")
	pf.StringVarP(&flags.userAgent, "user-agent", "a", utils.DefaultUserAgent, "User agent")
	pf.StringArrayVarP(&flags.headers, "header", "H", []string{}, "Custom headers (like 'Authorization: Basic dXNlcjpwYXNz'); can be specified multiple times")
	pf.StringVarP(&flags.proxyURL, "proxy", "p", "", "HTTP/HTTPS proxy URL (e.g., proxy.example.com:8080)")

	// flags without shorthand
	pf.StringVar(&flags.s3Bucket, "s3-bucket", "", "Mirror every downloaded file to this S3 bucket")
	pf.StringVar(&flags.s3Prefix, "s3-prefix", "", "Key prefix inside the S3 bucket")
	pf.StringVar(&flags.s3Profile, "s3-profile", "default", "AWS shared config profile for the mirror")
	pf.BoolVar(&flags.debug, "debug", false, "Enable debug logging")

	cmd.AddCommand(newGetCmd(flags))
	return cmd
}

func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		output.PrintError(err.Error())
		os.Exit(1)
	}
}

// resolveConfig merges defaults, the config file and the flags that were set.
func resolveConfig(cmd *cobra.Command, flags *flagValues) (utils.RunConfig, error) {
	utils.InitLogger(flags.debug)
	cfg, err := utils.LoadRunConfig(flags.configFile)
	if err != nil {
		return cfg, err
	}
	set := cmd.Flags()
	if set.Changed("output") {
		cfg.OutputDir = flags.output
	}
	if set.Changed("log") {
		cfg.LogPath = flags.logPath
	}
	if set.Changed("base-url") {
		cfg.BaseURL = flags.baseURL
	}
	if set.Changed("workers") {
		cfg.Workers = flags.workers
	}
	if set.Changed("mode") {
		cfg.Mode = utils.Mode(flags.mode)
	}
	if set.Changed("chunk-size") {
		cfg.ChunkSize = flags.chunkSize
	}
	if set.Changed("buffer-size") {
		cfg.BufferSize = flags.bufferSize
	}
	if set.Changed("timeout") {
		cfg.HTTP.Timeout = flags.timeout
	}
	if set.Changed("user-agent") {
		cfg.HTTP.UserAgent = flags.userAgent
	}
	if set.Changed("proxy") {
		cfg.HTTP.ProxyURL = flags.proxyURL
	}
	for k, v := range utils.ParseHeaderArgs(flags.headers) {
		cfg.HTTP.Headers[k] = v
	}
	if set.Changed("s3-bucket") {
		cfg.Mirror.Bucket = flags.s3Bucket
	}
	if set.Changed("s3-prefix") {
		cfg.Mirror.Prefix = flags.s3Prefix
	}
	if set.Changed("s3-profile") {
		cfg.Mirror.Profile = flags.s3Profile
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	cfg.HTTP.HighThreadMode = cfg.Workers > 8
	return cfg, nil
}

// session is the wiring shared by the batch and get commands.
type session struct {
	pool       *pool.Pool
	downloader *danzohttp.Downloader
	progress   utils.ProgressObserver
	manager    *output.Manager
	mirror     *mirror.S3Mirror
}

func newSession(ctx context.Context, cfg utils.RunConfig, debug bool) (*session, error) {
	p, err := pool.New(cfg.Workers)
	if err != nil {
		return nil, fmt.Errorf("error configuring worker pool: %w", err)
	}
	client, err := utils.NewSymHTTPClient(cfg.HTTP)
	if err != nil {
		return nil, err
	}
	s := &session{pool: p, progress: utils.NopObserver{}}
	if !debug && output.IsTerminal() {
		s.manager = output.NewManager(os.Stdout)
		s.progress = s.manager
	}
	if cfg.Mirror.Enabled() {
		s.mirror, err = mirror.NewS3Mirror(ctx, cfg.Mirror)
		if err != nil {
			return nil, err
		}
	}
	s.downloader = danzohttp.NewDownloader(client, p, s.progress, danzohttp.Options{
		Mode:       cfg.Mode,
		ChunkSize:  cfg.ChunkSize,
		BufferSize: cfg.BufferSize,
		UserAgent:  cfg.HTTP.UserAgent,
	})
	return s, nil
}

func (s *session) startDisplay() {
	if s.manager == nil {
		return
	}
	utils.QuietLogger()
	s.manager.StartDisplay()
}

func (s *session) stopDisplay() {
	if s.manager == nil {
		return
	}
	s.manager.StopDisplay()
}

func runBatch(ctx context.Context, cfg utils.RunConfig, debug bool, listFile string) error {
	log := utils.GetLogger("batch")
	entries, err := utils.ReadURIList(listFile)
	if err != nil {
		return err
	}
	s, err := newSession(ctx, cfg, debug)
	if err != nil {
		return err
	}
	opts := scheduler.Options{
		BaseURL:    cfg.BaseURL,
		OutputDir:  cfg.OutputDir,
		LogPath:    cfg.LogPath,
		Pool:       s.pool,
		Downloader: s.downloader,
		Progress:   s.progress,
	}
	if s.mirror != nil {
		opts.Mirror = s.mirror
	}

	s.startDisplay()
	result, logErr := scheduler.Run(ctx, entries, opts)
	s.stopDisplay()

	if s.manager != nil {
		s.manager.ShowErrors()
	} else {
		for _, f := range result.Failed {
			log.Error().Err(f.Err).Str("uri", f.URI).Msg("Item failed")
		}
	}
	output.ShowSummary(result.Elapsed, len(result.Succeeded), result.Total, result.LogPath)
	if logErr != nil {
		output.PrintError(logErr.Error())
	}
	return nil
}
