package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aktagon/digest-scraper/internal/logger"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

// Exit codes.
const (
	exitFatal   = 1
	exitPartial = 2
)

var (
	configFile   string
	token        string
	workDir      string
	debugMode    bool
	channel      string
	pageSize     int
	outputPath   string
	publishTitle string
)

var rootCmd = &cobra.Command{
	Use:           "digest-scraper",
	Short:         "Download Slack digest files and extract their entries",
	Long:          `Fetches digest files shared in a Slack channel and appends the entries found in them to an aggregate text file.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download files whose title matches the filter",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newEnvironment(cmd)
		if err != nil {
			return err
		}
		defer env.log.Sync()
		return env.fetch(cmd.Context())
	},
}

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Append entries from local digest files to the output file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newEnvironment(cmd)
		if err != nil {
			return err
		}
		defer env.log.Sync()
		return env.extract(cmd.Context())
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Fetch, then extract",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newEnvironment(cmd)
		if err != nil {
			return err
		}
		defer env.log.Sync()
		if err := env.fetch(cmd.Context()); err != nil {
			return err
		}
		return env.extract(cmd.Context())
	},
}

var publishCmd = &cobra.Command{
	Use:   "publish [file]",
	Short: "Upload a file (default: the aggregate output) to the channel",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newEnvironment(cmd)
		if err != nil {
			return err
		}
		defer env.log.Sync()

		path := env.outputPath()
		if len(args) > 0 {
			path = args[0]
		}
		title := publishTitle
		if title == "" {
			title = env.settings.Publish.Title
		}
		return env.publish(cmd.Context(), path, title)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "digest-scraper %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "settings file (default .digest-scraper/settings.yaml)")
	rootCmd.PersistentFlags().StringVar(&token, "token", "", "Slack bot token (default $"+tokenEnv+")")
	rootCmd.PersistentFlags().StringVar(&workDir, "dir", ".", "directory holding digest files and the output")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&channel, "channel", "", "Slack channel ID (overrides slack.channel)")

	fetchCmd.Flags().IntVar(&pageSize, "page-size", 0, "files to list, 1-500 (overrides slack.page_size)")
	runCmd.Flags().IntVar(&pageSize, "page-size", 0, "files to list, 1-500 (overrides slack.page_size)")
	extractCmd.Flags().StringVar(&outputPath, "output", "", "aggregate output file (overrides extract.output_path)")
	runCmd.Flags().StringVar(&outputPath, "output", "", "aggregate output file (overrides extract.output_path)")
	publishCmd.Flags().StringVar(&publishTitle, "title", "", "title of the uploaded file (overrides publish.title)")

	rootCmd.AddCommand(fetchCmd, extractCmd, runCmd, publishCmd, versionCmd)
}

// environment carries everything a command needs; nothing below main reads globals.
type environment struct {
	settings *Settings
	log      logger.Logger
	dir      string
	token    string
	out      *os.File
}

func newEnvironment(cmd *cobra.Command) (*environment, error) {
	overrides := &ConfigOverrides{Debug: debugMode}
	if configFile != "" {
		overrides.SettingsPath = &configFile
	}
	if cmd.Flags().Changed("channel") {
		overrides.Channel = &channel
	}
	if cmd.Flags().Changed("page-size") {
		overrides.PageSize = &pageSize
	}
	if cmd.Flags().Changed("output") {
		overrides.OutputPath = &outputPath
	}

	settings, err := LoadSettings(overrides)
	if err != nil {
		return nil, err
	}

	log, err := logger.New(settings.Log)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(workDir)
	if err != nil {
		return nil, fmt.Errorf("working directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("working directory %s is not a directory", workDir)
	}

	return &environment{settings: settings, log: log, dir: workDir, token: token, out: os.Stdout}, nil
}

func (e *environment) outputPath() string {
	if filepath.IsAbs(e.settings.Extract.OutputPath) {
		return e.settings.Extract.OutputPath
	}
	return filepath.Join(e.dir, e.settings.Extract.OutputPath)
}

func (e *environment) fetch(ctx context.Context) error {
	tok, err := loadToken(e.token)
	if err != nil {
		return err
	}
	httpClient := &http.Client{Timeout: e.settings.Fetch.RequestTimeout}
	client := NewSlackClient(tok, e.settings.Slack.APIURL, httpClient)

	report, err := NewFetcher(e.settings, client, httpClient, tok, e.dir, e.log).Run(ctx)
	if report != nil && report.Listed > 0 {
		renderFetchReport(e.out, report)
	}
	return err
}

func (e *environment) extract(ctx context.Context) error {
	extractor, err := NewExtractor(e.settings, e.dir, e.log)
	if err != nil {
		return err
	}
	report, err := extractor.Run(ctx)
	if report != nil {
		renderExtractionReport(e.out, report)
	}
	return err
}

func (e *environment) publish(ctx context.Context, path, title string) error {
	tok, err := loadToken(e.token)
	if err != nil {
		return err
	}
	client := NewSlackClient(tok, e.settings.Slack.APIURL, nil)

	id, err := NewPublisher(client, e.settings.Slack.Channel, e.log).Publish(ctx, path, title)
	if err != nil {
		return err
	}
	fmt.Fprintf(e.out, "Published %s as %s\n", path, id)
	return nil
}

// exitCode maps a command error onto the process exit status.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrPartialExtraction):
		return exitPartial
	default:
		return exitFatal
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(exitCode(err))
}
