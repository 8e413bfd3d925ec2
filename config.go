package main

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/aktagon/digest-scraper/internal/logger"
)

const (
	defaultConfigDir = ".digest-scraper"
	maxPageSize      = 500

	tokenEnv   = "SLACK_BOT_TOKEN"
	channelEnv = "SLACK_CHANNEL"
	levelEnv   = "LOG_LEVEL"
)

//go:embed config/settings.yaml
var defaultSettingsYAML string

// ErrMissingToken is returned when no Slack credential is configured.
var ErrMissingToken = errors.New("slack token required: use --token or the " + tokenEnv + " environment variable")

// SlackSettings configures the listing and upload API.
type SlackSettings struct {
	APIURL   string `yaml:"api_url"`
	Channel  string `yaml:"channel"`
	PageSize int    `yaml:"page_size"`
}

// FetchSettings configures downloads.
type FetchSettings struct {
	TitleFilter    string        `yaml:"title_filter"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	MaxFileBytes   int64         `yaml:"max_file_bytes"`
}

// ExtractSettings configures the segment grammar and the aggregate output.
type ExtractSettings struct {
	FilePattern    string `yaml:"file_pattern"`
	Marker         string `yaml:"marker"`
	EntryOpen      string `yaml:"entry_open"`
	EntryOpenCount int    `yaml:"entry_open_count"`
	EntryClose     string `yaml:"entry_close"`
	EntryFormat    string `yaml:"entry_format"`
	OutputPath     string `yaml:"output_path"`
}

// PublishSettings configures the publish command.
type PublishSettings struct {
	Title string `yaml:"title"`
}

// Settings represents the YAML configuration structure
type Settings struct {
	Slack   SlackSettings   `yaml:"slack"`
	Fetch   FetchSettings   `yaml:"fetch"`
	Extract ExtractSettings `yaml:"extract"`
	Publish PublishSettings `yaml:"publish"`
	Log     logger.Config   `yaml:"log"`
}

// ConfigOverrides holds values given on the command line. Nil fields keep the file value.
type ConfigOverrides struct {
	SettingsPath *string
	Channel      *string
	PageSize     *int
	OutputPath   *string
	Debug        bool
}

// DefaultSettings returns the embedded defaults.
func DefaultSettings() *Settings {
	var s Settings
	if err := yaml.Unmarshal([]byte(defaultSettingsYAML), &s); err != nil {
		panic(fmt.Sprintf("embedded settings.yaml is invalid: %v", err))
	}
	return &s
}

// LoadSettings resolves settings from, in increasing precedence: embedded defaults,
// the settings file, environment variables and command-line overrides.
func LoadSettings(overrides *ConfigOverrides) (*Settings, error) {
	var (
		settings *Settings
		err      error
	)
	if overrides != nil && overrides.SettingsPath != nil {
		// Explicit settings file must exist
		settings, err = loadSettingsRequired(*overrides.SettingsPath)
	} else {
		if err := ensureConfigExists(defaultConfigDir); err != nil {
			return nil, fmt.Errorf("ensuring config files exist: %w", err)
		}
		settings, err = loadSettings(filepath.Join(defaultConfigDir, "settings.yaml"))
	}
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}

	settings.applyEnv()
	settings.applyOverrides(overrides)

	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

// loadSettings loads settings from a YAML file, falling back to defaults if it is missing.
func loadSettings(settingsPath string) (*Settings, error) {
	data, err := os.ReadFile(settingsPath)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultSettings(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", settingsPath, err)
	}
	return parseSettings(data)
}

// loadSettingsRequired loads settings from a YAML file, failing if it doesn't exist.
func loadSettingsRequired(settingsPath string) (*Settings, error) {
	data, err := os.ReadFile(settingsPath)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", settingsPath, err)
	}
	return parseSettings(data)
}

// parseSettings decodes data on top of the defaults so partial files are valid.
func parseSettings(data []byte) (*Settings, error) {
	settings := DefaultSettings()
	if err := yaml.Unmarshal(data, settings); err != nil {
		return nil, fmt.Errorf("parsing settings YAML: %w", err)
	}
	return settings, nil
}

// ensureConfigExists creates the config directory and writes settings.yaml if needed.
func ensureConfigExists(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	settingsFile := filepath.Join(dir, "settings.yaml")
	if _, err := os.Stat(settingsFile); errors.Is(err, os.ErrNotExist) {
		if err := os.WriteFile(settingsFile, []byte(defaultSettingsYAML), 0o644); err != nil {
			return fmt.Errorf("writing settings.yaml: %w", err)
		}
	}
	return nil
}

func (s *Settings) applyEnv() {
	if v := strings.TrimSpace(os.Getenv(channelEnv)); v != "" {
		s.Slack.Channel = v
	}
	if v := strings.TrimSpace(os.Getenv(levelEnv)); v != "" {
		s.Log.Level = v
	}
}

func (s *Settings) applyOverrides(o *ConfigOverrides) {
	if o == nil {
		return
	}
	if o.Channel != nil {
		s.Slack.Channel = *o.Channel
	}
	if o.PageSize != nil {
		s.Slack.PageSize = *o.PageSize
	}
	if o.OutputPath != nil {
		s.Extract.OutputPath = *o.OutputPath
	}
	if o.Debug {
		s.Log.Level = "debug"
	}
}

// Validate reports every invalid setting in one error.
func (s *Settings) Validate() error {
	var errs []error
	if strings.TrimSpace(s.Slack.Channel) == "" {
		errs = append(errs, errors.New("slack.channel is required"))
	}
	if s.Slack.PageSize < 1 || s.Slack.PageSize > maxPageSize {
		errs = append(errs, fmt.Errorf("slack.page_size must be between 1 and %d, got %d", maxPageSize, s.Slack.PageSize))
	}
	if s.Fetch.TitleFilter == "" {
		errs = append(errs, errors.New("fetch.title_filter is required"))
	}
	if s.Fetch.RequestTimeout <= 0 {
		errs = append(errs, errors.New("fetch.request_timeout must be positive"))
	}
	if s.Fetch.MaxFileBytes <= 0 {
		errs = append(errs, errors.New("fetch.max_file_bytes must be positive"))
	}
	if s.Extract.FilePattern == "" {
		errs = append(errs, errors.New("extract.file_pattern is required"))
	} else if _, err := filepath.Match(s.Extract.FilePattern, ""); err != nil {
		errs = append(errs, fmt.Errorf("extract.file_pattern: %w", err))
	}
	if s.Extract.OutputPath == "" {
		errs = append(errs, errors.New("extract.output_path is required"))
	}
	if err := s.Grammar().Validate(); err != nil {
		errs = append(errs, err)
	}
	if _, err := NewEntryNormalizer(s.Extract.EntryFormat); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid settings: %w", errors.Join(errs...))
	}
	return nil
}

// Grammar builds the segment grammar described by the extract settings.
func (s *Settings) Grammar() SegmentGrammar {
	return SegmentGrammar{
		Marker:    s.Extract.Marker,
		Open:      s.Extract.EntryOpen,
		OpenCount: s.Extract.EntryOpenCount,
		Close:     s.Extract.EntryClose,
	}
}

// loadToken resolves the Slack token from the flag value, the environment or a .env
// file in the working directory, in that order.
func loadToken(flagValue string) (string, error) {
	if token := strings.TrimSpace(flagValue); token != "" {
		return token, nil
	}
	// .env is optional; a missing file is not an error
	_ = godotenv.Load()
	if token := strings.TrimSpace(os.Getenv(tokenEnv)); token != "" {
		return token, nil
	}
	return "", ErrMissingToken
}
