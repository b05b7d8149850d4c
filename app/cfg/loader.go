package cfg

import (
	"cmp"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Storage
	StoreBackend      string `long:"store-backend" env:"STORE_BACKEND" default:"sql" choice:"sql" choice:"document" description:"Persistence backend"`
	DatabaseURL       string `long:"database-url" env:"DATABASE_URL" default:"sqlite://iboxtv.db" description:"SQL database URL (sqlite://path or postgres://...)"`
	DocumentStorePath string `long:"document-store-path" env:"DOCUMENT_STORE_PATH" default:"./data/shows" description:"Directory of the document store"`

	// Telegram channel source
	TelegramMode        string `long:"telegram-mode" env:"TELEGRAM_MODE" default:"bot" choice:"bot" choice:"user" choice:"feed" description:"How the channel is read"`
	TelegramChannel     string `long:"telegram-channel" env:"TELEGRAM_CHANNEL" description:"Target channel handle or chat id (required)"`
	TelegramBotToken    string `long:"telegram-bot-token" env:"TELEGRAM_BOT_TOKEN" description:"Bot API token (bot mode)"`
	TelegramAPIEndpoint string `long:"telegram-api-endpoint" env:"TELEGRAM_API_ENDPOINT" description:"Bot API endpoint format, defaults to api.telegram.org"`
	TelegramAppID       int    `long:"telegram-app-id" env:"TELEGRAM_APP_ID" description:"MTProto app id (user mode)"`
	TelegramAppHash     string `long:"telegram-app-hash" env:"TELEGRAM_APP_HASH" description:"MTProto app hash (user mode)"`
	TelegramSessionFile string `long:"telegram-session-file" env:"TELEGRAM_SESSION_FILE" default:"./data/session.json" description:"Authorized MTProto session file (user mode)"`
	TelegramFeedURL     string `long:"telegram-feed-url" env:"TELEGRAM_FEED_URL" description:"RSS mirror of the channel (feed mode)"`

	// Metadata provider
	OMDbAPIKey      string `long:"omdb-api-key" env:"OMDB_API_KEY" description:"OMDb API key (required)"`
	OMDbBaseURL     string `long:"omdb-base-url" env:"OMDB_BASE_URL" default:"https://www.omdbapi.com/" description:"OMDb API base URL"`
	MetadataTimeout int    `long:"metadata-timeout" env:"METADATA_TIMEOUT" default:"10" description:"Metadata request timeout in seconds"`

	// Application configuration
	Port              string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	BaseUrl           string `long:"base-url" env:"BASE_URL" description:"Public base URL for the service (e.g., https://tv.example.com)"`
	FetchLimit        int    `long:"fetch-limit" env:"FETCH_LIMIT" default:"10" description:"Messages read per ingestion cycle"`
	WorkerCount       int    `long:"worker-count" env:"WORKER_COUNT" default:"2" description:"Number of background ingestion workers"`
	SchedulerInterval int    `long:"scheduler-interval" env:"SCHEDULER_INTERVAL" default:"0" description:"Periodic ingestion interval in seconds, 0 disables it"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"iBoxTV/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
	LogFile   string `long:"log-file" env:"LOG_FILE" description:"Also write logs to this file, rotated by size"`
	LogFormat string `long:"log-format" env:"LOG_FORMAT" default:"text" choice:"text" choice:"json" description:"Log output format"`
}

// Load reads configuration from os.Args and the environment. It returns
// nil, nil when help was requested.
func Load() (*Cfg, error) {
	return LoadArgs(os.Args[1:])
}

func LoadArgs(args []string) (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.ParseArgs(args); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		StoreBackend:        raw.StoreBackend,
		DatabaseURL:         raw.DatabaseURL,
		DocumentStorePath:   raw.DocumentStorePath,
		TelegramMode:        raw.TelegramMode,
		TelegramChannel:     strings.TrimSpace(raw.TelegramChannel),
		TelegramBotToken:    raw.TelegramBotToken,
		TelegramAPIEndpoint: raw.TelegramAPIEndpoint,
		TelegramAppID:       raw.TelegramAppID,
		TelegramAppHash:     raw.TelegramAppHash,
		TelegramSessionFile: raw.TelegramSessionFile,
		TelegramFeedURL:     raw.TelegramFeedURL,
		OMDbAPIKey:          raw.OMDbAPIKey,
		OMDbBaseURL:         raw.OMDbBaseURL,
		MetadataTimeout:     raw.MetadataTimeout,
		Port:                raw.Port,
		BaseUrl:             strings.TrimRight(raw.BaseUrl, "/"),
		FetchLimit:          raw.FetchLimit,
		WorkerCount:         raw.WorkerCount,
		SchedulerInterval:   raw.SchedulerInterval,
		UserAgent:           raw.UserAgent,
		Timezone:            raw.Timezone,
		Debug:               raw.Debug,
		LogFile:             raw.LogFile,
		LogFormat:           raw.LogFormat,
		Version:             GetVersion(),
	}

	if cfg.BaseUrl == "" {
		cfg.BaseUrl = "http://localhost:" + cfg.Port
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
	}

	return cfg, nil
}

// Validate reports every missing or inconsistent setting at once.
func (c *Cfg) Validate() error {
	var errs []error

	if c.TelegramChannel == "" || c.TelegramChannel == "@" {
		errs = append(errs, errors.New("TELEGRAM_CHANNEL is required"))
	}
	if c.OMDbAPIKey == "" {
		errs = append(errs, errors.New("OMDB_API_KEY is required"))
	}

	switch c.StoreBackend {
	case "sql":
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the sql backend"))
		}
	case "document":
		if c.DocumentStorePath == "" {
			errs = append(errs, errors.New("DOCUMENT_STORE_PATH is required for the document backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend))
	}

	switch c.TelegramMode {
	case "bot":
		if c.TelegramBotToken == "" {
			errs = append(errs, errors.New("TELEGRAM_BOT_TOKEN is required in bot mode"))
		}
	case "user":
		if c.TelegramAppID == 0 || c.TelegramAppHash == "" {
			errs = append(errs, errors.New("TELEGRAM_APP_ID and TELEGRAM_APP_HASH are required in user mode"))
		}
		if c.TelegramSessionFile == "" {
			errs = append(errs, errors.New("TELEGRAM_SESSION_FILE is required in user mode"))
		}
	case "feed":
		if c.TelegramFeedURL == "" {
			errs = append(errs, errors.New("TELEGRAM_FEED_URL is required in feed mode"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown TELEGRAM_MODE %q", c.TelegramMode))
	}

	if c.FetchLimit < 1 || c.FetchLimit > 100 {
		errs = append(errs, fmt.Errorf("FETCH_LIMIT must be between 1 and 100, got %d", c.FetchLimit))
	}
	if c.WorkerCount < 1 {
		errs = append(errs, fmt.Errorf("WORKER_COUNT must be positive, got %d", c.WorkerCount))
	}
	if c.SchedulerInterval < 0 {
		errs = append(errs, fmt.Errorf("SCHEDULER_INTERVAL must not be negative, got %d", c.SchedulerInterval))
	}
	if c.MetadataTimeout < 1 {
		errs = append(errs, fmt.Errorf("METADATA_TIMEOUT must be positive, got %d", c.MetadataTimeout))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}

	return nil
}

func applyTimezone(timezone string) error {
	if timezone == "" {
		return nil
	}

	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return err
	}
	time.Local = loc

	return nil
}
