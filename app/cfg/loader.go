package cfg

import (
	"cmp"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

const DefaultCommand = "serve"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Storage
	DBPath string `long:"db-path" env:"DB_PATH" default:"./data/articles.db" description:"Path to the SQLite database file"`

	// Source feed
	FeedURL      string `long:"feed-url" env:"FEED_URL" description:"Atom feed with forwarded newsletters (required for run and serve)"`
	FallbackFile string `long:"fallback-file" env:"FEED_FALLBACK_FILE" default:"./sample-input/feed.xml" description:"Local copy of the source feed used when the fetch fails"`

	// Published feed
	OutputFile      string `long:"output" env:"OUTPUT_FILE" default:"./output.xml" description:"Path of the generated RSS file"`
	FeedTitle       string `long:"feed-title" env:"FEED_TITLE" default:"Curated Email Articles" description:"Title of the generated feed"`
	FeedDescription string `long:"feed-description" env:"FEED_DESCRIPTION" default:"Aggregated articles from email newsletters, filtered and summarized." description:"Description of the generated feed"`
	FeedLimit       int    `long:"feed-limit" env:"FEED_LIMIT" default:"50" description:"Maximum number of articles in the generated feed"`
	BaseUrl         string `long:"base-url" env:"BASE_URL" description:"Public base URL for the service (e.g., https://feeds.example.com)"`

	// Filtering
	FiltersConfig   string `long:"filters-config" env:"FILTERS_CONFIG" description:"YAML file overriding the built-in link filter lists"`
	BlocklistPath   string `long:"blocklist-path" env:"BLOCKLIST_PATH" default:"./easylist.txt" description:"Local cache of the ad-block rule list"`
	BlocklistURL    string `long:"blocklist-url" env:"BLOCKLIST_URL" default:"https://easylist.to/easylist/easylist.txt" description:"Remote location of the ad-block rule list"`
	BlocklistMaxAge int    `long:"blocklist-max-age" env:"BLOCKLIST_MAX_AGE" default:"0" description:"Refresh the cached rule list when older than this many seconds (0 disables refresh)"`

	// Classifier
	GeminiAPIKey string `long:"gemini-api-key" env:"GEMINI_API_KEY" description:"Gemini API key (summaries and tags are skipped when empty)"`
	GeminiModel  string `long:"gemini-model" env:"GEMINI_MODEL" default:"gemini-2.5-flash" description:"Gemini model used for classification"`

	// Service
	Port              string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	SchedulerInterval int    `long:"scheduler-interval" env:"SCHEDULER_INTERVAL" default:"3600" description:"Interval between pipeline runs in seconds"`
	Timeout           int    `long:"timeout" env:"HTTP_TIMEOUT" default:"30" description:"Timeout for a single HTTP fetch in seconds"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"Mail Comb/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`

	Args struct {
		Command string   `positional-arg-name:"command" description:"serve, run, publish, stats, reset-entry or backfill"`
		Params  []string `positional-arg-name:"params"`
	} `positional-args:"yes"`
}

var globalCfg *Cfg

// Load parses os.Args and the environment. It returns nil, nil when help was requested.
func Load() (*Cfg, error) {
	cfg, err := parse(os.Args[1:])
	if err != nil || cfg == nil {
		return nil, err
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

func parse(args []string) (*Cfg, error) {
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
		DBPath:            raw.DBPath,
		FeedURL:           raw.FeedURL,
		FallbackFile:      raw.FallbackFile,
		OutputFile:        raw.OutputFile,
		FeedTitle:         raw.FeedTitle,
		FeedDescription:   raw.FeedDescription,
		FeedLimit:         raw.FeedLimit,
		BaseUrl:           raw.BaseUrl,
		FiltersConfig:     raw.FiltersConfig,
		BlocklistPath:     raw.BlocklistPath,
		BlocklistURL:      raw.BlocklistURL,
		BlocklistMaxAge:   raw.BlocklistMaxAge,
		GeminiAPIKey:      raw.GeminiAPIKey,
		GeminiModel:       raw.GeminiModel,
		Port:              raw.Port,
		SchedulerInterval: raw.SchedulerInterval,
		Timeout:           raw.Timeout,
		UserAgent:         raw.UserAgent,
		Timezone:          raw.Timezone,
		Debug:             raw.Debug,
		Version:           GetVersion(),
		Command:           cmp.Or(raw.Args.Command, DefaultCommand),
		Params:            raw.Args.Params,
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Cfg) validate() error {
	nonNegativeFields := map[string]int{
		"feed limit":         c.FeedLimit,
		"blocklist max age":  c.BlocklistMaxAge,
		"scheduler interval": c.SchedulerInterval,
		"timeout":            c.Timeout,
	}

	for fieldName, fieldValue := range nonNegativeFields {
		if fieldValue < 0 {
			return fmt.Errorf("%s must be non-negative", fieldName)
		}
	}

	switch c.Command {
	case "serve", "run":
		if c.FeedURL == "" {
			return fmt.Errorf("feed URL is required for the %s command", c.Command)
		}
	case "publish", "stats", "backfill":
	case "reset-entry":
		if len(c.Params) == 0 {
			return fmt.Errorf("reset-entry requires at least one entry ID")
		}
	default:
		return fmt.Errorf("unknown command: %s", c.Command)
	}

	return nil
}

func (c *Cfg) HTTPTimeout() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
			fmt.Printf("Timezone configured: %s\n", timezone)
		}
	}
	return nil
}

// Set installs c as the global configuration. Intended for tests and embedding.
func Set(c *Cfg) {
	globalCfg = c
}
