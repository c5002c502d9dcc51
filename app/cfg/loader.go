package cfg

import (
	"cmp"
	"fmt"
	"os"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Storage and sources
	SourcesFile string `long:"sources" env:"FEEDS_FILE" default:"./feeds.yml" description:"Feed sources file (.yml, .yaml or .toml)"`
	DBPath      string `long:"db-path" env:"DB_PATH" default:"./relay.db" description:"SQLite database file"`

	// Telegram
	TelegramToken  string `long:"telegram-token" env:"TELEGRAM_BOT_TOKEN" description:"Telegram bot token (required for serve and run)"`
	TelegramAPIURL string `long:"telegram-api" env:"TELEGRAM_API_URL" default:"https://api.telegram.org" description:"Telegram Bot API base URL"`

	// HTTP server
	Port         string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	APIAccessKey string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"RSS Relay/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, Asia/Shanghai)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
	LogFormat string `long:"log-format" env:"LOG_FORMAT" default:"text" choice:"text" choice:"json" description:"Log output format"`
	LogFile   string `long:"log-file" env:"LOG_FILE" description:"Also write logs to this file, rotated by size"`

	Serve   serveCmd   `command:"serve" description:"Run the scheduler and the HTTP trigger server (default)"`
	Run     runCmd     `command:"run" description:"Run one update and exit"`
	Cleanup cleanupCmd `command:"cleanup" description:"Run one retention sweep and exit"`
	Check   checkCmd   `command:"check" description:"Fetch every source and report what the extractor sees"`
}

type serveCmd struct{}

type runCmd struct {
	MarkSeen bool `long:"mark-seen" description:"Store the current items of every source without sending them"`
}

type cleanupCmd struct{}

type checkCmd struct{}

// Load parses the process arguments and environment.
// It returns nil, nil when help was requested.
func Load() (*Cfg, error) {
	return LoadArgs(os.Args[1:])
}

func LoadArgs(args []string) (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)
	parser.SubcommandsOptional = true

	if _, err := parser.ParseArgs(args); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	command := CommandServe
	if parser.Active != nil {
		command = Command(parser.Active.Name)
	}

	cfg := &Cfg{
		SourcesFile:    raw.SourcesFile,
		DBPath:         raw.DBPath,
		TelegramToken:  raw.TelegramToken,
		TelegramAPIURL: raw.TelegramAPIURL,
		Port:           raw.Port,
		APIAccessKey:   raw.APIAccessKey,
		UserAgent:      raw.UserAgent,
		Timezone:       raw.Timezone,
		Debug:          raw.Debug,
		LogFormat:      raw.LogFormat,
		LogFile:        raw.LogFile,
		Version:        GetVersion(),
		Command:        command,
		MarkSeen:       raw.Run.MarkSeen,
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	return cfg, nil
}

func (c *Cfg) validate() error {
	switch c.Command {
	case CommandServe:
		if c.TelegramToken == "" {
			return fmt.Errorf("telegram token is required for %s", c.Command)
		}
	case CommandRun:
		if c.TelegramToken == "" && !c.MarkSeen {
			return fmt.Errorf("telegram token is required for %s", c.Command)
		}
	}
	return nil
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
