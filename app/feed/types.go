package feed

import (
	"time"
)

// Entry is one item block pulled out of a feed payload by the extractor.
type Entry struct {
	ID          string
	Title       string
	Description string
	Link        string
	PublishedAt *time.Time

	// Raw is the untouched markup of the item block. Transformers read
	// extra fields (author, media attachments) from it.
	Raw string
}

type ParseMode string

const (
	ParseModeHTML       ParseMode = "HTML"
	ParseModeMarkdown   ParseMode = "Markdown"
	ParseModeMarkdownV2 ParseMode = "MarkdownV2"
)

// Configuration types

type Config struct {
	Settings Settings `yaml:"settings" toml:"settings"`
	Sources  []Source `yaml:"sources" toml:"sources"`
}

type Source struct {
	Name        string    `yaml:"name" toml:"name"`
	URL         string    `yaml:"url" toml:"url"`
	Transformer string    `yaml:"transformer" toml:"transformer"`
	ChatID      string    `yaml:"chat_id" toml:"chat_id"`
	ParseMode   ParseMode `yaml:"parse_mode" toml:"parse_mode"`
	LinkLabel   string    `yaml:"link_label" toml:"link_label"`
	Filters     []Filter  `yaml:"filters" toml:"filters"`
}

// Filter matches case-insensitive substrings of one entry field
// (title, description or link).
type Filter struct {
	Field    string   `yaml:"field" toml:"field"`
	Includes []string `yaml:"includes" toml:"includes"`
	Excludes []string `yaml:"excludes" toml:"excludes"`
}

type Settings struct {
	PollInterval  int  `yaml:"poll_interval" toml:"poll_interval"` // seconds
	RetentionHour *int `yaml:"retention_hour" toml:"retention_hour"`
	FetchTimeout  int  `yaml:"fetch_timeout" toml:"fetch_timeout"` // seconds
	MaxLength     int  `yaml:"max_length" toml:"max_length"`

	Telegram TelegramSettings `yaml:"telegram" toml:"telegram"`
	Database DatabaseSettings `yaml:"database" toml:"database"`
}

type TelegramSettings struct {
	RetryAttempts  int `yaml:"retry_attempts" toml:"retry_attempts"`
	RetryDelay     int `yaml:"retry_delay" toml:"retry_delay"`           // milliseconds
	RateLimitDelay int `yaml:"rate_limit_delay" toml:"rate_limit_delay"` // milliseconds
}

type DatabaseSettings struct {
	BatchSize int `yaml:"batch_size" toml:"batch_size"`
}
