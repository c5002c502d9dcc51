package feed

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/lysyi3m/rss-relay/app/errs"
)

// LoadConfig reads the sources file at path. The format is chosen by
// extension: .toml is decoded as TOML, anything else as YAML.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read file: %w", errs.ErrConfig, err)
	}

	config, err := parseConfig(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", errs.ErrConfig, path, err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("%w: invalid config %s: %w", errs.ErrConfig, path, err)
	}

	for _, src := range config.Sources {
		slog.Debug("Source loaded", "feed", src.Name, "transformer", src.Transformer, "parse_mode", src.ParseMode)
	}

	return config, nil
}

func parseConfig(data []byte, ext string) (*Config, error) {
	var config Config

	switch strings.ToLower(ext) {
	case ".toml":
		if _, err := toml.Decode(string(data), &config); err != nil {
			return nil, fmt.Errorf("failed to parse TOML: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	}

	applyDefaults(&config)

	return &config, nil
}

func applyDefaults(config *Config) {
	s := &config.Settings
	if s.PollInterval == 0 {
		s.PollInterval = defaultPollInterval
	}
	if s.FetchTimeout == 0 {
		s.FetchTimeout = defaultFetchTimeout
	}
	if s.MaxLength == 0 {
		s.MaxLength = defaultMaxLength
	}
	if s.Telegram.RetryAttempts == 0 {
		s.Telegram.RetryAttempts = defaultRetryAttempts
	}
	if s.Telegram.RetryDelay == 0 {
		s.Telegram.RetryDelay = defaultRetryDelay
	}
	if s.Telegram.RateLimitDelay == 0 {
		s.Telegram.RateLimitDelay = defaultRateLimitDelay
	}
	if s.Database.BatchSize == 0 {
		s.Database.BatchSize = defaultBatchSize
	}

	for i := range config.Sources {
		if config.Sources[i].ParseMode == "" {
			config.Sources[i].ParseMode = ParseModeHTML
		}
	}
}

func validateConfig(config *Config) error {
	if config == nil {
		return fmt.Errorf("config is nil")
	}

	positiveFields := map[string]int{
		"poll interval":    config.Settings.PollInterval,
		"fetch timeout":    config.Settings.FetchTimeout,
		"max length":       config.Settings.MaxLength,
		"retry attempts":   config.Settings.Telegram.RetryAttempts,
		"retry delay":      config.Settings.Telegram.RetryDelay,
		"rate limit delay": config.Settings.Telegram.RateLimitDelay,
		"batch size":       config.Settings.Database.BatchSize,
	}

	for fieldName, fieldValue := range positiveFields {
		if fieldValue < 0 {
			return fmt.Errorf("%s must be positive", fieldName)
		}
	}

	if hour := config.Settings.GetRetentionHour(); hour < 0 || hour > 23 {
		return fmt.Errorf("retention hour must be between 0 and 23, got %d", hour)
	}

	if len(config.Sources) == 0 {
		return fmt.Errorf("at least one source is required")
	}

	seen := make(map[string]bool, len(config.Sources))
	for i, src := range config.Sources {
		if err := validateSource(src); err != nil {
			return fmt.Errorf("source at index %d: %w", i, err)
		}
		if seen[src.Name] {
			return fmt.Errorf("duplicate source name: %s", src.Name)
		}
		seen[src.Name] = true
	}

	return nil
}

func validateSource(src Source) error {
	requiredFields := map[string]string{
		"name":        src.Name,
		"url":         src.URL,
		"transformer": src.Transformer,
		"chat_id":     src.ChatID,
	}

	for fieldName, fieldValue := range requiredFields {
		if strings.TrimSpace(fieldValue) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
	}

	u, err := url.Parse(src.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid url for %s: %q", src.Name, src.URL)
	}

	switch src.ParseMode {
	case ParseModeHTML, ParseModeMarkdown, ParseModeMarkdownV2:
	default:
		return fmt.Errorf("invalid parse_mode for %s: %q", src.Name, src.ParseMode)
	}

	for _, filter := range src.Filters {
		if err := validateFilter(filter); err != nil {
			return fmt.Errorf("invalid filter for %s: %w", src.Name, err)
		}
	}

	return nil
}
