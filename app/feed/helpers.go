package feed

import "time"

const (
	defaultPollInterval   = 60
	defaultRetentionHour  = 4
	defaultFetchTimeout   = 30
	defaultMaxLength      = 400
	defaultRetryAttempts  = 3
	defaultRetryDelay     = 1000
	defaultRateLimitDelay = 1000
	defaultBatchSize      = 50
)

func (s Settings) GetPollInterval() time.Duration {
	return time.Duration(s.PollInterval) * time.Second
}

func (s Settings) GetRetentionHour() int {
	if s.RetentionHour == nil {
		return defaultRetentionHour
	}
	return *s.RetentionHour
}

func (s Settings) GetFetchTimeout() time.Duration {
	return time.Duration(s.FetchTimeout) * time.Second
}

func (t TelegramSettings) GetRetryDelay() time.Duration {
	return time.Duration(t.RetryDelay) * time.Millisecond
}

func (t TelegramSettings) GetRateLimitDelay() time.Duration {
	return time.Duration(t.RateLimitDelay) * time.Millisecond
}

// Names returns the configured source names in file order.
func (c *Config) Names() []string {
	names := make([]string, 0, len(c.Sources))
	for _, src := range c.Sources {
		names = append(names, src.Name)
	}
	return names
}
