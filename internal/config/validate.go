package config

import (
	"errors"
	"fmt"
	"net"

	"github.com/robfig/cron/v3"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateTMDB(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateTimeouts(); err != nil {
		return err
	}
	if err := c.validateRecognition(); err != nil {
		return err
	}
	if err := c.validateHistory(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateTMDB() error {
	if c.TMDB.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/cinescan/config.toml"
		}
		return fmt.Errorf("tmdb.api_key is required. Set TMDB_API_KEY env var or edit %s (create with 'cinescan config init')", defaultPath)
	}
	if c.TMDB.RequestsPerSecond <= 0 {
		return errors.New("tmdb.requests_per_second must be positive")
	}
	return nil
}

func (c *Config) validateServer() error {
	if _, _, err := net.SplitHostPort(c.Server.Bind); err != nil {
		return fmt.Errorf("server.bind must be host:port: %w", err)
	}
	if c.Server.RateLimitRequests < 0 {
		return errors.New("server.rate_limit_requests must be >= 0 (0 disables rate limiting)")
	}
	return nil
}

func (c *Config) validateTimeouts() error {
	return ensurePositiveMap(map[string]int{
		"server.max_upload_mib":              c.Server.MaxUploadMiB,
		"server.request_timeout_seconds":     c.Server.RequestTimeoutSeconds,
		"tmdb.timeout_seconds":               c.TMDB.TimeoutSeconds,
		"vision.timeout_seconds":             c.Vision.TimeoutSeconds,
		"audd.timeout_seconds":               c.AudD.TimeoutSeconds,
		"video.timeout_seconds":              c.Video.TimeoutSeconds,
		"recognition.search_timeout_seconds": c.Recognition.SearchTimeoutSeconds,
	})
}

func (c *Config) validateRecognition() error {
	return ensureNonNegativeMap(map[string]int{
		"recognition.best_guess_limit":     c.Recognition.BestGuessLimit,
		"recognition.web_entity_limit":     c.Recognition.WebEntityLimit,
		"recognition.accept_threshold":     c.Recognition.AcceptThreshold,
		"recognition.min_substring_length": c.Recognition.MinSubstringLength,
		"recognition.ocr_window_starts":    c.Recognition.OCRWindowStarts,
	})
}

func (c *Config) validateHistory() error {
	if c.History.RetentionDays < 0 {
		return errors.New("history.retention_days must be >= 0 (0 keeps every entry)")
	}
	if _, err := cron.ParseStandard(c.History.PruneSchedule); err != nil {
		return fmt.Errorf("history.prune_schedule: %w", err)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}

func ensureNonNegativeMap(values map[string]int) error {
	for key, value := range values {
		if value < 0 {
			return fmt.Errorf("%s must be >= 0", key)
		}
	}
	return nil
}
