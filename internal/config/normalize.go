package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeServer()
	c.normalizeTMDB()
	c.normalizeVision()
	c.normalizeAudD()
	c.normalizeVideo()
	c.normalizeRecognition()
	if err := c.normalizeHistory(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeServer() {
	c.Server.Bind = strings.TrimSpace(c.Server.Bind)
	if c.Server.Bind == "" {
		c.Server.Bind = defaultAPIBind
	}
	c.Server.CORSAllowedOrigins = dedupeTrimmed(c.Server.CORSAllowedOrigins, false)
	if c.Server.RateLimitWindowSeconds <= 0 {
		c.Server.RateLimitWindowSeconds = defaultRateLimitWindowSeconds
	}
	if c.Server.MaxUploadMiB <= 0 {
		c.Server.MaxUploadMiB = defaultMaxUploadMiB
	}
	if c.Server.RequestTimeoutSeconds <= 0 {
		c.Server.RequestTimeoutSeconds = defaultRequestTimeoutSeconds
	}
	if c.Server.APIToken == "" {
		if value, ok := os.LookupEnv("CINESCAN_API_TOKEN"); ok {
			c.Server.APIToken = value
		}
	}
	c.Server.APIToken = strings.TrimSpace(c.Server.APIToken)
}

func (c *Config) normalizeTMDB() {
	if c.TMDB.APIKey == "" {
		if value, ok := os.LookupEnv("TMDB_API_KEY"); ok {
			c.TMDB.APIKey = value
		}
	}
	c.TMDB.APIKey = strings.TrimSpace(c.TMDB.APIKey)
	c.TMDB.BaseURL = strings.TrimSpace(c.TMDB.BaseURL)
	if c.TMDB.BaseURL == "" {
		c.TMDB.BaseURL = defaultTMDBBaseURL
	}
	c.TMDB.Language = strings.TrimSpace(c.TMDB.Language)
	if c.TMDB.TimeoutSeconds <= 0 {
		c.TMDB.TimeoutSeconds = defaultTMDBTimeoutSeconds
	}
	if c.TMDB.CacheTTLSeconds < 0 {
		c.TMDB.CacheTTLSeconds = 0
	}
	if c.TMDB.RequestsPerSecond <= 0 {
		c.TMDB.RequestsPerSecond = defaultTMDBRequestsPerSecond
	}
	if c.TMDB.BreakerFailures <= 0 {
		c.TMDB.BreakerFailures = defaultTMDBBreakerFailures
	}
	if c.TMDB.BreakerTimeoutSeconds <= 0 {
		c.TMDB.BreakerTimeoutSeconds = defaultTMDBBreakerTimeoutSeconds
	}
}

func (c *Config) normalizeVision() {
	if c.Vision.APIKey == "" {
		if value, ok := os.LookupEnv("GOOGLE_VISION_API_KEY"); ok {
			c.Vision.APIKey = value
		}
	}
	c.Vision.APIKey = strings.TrimSpace(c.Vision.APIKey)
	c.Vision.BaseURL = strings.TrimSpace(c.Vision.BaseURL)
	if c.Vision.BaseURL == "" {
		c.Vision.BaseURL = defaultVisionBaseURL
	}
	if c.Vision.TimeoutSeconds <= 0 {
		c.Vision.TimeoutSeconds = defaultVisionTimeoutSeconds
	}
	if c.Vision.TextMaxResults <= 0 {
		c.Vision.TextMaxResults = defaultVisionTextMaxResults
	}
	if c.Vision.WebMaxResults <= 0 {
		c.Vision.WebMaxResults = defaultVisionWebMaxResults
	}
}

func (c *Config) normalizeAudD() {
	if c.AudD.APIToken == "" {
		if value, ok := os.LookupEnv("AUDD_API_KEY"); ok {
			c.AudD.APIToken = value
		}
	}
	c.AudD.APIToken = strings.TrimSpace(c.AudD.APIToken)
	c.AudD.BaseURL = strings.TrimSpace(c.AudD.BaseURL)
	if c.AudD.BaseURL == "" {
		c.AudD.BaseURL = defaultAudDBaseURL
	}
	if c.AudD.TimeoutSeconds <= 0 {
		c.AudD.TimeoutSeconds = defaultAudDTimeoutSeconds
	}
	c.AudD.Return = strings.TrimSpace(c.AudD.Return)
	if c.AudD.Return == "" {
		c.AudD.Return = defaultAudDReturn
	}
}

func (c *Config) normalizeVideo() {
	c.Video.FFmpegBinary = strings.TrimSpace(c.Video.FFmpegBinary)
	if c.Video.FFmpegBinary == "" {
		c.Video.FFmpegBinary = defaultFFmpegBinary
	}
	c.Video.FFprobeBinary = strings.TrimSpace(c.Video.FFprobeBinary)
	if c.Video.FFprobeBinary == "" {
		c.Video.FFprobeBinary = defaultFFprobeBinary
	}
	if c.Video.FrameOffsetSeconds < 0 {
		c.Video.FrameOffsetSeconds = 0
	}
	if c.Video.TimeoutSeconds <= 0 {
		c.Video.TimeoutSeconds = defaultVideoTimeoutSeconds
	}
}

func (c *Config) normalizeRecognition() {
	if c.Recognition.SearchTimeoutSeconds <= 0 {
		c.Recognition.SearchTimeoutSeconds = defaultSearchTimeoutSeconds
	}
	c.Recognition.GenericTerms = dedupeTrimmed(c.Recognition.GenericTerms, true)
	c.Recognition.StopWords = dedupeTrimmed(c.Recognition.StopWords, true)
}

func (c *Config) normalizeHistory() error {
	c.History.PruneSchedule = strings.TrimSpace(c.History.PruneSchedule)
	if c.History.PruneSchedule == "" {
		c.History.PruneSchedule = defaultHistoryPruneSchedule
	}
	if strings.TrimSpace(c.History.Path) == "" {
		return nil
	}
	var err error
	if c.History.Path, err = expandPath(c.History.Path); err != nil {
		return fmt.Errorf("history.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func dedupeTrimmed(values []string, lower bool) []string {
	if len(values) == 0 {
		return values
	}
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		normalized := strings.TrimSpace(value)
		if lower {
			normalized = strings.ToLower(normalized)
		}
		if normalized == "" {
			continue
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		out = append(out, normalized)
	}
	return out
}
