package config

const (
	defaultDataDir                   = "~/.local/share/cinescan"
	defaultLogDir                    = "~/.local/share/cinescan/logs"
	defaultAPIBind                   = "0.0.0.0:8001"
	defaultRateLimitRequests         = 60
	defaultRateLimitWindowSeconds    = 60
	defaultMaxUploadMiB              = 25
	defaultRequestTimeoutSeconds     = 120
	defaultTMDBLanguage              = "en-US"
	defaultTMDBBaseURL               = "https://api.themoviedb.org/3"
	defaultTMDBTimeoutSeconds        = 10
	defaultTMDBCacheTTLSeconds       = 600
	defaultTMDBRequestsPerSecond     = 4.0
	defaultTMDBBreakerFailures       = 5
	defaultTMDBBreakerTimeoutSeconds = 30
	defaultVisionBaseURL             = "https://vision.googleapis.com/v1"
	defaultVisionTimeoutSeconds      = 30
	defaultVisionTextMaxResults      = 10
	defaultVisionWebMaxResults       = 25
	defaultAudDBaseURL               = "https://api.audd.io/"
	defaultAudDTimeoutSeconds        = 60
	defaultAudDReturn                = "apple_music,spotify"
	defaultFFmpegBinary              = "ffmpeg"
	defaultFFprobeBinary             = "ffprobe"
	defaultFrameOffsetSeconds        = 5.0
	defaultVideoTimeoutSeconds       = 60
	defaultSearchTimeoutSeconds      = 10
	defaultHistoryPruneSchedule      = "@daily"
	defaultLogFormat                 = "console"
	defaultLogLevel                  = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Server: Server{
			Bind:                   defaultAPIBind,
			CORSAllowedOrigins:     []string{"*"},
			RateLimitRequests:      defaultRateLimitRequests,
			RateLimitWindowSeconds: defaultRateLimitWindowSeconds,
			MaxUploadMiB:           defaultMaxUploadMiB,
			RequestTimeoutSeconds:  defaultRequestTimeoutSeconds,
		},
		TMDB: TMDB{
			Language:              defaultTMDBLanguage,
			BaseURL:               defaultTMDBBaseURL,
			TimeoutSeconds:        defaultTMDBTimeoutSeconds,
			CacheTTLSeconds:       defaultTMDBCacheTTLSeconds,
			RequestsPerSecond:     defaultTMDBRequestsPerSecond,
			BreakerFailures:       defaultTMDBBreakerFailures,
			BreakerTimeoutSeconds: defaultTMDBBreakerTimeoutSeconds,
		},
		Vision: Vision{
			BaseURL:        defaultVisionBaseURL,
			TimeoutSeconds: defaultVisionTimeoutSeconds,
			TextMaxResults: defaultVisionTextMaxResults,
			WebMaxResults:  defaultVisionWebMaxResults,
		},
		AudD: AudD{
			BaseURL:        defaultAudDBaseURL,
			TimeoutSeconds: defaultAudDTimeoutSeconds,
			Return:         defaultAudDReturn,
		},
		Video: Video{
			FFmpegBinary:       defaultFFmpegBinary,
			FFprobeBinary:      defaultFFprobeBinary,
			FrameOffsetSeconds: defaultFrameOffsetSeconds,
			TimeoutSeconds:     defaultVideoTimeoutSeconds,
		},
		Recognition: Recognition{
			SearchTimeoutSeconds: defaultSearchTimeoutSeconds,
		},
		History: History{
			Enabled:       true,
			PruneSchedule: defaultHistoryPruneSchedule,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
