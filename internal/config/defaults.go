package config

const (
	defaultConfigPath            = "~/.config/animedb/config.toml"
	projectConfigName            = "animedb.toml"
	defaultDataDir               = "~/.local/share/animedb"
	defaultImageDir              = "~/.local/share/animedb/images"
	defaultLogDir                = "~/.local/share/animedb/logs"
	defaultCachePath             = "~/.cache/animedb/lookups.db"
	defaultLogRetentionDays      = 30
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
	defaultMALBaseURL            = "https://api.jikan.moe/v4"
	defaultMALSearchLimit        = 10
	defaultAniListBaseURL        = "https://graphql.anilist.co"
	defaultAniListPerPage        = 10
	defaultMinScore              = 50
	defaultRequestDelayMS        = 500
	defaultDownloadWorkers       = 4
	defaultRequestTimeoutSeconds = 20
	defaultMaxRetries            = 3
	defaultCacheTTLHours         = 168
	defaultWatchDebounceSeconds  = 10
)

// Environment variables that override file values.
const (
	EnvDataDir      = "ANIMEDB_DATA_DIR"
	EnvImageDir     = "ANIMEDB_IMAGE_DIR"
	EnvLibraryRoots = "ANIMEDB_LIBRARY_ROOTS"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:   defaultDataDir,
			ImageDir:  defaultImageDir,
			LogDir:    defaultLogDir,
			CachePath: defaultCachePath,
		},
		Library: Library{
			SkipHidden: true,
		},
		MAL: MAL{
			BaseURL:     defaultMALBaseURL,
			SearchLimit: defaultMALSearchLimit,
		},
		AniList: AniList{
			BaseURL: defaultAniListBaseURL,
			PerPage: defaultAniListPerPage,
		},
		Matching: Matching{
			MinScore: defaultMinScore,
		},
		Workflow: Workflow{
			RequestDelayMS:        defaultRequestDelayMS,
			DownloadWorkers:       defaultDownloadWorkers,
			RequestTimeoutSeconds: defaultRequestTimeoutSeconds,
			MaxRetries:            defaultMaxRetries,
			CacheTTLHours:         defaultCacheTTLHours,
			WatchDebounceSeconds:  defaultWatchDebounceSeconds,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
