package config

const (
	defaultSourceDir          = "~/staging"
	defaultArchiveDir         = "~/archive"
	defaultLogDir             = "~/.local/share/shelver/logs"
	defaultCategoryMap        = "~/.config/shelver/category_map.json"
	defaultActivityMap        = "~/.config/shelver/activity_map.json"
	defaultJournalPath        = "~/.local/share/shelver/journal.db"
	defaultMinSizeMB          = 5
	defaultMaxAttempts        = 3
	defaultStabilitySecs      = 2
	defaultMaxObservationSecs = 600
	defaultBackoffBaseMillis  = 1000
	defaultWorkerCount        = 1
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			SourceDir:   defaultSourceDir,
			ArchiveDir:  defaultArchiveDir,
			LogDir:      defaultLogDir,
			CategoryMap: defaultCategoryMap,
			ActivityMap: defaultActivityMap,
		},
		Transfer: Transfer{
			MinSizeMB:             defaultMinSizeMB,
			VerifyChecksum:        true,
			MaxAttempts:           defaultMaxAttempts,
			StabilityIntervalSecs: defaultStabilitySecs,
			MaxObservationSecs:    defaultMaxObservationSecs,
			BackoffBaseMillis:     defaultBackoffBaseMillis,
		},
		Workers: Workers{
			Count: defaultWorkerCount,
		},
		Journal: Journal{
			Enabled: true,
			Path:    defaultJournalPath,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
