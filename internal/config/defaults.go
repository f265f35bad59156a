package config

const (
	defaultConfigPath         = "~/.config/soundconverter/config.toml"
	defaultStateDir           = "~/.local/share/soundconverter"
	defaultLogDir             = "~/.local/share/soundconverter/logs"
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultTimeoutSeconds     = 600
	defaultMaxConcurrentFiles = 1
	maxConcurrentFilesLimit   = 16
	defaultMaxFileSizeMB      = 2000
	defaultHistoryRetention   = 30

	// DisambiguatorParen appends " (1)", " (2)" to colliding stems.
	DisambiguatorParen = "paren"
	// DisambiguatorUnderscore appends "_1", "_2" to colliding stems.
	DisambiguatorUnderscore = "underscore"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Encoder: Encoder{
			TimeoutSeconds: defaultTimeoutSeconds,
		},
		Batch: Batch{
			MaxConcurrentFiles: defaultMaxConcurrentFiles,
			MaxFileSizeMB:      defaultMaxFileSizeMB,
		},
		Naming: Naming{
			Disambiguator: DisambiguatorParen,
		},
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		History: History{
			Enabled:       true,
			RetentionDays: defaultHistoryRetention,
		},
	}
}
