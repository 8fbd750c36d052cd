package config

const (
	defaultLibraryDir      = "~/Music/musicus"
	defaultStagingDir      = "~/.local/share/musicus/staging"
	defaultLogDir          = "~/.local/share/musicus/logs"
	defaultDatabaseName    = "musicus.db"
	defaultDevice          = "/dev/sr0"
	defaultTOCTimeout      = 5
	defaultReaderBinary    = "cdparanoia"
	defaultEncoderBinary   = "flac"
	defaultFileExtension   = "flac"
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
	defaultWatchDebounceMS = 1500
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LibraryDir: defaultLibraryDir,
			StagingDir: defaultStagingDir,
			LogDir:     defaultLogDir,
		},
		Disc: Disc{
			Device:        defaultDevice,
			TOCTimeout:    defaultTOCTimeout,
			ReaderBinary:  defaultReaderBinary,
			EncoderBinary: defaultEncoderBinary,
			FileExtension: defaultFileExtension,
		},
		Import: Import{
			TagFiles:     true,
			VerifyCopies: true,
		},
		Watch: Watch{
			DebounceMS: defaultWatchDebounceMS,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
