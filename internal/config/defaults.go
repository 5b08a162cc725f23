package config

// Metadata reader failure policies.
const (
	OnErrorAbort = "abort"
	OnErrorSkip  = "skip"
)

const (
	defaultConfigPath          = "~/.config/lenscal/config.toml"
	defaultWorkDir             = "."
	defaultLogDir              = "~/.local/share/lenscal/logs"
	defaultLensfunDir          = "~/.local/share/lensfun"
	defaultExiftool            = "exiftool"
	defaultDarktableCLI        = "darktable-cli"
	defaultTCACorrect          = "tca_correct"
	defaultGnuplot             = "gnuplot"
	defaultToolTimeout         = 600
	defaultMaxIterations       = 200
	defaultGradientThreshold   = 1e-10
	defaultVignettingBins      = 16
	defaultVignettingWidth     = 250
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultMetadataErrorPolicy = OnErrorAbort
	workDirEnv                 = "LENSCAL_WORKDIR"
	stateDirName               = ".lenscal"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir:    defaultWorkDir,
			LogDir:     defaultLogDir,
			LensfunDir: defaultLensfunDir,
		},
		Tools: Tools{
			Exiftool:       defaultExiftool,
			DarktableCLI:   defaultDarktableCLI,
			TCACorrect:     defaultTCACorrect,
			Gnuplot:        defaultGnuplot,
			TimeoutSeconds: defaultToolTimeout,
		},
		Metadata: Metadata{
			OnError: defaultMetadataErrorPolicy,
		},
		Fit: Fit{
			MaxIterations:     defaultMaxIterations,
			GradientThreshold: defaultGradientThreshold,
		},
		Vignetting: Vignetting{
			Bins:        defaultVignettingBins,
			ExportWidth: defaultVignettingWidth,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
