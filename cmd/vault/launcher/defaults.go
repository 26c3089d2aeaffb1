package launcher

// Defaults bundles the baseline configuration the launcher uses before the
// preset, the config file and flags override it.

type Defaults struct {
	Logging LoggingDefaults
	Sentry  SentryDefaults
	Vault   VaultDefaults
}

// LoggingDefaults controls log verbosity/format.
type LoggingDefaults struct {
	Verbosity int    //	Log level numeric (0=fatal, 1=error, 2=warn, 3=info, 4=debug, 5=trace).
	Format    string //	Log output format (text vs json).
	Color     bool   //	Whether to use ANSI color codes in logs (helpful on terminals, best disabled when piping to files).
}

// SentryDefaults configures error reporting.
type SentryDefaults struct {
	DSN string //	Sentry project DSN. Empty disables the hook; when set, error, fatal and panic entries are reported.
}

// VaultDefaults describes the deployment simulations run against.
type VaultDefaults struct {
	Preset         string //	Named deployment profile applied before file and flag overrides (default, usdc, boost-heavy).
	ProgramLabel   string //	Label the program id is derived from when no explicit --program is given.
	BaseDecimals   uint8  //	Decimals of the base token mint; deposits and donations must state the same value.
	ShareDecimals  uint8  //	Decimals of the share mint. The program mints shares with exactly this precision.
	PayoutDecimals uint8  //	Decimals boost payouts are transferred with.
	BoostBps       uint16 //	Share of a donation routed to the boost pool when a scenario step omits it.
}

// DefaultConfig returns a fully populated Defaults instance.

func DefaultConfig() Defaults {
	return Defaults{
		Logging: LoggingDefaults{
			Verbosity: 3,
			Format:    "text",
			Color:     true,
		},
		Vault: VaultDefaults{
			Preset:         "default",
			ProgramLabel:   "interest-vault/program",
			BaseDecimals:   6,
			ShareDecimals:  6,
			PayoutDecimals: 6,
		},
	}
}
