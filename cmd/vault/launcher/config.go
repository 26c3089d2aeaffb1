// This file maps the CLI context to the launcher Config: defaults, then the
// named preset, then an optional config file, then flag overrides.

package launcher

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gagliardetto/solana-go"
	"gopkg.in/urfave/cli.v1"
	"gopkg.in/yaml.v3"

	"github.com/rony4d/interest-vault/host"
	"github.com/rony4d/interest-vault/integration"
	"github.com/rony4d/interest-vault/vault"
)

// Config aggregates everything the launcher commands need.
type Config struct {
	Logging LoggingConfig `yaml:"logging"`
	Sentry  SentryConfig  `yaml:"sentry"`
	Vault   VaultConfig   `yaml:"vault"`
}

type LoggingConfig struct {
	Verbosity int    `yaml:"verbosity"`
	Format    string `yaml:"format"`
	Color     bool   `yaml:"color"`
}

type SentryConfig struct {
	DSN string `yaml:"dsn"`
}

type VaultConfig struct {
	Preset string `yaml:"preset"`
	// ProgramID is a base58 program address. Empty means derived from
	// ProgramLabel.
	ProgramID      string `yaml:"program"`
	ProgramLabel   string `yaml:"program_label"`
	BaseDecimals   uint8  `yaml:"base_decimals"`
	ShareDecimals  uint8  `yaml:"share_decimals"`
	PayoutDecimals uint8  `yaml:"payout_decimals"`
	BoostBps       uint16 `yaml:"boost_bps"`
}

// Program resolves the program id.
func (c VaultConfig) Program() (solana.PublicKey, error) {
	if c.ProgramID == "" {
		return host.LabelKey(c.ProgramLabel), nil
	}
	pk, err := solana.PublicKeyFromBase58(c.ProgramID)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("program id %q: %w", c.ProgramID, err)
	}
	return pk, nil
}

// ProcessorConfig returns the host configuration for this deployment.
func (c VaultConfig) ProcessorConfig() (host.Config, error) {
	program, err := c.Program()
	if err != nil {
		return host.Config{}, err
	}
	cfg := host.DefaultConfig(program)
	cfg.ShareDecimals = c.ShareDecimals
	cfg.PayoutDecimals = c.PayoutDecimals
	return cfg, nil
}

func (c *VaultConfig) applyPreset(p integration.PresetConfig) {
	cur := integration.PresetConfig{
		Name:           c.Preset,
		BaseDecimals:   c.BaseDecimals,
		ShareDecimals:  c.ShareDecimals,
		PayoutDecimals: c.PayoutDecimals,
		BoostBps:       c.BoostBps,
	}
	integration.ApplyPreset(&cur, p)
	c.Preset = cur.Name
	c.BaseDecimals = cur.BaseDecimals
	c.ShareDecimals = cur.ShareDecimals
	c.PayoutDecimals = cur.PayoutDecimals
	c.BoostBps = cur.BoostBps
}

// -----------------------------------------------------------------------------
// Default config + builders
// -----------------------------------------------------------------------------

//	defaultConfig copies the Defaults from defaults.go into a Config so the
//	two files stay in sync.

func defaultConfig() Config {
	d := DefaultConfig()
	return Config{
		Logging: LoggingConfig{
			Verbosity: d.Logging.Verbosity,
			Format:    d.Logging.Format,
			Color:     d.Logging.Color,
		},
		Sentry: SentryConfig{DSN: d.Sentry.DSN},
		Vault: VaultConfig{
			Preset:         d.Vault.Preset,
			ProgramLabel:   d.Vault.ProgramLabel,
			BaseDecimals:   d.Vault.BaseDecimals,
			ShareDecimals:  d.Vault.ShareDecimals,
			PayoutDecimals: d.Vault.PayoutDecimals,
			BoostBps:       d.Vault.BoostBps,
		},
	}
}

// MakeAllConfigs merges defaults, the selected preset, config-file values and
// CLI overrides into a single config struct, then validates it.
func MakeAllConfigs(ctx *cli.Context) (Config, error) {
	cfg := defaultConfig()

	var file []byte
	if path := globalString(ctx, "config"); path != "" {
		raw, err := os.ReadFile(resolvePath(path))
		if err != nil {
			return cfg, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
		file = raw
	}

	// The preset goes underneath the file so explicit file values win.
	presetName := cfg.Vault.Preset
	if file != nil {
		var head struct {
			Vault struct {
				Preset string `yaml:"preset"`
			} `yaml:"vault"`
		}
		if err := yaml.Unmarshal(file, &head); err != nil {
			return cfg, fmt.Errorf("failed to parse config file: %w", err)
		}
		if head.Vault.Preset != "" {
			presetName = head.Vault.Preset
		}
	}
	if isSet(ctx, "preset") {
		presetName = globalString(ctx, "preset")
	}
	preset, err := integration.GetPresetByName(presetName)
	if err != nil {
		return cfg, err
	}
	cfg.Vault.applyPreset(preset)

	if file != nil {
		if err := loadConfigFile(file, &cfg); err != nil {
			return cfg, err
		}
		cfg.Vault.Preset = preset.Name
	}

	applyCLIOverrides(ctx, &cfg)

	return cfg, cfg.validate()
}

// -----------------------------------------------------------------------------
// Config-file / CLI wiring
// -----------------------------------------------------------------------------

// loadConfigFile decodes YAML into cfg. JSON is valid YAML, so both work.
// Keys absent from the file keep their current values.
func loadConfigFile(raw []byte, cfg *Config) error {
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

func applyCLIOverrides(ctx *cli.Context, cfg *Config) {
	if isSet(ctx, "log.format") {
		cfg.Logging.Format = globalString(ctx, "log.format")
	}
	if isSet(ctx, "log.verbosity") {
		cfg.Logging.Verbosity = globalInt(ctx, "log.verbosity")
	}
	if isSet(ctx, "log.color") {
		cfg.Logging.Color = globalBool(ctx, "log.color")
	}
	if isSet(ctx, "sentry.dsn") {
		cfg.Sentry.DSN = globalString(ctx, "sentry.dsn")
	}

	if isSet(ctx, "program") {
		cfg.Vault.ProgramID = globalString(ctx, "program")
	}
	if isSet(ctx, "base.decimals") {
		cfg.Vault.BaseDecimals = uint8(globalInt(ctx, "base.decimals"))
	}
	if isSet(ctx, "share.decimals") {
		cfg.Vault.ShareDecimals = uint8(globalInt(ctx, "share.decimals"))
	}
	if isSet(ctx, "payout.decimals") {
		cfg.Vault.PayoutDecimals = uint8(globalInt(ctx, "payout.decimals"))
	}
	if isSet(ctx, "boost.bps") {
		cfg.Vault.BoostBps = uint16(globalInt(ctx, "boost.bps"))
	}
}

func (c Config) validate() error {
	if c.Logging.Verbosity < 0 || c.Logging.Verbosity > 5 {
		return fmt.Errorf("log.verbosity %d out of range 0..5", c.Logging.Verbosity)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format %q: want text or json", c.Logging.Format)
	}
	if c.Vault.BoostBps > vault.BpsDenominator {
		return fmt.Errorf("boost.bps %d exceeds %d", c.Vault.BoostBps, vault.BpsDenominator)
	}
	_, err := c.Vault.Program()
	return err
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

// Config flags are registered on the app, so commands read them through the
// parent context.

func isSet(ctx *cli.Context, name string) bool {
	return ctx.IsSet(name) || ctx.GlobalIsSet(name)
}

func globalString(ctx *cli.Context, name string) string {
	if ctx.IsSet(name) {
		return ctx.String(name)
	}
	return ctx.GlobalString(name)
}

func globalInt(ctx *cli.Context, name string) int {
	if ctx.IsSet(name) {
		return ctx.Int(name)
	}
	return ctx.GlobalInt(name)
}

func globalBool(ctx *cli.Context, name string) bool {
	if ctx.IsSet(name) {
		return ctx.Bool(name)
	}
	return ctx.GlobalBool(name)
}

func resolvePath(p string) string {
	if strings.HasPrefix(p, "~") {
		return filepath.Join(GuessHomeDir(), strings.TrimPrefix(p, "~"))
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(GuessWorkDir(), p)
}

func splitCSV(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func GuessWorkDir() string {
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return "."
}

func GuessHomeDir() string {
	if dir, err := os.UserHomeDir(); err == nil {
		return dir
	}
	return "."
}
