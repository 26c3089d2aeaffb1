package integration

import "fmt"

// Package integration bundles named deployment profiles for the vault
// tooling. A preset fixes the token decimals and the default boost split so a
// scenario or a proof run can be reproduced from its name alone.
//
// Usage:
//   cfg := integration.USDCPreset()       // six-decimal stable base token
//   cfg := integration.BoostHeavyPreset() // most donations feed the boost pool
//
// The launcher applies the selected preset on top of its defaults before
// config-file and flag overrides.

// PresetConfig captures the parameters that vary across deployment profiles.
type PresetConfig struct {
	Name           string // human-readable identifier (e.g., "usdc", "boost-heavy")
	BaseDecimals   uint8  // decimals of the base token mint
	ShareDecimals  uint8  // decimals of the share mint created at Init
	PayoutDecimals uint8  // decimals boost payouts are transferred with
	BoostBps       uint16 // default share of a donation routed to the boost pool
}

func DefaultPreset() PresetConfig {

	return PresetConfig{
		Name:           "default",
		BaseDecimals:   6, // share and payout decimals are fixed at 6 on the program side
		ShareDecimals:  6,
		PayoutDecimals: 6,
		BoostBps:       0, // donations raise the price per share only
	}
}

// USDCPreset models a vault over a six-decimal stable token with a modest
// boost pool.
func USDCPreset() PresetConfig {
	cfg := DefaultPreset()
	cfg.Name = "usdc"
	cfg.BoostBps = 2_000 // 20% of each donation is distributed by merkle claim
	return cfg
}

// BoostHeavyPreset routes most of every donation to claimants. Price per share
// grows slowly under this profile.
func BoostHeavyPreset() PresetConfig {
	cfg := DefaultPreset()
	cfg.Name = "boost-heavy"
	cfg.BoostBps = 7_500
	return cfg
}

// GetPresetByName looks up a preset by its string identifier. Returns an
// error if the name is unrecognized.
//
// Example:
//
//	preset, err := integration.GetPresetByName("usdc")
//	if err != nil {
//	    log.Fatal(err)
//	}
func GetPresetByName(name string) (PresetConfig, error) {
	switch name {
	case "usdc":
		return USDCPreset(), nil
	case "boost-heavy":
		return BoostHeavyPreset(), nil
	case "default", "":
		return DefaultPreset(), nil
	default:
		return PresetConfig{}, fmt.Errorf("unknown preset: %q (valid: default, usdc, boost-heavy)", name)
	}
}

// ApplyPreset merges a preset into target. Non-zero decimals override; the
// boost split is always applied since zero is a meaningful value.
func ApplyPreset(target *PresetConfig, preset PresetConfig) {
	if preset.BaseDecimals > 0 {
		target.BaseDecimals = preset.BaseDecimals
	}
	if preset.ShareDecimals > 0 {
		target.ShareDecimals = preset.ShareDecimals
	}
	if preset.PayoutDecimals > 0 {
		target.PayoutDecimals = preset.PayoutDecimals
	}
	target.BoostBps = preset.BoostBps
	if preset.Name != "" {
		target.Name = preset.Name
	}
}
