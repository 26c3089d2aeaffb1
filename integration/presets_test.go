package integration

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestDefaultPreset_hasReasonableDefaults guards the baseline profile: if the
// defaults change, we want to know immediately.
func TestDefaultPreset_hasReasonableDefaults(t *testing.T) {
	require := require.New(t)

	cfg := DefaultPreset()
	require.Equal("default", cfg.Name)
	require.Equal(uint8(6), cfg.BaseDecimals)
	require.Equal(uint8(6), cfg.ShareDecimals)
	require.Equal(uint8(6), cfg.PayoutDecimals)
	require.Zero(cfg.BoostBps)
}

func TestPresets_overrideBoostOnly(t *testing.T) {
	require := require.New(t)
	def := DefaultPreset()

	for _, p := range []PresetConfig{USDCPreset(), BoostHeavyPreset()} {
		require.NotEqual(def.Name, p.Name)
		require.Equal(def.ShareDecimals, p.ShareDecimals, p.Name)
		require.Equal(def.PayoutDecimals, p.PayoutDecimals, p.Name)
		require.NotZero(p.BoostBps, p.Name)
		require.LessOrEqual(p.BoostBps, uint16(10_000), p.Name)
	}
	require.Greater(BoostHeavyPreset().BoostBps, USDCPreset().BoostBps)
}

func TestGetPresetByName(t *testing.T) {
	for _, name := range []string{"default", "usdc", "boost-heavy"} {
		t.Run(name, func(t *testing.T) {
			cfg, err := GetPresetByName(name)
			require.NoError(t, err)
			require.Equal(t, name, cfg.Name)
		})
	}

	cfg, err := GetPresetByName("")
	require.NoError(t, err)
	require.Equal(t, "default", cfg.Name)

	_, err = GetPresetByName("archive")
	require.Error(t, err)
	require.Contains(t, err.Error(), "archive")
}

func TestApplyPreset(t *testing.T) {
	require := require.New(t)

	target := PresetConfig{Name: "custom", BaseDecimals: 9, ShareDecimals: 6, PayoutDecimals: 6, BoostBps: 500}
	ApplyPreset(&target, PresetConfig{BoostBps: 0})
	require.Equal(uint8(9), target.BaseDecimals, "zero decimals keep the target")
	require.Zero(target.BoostBps, "zero bps is applied")
	require.Equal("custom", target.Name)

	ApplyPreset(&target, BoostHeavyPreset())
	require.Equal(BoostHeavyPreset(), target)
}
