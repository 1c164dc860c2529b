package cmd

import (
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	sim "github.com/stockyard-sim/stockyard-sim/sim"
)

// envPrefix scopes environment overrides, e.g. STOCKYARD_SAFETY_MARGIN=3.
const envPrefix = "STOCKYARD"

// LoadYardConfig reads the yard geometry from path (or uses the default yard
// when path is empty), applies STOCKYARD_* environment overrides to scalar
// settings, and validates the result.
func LoadYardConfig(path string) (sim.YardConfig, error) {
	v := viper.New()
	defaults := sim.DefaultYardConfig()
	setYardDefaults(v, defaults)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return sim.YardConfig{}, fmt.Errorf("reading yard config %s: %w", path, err)
		}
	}

	// Lists given in the file replace the defaults wholesale.
	cfg := defaults
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.ZeroFields = true
		dc.ErrorUnused = true
	}); err != nil {
		return sim.YardConfig{}, fmt.Errorf("decoding yard config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return sim.YardConfig{}, fmt.Errorf("invalid yard config: %w", err)
	}
	return cfg, nil
}

// setYardDefaults registers every scalar key so environment overrides apply
// even when the file omits them.
func setYardDefaults(v *viper.Viper, d sim.YardConfig) {
	v.SetDefault("row_range.min", d.RowRange.Min)
	v.SetDefault("row_range.max", d.RowRange.Max)
	v.SetDefault("bay_range.min", d.BayRange.Min)
	v.SetDefault("bay_range.max", d.BayRange.Max)
	v.SetDefault("safety_margin", d.SafetyMargin)
	v.SetDefault("seed", d.Seed)
	v.SetDefault("horizon", d.Horizon)
	v.SetDefault("record_events", d.RecordEvents)
}
