package config

import (
	"fmt"
	"sort"
	"strings"
)

// presets mirror the configurations offered by the project's command builder.
var presets = map[string]func(*InstallationConfig){
	"ckan-only": func(c *InstallationConfig) {
		c.Extensions = 0
		c.Features = 0
	},
	"dathere-default": func(c *InstallationConfig) {
		c.CKANVersion = DefaultCKANVersion
		c.Extensions = NewExtensionSet(Scheming, DataStore, DataPusherPlus)
		c.Features = FeatureSet(0).With(FeatureEnableSSH)
	},
}

// PresetNames returns the known preset names, sorted.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// applyPreset overlays the named preset onto cfg. The empty name is a no-op.
func applyPreset(name string, cfg *InstallationConfig) error {
	if name == "" {
		return nil
	}
	apply, ok := presets[strings.ToLower(name)]
	if !ok {
		return fmt.Errorf("unknown preset %q (valid: %s)", name, strings.Join(PresetNames(), ", "))
	}
	apply(cfg)
	return nil
}
