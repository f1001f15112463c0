package config

import (
	"strings"

	"github.com/spf13/viper"
)

const (
	// DefaultPath is the settings file used when no override is given.
	DefaultPath = "BotSettings.ini"

	// EnvPrefix prefixes environment overrides, e.g. BOOT_NOTIFY_INI.
	EnvPrefix = "BOOT_NOTIFY"

	// PathKey is the viper key (and flag name) holding the settings path.
	PathKey = "ini"
)

// NewViper returns a viper instance that resolves the settings path from a
// bound flag, then the environment, then DefaultPath.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	v.SetDefault(PathKey, DefaultPath)
	return v
}

// ResolvePath returns the settings file path held by v.
func ResolvePath(v *viper.Viper) string {
	if p := strings.TrimSpace(v.GetString(PathKey)); p != "" {
		return p
	}
	return DefaultPath
}
