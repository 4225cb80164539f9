package playbook

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config is the resolved set of playbook-wide settings after layering
// global defaults, playbook config, and CLI flags.
type Config struct {
	EveryNth   int
	FileAmount float64
	LogPath    string
	WipeLog    bool
	DumpPath   string
}

// DefaultConfig returns the built-in defaults: no decimation, no sampling.
func DefaultConfig() Config {
	return Config{EveryNth: 1, FileAmount: 1.0}
}

// Overrides carries optionally-set fields from one config layer (the global
// defaults file or a playbook's `config` section). Pointers distinguish
// "not set" from the zero value, so a layer only overrides what it names.
type Overrides struct {
	EveryNth   *int     `yaml:"every_nth" mapstructure:"every_nth"`
	FileAmount *float64 `yaml:"file_amount" mapstructure:"file_amount"`
	LogPath    *string  `yaml:"log_path" mapstructure:"log_path"`
	WipeLog    *bool    `yaml:"wipe_log" mapstructure:"wipe_log"`
	DumpPath   *string  `yaml:"dump_path" mapstructure:"dump_path"`
}

// Apply layers o onto base, overriding only the fields o sets.
func (o Overrides) Apply(base Config) Config {
	if o.EveryNth != nil {
		base.EveryNth = *o.EveryNth
	}
	if o.FileAmount != nil {
		base.FileAmount = *o.FileAmount
	}
	if o.LogPath != nil {
		base.LogPath = *o.LogPath
	}
	if o.WipeLog != nil {
		base.WipeLog = *o.WipeLog
	}
	if o.DumpPath != nil {
		base.DumpPath = *o.DumpPath
	}
	return base
}

// DefaultSearchDirs returns the four locations the global defaults file
// ("config.yaml") is discovered in, in the order they're checked: alongside
// the binary, the current working directory, a crunchize/config
// subdirectory, and the user's ~/.crunchize/.
func DefaultSearchDirs() []string {
	var dirs []string
	if exe, err := os.Executable(); err == nil {
		dirs = append(dirs, filepath.Dir(exe))
	}
	if cwd, err := os.Getwd(); err == nil {
		dirs = append(dirs, cwd, filepath.Join(cwd, "crunchize", "config"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".crunchize"))
	}
	return dirs
}

// DiscoverGlobalConfig searches dirs (in order) for a "config.yaml"/"config.yml"
// file and returns the overrides it contains. The first directory in dirs
// that holds such a file wins; files in later directories are not read or
// merged.
func DiscoverGlobalConfig(dirs []string) (Overrides, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, d := range dirs {
		v.AddConfigPath(d)
	}

	var out Overrides
	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); notFound {
			return out, nil
		}
		return out, err
	}
	if err := v.Unmarshal(&out); err != nil {
		return out, err
	}
	return out, nil
}
