// Package config loads gateway configuration from file, environment, and
// flags. Precedence (highest to lowest): flags > env vars > config file >
// defaults.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/tabular-ai/sqlgate/pkg/datasource"
	"github.com/tabular-ai/sqlgate/pkg/schemainfo"
	"github.com/tabular-ai/sqlgate/pkg/sqlguard"
)

// Config file names searched in the working directory.
const (
	ConfigFileName    = "sqlgate.yaml"
	ConfigFileNameAlt = "sqlgate.yml"
)

// EnvPrefix is the environment variable prefix: SQLGATE_ENGINE,
// SQLGATE_ALLOW_WRITES, SQLGATE_CATEGORICAL_THRESHOLD, ...
const EnvPrefix = "SQLGATE_"

// Config holds gateway configuration.
type Config struct {
	// Engine is the process-wide default embedded engine.
	Engine string `koanf:"engine"`
	// AllowWrites re-enables the update-blocked keyword set.
	AllowWrites bool `koanf:"allow_writes"`
	// CategoricalThreshold controls schema facet emission.
	CategoricalThreshold int `koanf:"categorical_threshold"`
	// Verbose enables debug logging.
	Verbose bool `koanf:"verbose"`
	// Output selects the result rendering format.
	Output string `koanf:"output"`
}

// Load builds the configuration. cfgFile may be empty, in which case
// sqlgate.yaml / sqlgate.yml in the working directory are tried. flags may
// be nil.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults.
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"engine":                datasource.BuiltinDefaultEngine,
		"allow_writes":          false,
		"categorical_threshold": schemainfo.DefaultCategoricalThreshold,
		"verbose":               false,
		"output":                "table",
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file, if present.
	path := findConfigFile(cfgFile)
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	// 3. Environment (SQLGATE_ALLOW_WRITES -> allow_writes). Boolean-like
	// settings accept the guard's truthy strings ("1"/"true"/"yes").
	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", func(key, value string) (string, interface{}) {
		name := strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
		switch name {
		case "allow_writes", "verbose":
			return name, sqlguard.ParseToggle(value)
		default:
			return name, value
		}
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags, highest priority, only when explicitly set.
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			key := strings.ReplaceAll(f.Name, "-", "_")
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// The engine setting is the process-wide default, resolved once here
	// rather than read from ambient state at query time.
	if cfg.Engine != "" {
		if err := datasource.SetDefaultEngine(cfg.Engine); err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}

// Validate checks the loaded configuration against the engine allow-list
// and value ranges.
func (c *Config) Validate() error {
	if c.Engine != "" {
		registered := false
		for _, name := range datasource.Engines() {
			if strings.EqualFold(name, c.Engine) {
				registered = true
				break
			}
		}
		if !registered {
			return fmt.Errorf("unknown engine %q (available: %s)", c.Engine, strings.Join(datasource.Engines(), ", "))
		}
	}
	if c.CategoricalThreshold < 1 {
		return fmt.Errorf("categorical_threshold must be at least 1, got %d", c.CategoricalThreshold)
	}
	return nil
}

func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if _, err := os.Stat(ConfigFileName); err == nil {
		return ConfigFileName
	}
	if _, err := os.Stat(ConfigFileNameAlt); err == nil {
		return ConfigFileNameAlt
	}
	return ""
}
