package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/tabular-ai/sqlgate/pkg/engines/duckdb"
	_ "github.com/tabular-ai/sqlgate/pkg/engines/sqlite"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sqlgate.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir()) // no config file in reach

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, "duckdb", cfg.Engine)
	assert.False(t, cfg.AllowWrites)
	assert.Equal(t, 12, cfg.CategoricalThreshold)
	assert.False(t, cfg.Verbose)
	assert.Equal(t, "table", cfg.Output)
}

func TestLoadConfigFile(t *testing.T) {
	path := writeConfigFile(t, "engine: sqlite\ncategorical_threshold: 5\n")

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Engine)
	assert.Equal(t, 5, cfg.CategoricalThreshold)
	assert.Equal(t, "table", cfg.Output, "unset keys keep their defaults")
}

func TestLoadFindsFileInWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sqlgate.yaml"), []byte("output: json\n"), 0o644))
	t.Chdir(dir)

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Output)
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfigFile(t, "engine: duckdb\nallow_writes: false\n")
	t.Setenv("SQLGATE_ENGINE", "sqlite")
	t.Setenv("SQLGATE_ALLOW_WRITES", "yes")

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Engine)
	assert.True(t, cfg.AllowWrites, "guard-style truthy strings are accepted")
}

func TestFlagsOverrideEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SQLGATE_CATEGORICAL_THRESHOLD", "5")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("categorical-threshold", 12, "")
	flags.String("engine", "", "")
	require.NoError(t, flags.Set("categorical-threshold", "7"))

	cfg, err := Load("", flags)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.CategoricalThreshold, "explicitly set flags win over env")
	assert.Equal(t, "duckdb", cfg.Engine, "unchanged flags do not override lower layers")
}

func TestAllowWritesToggleStrings(t *testing.T) {
	t.Chdir(t.TempDir())

	for _, truthy := range []string{"1", "true", "YES"} {
		t.Setenv("SQLGATE_ALLOW_WRITES", truthy)
		cfg, err := Load("", nil)
		require.NoError(t, err)
		assert.True(t, cfg.AllowWrites, "value %q", truthy)
	}

	t.Setenv("SQLGATE_ALLOW_WRITES", "0")
	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.False(t, cfg.AllowWrites)
}

func TestLoadRejectsUnknownEngine(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SQLGATE_ENGINE", "oracle")

	_, err := Load("", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "oracle")
	assert.Contains(t, err.Error(), "available", "error names the allow-list")
}

func TestLoadRejectsBadThreshold(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SQLGATE_CATEGORICAL_THRESHOLD", "0")

	_, err := Load("", nil)
	assert.Error(t, err)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	assert.Error(t, err)
}
