package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TFMV/salesreport/pkg/core"
	"github.com/TFMV/salesreport/pkg/store"
)

func TestDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, store.BackendSQLite, cfg.Store.Driver)
	assert.Equal(t, store.DefaultPath, cfg.Store.Path)
	assert.Equal(t, core.DefaultAgeRange, cfg.Report)
	assert.Equal(t, ".", cfg.Output.Dir)
	assert.Equal(t, "csv", cfg.Output.Format)
	assert.Equal(t, 5555, cfg.Server.Port)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "salesreport.yaml")
	yaml := `
store:
  driver: duckdb
  path: /data/sales.duckdb
report:
  age_min: 20
  age_max: 30
output:
  dir: out
  format: json
server:
  port: 8080
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "duckdb", cfg.Store.Driver)
	assert.Equal(t, "/data/sales.duckdb", cfg.Store.Path)
	assert.Equal(t, core.AgeRange{Min: 20, Max: 30}, cfg.Report)
	assert.Equal(t, "json", cfg.Output.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestEnvOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SALESREPORT_REPORT_AGE_MAX", "40")
	t.Setenv("SALESREPORT_STORE_PATH", "other.db")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, int64(40), cfg.Report.Max)
	assert.Equal(t, "other.db", cfg.Store.Path)
}

func TestMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidateConfig(t *testing.T) {
	valid := Config{
		Store:  store.DefaultConfig(),
		Report: core.DefaultAgeRange,
		Output: OutputConfig{Dir: ".", Format: "csv"},
		Server: ServerConfig{Port: 5555},
	}
	assert.NoError(t, valid.Validate())

	cases := map[string]func(c *Config){
		"inverted range": func(c *Config) { c.Report = core.AgeRange{Min: 40, Max: 30} },
		"bad driver":     func(c *Config) { c.Store.Driver = "oracle" },
		"bad format":     func(c *Config) { c.Output.Format = "xlsx" },
		"empty dir":      func(c *Config) { c.Output.Dir = "" },
		"bad port":       func(c *Config) { c.Server.Port = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := valid
			mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}
