package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/approval-workflow/internal/domain/entity"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "data/approval.db", cfg.Database.Path)
	assert.True(t, cfg.Database.AutoMigrate)
	assert.Equal(t, 5*time.Minute, cfg.Database.ConnMaxLifetime)
	assert.Equal(t, "json", cfg.Logger.Format)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Address())
}

func TestLoad_FileAndEnvOverrides(t *testing.T) {
	path := writeFile(t, "config.yaml", `
server:
  port: 9090
  read_timeout: 3s
database:
  driver: memory
logger:
  level: debug
  format: console
workflows:
  seed_file: seeds.yaml
`)
	t.Setenv("APPROVAL_LOG_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 3*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, DriverMemory, cfg.Database.Driver)
	assert.Equal(t, "warn", cfg.Logger.Level)
	assert.Equal(t, "console", cfg.Logger.Format)
	assert.Equal(t, "seeds.yaml", cfg.Workflows.SeedFile)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:   ServerConfig{Port: 8080},
			Database: DatabaseConfig{Driver: DriverSQLite, Path: "x.db"},
			Logger:   LoggerConfig{Format: "json"},
			Metrics:  MetricsConfig{Enabled: true, Path: "/metrics"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, true},
		{"unknown driver", func(c *Config) { c.Database.Driver = "postgres" }, true},
		{"sqlite without path", func(c *Config) { c.Database.Path = "" }, true},
		{"memory without path", func(c *Config) { c.Database.Driver = DriverMemory; c.Database.Path = "" }, false},
		{"bad log format", func(c *Config) { c.Logger.Format = "xml" }, true},
		{"relative metrics path", func(c *Config) { c.Metrics.Path = "metrics" }, true},
		{"metrics disabled ignores path", func(c *Config) { c.Metrics.Enabled = false; c.Metrics.Path = "" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadWorkflowSeeds(t *testing.T) {
	path := writeFile(t, "seeds.yaml", `
workflows:
  - organization_id: acme
    name: Large expenses
    entity_type: expense
    conditions:
      - kind: amount_greater_than
        threshold: 1000
    steps:
      - approver: {kind: user, user_id: manager}
      - approver: {kind: role, role_name: finance}
  - organization_id: acme
    name: Drafts
    entity_type: bill
    active: false
`)

	seeds, err := LoadWorkflowSeeds(path)
	require.NoError(t, err)
	require.Len(t, seeds, 2)

	first := seeds[0]
	assert.Equal(t, "Large expenses", first.Name)
	assert.Nil(t, first.Active)
	require.Len(t, first.Conditions, 1)
	assert.Equal(t, entity.ConditionAmountGreaterThan, first.Conditions[0].Kind)
	assert.Equal(t, 1000.0, first.Conditions[0].Threshold)
	require.Len(t, first.Steps, 2)
	assert.Equal(t, entity.UserApprover("manager"), first.Steps[0].Approver)
	assert.Equal(t, entity.RoleApprover("finance"), first.Steps[1].Approver)

	require.NotNil(t, seeds[1].Active)
	assert.False(t, *seeds[1].Active)
}

func TestLoadWorkflowSeeds_Errors(t *testing.T) {
	unknownKey := writeFile(t, "typo.yaml", `
workflows:
  - organization_id: acme
    name: x
    entity_typ: expense
`)
	_, err := LoadWorkflowSeeds(unknownKey)
	assert.Error(t, err)

	noOrg := writeFile(t, "noorg.yaml", `
workflows:
  - name: x
    entity_type: expense
`)
	_, err = LoadWorkflowSeeds(noOrg)
	assert.ErrorContains(t, err, "organization_id")

	_, err = LoadWorkflowSeeds(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
