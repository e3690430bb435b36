package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const minimalConfig = `
bot:
  token: "token"
  guild_id: "guild"
database:
  username: "arabot"
  password: "secret"
  dbname: "arabot"
identifiers:
  roles:
    everyone: "guild"
    restricted: ["r1", "r2", "r3", "r4", "r5"]
    verified: "v1"
    cleared: "c1"
    restricted_staff: "s1"
  categories:
    restricted: "cat1"
  channels:
    restricted_logs: "log1"
`

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfigFile(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, "token", cfg.Bot.Token)
	assert.Equal(t, "logs", cfg.Logger.Directory)
	assert.Equal(t, "INFO", cfg.Logger.Level)
	assert.Equal(t, 3306, cfg.Database.Port)
	assert.Equal(t, "utf8mb4", cfg.Database.Charset)
	assert.Len(t, cfg.Identifiers.Roles.Restricted, 5)
}

func TestLoadRejectsMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load("")
	assert.Error(t, err)
}

func TestIdentifiersValidate(t *testing.T) {
	valid := IdentifiersConfig{
		Roles: RoleIdentifiers{
			Restricted: []string{"r1", "r2", "r3", "r4", "r5"},
			Verified:   "v1",
			Cleared:    "c1",
		},
		Categories: CategoryIdentifiers{Restricted: "cat1"},
	}
	assert.NoError(t, valid.Validate())

	wrongCount := valid
	wrongCount.Roles.Restricted = []string{"r1", "r2"}
	assert.Error(t, wrongCount.Validate())

	noVerified := valid
	noVerified.Roles.Verified = ""
	assert.Error(t, noVerified.Validate())

	noCleared := valid
	noCleared.Roles.Cleared = ""
	assert.Error(t, noCleared.Validate())

	noCategory := valid
	noCategory.Categories.Restricted = ""
	assert.Error(t, noCategory.Validate())
}
