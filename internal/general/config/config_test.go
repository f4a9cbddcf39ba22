package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalYAML = `
database:
  user: unipool
  password: secret
  database: unipool
rabbitmq:
  user: guest
  password: guest
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromFile_Defaults(t *testing.T) {
	cfg, err := LoadFromFile(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 3000, cfg.Services.BookingServicePort)
	assert.Equal(t, 6, cfg.Safety.OperatingHourStart)
	assert.Equal(t, 22, cfg.Safety.OperatingHourEnd)
	assert.Equal(t, 3, cfg.Safety.NoShowThreshold)
	assert.NotEmpty(t, cfg.JWT.SecretKey)
}

func TestLoadFromFile_ChannelsOnByDefault(t *testing.T) {
	cfg, err := LoadFromFile(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	assert.True(t, cfg.Notifications.InAppEnabled)
	assert.True(t, cfg.Notifications.PushEnabled)
	assert.True(t, cfg.Notifications.EmailEnabled)
	assert.False(t, cfg.Notifications.SMSEnabled)
}

func TestLoadFromFile_ExplicitChannelOffRespected(t *testing.T) {
	body := minimalYAML + `
notifications:
  email_enabled: false
`
	cfg, err := LoadFromFile(writeConfig(t, body))
	require.NoError(t, err)

	assert.False(t, cfg.Notifications.EmailEnabled)
	assert.True(t, cfg.Notifications.InAppEnabled)
	assert.True(t, cfg.Notifications.PushEnabled)
}

func TestLoadFromFile_ValidationErrors(t *testing.T) {
	body := `
database:
  user: unipool
rabbitmq:
  user: guest
  password: guest
`
	_, err := LoadFromFile(writeConfig(t, body))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database.password is required")
}

func TestLoadFromFile_MissingFile(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
