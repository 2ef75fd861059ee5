package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unsetenv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	require.NoError(t, os.Unsetenv(key))
}

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("DISCORD_BOT_TOKEN", "token")
	unsetenv(t, "CUSTOM_CTFS_FILE")

	c, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "token", c.DiscordToken)
	assert.Equal(t, "!", c.Prefix)
	assert.Equal(t, "custom_ctfs.json", c.DataFile)
	assert.Equal(t, "https://ctftime.org/api/v1", c.DirectoryUrl)
	assert.Equal(t, 10*time.Second, c.DirectoryTimeout)
	assert.Equal(t, 25, c.PageSize)

	level, err := c.Level()
	require.NoError(t, err)
	assert.Equal(t, zerolog.InfoLevel, level)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("DISCORD_BOT_TOKEN", "token")
	t.Setenv("COMMAND_PREFIX", "?")
	t.Setenv("CUSTOM_CTFS_FILE", "/var/lib/ctftimebot/ctfs.json")
	t.Setenv("CTFTIME_TIMEOUT", "3s")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("PAGE_SIZE", "10")

	c, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "?", c.Prefix)
	assert.Equal(t, "/var/lib/ctftimebot/ctfs.json", c.DataFile)
	assert.Equal(t, 3*time.Second, c.DirectoryTimeout)
	assert.Equal(t, 10, c.PageSize)
	level, err := c.Level()
	require.NoError(t, err)
	assert.Equal(t, zerolog.DebugLevel, level)
}

func TestEmptyDataFileKeepsCtfsInMemory(t *testing.T) {
	t.Setenv("DISCORD_BOT_TOKEN", "token")
	t.Setenv("CUSTOM_CTFS_FILE", "")

	c, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "", c.DataFile)
}

func TestFromEnvErrors(t *testing.T) {
	t.Setenv("DISCORD_BOT_TOKEN", "")
	_, err := FromEnv()
	assert.Error(t, err)

	cases := map[string]string{
		"PAGE_SIZE":       "30",
		"CTFTIME_TIMEOUT": "0s",
		"LOG_LEVEL":       "loud",
		"COMMAND_PREFIX":  " ",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv("DISCORD_BOT_TOKEN", "token")
			t.Setenv(key, value)
			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}

func TestLoadEnvFile(t *testing.T) {
	require.NoError(t, LoadEnvFile(filepath.Join(t.TempDir(), "missing.env")))
	require.NoError(t, LoadEnvFile(""))

	filename := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(filename, []byte("DISCORD_BOT_TOKEN=from-file\n"), 0o600))

	unsetenv(t, "DISCORD_BOT_TOKEN")
	require.NoError(t, LoadEnvFile(filename))

	c, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "from-file", c.DiscordToken)
}
