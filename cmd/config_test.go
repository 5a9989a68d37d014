package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/wayout/internal/config"
)

// executeCommand runs the root command with args and returns its output
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	// flags are package globals and survive between executions
	configPath, logLevel = "", ""
	jsonOutput = false
	castMonitor, castFrames, castCursor, castLive = "", 0, "", false
	configInteractive = false
	viper.Reset()
	config.SetConfigPath("")
	config.Set(nil)
	t.Cleanup(func() {
		viper.Reset()
		config.SetConfigPath("")
		config.Set(nil)
	})

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "wayout.toml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
	return path
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "wayout.toml")

	t.Run("creates config file when it doesn't exist", func(t *testing.T) {
		out, err := executeCommand(t, "config", "init", "--config", path)
		require.NoError(t, err)
		assert.Contains(t, out, path)

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(content), "swap_chain_length")
	})

	t.Run("doesn't overwrite existing config without force", func(t *testing.T) {
		require.NoError(t, os.WriteFile(path, []byte("[renderer]\nswap_chain_length = 5\n"), 0644))

		out, err := executeCommand(t, "config", "init", "--config", path)
		require.NoError(t, err)
		assert.Contains(t, out, "already exists")

		content, _ := os.ReadFile(path)
		assert.Equal(t, "[renderer]\nswap_chain_length = 5\n", string(content))
	})

	t.Run("overwrites with force flag", func(t *testing.T) {
		require.NoError(t, os.WriteFile(path, []byte("[renderer]\nswap_chain_length = 5\n"), 0644))

		_, err := executeCommand(t, "config", "init", "--force", "--config", path)
		require.NoError(t, err)

		content, _ := os.ReadFile(path)
		assert.Contains(t, string(content), "cursor_mode")
	})
}

func TestConfigShow(t *testing.T) {
	path := writeConfig(t, `
[monitors]
backend = "static"

[[monitors.outputs]]
name = "DP-1"
width = 1920
height = 1080
refresh = 60.0
enabled = true
`)

	out, err := executeCommand(t, "config", "show", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)
	assert.Contains(t, out, "static")
	assert.Contains(t, out, "DP-1")
	assert.Contains(t, out, "1920x1080")
}

func TestConfigPath(t *testing.T) {
	path := writeConfig(t, "")

	out, err := executeCommand(t, "config", "path", "--config", path)
	require.NoError(t, err)
	assert.Equal(t, path+"\n", out)
}

func TestConfigValidation(t *testing.T) {
	t.Run("invalid TOML", func(t *testing.T) {
		path := writeConfig(t, "[renderer\nswap_chain_length = 2\n")
		_, err := executeCommand(t, "config", "show", "--config", path)
		assert.Error(t, err)
	})

	t.Run("unknown backend", func(t *testing.T) {
		path := writeConfig(t, "[monitors]\nbackend = \"xrandr\"\n")
		_, err := executeCommand(t, "config", "show", "--config", path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "xrandr")
	})
}

func TestVersion(t *testing.T) {
	out, err := executeCommand(t, "version", "--config", writeConfig(t, ""))
	require.NoError(t, err)
	assert.Contains(t, out, "wayout "+Version)
}
