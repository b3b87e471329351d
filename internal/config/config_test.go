package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, TrackerCamera, cfg.Tracker.Mode)
	assert.Equal(t, 60, cfg.Scene.TickRate)
	assert.Equal(t, 400, cfg.Scene.LightCount)
	assert.Equal(t, time.Second/60, cfg.TickInterval())
	assert.Equal(t, "gemini-2.0-flash", cfg.Greeting.Model)
	assert.Equal(t, filepath.Join(cfg.DataDir, "yuletide.db"), cfg.DBPath())
}

func TestLoad_YAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, `
server:
  addr: "127.0.0.1:9000"
tracker:
  mode: push
scene:
  tick_rate: 30
  themes:
    - name: Mono
      palette: [0xffffff]
greeting:
  timeout: 3s
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	assert.Equal(t, TrackerPush, cfg.Tracker.Mode)
	assert.Equal(t, 30, cfg.Scene.TickRate)
	require.Len(t, cfg.Scene.Themes, 1)
	assert.Equal(t, "Mono", cfg.Scene.Themes[0].Name)
	assert.Equal(t, []uint32{0xffffff}, cfg.Scene.Themes[0].Palette)
	assert.Equal(t, 3*time.Second, cfg.Greeting.Timeout)
	// untouched sections keep defaults
	assert.Equal(t, 15, cfg.Camera.ActiveFPS)
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, "server:\n  addr: \":9000\"\n")

	t.Setenv("YULETIDE_SERVER_ADDR", ":9100")
	t.Setenv("YULETIDE_AUDIO_ENABLED", "false")
	t.Setenv("YULETIDE_CAMERA_IDLE_TIMEOUT", "500ms")
	t.Setenv("GEMINI_API_KEY", "from-env")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9100", cfg.Server.Addr)
	assert.False(t, cfg.Audio.Enabled)
	assert.Equal(t, 500*time.Millisecond, cfg.Camera.IdleTimeout)
	assert.Equal(t, "from-env", cfg.Greeting.APIKey)
}

func TestLoad_DataDirMovesDerivedPaths(t *testing.T) {
	dataDir := t.TempDir()
	t.Setenv("YULETIDE_DATA_DIR", dataDir)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, dataDir, cfg.DataDir)
	assert.Equal(t, filepath.Join(dataDir, "plugins"), cfg.PluginsDir)
	assert.Equal(t, filepath.Join(dataDir, "logs", "yuletide.log"), cfg.Log.Path)
	assert.Equal(t, filepath.Join(dataDir, "yuletide.db"), cfg.DBPath())

	t.Run("explicit paths are kept", func(t *testing.T) {
		t.Setenv("YULETIDE_PLUGINS_DIR", "/opt/yuletide/plugins")
		t.Setenv("YULETIDE_LOG_PATH", "/var/log/yuletide.log")

		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, "/opt/yuletide/plugins", cfg.PluginsDir)
		assert.Equal(t, "/var/log/yuletide.log", cfg.Log.Path)
	})
}

func TestLoad_PrefixedKeyWins(t *testing.T) {
	t.Setenv("YULETIDE_GREETING_API_KEY", "prefixed")
	t.Setenv("GEMINI_API_KEY", "plain")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "prefixed", cfg.Greeting.APIKey)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, filepath.Join(dir, ".env"), "YULETIDE_GREETING_MODEL=gemini-test\n")
	t.Cleanup(func() { os.Unsetenv("YULETIDE_GREETING_MODEL") })

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "gemini-test", cfg.Greeting.Model)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"bad mode", "tracker:\n  mode: kinect\n"},
		{"zero tick rate", "scene:\n  tick_rate: 0\n"},
		{"empty palette", "scene:\n  themes:\n    - name: Void\n"},
		{"malformed", "server: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			writeFile(t, path, tt.yaml)
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}
