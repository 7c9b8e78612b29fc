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

func TestLoadFile_Defaults(t *testing.T) {
	t.Setenv("LIVEKIT_URL", "")
	t.Setenv("API_URL", "")

	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "release", cfg.Mode)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, int64(32768), cfg.ReadLimit)
	assert.Equal(t, 54*time.Second, cfg.PingPeriod)
	assert.Equal(t, defaultLiveKitURL, cfg.LiveKitURL)
	assert.Equal(t, defaultAPIURL, cfg.APIURL)
	assert.True(t, cfg.AutoSubscribe)
	assert.Equal(t, 5, cfg.ConnectLimit)
	assert.Equal(t, 10*time.Second, cfg.ConnectInterval)
	assert.Equal(t, 30*time.Minute, cfg.SessionIdleTimeout)
}

func TestLoadFile_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.test.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
mode: debug
port: 9090
livekit_url: wss://from-file
auto_subscribe: false
connect_limit: 2
ping_period: 10s
`), 0o600))
	t.Setenv("LIVEKIT_URL", "wss://from-env")

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Mode)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "wss://from-env", cfg.LiveKitURL)
	assert.False(t, cfg.AutoSubscribe)
	assert.Equal(t, 2, cfg.ConnectLimit)
	assert.Equal(t, 10*time.Second, cfg.PingPeriod)
}

func TestApplyLogLevel(t *testing.T) {
	prev := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(prev) })

	(&Config{LogLevel: "warn"}).ApplyLogLevel()
	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())

	(&Config{LogLevel: "nonsense"}).ApplyLogLevel()
	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())
}
