package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, data map[string]any) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cfg.json")
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	path := writeTempJSON(t, map[string]any{
		"http_addr":        ":9090",
		"database_dsn":     "postgres://db",
		"redis_db":         0,
		"rp_id":            "kiosk.example",
		"rp_origins":       []string{"https://kiosk.example"},
		"ceremony_timeout": "45s",
		"late_cutoff":      "08:00",

		"health_check_interval": "30s",
	})

	t.Run("overlays present fields only", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", path}

		var cfg Config
		cfg.LoadDefaults()
		cfg.RedisDB = 3
		require.NoError(t, parseJson(&cfg))

		assert.Equal(t, ":9090", cfg.HTTPAddr)
		assert.Equal(t, "postgres://db", cfg.DatabaseDSN)
		assert.Equal(t, 0, cfg.RedisDB)
		assert.Equal(t, "kiosk.example", cfg.RPID)
		assert.Equal(t, []string{"https://kiosk.example"}, cfg.RPOrigins)
		assert.Equal(t, 45*time.Second, cfg.CeremonyTimeout)
		assert.Equal(t, "08:00", cfg.LateCutoff)
		assert.Equal(t, 30*time.Second, cfg.HealthCheckInterval)
		assert.Equal(t, time.Minute, cfg.ChallengeSweepInterval)
		assert.Equal(t, ":50051", cfg.GRPCAddr)
		assert.Equal(t, "zap", cfg.LogBackend)
	})

	t.Run("no path is a no-op", func(t *testing.T) {
		os.Args = []string{"testbin"}
		t.Setenv("LATECHECK_CONFIG", "")

		cfg := Config{HTTPAddr: "keep"}
		require.NoError(t, parseJson(&cfg))
		assert.Equal(t, "keep", cfg.HTTPAddr)
	})

	t.Run("missing file", func(t *testing.T) {
		os.Args = []string{"testbin", "-c", filepath.Join(t.TempDir(), "nope.json")}
		assert.Error(t, parseJson(&Config{}))
	})

	t.Run("invalid json", func(t *testing.T) {
		bad := filepath.Join(t.TempDir(), "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte("{"), 0o600))
		os.Args = []string{"testbin", "-c", bad}
		assert.Error(t, parseJson(&Config{}))
	})
}
