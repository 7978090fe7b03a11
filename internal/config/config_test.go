package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestValidate checks required fields and format validations.
func TestValidate(t *testing.T) {
	t.Parallel()

	// Missing address.
	require.Error(t, Validate(new(Config)))
	require.Error(t, Validate(nil))

	// Bad address.
	require.Error(t, Validate(&Config{GRPCAddress: "bad:address"}))

	// Bad feed url.
	require.Error(t, Validate(&Config{GRPCAddress: "127.0.0.1:0", FeedURL: "not a url"}))

	// Unknown driver.
	require.Error(t, Validate(&Config{GRPCAddress: "127.0.0.1:0", Store: StoreConfig{Driver: "redis"}}))

	// Postgres without DSN.
	require.Error(t, Validate(&Config{GRPCAddress: "127.0.0.1:0", Store: StoreConfig{Driver: DriverPostgres}}))
}

// TestValidate_Defaults verifies defaults are filled in place.
func TestValidate_Defaults(t *testing.T) {
	t.Parallel()

	cfg := &Config{GRPCAddress: "127.0.0.1:50051"}
	require.NoError(t, Validate(cfg))

	require.Equal(t, DefaultFeedURL, cfg.FeedURL)
	require.Equal(t, DefaultTimeout, cfg.Timeout)
	require.Equal(t, DefaultDispatchTimeout, cfg.DispatchTimeout)
	require.Equal(t, DefaultCacheTTL, cfg.CacheTTL)
	require.Equal(t, DefaultMaxRegistrations, cfg.MaxRegistrations)
	require.Equal(t, DriverFile, cfg.Store.Driver)
	require.Equal(t, ".", cfg.Store.Dir)
	require.True(t, cfg.Precise())

	precise := false
	cfg.PreciseAlarms = &precise
	require.False(t, cfg.Precise())
}

// TestSaveLoadRoundtrip ensures settings are persisted and loaded back correctly.
func TestSaveLoadRoundtrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")

	cfg := &Config{
		GRPCAddress:     "127.0.0.1:50051",
		HTTPAddress:     ":8080",
		FeedURL:         "https://feed.local/status",
		RefreshInterval: 5 * time.Minute,
		Store:           StoreConfig{Driver: DriverFile, Dir: dir},
		Notify:          NotifyConfig{WebhookURL: "https://hooks.local/x"},
	}

	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg.GRPCAddress, loaded.GRPCAddress)
	require.Equal(t, cfg.FeedURL, loaded.FeedURL)
	require.Equal(t, cfg.RefreshInterval, loaded.RefreshInterval)
	require.Equal(t, dir, loaded.Store.Dir)
	require.Equal(t, cfg.Notify.WebhookURL, loaded.Notify.WebhookURL)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(DefaultFilePermissions), info.Mode().Perm())
}

// TestLoad_YAMLDurations parses human-readable durations from YAML.
func TestLoad_YAMLDurations(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.yaml")
	contents := []byte("grpc_addr: 127.0.0.1:50051\ntimeout: 3s\ncache_ttl: 2m\nprecise_alarms: false\n")
	require.NoError(t, os.WriteFile(path, contents, DefaultFilePermissions))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 3*time.Second, cfg.Timeout)
	require.Equal(t, 2*time.Minute, cfg.CacheTTL)
	require.False(t, cfg.Precise())
}
