package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, "BRGREG", cfg.SubBrandPartition)
	assert.Equal(t, 5*time.Second, cfg.Timer.PollInterval.Std())
	assert.Equal(t, int64(10800), cfg.Report.OverThresholdSec)
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
partitions = ["A", "B"]
sub_brand_partition = "B"

[report]
operations_label = "ops"
cache_ttl = "30s"

[timer]
poll_interval = "2s"
user_id = "u1"

[store]
driver = "memory"

[[store.indexes]]
collection = "taskSessions"
fields = ["taskId", "startedAt"]

[server]
env = "production"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, cfg.Partitions)
	assert.Equal(t, "ops", cfg.Report.OperationsLabel)
	assert.Equal(t, 30*time.Second, cfg.Report.CacheTTL.Std())
	assert.Equal(t, 2*time.Second, cfg.Timer.PollInterval.Std())
	assert.Equal(t, 10*time.Second, cfg.Timer.StoreTimeout.Std(), "unset keys keep defaults")
	assert.Equal(t, "u1", cfg.Timer.UserID)
	assert.Equal(t, DriverMemory, cfg.Store.Driver)
	require.Len(t, cfg.Store.Indexes, 1)
	assert.Equal(t, []string{"taskId", "startedAt"}, cfg.Store.Indexes[0].Fields)
	assert.True(t, cfg.Production())
	assert.Equal(t, "Asia/Tokyo", cfg.Location().String())
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantMsg string
	}{
		{"bad toml", `partitions = [`, "parse config"},
		{"bad duration", "[timer]\npoll_interval = \"soon\"", "invalid duration"},
		{"sub brand outside partitions", `sub_brand_partition = "X"`, "not in partitions"},
		{"no partitions", `partitions = []`, "at least one partition"},
		{"bad driver", "[store]\ndriver = \"mongo\"", "unknown store.driver"},
		{"bad timezone", "[report]\ntimezone = \"Mars/Olympus\"", "report.timezone"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestConfig_MarshalRoundTrip(t *testing.T) {
	data, err := Default().Marshal()
	require.NoError(t, err)
	assert.Contains(t, string(data), "poll_interval")
	assert.Contains(t, string(data), "5s")

	cfg, err := Load(writeConfig(t, string(data)))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}
