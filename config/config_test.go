package config_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/ingestpipe/config"
)

func writeTempConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_AppliesDefaultThreadCount(t *testing.T) {
	path := writeTempConfig(t, `{
		"DeployName": "vessel-alpha",
		"Types": {"dataSources": {"udp-sensor": "udp"}},
		"Sources": {"sensor-main": {"type": "udp-sensor", "port": 5140}}
	}`)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "vessel-alpha", cfg.DeployName)
	assert.Equal(t, 3, cfg.TargetThreads)
	assert.Equal(t, "udp-sensor", cfg.Sources["sensor-main"].Type)
}

func TestLoad_RejectsInstanceMissingType(t *testing.T) {
	path := writeTempConfig(t, `{
		"DeployName": "vessel-alpha",
		"Sources": {"sensor-main": {"port": 5140}}
	}`)

	_, err := config.Load(path)
	assert.Error(t, err)
}

func TestLoad_RejectsMissingDeployName(t *testing.T) {
	path := writeTempConfig(t, `{"TargetThreads": 4}`)

	_, err := config.Load(path)
	assert.Error(t, err)
}

func TestLoad_EnvOverridesDeployNameAndNATSURL(t *testing.T) {
	path := writeTempConfig(t, `{"DeployName": "file-default"}`)

	t.Setenv(config.EnvDeployName, "env-override")
	t.Setenv(config.EnvNATSURL, "nats://env:4222")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env-override", cfg.DeployName)
	assert.Equal(t, "nats://env:4222", cfg.NATSURL)
}

func TestInstanceConfig_RoundTripsRawFields(t *testing.T) {
	path := writeTempConfig(t, `{
		"DeployName": "d",
		"Writers": {"file-out": {"type": "file", "path": "/var/log/out.jsonl", "maxBytes": 1048576}}
	}`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	var decoded struct {
		Path     string `json:"path"`
		MaxBytes int    `json:"maxBytes"`
	}
	require.NoError(t, json.Unmarshal(cfg.Writers["file-out"].Raw, &decoded))
	assert.Equal(t, "/var/log/out.jsonl", decoded.Path)
	assert.Equal(t, 1048576, decoded.MaxBytes)
}

func TestSafeConfig_GetReturnsIndependentCopy(t *testing.T) {
	sc := config.NewSafeConfig(&config.Config{DeployName: "d", TargetThreads: 3})

	snapshot := sc.Get()
	snapshot.TargetThreads = 99

	assert.Equal(t, 3, sc.Get().TargetThreads)
}

func TestLoad_ParsesYAMLConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := "DeployName: vessel-alpha\nTargetThreads: 5\nSources:\n  sensor-main:\n    type: udp-sensor\n    port: 5140\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "vessel-alpha", cfg.DeployName)
	assert.Equal(t, 5, cfg.TargetThreads)
	assert.Equal(t, "udp-sensor", cfg.Sources["sensor-main"].Type)
}

func TestClone_MatchesOriginalStructurally(t *testing.T) {
	original := &config.Config{
		DeployName:    "d",
		TargetThreads: 3,
		Sources:       config.InstanceConfigs{"a": {Type: "udp"}},
	}

	clone := original.Clone()

	if diff := cmp.Diff(original.DeployName, clone.DeployName); diff != "" {
		t.Errorf("DeployName mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(original.TargetThreads, clone.TargetThreads); diff != "" {
		t.Errorf("TargetThreads mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(original.Sources["a"].Type, clone.Sources["a"].Type); diff != "" {
		t.Errorf("Sources[a].Type mismatch (-want +got):\n%s", diff)
	}
}
