package configutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	LeagueID string `json:"league_id"`
	Season   int    `json:"season"`
}

func TestReadConfigMergesLocalOverride(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "leaguevault.json5")
	require.NoError(t, os.WriteFile(base, []byte(`{
		// base settings
		league_id: "1234",
		season: 2024,
	}`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "leaguevault.local.json5"), []byte(`{
		season: 2025,
	}`), 0644))

	cfg, err := ReadConfig[testConfig](base)
	require.NoError(t, err)
	require.Equal(t, "1234", cfg.LeagueID)
	require.Equal(t, 2025, cfg.Season)
}

func TestReadConfigMissing(t *testing.T) {
	_, err := ReadConfig[testConfig](filepath.Join(t.TempDir(), "nope.json5"))
	require.True(t, os.IsNotExist(err))
}

func TestEnvOverlays(t *testing.T) {
	t.Setenv("LV_TEST_STRING", " hello ")
	t.Setenv("LV_TEST_INT", "42")
	t.Setenv("LV_TEST_BAD_INT", "forty-two")
	t.Setenv("LV_TEST_BOOL", "true")

	require.Equal(t, "hello", EnvString("LV_TEST_STRING", "fallback"))
	require.Equal(t, "fallback", EnvString("LV_TEST_UNSET", "fallback"))
	require.Equal(t, 42, EnvInt("LV_TEST_INT", 1))
	require.Equal(t, 1, EnvInt("LV_TEST_BAD_INT", 1))
	require.True(t, EnvBool("LV_TEST_BOOL", false))
	require.Equal(t, 2.5, EnvFloat("LV_TEST_UNSET", 2.5))
}
