package internal

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dataext.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	require.Equal(t, "dataext", cfg.AppName)
	require.Equal(t, "utf-8", cfg.Text.Encoding)
	require.Equal(t, -1, cfg.Gzip.Level)
	require.False(t, cfg.Table.MatchCase)
	require.Equal(t, "col", cfg.Table.TagName)
	require.Equal(t, "info", cfg.Log.Level)
	require.Equal(t, "text", cfg.Log.Format)
}

func TestLoadConfig_File(t *testing.T) {
	path := writeConfig(t, `
app_name: loader
text:
  encoding: windows-1252
gzip:
  level: 9
table:
  match_case: true
log:
  level: debug
  format: json
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "loader", cfg.AppName)
	require.Equal(t, "windows-1252", cfg.Text.Encoding)
	require.Equal(t, 9, cfg.Gzip.Level)
	require.True(t, cfg.Table.MatchCase)
	require.Equal(t, "col", cfg.Table.TagName)
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, "json", cfg.Log.Format)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "gzip:\n  level: 9\n")
	t.Setenv("DATAEXT_GZIP_LEVEL", "1")
	t.Setenv("DATAEXT_TEXT_ENCODING", "utf-16le")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, 1, cfg.Gzip.Level)
	require.Equal(t, "utf-16le", cfg.Text.Encoding)
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorContains(t, err, "read config")

	bad := writeConfig(t, "gzip: [not, a, map\n")
	_, err = LoadConfig(bad)
	require.Error(t, err)
}
