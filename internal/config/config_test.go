package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePrefixes_SplitsOnCommasAndWhitespace(t *testing.T) {
	got := ParsePrefixes("https://a.example/, https://b.example/\thttps://c.example/")
	assert.Equal(t, []string{"https://a.example/", "https://b.example/", "https://c.example/"}, got)
}

func TestParsePrefixes_EmptyInputYieldsNil(t *testing.T) {
	assert.Nil(t, ParsePrefixes(""))
	assert.Nil(t, ParsePrefixes(" ,, \t"))
}

func TestFromEnv_ReadsDebugLevels(t *testing.T) {
	t.Setenv("AICLI_DEBUG_API", "2")
	t.Setenv("AICLI_DEBUG_FUNCTION_CALL", "bogus")
	cfg := FromEnv()
	assert.Equal(t, 2, cfg.DebugAPI)
	assert.Equal(t, 0, cfg.DebugFunctionCall)
}

func TestReadConfigFile_ParsesKnownKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultConfigFilename)
	require.NoError(t, os.WriteFile(path, []byte(`{
		"model": "gpt-5-mini",
		"openai_api_key": "sk-file",
		"search_provider": "brave",
		"brave_api_key": "bk",
		"web_fetch_prefixes": ["https://docs.example/"]
	}`), 0o600))

	cfg, err := ReadConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, "gpt-5-mini", cfg.Model)
	assert.Equal(t, "sk-file", cfg.APIKey)
	assert.Equal(t, "brave", cfg.SearchProvider)
	assert.Equal(t, []string{"https://docs.example/"}, cfg.WebFetchPrefixes)
}

func TestMerge_EnvironmentWinsOverFile(t *testing.T) {
	cfg := Config{APIKey: "sk-env", Model: ""}
	cfg.merge(Config{APIKey: "sk-file", Model: "gpt-5-mini"})
	assert.Equal(t, "sk-env", cfg.APIKey)
	assert.Equal(t, "gpt-5-mini", cfg.Model)
}

func TestIsSecureConfigPath_RejectsGroupReadable(t *testing.T) {
	dir := t.TempDir()

	loose := filepath.Join(dir, "loose.json")
	require.NoError(t, os.WriteFile(loose, []byte("{}"), 0o644))
	assert.False(t, isSecureConfigPath(loose))

	tight := filepath.Join(dir, "tight.json")
	require.NoError(t, os.WriteFile(tight, []byte("{}"), 0o600))
	assert.True(t, isSecureConfigPath(tight))
}

func TestWatch_DeliversRewrittenConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultConfigFilename)
	require.NoError(t, os.WriteFile(path, []byte(`{"model":"a"}`), 0o600))

	got := make(chan Config, 4)
	stop, err := Watch(path, func(c Config) { got <- c })
	require.NoError(t, err)
	defer stop()

	require.NoError(t, os.WriteFile(path, []byte(`{"model":"b"}`), 0o600))

	select {
	case cfg := <-got:
		assert.Equal(t, "b", cfg.Model)
	case <-time.After(5 * time.Second):
		t.Fatal("no config change delivered")
	}
}
