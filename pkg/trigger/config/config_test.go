package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessors(t *testing.T) {
	cfg := New(map[string]any{
		"name":    "goblin-cave",
		"enabled": true,
		"limit":   256,
		"ratio":   0.85,
		"whole":   3.0,
		"frac":    3.5,
		"trigger": map[string]any{
			"fuzzy_threshold": 0.9,
		},
	})

	assert.Equal(t, "goblin-cave", cfg.String("name", "fallback"))
	assert.Equal(t, "fallback", cfg.String("missing", "fallback"))
	assert.Equal(t, "fallback", cfg.String("limit", "fallback"), "mistyped key falls back")

	assert.True(t, cfg.Bool("enabled", false))
	assert.False(t, cfg.Bool("missing", false))

	assert.Equal(t, 256, cfg.Int("limit", 1))
	assert.Equal(t, 3, cfg.Int("whole", 1), "whole float converts")
	assert.Equal(t, 1, cfg.Int("frac", 1), "fractional float falls back")

	assert.Equal(t, 0.85, cfg.Float("ratio", 0.5))
	assert.Equal(t, 256.0, cfg.Float("limit", 0.5), "int widens")
	assert.Equal(t, 0.5, cfg.Float("missing", 0.5))

	assert.True(t, cfg.Has("name"))
	assert.False(t, cfg.Has("missing"))

	assert.Equal(t, 0.9, cfg.Section("trigger").Float("fuzzy_threshold", 0.8))
	assert.Equal(t, 0.8, cfg.Section("absent").Float("fuzzy_threshold", 0.8), "missing section chains safely")
}

func TestNewNil(t *testing.T) {
	cfg := New(nil)
	assert.NotNil(t, cfg.Raw())
	assert.False(t, cfg.Has("anything"))
}

func TestFromYAML(t *testing.T) {
	cfg, err := FromYAML([]byte(`
trigger:
  fuzzy_threshold: 0.7
  cache_limit: 512
name: arena
`))
	require.NoError(t, err)
	assert.Equal(t, "arena", cfg.String("name", ""))
	assert.Equal(t, 0.7, cfg.Section("trigger").Float("fuzzy_threshold", 0.8))
	assert.Equal(t, 512, cfg.Section("trigger").Int("cache_limit", 0))

	_, err = FromYAML([]byte("{invalid"))
	assert.Error(t, err)
}

func TestFromJSON(t *testing.T) {
	cfg, err := FromJSON([]byte(`{"trigger": {"fuzzy_threshold": 0.7}, "name": "arena"}`))
	require.NoError(t, err)
	assert.Equal(t, "arena", cfg.String("name", ""))
	assert.Equal(t, 0.7, cfg.Section("trigger").Float("fuzzy_threshold", 0.8))

	_, err = FromJSON([]byte("not json"))
	assert.Error(t, err)
}

func TestFromFile(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "engine.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("name: arena\n"), 0o644))
	cfg, err := FromFile(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, "arena", cfg.String("name", ""))

	jsonPath := filepath.Join(dir, "engine.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"name": "arena"}`), 0o644))
	cfg, err = FromFile(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, "arena", cfg.String("name", ""))

	tomlPath := filepath.Join(dir, "engine.toml")
	require.NoError(t, os.WriteFile(tomlPath, []byte("name = \"arena\"\n"), 0o644))
	_, err = FromFile(tomlPath)
	assert.Error(t, err, "unsupported extension")

	_, err = FromFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
