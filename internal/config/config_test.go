package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	// Run from a directory without a mpie.yaml.
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "rahuljishu/mpie_iitj", cfg.ModelRepo)
	assert.Equal(t, "analyze.py", cfg.AnalyzerPath)
	assert.Equal(t, "python3", cfg.Interpreter)
	assert.Equal(t, "127.0.0.1:8080", cfg.Listen)
	assert.Empty(t, cfg.AuthDomain)
}

func TestLoad_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mpie.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"model_repo: acme/custom\nlisten: 0.0.0.0:9090\nauth_domain: https://id.example.com\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "acme/custom", cfg.ModelRepo)
	assert.Equal(t, "0.0.0.0:9090", cfg.Listen)
	assert.Equal(t, "https://id.example.com", cfg.AuthDomain)
	// Unset fields keep their defaults.
	assert.Equal(t, "analyze.py", cfg.AnalyzerPath)
}

func TestLoad_ExplicitMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mpie.yaml")
	require.NoError(t, os.WriteFile(path, []byte("model_repo: acme/custom\n"), 0o644))

	t.Setenv("MPIE_MODEL_REPO", "acme/override")
	t.Setenv("MPIE_INTERPRETER", "python3.12")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "acme/override", cfg.ModelRepo)
	assert.Equal(t, "python3.12", cfg.Interpreter)
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mpie.yaml")
	require.NoError(t, os.WriteFile(path, []byte("model_repo: [unclosed\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse")
}
