package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"setup-project/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "setup.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfigMissingFile(t *testing.T) {
	t.Parallel()

	t.Run("optional_returns_defaults", func(t *testing.T) {
		t.Parallel()

		cfg, err := config.LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"), false)
		require.NoError(t, err)
		assert.Equal(t, config.Default(), cfg)
	})

	t.Run("required_fails", func(t *testing.T) {
		t.Parallel()

		_, err := config.LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"), true)
		require.Error(t, err)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Parallel()

	cfg := config.Default()

	assert.Equal(t, "premake", cfg.Tool.Name)
	assert.Equal(t, "5.0.0-beta1", cfg.Tool.Version)
	assert.Equal(t, "premake5", cfg.Tool.Executable)
	assert.Equal(t, "Premake", cfg.Tool.VendorDir)
	assert.Equal(t, "https://github.com/premake/premake-core/releases/download", cfg.Tool.ReleaseBaseURL)
	assert.Equal(t, []string{"vs2022"}, cfg.Action)
	assert.Equal(t, 5*time.Minute, cfg.DownloadTimeout)
	assert.Empty(t, cfg.Tool.Platform)
}

func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
project: /work/engine
tool:
  version: 5.0.0-beta2
  platform: linux
  sha256: abc123
action: [gmake2]
download_timeout: 30s
strict_version: true
`)

	cfg, err := config.LoadConfig(path, true)
	require.NoError(t, err)

	assert.Equal(t, "/work/engine", cfg.Project)
	assert.Equal(t, "premake", cfg.Tool.Name)
	assert.Equal(t, "5.0.0-beta2", cfg.Tool.Version)
	assert.Equal(t, "linux", cfg.Tool.Platform)
	assert.Equal(t, "abc123", cfg.Tool.SHA256)
	assert.Equal(t, "premake5", cfg.Tool.Executable)
	assert.Equal(t, []string{"gmake2"}, cfg.Action)
	assert.Equal(t, 30*time.Second, cfg.DownloadTimeout)
	assert.True(t, cfg.StrictVersion)
	assert.Equal(t, "/work/engine/setup.log", cfg.LogPath())
}

func TestLoadConfigOtherTool(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
tool:
  name: ninja
  version: 1.12.1
  release_base_url: https://github.com/ninja-build/ninja/releases/download
`)

	cfg, err := config.LoadConfig(path, true)
	require.NoError(t, err)

	assert.Equal(t, "ninja", cfg.Tool.Executable)
	assert.Equal(t, "Ninja", cfg.Tool.VendorDir)
	assert.Equal(t, "1.12.1", cfg.Tool.Version)
	assert.Equal(t, []string{config.DefaultAction}, cfg.Action)
	assert.Equal(t, config.DefaultDownloadTimeout, cfg.DownloadTimeout)
}

func TestLoadConfigOtherToolExplicitLayout(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
tool:
  name: ninja
  executable: ninja-build
  vendor_dir: Ninja-1.12
`)

	cfg, err := config.LoadConfig(path, true)
	require.NoError(t, err)

	assert.Equal(t, "ninja-build", cfg.Tool.Executable)
	assert.Equal(t, "Ninja-1.12", cfg.Tool.VendorDir)
	assert.Equal(t, config.DefaultToolVersion, cfg.Tool.Version)
}

func TestLoadConfigEmptyFile(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadConfig(writeConfig(t, ""), true)
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "tool: [unterminated")

	_, err := config.LoadConfig(path, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to unmarshal")
}

func TestLogPathAbsolute(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.LogFile = "/var/log/setup.log"

	assert.Equal(t, "/var/log/setup.log", cfg.LogPath())
}

//nolint:paralleltest // t.Setenv forbids t.Parallel
func TestApplyOverrides(t *testing.T) {
	t.Setenv("SETUP_PLATFORM", "macosx")
	t.Setenv("SETUP_STRICT_VERSION", "true")
	t.Setenv("SETUP_DOWNLOAD_TIMEOUT", "90s")

	v := config.NewViper()
	v.Set("tool-version", "5.0.0-beta3")

	cfg := config.Default()
	config.ApplyOverrides(&cfg, v)

	assert.Equal(t, "macosx", cfg.Tool.Platform)
	assert.Equal(t, "5.0.0-beta3", cfg.Tool.Version)
	assert.True(t, cfg.StrictVersion)
	assert.Equal(t, 90*time.Second, cfg.DownloadTimeout)
	// Keys nobody set keep their file values.
	assert.Equal(t, ".", cfg.Project)
	assert.Equal(t, config.DefaultReleaseBaseURL, cfg.Tool.ReleaseBaseURL)
}
