package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of environment variables that override setup.yaml.
const EnvPrefix = "SETUP"

// Default returns the configuration used when no setup.yaml is present.
func Default() Config {
	return Config{
		Project: ".",
		LogFile: DefaultLogFile,
		Tool: Tool{
			Name:           DefaultToolName,
			Version:        DefaultToolVersion,
			ReleaseBaseURL: DefaultReleaseBaseURL,
			Executable:     DefaultExecutable,
			VendorDir:      DefaultVendorDir,
		},
		Action:          []string{DefaultAction},
		DownloadTimeout: DefaultDownloadTimeout,
	}
}

// LoadConfig reads configFile on top of the defaults.
// A missing file is not an error unless required is set; any other read or parse
// failure is returned.
func LoadConfig(configFile string, required bool) (Config, error) {
	raw, err := os.ReadFile(configFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("failed to read %s: %w", configFile, err)
	}

	// Start empty so executable and vendor_dir can follow a non-default tool name.
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal %s: %w", configFile, err)
	}

	cfg.fillDefaults()
	return cfg, nil
}

// fillDefaults restores defaults for keys an explicit file left empty.
func (c *Config) fillDefaults() {
	def := Default()
	if c.Project == "" {
		c.Project = def.Project
	}
	if c.LogFile == "" {
		c.LogFile = def.LogFile
	}
	if c.Tool.Name == "" {
		c.Tool.Name = def.Tool.Name
	}
	if c.Tool.Version == "" {
		c.Tool.Version = def.Tool.Version
	}
	if c.Tool.ReleaseBaseURL == "" {
		c.Tool.ReleaseBaseURL = def.Tool.ReleaseBaseURL
	}
	if c.Tool.Executable == "" {
		c.Tool.Executable = c.Tool.Name
		if c.Tool.Name == DefaultToolName {
			c.Tool.Executable = DefaultExecutable
		}
	}
	if c.Tool.VendorDir == "" {
		c.Tool.VendorDir = vendorDirFor(c.Tool.Name)
	}
	if len(c.Action) == 0 {
		c.Action = def.Action
	}
	if c.DownloadTimeout <= 0 {
		c.DownloadTimeout = def.DownloadTimeout
	}
}

// vendorDirFor turns a tool name into its Vendor/ directory name (premake -> Premake).
func vendorDirFor(name string) string {
	if name == "" {
		return ""
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

// NewViper returns a viper instance reading SETUP_* environment variables.
// Dashes in keys map to underscores, so the "log-file" key reads SETUP_LOG_FILE.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// ApplyOverrides layers values set through v (bound flags or environment) over cfg.
// Only keys that are actually set override the file.
func ApplyOverrides(cfg *Config, v *viper.Viper) {
	if s := v.GetString("project"); v.IsSet("project") && s != "" {
		cfg.Project = s
	}
	if s := v.GetString("log-file"); v.IsSet("log-file") && s != "" {
		cfg.LogFile = s
	}
	if s := v.GetString("platform"); v.IsSet("platform") && s != "" {
		cfg.Tool.Platform = s
	}
	if s := v.GetString("tool-version"); v.IsSet("tool-version") && s != "" {
		cfg.Tool.Version = s
	}
	if s := v.GetString("release-base-url"); v.IsSet("release-base-url") && s != "" {
		cfg.Tool.ReleaseBaseURL = s
	}
	if s := v.GetString("sha256"); v.IsSet("sha256") && s != "" {
		cfg.Tool.SHA256 = s
	}
	if d := v.GetDuration("download-timeout"); v.IsSet("download-timeout") && d > 0 {
		cfg.DownloadTimeout = d
	}
	if v.IsSet("strict-version") {
		cfg.StrictVersion = v.GetBool("strict-version")
	}
}

// LogPath resolves the log file against the project root.
func (c Config) LogPath() string {
	if filepath.IsAbs(c.LogFile) {
		return c.LogFile
	}
	return filepath.Join(c.Project, c.LogFile)
}
