package config

import "time"

// Default values, matching what the project has always provisioned.
const (
	DefaultToolName       = "premake"
	DefaultToolVersion    = "5.0.0-beta1"
	DefaultReleaseBaseURL = "https://github.com/premake/premake-core/releases/download"
	DefaultExecutable     = "premake5"
	DefaultVendorDir      = "Premake"
	DefaultAction         = "vs2022"
	DefaultLogFile        = "setup.log"
	DefaultConfigFile     = "setup.yaml"

	// DefaultDownloadTimeout bounds a single archive download.
	DefaultDownloadTimeout = 5 * time.Minute
)

// Tool describes the prebuilt tool to vendor into the project.
// - Name/Version/Platform: select the release package.
// - ReleaseBaseURL: prefix of the release download URLs.
// - Executable: executable base name inside the archive, without platform suffix.
// - SHA256: optional hex digest the archive must match.
// - VendorDir: directory under Vendor/ the tool is installed into.
type Tool struct {
	Name           string `yaml:"name"`
	Version        string `yaml:"version"`
	Platform       string `yaml:"platform"` // Empty means the host platform
	ReleaseBaseURL string `yaml:"release_base_url"`
	Executable     string `yaml:"executable"`
	SHA256         string `yaml:"sha256"`
	VendorDir      string `yaml:"vendor_dir"`
}

// Config is the top-level structure of setup.yaml.
type Config struct {
	Project         string        `yaml:"project"`  // Project root; Vendor/ lives here
	LogFile         string        `yaml:"log_file"` // Relative paths resolve against Project
	Tool            Tool          `yaml:"tool"`
	Action          []string      `yaml:"action"` // Arguments handed to the tool
	DownloadTimeout time.Duration `yaml:"download_timeout"`
	StrictVersion   bool          `yaml:"strict_version"`
}
