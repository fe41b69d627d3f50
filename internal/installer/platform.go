package installer

import (
	"encoding/hex"
	"net/url"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"

	"setup-project/internal/config"
)

// Platform describes how a release is packaged for one operating system.
type Platform struct {
	Name             string // Name used in package file names, e.g. "windows"
	ArchiveExt       string // Archive extension including the dot, e.g. ".zip"
	ExecutableSuffix string // Appended to the executable base name, e.g. ".exe"
}

// platforms lists every platform releases are published for. Anything else is a
// configuration error.
var platforms = map[string]Platform{
	"windows": {Name: "windows", ArchiveExt: ".zip", ExecutableSuffix: ".exe"},
	"linux":   {Name: "linux", ArchiveExt: ".tar.gz"},
	"macosx":  {Name: "macosx", ArchiveExt: ".tar.gz"},
}

// SupportedPlatforms returns the supported platform names, sorted.
func SupportedPlatforms() []string {
	names := make([]string, 0, len(platforms))
	for name := range platforms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LookupPlatform returns the packaging rules for name.
func LookupPlatform(name string) (Platform, error) {
	p, ok := platforms[name]
	if !ok {
		return Platform{}, &ConfigurationError{
			Field:  "platform",
			Value:  name,
			Reason: "not supported, expected one of " + strings.Join(SupportedPlatforms(), ", "),
		}
	}
	return p, nil
}

// HostPlatform maps the running OS to a release platform name. Operating systems
// without releases map to their GOOS, which LookupPlatform then rejects.
func HostPlatform() string {
	switch runtime.GOOS {
	case "darwin":
		return "macosx"
	default:
		return runtime.GOOS
	}
}

// ToolSpec identifies which release of a tool to fetch.
type ToolSpec struct {
	Name           string
	Version        string // Without the leading "v" used in release paths
	Platform       string
	ReleaseBaseURL string
	Executable     string // Executable base name, without platform suffix
	SHA256         string // Optional hex digest of the archive
}

// NewToolSpec builds a ToolSpec from the configured tool. An empty platform selects
// the host platform.
func NewToolSpec(t config.Tool) ToolSpec {
	platform := strings.ToLower(strings.TrimSpace(t.Platform))
	if platform == "" {
		platform = HostPlatform()
	}
	return ToolSpec{
		Name:           t.Name,
		Version:        strings.TrimPrefix(strings.TrimSpace(t.Version), "v"),
		Platform:       platform,
		ReleaseBaseURL: strings.TrimSpace(t.ReleaseBaseURL),
		Executable:     t.Executable,
		SHA256:         strings.ToLower(strings.TrimSpace(t.SHA256)),
	}
}

// Validate checks every field and returns the platform's packaging rules.
func (s ToolSpec) Validate() (Platform, error) {
	p, err := LookupPlatform(s.Platform)
	if err != nil {
		return Platform{}, err
	}
	if s.Name == "" || strings.ContainsAny(s.Name, `/\`) {
		return Platform{}, &ConfigurationError{Field: "name", Value: s.Name, Reason: "must be a non-empty name without path separators"}
	}
	if s.Executable == "" || strings.ContainsAny(s.Executable, `/\`) {
		return Platform{}, &ConfigurationError{Field: "executable", Value: s.Executable, Reason: "must be a non-empty file name"}
	}
	if _, err := semver.NewVersion(s.Version); err != nil {
		return Platform{}, &ConfigurationError{Field: "version", Value: s.Version, Reason: err.Error()}
	}
	if s.SHA256 != "" {
		if b, err := hex.DecodeString(s.SHA256); err != nil || len(b) != 32 {
			return Platform{}, &ConfigurationError{Field: "sha256", Value: s.SHA256, Reason: "must be 64 hex characters"}
		}
	}
	if _, err := s.baseURL(); err != nil {
		return Platform{}, err
	}
	return p, nil
}

func (s ToolSpec) baseURL() (*url.URL, error) {
	u, err := url.Parse(s.ReleaseBaseURL)
	if err != nil {
		return nil, &ConfigurationError{Field: "release_base_url", Value: s.ReleaseBaseURL, Reason: err.Error()}
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, &ConfigurationError{Field: "release_base_url", Value: s.ReleaseBaseURL, Reason: "must be an absolute http(s) URL"}
	}
	return u, nil
}

// PackageName returns "<name>-<version>-<platform><ext>",
// e.g. premake-5.0.0-beta1-windows.zip.
func (s ToolSpec) PackageName() (string, error) {
	p, err := s.Validate()
	if err != nil {
		return "", err
	}
	return s.Name + "-" + s.Version + "-" + p.Name + p.ArchiveExt, nil
}

// DownloadURL returns "<releaseBaseURL>/v<version>/<packageName>".
func (s ToolSpec) DownloadURL() (string, error) {
	pkg, err := s.PackageName()
	if err != nil {
		return "", err
	}
	base, err := s.baseURL()
	if err != nil {
		return "", err
	}
	return base.JoinPath("v"+s.Version, pkg).String(), nil
}

// ExecutableName returns the executable file name for the spec's platform,
// e.g. premake5.exe on windows.
func (s ToolSpec) ExecutableName() (string, error) {
	p, err := LookupPlatform(s.Platform)
	if err != nil {
		return "", err
	}
	return s.Executable + p.ExecutableSuffix, nil
}

// LocalInstallation is where a tool lives on disk.
type LocalInstallation struct {
	BinDirectory   string
	ExecutablePath string
}

// NewLocalInstallation lays a tool out as <project>/Vendor/<VendorDir>/Bin/<executable>.
func NewLocalInstallation(projectRoot string, t config.Tool, spec ToolSpec) (LocalInstallation, error) {
	exe, err := spec.ExecutableName()
	if err != nil {
		return LocalInstallation{}, err
	}
	vendorDir := t.VendorDir
	if vendorDir == "" {
		vendorDir = t.Name
	}
	bin := filepath.Join(projectRoot, "Vendor", vendorDir, "Bin")
	return LocalInstallation{
		BinDirectory:   bin,
		ExecutablePath: filepath.Join(bin, exe),
	}, nil
}

// Validate checks that both paths are set and the executable sits inside the bin
// directory, where extraction puts it.
func (li LocalInstallation) Validate() error {
	if li.BinDirectory == "" {
		return &ConfigurationError{Field: "bin_directory", Reason: "must not be empty"}
	}
	if li.ExecutablePath == "" {
		return &ConfigurationError{Field: "executable_path", Reason: "must not be empty"}
	}
	if !isWithin(li.BinDirectory, li.ExecutablePath) {
		return &ConfigurationError{Field: "executable_path", Value: li.ExecutablePath, Reason: "must be inside " + li.BinDirectory}
	}
	return nil
}

// isWithin reports whether target is root or lies below it.
func isWithin(root, target string) bool {
	rel, err := filepath.Rel(filepath.Clean(root), filepath.Clean(target))
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
