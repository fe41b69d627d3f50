package state

import (
	"encoding/json" // For JSON encoding and decoding of the marker file
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/spf13/afero"
)

// MarkerFile is the name of the sidecar file written next to an installed tool.
const MarkerFile = ".install.json"

// InstallState records what was unpacked into a bin directory, so a later run can
// tell which release the existing executable came from.
type InstallState struct {
	Name        string    `json:"name"`             // Tool name, e.g. "premake"
	Version     string    `json:"version"`          // Installed release version
	Platform    string    `json:"platform"`         // Release platform, e.g. "windows"
	URL         string    `json:"url"`              // Download URL the archive came from
	SHA256      string    `json:"sha256,omitempty"` // Hex digest of the downloaded archive
	Executable  string    `json:"executable"`       // Path of the installed executable
	InstalledAt time.Time `json:"installed_at"`
}

// MarkerPath returns where the marker for binDir lives.
func MarkerPath(binDir string) string {
	return filepath.Join(binDir, MarkerFile)
}

// Load reads the marker in binDir.
// A missing marker yields (nil, nil): installs made before markers existed, or by hand,
// simply have none.
func Load(fs afero.Fs, binDir string) (*InstallState, error) {
	path := MarkerPath(binDir)
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read install marker %s: %w", path, err)
	}

	var st InstallState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("failed to parse install marker %s: %w", path, err)
	}
	return &st, nil
}

// Save writes st as indented JSON into binDir.
func Save(fs afero.Fs, binDir string, st *InstallState) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal install marker: %w", err)
	}

	path := MarkerPath(binDir)
	if err := afero.WriteFile(fs, path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write install marker %s: %w", path, err)
	}
	return nil
}

// Remove deletes the marker in binDir. A missing marker is not an error.
func Remove(fs afero.Fs, binDir string) error {
	err := fs.Remove(MarkerPath(binDir))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove install marker: %w", err)
	}
	return nil
}

// Matches reports whether the marker describes the given name and version.
// Versions compare semantically, so "v5.0.0-beta1" matches "5.0.0-beta1"; strings that
// are not versions fall back to exact comparison.
func (st *InstallState) Matches(name, version string) bool {
	if st == nil || st.Name != name {
		return false
	}
	have, err1 := semver.NewVersion(st.Version)
	want, err2 := semver.NewVersion(version)
	if err1 != nil || err2 != nil {
		return st.Version == version
	}
	return have.Equal(want)
}
