package installer

import (
	"fmt"

	"github.com/spf13/afero"

	"setup-project/internal/state"
)

// Uninstall removes an installed tool: the executable, its install marker and the
// rest of the bin directory. Nothing installed is not an error.
func (p *Provisioner) Uninstall(install LocalInstallation) error {
	if err := install.Validate(); err != nil {
		return err
	}

	exists, err := afero.DirExists(p.Fs, install.BinDirectory)
	if err != nil {
		return fmt.Errorf("failed to check %s: %w", install.BinDirectory, err)
	}
	if !exists {
		p.Log.Info("Nothing to remove at %s", install.BinDirectory)
		return nil
	}

	p.Log.Info("Uninstalling %s...", install.ExecutablePath)

	// Remove the executable and marker first so an interrupted clean still reads as
	// "not installed" on the next run.
	p.discard(install.ExecutablePath)
	if err := state.Remove(p.Fs, install.BinDirectory); err != nil {
		p.Log.Warn("%v", err)
	}

	if err := p.Fs.RemoveAll(install.BinDirectory); err != nil {
		p.Log.Error("Failed to remove directory %s: %v", install.BinDirectory, err)
		return fmt.Errorf("failed to remove %s: %w", install.BinDirectory, err)
	}
	p.Log.Info("Successfully removed directory %s", install.BinDirectory)
	return nil
}
