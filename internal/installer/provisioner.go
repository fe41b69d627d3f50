package installer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"

	"setup-project/internal/config"
	"setup-project/internal/logger"
	"setup-project/internal/state"
)

// Provisioner makes sure a prebuilt tool is unpacked into a project and runs it.
//
// A run goes through three phases: an existence check on the executable, a
// download-and-unpack phase that only happens when the executable is missing, and the
// invocation. Each failure stops the run with one of the typed errors in errors.go.
type Provisioner struct {
	Fs     afero.Fs
	Client *http.Client
	Runner Runner
	Log    *logger.Logger

	// DownloadTimeout bounds the archive download. Zero means no limit beyond ctx.
	DownloadTimeout time.Duration
	// StrictVersion reinstalls when the install marker names another version.
	// Otherwise a mismatch only warns and the existing executable is kept.
	StrictVersion bool
	// Force reinstalls even when the executable is present.
	Force bool
	// WorkDir is the directory the tool runs in; usually the project root.
	WorkDir string

	Now func() time.Time
}

// New returns a Provisioner working on the real filesystem and network.
func New(log *logger.Logger) *Provisioner {
	return &Provisioner{
		Fs:              afero.NewOsFs(),
		Client:          &http.Client{},
		Runner:          ExecRunner{},
		Log:             log,
		DownloadTimeout: config.DefaultDownloadTimeout,
		Now:             time.Now,
	}
}

// EnsureAndRun installs the tool described by spec into install if it is missing,
// then runs it with args.
func (p *Provisioner) EnsureAndRun(ctx context.Context, spec ToolSpec, install LocalInstallation, args []string) error {
	if _, err := p.Ensure(ctx, spec, install); err != nil {
		return err
	}
	return p.Run(ctx, install, args)
}

// Ensure installs the tool if its executable is missing and reports whether a
// download happened. When the executable exists nothing is fetched or written.
func (p *Provisioner) Ensure(ctx context.Context, spec ToolSpec, install LocalInstallation) (bool, error) {
	platform, err := spec.Validate()
	if err == nil {
		err = install.Validate()
	}
	if err != nil {
		p.Log.Error("Invalid configuration: %v", err)
		return false, err
	}

	p.Log.Info("Configuring %s %s (%s)", spec.Name, spec.Version, spec.Platform)

	present, err := p.isInstalled(spec, install)
	if err != nil {
		p.Log.Error("%v", err)
		return false, err
	}
	if present {
		p.Log.Info("%s configured", spec.Name)
		return false, nil
	}

	url, err := spec.DownloadURL()
	if err != nil {
		return false, err
	}
	pkg, err := spec.PackageName()
	if err != nil {
		return false, err
	}
	archive := filepath.Join(install.BinDirectory, pkg)

	p.Log.Info("Downloading %s", spec.Name)
	p.Log.Debug("Download URL: %s", url)
	if err := p.Fs.MkdirAll(install.BinDirectory, 0o755); err != nil {
		dlErr := &DownloadError{URL: url, Destination: archive, Err: err}
		p.Log.Error("%v", dlErr)
		return false, dlErr
	}

	dlCtx := ctx
	if p.DownloadTimeout > 0 {
		var cancel context.CancelFunc
		dlCtx, cancel = context.WithTimeout(ctx, p.DownloadTimeout)
		defer cancel()
	}
	dl, err := downloadFile(dlCtx, p.client(), p.Fs, p.Log, url, archive, spec.SHA256)
	if err != nil {
		p.Log.Error("%v", err)
		return false, err
	}

	p.Log.Info("Unpacking %s", spec.Name)
	if err := p.unpack(platform, install, archive); err != nil {
		p.Log.Error("%v", err)
		return false, err
	}

	marker := &state.InstallState{
		Name:        spec.Name,
		Version:     spec.Version,
		Platform:    spec.Platform,
		URL:         url,
		SHA256:      dl.SHA256,
		Executable:  install.ExecutablePath,
		InstalledAt: p.now(),
	}
	if err := state.Save(p.Fs, install.BinDirectory, marker); err != nil {
		// The executable is in place; a missing marker only weakens the next version check.
		p.Log.Warn("%v", err)
	}

	p.Log.Info("%s configured", spec.Name)
	return true, nil
}

// isInstalled decides whether the download phase can be skipped.
func (p *Provisioner) isInstalled(spec ToolSpec, install LocalInstallation) (bool, error) {
	info, err := p.Fs.Stat(install.ExecutablePath)
	if errors.Is(err, os.ErrNotExist) {
		p.Log.Debug("%s not found", install.ExecutablePath)
		return false, nil
	}
	if err != nil {
		return false, &ConfigurationError{Field: "executable_path", Value: install.ExecutablePath, Reason: err.Error()}
	}
	if !info.Mode().IsRegular() {
		return false, &ConfigurationError{Field: "executable_path", Value: install.ExecutablePath, Reason: "exists but is not a regular file"}
	}
	if p.Force {
		p.Log.Info("Reinstalling %s (forced)", spec.Name)
		return false, nil
	}

	marker, err := state.Load(p.Fs, install.BinDirectory)
	switch {
	case err != nil:
		p.Log.Warn("Ignoring unreadable install marker: %v", err)
	case marker == nil:
		p.Log.Debug("No install marker in %s, trusting existing %s", install.BinDirectory, install.ExecutablePath)
	case !marker.Matches(spec.Name, spec.Version):
		if p.StrictVersion {
			p.Log.Warn("Installed %s is version %s, want %s. Reinstalling", spec.Name, marker.Version, spec.Version)
			return false, nil
		}
		p.Log.Warn("Installed %s is version %s, want %s. Use --strict-version or --force to replace it", spec.Name, marker.Version, spec.Version)
	}
	return true, nil
}

// unpack extracts archive into the bin directory, removes the archive and makes sure
// the executable ended up at install.ExecutablePath.
func (p *Provisioner) unpack(platform Platform, install LocalInstallation, archive string) error {
	bin := install.BinDirectory
	fail := func(err error) error {
		p.discard(install.ExecutablePath)
		return &ExtractionError{Archive: archive, Destination: bin, Err: err}
	}

	// Clear the previous install; the nested-executable lookup below only runs when
	// ExecutablePath is absent.
	p.discard(install.ExecutablePath)
	if err := state.Remove(p.Fs, bin); err != nil {
		p.Log.Warn("%v", err)
	}

	err := ExtractArchive(p.Fs, p.Log, archive, bin)
	if rmErr := p.Fs.Remove(archive); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
		p.Log.Warn("Failed to remove %s: %v", archive, rmErr)
	}
	if err != nil {
		return fail(err)
	}

	exe := install.ExecutablePath
	if ok, _ := afero.Exists(p.Fs, exe); !ok {
		found, err := findExecutable(p.Fs, bin, filepath.Base(exe))
		if err != nil {
			return fail(err)
		}
		p.Log.Debug("Moving %s to %s", found, exe)
		if err := moveFile(p.Fs, found, exe); err != nil {
			return fail(err)
		}
	}

	if platform.ExecutableSuffix == "" {
		if err := p.Fs.Chmod(exe, 0o755); err != nil {
			return fail(fmt.Errorf("failed to make %s executable: %w", exe, err))
		}
	}
	return nil
}

// discard removes a possibly half-written executable so the next run's existence
// check does not mistake it for a complete install.
func (p *Provisioner) discard(path string) {
	if err := p.Fs.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		p.Log.Warn("Failed to remove %s: %v", path, err)
	}
}

// Run invokes the installed executable with args, synchronously, inheriting the
// standard streams.
func (p *Provisioner) Run(ctx context.Context, install LocalInstallation, args []string) error {
	args = append([]string(nil), args...)
	p.Log.Info("Running %s", strings.TrimSpace(install.ExecutablePath+" "+strings.Join(args, " ")))

	code, err := p.Runner.Run(ctx, Command{Path: install.ExecutablePath, Args: args, Dir: p.WorkDir})
	if err != nil {
		invErr := &ToolInvocationError{Path: install.ExecutablePath, Args: args, ExitCode: -1, Err: err}
		p.Log.Error("%v", invErr)
		return invErr
	}
	if code != 0 {
		invErr := &ToolInvocationError{Path: install.ExecutablePath, Args: args, ExitCode: code}
		p.Log.Error("%v", invErr)
		return invErr
	}
	return nil
}

func (p *Provisioner) client() *http.Client {
	if p.Client != nil {
		return p.Client
	}
	return http.DefaultClient
}

func (p *Provisioner) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}
