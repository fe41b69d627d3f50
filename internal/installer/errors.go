package installer

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Every error returned by the Provisioner matches exactly one of these
// with errors.Is; errors.As on the typed errors below recovers the context.
var (
	ErrConfiguration  = errors.New("configuration error")
	ErrDownload       = errors.New("download error")
	ErrExtraction     = errors.New("extraction error")
	ErrToolInvocation = errors.New("tool invocation error")
)

// ConfigurationError reports an invalid ToolSpec or LocalInstallation.
// It is always returned before any download or filesystem write.
type ConfigurationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%v: %s %q: %s", ErrConfiguration, e.Field, e.Value, e.Reason)
}

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// DownloadError reports a failed fetch of URL into Destination.
// Status is the HTTP status code when the server answered, zero otherwise.
type DownloadError struct {
	URL         string
	Destination string
	Status      int
	Err         error
}

func (e *DownloadError) Error() string {
	msg := fmt.Sprintf("%v from %s to %s", ErrDownload, e.URL, e.Destination)
	if e.Status != 0 {
		msg += fmt.Sprintf(" (HTTP %d)", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DownloadError) Unwrap() error { return e.Err }

func (e *DownloadError) Is(target error) bool { return target == ErrDownload }

// ExtractionError reports an archive that is missing, corrupt, unsupported, or does
// not contain the expected executable.
type ExtractionError struct {
	Archive     string
	Destination string
	Err         error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("%v unpacking %s into %s: %v", ErrExtraction, e.Archive, e.Destination, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

func (e *ExtractionError) Is(target error) bool { return target == ErrExtraction }

// ToolInvocationError reports a tool that could not be started or exited non-zero.
// ExitCode is -1 when the process never ran to completion.
type ToolInvocationError struct {
	Path     string
	Args     []string
	ExitCode int
	Err      error
}

func (e *ToolInvocationError) Error() string {
	cmdline := strings.TrimSpace(e.Path + " " + strings.Join(e.Args, " "))
	if e.Err != nil {
		return fmt.Sprintf("%v running %s: %v", ErrToolInvocation, cmdline, e.Err)
	}
	return fmt.Sprintf("%v: %s exited with code %d", ErrToolInvocation, cmdline, e.ExitCode)
}

func (e *ToolInvocationError) Unwrap() error { return e.Err }

func (e *ToolInvocationError) Is(target error) bool { return target == ErrToolInvocation }
