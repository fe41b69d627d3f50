package installer_test

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"setup-project/internal/installer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestHelperProcess is not a real test: ExecRunner tests re-run the test binary
// with GO_WANT_HELPER_PROCESS=1 to get a process with a known exit code and output.
//
//nolint:paralleltest // runs as a child process
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}

	args := os.Args
	for len(args) > 0 && args[0] != "--" {
		args = args[1:]
	}
	if len(args) < 3 {
		os.Exit(2)
	}

	fmt.Fprint(os.Stdout, args[1])
	code, _ := strconv.Atoi(args[2])
	os.Exit(code)
}

func helperCommand(output string, code int) installer.Command {
	return installer.Command{
		Path: os.Args[0],
		Args: []string{"-test.run=TestHelperProcess", "--", output, strconv.Itoa(code)},
	}
}

//nolint:paralleltest // t.Setenv forbids t.Parallel
func TestExecRunner(t *testing.T) {
	t.Setenv("GO_WANT_HELPER_PROCESS", "1")

	t.Run("success", func(t *testing.T) {
		var stdout bytes.Buffer
		cmd := helperCommand("Generating actions for vs2022", 0)
		cmd.Stdout = &stdout

		code, err := installer.ExecRunner{}.Run(context.Background(), cmd)

		require.NoError(t, err)
		assert.Equal(t, 0, code)
		assert.Equal(t, "Generating actions for vs2022", stdout.String())
	})

	t.Run("non_zero_exit", func(t *testing.T) {
		cmd := helperCommand("bad action", 3)
		cmd.Stdout = &bytes.Buffer{}

		code, err := installer.ExecRunner{}.Run(context.Background(), cmd)

		require.NoError(t, err)
		assert.Equal(t, 3, code)
	})

	t.Run("missing_executable", func(t *testing.T) {
		code, err := installer.ExecRunner{}.Run(context.Background(), installer.Command{
			Path: filepath.Join(t.TempDir(), "premake5"),
		})

		require.Error(t, err)
		assert.Equal(t, -1, code)
	})
}
