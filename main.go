package main

import (
	"os"

	"setup-project/cmd"
)

// main hands control to the cobra command tree.
//
// setup-project prepares a C++ project checkout for building:
//   - Reads setup.yaml (optional) describing the generator tool, its version and the
//     actions to run, with SETUP_* environment variables and flags layered on top
//   - Downloads the prebuilt release archive into Vendor/<Tool>/Bin when the executable
//     is missing, unpacks it and removes the archive
//   - Runs the generator (premake5 vs2022 by default) from the project root
//
// Every step is logged to the console and appended to setup.log. Any failure ends the
// run with exit status 1.
func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
