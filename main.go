package main

import (
	"ckan-devstaller/cmd" // Import the cmd package which contains the CLI commands and execution logic
)

// main is the program entry point.
// It delegates to cmd.Execute() which handles command line argument parsing and execution.
//
// ckan-devstaller provisions a CKAN development instance on a fresh Ubuntu host:
//   - Resolves an installation configuration from flags, presets, an answers file, or prompts
//   - Runs a fixed, numbered pipeline of steps (system packages, Docker, Ahoy, ckan-compose,
//     CKAN itself, and the optional DataStore, ckanext-scheming and DataPusher+ extensions)
//   - Patches /etc/ckan/default/ckan.ini in place without touching unrelated keys
//   - Skips work that is already satisfied (Docker installed, repositories cloned, binaries present)
//     so re-running after a failure is cheap
//
// Error handling strategy:
//   - Every step failure aborts the pipeline; nothing is rolled back
//   - The failing step ordinal and the command's stderr are printed and the exit status is non-zero
func main() {
	cmd.Execute()
}
