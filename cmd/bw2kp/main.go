// Package main provides the entry point for the bw2kp CLI tool.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	Version   = "0.1.0-edge"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "bw2kp",
	Short: "Copy a Bitwarden vault into a KeePass database",
	Long: `bw2kp copies the folders, logins, secure notes and SSH keys of a
Bitwarden vault into a KeePass (KDBX 4) database.

Bitwarden folders are flat names such as "Work/Servers". bw2kp rebuilds them
as nested KeePass groups and places every item in its folder's group. The
database is created when it does not exist yet.

The vault is read either live through the Bitwarden CLI (bw-cli source, the
default) or from an unencrypted JSON export (bitwarden source).

Examples:
  # Migrate through an unlocked bw CLI session
  export BW_SESSION=$(bw unlock --raw)
  bw2kp migrate --database-path vault.kdbx

  # Migrate from a JSON export
  bw2kp migrate -s bitwarden -i bitwarden_export.json -d vault.kdbx

  # Show the folder tree that would be created
  bw2kp preview bitwarden_export.json`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	// Disable completion command
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(sourcesCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
