package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nvinuesa/bw2kp/internal/config"
	"github.com/nvinuesa/bw2kp/internal/keepass"
	"github.com/nvinuesa/bw2kp/internal/migrate"
)

var migrateFlags struct {
	vault            vaultFlags
	databasePath     string
	databasePassword string
	databaseKeyfile  string
	dryRun           bool
	logFile          string
	verbose          bool
	quiet            bool
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Copy the vault into a KeePass database",
	Long: `Copy a Bitwarden vault into a KeePass database.

Every Bitwarden folder becomes a group, nested along the "/" delimiter, and
every login, secure note and SSH key becomes an entry in its folder's group.
Cards and identities are skipped. An item that cannot be converted is
reported and skipped; the rest of the vault is still copied.

Settings are read from the config file, then BW_SESSION, BW_PATH,
DATABASE_PATH, DATABASE_PASSWORD and DATABASE_KEYFILE, then flags.

Examples:
  # Live vault through the bw CLI
  BW_SESSION=$(bw unlock --raw) bw2kp migrate -d vault.kdbx

  # JSON export into an existing database with a key file
  bw2kp migrate -s bitwarden -i export.json -d vault.kdbx -k vault.keyx

  # Convert everything but leave the database untouched
  bw2kp migrate -d vault.kdbx --dry-run -v`,
	Args: cobra.NoArgs,
	RunE: runMigrate,
}

func init() {
	migrateFlags.vault.register(migrateCmd)
	migrateCmd.Flags().StringVarP(&migrateFlags.databasePath, "database-path", "d", "", "KeePass database, created if missing")
	migrateCmd.Flags().StringVarP(&migrateFlags.databasePassword, "database-password", "p", "", "KeePass database password")
	migrateCmd.Flags().StringVarP(&migrateFlags.databaseKeyfile, "database-keyfile", "k", "", "KeePass key file")
	migrateCmd.Flags().BoolVar(&migrateFlags.dryRun, "dry-run", false, "convert everything but do not save the database")
	migrateCmd.Flags().StringVar(&migrateFlags.logFile, "log-file", "", "also write the log to this file")
	migrateCmd.Flags().BoolVarP(&migrateFlags.verbose, "verbose", "v", false, "verbose output")
	migrateCmd.Flags().BoolVarP(&migrateFlags.quiet, "quiet", "q", false, "suppress all output except errors")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := migrateConfig(cmd, lookupEnv)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := newLogger(cmd.ErrOrStderr(), cfg, migrateFlags.verbose, migrateFlags.quiet)
	if err != nil {
		return err
	}
	defer log.Close()

	if cfg.DatabasePassword == "" {
		if !stdinIsTerminal() {
			return fmt.Errorf("a KeePass database password is required (--database-password or %s)", config.EnvDatabasePassword)
		}
		cfg.DatabasePassword, err = promptPassword(fmt.Sprintf("Enter password for %s: ", cfg.DatabasePath))
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
	}

	store, err := keepass.Open(cfg.DatabasePath, keepass.Credentials{
		Password:    cfg.DatabasePassword,
		KeyFilePath: cfg.DatabaseKeyfile,
	})
	if err != nil {
		if keepass.IsAuthError(err) {
			log.Errorf("Wrong password for KeePass database: %v", err)
		}
		return err
	}
	defer store.Close()
	if store.Created() {
		log.Infof("KeePass database does not exist, creating a new one.")
	}

	vault, err := openVault(cfg, log)
	if err != nil {
		return err
	}
	defer vault.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := migrate.Run(ctx, vault, store, migrate.Options{
		Delimiter: cfg.Delimiter,
		DryRun:    cfg.DryRun,
		Logger:    log,
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return fmt.Errorf("interrupted, the KeePass database was not modified")
		}
		return err
	}

	if !migrateFlags.quiet {
		printMigrateSummary(cmd.OutOrStdout(), cfg, report)
	}
	return nil
}

// migrateConfig layers the migrate-only flags over the shared ones.
func migrateConfig(cmd *cobra.Command, lookup func(string) (string, bool)) (*config.Config, error) {
	cfg, err := migrateFlags.vault.loadConfig(cmd, lookup)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("database-path") {
		cfg.DatabasePath = migrateFlags.databasePath
	}
	if flags.Changed("database-password") {
		cfg.DatabasePassword = migrateFlags.databasePassword
	}
	if flags.Changed("database-keyfile") {
		cfg.DatabaseKeyfile = migrateFlags.databaseKeyfile
	}
	if flags.Changed("dry-run") {
		cfg.DryRun = migrateFlags.dryRun
	}
	if flags.Changed("log-file") {
		cfg.Log.File = migrateFlags.logFile
	}
	return cfg, nil
}

func printMigrateSummary(w io.Writer, cfg *config.Config, report *migrate.Report) {
	fmt.Fprintf(w, "\nDatabase: %s\n", cfg.DatabasePath)
	fmt.Fprintf(w, "Groups:   %d\n", report.Folders)
	fmt.Fprintf(w, "Entries:  %d imported, %d skipped, %d failed\n", report.Imported, report.Skipped, report.Failed)

	if len(report.Failures) > 0 {
		fmt.Fprintln(w, "\nFailed items:")
		for _, f := range report.Failures {
			fmt.Fprintf(w, "  - %s\n", f)
		}
	}

	if cfg.DryRun {
		fmt.Fprintln(w, "\n[Dry run - database not saved]")
	}
}
