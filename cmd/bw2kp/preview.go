package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/nvinuesa/bw2kp/internal/config"
	"github.com/nvinuesa/bw2kp/internal/folders"
	"github.com/nvinuesa/bw2kp/internal/model"
	"github.com/nvinuesa/bw2kp/internal/sources"
)

var previewFlags struct {
	vault vaultFlags
}

var previewCmd = &cobra.Command{
	Use:   "preview [export-file]",
	Short: "Show the groups and entries a migration would create",
	Long: `Read the vault and print the KeePass group tree a migration would
create, with the number of entries in each group. Nothing is written.

Given an export file and no --source, the source is detected from the file.

Examples:
  # Preview a JSON export
  bw2kp preview bitwarden_export.json

  # Preview the live vault
  BW_SESSION=$(bw unlock --raw) bw2kp preview -s bw-cli

  # Preview with a custom nesting delimiter
  bw2kp preview export.json --delimiter "::"`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPreview,
}

func init() {
	previewFlags.vault.register(previewCmd)
}

func runPreview(cmd *cobra.Command, args []string) error {
	cfg, err := previewFlags.vault.loadConfig(cmd, lookupEnv)
	if err != nil {
		return err
	}

	if len(args) == 1 {
		cfg.Input = args[0]
		if !cmd.Flags().Changed("source") {
			detected, err := sources.DefaultRegistry().DetectSource(cfg.Input)
			if err != nil {
				return fmt.Errorf("could not auto-detect source type for: %s (use --source to specify)", cfg.Input)
			}
			cfg.Source = detected.Name()
			fmt.Fprintf(cmd.ErrOrStderr(), "Auto-detected source: %s\n", cfg.Source)
		}
	}
	if err := cfg.ValidateSource(); err != nil {
		return err
	}

	log, err := newLogger(cmd.ErrOrStderr(), cfg, false, false)
	if err != nil {
		return err
	}
	defer log.Close()

	vault, err := openVault(cfg, log)
	if err != nil {
		return err
	}
	defer vault.Close()

	ctx := cmd.Context()
	records, err := vault.Folders(ctx)
	if err != nil {
		return fmt.Errorf("failed to list folders: %w", err)
	}
	items, err := vault.Items(ctx)
	if err != nil {
		return fmt.Errorf("failed to list items: %w", err)
	}

	kept := make([]model.Folder, 0, len(records))
	for _, f := range records {
		if !f.IsNoFolder() {
			kept = append(kept, f)
		}
	}
	tree, err := folders.Build(kept, cfg.Delimiter)
	if err != nil {
		return err
	}

	printPreview(cmd.OutOrStdout(), sourceLabel(cfg), tree, items)
	return nil
}

func sourceLabel(cfg *config.Config) string {
	if cfg.Source == config.SourceExport {
		return fmt.Sprintf("%s (%s)", cfg.Source, cfg.Input)
	}
	return fmt.Sprintf("%s (%s)", cfg.Source, cfg.BWPath)
}

var (
	groupColor   = color.New(color.Bold)
	skippedColor = color.New(color.FgYellow)
)

// printPreview writes the item summary and the group tree.
func printPreview(w io.Writer, source string, tree *folders.Tree, items []model.Item) {
	typeCounts := make(map[model.ItemType]int)
	perFolder := make(map[string]int)
	known := map[string]bool{"": true}
	tree.Walk(func(f folders.Folder) bool {
		known[f.ID] = true
		return true
	})

	for _, item := range items {
		typeCounts[item.Type]++
		if !item.Type.Migrated() {
			continue
		}
		if known[item.FolderID] {
			perFolder[item.FolderID]++
		} else {
			perFolder[""]++
		}
	}

	fmt.Fprintf(w, "Source: %s\n", source)
	fmt.Fprintf(w, "Items: %d total\n", len(items))

	types := make([]model.ItemType, 0, len(typeCounts))
	for t := range typeCounts {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	for _, t := range types {
		fmt.Fprintf(w, "  - %d %s", typeCounts[t], t)
		if !t.Migrated() {
			skippedColor.Fprint(w, " (skipped)")
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "\nGroups: %d\n", tree.Len())
	fmt.Fprint(w, "  ")
	groupColor.Fprint(w, "Root")
	fmt.Fprintf(w, " (%d items)\n", perFolder[""])
	printGroups(w, tree, "", perFolder, "  ")
}

// printGroups prints the children of id, then recurses into each.
func printGroups(w io.Writer, tree *folders.Tree, id string, counts map[string]int, indent string) {
	for _, f := range tree.Children(id) {
		fmt.Fprintf(w, "%s- ", indent)
		groupColor.Fprint(w, f.Name)
		fmt.Fprintf(w, " (%d items)\n", counts[f.ID])
		printGroups(w, tree, f.ID, counts, indent+"  ")
	}
}
