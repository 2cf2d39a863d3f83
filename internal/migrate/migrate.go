// Package migrate copies a Bitwarden vault into a KeePass database: it
// rebuilds the folder hierarchy as groups, then converts every item into an
// entry placed in its folder's group.
package migrate

import (
	"context"
	"errors"
	"fmt"

	"github.com/nvinuesa/bw2kp/internal/folders"
	"github.com/nvinuesa/bw2kp/internal/keepass"
	"github.com/nvinuesa/bw2kp/internal/logger"
	"github.com/nvinuesa/bw2kp/internal/model"
	"github.com/nvinuesa/bw2kp/internal/security"
)

// Vault is the read side of a migration.
type Vault interface {
	Folders(ctx context.Context) ([]model.Folder, error)
	Items(ctx context.Context) ([]model.Item, error)
	Attachment(ctx context.Context, itemID, attachmentID string) ([]byte, error)
}

// Store is the write side of a migration.
type Store interface {
	Root() keepass.GroupRef
	AddGroup(parent keepass.GroupRef, name string) (keepass.GroupRef, error)
	HasEntry(group keepass.GroupRef, title, username string) bool
	AddEntry(group keepass.GroupRef, e *keepass.Entry) error
	Save() error
}

// Options controls a run.
type Options struct {
	// Delimiter separates nesting levels in folder names. Defaults to "/".
	Delimiter string
	// DryRun builds everything in memory but does not save the database.
	DryRun bool
	// Logger receives progress and per-item warnings. Nil discards them.
	Logger *logger.Logger
}

// Report summarizes a run.
type Report struct {
	Folders  int
	Imported int
	Skipped  int
	Failed   int
	Failures []string
}

// Run migrates vault into store.
//
// Folder and item listing errors, and a group that cannot be created, abort
// the run before anything is saved. Problems with a single item are logged
// and counted; the item is skipped and the run continues.
func Run(ctx context.Context, vault Vault, store Store, opts Options) (*Report, error) {
	log := opts.Logger
	if log == nil {
		log = logger.Discard()
	}
	if opts.Delimiter == "" {
		opts.Delimiter = folders.DefaultDelimiter
	}

	report := &Report{}

	groups, err := loadFolders(ctx, vault, store, opts.Delimiter, log)
	if err != nil {
		return nil, err
	}
	report.Folders = len(groups) - 1
	log.Infof("Folders done (%d).", report.Folders)

	items, err := vault.Items(ctx)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	if err := security.CheckItemCount(len(items)); err != nil {
		return nil, err
	}
	log.Infof("Starting to process %d items.", len(items))

	m := &migrator{vault: vault, store: store, groups: groups, log: log}
	for i := range items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		item := &items[i]
		if !item.Type.Migrated() {
			log.Warnf("Skipping credit card or identity item %q.", item.Name)
			report.Skipped++
			continue
		}

		if err := m.importItem(ctx, item); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			log.Warnf("Skipping item named %q because of this error: %v", item.Name, err)
			report.Failed++
			report.Failures = append(report.Failures, fmt.Sprintf("%s: %v", item.Name, err))
			continue
		}
		report.Imported++
	}

	if opts.DryRun {
		log.Infof("Dry run: not saving the KeePass database.")
		return report, nil
	}

	log.Infof("Saving changes to KeePass database.")
	if err := store.Save(); err != nil {
		return nil, fmt.Errorf("save database: %w", err)
	}
	log.Infof("Export completed.")
	return report, nil
}

// loadFolders builds the folder tree and creates one group per node. The
// returned map always holds "" for the root group.
func loadFolders(ctx context.Context, vault Vault, store Store, delim string, log *logger.Logger) (map[string]keepass.GroupRef, error) {
	records, err := vault.Folders(ctx)
	if err != nil {
		return nil, fmt.Errorf("list folders: %w", err)
	}

	kept := make([]model.Folder, 0, len(records))
	for _, f := range records {
		if f.IsNoFolder() {
			continue
		}
		if err := security.CheckLength("folder name", f.Name, security.MaxFolderNameLength); err != nil {
			log.Warnf("Skipping folder %s: %v", f.ID, err)
			continue
		}
		kept = append(kept, f)
	}

	tree, err := folders.Build(kept, delim)
	if err != nil {
		return nil, fmt.Errorf("build folder tree: %w", err)
	}
	log.Debugf("Folder tree has %d nodes.", tree.Len())

	groups, err := folders.Materialize(tree, store.Root(), store.AddGroup)
	if err != nil {
		return nil, err
	}
	return groups, nil
}
