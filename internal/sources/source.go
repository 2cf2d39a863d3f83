// Package sources provides adapters for enumerating a Bitwarden vault.
package sources

import (
	"context"

	"github.com/nvinuesa/bw2kp/internal/model"
)

// Source defines the interface for vault source adapters.
// Each adapter exposes the raw folder and item records of one vault, either
// live through the bw CLI or from an export file.
type Source interface {
	// Name returns the unique identifier for this source (e.g., "bw-cli").
	Name() string

	// Description returns a human-readable description of the source.
	Description() string

	// SupportedExtensions returns file extensions this source handles (e.g., [".json"]).
	// Return empty slice for sources that are not file based.
	SupportedExtensions() []string

	// Detect checks if the given path is valid for this source.
	// Returns a confidence score from 0-100 (100 = definitely this source).
	// A score of 0 means this source cannot handle the path.
	Detect(path string) (confidence int, err error)

	// Open initializes the source with the given path and options.
	Open(path string, opts OpenOptions) error

	// Folders returns every folder record, including the "No Folder"
	// bucket when the source reports one.
	Folders(ctx context.Context) ([]model.Folder, error)

	// Items returns every vault item.
	Items(ctx context.Context) ([]model.Item, error)

	// Attachment returns the content of one item attachment.
	// Returns ErrUnsupportedFeature if the source carries no attachment data.
	Attachment(ctx context.Context, itemID, attachmentID string) ([]byte, error)

	// Close releases any resources held by the source.
	// Should clear sensitive data from memory where possible.
	Close() error
}

// OpenOptions provides configuration for opening a source.
type OpenOptions struct {
	// Session is the bw CLI session key (output of `bw unlock --raw`).
	Session string

	// Interactive indicates whether the source may prompt for a missing session.
	// If true, PasswordFunc will be called when a session key is needed.
	Interactive bool

	// PasswordFunc is a callback for interactive secret entry.
	// It receives a prompt string and should return the secret or an error.
	// Only used when Interactive is true.
	PasswordFunc PasswordPromptFunc
}

// PasswordPromptFunc is the signature for interactive password callbacks.
type PasswordPromptFunc func(prompt string) (string, error)
