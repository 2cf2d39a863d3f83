package sources

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/nvinuesa/bw2kp/internal/model"
)

// BitwardenExport represents the top-level Bitwarden JSON export structure.
type BitwardenExport struct {
	Encrypted bool           `json:"encrypted"`
	Folders   []model.Folder `json:"folders"`
	Items     []model.Item   `json:"items"`
}

// BitwardenSource implements the Source interface for unencrypted Bitwarden
// JSON exports (`bw export --format json`).
type BitwardenSource struct {
	filePath string
	isOpen   bool
	export   *BitwardenExport
}

// NewBitwardenSource creates a new Bitwarden JSON source adapter.
func NewBitwardenSource() *BitwardenSource {
	return &BitwardenSource{}
}

// Name returns the unique identifier for this source.
func (s *BitwardenSource) Name() string {
	return "bitwarden"
}

// Description returns a human-readable description.
func (s *BitwardenSource) Description() string {
	return "Bitwarden unencrypted JSON export"
}

// SupportedExtensions returns file extensions this source handles.
func (s *BitwardenSource) SupportedExtensions() []string {
	return []string{".json"}
}

// Detect checks if the given path is a Bitwarden JSON export.
func (s *BitwardenSource) Detect(path string) (int, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, &ErrFileNotFound{Path: path}
		}
		return 0, err
	}
	if info.IsDir() || !strings.EqualFold(filepath.Ext(path), ".json") {
		return 0, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return 0, nil
	}

	var probe exportProbe
	if err := json.Unmarshal(data, &probe); err != nil {
		return 0, nil
	}
	return probe.confidence(), nil
}

// exportProbe decodes only the keys that identify a Bitwarden export.
type exportProbe struct {
	Encrypted *bool                        `json:"encrypted"`
	Folders   []json.RawMessage            `json:"folders"`
	Items     []map[string]json.RawMessage `json:"items"`
}

// probeItems is how many items are looked at for vault item keys.
const probeItems = 5

func (p *exportProbe) confidence() int {
	// Encrypted exports are recognisable but unusable.
	if p.Encrypted != nil && *p.Encrypted {
		return 50
	}

	score := 0
	if p.Encrypted != nil {
		score += 40
	}
	if p.Folders != nil {
		score += 20
	}
	if p.Items != nil {
		score += 20
	}
	for i, item := range p.Items {
		if i == probeItems {
			break
		}
		_, hasType := item["type"]
		_, hasRevision := item["revisionDate"]
		if hasType && hasRevision {
			score += 20
			break
		}
	}

	// The encrypted flag alone is too weak a signal.
	if score <= 40 {
		return 0
	}
	return score
}

// Open reads and parses the export file.
func (s *BitwardenSource) Open(path string, opts OpenOptions) error {
	if s.isOpen {
		return ErrAlreadyOpen
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &ErrFileNotFound{Path: path}
		}
		return &ErrPermissionDenied{Path: path, Op: "stat", Err: err}
	}

	if info.IsDir() {
		return &ErrInvalidFormat{
			Source:  s.Name(),
			Path:    path,
			Details: "path must be a file, not a directory",
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return &ErrPermissionDenied{Path: path, Op: "read", Err: err}
	}

	var export BitwardenExport
	if err := json.Unmarshal(data, &export); err != nil {
		return &ErrInvalidFormat{
			Source:  s.Name(),
			Path:    path,
			Details: "invalid JSON",
			Err:     err,
		}
	}

	if export.Encrypted {
		return &ErrInvalidFormat{
			Source:  s.Name(),
			Path:    path,
			Details: "encrypted Bitwarden exports are not supported; please export without encryption",
		}
	}

	s.filePath = path
	s.isOpen = true
	s.export = &export

	return nil
}

// Folders returns the folder records of the export.
func (s *BitwardenSource) Folders(ctx context.Context) ([]model.Folder, error) {
	if !s.isOpen {
		return nil, ErrNotOpen
	}
	return s.export.Folders, nil
}

// Items returns the items of the export.
func (s *BitwardenSource) Items(ctx context.Context) ([]model.Item, error) {
	if !s.isOpen {
		return nil, ErrNotOpen
	}
	return s.export.Items, nil
}

// Attachment always fails: JSON exports carry attachment metadata only.
func (s *BitwardenSource) Attachment(ctx context.Context, itemID, attachmentID string) ([]byte, error) {
	if !s.isOpen {
		return nil, ErrNotOpen
	}
	return nil, &ErrUnsupportedFeature{Source: s.Name(), Feature: "attachments"}
}

// Close releases resources.
func (s *BitwardenSource) Close() error {
	s.isOpen = false
	s.filePath = ""
	s.export = nil
	return nil
}

// init registers the Bitwarden source with the default registry.
func init() {
	RegisterDefault(NewBitwardenSource())
}

// Ensure BitwardenSource implements Source interface
var _ Source = (*BitwardenSource)(nil)
