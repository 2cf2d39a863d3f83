package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/nvinuesa/bw2kp/internal/model"
	"github.com/nvinuesa/bw2kp/internal/security"
)

// SessionEnv is the environment variable the bw CLI reads its session key from.
const SessionEnv = "BW_SESSION"

// Runner executes name with args and the extra environment entries, and
// returns its standard output. A non-zero exit must be reported as
// *ErrCommandFailed.
type Runner func(ctx context.Context, name string, args []string, env []string) ([]byte, error)

// ExecRunner runs commands with os/exec.
func ExecRunner(ctx context.Context, name string, args []string, env []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = append(os.Environ(), env...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, &ErrCommandFailed{
			Command: strings.Join(append([]string{filepath.Base(name)}, args...), " "),
			Stderr:  strings.TrimSpace(stderr.String()),
			Err:     err,
		}
	}
	return stdout.Bytes(), nil
}

// CLISource implements the Source interface on top of the Bitwarden CLI.
// The vault must already be unlocked; the session key is handed to bw via
// the BW_SESSION environment variable, never on the command line.
type CLISource struct {
	bwPath  string
	session *security.Secret
	run     Runner
	isOpen  bool
	folders []model.Folder
	items   []model.Item
}

// NewCLISource creates a bw CLI source that executes the real binary.
func NewCLISource() *CLISource {
	return NewCLISourceWithRunner(ExecRunner)
}

// NewCLISourceWithRunner creates a bw CLI source with a custom command runner.
func NewCLISourceWithRunner(run Runner) *CLISource {
	return &CLISource{run: run}
}

// Name returns the unique identifier for this source.
func (s *CLISource) Name() string {
	return "bw-cli"
}

// Description returns a human-readable description.
func (s *CLISource) Description() string {
	return "Live Bitwarden vault through the bw command line client"
}

// SupportedExtensions returns nil: the source is addressed by binary path.
func (s *CLISource) SupportedExtensions() []string {
	return nil
}

// Detect reports whether path is an executable bw binary.
func (s *CLISource) Detect(path string) (int, error) {
	resolved, err := resolveBinary(path)
	if err != nil {
		return 0, err
	}

	base := strings.ToLower(filepath.Base(resolved))
	if base == "bw" || base == "bw.exe" {
		return 100, nil
	}
	return 0, nil
}

// resolveBinary finds path on disk or in $PATH and checks it is executable.
func resolveBinary(path string) (string, error) {
	if path == "" {
		return "", &ErrFileNotFound{Path: path}
	}

	resolved := path
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return "", &ErrPermissionDenied{Path: path, Op: "stat", Err: err}
		}
		lp, lerr := exec.LookPath(path)
		if lerr != nil {
			return "", &ErrFileNotFound{Path: path}
		}
		resolved = lp
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return "", &ErrFileNotFound{Path: resolved}
	}
	if info.IsDir() || info.Mode()&0o111 == 0 {
		return "", &ErrPermissionDenied{Path: resolved, Op: "execute"}
	}
	return resolved, nil
}

// Open checks the bw binary and stores the session key.
func (s *CLISource) Open(path string, opts OpenOptions) error {
	if s.isOpen {
		return ErrAlreadyOpen
	}

	resolved, err := resolveBinary(path)
	if err != nil {
		return err
	}

	session := opts.Session
	if session == "" && opts.Interactive && opts.PasswordFunc != nil {
		session, err = opts.PasswordFunc("Enter Bitwarden session key (bw unlock --raw): ")
		if err != nil {
			return err
		}
	}

	s.bwPath = resolved
	s.session = security.NewSecret(session)
	s.isOpen = true
	s.folders = nil
	s.items = nil

	return nil
}

// Folders lists the vault folders with `bw list folders`.
func (s *CLISource) Folders(ctx context.Context) ([]model.Folder, error) {
	if !s.isOpen {
		return nil, ErrNotOpen
	}
	if s.folders != nil {
		return s.folders, nil
	}

	var folders []model.Folder
	if err := s.listJSON(ctx, "folders", &folders); err != nil {
		return nil, err
	}
	s.folders = folders
	return folders, nil
}

// Items lists the vault items with `bw list items`.
func (s *CLISource) Items(ctx context.Context) ([]model.Item, error) {
	if !s.isOpen {
		return nil, ErrNotOpen
	}
	if s.items != nil {
		return s.items, nil
	}

	var items []model.Item
	if err := s.listJSON(ctx, "items", &items); err != nil {
		return nil, err
	}
	s.items = items
	return items, nil
}

// Attachment downloads one attachment with `bw get attachment --raw`.
func (s *CLISource) Attachment(ctx context.Context, itemID, attachmentID string) ([]byte, error) {
	if !s.isOpen {
		return nil, ErrNotOpen
	}
	return s.bw(ctx, "get", "attachment", attachmentID, "--itemid", itemID, "--raw")
}

func (s *CLISource) listJSON(ctx context.Context, object string, v any) error {
	out, err := s.bw(ctx, "list", object)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(out, v); err != nil {
		return &ErrInvalidFormat{
			Source:  s.Name(),
			Path:    "bw list " + object,
			Details: "unexpected output",
			Err:     err,
		}
	}
	return nil
}

func (s *CLISource) bw(ctx context.Context, args ...string) ([]byte, error) {
	args = append(args, "--nointeraction")

	var env []string
	if kv := s.session.EnvVar(SessionEnv); kv != "" {
		env = append(env, kv)
	}

	out, err := s.run(ctx, s.bwPath, args, env)
	if err != nil {
		return nil, s.classify(err)
	}
	return out, nil
}

// classify turns bw's locked-vault failures into authentication errors.
func (s *CLISource) classify(err error) error {
	var cmdErr *ErrCommandFailed
	if !errors.As(err, &cmdErr) {
		return err
	}

	stderr := strings.ToLower(cmdErr.Stderr)
	switch {
	case strings.Contains(stderr, "not logged in"):
		return &ErrAuthenticationFailed{Source: s.Name(), Reason: "not logged in (run bw login)", Err: err}
	case strings.Contains(stderr, "vault is locked"), strings.Contains(stderr, "invalid session"):
		return &ErrAuthenticationFailed{Source: s.Name(), Reason: "vault is locked or session key is invalid", Err: err}
	}
	return err
}

// Close forgets the session key and cached records.
func (s *CLISource) Close() error {
	s.session.Zero()
	s.session = nil
	s.isOpen = false
	s.bwPath = ""
	s.folders = nil
	s.items = nil
	return nil
}

func init() {
	RegisterDefault(NewCLISource())
}

var _ Source = (*CLISource)(nil)
