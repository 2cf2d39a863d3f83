// Package keepass writes the migrated vault into a KeePass 2.x (.kdbx)
// database.
package keepass

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/tobischo/gokeepasslib/v3"
	"github.com/tobischo/gokeepasslib/v3/wrappers"

	"github.com/nvinuesa/bw2kp/internal/security"
)

// DefaultRootName is the name of the root group of a newly created database.
const DefaultRootName = "Root"

var timeNow = time.Now

// Credentials unlock the destination database.
type Credentials struct {
	Password    string
	KeyFilePath string
}

// GroupRef addresses a group by its index path below the root group. The
// empty ref is the root group. Groups are only ever appended, so a ref
// stays valid for the lifetime of the Store.
type GroupRef []int

// Child returns the ref of the i-th subgroup of r.
func (r GroupRef) Child(i int) GroupRef {
	out := make(GroupRef, len(r)+1)
	copy(out, r)
	out[len(r)] = i
	return out
}

// Store is an open KeePass database.
type Store struct {
	path    string
	db      *gokeepasslib.Database
	created bool
	used    map[gokeepasslib.UUID]struct{}
}

// Open decodes the database at path, or prepares a new one with a single
// root group when the file does not exist. Nothing is written until Save.
func Open(path string, creds Credentials) (*Store, error) {
	dbCreds, err := credentials(creds)
	if err != nil {
		return nil, err
	}

	s := &Store{
		path: path,
		used: make(map[gokeepasslib.UUID]struct{}),
	}

	info, err := os.Stat(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		s.db = newDatabase(path, dbCreds)
		s.created = true
	case err != nil:
		return nil, fmt.Errorf("stat database %s: %w", path, err)
	case info.IsDir():
		return nil, &ErrInvalidFormat{Path: path, Details: "path must be a file, not a directory"}
	default:
		db, err := decode(path, dbCreds)
		if err != nil {
			return nil, err
		}
		s.db = db
	}

	s.indexUUIDs()
	return s, nil
}

func credentials(creds Credentials) (*gokeepasslib.DBCredentials, error) {
	if creds.KeyFilePath == "" {
		return gokeepasslib.NewPasswordCredentials(creds.Password), nil
	}

	keyData, err := os.ReadFile(creds.KeyFilePath)
	if err != nil {
		return nil, fmt.Errorf("read key file %s: %w", creds.KeyFilePath, err)
	}
	dbCreds, err := gokeepasslib.NewPasswordAndKeyDataCredentials(creds.Password, keyData)
	if err != nil {
		return nil, &ErrInvalidFormat{
			Path:    creds.KeyFilePath,
			Details: "failed to parse key file",
			Err:     err,
		}
	}
	return dbCreds, nil
}

func newDatabase(path string, creds *gokeepasslib.DBCredentials) *gokeepasslib.Database {
	db := gokeepasslib.NewDatabase()
	db.Credentials = creds

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	db.Content.Meta.DatabaseName = name

	root := gokeepasslib.NewGroup()
	root.Name = DefaultRootName
	db.Content.Root.Groups = []gokeepasslib.Group{root}
	return db
}

func decode(path string, creds *gokeepasslib.DBCredentials) (*gokeepasslib.Database, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}
	defer f.Close()

	db := gokeepasslib.NewDatabase()
	db.Credentials = creds

	if err := gokeepasslib.NewDecoder(f).Decode(db); err != nil {
		errStr := strings.ToLower(err.Error())
		if strings.Contains(errStr, "password") ||
			strings.Contains(errStr, "credential") ||
			strings.Contains(errStr, "hmac") ||
			strings.Contains(errStr, "integrity") {
			return nil, &ErrAuthenticationFailed{Path: path, Err: err}
		}
		return nil, &ErrInvalidFormat{Path: path, Details: "failed to decode database", Err: err}
	}

	if err := db.UnlockProtectedEntries(); err != nil {
		return nil, &ErrInvalidFormat{Path: path, Details: "failed to unlock protected entries", Err: err}
	}

	if db.Content == nil || db.Content.Root == nil || len(db.Content.Root.Groups) == 0 {
		return nil, &ErrInvalidFormat{Path: path, Details: "database has no root group"}
	}
	return db, nil
}

func (s *Store) indexUUIDs() {
	var walk func(g *gokeepasslib.Group)
	walk = func(g *gokeepasslib.Group) {
		s.used[g.UUID] = struct{}{}
		for i := range g.Entries {
			s.used[g.Entries[i].UUID] = struct{}{}
		}
		for i := range g.Groups {
			walk(&g.Groups[i])
		}
	}
	for i := range s.db.Content.Root.Groups {
		walk(&s.db.Content.Root.Groups[i])
	}
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Created reports whether Open started a new database.
func (s *Store) Created() bool {
	return s.created
}

// Root returns the ref of the root group.
func (s *Store) Root() GroupRef {
	return GroupRef{}
}

func (s *Store) group(ref GroupRef) (*gokeepasslib.Group, error) {
	if s.db == nil {
		return nil, ErrClosed
	}
	g := &s.db.Content.Root.Groups[0]
	for _, i := range ref {
		if i < 0 || i >= len(g.Groups) {
			return nil, &ErrGroupNotFound{Ref: ref}
		}
		g = &g.Groups[i]
	}
	return g, nil
}

// GroupName returns the name of the group at ref.
func (s *Store) GroupName(ref GroupRef) (string, error) {
	g, err := s.group(ref)
	if err != nil {
		return "", err
	}
	return g.Name, nil
}

// AddGroup appends a subgroup named name below parent. Names need not be
// unique among siblings.
func (s *Store) AddGroup(parent GroupRef, name string) (GroupRef, error) {
	p, err := s.group(parent)
	if err != nil {
		return nil, err
	}

	g := gokeepasslib.NewGroup()
	g.Name = name
	g.UUID = s.claim(gokeepasslib.NewUUID())

	p.Groups = append(p.Groups, g)
	return parent.Child(len(p.Groups) - 1), nil
}

// HasEntry reports whether the group at ref already holds an entry with
// this title and username.
func (s *Store) HasEntry(ref GroupRef, title, username string) bool {
	g, err := s.group(ref)
	if err != nil {
		return false
	}
	for i := range g.Entries {
		if g.Entries[i].GetTitle() == title && g.Entries[i].GetContent(KeyUserName) == username {
			return true
		}
	}
	return false
}

// AddEntry appends e to the group at ref.
func (s *Store) AddEntry(ref GroupRef, e *Entry) error {
	g, err := s.group(ref)
	if err != nil {
		return err
	}

	values, err := e.values()
	if err != nil {
		return err
	}

	entry := gokeepasslib.NewEntry()
	entry.UUID = s.entryUUID(e.ID)
	entry.Values = values
	entry.Tags = joinTags(e.Tags)
	setTime(&entry.Times.CreationTime, e.Created)
	setTime(&entry.Times.LastModificationTime, e.Modified)

	for _, a := range e.Attachments {
		if err := security.CheckAttachment(a.Name, len(a.Data)); err != nil {
			return fmt.Errorf("attachment %q: %w", a.Name, err)
		}
		binary := s.db.AddBinary(a.Data)
		entry.Binaries = append(entry.Binaries, binary.CreateReference(a.Name))
	}

	g.Entries = append(g.Entries, entry)
	return nil
}

// entryUUID derives the entry UUID from a UUID-shaped source id, falling back
// to a random one when the id is not a UUID or is already in use.
func (s *Store) entryUUID(id string) gokeepasslib.UUID {
	if u, err := uuid.Parse(id); err == nil {
		if _, taken := s.used[gokeepasslib.UUID(u)]; !taken {
			return s.claim(gokeepasslib.UUID(u))
		}
	}
	return s.claim(gokeepasslib.NewUUID())
}

func (s *Store) claim(id gokeepasslib.UUID) gokeepasslib.UUID {
	for {
		if _, taken := s.used[id]; !taken {
			s.used[id] = struct{}{}
			return id
		}
		id = gokeepasslib.NewUUID()
	}
}

// Save writes the database atomically. An exclusive lock on <path>.lock keeps
// concurrent runs from interleaving their writes.
func (s *Store) Save() (err error) {
	if s.db == nil {
		return ErrClosed
	}

	lock := flock.New(s.path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("failed to acquire lock on %s: %w", s.path, err)
	}
	defer func() {
		if uerr := lock.Unlock(); uerr != nil && err == nil {
			err = fmt.Errorf("failed to release lock on %s: %w", s.path, uerr)
		}
	}()

	s.db.Content.Meta.DatabaseNameChanged = &wrappers.TimeWrapper{Time: timeNow()}

	if err := s.db.LockProtectedEntries(); err != nil {
		return fmt.Errorf("lock protected entries: %w", err)
	}
	defer func() {
		if uerr := s.db.UnlockProtectedEntries(); uerr != nil && err == nil {
			err = fmt.Errorf("unlock protected entries: %w", uerr)
		}
	}()

	return s.writeAtomic()
}

func (s *Store) writeAtomic() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".bw2kp-*.kdbx")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if tmp != nil {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	if err := gokeepasslib.NewEncoder(tmp).Encode(s.db); err != nil {
		return fmt.Errorf("encode database: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o600); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("failed to rename temp file to %s: %w", s.path, err)
	}
	tmp = nil

	s.created = false
	return nil
}

// Close drops the decoded database. Further calls fail with ErrClosed.
func (s *Store) Close() error {
	s.db = nil
	s.used = nil
	return nil
}
