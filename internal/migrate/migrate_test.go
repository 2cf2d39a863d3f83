package migrate

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvinuesa/bw2kp/internal/folders"
	"github.com/nvinuesa/bw2kp/internal/keepass"
	"github.com/nvinuesa/bw2kp/internal/logger"
	"github.com/nvinuesa/bw2kp/internal/model"
	"github.com/nvinuesa/bw2kp/internal/sources"
)

type fakeVault struct {
	folders     []model.Folder
	items       []model.Item
	attachments map[string][]byte
	attachErr   error
	foldersErr  error
}

func (v *fakeVault) Folders(context.Context) ([]model.Folder, error) {
	return v.folders, v.foldersErr
}

func (v *fakeVault) Items(context.Context) ([]model.Item, error) {
	return v.items, nil
}

func (v *fakeVault) Attachment(_ context.Context, itemID, attachmentID string) ([]byte, error) {
	if v.attachErr != nil {
		return nil, v.attachErr
	}
	data, ok := v.attachments[itemID+"/"+attachmentID]
	if !ok {
		return nil, errors.New("attachment not found")
	}
	return data, nil
}

// recordingStore wraps a real store and counts saves.
type recordingStore struct {
	*keepass.Store
	saves      int
	failGroups bool
}

func (s *recordingStore) AddGroup(parent keepass.GroupRef, name string) (keepass.GroupRef, error) {
	if s.failGroups {
		return nil, errors.New("disk full")
	}
	return s.Store.AddGroup(parent, name)
}

func (s *recordingStore) Save() error {
	s.saves++
	return s.Store.Save()
}

func newStore(t *testing.T) *recordingStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vault.kdbx")
	s, err := keepass.Open(path, keepass.Credentials{Password: "pw"})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return &recordingStore{Store: s}
}

func login(id, name, folderID, username string) model.Item {
	return model.Item{
		ID:       id,
		Name:     name,
		FolderID: folderID,
		Type:     model.ItemTypeLogin,
		Login:    &model.Login{Username: username, Password: "pw-" + id},
	}
}

func groupNames(t *testing.T, s *recordingStore, refs map[string]keepass.GroupRef) map[string]string {
	t.Helper()
	out := make(map[string]string, len(refs))
	for id, ref := range refs {
		name, err := s.GroupName(ref)
		require.NoError(t, err)
		out[id] = name
	}
	return out
}

func TestRun_FoldersAndItems(t *testing.T) {
	vault := &fakeVault{
		folders: []model.Folder{
			{ID: "", Name: "No Folder"},
			{ID: "f2", Name: "Work/Servers"},
			{ID: "f1", Name: "Work"},
			{ID: "f3", Name: "Personal"},
			{ID: "f4", Name: "Personal"},
		},
		items: []model.Item{
			login("i1", "db", "f2", "admin"),
			login("i2", "mail", "", "me"),
			{ID: "i3", Name: "Visa", Type: model.ItemTypeCard},
			{ID: "i4", Name: "Passport", Type: model.ItemTypeIdentity},
			{ID: "i5", Name: "wifi", Type: model.ItemTypeSecureNote, Notes: "key", FolderID: "f4"},
		},
	}
	store := newStore(t)

	var logs bytes.Buffer
	report, err := Run(context.Background(), vault, store, Options{Logger: logger.New(&logs, logger.LevelDebug)})
	require.NoError(t, err)

	assert.Equal(t, 4, report.Folders)
	assert.Equal(t, 3, report.Imported)
	assert.Equal(t, 2, report.Skipped)
	assert.Equal(t, 0, report.Failed)
	assert.Equal(t, 1, store.saves)

	assert.Contains(t, logs.String(), "Folders done (4).")
	assert.Contains(t, logs.String(), `Skipping credit card or identity item "Visa".`)
	assert.Contains(t, logs.String(), "Export completed.")

	// Sorted by name: Personal (f3), Personal (f4), Work, Work/Servers. The
	// two Personal folders are siblings and Servers nests under Work.
	for wantName, ref := range map[string]keepass.GroupRef{"Personal": {0}, "Work": {2}, "Servers": {2, 0}} {
		name, err := store.GroupName(ref)
		require.NoError(t, err)
		assert.Equal(t, wantName, name)
	}
	name, err := store.GroupName(keepass.GroupRef{1})
	require.NoError(t, err)
	assert.Equal(t, "Personal", name)

	assert.True(t, store.HasEntry(keepass.GroupRef{2, 0}, "db", "admin"))
	assert.True(t, store.HasEntry(store.Root(), "mail", "me"))
	assert.True(t, store.HasEntry(keepass.GroupRef{1}, "wifi", ""))
}

func TestRun_DuplicateTitle(t *testing.T) {
	vault := &fakeVault{items: []model.Item{
		login("i1", "github", "", "octo"),
		login("i2", "github", "", "octo"),
		login("i3", "github", "", "other"),
	}}
	store := newStore(t)

	report, err := Run(context.Background(), vault, store, Options{DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, 3, report.Imported)

	assert.True(t, store.HasEntry(store.Root(), "github", "octo"))
	assert.True(t, store.HasEntry(store.Root(), "github - (i2)", "octo"))
	assert.True(t, store.HasEntry(store.Root(), "github", "other"))
}

func TestRun_DryRunDoesNotSave(t *testing.T) {
	store := newStore(t)
	_, err := Run(context.Background(), &fakeVault{}, store, Options{DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, 0, store.saves)
}

func TestRun_UnknownFolderGoesToRoot(t *testing.T) {
	vault := &fakeVault{items: []model.Item{login("i1", "orphan", "gone", "u")}}
	store := newStore(t)

	var logs bytes.Buffer
	report, err := Run(context.Background(), vault, store, Options{DryRun: true, Logger: logger.New(&logs, logger.LevelInfo)})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Imported)
	assert.True(t, store.HasEntry(store.Root(), "orphan", "u"))
	assert.Contains(t, logs.String(), "unknown folder gone")
}

func TestRun_ItemFailureContinues(t *testing.T) {
	bad := login("i1", "broken", "", "u")
	bad.Fields = []model.Field{{Name: "Password", Value: "clash"}}
	vault := &fakeVault{items: []model.Item{bad, login("i2", "fine", "", "u")}}
	store := newStore(t)

	var logs bytes.Buffer
	report, err := Run(context.Background(), vault, store, Options{DryRun: true, Logger: logger.New(&logs, logger.LevelInfo)})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Imported)
	assert.Equal(t, 1, report.Failed)
	require.Len(t, report.Failures, 1)
	assert.Contains(t, report.Failures[0], "broken")
	assert.Contains(t, logs.String(), `Skipping item named "broken" because of this error:`)
	assert.False(t, store.HasEntry(store.Root(), "broken", "u"))
}

func TestRun_MissingItemID(t *testing.T) {
	vault := &fakeVault{items: []model.Item{login("", "anon", "", "u")}}
	report, err := Run(context.Background(), vault, newStore(t), Options{DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Failed)
}

func TestRun_MaterializeFailureAborts(t *testing.T) {
	vault := &fakeVault{folders: []model.Folder{{ID: "f1", Name: "Work"}}}
	store := newStore(t)
	store.failGroups = true

	_, err := Run(context.Background(), vault, store, Options{})
	require.Error(t, err)

	var merr *folders.MaterializeError
	require.ErrorAs(t, err, &merr)
	assert.Equal(t, "f1", merr.ID)
	assert.Equal(t, 0, store.saves)
}

func TestRun_FolderListingFails(t *testing.T) {
	vault := &fakeVault{foldersErr: &sources.ErrAuthenticationFailed{Source: "bw-cli", Reason: "vault is locked"}}
	_, err := Run(context.Background(), vault, newStore(t), Options{})
	assert.True(t, sources.IsAuthError(err))
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	vault := &fakeVault{items: []model.Item{login("i1", "a", "", "u")}}
	store := newStore(t)
	_, err := Run(ctx, vault, store, Options{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, store.saves)
}

func TestRun_CustomDelimiter(t *testing.T) {
	vault := &fakeVault{folders: []model.Folder{
		{ID: "a", Name: "Team"},
		{ID: "b", Name: "Team::Ops"},
	}}
	store := newStore(t)

	_, err := Run(context.Background(), vault, store, Options{Delimiter: "::", DryRun: true})
	require.NoError(t, err)

	name, err := store.GroupName(keepass.GroupRef{0, 0})
	require.NoError(t, err)
	assert.Equal(t, "Ops", name)
}

func TestMaterializedGroupNames(t *testing.T) {
	store := newStore(t)
	tree, err := folders.Build([]model.Folder{{ID: "x", Name: "A/B"}, {ID: "y", Name: "A"}}, "/")
	require.NoError(t, err)

	refs, err := folders.Materialize(tree, store.Root(), store.AddGroup)
	require.NoError(t, err)

	names := groupNames(t, store, refs)
	assert.Equal(t, map[string]string{"": keepass.DefaultRootName, "y": "A", "x": "B"}, names)
}
