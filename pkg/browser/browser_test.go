package browser

import (
	"context"
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nicprov/nacl-crypt-s3-browser/pkg/dto"
	"github.com/nicprov/nacl-crypt-s3-browser/pkg/s3svc"
	"github.com/nicprov/nacl-crypt-s3-browser/pkg/session"
)

var errBoom = errors.New("boom")

type fakeRemote struct {
	raw     s3svc.RawListing
	listErr error
	body    []byte
	getErr  error
	delErr  error
	deleted []string
	put     map[string][]byte
}

func (f *fakeRemote) ListBucket(context.Context) (s3svc.RawListing, error) {
	if f.listErr != nil {
		return s3svc.RawListing{}, f.listErr
	}
	return f.raw, nil
}

func (f *fakeRemote) GetObjectBytes(_ context.Context, _ string) ([]byte, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.body, nil
}

func (f *fakeRemote) DeleteObject(_ context.Context, encryptedKey string) (string, error) {
	if f.delErr != nil {
		return "", f.delErr
	}
	f.deleted = append(f.deleted, encryptedKey)

	// Mimic the bucket: the next listing no longer holds the object.
	var remaining []dto.RawObject
	for _, o := range f.raw.Objects {
		if o.EncryptedKey != encryptedKey {
			remaining = append(remaining, o)
		}
	}
	f.raw.Objects = remaining
	return "deleted " + encryptedKey, nil
}

func (f *fakeRemote) PutObject(_ context.Context, encryptedKey string, body []byte) error {
	if f.put == nil {
		f.put = make(map[string][]byte)
	}
	f.put[encryptedKey] = body
	return nil
}

// fakeCrypt decrypts names through a fixed encrypted-name -> path table.
type fakeCrypt struct {
	names      map[string]string
	namesErr   error
	text       string
	textErr    error
	encName    string
	encPayload string
}

func (f *fakeCrypt) DecryptNames(_ context.Context, raw []dto.RawObject, encryptionKey, salt string) (dto.Listing, error) {
	if f.namesErr != nil {
		return dto.Listing{}, f.namesErr
	}
	listing := dto.Listing{EncryptionKey: encryptionKey, Salt: salt}
	for _, o := range raw {
		listing.Objects = append(listing.Objects, dto.DecryptedObject{
			EncryptedKey: o.EncryptedKey,
			Path:         f.names[o.EncryptedKey],
			Size:         o.Size,
			LastModified: o.LastModified,
		})
	}
	return listing, nil
}

func (f *fakeCrypt) DecryptPayload(_ context.Context, _, _, _ string) (string, error) {
	if f.textErr != nil {
		return "", f.textErr
	}
	return f.text, nil
}

func (f *fakeCrypt) EncryptName(_ context.Context, path, _, _ string) (string, error) {
	return f.encName + path, nil
}

func (f *fakeCrypt) EncryptPayload(_ context.Context, _, _, _ string) (string, error) {
	return f.encPayload, nil
}

type export struct {
	name    string
	content string
	err     error
}

func testSession() dto.Session {
	return dto.Session{
		Account: &dto.Account{
			Provider:  "s3",
			AccessKey: "ak",
			SecretKey: "sk",
			Buckets:   []string{"vault"},
		},
		EncryptionKey: "key",
		Salt:          "salt",
	}
}

func encryptedListing() s3svc.RawListing {
	return s3svc.RawListing{Objects: []dto.RawObject{
		{EncryptedKey: "a%enc/b%enc", Size: 1},
		{EncryptedKey: "a%enc/c%enc", Size: 2},
		{EncryptedKey: "d%enc", Size: 3},
	}}
}

func decryptTable() map[string]string {
	return map[string]string{
		"a%enc/b%enc": "docs/report.txt",
		"a%enc/c%enc": "docs/notes.txt",
		"d%enc":       "readme.txt",
	}
}

func newTestModel(t *testing.T, remote Remote, crypt Crypt, exported *export) Model {
	t.Helper()
	store := session.NewStore(filepath.Join(t.TempDir(), "session.json"))
	deps := Deps{
		Store: store,
		Crypt: crypt,
		NewRemote: func(context.Context, dto.Account) (Remote, error) {
			return remote, nil
		},
		Export: func(name, content string) error {
			if exported != nil {
				exported.name = name
				exported.content = content
				return exported.err
			}
			return nil
		},
	}
	m := NewModel(context.Background(), deps, dto.Session{})
	m.session = testSession()
	m.remote = remote
	m.screen = screenBrowse
	m.gen = 1
	return m
}

// step applies one command's message to the model.
func step(t *testing.T, m Model, cmd tea.Cmd) (Model, tea.Cmd) {
	t.Helper()
	require.NotNil(t, cmd)
	next, nextCmd := m.Update(cmd())
	return next.(Model), nextCmd
}

// loadListing drives a full fetch-then-decrypt round-trip.
func loadListing(t *testing.T, m Model) Model {
	t.Helper()
	m, cmd := m.requestListing()
	m, cmd = step(t, m, cmd) // listFetchedMsg -> decrypt stage
	m, cmd = step(t, m, cmd) // listDecryptedMsg
	assert.Nil(t, cmd)
	return m
}

func entryNames(m Model) []string {
	var names []string
	for _, e := range m.visibleEntries() {
		name := e.name
		if e.isFolder {
			name += "/"
		}
		names = append(names, name)
	}
	return names
}

func TestEnterFolderThenBackReturnsToOrigin(t *testing.T) {
	m := newTestModel(t, &fakeRemote{}, &fakeCrypt{}, nil)

	m.currentDir = "a/"
	m = m.enterFolder("a/b/")
	assert.Equal(t, "a/b/", m.currentDir)
	m = m.navigateUp()
	assert.Equal(t, "a/", m.currentDir)

	// From the root, back is a no-op.
	m.currentDir = ""
	m = m.navigateUp()
	assert.Equal(t, "", m.currentDir)
}

func TestEnterFolderCollapsesDropdown(t *testing.T) {
	m := newTestModel(t, &fakeRemote{}, &fakeCrypt{}, nil)
	m.expanded = "docs/report.txt"
	m = m.enterFolder("docs/")
	assert.Equal(t, "", m.expanded)
}

func TestToggleSelectedTwiceRestoresSelection(t *testing.T) {
	m := newTestModel(t, &fakeRemote{}, &fakeCrypt{}, nil)
	other := dto.DecryptedObject{EncryptedKey: "x", Path: "x.txt"}
	obj := dto.DecryptedObject{EncryptedKey: "e", Path: "docs/report.txt", Size: 1}
	m.selection = []dto.DecryptedObject{other}

	m = m.toggleSelected(obj)
	assert.Equal(t, []dto.DecryptedObject{obj, other}, m.selection, "new keys are prepended")
	m = m.toggleSelected(obj)
	assert.Equal(t, []dto.DecryptedObject{other}, m.selection)
}

func TestToggleSelectedDistinguishesFullRecord(t *testing.T) {
	m := newTestModel(t, &fakeRemote{}, &fakeCrypt{}, nil)
	a := dto.DecryptedObject{EncryptedKey: "e", Path: "f.txt", Size: 1}
	b := a
	b.Size = 2 // same path, different record

	m = m.toggleSelected(a)
	m = m.toggleSelected(b)
	assert.Len(t, m.selection, 2, "membership is by value equality on the full record")
}

func TestToggleDropdownSingleOpen(t *testing.T) {
	m := newTestModel(t, &fakeRemote{}, &fakeCrypt{}, nil)

	m = m.toggleDropdown("one")
	assert.Equal(t, "one", m.expanded)
	m = m.toggleDropdown("two")
	assert.Equal(t, "two", m.expanded, "a single dropdown is open at a time")
	m = m.toggleDropdown("two")
	assert.Equal(t, "", m.expanded)
}

func TestListingFlow(t *testing.T) {
	remote := &fakeRemote{raw: encryptedListing()}
	crypt := &fakeCrypt{names: decryptTable()}
	m := newTestModel(t, remote, crypt, nil)

	m, cmd := m.requestListing()
	assert.True(t, m.loading)

	m, cmd = step(t, m, cmd)
	assert.Nil(t, m.listing, "the fetch itself must not update the visible listing")
	assert.True(t, m.loading)

	m, cmd = step(t, m, cmd)
	assert.Nil(t, cmd)
	assert.False(t, m.loading)
	assert.Equal(t, "received", m.status)
	require.NotNil(t, m.listing)

	assert.Equal(t, []string{"docs/", "readme.txt"}, entryNames(m))

	m = m.enterFolder("docs/")
	assert.ElementsMatch(t, []string{"report.txt", "notes.txt"}, entryNames(m))
}

func TestListingFetchErrorIsDisplayed(t *testing.T) {
	remote := &fakeRemote{listErr: errBoom}
	m := newTestModel(t, remote, &fakeCrypt{}, nil)

	m, cmd := m.requestListing()
	m, cmd = step(t, m, cmd)
	assert.Nil(t, cmd)
	assert.False(t, m.loading)
	assert.Contains(t, m.errMsg, "boom")
}

func TestListingDecryptErrorIsDisplayed(t *testing.T) {
	remote := &fakeRemote{raw: encryptedListing()}
	crypt := &fakeCrypt{namesErr: errBoom}
	m := newTestModel(t, remote, crypt, nil)

	m, cmd := m.requestListing()
	m, cmd = step(t, m, cmd)
	m, cmd = step(t, m, cmd)
	assert.Nil(t, cmd)
	assert.Contains(t, m.errMsg, "boom")
	assert.Nil(t, m.listing)
}

func TestStaleListingSequenceIsDropped(t *testing.T) {
	remote := &fakeRemote{raw: encryptedListing()}
	crypt := &fakeCrypt{names: decryptTable()}
	m := newTestModel(t, remote, crypt, nil)

	m, _ = m.requestListing()
	first := m.listSeq
	m, cmd := m.requestListing()

	// The first request's result arrives after the second was issued.
	stale, _ := m.Update(listFetchedMsg{seq: first, gen: m.gen, raw: encryptedListing().Objects})
	m = stale.(Model)
	assert.Nil(t, m.listing)
	assert.True(t, m.loading, "a stale result must not complete the outstanding request")

	m, cmd = step(t, m, cmd)
	m, _ = step(t, m, cmd)
	require.NotNil(t, m.listing)
}

func TestStaleGenerationIsDropped(t *testing.T) {
	remote := &fakeRemote{raw: encryptedListing()}
	crypt := &fakeCrypt{names: decryptTable()}
	m := newTestModel(t, remote, crypt, nil)

	m, _ = m.requestListing()
	seq := m.listSeq
	listing, err := crypt.DecryptNames(context.Background(), encryptedListing().Objects, "key", "salt")
	require.NoError(t, err)

	// Sign out before the decrypt result lands.
	next, _ := m.Update(signedOutMsg{})
	m = next.(Model)
	assert.Equal(t, screenSignIn, m.screen)

	next, _ = m.Update(listDecryptedMsg{seq: seq, gen: m.gen - 1, listing: listing})
	m = next.(Model)
	assert.Nil(t, m.listing, "decrypted data of a dead session must never be applied")
}

func TestDecryptResultForDifferentKeyMaterialIsDropped(t *testing.T) {
	remote := &fakeRemote{raw: encryptedListing()}
	crypt := &fakeCrypt{names: decryptTable()}
	m := newTestModel(t, remote, crypt, nil)

	m, _ = m.requestListing()
	listing, err := crypt.DecryptNames(context.Background(), encryptedListing().Objects, "other-key", "other-salt")
	require.NoError(t, err)

	next, _ := m.Update(listDecryptedMsg{seq: m.listSeq, gen: m.gen, listing: listing})
	m = next.(Model)
	assert.Nil(t, m.listing)
}

func TestRefreshIgnoredWhileListingInFlight(t *testing.T) {
	remote := &fakeRemote{raw: encryptedListing()}
	m := newTestModel(t, remote, &fakeCrypt{names: decryptTable()}, nil)

	m, _ = m.requestListing()
	seq := m.listSeq
	next, cmd := m.Update(RefreshMsg{})
	m = next.(Model)
	assert.Nil(t, cmd)
	assert.Equal(t, seq, m.listSeq)
}

func TestDownloadFlow(t *testing.T) {
	body := []byte("ciphertext-body")
	remote := &fakeRemote{raw: encryptedListing(), body: body}
	crypt := &fakeCrypt{names: decryptTable(), text: "decrypted content"}
	exported := &export{}
	m := newTestModel(t, remote, crypt, exported)
	m = loadListing(t, m)

	// Cursor on readme.txt (after the docs/ folder).
	m.cursor = 1
	m, cmd := m.startDownload()
	assert.True(t, m.downloading)
	assert.Equal(t, "readme.txt", m.pendingName)

	var next tea.Model
	msg := cmd().(objectFetchedMsg)
	assert.Equal(t, base64.StdEncoding.EncodeToString(body), msg.payload)
	next, cmd = m.Update(msg)
	m = next.(Model)

	m, cmd = step(t, m, cmd) // objectDecryptedMsg -> export
	m, cmd = step(t, m, cmd) // exportDoneMsg
	assert.Nil(t, cmd)

	assert.False(t, m.downloading)
	assert.Equal(t, "readme.txt", exported.name)
	assert.Equal(t, "decrypted content", exported.content)
	assert.Equal(t, "saved readme.txt", m.status)
}

func TestExportFromDeadSessionIsDropped(t *testing.T) {
	remote := &fakeRemote{raw: encryptedListing(), body: []byte("x")}
	m := newTestModel(t, remote, &fakeCrypt{names: decryptTable(), text: "t"}, nil)
	m = loadListing(t, m)

	m.cursor = 1
	m, _ = m.startDownload()
	gen := m.gen

	// Sign out, sign back in; the old save completes only now.
	next, _ := m.Update(signedOutMsg{})
	m = next.(Model)
	next, _ = m.Update(connectedMsg{session: testSession(), remote: remote})
	m = next.(Model)

	next, _ = m.Update(exportDoneMsg{gen: gen, name: "readme.txt"})
	m = next.(Model)
	assert.NotEqual(t, "saved readme.txt", m.status,
		"a save finished under an old session must not report into the new one")
}

func TestCopyFromDeadSessionIsDropped(t *testing.T) {
	remote := &fakeRemote{raw: encryptedListing()}
	m := newTestModel(t, remote, &fakeCrypt{names: decryptTable()}, nil)
	m = loadListing(t, m)
	gen := m.gen

	next, _ := m.Update(signedOutMsg{})
	m = next.(Model)

	next, _ = m.Update(copiedMsg{gen: gen})
	m = next.(Model)
	assert.Empty(t, m.status)
}

func TestDownloadTransportErrorIsDisplayed(t *testing.T) {
	remote := &fakeRemote{raw: encryptedListing(), getErr: errBoom}
	m := newTestModel(t, remote, &fakeCrypt{names: decryptTable()}, nil)
	m = loadListing(t, m)

	m.cursor = 1
	m, cmd := m.startDownload()
	m, cmd = step(t, m, cmd)
	assert.Nil(t, cmd)
	assert.False(t, m.downloading)
	assert.Contains(t, m.errMsg, "boom")
}

func TestDownloadDecryptErrorIsDisplayed(t *testing.T) {
	remote := &fakeRemote{raw: encryptedListing(), body: []byte("x")}
	crypt := &fakeCrypt{names: decryptTable(), textErr: errBoom}
	m := newTestModel(t, remote, crypt, nil)
	m = loadListing(t, m)

	m.cursor = 1
	m, cmd := m.startDownload()
	m, cmd = step(t, m, cmd)
	m, cmd = step(t, m, cmd)
	assert.Nil(t, cmd)
	assert.False(t, m.downloading)
	assert.Contains(t, m.errMsg, "boom")
}

func TestDownloadDisabledWhileInFlight(t *testing.T) {
	remote := &fakeRemote{raw: encryptedListing(), body: []byte("x")}
	m := newTestModel(t, remote, &fakeCrypt{names: decryptTable(), text: "t"}, nil)
	m = loadListing(t, m)

	m.cursor = 1
	m, _ = m.startDownload()
	seq := m.objSeq
	m, cmd := m.startDownload()
	assert.Nil(t, cmd)
	assert.Equal(t, seq, m.objSeq)
}

func TestDeleteRebuildsWholeTree(t *testing.T) {
	remote := &fakeRemote{raw: encryptedListing()}
	crypt := &fakeCrypt{names: decryptTable()}
	m := newTestModel(t, remote, crypt, nil)
	m = loadListing(t, m)

	// Delete readme.txt.
	m.cursor = 1
	m, cmd := m.startDelete()
	m, cmd = step(t, m, cmd) // deleteDoneMsg -> re-list
	assert.Equal(t, []string{"d%enc"}, remote.deleted)
	assert.True(t, m.loading, "a successful delete re-issues the full listing")

	m, cmd = step(t, m, cmd)
	m, _ = step(t, m, cmd)
	assert.Equal(t, []string{"docs/"}, entryNames(m))
}

func TestDeletingSoleMemberRemovesFolder(t *testing.T) {
	remote := &fakeRemote{raw: s3svc.RawListing{Objects: []dto.RawObject{
		{EncryptedKey: "a%enc/b%enc", Size: 1},
		{EncryptedKey: "d%enc", Size: 3},
	}}}
	crypt := &fakeCrypt{names: decryptTable()}
	m := newTestModel(t, remote, crypt, nil)
	m = loadListing(t, m)
	require.Equal(t, []string{"docs/", "readme.txt"}, entryNames(m))

	// docs/report.txt is the folder's sole member; cursor 0 is the folder,
	// so enter it and delete the file.
	m = m.enterFolder("docs/")
	m.cursor = 0
	m, cmd := m.startDelete()
	m, cmd = step(t, m, cmd)
	m, cmd = step(t, m, cmd)
	m, _ = step(t, m, cmd)

	m = m.navigateUp()
	assert.Equal(t, []string{"readme.txt"}, entryNames(m))
}

func TestUploadFlow(t *testing.T) {
	remote := &fakeRemote{raw: encryptedListing()}
	crypt := &fakeCrypt{
		names:      decryptTable(),
		encName:    "enc:",
		encPayload: base64.StdEncoding.EncodeToString([]byte("ciphered")),
	}
	m := newTestModel(t, remote, crypt, nil)
	m = loadListing(t, m)
	m.currentDir = "docs/"

	local := filepath.Join(t.TempDir(), "new.txt")
	require.NoError(t, os.WriteFile(local, []byte("hello"), 0o600))

	cmd := m.cmdUpload(m.gen, local, m.currentDir)
	msg := cmd().(uploadDoneMsg)
	require.NoError(t, msg.err)
	assert.Equal(t, []byte("ciphered"), remote.put["enc:docs/new.txt"])

	next, relist := m.Update(msg)
	m = next.(Model)
	assert.True(t, m.loading)
	assert.NotNil(t, relist)
}

func TestSignInValidationBlocksTransition(t *testing.T) {
	store := session.NewStore(filepath.Join(t.TempDir(), "session.json"))
	deps := Deps{
		Store: store,
		Crypt: &fakeCrypt{},
		NewRemote: func(context.Context, dto.Account) (Remote, error) {
			return &fakeRemote{}, nil
		},
		Export: func(string, string) error { return nil },
	}
	m := NewModel(context.Background(), deps, dto.Session{})
	require.Equal(t, screenSignIn, m.screen)

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)
	assert.Nil(t, cmd, "validation failure must not start any request")
	assert.Equal(t, screenSignIn, m.screen)
	assert.NotEmpty(t, m.signIn.errMsg)
	assert.False(t, store.Restore().SignedIn(), "the persisted session is untouched")
}

func TestSignOutResetsNavigationState(t *testing.T) {
	remote := &fakeRemote{raw: encryptedListing()}
	m := newTestModel(t, remote, &fakeCrypt{names: decryptTable()}, nil)
	m = loadListing(t, m)
	m = m.enterFolder("docs/")
	m.selection = []dto.DecryptedObject{{Path: "x"}}
	gen := m.gen

	next, _ := m.Update(signedOutMsg{})
	m = next.(Model)
	assert.Equal(t, screenSignIn, m.screen)
	assert.Equal(t, gen+1, m.gen)
	assert.Equal(t, "", m.currentDir)
	assert.Empty(t, m.selection)
	assert.Nil(t, m.listing)
	assert.False(t, m.session.SignedIn())
}

func TestConnectedStartsListing(t *testing.T) {
	remote := &fakeRemote{raw: encryptedListing()}
	m := newTestModel(t, remote, &fakeCrypt{names: decryptTable()}, nil)
	m.screen = screenSignIn
	gen := m.gen

	next, cmd := m.Update(connectedMsg{session: testSession(), remote: remote})
	m = next.(Model)
	assert.Equal(t, screenBrowse, m.screen)
	assert.Equal(t, gen+1, m.gen)
	assert.True(t, m.loading)
	assert.NotNil(t, cmd)
}

func TestTruncatedListingIsFlagged(t *testing.T) {
	raw := encryptedListing()
	raw.Truncated = true
	remote := &fakeRemote{raw: raw}
	m := newTestModel(t, remote, &fakeCrypt{names: decryptTable()}, nil)
	m = loadListing(t, m)
	assert.True(t, m.truncated)
}
