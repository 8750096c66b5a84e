package browser

import (
	"log/slog"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nicprov/nacl-crypt-s3-browser/pkg/dto"
	"github.com/nicprov/nacl-crypt-s3-browser/pkg/session"
	"github.com/nicprov/nacl-crypt-s3-browser/pkg/tree"
)

// entry is one row of the current directory view.
type entry struct {
	obj      dto.DecryptedObject
	isFolder bool
	name     string
}

// visibleEntries lists the direct children of the current directory, folders
// first.
func (m Model) visibleEntries() []entry {
	if m.listing == nil {
		return nil
	}
	var entries []entry
	for _, folder := range tree.FoldersIn(m.currentDir, m.folders) {
		entries = append(entries, entry{
			obj:      folder,
			isFolder: true,
			name:     tree.FolderDisplayName(m.currentDir, folder),
		})
	}
	for _, file := range tree.FilesIn(m.currentDir, m.listing.Objects) {
		entries = append(entries, entry{
			obj:  file,
			name: tree.FileDisplayName(m.currentDir, file),
		})
	}
	return entries
}

func (m Model) currentEntry() (entry, bool) {
	entries := m.visibleEntries()
	if m.cursor < 0 || m.cursor >= len(entries) {
		return entry{}, false
	}
	return entries[m.cursor], true
}

func (m Model) clampCursor() Model {
	if n := len(m.visibleEntries()); m.cursor >= n {
		m.cursor = 0
	}
	return m
}

// requestListing issues a fresh listing round-trip, superseding any
// outstanding one.
func (m Model) requestListing() (Model, tea.Cmd) {
	m.seq++
	m.listSeq = m.seq
	m.loading = true
	m.errMsg = ""
	return m, m.cmdFetchListing(m.listSeq, m.gen)
}

// Update applies exactly one state transition per message.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.screen == screenSignIn {
			return m.updateSignIn(msg)
		}
		return m.updateBrowse(msg)

	case connectedMsg:
		return m.onConnected(msg)

	case signedOutMsg:
		// The in-memory session is cleared even when the persist failed;
		// the failure is only reported.
		m.gen++
		m.session = dto.Session{}
		m.remote = nil
		m = m.resetNavigation()
		m.screen = screenSignIn
		m.signIn = newSignInModel()
		if msg.err != nil {
			m.signIn.errMsg = msg.err.Error()
		}
		return m, m.signIn.focusCmd()

	case listFetchedMsg:
		return m.onListFetched(msg)

	case listDecryptedMsg:
		return m.onListDecrypted(msg)

	case objectFetchedMsg:
		return m.onObjectFetched(msg)

	case objectDecryptedMsg:
		return m.onObjectDecrypted(msg)

	case exportDoneMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		m.downloading = false
		m.pendingName = ""
		if msg.err != nil {
			m.errMsg = msg.err.Error()
		} else {
			m.status = "saved " + msg.name
		}
		return m, nil

	case deleteDoneMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		if msg.err != nil {
			m.errMsg = msg.err.Error()
			return m, nil
		}
		m.status = msg.info
		// No targeted removal: the whole tree is rebuilt from a fresh
		// listing.
		return m.requestListing()

	case uploadDoneMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		if msg.err != nil {
			m.errMsg = msg.err.Error()
			return m, nil
		}
		m.status = "uploaded " + msg.name
		return m.requestListing()

	case copiedMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		if msg.err != nil {
			m.errMsg = msg.err.Error()
		} else {
			m.status = "link copied"
		}
		return m, nil

	case RefreshMsg:
		if m.screen == screenBrowse && m.remote != nil && !m.loading {
			return m.requestListing()
		}
		return m, nil
	}

	return m, nil
}

// updateSignIn handles input on the sign-in screen.
func (m Model) updateSignIn(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit) && msg.String() == "ctrl+c":
		return m, tea.Quit

	case msg.Type == tea.KeyEnter:
		account, encryptionKey, salt := m.signIn.values()
		if err := session.Validate(account, encryptionKey, salt); err != nil {
			// Inline validation: the transition is blocked, nothing is sent
			// to storage.
			m.signIn.errMsg = err.Error()
			return m, nil
		}
		m.signIn.errMsg = ""
		m.signIn.submitting = true
		sess := dto.Session{Account: &account, EncryptionKey: encryptionKey, Salt: salt}
		return m, m.cmdConnect(sess, true)
	}

	var cmd tea.Cmd
	m.signIn, cmd = m.signIn.update(msg)
	return m, cmd
}

// updateBrowse handles input on the browse screen.
func (m Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.upload.active {
		return m.updateUpload(msg)
	}

	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, keys.SignOut):
		return m, m.cmdSignOut()

	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case key.Matches(msg, keys.Down):
		if m.cursor < len(m.visibleEntries())-1 {
			m.cursor++
		}
		return m, nil

	case key.Matches(msg, keys.Enter):
		e, ok := m.currentEntry()
		if !ok {
			return m, nil
		}
		if e.isFolder {
			return m.enterFolder(e.obj.Path), nil
		}
		return m.toggleDropdown(e.obj.Path), nil

	case key.Matches(msg, keys.Back):
		return m.navigateUp(), nil

	case key.Matches(msg, keys.Select):
		if e, ok := m.currentEntry(); ok {
			return m.toggleSelected(e.obj), nil
		}
		return m, nil

	case key.Matches(msg, keys.Dropdown):
		if e, ok := m.currentEntry(); ok {
			return m.toggleDropdown(e.obj.Path), nil
		}
		return m, nil

	case key.Matches(msg, keys.Download):
		return m.startDownload()

	case key.Matches(msg, keys.Delete):
		return m.startDelete()

	case key.Matches(msg, keys.Upload):
		if m.remote == nil {
			return m, nil
		}
		m.upload = m.upload.activate()
		return m, m.upload.focusCmd()

	case key.Matches(msg, keys.CopyLink):
		// Copy-link leaves the browser state untouched.
		if e, ok := m.currentEntry(); ok {
			return m, m.cmdCopyLink(m.gen, e.obj.Path)
		}
		return m, nil

	case key.Matches(msg, keys.Refresh):
		if m.remote != nil && !m.loading {
			return m.requestListing()
		}
		return m, nil
	}

	// Rename is accepted but remains a stub.
	return m, nil
}

// updateUpload handles input while the upload prompt is open.
func (m Model) updateUpload(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.upload = m.upload.deactivate()
		return m, nil
	case tea.KeyEnter:
		localPath := m.upload.value()
		m.upload = m.upload.deactivate()
		if localPath == "" {
			return m, nil
		}
		m.status = "uploading " + localPath
		return m, m.cmdUpload(m.gen, localPath, m.currentDir)
	}
	var cmd tea.Cmd
	m.upload, cmd = m.upload.update(msg)
	return m, cmd
}

// startDownload begins the two-stage download of the file under the cursor.
// A download in flight disables the action.
func (m Model) startDownload() (Model, tea.Cmd) {
	if m.downloading {
		return m, nil
	}
	e, ok := m.currentEntry()
	if !ok || e.isFolder {
		return m, nil
	}
	m.expanded = ""
	m.seq++
	m.objSeq = m.seq
	m.downloading = true
	m.pendingName = e.name
	m.errMsg = ""
	m.status = "downloading " + e.name
	return m, m.cmdFetchObject(m.objSeq, m.gen, e.name, e.obj.EncryptedKey)
}

// startDelete deletes the file under the cursor by its encrypted name.
func (m Model) startDelete() (Model, tea.Cmd) {
	e, ok := m.currentEntry()
	if !ok || e.isFolder {
		return m, nil
	}
	m.expanded = ""
	m.errMsg = ""
	m.status = "deleting " + e.name
	return m, m.cmdDelete(m.gen, e.obj.EncryptedKey)
}

// onConnected finishes a sign-in or session restore.
func (m Model) onConnected(msg connectedMsg) (tea.Model, tea.Cmd) {
	m.signIn.submitting = false
	if msg.err != nil {
		if m.screen == screenSignIn {
			m.signIn.errMsg = msg.err.Error()
		} else {
			m.errMsg = msg.err.Error()
		}
		return m, nil
	}
	m.gen++
	m.session = msg.session
	m.remote = msg.remote
	m.screen = screenBrowse
	m = m.resetNavigation()
	return m.requestListing()
}

// onListFetched forwards an accepted raw listing to the decrypt stage. The
// visible listing stays untouched until the decrypt result arrives.
func (m Model) onListFetched(msg listFetchedMsg) (tea.Model, tea.Cmd) {
	if msg.gen != m.gen || msg.seq != m.listSeq {
		m.log.Debug("dropping stale listing result",
			slog.Uint64("seq", msg.seq), slog.Uint64("want", m.listSeq))
		return m, nil
	}
	if msg.err != nil {
		m.loading = false
		m.errMsg = msg.err.Error()
		return m, nil
	}
	return m, m.cmdDecryptListing(msg.seq, msg.gen, msg.raw, msg.truncated)
}

// onListDecrypted installs the decrypted listing and recomputes the folder
// set.
func (m Model) onListDecrypted(msg listDecryptedMsg) (tea.Model, tea.Cmd) {
	if msg.gen != m.gen || msg.seq != m.listSeq {
		m.log.Debug("dropping stale decrypt result",
			slog.Uint64("seq", msg.seq), slog.Uint64("want", m.listSeq))
		return m, nil
	}
	m.loading = false
	if msg.err != nil {
		m.errMsg = msg.err.Error()
		return m, nil
	}
	if msg.listing.EncryptionKey != m.session.EncryptionKey || msg.listing.Salt != m.session.Salt {
		// Key material moved under the request; never apply the result.
		m.log.Warn("dropping decrypt result for stale key material")
		return m, nil
	}
	listing := msg.listing
	m.listing = &listing
	m.folders = tree.FolderSet(listing.Objects)
	m.truncated = msg.truncated
	m.status = "received"
	return m.clampCursor(), nil
}

func (m Model) onObjectFetched(msg objectFetchedMsg) (tea.Model, tea.Cmd) {
	if msg.gen != m.gen || msg.seq != m.objSeq {
		return m, nil
	}
	if msg.err != nil {
		m.downloading = false
		m.pendingName = ""
		m.errMsg = msg.err.Error()
		return m, nil
	}
	return m, m.cmdDecryptObject(msg.seq, msg.gen, msg.name, msg.payload)
}

func (m Model) onObjectDecrypted(msg objectDecryptedMsg) (tea.Model, tea.Cmd) {
	if msg.gen != m.gen || msg.seq != m.objSeq {
		return m, nil
	}
	if msg.err != nil {
		m.downloading = false
		m.pendingName = ""
		m.errMsg = msg.err.Error()
		return m, nil
	}
	return m, m.cmdExport(msg.gen, msg.name, msg.text)
}
