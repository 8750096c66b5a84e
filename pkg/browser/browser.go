// Package browser implements the interactive state machine over the
// encrypted bucket: navigation through the synthesized folder tree,
// selection, dropdown actions and the async orchestration of listing,
// decrypting, downloading, uploading and deleting objects.
//
// The model follows the Elm architecture: exactly one transition is applied
// at a time, user input and arrived async results are both messages, and
// every network or crypt round-trip runs as a command whose result comes
// back as its own message. Requests carry a sequence number and a session
// generation; results that do not match the latest outstanding request of
// their kind are dropped.
package browser

import (
	"context"
	"io"
	"log/slog"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nicprov/nacl-crypt-s3-browser/pkg/dto"
	"github.com/nicprov/nacl-crypt-s3-browser/pkg/s3svc"
	"github.com/nicprov/nacl-crypt-s3-browser/pkg/session"
	"github.com/nicprov/nacl-crypt-s3-browser/pkg/tree"
)

// Remote is the bucket operation surface the browser needs.
type Remote interface {
	ListBucket(ctx context.Context) (s3svc.RawListing, error)
	GetObjectBytes(ctx context.Context, encryptedKey string) ([]byte, error)
	DeleteObject(ctx context.Context, encryptedKey string) (string, error)
	PutObject(ctx context.Context, encryptedKey string, body []byte) error
}

// Crypt is the decrypt/encrypt pipeline surface the browser needs.
type Crypt interface {
	DecryptNames(ctx context.Context, raw []dto.RawObject, encryptionKey, salt string) (dto.Listing, error)
	DecryptPayload(ctx context.Context, payload, encryptionKey, salt string) (string, error)
	EncryptName(ctx context.Context, path, encryptionKey, salt string) (string, error)
	EncryptPayload(ctx context.Context, payload, encryptionKey, salt string) (string, error)
}

// RemoteFactory builds a Remote for a freshly signed-in account.
type RemoteFactory func(ctx context.Context, account dto.Account) (Remote, error)

// ExportFunc offers a decrypted payload to the user under its display name.
type ExportFunc func(name, content string) error

type screen int

const (
	screenSignIn screen = iota
	screenBrowse
)

// Deps carries the collaborators of the browser model.
type Deps struct {
	Store     *session.Store
	Crypt     Crypt
	NewRemote RemoteFactory
	Export    ExportFunc
	Log       *slog.Logger
}

// Model is the browser state machine.
type Model struct {
	ctx       context.Context
	store     *session.Store
	crypt     Crypt
	newRemote RemoteFactory
	export    ExportFunc
	log       *slog.Logger

	screen screen
	signIn signInModel
	upload uploadModel

	// session and remote are set together; remote is nil when signed out.
	session dto.Session
	remote  Remote

	currentDir string
	expanded   string
	selection  []dto.DecryptedObject
	listing    *dto.Listing
	folders    []dto.DecryptedObject
	truncated  bool

	status      string
	errMsg      string
	loading     bool
	downloading bool
	pendingName string

	cursor  int
	spinner spinner.Model
	width   int
	height  int

	// seq is the request counter; listSeq/objSeq are the latest outstanding
	// request of each kind; gen is bumped on every sign-in and sign-out.
	seq     uint64
	listSeq uint64
	objSeq  uint64
	gen     uint64
}

// NewModel builds the browser model. restored is the session recovered from
// the credential store at startup; when it is signed in, Init reconnects to
// the bucket without prompting.
func NewModel(ctx context.Context, deps Deps, restored dto.Session) Model {
	log := deps.Log
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		ctx:       ctx,
		store:     deps.Store,
		crypt:     deps.Crypt,
		newRemote: deps.NewRemote,
		export:    deps.Export,
		log:       log,
		screen:    screenSignIn,
		signIn:    newSignInModel(),
		upload:    newUploadModel(),
		session:   restored,
		spinner:   sp,
	}
	return m
}

// Init reconnects a restored session or starts on the sign-in screen.
func (m Model) Init() tea.Cmd {
	if m.session.SignedIn() {
		return tea.Batch(m.spinner.Tick, m.cmdConnect(m.session, false))
	}
	return tea.Batch(m.spinner.Tick, m.signIn.focusCmd())
}

// enterFolder makes dir the current directory and collapses any open
// dropdown. No network call: the tree is recomputed from the listing already
// decrypted.
func (m Model) enterFolder(dir string) Model {
	m.currentDir = dir
	m.expanded = ""
	m.cursor = 0
	return m
}

// navigateUp moves to the parent directory; at the root it is a no-op.
func (m Model) navigateUp() Model {
	m.currentDir = tree.ParentDir(m.currentDir)
	m.expanded = ""
	m.cursor = 0
	return m
}

// toggleSelected removes the key from the selection when present (by value
// equality on the full record), otherwise prepends it.
func (m Model) toggleSelected(obj dto.DecryptedObject) Model {
	for i, sel := range m.selection {
		if sel == obj {
			m.selection = append(m.selection[:i:i], m.selection[i+1:]...)
			return m
		}
	}
	m.selection = append([]dto.DecryptedObject{obj}, m.selection...)
	return m
}

// toggleDropdown expands the dropdown for id, or collapses it when it is
// already the expanded one. A single dropdown is open at a time.
func (m Model) toggleDropdown(id string) Model {
	if m.expanded == id {
		m.expanded = ""
	} else {
		m.expanded = id
	}
	return m
}

func (m Model) isSelected(obj dto.DecryptedObject) bool {
	for _, sel := range m.selection {
		if sel == obj {
			return true
		}
	}
	return false
}

// resetNavigation returns the navigation state to its defaults.
func (m Model) resetNavigation() Model {
	m.currentDir = ""
	m.expanded = ""
	m.selection = nil
	m.listing = nil
	m.folders = nil
	m.truncated = false
	m.cursor = 0
	m.status = ""
	m.errMsg = ""
	m.loading = false
	m.downloading = false
	m.pendingName = ""
	return m
}
