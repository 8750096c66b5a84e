package browser

import (
	"encoding/base64"
	"os"
	"path/filepath"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nicprov/nacl-crypt-s3-browser/pkg/dto"
)

// cmdConnect persists the sign-in (unless the session was restored from
// disk) and builds the remote client. The session value is snapshotted here;
// a later sign-out cannot race with it.
func (m Model) cmdConnect(sess dto.Session, persist bool) tea.Cmd {
	return func() tea.Msg {
		if persist {
			persisted, err := m.store.SignIn(*sess.Account, sess.EncryptionKey, sess.Salt)
			if err != nil {
				return connectedMsg{err: err}
			}
			sess = persisted
		}
		remote, err := m.newRemote(m.ctx, *sess.Account)
		if err != nil {
			return connectedMsg{err: err}
		}
		return connectedMsg{session: sess, remote: remote}
	}
}

// cmdFetchListing runs the listing round-trip. The decrypt stage is issued
// by the update loop once the fetch result is accepted.
func (m Model) cmdFetchListing(seq, gen uint64) tea.Cmd {
	remote := m.remote
	return func() tea.Msg {
		raw, err := remote.ListBucket(m.ctx)
		if err != nil {
			return listFetchedMsg{seq: seq, gen: gen, err: err}
		}
		return listFetchedMsg{seq: seq, gen: gen, raw: raw.Objects, truncated: raw.Truncated}
	}
}

// cmdDecryptListing runs the name-decrypt stage of a fetched listing.
func (m Model) cmdDecryptListing(seq, gen uint64, raw []dto.RawObject, truncated bool) tea.Cmd {
	crypt := m.crypt
	sess := m.session
	return func() tea.Msg {
		listing, err := crypt.DecryptNames(m.ctx, raw, sess.EncryptionKey, sess.Salt)
		if err != nil {
			return listDecryptedMsg{seq: seq, gen: gen, err: err}
		}
		return listDecryptedMsg{seq: seq, gen: gen, listing: listing, truncated: truncated}
	}
}

// cmdFetchObject downloads one object body and encodes it for the crypt
// service.
func (m Model) cmdFetchObject(seq, gen uint64, name, encryptedKey string) tea.Cmd {
	remote := m.remote
	return func() tea.Msg {
		body, err := remote.GetObjectBytes(m.ctx, encryptedKey)
		if err != nil {
			return objectFetchedMsg{seq: seq, gen: gen, name: name, err: err}
		}
		payload := base64.StdEncoding.EncodeToString(body)
		return objectFetchedMsg{seq: seq, gen: gen, name: name, payload: payload}
	}
}

// cmdDecryptObject runs the payload-decrypt stage of a download.
func (m Model) cmdDecryptObject(seq, gen uint64, name, payload string) tea.Cmd {
	crypt := m.crypt
	sess := m.session
	return func() tea.Msg {
		text, err := crypt.DecryptPayload(m.ctx, payload, sess.EncryptionKey, sess.Salt)
		if err != nil {
			return objectDecryptedMsg{seq: seq, gen: gen, name: name, err: err}
		}
		return objectDecryptedMsg{seq: seq, gen: gen, name: name, text: text}
	}
}

// cmdExport saves a decrypted payload under its display name.
func (m Model) cmdExport(gen uint64, name, text string) tea.Cmd {
	export := m.export
	return func() tea.Msg {
		return exportDoneMsg{gen: gen, name: name, err: export(name, text)}
	}
}

// cmdDelete deletes one object by its encrypted name.
func (m Model) cmdDelete(gen uint64, encryptedKey string) tea.Cmd {
	remote := m.remote
	return func() tea.Msg {
		info, err := remote.DeleteObject(m.ctx, encryptedKey)
		return deleteDoneMsg{gen: gen, info: info, err: err}
	}
}

// cmdUpload reads a local file, encrypts its content and its target path
// through the crypt service and stores the result under the encrypted name.
func (m Model) cmdUpload(gen uint64, localPath, dir string) tea.Cmd {
	remote := m.remote
	crypt := m.crypt
	sess := m.session
	return func() tea.Msg {
		name := filepath.Base(localPath)
		body, err := os.ReadFile(localPath)
		if err != nil {
			return uploadDoneMsg{gen: gen, name: name, err: err}
		}
		encryptedKey, err := crypt.EncryptName(m.ctx, dir+name, sess.EncryptionKey, sess.Salt)
		if err != nil {
			return uploadDoneMsg{gen: gen, name: name, err: err}
		}
		payload, err := crypt.EncryptPayload(m.ctx, string(body), sess.EncryptionKey, sess.Salt)
		if err != nil {
			return uploadDoneMsg{gen: gen, name: name, err: err}
		}
		ciphertext, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return uploadDoneMsg{gen: gen, name: name, err: err}
		}
		if err := remote.PutObject(m.ctx, encryptedKey, ciphertext); err != nil {
			return uploadDoneMsg{gen: gen, name: name, err: err}
		}
		return uploadDoneMsg{gen: gen, name: name}
	}
}

// cmdCopyLink puts the decrypted path on the clipboard. No state or network
// effect.
func (m Model) cmdCopyLink(gen uint64, path string) tea.Cmd {
	return func() tea.Msg {
		return copiedMsg{gen: gen, err: clipboard.WriteAll(path)}
	}
}

// cmdSignOut clears the persisted session.
func (m Model) cmdSignOut() tea.Cmd {
	store := m.store
	return func() tea.Msg {
		return signedOutMsg{err: store.SignOut()}
	}
}
