package browser

import "github.com/nicprov/nacl-crypt-s3-browser/pkg/dto"

// RefreshMsg asks for a full re-listing. It is exported so the scheduler can
// send it into the running program.
type RefreshMsg struct{}

// connectedMsg is the outcome of building (or rebuilding) the remote client
// after sign-in or session restore.
type connectedMsg struct {
	session dto.Session
	remote  Remote
	err     error
}

// listFetchedMsg is the outcome of one listing round-trip. The visible
// listing is not touched by it; it only feeds the decrypt stage.
type listFetchedMsg struct {
	seq       uint64
	gen       uint64
	raw       []dto.RawObject
	truncated bool
	err       error
}

// listDecryptedMsg delivers the decrypted listing of a prior fetch.
type listDecryptedMsg struct {
	seq       uint64
	gen       uint64
	listing   dto.Listing
	truncated bool
	err       error
}

// objectFetchedMsg delivers one object's body, base64-encoded for the crypt
// service.
type objectFetchedMsg struct {
	seq     uint64
	gen     uint64
	name    string
	payload string
	err     error
}

// objectDecryptedMsg delivers the decrypted text of a downloaded object.
type objectDecryptedMsg struct {
	seq  uint64
	gen  uint64
	name string
	text string
	err  error
}

// exportDoneMsg reports the local save of a decrypted download.
type exportDoneMsg struct {
	gen  uint64
	name string
	err  error
}

// deleteDoneMsg reports a remote delete.
type deleteDoneMsg struct {
	gen  uint64
	info string
	err  error
}

// uploadDoneMsg reports an encrypt-and-put round-trip.
type uploadDoneMsg struct {
	gen  uint64
	name string
	err  error
}

// copiedMsg reports the copy-link clipboard write.
type copiedMsg struct {
	gen uint64
	err error
}

// signedOutMsg reports that the credential store cleared the session.
type signedOutMsg struct {
	err error
}
