// Package session owns the persisted sign-in state: account credentials,
// derived encryption key and salt. There is a single global session; it is
// replaced wholesale on sign-in and sign-out.
package session

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/nicprov/nacl-crypt-s3-browser/pkg/dto"
)

const sessionFileMode = 0o600

// Store persists the session as a JSON file.
type Store struct {
	path string
	log  *slog.Logger
}

// NewStore creates a session store backed by the given file path.
// By default the logger is set to discard.
func NewStore(path string) *Store {
	return &Store{
		path: path,
		log:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// SetLogger sets the logger.
func (s *Store) SetLogger(log *slog.Logger) {
	s.log = log
}

// Restore reads the persisted session. A missing file, unreadable data or a
// structurally invalid payload all degrade to the empty (signed-out) session;
// Restore never surfaces a decode failure to the caller.
func (s *Store) Restore() dto.Session {
	var sess dto.Session

	data, err := os.ReadFile(s.path)
	if err != nil {
		s.log.Debug("Restore: no persisted session", slog.String("error", err.Error()))
		return dto.Session{}
	}
	if err := json.Unmarshal(data, &sess); err != nil {
		s.log.Warn("Restore: malformed session file, falling back to signed-out",
			slog.String("path", s.path))
		return dto.Session{}
	}
	if !sess.Valid() {
		s.log.Warn("Restore: inconsistent session file, falling back to signed-out",
			slog.String("path", s.path))
		return dto.Session{}
	}
	return sess
}

// SignIn validates the credentials and persists the signed-in session.
// A validation failure leaves the persisted session untouched.
func (s *Store) SignIn(account dto.Account, encryptionKey, salt string) (dto.Session, error) {
	if err := Validate(account, encryptionKey, salt); err != nil {
		return dto.Session{}, err
	}
	sess := dto.Session{
		Account:       &account,
		EncryptionKey: encryptionKey,
		Salt:          salt,
	}
	if err := s.persist(sess); err != nil {
		return dto.Session{}, err
	}
	s.log.Info("SignIn: session persisted", slog.String("provider", account.Provider))
	return sess, nil
}

// SignOut persists the empty session.
func (s *Store) SignOut() error {
	if err := s.persist(dto.Session{}); err != nil {
		return err
	}
	s.log.Info("SignOut: session cleared")
	return nil
}

// Validate checks the sign-in fields without touching storage.
func Validate(account dto.Account, encryptionKey, salt string) error {
	if err := account.Validate(); err != nil {
		return err
	}
	if encryptionKey == "" {
		return dto.ErrMissingEncryptionKey
	}
	if salt == "" {
		return dto.ErrMissingSalt
	}
	return nil
}

// persist writes the session file. The signed-out session serializes to "{}".
func (s *Store) persist(sess dto.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("persist: error encoding session: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("persist: error creating %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(s.path, data, sessionFileMode); err != nil {
		return fmt.Errorf("persist: error writing %s: %w", s.path, err)
	}
	return nil
}
