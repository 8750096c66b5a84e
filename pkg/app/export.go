package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/nicprov/nacl-crypt-s3-browser/pkg/browser"
)

// exportTo saves decrypted downloads into dir under their display name.
// Only the base name is kept so a decrypted path can never escape dir.
func exportTo(dir string) browser.ExportFunc {
	return func(name, content string) error {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("export: error creating %s: %w", dir, err)
		}
		target := filepath.Join(dir, filepath.Base(name))
		if err := os.WriteFile(target, []byte(content), 0o600); err != nil {
			return fmt.Errorf("export: error writing %s: %w", target, err)
		}
		return nil
	}
}
