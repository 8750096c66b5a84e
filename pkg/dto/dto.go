// Package dto provides data transfer objects shared by the browser core.
package dto

import "errors"

// Validation errors returned by Account.Validate and the sign-in checks.
var (
	ErrMissingAccessKey     = errors.New("access key is required")
	ErrMissingSecretKey     = errors.New("secret key is required")
	ErrMissingBucket        = errors.New("at least one bucket is required")
	ErrMissingEncryptionKey = errors.New("encryption key is required")
	ErrMissingSalt          = errors.New("salt is required")
)

// Account identifies one S3-compatible account.
// Only the first configured bucket is used operationally. Endpoint is empty
// for AWS itself; an alternate provider (MinIO, R2, ...) carries its base URL
// there and is addressed through it instead of the regional AWS endpoint.
type Account struct {
	Provider  string   `json:"provider"`
	Region    string   `json:"region,omitempty"`
	Endpoint  string   `json:"endpoint,omitempty"`
	PathStyle bool     `json:"pathStyle"`
	AccessKey string   `json:"accessKey"`
	SecretKey string   `json:"secretKey"`
	Buckets   []string `json:"buckets"`
}

// Bucket returns the operational bucket (the first configured one).
func (a Account) Bucket() (string, error) {
	if len(a.Buckets) == 0 || a.Buckets[0] == "" {
		return "", ErrMissingBucket
	}
	return a.Buckets[0], nil
}

// Validate checks the required account fields.
func (a Account) Validate() error {
	if a.AccessKey == "" {
		return ErrMissingAccessKey
	}
	if a.SecretKey == "" {
		return ErrMissingSecretKey
	}
	if _, err := a.Bucket(); err != nil {
		return err
	}
	return nil
}

// Session is the signed-in state of the application.
// Account is present if and only if the user is signed in; EncryptionKey and
// Salt are non-empty exactly when Account is present.
type Session struct {
	Account       *Account `json:"account,omitempty"`
	EncryptionKey string   `json:"encryptionKey,omitempty"`
	Salt          string   `json:"salt,omitempty"`
}

// SignedIn reports whether the session holds an account.
func (s Session) SignedIn() bool {
	return s.Account != nil
}

// Valid reports whether the session satisfies its invariant.
func (s Session) Valid() bool {
	if s.Account == nil {
		return s.EncryptionKey == "" && s.Salt == ""
	}
	return s.EncryptionKey != "" && s.Salt != ""
}

// RawObject is one entry of the remote listing before name decryption.
type RawObject struct {
	EncryptedKey string `json:"encryptedKey"`
	Size         int64  `json:"size"`
	LastModified string `json:"lastModified"`
}

// DecryptedObject is one entry of the listing after name decryption.
// EncryptedKey is kept so remote operations can still address the object.
// Path is forward-slash separated; a trailing slash marks a synthesized
// folder entry, never present on the raw encrypted name.
type DecryptedObject struct {
	EncryptedKey string `json:"encryptedKey"`
	Path         string `json:"path"`
	Size         int64  `json:"size"`
	LastModified string `json:"lastModified"`
}

// IsFolder reports whether the entry is a folder marker.
func (o DecryptedObject) IsFolder() bool {
	return len(o.Path) > 0 && o.Path[len(o.Path)-1] == '/'
}

// Listing is a decrypted bucket listing together with the key material that
// produced it, so late async results can be matched against the session that
// requested them.
type Listing struct {
	Objects       []DecryptedObject `json:"objects"`
	EncryptionKey string            `json:"encryptionKey"`
	Salt          string            `json:"salt"`
	Truncated     bool              `json:"truncated"`
}
