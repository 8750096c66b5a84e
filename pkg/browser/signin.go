package browser

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nicprov/nacl-crypt-s3-browser/pkg/dto"
)

// Endpoint kinds of an account: AWS itself, or an S3-compatible provider
// reached through its own endpoint URL.
const (
	providerDefault    = "s3"
	providerCompatible = "s3-compatible"
)

const (
	fieldAccessKey = iota
	fieldSecretKey
	fieldBucket
	fieldRegion
	fieldEndpoint
	fieldEncryptionKey
	fieldSalt
	fieldCount
)

// signInModel is the unauthenticated screen: credential and key material
// inputs plus the alternate-addressing toggle.
type signInModel struct {
	inputs     []textinput.Model
	focus      int
	pathStyle  bool
	errMsg     string
	submitting bool
}

func newSignInModel() signInModel {
	labels := []struct {
		placeholder string
		secret      bool
	}{
		{"access key", false},
		{"secret key", true},
		{"bucket", false},
		{"region (optional)", false},
		{"endpoint URL (empty for AWS)", false},
		{"encryption key", true},
		{"salt", true},
	}

	inputs := make([]textinput.Model, fieldCount)
	for i, l := range labels {
		in := textinput.New()
		in.Placeholder = l.placeholder
		in.CharLimit = 256
		if l.secret {
			in.EchoMode = textinput.EchoPassword
			in.EchoCharacter = '•'
		}
		inputs[i] = in
	}
	inputs[fieldAccessKey].Focus()

	return signInModel{inputs: inputs}
}

func (s signInModel) focusCmd() tea.Cmd {
	return textinput.Blink
}

// values assembles the account and key material from the form. A non-empty
// endpoint makes the account an alternate-provider one.
func (s signInModel) values() (dto.Account, string, string) {
	account := dto.Account{
		Provider:  providerDefault,
		Region:    strings.TrimSpace(s.inputs[fieldRegion].Value()),
		Endpoint:  strings.TrimSpace(s.inputs[fieldEndpoint].Value()),
		PathStyle: s.pathStyle,
		AccessKey: strings.TrimSpace(s.inputs[fieldAccessKey].Value()),
		SecretKey: strings.TrimSpace(s.inputs[fieldSecretKey].Value()),
	}
	if account.Endpoint != "" {
		account.Provider = providerCompatible
	}
	if bucket := strings.TrimSpace(s.inputs[fieldBucket].Value()); bucket != "" {
		account.Buckets = []string{bucket}
	}
	return account, s.inputs[fieldEncryptionKey].Value(), s.inputs[fieldSalt].Value()
}

func (s signInModel) update(msg tea.KeyMsg) (signInModel, tea.Cmd) {
	switch msg.String() {
	case "tab", "down":
		return s.moveFocus(1), nil
	case "shift+tab", "up":
		return s.moveFocus(-1), nil
	case "ctrl+p":
		s.pathStyle = !s.pathStyle
		return s, nil
	}

	var cmd tea.Cmd
	s.inputs[s.focus], cmd = s.inputs[s.focus].Update(msg)
	return s, cmd
}

func (s signInModel) moveFocus(delta int) signInModel {
	s.inputs[s.focus].Blur()
	s.focus = (s.focus + delta + fieldCount) % fieldCount
	s.inputs[s.focus].Focus()
	return s
}
