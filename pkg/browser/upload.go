package browser

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// uploadModel is the prompt asking for the local file to upload into the
// current directory.
type uploadModel struct {
	input  textinput.Model
	active bool
}

func newUploadModel() uploadModel {
	in := textinput.New()
	in.Placeholder = "local file path"
	in.CharLimit = 512
	return uploadModel{input: in}
}

func (u uploadModel) activate() uploadModel {
	u.active = true
	u.input.SetValue("")
	u.input.Focus()
	return u
}

func (u uploadModel) deactivate() uploadModel {
	u.active = false
	u.input.Blur()
	return u
}

func (u uploadModel) focusCmd() tea.Cmd {
	return textinput.Blink
}

func (u uploadModel) value() string {
	return strings.TrimSpace(u.input.Value())
}

func (u uploadModel) update(msg tea.KeyMsg) (uploadModel, tea.Cmd) {
	var cmd tea.Cmd
	u.input, cmd = u.input.Update(msg)
	return u, cmd
}
