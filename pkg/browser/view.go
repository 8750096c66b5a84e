package browser

import (
	"fmt"
	"strings"

	"github.com/nicprov/nacl-crypt-s3-browser/pkg/s3svc"
)

// View renders the current screen. Rendering is deliberately thin: all
// behavior lives in Update and the transition helpers.
func (m Model) View() string {
	if m.screen == screenSignIn {
		return m.viewSignIn()
	}
	return m.viewBrowse()
}

func (m Model) viewSignIn() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("nacl-crypt-s3-browser · sign in"))
	b.WriteString("\n\n")

	labels := []string{"Access key", "Secret key", "Bucket", "Region", "Endpoint", "Encryption key", "Salt"}
	for i, in := range m.signIn.inputs {
		b.WriteString(fmt.Sprintf("  %-15s %s\n", labels[i], in.View()))
	}
	addressing := "default"
	if m.signIn.pathStyle {
		addressing = "path-style"
	}
	b.WriteString(fmt.Sprintf("  %-15s %s\n", "Addressing", addressing))

	if m.signIn.submitting {
		b.WriteString("\n  " + m.spinner.View() + " signing in...\n")
	}
	if m.signIn.errMsg != "" {
		b.WriteString("\n  " + errorStyle.Render(m.signIn.errMsg) + "\n")
	}
	b.WriteString("\n" + helpStyle.Render("  tab: next field • ctrl+p: toggle addressing • enter: sign in • ctrl+c: quit"))
	return b.String()
}

func (m Model) viewBrowse() string {
	var b strings.Builder

	location := "/"
	if m.currentDir != "" {
		location = "/" + m.currentDir
	}
	bucket := ""
	if m.session.Account != nil {
		bucket, _ = m.session.Account.Bucket()
	}
	b.WriteString(titleStyle.Render(bucket + " " + location))
	b.WriteString("\n\n")

	if m.loading {
		b.WriteString("  " + m.spinner.View() + " loading listing...\n")
	}

	entries := m.visibleEntries()
	if !m.loading && len(entries) == 0 {
		b.WriteString(statusStyle.Render("  (empty)") + "\n")
	}
	for i, e := range entries {
		cursor := "  "
		if i == m.cursor {
			cursor = cursorStyle.Render("> ")
		}
		mark := " "
		if m.isSelected(e.obj) {
			mark = selectedStyle.Render("✓")
		}
		name := e.name
		if e.isFolder {
			name = folderStyle.Render(name + "/")
		} else {
			name = fileStyle.Render(name)
		}
		line := fmt.Sprintf("%s%s %s", cursor, mark, name)
		if !e.isFolder {
			line += statusStyle.Render(fmt.Sprintf("  %d B  %s", e.obj.Size, e.obj.LastModified))
		}
		b.WriteString(line + "\n")
		if m.expanded == e.obj.Path {
			b.WriteString(dropdownStyle.Render("d: download • x: delete • c: copy link") + "\n")
		}
	}

	if m.upload.active {
		b.WriteString("\n  upload to " + location + ": " + m.upload.input.View() + "\n")
	}

	b.WriteString("\n")
	if m.truncated {
		b.WriteString(warnStyle.Render(fmt.Sprintf("  listing truncated at %d keys", s3svc.MaxListKeys)) + "\n")
	}
	if m.downloading && m.pendingName != "" {
		b.WriteString("  " + m.spinner.View() + " downloading " + m.pendingName + "\n")
	}
	if m.errMsg != "" {
		b.WriteString(errorStyle.Render("  "+m.errMsg) + "\n")
	} else if m.status != "" {
		b.WriteString(statusStyle.Render("  "+m.status) + "\n")
	}
	if n := len(m.selection); n > 0 {
		b.WriteString(statusStyle.Render(fmt.Sprintf("  %d selected", n)) + "\n")
	}

	b.WriteString(helpStyle.Render("  enter: open • b: back • space: select • tab: actions • u: upload • r: refresh • ctrl+o: sign out • q: quit"))
	return b.String()
}
