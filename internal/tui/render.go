package tui

import (
	"fmt"
	"html"
	"strings"
	"unicode"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/microcosm-cc/bluemonday"

	"github.com/johndosdos/chatter-client/internal/model"
	"github.com/johndosdos/chatter-client/internal/view"
)

// The terminal shows plain text only.
var strict = bluemonday.StrictPolicy()

// plain strips markup, then any terminal escape sequence or control
// character a peer could use to drive the viewer's terminal.
func plain(s string) string {
	s = ansi.Strip(html.UnescapeString(strict.Sanitize(s)))
	return strings.Map(func(r rune) rune {
		if r != '\n' && unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}

func (m Model) View() string {
	if alert, ok := m.state.Alert(); ok {
		return m.overlay(m.styles.Alert.Render(alert + "\n\n" + m.styles.Meta.Render("enter/esc to dismiss")))
	}
	if m.state.Popup != view.PopupNone {
		return m.overlay(m.renderPopup())
	}

	height := max(m.height-3, 5)

	sidebarStyle := m.styles.Pane
	if m.focus != focusInput {
		sidebarStyle = m.styles.PaneFocused
	}
	mainStyle := m.styles.Pane
	if m.focus == focusInput {
		mainStyle = m.styles.PaneFocused
	}

	sidebar := sidebarStyle.Width(sidebarWidth).Height(height).Render(m.renderSidebar())
	main := mainStyle.Width(max(m.width-sidebarWidth-4, 20)).Height(height).Render(m.renderChat())

	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Top, sidebar, main),
		m.renderFooter(),
	)
}

func (m Model) overlay(box string) string {
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func (m Model) renderSidebar() string {
	var b strings.Builder

	avatar := "○"
	if m.state.Avatar != "" {
		avatar = "●"
	}
	b.WriteString(m.styles.Title.Render(avatar+" "+plain(m.state.Session.Username)) + "\n")
	b.WriteString(m.search.View() + "\n\n")

	contacts := m.state.VisibleContacts()
	if len(contacts) == 0 {
		b.WriteString(m.styles.Meta.Render("No contacts yet"))
		return b.String()
	}

	active, _ := m.state.Selected()
	for i, c := range contacts {
		marker := "  "
		if i == m.cursor && m.focus != focusInput {
			marker = m.styles.Cursor.Render("> ")
		}
		name := plain(c.Name)
		if c.ChatID == active {
			name = m.styles.ActiveChat.Render(name)
		}
		b.WriteString(marker + name + "\n")
		b.WriteString(m.styles.Preview.Render(plain(c.Preview)) + "\n")
	}
	return b.String()
}

func (m Model) renderChat() string {
	var header string
	if m.state.Active == nil {
		header = m.styles.Meta.Render("Select a chat")
	} else {
		header = m.styles.Header.Render(plain(m.state.Active.Name))
		if m.state.Active.Group {
			header += m.styles.Badge.Render("group")
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		m.viewport.View(),
		m.input.View(),
	)
}

func (m Model) renderMessages() string {
	if len(m.state.Messages) == 0 {
		return m.styles.Meta.Render("No messages yet")
	}

	width := max(m.viewport.Width, 20)
	var lines []string
	for _, msg := range m.state.Messages {
		meta := msg.Timestamp
		if msg.Side == view.SideSelf {
			mark := "✓"
			if msg.Status == model.StatusRead {
				mark = "✓✓"
			}
			meta = strings.TrimSpace(meta + " " + mark)
			bubble := m.styles.Self.Render(plain(msg.Content))
			lines = append(lines,
				lipgloss.PlaceHorizontal(width, lipgloss.Right, bubble),
				lipgloss.PlaceHorizontal(width, lipgloss.Right, m.styles.Meta.Render(meta)),
			)
			continue
		}
		lines = append(lines,
			m.styles.Other.Render(plain(msg.Content)),
			m.styles.Meta.Render(meta),
		)
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderPopup() string {
	var b strings.Builder
	switch m.state.Popup {
	case view.PopupAddContact:
		b.WriteString(m.styles.Title.Render("Add contact") + "\n\n")
		b.WriteString(m.popup.View() + "\n\n")
		b.WriteString(m.styles.Meta.Render("enter add • esc cancel"))

	case view.PopupCreateGroup:
		b.WriteString(m.styles.Title.Render("Create group") + "\n\n")
		b.WriteString(m.popup.View() + "\n")
		b.WriteString(m.member.View() + "\n\n")
		if len(m.state.GroupDraft) == 0 {
			b.WriteString(m.styles.Meta.Render("No members yet") + "\n")
		}
		for _, u := range m.state.GroupDraft {
			b.WriteString("• " + plain(u) + "\n")
		}
		b.WriteString("\n" + m.styles.Meta.Render("tab switch field • enter add member • ctrl+s create • esc cancel"))

	case view.PopupSettings:
		b.WriteString(m.styles.Title.Render("Profile picture") + "\n\n")
		b.WriteString(m.popup.View() + "\n\n")
		b.WriteString(m.styles.Meta.Render(fmt.Sprintf("max %d KiB • enter upload • esc cancel", view.MaxPictureSize>>10)))
	}
	return m.styles.Popup.Render(b.String())
}

func (m Model) renderFooter() string {
	footer := m.help.View(m.keys)
	if m.disconnected {
		footer = m.styles.Status.Render("offline") + "  " + footer
	}
	return footer
}
