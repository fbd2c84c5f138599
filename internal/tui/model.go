// Package tui is the terminal front end: a bubbletea program around the
// view reconciler.
package tui

import (
	"context"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"

	"github.com/johndosdos/chatter-client/internal/view"
)

type focus int

const (
	focusContacts focus = iota
	focusInput
	focusSearch
)

// Model is the bubbletea model. It owns no chat state of its own: all
// of that lives in the reconciler.
type Model struct {
	ctx   context.Context
	api   API
	rt    Channel
	out   *outbox
	state *view.State

	focus  focus
	cursor int

	input    textinput.Model
	search   textinput.Model
	popup    textinput.Model
	member   textinput.Model
	viewport viewport.Model
	help     help.Model
	keys     keyMap
	styles   styles

	// groupField is true when the member field of the group popup has
	// focus.
	groupField   bool
	disconnected bool
	// pending is the input text awaiting the server's confirmation.
	pending string
	width   int
	height  int
}

// New builds the model. rt may be nil, in which case the program runs
// without live updates.
func New(ctx context.Context, state *view.State, api API, rt Channel) Model {
	in := textinput.New()
	in.Placeholder = "Type a message..."
	in.Prompt = "│ "
	in.CharLimit = 4096

	search := textinput.New()
	search.Placeholder = "Search contacts"
	search.Prompt = "/ "

	popup := textinput.New()
	popup.CharLimit = 256

	member := textinput.New()
	member.Placeholder = "Username"
	member.Prompt = "+ "
	member.CharLimit = 64

	// Steady cursors: blink ticks are not routed to the inputs.
	for _, ti := range []*textinput.Model{&in, &search, &popup, &member} {
		ti.Cursor.SetMode(cursor.CursorStatic)
	}

	m := Model{
		ctx:      ctx,
		api:      api,
		rt:       rt,
		state:    state,
		input:    in,
		search:   search,
		popup:    popup,
		member:   member,
		viewport: viewport.New(80, 20),
		help:     help.New(),
		keys:     defaultKeyMap(),
		styles:   defaultStyles(),
		width:    100,
		height:   30,
	}
	if rt != nil {
		m.out = newOutbox(rt)
		go m.out.run(ctx)
	}
	return m
}

// State exposes the reconciler state, for rendering snapshots.
func (m Model) State() *view.State {
	return m.state
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.run(m.state.Update(view.Started{}))}
	if m.rt != nil {
		cmds = append(cmds, waitEvent(m.rt.Events()))
	}
	return tea.Batch(cmds...)
}

// dispatch feeds one message to the reconciler and runs its effects.
func (m Model) dispatch(msg view.Msg) (Model, tea.Cmd) {
	cmd := m.run(m.state.Update(msg))
	if m.state.Popup == view.PopupNone && (m.popup.Focused() || m.member.Focused()) {
		m.popup.Blur()
		m.member.Blur()
		m = m.setFocus(m.focus)
	}
	m.clampCursor()
	m.refreshViewport()
	return m, cmd
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		return m, nil

	case eventMsg:
		next := waitEvent(m.rt.Events())
		vm, ok := eventToMsg(msg.ev)
		if !ok {
			return m, next
		}
		var cmd tea.Cmd
		m, cmd = m.dispatch(vm)
		return m, tea.Batch(cmd, next)

	case channelClosedMsg:
		log.Warn().Msg("real-time channel closed")
		m.disconnected = true
		return m, nil

	case view.MessagePosted:
		if msg.Err == nil && m.pending != "" && m.input.Value() == m.pending {
			m.input.Reset()
		}
		m.pending = ""
		return m.dispatch(msg)

	case view.Msg:
		return m.dispatch(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}

	// An alert blocks everything else until it is dismissed.
	if _, ok := m.state.Alert(); ok {
		if key.Matches(msg, m.keys.Close) || key.Matches(msg, m.keys.Enter) {
			return m.dispatch(view.AlertDismissed{})
		}
		return m, nil
	}

	if m.state.Popup != view.PopupNone {
		return m.handlePopupKey(msg)
	}

	switch m.focus {
	case focusSearch:
		return m.handleSearchKey(msg)
	case focusInput:
		return m.handleInputKey(msg)
	}
	return m.handleContactsKey(msg)
}

func (m Model) handleContactsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	contacts := m.state.VisibleContacts()

	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(contacts)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Enter):
		if len(contacts) == 0 {
			return m, nil
		}
		c := contacts[m.cursor]
		m = m.setFocus(focusInput)
		return m.dispatch(view.SelectChat{ChatID: c.ChatID, Name: c.Name})
	case key.Matches(msg, m.keys.Tab):
		return m.setFocus(focusInput), nil
	case key.Matches(msg, m.keys.Search):
		return m.setFocus(focusSearch), nil
	case key.Matches(msg, m.keys.AddContact):
		return m.openPopup(view.PopupAddContact, "Username")
	case key.Matches(msg, m.keys.Group):
		return m.openPopup(view.PopupCreateGroup, "Group name")
	case key.Matches(msg, m.keys.Settings):
		return m.openPopup(view.PopupSettings, "Path to picture")
	case key.Matches(msg, m.keys.Refresh):
		return m.dispatch(view.RefreshContacts{})
	case key.Matches(msg, m.keys.Logout):
		return m.dispatch(view.LogoutRequested{})
	}
	return m, nil
}

func (m Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Tab), key.Matches(msg, m.keys.Close):
		return m.setFocus(focusContacts), nil
	case key.Matches(msg, m.keys.Enter):
		content := m.input.Value()
		if strings.TrimSpace(content) != "" && m.state.Active != nil {
			m.pending = content
		}
		return m.dispatch(view.SendRequested{Content: content})
	case msg.Type == tea.KeyPgUp, msg.Type == tea.KeyPgDown:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Close):
		m.search.Reset()
		m = m.setFocus(focusContacts)
		return m.dispatch(view.FilterChanged{Term: ""})
	case key.Matches(msg, m.keys.Enter), key.Matches(msg, m.keys.Tab):
		return m.setFocus(focusContacts), nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.cursor = 0
	m, fcmd := m.dispatch(view.FilterChanged{Term: m.search.Value()})
	return m, tea.Batch(cmd, fcmd)
}

func (m Model) openPopup(p view.Popup, placeholder string) (tea.Model, tea.Cmd) {
	m.input.Blur()
	m.search.Blur()
	m.popup.Reset()
	m.popup.Placeholder = placeholder
	m.popup.Focus()
	m.member.Reset()
	m.member.Blur()
	m.groupField = false
	return m.dispatch(view.OpenPopup{Popup: p})
}

func (m Model) closePopup() (Model, tea.Cmd) {
	return m.dispatch(view.ClosePopup{})
}

func (m Model) handlePopupKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Close) {
		return m.closePopup()
	}

	switch m.state.Popup {
	case view.PopupAddContact:
		if key.Matches(msg, m.keys.Enter) {
			return m.dispatch(view.AddContactRequested{Username: m.popup.Value()})
		}

	case view.PopupCreateGroup:
		switch {
		case key.Matches(msg, m.keys.Tab):
			m.groupField = !m.groupField
			if m.groupField {
				m.popup.Blur()
				m.member.Focus()
			} else {
				m.member.Blur()
				m.popup.Focus()
			}
			return m, nil
		case key.Matches(msg, m.keys.Submit):
			return m.dispatch(view.CreateGroupRequested{Name: m.popup.Value()})
		case key.Matches(msg, m.keys.Enter):
			if !m.groupField {
				m.groupField = true
				m.popup.Blur()
				m.member.Focus()
				return m, nil
			}
			username := m.member.Value()
			m.member.Reset()
			return m.dispatch(view.DraftUserAdded{Username: username})
		}
		if m.groupField {
			var cmd tea.Cmd
			m.member, cmd = m.member.Update(msg)
			return m, cmd
		}

	case view.PopupSettings:
		if key.Matches(msg, m.keys.Enter) {
			return m.dispatch(pictureChosen(m.popup.Value()))
		}
	}

	var cmd tea.Cmd
	m.popup, cmd = m.popup.Update(msg)
	return m, cmd
}

// pictureChosen stats the file the user typed. An unreadable path counts
// as no file at all.
func pictureChosen(path string) view.PictureChosen {
	path = strings.TrimSpace(path)
	if path == "" {
		return view.PictureChosen{}
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		log.Debug().Err(err).Str("path", path).Msg("picture not readable")
		return view.PictureChosen{}
	}
	return view.PictureChosen{Path: path, Size: info.Size()}
}

func (m Model) setFocus(f focus) Model {
	m.focus = f
	m.input.Blur()
	m.search.Blur()
	switch f {
	case focusInput:
		m.input.Focus()
	case focusSearch:
		m.search.Focus()
	}
	return m
}

func (m *Model) clampCursor() {
	n := len(m.state.VisibleContacts())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) resize() {
	mainWidth := max(m.width-sidebarWidth-4, 20)
	m.viewport.Width = mainWidth - 2
	// header, input and footer take six rows, borders two more
	m.viewport.Height = max(m.height-8, 3)
	m.input.Width = mainWidth - 4
	m.search.Width = sidebarWidth - 4
	m.refreshViewport()
}

func (m *Model) refreshViewport() {
	atBottom := m.viewport.AtBottom()
	m.viewport.SetContent(m.renderMessages())
	if atBottom {
		m.viewport.GotoBottom()
	}
}
