package tui

import (
	"fmt"
	"strings"

	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"
)

// View implements tea.Model.
// Uses AltScreen with viewport for scrollable message history.
func (m *Model) View() tea.View {
	m.viewBuf.Reset()

	if m.state == StateDocView {
		// Documentation overlay replaces the chat until Esc.
		_, _ = m.viewBuf.WriteString(m.styles.DocTitle.Render(m.docTitle))
		_, _ = m.viewBuf.WriteString("\n")
		_, _ = m.viewBuf.WriteString(m.renderSeparator())
		_, _ = m.viewBuf.WriteString("\n")
		_, _ = m.viewBuf.WriteString(m.docViewport.View())
		_, _ = m.viewBuf.WriteString("\n")
		_, _ = m.viewBuf.WriteString(m.renderSeparator())
		_, _ = m.viewBuf.WriteString("\n")
		_, _ = m.viewBuf.WriteString(m.renderStatusBar())

		v := tea.NewView(m.viewBuf.String())
		v.AltScreen = true
		return v
	}

	// Conversation tabs across the top
	_, _ = m.viewBuf.WriteString(m.renderConversationBar())
	_, _ = m.viewBuf.WriteString("\n")

	// Viewport (scrollable message area)
	_, _ = m.viewBuf.WriteString(m.viewport.View())
	_, _ = m.viewBuf.WriteString("\n")

	// Separator line above input
	_, _ = m.viewBuf.WriteString(m.renderSeparator())
	_, _ = m.viewBuf.WriteString("\n")

	// Input prompt stays visible and editable while a send is in flight
	_, _ = m.viewBuf.WriteString(m.styles.Prompt.Render("> "))
	_, _ = m.viewBuf.WriteString(m.input.View())
	_, _ = m.viewBuf.WriteString("\n")

	// Separator line below input
	_, _ = m.viewBuf.WriteString(m.renderSeparator())
	_, _ = m.viewBuf.WriteString("\n")

	// Help bar (keyboard shortcuts)
	_, _ = m.viewBuf.WriteString(m.renderStatusBar())

	v := tea.NewView(m.viewBuf.String())
	v.AltScreen = true
	return v
}

// rebuildViewportContent reconstructs the viewport content from messages
// and state. Called when messages, selection, or state changes.
func (m *Model) rebuildViewportContent() {
	var b strings.Builder

	// Banner (ASCII art) and tips
	_, _ = b.WriteString(m.styles.RenderBanner())
	_, _ = b.WriteString("\n")
	if len(m.messages) == 0 {
		_, _ = b.WriteString(m.styles.RenderWelcomeTips())
		_, _ = b.WriteString("\n")
	}

	// Messages (already bounded by addMessage)
	for _, msg := range m.messages {
		switch msg.Sender {
		case senderUser:
			_, _ = b.WriteString(m.styles.User.Render("You> "))
			_, _ = b.WriteString(msg.Text)
		case senderAI:
			_, _ = b.WriteString(m.styles.Assistant.Render("Docs> "))
			switch {
			case msg.Loading:
				_, _ = b.WriteString(m.spinner.View())
				_, _ = b.WriteString(" ")
				_, _ = b.WriteString(m.styles.System.Render(msg.Text))
			case msg.Answer != nil:
				_, _ = b.WriteString(m.markdown.Render(msg.Answer.Answer))
				_, _ = b.WriteString(m.renderSources(msg.Answer.Sources))
			default:
				_, _ = b.WriteString(msg.Text)
			}
		case senderSystem:
			_, _ = b.WriteString(m.styles.System.Render(msg.Text))
		case senderError:
			_, _ = b.WriteString(m.styles.Error.Render("Error: " + msg.Text))
		}
		_, _ = b.WriteString("\n\n")
	}

	m.viewport.SetContent(b.String())
}

// renderSources lists the documentation pages an answer cites, numbered
// so /doc <n> can open them.
func (m *Model) renderSources(sources []string) string {
	if len(sources) == 0 {
		return ""
	}
	var b strings.Builder
	_, _ = b.WriteString("\n")
	_, _ = b.WriteString(m.styles.Source.Render("Sources:"))
	for i, src := range sources {
		_, _ = b.WriteString("\n")
		_, _ = b.WriteString(m.styles.Source.Render(fmt.Sprintf("  [%d] %s", i+1, src)))
	}
	return b.String()
}

// renderConversationBar shows the conversation list as tabs, newest
// first, with the selection highlighted.
func (m *Model) renderConversationBar() string {
	if len(m.conversations) == 0 {
		return m.styles.Sidebar.Render("No conversations yet")
	}

	parts := make([]string, 0, len(m.conversations))
	for i, c := range m.conversations {
		label := c.Preview
		if label == "" {
			label = c.ID
		}
		if len(m.conversations) > 1 {
			label = fmt.Sprintf("%d:%s", i+1, label)
		}
		if i == m.currentIdx {
			parts = append(parts, m.styles.Selected.Render("["+label+"]"))
		} else {
			parts = append(parts, m.styles.Sidebar.Render(" "+label+" "))
		}
	}
	return strings.Join(parts, m.styles.Separator.Render("│"))
}

// renderSeparator returns a horizontal line separator.
func (m *Model) renderSeparator() string {
	width := m.width
	if width <= 0 {
		width = 80 // Default width
	}
	return m.styles.Separator.Render(strings.Repeat("─", width))
}

// renderStatusBar returns state-appropriate keyboard shortcut help.
func (m *Model) renderStatusBar() string {
	var bindings []key.Binding
	switch m.state {
	case StateReady:
		bindings = []key.Binding{
			m.keys.Submit, m.keys.NewLine, m.keys.NextConv,
			m.keys.NewChat, m.keys.History, m.keys.Quit,
		}
	case StateSending:
		bindings = []key.Binding{
			m.keys.Cancel, m.keys.Quit,
			m.keys.ScrollUp, m.keys.ScrollDown,
		}
	case StateDocView:
		bindings = []key.Binding{
			m.keys.CloseDoc, m.keys.ScrollUp, m.keys.ScrollDown, m.keys.Quit,
		}
	}
	return m.help.ShortHelpView(bindings)
}
