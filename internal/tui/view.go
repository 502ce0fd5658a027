package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"skyrace/console/internal/form"
	"skyrace/console/internal/screens"
	"skyrace/console/internal/toast"
)

func (m Model) View() string {
	var body string
	if !m.signedIn {
		body = m.viewLogin()
	} else {
		body = lipgloss.JoinHorizontal(lipgloss.Top, m.viewSidebar(), m.viewMain())
	}
	parts := []string{body}
	if t := m.viewToasts(); t != "" {
		parts = append(parts, t)
	}
	parts = append(parts, m.viewHelp())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) viewSidebar() string {
	lines := make([]string, 0, len(m.screens)+2)
	lines = append(lines, m.styles.title.Render("SkyRace"), "")
	for i, s := range m.screens {
		item := m.styles.navItem
		if i == m.active {
			item = m.styles.navActive
		}
		lines = append(lines, item.Width(sidebarWidth-2).Render(s.Title()))
	}
	return m.styles.sidebar.Width(sidebarWidth).Render(strings.Join(lines, "\n"))
}

func (m Model) viewMain() string {
	var b strings.Builder

	title := m.styles.title.Render(m.snap.Title)
	if m.session != nil {
		if u := m.session.CurrentUser(); u != nil {
			title += "  " + m.styles.faint.Render(u.Name+" <"+u.Email+">")
		}
	}
	b.WriteString(title + "\n")
	for _, h := range m.snap.Header {
		b.WriteString(h + "\n")
	}

	if line := m.viewFilters(); line != "" {
		b.WriteString(line + "\n")
	}
	if m.focus == FocusSearch {
		b.WriteString("Search: " + m.search.View() + "\n")
	} else if m.snap.Search != "" {
		b.WriteString(m.styles.faint.Render("Search: "+m.snap.Search) + "\n")
	}
	b.WriteString("\n")

	switch {
	case m.editor != nil:
		busy := m.snap.Form != nil && m.snap.Form.Busy
		b.WriteString(m.viewForm(m.editor, busy, ""))
	case m.snap.Confirmation != nil:
		b.WriteString(m.viewConfirm(*m.snap.Confirmation))
	default:
		b.WriteString(m.viewList())
	}

	return lipgloss.NewStyle().PaddingLeft(1).Render(b.String())
}

func (m Model) viewList() string {
	if m.snap.Phase == screens.PhaseLoading && len(m.snap.Rows) == 0 {
		return m.styles.faint.Render("Loading…")
	}
	if m.snap.Phase == screens.PhaseError {
		return m.styles.errorText.Render(m.snap.Message) + "\n" + m.styles.help.Render("C-r to retry")
	}
	if len(m.snap.Rows) == 0 {
		return m.styles.faint.Render(m.snap.Message)
	}

	var b strings.Builder
	b.WriteString(m.table.View() + "\n")
	if p := m.snap.Pagination; p != nil {
		b.WriteString(m.styles.faint.Render(fmt.Sprintf("Page %d of %d", p.Page, max(p.Pages, 1))) + "\n")
	}
	if row, ok := m.selectedRow(); ok && len(row.Detail) > 0 {
		b.WriteString("\n" + m.styles.faint.Render(strings.Join(row.Detail, "\n")) + "\n")
	}
	return b.String()
}

func (m Model) viewFilters() string {
	if len(m.snap.Filters) == 0 {
		return ""
	}
	parts := make([]string, len(m.snap.Filters))
	for i, f := range m.snap.Filters {
		v := f.Value
		if v == "" {
			v = "All"
		}
		label := f.Label + ": " + v
		if i == m.filterIdx {
			parts[i] = m.styles.title.Render("▸ " + label)
		} else {
			parts[i] = m.styles.faint.Render("  " + label)
		}
	}
	return strings.Join(parts, "   ")
}

func (m Model) viewForm(e *editor, busy bool, errText string) string {
	var b strings.Builder
	b.WriteString(m.styles.title.Render(e.title) + "\n\n")
	for i, f := range e.fields {
		label := f.Label
		if label == "" {
			label = f.Name
		}
		if f.Required {
			label += " *"
		}
		style := m.styles.label
		value := e.values[f.Name]
		if f.Secret {
			value = strings.Repeat("•", len([]rune(value)))
		}
		if i == e.index {
			style = m.styles.focused
			value = e.input.View()
			if f.Kind == form.KindSelect {
				value = "‹ " + e.values[f.Name] + " ›  " + m.styles.faint.Render(strings.Join(f.Options, " / "))
			}
		}
		b.WriteString(style.Render(label) + " " + value + "\n")
	}
	if errText != "" {
		b.WriteString("\n" + m.styles.errorText.Render(errText) + "\n")
	}
	b.WriteString("\n")
	if busy {
		b.WriteString(m.styles.faint.Render("Saving…"))
	} else {
		b.WriteString(m.styles.help.Render("Enter next/submit · C-s submit · Esc cancel"))
	}
	return m.styles.modal.Render(b.String())
}

func (m Model) viewConfirm(c screens.Confirmation) string {
	return m.styles.modal.Render(c.Prompt + "\n\n" + m.styles.help.Render("y confirm · n cancel"))
}

func (m Model) viewLogin() string {
	if m.loginForm == nil {
		return m.styles.faint.Render("Loading…")
	}
	box := m.viewForm(m.loginForm, m.loginBusy, m.loginErr)
	if m.width == 0 || m.height == 0 {
		return box
	}
	return lipgloss.Place(m.width, max(m.height-3, 0), lipgloss.Center, lipgloss.Center, box)
}

func (m Model) viewToasts() string {
	if m.toasts == nil {
		return ""
	}
	active := m.toasts.Active()
	lines := make([]string, 0, len(active))
	for _, t := range active {
		style, ok := m.styles.toast[string(t.Level)]
		if !ok {
			style = m.styles.toast[string(toast.LevelInfo)]
		}
		lines = append(lines, style.Render(t.Message))
	}
	return strings.Join(lines, "\n")
}

func (m Model) viewHelp() string {
	if !m.signedIn {
		return m.styles.help.Render("Tab next field · Enter sign in · C-c quit")
	}
	hints := []string{}
	for _, a := range m.snap.Actions {
		if a.Key != "" {
			hints = append(hints, a.Key+" "+strings.ToLower(a.Label))
		}
	}
	bindings := []struct{ keys, desc string }{
		{m.keys.NextScreen.Help().Key, m.keys.NextScreen.Help().Desc},
		{m.keys.Refresh.Help().Key, m.keys.Refresh.Help().Desc},
		{m.keys.Logout.Help().Key, m.keys.Logout.Help().Desc},
		{m.keys.Quit.Help().Key, m.keys.Quit.Help().Desc},
	}
	if m.snap.Searchable {
		hints = append(hints, m.keys.Search.Help().Key+" "+m.keys.Search.Help().Desc)
	}
	if len(m.snap.Filters) > 0 {
		hints = append(hints, m.keys.Filter.Help().Key+" "+m.keys.Filter.Help().Desc)
		if len(m.snap.Filters) > 1 {
			hints = append(hints, m.keys.NextFilter.Help().Key+" "+m.keys.NextFilter.Help().Desc)
		}
	}
	if m.snap.Pagination != nil {
		hints = append(hints, "[ ] page")
	}
	for _, bnd := range bindings {
		hints = append(hints, bnd.keys+" "+bnd.desc)
	}
	return m.styles.help.Render(strings.Join(hints, " · "))
}
