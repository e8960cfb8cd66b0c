package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"gymroster/internal/application/listutil"
	"gymroster/internal/application/roster"
)

// Column widths for the member table.
const (
	colName   = 24
	colPhone  = 15
	colPlan   = 6
	colExpiry = 10
)

var statusLabels = map[roster.Status]string{
	roster.StatusAll:     "1:All",
	roster.StatusActive:  "2:Active",
	roster.StatusExpired: "3:Expired",
}

// View renders the engine snapshot plus local form state.
func (m Model) View() string {
	snap := m.engine.Snapshot()
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")
	b.WriteString(m.renderSearch())
	b.WriteString("\n")
	b.WriteString(m.renderTabs(snap.Criteria.Status))
	b.WriteString("\n\n")
	b.WriteString(m.renderTable(snap))

	if p := m.renderPagination(snap); p != "" {
		b.WriteString("\n")
		b.WriteString(p)
	}
	if snap.Loading || snap.DebouncePending {
		b.WriteString("\n")
		b.WriteString(m.styles.Muted.Render("Loading…"))
	}
	if snap.Error != "" {
		b.WriteString("\n")
		b.WriteString(m.styles.Error.Render(snap.Error))
	}

	switch m.mode {
	case modeEdit:
		b.WriteString("\n\n")
		b.WriteString(m.renderEditForm())
	case modeConfirmDelete:
		b.WriteString("\n\n")
		b.WriteString(m.styles.Prompt.Render(fmt.Sprintf("Delete %s? (y/N)", m.deleteFor)))
	}

	b.WriteString("\n\n")
	b.WriteString(m.renderHelp())
	return b.String()
}

func (m Model) renderHeader() string {
	title := m.styles.Title.Render("Gym Roster")
	if !m.hasSummary {
		return title
	}
	s := m.summary
	stats := fmt.Sprintf("Total %d · Active %d (%.0f%%) · Expired %d", s.Total, s.Active, s.ActivePercent(), s.Expired)
	return lipgloss.JoinHorizontal(lipgloss.Top, title, "  ", m.styles.Stat.Render(stats))
}

func (m Model) renderSearch() string {
	style := m.styles.Blurred
	if m.focus == focusSearch && m.mode == modeBrowse {
		style = m.styles.Focused
	}
	return style.Render(m.search.View())
}

func (m Model) renderTabs(active roster.Status) string {
	tabs := make([]string, 0, len(roster.Statuses))
	for _, s := range roster.Statuses {
		style := m.styles.Tab
		if s == active {
			style = m.styles.ActiveTab
		}
		tabs = append(tabs, style.Render(statusLabels[s]))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) renderTable(snap roster.Snapshot) string {
	if !snap.HasPage {
		if snap.Loading {
			return m.styles.Muted.Render("Loading members…")
		}
		return m.styles.Muted.Render("No members loaded")
	}
	if snap.Page.Empty() {
		return m.styles.Muted.Render("No members found")
	}

	var b strings.Builder
	b.WriteString(m.styles.Header.Render(formatRow("Name", "Phone", "Plan", "Expiry", "Late")))
	for i, mem := range snap.Page.Results {
		b.WriteString("\n")
		late := "-"
		if mem.Overdue() {
			late = strconv.Itoa(mem.LateDays) + "d"
		}
		expiry := "-"
		if !mem.ExpiryDate.IsZero() {
			expiry = mem.ExpiryDate.Format("2006-01-02")
		}
		line := formatRow(mem.Name, mem.Phone, mem.Plan, expiry, late)

		switch {
		case m.focus == focusList && i == m.cursor:
			b.WriteString(m.styles.SelectedRow.Render("> " + line))
		case mem.Overdue():
			b.WriteString(m.styles.Overdue.Render("  " + line))
		default:
			b.WriteString(m.styles.Row.Render("  " + line))
		}
	}
	return b.String()
}

func (m Model) renderPagination(snap roster.Snapshot) string {
	if !snap.HasPage {
		return ""
	}
	info := listutil.NewPageInfo(snap.Page.CurrentPage, snap.Criteria.PageSize, snap.Page.TotalMembers)
	if snap.Page.TotalMembers == 0 {
		// Totals missing from the response; fall back to the page count alone.
		info.Page, info.TotalPages = snap.Page.CurrentPage, snap.TotalPages
	}
	if info.TotalPages <= 1 {
		return ""
	}

	var nums []string
	for _, n := range info.PageNumbers() {
		label := strconv.Itoa(n)
		if n == info.Page {
			label = "[" + label + "]"
		}
		nums = append(nums, label)
	}
	line := fmt.Sprintf("Page %d / %d   %s", info.Page, info.TotalPages, strings.Join(nums, " "))
	if info.Total > 0 {
		line += fmt.Sprintf("   showing %d-%d of %d", info.StartRow(), info.EndRow(), info.Total)
	}
	return m.styles.Muted.Render(line)
}

func (m Model) renderEditForm() string {
	return m.styles.Focused.Render(lipgloss.JoinVertical(lipgloss.Left,
		m.styles.Prompt.Render("Edit member"),
		m.editName.View(),
		m.editPhone.View(),
	))
}

func (m Model) renderHelp() string {
	var bindings []string
	switch {
	case m.mode == modeEdit:
		bindings = []string{"Tab next field", "Enter save", "Esc cancel"}
	case m.mode == modeConfirmDelete:
		bindings = []string{"y delete", "any other key cancels"}
	case m.focus == focusSearch:
		bindings = []string{"type to search", "Tab/Enter list", "C-c quit"}
	default:
		bindings = []string{"1/2/3 status", "h/l page", "j/k move", "e edit", "d delete", "r refresh", "/ search", "q quit"}
	}
	return m.styles.Muted.Render(strings.Join(bindings, " · "))
}

func formatRow(name, phone, plan, expiry, late string) string {
	return fmt.Sprintf("%s %s %s %s %s",
		pad(name, colName), pad(phone, colPhone), pad(plan, colPlan), pad(expiry, colExpiry), late)
}

// pad truncates or right-pads s to exactly width display cells.
func pad(s string, width int) string {
	if lipgloss.Width(s) > width {
		r := []rune(s)
		for len(r) > 0 && lipgloss.Width(string(r))+1 > width {
			r = r[:len(r)-1]
		}
		s = string(r) + "…"
	}
	return s + strings.Repeat(" ", max(0, width-lipgloss.Width(s)))
}
