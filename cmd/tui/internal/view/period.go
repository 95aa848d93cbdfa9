package view

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/ledgerflow/internal/ledger"
)

// Period is a preset ledger window, counted in whole UTC days.
type Period int

const (
	PeriodThisWeek Period = iota
	PeriodLastWeek
	PeriodThisMonth
	PeriodLastMonth
	PeriodThisYear
	PeriodAll
)

var periodNames = map[Period]string{
	PeriodThisWeek:  "This Week",
	PeriodLastWeek:  "Last Week",
	PeriodThisMonth: "This Month",
	PeriodLastMonth: "Last Month",
	PeriodThisYear:  "This Year",
	PeriodAll:       "All Time",
}

func (p Period) String() string {
	if name, ok := periodNames[p]; ok {
		return name
	}

	return "Unknown"
}

// Filter builds the owner's ledger query for p as of now. Weeks start on
// Monday; PeriodAll leaves both bounds open.
func (p Period) Filter(ownerID string, now time.Time) ledger.ListFilter {
	f := ledger.ListFilter{OwnerID: ownerID}
	if p == PeriodAll {
		return f
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	monday := today.AddDate(0, 0, -(int(today.Weekday())+6)%7)
	firstOfMonth := today.AddDate(0, 0, 1-today.Day())

	var first, last time.Time

	switch p {
	case PeriodThisWeek:
		first, last = monday, today
	case PeriodLastWeek:
		first, last = monday.AddDate(0, 0, -7), monday.AddDate(0, 0, -1)
	case PeriodThisMonth:
		first, last = firstOfMonth, today
	case PeriodLastMonth:
		first, last = firstOfMonth.AddDate(0, -1, 0), firstOfMonth.AddDate(0, 0, -1)
	case PeriodThisYear:
		first, last = time.Date(today.Year(), time.January, 1, 0, 0, 0, 0, time.UTC), today
	}

	f.StartDate = new(first)
	f.EndDate = new(last.Add(24*time.Hour - time.Second))

	return f
}

// PeriodSelectedMsg is emitted when the user confirms a period.
type PeriodSelectedMsg struct {
	Period Period
}

// PeriodPicker is a cursor over the preset periods.
type PeriodPicker struct {
	cursor Period
}

func NewPeriodPicker() PeriodPicker {
	return PeriodPicker{cursor: PeriodThisMonth}
}

func (m PeriodPicker) Update(msg tea.Msg) (PeriodPicker, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "up", "k":
		if m.cursor > PeriodThisWeek {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < PeriodAll {
			m.cursor++
		}
	case "enter":
		p := m.cursor
		return m, func() tea.Msg { return PeriodSelectedMsg{Period: p} }
	}

	return m, nil
}

func (m PeriodPicker) View() string {
	var b strings.Builder

	b.WriteString("Select period:\n\n")

	for p := PeriodThisWeek; p <= PeriodAll; p++ {
		line := fmt.Sprintf("  %s", p)
		if p == m.cursor {
			line = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Render("> " + p.String())
		}

		b.WriteString(line + "\n")
	}

	b.WriteString("\n(Enter to select, Esc to back)")

	return b.String()
}
