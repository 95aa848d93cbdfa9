package view

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/ledgerflow/internal/reconcile"
	"github.com/MrJamesThe3rd/ledgerflow/internal/staging"
)

type ReviewModel struct {
	CommonModel
	wf *reconcile.Workflow

	queue   []staging.Draft
	current *staging.Draft

	descInput textinput.Model

	status     string
	loading    bool
	totalCount int
	approved   int
	rejected   int
}

func NewReviewModel(common CommonModel, wf *reconcile.Workflow) ReviewModel {
	ti := textinput.New()
	ti.Placeholder = "Description"
	ti.Width = 50

	return ReviewModel{
		CommonModel: common,
		wf:          wf,
		descInput:   ti,
		loading:     true,
		status:      "Loading pending transactions...",
	}
}

func (m ReviewModel) Title() string { return "Review Pending" }

func (m ReviewModel) ShortHelp() string {
	return "Enter: approve | ctrl+r: reject | ctrl+n: skip | Esc: back"
}

func (m ReviewModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m ReviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.loading {
			return m, nil
		}

		switch msg.String() {
		case "esc":
			return m, Back
		case "enter":
			if m.current != nil {
				m.loading = true
				return m, m.approveCmd(*m.current, m.descInput.Value())
			}
		case "ctrl+r":
			if m.current != nil {
				m.loading = true
				return m, m.rejectCmd(*m.current)
			}
		case "ctrl+n":
			if m.current != nil {
				m.next()
				return m, textinput.Blink
			}
		}

	case loadPendingMsg:
		m.loading = false
		if msg.err != nil {
			m.status = fmt.Sprintf("Error loading pending transactions: %v", msg.err)
			break
		}

		m.queue = msg.drafts
		m.totalCount = len(m.queue)

		if len(m.queue) > 0 {
			m.next()
			return m, textinput.Blink
		}

		m.status = "Nothing awaiting review."

	case decisionMsg:
		m.loading = false

		switch {
		case msg.err == nil && msg.approved:
			m.approved++
		case msg.err == nil:
			m.rejected++
		case errors.Is(msg.err, staging.ErrInvalidTransition), errors.Is(msg.err, staging.ErrNotFound):
			// Decided elsewhere in the meantime.
		default:
			m.status = fmt.Sprintf("Error: %v", msg.err)
			return m, nil
		}

		m.next()

		return m, textinput.Blink
	}

	if m.current != nil {
		m.descInput, cmd = m.descInput.Update(msg)
	}

	return m, cmd
}

func (m *ReviewModel) next() {
	if len(m.queue) == 0 {
		m.current = nil
		m.status = fmt.Sprintf("All done! %d approved, %d rejected.", m.approved, m.rejected)
		m.descInput.Blur()

		return
	}

	d := m.queue[0]
	m.queue = m.queue[1:]
	m.current = &d

	m.status = fmt.Sprintf("Reviewing %d/%d", m.totalCount-len(m.queue), m.totalCount)

	desc := d.Description
	if d.Suggested != "" {
		desc = d.Suggested
	}

	m.descInput.SetValue(desc)
	m.descInput.Focus()
}

func (m ReviewModel) View() string {
	if m.current == nil {
		return lipgloss.NewStyle().Padding(2).Render(m.status + "\n\n(Esc to back)")
	}

	d := m.current

	info := fmt.Sprintf(
		"Date:   %s\nKind:   %s\nAmount: %s\nRaw:    %s\nSource: %s %s\n",
		FormatDate(d.OccurredAt),
		d.Kind,
		FormatAmount(d.Amount),
		d.Description,
		d.Source,
		lipgloss.NewStyle().Faint(true).Render(d.SourceRef),
	)

	if d.Suggested != "" {
		info += lipgloss.NewStyle().Foreground(lipgloss.Color("63")).Render("Suggested from earlier approvals") + "\n"
	}

	return lipgloss.NewStyle().Padding(2).Render(fmt.Sprintf(
		"%s\n\n%s\nDescription:\n%s\n\n(%s)",
		m.status, info, m.descInput.View(), m.ShortHelp(),
	))
}

type loadPendingMsg struct {
	drafts []staging.Draft
	err    error
}

func (m ReviewModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := m.opCtx()
		defer cancel()

		drafts, err := m.wf.ListAwaiting(ctx, m.ownerID)

		return loadPendingMsg{drafts: drafts, err: err}
	}
}

type decisionMsg struct {
	approved bool
	err      error
}

func (m ReviewModel) approveCmd(d staging.Draft, description string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := m.opCtx()
		defer cancel()

		_, err := m.wf.Approve(ctx, m.ownerID, d.ID, description)

		return decisionMsg{approved: true, err: err}
	}
}

func (m ReviewModel) rejectCmd(d staging.Draft) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := m.opCtx()
		defer cancel()

		return decisionMsg{err: m.wf.Reject(ctx, m.ownerID, d.ID)}
	}
}
