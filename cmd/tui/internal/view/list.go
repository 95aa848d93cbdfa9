package view

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/ledgerflow/internal/candidate"
	"github.com/MrJamesThe3rd/ledgerflow/internal/ledger"
)

type listState int

const (
	listStatePeriod listState = iota
	listStateBrowse
)

// ListModel browses the canonical ledger. Records are read-only.
type ListModel struct {
	CommonModel
	ledgerService *ledger.Service

	state  listState
	picker PeriodPicker
	table  table.Model
	txs    []*ledger.Transaction

	period  Period
	filter  ledger.ListFilter
	loading bool
	err     error
}

func NewListModel(common CommonModel, ledgerSvc *ledger.Service) ListModel {
	columns := []table.Column{
		{Title: "Date", Width: 12},
		{Title: "Kind", Width: 8},
		{Title: "Amount", Width: 12},
		{Title: "Origin", Width: 15},
		{Title: "Description", Width: 40},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return ListModel{
		CommonModel:   common,
		ledgerService: ledgerSvc,
		picker:        NewPeriodPicker(),
		table:         t,
		filter:        ledger.ListFilter{OwnerID: common.ownerID},
	}
}

func (m ListModel) Title() string { return "Ledger" }

func (m ListModel) ShortHelp() string {
	if m.state == listStatePeriod {
		return "Esc: back | Enter: select"
	}

	return "Esc: period | r: refresh"
}

func (m ListModel) Init() tea.Cmd {
	return nil
}

func (m ListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case PeriodSelectedMsg:
		m.period = msg.Period
		m.filter = msg.Period.Filter(m.ownerID, time.Now())
		m.state = listStateBrowse
		m.loading = true

		return m, m.loadTxsCmd()

	case loadListMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}

		m.err = nil
		m.txs = msg.txs
		m.refreshTable()

		return m, nil

	case tea.WindowSizeMsg:
		m.table.SetHeight(msg.Height - 10)
		return m, nil
	}

	if m.state == listStatePeriod {
		if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
			return m, Back
		}

		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(msg)

		return m, cmd
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			m.state = listStatePeriod
			return m, nil
		case "r":
			m.loading = true
			return m, m.loadTxsCmd()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m ListModel) View() string {
	if m.state == listStatePeriod {
		return lipgloss.NewStyle().Padding(1).Render(m.picker.View())
	}

	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading transactions...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(fmt.Sprintf("Error: %v", m.err))
	}

	var income, expense int64

	for _, tx := range m.txs {
		if tx.Kind == candidate.KindIncome {
			income += tx.Amount
		} else {
			expense += tx.Amount
		}
	}

	header := fmt.Sprintf("%s: %d transactions | income %s | expense %s",
		m.period,
		len(m.txs),
		activeStyle(FormatAmount(income)),
		activeStyle(FormatAmount(expense)),
	)

	tableView := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	return lipgloss.NewStyle().Padding(1).Render(lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		tableView,
	))
}

func activeStyle(s string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Render(s)
}

func (m *ListModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.txs))
	for _, tx := range m.txs {
		rows = append(rows, table.Row{
			FormatDate(tx.OccurredAt),
			string(tx.Kind),
			FormatAmount(tx.Amount),
			string(tx.Origin),
			tx.Description,
		})
	}

	m.table.SetRows(rows)
}

type loadListMsg struct {
	txs []*ledger.Transaction
	err error
}

func (m ListModel) loadTxsCmd() tea.Cmd {
	filter := m.filter

	return func() tea.Msg {
		ctx, cancel := m.opCtx()
		defer cancel()

		txs, err := m.ledgerService.List(ctx, filter)

		return loadListMsg{txs: txs, err: err}
	}
}
