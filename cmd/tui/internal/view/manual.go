package view

import (
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/ledgerflow/internal/candidate"
	"github.com/MrJamesThe3rd/ledgerflow/internal/ledger"
	"github.com/MrJamesThe3rd/ledgerflow/internal/reconcile"
)

type manualState int

const (
	manualStateForm manualState = iota
	manualStateSaving
	manualStateResult
)

type ManualModel struct {
	CommonModel
	wf *reconcile.Workflow

	state manualState
	form  *huh.Form

	status string
	err    error

	// Form field bindings
	formDate   string
	formAmount string
	formKind   string
	formDesc   string
}

func NewManualModel(common CommonModel, wf *reconcile.Workflow) ManualModel {
	m := ManualModel{
		CommonModel: common,
		wf:          wf,
	}
	m.resetForm()

	return m
}

func (m ManualModel) Title() string { return "Manual Entry" }

func (m ManualModel) ShortHelp() string {
	if m.state == manualStateResult {
		return "n: new entry | Esc: back"
	}

	return "Enter/Tab: navigate form | Esc: back"
}

func (m ManualModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m *ManualModel) resetForm() {
	m.formDate = ""
	m.formAmount = ""
	m.formKind = string(candidate.KindExpense)
	m.formDesc = ""
	m.err = nil
	m.status = ""
	m.state = manualStateForm

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("date").
				Title("Date").
				Placeholder(time.Now().Format(time.DateOnly)+" (empty for today)").
				Value(&m.formDate).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return nil
					}

					if _, err := time.Parse(time.DateOnly, strings.TrimSpace(s)); err != nil {
						return errors.New("use YYYY-MM-DD")
					}

					return nil
				}),

			huh.NewInput().
				Key("amount").
				Title("Amount").
				Placeholder("12.50").
				Value(&m.formAmount).
				Validate(func(s string) error {
					d, err := decimal.NewFromString(strings.TrimSpace(s))
					if err != nil {
						return errors.New("not a number")
					}

					if !d.IsPositive() {
						return errors.New("amount must be positive")
					}

					return nil
				}),

			huh.NewSelect[string]().
				Key("kind").
				Title("Kind").
				Options(
					huh.NewOption("Expense", string(candidate.KindExpense)),
					huh.NewOption("Income", string(candidate.KindIncome)),
				).
				Value(&m.formKind),

			huh.NewInput().
				Key("description").
				Title("Description").
				Value(&m.formDesc).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("description cannot be empty")
					}

					return nil
				}),
		),
	).WithWidth(50).WithShowHelp(false)
}

func (m ManualModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyEsc {
			return m, Back
		}

		if m.state == manualStateResult {
			if msg.String() == "n" {
				m.resetForm()
				return m, m.form.Init()
			}

			return m, nil
		}

	case manualSavedMsg:
		m.state = manualStateResult
		if msg.err != nil {
			m.err = msg.err
			m.status = fmt.Sprintf("Error: %v", msg.err)

			return m, nil
		}

		verb := "Added to ledger"
		if !msg.created {
			verb = "Already in ledger"
		}

		m.status = fmt.Sprintf("%s: %s  %s  %s",
			verb, FormatDate(msg.tx.OccurredAt), FormatAmount(msg.tx.Amount), msg.tx.Description)

		return m, nil
	}

	if m.state != manualStateForm {
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	m.state = manualStateSaving

	return m, m.saveCmd()
}

func (m ManualModel) View() string {
	switch m.state {
	case manualStateSaving:
		return lipgloss.NewStyle().Padding(2).Render("Saving...")
	case manualStateResult:
		color := lipgloss.Color("46")
		if m.err != nil {
			color = lipgloss.Color("196")
		}

		return lipgloss.NewStyle().Padding(2).Render(
			lipgloss.NewStyle().Foreground(color).Render(m.status) + "\n\n(" + m.ShortHelp() + ")",
		)
	}

	return lipgloss.NewStyle().Padding(1).Render("New Transaction\n\n" + m.form.View())
}

type manualSavedMsg struct {
	tx      *ledger.Transaction
	created bool
	err     error
}

func (m ManualModel) saveCmd() tea.Cmd {
	// Bound fields live on the copy the form was built from, so read by key.
	raw := candidate.RawRecord{
		OwnerID:     m.ownerID,
		OccurredAt:  strings.TrimSpace(m.form.GetString("date")),
		Description: m.form.GetString("description"),
		Amount:      candidate.RawAmount(strings.TrimSpace(m.form.GetString("amount"))),
		Kind:        m.form.GetString("kind"),
	}

	return func() tea.Msg {
		ctx, cancel := m.opCtx()
		defer cancel()

		tx, created, err := m.wf.EnterManual(ctx, raw)

		return manualSavedMsg{tx: tx, created: created, err: err}
	}
}
