package view

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/ledgerflow/internal/candidate"
	"github.com/MrJamesThe3rd/ledgerflow/internal/importer"
	"github.com/MrJamesThe3rd/ledgerflow/internal/ingest"
)

const importTimeout = 2 * time.Minute

type importState int

const (
	importStateBankSelect importState = iota
	importStateFilePick
	importStateImporting
	importStateResult
)

type ImportModel struct {
	CommonModel
	importService *importer.Service
	ingestService *ingest.Service

	state        importState
	filePicker   filepicker.Model
	selectedBank importer.Bank
	bankOptions  []importer.Bank
	bankCursor   int

	batch     *ingest.Batch
	errorList list.Model

	status string
	err    error
}

func NewImportModel(common CommonModel, impSvc *importer.Service, ingestSvc *ingest.Service) ImportModel {
	fp := filepicker.New()
	fp.CurrentDirectory, _ = os.Getwd()
	fp.ShowHidden = false
	fp.DirAllowed = false
	fp.FileAllowed = true
	fp.AllowedTypes = []string{".csv"}
	fp.SetHeight(15)

	return ImportModel{
		CommonModel:   common,
		importService: impSvc,
		ingestService: ingestSvc,
		filePicker:    fp,
		bankOptions:   impSvc.Banks(),
	}
}

func (m ImportModel) Title() string { return "Import Statement" }

func (m ImportModel) ShortHelp() string {
	if m.state == importStateResult {
		return "↑/↓: browse errors | Esc: back"
	}

	return "Esc: back | Enter: select"
}

func (m ImportModel) Init() tea.Cmd {
	return m.filePicker.Init()
}

func (m ImportModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyEsc {
			return m.handleEsc()
		}

		switch m.state {
		case importStateBankSelect:
			return m.updateBankSelect(msg)
		case importStateResult:
			var cmd tea.Cmd
			m.errorList, cmd = m.errorList.Update(msg)

			return m, cmd
		}

	case importResultMsg:
		m.state = importStateResult
		if msg.err != nil {
			m.err = msg.err
			m.status = fmt.Sprintf("Error: %v", msg.err)

			return m, nil
		}

		m.batch = msg.batch
		m.status = summarize(msg.batch)

		items := make([]list.Item, len(msg.batch.Errors))
		for i, e := range msg.batch.Errors {
			items[i] = itemErrorItem{err: e}
		}

		m.errorList = list.New(items, itemErrorDelegate{}, 80, 12)
		m.errorList.Title = "Rejected rows"
		m.errorList.SetShowStatusBar(false)
		m.errorList.SetFilteringEnabled(false)
		m.errorList.SetShowHelp(false)

		return m, nil
	}

	if m.state != importStateFilePick {
		return m, nil
	}

	var cmd tea.Cmd
	m.filePicker, cmd = m.filePicker.Update(msg)

	if didSelect, path := m.filePicker.DidSelectFile(msg); didSelect {
		m.state = importStateImporting
		m.status = fmt.Sprintf("Importing from %s...", path)

		return m, m.importCmd(path)
	}

	return m, cmd
}

func (m ImportModel) handleEsc() (tea.Model, tea.Cmd) {
	switch m.state {
	case importStateFilePick:
		m.state = importStateBankSelect
		return m, nil
	case importStateResult:
		m.state = importStateBankSelect
		m.err = nil
		m.batch = nil
		m.status = ""

		return m, nil
	}

	return m, Back
}

func (m ImportModel) updateBankSelect(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyUp:
		if m.bankCursor > 0 {
			m.bankCursor--
		}
	case tea.KeyDown:
		if m.bankCursor < len(m.bankOptions)-1 {
			m.bankCursor++
		}
	case tea.KeyEnter:
		if len(m.bankOptions) == 0 {
			return m, nil
		}

		m.selectedBank = m.bankOptions[m.bankCursor]
		m.state = importStateFilePick

		return m, m.filePicker.Init()
	}

	return m, nil
}

func (m ImportModel) View() string {
	switch m.state {
	case importStateBankSelect:
		return m.viewBankSelect()
	case importStateFilePick:
		return lipgloss.NewStyle().Padding(1).Render(
			fmt.Sprintf("Select file to import (%s):\n\n%s", m.selectedBank, m.filePicker.View()),
		)
	case importStateImporting:
		return lipgloss.NewStyle().Padding(2).Render(m.status)
	case importStateResult:
		return m.viewResult()
	}

	return ""
}

func (m ImportModel) viewBankSelect() string {
	s := "Select Bank:\n\n"

	for i, bank := range m.bankOptions {
		cursor := " "
		if i == m.bankCursor {
			cursor = ">"
		}

		s += fmt.Sprintf("%s %s\n", cursor, string(bank))
	}

	return lipgloss.NewStyle().Padding(2).Render(s)
}

func (m ImportModel) viewResult() string {
	style := lipgloss.NewStyle().Padding(2)
	if m.err != nil {
		return style.Render(
			lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render(m.status) +
				"\n\n(Esc to go back)",
		)
	}

	content := lipgloss.NewStyle().Foreground(lipgloss.Color("46")).Render(m.status)

	if m.batch != nil && len(m.batch.Errors) > 0 {
		content += "\n\n" + m.errorList.View()

		if m.batch.ErrorsDropped > 0 {
			content += fmt.Sprintf("\n...and %d more", m.batch.ErrorsDropped)
		}
	}

	return style.Render(content + "\n\n(Esc to go back)")
}

func summarize(b *ingest.Batch) string {
	s := fmt.Sprintf("Batch %s: %d rows, %d staged for review, %d duplicates, %d failed.",
		b.ID, b.Total, b.Staged, b.Duplicate, b.Failed)

	if b.Canceled {
		s += " Import was interrupted."
	}

	return s
}

type importResultMsg struct {
	batch *ingest.Batch
	err   error
}

func (m ImportModel) importCmd(path string) tea.Cmd {
	return func() tea.Msg {
		f, err := os.Open(path)
		if err != nil {
			return importResultMsg{err: err}
		}
		defer f.Close()

		records, err := m.importService.Import(m.selectedBank, f)
		if err != nil {
			return importResultMsg{err: err}
		}

		ctx, cancel := context.WithTimeout(m.ctx, importTimeout)
		defer cancel()

		batch, err := m.ingestService.IngestBatch(ctx, ingest.BatchRequest{
			ID:      fmt.Sprintf("%s-%s-%d", m.selectedBank, filepath.Base(path), time.Now().Unix()),
			Source:  candidate.SourceDocumentScan,
			OwnerID: m.ownerID,
			Records: records,
		})

		return importResultMsg{batch: batch, err: err}
	}
}

type itemErrorItem struct {
	err ingest.ItemError
}

func (i itemErrorItem) Title() string       { return i.err.SourceRef }
func (i itemErrorItem) Description() string { return i.err.Reason }
func (i itemErrorItem) FilterValue() string { return i.err.SourceRef }

type itemErrorDelegate struct{}

func (d itemErrorDelegate) Height() int                             { return 1 }
func (d itemErrorDelegate) Spacing() int                            { return 0 }
func (d itemErrorDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d itemErrorDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	item, ok := listItem.(itemErrorItem)
	if !ok {
		return
	}

	cursor := "  "
	if index == m.Index() {
		cursor = "> "
	}

	ref := item.err.SourceRef
	if ref == "" {
		ref = fmt.Sprintf("#%d", item.err.Index)
	}

	fmt.Fprintf(w, "%s%s  %s", cursor, ref,
		lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render(item.err.Reason))
}
