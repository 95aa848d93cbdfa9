package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/ledgerflow/cmd/tui/internal/view"
	"github.com/MrJamesThe3rd/ledgerflow/internal/app"
	"github.com/MrJamesThe3rd/ledgerflow/internal/config"
	"github.com/MrJamesThe3rd/ledgerflow/internal/logger"
)

const logFile = "ledgerflow-tui.log"

type model struct {
	common view.CommonModel
	app    *app.App

	currentView View

	reviewView view.ReviewModel
	manualView view.ManualModel
	importView view.ImportModel
	listView   view.ListModel
}

type View int

const (
	ViewMenu   View = 0
	ViewReview View = 1
	ViewManual View = 2
	ViewImport View = 3
	ViewList   View = 4
)

func initialModel(common view.CommonModel, a *app.App) model {
	return model{
		common:      common,
		app:         a,
		currentView: ViewMenu,
		reviewView:  view.NewReviewModel(common, a.Workflow),
		manualView:  view.NewManualModel(common, a.Workflow),
		importView:  view.NewImportModel(common, a.Importer, a.Ingest),
		listView:    view.NewListModel(common, a.Ledger),
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		if m.currentView == ViewMenu {
			switch msg.String() {
			case "q":
				return m, tea.Quit
			case "1":
				m.currentView = ViewReview
				m.reviewView = view.NewReviewModel(m.common, m.app.Workflow)

				return m, m.reviewView.Init()
			case "2":
				m.currentView = ViewManual
				m.manualView = view.NewManualModel(m.common, m.app.Workflow)

				return m, m.manualView.Init()
			case "3":
				m.currentView = ViewImport
				return m, m.importView.Init()
			case "4":
				m.currentView = ViewList
				m.listView = view.NewListModel(m.common, m.app.Ledger)

				return m, m.listView.Init()
			}
		}
	case view.BackMsg:
		m.currentView = ViewMenu
		return m, nil
	}

	switch m.currentView {
	case ViewReview:
		var newModel tea.Model
		newModel, cmd = m.reviewView.Update(msg)
		m.reviewView = newModel.(view.ReviewModel)
	case ViewManual:
		var newModel tea.Model
		newModel, cmd = m.manualView.Update(msg)
		m.manualView = newModel.(view.ManualModel)
	case ViewImport:
		var newModel tea.Model
		newModel, cmd = m.importView.Update(msg)
		m.importView = newModel.(view.ImportModel)
	case ViewList:
		var newModel tea.Model
		newModel, cmd = m.listView.Update(msg)
		m.listView = newModel.(view.ListModel)
	}

	return m, cmd
}

func (m model) View() string {
	switch m.currentView {
	case ViewMenu:
		return lipgloss.NewStyle().Padding(2).Render(
			"Ledgerflow\n\n" +
				"1. Review Pending Transactions\n" +
				"2. Add Transaction Manually\n" +
				"3. Import Bank Statement\n" +
				"4. Browse Ledger\n\n" +
				"q. Quit",
		)
	case ViewReview:
		return m.reviewView.View()
	case ViewManual:
		return m.manualView.View()
	case ViewImport:
		return m.importView.View()
	case ViewList:
		return m.listView.View()
	}

	return "Unknown View"
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if cfg.App.OwnerID == "" {
		fmt.Fprintln(os.Stderr, "OWNER_ID is required")
		os.Exit(1)
	}

	f, err := tea.LogToFile(logFile, "")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open log file: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	log := logger.NewWithWriter(f).Level(logger.ParseLevel(cfg.App.LogLevel))
	ctx := logger.WithContext(context.Background(), log)

	a, err := app.Open(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open storage: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	p := tea.NewProgram(initialModel(view.NewCommonModel(ctx, cfg.App.OwnerID), a))
	if _, err := p.Run(); err != nil {
		log.Error().Err(err).Msg("failed to run TUI")
		fmt.Fprintf(os.Stderr, "failed to run TUI: %v\n", err)
		os.Exit(1)
	}
}
