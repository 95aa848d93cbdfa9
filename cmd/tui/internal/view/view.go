package view

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
)

// View is the interface that all TUI screens implement.
type View interface {
	tea.Model
	Title() string
	ShortHelp() string
}

// CommonModel is embedded by all views.
type CommonModel struct {
	ctx     context.Context
	ownerID string
}

func NewCommonModel(ctx context.Context, ownerID string) CommonModel {
	return CommonModel{ctx: ctx, ownerID: ownerID}
}

// opCtx returns a context with the standard timeout for store operations.
func (c CommonModel) opCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.ctx, opTimeout)
}

type BackMsg struct{}

func Back() tea.Msg {
	return BackMsg{}
}
