// Package tui is a terminal chat client for the chatbot backend.
package tui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// Run starts the chat client and blocks until the user quits or ctx is done
func Run(ctx context.Context, backend Backend, userID, title string) error {
	model := NewChatModel(ctx, backend, userID, title)

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("chat client failed: %w", err)
	}
	return nil
}
