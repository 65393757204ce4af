// Package tui holds the bubbletea views: the running timer and the ordered
// task list.
package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mono-yamamoto/Chumo-task-management-tool-sub000/internal/models"
)

// RunList runs the task list until the user quits.
func RunList(ctx context.Context, tasks []models.Task, deps ListDeps) error {
	p := tea.NewProgram(NewListModel(ctx, tasks, deps), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
