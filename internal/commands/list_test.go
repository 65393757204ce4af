package commands

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mono-yamamoto/Chumo-task-management-tool-sub000/internal/models"
	"github.com/mono-yamamoto/Chumo-task-management-tool-sub000/internal/ordering"
)

func TestPad(t *testing.T) {
	assert.Equal(t, "abc  ", pad("abc", 5))
	assert.Equal(t, "abcde", pad("abcdefg", 5))

	// Wide runes take two cells.
	got := pad("運用レポート", 5)
	assert.Equal(t, 5, lipgloss.Width(got))
	assert.Equal(t, "運用 ", got)
}

func TestListFilters(t *testing.T) {
	cmd := &cobra.Command{Use: "ls"}
	cmd.Flags().String("status", "", "")
	cmd.Flags().String("assignee", "", "")
	cmd.Flags().String("label", "", "")
	cmd.Flags().String("timer", "", "")
	cmd.Flags().String("title", "", "")
	cmd.Flags().String("it-up-month", "", "")
	cmd.Flags().String("release-month", "", "")
	cmd.Flags().String("sort", "", "")
	require.NoError(t, cmd.Flags().Parse([]string{
		"--status", "not-completed", "--timer", "inactive", "--it-up-month", "2025-06", "--sort", "itUpDate-desc",
	}))

	f, mode, err := listFilters(cmd)
	require.NoError(t, err)
	assert.Equal(t, ordering.StatusNotCompleted, f.Status)
	assert.Equal(t, ordering.TimerInactive, f.Timer)
	assert.Equal(t, "2025-06", f.ITUpMonth)
	assert.Equal(t, ordering.SortITUpDesc, mode)

	require.NoError(t, cmd.Flags().Set("sort", "newest"))
	_, _, err = listFilters(cmd)
	assert.ErrorIs(t, err, models.ErrInvalidFilter)

	require.NoError(t, cmd.Flags().Set("sort", ""))
	require.NoError(t, cmd.Flags().Set("it-up-month", "June"))
	_, _, err = listFilters(cmd)
	assert.ErrorIs(t, err, models.ErrInvalidFilter)
}
