package tui

import "github.com/mono-yamamoto/Chumo-task-management-tool-sub000/internal/models"

// Color constants for the chumo TUI theme
const (
	// Base Colors
	ColorBorder = "#3A3F55" // Grey-blue

	// Text Colors
	ColorPrimaryText   = "#E6EAF2" // Titles, values
	ColorSecondaryText = "#B1B8C7" // Labels, metadata
	ColorDisabledText  = "#6D7383" // Empty values
	ColorPlaceholder   = "#B1B8C7"
	ColorHelpText      = "240" // Help bar

	// Accent Colors
	ColorAccentMain   = "#7C3AED" // Logo, active borders
	ColorAccentBright = "#A78BFA" // Highlights, running timer

	// State Colors
	ColorError   = "#EF4444"
	ColorSuccess = "#22C55E" // 完了
	ColorWarning = "#F59E0B" // New tasks, stale notices
	ColorInfo    = "#38BDF8" // 進行中
)

// statusColor returns the color for a task status.
func statusColor(status string) string {
	switch status {
	case models.StatusDone:
		return ColorSuccess
	case "進行中":
		return ColorInfo
	case "確認待ち":
		return ColorWarning
	default:
		return ColorSecondaryText
	}
}
