package ui

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/notify-center/internal/theme"
)

// Layout manages the terminal frame: header, content, an optional toast
// line, and the status bar.
type Layout struct {
	Width           int
	Height          int
	HeaderHeight    int
	ToastHeight     int
	StatusBarHeight int
}

// NewLayout creates a Layout with the given terminal dimensions.
func NewLayout(width, height int) Layout {
	return Layout{
		Width:           width,
		Height:          height,
		HeaderHeight:    1,
		ToastHeight:     1,
		StatusBarHeight: 1,
	}
}

// ContentWidth returns the full available width.
func (l Layout) ContentWidth() int {
	return l.Width
}

// ContentHeight returns the height available for the main content area,
// accounting for the header, toast line, and status bar.
func (l Layout) ContentHeight() int {
	return l.Height - l.HeaderHeight - l.ToastHeight - l.StatusBarHeight
}

// RenderHeader renders the top header bar with a title, an unread badge,
// and the push channel status on the right.
func (l Layout) RenderHeader(title string, unread int, connStatus string) string {
	titleRendered := theme.HeaderStyle.Render(title)

	badge := ""
	if unread > 0 {
		badge = theme.UnreadBadgeStyle.Render(formatUnread(unread))
	}

	statusRendered := theme.HeaderStyle.
		Align(lipgloss.Right).
		Render(connStatus)

	gap := l.Width -
		lipgloss.Width(titleRendered) -
		lipgloss.Width(badge) -
		lipgloss.Width(statusRendered)
	if gap < 0 {
		gap = 0
	}

	filler := theme.HeaderStyle.Render(
		lipgloss.NewStyle().
			Width(gap).
			Background(theme.HeaderStyle.GetBackground()).
			Render(""),
	)

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		titleRendered,
		badge,
		filler,
		statusRendered,
	)
}

// RenderToastLine renders the transient alert row. An empty toast yields
// a blank line so the frame height stays stable.
func (l Layout) RenderToastLine(toast string) string {
	if toast == "" {
		return lipgloss.NewStyle().Width(l.Width).Render("")
	}
	rendered := theme.ToastStyle.Render(toast)
	if lipgloss.Width(rendered) > l.Width {
		rendered = theme.ToastStyle.MaxWidth(l.Width).Render(toast)
	}
	return rendered
}

// RenderStatusBar renders the bottom status bar with keyboard hints.
func (l Layout) RenderStatusBar(hints string) string {
	rendered := theme.StatusBarStyle.Render(hints)

	gap := l.Width - lipgloss.Width(rendered)
	if gap < 0 {
		gap = 0
	}

	filler := theme.StatusBarStyle.Render(
		lipgloss.NewStyle().
			Width(gap).
			Background(theme.StatusBarStyle.GetBackground()).
			Render(""),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, rendered, filler)
}

// RenderWithFrame composes a full terminal view by vertically joining
// the header, content area, toast line, and status bar.
func (l Layout) RenderWithFrame(
	header string,
	content string,
	toast string,
	statusBar string,
) string {
	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		content,
		l.RenderToastLine(toast),
		statusBar,
	)
}

// formatUnread caps the badge text so huge counts stay readable.
func formatUnread(n int) string {
	if n > 99 {
		return "99+"
	}
	return strconv.Itoa(n)
}
