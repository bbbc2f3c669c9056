package theme

import "github.com/charmbracelet/lipgloss"

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue    = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorGreen   = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorYellow  = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed     = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorOrange  = lipgloss.AdaptiveColor{Dark: "#FFA94D", Light: "#C05621"}
	ColorMagenta = lipgloss.AdaptiveColor{Dark: "#CC5DE8", Light: "#805AD5"}
	ColorGray    = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorWhite   = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
	ColorSubtle  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#CBD5E0"}
	ColorBorder  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"}
)

// HeaderStyle is used for top-level section headers and the application title.
var HeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorBlue).
	Padding(0, 1)

// StatusBarStyle is used for the bottom status bar.
var StatusBarStyle = lipgloss.NewStyle().
	Foreground(ColorWhite).
	Background(ColorSubtle).
	Padding(0, 1)

// DetailPanelStyle wraps the detail view content area.
var DetailPanelStyle = lipgloss.NewStyle().
	Padding(1, 2).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// ListItemStyle is the base style for items in a list.
var ListItemStyle = lipgloss.NewStyle().
	PaddingLeft(2)

// SelectedItemStyle highlights the currently focused list item.
var SelectedItemStyle = lipgloss.NewStyle().
	PaddingLeft(1).
	Bold(true).
	Foreground(ColorBlue).
	Border(lipgloss.NormalBorder(), false, false, false, true).
	BorderForeground(ColorBlue)

// HelpStyle is used for keyboard shortcut hints and help text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Italic(true)


// UnreadBadgeStyle highlights the unread counter in headers.
var UnreadBadgeStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorRed).
	Padding(0, 1)

// ToastStyle renders the transient new-notification alert.
var ToastStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorBlue).
	Padding(0, 1)

// ErrorStyle renders surfaced operation errors.
var ErrorStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorRed)

// UnreadMarkerStyle renders the dot next to unread list items.
var UnreadMarkerStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorBlue)

// TypeStyle returns a color-coded style for a notification type tag.
func TypeStyle(typeTag string) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true).Padding(0, 1)

	switch typeTag {
	case "COMMISSION_EARNED", "PAYMENT_APPROVED":
		return base.Foreground(ColorGreen)
	case "PAYMENT_REJECTED":
		return base.Foreground(ColorRed)
	case "MEMBERSHIP_EXPIRING":
		return base.Foreground(ColorOrange)
	case "RANK_ACHIEVED":
		return base.Foreground(ColorMagenta)
	case "VOLUME_ADDED", "POINTS_MOVEMENT":
		return base.Foreground(ColorYellow)
	case "SYSTEM_ANNOUNCEMENT":
		return base.Foreground(ColorBlue)
	default:
		return base.Foreground(ColorGray)
	}
}

// TypeLabel returns the short human label for a notification type tag.
func TypeLabel(typeTag string) string {
	switch typeTag {
	case "VOLUME_ADDED":
		return "volume"
	case "COMMISSION_EARNED":
		return "commission"
	case "RANK_ACHIEVED":
		return "rank"
	case "PAYMENT_APPROVED":
		return "payment ✓"
	case "PAYMENT_REJECTED":
		return "payment ✗"
	case "MEMBERSHIP_EXPIRING":
		return "membership"
	case "POINTS_MOVEMENT":
		return "points"
	case "SYSTEM_ANNOUNCEMENT":
		return "announcement"
	default:
		return "notice"
	}
}

// DimmedStyle de-emphasizes already-read notifications.
var DimmedStyle = lipgloss.NewStyle().
	Foreground(ColorGray)
