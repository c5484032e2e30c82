// Package theme holds the colors and styles shared by the views.
package theme

import "github.com/charmbracelet/lipgloss"

var (
	Accent = lipgloss.Color("#7C5CFF")
	NewHue = lipgloss.Color("#32CD32")

	// DepthColors cycles through these for nested post and comment bars.
	DepthColors = []lipgloss.Color{
		"#7C5CFF", // violet
		"#828282", // gray
		"#00BFFF", // deep sky blue
		"#32CD32", // lime green
		"#FFD700", // gold
		"#FF69B4", // hot pink
		"#FF8C00", // dark orange
		"#20B2AA", // light sea green
	}

	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF"))

	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Padding(0, 1)

	MetaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#828282"))

	AuthorStyle = lipgloss.NewStyle().
			Foreground(Accent).
			Bold(true)

	CommentAuthorStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#00BFFF"))

	OwnBadgeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#000000")).
			Background(Accent).
			Bold(true)

	NewBadgeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#000000")).
			Background(NewHue).
			Bold(true)

	CategoryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD700"))

	WarningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF4500")).
			Bold(true)

	SelectedStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#333333"))

	SeparatorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#444444"))

	FilterOnStyle = lipgloss.NewStyle().
			Background(Accent).
			Foreground(lipgloss.Color("#FFFFFF")).
			Padding(0, 1)

	FilterOffStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#555555")).
			Foreground(lipgloss.Color("#999999")).
			Strikethrough(true).
			Padding(0, 1)

	StatusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#333333")).
			Foreground(lipgloss.Color("#FFFFFF"))

	StatusBarActive = lipgloss.NewStyle().
			Background(Accent).
			Foreground(lipgloss.Color("#FFFFFF")).
			Bold(true).
			Padding(0, 1)

	StatusBarText = lipgloss.NewStyle().
			Background(lipgloss.Color("#333333")).
			Foreground(lipgloss.Color("#AAAAAA")).
			Padding(0, 1)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000"))

	ErrorBadge = lipgloss.NewStyle().
			Background(lipgloss.Color("#8B0000")).
			Foreground(lipgloss.Color("#FFFFFF")).
			Bold(true).
			Padding(0, 1)

	NewItemsBadge = lipgloss.NewStyle().
			Background(NewHue).
			Foreground(lipgloss.Color("#000000")).
			Bold(true).
			Padding(0, 1)

	DimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// DepthColor returns the bar color for a nesting depth.
func DepthColor(depth int) lipgloss.Color {
	if depth < 0 {
		depth = 0
	}
	return DepthColors[depth%len(DepthColors)]
}
