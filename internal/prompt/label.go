package prompt

import "strings"

const (
	boldOnMarkupConstant        = "%B"
	boldOffMarkupConstant       = "%b"
	colorOnMarkupPrefixConstant = "%F{"
	colorOnMarkupSuffixConstant = "}"
	colorOffMarkupConstant      = "%f"
)

// Color names a zsh foreground color.
type Color string

// Colors used by the status labels.
const (
	ColorNone    Color = Color("")
	ColorRed     Color = Color("red")
	ColorYellow  Color = Color("yellow")
	ColorBlue    Color = Color("blue")
	ColorMagenta Color = Color("magenta")
)

// StatusLabel is a piece of prompt text with optional presentation attributes.
type StatusLabel struct {
	Text  string
	Bold  bool
	Color Color
}

// Render wraps the label text in zsh prompt escapes. Bold and color markers are emitted only when set.
func (label StatusLabel) Render() string {
	var builder strings.Builder

	if label.Bold {
		builder.WriteString(boldOnMarkupConstant)
	}
	if label.Color != ColorNone {
		builder.WriteString(colorOnMarkupPrefixConstant)
		builder.WriteString(string(label.Color))
		builder.WriteString(colorOnMarkupSuffixConstant)
	}

	builder.WriteString(label.Text)

	if label.Color != ColorNone {
		builder.WriteString(colorOffMarkupConstant)
	}
	if label.Bold {
		builder.WriteString(boldOffMarkupConstant)
	}

	return builder.String()
}

// String returns the rendered markup.
func (label StatusLabel) String() string {
	return label.Render()
}
