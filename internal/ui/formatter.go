package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/notexe/todo-alarm/internal/reminder"
)

var (
	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("203")). // Coral red
			Bold(true)

	InfoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("222")) // Warm yellow

	SystemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("183")). // Soft purple
			Italic(true)

	HeaderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("81")).
			Bold(true)

	DimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("114")). // Green
			Bold(true)

	TimeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("147")) // Light purple

	TitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	DoneStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Strikethrough(true)

	RingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("215")). // Orange
			Bold(true)

	BannerStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color("203")).
			Padding(0, 2)
)

type Formatter struct {
	colored bool
}

func NewFormatter(colored bool) *Formatter {
	return &Formatter{colored: colored}
}

func (f *Formatter) render(style lipgloss.Style, s string) string {
	if !f.colored {
		return s
	}
	return style.Render(s)
}

func (f *Formatter) FormatError(err error) string {
	return f.render(ErrorStyle, "Error: ") + err.Error()
}

func (f *Formatter) FormatInfo(info string) string {
	return f.render(InfoStyle, info)
}

func (f *Formatter) FormatSystem(msg string) string {
	return f.render(SystemStyle, msg)
}

// FormatList renders the reminders with 1-based positions. ringingID
// marks the reminder that is ringing, if any.
func (f *Formatter) FormatList(reminders []reminder.Reminder, ringingID string) string {
	if len(reminders) == 0 {
		return f.render(DimStyle, "No reminders yet. Add one with /add HH:MM <title>.")
	}

	var sb strings.Builder
	sb.WriteString(f.render(HeaderStyle, "Reminders"))
	sb.WriteString("\n")

	for i, r := range reminders {
		box := "[ ]"
		title := f.render(TitleStyle, r.Title)
		if r.Completed {
			box = "[x]"
			title = f.render(DoneStyle, r.Title)
		}

		line := fmt.Sprintf("%3d. %s %s  %s", i+1, box, f.render(TimeStyle, r.Time), title)
		if r.ID == ringingID {
			line += "  " + f.render(RingStyle, "🔔 ringing")
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}

	return strings.TrimRight(sb.String(), "\n")
}

// FormatRinging renders the banner shown when a reminder starts ringing.
func (f *Formatter) FormatRinging(r reminder.Reminder) string {
	text := fmt.Sprintf("⏰ %s  %s\nType /dismiss to stop the alarm", r.Time, r.Title)
	if !f.colored {
		return "\n" + text + "\n"
	}
	return "\n" + BannerStyle.Render(RingStyle.Render(fmt.Sprintf("⏰ %s  %s", r.Time, r.Title))+"\n"+
		DimStyle.Render("Type /dismiss to stop the alarm")) + "\n"
}

func (f *Formatter) FormatDismissed(r reminder.Reminder) string {
	name := r.Title
	if name == "" {
		name = r.ID
	}
	return f.render(SuccessStyle, "✓ ") + fmt.Sprintf("Dismissed %q, marked as done.", name)
}

func (f *Formatter) FormatWelcome(count int, storage string) string {
	title := f.render(HeaderStyle, "todo-alarm")
	lines := []string{
		"",
		title + " " + f.render(DimStyle, "daily reminders with an alarm"),
		f.render(DimStyle, "Storage: ") + storage,
		f.render(DimStyle, "Reminders: ") + fmt.Sprint(count),
		f.render(DimStyle, "Type /help for commands"),
		"",
	}
	if f.colored {
		return lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1).
			Render(strings.Join(lines[1:len(lines)-1], "\n")) + "\n"
	}
	return strings.Join(lines, "\n")
}

const helpMarkdown = `# Commands

| Command | Description |
|---|---|
| ` + "`/add HH:MM <title>`" + ` | Add a daily reminder |
| ` + "`/list`" + ` | Show reminders |
| ` + "`/done [n]`" + ` | Mark reminder n as done |
| ` + "`/undo [n]`" + ` | Mark reminder n as not done (re-arms it) |
| ` + "`/toggle [n]`" + ` | Flip reminder n |
| ` + "`/edit n [HH:MM] [title]`" + ` | Change time and/or title |
| ` + "`/delete [n]`" + ` | Delete reminder n |
| ` + "`/dismiss`" + ` | Stop the ringing alarm and mark it done |
| ` + "`/status`" + ` | Engine status |
| ` + "`/quit`" + ` | Exit |

Without *n* an interactive picker opens. A reminder rings once when the
clock reaches its time; it rings again only after it is unchecked.
`

func (f *Formatter) FormatHelp() string {
	if !f.colored {
		return helpMarkdown
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return helpMarkdown
	}

	rendered, err := renderer.Render(helpMarkdown)
	if err != nil {
		return helpMarkdown
	}
	return rendered
}
