package ui

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/notexe/todo-alarm/internal/reminder"
	"golang.org/x/term"
)

// ErrCancelled is returned when the user leaves the picker without choosing.
var ErrCancelled = errors.New("cancelled")

// Picker is an arrow-key menu over reminders.
type Picker struct {
	question  string
	reminders []reminder.Reminder
	selected  int
	colored   bool
	in        *os.File
	out       io.Writer

	cursorStyle   lipgloss.Style
	selectedStyle lipgloss.Style
	optionStyle   lipgloss.Style
	hintStyle     lipgloss.Style
}

// NewPicker creates a picker reading from stdin and drawing on stdout.
func NewPicker(question string, reminders []reminder.Reminder, colored bool) *Picker {
	return &Picker{
		question:  question,
		reminders: reminders,
		colored:   colored,
		in:        os.Stdin,
		out:       os.Stdout,

		cursorStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true),
		selectedStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("114")).Bold(true),
		optionStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		hintStyle:     lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Italic(true),
	}
}

// Run shows the menu and returns the chosen position (0-based).
func (p *Picker) Run() (int, error) {
	if len(p.reminders) == 0 {
		return -1, errors.New("no reminders to choose from")
	}

	fd := int(p.in.Fd())
	if !term.IsTerminal(fd) {
		return p.runSimple()
	}

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return p.runSimple()
	}
	defer func() {
		term.Restore(fd, oldState)
		fmt.Fprint(p.out, "\033[?25h") // Show cursor
	}()

	fmt.Fprint(p.out, "\033[?25l")
	totalLines := len(p.reminders) + 2
	p.printMenu()

	reader := bufio.NewReader(p.in)
	for {
		b, err := reader.ReadByte()
		if err != nil {
			return -1, err
		}

		switch b {
		case 13, 10: // Enter
			p.clearMenu(totalLines)
			return p.selected, nil
		case 3, 'q': // Ctrl+C
			p.clearMenu(totalLines)
			return -1, ErrCancelled
		case 'j':
			p.move(1)
		case 'k':
			p.move(-1)
		case 27: // Escape sequence
			b2, _ := reader.ReadByte()
			if b2 == '[' {
				b3, _ := reader.ReadByte()
				switch b3 {
				case 'A':
					p.move(-1)
				case 'B':
					p.move(1)
				}
			}
		default:
			if b >= '1' && b <= '9' && int(b-'1') < len(p.reminders) {
				p.clearMenu(totalLines)
				return int(b - '1'), nil
			}
		}

		p.clearMenu(totalLines)
		p.printMenu()
	}
}

func (p *Picker) move(delta int) {
	n := len(p.reminders)
	p.selected = (p.selected + delta + n) % n
}

func (p *Picker) label(r reminder.Reminder) string {
	box := "[ ]"
	if r.Completed {
		box = "[x]"
	}
	return fmt.Sprintf("%s %s  %s", box, r.Time, r.Title)
}

func (p *Picker) printMenu() {
	var sb strings.Builder

	if p.colored {
		sb.WriteString(HeaderStyle.Render(p.question))
		sb.WriteString("\r\n")
		sb.WriteString(p.hintStyle.Render("[j/k or arrows] move  [enter] select  [q] cancel"))
	} else {
		sb.WriteString(p.question)
		sb.WriteString("\r\n")
		sb.WriteString("[j/k or arrows] move  [enter] select  [q] cancel")
	}
	sb.WriteString("\r\n")

	for i, r := range p.reminders {
		cursor := "  "
		label := p.label(r)
		if i == p.selected {
			cursor = "> "
		}

		switch {
		case !p.colored:
			sb.WriteString(cursor + label)
		case i == p.selected:
			sb.WriteString(p.cursorStyle.Render(cursor) + p.selectedStyle.Render(label))
		default:
			sb.WriteString(cursor + p.optionStyle.Render(label))
		}
		sb.WriteString("\r\n")
	}

	fmt.Fprint(p.out, sb.String())
}

func (p *Picker) clearMenu(lines int) {
	for i := 0; i < lines; i++ {
		fmt.Fprint(p.out, "\033[A\033[2K\r")
	}
}

func (p *Picker) runSimple() (int, error) {
	fmt.Fprintln(p.out, p.question)
	for i, r := range p.reminders {
		fmt.Fprintf(p.out, "  [%d] %s\n", i+1, p.label(r))
	}
	fmt.Fprint(p.out, "Enter number: ")

	reader := bufio.NewReader(p.in)
	input, _ := reader.ReadString('\n')
	n, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil || n < 1 || n > len(p.reminders) {
		return -1, ErrCancelled
	}
	return n - 1, nil
}
