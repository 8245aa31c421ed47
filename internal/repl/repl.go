package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/chzyer/readline"
	"github.com/notexe/todo-alarm/internal/alarm"
	"github.com/notexe/todo-alarm/internal/reminder"
	"github.com/notexe/todo-alarm/internal/ui"
)

// errQuit ends the read loop.
var errQuit = errors.New("quit")

// REPL is the presentation surface of the engine: the creation form, the
// list, and the ringing banner.
type REPL struct {
	engine    *alarm.Engine
	formatter *ui.Formatter
	colored   bool
	storage   string
	rl        *readline.Instance

	outMu sync.Mutex
	out   io.Writer

	// pick chooses a reminder when a command omits its position.
	pick func(question string, reminders []reminder.Reminder) (int, error)
}

// NewREPL creates a REPL over engine and subscribes it to ring events.
// storage is shown in the welcome box.
func NewREPL(engine *alarm.Engine, colored bool, storage string) (*REPL, error) {
	rl, err := setupReadline()
	if err != nil {
		return nil, fmt.Errorf("failed to setup readline: %w", err)
	}

	r := newREPL(engine, rl.Stdout(), colored, storage)
	r.rl = rl
	engine.Subscribe(r)
	return r, nil
}

func newREPL(engine *alarm.Engine, out io.Writer, colored bool, storage string) *REPL {
	return &REPL{
		engine:    engine,
		formatter: ui.NewFormatter(colored),
		colored:   colored,
		storage:   storage,
		out:       out,
		pick: func(question string, reminders []reminder.Reminder) (int, error) {
			return ui.NewPicker(question, reminders, colored).Run()
		},
	}
}

func (r *REPL) Start(ctx context.Context) error {
	defer r.rl.Close()

	r.displayWelcome()
	r.displayList()

	for {
		if ctx.Err() != nil {
			return nil
		}

		input, err := r.readInput()
		if err != nil {
			if isEOF(err) {
				r.println("\nGoodbye!")
				return nil
			}
			return fmt.Errorf("failed to read input: %w", err)
		}

		if input == "" {
			continue
		}

		if err := r.Execute(input); err != nil {
			if errors.Is(err, errQuit) {
				r.println("\nGoodbye!")
				return nil
			}
			r.displayError(err)
		}
	}
}

func (r *REPL) Stop() {
	if r.rl != nil {
		r.rl.Close()
	}
}

// Execute runs one line of input.
func (r *REPL) Execute(input string) error {
	isCommand, command, args := parseCommand(input)
	if !isCommand {
		return fmt.Errorf("commands start with / (type /help for available commands)")
	}
	return r.handleCommand(command, args)
}

func (r *REPL) handleCommand(command, args string) error {
	switch command {
	case "/help", "/h":
		r.displayHelp()
		return nil

	case "/add", "/a":
		return r.handleAdd(args)

	case "/list", "/ls", "/l":
		r.displayList()
		return nil

	case "/done", "/d":
		return r.handleSetCompleted(args, true)

	case "/undo", "/u":
		return r.handleSetCompleted(args, false)

	case "/toggle", "/t":
		target, _, err := r.resolve(args, "Toggle which reminder?")
		if err != nil {
			return err
		}
		updated, err := r.engine.Toggle(target.ID)
		if err != nil {
			return err
		}
		state := "not done"
		if updated.Completed {
			state = "done"
		}
		r.displaySystem(fmt.Sprintf("%q marked as %s.", updated.Title, state))
		return nil

	case "/edit", "/e":
		return r.handleEdit(args)

	case "/delete", "/del", "/rm":
		target, _, err := r.resolve(args, "Delete which reminder?")
		if err != nil {
			return err
		}
		if err := r.engine.Delete(target.ID); err != nil {
			return err
		}
		r.displaySystem(fmt.Sprintf("Deleted %q.", target.Title))
		return nil

	case "/dismiss", "/stop", "/x":
		dismissed, ok := r.engine.Dismiss()
		if !ok {
			r.displayInfo("Nothing is ringing.")
			return nil
		}
		r.println(r.formatter.FormatDismissed(dismissed))
		return nil

	case "/status":
		r.displayInfo(r.engine.String())
		if ringing, ok := r.engine.RingingReminder(); ok {
			r.displayInfo(fmt.Sprintf("Ringing: %s %s", ringing.Time, ringing.Title))
		}
		return nil

	case "/quit", "/exit", "/q":
		return errQuit

	default:
		return fmt.Errorf("unknown command: %s (type /help for available commands)", command)
	}
}

// handleAdd is the creation form: "/add HH:MM <title>".
func (r *REPL) handleAdd(args string) error {
	at, title, _ := strings.Cut(args, " ")
	if at == "" {
		return fmt.Errorf("usage: /add HH:MM <title>")
	}

	draft := reminder.Draft{Title: title, Time: at}
	if err := draft.Validate(); err != nil {
		return fmt.Errorf("usage: /add HH:MM <title>: %w", err)
	}

	added, err := r.engine.Add(draft)
	if err != nil {
		return err
	}
	r.displaySystem(fmt.Sprintf("Added %q at %s.", added.Title, added.Time))
	return nil
}

func (r *REPL) handleSetCompleted(args string, completed bool) error {
	question := "Mark which reminder as done?"
	if !completed {
		question = "Mark which reminder as not done?"
	}

	target, _, err := r.resolve(args, question)
	if err != nil {
		return err
	}

	updated, err := r.engine.SetCompleted(target.ID, completed)
	if err != nil {
		return err
	}
	if completed {
		r.displaySystem(fmt.Sprintf("%q marked as done.", updated.Title))
	} else {
		r.displaySystem(fmt.Sprintf("%q re-armed for %s.", updated.Title, updated.Time))
	}
	return nil
}

// handleEdit parses "/edit n [HH:MM] [title]".
func (r *REPL) handleEdit(args string) error {
	if args == "" {
		return fmt.Errorf("usage: /edit n [HH:MM] [title]")
	}

	target, rest, err := r.resolve(args, "Edit which reminder?")
	if err != nil {
		return err
	}

	var fields reminder.UpdateFields
	first, remainder, _ := strings.Cut(rest, " ")
	if t, err := reminder.ParseTime(first); err == nil {
		fields.Time = &t
		rest = strings.TrimSpace(remainder)
	}
	if rest != "" {
		fields.Title = &rest
	}
	if fields.Time == nil && fields.Title == nil {
		return fmt.Errorf("usage: /edit n [HH:MM] [title]")
	}

	updated, err := r.engine.Update(target.ID, fields)
	if err != nil {
		return err
	}
	r.displaySystem(fmt.Sprintf("Updated: %s %s", updated.Time, updated.Title))
	return nil
}

// resolve turns the leading "n" of args into a reminder, opening the
// picker when args is empty. It returns the remaining arguments.
func (r *REPL) resolve(args, question string) (reminder.Reminder, string, error) {
	reminders := r.engine.Reminders()
	if len(reminders) == 0 {
		return reminder.Reminder{}, "", fmt.Errorf("no reminders yet")
	}

	first, rest, _ := strings.Cut(strings.TrimSpace(args), " ")
	if first == "" {
		i, err := r.pick(question, reminders)
		if err != nil {
			return reminder.Reminder{}, "", err
		}
		return reminders[i], "", nil
	}

	n, err := strconv.Atoi(first)
	if err != nil || n < 1 || n > len(reminders) {
		return reminder.Reminder{}, "", fmt.Errorf("no reminder #%s (1-%d, see /list)", first, len(reminders))
	}
	return reminders[n-1], strings.TrimSpace(rest), nil
}

// Ringing prints the banner. Called by the engine.
func (r *REPL) Ringing(rem reminder.Reminder) {
	r.println(r.formatter.FormatRinging(rem))
}

// Dismissed is reported by the /dismiss handler itself.
func (r *REPL) Dismissed(reminder.Reminder) {}

var _ alarm.Observer = (*REPL)(nil)
