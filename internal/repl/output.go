package repl

import (
	"fmt"

	"github.com/notexe/todo-alarm/internal/alarm"
)

func (r *REPL) println(s string) {
	r.outMu.Lock()
	defer r.outMu.Unlock()
	fmt.Fprintln(r.out, s)
}

func (r *REPL) displayError(err error) {
	r.println(r.formatter.FormatError(err))
}

func (r *REPL) displayWelcome() {
	r.println(r.formatter.FormatWelcome(len(r.engine.Reminders()), r.storage))
}

func (r *REPL) displayHelp() {
	r.println(r.formatter.FormatHelp())
}

func (r *REPL) displayList() {
	ringingID, _ := alarm.RingingID(r.engine.State())
	r.println(r.formatter.FormatList(r.engine.Reminders(), ringingID))
}

func (r *REPL) displayInfo(msg string) {
	r.println(r.formatter.FormatInfo(msg))
}

func (r *REPL) displaySystem(msg string) {
	r.println(r.formatter.FormatSystem(msg))
}
