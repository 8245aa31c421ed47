package repl

import (
	"io"
	"strings"

	"github.com/chzyer/readline"
)

func (r *REPL) readInput() (string, error) {
	line, err := r.rl.Readline()
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(line), nil
}

func parseCommand(input string) (bool, string, string) {
	if !strings.HasPrefix(input, "/") {
		return false, "", ""
	}

	parts := strings.SplitN(input, " ", 2)
	command := strings.ToLower(parts[0])

	args := ""
	if len(parts) > 1 {
		args = strings.TrimSpace(parts[1])
	}

	return true, command, args
}

var completer = readline.NewPrefixCompleter(
	readline.PcItem("/add"),
	readline.PcItem("/list"),
	readline.PcItem("/done"),
	readline.PcItem("/undo"),
	readline.PcItem("/toggle"),
	readline.PcItem("/edit"),
	readline.PcItem("/delete"),
	readline.PcItem("/dismiss"),
	readline.PcItem("/status"),
	readline.PcItem("/help"),
	readline.PcItem("/quit"),
)

func setupReadline() (*readline.Instance, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:              "todo> ",
		HistoryFile:         "",
		AutoComplete:        completer,
		InterruptPrompt:     "^C",
		EOFPrompt:           "exit",
		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	})

	return rl, err
}

func filterInput(r rune) (rune, bool) {
	switch r {
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

func isEOF(err error) bool {
	return err == io.EOF || err == readline.ErrInterrupt
}
