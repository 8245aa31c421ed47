package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/notexe/todo-alarm/internal/alarm"
)

// CommandPlayer plays the resource by running an external program, e.g.
// "paplay {file}" or "afplay {file}", again and again until stopped.
// Every run starts at the beginning of the file.
type CommandPlayer struct {
	name string
	args []string
	// pause between runs
	gap time.Duration
}

// NewCommandPlayer splits command on whitespace and substitutes {file}.
func NewCommandPlayer(command, file string) (*CommandPlayer, error) {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return nil, errors.New("empty audio command")
	}

	args := make([]string, 0, len(fields)-1)
	substituted := false
	for _, f := range fields[1:] {
		if strings.Contains(f, "{file}") {
			f = strings.ReplaceAll(f, "{file}", file)
			substituted = true
		}
		args = append(args, f)
	}
	if !substituted {
		args = append(args, file)
	}

	return &CommandPlayer{name: fields[0], args: args, gap: 200 * time.Millisecond}, nil
}

func (p *CommandPlayer) Play(ctx context.Context) error {
	for {
		cmd := exec.CommandContext(ctx, p.name, p.args...)
		err := cmd.Run()
		if ctx.Err() != nil {
			return alarm.ErrAborted
		}
		if err != nil {
			return fmt.Errorf("audio command %s: %w", p.name, err)
		}

		select {
		case <-ctx.Done():
			return alarm.ErrAborted
		case <-time.After(p.gap):
		}
	}
}

// Rewind is a no-op: the next Play spawns a fresh process.
func (p *CommandPlayer) Rewind() {}

// BellPlayer rings the terminal bell on an interval. It needs no audio
// file and is the fallback when no command is configured.
type BellPlayer struct {
	out      io.Writer
	interval time.Duration

	mu    sync.Mutex
	rings int
}

func NewBellPlayer(out io.Writer, interval time.Duration) *BellPlayer {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &BellPlayer{out: out, interval: interval}
}

func (p *BellPlayer) Play(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		if err := p.ring(); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return alarm.ErrAborted
		case <-ticker.C:
		}
	}
}

func (p *BellPlayer) ring() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, err := io.WriteString(p.out, "\a"); err != nil {
		return fmt.Errorf("failed to ring bell: %w", err)
	}
	p.rings++
	return nil
}

// Rings returns how many times the bell rang since the last Rewind.
func (p *BellPlayer) Rings() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rings
}

func (p *BellPlayer) Rewind() {
	p.mu.Lock()
	p.rings = 0
	p.mu.Unlock()
}

// NewPlayer picks the command player when a command is configured and
// the resource is ready; otherwise the bell.
func NewPlayer(command string, res *Resource, out io.Writer, bellInterval time.Duration) alarm.Player {
	if command != "" && res.Ready() {
		if p, err := NewCommandPlayer(command, res.Path); err == nil {
			return p
		}
	}
	return NewBellPlayer(out, bellInterval)
}
