package alarm

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/notexe/todo-alarm/internal/reminder"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(hhmm string) *fakeClock {
	c := &fakeClock{}
	c.Set(hhmm)
	return c
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set moves the clock to hhmm on the current day.
func (c *fakeClock) Set(hhmm string) {
	t, err := time.ParseInLocation("15:04", hhmm, time.Local)
	if err != nil {
		panic(err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	base := c.now
	if base.IsZero() {
		base = time.Date(2026, 5, 4, 0, 0, 0, 0, time.Local)
	}
	c.now = time.Date(base.Year(), base.Month(), base.Day(), t.Hour(), t.Minute(), 0, 0, time.Local)
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fakePlayer blocks until cancelled, like a looping track.
type fakePlayer struct {
	mu      sync.Mutex
	plays   int
	rewinds int
	err     error
	started chan struct{}
}

func newFakePlayer() *fakePlayer {
	return &fakePlayer{started: make(chan struct{}, 16)}
}

func (p *fakePlayer) Play(ctx context.Context) error {
	p.mu.Lock()
	p.plays++
	err := p.err
	p.mu.Unlock()
	p.started <- struct{}{}

	if err != nil {
		return err
	}
	<-ctx.Done()
	return ErrAborted
}

func (p *fakePlayer) Rewind() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rewinds++
}

func (p *fakePlayer) counts() (plays, rewinds int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.plays, p.rewinds
}

type recorder struct {
	mu        sync.Mutex
	ringing   []reminder.Reminder
	dismissed []reminder.Reminder
}

func (r *recorder) Ringing(rem reminder.Reminder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ringing = append(r.ringing, rem)
}

func (r *recorder) Dismissed(rem reminder.Reminder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dismissed = append(r.dismissed, rem)
}

var errDevice = errors.New("no audio device")

// failingKV has nothing stored and rejects every write.
type failingKV struct{}

func (failingKV) Get(string) ([]byte, error) { return nil, reminder.ErrKeyNotFound }
func (failingKV) Set(string, []byte) error   { return errors.New("read-only file system") }
func (failingKV) Close() error               { return nil }
