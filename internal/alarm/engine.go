package alarm

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/notexe/todo-alarm/internal/reminder"
	"go.uber.org/zap"
)

// DefaultInterval is the polling period. One second keeps the ring close
// to the minute boundary without aligning the ticker to it.
const DefaultInterval = time.Second

// Observer is told about ring and dismiss transitions. Callbacks run
// outside the engine lock and may call back into the engine.
type Observer interface {
	Ringing(r reminder.Reminder)
	Dismissed(r reminder.Reminder)
}

// Options configures an Engine. Zero values pick the defaults.
type Options struct {
	Clock       Clock
	Interval    time.Duration
	ResetPolicy ResetPolicy
	Playback    *Playback
	Logger      *zap.Logger
}

// Engine hosts the reminder list and decides when a reminder rings.
// Every operation holds one lock, so a tick and a user action never
// interleave.
type Engine struct {
	mu        sync.Mutex
	list      *reminder.List
	clock     Clock
	interval  time.Duration
	state     State
	triggered *TriggeredSet
	playback  *Playback
	observers []Observer
	logger    *zap.Logger

	// known is the collection as of the last reconcile, by id.
	known map[string]reminder.Reminder
	// rung holds ids completed by Dismiss, un-completed on a daily reset.
	rung map[string]struct{}
}

// NewEngine creates an engine over list.
func NewEngine(list *reminder.List, opts Options) *Engine {
	if opts.Clock == nil {
		opts.Clock = SystemClock{}
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	e := &Engine{
		list:      list,
		clock:     opts.Clock,
		interval:  opts.Interval,
		state:     NoAlarm{},
		triggered: NewTriggeredSet(opts.ResetPolicy),
		playback:  opts.Playback,
		logger:    opts.Logger.Named("engine"),
		rung:      make(map[string]struct{}),
	}
	e.reconcile(list.Reminders())
	return e
}

// Subscribe registers an observer. Not safe to call while Run is active.
func (e *Engine) Subscribe(o Observer) {
	e.observers = append(e.observers, o)
}

// Run ticks immediately and then every interval until ctx is cancelled.
// Playback is stopped on exit; the ringing state is abandoned, not
// completed.
func (e *Engine) Run(ctx context.Context) error {
	e.logger.Info("Started", zap.Duration("interval", e.interval))

	e.Tick()

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("Shutting down")
			e.playback.Stop()
			return nil
		case <-ticker.C:
			e.Tick()
		}
	}
}

// Tick runs one polling cycle. It returns the reminder that started
// ringing, if any.
func (e *Engine) Tick() (reminder.Reminder, bool) {
	e.mu.Lock()

	now := e.clock.Now()
	if e.triggered.Observe(now) {
		e.rearmRung()
	}
	reminders := e.list.Reminders()
	e.reconcile(reminders)

	if _, ringing := RingingID(e.state); ringing {
		e.mu.Unlock()
		return reminder.Reminder{}, false
	}

	clock := reminder.FormatClock(now)
	var (
		due   reminder.Reminder
		found bool
	)
	// New reminders are prepended, so insertion order is back to front.
	for i := len(reminders) - 1; i >= 0; i-- {
		r := reminders[i]
		if r.Time == clock && !r.Completed && !e.triggered.Has(r.ID) {
			due, found = r, true
			break
		}
	}
	if !found {
		e.mu.Unlock()
		return reminder.Reminder{}, false
	}

	e.state = Ringing{ID: due.ID}
	e.triggered.Add(due.ID)
	e.playback.Start()
	e.mu.Unlock()

	e.logger.Info("Reminder ringing",
		zap.String("id", due.ID),
		zap.String("title", due.Title),
		zap.String("time", due.Time),
	)
	for _, o := range e.observers {
		o.Ringing(due)
	}
	return due, true
}

// Dismiss completes the ringing reminder, clears the ringing state and
// stops playback. It is a no-op when nothing is ringing.
func (e *Engine) Dismiss() (reminder.Reminder, bool) {
	e.mu.Lock()

	id, ringing := RingingID(e.state)
	if !ringing {
		e.mu.Unlock()
		return reminder.Reminder{}, false
	}

	r, err := e.list.SetCompleted(id, true)
	if err != nil {
		// deleted while ringing; the alarm still has to stop
		r = reminder.Reminder{ID: id, Completed: true}
		if !errors.Is(err, reminder.ErrNotFound) {
			e.logger.Warn("Failed to complete dismissed reminder", zap.String("id", id), zap.Error(err))
		}
	} else {
		e.rung[id] = struct{}{}
	}
	e.reconcile(e.list.Reminders())
	e.state = NoAlarm{}
	e.playback.Stop()
	e.mu.Unlock()

	e.logger.Info("Alarm dismissed", zap.String("id", id))
	for _, o := range e.observers {
		o.Dismissed(r)
	}
	return r, true
}

// State returns the current alarm state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// RingingReminder returns the reminder that is ringing, if it still exists.
func (e *Engine) RingingReminder() (reminder.Reminder, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	id, ok := RingingID(e.state)
	if !ok {
		return reminder.Reminder{}, false
	}
	r, err := e.list.Get(id)
	if err != nil {
		return reminder.Reminder{}, false
	}
	return r, true
}

// Triggered reports whether id already rang in this engine's lifetime
// (subject to the reset policy).
func (e *Engine) Triggered(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.triggered.Has(id)
}

func (e *Engine) Reminders() []reminder.Reminder {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.list.Reminders()
}

func (e *Engine) Add(d reminder.Draft) (reminder.Reminder, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	r, err := e.list.Add(d)
	if err != nil {
		return r, err
	}
	e.reconcile(e.list.Reminders())
	return r, nil
}

// Toggle flips completed. Unchecking a reminder re-arms it.
func (e *Engine) Toggle(id string) (reminder.Reminder, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	r, err := e.list.Toggle(id)
	if err != nil {
		return r, err
	}
	if !r.Completed {
		e.triggered.Remove(id)
	}
	e.reconcile(e.list.Reminders())
	return r, nil
}

// SetCompleted sets completed. Setting it to false re-arms the reminder.
// Completing the ringing reminder this way does not silence it; only
// Dismiss does.
func (e *Engine) SetCompleted(id string, completed bool) (reminder.Reminder, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	r, err := e.list.SetCompleted(id, completed)
	if err != nil {
		return r, err
	}
	if !completed {
		e.triggered.Remove(id)
	}
	e.reconcile(e.list.Reminders())
	return r, nil
}

// Update edits a reminder. A new time re-arms it.
func (e *Engine) Update(id string, fields reminder.UpdateFields) (reminder.Reminder, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	before, err := e.list.Get(id)
	if err != nil {
		return before, err
	}
	r, err := e.list.Update(id, fields)
	if err != nil {
		return r, err
	}
	if r.Time != before.Time {
		e.triggered.Remove(id)
	}
	e.reconcile(e.list.Reminders())
	return r, nil
}

// Delete removes a reminder. A ringing reminder keeps ringing until
// dismissed.
func (e *Engine) Delete(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.list.Delete(id); err != nil {
		return err
	}
	e.triggered.Remove(id)
	e.reconcile(e.list.Reminders())
	return nil
}

// Reload re-reads storage, for changes made by another process. Those
// changes re-arm reminders the same way local edits do.
func (e *Engine) Reload() {
	e.mu.Lock()
	defer e.mu.Unlock()

	reminders := e.list.Reload()
	e.reconcile(reminders)
	e.logger.Debug("Reloaded reminders", zap.Int("count", len(reminders)))
}

// reconcile re-arms every reminder that was unchecked, moved to another
// time or deleted since the last call, whoever made the change.
func (e *Engine) reconcile(reminders []reminder.Reminder) {
	current := make(map[string]reminder.Reminder, len(reminders))
	for _, r := range reminders {
		current[r.ID] = r
		prev, seen := e.known[r.ID]
		if !seen {
			continue
		}
		if (prev.Completed && !r.Completed) || prev.Time != r.Time {
			e.triggered.Remove(r.ID)
		}
		if !r.Completed {
			delete(e.rung, r.ID)
		}
	}
	for id := range e.known {
		if _, ok := current[id]; !ok {
			e.triggered.Remove(id)
			delete(e.rung, id)
		}
	}
	e.known = current
}

// rearmRung un-completes the reminders the alarm completed on earlier
// days so they ring again today.
func (e *Engine) rearmRung() {
	for id := range e.rung {
		if _, err := e.list.SetCompleted(id, false); err != nil && !errors.Is(err, reminder.ErrNotFound) {
			e.logger.Warn("Failed to re-arm reminder", zap.String("id", id), zap.Error(err))
			continue
		}
		e.logger.Debug("Re-armed for a new day", zap.String("id", id))
	}
	clear(e.rung)
}

// String is used by the REPL's /status command.
func (e *Engine) String() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return fmt.Sprintf("%s, %d reminders, %d triggered", e.state, len(e.list.Reminders()), e.triggered.Len())
}

var _ reminder.Service = (*Engine)(nil)
var _ reminder.Service = (*reminder.List)(nil)
