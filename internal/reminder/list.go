package reminder

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service is the set of reminder operations the REPL and the MCP server
// drive. Both List and the alarm engine implement it.
type Service interface {
	Reminders() []Reminder
	Add(d Draft) (Reminder, error)
	Toggle(id string) (Reminder, error)
	SetCompleted(id string, completed bool) (Reminder, error)
	Update(id string, fields UpdateFields) (Reminder, error)
	Delete(id string) error
}

// List is the in-memory reminder collection. Storage is the source of
// truth: every operation first re-reads it, so another process sharing
// the store is never overwritten with a stale copy, and every mutation
// is followed by a full Save.
//
// When a save fails the in-memory collection becomes authoritative and
// is not re-read until a later save succeeds.
type List struct {
	mu        sync.Mutex
	store     *Store
	reminders []Reminder
	unsaved   bool
	newID     func() string
}

// NewList loads the collection from store. Later operations read through
// to store again, so other writers of the same key are seen.
func NewList(store *Store) *List {
	return &List{
		store:     store,
		reminders: store.Load(),
		newID:     newID,
	}
}

func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Reminders returns a copy of the collection in insertion order
// (newest first).
func (l *List) Reminders() []Reminder {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.refresh()
	return l.snapshot()
}

func (l *List) snapshot() []Reminder {
	out := make([]Reminder, len(l.reminders))
	copy(out, l.reminders)
	return out
}

// Get returns the reminder with the given id.
func (l *List) Get(id string) (Reminder, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.refresh()

	i := l.index(id)
	if i < 0 {
		return Reminder{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return l.reminders[i], nil
}

// Add validates d, assigns an id and prepends the new reminder.
func (l *List) Add(d Draft) (Reminder, error) {
	if err := d.Validate(); err != nil {
		return Reminder{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.refresh()

	r := Reminder{
		ID:    l.newID(),
		Title: d.Title,
		Time:  d.Time,
	}
	l.reminders = append([]Reminder{r}, l.reminders...)
	l.save()
	return r, nil
}

// Toggle flips the completed flag.
func (l *List) Toggle(id string) (Reminder, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.refresh()

	i := l.index(id)
	if i < 0 {
		return Reminder{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	l.reminders[i].Completed = !l.reminders[i].Completed
	l.save()
	return l.reminders[i], nil
}

// SetCompleted sets the completed flag. Saving happens even if the flag
// did not change.
func (l *List) SetCompleted(id string, completed bool) (Reminder, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.refresh()

	i := l.index(id)
	if i < 0 {
		return Reminder{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	l.reminders[i].Completed = completed
	l.save()
	return l.reminders[i], nil
}

// Update applies a partial update.
func (l *List) Update(id string, fields UpdateFields) (Reminder, error) {
	if err := fields.Validate(); err != nil {
		return Reminder{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.refresh()

	i := l.index(id)
	if i < 0 {
		return Reminder{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if fields.Title == nil && fields.Time == nil {
		return l.reminders[i], nil
	}
	if fields.Title != nil {
		l.reminders[i].Title = *fields.Title
	}
	if fields.Time != nil {
		l.reminders[i].Time = *fields.Time
	}
	l.save()
	return l.reminders[i], nil
}

// Delete removes the reminder from memory and storage.
func (l *List) Delete(id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.refresh()

	i := l.index(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	l.reminders = append(l.reminders[:i:i], l.reminders[i+1:]...)
	l.save()
	return nil
}

// Reload re-reads storage and returns the collection.
func (l *List) Reload() []Reminder {
	return l.Reminders()
}

// refresh replaces the cache with what storage holds now. A read failure
// keeps the cache.
func (l *List) refresh() {
	if l.unsaved {
		return
	}
	reminders, err := l.store.Read()
	if err != nil {
		l.store.logger.Debug("Using cached reminders", zap.Error(err))
		return
	}
	l.reminders = reminders
}

func (l *List) save() {
	l.unsaved = !l.store.Save(l.reminders)
}

func (l *List) index(id string) int {
	for i, r := range l.reminders {
		if r.ID == id {
			return i
		}
	}
	return -1
}
