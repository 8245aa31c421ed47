package reminder

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Status filters accepted by list_reminders.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
)

var (
	ErrNotFound    = errors.New("reminder not found")
	ErrEmptyTitle  = errors.New("title is required")
	ErrInvalidTime = errors.New("time must be HH:MM (00:00-23:59)")
)

// Reminder is a daily time-of-day to-do. Time has no date component.
type Reminder struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Time      string `json:"time"`
	Completed bool   `json:"completed"`
}

// Draft is what the creation form hands over.
type Draft struct {
	Title string
	Time  string
}

// Validate trims the title and normalizes the time to HH:MM.
func (d *Draft) Validate() error {
	d.Title = strings.TrimSpace(d.Title)
	if d.Title == "" {
		return ErrEmptyTitle
	}
	t, err := ParseTime(d.Time)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// UpdateFields holds optional fields for a partial update.
type UpdateFields struct {
	Title *string
	Time  *string
}

// Validate normalizes the fields that are set.
func (f *UpdateFields) Validate() error {
	if f.Title != nil {
		title := strings.TrimSpace(*f.Title)
		if title == "" {
			return ErrEmptyTitle
		}
		f.Title = &title
	}
	if f.Time != nil {
		t, err := ParseTime(*f.Time)
		if err != nil {
			return err
		}
		f.Time = &t
	}
	return nil
}

// ValidTime reports whether s is exactly HH:MM with HH in 00..23 and MM in 00..59.
func ValidTime(s string) bool {
	if len(s) != 5 || s[2] != ':' {
		return false
	}
	h, m, err := splitClock(s)
	return err == nil && h <= 23 && m <= 59
}

// ParseTime accepts "9:05" or "09:05" and returns the canonical "09:05".
func ParseTime(s string) (string, error) {
	s = strings.TrimSpace(s)
	if len(s) < 4 || len(s) > 5 {
		return "", fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	h, m, err := splitClock(s)
	if err != nil || h > 23 || m > 59 {
		return "", fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	return fmt.Sprintf("%02d:%02d", h, m), nil
}

func splitClock(s string) (int, int, error) {
	hs, ms, ok := strings.Cut(s, ":")
	if !ok || len(ms) != 2 || len(hs) == 0 || len(hs) > 2 || !digits(hs) || !digits(ms) {
		return 0, 0, ErrInvalidTime
	}
	h, _ := strconv.Atoi(hs)
	m, _ := strconv.Atoi(ms)
	return h, m, nil
}

func digits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// FormatClock renders the wall-clock time of t as HH:MM.
func FormatClock(t time.Time) string {
	return t.Format("15:04")
}

// FilterStatus keeps pending or completed reminders. An empty status
// keeps everything.
func FilterStatus(reminders []Reminder, status string) ([]Reminder, error) {
	switch status {
	case "":
		return reminders, nil
	case StatusPending, StatusCompleted:
	default:
		return nil, fmt.Errorf("unknown status %q (use %s or %s)", status, StatusPending, StatusCompleted)
	}

	want := status == StatusCompleted
	out := make([]Reminder, 0, len(reminders))
	for _, r := range reminders {
		if r.Completed == want {
			out = append(out, r)
		}
	}
	return out, nil
}

// DueAt returns the pending reminders scheduled for clock, in collection order.
func DueAt(reminders []Reminder, clock string) []Reminder {
	var out []Reminder
	for _, r := range reminders {
		if !r.Completed && r.Time == clock {
			out = append(out, r)
		}
	}
	return out
}
