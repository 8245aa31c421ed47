package alarm

import (
	"fmt"
	"time"
)

// Clock supplies the wall-clock time the engine compares against.
type Clock interface {
	Now() time.Time
}

// SystemClock reads time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// State is either NoAlarm or Ringing. Only one reminder can ring at a time.
type State interface {
	isState()
	String() string
}

// NoAlarm means nothing is ringing.
type NoAlarm struct{}

// Ringing carries the id of the reminder currently ringing.
type Ringing struct {
	ID string
}

func (NoAlarm) isState() {}
func (Ringing) isState() {}

func (NoAlarm) String() string   { return "idle" }
func (r Ringing) String() string { return fmt.Sprintf("ringing(%s)", r.ID) }

// RingingID returns the ringing reminder id, if any.
func RingingID(s State) (string, bool) {
	r, ok := s.(Ringing)
	return r.ID, ok
}

// ResetPolicy decides when the triggered set is emptied.
type ResetPolicy string

const (
	// ResetSession keeps entries for the lifetime of the engine.
	ResetSession ResetPolicy = "session"
	// ResetDaily also empties the set on the first tick of a new calendar
	// day, and reminders the alarm completed become pending again.
	ResetDaily ResetPolicy = "daily"
)

// ParseResetPolicy maps a config value to a policy.
func ParseResetPolicy(s string) (ResetPolicy, error) {
	switch ResetPolicy(s) {
	case "", ResetSession:
		return ResetSession, nil
	case ResetDaily:
		return ResetDaily, nil
	default:
		return "", fmt.Errorf("unknown reset policy %q (supported: %s, %s)", s, ResetSession, ResetDaily)
	}
}

// TriggeredSet records reminders that already rang so the same minute
// does not ring them twice.
type TriggeredSet struct {
	policy ResetPolicy
	ids    map[string]struct{}
	day    string
}

func NewTriggeredSet(policy ResetPolicy) *TriggeredSet {
	if policy == "" {
		policy = ResetSession
	}
	return &TriggeredSet{policy: policy, ids: make(map[string]struct{})}
}

// Observe applies the reset policy for the tick at now. It reports
// whether the set was emptied because a new day began.
func (t *TriggeredSet) Observe(now time.Time) bool {
	if t.policy != ResetDaily {
		return false
	}
	day := now.Format(time.DateOnly)
	rolled := t.day != "" && t.day != day
	if rolled {
		clear(t.ids)
	}
	t.day = day
	return rolled
}

func (t *TriggeredSet) Add(id string) { t.ids[id] = struct{}{} }

func (t *TriggeredSet) Remove(id string) { delete(t.ids, id) }

func (t *TriggeredSet) Has(id string) bool {
	_, ok := t.ids[id]
	return ok
}

func (t *TriggeredSet) Len() int { return len(t.ids) }

func (t *TriggeredSet) Reset() { clear(t.ids) }
