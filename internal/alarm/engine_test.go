package alarm

import (
	"context"
	"testing"
	"time"

	"github.com/notexe/todo-alarm/internal/reminder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	engine   *Engine
	clock    *fakeClock
	player   *fakePlayer
	playback *Playback
	store    *reminder.Store
	events   *recorder
}

func newHarness(t *testing.T, at string, policy ResetPolicy) *harness {
	t.Helper()
	store := reminder.NewStore(reminder.NewMemoryKV(), reminder.DefaultKey, nil)
	clock := newFakeClock(at)
	player := newFakePlayer()
	playback := NewPlayback(player, nil)
	events := &recorder{}

	engine := NewEngine(reminder.NewList(store), Options{
		Clock:       clock,
		Interval:    10 * time.Millisecond,
		ResetPolicy: policy,
		Playback:    playback,
	})
	engine.Subscribe(events)
	t.Cleanup(playback.Stop)

	return &harness{engine: engine, clock: clock, player: player, playback: playback, store: store, events: events}
}

func (h *harness) add(t *testing.T, title, at string) reminder.Reminder {
	t.Helper()
	r, err := h.engine.Add(reminder.Draft{Title: title, Time: at})
	require.NoError(t, err)
	return r
}

func TestEngineRingsDueReminder(t *testing.T) {
	h := newHarness(t, "14:30", ResetSession)
	study := h.add(t, "Study", "14:30")

	rang, ok := h.engine.Tick()
	require.True(t, ok)
	assert.Equal(t, study.ID, rang.ID)
	assert.Equal(t, Ringing{ID: study.ID}, h.engine.State())
	assert.True(t, h.engine.Triggered(study.ID))
	assert.True(t, h.playback.Playing())
	<-h.player.started

	require.Len(t, h.events.ringing, 1)
	assert.Equal(t, study.ID, h.events.ringing[0].ID)
}

func TestEngineIgnoresOtherTimesAndCompleted(t *testing.T) {
	h := newHarness(t, "14:30", ResetSession)
	h.add(t, "Later", "14:31")
	done := h.add(t, "Done", "14:30")
	_, err := h.engine.SetCompleted(done.ID, true)
	require.NoError(t, err)

	_, ok := h.engine.Tick()
	assert.False(t, ok)
	assert.Equal(t, NoAlarm{}, h.engine.State())
	assert.False(t, h.playback.Playing())
}

func TestEngineRingsOldestFirst(t *testing.T) {
	h := newHarness(t, "09:00", ResetSession)
	a := h.add(t, "A", "09:00")
	b := h.add(t, "B", "09:00")

	rang, ok := h.engine.Tick()
	require.True(t, ok)
	assert.Equal(t, a.ID, rang.ID)
	assert.False(t, h.engine.Triggered(b.ID))

	_, ok = h.engine.Tick()
	assert.False(t, ok, "only one reminder rings at a time")
	assert.Equal(t, Ringing{ID: a.ID}, h.engine.State())

	_, ok = h.engine.Dismiss()
	require.True(t, ok)

	rang, ok = h.engine.Tick()
	require.True(t, ok)
	assert.Equal(t, b.ID, rang.ID)
}

func TestEngineDismiss(t *testing.T) {
	h := newHarness(t, "14:30", ResetSession)
	study := h.add(t, "Study", "14:30")
	_, ok := h.engine.Tick()
	require.True(t, ok)
	<-h.player.started

	dismissed, ok := h.engine.Dismiss()
	require.True(t, ok)
	assert.Equal(t, study.ID, dismissed.ID)
	assert.True(t, dismissed.Completed)
	assert.Equal(t, NoAlarm{}, h.engine.State())
	assert.False(t, h.playback.Playing())

	_, rewinds := h.player.counts()
	assert.Equal(t, 1, rewinds)

	persisted := h.store.Load()
	require.Len(t, persisted, 1)
	assert.True(t, persisted[0].Completed)

	require.Len(t, h.events.dismissed, 1)
	assert.Equal(t, study.ID, h.events.dismissed[0].ID)

	_, ok = h.engine.Tick()
	assert.False(t, ok, "a dismissed reminder does not ring again")
}

func TestEngineDismissIdle(t *testing.T) {
	h := newHarness(t, "14:30", ResetSession)
	h.add(t, "Later", "15:00")

	_, ok := h.engine.Dismiss()
	assert.False(t, ok)
	assert.Empty(t, h.events.dismissed)
	assert.False(t, h.store.Load()[0].Completed)
}

func TestEngineTriggeredSuppressesRepeat(t *testing.T) {
	h := newHarness(t, "14:30", ResetSession)
	study := h.add(t, "Study", "14:30")
	_, ok := h.engine.Tick()
	require.True(t, ok)

	// completing by hand leaves the alarm ringing until dismissed
	_, err := h.engine.SetCompleted(study.ID, true)
	require.NoError(t, err)
	assert.Equal(t, Ringing{ID: study.ID}, h.engine.State())

	_, ok = h.engine.Dismiss()
	require.True(t, ok)

	h.clock.Advance(20 * time.Second)
	_, ok = h.engine.Tick()
	assert.False(t, ok)
}

func TestEngineUncheckRearms(t *testing.T) {
	h := newHarness(t, "14:30", ResetSession)
	study := h.add(t, "Study", "14:30")
	_, ok := h.engine.Tick()
	require.True(t, ok)
	_, ok = h.engine.Dismiss()
	require.True(t, ok)

	r, err := h.engine.Toggle(study.ID)
	require.NoError(t, err)
	require.False(t, r.Completed)
	assert.False(t, h.engine.Triggered(study.ID))

	rang, ok := h.engine.Tick()
	require.True(t, ok)
	assert.Equal(t, study.ID, rang.ID)
}

func TestEngineSetCompletedFalseRearms(t *testing.T) {
	h := newHarness(t, "14:30", ResetSession)
	study := h.add(t, "Study", "14:30")
	_, ok := h.engine.Tick()
	require.True(t, ok)
	_, ok = h.engine.Dismiss()
	require.True(t, ok)

	_, err := h.engine.SetCompleted(study.ID, false)
	require.NoError(t, err)

	_, ok = h.engine.Tick()
	assert.True(t, ok)
}

func TestEngineUpdateTimeRearms(t *testing.T) {
	h := newHarness(t, "14:30", ResetSession)
	study := h.add(t, "Study", "14:30")
	_, ok := h.engine.Tick()
	require.True(t, ok)
	_, ok = h.engine.Dismiss()
	require.True(t, ok)
	_, err := h.engine.SetCompleted(study.ID, false)
	require.NoError(t, err)
	_, ok = h.engine.Tick()
	require.True(t, ok)
	_, ok = h.engine.Dismiss()
	require.True(t, ok)

	title := "Study harder"
	_, err = h.engine.Update(study.ID, reminder.UpdateFields{Title: &title})
	require.NoError(t, err)
	assert.True(t, h.engine.Triggered(study.ID), "a title change keeps the trigger")

	at := "14:45"
	_, err = h.engine.Update(study.ID, reminder.UpdateFields{Time: &at})
	require.NoError(t, err)
	assert.False(t, h.engine.Triggered(study.ID))

	_, err = h.engine.Update("missing", reminder.UpdateFields{Time: &at})
	assert.ErrorIs(t, err, reminder.ErrNotFound)
}

func TestEngineDeleteWhileRinging(t *testing.T) {
	h := newHarness(t, "14:30", ResetSession)
	study := h.add(t, "Study", "14:30")
	_, ok := h.engine.Tick()
	require.True(t, ok)

	require.NoError(t, h.engine.Delete(study.ID))
	assert.Equal(t, Ringing{ID: study.ID}, h.engine.State())
	_, exists := h.engine.RingingReminder()
	assert.False(t, exists)

	dismissed, ok := h.engine.Dismiss()
	require.True(t, ok)
	assert.Equal(t, study.ID, dismissed.ID)
	assert.Equal(t, NoAlarm{}, h.engine.State())
	assert.Empty(t, h.store.Load())
	assert.False(t, h.playback.Playing())
}

func TestEngineDailyReset(t *testing.T) {
	h := newHarness(t, "08:00", ResetDaily)
	r := h.add(t, "Stretch", "08:00")
	_, ok := h.engine.Tick()
	require.True(t, ok)
	_, ok = h.engine.Dismiss()
	require.True(t, ok)

	h.clock.Advance(30 * time.Second)
	_, ok = h.engine.Tick()
	require.False(t, ok)

	h.clock.Advance(24 * time.Hour)
	rang, ok := h.engine.Tick()
	require.True(t, ok, "a new day re-arms reminders the alarm completed")
	assert.Equal(t, r.ID, rang.ID)
	assert.False(t, rang.Completed)
	assert.False(t, h.store.Load()[0].Completed)
}

func TestEngineDailyResetKeepsManualCompletions(t *testing.T) {
	h := newHarness(t, "08:00", ResetDaily)
	r := h.add(t, "Pay rent", "09:00")
	_, err := h.engine.SetCompleted(r.ID, true)
	require.NoError(t, err)

	_, ok := h.engine.Tick()
	require.False(t, ok)
	h.clock.Advance(24 * time.Hour)
	_, ok = h.engine.Tick()
	require.False(t, ok)

	assert.True(t, h.store.Load()[0].Completed)
}

func TestEngineSessionPolicyKeepsTriggersAcrossDays(t *testing.T) {
	h := newHarness(t, "08:00", ResetSession)
	h.add(t, "Stretch", "08:00")
	_, ok := h.engine.Tick()
	require.True(t, ok)
	_, ok = h.engine.Dismiss()
	require.True(t, ok)

	h.clock.Advance(24 * time.Hour)
	_, ok = h.engine.Tick()
	assert.False(t, ok)
	assert.True(t, h.store.Load()[0].Completed)
}

func TestEngineRunStopsPlaybackOnCancel(t *testing.T) {
	h := newHarness(t, "14:30", ResetSession)
	h.add(t, "Study", "14:30")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.engine.Run(ctx) }()

	assert.Eventually(t, h.playback.Playing, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.False(t, h.playback.Playing())
}

func TestEngineWithoutPlayback(t *testing.T) {
	store := reminder.NewStore(reminder.NewMemoryKV(), reminder.DefaultKey, nil)
	engine := NewEngine(reminder.NewList(store), Options{Clock: newFakeClock("07:00")})
	_, err := engine.Add(reminder.Draft{Title: "Wake", Time: "07:00"})
	require.NoError(t, err)

	_, ok := engine.Tick()
	require.True(t, ok)
	_, ok = engine.Dismiss()
	assert.True(t, ok)
	assert.Contains(t, engine.String(), "idle")
}

func TestEngineSeesRemoteAdds(t *testing.T) {
	kv := reminder.NewMemoryKV()
	engine := NewEngine(reminder.NewList(reminder.NewStore(kv, reminder.DefaultKey, nil)), Options{Clock: newFakeClock("10:00")})

	other := reminder.NewList(reminder.NewStore(kv, reminder.DefaultKey, nil))
	remote, err := other.Add(reminder.Draft{Title: "Remote", Time: "10:00"})
	require.NoError(t, err)

	engine.Reload()
	rang, ok := engine.Tick()
	require.True(t, ok)
	assert.Equal(t, remote.ID, rang.ID)
}

func TestEngineRemoteUncheckRearms(t *testing.T) {
	h := newHarness(t, "14:30", ResetSession)
	study := h.add(t, "Study", "14:30")
	_, ok := h.engine.Tick()
	require.True(t, ok)
	_, ok = h.engine.Dismiss()
	require.True(t, ok)

	other := reminder.NewList(h.store)
	_, err := other.Toggle(study.ID)
	require.NoError(t, err)

	h.engine.Reload()
	assert.False(t, h.engine.Triggered(study.ID))

	rang, ok := h.engine.Tick()
	require.True(t, ok)
	assert.Equal(t, study.ID, rang.ID)
}

func TestEngineRemoteUncheckRearmsWithoutReload(t *testing.T) {
	h := newHarness(t, "14:30", ResetSession)
	study := h.add(t, "Study", "14:30")
	_, ok := h.engine.Tick()
	require.True(t, ok)
	_, ok = h.engine.Dismiss()
	require.True(t, ok)

	_, err := reminder.NewList(h.store).SetCompleted(study.ID, false)
	require.NoError(t, err)

	_, ok = h.engine.Tick()
	assert.True(t, ok)
}

func TestEngineRemoteTimeChangeAndDeleteRearm(t *testing.T) {
	h := newHarness(t, "14:30", ResetSession)
	moved := h.add(t, "Moved", "14:30")
	gone := h.add(t, "Gone", "14:30")
	other := reminder.NewList(h.store)

	_, ok := h.engine.Tick()
	require.True(t, ok)
	_, ok = h.engine.Dismiss()
	require.True(t, ok)
	_, ok = h.engine.Tick()
	require.True(t, ok)
	_, ok = h.engine.Dismiss()
	require.True(t, ok)
	require.True(t, h.engine.Triggered(moved.ID))
	require.True(t, h.engine.Triggered(gone.ID))

	at := "15:00"
	_, err := other.Update(moved.ID, reminder.UpdateFields{Time: &at})
	require.NoError(t, err)
	require.NoError(t, other.Delete(gone.ID))

	h.engine.Reload()
	assert.False(t, h.engine.Triggered(moved.ID))
	assert.False(t, h.engine.Triggered(gone.ID))
}

func TestEngineRingsWhenStorageWritesFail(t *testing.T) {
	store := reminder.NewStore(failingKV{}, reminder.DefaultKey, nil)
	engine := NewEngine(reminder.NewList(store), Options{Clock: newFakeClock("07:00")})

	wake, err := engine.Add(reminder.Draft{Title: "Wake", Time: "07:00"})
	require.NoError(t, err)
	later, err := engine.Add(reminder.Draft{Title: "Later", Time: "08:00"})
	require.NoError(t, err)
	_, err = engine.Toggle(later.ID)
	require.NoError(t, err)

	rang, ok := engine.Tick()
	require.True(t, ok)
	assert.Equal(t, wake.ID, rang.ID)

	dismissed, ok := engine.Dismiss()
	require.True(t, ok)
	assert.True(t, dismissed.Completed)

	require.NoError(t, engine.Delete(later.ID))
	got := engine.Reminders()
	require.Len(t, got, 1)
	assert.Equal(t, wake.ID, got[0].ID)
	assert.True(t, got[0].Completed)
}
