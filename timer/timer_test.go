package timer

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Countdown/store"
)

type recordingSink struct {
	texts  []string
	styles []Style
}

func (s *recordingSink) SetText(text string)  { s.texts = append(s.texts, text) }
func (s *recordingSink) SetStyle(style Style) { s.styles = append(s.styles, style) }

func (s *recordingSink) lastText() string {
	if len(s.texts) == 0 {
		return ""
	}
	return s.texts[len(s.texts)-1]
}

func (s *recordingSink) lastStyle() Style {
	if len(s.styles) == 0 {
		return StyleDefault
	}
	return s.styles[len(s.styles)-1]
}

func newScaled(t *testing.T, cfg Config) (*Engine, *recordingSink) {
	t.Helper()
	cfg.Mode = ModeScaled
	sink := &recordingSink{}
	e, err := NewEngine(NewRegistry(nil), cfg, sink)
	require.NoError(t, err)
	return e, sink
}

func TestNewEngineValidation(t *testing.T) {
	reg := NewRegistry(store.New(store.NewMemoryProvider()))

	tests := []struct {
		name string
		cfg  Config
		want error
	}{
		{"NegativeID", Config{Mode: ModeRealtime, Persistent: true, ID: -1}, ErrInvalidID},
		{"PersistentScaled", Config{Mode: ModeScaled, Persistent: true, ID: 1}, ErrPersistentScaled},
		{"NegativeThreshold", Config{LowTimeThreshold: -1}, ErrNegativeThreshold},
		{"NegativeComponent", Config{Minutes: -1}, ErrNegativeDuration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEngine(reg, tt.cfg, nil)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "err = %v", err)
			assert.True(t, errors.Is(err, ErrInvalidConfig), "err = %v", err)
		})
	}

	assert.Empty(t, reg.Engines())
}

func TestNewEngineRequiresRegistryAndStore(t *testing.T) {
	_, err := NewEngine(nil, Config{}, nil)
	assert.ErrorIs(t, err, ErrNoRegistry)

	_, err = NewEngine(NewRegistry(nil), Config{Mode: ModeRealtime, Persistent: true, ID: 1}, nil)
	assert.ErrorIs(t, err, ErrNoStore)
}

func TestNewEngineRendersInitialDisplay(t *testing.T) {
	e, sink := newScaled(t, Config{Hours: 1, Minutes: 2, Seconds: 3})

	assert.Equal(t, "01:02:03", sink.lastText())
	assert.Equal(t, StateIdle, e.State())
	assert.Equal(t, 3723, e.TimeLeft())
}

func TestNewEngineNormalizesComponents(t *testing.T) {
	clock := NewManualClock(time.Time{})
	sink := &recordingSink{}
	e, err := NewEngine(NewRegistry(nil, WithClock(clock)), Config{Mode: ModeRealtime, Display: DisplayHours, Seconds: WeekSeconds}, sink)
	require.NoError(t, err)

	assert.Equal(t, "167:59:59", sink.lastText())
	assert.Equal(t, 167, e.Hours())
	assert.Equal(t, WeekSeconds, e.TimeLeft())
}

func TestNewEngineNormalizesScaledMinutes(t *testing.T) {
	e, sink := newScaled(t, Config{Display: DisplayMinutes, Seconds: 90})
	assert.Equal(t, "01:30", sink.lastText())

	e.Play()
	e.Tick(1)
	assert.Equal(t, "01:29", sink.lastText())
}

func TestSetTime(t *testing.T) {
	e, sink := newScaled(t, Config{Display: DisplayHours})

	for _, total := range []int{0, 1, 59, 60, 61, 3599, 3600, 3661, 86399, WeekSeconds} {
		e.SetTime(total)
		assert.Equal(t, total, e.Hours()*3600+e.Minutes()*60+e.Seconds(), "total %d", total)
		assert.Equal(t, total, e.TimeLeft())
	}

	e.SetTime(3661)
	assert.Equal(t, 1, e.Hours())
	assert.Equal(t, 1, e.Minutes())
	assert.Equal(t, 1, e.Seconds())
	assert.Equal(t, "01:01:01", sink.lastText())

	e.SetTime(-5)
	assert.Equal(t, 0, e.TimeLeft())
}

func TestSetComponentsKeepsUnnormalizedValues(t *testing.T) {
	e, sink := newScaled(t, Config{Display: DisplayMinutes})

	e.SetComponents(0, 90, 0)
	assert.Equal(t, 90, e.Minutes())
	assert.Equal(t, 5400, e.TimeLeft())
	assert.Equal(t, "90:00", sink.lastText())
}

func TestScaledCountdownTimesOutOnce(t *testing.T) {
	e, _ := newScaled(t, Config{Display: DisplayMinutes})
	e.SetTime(65)

	var timeouts int
	e.OnTimeout(func() { timeouts++ })

	e.Play()
	require.Equal(t, StateRunning, e.State())

	borrows := 0
	prevMinutes := e.Minutes()
	for i := 1; i <= 66; i++ {
		e.Tick(1.0)

		if e.Minutes() != prevMinutes {
			borrows++
			prevMinutes = e.Minutes()
		}

		switch {
		case i < 65:
			assert.False(t, e.TimedOut(), "timed out early at tick %d", i)
			assert.Equal(t, 65-i, e.TimeLeft(), "tick %d", i)
		default:
			assert.True(t, e.TimedOut(), "not timed out at tick %d", i)
		}
	}

	assert.Equal(t, 1, timeouts)
	assert.Equal(t, 1, borrows)
	assert.Equal(t, 0, e.TimeLeft())
	assert.Equal(t, "00:00", e.Display())
	assert.Equal(t, StateTimedOut, e.State())
}

func TestScaledBorrowsFromHours(t *testing.T) {
	e, _ := newScaled(t, Config{Hours: 1})
	e.Play()

	e.Tick(1.5)
	assert.Equal(t, 0, e.Hours())
	assert.Equal(t, 59, e.Minutes())
	assert.Equal(t, 58, e.Seconds())
	assert.Equal(t, "00:59:58", e.Display())

	// A delta larger than a minute borrows repeatedly.
	e.Tick(120)
	assert.Equal(t, 57, e.Minutes())
	assert.Equal(t, 58, e.Seconds())
}

func TestTickIgnoredUntilPlay(t *testing.T) {
	e, _ := newScaled(t, Config{Seconds: 10})

	e.Tick(3)
	assert.Equal(t, 10, e.TimeLeft())

	e.Play()
	e.Tick(3)
	assert.Equal(t, 7, e.TimeLeft())

	e.Stop()
	e.Tick(3)
	assert.Equal(t, 7, e.TimeLeft())
}

func TestPlayIsIdempotent(t *testing.T) {
	clock := NewManualClock(time.Time{})
	reg := NewRegistry(store.New(store.NewMemoryProvider()), WithClock(clock))
	e, err := NewEngine(reg, Config{Mode: ModeRealtime, Persistent: true, ID: 3, Minutes: 5}, nil)
	require.NoError(t, err)

	e.Play()
	start, left, state := e.start, e.TimeLeft(), e.State()
	rec, ok := reg.Store().Get(3)
	require.True(t, ok)

	clock.Advance(10 * time.Second)
	e.Play()

	assert.Equal(t, start, e.start)
	assert.Equal(t, left, e.TimeLeft())
	assert.Equal(t, state, e.State())
	again, _ := reg.Store().Get(3)
	assert.Equal(t, rec, again)
}

func TestPauseSuspendsTick(t *testing.T) {
	e, _ := newScaled(t, Config{Seconds: 10})
	e.Play()

	e.Pause()
	assert.Equal(t, StatePaused, e.State())
	e.Tick(4)
	assert.Equal(t, 10, e.TimeLeft())

	e.Unpause()
	e.Tick(4)
	assert.Equal(t, 6, e.TimeLeft())
	assert.Equal(t, StateRunning, e.State())
}

func TestLowTimeNotification(t *testing.T) {
	e, sink := newScaled(t, Config{Seconds: 8, LowTimeThreshold: 5, UseLowStyle: true})

	var got []int
	e.OnLowTime(func(s int) { got = append(got, s) })

	e.Play()
	for i := 0; i < 2; i++ {
		e.Tick(1)
	}
	assert.Empty(t, got, "fired above threshold")
	assert.Equal(t, StyleDefault, e.Style())

	for i := 0; i < 6; i++ {
		e.Tick(1)
	}
	assert.Equal(t, []int{5, 4, 3, 2, 1, 0}, got)
	assert.Equal(t, StyleLow, e.Style())
	assert.Equal(t, StyleLow, sink.lastStyle())
	assert.True(t, e.TimedOut())

	// No more ticks are processed after the timeout.
	e.Tick(1)
	assert.Len(t, got, 6)
}

func TestLowTimeDisabled(t *testing.T) {
	e, _ := newScaled(t, Config{Seconds: 3, LowTimeThreshold: 5})

	fired := false
	e.OnLowTime(func(int) { fired = true })
	e.Play()
	e.Tick(1)

	assert.False(t, fired)
	assert.Equal(t, StyleDefault, e.Style())
}

func TestLowTimeRequiresNoMinutes(t *testing.T) {
	e, _ := newScaled(t, Config{Minutes: 1, Seconds: 3, LowTimeThreshold: 5, UseLowStyle: true})

	fired := 0
	e.OnLowTime(func(int) { fired++ })
	e.Play()
	e.Tick(1)

	assert.Zero(t, fired)
}

func TestLowTimeRealtime(t *testing.T) {
	clock := NewManualClock(time.Time{})
	e, err := NewEngine(NewRegistry(nil, WithClock(clock)), Config{Mode: ModeRealtime, Seconds: 8, LowTimeThreshold: 5, UseLowStyle: true}, nil)
	require.NoError(t, err)

	var got []int
	e.OnLowTime(func(s int) { got = append(got, s) })

	e.Play()
	for i := 0; i < 2; i++ {
		clock.Advance(time.Second)
		e.Tick(0)
	}
	assert.Empty(t, got, "fired above threshold")
	assert.Equal(t, StyleDefault, e.Style())

	for i := 0; i < 6; i++ {
		clock.Advance(time.Second)
		e.Tick(0)
	}
	assert.Equal(t, []int{5, 4, 3, 2, 1, 0}, got)
	assert.Equal(t, StyleLow, e.Style())
	assert.True(t, e.TimedOut())
}

func TestLowTimeRealtimeClampsOvershoot(t *testing.T) {
	clock := NewManualClock(time.Time{})
	e, err := NewEngine(NewRegistry(nil, WithClock(clock)), Config{Mode: ModeRealtime, Seconds: 3, LowTimeThreshold: 5, UseLowStyle: true}, nil)
	require.NoError(t, err)

	var got []int
	e.OnLowTime(func(s int) { got = append(got, s) })

	e.Play()
	clock.Advance(5 * time.Second)
	e.Tick(0)

	assert.Equal(t, []int{0}, got)
	assert.True(t, e.TimedOut())
}

func TestUnsubscribe(t *testing.T) {
	e, _ := newScaled(t, Config{Seconds: 1})

	calls := 0
	cancel := e.OnTimeout(func() { calls++ })
	cancel()

	e.Play()
	e.Tick(1)
	assert.True(t, e.TimedOut())
	assert.Zero(t, calls)
}

func TestFreezeScaled(t *testing.T) {
	e, sink := newScaled(t, Config{Seconds: 10})
	e.Play()

	done := 0
	e.Freeze(2*time.Second, func() { done++ })
	assert.Equal(t, StateFrozen, e.State())
	assert.Equal(t, StyleFreeze, sink.lastStyle())

	e.Tick(1)
	assert.Equal(t, 10, e.TimeLeft())
	assert.Zero(t, done)

	e.Tick(1)
	assert.Equal(t, 10, e.TimeLeft(), "completing tick must not advance")
	assert.Equal(t, 1, done)
	assert.False(t, e.Frozen())
	assert.Equal(t, StyleDefault, sink.lastStyle())

	e.Tick(1)
	assert.Equal(t, 9, e.TimeLeft())
}

func TestPauseBeatsFreeze(t *testing.T) {
	e, _ := newScaled(t, Config{Seconds: 10})
	e.Play()
	e.Freeze(time.Second, nil)
	e.Pause()

	e.Tick(5)
	assert.True(t, e.Frozen(), "freeze must not count down while paused")

	e.Unpause()
	e.Tick(5)
	assert.False(t, e.Frozen())
}

func TestFreezeRealtimePreservesRemaining(t *testing.T) {
	clock := NewManualClock(time.Time{})
	e, err := NewEngine(NewRegistry(nil, WithClock(clock)), Config{Mode: ModeRealtime, Seconds: 10}, nil)
	require.NoError(t, err)

	e.Play()
	clock.Advance(2 * time.Second)
	e.Tick(0.02)
	require.Equal(t, 8, e.TimeLeft())

	completed := false
	e.Freeze(5*time.Second, func() { completed = true })

	clock.Advance(4 * time.Second)
	e.Tick(0.02)
	assert.True(t, e.Frozen())
	assert.Equal(t, 8, e.TimeLeft())

	clock.Advance(time.Second)
	e.Tick(0.02)
	assert.True(t, completed)
	assert.False(t, e.Frozen())

	e.Tick(0.02)
	assert.Equal(t, 8, e.TimeLeft())
}

func TestRefreezeReplacesPendingFreeze(t *testing.T) {
	clock := NewManualClock(time.Time{})
	e, err := NewEngine(NewRegistry(nil, WithClock(clock)), Config{Mode: ModeRealtime, Seconds: 10}, nil)
	require.NoError(t, err)

	e.Play()
	e.Freeze(4*time.Second, nil)

	clock.Advance(time.Second)
	e.Tick(0.02)
	require.True(t, e.Frozen())

	completed := false
	e.Freeze(2*time.Second, func() { completed = true })

	clock.Advance(2 * time.Second)
	e.Tick(0.02)
	assert.True(t, completed)
	assert.False(t, e.Frozen())

	e.Tick(0.02)
	assert.Equal(t, 10, e.TimeLeft(), "only the three frozen seconds are added back")
}

func TestRestartCancelsFreeze(t *testing.T) {
	e, sink := newScaled(t, Config{Seconds: 10})
	e.Play()

	called := false
	e.Freeze(time.Second, func() { called = true })
	e.Restart(5)

	assert.False(t, e.Frozen())
	assert.False(t, e.Running())
	assert.Equal(t, StyleDefault, sink.lastStyle())
	assert.Equal(t, 5, e.TimeLeft())

	e.Tick(2)
	assert.False(t, called)
	assert.Equal(t, 5, e.TimeLeft(), "restart leaves the engine stopped")

	e.Play()
	e.Tick(2)
	assert.Equal(t, 3, e.TimeLeft())
}

func TestRestartClearsPause(t *testing.T) {
	e, _ := newScaled(t, Config{Seconds: 10})
	e.Play()
	e.Pause()

	e.Restart(4)
	assert.Equal(t, StateIdle, e.State())

	e.Play()
	e.Tick(1)
	assert.Equal(t, 3, e.TimeLeft())
}

func TestRestartAfterTimeout(t *testing.T) {
	e, _ := newScaled(t, Config{Seconds: 1})
	timeouts := 0
	e.OnTimeout(func() { timeouts++ })

	e.Play()
	e.Tick(1)
	require.True(t, e.TimedOut())

	e.Play()
	assert.True(t, e.TimedOut(), "play while running is a no-op")

	e.Restart(2)
	e.Play()
	e.Tick(1)
	assert.False(t, e.TimedOut())
	e.Tick(1)
	assert.True(t, e.TimedOut())
	assert.Equal(t, 2, timeouts)
}

func TestRealtimeCountdown(t *testing.T) {
	clock := NewManualClock(time.Time{})
	reg := NewRegistry(nil, WithClock(clock))
	sink := &recordingSink{}
	e, err := NewEngine(reg, Config{Mode: ModeRealtime, Display: DisplayHours, Hours: 1, Minutes: 1}, sink)
	require.NoError(t, err)

	timeouts := 0
	e.OnTimeout(func() { timeouts++ })

	e.Play()
	assert.Equal(t, "01:01:00", sink.lastText())

	clock.Advance(60 * time.Second)
	e.Tick(1000) // delta is ignored in realtime mode
	assert.Equal(t, "01:00:00", sink.lastText())

	clock.Advance(time.Second + 500*time.Millisecond)
	e.Tick(0)
	assert.Equal(t, "00:59:58", sink.lastText())
	assert.Equal(t, 3598, e.TimeLeft())

	clock.Advance(3598 * time.Second)
	e.Tick(0)
	assert.True(t, e.TimedOut())
	assert.Equal(t, 1, timeouts)
	assert.Equal(t, 0, e.TimeLeft())
}

func TestRealtimeLongCountdownDoesNotWrapDays(t *testing.T) {
	clock := NewManualClock(time.Time{})
	e, err := NewEngine(NewRegistry(nil, WithClock(clock)), Config{Mode: ModeRealtime, Display: DisplayHours}, nil)
	require.NoError(t, err)

	e.SetTime(WeekSeconds)
	e.Play()
	clock.Advance(time.Hour)
	e.Tick(0)

	assert.Equal(t, 166, e.Hours())
	assert.Equal(t, "166:59:59", e.Display())
}

func TestIsTimedOutNow(t *testing.T) {
	clock := NewManualClock(time.Time{})
	e, err := NewEngine(NewRegistry(nil, WithClock(clock)), Config{Mode: ModeRealtime, Seconds: 5}, nil)
	require.NoError(t, err)

	assert.False(t, e.IsTimedOutNow())

	e.Play()
	clock.Advance(4 * time.Second)
	assert.False(t, e.IsTimedOutNow())

	clock.Advance(time.Second)
	assert.True(t, e.IsTimedOutNow())
	assert.False(t, e.TimedOut(), "query must not advance the engine")
}

func TestPersistentRestartSurvivesProcessRestart(t *testing.T) {
	provider := store.NewMemoryProvider()
	clock := NewManualClock(time.Time{})
	cfg := Config{Name: "chest", Mode: ModeRealtime, Persistent: true, ID: 7, Display: DisplayMinutes}

	reg := NewRegistry(store.New(provider), WithClock(clock))
	e, err := NewEngine(reg, cfg, nil)
	require.NoError(t, err)
	e.Restart(90)
	e.Close()

	clock.Advance(30 * time.Second)

	// Fresh store and registry on the same provider, as after a restart.
	reg2 := NewRegistry(store.New(provider), WithClock(clock))
	e2, err := NewEngine(reg2, cfg, nil)
	require.NoError(t, err)
	assert.False(t, e2.IsTimedOutNow())

	e2.Play()
	assert.InDelta(t, 60, e2.TimeLeft(), 1)
	assert.Equal(t, "01:00", e2.Display())
}

func TestPersistentTimerExpiredWhileClosed(t *testing.T) {
	provider := store.NewMemoryProvider()
	clock := NewManualClock(time.Time{})
	cfg := Config{Mode: ModeRealtime, Persistent: true, ID: 4, Seconds: 10}

	reg := NewRegistry(store.New(provider), WithClock(clock))
	e, err := NewEngine(reg, cfg, nil)
	require.NoError(t, err)
	e.Play()
	e.Close()

	clock.Advance(20 * time.Second)

	reg2 := NewRegistry(store.New(provider), WithClock(clock))
	assert.True(t, reg2.Expired(4))

	e2, err := NewEngine(reg2, cfg, nil)
	require.NoError(t, err)
	assert.True(t, e2.IsTimedOutNow())

	timedOut := false
	e2.OnTimeout(func() { timedOut = true })
	e2.Play()
	e2.Tick(0)
	assert.True(t, timedOut)
}

func TestPlayArmsUnreadyRecord(t *testing.T) {
	clock := NewManualClock(time.Time{})
	st := store.New(store.NewMemoryProvider())
	e, err := NewEngine(NewRegistry(st, WithClock(clock)), Config{Mode: ModeRealtime, Persistent: true, ID: 2, Minutes: 2}, nil)
	require.NoError(t, err)

	_, ok := st.Get(2)
	assert.False(t, ok, "constructing an engine must not write")

	e.Play()
	rec, ok := st.Get(2)
	require.True(t, ok)
	assert.True(t, rec.Ready)
	assert.Equal(t, 120, rec.Seconds)
	assert.True(t, rec.Target.Equal(clock.Now()))
}

func TestFreezeShiftsPersistedTarget(t *testing.T) {
	clock := NewManualClock(time.Time{})
	st := store.New(store.NewMemoryProvider())
	e, err := NewEngine(NewRegistry(st, WithClock(clock)), Config{Mode: ModeRealtime, Persistent: true, ID: 9, Minutes: 1}, nil)
	require.NoError(t, err)

	e.Play()
	armed, _ := st.Get(9)

	e.Freeze(30*time.Second, nil)
	shifted, _ := st.Get(9)
	assert.True(t, shifted.Target.Equal(armed.Target.Add(30*time.Second)))
}

func TestRefreezeShiftsPersistedTargetOnce(t *testing.T) {
	clock := NewManualClock(time.Time{})
	st := store.New(store.NewMemoryProvider())
	e, err := NewEngine(NewRegistry(st, WithClock(clock)), Config{Mode: ModeRealtime, Persistent: true, ID: 9, Minutes: 1}, nil)
	require.NoError(t, err)

	e.Play()
	armed, _ := st.Get(9)

	e.Freeze(4*time.Second, nil)
	clock.Advance(time.Second)
	e.Freeze(2*time.Second, nil)

	shifted, _ := st.Get(9)
	assert.True(t, shifted.Target.Equal(armed.Target.Add(3*time.Second)), "target %v", shifted.Target)
}

func TestRearm(t *testing.T) {
	clock := NewManualClock(time.Time{})
	st := store.New(store.NewMemoryProvider())
	e, err := NewEngine(NewRegistry(st, WithClock(clock)), Config{Mode: ModeRealtime, Persistent: true, ID: 5, Seconds: 30}, nil)
	require.NoError(t, err)

	e.Play()
	clock.Advance(40 * time.Second)
	e.Tick(0)
	require.True(t, e.TimedOut())

	e.Rearm()
	assert.True(t, e.Running())
	assert.False(t, e.TimedOut())
	assert.Equal(t, 30, e.TimeLeft())

	rec, _ := st.Get(5)
	assert.True(t, rec.Target.Equal(clock.Now()))
}

func TestCloseUnregisters(t *testing.T) {
	reg := NewRegistry(nil)
	e, err := NewEngine(reg, Config{}, nil)
	require.NoError(t, err)
	require.Len(t, reg.Engines(), 1)

	e.Close()
	assert.Empty(t, reg.Engines())
}

func TestSetLowTimeThreshold(t *testing.T) {
	e, _ := newScaled(t, Config{LowTimeThreshold: 5})

	e.SetLowTimeThreshold(10)
	assert.Equal(t, 10, e.LowTimeThreshold())

	e.SetLowTimeThreshold(-3)
	assert.Equal(t, 0, e.LowTimeThreshold())
}
