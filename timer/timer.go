// Package timer contains the countdown engine: the Config definition, the
// Engine state machine, display formatting and the Registry that ties engines
// to a persistence store.
//
// Maintenance notes:
//   - An Engine is not safe for concurrent use. All calls, Tick included, must
//     come from one goroutine; the application funnels them through its
//     command loop.
//   - Realtime engines never accumulate deltas. Every Tick recomputes the
//     remaining time from the start instant and the configured countdown, so
//     a suspended process resumes with the correct value.
//   - Persistent engines keep a copy of their store.Record. The copy is
//     re-read from the store on Play, Restart and IsTimedOutNow.
package timer

import (
	"log/slog"
	"time"

	"Countdown/store"
)

// Engine is one countdown timer.
type Engine struct {
	reg  *Registry
	cfg  Config
	sink Sink
	log  *slog.Logger

	// configured countdown; in realtime mode the offset added to start
	durHours, durMinutes, durSeconds float64

	// remaining countdown
	hours, minutes, seconds float64

	start    time.Time
	running  bool
	paused   bool
	timedOut bool

	frozen       bool
	freezeLeft   float64
	freezeUntil  time.Time
	onFreezeDone func()

	style  Style
	record store.Record

	timeoutObs observers[func()]
	lowTimeObs observers[func(int)]
}

// NewEngine validates cfg, registers the engine with reg and, for persistent
// timers, loads or creates its record. A nil sink discards display output.
func NewEngine(reg *Registry, cfg Config, sink Sink) (*Engine, error) {
	if reg == nil {
		return nil, ErrNoRegistry
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Persistent && reg.store == nil {
		return nil, ErrNoStore
	}
	if sink == nil {
		sink = NopSink{}
	}

	e := &Engine{
		reg:  reg,
		cfg:  cfg,
		sink: sink,
		log:  reg.log.With("timer", cfg.Name, "id", cfg.ID),
	}
	h, m, s := SplitSeconds(cfg.TotalSeconds())
	e.setCountdown(float64(h), float64(m), float64(s))

	reg.Register(e)
	if cfg.Persistent {
		e.reloadRecord()
	}

	e.sink.SetStyle(StyleDefault)
	e.render()
	return e, nil
}

// ID returns the configured timer id.
func (e *Engine) ID() int { return e.cfg.ID }

// Name returns the configured timer name.
func (e *Engine) Name() string { return e.cfg.Name }

// Mode returns the timekeeping mode.
func (e *Engine) Mode() Mode { return e.cfg.Mode }

// Config returns the configuration the engine was built with.
func (e *Engine) Config() Config { return e.cfg }

// Hours returns the remaining whole hours.
func (e *Engine) Hours() int { return int(e.hours) }

// Minutes returns the remaining whole minutes.
func (e *Engine) Minutes() int { return int(e.minutes) }

// Seconds returns the remaining whole seconds.
func (e *Engine) Seconds() int { return int(e.seconds) }

// Display returns the formatted remaining time.
func (e *Engine) Display() string {
	return ComposeDisplay(e.cfg.Display, e.Hours(), e.Minutes(), e.Seconds())
}

// Style returns the style last pushed to the sink.
func (e *Engine) Style() Style { return e.style }

// Running reports whether Play was called and not undone by Stop or Restart.
func (e *Engine) Running() bool { return e.running }

// Paused reports whether the engine is paused.
func (e *Engine) Paused() bool { return e.paused }

// Frozen reports whether a freeze is pending.
func (e *Engine) Frozen() bool { return e.frozen }

// TimedOut reports whether the current run reached zero.
func (e *Engine) TimedOut() bool { return e.timedOut }

// State returns the engine state. Pause wins over freeze, freeze over
// timeout.
func (e *Engine) State() State {
	switch {
	case e.paused:
		return StatePaused
	case e.frozen:
		return StateFrozen
	case e.timedOut:
		return StateTimedOut
	case e.running:
		return StateRunning
	default:
		return StateIdle
	}
}

// LowTimeThreshold returns the low-time threshold in seconds.
func (e *Engine) LowTimeThreshold() int { return e.cfg.LowTimeThreshold }

// SetLowTimeThreshold changes the low-time threshold. Negative values are
// treated as zero.
func (e *Engine) SetLowTimeThreshold(seconds int) {
	e.cfg.LowTimeThreshold = max(seconds, 0)
}

// OnTimeout subscribes fn to this engine's timeout. Call cancel to
// unsubscribe.
func (e *Engine) OnTimeout(fn func()) (cancel func()) {
	return e.timeoutObs.add(fn)
}

// OnLowTime subscribes fn to low-time notifications. fn receives the whole
// seconds remaining and is called on every tick the condition holds.
func (e *Engine) OnLowTime(fn func(seconds int)) (cancel func()) {
	return e.lowTimeObs.add(fn)
}

// SetTime sets the countdown to total seconds and refreshes the display.
// Negative values are treated as zero.
func (e *Engine) SetTime(total int) {
	h, m, s := SplitSeconds(max(total, 0))
	e.setCountdown(float64(h), float64(m), float64(s))
	e.render()
}

// SetComponents sets the countdown components directly, without
// normalizing them.
func (e *Engine) SetComponents(h, m, s int) {
	e.setCountdown(float64(max(h, 0)), float64(max(m, 0)), float64(max(s, 0)))
	e.render()
}

// TimeLeft returns the remaining time in whole seconds. Negative components
// do not contribute.
func (e *Engine) TimeLeft() int {
	return max(e.Hours(), 0)*3600 + max(e.Minutes(), 0)*60 + max(e.Seconds(), 0)
}

// Play starts the countdown. It does nothing while the engine is running.
func (e *Engine) Play() {
	if e.running {
		return
	}

	now := e.reg.clock.Now()
	if e.cfg.Persistent {
		e.reloadRecord()
		if !e.record.Ready {
			e.record.Ready = true
			e.record.Target = now
			e.record.Seconds = e.configuredSeconds()
			e.persist()
		}
		e.start = e.record.TargetOr(now)
		h, m, s := SplitSeconds(max(e.record.Seconds, 0))
		e.setCountdown(float64(h), float64(m), float64(s))
	} else {
		e.start = now
	}

	e.timedOut = false
	e.running = true
	if e.cfg.Mode == ModeRealtime {
		e.syncRealtime(now)
	}
	e.render()
	e.log.Debug("timer started", "left", e.TimeLeft())
}

// Stop halts advancement. Persistent engines write their record.
func (e *Engine) Stop() {
	e.running = false
	if e.cfg.Persistent {
		e.persist()
	}
}

// Pause suspends Tick without touching the countdown.
func (e *Engine) Pause() { e.paused = true }

// Unpause resumes Tick after Pause.
func (e *Engine) Unpause() { e.paused = false }

// Restart cancels the current run, a pause and any pending freeze, sets the
// countdown to seconds and re-arms the start instant at now. The engine stays
// stopped until Play. Persistent engines store the new start instant.
func (e *Engine) Restart(seconds int) {
	now := e.reg.clock.Now()

	e.start = now
	e.running = false
	e.paused = false
	e.timedOut = false
	e.cancelFreeze()
	e.applyStyle(StyleDefault)
	e.SetTime(seconds)

	if e.cfg.Persistent {
		e.reloadRecord()
		e.record.Target = now
		e.record.Seconds = e.configuredSeconds()
		e.record.Ready = true
		e.persist()
	}
}

// Rearm restarts the configured countdown from now and starts running
// immediately.
func (e *Engine) Rearm() {
	now := e.reg.clock.Now()

	e.start = now
	e.setCountdown(e.durHours, e.durMinutes, e.durSeconds)
	if e.cfg.Persistent {
		e.reloadRecord()
		e.record.Target = now
		e.record.Seconds = e.configuredSeconds()
		e.record.Ready = true
		e.persist()
	}

	e.timedOut = false
	e.running = true
	e.render()
}

// Freeze suspends the countdown for d. The start instant moves forward by d
// so the remaining time is unchanged once the freeze ends. Freezing again
// while frozen replaces the unelapsed part of the pending freeze, which is
// taken back from the shift. onComplete, if not nil, runs on the tick that
// ends the freeze and replaces any pending callback.
func (e *Engine) Freeze(d time.Duration, onComplete func()) {
	d = max(d, 0)
	now := e.reg.clock.Now()

	shift := d
	if e.frozen {
		shift -= e.pendingFreeze(now)
	}

	e.frozen = true
	e.onFreezeDone = onComplete
	e.freezeLeft = d.Seconds()
	e.freezeUntil = now.Add(d)
	e.start = e.start.Add(shift)

	if e.cfg.Persistent && e.record.Ready {
		e.record.Target = e.record.TargetOr(now).Add(shift)
		e.persist()
	}
	e.applyStyle(StyleFreeze)
}

// Tick advances the engine by delta seconds. Realtime engines ignore delta
// except while frozen.
func (e *Engine) Tick(delta float64) {
	if e.paused {
		return
	}
	if e.frozen {
		e.tickFreeze(delta)
		return
	}
	if !e.running || e.timedOut {
		return
	}

	if e.cfg.Mode == ModeRealtime {
		e.syncRealtime(e.reg.clock.Now())
	} else {
		e.advanceScaled(max(delta, 0))
	}

	e.render()
	e.updateLowTime()

	if !e.hasTimeLeft() {
		e.timedOut = true
		e.log.Debug("timer timed out")
		e.timeoutObs.each(func(fn func()) { fn() })
		e.reg.fireTimeout(e)
	}
}

// IsTimedOutNow reports whether the countdown has run out without advancing
// the engine. A stopped persistent engine answers from its stored record,
// which covers timers that expired while the process was not running.
func (e *Engine) IsTimedOutNow() bool {
	if e.cfg.Mode == ModeScaled {
		return !e.hasTimeLeft()
	}

	now := e.reg.clock.Now()
	if !e.running {
		if e.cfg.Persistent {
			e.reloadRecord()
			if e.record.Ready {
				return e.record.Expired(now)
			}
		}
		return !e.hasTimeLeft()
	}

	h, m, s := SplitSeconds(e.remainingAt(now))
	return h <= 0 && m <= 0 && s <= 0
}

// Close flushes a running persistent engine and unregisters it.
func (e *Engine) Close() {
	if e.cfg.Persistent && e.running {
		e.persist()
	}
	e.reg.Unregister(e)
}

func (e *Engine) setCountdown(h, m, s float64) {
	e.durHours, e.durMinutes, e.durSeconds = h, m, s
	e.hours, e.minutes, e.seconds = h, m, s
}

func (e *Engine) configuredSeconds() int {
	return int(e.durHours)*3600 + int(e.durMinutes)*60 + int(e.durSeconds)
}

func (e *Engine) offset() time.Duration {
	total := e.durHours*3600 + e.durMinutes*60 + e.durSeconds
	return time.Duration(total * float64(time.Second))
}

// remainingAt returns the whole seconds between now and the end instant,
// truncated toward zero.
func (e *Engine) remainingAt(now time.Time) int {
	return int(e.start.Add(e.offset()).Sub(now) / time.Second)
}

func (e *Engine) syncRealtime(now time.Time) {
	h, m, s := SplitSeconds(e.remainingAt(now))
	e.hours, e.minutes, e.seconds = float64(h), float64(m), float64(s)
}

// advanceScaled subtracts delta from the seconds, borrowing from minutes and
// hours. The overshoot carries into the borrowed minute.
func (e *Engine) advanceScaled(delta float64) {
	e.seconds -= delta
	for e.seconds < 0 && (e.minutes > 0 || e.hours > 0) {
		if e.minutes <= 0 {
			e.hours--
			e.minutes += 60
		}
		e.minutes--
		e.seconds += 60
	}
	if e.seconds < 0 {
		e.seconds = 0
	}
}

func (e *Engine) hasTimeLeft() bool {
	return e.hours > 0 || e.minutes > 0 || e.seconds > 0
}

func (e *Engine) tickFreeze(delta float64) {
	if e.cfg.Mode == ModeRealtime {
		if e.reg.clock.Now().Before(e.freezeUntil) {
			return
		}
	} else {
		e.freezeLeft -= delta
		if e.freezeLeft > 0 {
			return
		}
	}

	done := e.onFreezeDone
	e.cancelFreeze()
	e.applyStyle(StyleDefault)
	if done != nil {
		done()
	}
}

// pendingFreeze returns how much of the current freeze has not elapsed yet.
func (e *Engine) pendingFreeze(now time.Time) time.Duration {
	if e.cfg.Mode == ModeRealtime {
		return max(e.freezeUntil.Sub(now), 0)
	}
	return time.Duration(max(e.freezeLeft, 0) * float64(time.Second))
}

func (e *Engine) cancelFreeze() {
	e.frozen = false
	e.freezeLeft = 0
	e.freezeUntil = time.Time{}
	e.onFreezeDone = nil
}

func (e *Engine) updateLowTime() {
	if !e.cfg.UseLowStyle {
		return
	}
	if e.seconds > float64(e.cfg.LowTimeThreshold) || e.hours > 0 || e.minutes > 0 {
		return
	}

	e.applyStyle(StyleLow)
	left := max(e.Seconds(), 0)
	e.lowTimeObs.each(func(fn func(int)) { fn(left) })
}

func (e *Engine) applyStyle(s Style) {
	if e.style == s {
		return
	}
	e.style = s
	e.sink.SetStyle(s)
}

func (e *Engine) render() {
	e.sink.SetText(e.Display())
}

func (e *Engine) reloadRecord() {
	if rec, ok := e.reg.store.Get(e.cfg.ID); ok {
		e.record = rec
		return
	}
	e.log.Debug("no stored record, starting unarmed")
	e.record = store.Record{ID: e.cfg.ID}
}

func (e *Engine) persist() {
	if err := e.reg.store.Upsert(e.record); err != nil {
		e.log.Warn("persist timer record", "err", err)
	}
}
