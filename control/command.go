// Package control defines the command messages the UI sends to the
// application command loop. The loop is the only goroutine that touches
// timer engines, so every state change travels through a Command.
package control

import (
	"Countdown/timer"
	"time"
)

// CommandType enumerates supported command operations.
type CommandType int

const (
	CmdPlay CommandType = iota
	CmdStop
	CmdPause
	CmdUnpause
	CmdToggle
	CmdRestart
	CmdRearm
	CmdFreeze
	CmdRemoveAll
)

// String returns the command name used in log lines.
func (c CommandType) String() string {
	switch c {
	case CmdPlay:
		return "play"
	case CmdStop:
		return "stop"
	case CmdPause:
		return "pause"
	case CmdUnpause:
		return "unpause"
	case CmdToggle:
		return "toggle"
	case CmdRestart:
		return "restart"
	case CmdRearm:
		return "rearm"
	case CmdFreeze:
		return "freeze"
	case CmdRemoveAll:
		return "remove-all"
	default:
		return "unknown"
	}
}

// Command is the message sent from the UI to AppManager.commandLoop. The
// optional Reply channel receives the outcome once the loop has applied it.
type Command struct {
	Type     CommandType
	Target   *timer.Engine // nil for CmdRemoveAll
	Seconds  int           // CmdRestart
	Duration time.Duration // CmdFreeze
	Reply    chan error    // optional reply channel
}

// Apply runs the command against reg. Toggle plays an idle or timed-out
// timer, pauses a running one and resumes a paused one.
func (c Command) Apply(reg *timer.Registry) error {
	if c.Type == CmdRemoveAll {
		return reg.RemoveAll()
	}

	t := c.Target
	if t == nil {
		return nil
	}

	switch c.Type {
	case CmdPlay:
		t.Play()
	case CmdStop:
		t.Stop()
	case CmdPause:
		t.Pause()
	case CmdUnpause:
		t.Unpause()
	case CmdToggle:
		switch t.State() {
		case timer.StatePaused:
			t.Unpause()
		case timer.StateRunning, timer.StateFrozen:
			t.Pause()
		case timer.StateTimedOut:
			t.Rearm()
		default:
			t.Play()
		}
	case CmdRestart:
		t.Restart(c.Seconds)
	case CmdRearm:
		t.Rearm()
	case CmdFreeze:
		t.Freeze(c.Duration, nil)
	}
	return nil
}

// Respond delivers err on Reply without blocking.
func (c Command) Respond(err error) {
	if c.Reply == nil {
		return
	}
	select {
	case c.Reply <- err:
	default:
	}
}
