package control

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Countdown/store"
	"Countdown/timer"
)

func TestToggleCycle(t *testing.T) {
	reg := timer.NewRegistry(nil)
	e, err := timer.NewEngine(reg, timer.Config{Seconds: 2}, nil)
	require.NoError(t, err)

	toggle := Command{Type: CmdToggle, Target: e}

	require.NoError(t, toggle.Apply(reg))
	assert.Equal(t, timer.StateRunning, e.State())

	require.NoError(t, toggle.Apply(reg))
	assert.Equal(t, timer.StatePaused, e.State())

	require.NoError(t, toggle.Apply(reg))
	assert.Equal(t, timer.StateRunning, e.State())

	e.Tick(2)
	require.Equal(t, timer.StateTimedOut, e.State())

	require.NoError(t, toggle.Apply(reg))
	assert.Equal(t, timer.StateRunning, e.State())
	assert.Equal(t, 2, e.TimeLeft())
}

func TestApply(t *testing.T) {
	reg := timer.NewRegistry(store.New(store.NewMemoryProvider()))
	e, err := timer.NewEngine(reg, timer.Config{Seconds: 10}, nil)
	require.NoError(t, err)

	require.NoError(t, Command{Type: CmdPlay, Target: e}.Apply(reg))
	assert.True(t, e.Running())

	require.NoError(t, Command{Type: CmdFreeze, Target: e, Duration: time.Second}.Apply(reg))
	assert.True(t, e.Frozen())

	require.NoError(t, Command{Type: CmdRestart, Target: e, Seconds: 42}.Apply(reg))
	assert.False(t, e.Running())
	assert.False(t, e.Frozen())
	assert.Equal(t, 42, e.TimeLeft())

	require.NoError(t, Command{Type: CmdRemoveAll}.Apply(reg))
	assert.Equal(t, 0, e.TimeLeft())

	assert.NoError(t, Command{Type: CmdPlay}.Apply(reg), "nil target is ignored")
}

func TestRespond(t *testing.T) {
	reply := make(chan error, 1)
	cmd := Command{Type: CmdStop, Reply: reply}

	cmd.Respond(nil)
	cmd.Respond(assert.AnError) // dropped, buffer full
	assert.NoError(t, <-reply)

	Command{}.Respond(assert.AnError)
}

func TestCommandTypeString(t *testing.T) {
	assert.Equal(t, "remove-all", CmdRemoveAll.String())
	assert.Equal(t, "unknown", CommandType(99).String())
}
