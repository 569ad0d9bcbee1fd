// Package main contains the application wiring and the AppManager which
// coordinates timers, storage, audio and the UI.
//
// Maintenance notes / tips:
//   - Concurrency model: timer engines are not safe for concurrent use. The
//     single command-loop goroutine (see `commandLoop`) owns them: it applies
//     commands coming from the UI and ticks every engine on the frame ticker.
//     Nothing else may call engine methods once the loop is running.
//   - Widgets render through sinks that schedule their updates with fyne.Do,
//     so the loop never touches fyne objects directly.
//   - `cmdCh` is a buffered channel used to enqueue commands from the UI. If
//     it stays full for a short timeout the command is dropped and logged.
package main

import (
	"Countdown/config"
	"Countdown/control"
	"Countdown/i18n"
	"Countdown/store"
	"Countdown/timer"
	"Countdown/ui"
	"context"
	"embed"
	"fmt"
	"io"
	"log"
	"os"
	"path"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/widget"
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"
	"github.com/gopxl/beep/vorbis"
)

const sampleRate = beep.SampleRate(44100)

// AppManager is the main application struct, holding all state.
type AppManager struct {
	cfg     *config.Config
	fyneApp fyne.App
	content embed.FS

	provider store.Provider
	registry *timer.Registry
	widgets  []*ui.TimerWidget

	cmdCh    chan control.Command
	loopDone chan struct{}
	shutdown sync.Once

	playButton   *widget.Button
	pauseButton  *widget.Button
	resumeButton *widget.Button
	removeButton *widget.Button
	lastControls controlState

	alert       *beep.Buffer
	speakerLock sync.Mutex
}

// controlState is what the footer and the cards show, computed on the loop.
type controlState struct {
	anyRunning bool
	anyPaused  bool
	active     []bool
}

func (s controlState) equal(o controlState) bool {
	if s.anyRunning != o.anyRunning || s.anyPaused != o.anyPaused || len(s.active) != len(o.active) {
		return false
	}
	for i := range s.active {
		if s.active[i] != o.active[i] {
			return false
		}
	}
	return true
}

// NewAppManager creates the storage, the registry and one engine and widget
// per configured timer.
func NewAppManager(cfg *config.Config, fyneApp fyne.App, content embed.FS) (*AppManager, error) {
	a := &AppManager{
		cfg:      cfg,
		fyneApp:  fyneApp,
		content:  content,
		cmdCh:    make(chan control.Command, 256),
		loopDone: make(chan struct{}),
	}

	provider, err := openProvider(cfg.Storage, fyneApp)
	if err != nil {
		return nil, err
	}
	a.provider = provider

	st := store.New(provider, store.WithKey(cfg.Storage.Key))
	a.registry = timer.NewRegistry(st)
	log.Printf("Using %s storage, %d stored records.", cfg.Storage.Backend, len(st.Load()))

	palette := ui.DefaultPalette()
	for _, tc := range cfg.Timers {
		w := ui.NewTimerWidget(a, tc, palette)
		e, err := timer.NewEngine(a.registry, tc, w.Sink())
		if err != nil {
			a.closeProvider()
			return nil, fmt.Errorf("timer %q: %w", tc.Name, err)
		}
		w.Bind(e)
		a.widgets = append(a.widgets, w)

		if tc.AutoPlay {
			e.Play()
		}
	}
	log.Printf("Loaded %d timers.", len(a.widgets))

	a.registry.OnTimeout(a.onTimeout)
	a.loadAlert()

	return a, nil
}

func openProvider(s config.Storage, fyneApp fyne.App) (store.Provider, error) {
	switch s.Backend {
	case config.BackendSQLite:
		p, err := store.OpenSQLite(s.Path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite %s: %w", s.Path, err)
		}
		return p, nil
	case config.BackendMemory:
		return store.NewMemoryProvider(), nil
	default:
		return store.NewPreferencesProvider(fyneApp.Preferences()), nil
	}
}

// Widgets returns the timer cards in configuration order.
func (a *AppManager) Widgets() []*ui.TimerWidget {
	return a.widgets
}

// Start runs the command loop until ctx is cancelled.
func (a *AppManager) Start(ctx context.Context) {
	go a.commandLoop(ctx)
}

// EnqueueCommand posts a command to the internal command loop.
func (a *AppManager) EnqueueCommand(cmd control.Command) {
	select {
	case a.cmdCh <- cmd:
	case <-time.After(150 * time.Millisecond):
		log.Printf("EnqueueCommand timeout: dropping %s command", cmd.Type)
	}
}

func (a *AppManager) commandLoop(ctx context.Context) {
	defer close(a.loopDone)

	ticker := time.NewTicker(a.cfg.TickInterval)
	defer ticker.Stop()
	last := time.Now()

	a.refreshControls()
	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-a.cmdCh:
			err := cmd.Apply(a.registry)
			if err != nil {
				log.Printf("Command %s failed: %v", cmd.Type, err)
			}
			cmd.Respond(err)
			a.refreshControls()
		case now := <-ticker.C:
			delta := now.Sub(last).Seconds()
			last = now
			for _, e := range a.registry.Engines() {
				e.Tick(delta)
			}
			a.refreshControls()
		}
	}
}

// refreshControls recomputes the footer and card state and pushes it to the
// UI when it changed. Runs on the command loop.
func (a *AppManager) refreshControls() {
	s := controlState{active: make([]bool, len(a.widgets))}
	for i, w := range a.widgets {
		switch w.Engine().State() {
		case timer.StateRunning, timer.StateFrozen:
			s.anyRunning = true
			s.active[i] = true
		case timer.StatePaused:
			s.anyPaused = true
		}
	}
	if s.equal(a.lastControls) {
		return
	}
	a.lastControls = s

	fyne.Do(func() {
		for i, w := range a.widgets {
			w.SetActive(s.active[i])
		}
		if a.playButton == nil {
			return
		}
		switch {
		case s.anyRunning:
			a.playButton.Hide()
			a.pauseButton.Show()
			a.resumeButton.Hide()
		case s.anyPaused:
			a.playButton.Hide()
			a.pauseButton.Hide()
			a.resumeButton.Show()
		default:
			a.playButton.Show()
			a.pauseButton.Hide()
			a.resumeButton.Hide()
		}
	})
}

func (a *AppManager) onTimeout(e *timer.Engine) {
	log.Printf("Timer %q timed out.", e.Name())
	a.PlaySound()

	name := e.Name()
	fyne.Do(func() {
		a.fyneApp.SendNotification(fyne.NewNotification(i18n.T("Timed out"), name))
	})
}

// loadAlert prepares the timeout sound: the configured Ogg Vorbis file, or a
// sine tone when none is set or it cannot be decoded.
func (a *AppManager) loadAlert() {
	alertCfg := a.cfg.Alert
	if alertCfg.Muted {
		return
	}

	if err := speaker.Init(sampleRate, sampleRate.N(time.Second/10)); err != nil {
		log.Printf("Audio disabled: Failed to initialize speaker: %v\n", err)
		return
	}

	buffer := beep.NewBuffer(beep.Format{SampleRate: sampleRate, NumChannels: 2, Precision: 2})

	if alertCfg.SoundFile != "" {
		err := a.appendVorbis(buffer, alertCfg.SoundFile)
		if err == nil {
			a.alert = buffer
			return
		}
		log.Printf("Failed to load alert %s, using tone: %v", alertCfg.SoundFile, err)
	}

	tone, err := generators.SineTone(sampleRate, alertCfg.ToneHz)
	if err != nil {
		log.Printf("Audio disabled: %v", err)
		return
	}
	buffer.Append(beep.Take(sampleRate.N(alertCfg.Duration), tone))
	a.alert = buffer
}

// appendVorbis decodes name from disk, falling back to the embedded assets,
// and appends it to buffer at the speaker sample rate.
func (a *AppManager) appendVorbis(buffer *beep.Buffer, name string) error {
	var data io.ReadCloser
	if f, err := os.Open(name); err == nil {
		data = f
	} else {
		f, err := a.content.Open(path.Join("assets", name))
		if err != nil {
			return err
		}
		data = f
	}

	streamer, format, err := vorbis.Decode(data)
	if err != nil {
		data.Close()
		return err
	}
	defer streamer.Close()

	buffer.Append(beep.Resample(4, format.SampleRate, sampleRate, streamer))
	return nil
}

// PlaySound plays the timeout alert.
func (a *AppManager) PlaySound() {
	if a.alert == nil {
		return
	}

	a.speakerLock.Lock()
	defer a.speakerLock.Unlock()

	speaker.Play(a.alert.Streamer(0, a.alert.Len()))
}

// HandleKeyRune handles key presses for the application: space drives the
// visible footer button, r asks to remove all timers and 1-9 toggle a timer.
func (a *AppManager) HandleKeyRune(r rune) {
	switch {
	case r == ' ':
		for _, b := range []*widget.Button{a.pauseButton, a.resumeButton, a.playButton} {
			if b != nil && !b.Hidden {
				b.Tapped(&fyne.PointEvent{})
				return
			}
		}
	case r == 'r' || r == 'R':
		if a.removeButton != nil {
			a.removeButton.Tapped(&fyne.PointEvent{})
		}
	case r >= '1' && r <= '9':
		index := int(r - '1')
		if index < len(a.widgets) {
			a.EnqueueCommand(control.Command{Type: control.CmdToggle, Target: a.widgets[index].Engine()})
		}
	}
}

// SetPlayButton sets the play-all button widget.
func (a *AppManager) SetPlayButton(btn *widget.Button) {
	a.playButton = btn
}

// SetPauseButton sets the pause button widget.
func (a *AppManager) SetPauseButton(btn *widget.Button) {
	a.pauseButton = btn
}

// SetResumeButton sets the resume button widget.
func (a *AppManager) SetResumeButton(btn *widget.Button) {
	a.resumeButton = btn
}

// SetRemoveButton sets the remove-all button widget.
func (a *AppManager) SetRemoveButton(btn *widget.Button) {
	a.removeButton = btn
}

// Shutdown waits for the command loop to exit, flushes every engine and
// closes the storage. The caller cancels the loop context first.
func (a *AppManager) Shutdown() {
	a.shutdown.Do(func() {
		select {
		case <-a.loopDone:
		case <-time.After(time.Second):
			log.Printf("Command loop did not stop in time")
		}
		for _, e := range a.registry.Engines() {
			e.Close()
		}
		a.closeProvider()
	})
}

func (a *AppManager) closeProvider() {
	if c, ok := a.provider.(io.Closer); ok {
		if err := c.Close(); err != nil {
			log.Printf("Failed to close storage: %v", err)
		}
	}
}
