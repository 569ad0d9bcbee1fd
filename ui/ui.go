package ui

import (
	"Countdown/control"
	"Countdown/i18n"
	"Countdown/timer"
	"errors"
	"image/color"
	"strconv"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"
)

// UI constants
const (
	FontSize     float32 = 22.0 // Title
	FontSizeTime float32 = 26.0 // Time display

	// Dimensions
	TimerWidth        = 320
	TimerHeight       = 96
	GapButton         = 5
	TimerSpacing      = 1
	ControlButtonsGap = 5
	CornerRadius      = 10.0
	CustomInputWidth  = 155

	replyTimeout = 200 * time.Millisecond

	// DefaultFreeze is used by the card's freeze action when no duration is typed.
	DefaultFreeze = 30 * time.Second
)

var (
	// BackgroundColor is the base background color for timers.
	BackgroundColor = color.NRGBA{R: 0x1e, G: 0x1e, B: 0x1e, A: 0xff}

	errInvalidTime = errors.New("invalid time")
)

// App is what the widgets need from the application. Widgets never call
// engine methods directly; everything goes through EnqueueCommand.
type App interface {
	EnqueueCommand(cmd control.Command)
	HandleKeyRune(rune)
	SetPlayButton(*widget.Button)
	SetPauseButton(*widget.Button)
	SetResumeButton(*widget.Button)
	SetRemoveButton(*widget.Button)
}

// send enqueues cmd and waits briefly for the loop to apply it.
func send(a App, cmd control.Command) {
	cmd.Reply = make(chan error, 1)
	a.EnqueueCommand(cmd)
	select {
	case <-cmd.Reply:
	case <-time.After(replyTimeout):
	}
}

// sendAll sends one command per engine and waits for all replies.
func sendAll(a App, typ control.CommandType, engines []*timer.Engine) {
	var replies []chan error
	for _, e := range engines {
		reply := make(chan error, 1)
		a.EnqueueCommand(control.Command{Type: typ, Target: e, Reply: reply})
		replies = append(replies, reply)
	}
	for _, r := range replies {
		select {
		case <-r:
		case <-time.After(replyTimeout):
		}
	}
}

// TimerWidget is the card for one timer. The engine renders into it through
// Sink; taps are turned into commands.
type TimerWidget struct {
	cfg    timer.Config
	engine *timer.Engine

	nameText         *canvas.Text
	timeText         *canvas.Text
	colorFilterRect  *canvas.Rectangle
	borderRect       *canvas.Rectangle
	tappable         *TappableContainer
	contentContainer *fyne.Container
	inputContainer   *fyne.Container
	timeEntry        *widget.Entry
	setButton        *widget.Button
	freezeButton     *widget.Button

	sink     timer.MultiSink
	overview *RichTextSink
}

// NewTimerWidget builds the card for cfg. Bind must be called with the
// engine before the widget is shown.
func NewTimerWidget(a App, cfg timer.Config, p Palette) *TimerWidget {
	w := &TimerWidget{cfg: cfg}

	w.nameText = canvas.NewText(cfg.Name, color.White)
	w.nameText.TextSize = FontSize

	w.timeText = canvas.NewText("--:--", p.Default)
	w.timeText.TextStyle.Bold = true
	w.timeText.TextSize = FontSizeTime

	w.colorFilterRect = canvas.NewRectangle(withAlpha(BackgroundColor, 0xa6))
	w.colorFilterRect.CornerRadius = CornerRadius

	w.borderRect = canvas.NewRectangle(color.Transparent)
	w.borderRect.SetMinSize(fyne.NewSize(TimerWidth, TimerHeight))
	w.borderRect.CornerRadius = CornerRadius

	w.contentContainer = container.New(layout.NewVBoxLayout(),
		layout.NewSpacer(),
		container.New(layout.NewCenterLayout(), w.nameText),
		container.New(layout.NewCenterLayout(), w.timeText),
		layout.NewSpacer(),
	)

	w.timeEntry = widget.NewEntry()
	w.timeEntry.SetPlaceHolder(i18n.T("mm:ss or seconds"))

	restartWith := func() {
		seconds := cfg.TotalSeconds()
		if text := strings.TrimSpace(w.timeEntry.Text); text != "" {
			val, err := parseTime(text)
			if err != nil {
				return
			}
			seconds = val
		}
		send(a, control.Command{Type: control.CmdRestart, Target: w.engine, Seconds: seconds})
		w.inputContainer.Hide()
		w.contentContainer.Show()
	}
	w.setButton = widget.NewButton(i18n.T("Restart"), restartWith)
	w.timeEntry.OnSubmitted = func(string) { restartWith() }

	w.freezeButton = widget.NewButton(i18n.T("Freeze"), func() {
		d := DefaultFreeze
		if text := strings.TrimSpace(w.timeEntry.Text); text != "" {
			val, err := parseTime(text)
			if err != nil {
				return
			}
			d = time.Duration(val) * time.Second
		}
		send(a, control.Command{Type: control.CmdFreeze, Target: w.engine, Duration: d})
		w.inputContainer.Hide()
		w.contentContainer.Show()
	})

	sizeEnforcer := canvas.NewRectangle(color.Transparent)
	sizeEnforcer.SetMinSize(fyne.NewSize(CustomInputWidth, 0))
	paddedEntry := container.New(layout.NewPaddedLayout(), w.timeEntry)
	inputWrapper := container.New(layout.NewStackLayout(), sizeEnforcer, paddedEntry)
	w.inputContainer = container.New(layout.NewHBoxLayout(), inputWrapper, w.setButton, w.freezeButton)
	inputCentered := container.New(layout.NewVBoxLayout(), layout.NewSpacer(), container.New(layout.NewCenterLayout(), w.inputContainer), layout.NewSpacer())
	w.inputContainer.Hide()

	contentStack := container.NewStack(w.contentContainer, inputCentered)
	w.tappable = NewTappableContainer(container.NewStack(w.colorFilterRect, contentStack, w.borderRect), nil, nil)

	w.tappable.OnTappedPrimary = func() {
		if w.inputContainer.Visible() {
			return
		}
		send(a, control.Command{Type: control.CmdToggle, Target: w.engine})
	}

	w.tappable.OnTappedSecondary = func(*fyne.PointEvent) {
		w.timeEntry.SetText("")
		w.contentContainer.Hide()
		w.inputContainer.Show()
	}

	w.overview = NewRichTextSink(cfg.Name)
	w.sink = timer.MultiSink{NewTextSink(w.timeText, p), w.overview}
	return w
}

// Sink returns the display sink the engine should render into.
func (w *TimerWidget) Sink() timer.Sink {
	return w.sink
}

// Bind attaches the engine the widget's commands target.
func (w *TimerWidget) Bind(e *timer.Engine) {
	w.engine = e
}

// Engine returns the bound engine.
func (w *TimerWidget) Engine() *timer.Engine {
	return w.engine
}

func (w *TimerWidget) GetCanvasObject() fyne.CanvasObject {
	return w.tappable
}

// SetActive dims the card while the timer is not counting down. Call it on
// the fyne goroutine.
func (w *TimerWidget) SetActive(active bool) {
	opacity := 0.65
	if active {
		opacity = 0.25
	}
	w.colorFilterRect.FillColor = withAlpha(BackgroundColor, uint8(opacity*255))
	w.colorFilterRect.Refresh()
}

// parseTime accepts "ss", "mm:ss" or "hh:mm:ss" and returns whole seconds in
// (0, timer.WeekSeconds].
func parseTime(input string) (int, error) {
	parts := strings.Split(strings.TrimSpace(input), ":")
	if len(parts) > 3 {
		return 0, errInvalidTime
	}

	val := 0
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return 0, errInvalidTime
		}
		// Every component after the first is bounded by its unit.
		if i > 0 && n >= 60 {
			return 0, errInvalidTime
		}
		val = val*60 + n
	}

	if val <= 0 || val > timer.WeekSeconds {
		return 0, errInvalidTime
	}
	return val, nil
}

func BuildTimersList(widgets []*TimerWidget) *fyne.Container {
	listContainer := container.NewVBox()
	for _, w := range widgets {
		listContainer.Add(w.GetCanvasObject())
		spacer := canvas.NewRectangle(color.Transparent)
		spacer.SetMinSize(fyne.NewSize(0, TimerSpacing))
		listContainer.Add(spacer)
	}
	return listContainer
}

// BuildOverview lists every timer on one line inside a collapsed accordion.
func BuildOverview(widgets []*TimerWidget) fyne.CanvasObject {
	lines := container.NewVBox()
	for _, w := range widgets {
		lines.Add(w.overview.Widget())
	}
	return widget.NewAccordion(widget.NewAccordionItem(i18n.T("Overview"), lines))
}

func BuildFooter(a App, w fyne.Window, widgets []*TimerWidget) fyne.CanvasObject {
	engines := func() []*timer.Engine {
		out := make([]*timer.Engine, 0, len(widgets))
		for _, tw := range widgets {
			out = append(out, tw.engine)
		}
		return out
	}

	playButton := widget.NewButton(i18n.T("Play all"), func() {
		sendAll(a, control.CmdPlay, engines())
	})

	pauseButton := widget.NewButton(i18n.T("Pause"), func() {
		sendAll(a, control.CmdPause, engines())
	})
	pauseButton.Hide()

	resumeButton := widget.NewButton(i18n.T("Resume"), func() {
		sendAll(a, control.CmdUnpause, engines())
	})
	resumeButton.Hide()

	removeButton := widget.NewButton(i18n.T("Remove all"), func() {
		dialog.ShowConfirm(i18n.T("Remove all"), i18n.T("Remove all timers? Stored countdowns are lost."), func(ok bool) {
			if ok {
				send(a, control.Command{Type: control.CmdRemoveAll})
			}
		}, w)
	})

	a.SetPlayButton(playButton)
	a.SetPauseButton(pauseButton)
	a.SetResumeButton(resumeButton)
	a.SetRemoveButton(removeButton)

	controlStack := container.NewStack(playButton, pauseButton, resumeButton)

	buttonsSpacer := canvas.NewRectangle(color.Transparent)
	buttonsSpacer.SetMinSize(fyne.NewSize(ControlButtonsGap, 0))

	controlButtons := container.NewHBox(controlStack, buttonsSpacer, removeButton)

	return container.NewHBox(
		layout.NewSpacer(),
		controlButtons,
		layout.NewSpacer(),
	)
}

func CreateMainWindow(a App, fyneApp fyne.App, widgets []*TimerWidget) fyne.Window {
	title := fyneApp.Metadata().Name
	if title == "" {
		title = "Countdown"
	}
	w := fyneApp.NewWindow(title)

	listContainer := BuildTimersList(widgets)
	footerLayout := BuildFooter(a, w, widgets)

	w.Canvas().SetOnTypedRune(a.HandleKeyRune)

	bottomSpacer := canvas.NewRectangle(color.Transparent)
	bottomSpacer.SetMinSize(fyne.NewSize(0, GapButton))

	contentVBox := container.NewVBox(
		listContainer,
		BuildOverview(widgets),
		bottomSpacer,
		footerLayout,
	)

	w.SetContent(container.NewVScroll(contentVBox))
	w.Resize(fyne.NewSize(TimerWidth, 480))
	return w
}

type TappableContainer struct {
	widget.BaseWidget
	Content           fyne.CanvasObject
	OnTappedPrimary   func()
	OnTappedSecondary func(e *fyne.PointEvent)
}

func NewTappableContainer(c fyne.CanvasObject, onP func(), onS func(e *fyne.PointEvent)) *TappableContainer {
	t := &TappableContainer{
		Content:           c,
		OnTappedPrimary:   onP,
		OnTappedSecondary: onS,
	}
	t.ExtendBaseWidget(t)
	return t
}

func (t *TappableContainer) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(container.NewHBox(t.Content, layout.NewSpacer()))
}

func (t *TappableContainer) Tapped(_ *fyne.PointEvent) {
	if t.OnTappedPrimary != nil {
		t.OnTappedPrimary()
	}
}

func (t *TappableContainer) TappedSecondary(e *fyne.PointEvent) {
	if t.OnTappedSecondary != nil {
		t.OnTappedSecondary(e)
	}
}

func withAlpha(c color.Color, alpha uint8) color.NRGBA {
	r, g, b, _ := c.RGBA()
	return color.NRGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: alpha}
}
