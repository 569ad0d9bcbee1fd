package main

import (
	"Countdown/config"
	"Countdown/i18n"
	"Countdown/ui"
	"context"
	"embed"
	"log"

	"fyne.io/fyne/v2/app"
)

//go:embed assets/*
var content embed.FS

func main() {
	cfg, err := config.Load(content, config.PathFromEnv())
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	i18n.SetLang(cfg.Language)

	fyneApp := app.NewWithID("io.github.countdown")
	fyneApp.Settings().SetTheme(ui.NewCustomTheme(ui.DefaultPalette()))

	a, err := NewAppManager(cfg, fyneApp, content)
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}

	w := ui.CreateMainWindow(a, fyneApp, a.Widgets())

	ctx, cancel := context.WithCancel(context.Background())
	w.SetOnClosed(func() {
		cancel()
		a.Shutdown()
	})

	a.Start(ctx)

	w.ShowAndRun()
}
