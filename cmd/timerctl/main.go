// Command timerctl inspects and resets the persistent timer records kept in
// a sqlite database.
package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"text/tabwriter"
	"time"

	"Countdown/store"
	"Countdown/timer"

	"github.com/urfave/cli/v2"
)

var errNotConfirmed = errors.New("refusing to clear without --yes")

func main() {
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp(out io.Writer) *cli.App {
	app := cli.NewApp()
	app.Name = "timerctl"
	app.Usage = "Inspect persistent countdown timers"
	app.Writer = out
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "db",
			Usage:   "sqlite database path",
			Value:   "countdown.db",
			EnvVars: []string{"COUNTDOWN_DB"},
		},
		&cli.StringFlag{
			Name:  "key",
			Usage: "storage key of the timer collection",
			Value: store.DefaultKey,
		},
	}
	app.Commands = []*cli.Command{
		{
			Name:   "list",
			Usage:  "Print every stored record",
			Action: runList,
		},
		{
			Name:  "expired",
			Usage: "Report whether the timer with the given id has run out",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:     "id",
					Usage:    "timer id",
					Required: true,
				},
			},
			Action: runExpired,
		},
		{
			Name:  "arm",
			Usage: "Start a stored countdown now",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:     "id",
					Usage:    "timer id",
					Required: true,
				},
				&cli.IntFlag{
					Name:  "seconds",
					Usage: "countdown length",
					Value: timer.DaySeconds,
				},
			},
			Action: runArm,
		},
		{
			Name:  "clear",
			Usage: "Remove all stored records",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "yes",
					Usage: "confirm the removal",
				},
			},
			Action: runClear,
		},
	}
	return app
}

// withStore opens the database named by the global flags and runs fn.
func withStore(c *cli.Context, fn func(*store.Store) error) error {
	p, err := store.OpenSQLite(c.String("db"))
	if err != nil {
		return err
	}
	defer p.Close()

	return fn(store.New(p, store.WithKey(c.String("key"))))
}

func runList(c *cli.Context) error {
	return withStore(c, func(st *store.Store) error {
		now := time.Now()
		w := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tARMED\tSTARTED\tSECONDS\tLEFT")
		for _, r := range st.Load() {
			left := "-"
			if r.Ready {
				h, m, s := timer.SplitSeconds(max(r.Remaining(now), 0))
				left = timer.ComposeDisplay(timer.DisplayHours, h, m, s)
			}
			fmt.Fprintf(w, "%d\t%t\t%s\t%d\t%s\n", r.ID, r.Ready, store.FormatTimestamp(r.Target), r.Seconds, left)
		}
		return w.Flush()
	})
}

func runExpired(c *cli.Context) error {
	return withStore(c, func(st *store.Store) error {
		expired := timer.NewRegistry(st).Expired(c.Int("id"))
		fmt.Fprintln(c.App.Writer, expired)
		return nil
	})
}

func runArm(c *cli.Context) error {
	return withStore(c, func(st *store.Store) error {
		return st.Upsert(store.Record{
			ID:      c.Int("id"),
			Target:  time.Now(),
			Seconds: c.Int("seconds"),
			Ready:   true,
		})
	})
}

func runClear(c *cli.Context) error {
	if !c.Bool("yes") {
		return errNotConfirmed
	}
	return withStore(c, func(st *store.Store) error {
		return st.ClearAll()
	})
}
