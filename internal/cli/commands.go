package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/justyntemme/sortview/internal/config"
	"github.com/justyntemme/sortview/internal/debug"
	"github.com/justyntemme/sortview/internal/model"
	"github.com/justyntemme/sortview/internal/sortkey"
)

func dirArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return ""
}

func newLsCmd(app *App) *cobra.Command {
	var names bool

	cmd := &cobra.Command{
		Use:   "ls [dir]",
		Short: "List a directory in sorted order",
		Long:  "List a directory. Use - for the last directory listed.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.open(cmd.Context(), cmd, dirArg(args), openOptions{})
			if err != nil {
				return err
			}
			defer s.Close()

			out := cmd.OutOrStdout()
			s.panel.View(func(m *model.Model) {
				if names {
					printNames(out, m)
					return
				}
				err = printTable(out, m)
			})
			return err
		},
	}
	cmd.Flags().BoolVar(&names, "names", false, "Print names only")
	return cmd
}

// redraw coalesces model notifications into a single pending signal.
type redraw struct {
	ch chan struct{}
}

func (r *redraw) signal() {
	select {
	case r.ch <- struct{}{}:
	default:
	}
}

func (r *redraw) LayoutAboutToChange() {}
func (r *redraw) LayoutChanged()       { r.signal() }
func (r *redraw) ItemChanged(int)      { r.signal() }

func newWatchCmd(app *App) *cobra.Command {
	var (
		names    bool
		duration time.Duration
	)

	cmd := &cobra.Command{
		Use:   "watch [dir]",
		Short: "List a directory and keep the listing up to date",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if duration > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, duration)
				defer cancel()
			}

			rd := &redraw{ch: make(chan struct{}, 1)}
			s, err := app.open(ctx, cmd, dirArg(args), openOptions{watch: true, observer: rd})
			if err != nil {
				return err
			}
			defer s.Close()

			out := cmd.OutOrStdout()
			draw := func() error {
				printHeader(out, "%s  %s", time.Now().Format("15:04:05"), s.dir)
				var err error
				s.panel.View(func(m *model.Model) {
					if names {
						printNames(out, m)
						return
					}
					err = printTable(out, m)
				})
				return err
			}
			// Drop the signal raised by the initial listing.
			select {
			case <-rd.ch:
			default:
			}
			if err := draw(); err != nil {
				return err
			}

			runErr := make(chan error, 1)
			go func() { runErr <- s.panel.Run(ctx) }()

			for {
				select {
				case <-ctx.Done():
					<-runErr
					return nil
				case err := <-runErr:
					if ctx.Err() != nil {
						return nil
					}
					return err
				case <-rd.ch:
					app.log.Log(debug.CLI, "redrawing %s", s.dir)
					if err := draw(); err != nil {
						return err
					}
				}
			}
		},
	}
	cmd.Flags().BoolVar(&names, "names", false, "Print names only")
	cmd.Flags().DurationVar(&duration, "for", 0, "Stop watching after this long (default: until interrupted)")
	return cmd
}

// parseSortArgs splits [dir] <column> [asc|desc]. hasDirection reports
// whether the direction was given.
func parseSortArgs(args []string) (dir string, column sortkey.Column, direction sortkey.Direction, hasDirection bool, err error) {
	rest := args
	if len(rest) >= 2 {
		if d, derr := sortkey.ParseDirection(rest[len(rest)-1]); derr == nil && rest[len(rest)-1] != "" {
			direction, hasDirection = d, true
			rest = rest[:len(rest)-1]
		}
	}
	switch len(rest) {
	case 1:
		column, err = sortkey.ParseColumn(rest[0])
	case 2:
		dir = rest[0]
		column, err = sortkey.ParseColumn(rest[1])
	default:
		err = errors.New("expected [dir] <column> [asc|desc]")
	}
	return dir, column, direction, hasDirection, err
}

func newSortCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "sort [dir] <column> [asc|desc]",
		Short: "Set and remember the ordering of a directory",
		Long:  "Set and remember the ordering of a directory. Without asc or desc, --desc picks the direction.",
		Args:  cobra.RangeArgs(1, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, column, direction, hasDirection, err := parseSortArgs(args)
			if err != nil {
				return err
			}
			if !hasDirection && app.Desc {
				direction = sortkey.Descending
			}
			ctx := cmd.Context()
			s, err := app.open(ctx, cmd, dir, openOptions{remember: true})
			if err != nil {
				return err
			}
			defer s.Close()
			if s.db == nil {
				return errors.New("remembering an ordering needs a store: set --db or store.path")
			}

			if err := s.panel.SetSort(ctx, column, direction); err != nil {
				return err
			}
			color.New(color.FgGreen).Fprintf(cmd.ErrOrStderr(), "%s: sorted by %s %s\n", s.dir, column, direction)

			out := cmd.OutOrStdout()
			s.panel.View(func(m *model.Model) {
				err = printTable(out, m)
			})
			return err
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or reset the configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := yaml.Marshal(app.cfg)
			if err != nil {
				return errors.Wrap(err, "encoding config")
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write a fresh default config, backing up the current one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := app.ConfigPath
			if path == "" {
				path = config.ConfigPath()
			}
			backup, err := config.GenerateConfig(path)
			if err != nil {
				return err
			}
			if backup != "" {
				color.New(color.FgYellow).Fprintf(cmd.ErrOrStderr(), "Backed up previous config to %s\n", backup)
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	})

	cmd.AddCommand(newConfigSetCmd(app))
	return cmd
}

func newConfigSetCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change a setting in the config file",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "sort <column> [asc|desc]",
		Short: "Set the default ordering",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			column, err := sortkey.ParseColumn(args[0])
			if err != nil {
				return err
			}
			direction := sortkey.Ascending
			if len(args) == 2 {
				if direction, err = sortkey.ParseDirection(args[1]); err != nil {
					return err
				}
			}
			app.mgr.SetSort(column, direction)
			return app.saveConfig(cmd)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "dotfiles <true|false>",
		Short: "Show or hide dotfiles by default",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			show, err := strconv.ParseBool(args[0])
			if err != nil {
				return errors.Wrapf(err, "parsing %q", args[0])
			}
			app.mgr.SetShowDotfiles(show)
			return app.saveConfig(cmd)
		},
	})
	return cmd
}

func (app *App) saveConfig(cmd *cobra.Command) error {
	if err := app.mgr.ParseError(); err != nil {
		return errors.Wrap(err, "refusing to overwrite a config that failed to parse")
	}
	if err := app.mgr.Save(); err != nil {
		return err
	}
	color.New(color.FgGreen).Fprintf(cmd.ErrOrStderr(), "Saved %s\n", app.mgr.Path())
	return nil
}
