// Package cli implements the sortview command line.
package cli

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/justyntemme/sortview/internal/config"
	"github.com/justyntemme/sortview/internal/debug"
	"github.com/justyntemme/sortview/internal/fs"
	"github.com/justyntemme/sortview/internal/metrics"
	"github.com/justyntemme/sortview/internal/model"
	"github.com/justyntemme/sortview/internal/panel"
	"github.com/justyntemme/sortview/internal/sortkey"
	"github.com/justyntemme/sortview/internal/store"
)

// lastDirKey is the settings key remembering the last listed directory.
const lastDirKey = "last_dir"

// defaultDebug is what a bare --debug enables.
const defaultDebug = "MODEL,SORT,FS,WATCH,STORE,CLI"

// App holds the persistent flags and the collaborators built from them.
type App struct {
	ConfigPath   string
	DBPath       string
	NoStore      bool
	Sort         string
	Desc         bool
	DirsFirst    bool
	NumericPerms bool
	All          bool
	NoColor      bool
	Debug        string
	MetricsAddr  string

	mgr     *config.Manager
	cfg     config.Config
	log     *debug.Logger
	reg     *prometheus.Registry
	metrics *metrics.Metrics
	server  *http.Server
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "sortview",
		Short:        "Sorted, live directory listings",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # List the current directory, largest first
  sortview ls --sort size --desc

  # Keep a listing up to date as files change
  sortview watch ~/Downloads

  # Remember an ordering for a directory
  sortview sort ~/Photos modified desc
`),
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return app.setup(cmd)
	}
	cmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		return app.teardown()
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&app.ConfigPath, "config", envOr("SORTVIEW_CONFIG", ""), "Config file (default ~/.config/sortview/config.yaml)")
	flags.StringVar(&app.DBPath, "db", envOr("SORTVIEW_DB", ""), "Sort preference database (overrides store.path)")
	flags.BoolVar(&app.NoStore, "no-store", false, "Don't read or write stored sort preferences")
	flags.StringVarP(&app.Sort, "sort", "s", "", "Sort column (name|ext|size|type|modified|perms|owner|group|none)")
	flags.BoolVarP(&app.Desc, "desc", "r", false, "Sort descending")
	flags.BoolVar(&app.DirsFirst, "dirs-first", true, "List directories before files")
	flags.BoolVar(&app.NumericPerms, "numeric-perms", false, "Show and sort permissions as octal")
	flags.BoolVarP(&app.All, "all", "a", false, "Include dotfiles")
	flags.BoolVar(&app.NoColor, "no-color", false, "Disable colored output")
	flags.StringVar(&app.Debug, "debug", "", "Debug categories (comma separated, all or none)")
	flags.Lookup("debug").NoOptDefVal = defaultDebug
	flags.StringVar(&app.MetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")

	cmd.AddCommand(newLsCmd(app))
	cmd.AddCommand(newWatchCmd(app))
	cmd.AddCommand(newSortCmd(app))
	cmd.AddCommand(newConfigCmd(app))

	return cmd
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// setup loads the config and builds logging and metrics.
func (app *App) setup(cmd *cobra.Command) error {
	if app.NoColor {
		color.NoColor = true
	}

	mgr := config.NewManager()
	if err := mgr.Load(app.ConfigPath); err != nil {
		return err
	}
	if err := mgr.ParseError(); err != nil {
		color.New(color.FgYellow).Fprintf(cmd.ErrOrStderr(), "Warning: %v (using defaults)\n", err)
	}
	app.mgr = mgr
	app.cfg = mgr.Get()

	// --debug wins over the environment, which wins over the config file.
	spec := app.Debug
	cats := debug.ParseCategories(spec)
	if spec == "" {
		if spec = os.Getenv(debug.EnvVar); spec != "" {
			cats = debug.CategoriesFromEnv()
		} else {
			spec = app.cfg.Log.Debug
			cats = debug.ParseCategories(spec)
		}
	}
	zcfg := app.cfg.Log.Zap()
	if spec != "" && !strings.EqualFold(spec, "none") {
		zcfg.Level = "debug"
	}
	base, err := debug.Build(zcfg)
	if err != nil {
		return errors.Wrap(err, "building logger")
	}
	app.log = debug.New(base, cats)
	app.log.Log(debug.CLI, "command %s, config %s, categories %v", cmd.CommandPath(), mgr.Path(), app.log.ListEnabled())

	app.reg = prometheus.NewRegistry()
	app.metrics = metrics.New(app.reg)

	addr := app.MetricsAddr
	if addr == "" {
		addr = app.cfg.Metrics.Addr
	}
	if addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler(app.reg))
		app.server = &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := app.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				app.log.Errorf("metrics server: %v", err)
			}
		}()
		app.log.Infof("serving metrics on %s/metrics", addr)
	}
	return nil
}

func (app *App) teardown() error {
	if app.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		app.server.Shutdown(ctx)
	}
	app.log.Sync()
	return nil
}

// sortOptions merges the config's sort section with the flags that were
// set explicitly.
func (app *App) sortOptions(cmd *cobra.Command) (sortkey.Options, error) {
	opts, err := app.cfg.Sort.Options()
	if err != nil {
		return opts, err
	}
	flags := cmd.Flags()
	if flags.Changed("sort") {
		if opts.Column, err = sortkey.ParseColumn(app.Sort); err != nil {
			return opts, err
		}
	}
	if flags.Changed("desc") {
		opts.Direction = sortkey.Ascending
		if app.Desc {
			opts.Direction = sortkey.Descending
		}
	}
	if flags.Changed("dirs-first") {
		opts.DirsFirst = app.DirsFirst
	}
	if flags.Changed("numeric-perms") {
		opts.NumericPermissions = app.NumericPerms
	}
	return opts, nil
}

// explicitSort reports whether the command line chose an ordering, which
// then wins over a stored preference.
func explicitSort(cmd *cobra.Command) bool {
	return cmd.Flags().Changed("sort") || cmd.Flags().Changed("desc")
}

func (app *App) openStore() (*store.DB, error) {
	path := app.DBPath
	if path == "" {
		path = app.cfg.Store.Path
	}
	if app.NoStore || path == "" {
		return nil, nil
	}
	db := store.NewDB(app.log)
	if err := db.Open(path); err != nil {
		return nil, err
	}
	return db, nil
}

type session struct {
	panel   *panel.Panel
	db      *store.DB
	watcher *fs.Watcher
	dir     string
}

func (s *session) Close() {
	if s.watcher != nil {
		s.watcher.Close()
	}
	if s.db != nil {
		s.db.Close()
	}
}

// openOptions select what a session is built with.
type openOptions struct {
	watch    bool
	observer model.Observer
	// remember hands the store to the panel even when the command line
	// chose an ordering, so SetSort can save it.
	remember bool
}

// open builds a panel for the directory named by arg, or the current
// directory. "-" stands for the last directory listed.
func (app *App) open(ctx context.Context, cmd *cobra.Command, arg string, o openOptions) (*session, error) {
	opts, err := app.sortOptions(cmd)
	if err != nil {
		return nil, err
	}
	db, err := app.openStore()
	if err != nil {
		return nil, err
	}
	s := &session{db: db}

	dir := arg
	if dir == "" {
		dir = "."
	}
	if dir == "-" {
		dir = "."
		if db != nil {
			if settings, err := db.Settings(ctx); err == nil && settings[lastDirKey] != "" {
				dir = settings[lastDirKey]
			}
		}
	}
	if dir, err = filepath.Abs(dir); err != nil {
		s.Close()
		return nil, errors.Wrap(err, "resolving directory")
	}
	s.dir = dir

	if o.watch {
		if s.watcher, err = fs.NewWatcher(app.cfg.Watch.Debounce(), app.log); err != nil {
			s.Close()
			return nil, err
		}
	}

	pcfg := panel.Config{
		Lister: fs.NewLister(fs.ListerOptions{
			ShowDotfiles: app.All || app.cfg.List.ShowDotfiles,
			Dummy:        app.cfg.List.Dummy,
		}, app.log),
		Watcher:  s.watcher,
		Observer: o.observer,
		Logger:   app.log,
		Metrics:  app.metrics,
		Sort:     opts,
	}
	// An ordering chosen on the command line is not overridden by the
	// stored one, so the store is only consulted without it.
	if o.remember || !explicitSort(cmd) {
		pcfg.Store = db
	}
	s.panel = panel.New(pcfg)

	if err := s.panel.Open(ctx, dir); err != nil {
		s.Close()
		return nil, err
	}
	if db != nil {
		if err := db.SaveSetting(ctx, lastDirKey, dir); err != nil {
			app.log.Errorf("%v", err)
		}
	}
	return s, nil
}
