// Package main implements the command-line interface for ezsnip.
// It uses the cobra library to define commands and flags.
package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"text/tabwriter"
	"time"

	"github.com/atotto/clipboard"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/driquet/ezsnip/internal/database"
	"github.com/driquet/ezsnip/internal/editor"
	"github.com/driquet/ezsnip/internal/engine"
	"github.com/driquet/ezsnip/internal/highlight"
	"github.com/driquet/ezsnip/internal/library"
	"github.com/driquet/ezsnip/internal/server"
	"github.com/driquet/ezsnip/internal/snippet"
)

var (
	ui         string
	scope      string
	configPath string
	logLevel   string
	logFormat  string
	config     engine.Config
	db         database.Database
	eng        *engine.Engine
)

var (
	expandClipboard bool
	expandFill      bool
	expandEdit      bool
	expandStops     bool
	showExpanded    bool
	statsReset      bool
	statsCSV        bool
	statsImport     string
	serveAddr       string
)

func loadConfig() error {
	var err error

	if configPath == "" {
		configPath, err = engine.ConfigDirPath()
		if err != nil {
			return err
		}
	}

	config, err = engine.LoadConfigFromFile(configPath)
	if err != nil {
		return err
	}

	// Override values with flags
	if ui != "" {
		config.DefaultUI = ui
	}
	if logLevel != "" {
		config.LogLevel = logLevel
	}
	if logFormat != "" {
		config.LogFormat = logFormat
	}

	return configureLogging(config.LogFormat, config.LogLevel)
}

func setupRuntime(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}

	var err error
	db, err = database.NewSQLiteDatabase(config.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open usage database %s: %w", config.DatabasePath, err)
	}

	eng, err = engine.NewEngine(db, config)
	if err != nil {
		db.Close()
		return fmt.Errorf("failed to create snippet engine: %w", err)
	}

	return nil
}

func tearDownRuntime(cmd *cobra.Command, args []string) error {
	if db == nil {
		return nil
	}
	return db.Close()
}

// resolveScope returns the --scope flag, the configured default scope when
// it exists, or asks the user.
func resolveScope() (string, error) {
	if scope != "" {
		return scope, nil
	}
	if _, found := eng.Table().Partition(config.DefaultScope); found {
		return config.DefaultScope, nil
	}
	return eng.SelectScope("")
}

func completeTriggers(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	// Only the first argument is a trigger
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	if eng == nil {
		if err := setupRuntime(cmd, args); err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
		defer tearDownRuntime(cmd, args)
	}

	s, err := resolveScope()
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	triggers, err := eng.Triggers(s)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	return triggers, cobra.ShellCompDirectiveNoFileComp
}

var (
	rootCmd = &cobra.Command{
		Use:          "ezsnip",
		Short:        "ezsnip is a CLI tool for browsing and expanding code snippets.",
		SilenceUsage: true,
	}
	scopesCmd = &cobra.Command{
		Use:      "scopes",
		Short:    "List snippet scopes.",
		Args:     cobra.NoArgs,
		PreRunE:  setupRuntime,
		PostRunE: tearDownRuntime,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, s := range eng.Scopes() {
				p, _ := eng.Table().Partition(s)
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d snippets\n", s, p.Len())
			}
			return nil
		},
	}
	listCmd = &cobra.Command{
		Use:      "list",
		Short:    "List the snippets of a scope.",
		Args:     cobra.NoArgs,
		PreRunE:  setupRuntime,
		PostRunE: tearDownRuntime,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := resolveScope()
			if err != nil {
				return err
			}
			return listSnippets(cmd, s)
		},
	}
	showCmd = &cobra.Command{
		Use:   "show <trigger>",
		Short: "Show a snippet template.",
		Long: `Show the template of a snippet, with its tab stops, as it is written in
the snippet file. With --expanded the expansion is shown instead, which does
not count as a use of the snippet.`,
		Example: `  # Show the for loop template of the glsl scope
  ezsnip show fori

  # Show what the box snippet expands to
  ezsnip show --expanded box`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeTriggers,
		PreRunE:           setupRuntime,
		PostRunE:          tearDownRuntime,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := resolveScope()
			if err != nil {
				return err
			}
			return showSnippet(cmd, s, args[0])
		},
	}
	expandCmd = &cobra.Command{
		Use:   "expand [trigger]",
		Short: "Expand a snippet.",
		Long: `Expand a snippet and print the result.

Without a trigger, the snippet is picked interactively with the configured UI
(terminal, fuzzy or rofi). Each expansion increments the usage count of the
snippet, which orders the pickers.

With --fill, every tab stop is prompted in order and the answer is applied to
all its mirrors. With --edit, the expansion is opened in your editor before it
is printed. With --clipboard, the result is copied instead of printed.`,
		Example: `  # Pick a snippet and copy its expansion
  ezsnip expand --clipboard

  # Expand the rotate snippet, filling its tab stops
  ezsnip expand --fill rot

  # Print the tab stop regions as well
  ezsnip expand --stops box`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: completeTriggers,
		PreRunE:           setupRuntime,
		PostRunE:          tearDownRuntime,
		RunE: func(cmd *cobra.Command, args []string) error {
			return snippetExpand(cmd, args)
		},
	}
	checkCmd = &cobra.Command{
		Use:   "check <file>...",
		Short: "Check snippet files for errors.",
		Long: `Parse snippet files and report every malformed snippet and duplicate
trigger. The scope of a file is its base name unless --scope is given. Files of
the built-in scopes are checked together with the built-in snippets.`,
		Args: cobra.MinimumNArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return checkFiles(cmd, args)
		},
	}
	statsCmd = &cobra.Command{
		Use:      "stats",
		Short:    "Show snippet usage counts.",
		Args:     cobra.NoArgs,
		PreRunE:  setupRuntime,
		PostRunE: tearDownRuntime,
		RunE: func(cmd *cobra.Command, args []string) error {
			if statsImport != "" {
				return importUsage(cmd, statsImport)
			}
			s, err := resolveScope()
			if err != nil {
				return err
			}
			if statsReset {
				return eng.ResetUsage(s)
			}
			if statsCSV {
				usage, err := eng.Usage(s)
				if err != nil {
					return err
				}
				return database.WriteUsageCSV(cmd.OutOrStdout(), usage)
			}
			return printStats(cmd, s)
		},
	}
	serveCmd = &cobra.Command{
		Use:      "serve",
		Short:    "Serve snippets over HTTP.",
		Args:     cobra.NoArgs,
		PreRunE:  setupRuntime,
		PostRunE: tearDownRuntime,
		RunE: func(cmd *cobra.Command, args []string) error {
			addr := config.Server.Addr
			if serveAddr != "" {
				addr = serveAddr
			}
			logrus.WithField("addr", addr).Info("ezsnip API listening")
			return http.ListenAndServe(addr, server.RegisterRoutes(eng))
		},
	}
)

func main() {
	// Flags
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Overrides default configuration path.")
	rootCmd.PersistentFlags().StringVar(&scope, "scope", "", "Snippet scope. Defaults to default_scope from the config.")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error). Overrides config.")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: 'text' or 'json'. Overrides config.")

	rootCmd.PersistentFlags().StringVar(&ui, "ui", "", "Specify UI: 'terminal', 'fuzzy' or 'rofi'. Overrides config.")
	expandCmd.Flags().BoolVar(&expandClipboard, "clipboard", false, "Copy the expansion to the clipboard instead of printing it.")
	expandCmd.Flags().BoolVar(&expandFill, "fill", false, "Prompt for the value of every tab stop.")
	expandCmd.Flags().BoolVar(&expandEdit, "edit", false, "Open the expansion in your editor before printing it.")
	expandCmd.Flags().BoolVar(&expandStops, "stops", false, "Print the tab stop regions after the expansion.")
	showCmd.Flags().BoolVar(&showExpanded, "expanded", false, "Show the expansion instead of the template.")
	statsCmd.Flags().BoolVar(&statsReset, "reset", false, "Forget the usage counts of the scope.")
	statsCmd.Flags().BoolVar(&statsCSV, "csv", false, "Print the usage counts as CSV.")
	statsCmd.Flags().StringVar(&statsImport, "import", "", "Restore usage counts from a CSV file written by --csv.")
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address. Overrides config.")

	rootCmd.AddCommand(
		scopesCmd,
		listCmd,
		showCmd,
		expandCmd,
		checkCmd,
		statsCmd,
		serveCmd,
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func listSnippets(cmd *cobra.Command, s string) error {
	triggers, err := eng.Triggers(s)
	if err != nil {
		return err
	}
	usage, err := eng.Usage(s)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TRIGGER\tUSES\tDESCRIPTION")
	for _, trigger := range triggers {
		def, _ := eng.Get(s, trigger)
		count := 0
		if u, found := usage[trigger]; found {
			count = u.Count
		}
		fmt.Fprintf(w, "%s\t%d\t%s\n", trigger, count, def.Description)
	}
	return w.Flush()
}

func showSnippet(cmd *cobra.Command, s, trigger string) error {
	def, found := eng.Get(s, trigger)
	if !found {
		return fmt.Errorf("%w: %q in scope %q", engine.ErrSnippetUnknown, trigger, s)
	}

	out := cmd.OutOrStdout()
	if def.Description != "" {
		fmt.Fprintf(out, "# %s\n", def.Description)
	}
	fmt.Fprintf(out, "# %s\n", def.Location())

	if u, err := eng.SnippetUsage(s, trigger); err != nil {
		logrus.WithError(err).WithField("trigger", trigger).Warn("failed to read snippet usage")
	} else if u.Count > 0 {
		fmt.Fprintf(out, "# used %d times, last on %s\n", u.Count, u.LastUsed.Format(time.DateTime))
	}

	src := def.Template()
	if showExpanded {
		exp, _ := eng.Table().Expand(s, trigger)
		src = exp.Text
	}

	if err := highlight.New(config.HighlightStyle).Write(out, src); err != nil {
		return err
	}
	fmt.Fprintln(out)
	return nil
}

// snippetExpand handles the logic for the "expand" command.
func snippetExpand(cmd *cobra.Command, args []string) error {
	s, err := resolveScope()
	if err != nil {
		return err
	}

	var trigger string
	if len(args) == 1 {
		trigger = args[0]
	} else {
		trigger, err = eng.SelectSnippet(s)
		if err != nil {
			return fmt.Errorf("failed to select snippet: %w", err)
		}
	}

	exp, err := eng.Expand(s, trigger)
	if err != nil {
		return fmt.Errorf("failed to expand snippet %q: %w", trigger, err)
	}

	if expandFill {
		exp, err = eng.Fill(exp)
		if err != nil {
			return fmt.Errorf("failed to fill snippet %q: %w", trigger, err)
		}
	}

	value := exp.Text
	if expandEdit {
		value, err = editor.Edit(config.Editor, "ezsnip_*."+s, value)
		if err != nil {
			return err
		}
	}

	if expandClipboard {
		if err := clipboard.WriteAll(value); err != nil {
			return fmt.Errorf("failed to copy to clipboard: %w", err)
		}
		logrus.WithField("trigger", trigger).Info("snippet copied to clipboard")
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), value)
	}

	if expandStops && !expandEdit {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "STOP\tSTART\tEND\tDEFAULT")
		for _, stop := range exp.Stops {
			fmt.Fprintf(w, "$%d\t%d\t%d\t%q\n", stop.Index, stop.Start, stop.End, exp.Text[stop.Start:stop.End])
		}
		return w.Flush()
	}

	return nil
}

func checkFiles(cmd *cobra.Command, paths []string) error {
	var (
		scopes  []string
		sources = make(map[string][]library.Source)
		errs    []error
	)

	add := func(src library.Source) {
		if _, found := sources[src.Scope]; !found {
			scopes = append(scopes, src.Scope)
		}
		sources[src.Scope] = append(sources[src.Scope], src)
	}

	for _, path := range paths {
		src, err := library.LoadFile(path, scope)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		add(src)
	}

	// Checked files must not clash with the built-in snippets of their scope.
	for _, builtin := range library.Builtin() {
		if _, found := sources[builtin.Scope]; found {
			sources[builtin.Scope] = append([]library.Source{builtin}, sources[builtin.Scope]...)
		}
	}

	total := 0
	for _, s := range scopes {
		var defs []*snippet.Definition
		for _, src := range sources[s] {
			parsed, err := snippet.Parse(src.Name, src.Text)
			errs = append(errs, multierr.Errors(err)...)
			defs = append(defs, parsed...)
		}
		if _, err := engine.Build(s, defs); err != nil {
			errs = append(errs, multierr.Errors(err)...)
		}
		total += len(defs)
	}

	for _, err := range errs {
		fmt.Fprintln(cmd.ErrOrStderr(), err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("%d problem(s) found", len(errs))
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%d snippet(s) OK\n", total)
	return nil
}

func importUsage(cmd *cobra.Command, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("unable to open %q: %w", path, err)
	}
	defer f.Close()

	records, err := database.ReadUsageCSV(f)
	if err != nil {
		return fmt.Errorf("unable to read %q: %w", path, err)
	}

	skipped, err := eng.ImportUsage(records)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d record(s) imported, %d skipped\n", len(records)-skipped, skipped)
	return nil
}

func printStats(cmd *cobra.Command, s string) error {
	entries, err := eng.Entries(s)
	if err != nil {
		return err
	}
	usage, err := eng.Usage(s)
	if err != nil && !errors.Is(err, engine.ErrScopeUnknown) {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TRIGGER\tUSES\tLAST USED")
	for _, e := range entries {
		if e.Count == 0 {
			continue
		}
		lastUsed := "-"
		if u, found := usage[e.Trigger]; found && !u.LastUsed.IsZero() {
			lastUsed = u.LastUsed.Format(time.DateTime)
		}
		fmt.Fprintf(w, "%s\t%d\t%s\n", e.Trigger, e.Count, lastUsed)
	}
	return w.Flush()
}
