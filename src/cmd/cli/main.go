package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"

	"quick-translate/src/config"
	"quick-translate/src/favorites"
	"quick-translate/src/search"
	"quick-translate/src/translate"
)

const maxInputBytes = 1 << 20

type cliOptions struct {
	verbose      bool
	jsonOutput   bool
	settingsPath string
	apiKeyPath   string
	from         string
	to           string
	engine       string
	limit        int
}

// app lazily opens what a command needs.
type app struct {
	opts  *cliOptions
	env   *config.Env
	store *config.Store
}

func main() {
	if err := runWithArgs(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runWithArgs(args []string) error {
	if len(args) == 0 {
		args = []string{"qt"}
	}
	opts := &cliOptions{}
	cmd := newRootCmd(opts)
	cmd.SetArgs(args[1:])
	return cmd.ExecuteContext(context.Background())
}

func newRootCmd(opts *cliOptions) *cobra.Command {
	a := &app{opts: opts}
	cmd := &cobra.Command{
		Use:           "qt",
		Short:         "Translate and search text from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Configure logging BEFORE any other operations.
			if opts.verbose {
				log.SetOutput(cmd.ErrOrStderr())
			} else {
				log.SetOutput(io.Discard)
			}
		},
	}
	pf := cmd.PersistentFlags()
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose output to stderr")
	pf.StringVar(&opts.settingsPath, "settings", "", "Path to settings.json")
	pf.StringVar(&opts.apiKeyPath, "api-key-path", "", "Path to API key file (highest precedence)")

	cmd.AddCommand(a.translateCmd(), a.urlCmd(), a.searchCmd(), a.settingsCmd(), a.engineCmd(), a.favoritesCmd())
	return cmd
}

func (a *app) load() error {
	if a.store != nil {
		return nil
	}
	env, err := config.LoadEnvWithOptions(config.LoadOptions{
		SettingsPathOverride: a.opts.settingsPath,
		APIKeyPathOverride:   a.opts.apiKeyPath,
	})
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	a.env = env
	a.store = config.Open(env.SettingsPath)
	return nil
}

func (a *app) dispatcher() (*translate.Dispatcher, error) {
	if err := a.load(); err != nil {
		return nil, err
	}
	d := translate.New(a.store, translate.WithTimeout(time.Duration(a.env.HTTPTimeoutSec)*time.Second))
	if a.opts.engine != "" && !d.Use(a.opts.engine) {
		return nil, fmt.Errorf("unknown engine %q (known: %s)", a.opts.engine, strings.Join(translate.Known(), ", "))
	}
	return d, nil
}

// inputText joins args; a single "-" reads stdin.
func inputText(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 && args[0] == "-" {
		data, err := io.ReadAll(io.LimitReader(cmd.InOrStdin(), maxInputBytes+1))
		if err != nil {
			return "", fmt.Errorf("failed to read from stdin: %w", err)
		}
		if len(data) > maxInputBytes {
			return "", fmt.Errorf("input exceeds maximum size of %d bytes", maxInputBytes)
		}
		return strings.TrimRight(string(data), "\r\n"), nil
	}
	text := strings.Join(args, " ")
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("no text given")
	}
	return text, nil
}

// direction applies --from/--to over the automatic choice.
func (a *app) direction(text string) (string, string) {
	from, to := translate.Direction(a.store, text)
	if a.opts.from != "" {
		from = translate.NormalizeLang(a.opts.from, true, from)
	}
	if a.opts.to != "" {
		to = translate.NormalizeLang(a.opts.to, false, to)
	}
	return from, to
}

type TranslateResult struct {
	Text      string  `json:"text"`
	Source    string  `json:"source"`
	Engine    string  `json:"engine"`
	From      string  `json:"from"`
	To        string  `json:"to"`
	URL       string  `json:"url"`
	Timestamp string  `json:"timestamp"`
	Duration  float64 `json:"duration_seconds"`
}

func (a *app) translateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "translate [text...|-]",
		Short: "Translate text with the configured engine",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := inputText(cmd, args)
			if err != nil {
				return err
			}
			d, err := a.dispatcher()
			if err != nil {
				return err
			}
			from, to := a.direction(text)
			start := time.Now()
			out := d.Translate(cmd.Context(), text, from, to)
			elapsed := time.Since(start)
			log.Printf("translate: %s %s→%s in %v", d.Engine(), from, to, elapsed)

			if !a.opts.jsonOutput {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), out)
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(TranslateResult{
				Text:      out,
				Source:    text,
				Engine:    d.Engine(),
				From:      from,
				To:        to,
				URL:       d.URL(text, from, to),
				Timestamp: time.Now().UTC().Format(time.RFC3339),
				Duration:  elapsed.Seconds(),
			})
		},
	}
	a.directionFlags(cmd)
	cmd.Flags().BoolVar(&a.opts.jsonOutput, "json", false, "Output results as JSON")
	return cmd
}

func (a *app) directionFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&a.opts.from, "from", "", "Source language (default: detected)")
	cmd.Flags().StringVar(&a.opts.to, "to", "", "Target language (default: detected)")
	cmd.Flags().StringVar(&a.opts.engine, "engine", "", "Engine for this run only")
}

func (a *app) urlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "url [text...|-]",
		Short: "Print the translator web address for text",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := inputText(cmd, args)
			if err != nil {
				return err
			}
			d, err := a.dispatcher()
			if err != nil {
				return err
			}
			from, to := a.direction(text)
			u := d.URL(text, from, to)
			if u == "" {
				return fmt.Errorf("%s", translate.NotConfiguredMessage)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), u)
			return err
		},
	}
	a.directionFlags(cmd)
	return cmd
}

func (a *app) searchCmd() *cobra.Command {
	var engine string
	cmd := &cobra.Command{
		Use:   "search [query...|-]",
		Short: "Print the search address for a query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query, err := inputText(cmd, args)
			if err != nil {
				return err
			}
			if err := a.load(); err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), search.URL(a.store, query, engine))
			return err
		},
	}
	cmd.Flags().StringVar(&engine, "engine", "", "Search engine (default: search.default_search_engine)")
	return cmd
}

func (a *app) settingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Inspect and change persisted settings",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "path",
			Short: "Print the settings file location",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := a.load(); err != nil {
					return err
				}
				_, err := fmt.Fprintln(cmd.OutOrStdout(), a.store.Path())
				return err
			},
		},
		&cobra.Command{
			Use:   "get [section [key]]",
			Short: "Print settings as JSON",
			Args:  cobra.MaximumNArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := a.load(); err != nil {
					return err
				}
				var v any = a.store.Snapshot()
				switch len(args) {
				case 1:
					sec, ok := a.store.Snapshot()[args[0]]
					if !ok {
						return fmt.Errorf("unknown section %q", args[0])
					}
					v = sec
				case 2:
					v = a.store.Get(args[0], args[1], nil)
					if v == nil {
						return fmt.Errorf("unknown setting %s.%s", args[0], args[1])
					}
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(v)
			},
		},
		&cobra.Command{
			Use:   "set section key value",
			Short: "Store a value; JSON literals are decoded, anything else is a string",
			Args:  cobra.ExactArgs(3),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := a.load(); err != nil {
					return err
				}
				if !a.store.Set(args[0], args[1], parseValue(args[2])) {
					return fmt.Errorf("failed to save %s", a.store.Path())
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "reset",
			Short: "Restore every setting to its default",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := a.load(); err != nil {
					return err
				}
				if !a.store.Reset() {
					return fmt.Errorf("failed to save %s", a.store.Path())
				}
				return nil
			},
		},
	)
	return cmd
}

// parseValue decodes JSON literals (numbers, booleans, arrays, objects,
// quoted strings) and keeps anything else verbatim.
func parseValue(raw string) any {
	if gjson.Valid(raw) {
		return gjson.Parse(raw).Value()
	}
	return raw
}

func (a *app) engineCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "engine [name]",
		Short: "Show or persist the translation engine",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.load(); err != nil {
				return err
			}
			d := translate.New(a.store)
			out := cmd.OutOrStdout()
			if len(args) == 1 {
				if !d.SetEngine(args[0]) {
					return fmt.Errorf("unknown engine %q (known: %s)", args[0], strings.Join(translate.Known(), ", "))
				}
			}
			for _, name := range d.Engines() {
				marker := " "
				if name == d.Engine() {
					marker = "*"
				}
				desc, _ := translate.Lookup(name)
				fmt.Fprintf(out, "%s %-8s %s\n", marker, name, desc.Display)
			}
			return nil
		},
	}
}

func (a *app) openFavorites() (*favorites.Store, error) {
	if err := a.load(); err != nil {
		return nil, err
	}
	return favorites.Open(a.env.FavoritesPath)
}

func (a *app) favoritesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "favorites",
		Short: "Manage saved selections",
	}
	list := &cobra.Command{
		Use:   "list",
		Short: "List favorites, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			favs, err := a.openFavorites()
			if err != nil {
				return err
			}
			defer favs.Close()
			items, err := favs.List(cmd.Context(), a.opts.limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, f := range items {
				fmt.Fprintf(out, "%s\t%s\t%s\t%s\n", f.ID, f.CreatedAt.Local().Format(time.DateTime), oneLine(f.Text), oneLine(f.Translation))
			}
			return nil
		},
	}
	list.Flags().IntVar(&a.opts.limit, "limit", 0, "Maximum rows (default 50)")

	add := &cobra.Command{
		Use:   "add [text...|-]",
		Short: "Translate text and save it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := inputText(cmd, args)
			if err != nil {
				return err
			}
			d, err := a.dispatcher()
			if err != nil {
				return err
			}
			favs, err := a.openFavorites()
			if err != nil {
				return err
			}
			defer favs.Close()
			from, to := a.direction(text)
			saved, err := favs.Add(cmd.Context(), favorites.Favorite{
				Text:        text,
				Translation: d.Translate(cmd.Context(), text, from, to),
				Engine:      d.Engine(),
			})
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), saved.ID)
			return err
		},
	}
	a.directionFlags(add)

	del := &cobra.Command{
		Use:   "delete id",
		Short: "Remove a favorite",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			favs, err := a.openFavorites()
			if err != nil {
				return err
			}
			defer favs.Close()
			return favs.Delete(cmd.Context(), args[0])
		},
	}
	cmd.AddCommand(list, add, del)
	return cmd
}

func oneLine(s string) string {
	s = strings.NewReplacer("\r\n", " ", "\n", " ", "\t", " ").Replace(s)
	if r := []rune(s); len(r) > 60 {
		return string(r[:60]) + "..."
	}
	return s
}
