package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"quick-translate/src/config"
	"quick-translate/src/eventloop"
	"quick-translate/src/hotkey"
	"quick-translate/src/keystroke"
	"quick-translate/src/logutil"
	"quick-translate/src/messages"
	"quick-translate/src/notification"
	"quick-translate/src/runtimeinit"
	"quick-translate/src/session"
	"quick-translate/src/singleinstance"
	"quick-translate/src/translate"
	"quick-translate/src/tray"
)

const appTitle = "Quick Translate"

type mainOptions struct {
	action       string
	text         string
	apiKeyPath   string
	settingsPath string
}

type delegator interface {
	Delegate(ctx context.Context, req singleinstance.Request) (bool, string, error)
}

func main() {
	if err := runWithArgs(normalizeLegacyArgs(os.Args)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runWithArgs(args []string) error {
	if len(args) == 0 {
		args = []string{"quick-translate"}
	}
	opts := &mainOptions{}
	cmd := newRootCmd(opts)
	cmd.SetArgs(args[1:])
	return cmd.Execute()
}

func newRootCmd(opts *mainOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "quick-translate",
		Short:         "Selection toolbar: translate, search and explain selected text",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			loadOptions := config.LoadOptions{
				APIKeyPathOverride:   opts.apiKeyPath,
				SettingsPathOverride: opts.settingsPath,
			}
			if opts.action == "" {
				return runResident(loadOptions)
			}
			kind, ok := messages.ParseActionKind(opts.action)
			if !ok {
				return fmt.Errorf("unknown action %q", opts.action)
			}
			// Load .env early so SINGLEINSTANCE_PORT_* are applied before delegation scan
			_, _ = config.LoadEnvWithOptions(loadOptions)
			req := singleinstance.Request{Kind: kind, Text: opts.text}
			return handleDelegation(req, singleinstance.NewClient(), cmd.OutOrStdout(), func() error {
				return runStandalone(loadOptions, req, cmd.OutOrStdout())
			})
		},
	}

	cmd.Flags().StringVar(&opts.action, "action", "", "Run one action (translate, search, explain, polish, copy, open, favorite) and exit")
	cmd.Flags().StringVar(&opts.text, "text", "", "Text for --action; empty uses the resident's current selection")
	cmd.Flags().StringVar(&opts.apiKeyPath, "api-key-path", "", "Path to API key file (highest precedence)")
	cmd.Flags().StringVar(&opts.settingsPath, "settings", "", "Path to settings.json")
	return cmd
}

// normalizeLegacyArgs maps single-dash long flags to their cobra form.
func normalizeLegacyArgs(args []string) []string {
	if len(args) == 0 {
		return args
	}
	normalized := make([]string, len(args))
	copy(normalized, args)
	for i := 1; i < len(normalized); i++ {
		arg := normalized[i]
		for _, name := range []string{"action", "text", "api-key-path", "settings"} {
			if arg == "-"+name || strings.HasPrefix(arg, "-"+name+"=") {
				normalized[i] = "-" + arg
				break
			}
		}
	}
	return normalized
}

// handleDelegation prefers the resident; without one, or when delegation
// fails outright, fallback runs the action in this process.
func handleDelegation(req singleinstance.Request, client delegator, out io.Writer, fallback func() error) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	delegated, text, err := client.Delegate(ctx, req)
	switch {
	case err != nil && delegated:
		// The resident answered with an error; running it again here would not help.
		return err
	case err != nil:
		log.Printf("Delegation error: %v; falling back to standalone", err)
		return fallback()
	case !delegated:
		log.Printf("No resident detected (not delegated), running standalone")
		return fallback()
	}
	log.Printf("Delegated %s to resident", req.Kind)
	_, err = fmt.Fprintln(out, text)
	return err
}

func runStandalone(loadOptions config.LoadOptions, req singleinstance.Request, out io.Writer) error {
	rt, err := runtimeinit.Bootstrap(runtimeinit.Options{LoadOptions: loadOptions, SetupLogging: logutil.Setup})
	if err != nil {
		return err
	}
	defer rt.Close()

	if req.Text == "" {
		return session.ErrEmptyText
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	res, err := session.Execute(ctx, messages.ActionRequest{Kind: req.Kind, Text: req.Text}, rt.Deps())
	return session.Deliver(session.StdoutTarget{Writer: out}, res, err)
}

func runResident(loadOptions config.LoadOptions) error {
	// Ensure DPI awareness before creating any windows or querying metrics
	enableDPIAwareness()
	runtime.LockOSThread()

	// Load .env early so SINGLEINSTANCE_PORT_* are available for pre-flight
	_, _ = config.LoadEnvWithOptions(loadOptions)
	startPort, err := preflight(context.Background())
	if err != nil {
		return err
	}

	rt, err := runtimeinit.Bootstrap(runtimeinit.Options{LoadOptions: loadOptions, SetupLogging: logutil.Setup})
	if err != nil {
		notification.ShowBlockingError("Quick Translate failed to start", err.Error())
		return err
	}
	defer rt.Close()
	logMonitorConfiguration()

	copier := newCopier(func() (keystroke.Copier, error) { return keystroke.New() })

	combos := hotkey.Combos(rt.Store)
	translateKey := combos[messages.HotkeyTranslate]
	log.Printf("%s initialized", appTitle)
	log.Printf("Engine: %s", rt.Dispatcher.Engine())
	log.Printf("Hotkeys: %v", combos)
	tray.SetAboutHotkey(translateKey)
	tray.SetAboutExtra(fmt.Sprintf("Delegation port: %d", startPort))

	tooltip := fmt.Sprintf("%s - Press %s to translate the selection", appTitle, translateKey)
	srv := singleinstance.NewServer()
	loop := eventloop.New(eventloop.Options{
		Store:     rt.Store,
		Clipboard: rt.Clipboard,
		Copier:    copier,
		Session:   rt.Deps(),
		Server:    srv,
		Tooltip:   tray.UpdateTooltip,
	})
	loop.SetDefaultTooltip(tooltip)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	trayIcon, _ := tray.New(tray.Config{
		Title:    appTitle,
		Tooltip:  tooltip,
		Engines:  engineDescriptors(rt.Dispatcher.Engines()),
		Engine:   rt.Dispatcher.Engine(),
		OnEngine: rt.Dispatcher.SetEngine,
		OnAction: func(kind messages.ActionKind) {
			loop.Submit(messages.ActionRequest{Kind: kind})
		},
		OnReset: func() {
			if rt.Store.Reset() {
				loop.Reload()
			}
		},
		OnExit: func() { cancel() },
	})
	go trayIcon.Run()
	defer trayIcon.Destroy()

	if err := hotkey.Listen(ctx, combos, loop.Inputs()); err != nil {
		// Without hotkeys the tray and delegation still work.
		log.Printf("Hotkeys disabled: %v", err)
	}
	go func() {
		if err := rt.Store.Watch(ctx, loop.Reload); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("Settings watch disabled: %v", err)
		}
	}()

	// Handle SIGINT/SIGTERM
	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		<-ch
		cancel()
	}()

	if err := loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("event loop stopped: %v", err)
		return err
	}
	return nil
}

var errAlreadyRunning = errors.New("one is already running")

// preflight claims and releases the first delegation port so the event loop
// can bind it. A busy port is blamed on a resident only if one answers PING.
func preflight(ctx context.Context) (int, error) {
	startPort, _ := singleinstance.GetPortRangeForDebug()
	listener, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", startPort))
	if err != nil {
		if port, ok := singleinstance.DetectResidentPort(ctx, 300*time.Millisecond); ok {
			log.Printf("Pre-flight: resident answered on port %d", port)
			return startPort, fmt.Errorf("%w on port %d", errAlreadyRunning, port)
		}
		log.Printf("Pre-flight: port %d busy, no resident answered", startPort)
		return startPort, fmt.Errorf("port %d is in use by another program: %w", startPort, err)
	}
	_ = listener.Close()
	log.Printf("Pre-flight: port %d free → we are the one true resident", startPort)
	return startPort, nil
}

// newCopier keeps the resident alive when keyboard synthesis is unavailable
// (no /dev/uinput, missing permissions). Every check then sees no selection.
func newCopier(create func() (keystroke.Copier, error)) keystroke.Copier {
	copier, err := create()
	if err == nil {
		return copier
	}
	log.Printf("Keyboard synthesis disabled: %v", err)
	return keystroke.CopierFunc(func() error { return err })
}

func engineDescriptors(names []string) []translate.Descriptor {
	out := make([]translate.Descriptor, 0, len(names))
	for _, name := range names {
		if d, ok := translate.Lookup(name); ok {
			out = append(out, d)
		}
	}
	return out
}
