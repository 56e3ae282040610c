package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"quick-translate/src/messages"
	"quick-translate/src/singleinstance"
)

type stressOptions struct {
	n        int
	action   string
	text     string
	deadline time.Duration
}

type counts struct {
	ok, busy, err, missing int32
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	opts := &stressOptions{}
	cmd := newRootCmd(opts)
	return cmd.Execute()
}

func newRootCmd(opts *stressOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "stress-delegate",
		Short:         "Stress test action delegation to the resident",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, ok := messages.ParseActionKind(opts.action)
			if !ok {
				return fmt.Errorf("unknown action %q", opts.action)
			}
			c := runWithOptions(*opts, kind, singleinstance.NewClient())
			fmt.Fprintf(cmd.OutOrStdout(), "launched=%d ok=%d busy=%d err=%d missing=%d\n", opts.n, c.ok, c.busy, c.err, c.missing)
			return nil
		},
	}

	cmd.Flags().IntVar(&opts.n, "n", 50, "number of clients to launch")
	cmd.Flags().StringVar(&opts.action, "action", "translate", "action each client delegates")
	cmd.Flags().StringVar(&opts.text, "text", "hello", "text sent with each request")
	cmd.Flags().DurationVar(&opts.deadline, "deadline", 5*time.Second, "per-client timeout")

	return cmd
}

// runWithOptions fires n concurrent delegations. The resident serves one at a
// time, so most of them are expected to come back busy.
func runWithOptions(opts stressOptions, kind messages.ActionKind, client singleinstance.Client) counts {
	var wg sync.WaitGroup
	var c counts

	for i := 0; i < opts.n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), opts.deadline)
			defer cancel()
			delegated, _, err := client.Delegate(ctx, singleinstance.Request{Kind: kind, Text: opts.text})
			switch {
			case err != nil && strings.Contains(strings.ToLower(err.Error()), "busy"):
				atomic.AddInt32(&c.busy, 1)
			case err != nil:
				atomic.AddInt32(&c.err, 1)
			case delegated:
				atomic.AddInt32(&c.ok, 1)
			default:
				atomic.AddInt32(&c.missing, 1)
			}
		}()
	}
	wg.Wait()
	return c
}
