package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/pthm/blockload"
)

// traceOptions holds flags for the trace command.
type traceOptions struct {
	*rootOptions
	TraceKey string
	Format   string
}

func newTraceCommand(rootOpts *rootOptions) *cobra.Command {
	opts := &traceOptions{rootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace <file.trace>",
		Short: "Verify and print an activation trace",
		Long: `Verify the signature of a trace written by "blockload hydrate --trace"
and print its events.

Examples:
  blockload trace --trace-key secret dist/index.trace
  blockload trace --trace-key secret --format json dist/index.trace`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(cmd.OutOrStdout(), opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.TraceKey, "trace-key", os.Getenv("BLOCKLOAD_TRACE_KEY"), "key traces were signed with")
	cmd.Flags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	return cmd
}

func runTrace(w io.Writer, opts *traceOptions, path string) error {
	if opts.TraceKey == "" {
		return fmt.Errorf("--trace-key or BLOCKLOAD_TRACE_KEY is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	tf, err := blockload.DecodeTrace([]byte(opts.TraceKey), string(data))
	if err != nil {
		return err
	}

	switch opts.Format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(tf)
	case "text":
		return printTrace(w, tf)
	default:
		return fmt.Errorf("invalid format %q: must be json or text", opts.Format)
	}
}

func printTrace(w io.Writer, tf *blockload.TraceFile) error {
	fmt.Fprintf(w, "page: %s\n", tf.Page)
	fmt.Fprintf(w, "events: %d (%d activated, %d module failures, %d fragments)\n\n",
		len(tf.Events),
		blockload.Count(tf.Events, blockload.EventActivate),
		blockload.Count(tf.Events, blockload.EventModuleFailed),
		blockload.Count(tf.Events, blockload.EventFragment),
	)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tKIND\tSELECTOR\tPATH\tERROR")
	var start time.Time
	if len(tf.Events) > 0 {
		start = tf.Events[0].At
	}
	for _, ev := range tf.Events {
		fmt.Fprintf(tw, "+%s\t%s\t%s\t%s\t%s\n",
			ev.At.Sub(start).Round(time.Microsecond), ev.Kind, ev.Selector, ev.Path, ev.Err)
	}
	return tw.Flush()
}
