// Command netdiagctl drives a running netdiag service from the shell.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"netdiag/internal/client"
)

const usage = `usage: netdiagctl [-url URL] <command> [args]

commands:
  health                    check service health
  scan [-v] [host ...]      run an on-demand scan
  results [-v]              show the latest cached results
  history [-hours N] host   show stored results for a host
  config                    show the current configuration
  set key value             update one configuration value (value is JSON)
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("netdiagctl", flag.ContinueOnError)
	fs.Usage = func() { fmt.Fprint(fs.Output(), usage) }
	baseURL := fs.String("url", envOr("NETDIAG_URL", client.DefaultBaseURL), "service base URL")
	timeout := fs.Duration("timeout", 2*time.Minute, "request timeout")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return fmt.Errorf("missing command")
	}

	c := client.New(*baseURL)
	c.HTTP.Timeout = *timeout

	cmd, rest := fs.Arg(0), fs.Args()[1:]
	switch cmd {
	case "health":
		h, err := c.Health(ctx)
		if err != nil {
			return err
		}
		return printJSON(out, h)

	case "scan":
		sub := flag.NewFlagSet("scan", flag.ContinueOnError)
		verbose := sub.Bool("v", false, "print raw JSON too")
		if err := sub.Parse(rest); err != nil {
			return err
		}
		res, err := c.Scan(ctx, sub.Args())
		if err != nil {
			return err
		}
		return client.PrintResults(out, res.Results, *verbose)

	case "results":
		sub := flag.NewFlagSet("results", flag.ContinueOnError)
		verbose := sub.Bool("v", false, "print raw JSON too")
		if err := sub.Parse(rest); err != nil {
			return err
		}
		res, err := c.Results(ctx)
		if err != nil {
			return err
		}
		if len(res.Results) == 0 {
			fmt.Fprintln(out, "no results yet")
			return nil
		}
		fmt.Fprintf(out, "Results from %s\n\n", res.Timestamp.Local().Format(time.RFC1123))
		return client.PrintResults(out, res.Results, *verbose)

	case "history":
		sub := flag.NewFlagSet("history", flag.ContinueOnError)
		hours := sub.Int("hours", 1, "look-back window in hours")
		if err := sub.Parse(rest); err != nil {
			return err
		}
		if sub.NArg() != 1 {
			return fmt.Errorf("history needs exactly one host")
		}
		recs, err := c.History(ctx, sub.Arg(0), *hours)
		if err != nil {
			return err
		}
		return client.PrintHistory(out, recs)

	case "config":
		doc, err := c.GetConfig(ctx)
		if err != nil {
			return err
		}
		return printJSON(out, doc)

	case "set":
		if len(rest) != 2 {
			return fmt.Errorf("set needs a key and a value")
		}
		doc, err := c.SetConfigValue(ctx, rest[0], rest[1])
		if err != nil {
			return err
		}
		return printJSON(out, doc)
	}

	fs.Usage()
	return fmt.Errorf("unknown command %q", cmd)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
