// Command nla builds, inspects and extracts nla archives.
//
// Usage:
//
//	nla compress -i ./assets -o ./out -t zstd -m 64MiB
//	nla list ./out/assets.root.nla
//	nla decompress -i ./out/assets.root.nla -o ./restored
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "nla: %v\n", err)
		os.Exit(1)
	}
}

// env carries the output streams of one invocation.
type env struct {
	stdout io.Writer
	stderr io.Writer
}

type command struct {
	name    string
	summary string
	run     func(ctx context.Context, e *env, args []string) error
}

func commands() []command {
	return []command{
		{"compress", "build an archive from a directory", runCompress},
		{"decompress", "extract an archive into a directory", runDecompress},
		{"list", "list the entries of an archive", runList},
		{"inspect", "show archive metadata and volume digests", runInspect},
		{"verify", "check the digest of every entry", runVerify},
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	e := &env{stdout: stdout, stderr: stderr}
	if len(args) == 0 {
		printUsage(stderr)
		return errors.New("command required")
	}
	if isHelp(args[0]) {
		printUsage(stderr)
		return nil
	}
	for _, c := range commands() {
		if c.name == args[0] {
			return c.run(ctx, e, args[1:])
		}
	}
	return fmt.Errorf("unknown command %q; run 'nla --help' for usage", args[0])
}

func isHelp(arg string) bool {
	return arg == "-h" || arg == "--help" || arg == "help"
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: nla <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, c := range commands() {
		fmt.Fprintf(tw, "  %s\t%s\n", c.name, c.summary)
	}
	tw.Flush()
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'nla <command> --help' for command flags.")
}

// newFlagSet returns a flag set with the flags every command shares.
func newFlagSet(name string, e *env) (*pflag.FlagSet, *bool) {
	flags := pflag.NewFlagSet("nla "+name, pflag.ContinueOnError)
	flags.SetOutput(e.stderr)
	verbose := flags.BoolP("verbose", "v", false, "log debug output to stderr")
	return flags, verbose
}

// parseFlags parses args. done is true when help was requested.
func parseFlags(flags *pflag.FlagSet, args []string) (done bool, err error) {
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return true, nil
		}
		return false, err
	}
	return false, nil
}

// archiveArg returns the archive path from -i or the first positional
// argument.
func archiveArg(flags *pflag.FlagSet, input string) (string, error) {
	if input != "" {
		return input, nil
	}
	if flags.NArg() == 1 {
		return flags.Arg(0), nil
	}
	return "", fmt.Errorf("%s: archive path required", strings.TrimPrefix(flags.Name(), "nla "))
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
