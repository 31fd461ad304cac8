package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"github.com/meigma/nla"
)

func runInspect(_ context.Context, e *env, args []string) error {
	flags, verbose := newFlagSet("inspect", e)
	var input string
	flags.StringVarP(&input, "input", "i", "", "root volume of the archive")
	if done, err := parseFlags(flags, args); done || err != nil {
		return err
	}
	path, err := archiveArg(flags, input)
	if err != nil {
		return err
	}

	info, err := nla.Inspect(path, nla.WithLogger(newLogger(e.stderr, *verbose)))
	if err != nil {
		return err
	}

	fmt.Fprintf(e.stdout, "version:    %d\n", info.Header.Version)
	fmt.Fprintf(e.stdout, "codec:      %s\n", info.Codec)
	fmt.Fprintf(e.stdout, "entries:    %d\n", info.Entries)
	fmt.Fprintf(e.stdout, "index:      %s\n", humanize.IBytes(info.Header.TreeSize))
	fmt.Fprintf(e.stdout, "dictionary: %s\n", humanize.IBytes(info.Header.DictSize))
	fmt.Fprintln(e.stdout)

	tw := tabwriter.NewWriter(e.stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "VOLUME\tPATH\tSIZE\tDATA\tDIGEST")
	for _, v := range info.Volumes {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", v.Index, v.Path,
			humanize.IBytes(uint64(v.Size)), humanize.IBytes(uint64(v.DataSize)), v.Digest) //nolint:gosec // sizes are non-negative
	}
	return tw.Flush()
}
