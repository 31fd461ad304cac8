package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/meigma/nla"
)

func runList(_ context.Context, e *env, args []string) error {
	flags, verbose := newFlagSet("list", e)
	var input string
	flags.StringVarP(&input, "input", "i", "", "root volume of the archive")
	if done, err := parseFlags(flags, args); done || err != nil {
		return err
	}
	path, err := archiveArg(flags, input)
	if err != nil {
		return err
	}

	a, err := nla.Open(path, nla.WithLogger(newLogger(e.stderr, *verbose)))
	if err != nil {
		return err
	}
	defer a.Close()

	tw := tabwriter.NewWriter(e.stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PATH\tDIGEST\tVOLUME\tOFFSET\tSIZE")
	for p, entry := range a.Entries() {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\n", p, entry.Digest, entry.Volume, entry.Offset, entry.Size)
	}
	return tw.Flush()
}
