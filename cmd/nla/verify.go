package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/meigma/nla"
)

func runVerify(ctx context.Context, e *env, args []string) error {
	flags, verbose := newFlagSet("verify", e)
	var (
		input string
		full  bool
	)
	flags.StringVarP(&input, "input", "i", "", "root volume of the archive")
	flags.BoolVar(&full, "full", false, "also decompress every entry")
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

	if err := a.Verify(); err != nil {
		return err
	}
	if full {
		var errs []error
		for p := range a.Entries() {
			if err := ctx.Err(); err != nil {
				return err
			}
			if _, err := a.ReadFile(p.String()); err != nil {
				errs = append(errs, err)
			}
		}
		if err := errors.Join(errs...); err != nil {
			return err
		}
	}
	fmt.Fprintf(e.stdout, "%s: %d entries ok\n", path, a.Len())
	return nil
}
