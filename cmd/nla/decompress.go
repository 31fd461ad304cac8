package main

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/meigma/nla"
)

func runDecompress(ctx context.Context, e *env, args []string) error {
	flags, verbose := newFlagSet("decompress", e)
	var (
		input, output, prefix string
		force, skip, verify   bool
		workers               int
	)
	flags.StringVarP(&input, "input", "i", "", "root volume of the archive")
	flags.StringVarP(&output, "output", "o", ".", "destination directory")
	flags.StringVarP(&prefix, "prefix", "p", "", "extract only this directory")
	flags.BoolVarP(&force, "force", "f", false, "overwrite existing files")
	flags.BoolVarP(&skip, "skip", "s", false, "skip existing files")
	flags.BoolVar(&verify, "verify", false, "check entry digests while reading")
	flags.IntVarP(&workers, "workers", "w", 0, "parallel extraction workers (default: GOMAXPROCS)")
	if done, err := parseFlags(flags, args); done || err != nil {
		return err
	}
	path, err := archiveArg(flags, input)
	if err != nil {
		return err
	}
	if force && skip {
		return fmt.Errorf("decompress: --force and --skip are mutually exclusive")
	}

	a, err := nla.Open(path,
		nla.WithVerifyDigest(verify),
		nla.WithLogger(newLogger(e.stderr, *verbose)))
	if err != nil {
		return err
	}
	defer a.Close()

	stats, err := a.Extract(ctx, output,
		nla.ExtractWithOverwrite(force),
		nla.ExtractWithSkipExisting(skip),
		nla.ExtractWithPrefix(prefix),
		nla.ExtractWithWorkers(workers))
	if err != nil {
		return err
	}
	fmt.Fprintf(e.stdout, "extracted %d files (%s), skipped %d\n",
		stats.FileCount, humanize.IBytes(stats.TotalBytes), stats.Skipped)
	return nil
}
