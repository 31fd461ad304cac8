package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"github.com/meigma/nla"
	"github.com/meigma/nla/codec"
)

func runCompress(ctx context.Context, e *env, args []string) error {
	flags, verbose := newFlagSet("compress", e)
	var (
		input, output, configPath string
		force                     bool
	)
	flagCfg := defaultBuildConfig()
	flags.StringVarP(&input, "input", "i", "", "source directory (required)")
	flags.StringVarP(&output, "output", "o", ".", "destination directory")
	flags.StringVarP(&flagCfg.Name, "name", "n", "", "archive name (default: source directory name)")
	flags.StringVarP(&flagCfg.Codec, "codec", "t", flagCfg.Codec, "codec: none, zstd, lz4 or s2")
	flags.StringVarP(&flagCfg.MaxVolumeSize, "max-volume-size", "m", "", "split data into volumes of this size, e.g. 64MiB")
	flags.IntVarP(&flagCfg.Level, "level", "l", flagCfg.Level, "compression level")
	flags.IntVarP(&flagCfg.DictSize, "dict-size", "s", flagCfg.DictSize, "zstd dictionary size in bytes, 0 disables training")
	flags.IntVarP(&flagCfg.Workers, "workers", "w", 0, "parallel compression workers (default: GOMAXPROCS)")
	flags.BoolVarP(&force, "force", "f", false, "replace an existing archive")
	flags.StringVar(&configPath, "config", "", "YAML build config; flags override its values")
	if done, err := parseFlags(flags, args); done || err != nil {
		return err
	}
	if input == "" {
		return fmt.Errorf("compress: --input is required")
	}

	cfg := flagCfg
	if configPath != "" {
		fileCfg, err := loadBuildConfigFile(configPath)
		if err != nil {
			return err
		}
		fileCfg.override(flagCfg, flags)
		cfg = fileCfg
	}

	maxVolume, err := cfg.maxVolumeBytes()
	if err != nil {
		return err
	}
	reg := codec.DefaultRegistry()
	c, err := cfg.newCodec(reg)
	if err != nil {
		return err
	}
	defer codec.Close(c)

	res, err := nla.Create(ctx, input, output,
		nla.CreateWithName(cfg.Name),
		nla.CreateWithCodec(c),
		nla.CreateWithRegistry(reg),
		nla.CreateWithMaxVolumeSize(maxVolume),
		nla.CreateWithWorkers(cfg.Workers),
		nla.CreateWithForce(force),
		nla.CreateWithLogger(newLogger(e.stderr, *verbose)))
	if err != nil {
		return err
	}

	fmt.Fprintf(e.stdout, "%s: %d entries, %d volume(s), %s data, %s dictionary\n",
		filepath.Base(res.RootPath), res.Entries, len(res.VolumeSizes),
		humanize.IBytes(res.DataSize), humanize.IBytes(res.DictSize))
	return nil
}
