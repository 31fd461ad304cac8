package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/meigma/nla/codec"
)

// buildConfig is the build configuration of the compress command. It is
// read from an optional YAML file; flags set on the command line win.
type buildConfig struct {
	// Name is the archive name.
	Name string `yaml:"name"`

	// Codec is one of none, zstd, lz4, s2 or a registered four-byte tag.
	Codec string `yaml:"codec"`

	// Level is the codec compression level.
	Level int `yaml:"level"`

	// DictSize is the zstd dictionary capacity; 0 disables training.
	DictSize int `yaml:"dict_size"`

	// MaxVolumeSize splits data into volumes, e.g. "64MiB". Empty means
	// a single volume.
	MaxVolumeSize string `yaml:"max_volume_size"`

	// Workers is the number of parallel compression workers.
	Workers int `yaml:"workers"`
}

func defaultBuildConfig() buildConfig {
	return buildConfig{
		Codec:    "zstd",
		Level:    codec.DefaultZstdLevel,
		DictSize: codec.DefaultDictCapacity,
	}
}

// loadBuildConfig decodes a YAML build config. Unknown keys are errors.
func loadBuildConfig(r io.Reader) (buildConfig, error) {
	cfg := defaultBuildConfig()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return buildConfig{}, fmt.Errorf("parse build config: %w", err)
	}
	return cfg, nil
}

func loadBuildConfigFile(path string) (buildConfig, error) {
	f, err := os.Open(path) //nolint:gosec // user-provided config path
	if err != nil {
		return buildConfig{}, err
	}
	defer f.Close()
	return loadBuildConfig(f)
}

// override copies every value whose flag was set from flagCfg.
func (c *buildConfig) override(flagCfg buildConfig, flags *pflag.FlagSet) {
	if flags.Changed("name") {
		c.Name = flagCfg.Name
	}
	if flags.Changed("codec") {
		c.Codec = flagCfg.Codec
	}
	if flags.Changed("level") {
		c.Level = flagCfg.Level
	}
	if flags.Changed("dict-size") {
		c.DictSize = flagCfg.DictSize
	}
	if flags.Changed("max-volume-size") {
		c.MaxVolumeSize = flagCfg.MaxVolumeSize
	}
	if flags.Changed("workers") {
		c.Workers = flagCfg.Workers
	}
}

// maxVolumeBytes parses MaxVolumeSize. Plain numbers are bytes.
func (c *buildConfig) maxVolumeBytes() (uint64, error) {
	if c.MaxVolumeSize == "" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(c.MaxVolumeSize)
	if err != nil {
		return 0, fmt.Errorf("max volume size %q: %w", c.MaxVolumeSize, err)
	}
	return n, nil
}

// newCodec builds the configured codec.
func (c *buildConfig) newCodec(reg *codec.Registry) (codec.Codec, error) {
	switch strings.ToLower(c.Codec) {
	case "none", "store":
		return codec.NewStore(), nil
	case "zstd":
		return codec.NewZstd(codec.WithZstdLevel(c.Level), codec.WithDictCapacity(c.DictSize))
	case "lz4", "lz4f":
		return codec.NewLZ4(codec.WithLZ4Level(c.Level)), nil
	case "s2", "s2bk":
		return codec.NewS2(codec.WithS2Better(c.Level > 1)), nil
	}
	tag, err := codec.ParseTag(c.Codec)
	if err != nil {
		return nil, err
	}
	return reg.New(tag)
}
