package main

import (
	"strings"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/nla/codec"
)

func TestLoadBuildConfig(t *testing.T) {
	t.Parallel()

	cfg, err := loadBuildConfig(strings.NewReader(`
name: assets
codec: lz4
level: 9
max_volume_size: 64MiB
workers: 2
`))
	require.NoError(t, err)
	assert.Equal(t, "assets", cfg.Name)
	assert.Equal(t, "lz4", cfg.Codec)
	assert.Equal(t, 9, cfg.Level)
	assert.Equal(t, codec.DefaultDictCapacity, cfg.DictSize)
	assert.Equal(t, 2, cfg.Workers)

	n, err := cfg.maxVolumeBytes()
	require.NoError(t, err)
	assert.Equal(t, uint64(64<<20), n)
}

func TestLoadBuildConfigRejectsUnknownKeys(t *testing.T) {
	t.Parallel()

	_, err := loadBuildConfig(strings.NewReader("compression: zstd\n"))
	require.Error(t, err)
}

func TestLoadBuildConfigEmpty(t *testing.T) {
	t.Parallel()

	cfg, err := loadBuildConfig(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, defaultBuildConfig(), cfg)
}

func TestBuildConfigOverride(t *testing.T) {
	t.Parallel()

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flagCfg := defaultBuildConfig()
	flags.StringVar(&flagCfg.Name, "name", "", "")
	flags.StringVar(&flagCfg.Codec, "codec", flagCfg.Codec, "")
	flags.IntVar(&flagCfg.Level, "level", flagCfg.Level, "")
	require.NoError(t, flags.Parse([]string{"--level", "19"}))

	fileCfg := buildConfig{Name: "from-file", Codec: "s2", Level: 1}
	fileCfg.override(flagCfg, flags)

	assert.Equal(t, "from-file", fileCfg.Name)
	assert.Equal(t, "s2", fileCfg.Codec)
	assert.Equal(t, 19, fileCfg.Level)
}

func TestBuildConfigNewCodec(t *testing.T) {
	t.Parallel()

	reg := codec.DefaultRegistry()
	tests := []struct {
		name string
		want codec.Tag
	}{
		{"none", codec.TagStore},
		{"store", codec.TagStore},
		{"zstd", codec.TagZstd},
		{"ZSTD", codec.TagZstd},
		{"lz4", codec.TagLZ4},
		{"s2", codec.TagS2},
		{"S2BK", codec.TagS2},
	}
	for _, tt := range tests {
		cfg := defaultBuildConfig()
		cfg.Codec = tt.name
		c, err := cfg.newCodec(reg)
		require.NoError(t, err, tt.name)
		assert.Equal(t, tt.want, c.Tag(), tt.name)
		require.NoError(t, codec.Close(c))
	}

	cfg := defaultBuildConfig()
	cfg.Codec = "BROT"
	_, err := cfg.newCodec(reg)
	require.ErrorIs(t, err, codec.ErrUnknown)
}

func TestMaxVolumeBytesInvalid(t *testing.T) {
	t.Parallel()

	cfg := buildConfig{MaxVolumeSize: "lots"}
	_, err := cfg.maxVolumeBytes()
	require.Error(t, err)
}
