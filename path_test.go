package nla

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePath(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ".", NormalizePath("/"))
	assert.Equal(t, "etc/nginx", NormalizePath("//etc//nginx/"))
	assert.Equal(t, "a.txt", NormalizePath("a.txt"))
}

func TestParsePathRoundTrip(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"a.txt", "sub/b.json", "Makefile", "x/.env", "deep/dir/archive.tar.gz"} {
		p := ParsePath(s)
		assert.NoError(t, p.Validate(), s)
		assert.Equal(t, s, p.String())
		assert.Equal(t, p, ParsePath(p.String()))
	}
	assert.Equal(t, RootDirectory, ParsePath("a.txt").Directory)
}
