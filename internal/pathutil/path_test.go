package pathutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"", "."},
		{"/", "."},
		{"///", "."},
		{"a.txt", "a.txt"},
		{"/etc/nginx/", "etc/nginx"},
		{"etc//nginx", "etc/nginx"},
		{"a/../b", "a/../b"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.in), "Normalize(%q)", tt.in)
	}
}

func TestChild(t *testing.T) {
	t.Parallel()

	name, isDir := Child("sub/deep/x.txt", DirPrefix("sub"))
	assert.Equal(t, "deep", name)
	assert.True(t, isDir)

	name, isDir = Child("a.txt", DirPrefix("."))
	assert.Equal(t, "a.txt", name)
	assert.False(t, isDir)
}

func TestBase(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ".", Base("."))
	assert.Equal(t, ".", Base(""))
	assert.Equal(t, "x.txt", Base("sub/x.txt"))
	assert.Equal(t, "a", Base("a"))
}
