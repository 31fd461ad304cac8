package nla

import "github.com/meigma/nla/internal/pathutil"

// NormalizePath converts a user-supplied path to fs.ValidPath form by
// dropping leading, trailing and repeated slashes. "" and "/" become ".".
//
// "." and ".." elements are left in place; Archive methods reject them.
func NormalizePath(p string) string {
	return pathutil.Normalize(p)
}
