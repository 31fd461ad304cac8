// Package pathutil handles the slash-separated names archives expose
// through fs.FS.
package pathutil

import "strings"

// Normalize turns a user-supplied name into fs.ValidPath form: surrounding
// and repeated slashes are dropped and an empty result becomes ".".
// "." and ".." elements are kept so that fs.ValidPath rejects them.
func Normalize(p string) string {
	parts := strings.FieldsFunc(p, func(r rune) bool { return r == '/' })
	if len(parts) == 0 {
		return "."
	}
	return strings.Join(parts, "/")
}

// DirPrefix returns the prefix shared by every name below dir.
// The prefix of "." is empty.
func DirPrefix(dir string) string {
	if dir == "." {
		return ""
	}
	return dir + "/"
}

// Child returns the first element of name below prefix and whether more
// elements follow it.
func Child(name, prefix string) (child string, isDir bool) {
	rest := name[len(prefix):]
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		return rest[:i], true
	}
	return rest, false
}

// Base returns the last element of name, or "." for the root.
func Base(name string) string {
	if name == "" || name == "." {
		return "."
	}
	return name[strings.LastIndexByte(name, '/')+1:]
}
