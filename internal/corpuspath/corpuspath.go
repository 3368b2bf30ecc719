// Package corpuspath converts corpus paths between their absolute form and the
// form relative to the folder of a containing document.
//
// An absolute corpus path is rooted, optionally prefixed by a storage
// namespace: "local:/sales/orders.cdm.json/Order" or "/sales/orders.cdm.json".
// Folder paths always end with a slash.
package corpuspath

import (
	"path"
	"strings"
)

const namespaceSep = ":"

// Split separates the namespace from the rest of p. The namespace is only
// recognised when the separator precedes the first slash, so "a/b:c" has none.
func Split(p string) (namespace, rest string) {
	i := strings.Index(p, namespaceSep)
	if i <= 0 {
		return "", p
	}
	if slash := strings.Index(p, "/"); slash >= 0 && slash < i {
		return "", p
	}
	return p[:i], p[i+len(namespaceSep):]
}

// Join builds a corpus path from a namespace and a path.
func Join(namespace, p string) string {
	if namespace == "" {
		return p
	}
	return namespace + namespaceSep + p
}

// IsAbsolute reports whether p is rooted. A namespaced path is always
// treated as absolute.
func IsAbsolute(p string) bool {
	ns, rest := Split(p)
	return ns != "" || strings.HasPrefix(rest, "/")
}

// Normalize cleans the path part of p, resolving "." and ".." segments and
// duplicate slashes. A trailing slash is kept. Empty stays empty.
func Normalize(p string) string {
	if p == "" {
		return ""
	}
	ns, rest := Split(p)
	if ns != "" && !strings.HasPrefix(rest, "/") {
		rest = "/" + rest
	}
	return Join(ns, clean(rest))
}

// ToRelative expresses p relative to folder when p lies under it. Paths in
// another namespace or outside the folder are returned unchanged, as are
// paths that are already relative.
func ToRelative(p, folder string) string {
	if p == "" || !IsAbsolute(p) {
		return p
	}
	norm := Normalize(p)
	pNs, pRest := Split(norm)
	fNs, fRest := Split(Normalize(folder))
	if pNs != fNs {
		return p
	}
	if !strings.HasSuffix(fRest, "/") {
		fRest += "/"
	}
	if !strings.HasPrefix(pRest, fRest) || pRest == fRest {
		return p
	}
	return strings.TrimPrefix(pRest, fRest)
}

// ToAbsolute resolves a relative p against folder. Absolute paths are returned
// unchanged.
func ToAbsolute(p, folder string) string {
	if p == "" || IsAbsolute(p) {
		return p
	}
	fNs, fRest := Split(folder)
	if !strings.HasPrefix(fRest, "/") {
		fRest = "/" + fRest
	}
	if !strings.HasSuffix(fRest, "/") {
		fRest += "/"
	}
	return Join(fNs, clean(fRest+p))
}

// Folder returns the folder part of an absolute document or object path,
// including the trailing slash.
func Folder(p string) string {
	ns, rest := Split(p)
	i := strings.LastIndex(rest, "/")
	if i < 0 {
		return Join(ns, "/")
	}
	return Join(ns, rest[:i+1])
}

// LastSegment returns the portion of p after the final slash.
func LastSegment(p string) string {
	if i := strings.LastIndex(p, "/"); i >= 0 {
		return p[i+1:]
	}
	return p
}

func clean(p string) string {
	trailing := strings.HasSuffix(p, "/") && p != "/"
	c := path.Clean(p)
	if c == "." {
		return ""
	}
	if trailing && c != "/" {
		c += "/"
	}
	return c
}
