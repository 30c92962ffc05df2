package router

import (
	"net/http"
	"strings"
)

// wildcardNames lists the wildcard names of a ServeMux path pattern.
// "/topics/{name}/files/{path...}" yields [name path].
func wildcardNames(pattern string) []string {
	var names []string
	for {
		start := strings.IndexByte(pattern, '{')
		if start < 0 {
			return names
		}
		end := strings.IndexByte(pattern[start:], '}')
		if end < 0 {
			return names
		}
		name := strings.TrimSuffix(pattern[start+1:start+end], "...")
		if name != "" && name != "$" {
			names = append(names, name)
		}
		pattern = pattern[start+end+1:]
	}
}

// normalizePattern renames every wildcard so that patterns differing only in
// wildcard names map to the same key.
func normalizePattern(pattern string) string {
	var b strings.Builder
	for {
		start := strings.IndexByte(pattern, '{')
		if start < 0 {
			b.WriteString(pattern)
			return b.String()
		}
		end := strings.IndexByte(pattern[start:], '}')
		if end < 0 {
			b.WriteString(pattern)
			return b.String()
		}
		b.WriteString(pattern[:start])
		switch inner := pattern[start+1 : start+end]; {
		case inner == "$":
			b.WriteString("{$}")
		case strings.HasSuffix(inner, "..."):
			b.WriteString("{_...}")
		default:
			b.WriteString("{_}")
		}
		pattern = pattern[start+end+1:]
	}
}

func pathParams(r *http.Request, names []string) map[string]string {
	if len(names) == 0 {
		return nil
	}
	params := make(map[string]string, len(names))
	for _, name := range names {
		params[name] = r.PathValue(name)
	}
	return params
}
