package hooks

import "strings"

// Match reports whether pattern matches the dotted path, where a `*`
// segment matches exactly one path segment and a `**` segment matches
// zero or more segments — patterns match dotted API paths with `*`
// (one segment) and `**` (any depth).
func Match(pattern, path string) bool {
	return matchSegments(splitDotted(pattern), splitDotted(path))
}

func splitDotted(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ".")
}

func matchSegments(pat, path []string) bool {
	if len(pat) == 0 {
		return len(path) == 0
	}
	head := pat[0]
	if head == "**" {
		if matchSegments(pat[1:], path) {
			return true
		}
		if len(path) == 0 {
			return false
		}
		return matchSegments(pat, path[1:])
	}
	if len(path) == 0 {
		return false
	}
	if head != "*" && head != path[0] {
		return false
	}
	return matchSegments(pat[1:], path[1:])
}
