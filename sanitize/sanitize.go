// Package sanitize implements NameSanitizer: a pure mapping from a raw
// filename or folder name to an API key. It is a fixed external
// contract — the core only ever calls Sanitize and compares its
// output; it never reasons about the underlying string rules itself.
package sanitize

import (
	"strings"
	"unicode"
)

// Rules configures Sanitize, mirroring the build config's Sanitize option.
type Rules struct {
	// LowerFirst forces the first rune of the sanitized key to
	// lowercase (the default camelCase behavior). Ignored for names
	// matched by Leave/LeaveInsensitive/Upper/Lower.
	LowerFirst bool
	// PreserveAllUpper leaves a raw name that is entirely uppercase
	// untouched (e.g. "NVR" stays "NVR" even with LowerFirst set, which
	// would otherwise give "nVR").
	PreserveAllUpper bool
	// PreserveAllLower leaves a raw name that is entirely lowercase
	// untouched instead of camel-casing it.
	PreserveAllLower bool
	// Leave lists raw names passed through byte-for-byte.
	Leave []string
	// LeaveInsensitive lists raw names passed through byte-for-byte,
	// matched case-insensitively.
	LeaveInsensitive []string
	// Upper lists raw names forced to their upper-cased form.
	Upper []string
	// Lower lists raw names forced to their lower-cased form.
	Lower []string
}

// Sanitize maps a raw filename or folder stem (no extension, no path
// separators) to a camelCase-ish API key, honoring rules' overrides in
// the order: Leave/LeaveInsensitive/Upper/Lower (exact overrides) then
// the all-upper/all-lower preservation flags, then default camelCasing.
func Sanitize(raw string, rules Rules) string {
	if raw == "" {
		return raw
	}

	for _, leave := range rules.Leave {
		if raw == leave {
			return raw
		}
	}
	for _, leave := range rules.LeaveInsensitive {
		if strings.EqualFold(raw, leave) {
			return raw
		}
	}
	for _, up := range rules.Upper {
		if strings.EqualFold(raw, up) {
			return strings.ToUpper(raw)
		}
	}
	for _, low := range rules.Lower {
		if strings.EqualFold(raw, low) {
			return strings.ToLower(raw)
		}
	}

	if rules.PreserveAllUpper && isAllUpper(raw) {
		return raw
	}
	if rules.PreserveAllLower && isAllLower(raw) {
		return raw
	}

	key := camelCase(raw)
	if rules.LowerFirst && key != "" {
		r := []rune(key)
		r[0] = unicode.ToLower(r[0])
		key = string(r)
	}
	return key
}

// camelCase splits raw on non-alphanumeric separators (-, _, space,
// dot) and capitalizes every word after the first, matching the
// filename-to-identifier convention used across the rest of the
// pipeline (e.g. "root-function" -> "rootFunction").
func camelCase(raw string) string {
	words := splitWords(raw)
	if len(words) == 0 {
		return raw
	}

	var b strings.Builder
	for i, w := range words {
		if w == "" {
			continue
		}
		if i == 0 {
			b.WriteString(w)
			continue
		}
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		b.WriteString(string(r))
	}
	return b.String()
}

func splitWords(raw string) []string {
	return strings.FieldsFunc(raw, func(r rune) bool {
		return r == '-' || r == '_' || r == ' ' || r == '.'
	})
}

func isAllUpper(s string) bool {
	seenLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			seenLetter = true
			if !unicode.IsUpper(r) {
				return false
			}
		}
	}
	return seenLetter
}

func isAllLower(s string) bool {
	seenLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			seenLetter = true
			if !unicode.IsLower(r) {
				return false
			}
		}
	}
	return seenLetter
}
