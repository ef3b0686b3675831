package runner

import "strings"

// Filter transforms captured command output in-process.
type Filter func(string) string

// Apply runs s through filters left to right.
func Apply(s string, filters ...Filter) string {
	for _, f := range filters {
		s = f(s)
	}
	return s
}

// LastLine returns the final line of s, ignoring a trailing line break.
func LastLine(s string) string {
	s = strings.TrimRight(s, "\r\n")
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	return strings.TrimSuffix(s, "\r")
}

// StripChars returns a Filter deleting every occurrence of the given characters.
func StripChars(chars string) Filter {
	return func(s string) string {
		return strings.Map(func(r rune) rune {
			if strings.ContainsRune(chars, r) {
				return -1
			}
			return r
		}, s)
	}
}

// TrimSpace removes leading and trailing white space.
func TrimSpace(s string) string {
	return strings.TrimSpace(s)
}
