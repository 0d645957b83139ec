package chat

import (
	"strings"
	"unicode"
)

// joinOr renders a choice list the way the classifier rejection message
// expects: one item as-is, two joined by "or", three or more comma-joined
// with a trailing "or" before the last. Every item is capitalized.
func joinOr(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return capitalize(items[0])
	case 2:
		return capitalize(items[0]) + " or " + capitalize(items[1])
	}
	var b strings.Builder
	for i, item := range items {
		if i == len(items)-1 {
			b.WriteString("or ")
			b.WriteString(capitalize(item))
		} else {
			b.WriteString(capitalize(item))
			b.WriteString(", ")
		}
	}
	return b.String()
}

func capitalize(s string) string {
	r := []rune(s)
	if len(r) == 0 {
		return s
	}
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
