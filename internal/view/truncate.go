package view

import "unicode/utf8"

// PreviewLimit is the number of characters of the latest message shown in
// the contact list.
const PreviewLimit = 15

// Truncate shortens a message preview to PreviewLimit characters followed
// by "...". Shorter strings are returned unchanged.
func Truncate(s string) string {
	if utf8.RuneCountInString(s) <= PreviewLimit {
		return s
	}
	return string([]rune(s)[:PreviewLimit]) + "..."
}
