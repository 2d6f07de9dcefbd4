package library

import (
	"strings"
	"unicode/utf8"
)

const (
	titleWords        = 5
	descriptionLength = 150
	untitled          = "New Work"
)

// TitleFor returns the first five words of input followed by "...",
// or "New Work" when input is blank.
func TitleFor(input string) string {
	words := strings.Fields(input)
	if len(words) == 0 {
		return untitled
	}
	if len(words) > titleWords {
		words = words[:titleWords]
	}
	return strings.Join(words, " ") + "..."
}

// DescriptionFor returns the first 150 characters of result followed by "...".
func DescriptionFor(result string) string {
	if utf8.RuneCountInString(result) <= descriptionLength {
		return result + "..."
	}
	return string([]rune(result)[:descriptionLength]) + "..."
}
