package study

import (
	"fmt"
	"strings"
)

// Kind is a task category.
type Kind string

const (
	KindSummarize    Kind = "summarize"
	KindNotes        Kind = "notes"
	KindProofread    Kind = "proofread"
	KindTranslate    Kind = "translate"
	KindAnalyzeImage Kind = "analyze_image"
	KindFlashcards   Kind = "flashcards"
	KindChat         Kind = "chat"
)

// Kinds lists every kind in menu order.
var Kinds = []Kind{
	KindSummarize, KindNotes, KindProofread, KindTranslate,
	KindAnalyzeImage, KindFlashcards, KindChat,
}

var labels = map[Kind]string{
	KindSummarize:    "Summary",
	KindNotes:        "Notes",
	KindProofread:    "Proofread",
	KindTranslate:    "Translation",
	KindAnalyzeImage: "Image Analysis",
	KindFlashcards:   "Flashcards",
	KindChat:         "Chat",
}

// Label is the category stored as a saved record's type.
func (k Kind) Label() string {
	if l, ok := labels[k]; ok {
		return l
	}
	return string(k)
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	_, ok := labels[k]
	return ok
}

// ParseKind accepts a kind name ("translate"), a hyphenated form
// ("analyze-image") or a label ("Image Analysis").
func ParseKind(s string) (Kind, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer("-", "_", " ", "_").Replace(norm)
	if k := Kind(norm); k.Valid() {
		return k, nil
	}
	for k, l := range labels {
		if strings.EqualFold(l, strings.TrimSpace(s)) {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: unknown task kind %q", ErrInvalidTask, s)
}

// KindForLabel maps a stored type label back to its kind. Unknown labels
// report false.
func KindForLabel(label string) (Kind, bool) {
	for k, l := range labels {
		if l == label {
			return k, true
		}
	}
	return "", false
}
