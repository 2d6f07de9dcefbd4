package library

import "time"

// StorageKey is the key the saved-work collection lives under. It matches
// the browser localStorage key so exported data imports unchanged.
const StorageKey = "mindspark_saved_work"

// AllTypes is the type filter value that matches every record.
const AllTypes = "All Types"

// Flashcard is one question/answer pair.
type Flashcard struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// InlineData is a base64 payload with its MIME type.
type InlineData struct {
	Data     string `json:"data"`
	MIMEType string `json:"mimeType"`
}

// ImagePart is an image attached to a task.
type ImagePart struct {
	InlineData InlineData `json:"inlineData"`
}

// Item is one saved piece of work.
type Item struct {
	ID            string      `json:"id"`
	Type          string      `json:"type"`
	Title         string      `json:"title"`
	Timestamp     time.Time   `json:"timestamp"`
	Description   string      `json:"description"`
	OriginalInput string      `json:"originalInput"`
	ResultText    string      `json:"resultText"`
	Flashcards    []Flashcard `json:"flashcards,omitempty"`
	ImagePart     *ImagePart  `json:"imagePart,omitempty"`
}

// NewItem is the caller-supplied part of an Item. Empty Title and
// Description are derived from OriginalInput and ResultText.
type NewItem struct {
	Type          string      `json:"type"`
	Title         string      `json:"title,omitempty"`
	Description   string      `json:"description,omitempty"`
	OriginalInput string      `json:"originalInput"`
	ResultText    string      `json:"resultText"`
	Flashcards    []Flashcard `json:"flashcards,omitempty"`
	ImagePart     *ImagePart  `json:"imagePart,omitempty"`
}

// Filter narrows a listing. Query matches title or description
// case-insensitively; Type must match exactly unless empty or AllTypes.
// Limit <= 0 means no limit.
type Filter struct {
	Query string
	Type  string
	Limit int
}
