package models

// Flashcard is a term/definition pair. Slice order is presentation order.
type Flashcard struct {
	Term       string `json:"term"`
	Definition string `json:"definition"`
}
