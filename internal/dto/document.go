package dto

import "studygenie/internal/models"

type DocumentResponse struct {
	ID               string `json:"id"`
	Filename         string `json:"filename"`
	MediaType        string `json:"media_type"`
	FileSize         int64  `json:"file_size"`
	Status           string `json:"status"`
	SummaryStatus    string `json:"summary_status"`
	Summary          string `json:"summary,omitempty"`
	QuizStatus       string `json:"quiz_status"`
	FlashcardsStatus string `json:"flashcards_status"`
	UploadedAt       string `json:"uploaded_at"`
}

// ArtifactResponse reports one artifact cell. Status not_started/running is
// the explicit "not ready" indicator; the payload is present only when ready.
type ArtifactResponse struct {
	Status     string             `json:"status"`
	Reason     string             `json:"reason,omitempty"`
	Quiz       *models.Quiz       `json:"quiz,omitempty"`
	Flashcards []models.Flashcard `json:"flashcards,omitempty"`
}
