package models

import (
	"time"

	"github.com/google/uuid"
)

// DocumentStatus tracks extraction. Extraction runs before the row is
// written and a failed extraction persists nothing, so every stored
// document is extracted; pending is the column default for rows created
// outside the upload path (seeds, manual inserts) and failed is reserved
// for the same case.
type DocumentStatus string

const (
	DocumentStatusPending   DocumentStatus = "pending"
	DocumentStatusExtracted DocumentStatus = "extracted"
	DocumentStatusFailed    DocumentStatus = "failed"
)

// ArtifactKind names one of the derived study artifacts.
type ArtifactKind string

const (
	ArtifactSummary    ArtifactKind = "summary"
	ArtifactQuiz       ArtifactKind = "quiz"
	ArtifactFlashcards ArtifactKind = "flashcards"
)

// ArtifactKinds lists all artifact kinds in generation order.
var ArtifactKinds = []ArtifactKind{ArtifactSummary, ArtifactQuiz, ArtifactFlashcards}

// ArtifactStatus tracks one (document, artifact-kind) cell.
// Transitions: not_started -> running -> {ready, failed};
// failed -> running only via explicit regeneration.
type ArtifactStatus string

const (
	ArtifactNotStarted ArtifactStatus = "not_started"
	ArtifactRunning    ArtifactStatus = "running"
	ArtifactReady      ArtifactStatus = "ready"
	ArtifactFailed     ArtifactStatus = "failed"
)

type Document struct {
	ID        uuid.UUID      `db:"id"`
	UserID    uuid.UUID      `db:"user_id"`
	Filename  string         `db:"filename"`
	MediaType string         `db:"media_type"`
	FileSize  int64          `db:"file_size"`
	RawText   string         `db:"raw_text"`
	Status    DocumentStatus `db:"status"`

	Summary       string         `db:"summary"`
	SummaryStatus ArtifactStatus `db:"summary_status"`
	SummaryError  string         `db:"summary_error"`

	Quiz       *Quiz          `db:"quiz"`
	QuizStatus ArtifactStatus `db:"quiz_status"`
	QuizError  string         `db:"quiz_error"`

	Flashcards       []Flashcard    `db:"flashcards"`
	FlashcardsStatus ArtifactStatus `db:"flashcards_status"`
	FlashcardsError  string         `db:"flashcards_error"`

	UploadedAt time.Time `db:"uploaded_at"`
}

// ArtifactState returns the status cell and failure reason for one kind.
func (d *Document) ArtifactState(kind ArtifactKind) (ArtifactStatus, string) {
	switch kind {
	case ArtifactSummary:
		return d.SummaryStatus, d.SummaryError
	case ArtifactQuiz:
		return d.QuizStatus, d.QuizError
	case ArtifactFlashcards:
		return d.FlashcardsStatus, d.FlashcardsError
	default:
		return "", ""
	}
}
