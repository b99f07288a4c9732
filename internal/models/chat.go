package models

import (
	"time"

	"github.com/google/uuid"
)

// ChatMessage is one persisted tutor exchange. History is display state
// only: prior exchanges never feed back into prompts.
type ChatMessage struct {
	ID         uuid.UUID `db:"id"`
	DocumentID uuid.UUID `db:"document_id"`
	UserID     uuid.UUID `db:"user_id"`
	Message    string    `db:"message"`
	Response   string    `db:"response"`
	CreatedAt  time.Time `db:"created_at"`
}
