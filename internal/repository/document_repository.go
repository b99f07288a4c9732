package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"studygenie/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

var documentColumns = []string{
	"id", "user_id", "filename", "media_type", "file_size", "raw_text", "status",
	"summary", "summary_status", "summary_error",
	"quiz", "quiz_status", "quiz_error",
	"flashcards", "flashcards_status", "flashcards_error",
	"uploaded_at",
}

type DocumentRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewDocumentRepository(db *pgxpool.Pool, logger *zap.Logger) *DocumentRepository {
	return &DocumentRepository{
		db:     db,
		logger: logger,
	}
}

func (r *DocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	query := squirrel.Insert("documents").
		Columns("id", "user_id", "filename", "media_type", "file_size", "raw_text", "status",
			"summary_status", "quiz_status", "flashcards_status", "uploaded_at").
		Values(doc.ID, doc.UserID, doc.Filename, doc.MediaType, doc.FileSize, doc.RawText, doc.Status,
			doc.SummaryStatus, doc.QuizStatus, doc.FlashcardsStatus, doc.UploadedAt).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

// GetByID fetches a document scoped to its owner. A document owned by
// another user is indistinguishable from a missing one.
func (r *DocumentRepository) GetByID(ctx context.Context, userID, id uuid.UUID) (*models.Document, error) {
	query := squirrel.Select(documentColumns...).
		From("documents").
		Where(squirrel.Eq{"id": id, "user_id": userID}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	doc, err := scanDocument(r.db.QueryRow(ctx, sql, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return doc, nil
}

func (r *DocumentRepository) ListByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Document, error) {
	query := squirrel.Select(documentColumns...).
		From("documents").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("uploaded_at DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var documents []*models.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		documents = append(documents, doc)
	}

	return documents, rows.Err()
}

// SetArtifactStatus writes one (document, kind) status cell and its reason.
func (r *DocumentRepository) SetArtifactStatus(ctx context.Context, id uuid.UUID, kind models.ArtifactKind, status models.ArtifactStatus, reason string) error {
	statusCol, errorCol, err := artifactColumns(kind)
	if err != nil {
		return err
	}

	query := squirrel.Update("documents").
		Set(statusCol, status).
		Set(errorCol, reason).
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func (r *DocumentRepository) SaveSummary(ctx context.Context, id uuid.UUID, summary string) error {
	query := squirrel.Update("documents").
		Set("summary", summary).
		Set("summary_status", models.ArtifactReady).
		Set("summary_error", "").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func (r *DocumentRepository) SaveQuiz(ctx context.Context, id uuid.UUID, quiz *models.Quiz) error {
	payload, err := json.Marshal(quiz)
	if err != nil {
		return err
	}

	query := squirrel.Update("documents").
		Set("quiz", payload).
		Set("quiz_status", models.ArtifactReady).
		Set("quiz_error", "").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func (r *DocumentRepository) SaveFlashcards(ctx context.Context, id uuid.UUID, cards []models.Flashcard) error {
	payload, err := json.Marshal(cards)
	if err != nil {
		return err
	}

	query := squirrel.Update("documents").
		Set("flashcards", payload).
		Set("flashcards_status", models.ArtifactReady).
		Set("flashcards_error", "").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

// FailStaleRunning flips artifacts left running by a previous process to
// failed. Called once at startup so a crash mid-generation stays observable.
func (r *DocumentRepository) FailStaleRunning(ctx context.Context) error {
	for _, kind := range models.ArtifactKinds {
		statusCol, errorCol, err := artifactColumns(kind)
		if err != nil {
			return err
		}

		query := squirrel.Update("documents").
			Set(statusCol, models.ArtifactFailed).
			Set(errorCol, "interrupted").
			Where(squirrel.Eq{statusCol: models.ArtifactRunning}).
			PlaceholderFormat(squirrel.Dollar)

		sql, args, err := query.ToSql()
		if err != nil {
			return err
		}

		tag, err := r.db.Exec(ctx, sql, args...)
		if err != nil {
			return err
		}
		if n := tag.RowsAffected(); n > 0 {
			r.logger.Warn("Marked stale running artifacts as failed",
				zap.String("kind", string(kind)),
				zap.Int64("count", n),
			)
		}
	}
	return nil
}

func artifactColumns(kind models.ArtifactKind) (statusCol, errorCol string, err error) {
	switch kind {
	case models.ArtifactSummary:
		return "summary_status", "summary_error", nil
	case models.ArtifactQuiz:
		return "quiz_status", "quiz_error", nil
	case models.ArtifactFlashcards:
		return "flashcards_status", "flashcards_error", nil
	default:
		return "", "", fmt.Errorf("unknown artifact kind: %s", kind)
	}
}

func scanDocument(row pgx.Row) (*models.Document, error) {
	var (
		doc            models.Document
		quizJSON       []byte
		flashcardsJSON []byte
	)

	err := row.Scan(
		&doc.ID, &doc.UserID, &doc.Filename, &doc.MediaType, &doc.FileSize, &doc.RawText, &doc.Status,
		&doc.Summary, &doc.SummaryStatus, &doc.SummaryError,
		&quizJSON, &doc.QuizStatus, &doc.QuizError,
		&flashcardsJSON, &doc.FlashcardsStatus, &doc.FlashcardsError,
		&doc.UploadedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(quizJSON) > 0 {
		var quiz models.Quiz
		if err := json.Unmarshal(quizJSON, &quiz); err != nil {
			return nil, fmt.Errorf("decode stored quiz: %w", err)
		}
		doc.Quiz = &quiz
	}
	if len(flashcardsJSON) > 0 {
		if err := json.Unmarshal(flashcardsJSON, &doc.Flashcards); err != nil {
			return nil, fmt.Errorf("decode stored flashcards: %w", err)
		}
	}

	return &doc, nil
}
