package worker

import (
	"context"
	"errors"
	"sync"

	"studygenie/internal/models"
	"studygenie/internal/service"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Generator builds one artifact from extracted document text.
type Generator interface {
	GenerateSummary(ctx context.Context, text string) (string, error)
	GenerateQuiz(ctx context.Context, text string) (*models.Quiz, error)
	GenerateFlashcards(ctx context.Context, text string) ([]models.Flashcard, error)
}

// Store is the slice of document persistence the pool writes through.
type Store interface {
	GetByID(ctx context.Context, userID, id uuid.UUID) (*models.Document, error)
	SetArtifactStatus(ctx context.Context, id uuid.UUID, kind models.ArtifactKind, status models.ArtifactStatus, reason string) error
	SaveSummary(ctx context.Context, id uuid.UUID, summary string) error
	SaveQuiz(ctx context.Context, id uuid.UUID, quiz *models.Quiz) error
	SaveFlashcards(ctx context.Context, id uuid.UUID, cards []models.Flashcard) error
}

type job struct {
	documentID uuid.UUID
	userID     uuid.UUID
	kind       models.ArtifactKind
}

// Pool is the in-process generation scheduler: a bounded set of workers
// consuming artifact jobs. One (document, artifact-kind) cell never has
// more than one job running or queued at a time.
type Pool struct {
	store  Store
	gen    Generator
	logger *zap.Logger

	jobs chan job
	wg   sync.WaitGroup

	mu       sync.Mutex
	inflight map[string]struct{}
}

func NewPool(store Store, gen Generator, workers, queueSize int, logger *zap.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}

	p := &Pool{
		store:    store,
		gen:      gen,
		logger:   logger,
		jobs:     make(chan job, queueSize),
		inflight: make(map[string]struct{}),
	}

	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.run()
	}

	return p
}

// Submit enqueues one generation job and marks its status cell running
// before returning. A duplicate trigger while that cell has a job running
// or queued is a no-op and reports false. Submit never waits on
// generation itself.
func (p *Pool) Submit(documentID, userID uuid.UUID, kind models.ArtifactKind) bool {
	key := cellKey(documentID, kind)

	p.mu.Lock()
	if _, busy := p.inflight[key]; busy {
		p.mu.Unlock()
		return false
	}
	p.inflight[key] = struct{}{}
	p.mu.Unlock()

	ctx := context.Background()
	if err := p.store.SetArtifactStatus(ctx, documentID, kind, models.ArtifactRunning, ""); err != nil {
		p.logger.Error("Failed to mark artifact running",
			zap.String("document_id", documentID.String()),
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
		p.release(key)
		return false
	}

	select {
	case p.jobs <- job{documentID: documentID, userID: userID, kind: kind}:
		return true
	default:
		// Queue saturated. Record the failure instead of blocking the
		// request path.
		if err := p.store.SetArtifactStatus(ctx, documentID, kind, models.ArtifactFailed, "generation queue full"); err != nil {
			p.logger.Error("Failed to record queue overflow", zap.Error(err))
		}
		p.release(key)
		return false
	}
}

// Stop waits for queued and in-flight jobs to finish.
func (p *Pool) Stop() {
	close(p.jobs)
	p.wg.Wait()
}

func (p *Pool) run() {
	defer p.wg.Done()
	for j := range p.jobs {
		p.process(j)
		p.release(cellKey(j.documentID, j.kind))
	}
}

func (p *Pool) process(j job) {
	// Jobs have no overall deadline; timeouts are enforced per model
	// request inside the generative client.
	ctx := context.Background()

	doc, err := p.store.GetByID(ctx, j.userID, j.documentID)
	if err != nil {
		p.fail(ctx, j, "document unavailable: "+err.Error())
		return
	}

	switch j.kind {
	case models.ArtifactSummary:
		summary, err := p.gen.GenerateSummary(ctx, doc.RawText)
		if err != nil {
			p.fail(ctx, j, failureReason(err))
			return
		}
		err = p.store.SaveSummary(ctx, j.documentID, summary)
		p.finish(ctx, j, err)

	case models.ArtifactQuiz:
		quiz, err := p.gen.GenerateQuiz(ctx, doc.RawText)
		if err != nil {
			p.fail(ctx, j, failureReason(err))
			return
		}
		err = p.store.SaveQuiz(ctx, j.documentID, quiz)
		p.finish(ctx, j, err)

	case models.ArtifactFlashcards:
		cards, err := p.gen.GenerateFlashcards(ctx, doc.RawText)
		if err != nil {
			p.fail(ctx, j, failureReason(err))
			return
		}
		err = p.store.SaveFlashcards(ctx, j.documentID, cards)
		p.finish(ctx, j, err)

	default:
		p.fail(ctx, j, "unknown artifact kind")
	}
}

func (p *Pool) finish(ctx context.Context, j job, saveErr error) {
	if saveErr != nil {
		p.fail(ctx, j, "failed to persist result: "+saveErr.Error())
		return
	}
	p.logger.Info("Artifact generated",
		zap.String("document_id", j.documentID.String()),
		zap.String("kind", string(j.kind)),
	)
}

func (p *Pool) fail(ctx context.Context, j job, reason string) {
	p.logger.Warn("Artifact generation failed",
		zap.String("document_id", j.documentID.String()),
		zap.String("kind", string(j.kind)),
		zap.String("reason", reason),
	)
	if err := p.store.SetArtifactStatus(ctx, j.documentID, j.kind, models.ArtifactFailed, reason); err != nil {
		p.logger.Error("Failed to record artifact failure",
			zap.String("document_id", j.documentID.String()),
			zap.String("kind", string(j.kind)),
			zap.Error(err),
		)
	}
}

func (p *Pool) release(key string) {
	p.mu.Lock()
	delete(p.inflight, key)
	p.mu.Unlock()
}

func cellKey(documentID uuid.UUID, kind models.ArtifactKind) string {
	return documentID.String() + "/" + string(kind)
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, service.ErrModelUnavailable):
		return "unavailable"
	case errors.Is(err, service.ErrModelRejected):
		return "rejected"
	case errors.Is(err, service.ErrMalformedOutput):
		return "malformed output"
	default:
		return err.Error()
	}
}
