package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"ideahub/mentorship-api/internal/analysis"
	"ideahub/mentorship-api/internal/domain"
	"ideahub/mentorship-api/internal/lock"
	"ideahub/mentorship-api/internal/repository"
)

// AnalysisClient calls the external LLM workflows.
type AnalysisClient interface {
	Analyze(ctx context.Context, record domain.Document) (domain.Document, error)
	Feedback(ctx context.Context, transcript []domain.Document) (domain.Document, error)
}

type AnalysisService interface {
	// RequestAnalysis computes and stores the project's analysis once.
	// A project that already has one is rejected with ErrAlreadyAnalyzed.
	RequestAnalysis(ctx context.Context, projectID primitive.ObjectID) (*analysis.View, error)
	// RequestFeedback computes the feedback document; it may be recomputed freely.
	RequestFeedback(ctx context.Context, projectID primitive.ObjectID) (domain.Document, error)
	ProjectReport(ctx context.Context, projectID primitive.ObjectID) (*analysis.Report, error)
}

// analysisService implements the AnalysisService interface.
type analysisService struct {
	projectRepo repository.ProjectRepository
	client      AnalysisClient
	locker      lock.Locker
}

// NewAnalysisService creates a new instance of analysisService. A nil locker
// disables in-flight detection; the conditional write still rejects a second result.
func NewAnalysisService(projectRepo repository.ProjectRepository, client AnalysisClient, locker lock.Locker) AnalysisService {
	if locker == nil {
		locker = lock.Noop{}
	}
	return &analysisService{
		projectRepo: projectRepo,
		client:      client,
		locker:      locker,
	}
}

func (s *analysisService) RequestAnalysis(ctx context.Context, projectID primitive.ObjectID) (*analysis.View, error) {
	project, err := s.getProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project.IsAnalyzed() {
		return nil, ErrAlreadyAnalyzed
	}
	if len(project.Transcript) == 0 {
		return nil, ErrNoTranscript
	}

	logger := log.With().Str("projectId", projectID.Hex()).Logger()

	release, err := s.locker.Acquire(ctx, "analysis:"+projectID.Hex())
	if err != nil {
		if errors.Is(err, lock.ErrNotAcquired) {
			return nil, ErrAnalysisInProgress
		}
		return nil, fmt.Errorf("acquire analysis lock: %w", err)
	}
	defer func() {
		// The request context may already be cancelled; release on a fresh one.
		if err := release(context.WithoutCancel(ctx)); err != nil {
			logger.Warn().Err(err).Msg("failed to release analysis lock")
		}
	}()

	doc, err := s.client.Analyze(ctx, project.Transcript[0])
	if err != nil {
		return nil, externalError("analysis failed", err)
	}
	if doc.IsEmpty() {
		// An empty document would read as "not analyzed" and could never be guarded.
		return nil, externalError("analysis failed", errors.New("empty analysis document"))
	}

	if err := s.projectRepo.SetAnalysisIfEmpty(ctx, projectID, doc); err != nil {
		switch {
		case errors.Is(err, repository.ErrPreconditionFailed):
			logger.Warn().Msg("analysis written concurrently, discarding result")
			return nil, ErrAlreadyAnalyzed
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrProjectNotFound
		}
		return nil, err
	}

	logger.Info().Msg("analysis stored")
	view := analysis.NewView(doc)
	return &view, nil
}

func (s *analysisService) RequestFeedback(ctx context.Context, projectID primitive.ObjectID) (domain.Document, error) {
	project, err := s.getProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if len(project.Transcript) == 0 {
		return nil, ErrNoTranscript
	}

	doc, err := s.client.Feedback(ctx, project.Transcript)
	if err != nil {
		return nil, externalError("feedback failed", err)
	}

	updated, err := s.projectRepo.SetFeedback(ctx, projectID, doc)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}

	log.Info().Str("projectId", projectID.Hex()).Msg("feedback stored")
	return updated.Feedback, nil
}

func (s *analysisService) ProjectReport(ctx context.Context, projectID primitive.ObjectID) (*analysis.Report, error) {
	project, err := s.getProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	report := analysis.NewReport(project)
	return &report, nil
}

func (s *analysisService) getProject(ctx context.Context, projectID primitive.ObjectID) (*domain.Project, error) {
	project, err := s.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	return project, nil
}
