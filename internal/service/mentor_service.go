package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"ideahub/mentorship-api/internal/domain"
	"ideahub/mentorship-api/internal/repository"
)

// MaxCommentLength bounds a single comment.
const MaxCommentLength = 5000

// MentoredStudent is one of a mentor's students with their project summaries.
type MentoredStudent struct {
	LinkID   primitive.ObjectID      `json:"linkId"`
	Student  domain.UserSummary      `json:"student"`
	Projects []domain.ProjectSummary `json:"projects"`
}

type MentorService interface {
	ListStudents(ctx context.Context, mentorID primitive.ObjectID) ([]MentoredStudent, error)
	// AuthorizeProject fails with ErrProjectNotFound for an unknown project and
	// with ErrProjectAccessDenied unless it belongs to one of the mentor's students.
	AuthorizeProject(ctx context.Context, mentorID, projectID primitive.ObjectID) error

	ListComments(ctx context.Context, projectID primitive.ObjectID) ([]domain.Comment, error)
	AddComment(ctx context.Context, mentorID, projectID primitive.ObjectID, text string) (*domain.Comment, error)
	UpdateComment(ctx context.Context, projectID, commentID primitive.ObjectID, text string) (*domain.Comment, error)
	DeleteComment(ctx context.Context, projectID, commentID primitive.ObjectID) error

	UpdateRemarks(ctx context.Context, projectID primitive.ObjectID, remarks domain.Document) (domain.Document, error)
}

// mentorService implements the MentorService interface.
type mentorService struct {
	userRepo    repository.UserRepository
	projectRepo repository.ProjectRepository
	linkRepo    repository.StudentLinkRepository
}

// NewMentorService creates a new instance of mentorService.
func NewMentorService(
	userRepo repository.UserRepository,
	projectRepo repository.ProjectRepository,
	linkRepo repository.StudentLinkRepository,
) MentorService {
	return &mentorService{
		userRepo:    userRepo,
		projectRepo: projectRepo,
		linkRepo:    linkRepo,
	}
}

// ListStudents returns every student assigned to the mentor.
func (s *mentorService) ListStudents(ctx context.Context, mentorID primitive.ObjectID) ([]MentoredStudent, error) {
	mentor, err := s.userRepo.GetByID(ctx, mentorID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrMentorNotFound
		}
		return nil, err
	}
	if !mentor.IsMentor() {
		return nil, ErrMentorNotFound
	}

	links, err := s.linkRepo.ListByMentorID(ctx, mentorID)
	if err != nil {
		return nil, err
	}
	return populateLinks(ctx, s.userRepo, s.projectRepo, links)
}

func (s *mentorService) AuthorizeProject(ctx context.Context, mentorID, projectID primitive.ObjectID) error {
	// A missing project is reported as such, before the ownership check.
	if _, err := s.projectRepo.GetByID(ctx, projectID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrProjectNotFound
		}
		return err
	}

	ok, err := s.linkRepo.HasMentorForProject(ctx, mentorID, projectID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrProjectAccessDenied
	}
	return nil
}

func (s *mentorService) ListComments(ctx context.Context, projectID primitive.ObjectID) ([]domain.Comment, error) {
	project, err := s.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	return project.Comments, nil
}

func (s *mentorService) AddComment(ctx context.Context, mentorID, projectID primitive.ObjectID, text string) (*domain.Comment, error) {
	text, err := cleanCommentText(text)
	if err != nil {
		return nil, err
	}

	comment := domain.Comment{
		ID:        primitive.NewObjectID(),
		Text:      text,
		AuthorID:  mentorID,
		Timestamp: time.Now().UTC(),
	}
	if err := s.projectRepo.AddComment(ctx, projectID, comment); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}

	log.Info().Str("projectId", projectID.Hex()).Str("commentId", comment.ID.Hex()).Msg("comment added")
	return &comment, nil
}

func (s *mentorService) UpdateComment(ctx context.Context, projectID, commentID primitive.ObjectID, text string) (*domain.Comment, error) {
	text, err := cleanCommentText(text)
	if err != nil {
		return nil, err
	}

	comment, err := s.projectRepo.UpdateComment(ctx, projectID, commentID, text)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, err
	}
	return comment, nil
}

func (s *mentorService) DeleteComment(ctx context.Context, projectID, commentID primitive.ObjectID) error {
	if err := s.projectRepo.DeleteComment(ctx, projectID, commentID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrCommentNotFound
		}
		return err
	}
	return nil
}

// UpdateRemarks merges remarks into the project's mentor remarks and returns the result.
func (s *mentorService) UpdateRemarks(ctx context.Context, projectID primitive.ObjectID, remarks domain.Document) (domain.Document, error) {
	if remarks.IsEmpty() {
		return nil, validationError("remarks must contain at least one field")
	}
	for key := range remarks {
		if key == "" || strings.HasPrefix(key, "$") || strings.Contains(key, ".") {
			return nil, validationError("invalid remark key %q", key)
		}
	}

	project, err := s.projectRepo.MergeMentorRemarks(ctx, projectID, remarks)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	return project.MentorRemarks, nil
}

func cleanCommentText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", validationError("comment text is required")
	}
	if len(text) > MaxCommentLength {
		return "", validationError("comment is too long: maximum is %d characters", MaxCommentLength)
	}
	return text, nil
}

// populateLinks resolves the student and project summaries of each link.
// Links whose student no longer exists are skipped.
func populateLinks(ctx context.Context, users repository.UserRepository, projects repository.ProjectRepository, links []domain.StudentLink) ([]MentoredStudent, error) {
	studentIDs := make([]primitive.ObjectID, 0, len(links))
	for _, link := range links {
		studentIDs = append(studentIDs, link.StudentID)
	}
	students, err := usersByID(ctx, users, studentIDs)
	if err != nil {
		return nil, err
	}

	out := make([]MentoredStudent, 0, len(links))
	for _, link := range links {
		student, ok := students[link.StudentID]
		if !ok {
			continue
		}
		summaries := []domain.ProjectSummary{}
		ps, err := projects.GetByIDs(ctx, link.Projects)
		if err != nil {
			return nil, err
		}
		for i := range ps {
			summaries = append(summaries, ps[i].Summary())
		}
		out = append(out, MentoredStudent{LinkID: link.ID, Student: student.Summary(), Projects: summaries})
	}
	return out, nil
}

func usersByID(ctx context.Context, users repository.UserRepository, ids []primitive.ObjectID) (map[primitive.ObjectID]*domain.User, error) {
	found, err := users.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[primitive.ObjectID]*domain.User, len(found))
	for i := range found {
		byID[found[i].ID] = &found[i]
	}
	return byID, nil
}
