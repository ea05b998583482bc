package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"ideahub/mentorship-api/internal/domain"
	"ideahub/mentorship-api/internal/metrics"
	"ideahub/mentorship-api/internal/potential"
	"ideahub/mentorship-api/internal/repository"
)

// MentorAssignment is a student link with a mentor, populated for display.
type MentorAssignment struct {
	LinkID   primitive.ObjectID      `json:"linkId"`
	Student  domain.UserSummary      `json:"student"`
	Mentor   domain.UserSummary      `json:"mentor"`
	Projects []domain.ProjectSummary `json:"projects"`
}

// StudentIdeas lists a student's full projects.
type StudentIdeas struct {
	Student  domain.UserSummary `json:"student"`
	Projects []domain.Project   `json:"projects"`
}

// IdeaItem is one classified project.
type IdeaItem struct {
	Student domain.UserSummary `json:"student"`
	Project domain.Project     `json:"project"`
}

// PotentialIdeas is the per-student listing plus the same projects grouped by bucket.
type PotentialIdeas struct {
	Ideas       []StudentIdeas                  `json:"ideas"`
	Categorized map[potential.Bucket][]IdeaItem `json:"categorized"`
}

type AdminService interface {
	ListStudents(ctx context.Context) ([]domain.User, error)
	ListMentors(ctx context.Context) ([]domain.User, error)
	AssignMentor(ctx context.Context, studentID, mentorID primitive.ObjectID) (*domain.StudentLink, error)
	ListAssignments(ctx context.Context) ([]MentorAssignment, error)
	PotentialIdeas(ctx context.Context) (*PotentialIdeas, error)
}

// adminService implements the AdminService interface.
type adminService struct {
	userRepo    repository.UserRepository
	projectRepo repository.ProjectRepository
	linkRepo    repository.StudentLinkRepository
}

// NewAdminService creates a new instance of adminService.
func NewAdminService(
	userRepo repository.UserRepository,
	projectRepo repository.ProjectRepository,
	linkRepo repository.StudentLinkRepository,
) AdminService {
	return &adminService{
		userRepo:    userRepo,
		projectRepo: projectRepo,
		linkRepo:    linkRepo,
	}
}

func (s *adminService) ListStudents(ctx context.Context) ([]domain.User, error) {
	return s.userRepo.ListByRole(ctx, domain.RoleStudent)
}

func (s *adminService) ListMentors(ctx context.Context) ([]domain.User, error) {
	return s.userRepo.ListByRole(ctx, domain.RoleMentor)
}

// AssignMentor links the student to the mentor, replacing any previous mentor.
func (s *adminService) AssignMentor(ctx context.Context, studentID, mentorID primitive.ObjectID) (*domain.StudentLink, error) {
	if studentID == primitive.NilObjectID || mentorID == primitive.NilObjectID {
		return nil, validationError("studentId and mentorId are required")
	}

	if err := s.requireRole(ctx, studentID, domain.RoleStudent, ErrStudentNotFound); err != nil {
		return nil, err
	}
	if err := s.requireRole(ctx, mentorID, domain.RoleMentor, ErrMentorNotFound); err != nil {
		return nil, err
	}

	link, err := s.linkRepo.AssignMentor(ctx, studentID, mentorID)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrMentorAlreadyTaken
		}
		return nil, err
	}

	log.Info().Str("studentId", studentID.Hex()).Str("mentorId", mentorID.Hex()).Msg("mentor assigned")
	return link, nil
}

func (s *adminService) requireRole(ctx context.Context, id primitive.ObjectID, role domain.Role, notFound error) error {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound
		}
		return err
	}
	if user.Role != role {
		return notFound
	}
	return nil
}

// ListAssignments returns every student that has a mentor.
func (s *adminService) ListAssignments(ctx context.Context) ([]MentorAssignment, error) {
	links, err := s.linkRepo.ListAssigned(ctx)
	if err != nil {
		return nil, err
	}

	ids := make([]primitive.ObjectID, 0, 2*len(links))
	for _, link := range links {
		if link.MentorID != nil {
			ids = append(ids, link.StudentID, *link.MentorID)
		}
	}
	users, err := usersByID(ctx, s.userRepo, ids)
	if err != nil {
		return nil, err
	}

	out := make([]MentorAssignment, 0, len(links))
	for _, link := range links {
		if link.MentorID == nil {
			continue
		}
		student, okStudent := users[link.StudentID]
		mentor, okMentor := users[*link.MentorID]
		if !okStudent || !okMentor {
			continue
		}
		projects, err := s.projectRepo.GetByIDs(ctx, link.Projects)
		if err != nil {
			return nil, err
		}
		summaries := make([]domain.ProjectSummary, 0, len(projects))
		for i := range projects {
			summaries = append(summaries, projects[i].Summary())
		}
		out = append(out, MentorAssignment{
			LinkID:   link.ID,
			Student:  student.Summary(),
			Mentor:   mentor.Summary(),
			Projects: summaries,
		})
	}
	return out, nil
}

// PotentialIdeas classifies every project of every student with at least one
// project by its mentor remarks.
func (s *adminService) PotentialIdeas(ctx context.Context) (*PotentialIdeas, error) {
	links, err := s.linkRepo.ListWithProjects(ctx)
	if err != nil {
		return nil, err
	}

	studentIDs := make([]primitive.ObjectID, 0, len(links))
	for _, link := range links {
		studentIDs = append(studentIDs, link.StudentID)
	}
	students, err := usersByID(ctx, s.userRepo, studentIDs)
	if err != nil {
		return nil, err
	}

	result := &PotentialIdeas{
		Ideas:       make([]StudentIdeas, 0, len(links)),
		Categorized: make(map[potential.Bucket][]IdeaItem, len(potential.Buckets)),
	}
	for _, bucket := range potential.Buckets {
		result.Categorized[bucket] = []IdeaItem{}
	}

	for _, link := range links {
		// A deleted student still owns projects; show them without a name.
		summary := domain.UserSummary{ID: link.StudentID}
		if student, ok := students[link.StudentID]; ok {
			summary = student.Summary()
		}

		projects, err := s.projectRepo.GetByIDs(ctx, link.Projects)
		if err != nil {
			return nil, err
		}
		for _, project := range projects {
			bucket := potential.Classify(project.MentorRemarks)
			metrics.PotentialBucketsTotal.WithLabelValues(string(bucket)).Inc()
			result.Categorized[bucket] = append(result.Categorized[bucket], IdeaItem{Student: summary, Project: project})
		}
		result.Ideas = append(result.Ideas, StudentIdeas{Student: summary, Projects: projects})
	}
	return result, nil
}
