package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"ideahub/mentorship-api/internal/domain"
)

// Error constants for the repository layer
var (
	ErrNotFound           = RepositoryError("not found")
	ErrDuplicate          = RepositoryError("duplicate key")
	ErrPreconditionFailed = RepositoryError("precondition failed")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.User, error)
	ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error)
}

// ProjectRepository persists projects and their embedded files, comments and documents.
type ProjectRepository interface {
	Create(ctx context.Context, project *domain.Project) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Project, error)
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.Project, error)

	// SetAnalysisIfEmpty writes analysis only while the stored analysis is still empty.
	// Returns ErrPreconditionFailed when another write got there first.
	SetAnalysisIfEmpty(ctx context.Context, id primitive.ObjectID, analysis domain.Document) error
	SetFeedback(ctx context.Context, id primitive.ObjectID, feedback domain.Document) (*domain.Project, error)

	AddComment(ctx context.Context, id primitive.ObjectID, comment domain.Comment) error
	UpdateComment(ctx context.Context, id, commentID primitive.ObjectID, text string) (*domain.Comment, error)
	DeleteComment(ctx context.Context, id, commentID primitive.ObjectID) error
	MergeMentorRemarks(ctx context.Context, id primitive.ObjectID, remarks domain.Document) (*domain.Project, error)

	FindByStorageID(ctx context.Context, storageID string) (*domain.Project, error)
	// PullFileByStorageID removes the file record from every project and returns how many changed.
	PullFileByStorageID(ctx context.Context, storageID string) (int64, error)
}

// StudentLinkRepository manages the student -> mentor/projects linkage.
type StudentLinkRepository interface {
	// AddProject upserts the student's link and adds projectID to its project set.
	AddProject(ctx context.Context, studentID, projectID primitive.ObjectID) error
	// AssignMentor upserts the student's link and overwrites its mentor.
	AssignMentor(ctx context.Context, studentID, mentorID primitive.ObjectID) (*domain.StudentLink, error)
	GetByStudentID(ctx context.Context, studentID primitive.ObjectID) (*domain.StudentLink, error)
	ListByMentorID(ctx context.Context, mentorID primitive.ObjectID) ([]domain.StudentLink, error)
	ListAssigned(ctx context.Context) ([]domain.StudentLink, error)
	ListWithProjects(ctx context.Context) ([]domain.StudentLink, error)
	HasMentorForProject(ctx context.Context, mentorID, projectID primitive.ObjectID) (bool, error)
	FindByProjectID(ctx context.Context, projectID primitive.ObjectID) (*domain.StudentLink, error)
}
