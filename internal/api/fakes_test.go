package api

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"ideahub/mentorship-api/internal/analysis"
	"ideahub/mentorship-api/internal/domain"
	"ideahub/mentorship-api/internal/service"
)

type fakeAuthService struct {
	registerErr error
	loginErr    error
	registered  []domain.Role
}

func (f *fakeAuthService) Register(_ context.Context, name, email, _ string, role domain.Role) (*domain.User, error) {
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	f.registered = append(f.registered, role)
	return &domain.User{ID: primitive.NewObjectID(), Name: name, Email: email, Role: role}, nil
}

func (f *fakeAuthService) Login(_ context.Context, email, _ string) (string, *domain.User, error) {
	if f.loginErr != nil {
		return "", nil, f.loginErr
	}
	return "signed-token", &domain.User{ID: primitive.NewObjectID(), Email: email, Role: domain.RoleStudent}, nil
}

func (f *fakeAuthService) GetJWTSecret() string { return testSecret }

type fakeProjectService struct {
	created     *service.CreateProjectInput
	createErr   error
	getErr      error
	deleteErr   error
	deletedID   string
	detailsUser primitive.ObjectID
}

func (f *fakeProjectService) CreateProject(_ context.Context, _ primitive.ObjectID, input service.CreateProjectInput) (*domain.Project, error) {
	f.created = &input
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &domain.Project{ID: primitive.NewObjectID(), Title: input.Title, Tags: input.Tags}, nil
}

func (f *fakeProjectService) GetStudentDetails(_ context.Context, studentID primitive.ObjectID) (*service.StudentDetails, error) {
	f.detailsUser = studentID
	return &service.StudentDetails{ID: primitive.NewObjectID(), Projects: []domain.ProjectSummary{}}, nil
}

func (f *fakeProjectService) GetProject(_ context.Context, _, projectID primitive.ObjectID) (*domain.Project, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return &domain.Project{ID: projectID, Title: "Idea"}, nil
}

func (f *fakeProjectService) DeleteFile(_ context.Context, _ primitive.ObjectID, storageID string) (*service.DeleteFileResult, error) {
	f.deletedID = storageID
	if f.deleteErr != nil {
		return nil, f.deleteErr
	}
	return &service.DeleteFileResult{StorageID: storageID, ProjectsUpdated: 1}, nil
}

type fakeAnalysisService struct {
	analyzeErr    error
	analyzeCalls  int
	feedbackCalls int
}

func (f *fakeAnalysisService) RequestAnalysis(_ context.Context, _ primitive.ObjectID) (*analysis.View, error) {
	f.analyzeCalls++
	if f.analyzeErr != nil {
		return nil, f.analyzeErr
	}
	view := analysis.NewView(domain.Document{"title": "Idea"})
	return &view, nil
}

func (f *fakeAnalysisService) RequestFeedback(_ context.Context, _ primitive.ObjectID) (domain.Document, error) {
	f.feedbackCalls++
	return domain.Document{"summary": "solid"}, nil
}

func (f *fakeAnalysisService) ProjectReport(_ context.Context, projectID primitive.ObjectID) (*analysis.Report, error) {
	report := analysis.NewReport(&domain.Project{ID: projectID, Title: "Idea"})
	return &report, nil
}

type fakeMentorService struct {
	allowed  map[primitive.ObjectID]bool
	missing  map[primitive.ObjectID]bool
	comments []string
	remarks  domain.Document
}

func (f *fakeMentorService) ListStudents(context.Context, primitive.ObjectID) ([]service.MentoredStudent, error) {
	return []service.MentoredStudent{}, nil
}

func (f *fakeMentorService) AuthorizeProject(_ context.Context, _, projectID primitive.ObjectID) error {
	if f.missing[projectID] {
		return service.ErrProjectNotFound
	}
	if !f.allowed[projectID] {
		return service.ErrProjectAccessDenied
	}
	return nil
}

func (f *fakeMentorService) ListComments(context.Context, primitive.ObjectID) ([]domain.Comment, error) {
	return []domain.Comment{}, nil
}

func (f *fakeMentorService) AddComment(_ context.Context, mentorID, _ primitive.ObjectID, text string) (*domain.Comment, error) {
	f.comments = append(f.comments, text)
	return &domain.Comment{ID: primitive.NewObjectID(), Text: text, AuthorID: mentorID}, nil
}

func (f *fakeMentorService) UpdateComment(context.Context, primitive.ObjectID, primitive.ObjectID, string) (*domain.Comment, error) {
	return nil, service.ErrCommentNotFound
}

func (f *fakeMentorService) DeleteComment(context.Context, primitive.ObjectID, primitive.ObjectID) error {
	return nil
}

func (f *fakeMentorService) UpdateRemarks(_ context.Context, _ primitive.ObjectID, remarks domain.Document) (domain.Document, error) {
	f.remarks = remarks
	return remarks, nil
}

type fakeAdminService struct {
	assignErr error
	assigned  [2]primitive.ObjectID
}

func (f *fakeAdminService) ListStudents(context.Context) ([]domain.User, error) {
	return []domain.User{{ID: primitive.NewObjectID(), Name: "Ana", Role: domain.RoleStudent, PasswordHash: "hash"}}, nil
}

func (f *fakeAdminService) ListMentors(context.Context) ([]domain.User, error) {
	return []domain.User{}, nil
}

func (f *fakeAdminService) AssignMentor(_ context.Context, studentID, mentorID primitive.ObjectID) (*domain.StudentLink, error) {
	if f.assignErr != nil {
		return nil, f.assignErr
	}
	f.assigned = [2]primitive.ObjectID{studentID, mentorID}
	return &domain.StudentLink{ID: primitive.NewObjectID(), StudentID: studentID, MentorID: &mentorID}, nil
}

func (f *fakeAdminService) ListAssignments(context.Context) ([]service.MentorAssignment, error) {
	return []service.MentorAssignment{}, nil
}

func (f *fakeAdminService) PotentialIdeas(context.Context) (*service.PotentialIdeas, error) {
	return &service.PotentialIdeas{Ideas: []service.StudentIdeas{}}, nil
}
