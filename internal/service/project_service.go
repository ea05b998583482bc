package service

import (
	"context"
	"errors"
	"path"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"ideahub/mentorship-api/internal/analysis"
	"ideahub/mentorship-api/internal/config"
	"ideahub/mentorship-api/internal/domain"
	"ideahub/mentorship-api/internal/repository"
	"ideahub/mentorship-api/internal/storage"
)

// DocumentProcessor turns an uploaded file into a transcript and a structured document.
type DocumentProcessor interface {
	ProcessDocument(ctx context.Context, fileURL string) (*analysis.DocumentResult, error)
}

// CreateProjectInput is a student's project submission.
type CreateProjectInput struct {
	Title       string
	Description string
	Tags        []string
	Files       []storage.File
}

// StudentDetails is the student's own view: their link populated with
// mentor and project summaries.
type StudentDetails struct {
	ID       primitive.ObjectID      `json:"id"`
	Student  domain.UserSummary      `json:"student"`
	Mentor   *domain.UserSummary     `json:"mentor"`
	Projects []domain.ProjectSummary `json:"projects"`
}

// DeleteFileResult reports what happened to a removed file.
type DeleteFileResult struct {
	StorageID       string                `json:"storageId"`
	Outcome         storage.DeleteOutcome `json:"outcome"`
	ProjectsUpdated int64                 `json:"projectsUpdated"`
}

type ProjectService interface {
	CreateProject(ctx context.Context, studentID primitive.ObjectID, input CreateProjectInput) (*domain.Project, error)
	GetStudentDetails(ctx context.Context, studentID primitive.ObjectID) (*StudentDetails, error)
	GetProject(ctx context.Context, studentID, projectID primitive.ObjectID) (*domain.Project, error)
	DeleteFile(ctx context.Context, studentID primitive.ObjectID, storageID string) (*DeleteFileResult, error)
}

// projectService implements the ProjectService interface.
type projectService struct {
	userRepo    repository.UserRepository
	projectRepo repository.ProjectRepository
	linkRepo    repository.StudentLinkRepository
	fileStorage storage.FileStorage
	documents   DocumentProcessor
	uploadCfg   config.UploadConfig
	rootFolder  string
}

// NewProjectService creates a new instance of projectService.
func NewProjectService(
	userRepo repository.UserRepository,
	projectRepo repository.ProjectRepository,
	linkRepo repository.StudentLinkRepository,
	fileStorage storage.FileStorage,
	documents DocumentProcessor,
	uploadCfg config.UploadConfig,
	rootFolder string,
) ProjectService {
	return &projectService{
		userRepo:    userRepo,
		projectRepo: projectRepo,
		linkRepo:    linkRepo,
		fileStorage: fileStorage,
		documents:   documents,
		uploadCfg:   uploadCfg,
		rootFolder:  rootFolder,
	}
}

// CreateProject uploads the files, derives the transcript from the first one,
// persists the project and finally links it to the student. The link update is
// last so a failure never leaves a link to a missing project. Uploaded files are
// not removed when a later step fails.
func (s *projectService) CreateProject(ctx context.Context, studentID primitive.ObjectID, input CreateProjectInput) (*domain.Project, error) {
	if err := s.validateInput(&input); err != nil {
		return nil, err
	}

	student, err := s.userRepo.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}
	if !student.IsStudent() {
		return nil, ErrStudentNotFound
	}

	logger := log.With().Str("studentId", studentID.Hex()).Logger()

	// 1. Upload every file; one failure fails the batch.
	objects, err := storage.UploadMany(ctx, s.fileStorage, input.Files, storage.UploadOptions{
		Folder: path.Join(s.rootFolder, "students", studentID.Hex()),
		Tags: map[string]string{
			"category":  "raw-files",
			"studentId": studentID.Hex(),
		},
	})
	if err != nil {
		return nil, externalError("file upload failed", err)
	}

	now := time.Now().UTC()
	records := make([]domain.FileRecord, len(objects))
	for i, obj := range objects {
		records[i] = domain.FileRecord{
			Name:        input.Files[i].Name,
			URL:         obj.URL,
			StorageID:   obj.StorageID,
			ContentType: input.Files[i].ContentType,
			Size:        int64(len(input.Files[i].Data)),
			UploadedAt:  now,
		}
	}

	// 2. Structure the first file.
	doc, err := s.documents.ProcessDocument(ctx, records[0].URL)
	if err != nil {
		logger.Error().Err(err).Str("storageId", records[0].StorageID).Msg("document processing failed, uploaded files left in place")
		return nil, externalError("document processing failed", err)
	}

	// 3. Persist.
	project := &domain.Project{
		Title:         input.Title,
		Description:   input.Description,
		Tags:          input.Tags,
		RawFiles:      records,
		Transcript:    doc.Transcript,
		FormattedFile: doc.Structured,
		Analysis:      domain.Document{},
		Feedback:      domain.Document{},
		Comments:      []domain.Comment{},
		MentorRemarks: domain.Document{},
	}
	if _, err := s.projectRepo.Create(ctx, project); err != nil {
		logger.Error().Err(err).Msg("failed to persist project, uploaded files left in place")
		return nil, err
	}

	// 4. Link to the student.
	if err := s.linkRepo.AddProject(ctx, studentID, project.ID); err != nil {
		logger.Error().Err(err).Str("projectId", project.ID.Hex()).Msg("failed to link project to student")
		return nil, err
	}

	logger.Info().Str("projectId", project.ID.Hex()).Int("files", len(records)).Msg("project created")
	return project, nil
}

func (s *projectService) validateInput(input *CreateProjectInput) error {
	input.Title = strings.TrimSpace(input.Title)
	input.Description = strings.TrimSpace(input.Description)

	if input.Title == "" {
		return validationError("title is required")
	}
	if len(input.Files) == 0 {
		return validationError("at least one file is required")
	}
	if s.uploadCfg.MaxFiles > 0 && len(input.Files) > s.uploadCfg.MaxFiles {
		return validationError("too many files: maximum is %d", s.uploadCfg.MaxFiles)
	}

	for _, f := range input.Files {
		if len(f.Data) == 0 {
			return validationError("file %q is empty", f.Name)
		}
		if s.uploadCfg.MaxFileSize > 0 && int64(len(f.Data)) > s.uploadCfg.MaxFileSize {
			return validationError("file %q is too large: maximum is %d bytes", f.Name, s.uploadCfg.MaxFileSize)
		}
		if !s.allowedType(f.ContentType) {
			return validationError("file type %q is not allowed", f.ContentType)
		}
	}

	input.Tags = uniqueTags(input.Tags)
	return nil
}

func (s *projectService) allowedType(contentType string) bool {
	if len(s.uploadCfg.AllowedTypes) == 0 {
		return true
	}
	// Drop parameters such as "; charset=utf-8".
	mediaType := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	for _, allowed := range s.uploadCfg.AllowedTypes {
		if mediaType == strings.ToLower(allowed) {
			return true
		}
	}
	return false
}

// uniqueTags trims tags and drops blanks and duplicates, keeping first occurrence order.
func uniqueTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}

// GetStudentDetails returns the student's link populated with mentor and project summaries.
func (s *projectService) GetStudentDetails(ctx context.Context, studentID primitive.ObjectID) (*StudentDetails, error) {
	student, err := s.userRepo.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}

	link, err := s.linkRepo.GetByStudentID(ctx, studentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrStudentLinkNotFound
		}
		return nil, err
	}

	details := &StudentDetails{
		ID:       link.ID,
		Student:  student.Summary(),
		Projects: []domain.ProjectSummary{},
	}

	if link.MentorID != nil {
		mentor, err := s.userRepo.GetByID(ctx, *link.MentorID)
		switch {
		case err == nil:
			summary := mentor.Summary()
			details.Mentor = &summary
		case !errors.Is(err, repository.ErrNotFound):
			return nil, err
		}
	}

	projects, err := s.projectRepo.GetByIDs(ctx, link.Projects)
	if err != nil {
		return nil, err
	}
	for i := range projects {
		details.Projects = append(details.Projects, projects[i].Summary())
	}
	return details, nil
}

// GetProject returns a project owned by the student.
func (s *projectService) GetProject(ctx context.Context, studentID, projectID primitive.ObjectID) (*domain.Project, error) {
	link, err := s.linkRepo.GetByStudentID(ctx, studentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	if !link.HasProject(projectID) {
		// Existence of other students' projects is not disclosed.
		return nil, ErrProjectNotFound
	}

	project, err := s.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	return project, nil
}

// DeleteFile removes a stored file and every project reference to it.
// A file already missing from the store still has its references removed.
func (s *projectService) DeleteFile(ctx context.Context, studentID primitive.ObjectID, storageID string) (*DeleteFileResult, error) {
	storageID = strings.TrimSpace(storageID)
	if storageID == "" {
		return nil, validationError("storageId is required")
	}

	project, err := s.projectRepo.FindByStorageID(ctx, storageID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrFileNotFound
		}
		return nil, err
	}

	owner, err := s.linkRepo.FindByProjectID(ctx, project.ID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if owner == nil || owner.StudentID != studentID {
		return nil, ErrFileAccessDenied
	}

	outcome, err := s.fileStorage.Delete(ctx, storageID)
	if err != nil {
		return nil, externalError("file delete failed", err)
	}

	updated, err := s.projectRepo.PullFileByStorageID(ctx, storageID)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("studentId", studentID.Hex()).
		Str("storageId", storageID).
		Str("outcome", string(outcome)).
		Int64("projectsUpdated", updated).
		Msg("file deleted")

	return &DeleteFileResult{StorageID: storageID, Outcome: outcome, ProjectsUpdated: updated}, nil
}
