package api

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"ideahub/mentorship-api/internal/service"
	"ideahub/mentorship-api/internal/storage"
)

// StudentHandler serves the student's own projects and files.
type StudentHandler struct {
	projectService  service.ProjectService
	analysisService service.AnalysisService
	maxFiles        int
	maxFileSize     int64
}

// Per-part allowance for multipart headers and boundaries, and for the text fields.
const (
	multipartPartOverhead = 4 << 10
	multipartFormOverhead = 1 << 20
)

func NewStudentHandler(projectService service.ProjectService, analysisService service.AnalysisService, maxFiles int, maxFileSize int64) *StudentHandler {
	return &StudentHandler{
		projectService:  projectService,
		analysisService: analysisService,
		maxFiles:        maxFiles,
		maxFileSize:     maxFileSize,
	}
}

// maxBodySize bounds a project upload: every allowed file at full size plus
// room for headers and the text fields. Zero means unbounded.
func (h *StudentHandler) maxBodySize() int64 {
	if h.maxFiles <= 0 || h.maxFileSize <= 0 {
		return 0
	}
	return int64(h.maxFiles)*(h.maxFileSize+multipartPartOverhead) + multipartFormOverhead
}

type DeleteFileRequest struct {
	StorageID string `json:"storageId" binding:"required"`
}

// CreateProject godoc
// @Summary Submit a new project
// @Description Uploads the files, structures the first one through the document service and stores the project.
// @Tags Student
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param title formData string true "Project title"
// @Param description formData string false "Project description"
// @Param tags formData []string false "Tags, repeated or comma separated"
// @Param files formData file true "Project files"
// @Success 201 {object} gin.H "Project created"
// @Failure 400 {object} gin.H "Invalid form, too many files, bad type or size"
// @Failure 413 {object} gin.H "Request body too large"
// @Failure 500 {object} gin.H "Upload or document service failure"
// @Router /student/projects [post]
func (h *StudentHandler) CreateProject(c *gin.Context) {
	studentID, ok := currentUserID(c)
	if !ok {
		return
	}

	// Bound the body before gin parses it; the parser would otherwise
	// spool every part to memory or disk.
	if limit := h.maxBodySize(); limit > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
	}

	form, err := c.MultipartForm()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			abortWithError(c, http.StatusRequestEntityTooLarge, fmt.Sprintf("Request body exceeds %d bytes", tooLarge.Limit))
			return
		}
		abortWithError(c, http.StatusBadRequest, "Expected multipart form data: "+err.Error())
		return
	}
	defer form.RemoveAll()

	headers := append(form.File["files"], form.File["files[]"]...)
	// Check the count before reading any part into memory.
	if h.maxFiles > 0 && len(headers) > h.maxFiles {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: too many files, maximum is %d", h.maxFiles))
		return
	}

	files, err := h.readFiles(headers)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	input := service.CreateProjectInput{
		Title:       firstValue(form.Value, "title"),
		Description: firstValue(form.Value, "description"),
		Tags:        formTags(form.Value),
		Files:       files,
	}

	project, err := h.projectService.CreateProject(c.Request.Context(), studentID, input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Project created successfully", "project": project})
}

// readFiles loads each part into memory. Reads stop one byte past the size
// limit so oversized files are rejected by validation without being buffered whole.
func (h *StudentHandler) readFiles(headers []*multipart.FileHeader) ([]storage.File, error) {
	files := make([]storage.File, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("could not open file %q", fh.Filename)
		}

		var r io.Reader = f
		if h.maxFileSize > 0 {
			r = io.LimitReader(f, h.maxFileSize+1)
		}
		data, err := io.ReadAll(r)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("could not read file %q", fh.Filename)
		}

		contentType := fh.Header.Get("Content-Type")
		if contentType == "" || contentType == "application/octet-stream" {
			contentType = http.DetectContentType(data)
		}
		files = append(files, storage.File{Name: fh.Filename, ContentType: contentType, Data: data})
	}
	return files, nil
}

func firstValue(values map[string][]string, key string) string {
	if v := values[key]; len(v) > 0 {
		return v[0]
	}
	return ""
}

// formTags accepts repeated "tags"/"tags[]" fields and comma-separated lists.
func formTags(values map[string][]string) []string {
	var tags []string
	for _, key := range []string{"tags", "tags[]"} {
		for _, v := range values[key] {
			tags = append(tags, strings.Split(v, ",")...)
		}
	}
	return tags
}

// GetDetails returns the student's mentor and project summaries.
// GET /api/v1/student/details
func (h *StudentHandler) GetDetails(c *gin.Context) {
	studentID, ok := currentUserID(c)
	if !ok {
		return
	}

	details, err := h.projectService.GetStudentDetails(c.Request.Context(), studentID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, details)
}

// GetProject returns one of the student's projects in full.
// GET /api/v1/student/projects/:projectId
func (h *StudentHandler) GetProject(c *gin.Context) {
	studentID, ok := currentUserID(c)
	if !ok {
		return
	}
	projectID, ok := objectIDParam(c, "projectId")
	if !ok {
		return
	}

	project, err := h.projectService.GetProject(c.Request.Context(), studentID, projectID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

// RequestFeedback (re)computes feedback for one of the student's projects.
// POST /api/v1/student/projects/:projectId/feedback
func (h *StudentHandler) RequestFeedback(c *gin.Context) {
	studentID, ok := currentUserID(c)
	if !ok {
		return
	}
	projectID, ok := objectIDParam(c, "projectId")
	if !ok {
		return
	}

	if _, err := h.projectService.GetProject(c.Request.Context(), studentID, projectID); err != nil {
		respondError(c, err)
		return
	}

	feedback, err := h.analysisService.RequestFeedback(c.Request.Context(), projectID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Feedback generated and saved successfully", "feedback": feedback})
}

// DeleteFile removes one of the student's uploaded files.
// DELETE /api/v1/student/files
func (h *StudentHandler) DeleteFile(c *gin.Context) {
	studentID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req DeleteFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	result, err := h.projectService.DeleteFile(c.Request.Context(), studentID, req.StorageID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
