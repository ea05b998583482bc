package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"ideahub/mentorship-api/internal/domain"
	"ideahub/mentorship-api/internal/service"
)

const contextProjectIDKey = "projectID"

// MentorHandler serves the mentor's students and the projects they review.
type MentorHandler struct {
	mentorService   service.MentorService
	analysisService service.AnalysisService
}

func NewMentorHandler(mentorService service.MentorService, analysisService service.AnalysisService) *MentorHandler {
	return &MentorHandler{
		mentorService:   mentorService,
		analysisService: analysisService,
	}
}

// --- DTOs ---

type CommentRequest struct {
	Text string `json:"text" binding:"required"`
}

type RemarksRequest struct {
	Remarks domain.Document `json:"remarks" binding:"required"`
}

// RequireProjectAccess checks the :projectId param belongs to one of the
// mentor's students and stores the parsed ID for the handlers below it.
func (h *MentorHandler) RequireProjectAccess() gin.HandlerFunc {
	return func(c *gin.Context) {
		mentorID, ok := currentUserID(c)
		if !ok {
			return
		}
		projectID, ok := objectIDParam(c, "projectId")
		if !ok {
			return
		}
		if err := h.mentorService.AuthorizeProject(c.Request.Context(), mentorID, projectID); err != nil {
			respondError(c, err)
			return
		}
		c.Set(contextProjectIDKey, projectID)
		c.Next()
	}
}

// ListStudents returns the mentor's students with their projects.
// GET /api/v1/mentor/students
func (h *MentorHandler) ListStudents(c *gin.Context) {
	mentorID, ok := currentUserID(c)
	if !ok {
		return
	}

	students, err := h.mentorService.ListStudents(c.Request.Context(), mentorID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"students": students})
}

// GetProject returns the project overview with its analysis view when present.
// GET /api/v1/mentor/projects/:projectId
func (h *MentorHandler) GetProject(c *gin.Context) {
	projectID, ok := projectIDFromContext(c)
	if !ok {
		return
	}

	report, err := h.analysisService.ProjectReport(c.Request.Context(), projectID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// RequestAnalysis runs the LLM analysis once per project.
// POST /api/v1/mentor/projects/:projectId/analysis
func (h *MentorHandler) RequestAnalysis(c *gin.Context) {
	projectID, ok := projectIDFromContext(c)
	if !ok {
		return
	}

	view, err := h.analysisService.RequestAnalysis(c.Request.Context(), projectID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Analysis completed and saved successfully", "analysis": view})
}

// GET /api/v1/mentor/projects/:projectId/comments
func (h *MentorHandler) ListComments(c *gin.Context) {
	projectID, ok := projectIDFromContext(c)
	if !ok {
		return
	}

	comments, err := h.mentorService.ListComments(c.Request.Context(), projectID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"comments": comments})
}

// POST /api/v1/mentor/projects/:projectId/comments
func (h *MentorHandler) AddComment(c *gin.Context) {
	mentorID, ok := currentUserID(c)
	if !ok {
		return
	}
	projectID, ok := projectIDFromContext(c)
	if !ok {
		return
	}

	var req CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	comment, err := h.mentorService.AddComment(c.Request.Context(), mentorID, projectID, req.Text)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Comment added successfully", "comment": comment})
}

// PUT /api/v1/mentor/projects/:projectId/comments/:commentId
func (h *MentorHandler) UpdateComment(c *gin.Context) {
	projectID, ok := projectIDFromContext(c)
	if !ok {
		return
	}
	commentID, ok := objectIDParam(c, "commentId")
	if !ok {
		return
	}

	var req CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	comment, err := h.mentorService.UpdateComment(c.Request.Context(), projectID, commentID, req.Text)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Comment updated successfully", "comment": comment})
}

// DELETE /api/v1/mentor/projects/:projectId/comments/:commentId
func (h *MentorHandler) DeleteComment(c *gin.Context) {
	projectID, ok := projectIDFromContext(c)
	if !ok {
		return
	}
	commentID, ok := objectIDParam(c, "commentId")
	if !ok {
		return
	}

	if err := h.mentorService.DeleteComment(c.Request.Context(), projectID, commentID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Comment deleted successfully"})
}

// UpdateRemarks merges the given keys into the project's mentor remarks.
// PUT /api/v1/mentor/projects/:projectId/remarks
func (h *MentorHandler) UpdateRemarks(c *gin.Context) {
	projectID, ok := projectIDFromContext(c)
	if !ok {
		return
	}

	var req RemarksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	remarks, err := h.mentorService.UpdateRemarks(c.Request.Context(), projectID, req.Remarks)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Remarks updated successfully", "mentorRemarks": remarks})
}

func projectIDFromContext(c *gin.Context) (id primitive.ObjectID, ok bool) {
	if v, exists := c.Get(contextProjectIDKey); exists {
		if id, ok = v.(primitive.ObjectID); ok {
			return id, true
		}
	}
	return objectIDParam(c, "projectId")
}
