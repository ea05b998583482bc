package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"ideahub/mentorship-api/internal/service"
)

// AdminHandler exposes user listings, mentor assignment and the potential report.
type AdminHandler struct {
	adminService service.AdminService
}

func NewAdminHandler(adminService service.AdminService) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

type AssignMentorRequest struct {
	StudentID string `json:"studentId" binding:"required"`
	MentorID  string `json:"mentorId" binding:"required"`
}

// GET /api/v1/admin/students
func (h *AdminHandler) ListStudents(c *gin.Context) {
	students, err := h.adminService.ListStudents(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"students": mapUsers(students)})
}

// GET /api/v1/admin/mentors
func (h *AdminHandler) ListMentors(c *gin.Context) {
	mentors, err := h.adminService.ListMentors(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"mentors": mapUsers(mentors)})
}

// AssignMentor godoc
// @Summary Assign a mentor to a student
// @Description Creates the student's link if needed and replaces any previous mentor.
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param assignment body AssignMentorRequest true "Student and mentor IDs"
// @Success 200 {object} gin.H "Mentor assigned"
// @Failure 400 {object} gin.H "Invalid IDs"
// @Failure 404 {object} gin.H "Student or mentor not found"
// @Failure 409 {object} gin.H "Mentor already assigned elsewhere"
// @Router /admin/assign-mentor [post]
func (h *AdminHandler) AssignMentor(c *gin.Context) {
	var req AssignMentorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	studentID, err := primitive.ObjectIDFromHex(req.StudentID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid studentId format")
		return
	}
	mentorID, err := primitive.ObjectIDFromHex(req.MentorID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid mentorId format")
		return
	}

	link, err := h.adminService.AssignMentor(c.Request.Context(), studentID, mentorID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Mentor assigned successfully", "link": link})
}

// GET /api/v1/admin/mentor-assignments
func (h *AdminHandler) ListAssignments(c *gin.Context) {
	assignments, err := h.adminService.ListAssignments(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"assignments": assignments})
}

// PotentialIdeas lists every project grouped by student and by potential bucket.
// GET /api/v1/admin/potential-ideas
func (h *AdminHandler) PotentialIdeas(c *gin.Context) {
	ideas, err := h.adminService.PotentialIdeas(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ideas)
}
