package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ideahub/mentorship-api/internal/config"
	"ideahub/mentorship-api/internal/domain"
	"ideahub/mentorship-api/internal/metrics"
	"ideahub/mentorship-api/internal/service"
)

// Services bundles the dependencies the HTTP layer is built from.
type Services struct {
	Auth     service.AuthService
	Project  service.ProjectService
	Analysis service.AnalysisService
	Mentor   service.MentorService
	Admin    service.AdminService
}

func SetupRoutes(router *gin.Engine, jwtSecret string, uploadCfg config.UploadConfig, services Services) {
	authHandler := NewAuthHandler(services.Auth)
	studentHandler := NewStudentHandler(services.Project, services.Analysis, uploadCfg.MaxFiles, uploadCfg.MaxFileSize)
	mentorHandler := NewMentorHandler(services.Mentor, services.Analysis)
	adminHandler := NewAdminHandler(services.Admin)

	authMiddleware := AuthMiddleware(jwtSecret)

	router.Use(RequestLogger(), metrics.Middleware())

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/signup", authHandler.Signup)
			authGroup.POST("/login", authHandler.Login)
		}
	}

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", func(c *gin.Context) {
			userID, err := getUserIDFromContext(c)
			if err != nil {
				abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
				return
			}
			role, _ := getUserRoleFromContext(c)
			c.JSON(http.StatusOK, gin.H{"userId": userID.Hex(), "role": role})
		})

		// --- Student Routes ---
		studentGroup := protected.Group("/student")
		studentGroup.Use(RoleMiddleware(domain.RoleStudent))
		{
			studentGroup.POST("/projects", studentHandler.CreateProject)
			studentGroup.GET("/details", studentHandler.GetDetails)
			studentGroup.GET("/projects/:projectId", studentHandler.GetProject)
			studentGroup.POST("/projects/:projectId/feedback", studentHandler.RequestFeedback)
			studentGroup.DELETE("/files", studentHandler.DeleteFile)
		}

		// --- Mentor Routes ---
		mentorGroup := protected.Group("/mentor")
		mentorGroup.Use(RoleMiddleware(domain.RoleMentor))
		{
			mentorGroup.GET("/students", mentorHandler.ListStudents)

			// Every project route checks the project belongs to one of the mentor's students.
			projectGroup := mentorGroup.Group("/projects/:projectId")
			projectGroup.Use(mentorHandler.RequireProjectAccess())
			{
				projectGroup.GET("", mentorHandler.GetProject)
				projectGroup.POST("/analysis", mentorHandler.RequestAnalysis)
				projectGroup.GET("/comments", mentorHandler.ListComments)
				projectGroup.POST("/comments", mentorHandler.AddComment)
				projectGroup.PUT("/comments/:commentId", mentorHandler.UpdateComment)
				projectGroup.DELETE("/comments/:commentId", mentorHandler.DeleteComment)
				projectGroup.PUT("/remarks", mentorHandler.UpdateRemarks)
			}
		}

		// --- Admin Routes ---
		adminGroup := protected.Group("/admin")
		adminGroup.Use(RoleMiddleware(domain.RoleAdmin))
		{
			adminGroup.GET("/students", adminHandler.ListStudents)
			adminGroup.GET("/mentors", adminHandler.ListMentors)
			adminGroup.POST("/assign-mentor", adminHandler.AssignMentor)
			adminGroup.GET("/mentor-assignments", adminHandler.ListAssignments)
			adminGroup.GET("/potential-ideas", adminHandler.PotentialIdeas)
		}
	}
}
