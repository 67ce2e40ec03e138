package handlers

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/campus-gigs/marketplace-service/internal/auth"
	"github.com/campus-gigs/marketplace-service/internal/config"
	"github.com/campus-gigs/marketplace-service/internal/models"
	"github.com/campus-gigs/marketplace-service/internal/repositories"
	"github.com/campus-gigs/marketplace-service/internal/services"
	"github.com/campus-gigs/marketplace-service/internal/utils"
)

type HandlerManager struct {
	serviceManager      services.ServiceManager
	logger              utils.Logger
	authHandler         *AuthHandler
	userHandler         *UserHandler
	projectHandler      *ProjectHandler
	requestHandler      *RequestHandler
	notificationHandler *NotificationHandler
	messageHandler      *MessageHandler
	authMiddleware      *AuthMiddleware
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	userRepo repositories.UserRepository,
	logger utils.Logger,
	verifiers ...auth.TokenVerifier,
) *HandlerManager {
	return &HandlerManager{
		serviceManager:      serviceManager,
		logger:              logger,
		authHandler:         NewAuthHandler(serviceManager.Auth(), logger),
		userHandler:         NewUserHandler(serviceManager.User(), logger),
		projectHandler:      NewProjectHandler(serviceManager.Project(), serviceManager.Export(), logger),
		requestHandler:      NewRequestHandler(serviceManager.Request(), logger),
		notificationHandler: NewNotificationHandler(serviceManager.Notification(), logger),
		messageHandler:      NewMessageHandler(serviceManager.Message(), logger),
		authMiddleware:      NewAuthMiddleware(userRepo, logger, verifiers...),
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine, media config.MediaConfig) {
	router.GET("/health", hm.health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if media.Dir != "" {
		router.Static(mediaRoute(media.BaseURL), media.Dir)
	}

	v1 := router.Group("/api/v1")

	// Public auth routes
	authGroup := v1.Group("/auth")
	{
		authGroup.POST("/code", hm.authHandler.RequestCode)
		authGroup.POST("/register", hm.authHandler.Register)
		authGroup.POST("/login", hm.authHandler.Login)
	}

	api := v1.Group("")
	api.Use(hm.authMiddleware.AuthMiddleware())

	ownerOnly := hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher, models.RoleAlumni)
	studentOnly := hm.authMiddleware.RequireRoleMiddleware(models.RoleStudent)

	users := api.Group("/users")
	{
		users.GET("/me", hm.userHandler.GetMe)
		users.PUT("/me", hm.userHandler.UpdateMe)
		users.POST("/me/avatar", hm.userHandler.UploadAvatar)
		users.POST("/me/portfolio", studentOnly, hm.userHandler.UploadPortfolio)
		users.POST("/me/gallery", studentOnly, hm.userHandler.AddGalleryImage)
		users.DELETE("/me/gallery", studentOnly, hm.userHandler.RemoveGalleryImage)
		users.GET("/:id", hm.userHandler.GetUser)
	}
	api.GET("/freelancers", hm.userHandler.ListFreelancers)

	projects := api.Group("/projects")
	{
		projects.POST("", ownerOnly, hm.projectHandler.CreateProject)
		projects.GET("", hm.projectHandler.ListProjects)
		projects.GET("/export", ownerOnly, hm.projectHandler.ExportProjects)
		projects.GET("/:id", hm.projectHandler.GetProject)
		projects.PUT("/:id", ownerOnly, hm.projectHandler.UpdateProject)
		projects.DELETE("/:id", ownerOnly, hm.projectHandler.DeleteProject)

		// Lifecycle: ownership and assignment are checked by the service
		projects.PUT("/:id/status", hm.projectHandler.ChangeStatus)
		projects.PUT("/:id/progress", studentOnly, hm.projectHandler.UpdateProgress)

		projects.POST("/:id/apply", studentOnly, hm.requestHandler.Apply)
		projects.POST("/:id/invite", ownerOnly, hm.requestHandler.Invite)
	}

	applications := api.Group("/applications")
	{
		applications.GET("", hm.requestHandler.ListApplications)
		applications.POST("/:id/accept", ownerOnly, hm.requestHandler.AcceptApplication)
		applications.POST("/:id/reject", ownerOnly, hm.requestHandler.RejectApplication)
	}

	invitations := api.Group("/invitations")
	{
		invitations.GET("", hm.requestHandler.ListInvitations)
		invitations.POST("/:id/accept", studentOnly, hm.requestHandler.AcceptInvitation)
		invitations.POST("/:id/decline", studentOnly, hm.requestHandler.DeclineInvitation)
	}

	notifications := api.Group("/notifications")
	{
		notifications.GET("", hm.notificationHandler.ListNotifications)
		notifications.GET("/unread-count", hm.notificationHandler.UnreadCount)
		notifications.PUT("/read-all", hm.notificationHandler.MarkAllRead)
		notifications.PUT("/:id/read", hm.notificationHandler.MarkRead)
		notifications.DELETE("/:id", hm.notificationHandler.DeleteNotification)
	}

	messages := api.Group("/messages")
	{
		messages.POST("", hm.messageHandler.SendMessage)
		messages.GET("/conversations", hm.messageHandler.ListConversations)
		messages.GET("/unread-count", hm.messageHandler.UnreadCount)
		messages.GET("/:user_id", hm.messageHandler.GetConversation)
		messages.PUT("/:user_id/read", hm.messageHandler.MarkConversationRead)
	}
}

func (hm *HandlerManager) health(c *gin.Context) {
	if err := hm.serviceManager.HealthCheck(c.Request.Context()); err != nil {
		utils.FromGin(c, hm.logger).Warn("Health check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "unhealthy",
			"service": "marketplace-service",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "marketplace-service",
	})
}

// mediaRoute is the path component media URLs are served under.
func mediaRoute(baseURL string) string {
	route := "/media"
	if u, err := url.Parse(baseURL); err == nil && u.Path != "" {
		route = u.Path
	}
	return "/" + strings.Trim(route, "/")
}
