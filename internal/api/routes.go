package api

import (
	"alcyxob/wellbeing-app/internal/domain"
	"alcyxob/wellbeing-app/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

// RouteOptions carries the optional HTTP concerns. Zero values disable them.
type RouteOptions struct {
	Metrics     *Metrics
	MetricsUser string
	MetricsPass string
	RateLimiter *RateLimiter // applied to mutating challenge routes
}

func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	authService service.AuthService,
	challengeService service.ChallengeService,
	progressService service.ProgressService,
	resourceService service.ResourceService,
	opts RouteOptions,
) {
	authHandler := NewAuthHandler(authService)
	userHandler := NewUserHandler(authService)
	challengeHandler := NewChallengeHandler(challengeService, opts.Metrics)
	progressHandler := NewProgressHandler(progressService, opts.Metrics)
	resourceHandler := NewResourceHandler(resourceService)

	authMiddleware := AuthMiddleware(jwtSecret)
	managerOnly := ChallengeManagerMiddleware()
	throttle := opts.RateLimiter.Middleware()

	if opts.Metrics != nil {
		router.Use(opts.Metrics.Middleware())
		router.GET("/metrics", BasicAuthMiddleware(opts.MetricsUser, opts.MetricsPass), gin.WrapH(opts.Metrics.Handler()))
	}

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}
	}

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", userHandler.Me)

		// --- Challenge catalog ---
		challenges := protected.Group("/challenges")
		{
			challenges.GET("", challengeHandler.ListChallenges)
			challenges.GET("/progress", progressHandler.GetProgress)

			// Privileged routes: gated here and re-checked by the service
			challenges.POST("/weeks", managerOnly, throttle, challengeHandler.CreateWeek)
			challenges.PATCH("/weeks/:weekId", managerOnly, throttle, challengeHandler.UpdateWeek)
			challenges.DELETE("/weeks/:weekId", managerOnly, throttle, challengeHandler.DeleteWeek)
			challenges.POST("/weeks/:weekId/items", managerOnly, throttle, challengeHandler.CreateItem)
			challenges.PATCH("/weeks/:weekId/items/:itemId", managerOnly, throttle, challengeHandler.UpdateItem)
			challenges.DELETE("/weeks/:weekId/items/:itemId", managerOnly, throttle, challengeHandler.DeleteItem)

			// Self-service: any authenticated user, own state only
			challenges.PUT("/weeks/:weekId/items/:itemId/completion", throttle, progressHandler.SetCompletion)

			// --- Week resources ---
			challenges.GET("/weeks/:weekId/resources", resourceHandler.ListResources)
			challenges.POST("/weeks/:weekId/resources/upload-url", managerOnly, throttle, resourceHandler.RequestUploadURL)
			challenges.POST("/weeks/:weekId/resources", managerOnly, throttle, resourceHandler.ConfirmUpload)
			challenges.DELETE("/weeks/:weekId/resources/:resourceId", managerOnly, throttle, resourceHandler.DeleteResource)
		}

		admin := protected.Group("/admin")
		admin.Use(RoleMiddleware(domain.RoleAdmin, domain.RoleSuperAdmin))
		{
			admin.PUT("/users/:userId/role", userHandler.AssignRole)
		}
	}
}
