package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/provus/provus-backend/internal/config"
	"github.com/provus/provus-backend/internal/handler"
	"github.com/provus/provus-backend/internal/middleware"
	"github.com/provus/provus-backend/internal/model"
	"github.com/provus/provus-backend/internal/response"
	"github.com/provus/provus-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth     *handler.AuthHandler
	Exam     *handler.ExamHandler
	Attempt  *handler.AttemptHandler
	Stats    *handler.StatsHandler
	Question *handler.PersonalQuestionHandler
	Monitor  *handler.MonitorHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Apply brotli middleware globally.
	router.Use(middleware.Brotli())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter for unauthenticated entry points (30 requests per minute per IP).
	publicLimiter := middleware.NewRateLimiter(30, time.Minute)

	// ─── 0. Public Group (No Auth, Rate Limited) ───────────────────────
	publicAPI := router.Group("/api/v1/public")
	publicAPI.Use(publicLimiter.Middleware())
	{
		publicAPI.GET("/exams/:code", handlers.Exam.GetByCode)
		publicAPI.POST("/attempts", handlers.Attempt.RegisterAnonymous)
		publicAPI.POST("/attempts/answer", handlers.Attempt.SubmitAnswerPublic)
		publicAPI.POST("/attempts/finalize", handlers.Attempt.FinalizePublic)
	}

	// ─── 1. Auth Group ─────────────────────────────────────────────────
	auth := router.Group("/api/v1/auth")
	{
		auth.POST("/login", publicLimiter.Middleware(), handlers.Auth.Login)

		authed := auth.Group("")
		authed.Use(
			middleware.RequireAuth(authService),
			middleware.CheckSingleDeviceSession(authService),
		)
		{
			authed.GET("/me", handlers.Auth.Me)
			authed.POST("/logout", handlers.Auth.Logout)
		}
	}

	// ─── 2. Shared Authenticated Group ─────────────────────────────────
	api := router.Group("/api/v1")
	api.Use(
		middleware.RequireAuth(authService),
		middleware.CheckSingleDeviceSession(authService),
	)
	{
		api.GET("/exams/:id", handlers.Exam.Get)
		api.GET("/attempts/:id", handlers.Attempt.Get)
	}

	// ─── 3. Student Group (JWT + Single Device) ────────────────────────
	studentAPI := router.Group("/api/v1/student")
	studentAPI.Use(
		middleware.RequireAuth(authService),
		middleware.CheckSingleDeviceSession(authService),
		middleware.RequireRole(model.RoleStudent),
	)
	{
		studentAPI.GET("/exams", handlers.Exam.ListAvailable)
		studentAPI.POST("/attempts", handlers.Attempt.Start)
		studentAPI.POST("/attempts/answer", handlers.Attempt.SubmitAnswer)
		studentAPI.POST("/attempts/finalize", handlers.Attempt.Finalize)
		studentAPI.GET("/attempts", handlers.Attempt.ListMine)
	}

	// ─── 4. Teacher Group (JWT + RBAC) ─────────────────────────────────
	teacherAPI := router.Group("/api/v1/teacher")
	teacherAPI.Use(
		middleware.RequireAuth(authService),
		middleware.CheckSingleDeviceSession(authService),
		middleware.RequireRole(model.RoleTeacher, model.RoleAdmin),
	)
	{
		teacherAPI.POST("/exams", handlers.Exam.Create)
		teacherAPI.GET("/exams", handlers.Exam.ListMine)
		teacherAPI.PUT("/exams/:id", handlers.Exam.Update)
		teacherAPI.POST("/exams/:id/publish", handlers.Exam.Publish)
		teacherAPI.POST("/exams/:id/close", handlers.Exam.Close)
		teacherAPI.DELETE("/exams/:id", handlers.Exam.Delete)

		teacherAPI.GET("/exams/:id/attempts", handlers.Attempt.ListByExam)
		teacherAPI.GET("/attempts", handlers.Attempt.List)
		teacherAPI.GET("/attempts/by-code/:code", handlers.Attempt.ListByCode)

		teacherAPI.GET("/exams/:id/stats", handlers.Stats.ExamStats)
		teacherAPI.GET("/stats/dashboard", handlers.Stats.Dashboard)

		teacherAPI.POST("/questions", handlers.Question.Create)
		teacherAPI.GET("/questions", handlers.Question.List)
		teacherAPI.GET("/questions/:id", handlers.Question.Get)
		teacherAPI.PUT("/questions/:id", handlers.Question.Update)
		teacherAPI.DELETE("/questions/:id", handlers.Question.Delete)
	}

	// ─── 5. WebSocket Group (WS Auth) ──────────────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireWSAuth(authService))
	{
		ws.GET("/teacher/exams/:id/monitor", handlers.Monitor.ExamMonitorStream)
	}

	// ─── 6. Admin Group (JWT + RBAC) ───────────────────────────────────
	adminAPI := router.Group("/api/v1/admin")
	adminAPI.Use(
		middleware.RequireAuth(authService),
		middleware.CheckSingleDeviceSession(authService),
		middleware.RequireRole(model.RoleAdmin),
	)
	{
		adminAPI.POST("/users", handlers.Auth.Register)
		adminAPI.GET("/users", handlers.Auth.ListUsers)
		adminAPI.POST("/users/:id/reset-session", handlers.Auth.ResetSession)
		adminAPI.POST("/attempts/:id/cancel", handlers.Attempt.Cancel)
	}

	return router
}
