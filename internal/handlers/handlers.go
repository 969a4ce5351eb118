package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"ecowatch/api/internal/config"
	"ecowatch/api/internal/middleware"
	"ecowatch/api/internal/models"
	"ecowatch/api/internal/repository"
	"ecowatch/api/internal/service"
	"ecowatch/api/internal/session"
	"ecowatch/api/internal/storage"
	"ecowatch/api/internal/store"
)

type HandlerSet struct {
	log           zerolog.Logger
	cfg           *config.AppConfig
	kv            store.KV
	sessions      *session.Manager
	workflow      *service.ReportWorkflow
	stats         *service.StatsService
	users         *repository.UserRepository
	reports       *repository.ReportRepository
	notifications *repository.NotificationRepository
}

func NewHandlerSet(ctx context.Context, log zerolog.Logger, kv store.KV, images *storage.ImageStore, cfg *config.AppConfig) (HandlerSet, error) {
	userRepo, err := repository.NewUserRepository(ctx, kv, log)
	if err != nil {
		return HandlerSet{}, err
	}
	reportRepo, err := repository.NewReportRepository(ctx, kv, log, cfg.Limits.MaxReports)
	if err != nil {
		return HandlerSet{}, err
	}
	notificationRepo, err := repository.NewNotificationRepository(ctx, kv, log)
	if err != nil {
		return HandlerSet{}, err
	}

	sessions := session.NewManager(kv, userRepo, log, cfg.Security.TokenTTL)
	if err := sessions.Bootstrap(ctx); err != nil {
		return HandlerSet{}, err
	}

	workflow := service.NewReportWorkflow(reportRepo, userRepo, notificationRepo, images, log)
	stats := service.NewStatsService(userRepo, reportRepo)

	return HandlerSet{
		log:           log,
		cfg:           cfg,
		kv:            kv,
		sessions:      sessions,
		workflow:      workflow,
		stats:         stats,
		users:         userRepo,
		reports:       reportRepo,
		notifications: notificationRepo,
	}, nil
}

// Reports exposes the report repository for the capacity sweep job.
func (h HandlerSet) Reports() *repository.ReportRepository { return h.reports }

func (h HandlerSet) Register(engine *gin.Engine) {
	engine.GET("/healthz", h.Health)

	// Public pages the guard redirects to.
	engine.GET("/", h.Home)
	engine.GET(
		"/login", func(c *gin.Context) { c.JSON(200, gin.H{"page": "login"}) },
	)

	v1 := engine.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		auth.POST("/register", h.RegisterUser)
		auth.POST("/login", h.Login)
		auth.POST("/logout", h.Logout)
		auth.POST("/forgot-password", h.ForgotPassword)
		auth.GET("/me", middleware.Auth(h.sessions), h.Me)

		reports := v1.Group("/reports", middleware.Auth(h.sessions))
		reports.POST("", h.CreateReport)
		reports.GET("", h.ListReports)
		reports.GET("/:id", h.GetReport)
		reports.PATCH("/:id", h.UpdateReport)
		reports.DELETE("/:id", h.DeleteReport)

		notifications := v1.Group("/notifications", middleware.Auth(h.sessions))
		notifications.GET("", h.ListNotifications)
		notifications.POST("/:id/read", h.MarkNotificationRead)
	}

	// Role sections mirror the UI routes; the guard enforces the strict
	// partition and section normalization on the real paths.
	admin := engine.Group("/admin",
		middleware.Auth(h.sessions),
		middleware.Guard(h.sessions, models.RoleAdmin),
	)
	admin.GET("/reports", h.AdminListReports)
	admin.GET("/reports/:id", h.GetReport)
	admin.GET("/users", h.AdminListUsers)
	admin.PATCH("/users/:id", h.AdminUpdateUser)
	admin.DELETE("/users/:id", h.AdminDeleteUser)
	admin.GET("/stats", h.AdminStats)

	rescuer := engine.Group("/rescuer",
		middleware.Auth(h.sessions),
		middleware.Guard(h.sessions, models.RoleRescuer),
	)
	rescuer.GET("/reports", h.ListReports)
	rescuer.GET("/reports/:id", h.GetReport)

	user := engine.Group("/user",
		middleware.Auth(h.sessions),
		middleware.Guard(h.sessions, models.RoleUser),
	)
	user.GET("", h.UserHome)
	user.GET("/reports", h.ListReports)
}
