package routes

import (
	"log/slog"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sikp/kp-portal/internal/config"
	"github.com/sikp/kp-portal/internal/handlers"
	"github.com/sikp/kp-portal/internal/middleware"
	"github.com/sikp/kp-portal/internal/services"
	"github.com/sikp/kp-portal/internal/store"
	"gorm.io/gorm"
)

// Version is reported by /health and the version command
const Version = "v1"

func SetupRouter(cfg *config.Config, db *gorm.DB, logger *slog.Logger) *gin.Engine {
	if logger == nil {
		logger = slog.Default()
	}

	router := gin.Default()

	// CORS configuration
	router.Use(cors.New(cors.Config{
		AllowOriginFunc:  func(origin string) bool { return true },
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":       "ok",
			"version":      Version,
			"db_connected": db != nil,
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.Static("/uploads", cfg.UploadDir)

	// Initialize services
	records := store.NewGormStore(db)
	authService := services.NewAuthService(cfg)
	storageService := services.NewStorageService(cfg)
	documentService := services.NewDocumentService(cfg, records, storageService)
	membership := services.NewMembershipService(records, logger)
	reconciler := services.NewReconcileService(records, membership, cfg.SyncConcurrency, logger)
	syncer := services.NewSyncService(records, cfg.SyncConcurrency, logger)
	approval := services.NewApprovalService(records, reconciler, syncer, logger)
	submissions := services.NewSubmissionService(records, reconciler, syncer, logger)
	teams := services.NewTeamService(records, syncer, logger)
	proposals := services.NewProposalService(records)

	// Initialize handlers
	proposalHandler := handlers.NewProposalHandler(proposals, submissions, syncer, documentService, storageService)
	reviewHandler := handlers.NewReviewHandler(approval)
	teamHandler := handlers.NewTeamHandler(teams, reconciler, proposals)

	// API routes
	api := router.Group("/api")

	// Middleware to check Database Readiness
	api.Use(func(c *gin.Context) {
		if db == nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
				"error": "Service initializing, please try again shortly",
				"kind":  services.KindUnavailable,
			})
			return
		}
		c.Next()
	})
	api.Use(middleware.AuthMiddleware(authService))

	{
		api.POST("/uploads", middleware.RequireStudent(), proposalHandler.Upload)

		proposalRoutes := api.Group("/proposals")
		{
			proposalRoutes.POST("", middleware.RequireStudent(), proposalHandler.Submit)
			proposalRoutes.GET("/:id", proposalHandler.GetProposal)
			proposalRoutes.GET("/:id/feedback", proposalHandler.ListFeedback)
			proposalRoutes.POST("/:id/feedback", middleware.RequireReviewer(), proposalHandler.AddFeedback)
			proposalRoutes.GET("/:id/documents", proposalHandler.ListDocuments)
			proposalRoutes.GET("/:id/letter", proposalHandler.DownloadLetter)

			// Coordinator decisions
			review := proposalRoutes.Group("")
			review.Use(middleware.RequireCoordinator())
			{
				review.POST("/:id/approve", reviewHandler.Approve)
				review.POST("/:id/reject", reviewHandler.Reject)
				review.POST("/:id/revision", reviewHandler.RequestRevision)
				review.POST("/:id/status", reviewHandler.OverrideStatus)
			}
		}

		teamRoutes := api.Group("/teams")
		{
			teamRoutes.GET("/:id/proposals", middleware.RequireReviewer(), teamHandler.ListProposals)
			teamRoutes.GET("/:id/members", middleware.RequireReviewer(), teamHandler.ListMembers)

			manage := teamRoutes.Group("")
			manage.Use(middleware.RequireCoordinator())
			{
				manage.POST("/:id/reconcile", teamHandler.Reconcile)
				manage.POST("/:id/members", teamHandler.AddMember)
				manage.DELETE("/:id/members/:memberId", teamHandler.RemoveMember)
				manage.POST("/:id/supervisors", teamHandler.AssignSupervisor)
			}
		}
	}

	return router
}
