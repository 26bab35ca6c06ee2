package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/profsight/profsight-api/internal/middleware"
	"github.com/profsight/profsight-api/internal/models"
	"github.com/profsight/profsight-api/internal/repository"
	"github.com/profsight/profsight-api/internal/service"
)

// Routes bundles every handler the router mounts.
type Routes struct {
	Auth      *AuthHandler
	Professor *ProfessorHandler
	Review    *ReviewHandler
	Claim     *ClaimHandler
	Admin     *AdminHandler
	Dashboard *DashboardHandler
	Metrics   *MetricsHandler

	AuthService *service.AuthService
	Users       *repository.UserRepository
}

// Register mounts all API routes on the engine under the given prefix.
func (r Routes) Register(engine *gin.Engine, prefix string) {
	engine.GET("/metrics", r.Metrics.Prometheus)

	api := engine.Group(prefix)

	auth := api.Group("/auth")
	{
		auth.POST("/signup", r.Auth.Signup)
		auth.POST("/login", r.Auth.Login)
		auth.POST("/refresh", r.Auth.Refresh)
		auth.GET("/me", middleware.JWT(r.AuthService), r.Auth.Me)
	}

	professors := api.Group("/professors")
	{
		professors.GET("", r.Professor.List)
		professors.GET("/following", middleware.JWT(r.AuthService), r.Professor.Following)
		professors.GET("/:id", r.Professor.Get)
		professors.GET("/:id/grade-distribution", r.Professor.GradeDistribution)
		professors.GET("/:id/following", middleware.JWT(r.AuthService), r.Professor.IsFollowing)

		professors.POST("", middleware.JWT(r.AuthService), middleware.RequireRoles(models.RoleAdmin),
			middleware.Audit(r.Users, models.AuditActionProfessorEdit, "professors"), r.Professor.Create)
		professors.PUT("/:id", middleware.JWT(r.AuthService), r.Professor.Update)
		professors.POST("/:id/follow", middleware.JWT(r.AuthService), r.Professor.Follow)
		professors.DELETE("/:id/follow", middleware.JWT(r.AuthService), r.Professor.Unfollow)
		professors.POST("/:id/claim", middleware.JWT(r.AuthService), r.Professor.Claim)
	}

	reviews := api.Group("/reviews")
	{
		reviews.GET("/professor/:id", r.Review.ListByProfessor)
		reviews.GET("/me", middleware.JWT(r.AuthService), r.Review.ListMine)
		reviews.GET("/:id", r.Review.Get)

		reviews.POST("", middleware.JWT(r.AuthService), r.Review.Create)
		reviews.PUT("/:id", middleware.JWT(r.AuthService), r.Review.Update)
		reviews.DELETE("/:id", middleware.JWT(r.AuthService), r.Review.Delete)
		reviews.POST("/:id/vote", middleware.JWT(r.AuthService), r.Review.Vote)
		reviews.POST("/:id/flag", middleware.JWT(r.AuthService), r.Review.Flag)
	}

	claims := api.Group("/claims", middleware.JWT(r.AuthService))
	{
		claims.GET("/me", r.Claim.MyStatus)
		claims.GET("/my-profile", r.Claim.MyProfile)
		claims.POST("/:id/cancel", r.Claim.Cancel)
	}

	dashboard := api.Group("/dashboard", middleware.JWT(r.AuthService))
	{
		dashboard.GET("/me", r.Dashboard.Me)
	}

	admin := api.Group("/admin", middleware.JWT(r.AuthService), middleware.RequireRoles(models.RoleAdmin))
	{
		admin.GET("/claims", r.Admin.ListClaims)
		admin.POST("/claims/:id/approve", r.Admin.ApproveClaim)
		admin.POST("/claims/:id/reject", r.Admin.RejectClaim)

		admin.GET("/flagged-reviews", r.Admin.FlaggedReviews)
		admin.GET("/flagged-reviews/export", r.Admin.ExportFlagged)
		admin.DELETE("/reviews/:id", r.Admin.DeleteReview)
		admin.POST("/reviews/:id/dismiss-flags", r.Admin.DismissFlags)
	}

	// The signed token authenticates the download on its own, so the
	// route sits outside the JWT-protected admin group.
	api.GET("/admin/flagged-reviews/export/download", r.Admin.DownloadExport)
}
