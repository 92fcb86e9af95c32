package api

import (
	"Vitrin/internal/api/config"
	"Vitrin/internal/api/middleware"
	"Vitrin/internal/pkg/consts"
	"Vitrin/internal/pkg/logger"
	"Vitrin/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

// loginPath 请求体包含密码，审计日志不记录
const loginPath = "/api/admin/login"

func SetupRouter(group *HandlersGroup, serverCfg config.ServerConfig) *gin.Engine {
	r := gin.New()
	_ = r.SetTrustedProxies([]string{"localhost"})
	r.MaxMultipartMemory = 32 << 20

	// TraceId & Logger & CORS
	r.Use(middleware.TraceMiddleware())
	r.Use(middleware.AuditMiddleware(loginPath))
	r.Use(middleware.CORSMiddleware(serverCfg.AllowedOrigins))
	logger.SetupGin(r)

	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/categories", group.ListingHandler.GetCategories)

		listingGroup := apiGroup.Group("/listings")
		{
			listingGroup.GET("", group.ListingHandler.ListListings)
			listingGroup.GET("/search", group.ListingHandler.SearchListings)
			listingGroup.GET("/:id", group.ListingHandler.GetListing)
			listingGroup.POST("/:id/contact", group.ContactHandler.SubmitContact)
		}

		adminGroup := apiGroup.Group("/admin")
		{
			// 无需登录即可访问的接口
			adminGroup.POST("/login", group.AdminHandler.Login)

			// 需要登录 & 拥有 admin 角色
			authGroup := adminGroup.Group("")
			authGroup.Use(middleware.AuthMiddleware(), middleware.CheckRoles(consts.RoleAdmin))
			{
				authGroup.POST("/logout", group.AdminHandler.Logout)
				authGroup.GET("/ws", group.WsHandler.Connect)

				draftGroup := authGroup.Group("/drafts")
				{
					draftGroup.POST("", group.DraftHandler.CreateDraft)
					draftGroup.GET("/:draft_id", group.DraftHandler.GetDraft)
					draftGroup.DELETE("/:draft_id", group.DraftHandler.Discard)
					draftGroup.PUT("/:draft_id/fields", group.DraftHandler.UpdateFields)
					draftGroup.PUT("/:draft_id/category", group.DraftHandler.SetCategory)
					draftGroup.PUT("/:draft_id/attributes", group.DraftHandler.SetAttributes)
					draftGroup.POST("/:draft_id/media", group.DraftHandler.StageMedia)
					draftGroup.DELETE("/:draft_id/media/:index", group.DraftHandler.RemoveMedia)
					draftGroup.POST("/:draft_id/media/:index/left", group.DraftHandler.MoveMedia(service.MoveLeft))
					draftGroup.POST("/:draft_id/media/:index/right", group.DraftHandler.MoveMedia(service.MoveRight))
					draftGroup.POST("/:draft_id/media/:index/cover", group.DraftHandler.MoveMedia(service.MoveCover))
					draftGroup.POST("/:draft_id/submit", group.DraftHandler.Submit)
				}

				listingAdmin := authGroup.Group("/listings")
				{
					listingAdmin.GET("", group.ListingHandler.ListAllListings)
					listingAdmin.DELETE("/:id", group.ListingHandler.DeleteListing)
				}

				contactGroup := authGroup.Group("/contacts")
				{
					contactGroup.GET("", group.ContactHandler.ListContacts)
					contactGroup.POST("/:id/read", group.ContactHandler.MarkRead)
				}
			}
		}
	}

	return r
}
