package api

import (
	"github.com/gin-gonic/gin"

	"github.com/soulspace/soulspace_server/config"
	"github.com/soulspace/soulspace_server/internal/api/handler"
	"github.com/soulspace/soulspace_server/internal/api/middleware"
)

type Router struct {
	authHandler         *handler.AuthHandler
	userHandler         *handler.UserHandler
	chatHandler         *handler.ChatHandler
	courseHandler       *handler.CourseHandler
	forumHandler        *handler.ForumHandler
	subscriptionHandler *handler.SubscriptionHandler
	ttsHandler          *handler.TTSHandler
	websocketHandler    *handler.WebSocketHandler
	cfg                 *config.Config
}

func NewRouter(
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
	chatHandler *handler.ChatHandler,
	courseHandler *handler.CourseHandler,
	forumHandler *handler.ForumHandler,
	subscriptionHandler *handler.SubscriptionHandler,
	ttsHandler *handler.TTSHandler,
	websocketHandler *handler.WebSocketHandler,
	cfg *config.Config,
) *Router {
	return &Router{
		authHandler:         authHandler,
		userHandler:         userHandler,
		chatHandler:         chatHandler,
		courseHandler:       courseHandler,
		forumHandler:        forumHandler,
		subscriptionHandler: subscriptionHandler,
		ttsHandler:          ttsHandler,
		websocketHandler:    websocketHandler,
		cfg:                 cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	if r.cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.CORS(r.cfg.CORS))

	api := engine.Group("/api/v1")
	{
		// WebSocket
		api.GET("/ws", r.websocketHandler.Handle)

		// Public - auth
		auth := api.Group("/auth")
		{
			auth.POST("/register", r.authHandler.Register)
			auth.POST("/login", r.authHandler.Login)
			auth.POST("/verify-email", r.authHandler.VerifyEmail)
			auth.GET("/google", r.authHandler.GoogleAuth)
			auth.GET("/google/callback", r.authHandler.GoogleCallback)
		}

		// Chat rides optional auth: logged-in users spend their daily
		// quota, guests spend the client-counted trial
		chat := api.Group("/chat")
		chat.Use(middleware.OptionalAuth(r.cfg.JWT.Secret))
		{
			chat.POST("", r.chatHandler.Send)
		}

		chatAuth := api.Group("/chat")
		chatAuth.Use(middleware.Auth(r.cfg.JWT.Secret))
		{
			chatAuth.GET("/history", r.chatHandler.History)
		}

		// Courses - browsing is public, progress needs a session
		courses := api.Group("/courses")
		courses.Use(middleware.OptionalAuth(r.cfg.JWT.Secret))
		{
			courses.GET("", r.courseHandler.List)
			courses.GET("/:id", r.courseHandler.Get)
		}

		// Forum - public reads
		forum := api.Group("/forum")
		{
			forum.GET("/posts", r.forumHandler.ListPosts)
			forum.GET("/posts/:id", r.forumHandler.GetPost)
			forum.GET("/posts/:id/replies", r.forumHandler.ListReplies)
		}

		// Authenticated
		authenticated := api.Group("")
		authenticated.Use(middleware.Auth(r.cfg.JWT.Secret))
		{
			user := authenticated.Group("/user")
			{
				user.GET("/profile", r.userHandler.GetProfile)
				user.PUT("/profile", r.userHandler.UpdateProfile)
				user.POST("/avatar", r.userHandler.UploadAvatar)
				user.GET("/quota", r.userHandler.GetQuota)
			}

			subscription := authenticated.Group("/subscription")
			{
				subscription.GET("", r.subscriptionHandler.Get)
				subscription.POST("/tier", r.subscriptionHandler.ChangeTier)
			}

			authenticated.POST("/lessons/:id/complete", r.courseHandler.CompleteLesson)

			forumAuth := authenticated.Group("/forum")
			{
				forumAuth.POST("/posts", r.forumHandler.CreatePost)
				forumAuth.DELETE("/posts/:id", r.forumHandler.DeletePost)
				forumAuth.POST("/posts/:id/replies", r.forumHandler.CreateReply)
				forumAuth.DELETE("/replies/:id", r.forumHandler.DeleteReply)
			}

			authenticated.POST("/tts", r.ttsHandler.Synthesize)
		}
	}

	return engine
}
