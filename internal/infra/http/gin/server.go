package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"erent/internal/infra/config"
	"erent/internal/infra/obs"
)

// Handlers groups the HTTP surface by area. Nil areas are not routed.
type Handlers struct {
	Reference      ReferenceHTTP
	Properties     PropertiesHTTP
	Rents          RentsHTTP
	Viewings       ViewingsHTTP
	Reviews        ReviewsHTTP
	Notifications  NotificationsHTTP
	Chat           ChatHTTP
	Payments       PaymentsHTTP
	Analytics      AnalyticsHTTP
	Auth           AuthHTTP
	Users          UsersHTTP
	AuthMiddleware gin.HandlerFunc
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           NewRouter(cfg, obsMW, health, h),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func NewRouter(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.Tracing())
	if obsMW.Logger != nil {
		router.Use(obsMW.LoggerMiddleware())
	}
	router.Use(cors.New(corsConfig(cfg.CORSOrigins)))
	if h.AuthMiddleware != nil {
		router.Use(h.AuthMiddleware)
	}

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	api := router.Group("/api/v1")
	if h.Auth != nil {
		api.POST("/auth/register", h.Auth.Register)
		api.POST("/auth/login", h.Auth.Login)
		api.POST("/auth/logout", h.Auth.Logout)
		api.GET("/auth/me", h.Auth.Me)
	}
	if h.Users != nil {
		users := api.Group("/users")
		users.GET("", h.Users.List)
		users.GET("/:id", h.Users.Get)
		users.PUT("/:id", h.Users.UpdateProfile)
		users.PUT("/:id/active", h.Users.SetActive)
		users.PUT("/:id/roles", h.Users.AssignRoles)
	}
	if h.Reference != nil {
		for _, route := range referenceRoutes {
			group := api.Group(route.path)
			group.GET("", h.Reference.List(route.kind))
			group.GET("/:id", h.Reference.Get(route.kind))
			group.POST("", h.Reference.Create(route.kind))
			group.PUT("/:id", h.Reference.Update(route.kind))
			group.DELETE("/:id", h.Reference.Delete(route.kind))
		}
	}
	if h.Properties != nil {
		properties := api.Group("/properties")
		properties.GET("", h.Properties.Search)
		properties.GET("/:id", h.Properties.Get)
		properties.POST("", h.Properties.Create)
		properties.PUT("/:id", h.Properties.Update)
		properties.DELETE("/:id", h.Properties.Delete)
		properties.POST("/:id/activate", h.Properties.Activate)
		properties.POST("/:id/images", h.Properties.UploadImage)
		properties.DELETE("/:id/images/:imageId", h.Properties.DeleteImage)
	}
	if h.Rents != nil {
		rents := api.Group("/rents")
		rents.GET("", h.Rents.Search)
		rents.GET("/quote", h.Rents.Quote)
		rents.GET("/:id", h.Rents.Get)
		rents.POST("", h.Rents.Create)
		rents.PUT("/:id", h.Rents.Update)
		rents.POST("/:id/accept", h.Rents.Accept)
		rents.POST("/:id/reject", h.Rents.Reject)
		rents.POST("/:id/cancel", h.Rents.Cancel)
		rents.POST("/:id/pay", h.Rents.Pay)
	}
	if h.Viewings != nil {
		viewings := api.Group("/viewings")
		viewings.GET("", h.Viewings.Search)
		viewings.GET("/:id", h.Viewings.Get)
		viewings.POST("", h.Viewings.Schedule)
		viewings.POST("/:id/approve", h.Viewings.Approve)
		viewings.POST("/:id/reject", h.Viewings.Reject)
		viewings.POST("/:id/cancel", h.Viewings.Cancel)
	}
	if h.Reviews != nil {
		reviews := api.Group("/reviews")
		reviews.GET("", h.Reviews.Search)
		reviews.GET("/:id", h.Reviews.Get)
		reviews.POST("", h.Reviews.Submit)
		reviews.PUT("/:id", h.Reviews.Update)
		reviews.DELETE("/:id", h.Reviews.Withdraw)
	}
	if h.Notifications != nil {
		notifications := api.Group("/notifications")
		notifications.GET("", h.Notifications.List)
		notifications.GET("/unread-count", h.Notifications.UnreadCount)
		notifications.POST("/read-all", h.Notifications.MarkAllRead)
		notifications.GET("/:id", h.Notifications.Get)
		notifications.POST("/:id/read", h.Notifications.MarkRead)
	}
	if h.Chat != nil {
		chat := api.Group("/chat")
		chat.POST("/messages", h.Chat.Send)
		chat.POST("/messages/:id/read", h.Chat.MarkRead)
		chat.GET("/conversations", h.Chat.Conversations)
		chat.GET("/conversations/:peer", h.Chat.Conversation)
		chat.POST("/conversations/:peer/read", h.Chat.MarkConversationRead)
		chat.GET("/unread-count", h.Chat.UnreadCount)
	}
	if h.Payments != nil {
		payments := api.Group("/payments")
		payments.GET("", h.Payments.Search)
		payments.POST("/intents", h.Payments.CreateIntent)
		payments.GET("/:id", h.Payments.Get)
		payments.POST("/:id/confirm", h.Payments.Confirm)
	}
	if h.Analytics != nil {
		api.GET("/analytics", h.Analytics.Platform)
		api.GET("/analytics/landlords/:id", h.Analytics.Landlord)
	}
	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", "Idempotency-Key"},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			"X-Request-ID",
		},
		MaxAge: 12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cfg
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}
