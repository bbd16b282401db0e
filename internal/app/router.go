package app

import (
	"time"

	"learning_companion_backend/docs"
	"learning_companion_backend/internal/config"
	"learning_companion_backend/internal/middleware"
	"learning_companion_backend/internal/util"
	"learning_companion_backend/pkg/monitoring"
	"learning_companion_backend/pkg/security"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func jwtOptions(cfg *config.Config) util.JWTOptions {
	return util.JWTOptions{
		Secret:   cfg.JWT.Secret,
		Issuer:   cfg.JWT.Issuer,
		Audience: cfg.JWT.Audience,
	}
}

// byUser AI 接口按用户限流，取不到用户时按 IP
func byUser(c *gin.Context) string {
	if claims := util.GetUserFromContext(c); claims != nil {
		return "user:" + claims.UserID()
	}
	return "ip:" + c.ClientIP()
}

func (a *App) registerRoutes(router *gin.Engine, c *controllers, s *services, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	router.GET("/api/health", c.health.HealthCheck)

	// 2. 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(jwtOptions(cfg)), middleware.ProfileMiddleware(s.profile))

	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	aiLimit := security.RateLimiterBy(cfg.RateLimit.AIMaxRequests, window, byUser)

	a.registerPlanRoutes(authGroup, c, aiLimit)
	a.registerQuizRoutes(authGroup, c, aiLimit)

	authGroup.POST("/markdown/render", c.markdown.Render)

	speech := authGroup.Group("/speech")
	{
		speech.POST("", aiLimit, c.speech.Speak)
		speech.POST("/voice", c.speech.SelectVoice)
		speech.GET("/voices", c.speech.ListVoices)
	}

	profile := authGroup.Group("/profile")
	{
		profile.GET("", c.profile.GetProfile)
		profile.PUT("", c.profile.UpdateProfile)
		profile.GET("/stats", c.profile.GetStats)
	}

	authGroup.GET("/dashboard", c.dashboard.GetDashboard)
}

func (a *App) registerPlanRoutes(group *gin.RouterGroup, c *controllers, aiLimit gin.HandlerFunc) {
	plans := group.Group("/plans")
	{
		plans.POST("", aiLimit, c.plan.CreatePlan)
		plans.GET("", c.plan.ListPlans)
		plans.POST("/refresh", c.plan.RefreshPlans)
		plans.GET("/:id", c.plan.GetPlan)
		plans.GET("/:id/days/:day/progress", c.plan.GetProgress)
		plans.PUT("/:id/days/:day/progress", c.plan.UpdateProgress)
		plans.POST("/:id/days/:day/tutor", aiLimit, c.plan.AskTutor)
	}
}

func (a *App) registerQuizRoutes(group *gin.RouterGroup, c *controllers, aiLimit gin.HandlerFunc) {
	quiz := group.Group("/quiz/:id/days/:day")
	{
		quiz.GET("", c.quiz.Snapshot)
		quiz.POST("/start", aiLimit, c.quiz.Start)
		quiz.PUT("/answer", c.quiz.Answer)
		quiz.POST("/navigate", c.quiz.Navigate)
		quiz.POST("/submit", aiLimit, c.quiz.Submit)
		quiz.GET("/events", c.quiz.Events)
		quiz.GET("/result", c.quiz.Result)
	}
}
