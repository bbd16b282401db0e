package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"reflect"
	"syscall"
	"time"

	"learning_companion_backend/internal/config"
	"learning_companion_backend/internal/controller"
	"learning_companion_backend/internal/repository"
	"learning_companion_backend/internal/service"
	"learning_companion_backend/pkg/configwatcher"
	"learning_companion_backend/pkg/database"
	"learning_companion_backend/pkg/llm"
	"learning_companion_backend/pkg/logger"
	"learning_companion_backend/pkg/monitoring"
	"learning_companion_backend/pkg/security"
	"learning_companion_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// 计划列表缓存时长，Refresh 会立即覆盖
const planCacheTTL = 10 * time.Minute

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	services        *services
	tracer          *sdktrace.TracerProvider
	configCallbacks []func(*config.Config)
	stopWatcher     context.CancelFunc
}

type repositories struct {
	profile  *repository.ProfileRepository
	plan     *repository.LearningPlanRepository
	progress *repository.ProgressRepository
	result   *repository.QuizResultRepository
}

type services struct {
	storage    *service.StorageService
	generation *service.GenerationService
	learning   *service.LearningService
	quizEvents *service.QuizEventHub
	quiz       *service.QuizService
	speech     *service.SpeechService
	profile    *service.ProfileService
	dashboard  *service.DashboardService
}

type controllers struct {
	plan      *controller.PlanController
	quiz      *controller.QuizController
	markdown  *controller.MarkdownController
	speech    *controller.SpeechController
	profile   *controller.ProfileController
	dashboard *controller.DashboardController
	health    *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

// llmConfig 把配置映射到提供方参数，模型名只用于当前选中的提供方
func llmConfig(cfg *config.AIConfig) llm.Config {
	c := llm.Config{
		Provider:  cfg.Provider,
		OpenAI:    llm.OpenAIConfig{APIKey: cfg.APIKey, BaseURL: cfg.BaseURL},
		Anthropic: llm.AnthropicConfig{APIKey: cfg.AnthropicAPIKey},
		Gemini:    llm.GeminiConfig{APIKey: cfg.GeminiAPIKey},
	}
	switch cfg.Provider {
	case "anthropic":
		c.Anthropic.Model = cfg.Model
	case "gemini":
		c.Gemini.Model = cfg.Model
	default:
		c.OpenAI.Model = cfg.Model
	}
	return c
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		profile:  repository.NewProfileRepository(db),
		plan:     repository.NewLearningPlanRepository(db),
		progress: repository.NewProgressRepository(db),
		result:   repository.NewQuizResultRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) *services {
	s := &services{}

	provider, err := llm.NewProvider(context.Background(), llmConfig(&cfg.AI), logger.Log)
	if err != nil {
		logger.Log.Fatal("Failed to initialize LLM provider", zap.Error(err))
	}

	var cache service.PlanCache = service.NewMemoryPlanCache()
	if rdb != nil {
		cache = service.NewRedisPlanCache(rdb, planCacheTTL)
	}

	s.storage = service.NewStorageService(&cfg.Storage)
	s.generation = service.NewGenerationService(provider)
	s.learning = service.NewLearningService(repos.plan, repos.progress, repos.result, cache)
	s.quizEvents = service.NewQuizEventHub()
	s.quiz = service.NewQuizService(s.learning, s.generation, s.quizEvents, rdb, cfg.Quiz, cfg.AI.GradeWorkers)
	s.speech = service.NewSpeechService(cfg.Speech, s.storage)
	s.profile = service.NewProfileService(repos.profile, s.learning)
	s.dashboard = service.NewDashboardService(s.learning)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		plan:      controller.NewPlanController(s.learning, s.generation),
		quiz:      controller.NewQuizController(s.quiz, s.learning),
		markdown:  controller.NewMarkdownController(),
		speech:    controller.NewSpeechController(s.speech),
		profile:   controller.NewProfileController(s.profile),
		dashboard: controller.NewDashboardController(s.dashboard),
		health:    controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	router.Use(security.RateLimiter(cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// registerReloaders 热更新日志级别、测验计时和模型配置
func (a *App) registerReloaders(s *services) {
	a.RegisterConfigCallback(func(newCfg *config.Config) {
		logger.SetMode(newCfg.Server.Mode)
	})
	a.RegisterConfigCallback(func(newCfg *config.Config) {
		s.quiz.SetConfig(newCfg.Quiz)
	})
	a.RegisterConfigCallback(func(newCfg *config.Config) {
		if reflect.DeepEqual(newCfg.AI, a.Config.AI) {
			return
		}
		provider, err := llm.NewProvider(context.Background(), llmConfig(&newCfg.AI), logger.Log)
		if err != nil {
			logger.Log.Error("Keeping previous LLM provider", zap.Error(err))
			return
		}
		s.generation.SetProvider(provider)
		a.Config.AI = newCfg.AI
		logger.Log.Info("LLM provider reloaded", zap.String("provider", newCfg.AI.Provider))
	})
}

func (a *App) watchConfig(dir string) {
	ctx, cancel := context.WithCancel(context.Background())
	a.stopWatcher = cancel
	go func() {
		err := configwatcher.WatchConfig(ctx, dir, func(newCfg *config.Config) {
			for _, cb := range a.configCallbacks {
				cb(newCfg)
			}
		})
		if err != nil {
			logger.Log.Warn("Config watcher stopped", zap.Error(err))
		}
	}()
}

func NewApp(cfg *config.Config, configDir string) *App {
	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode, cfg.ForceMigrate)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		log.Fatalf("Failed to initialize database: %v", err)
	}

	app := &App{
		Config: cfg,
		DB:     db,
	}
	if cfg.MigrateOnly {
		return app
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		// 缓存是可选的，退回进程内缓存
		logger.Log.Warn("Redis unavailable, using in-memory caches", zap.Error(err))
		rdb = nil
	}
	app.Redis = rdb

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, rdb)
	app.services = services
	controllers := app.initControllers(services, db, rdb)

	// 监控初始化
	monitoring.Init()

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer(tracing.ServiceName, cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracer = tp
	}

	gin.SetMode(cfg.Server.Mode)
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers, services, cfg)

	if cfg.Storage.Type == "local" {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	app.registerReloaders(services)
	app.watchConfig(configDir)

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	// 启动服务器
	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal("listen failed", zap.Error(err))
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	if a.stopWatcher != nil {
		a.stopWatcher()
	}

	// 停止测验计时器并关闭事件连接
	if a.services != nil {
		a.services.quiz.Stop()
		a.services.quizEvents.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}

	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		a.Redis.Close()
	}

	logger.Log.Info("Server exiting")
}
