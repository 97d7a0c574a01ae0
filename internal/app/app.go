package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"educorp_backend/internal/config"
	"educorp_backend/internal/controller"
	"educorp_backend/internal/repository"
	"educorp_backend/internal/service"
	"educorp_backend/internal/util"
	"educorp_backend/pkg/configwatcher"
	"educorp_backend/pkg/database"
	"educorp_backend/pkg/docstore"
	"educorp_backend/pkg/event"
	"educorp_backend/pkg/identity"
	"educorp_backend/pkg/logger"
	"educorp_backend/pkg/monitoring"
	"educorp_backend/pkg/security"
	"educorp_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config     *config.Config
	ConfigPath string
	Router     *gin.Engine
	Store      docstore.Gateway
	DB         *gorm.DB
	Redis      *redis.Client

	services        *services
	tracer          *sdktrace.TracerProvider
	configCallbacks []func(*config.Config)
}

type repositories struct {
	user          *repository.UserRepository
	role          *repository.RoleRepository
	userRole      *repository.UserRoleRepository
	course        *repository.CourseRepository
	enrollment    *repository.EnrollmentRepository
	progress      *repository.ProgressRepository
	assessment    *repository.AssessmentRepository
	learningStyle *repository.LearningStyleRepository
}

type services struct {
	events     event.Publisher
	identity   *identity.Provider
	storage    *service.StorageService
	auth       *service.AuthService
	user       *service.UserService
	course     *service.CourseService
	enrollment *service.EnrollmentService
	assessment *service.AssessmentService
}

type controllers struct {
	health     *controller.HealthController
	auth       *controller.AuthController
	course     *controller.CourseController
	assessment *controller.AssessmentController
	admin      *controller.AdminController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) initStore(cfg *config.Config) docstore.Gateway {
	if cfg.Store.Type == "memory" {
		logger.Log.Warn("Using in-memory document store, data is lost on restart")
		return docstore.NewMemoryStore()
	}

	db, err := database.InitMongo(&cfg.Mongo)
	if err != nil {
		logger.Log.Fatal("Failed to initialize document store", zap.Error(err))
	}
	return docstore.NewMongoStore(db)
}

func (a *App) initIdentity(cfg *config.Config) *identity.Provider {
	var accounts identity.AccountStore
	if cfg.Identity.AccountStore == "mysql" {
		db, err := database.InitDB(&cfg.Database, cfg.Server.Mode)
		if err != nil {
			logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		}
		store, err := identity.NewGormAccountStore(db)
		if err != nil {
			logger.Log.Fatal("Failed to migrate account table", zap.Error(err))
		}
		a.DB = db
		accounts = store
	} else {
		accounts = identity.NewMemoryAccountStore()
	}

	var sessions identity.SessionStore
	if cfg.Identity.SessionStore == "redis" {
		rdb, err := database.InitRedis(&cfg.Redis)
		if err != nil {
			logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
		}
		a.Redis = rdb
		sessions = identity.NewRedisSessionStore(rdb)
	} else {
		sessions = identity.NewMemorySessionStore()
	}

	return identity.NewProvider(accounts, sessions, cfg.Identity.JWTSecret, cfg.Identity.SessionTTL)
}

func (a *App) initEvents(cfg *config.Config) event.Publisher {
	if !cfg.Events.Enabled {
		return event.NoopPublisher{}
	}
	p, err := event.NewRabbitPublisher(cfg.Events.URL, cfg.Events.Exchange)
	if err != nil {
		logger.Log.Error("Event bus unavailable, domain events disabled", zap.Error(err))
		return event.NoopPublisher{}
	}
	return p
}

func (a *App) initRepositories(store docstore.Gateway) *repositories {
	return &repositories{
		user:          repository.NewUserRepository(store),
		role:          repository.NewRoleRepository(store),
		userRole:      repository.NewUserRoleRepository(store),
		course:        repository.NewCourseRepository(store),
		enrollment:    repository.NewEnrollmentRepository(store),
		progress:      repository.NewProgressRepository(store),
		assessment:    repository.NewAssessmentRepository(store),
		learningStyle: repository.NewLearningStyleRepository(store),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, provider *identity.Provider, events event.Publisher) *services {
	s := &services{events: events, identity: provider}

	s.storage = service.NewStorageService(cfg)
	s.user = service.NewUserService(repos.user, repos.role, repos.userRole, repos.enrollment, repos.progress,
		provider, events, cfg.Roles.DefaultRole)
	s.auth = service.NewAuthService(provider, s.user)
	s.course = service.NewCourseService(repos.course, s.storage, events)
	s.enrollment = service.NewEnrollmentService(repos.enrollment, repos.progress, repos.course, events, cfg.Enrollment)
	s.assessment = service.NewAssessmentService(repos.assessment, repos.learningStyle, s.user, events, cfg.Assessment.Type)

	a.RegisterConfigCallback(func(c *config.Config) {
		s.enrollment.ApplyConfig(c.Enrollment)
	})
	return s
}

func (a *App) initControllers(s *services) *controllers {
	return &controllers{
		health:     controller.NewHealthController(a.Store, a.Redis),
		auth:       controller.NewAuthController(s.auth),
		course:     controller.NewCourseController(s.course, s.enrollment),
		assessment: controller.NewAssessmentController(s.assessment),
		admin:      controller.NewAdminController(s.course, s.enrollment, s.user),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	router.Use(security.RateLimiter(cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute))

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func NewApp(cfg *config.Config, configPath string) *App {
	logger.InitLogger(cfg)
	logger.Log.Info("Logger initialized successfully")

	gin.SetMode(cfg.Server.Mode)

	app := &App{
		Config:     cfg,
		ConfigPath: configPath,
	}

	app.Store = app.initStore(cfg)
	provider := app.initIdentity(cfg)
	events := app.initEvents(cfg)

	repos := app.initRepositories(app.Store)
	services := app.initServices(repos, cfg, provider, events)
	app.services = services
	controllers := app.initControllers(services)

	seedCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := services.user.SeedRoles(seedCtx); err != nil {
		logger.Log.Error("Failed to seed roles", zap.Error(err))
	}
	cancel()

	monitoring.Init()

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("educorp-backend", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracer = tp
	}

	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers, services)

	if cfg.Storage.Type == util.StorageLocal {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	return app
}

func (a *App) watchConfig(ctx context.Context) {
	path := filepath.Join(a.ConfigPath, "config.yaml")
	err := configwatcher.WatchConfig(ctx, path, func(cfg *config.Config) {
		for _, cb := range a.configCallbacks {
			cb(cfg)
		}
	})
	if err != nil {
		logger.Log.Warn("Config watcher stopped", zap.String("path", path), zap.Error(err))
	}
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	watchCtx, stopWatch := context.WithCancel(context.Background())
	defer stopWatch()
	go a.watchConfig(watchCtx)

	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	if a.services != nil {
		if err := a.services.events.Close(); err != nil {
			logger.Log.Error("Failed to close event publisher", zap.Error(err))
		}
	}
	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		_ = a.Redis.Close()
	}

	logger.Log.Info("Server exiting")
}
