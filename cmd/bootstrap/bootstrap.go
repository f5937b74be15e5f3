package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-healthcare-practice/config"
	deliveryHttp "go-healthcare-practice/internal/delivery/http"
	"go-healthcare-practice/internal/delivery/http/handler"
	"go-healthcare-practice/internal/delivery/http/middleware"
	"go-healthcare-practice/internal/infrastructure/cache"
	"go-healthcare-practice/internal/infrastructure/database"
	domainRepo "go-healthcare-practice/internal/domain/repository"
	"go-healthcare-practice/internal/repository"
	"go-healthcare-practice/internal/service"
	"go-healthcare-practice/internal/usecase"
	"go-healthcare-practice/pkg/clock"
	"go-healthcare-practice/pkg/jwt"
	"go-healthcare-practice/pkg/validator"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// App holds all dependencies for the application
type App struct {
	Config      *config.Config
	Log         *logrus.Logger
	DB          *gorm.DB
	RedisClient *redis.Client
	Server      *http.Server

	components *components
}

// components is the wired object graph shared by every command.
type components struct {
	clock        clock.Clock
	jwt          *jwt.JWTService
	tokens       cache.TokenStore
	users        domainRepo.UserRepository
	appointments domainRepo.AppointmentRepository
	sweeper      *service.OverdueSweeper

	auth          usecase.AuthUsecase
	appointment   usecase.AppointmentUsecase
	billing       usecase.BillingUsecase
	doctor        usecase.DoctorUsecase
	medicalRecord usecase.MedicalRecordUsecase
	auditLog      usecase.AuditLogUsecase
}

// New connects to the database and Redis and wires every layer.
func New(cfg *config.Config, log *logrus.Logger) (*App, error) {
	app := &App{Config: cfg, Log: log}

	// Initialize database
	db, err := database.NewPostgresConnection(cfg.DB, cfg.App.Env, log)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	app.DB = db

	if cfg.DB.AutoMigrate {
		if err := database.AutoMigrate(db); err != nil {
			app.Close()
			return nil, fmt.Errorf("failed to auto-migrate: %w", err)
		}
		log.Info("Database models auto-migrated")
	}

	// Initialize Redis
	redisClient, err := cache.NewRedisClient(cfg.Redis, log)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	app.RedisClient = redisClient

	app.components = wire(cfg, log, db, redisClient)
	app.Server = app.initializeServer()

	return app, nil
}

func wire(cfg *config.Config, log *logrus.Logger, db *gorm.DB, redisClient *redis.Client) *components {
	clk := clock.New()
	jwtService := jwt.NewJWTService(cfg.JWT)

	// Initialize repositories
	userRepo := repository.NewUserRepository()
	roleRepo := repository.NewRoleRepository()
	doctorProfileRepo := repository.NewDoctorProfileRepository()
	patientProfileRepo := repository.NewPatientProfileRepository()
	appointmentRepo := repository.NewAppointmentRepository()
	billingRepo := repository.NewBillingRepository()
	medicalRecordRepo := repository.NewMedicalRecordRepository()
	auditLogRepo := repository.NewAuditLogRepository()
	transactor := repository.NewTransactor(db)

	// Initialize infrastructure services
	tokenStore := cache.NewRedisTokenStore(redisClient)
	locker := cache.NewRedisScheduleLocker(redisClient, cfg.Scheduling.LockTTL, log)

	var sequencer service.InvoiceSequencer
	if cfg.Billing.Sequencer == config.SequencerRedis {
		sequencer = service.NewRedisSequencer(redisClient, db, billingRepo)
	} else {
		sequencer = service.NewStoreSequencer(db, billingRepo)
	}
	log.Infof("Invoice numbers assigned by the %s sequencer", cfg.Billing.Sequencer)

	// Initialize domain services
	audit := service.NewAuditService(db, log, auditLogRepo)
	conflicts := service.NewConflictChecker(db, appointmentRepo)
	availability := service.NewAvailabilityService(db, userRepo, appointmentRepo, clk, cfg.Scheduling)
	suggestions := service.NewSlotSuggestionService(db, userRepo, appointmentRepo, clk, cfg.Scheduling)
	payments := service.NewPaymentProcessor(clk)
	sweeper := service.NewOverdueSweeper(db, log, billingRepo, audit, clk)

	// Initialize usecases
	return &components{
		clock:        clk,
		jwt:          jwtService,
		tokens:       tokenStore,
		users:        userRepo,
		appointments: appointmentRepo,
		sweeper:      sweeper,

		auth:          usecase.NewAuthUsecase(db, log, transactor, userRepo, roleRepo, doctorProfileRepo, patientProfileRepo, jwtService, tokenStore, audit),
		appointment:   usecase.NewAppointmentUsecase(db, log, appointmentRepo, userRepo, conflicts, locker, availability, suggestions, audit, clk, cfg.Scheduling),
		billing:       usecase.NewBillingUsecase(db, log, transactor, billingRepo, appointmentRepo, userRepo, sequencer, payments, audit, clk, cfg.Billing),
		doctor:        usecase.NewDoctorUsecase(db, log, userRepo, doctorProfileRepo),
		medicalRecord: usecase.NewMedicalRecordUsecase(db, log, medicalRecordRepo, appointmentRepo, userRepo, audit, clk),
		auditLog:      usecase.NewAuditLogUsecase(db, log, auditLogRepo),
	}
}

// initializeServer creates and configures the HTTP server
func (app *App) initializeServer() *http.Server {
	c := app.components
	customValidator := validator.NewValidator()

	// Initialize handlers
	authHandler := handler.NewAuthHandler(c.auth, customValidator)
	appointmentHandler := handler.NewAppointmentHandler(c.appointment, customValidator)
	doctorHandler := handler.NewDoctorHandler(c.doctor)
	billingHandler := handler.NewBillingHandler(c.billing, customValidator)
	medicalRecordHandler := handler.NewMedicalRecordHandler(c.medicalRecord, customValidator)
	auditLogHandler := handler.NewAuditLogHandler(c.auditLog)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(c.jwt, c.tokens, app.Log)
	corsMiddleware := middleware.NewCORSMiddleware()
	requestMiddleware := middleware.NewRequestMiddleware(app.Log)

	healthChecks := map[string]deliveryHttp.HealthCheck{
		"database": func(ctx context.Context) error { return database.Ping(ctx, app.DB) },
		"redis":    func(ctx context.Context) error { return app.RedisClient.Ping(ctx).Err() },
	}

	// Initialize router
	router := deliveryHttp.NewRouter(
		authHandler,
		appointmentHandler,
		doctorHandler,
		billingHandler,
		medicalRecordHandler,
		auditLogHandler,
		authMiddleware,
		corsMiddleware,
		requestMiddleware,
		healthChecks,
	)

	// Create server
	return &http.Server{
		Addr:              fmt.Sprintf(":%s", app.Config.App.Port),
		Handler:           router.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// Run starts the HTTP server and, when withSweeper is set, the overdue
// sweeper, then blocks until shutdown.
func (app *App) Run(withSweeper bool) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if withSweeper {
		go app.components.sweeper.Run(ctx, app.Config.Billing.SweepInterval)
	}

	// Start server in goroutine
	go func() {
		app.Log.Infof("Server starting on port %s", app.Config.App.Port)
		app.Log.Infof("Environment: %s", app.Config.App.Env)
		if err := app.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			app.Log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	app.waitForShutdown(cancel)
}

// RunWorker runs only the overdue sweeper until interrupted.
func (app *App) RunWorker() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app.Log.Infof("Overdue sweeper running every %s", app.Config.Billing.SweepInterval)
	app.components.sweeper.Run(ctx, app.Config.Billing.SweepInterval)

	app.Close()
	app.Log.Info("Worker stopped")
}

// waitForShutdown blocks until an interrupt signal is received
func (app *App) waitForShutdown(stopBackground context.CancelFunc) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	app.Log.Info("Shutting down server...")
	stopBackground()

	// Create shutdown context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown HTTP server gracefully
	if err := app.Server.Shutdown(ctx); err != nil {
		app.Log.Errorf("Server forced to shutdown: %v", err)
	}

	// Close connections
	app.Close()

	app.Log.Info("Server shutdown complete")
}

// Close closes all connections (database, redis, etc.)
func (app *App) Close() {
	// Close database connection
	if app.DB != nil {
		sqlDB, err := app.DB.DB()
		if err == nil {
			sqlDB.Close()
		}
	}

	// Close Redis connection
	if app.RedisClient != nil {
		app.RedisClient.Close()
	}
}
