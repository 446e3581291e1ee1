package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/primepath/primepath-backend/internal/config"
	"github.com/primepath/primepath-backend/internal/database"
	"github.com/primepath/primepath-backend/internal/handler"
	"github.com/primepath/primepath-backend/internal/logger"
	"github.com/primepath/primepath-backend/internal/repository"
	"github.com/primepath/primepath-backend/internal/router"
	"github.com/primepath/primepath-backend/internal/service"
	"github.com/primepath/primepath-backend/internal/validator"
	"github.com/primepath/primepath-backend/internal/worker"
	"github.com/rs/zerolog"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting PrimePath Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Repositories ───────────────────────────────────────
	curriculumRepo := repository.NewCurriculumRepository(pool)
	placementRepo := repository.NewPlacementRepository(pool)
	examRepo := repository.NewExamRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)
	sessionRepo := repository.NewSessionRepository(pool)
	classRepo := repository.NewClassRepository(pool)
	studentRepo := repository.NewStudentRepository(pool)
	schoolRepo := repository.NewSchoolRepository(pool)
	teacherRepo := repository.NewTeacherRepository(pool)
	roleRepo := repository.NewRoleRepository(pool)
	identityRepo := repository.NewOAuthIdentityRepository(pool)
	dashboardRepo := repository.NewDashboardRepository(pool)

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg, rdb)
	permService := service.NewExamPermissionService(classRepo)
	mediaService := service.NewMediaService(cfg)
	curriculumService := service.NewCurriculumService(curriculumRepo, placementRepo, examRepo)
	placementService := service.NewPlacementService(placementRepo, curriculumRepo)
	examService := service.NewExamService(pool, examRepo, questionRepo, placementRepo, curriculumRepo, permService, mediaService, rdb, log)
	sessionService := service.NewSessionService(cfg, service.SessionDeps{
		Sessions:  service.NewPostgresSessionStore(pool, sessionRepo, questionRepo),
		Cache:     service.NewRedisSessionCache(rdb),
		Exams:     examRepo,
		Questions: questionRepo,
		Students:  studentRepo,
		Classes:   classRepo,
		Placement: placementService,
		Viewer:    examService,
		Perms:     permService,
	}, log)
	studentService := service.NewStudentService(studentRepo, schoolRepo, classRepo, examRepo, sessionRepo, authService, log)
	teacherService := service.NewTeacherService(teacherRepo, roleRepo, authService, log)
	roleService := service.NewRoleService(pool, roleRepo, log)
	classService := service.NewClassService(classRepo, teacherRepo, studentRepo, log)
	dashboardService := service.NewDashboardService(dashboardRepo)
	oauthService := service.NewOAuthService(cfg.OAuth, service.NewRedisStateStore(rdb), identityRepo,
		teacherRepo, studentRepo, teacherService, studentService, log)
	log.Info().Strs("providers", oauthService.Providers()).Msg("OAuth configured")

	registry := service.NewRegistry()
	registry.Register("auth", authService)
	registry.Register("exam_permission", permService)
	registry.Register("media", mediaService)
	registry.Register("curriculum", curriculumService)
	registry.Register("placement", placementService)
	registry.Register("exam", examService)
	registry.Register("session", sessionService)
	registry.Register("student", studentService)
	registry.Register("teacher", teacherService)
	registry.Register("role", roleService)
	registry.Register("class", classService)
	registry.Register("dashboard", dashboardService)
	registry.Register("oauth", oauthService)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:          handler.NewAuthHandler(teacherService, studentService, oauthService),
		Curriculum:    handler.NewCurriculumHandler(curriculumService, placementService),
		Exam:          handler.NewExamHandler(examService, sessionService),
		Question:      handler.NewQuestionHandler(examService),
		Media:         handler.NewMediaHandler(examService),
		Session:       handler.NewSessionHandler(sessionService),
		StudentPortal: handler.NewStudentPortalHandler(studentService, sessionService),
		StudentMgmt:   handler.NewStudentManagementHandler(studentService, sessionService),
		Teacher:       handler.NewTeacherHandler(teacherService),
		Role:          handler.NewRoleHandler(roleService),
		Class:         handler.NewClassHandler(classService),
		Dashboard:     handler.NewDashboardHandler(dashboardService),
		Health:        handler.NewHealthHandler(registry, pool, rdb),
		WS:            handler.NewWSHandler(sessionService, log, cfg.AllowedOrigins),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	var workers sync.WaitGroup

	answerWorker := worker.NewAnswerWorker(rdb, sessionRepo, log)
	sweeper := worker.NewSessionSweeper(sessionService, cfg.SweepInterval, log)

	workers.Add(2)
	go func() {
		defer workers.Done()
		answerWorker.Start(workerCtx)
	}()
	go func() {
		defer workers.Done()
		sweeper.Start(workerCtx)
	}()

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(ctx, authService, handlers, cfg, log)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop background workers and wait for the answer queue to drain.
	workerCancel()
	workers.Wait()

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
