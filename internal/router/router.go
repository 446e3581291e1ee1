package router

import (
	"context"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/primepath/primepath-backend/internal/config"
	"github.com/primepath/primepath-backend/internal/handler"
	"github.com/primepath/primepath-backend/internal/middleware"
	"github.com/primepath/primepath-backend/internal/model"
	"github.com/primepath/primepath-backend/internal/response"
	"github.com/primepath/primepath-backend/internal/service"
	"github.com/rs/zerolog"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth          *handler.AuthHandler
	Curriculum    *handler.CurriculumHandler
	Exam          *handler.ExamHandler
	Question      *handler.QuestionHandler
	Media         *handler.MediaHandler
	Session       *handler.SessionHandler
	StudentPortal *handler.StudentPortalHandler
	StudentMgmt   *handler.StudentManagementHandler
	Teacher       *handler.TeacherHandler
	Role          *handler.RoleHandler
	Class         *handler.ClassHandler
	Dashboard     *handler.DashboardHandler
	Health        *handler.HealthHandler
	WS            *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
// ctx bounds background work owned by the router, such as rate limiter cleanup.
func SetupRouter(
	ctx context.Context,
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
	log zerolog.Logger,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", response.HeaderRequestID}
	corsConfig.ExposeHeaders = []string{response.HeaderRequestID}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.Use(response.RequestIDMiddleware())
	router.Use(middleware.AccessLog(log))
	router.Use(middleware.Brotli())

	// Uploaded PDFs and audio get new names on every upload, so they cache for a year.
	uploadsGroup := router.Group("/uploads")
	uploadsGroup.Use(middleware.CacheControl(31536000))
	{
		uploadsGroup.Static("/", cfg.UploadDir)
	}

	router.GET("/health", handlers.Health.Health)

	requireStudent := middleware.RequireStudentJWT(authService)
	singleDevice := middleware.CheckSingleDeviceSession(authService)
	authLimiter := middleware.NewRateLimiter(ctx, cfg.LoginRateLimit, time.Minute)

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	auth := router.Group("/api/v1/auth")
	auth.Use(middleware.NoStore())
	{
		auth.POST("/teacher/login", authLimiter.Middleware(), handlers.Auth.TeacherLogin)
		auth.POST("/student/login", authLimiter.Middleware(), handlers.Auth.StudentLogin)
		auth.POST("/student/register", authLimiter.Middleware(), handlers.Auth.StudentRegister)

		auth.GET("/teacher/me", middleware.RequireTeacherJWT(authService), handlers.Auth.GetTeacherProfile)
		auth.GET("/student/me", requireStudent, singleDevice, handlers.Auth.GetStudentProfile)
		auth.POST("/student/logout", requireStudent, handlers.Auth.StudentLogout)

		auth.GET("/oauth/providers", handlers.Auth.OAuthProviders)
		auth.GET("/oauth/:provider/start", authLimiter.Middleware(), handlers.Auth.OAuthStart)
		auth.GET("/oauth/:provider/callback", handlers.Auth.OAuthCallback)
	}

	// ─── 2. Placement Group (Public, session-bound) ────────────────────
	placementAPI := router.Group("/api/v1/placement")
	placementAPI.Use(middleware.NoStore())
	{
		placementAPI.POST("/start", middleware.OptionalStudentJWT(authService), handlers.Session.StartPlacement)
		registerSessionRoutes(placementAPI.Group("/sessions/:session_id"), handlers.Session)
		placementAPI.POST("/sessions/:session_id/adjust", handlers.Session.Adjust)
	}

	// ─── 3. Student Group (JWT + Single Device) ────────────────────────
	studentAPI := router.Group("/api/v1/student")
	studentAPI.Use(requireStudent, singleDevice)
	{
		studentAPI.GET("/dashboard", handlers.StudentPortal.GetDashboard)
		studentAPI.GET("/history", handlers.StudentPortal.GetHistory)
		studentAPI.POST("/routine/:exam_id/start", handlers.StudentPortal.StartRoutine)

		sessions := studentAPI.Group("/sessions/:session_id")
		sessions.Use(middleware.NoStore(), handler.StudentRoutes())
		registerSessionRoutes(sessions, handlers.Session)
	}

	// ─── 4. WebSocket Group (Student WS Auth) ──────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireStudentWSAuth(authService), singleDevice)
	{
		ws.GET("/student/sessions/:session_id/stream", handlers.WS.SessionStream)
	}

	// ─── 5. Admin Group (Teacher JWT + RBAC) ───────────────────────────
	adminAPI := router.Group("/api/v1/admin")
	adminAPI.Use(middleware.RequireTeacherJWT(authService))
	{
		// Dashboard is open to every teacher.
		adminAPI.GET("/dashboard", handlers.Dashboard.GetDashboardData)

		registerCurriculumRoutes(adminAPI, handlers.Curriculum)
		registerExamRoutes(adminAPI, handlers)
		registerClassRoutes(adminAPI, handlers.Class)
		registerPeopleRoutes(adminAPI, handlers)
	}

	return router
}

// registerSessionRoutes mounts the answer sheet routes shared by placement and student sessions.
func registerSessionRoutes(g *gin.RouterGroup, h *handler.SessionHandler) {
	g.POST("/answers", h.SaveAnswers)
	g.GET("/state", h.GetState)
	g.POST("/complete", h.Complete)
	g.GET("/result", h.GetResult)
}

func registerCurriculumRoutes(g *gin.RouterGroup, h *handler.CurriculumHandler) {
	read := middleware.RequirePermission(model.PermissionCurriculumRead)
	write := middleware.RequirePermission(model.PermissionCurriculumWrite)

	g.GET("/programs", read, h.ListPrograms)
	g.GET("/programs/:id", read, h.GetProgram)
	g.POST("/programs", write, h.CreateProgram)
	g.PUT("/programs/:id", write, h.UpdateProgram)
	g.DELETE("/programs/:id", write, h.DeleteProgram)

	g.GET("/subprograms", read, h.ListSubPrograms)
	g.POST("/subprograms", write, h.CreateSubProgram)
	g.PUT("/subprograms/:id", write, h.UpdateSubProgram)
	g.DELETE("/subprograms/:id", write, h.DeleteSubProgram)

	g.GET("/levels", read, h.Ladder)
	g.GET("/levels/:id", read, h.GetLevel)
	g.POST("/levels", write, h.CreateLevel)
	g.PUT("/levels/:id", write, h.UpdateLevel)
	g.DELETE("/levels/:id", write, h.DeleteLevel)

	g.GET("/placement-rules", read, h.ListRules)
	g.POST("/placement-rules", write, h.CreateRule)
	g.PUT("/placement-rules/:id", write, h.UpdateRule)
	g.DELETE("/placement-rules/:id", write, h.DeleteRule)
	g.GET("/placement-preview", read, h.PreviewPlacement)

	g.GET("/level-mappings", read, h.ListMappings)
	g.POST("/level-mappings", write, h.CreateMapping)
	g.DELETE("/level-mappings/:id", write, h.DeleteMapping)
}

func registerExamRoutes(g *gin.RouterGroup, handlers *Handlers) {
	read := middleware.RequirePermission(model.PermissionExamsRead)
	write := middleware.RequirePermission(model.PermissionExamsWrite)
	upload := middleware.RequirePermission(model.PermissionMediaUpload)
	sessionsRead := middleware.RequirePermission(model.PermissionSessionsRead)

	exams := handlers.Exam
	g.GET("/exams", read, exams.ListExams)
	g.POST("/exams", write, exams.CreateExam)
	g.GET("/exams/:exam_id", read, exams.GetExam)
	g.PATCH("/exams/:exam_id", write, exams.UpdateExam)
	g.DELETE("/exams/:exam_id", write, exams.DeleteExam)
	g.PUT("/exams/:exam_id/classes", write, exams.SetExamClasses)
	g.GET("/exams/:exam_id/results", sessionsRead, exams.GetExamResults)

	questions := handlers.Question
	g.GET("/exams/:exam_id/questions", read, questions.ListQuestions)
	g.PUT("/exams/:exam_id/questions", write, questions.ReplaceQuestions)
	g.PATCH("/exams/:exam_id/questions/:question_id", write, questions.UpdateQuestion)

	media := handlers.Media
	g.POST("/exams/:exam_id/pdf", upload, media.UploadPDF)
	g.GET("/exams/:exam_id/audio", read, media.ListAudio)
	g.POST("/exams/:exam_id/audio", upload, media.UploadAudio)
	g.DELETE("/exams/:exam_id/audio/:audio_id", upload, media.DeleteAudio)

	g.GET("/sessions/:session_id", sessionsRead, exams.GetSessionDetail)
	g.PUT("/sessions/:session_id/answers/:question_id/grade",
		middleware.RequirePermission(model.PermissionSessionsGrade),
		exams.GradeAnswer,
	)
}

func registerClassRoutes(g *gin.RouterGroup, h *handler.ClassHandler) {
	read := middleware.RequirePermission(model.PermissionClassesRead)
	write := middleware.RequirePermission(model.PermissionClassesWrite)

	g.GET("/classes", read, h.ListClasses)
	g.POST("/classes", write, h.CreateClass)
	g.GET("/classes/:code", read, h.GetClass)
	g.PUT("/classes/:code", write, h.UpdateClass)
	g.DELETE("/classes/:code", write, h.DeleteClass)

	g.GET("/classes/:code/teachers", read, h.ListClassTeachers)
	g.POST("/classes/:code/teachers", write, h.AssignTeacher)
	g.GET("/teachers/:id/assignments", read, h.ListTeacherAssignments)
	g.PUT("/assignments/:id", write, h.UpdateAssignment)
	g.DELETE("/assignments/:id", write, h.RevokeAssignment)

	g.GET("/classes/:code/students", read, h.ListClassStudents)
	g.POST("/classes/:code/students", write, h.AssignStudent)
	g.DELETE("/classes/:code/students/:student_id", write, h.UnassignStudent)
}

func registerPeopleRoutes(g *gin.RouterGroup, handlers *Handlers) {
	students := handlers.StudentMgmt
	studentsRead := middleware.RequirePermission(model.PermissionStudentsRead)
	studentsWrite := middleware.RequirePermission(model.PermissionStudentsWrite)
	g.GET("/students", studentsRead, students.ListStudents)
	g.GET("/students/:id", studentsRead, students.GetStudent)
	g.GET("/students/:id/sessions",
		middleware.RequireAnyPermission(model.PermissionStudentsRead, model.PermissionSessionsRead),
		students.GetStudentHistory,
	)
	g.PUT("/students/:id", studentsWrite, students.UpdateStudent)
	g.DELETE("/students/:id", studentsWrite, students.DeleteStudent)
	g.POST("/students/:id/reset-session",
		middleware.RequirePermission(model.PermissionStudentsResetSession),
		students.ResetSession,
	)

	teachers := handlers.Teacher
	teachersRead := middleware.RequirePermission(model.PermissionTeachersRead)
	teachersWrite := middleware.RequirePermission(model.PermissionTeachersWrite)
	g.GET("/teachers", teachersRead, teachers.ListTeachers)
	g.GET("/teachers/:id", teachersRead, teachers.GetTeacher)
	g.POST("/teachers", teachersWrite, teachers.CreateTeacher)
	g.PUT("/teachers/:id", teachersWrite, teachers.UpdateTeacher)
	g.DELETE("/teachers/:id", teachersWrite, teachers.DeactivateTeacher)

	roles := handlers.Role
	rolesRead := middleware.RequirePermission(model.PermissionRolesRead)
	rolesWrite := middleware.RequirePermission(model.PermissionRolesWrite)
	g.GET("/permissions", rolesRead, roles.ListPermissions)
	g.GET("/roles", rolesRead, roles.ListRoles)
	g.GET("/roles/:id", rolesRead, roles.GetRole)
	g.POST("/roles", rolesWrite, roles.CreateRole)
	g.PUT("/roles/:id", rolesWrite, roles.UpdateRole)
	g.DELETE("/roles/:id", rolesWrite, roles.DeleteRole)
}
