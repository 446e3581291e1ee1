package handler

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/primepath/primepath-backend/internal/middleware"
	"github.com/primepath/primepath-backend/internal/model"
	"github.com/primepath/primepath-backend/internal/response"
	"github.com/primepath/primepath-backend/internal/service"
	"github.com/primepath/primepath-backend/internal/validator"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	teacherService *service.TeacherService
	studentService *service.StudentService
	oauthService   *service.OAuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(
	teacherService *service.TeacherService,
	studentService *service.StudentService,
	oauthService *service.OAuthService,
) *AuthHandler {
	return &AuthHandler{
		teacherService: teacherService,
		studentService: studentService,
		oauthService:   oauthService,
	}
}

// TeacherLogin godoc
// POST /api/v1/auth/teacher/login
// Validates email + password, returns JWT with permissions.
func (h *AuthHandler) TeacherLogin(c *gin.Context) {
	var req model.TeacherLoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	login, err := h.teacherService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		failWithError(c, err)
		return
	}
	response.Success(c, http.StatusOK, login)
}

// GetTeacherProfile godoc
// GET /api/v1/auth/teacher/me
// Returns the profile of the currently authenticated teacher.
func (h *AuthHandler) GetTeacherProfile(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	teacher, err := h.teacherService.Get(c.Request.Context(), claims.UserID)
	if err != nil {
		failWithError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"teacher":     teacher,
		"permissions": claims.Permissions,
	})
}

// StudentRegister godoc
// POST /api/v1/auth/student/register
// Creates a student account.
func (h *AuthHandler) StudentRegister(c *gin.Context) {
	var req model.StudentRegisterRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	student, err := h.studentService.Register(c.Request.Context(), req)
	if err != nil {
		failWithError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"student": student})
}

// StudentLogin godoc
// POST /api/v1/auth/student/login
// Validates student code + password, rejects a second active login, returns JWT.
func (h *AuthHandler) StudentLogin(c *gin.Context) {
	var req model.StudentLoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	login, err := h.studentService.Login(c.Request.Context(), req.StudentCode, req.Password)
	if err != nil {
		failWithError(c, err)
		return
	}
	response.Success(c, http.StatusOK, login)
}

// GetStudentProfile godoc
// GET /api/v1/auth/student/me
// Returns the profile of the currently authenticated student.
func (h *AuthHandler) GetStudentProfile(c *gin.Context) {
	studentID, ok := studentFrom(c)
	if !ok {
		return
	}

	student, err := h.studentService.Get(c.Request.Context(), studentID)
	if err != nil {
		failWithError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"student": student})
}

// StudentLogout godoc
// POST /api/v1/auth/student/logout
// Ends the student's login so another device can sign in.
func (h *AuthHandler) StudentLogout(c *gin.Context) {
	studentID, ok := studentFrom(c)
	if !ok {
		return
	}

	if err := h.studentService.Logout(c.Request.Context(), studentID); err != nil {
		failWithError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

// OAuthProviders godoc
// GET /api/v1/auth/oauth/providers
// Lists the configured external login providers.
func (h *AuthHandler) OAuthProviders(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{"providers": h.oauthService.Providers()})
}

// OAuthStart godoc
// GET /api/v1/auth/oauth/:provider/start?redirect_to=...
// Redirects to the provider's consent page. With ?mode=json the URL is returned instead.
func (h *AuthHandler) OAuthStart(c *gin.Context) {
	authURL, err := h.oauthService.Start(c.Request.Context(), c.Param("provider"), c.Query("redirect_to"))
	if err != nil {
		failWithError(c, err)
		return
	}
	if c.Query("mode") == "json" {
		response.Success(c, http.StatusOK, gin.H{"auth_url": authURL})
		return
	}
	c.Redirect(http.StatusFound, authURL)
}

// OAuthCallback godoc
// GET /api/v1/auth/oauth/:provider/callback?code=...&state=...
// Completes the login. When the flow started with a redirect target the
// token is handed over in the URL fragment.
func (h *AuthHandler) OAuthCallback(c *gin.Context) {
	if providerErr := c.Query("error"); providerErr != "" {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrOAuthExchangeFailed, map[string]string{"provider_error": providerErr})
		return
	}

	result, err := h.oauthService.Callback(c.Request.Context(), c.Param("provider"), c.Query("code"), c.Query("state"))
	if err != nil {
		failWithError(c, err)
		return
	}
	if result.RedirectTo != "" {
		c.Redirect(http.StatusFound, redirectWithToken(result))
		return
	}
	response.Success(c, http.StatusOK, result)
}

func redirectWithToken(result *model.OAuthLoginResult) string {
	frag := url.Values{}
	frag.Set("token", result.Token)
	frag.Set("subject_type", string(result.SubjectType))
	return result.RedirectTo + "#" + frag.Encode()
}
