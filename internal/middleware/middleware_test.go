package middleware

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/primepath/primepath-backend/internal/model"
	"github.com/primepath/primepath-backend/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeValidator map[string]*service.Claims

func (f fakeValidator) ValidateToken(token string) (*service.Claims, error) {
	if token == "expired" {
		return nil, jwt.ErrTokenExpired
	}
	if c, ok := f[token]; ok {
		return c, nil
	}
	return nil, errors.New("bad token")
}

type fakeLogins map[int]string

func (f fakeLogins) ValidateStudentSession(_ context.Context, studentID int, jti string) error {
	stored, ok := f[studentID]
	if !ok {
		return service.ErrNoActiveLogin
	}
	if stored != jti {
		return service.ErrLoginInvalidated
	}
	return nil
}

var tokens = fakeValidator{
	"student": {TokenType: service.TokenTypeStudent, UserID: 7, RegisteredClaims: jwt.RegisteredClaims{ID: "jti-7"}},
	"teacher": {TokenType: service.TokenTypeTeacher, UserID: 3, Permissions: []string{string(model.PermissionExamsRead)}},
}

func serve(r *gin.Engine, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func ok(c *gin.Context) { c.String(http.StatusOK, "ok") }

func TestRequireTokenType(t *testing.T) {
	r := gin.New()
	r.GET("/student", RequireStudentJWT(tokens), ok)
	r.GET("/teacher", RequireTeacherJWT(tokens), ok)

	tests := []struct {
		path, token string
		status      int
		code        string
	}{
		{"/student", "student", http.StatusOK, ""},
		{"/student", "", http.StatusUnauthorized, "TOKEN_REQUIRED"},
		{"/student", "garbage", http.StatusUnauthorized, "TOKEN_INVALID"},
		{"/student", "expired", http.StatusUnauthorized, "TOKEN_EXPIRED"},
		{"/student", "teacher", http.StatusForbidden, "STUDENT_ACCESS_ONLY"},
		{"/teacher", "student", http.StatusForbidden, "TEACHER_ACCESS_ONLY"},
		{"/teacher", "teacher", http.StatusOK, ""},
	}
	for _, tt := range tests {
		w := serve(r, http.MethodGet, tt.path, tt.token)
		if w.Code != tt.status {
			t.Errorf("%s with %q: status = %d, want %d", tt.path, tt.token, w.Code, tt.status)
		}
		if tt.code != "" && !strings.Contains(w.Body.String(), tt.code) {
			t.Errorf("%s with %q: body = %s, want %s", tt.path, tt.token, w.Body.String(), tt.code)
		}
	}
}

func TestOptionalStudentJWT(t *testing.T) {
	r := gin.New()
	r.GET("/", OptionalStudentJWT(tokens), func(c *gin.Context) {
		if claims := GetClaims(c); claims != nil {
			c.String(http.StatusOK, "student")
			return
		}
		c.String(http.StatusOK, "anonymous")
	})

	if w := serve(r, http.MethodGet, "/", ""); w.Body.String() != "anonymous" {
		t.Errorf("no token: %q", w.Body.String())
	}
	if w := serve(r, http.MethodGet, "/", "student"); w.Body.String() != "student" {
		t.Errorf("student token: %q", w.Body.String())
	}
	if w := serve(r, http.MethodGet, "/", "teacher"); w.Body.String() != "anonymous" {
		t.Errorf("teacher token: %q", w.Body.String())
	}
	if w := serve(r, http.MethodGet, "/", "garbage"); w.Code != http.StatusUnauthorized {
		t.Errorf("bad token: status %d", w.Code)
	}
}

func TestRequirePermission(t *testing.T) {
	r := gin.New()
	r.GET("/read", RequireTeacherJWT(tokens), RequirePermission(model.PermissionExamsRead), ok)
	r.GET("/write", RequireTeacherJWT(tokens), RequirePermission(model.PermissionExamsWrite), ok)
	r.GET("/any", RequireTeacherJWT(tokens), RequireAnyPermission(model.PermissionExamsWrite, model.PermissionExamsRead), ok)

	if w := serve(r, http.MethodGet, "/read", "teacher"); w.Code != http.StatusOK {
		t.Errorf("read: %d", w.Code)
	}
	if w := serve(r, http.MethodGet, "/write", "teacher"); w.Code != http.StatusForbidden {
		t.Errorf("write: %d", w.Code)
	}
	if w := serve(r, http.MethodGet, "/any", "teacher"); w.Code != http.StatusOK {
		t.Errorf("any: %d", w.Code)
	}
}

func TestCheckSingleDeviceSession(t *testing.T) {
	tests := []struct {
		name   string
		logins fakeLogins
		status int
	}{
		{"active login", fakeLogins{7: "jti-7"}, http.StatusOK},
		{"replaced login", fakeLogins{7: "jti-other"}, http.StatusUnauthorized},
		{"reset login", fakeLogins{}, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/", RequireStudentJWT(tokens), CheckSingleDeviceSession(tt.logins), ok)
			if w := serve(r, http.MethodGet, "/", "student"); w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}
		})
	}
}

func TestRateLimiterAllow(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(ctx, 2, time.Minute)
	rl.now = func() time.Time { return now }

	if !rl.Allow("1.1.1.1") || !rl.Allow("1.1.1.1") {
		t.Fatal("first two requests should pass")
	}
	if rl.Allow("1.1.1.1") {
		t.Fatal("third request should be limited")
	}
	if !rl.Allow("2.2.2.2") {
		t.Fatal("other IPs have their own bucket")
	}

	now = now.Add(time.Minute)
	if !rl.Allow("1.1.1.1") {
		t.Fatal("bucket should refill after the interval")
	}

	now = now.Add(10 * time.Minute)
	rl.cleanup()
	rl.mu.Lock()
	n := len(rl.visitors)
	rl.mu.Unlock()
	if n != 0 {
		t.Errorf("cleanup left %d visitors", n)
	}
}

func TestBrotliCompressesLargeJSON(t *testing.T) {
	big := strings.Repeat("abcdefgh", 512)
	r := gin.New()
	r.Use(Brotli())
	r.GET("/json", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"v": big}) })
	r.GET("/small", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"v": "x"}) })
	r.GET("/text", func(c *gin.Context) { c.String(http.StatusOK, big) })

	get := func(path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Accept-Encoding", "gzip, br;q=0.9")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := get("/json")
	if w.Header().Get("Content-Encoding") != "br" {
		t.Fatalf("large JSON not compressed: %v", w.Header())
	}
	body, err := io.ReadAll(brotli.NewReader(w.Body))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.Contains(string(body), big) {
		t.Error("decoded body lost content")
	}

	if w := get("/small"); w.Header().Get("Content-Encoding") != "" || !strings.Contains(w.Body.String(), `"x"`) {
		t.Errorf("small body: encoding %q body %q", w.Header().Get("Content-Encoding"), w.Body.String())
	}
	if w := get("/text"); w.Header().Get("Content-Encoding") != "" || w.Body.Len() != len(big) {
		t.Errorf("text body should pass through, encoding %q", w.Header().Get("Content-Encoding"))
	}
}
