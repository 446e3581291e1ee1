package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRequestIDMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/ping", func(c *gin.Context) { Success(c, http.StatusOK, "pong") })

	tests := []struct {
		name   string
		header string
		keep   bool
	}{
		{"missing", "", false},
		{"client id kept", "sheet-42.retry_3", true},
		{"too long", strings.Repeat("a", maxRequestIDLength+1), false},
		{"log injection", "abc\ninjected=1", false},
		{"spaces", "a b", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/ping", nil)
			if tt.header != "" {
				req.Header.Set(HeaderRequestID, tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			got := w.Header().Get(HeaderRequestID)
			if tt.keep && got != tt.header {
				t.Fatalf("request id = %q, want %q", got, tt.header)
			}
			if !tt.keep && (got == tt.header || !validRequestID(got)) {
				t.Fatalf("request id = %q, want a generated id", got)
			}

			var body Response
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Metadata.RequestID != got {
				t.Errorf("metadata request_id = %q, header = %q", body.Metadata.RequestID, got)
			}
		})
	}
}

func TestMetadataServerTime(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	before := time.Now().UnixMilli()
	Fail(c, http.StatusGone, ErrSessionExpired)
	after := time.Now().UnixMilli()

	var body Response
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if st := body.Metadata.ServerTime; st < before || st > after {
		t.Errorf("server_time_ms = %d, want within [%d, %d]", st, before, after)
	}
	if body.Metadata.RequestID == "" {
		t.Error("request_id empty without middleware")
	}
	if body.Error == nil || body.Error.Code != ErrSessionExpired {
		t.Errorf("error = %+v", body.Error)
	}
}
