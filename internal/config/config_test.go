package config

import (
	"testing"
	"time"
)

func TestParseOrigins(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"empty allows all", "", nil},
		{"single", "http://a.com", []string{"http://a.com"}},
		{"trims and skips blanks", " http://a.com , ,http://b.com ", []string{"http://a.com", "http://b.com"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := parseOrigins(tc.raw)
			if len(got) != len(tc.want) {
				t.Fatalf("parseOrigins(%q) = %v, want %v", tc.raw, got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf("parseOrigins(%q)[%d] = %q, want %q", tc.raw, i, got[i], tc.want[i])
				}
			}
		})
	}
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("PRIMEPATH_TEST_INT", "42")
	if got := getEnvInt("PRIMEPATH_TEST_INT", 7); got != 42 {
		t.Fatalf("getEnvInt = %d, want 42", got)
	}
	t.Setenv("PRIMEPATH_TEST_INT", "not-a-number")
	if got := getEnvInt("PRIMEPATH_TEST_INT", 7); got != 7 {
		t.Fatalf("getEnvInt with invalid value = %d, want fallback 7", got)
	}
}

func TestLoadOAuthSkipsProvidersWithoutCredentials(t *testing.T) {
	t.Setenv("PRIMEPATH_OAUTH_KAKAO_CLIENT_ID", "kakao-client")
	t.Setenv("PRIMEPATH_OAUTH_KAKAO_REDIRECT_URI", "http://localhost:8080/api/v1/auth/oauth/kakao/callback")
	t.Setenv("PRIMEPATH_OAUTH_REDIRECT_ALLOWLIST", "http://localhost:3000/login,http://localhost:3000/student")
	t.Setenv("PRIMEPATH_OAUTH_STATE_TTL", "5m")

	cfg := LoadOAuth()

	if _, ok := cfg.Providers[ProviderGoogle]; ok {
		t.Fatal("google provider should be disabled without client id")
	}
	kakao, ok := cfg.Providers[ProviderKakao]
	if !ok {
		t.Fatal("kakao provider should be enabled")
	}
	if kakao.TokenURL != "https://kauth.kakao.com/oauth/token" {
		t.Fatalf("kakao token url = %q", kakao.TokenURL)
	}
	if len(kakao.Scopes) != 2 {
		t.Fatalf("kakao scopes = %v, want default pair", kakao.Scopes)
	}
	if cfg.StateTTL != 5*time.Minute {
		t.Fatalf("state ttl = %v, want 5m", cfg.StateTTL)
	}
	if len(cfg.RedirectAllowlist) != 2 {
		t.Fatalf("allowlist = %v", cfg.RedirectAllowlist)
	}
}

func TestCacheKeys(t *testing.T) {
	if got := CacheKey.StudentLoginKey(12); got != "login:student:12" {
		t.Fatalf("StudentLoginKey = %q", got)
	}
	if got := CacheKey.SessionAnswersKey("abc"); got != "session:abc:answers" {
		t.Fatalf("SessionAnswersKey = %q", got)
	}
	if got := CacheKey.SessionMetaKey("abc"); got != "session:abc:meta" {
		t.Fatalf("SessionMetaKey = %q", got)
	}
	if got := CacheKey.ExamPayloadKey("e1"); got != "exam:e1:payload" {
		t.Fatalf("ExamPayloadKey = %q", got)
	}
	if got := CacheKey.OAuthStateKey("xyz"); got != "oauth:state:xyz" {
		t.Fatalf("OAuthStateKey = %q", got)
	}
}
