package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/primepath/primepath-backend/internal/config"
	"github.com/primepath/primepath-backend/internal/model"
	"github.com/primepath/primepath-backend/internal/repository"
	"github.com/rs/zerolog"
)

type memStates struct {
	states map[string]OAuthState
}

func (m *memStates) Save(_ context.Context, state string, s OAuthState, _ time.Duration) error {
	m.states[state] = s
	return nil
}

func (m *memStates) Take(_ context.Context, state string) (*OAuthState, error) {
	s, ok := m.states[state]
	if !ok {
		return nil, ErrInvalidOAuthState
	}
	delete(m.states, state)
	return &s, nil
}

type fakeIdentities struct {
	byKey map[string]model.OAuthIdentity
}

func (f *fakeIdentities) Get(_ context.Context, provider, puid string) (*model.OAuthIdentity, error) {
	i, ok := f.byKey[provider+"/"+puid]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &i, nil
}

func (f *fakeIdentities) Upsert(_ context.Context, i *model.OAuthIdentity) error {
	f.byKey[i.Provider+"/"+i.ProviderUserID] = *i
	return nil
}

type fakeAccounts struct {
	teachers map[int]model.Teacher
}

func (f *fakeAccounts) GetByID(_ context.Context, id int) (*model.Teacher, error) {
	t, ok := f.teachers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &t, nil
}

func (f *fakeAccounts) GetByEmail(_ context.Context, email string) (*model.Teacher, error) {
	for _, t := range f.teachers {
		if t.Email == email {
			return &t, nil
		}
	}
	return nil, repository.ErrNotFound
}

type fakeStudents struct {
	students map[int]model.StudentProfile
}

func (f *fakeStudents) GetByID(_ context.Context, id int) (*model.StudentProfile, error) {
	s, ok := f.students[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &s, nil
}

func (f *fakeStudents) Create(_ context.Context, s *model.StudentProfile) error {
	s.ID = len(f.students) + 100
	f.students[s.ID] = *s
	return nil
}

type fakeIssuer struct{}

func (fakeIssuer) IssueToken(_ context.Context, t *model.Teacher) (*model.TeacherLoginResponse, error) {
	return &model.TeacherLoginResponse{Token: "teacher-token", Teacher: *t, Permissions: []string{"exams:read"}}, nil
}

type fakeStudentIssuer struct{}

func (fakeStudentIssuer) IssueToken(_ context.Context, s *model.StudentProfile) (*model.StudentLoginResponse, error) {
	return &model.StudentLoginResponse{Token: "student-token", Student: *s}, nil
}

// newProviderServer fakes a token endpoint and a userinfo endpoint.
func newProviderServer(t *testing.T, profile any) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if r.PostForm.Get("code") != "good-code" {
			http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
			return
		}
		if r.PostForm.Get("code_verifier") == "" {
			t.Error("token request has no code_verifier")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at-1","token_type":"Bearer","refresh_token":"rt-1","expires_in":3600}`))
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer at-1" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(profile)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func providerAt(srv *httptest.Server, name string) config.ProviderConfig {
	return config.ProviderConfig{
		Name:         name,
		ClientID:     "client",
		ClientSecret: "secret",
		RedirectURI:  "http://api.test/callback",
		AuthURL:      srv.URL + "/auth",
		TokenURL:     srv.URL + "/token",
		UserInfoURL:  srv.URL + "/userinfo",
		Scopes:       []string{"email"},
	}
}

type oauthFixture struct {
	svc        *OAuthService
	states     *memStates
	identities *fakeIdentities
	students   *fakeStudents
}

func newOAuthFixture(t *testing.T, provider string, profile any) *oauthFixture {
	t.Helper()
	srv := newProviderServer(t, profile)
	f := &oauthFixture{
		states:     &memStates{states: map[string]OAuthState{}},
		identities: &fakeIdentities{byKey: map[string]model.OAuthIdentity{}},
		students:   &fakeStudents{students: map[int]model.StudentProfile{}},
	}
	cfg := config.OAuthConfig{
		Providers:         map[string]config.ProviderConfig{provider: providerAt(srv, provider)},
		RedirectAllowlist: []string{"http://app.test/done"},
		StateTTL:          time.Minute,
	}
	teachers := &fakeAccounts{teachers: map[int]model.Teacher{
		7: {ID: 7, Email: "kim@school.test", Name: "Kim", IsActive: true},
	}}
	f.svc = NewOAuthService(cfg, f.states, f.identities, teachers, f.students,
		fakeIssuer{}, fakeStudentIssuer{}, zerolog.Nop())
	return f
}

// start runs Start and returns the state embedded in the authorization URL.
func (f *oauthFixture) start(t *testing.T, provider, redirect string) string {
	t.Helper()
	authURL, err := f.svc.Start(context.Background(), provider, redirect)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	u, err := url.Parse(authURL)
	if err != nil {
		t.Fatalf("parse auth url: %v", err)
	}
	q := u.Query()
	if q.Get("code_challenge_method") != "S256" || q.Get("code_challenge") == "" {
		t.Errorf("auth url has no PKCE challenge: %s", authURL)
	}
	if q.Get("client_id") != "client" {
		t.Errorf("client_id = %q", q.Get("client_id"))
	}
	return q.Get("state")
}

func TestOAuthGoogleLinksTeacherByVerifiedEmail(t *testing.T) {
	f := newOAuthFixture(t, config.ProviderGoogle, map[string]any{
		"sub": "g-1", "email": "Kim@School.test", "email_verified": true, "name": "Kim",
	})
	state := f.start(t, config.ProviderGoogle, "http://app.test/done")

	res, err := f.svc.Callback(context.Background(), config.ProviderGoogle, "good-code", state)
	if err != nil {
		t.Fatalf("Callback: %v", err)
	}
	if res.SubjectType != model.SubjectTeacher || res.Teacher == nil || res.Teacher.ID != 7 {
		t.Errorf("result = %+v, want teacher 7", res)
	}
	if res.Token != "teacher-token" || res.RedirectTo != "http://app.test/done" {
		t.Errorf("token/redirect = %q/%q", res.Token, res.RedirectTo)
	}
	linked, ok := f.identities.byKey["google/g-1"]
	if !ok || linked.SubjectID != 7 || linked.AccessToken != "at-1" || linked.ExpiresAt == nil {
		t.Errorf("identity = %+v", linked)
	}

	if _, err := f.svc.Callback(context.Background(), config.ProviderGoogle, "good-code", state); !errors.Is(err, ErrInvalidOAuthState) {
		t.Errorf("reused state: err = %v, want ErrInvalidOAuthState", err)
	}
}

func TestOAuthGoogleRejectsUnverifiedOrUnknownEmail(t *testing.T) {
	tests := []struct {
		name    string
		profile map[string]any
		want    error
	}{
		{"unverified", map[string]any{"sub": "g-2", "email": "kim@school.test", "email_verified": false}, ErrEmailNotVerified},
		{"no teacher", map[string]any{"sub": "g-3", "email": "nobody@school.test", "email_verified": true}, ErrNoLinkedAccount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newOAuthFixture(t, config.ProviderGoogle, tt.profile)
			state := f.start(t, config.ProviderGoogle, "")
			_, err := f.svc.Callback(context.Background(), config.ProviderGoogle, "good-code", state)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestOAuthKakaoProvisionsStudentOnce(t *testing.T) {
	f := newOAuthFixture(t, config.ProviderKakao, map[string]any{
		"id": 4242,
		"kakao_account": map[string]any{
			"email": "minji@kakao.test", "is_email_valid": true, "is_email_verified": true,
			"profile": map[string]any{"nickname": "Minji"},
		},
	})

	state := f.start(t, config.ProviderKakao, "")
	res, err := f.svc.Callback(context.Background(), config.ProviderKakao, "good-code", state)
	if err != nil {
		t.Fatalf("Callback: %v", err)
	}
	if res.SubjectType != model.SubjectStudent || res.Student == nil {
		t.Fatalf("result = %+v, want student", res)
	}
	if res.Student.StudentCode != "KAKAO4242" || res.Student.Name != "Minji" || res.Student.Grade != provisionedGrade {
		t.Errorf("provisioned student = %+v", res.Student)
	}
	if res.Student.Email == nil || *res.Student.Email != "minji@kakao.test" {
		t.Errorf("email = %v", res.Student.Email)
	}

	state = f.start(t, config.ProviderKakao, "")
	again, err := f.svc.Callback(context.Background(), config.ProviderKakao, "good-code", state)
	if err != nil {
		t.Fatalf("second Callback: %v", err)
	}
	if again.Student.ID != res.Student.ID || len(f.students.students) != 1 {
		t.Errorf("second login provisioned another student: %d students", len(f.students.students))
	}
}

func TestOAuthErrors(t *testing.T) {
	f := newOAuthFixture(t, config.ProviderGoogle, map[string]any{"sub": "g-1"})
	ctx := context.Background()

	if _, err := f.svc.Start(ctx, "github", ""); !errors.Is(err, ErrUnknownProvider) {
		t.Errorf("unknown provider: %v", err)
	}
	if _, err := f.svc.Start(ctx, config.ProviderGoogle, "http://evil.test/"); !errors.Is(err, ErrRedirectNotAllowed) {
		t.Errorf("foreign redirect: %v", err)
	}
	if _, err := f.svc.Callback(ctx, config.ProviderGoogle, "good-code", "missing"); !errors.Is(err, ErrInvalidOAuthState) {
		t.Errorf("unknown state: %v", err)
	}

	state := f.start(t, config.ProviderGoogle, "")
	if _, err := f.svc.Callback(ctx, config.ProviderGoogle, "bad-code", state); !errors.Is(err, ErrOAuthExchangeFailed) {
		t.Errorf("bad code: %v", err)
	}
}

func TestIsAllowedRedirect(t *testing.T) {
	tests := []struct {
		uri       string
		allowlist []string
		want      bool
	}{
		{"http://a.test/cb", nil, false},
		{"http://a.test/cb", []string{"http://a.test/cb"}, true},
		{"http://a.test/cb", []string{" http://a.test/cb "}, true},
		{"http://b.test/cb", []string{"http://a.test/cb"}, false},
	}
	for _, tt := range tests {
		if got := isAllowedRedirect(tt.uri, tt.allowlist); got != tt.want {
			t.Errorf("isAllowedRedirect(%q, %v) = %v, want %v", tt.uri, tt.allowlist, got, tt.want)
		}
	}
}
