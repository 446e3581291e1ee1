package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/primepath/primepath-backend/internal/config"
	"github.com/primepath/primepath-backend/internal/model"
	"github.com/primepath/primepath-backend/internal/repository"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

// provisionedGrade is the grade given to students created on first Kakao login
// until they update their profile.
const provisionedGrade = 1

// subjectFor maps each provider to the account type it signs in.
var subjectFor = map[string]model.SubjectType{
	config.ProviderGoogle: model.SubjectTeacher,
	config.ProviderKakao:  model.SubjectStudent,
}

// OAuthState is the pending authorization kept between start and callback.
type OAuthState struct {
	Provider     string `json:"provider"`
	RedirectTo   string `json:"redirect_to,omitempty"`
	CodeVerifier string `json:"code_verifier"`
}

// StateStore keeps pending authorization states. Take removes the state so it
// can be used once.
type StateStore interface {
	Save(ctx context.Context, state string, s OAuthState, ttl time.Duration) error
	Take(ctx context.Context, state string) (*OAuthState, error)
}

// RedisStateStore is a StateStore backed by Redis keys with a TTL.
type RedisStateStore struct {
	rdb *redis.Client
}

// NewRedisStateStore creates a new RedisStateStore.
func NewRedisStateStore(rdb *redis.Client) *RedisStateStore {
	return &RedisStateStore{rdb: rdb}
}

// Save stores s under state for ttl.
func (r *RedisStateStore) Save(ctx context.Context, state string, s OAuthState, ttl time.Duration) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return r.rdb.Set(ctx, config.CacheKey.OAuthStateKey(state), data, ttl).Err()
}

// Take returns and deletes the stored state.
func (r *RedisStateStore) Take(ctx context.Context, state string) (*OAuthState, error) {
	data, err := r.rdb.GetDel(ctx, config.CacheKey.OAuthStateKey(state)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrInvalidOAuthState
	}
	if err != nil {
		return nil, err
	}
	var s OAuthState
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, ErrInvalidOAuthState
	}
	return &s, nil
}

// IdentityStore reads and writes provider account links.
type IdentityStore interface {
	Get(ctx context.Context, provider, providerUserID string) (*model.OAuthIdentity, error)
	Upsert(ctx context.Context, i *model.OAuthIdentity) error
}

// TeacherAccounts finds teachers for Google logins.
type TeacherAccounts interface {
	GetByID(ctx context.Context, id int) (*model.Teacher, error)
	GetByEmail(ctx context.Context, email string) (*model.Teacher, error)
}

// StudentAccounts finds and provisions students for Kakao logins.
type StudentAccounts interface {
	GetByID(ctx context.Context, id int) (*model.StudentProfile, error)
	Create(ctx context.Context, s *model.StudentProfile) error
}

// TeacherTokenIssuer signs teacher logins.
type TeacherTokenIssuer interface {
	IssueToken(ctx context.Context, t *model.Teacher) (*model.TeacherLoginResponse, error)
}

// StudentTokenIssuer signs student logins.
type StudentTokenIssuer interface {
	IssueToken(ctx context.Context, s *model.StudentProfile) (*model.StudentLoginResponse, error)
}

// OAuthService runs the Google and Kakao authorization-code flows.
type OAuthService struct {
	cfg        config.OAuthConfig
	states     StateStore
	identities IdentityStore
	teachers   TeacherAccounts
	students   StudentAccounts
	teacherTok TeacherTokenIssuer
	studentTok StudentTokenIssuer
	httpClient *http.Client
	log        zerolog.Logger
}

// NewOAuthService creates a new OAuthService.
func NewOAuthService(
	cfg config.OAuthConfig,
	states StateStore,
	identities IdentityStore,
	teachers TeacherAccounts,
	students StudentAccounts,
	teacherTok TeacherTokenIssuer,
	studentTok StudentTokenIssuer,
	log zerolog.Logger,
) *OAuthService {
	return &OAuthService{
		cfg:        cfg,
		states:     states,
		identities: identities,
		teachers:   teachers,
		students:   students,
		teacherTok: teacherTok,
		studentTok: studentTok,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		log:        log.With().Str("component", "oauth_service").Logger(),
	}
}

// Providers lists the configured provider ids.
func (s *OAuthService) Providers() []string {
	out := make([]string, 0, len(s.cfg.Providers))
	for _, id := range []string{config.ProviderGoogle, config.ProviderKakao} {
		if _, ok := s.cfg.Providers[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

func oauthConfig(p config.ProviderConfig) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     p.ClientID,
		ClientSecret: p.ClientSecret,
		RedirectURL:  p.RedirectURI,
		Scopes:       p.Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   p.AuthURL,
			TokenURL:  p.TokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

// Start stores a new state and returns the provider's authorization URL.
// redirectTo must be on the allowlist when set.
func (s *OAuthService) Start(ctx context.Context, provider, redirectTo string) (string, error) {
	p, ok := s.cfg.Providers[provider]
	if !ok {
		return "", ErrUnknownProvider
	}
	redirectTo = strings.TrimSpace(redirectTo)
	if redirectTo != "" && !isAllowedRedirect(redirectTo, s.cfg.RedirectAllowlist) {
		return "", ErrRedirectNotAllowed
	}

	state := uuid.NewString()
	verifier := oauth2.GenerateVerifier()
	err := s.states.Save(ctx, state, OAuthState{Provider: provider, RedirectTo: redirectTo, CodeVerifier: verifier}, s.cfg.StateTTL)
	if err != nil {
		return "", fmt.Errorf("save state: %w", err)
	}
	return oauthConfig(p).AuthCodeURL(state, oauth2.S256ChallengeOption(verifier)), nil
}

// Callback exchanges the code, resolves the linked account and signs a token.
func (s *OAuthService) Callback(ctx context.Context, provider, code, state string) (*model.OAuthLoginResult, error) {
	p, ok := s.cfg.Providers[provider]
	if !ok {
		return nil, ErrUnknownProvider
	}
	if code == "" || state == "" {
		return nil, ErrInvalidOAuthState
	}
	pending, err := s.states.Take(ctx, state)
	if err != nil {
		return nil, err
	}
	if pending.Provider != provider {
		return nil, ErrInvalidOAuthState
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
	conf := oauthConfig(p)
	token, err := conf.Exchange(ctx, code, oauth2.VerifierOption(pending.CodeVerifier))
	if err != nil {
		s.log.Warn().Err(err).Str("provider", provider).Msg("Code exchange failed")
		return nil, ErrOAuthExchangeFailed
	}
	profile, err := s.fetchProfile(ctx, provider, p, conf.Client(ctx, token))
	if err != nil {
		return nil, err
	}

	identity := &model.OAuthIdentity{
		Provider:       provider,
		ProviderUserID: profile.ProviderUserID,
		SubjectType:    subjectFor[provider],
		Email:          profile.Email,
		AccessToken:    token.AccessToken,
		RefreshToken:   token.RefreshToken,
	}
	if !token.Expiry.IsZero() {
		exp := token.Expiry
		identity.ExpiresAt = &exp
	}

	var result *model.OAuthLoginResult
	switch identity.SubjectType {
	case model.SubjectTeacher:
		result, err = s.loginTeacher(ctx, identity, profile)
	case model.SubjectStudent:
		result, err = s.loginStudent(ctx, identity, profile)
	default:
		return nil, ErrUnknownProvider
	}
	if err != nil {
		return nil, err
	}
	result.RedirectTo = pending.RedirectTo

	s.log.Info().Str("provider", provider).Str("subject", string(identity.SubjectType)).
		Int("subject_id", identity.SubjectID).Msg("OAuth login")
	return result, nil
}

func (s *OAuthService) loginTeacher(ctx context.Context, identity *model.OAuthIdentity, profile *model.OAuthProfile) (*model.OAuthLoginResult, error) {
	var teacher *model.Teacher
	linked, err := s.identities.Get(ctx, identity.Provider, identity.ProviderUserID)
	switch {
	case err == nil && linked.SubjectType == model.SubjectTeacher:
		teacher, err = s.teachers.GetByID(ctx, linked.SubjectID)
		if err != nil {
			return nil, err
		}
	case err == nil || errors.Is(err, repository.ErrNotFound):
		if !profile.EmailVerified || profile.Email == "" {
			return nil, ErrEmailNotVerified
		}
		teacher, err = s.teachers.GetByEmail(ctx, profile.Email)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoLinkedAccount
		}
		if err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	identity.SubjectID = teacher.ID
	if err := s.identities.Upsert(ctx, identity); err != nil {
		return nil, fmt.Errorf("store identity: %w", err)
	}
	login, err := s.teacherTok.IssueToken(ctx, teacher)
	if err != nil {
		return nil, err
	}
	return &model.OAuthLoginResult{
		Token:       login.Token,
		SubjectType: model.SubjectTeacher,
		Teacher:     &login.Teacher,
		Permissions: login.Permissions,
	}, nil
}

func (s *OAuthService) loginStudent(ctx context.Context, identity *model.OAuthIdentity, profile *model.OAuthProfile) (*model.OAuthLoginResult, error) {
	var student *model.StudentProfile
	linked, err := s.identities.Get(ctx, identity.Provider, identity.ProviderUserID)
	switch {
	case err == nil && linked.SubjectType == model.SubjectStudent:
		student, err = s.students.GetByID(ctx, linked.SubjectID)
		if err != nil {
			return nil, err
		}
	case err == nil || errors.Is(err, repository.ErrNotFound):
		student, err = s.provisionStudent(ctx, identity.Provider, profile)
		if err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	identity.SubjectID = student.ID
	if err := s.identities.Upsert(ctx, identity); err != nil {
		return nil, fmt.Errorf("store identity: %w", err)
	}
	login, err := s.studentTok.IssueToken(ctx, student)
	if err != nil {
		return nil, err
	}
	return &model.OAuthLoginResult{
		Token:       login.Token,
		SubjectType: model.SubjectStudent,
		Student:     &login.Student,
	}, nil
}

func (s *OAuthService) provisionStudent(ctx context.Context, provider string, profile *model.OAuthProfile) (*model.StudentProfile, error) {
	st := &model.StudentProfile{
		StudentCode: strings.ToUpper(provider) + profile.ProviderUserID,
		Name:        firstNonEmpty(profile.Name, "Student"),
		Grade:       provisionedGrade,
	}
	if profile.EmailVerified && profile.Email != "" {
		email := profile.Email
		st.Email = &email
	}
	err := s.students.Create(ctx, st)
	if errors.Is(err, repository.ErrDuplicate) && st.Email != nil {
		st.Email = nil
		err = s.students.Create(ctx, st)
	}
	if err != nil {
		return nil, fmt.Errorf("provision student: %w", err)
	}
	s.log.Info().Int("student_id", st.ID).Str("provider", provider).Msg("Student provisioned")
	return st, nil
}

func (s *OAuthService) fetchProfile(ctx context.Context, provider string, p config.ProviderConfig, client *http.Client) (*model.OAuthProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.UserInfoURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		s.log.Warn().Err(err).Str("provider", provider).Msg("Profile request failed")
		return nil, ErrOAuthExchangeFailed
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		s.log.Warn().Int("status", resp.StatusCode).Str("provider", provider).Msg("Profile request rejected")
		return nil, ErrOAuthExchangeFailed
	}

	var profile *model.OAuthProfile
	switch provider {
	case config.ProviderGoogle:
		profile, err = decodeGoogleProfile(resp)
	case config.ProviderKakao:
		profile, err = decodeKakaoProfile(resp)
	default:
		return nil, ErrUnknownProvider
	}
	if err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	if profile.ProviderUserID == "" {
		return nil, ErrOAuthExchangeFailed
	}
	return profile, nil
}

func decodeGoogleProfile(resp *http.Response) (*model.OAuthProfile, error) {
	var payload struct {
		Sub           string `json:"sub"`
		Name          string `json:"name"`
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}
	return &model.OAuthProfile{
		ProviderUserID: payload.Sub,
		Email:          strings.ToLower(strings.TrimSpace(payload.Email)),
		EmailVerified:  payload.EmailVerified,
		Name:           firstNonEmpty(payload.Name, payload.Email),
	}, nil
}

func decodeKakaoProfile(resp *http.Response) (*model.OAuthProfile, error) {
	var payload struct {
		ID           int64 `json:"id"`
		KakaoAccount struct {
			Email           string `json:"email"`
			IsEmailValid    bool   `json:"is_email_valid"`
			IsEmailVerified bool   `json:"is_email_verified"`
			Profile         struct {
				Nickname string `json:"nickname"`
			} `json:"profile"`
		} `json:"kakao_account"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}
	id := ""
	if payload.ID != 0 {
		id = strconv.FormatInt(payload.ID, 10)
	}
	acct := payload.KakaoAccount
	return &model.OAuthProfile{
		ProviderUserID: id,
		Email:          strings.ToLower(strings.TrimSpace(acct.Email)),
		EmailVerified:  acct.IsEmailValid && acct.IsEmailVerified,
		Name:           acct.Profile.Nickname,
	}, nil
}

func isAllowedRedirect(uri string, allowlist []string) bool {
	for _, allowed := range allowlist {
		if strings.TrimSpace(allowed) == uri {
			return true
		}
	}
	return false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
