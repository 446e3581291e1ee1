package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// Provider identifiers used in routes and oauth_identities.provider.
const (
	ProviderGoogle = "google"
	ProviderKakao  = "kakao"
)

// OAuthConfig describes the external login providers.
type OAuthConfig struct {
	Providers map[string]ProviderConfig
	// RedirectAllowlist lists frontend URLs the callback may redirect to.
	RedirectAllowlist []string
	StateTTL          time.Duration
}

// ProviderConfig describes one OAuth 2.0 authorization-code provider.
type ProviderConfig struct {
	Name         string
	ClientID     string
	ClientSecret string
	RedirectURI  string
	AuthURL      string
	TokenURL     string
	UserInfoURL  string
	Scopes       []string
}

// Enabled reports whether the provider has credentials configured.
func (p ProviderConfig) Enabled() bool {
	return p.ClientID != "" && p.RedirectURI != ""
}

type oauthEnv struct {
	RedirectAllowlist  []string      `env:"PRIMEPATH_OAUTH_REDIRECT_ALLOWLIST" envSeparator:","`
	StateTTL           time.Duration `env:"PRIMEPATH_OAUTH_STATE_TTL" envDefault:"10m"`
	GoogleClientID     string        `env:"PRIMEPATH_OAUTH_GOOGLE_CLIENT_ID"`
	GoogleClientSecret string        `env:"PRIMEPATH_OAUTH_GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURI  string        `env:"PRIMEPATH_OAUTH_GOOGLE_REDIRECT_URI"`
	GoogleScopes       []string      `env:"PRIMEPATH_OAUTH_GOOGLE_SCOPES" envSeparator:"," envDefault:"openid,email,profile"`
	GoogleAuthURL      string        `env:"PRIMEPATH_OAUTH_GOOGLE_AUTH_URL" envDefault:"https://accounts.google.com/o/oauth2/auth"`
	GoogleTokenURL     string        `env:"PRIMEPATH_OAUTH_GOOGLE_TOKEN_URL" envDefault:"https://oauth2.googleapis.com/token"`
	GoogleUserInfoURL  string        `env:"PRIMEPATH_OAUTH_GOOGLE_USERINFO_URL" envDefault:"https://openidconnect.googleapis.com/v1/userinfo"`
	KakaoClientID      string        `env:"PRIMEPATH_OAUTH_KAKAO_CLIENT_ID"`
	KakaoClientSecret  string        `env:"PRIMEPATH_OAUTH_KAKAO_CLIENT_SECRET"`
	KakaoRedirectURI   string        `env:"PRIMEPATH_OAUTH_KAKAO_REDIRECT_URI"`
	KakaoScopes        []string      `env:"PRIMEPATH_OAUTH_KAKAO_SCOPES" envSeparator:"," envDefault:"profile_nickname,account_email"`
	KakaoAuthURL       string        `env:"PRIMEPATH_OAUTH_KAKAO_AUTH_URL" envDefault:"https://kauth.kakao.com/oauth/authorize"`
	KakaoTokenURL      string        `env:"PRIMEPATH_OAUTH_KAKAO_TOKEN_URL" envDefault:"https://kauth.kakao.com/oauth/token"`
	KakaoUserInfoURL   string        `env:"PRIMEPATH_OAUTH_KAKAO_USERINFO_URL" envDefault:"https://kapi.kakao.com/v2/user/me"`
}

// LoadOAuth parses provider settings from PRIMEPATH_OAUTH_* variables.
// Providers without a client id are left out of the map.
func LoadOAuth() OAuthConfig {
	var raw oauthEnv
	if err := env.Parse(&raw); err != nil {
		return OAuthConfig{Providers: map[string]ProviderConfig{}, StateTTL: 10 * time.Minute}
	}
	return buildOAuthConfig(raw)
}

func buildOAuthConfig(raw oauthEnv) OAuthConfig {
	cfg := OAuthConfig{
		Providers:         map[string]ProviderConfig{},
		RedirectAllowlist: raw.RedirectAllowlist,
		StateTTL:          raw.StateTTL,
	}
	if cfg.StateTTL <= 0 {
		cfg.StateTTL = 10 * time.Minute
	}

	google := ProviderConfig{
		Name:         "Google",
		ClientID:     raw.GoogleClientID,
		ClientSecret: raw.GoogleClientSecret,
		RedirectURI:  raw.GoogleRedirectURI,
		AuthURL:      raw.GoogleAuthURL,
		TokenURL:     raw.GoogleTokenURL,
		UserInfoURL:  raw.GoogleUserInfoURL,
		Scopes:       raw.GoogleScopes,
	}
	if google.Enabled() {
		cfg.Providers[ProviderGoogle] = google
	}

	kakao := ProviderConfig{
		Name:         "Kakao",
		ClientID:     raw.KakaoClientID,
		ClientSecret: raw.KakaoClientSecret,
		RedirectURI:  raw.KakaoRedirectURI,
		AuthURL:      raw.KakaoAuthURL,
		TokenURL:     raw.KakaoTokenURL,
		UserInfoURL:  raw.KakaoUserInfoURL,
		Scopes:       raw.KakaoScopes,
	}
	if kakao.Enabled() {
		cfg.Providers[ProviderKakao] = kakao
	}

	return cfg
}
