package handler

import (
	"reflect"
	"testing"

	"github.com/primepath/primepath-backend/internal/service"
)

type staticProviders []string

func (p staticProviders) Providers() []string { return p }

func TestHealthServiceReport(t *testing.T) {
	tests := []struct {
		name      string
		oauth     any
		providers []string
	}{
		{"configured", staticProviders{"google", "kakao"}, []string{"google", "kakao"}},
		{"not registered", nil, []string{}},
		{"wrong type", "oauth", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry := service.NewRegistry()
			registry.Register("session", struct{}{})
			if tt.oauth != nil {
				registry.Register("oauth", tt.oauth)
			}

			report := NewHealthHandler(registry, nil, nil).serviceReport()
			if got := report["oauth_providers"]; !reflect.DeepEqual(got, tt.providers) {
				t.Errorf("oauth_providers = %v, want %v", got, tt.providers)
			}
			if names := report["services"].([]string); len(names) == 0 || names[len(names)-1] != "session" {
				t.Errorf("services = %v", names)
			}
		})
	}
}
