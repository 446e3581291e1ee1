package validator

import (
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	govalidator "github.com/go-playground/validator/v10"
)

type sample struct {
	Grade      int      `json:"grade" binding:"required,grade"`
	Percentile *float64 `json:"percentile" binding:"required,percentile"`
	ClassCode  string   `json:"class_code" binding:"required,class_code"`
}

func newValidate(t *testing.T) *govalidator.Validate {
	t.Helper()
	v := govalidator.New()
	v.SetTagName("binding")
	enLocale := en.New()
	tr, _ := ut.New(enLocale, enLocale).GetTranslator("en")
	Register(v, tr)
	trans = tr
	return v
}

func TestCustomTags(t *testing.T) {
	v := newValidate(t)
	pct := func(f float64) *float64 { return &f }

	tests := []struct {
		name    string
		in      sample
		wantErr string
	}{
		{"valid", sample{Grade: 5, Percentile: pct(37.5), ClassCode: "G5-A"}, ""},
		{"grade too high", sample{Grade: 13, Percentile: pct(10), ClassCode: "G5-A"}, "grade"},
		{"negative percentile", sample{Grade: 1, Percentile: pct(-1), ClassCode: "G5-A"}, "percentile"},
		{"percentile above 100", sample{Grade: 1, Percentile: pct(100.5), ClassCode: "G5-A"}, "percentile"},
		{"lower-case class", sample{Grade: 1, Percentile: pct(0), ClassCode: "g5-a"}, "class_code"},
		{"class too short", sample{Grade: 1, Percentile: pct(0), ClassCode: "G"}, "class_code"},
		{"class leading dash", sample{Grade: 1, Percentile: pct(0), ClassCode: "-G5"}, "class_code"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(tt.in)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error on %s", tt.wantErr)
			}
			fields := TranslateErrors(err)
			msg, ok := fields[tt.wantErr]
			if !ok {
				t.Fatalf("fields = %v, want key %q", fields, tt.wantErr)
			}
			if msg == "" {
				t.Errorf("empty message for %s", tt.wantErr)
			}
		})
	}
}

func TestTranslatedMessageUsesJSONName(t *testing.T) {
	v := newValidate(t)
	pct := 50.0
	err := v.Struct(sample{Grade: 0, Percentile: &pct, ClassCode: "G5"})
	fields := TranslateErrors(err)
	if got := fields["grade"]; got != "grade is a required field" {
		t.Errorf("grade message = %q", got)
	}

	err = v.Struct(sample{Grade: 20, Percentile: &pct, ClassCode: "G5"})
	fields = TranslateErrors(err)
	if got := fields["grade"]; got != "grade must be a grade between 1 and 12" {
		t.Errorf("grade message = %q", got)
	}
}
