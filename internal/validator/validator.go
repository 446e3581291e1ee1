package validator

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	govalidator "github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

const (
	minGrade = 1
	maxGrade = 12
)

var (
	// custom validation tags & texts
	gradeTag  = "grade"
	gradeText = "{0} must be a grade between 1 and 12"

	percentileTag  = "percentile"
	percentileText = "{0} must be between 0 and 100"

	classCodeTag   = "class_code"
	classCodeText  = "{0} must be 2-20 upper-case letters, digits or dashes"
	classCodeRegex = regexp.MustCompile(`^[A-Z0-9][A-Z0-9-]{1,19}$`)
)

// trans is the singleton English translator for validation errors.
var trans ut.Translator

// Setup registers the validator with English translations and the custom
// tags on Gin's binding engine. Call once during application startup.
func Setup() {
	if v, ok := binding.Validator.Engine().(*govalidator.Validate); ok {
		enLocale := en.New()
		uni := ut.New(enLocale, enLocale)
		trans, _ = uni.GetTranslator("en")
		Register(v, trans)
	}
}

// Register installs JSON field names, the default English translations and
// the custom tags on v.
func Register(v *govalidator.Validate, t ut.Translator) {
	// Use JSON tag name for field names in error messages.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		tag := fld.Tag.Get("json")
		if tag == "" {
			tag = fld.Tag.Get("form")
		}
		name := strings.SplitN(tag, ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = en_translations.RegisterDefaultTranslations(v, t)

	_ = v.RegisterValidation(gradeTag, gradeValidation)
	registerTranslation(v, t, gradeTag, gradeText)
	_ = v.RegisterValidation(percentileTag, percentileValidation)
	registerTranslation(v, t, percentileTag, percentileText)
	_ = v.RegisterValidation(classCodeTag, classCodeValidation)
	registerTranslation(v, t, classCodeTag, classCodeText)
}

func registerTranslation(v *govalidator.Validate, t ut.Translator, tag, text string) {
	_ = v.RegisterTranslation(
		tag, t,
		func(t ut.Translator) error { return t.Add(tag, text, true) },
		func(t ut.Translator, fe govalidator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

func gradeValidation(fl govalidator.FieldLevel) bool {
	f := fl.Field()
	switch f.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return f.Int() >= minGrade && f.Int() <= maxGrade
	}
	return false
}

func percentileValidation(fl govalidator.FieldLevel) bool {
	f := fl.Field()
	switch f.Kind() {
	case reflect.Float32, reflect.Float64:
		return f.Float() >= 0 && f.Float() <= 100
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return f.Int() >= 0 && f.Int() <= 100
	}
	return false
}

func classCodeValidation(fl govalidator.FieldLevel) bool {
	return classCodeRegex.MatchString(fl.Field().String())
}

// TranslateErrors takes a binding/validation error and returns a map of
// field name to human-readable error message. If the error is not a
// validation error, it returns a single-key map with "detail".
func TranslateErrors(err error) map[string]string {
	fields := make(map[string]string)

	var ve govalidator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			if trans != nil {
				fields[fe.Field()] = fe.Translate(trans)
			} else {
				fields[fe.Field()] = fe.Error()
			}
		}
		return fields
	}

	// Not a validation error (e.g., JSON syntax error).
	fields["detail"] = err.Error()
	return fields
}

// Bind binds and validates the request body into dst.
// Returns nil on success or a translated field error map on failure.
func Bind(c *gin.Context, dst interface{}) map[string]string {
	if err := c.ShouldBindJSON(dst); err != nil {
		return TranslateErrors(err)
	}
	return nil
}

// BindForm binds and validates multipart or urlencoded form values into dst.
func BindForm(c *gin.Context, dst interface{}) map[string]string {
	if err := c.ShouldBind(dst); err != nil {
		return TranslateErrors(err)
	}
	return nil
}
