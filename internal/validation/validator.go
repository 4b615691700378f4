// Package validation registers the request rules on gin's validator and turns
// binding failures into field-level API errors.
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"yamdb/internal/apperr"
	"yamdb/internal/config"
	"yamdb/internal/models"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// ReservedUsername is the path segment of the self-service endpoint.
const ReservedUsername = "me"

var (
	usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)
	slugPattern     = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)
)

// Register installs the custom tags. Field length limits come from config and
// are captured at registration time.
//
//	username  allowed characters, not "me", at most UsernameMaxLength runes
//	emaillen  at most EmailMaxLength runes
//	slug      letters, digits, '-' and '_'
//	notfuture integer not after the current year
//	role      one of the known roles
func Register(limits config.LimitsConfig) error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
	}

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})

	rules := map[string]validator.Func{
		"username": func(fl validator.FieldLevel) bool {
			s := fl.Field().String()
			return usernamePattern.MatchString(s) &&
				!strings.EqualFold(s, ReservedUsername) &&
				utf8.RuneCountInString(s) <= limits.UsernameMaxLength
		},
		"emaillen": func(fl validator.FieldLevel) bool {
			return utf8.RuneCountInString(fl.Field().String()) <= limits.EmailMaxLength
		},
		"slug": func(fl validator.FieldLevel) bool {
			return slugPattern.MatchString(fl.Field().String())
		},
		"notfuture": func(fl validator.FieldLevel) bool {
			return fl.Field().Int() <= int64(time.Now().Year())
		},
		"role": func(fl validator.FieldLevel) bool {
			return models.Role(fl.Field().String()).Valid()
		},
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("register %s: %w", tag, err)
		}
	}
	return nil
}

type account struct {
	Username string `json:"username" binding:"required,username"`
	Email    string `json:"email" binding:"required,email,emaillen"`
}

// Account checks a username and email with the rules of the sign-up
// endpoint, for accounts created outside the API. Register must run first.
func Account(username, email string) error {
	if err := binding.Validator.ValidateStruct(&account{Username: username, Email: email}); err != nil {
		return Translate(err)
	}
	return nil
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "username":
		return "Enter a valid username: letters, digits and @/./+/-/_ only, not \"me\", within the length limit."
	case "emaillen":
		return "Ensure this field is within the email length limit."
	case "slug":
		return "Enter a valid slug consisting of letters, numbers, underscores or hyphens."
	case "notfuture":
		return "Year cannot be in the future."
	case "role":
		return "Not a valid role choice."
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
		}
		return fmt.Sprintf("Ensure this value is less than or equal to %s.", fe.Param())
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Ensure this field has at least %s characters.", fe.Param())
		}
		return fmt.Sprintf("Ensure this value is greater than or equal to %s.", fe.Param())
	default:
		return fmt.Sprintf("Failed on the %q rule.", fe.Tag())
	}
}

// fieldName strips the struct prefix from a namespace such as
// "reviewRequest.score".
func fieldName(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

// Translate converts a binding error into a validation error with per-field
// messages keyed by JSON name.
func Translate(err error) *apperr.Error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string][]string, len(verrs))
		for _, fe := range verrs {
			name := fieldName(fe)
			fields[name] = append(fields[name], message(fe))
		}
		return apperr.FieldErrors(fields)
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return apperr.Field(typeErr.Field, fmt.Sprintf("Expected %s.", typeErr.Type.String()))
	}

	if errors.Is(err, io.EOF) {
		return apperr.Validation("Request body is empty.")
	}
	return apperr.Validation("Malformed request body.")
}
