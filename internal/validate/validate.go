package validate

import (
	"errors"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrMissingFields reports that at least one required field is empty.
var ErrMissingFields = errors.New("missing required fields")

// FieldError is the first rule a request failed, other than required.
type FieldError struct {
	Field string
	Rule  string
}

func (e *FieldError) Error() string {
	return "validate: " + e.Field + " failed " + e.Rule
}

// Message describes the failure for API clients.
func (e *FieldError) Message() string {
	switch e.Rule {
	case "email":
		return "Invalid email address"
	case "max", "maxbytes":
		return e.Field + " is too long"
	case "min":
		return e.Field + " is too short"
	}
	return "Invalid " + e.Field
}

// Message returns the client-facing text for an error from Struct.
func Message(err error) string {
	var fe *FieldError
	switch {
	case errors.As(err, &fe):
		return fe.Message()
	case errors.Is(err, ErrMissingFields):
		return "Missing required fields"
	}
	return "Invalid request"
}

var (
	reID = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

	v = newValidator()
)

func newValidator() *validator.Validate {
	vv := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their JSON names.
	vv.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// maxbytes limits encoded length; max counts runes.
	if err := vv.RegisterValidation("maxbytes", maxBytes); err != nil {
		panic(err)
	}
	return vv
}

func maxBytes(fl validator.FieldLevel) bool {
	n, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}
	return len(fl.Field().String()) <= n
}

// Struct checks the `validate` tags of s. Missing required fields are
// reported together; otherwise the first failing rule is returned as a
// *FieldError.
func Struct(s any) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			return ErrMissingFields
		}
	}
	return &FieldError{Field: verrs[0].Field(), Rule: verrs[0].Tag()}
}

// ID validates a simple resource identifier.
func ID(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && reID.MatchString(s)
}
