// internal/app/system/inputval/inputval.go
//
// Package inputval validates decoded request payloads at the HTTP boundary.
// Structs declare rules with `validate` tags (go-playground/validator) and a
// human `label` tag used in messages.
package inputval

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/dalemusser/assurance/internal/app/system/apperr"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	phoneRE  = regexp.MustCompile(`^(\+212|0)[5-7][0-9]{8}$`)
	plateRE  = regexp.MustCompile(`^[A-Z0-9]{1,10}$`)
	hhmmRE   = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)
	postalRE = regexp.MustCompile(`^[0-9]{5}$`)

	// At least one lower, one upper and one digit.
	pwLower = regexp.MustCompile(`[a-z]`)
	pwUpper = regexp.MustCompile(`[A-Z]`)
	pwDigit = regexp.MustCompile(`[0-9]`)
)

var (
	once sync.Once
	v    *validator.Validate
)

func instance() *validator.Validate {
	once.Do(func() {
		v = validator.New(validator.WithRequiredStructEnabled())
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
		_ = v.RegisterValidation("maphone", regexRule(phoneRE))
		_ = v.RegisterValidation("plate", func(fl validator.FieldLevel) bool {
			return plateRE.MatchString(strings.ToUpper(fl.Field().String()))
		})
		_ = v.RegisterValidation("hhmm", regexRule(hhmmRE))
		_ = v.RegisterValidation("postalcode", regexRule(postalRE))
		_ = v.RegisterValidation("objectid", func(fl validator.FieldLevel) bool {
			return IsValidObjectID(fl.Field().String())
		})
		_ = v.RegisterValidation("strongpw", func(fl validator.FieldLevel) bool {
			s := fl.Field().String()
			return pwLower.MatchString(s) && pwUpper.MatchString(s) && pwDigit.MatchString(s)
		})
	})
	return v
}

func regexRule(re *regexp.Regexp) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return re.MatchString(fl.Field().String())
	}
}

// IsValidPhone reports whether s is a Moroccan phone number.
func IsValidPhone(s string) bool { return phoneRE.MatchString(s) }

// IsValidPlate reports whether s is a plate number (case-insensitive).
func IsValidPlate(s string) bool { return plateRE.MatchString(strings.ToUpper(s)) }

// IsValidObjectID reports whether s is a 24-hex Mongo ObjectID.
func IsValidObjectID(s string) bool {
	_, err := primitive.ObjectIDFromHex(s)
	return err == nil
}

// FieldError is one failed rule.
type FieldError struct {
	Field   string
	Message string
}

// Result collects validation failures.
type Result struct {
	Errors []FieldError
}

// HasErrors reports whether any rule failed.
func (r *Result) HasErrors() bool { return len(r.Errors) > 0 }

// First returns the first message or "".
func (r *Result) First() string {
	if len(r.Errors) == 0 {
		return ""
	}
	return r.Errors[0].Message
}

// All joins every message with "; ".
func (r *Result) All() string {
	msgs := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		msgs = append(msgs, e.Message)
	}
	return strings.Join(msgs, "; ")
}

// Err converts the result to a VALIDATION_ERROR, or nil when valid.
func (r *Result) Err() error {
	if !r.HasErrors() {
		return nil
	}
	details := make([]apperr.FieldError, 0, len(r.Errors))
	for _, e := range r.Errors {
		details = append(details, apperr.FieldError{Field: e.Field, Message: e.Message})
	}
	return apperr.Validation("Validation failed", details...)
}

// Validate runs the struct's rules.
func Validate(s any) *Result {
	res := &Result{}
	err := instance().Struct(s)
	if err == nil {
		return res
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		res.Errors = append(res.Errors, FieldError{Message: "Invalid input."})
		return res
	}
	root := reflect.TypeOf(s)
	for root.Kind() == reflect.Pointer {
		root = root.Elem()
	}
	for _, fe := range verrs {
		res.Errors = append(res.Errors, FieldError{
			Field:   fieldPath(fe.Namespace()),
			Message: message(fe, label(root, fe.StructNamespace())),
		})
	}
	return res
}

// Check is Validate(s).Err().
func Check(s any) error {
	return Validate(s).Err()
}

// fieldPath drops the root struct name from a namespace like
// "createClaim.damages.details[0].item".
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

// label resolves the `label` tag of the failing field, falling back to the
// field path.
func label(root reflect.Type, structNS string) string {
	parts := strings.Split(structNS, ".")
	t := root
	var f reflect.StructField
	for _, p := range parts[1:] {
		if i := strings.IndexByte(p, '['); i >= 0 {
			p = p[:i]
		}
		for t.Kind() == reflect.Pointer || t.Kind() == reflect.Slice {
			t = t.Elem()
		}
		if t.Kind() != reflect.Struct {
			break
		}
		sf, ok := t.FieldByName(p)
		if !ok {
			break
		}
		f, t = sf, sf.Type
	}
	if l := f.Tag.Get("label"); l != "" {
		return l
	}
	return fieldPath(structNS)
}

func message(fe validator.FieldError, label string) string {
	switch fe.Tag() {
	case "required", "required_with", "required_without":
		return label + " is required."
	case "email":
		return "A valid email address is required."
	case "max":
		if fe.Kind() == reflect.Slice {
			return label + " must contain at most " + fe.Param() + " items."
		}
		if fe.Kind() == reflect.String {
			return label + " must be at most " + fe.Param() + " characters."
		}
		return label + " must be at most " + fe.Param() + "."
	case "min":
		if fe.Kind() == reflect.Slice {
			return label + " must contain at least " + fe.Param() + " items."
		}
		if fe.Kind() == reflect.String {
			return label + " must be at least " + fe.Param() + " characters."
		}
		return label + " must be at least " + fe.Param() + "."
	case "len":
		return label + " must be exactly " + fe.Param() + " characters."
	case "gt":
		return label + " must be greater than " + fe.Param() + "."
	case "gte":
		return label + " must be greater than or equal to " + fe.Param() + "."
	case "lte":
		return label + " must be less than or equal to " + fe.Param() + "."
	case "oneof":
		return label + " must be one of: " + strings.ReplaceAll(fe.Param(), "'", "") + "."
	case "maphone":
		return label + " must be a valid Moroccan phone number."
	case "plate":
		return label + " must contain 1 to 10 letters or digits."
	case "hhmm":
		return label + " must use the HH:MM format."
	case "postalcode":
		return label + " must contain 5 digits."
	case "objectid":
		return label + " must be a valid identifier."
	case "strongpw":
		return label + " must contain a lowercase letter, an uppercase letter and a digit."
	case "eqfield":
		return label + " does not match."
	}
	return label + " is invalid."
}
