package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Error reports schema violations as field-level messages. It is raised
// before any repository access happens.
type Error struct {
	Fields map[string]string
}

func (e *Error) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, msg))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Rule data. The regexes are kept separate from the control flow so the
// schema reads as a table.
var (
	fullnameRegex   = regexp.MustCompile(`^[A-Za-z\s]+$`)
	usernameRegex   = regexp.MustCompile(`^[a-z0-9]+$`)
	resetEmailRegex = regexp.MustCompile(`^[a-z0-9_.]+@[a-z0-9]+\.(com|org|net)$`)
)

// specialChars is the set a password must draw at least one character from.
const specialChars = "!@#$%^&*"

// messages maps a validator tag to the message reported for that rule.
var messages = map[string]string{
	"required":   "Required.",
	"email":      "Invalid email format.",
	"fullname":   "Full name can only contain letters and spaces.",
	"username":   "Username can only contain lowercase letters and numbers.",
	"resetemail": "Invalid email format.",
	"password":   "Password must include at least one uppercase letter, one lowercase letter, one number, and one special character.",
}

// New returns a validator with the account schema rules registered.
func New() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("fullname", regexRule(fullnameRegex))
	_ = v.RegisterValidation("username", regexRule(usernameRegex))
	_ = v.RegisterValidation("resetemail", regexRule(resetEmailRegex))
	_ = v.RegisterValidation("password", passwordRule)
	return v
}

func regexRule(re *regexp.Regexp) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return re.MatchString(fl.Field().String())
	}
}

// passwordRule requires at least one lowercase letter, one uppercase letter,
// one digit and one special character. Length is enforced separately by the
// min tag.
func passwordRule(fl validator.FieldLevel) bool {
	var lower, upper, digit, special bool
	for _, r := range fl.Field().String() {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(specialChars, r):
			special = true
		}
	}
	return lower && upper && digit && special
}

// Check runs the struct validation and converts validator errors into a
// *Error carrying one message per failed field.
func Check(v *validator.Validate, s interface{}) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	fields := make(map[string]string, len(validationErrors))
	for _, e := range validationErrors {
		msg, known := messages[e.Tag()]
		switch {
		case e.Tag() == "min":
			msg = fmt.Sprintf("Must be at least %s characters.", e.Param())
		case !known:
			msg = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
		}
		fields[e.Field()] = msg
	}
	return &Error{Fields: fields}
}
