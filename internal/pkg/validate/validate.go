package validate

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// userIDPattern: a letter followed by letters or digits.
var userIDPattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9]*$`)

// v is the package-level singleton validator. Custom tags are registered in
// init() before the first call to Struct.
var v = validator.New()

func init() {
	_ = v.RegisterValidation("userid", func(fl validator.FieldLevel) bool {
		return userIDPattern.MatchString(fl.Field().String())
	})
}

// Struct validates the given struct using its validate tags.
// Returns a human-readable error or nil.
func Struct(s interface{}) error {
	if err := v.Struct(s); err != nil {
		ve, ok := err.(validator.ValidationErrors)
		if !ok {
			return err
		}
		var msgs []string
		for _, fe := range ve {
			msgs = append(msgs, fmt.Sprintf("field '%s' failed '%s'", fe.Field(), fe.Tag()))
		}
		return fmt.Errorf("%s", strings.Join(msgs, "; "))
	}
	return nil
}

// Var validates a single value against a tag expression, e.g. Var(email, "required,email").
func Var(value interface{}, tag string) error {
	if err := v.Var(value, tag); err != nil {
		ve, ok := err.(validator.ValidationErrors)
		if !ok || len(ve) == 0 {
			return err
		}
		return fmt.Errorf("value failed '%s'", ve[0].Tag())
	}
	return nil
}
