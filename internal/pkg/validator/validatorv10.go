package validator

import (
	"errors"
	"fmt"
	"maps"
	"reflect"
	"regexp"
	"slices"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
)

// ErrTranslatorNotFound indicates the English translator could not be built.
var ErrTranslatorNotFound = errors.New("validator: translator not found")

// personName accepts letters of any script plus space . ' and -, starting
// with a letter.
var personName = regexp.MustCompile(`^\p{L}[\p{L} .'-]*$`)

// customRules are the tags this service adds on top of the v10 builtins.
var customRules = []struct {
	tag     string
	message string
	check   func(string) bool
}{
	{
		// Email shape is deliberately loose: anything with an "@".
		tag:     "has_at",
		message: "{0} must be a valid email address",
		check:   func(s string) bool { return strings.Contains(s, "@") },
	},
	{
		tag:     "person_name",
		message: "{0} can contain only letters, spaces, dots, hyphens and apostrophes",
		check:   personName.MatchString,
	},
}

// V10ValidationError maps JSON field names to readable messages.
type V10ValidationError map[string]string

// Error lists failures as "field: message" sorted by field.
func (vs V10ValidationError) Error() string {
	if len(vs) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(vs))
	for _, k := range slices.Sorted(maps.Keys(vs)) {
		parts = append(parts, k+": "+vs[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Values exposes the field map to goerror.NewInvalidInput.
func (vs V10ValidationError) Values() map[string]string {
	return vs
}

// V10Validator implements Validator with go-playground/validator v10.
type V10Validator struct {
	validate   *validator.Validate
	translator ut.Translator
}

// NewV10Validator builds a validator that names fields by their json tag and
// renders English messages.
func NewV10Validator() (*V10Validator, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(jsonFieldName)

	enLocale := en.New()
	trans, ok := ut.New(enLocale, enLocale).GetTranslator("en")
	if !ok {
		return nil, ErrTranslatorNotFound
	}
	if err := enTranslations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, fmt.Errorf("validator: default translations: %w", err)
	}

	for _, rule := range customRules {
		check := rule.check
		if err := validate.RegisterValidation(rule.tag, func(fl validator.FieldLevel) bool {
			s, ok := fl.Field().Interface().(string)
			return ok && check(s)
		}); err != nil {
			return nil, fmt.Errorf("validator: register %s: %w", rule.tag, err)
		}

		tag, message := rule.tag, rule.message
		if err := validate.RegisterTranslation(tag, trans,
			func(t ut.Translator) error { return t.Add(tag, message, false) },
			func(t ut.Translator, fe validator.FieldError) string {
				msg, err := t.T(fe.Tag(), fe.Field())
				if err != nil {
					return fe.Field() + " is invalid"
				}
				return msg
			},
		); err != nil {
			return nil, fmt.Errorf("validator: translate %s: %w", rule.tag, err)
		}
	}

	return &V10Validator{validate: validate, translator: trans}, nil
}

func jsonFieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	switch name {
	case "-":
		return ""
	case "":
		return f.Name
	default:
		return name
	}
}

// Validate returns V10ValidationError for tag failures. Other errors (such as
// passing a non-struct) are returned as-is.
func (v *V10Validator) Validate(data any) error {
	err := v.validate.Struct(data)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	out := make(V10ValidationError, len(fieldErrs))
	for _, fe := range fieldErrs {
		out[fe.Field()] = fe.Translate(v.translator)
	}
	return out
}
