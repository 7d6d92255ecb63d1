package core

import (
	"reflect"
	"regexp"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	// custom validation tags & texts
	dayOfWeekTag  = "dayofweek"
	dayOfWeekText = "must be a valid day of the week (MONDAY..SUNDAY)"

	clockTimeTag   = "clocktime"
	clockTimeText  = "must be a valid time in HH:MM format"
	clockTimeRegex = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

	requiredTag     = "required"
	requiredWithTag = "required_with"
	requiredText    = "this field is required"

	daysOfWeek = map[string]struct{}{
		"MONDAY": {}, "TUESDAY": {}, "WEDNESDAY": {}, "THURSDAY": {},
		"FRIDAY": {}, "SATURDAY": {}, "SUNDAY": {},
	}
)

// InitValidators instantiates the validator for use.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// register custom validators
	_ = validate.RegisterValidation(dayOfWeekTag, dayOfWeekValidation)
	RegisterCustomTranslation(validate, translator, dayOfWeekTag, dayOfWeekText)

	_ = validate.RegisterValidation(clockTimeTag, clockTimeValidation)
	RegisterCustomTranslation(validate, translator, clockTimeTag, clockTimeText)

	RegisterCustomTranslation(validate, translator, requiredTag, requiredText, true)
	RegisterCustomTranslation(validate, translator, requiredWithTag, requiredText, true)
}

// RegisterCustomTranslation registers a custom translation for the specified validation tag.
func RegisterCustomTranslation(validate *validator.Validate, translator ut.Translator, tag, text string, override ...bool) {
	var ovrd bool
	if len(override) > 0 {
		ovrd = override[0]
	}
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, ovrd) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// Custom Global Validators

// dayOfWeekValidation only allows upper-case English day names.
func dayOfWeekValidation(fl validator.FieldLevel) bool {
	_, ok := daysOfWeek[fl.Field().String()]
	return ok
}

// clockTimeValidation only allows "HH:MM" wall-clock values.
func clockTimeValidation(fl validator.FieldLevel) bool {
	return clockTimeRegex.MatchString(fl.Field().String())
}
