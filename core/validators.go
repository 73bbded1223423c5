package core

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/pkg/errors"
)

var (
	// custom validation tags & texts
	notBlankTag  = "notblank"
	requiredTag  = "required"
	requiredText = "{0} is required"

	cpfTag  = "cpf"
	cpfText = fmt.Sprintf("{0} must contain %d digits", IDLength)

	gradeTag = "grade"

	posIntTag  = "posint"
	posIntText = "{0} must be a positive integer"

	isoDateTag  = "isodate"
	isoDateText = "{0} must be a valid date (YYYY-MM-DD)"

	hourSlotTag  = "hourslot"
	hourSlotText = fmt.Sprintf("{0} must be a whole hour between %02d:00 and %02d:00", firstHourSlot, lastHourSlot)

	dateRangeTag  = "daterange"
	dateRangeText = "{0} must not be before the start date"

	firstHourSlot = 7
	lastHourSlot  = 22
)

// Validator validates drafts and wire schemas and renders English, JSON-named messages.
type Validator struct {
	validate   *validator.Validate
	translator ut.Translator
}

// NewValidator instantiates the validator with the custom field tags registered.
func NewValidator() *Validator {
	english := en.New()
	translator, _ := ut.New(english, english).GetTranslator("en")
	v := &Validator{validate: validator.New(), translator: translator}

	_ = en_translations.RegisterDefaultTranslations(v.validate, translator)

	// Use JSON tag names for errors instead of Go struct names.
	v.validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	v.RegisterValidation(notBlankTag, notBlankValidation, requiredText)
	v.RegisterTranslation(requiredTag, requiredText, true)
	v.RegisterValidation(cpfTag, cpfValidation, cpfText)
	v.RegisterValidation(posIntTag, posIntValidation, posIntText)
	v.RegisterValidation(isoDateTag, isoDateValidation, isoDateText)
	v.RegisterValidation(hourSlotTag, hourSlotValidation, hourSlotText)
	v.RegisterTranslation(dateRangeTag, dateRangeText)

	_ = v.validate.RegisterValidation(gradeTag, gradeValidation)
	_ = v.validate.RegisterTranslation(
		gradeTag, translator,
		func(t ut.Translator) error { return nil },
		func(t ut.Translator, fe validator.FieldError) string {
			_, err := ParseGrade(fmt.Sprint(fe.Value()))
			if err == nil {
				err = ErrInvalidNumber
			}
			return fmt.Sprintf("%s: %v", fe.Field(), err)
		},
	)

	return v
}

// RegisterValidation registers a field validator together with its message.
func (v *Validator) RegisterValidation(tag string, fn validator.Func, text string) {
	_ = v.validate.RegisterValidation(tag, fn)
	v.RegisterTranslation(tag, text)
}

// RegisterStructValidation registers a cross-field validator for the given types.
func (v *Validator) RegisterStructValidation(fn validator.StructLevelFunc, types ...interface{}) {
	v.validate.RegisterStructValidation(fn, types...)
}

// RegisterTranslation registers a custom translation for the specified validation tag.
func (v *Validator) RegisterTranslation(tag, text string, override ...bool) {
	var ovrd bool
	if len(override) > 0 {
		ovrd = override[0]
	}
	_ = v.validate.RegisterTranslation(
		tag, v.translator,
		func(t ut.Translator) error { return t.Add(tag, text, ovrd) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// Struct validates s. The result is nil or a *ValidationError whose message is the first field's.
func (v *Validator) Struct(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return errors.Wrap(err, "validating")
	}

	fields := make([]FieldError, 0, len(verrs))
	for _, verr := range verrs {
		fields = append(fields, FieldError{Field: verr.Field(), Error: verr.Translate(v.translator)})
	}
	return NewValidationError(errors.New(fields[0].Error), fields...)
}

// ReportDateRange reports a daterange error on the end field when start is after end.
func ReportDateRange(sl validator.StructLevel, start, end, endField string) {
	if !DateRangeValid(start, end) {
		sl.ReportError(end, endField, endField, dateRangeTag, "")
	}
}

// Custom Validators

func notBlankValidation(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// cpfValidation only checks the digit count; check digits are the server's business.
func cpfValidation(fl validator.FieldLevel) bool {
	return len(SanitizeID(fl.Field().String())) == IDLength
}

func gradeValidation(fl validator.FieldLevel) bool {
	_, err := ParseGrade(fl.Field().String())
	return err == nil
}

func posIntValidation(fl validator.FieldLevel) bool {
	n, err := strconv.Atoi(strings.TrimSpace(fl.Field().String()))
	return err == nil && n > 0
}

func isoDateValidation(fl validator.FieldLevel) bool {
	_, err := time.Parse(DateLayout, strings.TrimSpace(fl.Field().String()))
	return err == nil
}

func hourSlotValidation(fl validator.FieldLevel) bool {
	t, err := time.Parse("15:04", strings.TrimSpace(fl.Field().String()))
	if err != nil || t.Minute() != 0 {
		return false
	}
	return t.Hour() >= firstHourSlot && t.Hour() <= lastHourSlot
}
