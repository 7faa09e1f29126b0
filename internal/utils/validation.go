package utils

import (
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"github.com/guardias-hospital/shift-manager/backend/internal/core/shift"
	"github.com/guardias-hospital/shift-manager/backend/internal/domain"
)

type customTag struct {
	tag     string
	fn      validator.Func
	message string
}

var customTags = []customTag{
	{
		tag: "civildate",
		fn: func(fl validator.FieldLevel) bool {
			_, err := shift.ParseCivilDate(fl.Field().String())
			return err == nil
		},
		message: "{0} must be a date formatted as YYYY-MM-DD",
	},
	{
		tag: "shifthours",
		fn: func(fl validator.FieldLevel) bool {
			_, _, err := shift.ParseHours(fl.Field().String())
			return err == nil
		},
		message: "{0} must be an hour range such as 8-20 or 08:30-14:00",
	},
	{
		tag: "shiftarea",
		fn: func(fl validator.FieldLevel) bool {
			return domain.Area(fl.Field().String()).Valid()
		},
		message: "{0} must be one of consultorio, internacion, refuerzo, completo",
	},
	{
		tag: "shiftcategory",
		fn: func(fl validator.FieldLevel) bool {
			_, ok := domain.LookupCategory(fl.Field().String())
			return ok
		},
		message: "{0} is not a known shift category",
	},
}

// NewValidator returns a validator with English messages and the shift
// specific tags registered.
func NewValidator() (*validator.Validate, ut.Translator, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	locale := en.New()
	uni := ut.New(locale, locale)
	trans, _ := uni.GetTranslator("en")
	if err := en_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, nil, err
	}

	for _, ct := range customTags {
		if err := validate.RegisterValidation(ct.tag, ct.fn); err != nil {
			return nil, nil, err
		}
		message := ct.message
		err := validate.RegisterTranslation(ct.tag, trans,
			func(ut ut.Translator) error {
				return ut.Add(ct.tag, message, true)
			},
			func(ut ut.Translator, fe validator.FieldError) string {
				t, _ := ut.T(fe.Tag(), fe.Field())
				return t
			},
		)
		if err != nil {
			return nil, nil, err
		}
	}

	return validate, trans, nil
}
