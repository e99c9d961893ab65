package student

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/registrar/core"
)

var (
	programTag  = "program"
	programText = "select a valid program"

	genderTag  = "gender"
	genderText = "select a valid gender"

	bloodGroupTag  = "bloodgroup"
	bloodGroupText = "select a valid blood group"
)

// InitValidators registers the validation tags used by student forms.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(programTag, choiceValidation(Programs))
	core.RegisterCustomTranslation(validate, translator, programTag, programText)

	_ = validate.RegisterValidation(genderTag, choiceValidation(Genders))
	core.RegisterCustomTranslation(validate, translator, genderTag, genderText)

	_ = validate.RegisterValidation(bloodGroupTag, choiceValidation(BloodGroups))
	core.RegisterCustomTranslation(validate, translator, bloodGroupTag, bloodGroupText)
}

func choiceValidation(choices []Choice) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return isChoice(choices, fl.Field().String())
	}
}
