package performance

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/registrar/core"
)

var (
	marksTag  = "marks"
	marksText = "marks obtained cannot exceed total marks"
)

// InitValidators registers the validation rules of performance forms.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	validate.RegisterStructValidation(infoStructValidation, Info{})
	core.RegisterCustomTranslation(validate, translator, marksTag, marksText)
}

// infoStructValidation checks marks obtained against total marks.
func infoStructValidation(sl validator.StructLevel) {
	pi, ok := sl.Current().Interface().(Info)
	if !ok {
		return
	}
	if pi.TotalMarks > 0 && pi.MarksObtained > pi.TotalMarks {
		sl.ReportError(pi.MarksObtained, "marks_obtained", "MarksObtained", marksTag, "")
	}
}
