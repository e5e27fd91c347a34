package model

import (
	"github.com/go-playground/validator/v10"
)

var recordValidator = validator.New()

// Validate checks normalised enum fields (Appliance/Defect outcome and
// severity) against their allowed value sets, the way
// SignalAnalysisReport's validate tags guard downstream consumers from a
// provider returning an out-of-vocabulary string. It never blocks
// extraction: callers log the returned messages as warnings and keep the
// record.
func (r *ExtractedRecord) Validate() []string {
	if r == nil {
		return nil
	}
	var messages []string
	if err := recordValidator.Struct(r); err != nil {
		messages = append(messages, fieldErrors(err)...)
	}
	for i := range r.Appliances {
		if err := recordValidator.Struct(&r.Appliances[i]); err != nil {
			messages = append(messages, fieldErrors(err)...)
		}
	}
	for i := range r.Defects {
		if err := recordValidator.Struct(&r.Defects[i]); err != nil {
			messages = append(messages, fieldErrors(err)...)
		}
	}
	return messages
}

func fieldErrors(err error) []string {
	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []string{err.Error()}
	}
	out := make([]string, 0, len(validationErrs))
	for _, fe := range validationErrs {
		out = append(out, fe.Namespace()+": "+fe.Tag())
	}
	return out
}
