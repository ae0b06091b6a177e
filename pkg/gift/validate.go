package gift

import (
	stderrors "errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/matzehuels/giftgraph/pkg/errors"
)

// fieldRules maps each custom validation tag to the coded validator that
// explains a failure.
var fieldRules = map[string]func(string) error{
	"username": errors.ValidateUserName,
	"item":     errors.ValidateItem,
	"comment":  errors.ValidateCommentText,
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	for tag, rule := range fieldRules {
		rule := rule
		_ = v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			return rule(fl.Field().String()) == nil
		})
	}
	return v
}

// check validates a request struct and converts the first failing field
// into a coded error.
func (s *Service) check(req any) error {
	err := s.validate.Struct(req)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !stderrors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid request")
	}
	fe := fieldErrs[0]
	if rule, ok := fieldRules[fe.Tag()]; ok {
		value, _ := fe.Value().(string)
		if err := rule(value); err != nil {
			return errors.New(errors.GetCode(err), "%s: %s", strings.ToLower(fe.Field()), errors.UserMessage(err))
		}
	}
	return errors.New(errors.ErrCodeInvalidInput, "%s is invalid", strings.ToLower(fe.Field()))
}
