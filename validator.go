package accounts

import (
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
)

// Candidate carries caller submitted credentials prior to validation
type Candidate struct {
	Login    string `json:"login"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

var loginPattern = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

// ValidateCandidate runs the structural credential checks. It is pure: no
// store lookups, no I/O. requireEmail is false for login payloads where
// only the login and password travel.
func ValidateCandidate(c Candidate, requireEmail bool) error {
	fields := []*validation.FieldRules{
		validation.Field(
			&c.Login,
			validation.Required,
			validation.Length(3, 100),
			validation.Match(loginPattern).Error("must contain only letters, digits, '.', '_' or '-'"),
		),
		validation.Field(
			&c.Password,
			validation.Required,
			validation.Length(8, 100),
		),
	}

	if requireEmail {
		fields = append(fields, validation.Field(
			&c.Email,
			validation.Required,
			validation.Length(6, 100),
			is.Email,
		))
	}

	if err := validation.ValidateStruct(&c, fields...); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid credentials payload").
			WithCode(goerrors.CodeBadRequest).
			WithMetadata(map[string]any{"violations": FormatValidationErrorToMap(err)})
	}

	return nil
}

// FormatValidationErrorToMap flattens ozzo field errors into a field->message map
func FormatValidationErrorToMap(err error) map[string]string {
	out := map[string]string{}
	if err == nil {
		return out
	}

	if fieldErrs, ok := err.(validation.Errors); ok {
		for field, ferr := range fieldErrs {
			if ferr != nil {
				out[field] = ferr.Error()
			}
		}
		return out
	}

	out["payload"] = err.Error()
	return out
}
