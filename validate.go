package console

import (
	"errors"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/nyaruka/phonenumbers"
)

var (
	namePattern = regexp.MustCompile(`^[a-zA-Z\s]+$`)
	// optional leading +, no leading zero, up to 16 digits total
	phonePattern = regexp.MustCompile(`^[+]?[1-9][0-9]{0,15}$`)
	codePattern  = regexp.MustCompile(`^[0-9]{6}$`)
)

// ValidateStringEquals will check that both values match
func ValidateStringEquals(str string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s != str {
			return errors.New("values must match")
		}
		return nil
	}
}

// ValidatePhoneNumber parses the value as an international phone number;
// used on top of the pattern rule so look-alike digit strings are rejected.
func ValidatePhoneNumber(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if _, err := phonenumbers.Parse(s, "US"); err != nil {
		return errors.New("must be a valid phone number")
	}
	return nil
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return wrapValidation(validation.ValidateStruct(&r,
		validation.Field(
			&r.Email,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&r.Password,
			validation.Required,
		),
	))
}

// Validate will validate the payload. Failures here block the request
// entirely; nothing reaches the network.
func (r RegisterRequest) Validate() error {
	return wrapValidation(validation.ValidateStruct(&r,
		validation.Field(
			&r.Name,
			validation.Required,
			validation.Length(2, 50),
			validation.Match(namePattern).Error("can only contain letters and spaces"),
		),
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(
			&r.Phone,
			validation.Match(phonePattern).Error("must be a valid phone number"),
			validation.By(ValidatePhoneNumber),
		),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 100)),
		validation.Field(
			&r.ConfirmPassword,
			validation.Required,
			validation.By(ValidateStringEquals(r.Password)),
		),
		validation.Field(
			&r.Role,
			validation.Required,
			// superadmin is only reachable through the nomination flow
			validation.In(RoleUser, RoleAdmin),
		),
	))
}

// Validate will validate the payload
func (r ProfileUpdate) Validate() error {
	return wrapValidation(validation.ValidateStruct(&r,
		validation.Field(
			&r.Name,
			validation.Length(2, 50),
			validation.Match(namePattern).Error("can only contain letters and spaces"),
		),
		validation.Field(&r.Email, is.Email),
		validation.Field(
			&r.Phone,
			validation.Match(phonePattern).Error("must be a valid phone number"),
			validation.By(ValidatePhoneNumber),
		),
	))
}

// Validate will validate the payload
func (r ChangePasswordRequest) Validate() error {
	return wrapValidation(validation.ValidateStruct(&r,
		validation.Field(&r.CurrentPassword, validation.Required),
		validation.Field(&r.NewPassword, validation.Required, validation.Length(8, 100)),
		validation.Field(
			&r.ConfirmPassword,
			validation.Required,
			validation.By(ValidateStringEquals(r.NewPassword)),
		),
	))
}

// ValidateNomination checks the confirmation payload: the nominee's email
// plus the 6-digit code from the nomination email.
func ValidateNomination(email, code string) error {
	return wrapValidation(validation.Errors{
		"email": validation.Validate(email, validation.Required, is.Email),
		"code": validation.Validate(code,
			validation.Required,
			validation.Match(codePattern).Error("must be a 6-digit code"),
		),
	}.Filter())
}

// wrapValidation lifts ozzo errors into the shared taxonomy so the
// presentation layer can distinguish pre-submission failures.
func wrapValidation(err error) error {
	if err == nil {
		return nil
	}
	return goerrors.Wrap(err, goerrors.CategoryValidation, "validation failed").
		WithCode(goerrors.CodeBadRequest).
		WithMetadata(map[string]any{
			"fields": FormatValidationErrorToMap(err),
		})
}

// FormatValidationErrorToMap flattens an ozzo validation error into a
// field→message map for form rendering.
func FormatValidationErrorToMap(err error) map[string]string {
	out := map[string]string{}
	if err == nil {
		return out
	}

	var fieldErrs validation.Errors
	if errors.As(err, &fieldErrs) {
		for field, ferr := range fieldErrs {
			if ferr != nil {
				out[field] = ferr.Error()
			}
		}
		return out
	}

	out["form"] = err.Error()
	return out
}
