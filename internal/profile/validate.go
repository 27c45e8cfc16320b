package profile

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	snowflakePattern  = regexp.MustCompile(`^[0-9]{17,19}$`)
	credentialPattern = regexp.MustCompile(`^.+\..+\..+$`)

	validate = newValidator()
)

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterValidation("snowflake", matches(snowflakePattern))
	v.RegisterValidation("credential", matches(credentialPattern))
	return v
}

func matches(re *regexp.Regexp) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return re.MatchString(fl.Field().String())
	}
}

// ValidateChannel accepts an empty value or 17 to 19 ASCII digits.
func ValidateChannel(raw string) *FieldError {
	if err := validate.Var(raw, "omitempty,snowflake"); err != nil {
		return &FieldError{Field: FieldChannel, Kind: FormatError, Message: "channel ID must be 17-19 digits"}
	}
	return nil
}

// ValidateCredential accepts an empty value or three dot-separated segments.
func ValidateCredential(raw string) *FieldError {
	if err := validate.Var(raw, "omitempty,credential"); err != nil {
		return &FieldError{Field: FieldCredential, Kind: FormatError, Message: "token must look like xxx.yyy.zzz"}
	}
	return nil
}

// ValidateProfileName requires a name that is non-empty after trimming.
func ValidateProfileName(raw string) *FieldError {
	if err := validate.Var(strings.TrimSpace(raw), "required"); err != nil {
		return &FieldError{Field: FieldName, Kind: RequiredError, Message: "profile name must not be empty"}
	}
	return nil
}

// Validate runs every field check on s and returns the failures in field order.
func Validate(s Snapshot) []FieldError {
	var errs []FieldError
	for _, fe := range []*FieldError{
		ValidateProfileName(s.Name),
		ValidateCredential(s.Credential),
		ValidateChannel(s.Channel),
	} {
		if fe != nil {
			errs = append(errs, *fe)
		}
	}
	return errs
}
