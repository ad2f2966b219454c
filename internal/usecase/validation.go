package usecase

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/nyaruka/phonenumbers"

	"github.com/xavierca1/pipeline-dashboard/internal/entity"
)

// DefaultPhoneRegion is assumed for numbers written without a country code.
const DefaultPhoneRegion = "DE"

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report JSON field names so messages match the request body.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// ValidateStruct runs the validate tags of s and returns entity.ValidationErrors
// with German messages.
func ValidateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return technical("validate input", err)
	}
	var out entity.ValidationErrors
	for _, fe := range fieldErrs {
		out.Add(fe.Field(), fieldMessage(fe))
	}
	return out.Err()
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s ist erforderlich", fe.Field())
	case "max":
		return fmt.Sprintf("%s darf höchstens %s Zeichen lang sein", fe.Field(), fe.Param())
	case "min":
		return fmt.Sprintf("%s muss mindestens %s Zeichen lang sein", fe.Field(), fe.Param())
	case "email":
		return fmt.Sprintf("%s ist keine gültige E-Mail-Adresse", fe.Field())
	case "gte":
		return fmt.Sprintf("%s muss >= %s sein", fe.Field(), fe.Param())
	case "gt":
		return fmt.Sprintf("%s muss > %s sein", fe.Field(), fe.Param())
	}
	return fmt.Sprintf("%s ist ungültig", fe.Field())
}

// NormalizePhone formats raw as E.164 when it parses as a possible number.
// Anything else is kept as typed, since leads are often captured with
// partial or internal numbers.
func NormalizePhone(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return raw
	}
	num, err := phonenumbers.Parse(raw, DefaultPhoneRegion)
	if err != nil || !phonenumbers.IsPossibleNumber(num) {
		return raw
	}
	return phonenumbers.Format(num, phonenumbers.E164)
}
