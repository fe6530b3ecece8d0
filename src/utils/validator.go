package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"regexp"
	"strings"

	"standup/src/types"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

var weekdayTimePattern = regexp.MustCompile(`^(Monday|Tuesday|Wednesday|Thursday|Friday|Saturday|Sunday) ([01]\d|2[0-3]):([0-5]\d) - ([01]\d|2[0-3]):([0-5]\d)$`)

// WeekdayTime accepts schedules like "Monday 09:00 - 09:30" whose end is
// after the start.
var WeekdayTime validator.Func = func(fl validator.FieldLevel) bool {
	value, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	m := weekdayTimePattern.FindStringSubmatch(value)
	if m == nil {
		return false
	}
	start := m[2] + m[3]
	end := m[4] + m[5]
	return start < end
}

// Picture accepts raw base64 or a base64 data URL.
var Picture validator.Func = func(fl validator.FieldLevel) bool {
	value, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	_, err := DecodePicture(value)
	return err == nil
}

func jsonFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return fld.Name
	}
	return name
}

// RegisterValidators installs the custom tags used by request bodies and makes
// error field names follow the json tags.
func RegisterValidators(v *validator.Validate) error {
	v.RegisterTagNameFunc(jsonFieldName)
	if err := v.RegisterValidation("weekdaytime", WeekdayTime); err != nil {
		return err
	}
	if err := v.RegisterValidation("picture", Picture); err != nil {
		return err
	}
	return v.RegisterValidation("notblank", validators.NotBlank)
}

func fieldKey(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func fieldMessage(fe validator.FieldError) string {
	field := fieldKey(fe)
	switch fe.Tag() {
	case "required", "notblank":
		return field + " is required"
	case "email":
		return field + " must be a valid email"
	case "min":
		return fmt.Sprintf("%s must have at least %s item(s)", field, fe.Param())
	case "picture":
		return field + " must be base64 encoded or a base64 data URL"
	case "weekdaytime":
		return field + ` must look like "Monday 09:00 - 09:30"`
	}
	return field + " is invalid"
}

// ValidationErrorFrom converts a binding failure into a ValidationError with
// one message per field.
func ValidationErrorFrom(err error) *types.ValidationError {
	var (
		ve           validator.ValidationErrors
		syntaxErr    *json.SyntaxError
		unmarshalErr *json.UnmarshalTypeError
		existing     *types.ValidationError
	)
	out := &types.ValidationError{}
	switch {
	case errors.As(err, &existing):
		return existing
	case errors.As(err, &ve):
		for _, fe := range ve {
			out.Add(fieldKey(fe), fieldMessage(fe))
		}
	case errors.As(err, &unmarshalErr):
		field := unmarshalErr.Field
		if field == "" {
			field = "body"
		}
		out.Add(field, fmt.Sprintf("%s must be of type %s", field, unmarshalErr.Type.String()))
	case errors.As(err, &syntaxErr), errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		out.Add("body", "request body must be valid JSON")
	default:
		out.Add("body", err.Error())
	}
	return out
}
