package validation

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"

	"opname-backend/internal/apperr"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report fields under their json names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// Messages maps "field.tag" to a client message. Unlisted pairs fall back to a
// generic message.
type Messages map[string]string

// Struct validates s and converts failures into an *apperr.ValidationError.
func Struct(s any, msgs Messages) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		name := fe.Field()
		if _, seen := fields[name]; seen {
			continue
		}
		if m, ok := msgs[name+"."+fe.Tag()]; ok {
			fields[name] = m
			continue
		}
		fields[name] = fallback(fe)
	}
	return &apperr.ValidationError{Fields: fields}
}

func fallback(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "The " + fe.Field() + " field is required."
	case "min":
		return "The " + fe.Field() + " field must be at least " + fe.Param() + "."
	case "max":
		return "The " + fe.Field() + " field may not be greater than " + fe.Param() + " characters."
	case "oneof":
		return "The selected " + fe.Field() + " is invalid."
	case "email":
		return "The " + fe.Field() + " field must be a valid email address."
	}
	return "The " + fe.Field() + " field is invalid."
}

// BodyError converts a request body decode failure. A value of the wrong JSON
// type becomes a field error looked up as "field.integer" for numeric targets
// and "field.type" otherwise; anything else is a plain 400.
func BodyError(err error, msgs Messages) error {
	var te *json.UnmarshalTypeError
	if !errors.As(err, &te) || te.Field == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	tag := "type"
	switch te.Type.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		tag = "integer"
	}

	msg, ok := msgs[te.Field+"."+tag]
	if !ok {
		if tag == "integer" {
			msg = "The " + te.Field + " field must be an integer."
		} else {
			msg = "The " + te.Field + " field is invalid."
		}
	}
	return apperr.Field(te.Field, msg)
}
