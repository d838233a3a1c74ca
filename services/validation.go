package services

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/kendall-kelly/tutoring-orders-api/models"
)

var validate = newValidator()

type enum interface{ Valid() bool }

func newValidator() *validator.Validate {
	v := validator.New()

	// Report json field names rather than Go field names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	_ = v.RegisterValidation("notblank", validators.NotBlank)
	registerEnum[models.Grade](v, "grade")
	registerEnum[models.Curriculum](v, "curriculum")
	registerEnum[models.SessionType](v, "session_type")
	registerEnum[models.PreferredTime](v, "preferred_time")
	registerEnum[models.Priority](v, "priority")
	registerEnum[models.OrderStatus](v, "order_status")
	return v
}

func registerEnum[T enum](v *validator.Validate, tag string) {
	_ = v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		value, ok := fl.Field().Interface().(T)
		return ok && value.Valid()
	})
}

// validateStruct runs the struct tag rules and converts failures into a ValidationError
func validateStruct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return errValidation(FieldError{Field: "body", Message: err.Error()})
	}

	details := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, FieldError{Field: fe.Field(), Message: fieldMessage(fe)})
	}
	return errValidation(details...)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "required_if":
		return "is required for offline sessions"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.String || fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must be at most %s %s", fe.Param(), unitFor(fe.Kind()))
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "notblank":
		return "must not be blank"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "grade", "curriculum", "session_type", "preferred_time", "priority", "order_status":
		return fmt.Sprintf("is not a valid %s", strings.ReplaceAll(fe.Tag(), "_", " "))
	}
	return fmt.Sprintf("failed %s validation", fe.Tag())
}

func unitFor(kind reflect.Kind) string {
	if kind == reflect.Slice {
		return "items"
	}
	return "characters"
}
