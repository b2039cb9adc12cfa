package handler

import (
    "errors"
    "fmt"
    "reflect"
    "strings"

    "github.com/go-playground/validator/v10"

    "github.com/hdfuturetech/cinema-booking/internal/service"
)

// Validator adapts validator/v10 to echo.Validator.  Failures come back as
// validation errors carrying a message about the first offending field,
// named as it appears in the JSON body.
type Validator struct {
    v *validator.Validate
}

func NewValidator() *Validator {
    v := validator.New(validator.WithRequiredStructEnabled())
    v.RegisterTagNameFunc(func(f reflect.StructField) string {
        name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
        if name == "-" {
            return ""
        }
        return name
    })
    return &Validator{v: v}
}

func (cv *Validator) Validate(i any) error {
    err := cv.v.Struct(i)
    if err == nil {
        return nil
    }
    var verrs validator.ValidationErrors
    if errors.As(err, &verrs) && len(verrs) > 0 {
        return &service.Error{Kind: service.ErrValidation, Message: fieldMessage(verrs[0]), Err: err}
    }
    return &service.Error{Kind: service.ErrValidation, Message: msgInvalidBody, Err: err}
}

func fieldMessage(fe validator.FieldError) string {
    field := fe.Field()
    switch fe.Tag() {
    case "required":
        return fmt.Sprintf("Please provide %s", field)
    case "email":
        return fmt.Sprintf("%s must be a valid email address", field)
    case "url":
        return fmt.Sprintf("%s must be a valid URL", field)
    case "oneof":
        return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
    case "min", "max":
        bound := "at least"
        if fe.Tag() == "max" {
            bound = "at most"
        }
        switch fe.Kind() {
        case reflect.String:
            return fmt.Sprintf("%s must be %s %s characters", field, bound, fe.Param())
        case reflect.Slice, reflect.Array:
            return fmt.Sprintf("%s must have %s %s entries", field, bound, fe.Param())
        }
        return fmt.Sprintf("%s must be %s %s", field, bound, fe.Param())
    }
    return fmt.Sprintf("%s is invalid", field)
}
