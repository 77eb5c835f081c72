package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"hotelbook/internal/availability"
	apperrors "hotelbook/internal/errors"
	"hotelbook/internal/models"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Register installs the custom tags on gin's validator.
func Register() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
	}
	return RegisterOn(v)
}

// RegisterOn installs the custom tags on v and reports fields by their
// JSON names.
func RegisterOn(v *validator.Validate) error {
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	tags := map[string]validator.Func{
		"ymd": func(fl validator.FieldLevel) bool {
			_, err := availability.ParseDate(fl.Field().String())
			return err == nil
		},
		"hhmm": func(fl validator.FieldLevel) bool {
			_, err := availability.ParseClock(fl.Field().String())
			return err == nil
		},
		"booking_status": func(fl validator.FieldLevel) bool {
			_, err := models.ParseBookingStatus(fl.Field().String())
			return err == nil
		},
	}
	for tag, fn := range tags {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("failed to register %s: %w", tag, err)
		}
	}
	return nil
}

var tagMessages = map[string]string{
	"required":       "is required",
	"ymd":            "must be a YYYY-MM-DD date",
	"hhmm":           "must be HH:MM",
	"booking_status": "is not a booking status",
	"email":          "must be an email address",
	"url":            "must be a URL",
}

// BindError converts a gin binding failure into a validation error with a
// per-field map.
func BindError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperrors.NewValidation("invalid_body", "request body is not valid JSON")
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		msg, ok := tagMessages[fe.Tag()]
		if !ok {
			msg = "failed " + fe.Tag()
			if fe.Param() != "" {
				msg += "=" + fe.Param()
			}
		}
		fields[fe.Field()] = msg
	}
	e := apperrors.NewValidation("invalid_request", "request is invalid")
	e.Fields = fields
	return e
}
