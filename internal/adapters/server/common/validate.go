package common

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/hylla/csrpulse/internal/app"
	"github.com/hylla/csrpulse/internal/domain"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// requestValidator returns the shared validator with domain rules registered.
func requestValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
			if name == "" || name == "-" {
				return field.Name
			}
			return name
		})
		_ = v.RegisterValidation("report_type", func(fl validator.FieldLevel) bool {
			return domain.NormalizeReportType(domain.ReportType(fl.Field().String())) != ""
		})
		_ = v.RegisterValidation("report_status", func(fl validator.FieldLevel) bool {
			return domain.NormalizeReportStatus(domain.ReportStatus(fl.Field().String())) != ""
		})
		_ = v.RegisterValidation("report_date", func(fl validator.FieldLevel) bool {
			_, err := domain.ParseDate(fl.Field().String())
			return err == nil
		})
		_ = v.RegisterValidation("export_format", func(fl validator.FieldLevel) bool {
			_, err := app.ParseExportFormat(fl.Field().String())
			return err == nil
		})
		_ = v.RegisterValidation("trend_metric", func(fl validator.FieldLevel) bool {
			_, err := app.ParseTrendMetric(fl.Field().String())
			return err == nil
		})
		_ = v.RegisterValidation("trend_grouping", func(fl validator.FieldLevel) bool {
			_, err := app.ParseTrendGrouping(fl.Field().String())
			return err == nil
		})
		validate = v
	})
	return validate
}

// ValidateRequest checks req against its struct tags and wraps failures in ErrInvalidRequest.
func ValidateRequest(req any) error {
	err := requestValidator().Struct(req)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, describeFieldError(fe))
	}
	return fmt.Errorf("%w: %s", ErrInvalidRequest, strings.Join(msgs, "; "))
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "max":
		return fmt.Sprintf("%s exceeds %s", fe.Field(), fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "report_date":
		return fmt.Sprintf("%s must be YYYY-MM-DD or RFC3339, got %q", fe.Field(), fe.Value())
	default:
		return fmt.Sprintf("%s is not a valid %s (%v)", fe.Field(), strings.ReplaceAll(fe.Tag(), "_", " "), fe.Value())
	}
}
