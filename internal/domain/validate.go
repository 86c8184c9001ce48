package domain

import (
	"errors"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	tferrors "github.com/mrz1836/taskflow/internal/errors"
)

//nolint:gochecknoglobals // validator caches struct metadata; one instance per process
var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})
		_ = v.RegisterValidation("priority", func(fl validator.FieldLevel) bool {
			return IsValidPriority(Priority(fl.Field().String()))
		})
		_ = v.RegisterValidation("status", func(fl validator.FieldLevel) bool {
			return IsValidStatus(Status(fl.Field().String()))
		})
		validate = v
	})
	return validate
}

// Validate checks the struct tags of a Task, TaskDraft, TaskPatch, List or
// Workspace. The first failing field is reported as a wrapped sentinel:
// ErrEmptyValue, ErrInvalidPriority, ErrInvalidStatus or ErrInvalidArgument.
func Validate(v any) error {
	err := validatorInstance().Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return tferrors.Wrap(tferrors.ErrInvalidArgument, err.Error())
	}

	fe := fieldErrs[0]
	switch fe.Tag() {
	case "notblank", "required":
		return tferrors.Wrapf(tferrors.ErrEmptyValue, "%s", fe.Namespace())
	case "priority":
		return tferrors.Wrapf(tferrors.ErrInvalidPriority, "%s %q", fe.Namespace(), fe.Value())
	case "status":
		return tferrors.Wrapf(tferrors.ErrInvalidStatus, "%s %q", fe.Namespace(), fe.Value())
	default:
		return tferrors.Wrapf(tferrors.ErrInvalidArgument, "%s failed %s", fe.Namespace(), fe.Tag())
	}
}
