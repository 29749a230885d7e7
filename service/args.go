package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

// Tool argument DTOs. Pointer fields distinguish "absent" (use the default)
// from an explicit out-of-range value.

type RepoArgs struct {
	Repo string `json:"repo"`
}

type SaveChangesArgs struct {
	Files   []string `json:"files" validate:"required,min=1,dive,notblank"`
	Content string   `json:"content" validate:"notblank"`
	Repo    string   `json:"repo"`
	Limit   *int     `json:"limit" validate:"omitempty,min=1,max=1000"`
}

type PendingChangesArgs struct {
	Limit  *int   `json:"limit" validate:"omitempty,min=1,max=1000"`
	Offset *int   `json:"offset" validate:"omitempty,min=0"`
	Repo   string `json:"repo"`
}

type PushArgs struct {
	Message string `json:"message" validate:"notblank"`
	Repo    string `json:"repo"`
}

type OperationLogsArgs struct {
	Limit  *int   `json:"limit" validate:"omitempty,min=1,max=1000"`
	Offset *int   `json:"offset" validate:"omitempty,min=0"`
	Repo   string `json:"repo"`
}

type DiffArgs struct {
	Staged bool     `json:"staged"`
	Files  []string `json:"files" validate:"dive,notblank"`
	Repo   string   `json:"repo"`
}

type AddArgs struct {
	Files []string `json:"files" validate:"dive,notblank"`
	Repo  string   `json:"repo"`
}

type LogArgs struct {
	Limit   *int   `json:"limit" validate:"omitempty,min=1,max=100"`
	Oneline bool   `json:"oneline"`
	Repo    string `json:"repo"`
}

type SetLogDirArgs struct {
	LogDir string `json:"log_dir" validate:"notblank"`
}

// Defaults for optional arguments.
const (
	DefaultPendingLimit    = 1000
	DefaultOperationsLimit = 50
	DefaultLogLimit        = 10
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		return name
	})
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	return v
}

// check validates args and converts failures to ErrInvalidArgument.
func check(args any) error {
	err := validate.Struct(args)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return invalidArgument("%v", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return invalidArgument("%s", strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	// Namespace is "SaveChangesArgs.files[0]"; drop the struct name
	_, field, _ := strings.Cut(fe.Namespace(), ".")
	switch fe.Tag() {
	case "required", "notblank":
		return field + " must not be empty"
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must contain at least %s item(s)", field, fe.Param())
		}
		return fmt.Sprintf("%s must be >= %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be <= %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %q validation", field, fe.Tag())
	}
}

func intOr(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}
