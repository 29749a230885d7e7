package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"

	"github.com/zhubert/gitgate/paths"
	"github.com/zhubert/gitgate/repo"
)

var (
	prefixPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]*$`)
	namePattern   = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

	validate = newValidator()
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("toolprefix", func(fl validator.FieldLevel) bool {
		return prefixPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("reponame", func(fl validator.FieldLevel) bool {
		return namePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("pushflag", func(fl validator.FieldLevel) bool {
		f := fl.Field().String()
		return strings.HasPrefix(f, "-") && !strings.ContainsAny(f, " \t\r\n")
	})
	return v
}

// Validate checks the config after all layers have been applied.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, describe(fe))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.LogDir != "" && c.LogFile != "" && filepath.Clean(c.LogFile) == filepath.Clean(c.LogDir) {
		return errors.New("invalid config: log_file must not be the log directory")
	}
	return nil
}

func describe(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "Config.")
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "unique":
		return field + " must have unique names"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %q", field, fe.Param(), fe.Value())
	case "pushflag":
		return fmt.Sprintf("%s %q must start with '-' and contain no whitespace", field, fe.Value())
	case "toolprefix":
		return fmt.Sprintf("%s %q must start with a letter and contain only letters, digits, '_' or '-'", field, fe.Value())
	case "reponame":
		return fmt.Sprintf("%s %q contains invalid characters", field, fe.Value())
	case "url":
		return fmt.Sprintf("%s %q is not a valid URL", field, fe.Value())
	default:
		return fmt.Sprintf("%s failed %q validation", field, fe.Tag())
	}
}

// Router builds the repository router described by the config: one implicit
// context, or a named table when repositories are configured. Paths are
// ~-expanded and the proxy overlay is attached to every context.
func (c *Config) Router() (*repo.Router, error) {
	env := c.Proxy.Env()

	if !c.Multi() {
		dir := c.WorkingDirectory
		if dir == "" {
			wd, err := os.Getwd()
			if err != nil {
				return nil, fmt.Errorf("resolve working directory: %w", err)
			}
			dir = wd
		}
		dir, err := paths.ExpandHome(dir)
		if err != nil {
			return nil, err
		}
		return repo.NewSingle(repo.Context{
			Name:             c.Name,
			WorkingDirectory: dir,
			RemoteName:       c.RemoteName,
			LocalBranch:      c.LocalBranch,
			RemoteBranch:     c.RemoteBranch,
			PullSourceBranch: c.PullSourceBranch,
			PushFlags:        c.PushFlags,
			Language:         c.Language,
			Env:              env,
		})
	}

	contexts := make([]repo.Context, 0, len(c.Repositories))
	for _, r := range c.Repositories {
		dir, err := paths.ExpandHome(r.WorkingDirectory)
		if err != nil {
			return nil, err
		}
		contexts = append(contexts, repo.Context{
			Name:             r.Name,
			WorkingDirectory: dir,
			RemoteName:       lo.CoalesceOrEmpty(r.RemoteName, c.RemoteName),
			LocalBranch:      lo.CoalesceOrEmpty(r.LocalBranch, c.LocalBranch),
			RemoteBranch:     lo.CoalesceOrEmpty(r.RemoteBranch, c.RemoteBranch),
			PullSourceBranch: lo.CoalesceOrEmpty(r.PullSourceBranch, c.PullSourceBranch),
			PushFlags:        orSlice(r.PushFlags, c.PushFlags),
			Language:         lo.CoalesceOrEmpty(r.Language, c.Language),
			Env:              env,
		})
	}
	return repo.NewMulti(contexts)
}

// ResolvedLogDir returns LogDir with ~ expanded.
func (c *Config) ResolvedLogDir() (string, error) {
	if c.LogDir == "" {
		return "", nil
	}
	return paths.ExpandHome(c.LogDir)
}

func orSlice(v, fallback []string) []string {
	if len(v) > 0 {
		return v
	}
	return fallback
}
