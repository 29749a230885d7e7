package repo

import (
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"
)

var (
	// ErrRepositoryNotFound is returned when a name does not match any
	// configured context.
	ErrRepositoryNotFound = errors.New("repository not found")
	// ErrRepositoryRequired is returned in multi-instance mode when a
	// context-scoped call omits the repository name.
	ErrRepositoryRequired = errors.New("repository name is required")
)

// Router resolves a caller-supplied repository name to a Context.
//
// In single-instance mode the name is ignored and the sole context is
// returned. In multi-instance mode the name must exactly match one entry of
// the table built at startup.
type Router struct {
	contexts []*Context
	byName   map[string]*Context
	multi    bool
}

// NewSingle creates a router serving one implicit context.
func NewSingle(c Context) (*Router, error) {
	c.Normalize()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &Router{contexts: []*Context{&c}}, nil
}

// NewMulti creates a router over a named context table. Names must be
// non-empty and unique; order is preserved for listings.
func NewMulti(contexts []Context) (*Router, error) {
	if len(contexts) == 0 {
		return nil, errors.New("multi-instance mode requires at least one repository")
	}

	r := &Router{
		byName: make(map[string]*Context, len(contexts)),
		multi:  true,
	}
	for i := range contexts {
		c := contexts[i]
		if strings.TrimSpace(c.Name) == "" {
			return nil, fmt.Errorf("repository #%d: name is required in multi-instance mode", i+1)
		}
		if _, dup := r.byName[c.Name]; dup {
			return nil, fmt.Errorf("duplicate repository name %q", c.Name)
		}
		c.Normalize()
		if err := c.Validate(); err != nil {
			return nil, err
		}
		r.contexts = append(r.contexts, &c)
		r.byName[c.Name] = &c
	}
	return r, nil
}

// Multi reports whether the router serves a named context table.
func (r *Router) Multi() bool {
	return r.multi
}

// Names returns the context names in configuration order.
func (r *Router) Names() []string {
	return lo.Map(r.contexts, func(c *Context, _ int) string { return c.Name })
}

// Contexts returns every context in configuration order.
func (r *Router) Contexts() []*Context {
	return r.contexts
}

// Resolve returns the context for name. Pure lookup.
func (r *Router) Resolve(name string) (*Context, error) {
	if !r.multi {
		return r.contexts[0], nil
	}
	if name == "" {
		return nil, fmt.Errorf("%w; available repositories: %s", ErrRepositoryRequired, strings.Join(r.Names(), ", "))
	}
	c, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %s)", ErrRepositoryNotFound, name, strings.Join(r.Names(), ", "))
	}
	return c, nil
}
