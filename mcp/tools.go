package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/xeipuuv/gojsonschema"

	"github.com/zhubert/gitgate/repo"
	"github.com/zhubert/gitgate/service"
)

// handler decodes raw tool arguments and invokes the service.
type handler func(ctx context.Context, svc *service.Service, args json.RawMessage) (any, error)

// bind adapts a service method taking a typed argument struct.
func bind[A, R any](fn func(*service.Service, context.Context, A) (R, error)) handler {
	return func(ctx context.Context, svc *service.Service, raw json.RawMessage) (any, error) {
		var args A
		if err := json.Unmarshal(raw, &args); err != nil {
			return nil, fmt.Errorf("%w: %v", service.ErrInvalidArgument, err)
		}
		res, err := fn(svc, ctx, args)
		if err != nil {
			return nil, err
		}
		return res, nil
	}
}

type tool struct {
	name   string // unprefixed
	def    ToolDefinition
	schema *gojsonschema.Schema
	call   handler
}

// validate checks args against the tool's input schema.
func (t *tool) validate(args json.RawMessage) error {
	res, err := t.schema.Validate(gojsonschema.NewBytesLoader(args))
	if err != nil {
		return fmt.Errorf("%w: %v", service.ErrInvalidArgument, err)
	}
	if res.Valid() {
		return nil
	}
	msgs := lo.Map(res.Errors(), func(e gojsonschema.ResultError, _ int) string { return e.String() })
	return fmt.Errorf("%w: %s", service.ErrInvalidArgument, strings.Join(msgs, "; "))
}

type toolSpec struct {
	name     string
	desc     string
	props    map[string]Property
	required []string
	call     handler
}

// toolset is the fixed tool surface of one server.
type toolset struct {
	prefix string
	tools  []*tool
	byName map[string]*tool
}

func intp(n int) *int { return &n }

func repoProperty(r *repo.Router) Property {
	if r.Multi() {
		return Property{
			Type:        "string",
			Description: "Repository name. Required. One of: " + strings.Join(r.Names(), ", "),
		}
	}
	return Property{Type: "string", Description: "Repository name. Ignored in single-repository mode."}
}

func newToolset(svc *service.Service) (*toolset, error) {
	r := svc.Router()
	repoProp := repoProperty(r)
	reviewTool := svc.ToolName(service.ToolGetPendingChanges)
	mapping := describeContexts(r)

	props := func(extra map[string]Property) map[string]Property {
		m := map[string]Property{"repo": repoProp}
		for k, v := range extra {
			m[k] = v
		}
		return m
	}

	specs := []toolSpec{
		{
			name: service.ToolGitPush,
			desc: "Stage all changes, commit them with the given message and push. " + mapping +
				" If unreviewed pending changes exist the push is refused with guidance (code CHANGES_NOT_REVIEWED): call " +
				reviewTool + " first. Each review allows one push attempt.",
			props: props(map[string]Property{
				"message": {Type: "string", Description: "Commit message", MinLength: intp(1)},
			}),
			required: []string{"message"},
			call:     bind((*service.Service).Push),
		},
		{
			name:  service.ToolGitPull,
			desc:  "Pull the configured source branch from the remote. " + mapping,
			props: props(nil),
			call:  bind((*service.Service).Pull),
		},
		{
			name:  service.ToolGetPushHistory,
			desc:  "Return the history of push attempts, most recent first, including blocked and failed attempts.",
			props: props(nil),
			call:  bind((*service.Service).PushHistory),
		},
		{
			name: service.ToolGetOperationLogs,
			desc: "Return journaled requests and responses, newest first.",
			props: props(map[string]Property{
				"limit":  {Type: "integer", Description: "Maximum entries to return", Minimum: intp(1), Maximum: intp(1000), Default: service.DefaultOperationsLimit},
				"offset": {Type: "integer", Description: "Entries to skip", Minimum: intp(0), Default: 0},
			}),
			call: bind((*service.Service).OperationLogs),
		},
		{
			name: service.ToolSaveChanges,
			desc: "Record a description of in-progress edits as a pending change awaiting review before push.",
			props: props(map[string]Property{
				"files":   {Type: "array", Description: "Changed file paths", Items: &Property{Type: "string", MinLength: intp(1)}, MinItems: intp(1)},
				"content": {Type: "string", Description: "Description of the change", MinLength: intp(1)},
				"limit":   {Type: "integer", Description: "Maximum pending changes to retain", Minimum: intp(1), Maximum: intp(1000)},
			}),
			required: []string{"files", "content"},
			call:     bind((*service.Service).SaveChanges),
		},
		{
			name: service.ToolGetPendingChanges,
			desc: "List pending changes. Side effect: calling this marks every pending change as reviewed and allows the next " +
				svc.ToolName(service.ToolGitPush) + " call to proceed.",
			props: props(map[string]Property{
				"limit":  {Type: "integer", Description: "Maximum entries to return", Minimum: intp(1), Maximum: intp(1000), Default: service.DefaultPendingLimit},
				"offset": {Type: "integer", Description: "Entries to skip", Minimum: intp(0), Default: 0},
			}),
			call: bind((*service.Service).GetPendingChanges),
		},
		{
			name:  service.ToolGitStatus,
			desc:  "Show the working tree status.",
			props: props(nil),
			call:  bind((*service.Service).Status),
		},
		{
			name: service.ToolGitDiff,
			desc: "Show unstaged changes, or staged changes when staged is true.",
			props: props(map[string]Property{
				"staged": {Type: "boolean", Description: "Diff the index instead of the working tree", Default: false},
				"files":  {Type: "array", Description: "Limit the diff to these paths", Items: &Property{Type: "string", MinLength: intp(1)}},
			}),
			call: bind((*service.Service).Diff),
		},
		{
			name: service.ToolGitAdd,
			desc: "Stage files for commit.",
			props: props(map[string]Property{
				"files": {Type: "array", Description: "Paths to stage", Items: &Property{Type: "string", MinLength: intp(1)}, Default: []string{"."}},
			}),
			call: bind((*service.Service).Add),
		},
		{
			name: service.ToolGitLog,
			desc: "Show recent commits.",
			props: props(map[string]Property{
				"limit":   {Type: "integer", Description: "Number of commits", Minimum: intp(1), Maximum: intp(100), Default: service.DefaultLogLimit},
				"oneline": {Type: "boolean", Description: "Return only hash and subject", Default: false},
			}),
			call: bind((*service.Service).Log),
		},
	}

	if !svc.LogDirPreset() {
		specs = append(specs, toolSpec{
			name: service.ToolSetLogDir,
			desc: "Persist the journal (operation log, push history, pending changes) to a directory. " +
				"The current in-memory state is written there.",
			props: map[string]Property{
				"log_dir": {Type: "string", Description: "Absolute path, or a path starting with ~/", MinLength: intp(1)},
			},
			required: []string{"log_dir"},
			call:     bind((*service.Service).SetLogDir),
		})
	}

	ts := &toolset{prefix: svc.Prefix(), byName: make(map[string]*tool, len(specs))}
	for _, sp := range specs {
		def := ToolDefinition{
			Name:        svc.ToolName(sp.name),
			Description: sp.desc,
			InputSchema: InputSchema{Type: "object", Properties: sp.props, Required: sp.required},
		}
		schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(def.InputSchema))
		if err != nil {
			return nil, fmt.Errorf("invalid schema for %s: %w", sp.name, err)
		}
		t := &tool{name: sp.name, def: def, schema: schema, call: sp.call}
		ts.tools = append(ts.tools, t)
		ts.byName[sp.name] = t
	}
	return ts, nil
}

// lookup resolves an advertised or unprefixed tool name. A bare name wins
// over stripping, so "git_status" still resolves when the prefix is "git".
func (ts *toolset) lookup(name string) (*tool, bool) {
	if t, ok := ts.byName[name]; ok {
		return t, true
	}
	if ts.prefix == "" {
		return nil, false
	}
	bare, found := strings.CutPrefix(name, ts.prefix+"_")
	if !found {
		return nil, false
	}
	t, ok := ts.byName[bare]
	return t, ok
}

func (ts *toolset) definitions() []ToolDefinition {
	return lo.Map(ts.tools, func(t *tool, _ int) ToolDefinition { return t.def })
}

// describeContexts renders the branch mapping of every context for tool
// descriptions.
func describeContexts(r *repo.Router) string {
	lines := lo.Map(r.Contexts(), func(c *repo.Context, _ int) string {
		s := fmt.Sprintf("%s -> %s/%s", c.LocalBranch, c.RemoteName, c.RemoteBranch)
		if len(c.PushFlags) > 0 {
			s += " (flags: " + strings.Join(c.PushFlags, " ") + ")"
		}
		if r.Multi() {
			s = c.Name + ": " + s
		}
		return s
	})
	return "Branch mapping: " + strings.Join(lines, "; ") + "."
}

// toolResult wraps a service result in a single text content block holding
// indented JSON. Results with a ToolError method are flagged isError.
func toolResult(v any) (ToolCallResult, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return ToolCallResult{}, fmt.Errorf("failed to encode tool result: %w", err)
	}
	res := ToolCallResult{Content: []ContentItem{{Type: "text", Text: strings.TrimSuffix(buf.String(), "\n")}}}
	if te, ok := v.(interface{ ToolError() bool }); ok {
		res.IsError = te.ToolError()
	}
	return res, nil
}

// repoArgument extracts the optional repo argument for journaling.
func repoArgument(args json.RawMessage) string {
	var a service.RepoArgs
	_ = json.Unmarshal(args, &a)
	return a.Repo
}
