package authz

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/google/cel-go/cel"
	"gopkg.in/yaml.v3"

	"github.com/emporia/emporia/internal/core/identity/config"
	"github.com/emporia/emporia/pkg/model"
)

// Actions checked by the storefront.
const (
	ActionAdmin        = "admin"
	ActionReviewDelete = "review.delete"
	ActionOrderRead    = "order.read"
)

// DefaultRules is the built-in policy. Every action maps to a CEL condition
// over `request` and `resource`.
var DefaultRules = map[string]string{
	ActionAdmin:        `'admin' in request.auth.roles`,
	ActionReviewDelete: `request.auth.uid == resource.owner || 'admin' in request.auth.roles`,
	ActionOrderRead:    `request.auth.uid == resource.owner || 'admin' in request.auth.roles`,
}

// RequestFor describes a caller with a single role.
func RequestFor(uid, role string) Request {
	return Request{Auth: Auth{UID: uid, Roles: []string{role}}}
}

// RuleSet is the YAML form of a policy file.
type RuleSet struct {
	Version string            `yaml:"rules_version"`
	Rules   map[string]string `yaml:"rules"`
}

// Request describes the caller.
type Request struct {
	Auth Auth `json:"auth"`
}

type Auth struct {
	UID   string   `json:"uid"`
	Roles []string `json:"roles"`
}

// Resource describes the object acted upon.
type Resource struct {
	ID    string                 `json:"id"`
	Owner string                 `json:"owner"`
	Data  map[string]interface{} `json:"data,omitempty"`
}

type Engine interface {
	Evaluate(ctx context.Context, action string, req Request, res *Resource) (bool, error)
	// Authorize returns model.ErrPermissionDenied carrying message when the action is denied.
	Authorize(ctx context.Context, action string, req Request, res *Resource, message string) error
	UpdateRules(content []byte) error
}

type ruleEngine struct {
	env      *cel.Env
	mu       sync.RWMutex
	programs map[string]cel.Program
}

func NewEngine(cfg config.AuthZConfig) (Engine, error) {
	env, err := cel.NewEnv(
		cel.Variable("request", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("resource", cel.MapType(cel.StringType, cel.DynType)),
	)
	if err != nil {
		return nil, err
	}

	e := &ruleEngine{env: env}
	if err := e.load(DefaultRules); err != nil {
		return nil, err
	}

	if cfg.RulesFile != "" {
		data, err := os.ReadFile(cfg.RulesFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read rules file %s: %w", cfg.RulesFile, err)
		}
		if err := e.UpdateRules(data); err != nil {
			return nil, fmt.Errorf("failed to load rules from %s: %w", cfg.RulesFile, err)
		}
	}
	return e, nil
}

// UpdateRules parses a YAML policy and replaces the rules it names.
// Actions it does not mention keep their current condition.
func (e *ruleEngine) UpdateRules(content []byte) error {
	var rs RuleSet
	if err := yaml.Unmarshal(content, &rs); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}
	if len(rs.Rules) == 0 {
		return errors.New("policy defines no rules")
	}

	merged := make(map[string]string, len(DefaultRules)+len(rs.Rules))
	for k, v := range DefaultRules {
		merged[k] = v
	}
	for k, v := range rs.Rules {
		merged[k] = v
	}
	return e.load(merged)
}

// load compiles every rule before swapping them in.
func (e *ruleEngine) load(rules map[string]string) error {
	programs := make(map[string]cel.Program, len(rules))
	for action, condition := range rules {
		ast, issues := e.env.Compile(condition)
		if issues != nil && issues.Err() != nil {
			return fmt.Errorf("rule %q: %w", action, issues.Err())
		}
		if out := ast.OutputType(); !out.IsExactType(cel.BoolType) && !out.IsExactType(cel.DynType) {
			return fmt.Errorf("rule %q must evaluate to bool", action)
		}
		prg, err := e.env.Program(ast)
		if err != nil {
			return fmt.Errorf("rule %q: %w", action, err)
		}
		programs[action] = prg
	}

	e.mu.Lock()
	e.programs = programs
	e.mu.Unlock()
	return nil
}

func (e *ruleEngine) Evaluate(ctx context.Context, action string, req Request, res *Resource) (bool, error) {
	e.mu.RLock()
	prg, ok := e.programs[action]
	e.mu.RUnlock()
	if !ok {
		// Unknown actions are denied
		return false, nil
	}

	if res == nil {
		res = &Resource{}
	}
	if req.Auth.Roles == nil {
		req.Auth.Roles = []string{}
	}
	out, _, err := prg.ContextEval(ctx, map[string]interface{}{
		"request":  structToMap(req),
		"resource": structToMap(res),
	})
	if err != nil {
		return false, err
	}
	return out.Value() == true, nil
}

func (e *ruleEngine) Authorize(ctx context.Context, action string, req Request, res *Resource, message string) error {
	allowed, err := e.Evaluate(ctx, action, req, res)
	if err != nil {
		return fmt.Errorf("authz %s: %w", action, err)
	}
	if !allowed {
		return model.Errorf(model.ErrPermissionDenied, "%s", message)
	}
	return nil
}

func structToMap(v interface{}) map[string]interface{} {
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil
	}
	return m
}
