package crann

import (
	"sync"
)

// Wildcard is the identifier of the default rule. Its fields apply to every
// resolution unless the identifier's own rule overrides them.
const Wildcard = "*"

// Call is a method invoked on an instance after construction.
// Args are used positionally; a Reference is built before the call and any
// remaining typed parameters are resolved like constructor parameters.
type Call struct {
	Method string
	Args   []any
}

// Rule controls how an identifier is resolved and built.
// Nil fields are unset and fall back to the default rule when merged.
type Rule struct {
	// Shared caches the built instance and returns it on every later
	// non-forced resolution of the same identifier.
	Shared *bool

	// InstanceOf builds an alias, calls a factory, or yields a value
	// instead of the identifier's own registered type.
	InstanceOf Target

	// Inherit controls whether a rule registered for an interface identifier
	// applies to registered types implementing that interface. Defaults to true.
	Inherit *bool

	// NewInstances lists dependency identifiers that are always built fresh
	// within this rule's subtree, even when their own rule is shared.
	NewInstances []string

	// ConstructParams supplies constructor arguments by position.
	ConstructParams []any

	// Substitutions replaces specific dependencies of this type.
	Substitutions map[string]Target

	// Call lists methods invoked after construction, in order.
	Call []Call
}

// Bool returns a pointer to v, for Rule fields.
func Bool(v bool) *bool {
	return &v
}

// IsShared reports whether the rule caches its instance.
func (r Rule) IsShared() bool {
	return r.Shared != nil && *r.Shared
}

func (r Rule) inherits() bool {
	return r.Inherit == nil || *r.Inherit
}

// clone returns a copy that shares no mutable state with r.
func (r Rule) clone() Rule {
	out := r
	if r.Shared != nil {
		out.Shared = Bool(*r.Shared)
	}
	if r.Inherit != nil {
		out.Inherit = Bool(*r.Inherit)
	}
	if r.NewInstances != nil {
		out.NewInstances = append([]string{}, r.NewInstances...)
	}
	if r.ConstructParams != nil {
		out.ConstructParams = append([]any{}, r.ConstructParams...)
	}
	if r.Substitutions != nil {
		out.Substitutions = make(map[string]Target, len(r.Substitutions))
		for k, v := range r.Substitutions {
			out.Substitutions[k] = v
		}
	}
	if r.Call != nil {
		out.Call = make([]Call, len(r.Call))
		for i, c := range r.Call {
			out.Call[i] = Call{Method: c.Method, Args: append([]any{}, c.Args...)}
		}
	}
	return out
}

// mergeRules overlays over on a copy of base field by field.
// Scalars are replaced, NewInstances and Call are appended,
// Substitutions are merged per key.
func mergeRules(base, over Rule) Rule {
	out := base.clone()
	over = over.clone()

	if over.Shared != nil {
		out.Shared = over.Shared
	}
	if over.InstanceOf != nil {
		out.InstanceOf = over.InstanceOf
	}
	if over.Inherit != nil {
		out.Inherit = over.Inherit
	}
	if over.NewInstances != nil {
		out.NewInstances = append(out.NewInstances, over.NewInstances...)
	}
	if over.ConstructParams != nil {
		out.ConstructParams = over.ConstructParams
	}
	if over.Substitutions != nil {
		if out.Substitutions == nil {
			out.Substitutions = make(map[string]Target, len(over.Substitutions))
		}
		for k, v := range over.Substitutions {
			out.Substitutions[k] = v
		}
	}
	if over.Call != nil {
		out.Call = append(out.Call, over.Call...)
	}
	return out
}

// ruleStore holds rules as registered, before any merging.
type ruleStore struct {
	mu    sync.RWMutex
	rules map[string]Rule
}

func newRuleStore() *ruleStore {
	return &ruleStore{rules: make(map[string]Rule)}
}

// add registers or fully replaces the rule for id.
func (s *ruleStore) add(id string, rule Rule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules[id] = rule.clone()
}

// get returns the raw rule registered for id.
func (s *ruleStore) get(id string) (Rule, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rules[id]
	return r, ok
}
