package crann

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/go-logr/logr"

	"github.com/toutaio/toutago-crann-object-graph/registry"
)

// Container resolves identifiers into fully wired object graphs.
// It is safe for concurrent use. Top-level builds are serialised so at most
// one shared instance is ever created per identifier.
type Container struct {
	registry        *registry.Registry
	rules           *ruleStore
	instances       *instanceCache
	reflectionCache *reflectionCache
	modules         []Module
	modulesMu       sync.Mutex
	buildMu         sync.Mutex
	logger          logr.Logger
	metrics         *metrics
}

// New creates a new Container.
// Options can be provided to configure logging and metrics.
//
// Example:
//
//	container := crann.New()
//	// or with options:
//	container := crann.New(crann.WithLogger(logger), crann.WithMetrics(prometheus.DefaultRegisterer))
func New(options ...Option) *Container {
	c := &Container{
		registry:        registry.New(),
		rules:           newRuleStore(),
		instances:       newInstanceCache(),
		reflectionCache: newReflectionCache(),
		logger:          logr.Discard(),
	}

	for _, opt := range options {
		if err := opt(c); err != nil {
			panic(fmt.Sprintf("failed to apply option: %v", err))
		}
	}

	return c
}

// Register registers a struct type that has no constructor.
// The prototype must be a pointer to struct such as &Config{}; only its type
// is used. Instances are built as zero values.
//
// Example:
//
//	container.Register("Config", &Config{})
func (c *Container) Register(id string, prototype any) error {
	if prototype == nil {
		return &InvalidRegistrationError{ID: id, Reason: "prototype cannot be nil"}
	}

	t := reflect.TypeOf(prototype)
	if t.Kind() != reflect.Ptr || t.Elem().Kind() != reflect.Struct {
		return &InvalidRegistrationError{
			ID:     id,
			Reason: fmt.Sprintf("prototype must be pointer to struct, got %v", t),
		}
	}

	return c.register(&registry.Entry{ID: id, Type: t, Kind: registry.KindStruct})
}

// RegisterConstructor registers a type built by a constructor function.
// The constructor's parameters are resolved when the identifier is built;
// params optionally name them and supply defaults, in order.
//
// Supported constructor signatures:
//   - func(...) *Service
//   - func(...) (*Service, error)
//
// When the type takes part in a cycle, its partners receive a pointer
// allocated before the constructor runs, and the constructed struct is
// copied into it afterwards. The pointer the constructor returned is then
// discarded: such a constructor must not hand its own pointer elsewhere
// (to a goroutine or a callback) or hold a lock in the struct
// while returning it. Use a Call entry for that wiring instead, since
// calls run on the final instance.
//
// Example:
//
//	container.RegisterConstructor("UserService", NewUserService,
//	    crann.Param{Name: "repo"},
//	    crann.Param{Name: "pageSize", Default: 50},
//	)
func (c *Container) RegisterConstructor(id string, constructor any, params ...Param) error {
	info, err := parseConstructor(constructor, params)
	if err != nil {
		return &InvalidRegistrationError{ID: id, Reason: fmt.Sprintf("invalid constructor: %v", err)}
	}

	return c.register(&registry.Entry{
		ID:          id,
		Type:        info.returnType,
		Kind:        registry.KindConstructor,
		Constructor: info,
	})
}

// RegisterInterface registers an abstract identifier for an interface.
// The iface argument should be an interface pointer like (*Logger)(nil).
// Constructor parameters of that interface type resolve through the
// identifier, and rules added for it apply to registered implementations.
//
// Example:
//
//	container.RegisterInterface("Logger", (*Logger)(nil))
//	container.AddRule("Logger", crann.Rule{InstanceOf: crann.Alias("ConsoleLogger")})
func (c *Container) RegisterInterface(id string, iface any) error {
	if iface == nil {
		return &InvalidRegistrationError{ID: id, Reason: "interface cannot be nil"}
	}

	t := reflect.TypeOf(iface)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Interface {
		return &InvalidRegistrationError{ID: id, Reason: fmt.Sprintf("expected interface pointer, got %v", reflect.TypeOf(iface))}
	}

	return c.register(&registry.Entry{ID: id, Type: t, Kind: registry.KindInterface})
}

func (c *Container) register(entry *registry.Entry) error {
	if entry.ID == Wildcard {
		return &InvalidRegistrationError{ID: entry.ID, Reason: "the wildcard identifier is reserved for the default rule"}
	}
	if err := c.registry.Register(entry); err != nil {
		return err
	}
	c.logger.V(1).Info("registered type", "identifier", entry.ID, "type", entry.Type.String(), "kind", entry.Kind.String())
	return nil
}

// Has reports whether a type is registered under id.
func (c *Container) Has(id string) bool {
	return c.registry.Has(id)
}

// Identifiers returns every registered type identifier, sorted.
func (c *Container) Identifiers() []string {
	return c.registry.IDs()
}

// AddRule registers or fully replaces the rule for id.
// The rule named Wildcard is the default applied to every identifier.
//
// Example:
//
//	container.AddRule("*", crann.Rule{Shared: crann.Bool(true)})
//	container.AddRule("Request", crann.Rule{Shared: crann.Bool(false)})
func (c *Container) AddRule(id string, rule Rule) error {
	if id == "" {
		return &InvalidRuleError{ID: id, Reason: "identifier cannot be empty"}
	}
	for i, call := range rule.Call {
		if call.Method == "" {
			return &InvalidRuleError{ID: id, Reason: fmt.Sprintf("call %d has no method name", i)}
		}
	}
	for dep, t := range rule.Substitutions {
		if t == nil {
			return &InvalidRuleError{ID: id, Reason: fmt.Sprintf("substitution for %q is nil", dep)}
		}
	}

	c.rules.add(id, rule)
	c.logger.V(1).Info("added rule", "identifier", id)
	return nil
}

// GetRule returns the effective rule for id: the default rule with the
// identifier's own rule overlaid field by field. An identifier with no rule
// of its own inherits the rule of the first registered interface it
// implements, unless that rule sets Inherit to false or has an InstanceOf.
// Returns an empty Rule when no rule applies.
func (c *Container) GetRule(id string) Rule {
	def, hasDefault := c.rules.get(Wildcard)
	if id == Wildcard {
		return def.clone()
	}

	specific, ok := c.ownRule(id)

	switch {
	case ok && hasDefault:
		return mergeRules(def, specific)
	case ok:
		return specific.clone()
	case hasDefault:
		return def.clone()
	default:
		return Rule{}
	}
}

// ownRule returns the rule set for id itself, or the one it inherits from
// an interface, without the default rule.
func (c *Container) ownRule(id string) (Rule, bool) {
	if rule, ok := c.rules.get(id); ok {
		return rule, true
	}
	return c.inheritedRule(id)
}

func (c *Container) inheritedRule(id string) (Rule, bool) {
	entry, ok := c.registry.Get(id)
	if !ok || entry.Kind == registry.KindInterface {
		return Rule{}, false
	}

	for _, iface := range c.registry.Interfaces() {
		if !entry.Type.Implements(iface.Type) {
			continue
		}
		rule, ok := c.rules.get(iface.ID)
		if ok && rule.InstanceOf == nil && rule.inherits() {
			return rule, true
		}
	}
	return Rule{}, false
}

// Inspect returns the constructor parameters of the type registered under
// id, in declared order. Types registered without a constructor have none.
func (c *Container) Inspect(id string) ([]ParamInfo, error) {
	entry, ok := c.registry.Get(id)
	if !ok {
		return nil, &UnresolvableTypeError{ID: id}
	}

	switch entry.Kind {
	case registry.KindInterface:
		return nil, &UnresolvableTypeError{ID: id, Reason: fmt.Sprintf("%v is an interface", entry.Type)}
	case registry.KindConstructor:
		info := entry.Constructor.(*constructorInfo)
		out := make([]ParamInfo, len(info.params))
		copy(out, info.params)
		return out, nil
	default:
		return []ParamInfo{}, nil
	}
}

// Create resolves id into an instance.
// Explicit args are used verbatim for the first constructor parameters;
// passing more args than the constructor takes is a *ConstructionError.
//
// The returned instance depends on the effective rule:
//   - Shared: the cached instance, built on first use
//   - InstanceOf: the aliased type, the factory result, or the value
//   - otherwise a newly built instance with its dependencies resolved
//
// Returns *UnresolvableTypeError when id (or a dependency) names no
// constructible type and *MissingArgumentError when a parameter cannot be
// satisfied. A failed Create leaves no instance behind in the shared cache.
//
// Example:
//
//	svc, err := container.Create("UserService")
//	if err != nil {
//	    return err
//	}
//	users := svc.(*UserService)
func (c *Container) Create(id string, args ...any) (any, error) {
	return c.build(id, args, false)
}

// CreateFresh is Create with the shared instance cache bypassed: the
// identifier itself is always built anew and the result is not cached.
func (c *Container) CreateFresh(id string, args ...any) (any, error) {
	return c.build(id, args, true)
}

// MustCreate is like Create but panics on error.
func (c *Container) MustCreate(id string, args ...any) any {
	instance, err := c.Create(id, args...)
	if err != nil {
		panic(fmt.Sprintf("crann: %v", err))
	}
	return instance
}

// CreateAs resolves id and asserts the result to T.
//
// Example:
//
//	users, err := crann.CreateAs[*UserService](container, "UserService")
func CreateAs[T any](c *Container, id string, args ...any) (T, error) {
	var zero T
	instance, err := c.Create(id, args...)
	if err != nil {
		return zero, err
	}
	typed, ok := instance.(T)
	if !ok {
		return zero, &ConstructionError{
			ID:    id,
			Cause: fmt.Errorf("instance of type %T is not %v", instance, reflect.TypeOf((*T)(nil)).Elem()),
		}
	}
	return typed, nil
}

func (c *Container) build(id string, args []any, force bool) (any, error) {
	c.buildMu.Lock()
	defer c.buildMu.Unlock()

	f := newFrame(c, id)
	instance, err := f.run(args, force)
	if err != nil {
		c.metrics.failed(err)
		return nil, err
	}
	return instance, nil
}
