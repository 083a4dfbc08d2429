package crann

// Target is what a rule resolves an identifier to instead of building it
// directly. It is one of Alias, Factory or Value.
type Target interface {
	target()
}

// AliasTarget substitutes another identifier as the type to build.
type AliasTarget string

func (AliasTarget) target() {}

// Alias returns a Target that builds the type registered under id.
//
// Example:
//
//	container.AddRule("[A]", crann.Rule{Shared: crann.Bool(true), InstanceOf: crann.Alias("A")})
func Alias(id string) Target {
	return AliasTarget(id)
}

// FactoryFunc builds an instance by hand.
// It receives a Resolver bound to the build in progress and the explicit
// arguments passed to Create. The factory is fully responsible for the
// instance it returns: no rule is applied to the result.
//
// Dependencies must be requested through r. Calling the Container's own
// Create from inside a factory blocks forever, because the build that
// invoked the factory still holds the container's build lock.
//
// Example:
//
//	factory := func(r crann.Resolver, args []any) (any, error) {
//	    cfg, err := r.Create("Config")
//	    if err != nil {
//	        return nil, err
//	    }
//	    return NewConnection(cfg.(*Config).DSN), nil
//	}
type FactoryFunc func(r Resolver, args []any) (any, error)

func (FactoryFunc) target() {}

// Factory returns a Target that calls fn.
func Factory(fn FactoryFunc) Target {
	return fn
}

// ValueTarget supplies a ready-made value.
type ValueTarget struct {
	V any
}

func (ValueTarget) target() {}

// Value returns a Target that always yields v.
func Value(v any) Target {
	return ValueTarget{V: v}
}

// Reference marks a rule parameter or call argument as an identifier to be
// built, rather than a literal value.
type Reference struct {
	ID string
}

// Ref returns a Reference to id.
//
// Example:
//
//	crann.Rule{ConstructParams: []any{crann.Ref("Logger"), "localhost"}}
func Ref(id string) Reference {
	return Reference{ID: id}
}

// Resolver builds instances inside a build that is already in progress.
// It is handed to factories so they can request dependencies without
// re-entering the container's build lock.
type Resolver interface {
	// Create resolves id using its rules, like Container.Create.
	Create(id string, args ...any) (any, error)

	// CreateFresh resolves id bypassing the shared instance cache.
	CreateFresh(id string, args ...any) (any, error)
}
