// Package crann builds object graphs from construction rules.
//
// Crann (Old Irish: "tree") resolves an identifier into a fully wired
// instance: it finds the registered type, resolves each constructor
// parameter recursively, and applies the rules registered for the
// identifier along the way. Graphs containing cycles are supported.
//
// # Quick Start
//
// Register types under identifiers and create them:
//
//	container := crann.New()
//	container.RegisterConstructor("Repo", NewRepo)
//	container.RegisterConstructor("Service", NewService) // func NewService(r *Repo) *Service
//	svc, err := container.Create("Service")
//
// Parameters are matched to identifiers by their declared Go type. An
// interface parameter resolves through an interface identifier:
//
//	container.RegisterInterface("Logger", (*Logger)(nil))
//	container.AddRule("Logger", crann.Rule{InstanceOf: crann.Alias("ConsoleLogger")})
//
// # Rules
//
// A Rule controls how an identifier is built:
//
//   - Shared: build once, then return the same instance
//   - InstanceOf: build an alias, call a factory, or return a value
//   - NewInstances: dependencies always built fresh in this subtree
//   - ConstructParams: positional constructor arguments, literal or Ref
//   - Substitutions: replace specific dependencies
//   - Call: methods invoked after construction
//
// The rule named "*" is the default. Its fields apply to every identifier
// unless overridden; NewInstances and Call lists are appended rather than
// replaced. Rules added for an interface identifier also apply to
// registered types implementing it.
//
//	container.AddRule("*", crann.Rule{Shared: crann.Bool(true)})
//	container.AddRule("Request", crann.Rule{Shared: crann.Bool(false)})
//
// Aliases let one type be shared under several names:
//
//	container.AddRule("[ReadDB]", crann.Rule{Shared: crann.Bool(true), InstanceOf: crann.Alias("DB")})
//
// # Cycles
//
// When a dependency is already under construction in the same build, it
// receives a pointer to the instance being built instead of recursing. That
// pointer becomes the finished instance once its constructor returns, so
// both sides of the cycle reference the same objects. Constructors must not
// read fields of a cyclic partner; they may only store the pointer.
//
// # Errors
//
// Create returns *UnresolvableTypeError for identifiers with no
// constructible type and *MissingArgumentError for parameters nothing can
// satisfy. Failures from constructors, factories and calls are wrapped in
// *ConstructionError.
//
// # Thread Safety
//
// A Container can be used concurrently. Builds are serialised.
package crann
