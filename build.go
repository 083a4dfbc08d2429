package crann

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"github.com/toutaio/toutago-crann-object-graph/registry"
)

// pending is an identifier under construction in the current build.
// For types, shell is a pointer allocated before any dependency is resolved
// and handed to cyclic partners. For factories, shell is invalid.
type pending struct {
	shell reflect.Value
	used  bool
}

// frame is the state of one top-level Create call. It also serves as the
// Resolver handed to factories, so nested requests join the same build.
type frame struct {
	c          *Container
	root       string
	log        logr.Logger
	inProgress map[string]*pending
	stored     []string
}

func newFrame(c *Container, root string) *frame {
	log := c.logger
	if log.V(1).Enabled() {
		log = log.WithValues("build", uuid.NewString()[:8], "root", root)
	}
	return &frame{
		c:          c,
		root:       root,
		log:        log,
		inProgress: make(map[string]*pending),
	}
}

// run builds the root identifier. On failure every shared instance stored
// during this build is evicted again.
func (f *frame) run(args []any, force bool) (any, error) {
	instance, err := f.create(f.root, args, force, nil)
	if err != nil {
		for _, id := range f.stored {
			f.c.instances.delete(id)
		}
		f.log.V(1).Info("build failed", "identifier", f.root, "error", err.Error())
		return nil, err
	}
	return instance, nil
}

// Create implements Resolver.
func (f *frame) Create(id string, args ...any) (any, error) {
	if instance, ok, err := f.inFlight(id); ok {
		return instance, err
	}
	return f.create(id, args, false, nil)
}

// CreateFresh implements Resolver.
func (f *frame) CreateFresh(id string, args ...any) (any, error) {
	if instance, ok, err := f.inFlight(id); ok {
		return instance, err
	}
	return f.create(id, args, true, nil)
}

// create resolves one identifier. inherited is the set of identifiers the
// enclosing rules force to be built fresh.
func (f *frame) create(id string, args []any, force bool, inherited map[string]struct{}) (any, error) {
	rule := f.c.GetRule(id)
	shared := rule.IsShared() && !force

	if shared {
		if instance, ok := f.c.instances.get(id); ok {
			f.c.metrics.sharedHit(id)
			f.log.V(1).Info("reusing shared instance", "identifier", id)
			return instance, nil
		}
	}

	forced := f.forcedSet(id, rule, inherited)

	targetID := id
	switch t := rule.InstanceOf.(type) {
	case FactoryFunc:
		return f.fromFactory(id, t, args, shared)
	case ValueTarget:
		if shared {
			f.store(id, t.V)
		}
		return t.V, nil
	case AliasTarget:
		targetID = string(t)
	}

	entry, ok := f.c.registry.Get(targetID)
	if !ok {
		return nil, &UnresolvableTypeError{ID: targetID, Requested: id}
	}
	if entry.Kind == registry.KindInterface {
		return nil, &UnresolvableTypeError{
			ID:        targetID,
			Requested: id,
			Reason:    fmt.Sprintf("%v is an interface; add a rule with InstanceOf", entry.Type),
		}
	}

	// An alias whose target is already under construction closes the cycle
	// on the target's shell.
	if targetID != id {
		if instance, ok, err := f.inFlight(targetID); ok {
			return instance, err
		}
	}

	p := &pending{shell: reflect.New(entry.Type.Elem())}
	defer f.enter(id, p)()
	if targetID != id {
		defer f.enter(targetID, p)()
	}

	f.log.V(1).Info("building", "identifier", id, "type", entry.Type.String(), "fresh", force)

	instance, err := f.construct(id, entry, rule, args, forced, p)
	if err != nil {
		return nil, err
	}
	f.c.metrics.built(id)

	// Later cycles, e.g. from call arguments, see the finished instance.
	p.shell = instance

	if shared {
		f.store(id, instance.Interface())
	}

	for _, call := range rule.Call {
		if err := f.invoke(id, instance, call, rule, forced); err != nil {
			if shared {
				f.c.instances.delete(id)
			}
			return nil, err
		}
	}

	return instance.Interface(), nil
}

// forcedSet returns the identifiers built fresh within id's subtree. The
// inherited set carries on down the graph; only a rule set for id itself
// (directly or through an interface) replaces it. Identifiers the default
// rule forces are added to whatever set is in effect.
func (f *frame) forcedSet(id string, rule Rule, inherited map[string]struct{}) map[string]struct{} {
	if own, ok := f.c.ownRule(id); ok && own.NewInstances != nil {
		return toSet(rule.NewInstances)
	}
	if len(rule.NewInstances) == 0 {
		return inherited
	}

	forced := toSet(rule.NewInstances)
	for dep := range inherited {
		forced[dep] = struct{}{}
	}
	return forced
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// enter marks id as under construction and returns a func restoring the
// previous state.
func (f *frame) enter(id string, p *pending) func() {
	prev, had := f.inProgress[id]
	f.inProgress[id] = p
	return func() {
		if had {
			f.inProgress[id] = prev
		} else {
			delete(f.inProgress, id)
		}
	}
}

func (f *frame) store(id string, instance any) {
	f.c.instances.put(id, instance)
	f.stored = append(f.stored, id)
}

// construct calls the constructor with resolved arguments. When a cyclic
// partner was handed the shell, the constructed value is copied into it so
// the partner's reference and the returned instance are the same object.
func (f *frame) construct(id string, entry *registry.Entry, rule Rule, args []any, forced map[string]struct{}, p *pending) (reflect.Value, error) {
	if entry.Kind != registry.KindConstructor {
		if len(args) > 0 {
			return reflect.Value{}, tooManyArgs(id, len(args), 0)
		}
		return p.shell, nil
	}

	info := entry.Constructor.(*constructorInfo)
	if len(args) > len(info.params) {
		return reflect.Value{}, tooManyArgs(id, len(args), len(info.params))
	}
	in, err := f.resolveParams(id, info.params, args, rule.ConstructParams, rule.Substitutions, forced)
	if err != nil {
		return reflect.Value{}, err
	}

	var out []reflect.Value
	if info.variadic {
		out = info.fn.CallSlice(in)
	} else {
		out = info.fn.Call(in)
	}

	if info.returnsError && !out[1].IsNil() {
		return reflect.Value{}, &ConstructionError{
			ID:    id,
			Cause: fmt.Errorf("constructor returned error: %w", out[1].Interface().(error)),
		}
	}

	result := out[0]
	if result.IsNil() {
		return reflect.Value{}, &ConstructionError{ID: id, Cause: errors.New("constructor returned nil")}
	}

	if !p.used {
		return result, nil
	}
	p.shell.Elem().Set(result.Elem())
	return p.shell, nil
}

func tooManyArgs(id string, got, want int) error {
	return &ConstructionError{
		ID:    id,
		Cause: fmt.Errorf("got %d explicit arguments, constructor takes %d", got, want),
	}
}

func (f *frame) fromFactory(id string, fn FactoryFunc, args []any, shared bool) (any, error) {
	defer f.enter(id, &pending{})()

	f.log.V(1).Info("calling factory", "identifier", id)
	instance, err := f.callFactory(id, fn, args)
	if err != nil {
		return nil, err
	}
	f.c.metrics.built(id)

	if shared {
		f.store(id, instance)
	}
	return instance, nil
}

func (f *frame) callFactory(id string, fn FactoryFunc, args []any) (any, error) {
	instance, err := fn(f, args)
	if err != nil {
		if isResolutionError(err) {
			return nil, err
		}
		return nil, &ConstructionError{ID: id, Cause: fmt.Errorf("factory returned error: %w", err)}
	}
	if instance == nil {
		return nil, &ConstructionError{ID: id, Cause: errors.New("factory returned nil")}
	}
	return instance, nil
}

// resolveParams satisfies each parameter in order from the explicit
// arguments, the supplied rule values, dependency resolution by declared
// type, the default value, or the zero value for optional parameters.
func (f *frame) resolveParams(id string, params []ParamInfo, explicit, supplied []any, subs map[string]Target, forced map[string]struct{}) ([]reflect.Value, error) {
	in := make([]reflect.Value, len(params))
	for i, p := range params {
		v, err := f.resolveParam(id, i, p, explicit, supplied, subs, forced)
		if err != nil {
			return nil, err
		}
		in[i] = v
	}
	return in, nil
}

func (f *frame) resolveParam(id string, i int, p ParamInfo, explicit, supplied []any, subs map[string]Target, forced map[string]struct{}) (reflect.Value, error) {
	if i < len(explicit) {
		return f.coerceArg(id, i, p, explicit[i])
	}

	if i < len(supplied) {
		arg := supplied[i]
		if ref, ok := arg.(Reference); ok {
			dep, err := f.dependency(ref.ID, subs, forced)
			if err != nil {
				return reflect.Value{}, err
			}
			arg = dep
		}
		return f.coerceArg(id, i, p, arg)
	}

	if depID, ok := f.c.registry.Lookup(p.Type); ok {
		dep, err := f.dependency(depID, subs, forced)
		if err != nil {
			return reflect.Value{}, err
		}
		return f.coerceArg(id, i, p, dep)
	}

	if p.HasDefault {
		return f.coerceArg(id, i, p, p.Default)
	}
	if p.Optional {
		return reflect.Zero(p.Type), nil
	}

	return reflect.Value{}, &MissingArgumentError{ID: id, Param: p.Name, Index: i, Type: p.Type}
}

func (f *frame) coerceArg(id string, i int, p ParamInfo, v any) (reflect.Value, error) {
	rv, err := coerce(v, p.Type)
	if err != nil {
		return reflect.Value{}, &ConstructionError{
			ID:    id,
			Cause: fmt.Errorf("parameter %d (%s): %w", i, p.Name, err),
		}
	}
	return rv, nil
}

// dependency resolves a dependency of the type being built. A dependency
// already under construction yields its in-progress instance instead of
// recursing.
func (f *frame) dependency(depID string, subs map[string]Target, forced map[string]struct{}) (any, error) {
	if instance, ok, err := f.inFlight(depID); ok {
		return instance, err
	}

	if t, ok := subs[depID]; ok {
		return f.substitute(depID, t, forced)
	}

	_, fresh := forced[depID]
	return f.create(depID, nil, fresh, forced)
}

func (f *frame) substitute(depID string, t Target, forced map[string]struct{}) (any, error) {
	switch t := t.(type) {
	case AliasTarget:
		target := string(t)
		if instance, ok, err := f.inFlight(target); ok {
			return instance, err
		}
		_, fresh := forced[target]
		return f.create(target, nil, fresh, forced)
	case FactoryFunc:
		return f.callFactory(depID, t, nil)
	case ValueTarget:
		return t.V, nil
	default:
		return nil, &ConstructionError{ID: depID, Cause: fmt.Errorf("unsupported substitution %T", t)}
	}
}

// inFlight reports whether id is under construction in this build and, if
// so, returns the instance to use for the back-reference.
func (f *frame) inFlight(id string) (any, bool, error) {
	p, ok := f.inProgress[id]
	if !ok {
		return nil, false, nil
	}
	if !p.shell.IsValid() {
		return nil, true, &ConstructionError{ID: id, Cause: ErrFactoryCycle}
	}

	p.used = true
	f.c.metrics.cycle(id)
	f.log.V(1).Info("cycle short-circuited", "identifier", id)
	return p.shell.Interface(), true, nil
}

// invoke runs one post-construction call on instance.
func (f *frame) invoke(id string, instance reflect.Value, call Call, rule Rule, forced map[string]struct{}) error {
	info, err := f.c.reflectionCache.getMethod(instance.Type(), call.Method)
	if err != nil {
		return &ConstructionError{ID: id, Cause: err}
	}

	in, err := f.resolveParams(id, info.params, nil, call.Args, rule.Substitutions, forced)
	if err != nil {
		return err
	}

	method := instance.Method(info.index)
	var out []reflect.Value
	if info.variadic {
		out = method.CallSlice(in)
	} else {
		out = method.Call(in)
	}

	if info.returnsError {
		if errValue := out[len(out)-1]; !errValue.IsNil() {
			return &ConstructionError{
				ID:    id,
				Cause: fmt.Errorf("call %s: %w", call.Method, errValue.Interface().(error)),
			}
		}
	}
	return nil
}

func isResolutionError(err error) bool {
	var (
		unresolvable *UnresolvableTypeError
		missing      *MissingArgumentError
		construction *ConstructionError
	)
	return errors.As(err, &unresolvable) || errors.As(err, &missing) || errors.As(err, &construction)
}
