// Package registry provides thread-safe storage of constructible type entries
// keyed by identifier, with a reverse index from Go type to identifier.
package registry

import (
	"fmt"
	"reflect"
	"sort"
	"sync"
)

// Kind describes how an entry is built.
type Kind int

const (
	// KindStruct entries have no constructor and are built as a zero value.
	KindStruct Kind = iota

	// KindConstructor entries are built by calling a constructor function.
	KindConstructor

	// KindInterface entries are abstract. They cannot be built directly and
	// exist so rules and constructor parameters can refer to an interface.
	KindInterface
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindStruct:
		return "struct"
	case KindConstructor:
		return "constructor"
	case KindInterface:
		return "interface"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Entry maps an identifier to a Go type.
type Entry struct {
	// ID is the identifier the entry is registered under.
	ID string

	// Type is *S for struct and constructor entries, and the interface type
	// itself for interface entries.
	Type reflect.Type

	// Kind defines how instances are built.
	Kind Kind

	// Constructor holds parsed constructor metadata for KindConstructor
	// entries. The registry treats it as opaque.
	Constructor interface{}
}

// Registry provides thread-safe storage for entries.
type Registry struct {
	mu         sync.RWMutex
	entries    map[string]*Entry
	byType     map[reflect.Type]string
	interfaces []*Entry
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		entries: make(map[string]*Entry),
		byType:  make(map[reflect.Type]string),
	}
}

// Register stores an entry.
// Returns an error if the entry is invalid or its identifier is taken.
// The first identifier registered for a Go type becomes that type's
// identifier in the reverse index; later registrations of the same type
// remain reachable by identifier only.
//
// This method is goroutine-safe.
func (r *Registry) Register(entry *Entry) error {
	if entry == nil {
		return &InvalidEntryError{Reason: "entry cannot be nil"}
	}
	if entry.ID == "" {
		return &InvalidEntryError{Reason: "identifier cannot be empty"}
	}
	if entry.Type == nil {
		return &InvalidEntryError{ID: entry.ID, Reason: "type cannot be nil"}
	}
	if entry.Kind == KindInterface && entry.Type.Kind() != reflect.Interface {
		return &InvalidEntryError{ID: entry.ID, Reason: fmt.Sprintf("%v is not an interface", entry.Type)}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, exists := r.entries[entry.ID]; exists {
		return &DuplicateError{ID: entry.ID, Type: existing.Type}
	}

	r.entries[entry.ID] = entry
	if _, taken := r.byType[entry.Type]; !taken {
		r.byType[entry.Type] = entry.ID
	}
	if entry.Kind == KindInterface {
		r.interfaces = append(r.interfaces, entry)
	}
	return nil
}

// Get retrieves an entry by identifier.
//
// This method is goroutine-safe.
func (r *Registry) Get(id string) (*Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, exists := r.entries[id]
	return entry, exists
}

// Has reports whether an entry exists for the identifier.
func (r *Registry) Has(id string) bool {
	_, ok := r.Get(id)
	return ok
}

// Lookup returns the identifier registered for a Go type.
//
// This method is goroutine-safe.
func (r *Registry) Lookup(t reflect.Type) (string, bool) {
	if t == nil {
		return "", false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	id, exists := r.byType[t]
	return id, exists
}

// Interfaces returns the interface entries in registration order.
func (r *Registry) Interfaces() []*Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Entry, len(r.interfaces))
	copy(out, r.interfaces)
	return out
}

// IDs returns every registered identifier, sorted.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// DuplicateError is returned when an identifier is registered twice.
type DuplicateError struct {
	ID   string
	Type reflect.Type
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("identifier %q already registered for type %v", e.ID, e.Type)
}

// InvalidEntryError is returned when an entry cannot be stored.
type InvalidEntryError struct {
	ID     string
	Reason string
}

func (e *InvalidEntryError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("invalid entry: %s", e.Reason)
	}
	return fmt.Sprintf("invalid entry %q: %s", e.ID, e.Reason)
}
