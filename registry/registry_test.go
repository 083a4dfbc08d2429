package registry

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"
)

// Test types for registry tests
type testInterface interface {
	DoSomething()
}

type testImplementation struct{}

func (t *testImplementation) DoSomething() {}

type otherImplementation struct{}

var (
	interfaceType = reflect.TypeOf((*testInterface)(nil)).Elem()
	concreteType  = reflect.TypeOf(&testImplementation{})
)

func TestNew(t *testing.T) {
	reg := New()
	if reg == nil {
		t.Fatal("New() returned nil")
	}
	if reg.entries == nil || reg.byType == nil {
		t.Error("Registry maps are nil")
	}
}

func TestRegister_Success(t *testing.T) {
	reg := New()

	err := reg.Register(&Entry{ID: "Impl", Type: concreteType, Kind: KindStruct})
	if err != nil {
		t.Fatalf("Register() returned error: %v", err)
	}

	if !reg.Has("Impl") {
		t.Error("Entry not found after Register()")
	}
	id, ok := reg.Lookup(concreteType)
	if !ok || id != "Impl" {
		t.Errorf("Lookup() = %q, %v; want Impl, true", id, ok)
	}
}

func TestRegister_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		entry *Entry
	}{
		{"nil entry", nil},
		{"empty id", &Entry{Type: concreteType}},
		{"nil type", &Entry{ID: "X"}},
		{"interface kind on struct", &Entry{ID: "X", Type: concreteType, Kind: KindInterface}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New().Register(tt.entry)
			var invalid *InvalidEntryError
			if !errors.As(err, &invalid) {
				t.Errorf("Expected InvalidEntryError, got %T (%v)", err, err)
			}
		})
	}
}

func TestRegister_Duplicate(t *testing.T) {
	reg := New()
	if err := reg.Register(&Entry{ID: "Impl", Type: concreteType}); err != nil {
		t.Fatalf("First Register() failed: %v", err)
	}

	err := reg.Register(&Entry{ID: "Impl", Type: reflect.TypeOf(&otherImplementation{})})
	if err == nil {
		t.Fatal("Register() should return error for duplicate identifier")
	}
	dup, ok := err.(*DuplicateError)
	if !ok {
		t.Fatalf("Expected DuplicateError, got %T", err)
	}
	if dup.Type != concreteType {
		t.Errorf("DuplicateError.Type = %v, want %v", dup.Type, concreteType)
	}
}

func TestRegister_SameTypeTwoIdentifiers(t *testing.T) {
	reg := New()
	_ = reg.Register(&Entry{ID: "First", Type: concreteType})
	if err := reg.Register(&Entry{ID: "Second", Type: concreteType}); err != nil {
		t.Fatalf("Register() under a second identifier failed: %v", err)
	}

	id, _ := reg.Lookup(concreteType)
	if id != "First" {
		t.Errorf("Lookup() = %q, want the first identifier", id)
	}
	if !reg.Has("Second") {
		t.Error("second identifier should still be reachable by Get")
	}
}

func TestGet_NotFound(t *testing.T) {
	reg := New()
	entry, ok := reg.Get("Missing")
	if ok || entry != nil {
		t.Errorf("Get() = %v, %v; want nil, false", entry, ok)
	}
	if _, ok := reg.Lookup(nil); ok {
		t.Error("Lookup(nil) should report false")
	}
}

func TestInterfaces_RegistrationOrder(t *testing.T) {
	reg := New()
	errType := reflect.TypeOf((*error)(nil)).Elem()
	strType := reflect.TypeOf((*fmt.Stringer)(nil)).Elem()

	_ = reg.Register(&Entry{ID: "Thing", Type: interfaceType, Kind: KindInterface})
	_ = reg.Register(&Entry{ID: "Impl", Type: concreteType})
	_ = reg.Register(&Entry{ID: "Err", Type: errType, Kind: KindInterface})
	_ = reg.Register(&Entry{ID: "Str", Type: strType, Kind: KindInterface})

	got := reg.Interfaces()
	want := []string{"Thing", "Err", "Str"}
	if len(got) != len(want) {
		t.Fatalf("Interfaces() returned %d entries, want %d", len(got), len(want))
	}
	for i, e := range got {
		if e.ID != want[i] {
			t.Errorf("Interfaces()[%d] = %q, want %q", i, e.ID, want[i])
		}
	}

	if ids := reg.IDs(); !reflect.DeepEqual(ids, []string{"Err", "Impl", "Str", "Thing"}) {
		t.Errorf("IDs() = %v", ids)
	}
}

func TestKind_String(t *testing.T) {
	if KindConstructor.String() != "constructor" || KindInterface.String() != "interface" || KindStruct.String() != "struct" {
		t.Error("unexpected Kind names")
	}
	if Kind(9).String() != "kind(9)" {
		t.Errorf("unknown kind = %q", Kind(9).String())
	}
}

func TestConcurrentReadsAndWrites(t *testing.T) {
	reg := New()
	_ = reg.Register(&Entry{ID: "Impl", Type: concreteType})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		i := i
		go func() {
			defer wg.Done()

			// Unique struct types so the reverse index sees distinct keys.
			structType := reflect.StructOf([]reflect.StructField{{
				Name: fmt.Sprintf("Field%d", i),
				Type: reflect.TypeOf(""),
			}})
			if err := reg.Register(&Entry{ID: fmt.Sprintf("T%d", i), Type: reflect.PtrTo(structType)}); err != nil {
				t.Errorf("Goroutine %d: Register() failed: %v", i, err)
			}
		}()
	}

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if !reg.Has("Impl") {
				t.Error("Concurrent Has() returned false")
			}
			_, _ = reg.Lookup(concreteType)
		}()
	}

	wg.Wait()

	if n := len(reg.IDs()); n != 11 {
		t.Errorf("IDs() has %d entries, want 11", n)
	}
}

func TestErrorMessages(t *testing.T) {
	dup := &DuplicateError{ID: "A", Type: concreteType}
	if dup.Error() != `identifier "A" already registered for type *registry.testImplementation` {
		t.Errorf("DuplicateError.Error() = %q", dup.Error())
	}

	if got := (&InvalidEntryError{Reason: "bad"}).Error(); got != "invalid entry: bad" {
		t.Errorf("InvalidEntryError.Error() = %q", got)
	}
	if got := (&InvalidEntryError{ID: "A", Reason: "bad"}).Error(); got != `invalid entry "A": bad` {
		t.Errorf("InvalidEntryError.Error() = %q", got)
	}
}
