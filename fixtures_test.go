package crann

import (
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

// Object graph fixtures: A -> B -> C -> (D, E -> F).
// Every struct has a field so distinct allocations never share an address.

type F struct{ n int }

type E struct{ F *F }

func NewE(f *F) *E { return &E{F: f} }

type D struct{ n int }

type C struct {
	D *D
	E *E
}

func NewC(d *D, e *E) *C { return &C{D: d, E: e} }

type B struct{ C *C }

func NewB(c *C) *B { return &B{C: c} }

type A struct{ B *B }

func NewA(b *B) *A { return &A{B: b} }

type NoConstructor struct{ n int }

type MyObj struct {
	foo string
	d   *D
}

func (o *MyObj) SetFoo(foo string) { o.foo = o.foo + foo }
func (o *MyObj) Foo() string       { return o.foo }
func (o *MyObj) SetD(d *D)         { o.d = d }

type MethodWithDefaultValue struct{ Foo string }

func NewMethodWithDefaultValue(foo string) *MethodWithDefaultValue {
	return &MethodWithDefaultValue{Foo: foo}
}

type CyclicA struct{ B *CyclicB }

func NewCyclicA(b *CyclicB) *CyclicA { return &CyclicA{B: b} }

type CyclicB struct{ A *CyclicA }

func NewCyclicB(a *CyclicA) *CyclicB { return &CyclicB{A: a} }

type interfaceTest interface{ isInterfaceTest() }

type InterfaceTestClass struct{ n int }

func (*InterfaceTestClass) isInterfaceTest() {}

type Greeter interface{ Greet() string }

type EnglishGreeter struct{ n int }

func (*EnglishGreeter) Greet() string { return "hello" }

type IrishGreeter struct{ n int }

func (*IrishGreeter) Greet() string { return "dia duit" }

type Welcome struct{ Greeter Greeter }

func NewWelcome(g Greeter) *Welcome { return &Welcome{Greeter: g} }

type NeedsString struct{ s string }

func NewNeedsString(s string) *NeedsString { return &NeedsString{s: s} }

type Holder struct {
	Name string
	C    *C
}

func NewHolder(name string, c *C) *Holder { return &Holder{Name: name, C: c} }

var errBoom = errors.New("boom")

type Failing struct{ D *D }

func NewFailing(d *D) *Failing { return &Failing{D: d} }
func (f *Failing) Init() error  { return errBoom }

type Broken struct{ n int }

func NewBroken() (*Broken, error) { return nil, errBoom }

type Joined struct{ Value string }

func NewJoined(prefix string, parts ...string) *Joined {
	return &Joined{Value: prefix + strings.Join(parts, ",")}
}

type Sized struct{ N int64 }

func NewSized(n int64) *Sized { return &Sized{N: n} }

// Counted tracks how many times its constructor runs.
type Counted struct{ n int }

var countedBuilds atomic.Int64

func NewCounted() *Counted {
	countedBuilds.Add(1)
	return &Counted{}
}

// newFixtureContainer registers every fixture type under its Go name.
func newFixtureContainer(t testing.TB, options ...Option) *Container {
	t.Helper()
	c := New(options...)

	require.NoError(t, c.Register("F", &F{}))
	require.NoError(t, c.Register("D", &D{}))
	require.NoError(t, c.Register("NoConstructor", &NoConstructor{}))
	require.NoError(t, c.Register("MyObj", &MyObj{}))
	require.NoError(t, c.Register("InterfaceTestClass", &InterfaceTestClass{}))
	require.NoError(t, c.Register("EnglishGreeter", &EnglishGreeter{}))
	require.NoError(t, c.Register("IrishGreeter", &IrishGreeter{}))
	require.NoError(t, c.RegisterConstructor("E", NewE))
	require.NoError(t, c.RegisterConstructor("C", NewC))
	require.NoError(t, c.RegisterConstructor("B", NewB))
	require.NoError(t, c.RegisterConstructor("A", NewA))
	require.NoError(t, c.RegisterConstructor("MethodWithDefaultValue", NewMethodWithDefaultValue,
		Param{Name: "foo", Default: "bar"}))
	require.NoError(t, c.RegisterConstructor("CyclicA", NewCyclicA))
	require.NoError(t, c.RegisterConstructor("CyclicB", NewCyclicB))
	require.NoError(t, c.RegisterConstructor("Welcome", NewWelcome))
	require.NoError(t, c.RegisterConstructor("NeedsString", NewNeedsString, Param{Name: "s"}))
	require.NoError(t, c.RegisterConstructor("Holder", NewHolder, Param{Name: "name"}))
	require.NoError(t, c.RegisterConstructor("Failing", NewFailing))
	require.NoError(t, c.RegisterConstructor("Broken", NewBroken))
	require.NoError(t, c.RegisterConstructor("Joined", NewJoined, Param{Name: "prefix"}, Param{Name: "parts"}))
	require.NoError(t, c.RegisterConstructor("Sized", NewSized, Param{Name: "n", Default: 5}))
	require.NoError(t, c.RegisterConstructor("Counted", NewCounted))
	require.NoError(t, c.RegisterInterface("interfaceTest", (*interfaceTest)(nil)))
	require.NoError(t, c.RegisterInterface("Greeter", (*Greeter)(nil)))

	return c
}

// Owned is implemented by *Owner and closes the Owner cycle through an
// interface-typed parameter.
type Owned interface{ OwnerName() string }

type Owner struct {
	Member *Member
	name   string
}

func NewOwner(m *Member) *Owner { return &Owner{Member: m, name: "owner"} }

func (o *Owner) OwnerName() string { return o.name }

type Member struct{ Owner Owned }

func NewMember(o Owned) *Member { return &Member{Owner: o} }

// lastLeaky records the pointer NewLeaky returned.
var lastLeaky *Leaky

type Leaky struct{ Partner *LeakyPartner }

func NewLeaky(p *LeakyPartner) *Leaky {
	lastLeaky = &Leaky{Partner: p}
	return lastLeaky
}

type LeakyPartner struct{ Leaky *Leaky }

func NewLeakyPartner(l *Leaky) *LeakyPartner { return &LeakyPartner{Leaky: l} }
