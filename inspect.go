package crann

import (
	"fmt"
	"reflect"
)

// Param describes a constructor parameter at registration time.
// Go reflection does not expose parameter names or default values, so
// they are declared alongside the constructor, positionally.
type Param struct {
	// Name is used in error messages. Defaults to "argN".
	Name string

	// Default is used when nothing else satisfies the parameter.
	// It must be assignable to the parameter type.
	Default any

	// Optional parameters fall back to their zero value.
	Optional bool
}

// ParamInfo is the inspected form of a constructor or method parameter.
type ParamInfo struct {
	Name       string
	Type       reflect.Type
	HasDefault bool
	Default    any
	Optional   bool
	Variadic   bool
}

// constructorInfo holds metadata about a constructor function.
type constructorInfo struct {
	fn           reflect.Value
	params       []ParamInfo
	returnsError bool
	returnType   reflect.Type
	variadic     bool
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// parseConstructor analyzes a constructor function and extracts metadata.
// Supported signatures are func(...) *S and func(...) (*S, error) where S
// is a struct.
func parseConstructor(constructor any, meta []Param) (*constructorInfo, error) {
	if constructor == nil {
		return nil, fmt.Errorf("constructor cannot be nil")
	}

	fnValue := reflect.ValueOf(constructor)
	fnType := fnValue.Type()
	if fnType.Kind() != reflect.Func {
		return nil, fmt.Errorf("constructor must be a function, got %v", fnType.Kind())
	}
	if fnValue.IsNil() {
		return nil, fmt.Errorf("constructor cannot be nil")
	}

	numOut := fnType.NumOut()
	if numOut == 0 || numOut > 2 {
		return nil, fmt.Errorf("constructor must return (*T) or (*T, error), got %d return values", numOut)
	}

	returnType := fnType.Out(0)
	if returnType.Kind() != reflect.Ptr || returnType.Elem().Kind() != reflect.Struct {
		return nil, fmt.Errorf("constructor must return a pointer to struct, got %v", returnType)
	}

	returnsError := false
	if numOut == 2 {
		if fnType.Out(1) != errorType {
			return nil, fmt.Errorf("constructor's second return value must be error, got %v", fnType.Out(1))
		}
		returnsError = true
	}

	params, err := describeParams(fnType, 0, meta)
	if err != nil {
		return nil, err
	}

	return &constructorInfo{
		fn:           fnValue,
		params:       params,
		returnsError: returnsError,
		returnType:   returnType,
		variadic:     fnType.IsVariadic(),
	}, nil
}

// describeParams builds ParamInfo for the inputs of fnType starting at
// offset, merging the declared metadata in order.
func describeParams(fnType reflect.Type, offset int, meta []Param) ([]ParamInfo, error) {
	n := fnType.NumIn() - offset
	if len(meta) > n {
		return nil, fmt.Errorf("%d parameters described but function takes %d", len(meta), n)
	}

	params := make([]ParamInfo, n)
	for i := 0; i < n; i++ {
		t := fnType.In(i + offset)
		info := ParamInfo{
			Name: fmt.Sprintf("arg%d", i),
			Type: t,
		}

		if fnType.IsVariadic() && i == n-1 {
			info.Variadic = true
			info.Optional = true
		}

		if i < len(meta) {
			m := meta[i]
			if m.Name != "" {
				info.Name = m.Name
			}
			info.Optional = info.Optional || m.Optional
			if m.Default != nil {
				v, err := coerce(m.Default, t)
				if err != nil {
					return nil, fmt.Errorf("default for parameter %s: %w", info.Name, err)
				}
				info.HasDefault = true
				info.Default = v.Interface()
			}
		}

		params[i] = info
	}

	return params, nil
}

// coerce converts v to a value of type t. A nil v is the zero value.
// Numeric values convert between numeric kinds so untyped constants such
// as 5 can satisfy an int64 parameter, as long as the value is kept exactly.
func coerce(v any, t reflect.Type) (reflect.Value, error) {
	if v == nil {
		return reflect.Zero(t), nil
	}

	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(t) {
		if rv.Type() != t {
			out := reflect.New(t).Elem()
			out.Set(rv)
			return out, nil
		}
		return rv, nil
	}
	if isNumeric(rv.Kind()) && isNumeric(t.Kind()) {
		return convertNumeric(rv, t)
	}
	return reflect.Value{}, fmt.Errorf("value of type %v is not assignable to %v", rv.Type(), t)
}

// convertNumeric converts rv to t, rejecting values that t cannot hold
// exactly: out of range, negative for unsigned, or fractional for integers.
func convertNumeric(rv reflect.Value, t reflect.Type) (reflect.Value, error) {
	out := rv.Convert(t)
	if !sameNumber(rv, out) {
		return reflect.Value{}, fmt.Errorf("value %v of type %v does not fit %v", rv.Interface(), rv.Type(), t)
	}
	return out, nil
}

func sameNumber(a, b reflect.Value) bool {
	switch {
	case isInt(a.Kind()) && isInt(b.Kind()):
		return a.Int() == b.Int()
	case isUint(a.Kind()) && isUint(b.Kind()):
		return a.Uint() == b.Uint()
	case isInt(a.Kind()) && isUint(b.Kind()):
		return a.Int() >= 0 && uint64(a.Int()) == b.Uint()
	case isUint(a.Kind()) && isInt(b.Kind()):
		return b.Int() >= 0 && a.Uint() == uint64(b.Int())
	default:
		// At least one side is a float; compare after converting back.
		return reflect.DeepEqual(b.Convert(a.Type()).Interface(), a.Interface())
	}
}

func isInt(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	default:
		return false
	}
}

func isUint(k reflect.Kind) bool {
	switch k {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return true
	default:
		return false
	}
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}
