package crann

import (
	"fmt"
	"reflect"
	"sync"
)

// reflectionCache caches method metadata for post-construction calls so
// repeated builds of the same type do not re-inspect its method set.
type reflectionCache struct {
	mu      sync.RWMutex
	methods map[methodKey]*methodInfo
}

type methodKey struct {
	typ  reflect.Type
	name string
}

// methodInfo stores metadata about a method invoked by a Call entry.
type methodInfo struct {
	index        int
	params       []ParamInfo
	returnsError bool
	variadic     bool
}

func newReflectionCache() *reflectionCache {
	return &reflectionCache{
		methods: make(map[methodKey]*methodInfo),
	}
}

// getMethod retrieves or computes metadata for the named method of typ.
func (rc *reflectionCache) getMethod(typ reflect.Type, name string) (*methodInfo, error) {
	key := methodKey{typ: typ, name: name}

	// Fast path: check cache with read lock
	rc.mu.RLock()
	info, exists := rc.methods[key]
	rc.mu.RUnlock()
	if exists {
		return info, nil
	}

	rc.mu.Lock()
	defer rc.mu.Unlock()

	// Double-check after acquiring write lock
	if info, exists = rc.methods[key]; exists {
		return info, nil
	}

	method, ok := typ.MethodByName(name)
	if !ok {
		return nil, fmt.Errorf("method %s not found on %v", name, typ)
	}

	mt := method.Type
	returnsError := false
	switch mt.NumOut() {
	case 0:
	case 1:
		returnsError = mt.Out(0) == errorType
	default:
		returnsError = mt.Out(mt.NumOut()-1) == errorType
	}

	// Method types obtained from the reflect.Type include the receiver.
	params, err := describeParams(mt, 1, nil)
	if err != nil {
		return nil, err
	}

	info = &methodInfo{
		index:        method.Index,
		params:       params,
		returnsError: returnsError,
		variadic:     mt.IsVariadic(),
	}
	rc.methods[key] = info
	return info, nil
}
