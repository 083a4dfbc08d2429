package crann

import (
	"fmt"
	"reflect"
)

// Module groups related type registrations and rules.
//
// Example:
//
//	type StorageModule struct{ DSN string }
//
//	func (m *StorageModule) Register(c *crann.Container) error {
//	    if err := c.RegisterConstructor("DB", NewDB, crann.Param{Name: "dsn", Default: m.DSN}); err != nil {
//	        return err
//	    }
//	    return c.AddRule("DB", crann.Rule{Shared: crann.Bool(true)})
//	}
type Module interface {
	Register(c *Container) error
}

// Install registers modules in order. A module whose concrete type was
// already installed is skipped.
//
// Example:
//
//	err := container.Install(&StorageModule{DSN: dsn}, &HTTPModule{})
func (c *Container) Install(modules ...Module) error {
	c.modulesMu.Lock()
	defer c.modulesMu.Unlock()

	for _, module := range modules {
		if module == nil {
			return fmt.Errorf("module cannot be nil")
		}

		moduleType := reflect.TypeOf(module)
		installed := false
		for _, existing := range c.modules {
			if reflect.TypeOf(existing) == moduleType {
				installed = true
				break
			}
		}
		if installed {
			continue
		}

		if err := module.Register(c); err != nil {
			return fmt.Errorf("module %v registration failed: %w", moduleType, err)
		}
		c.modules = append(c.modules, module)
	}

	return nil
}

// Modules returns the installed modules in installation order.
func (c *Container) Modules() []Module {
	c.modulesMu.Lock()
	defer c.modulesMu.Unlock()

	out := make([]Module, len(c.modules))
	copy(out, c.modules)
	return out
}
