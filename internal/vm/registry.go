package vm

import (
	"fmt"

	"jgvm/internal/classfile"
	"jgvm/internal/trace"
)

// NativeFactory builds the Class implementation for one natively
// provided standard-library class. Factories are registered up front
// by internal/natives; the registry calls them on first reference.
type NativeFactory func(reg *Registry) Class

// Registry is the non-singleton class table threaded through every
// interpreter call. It owns both natively implemented classes and
// parsed-from-disk ones, loading the latter lazily and at most once.
type Registry struct {
	log *trace.Logger

	natives map[string]NativeFactory
	classes map[string]Class
	loading map[string]bool
}

func NewRegistry(log *trace.Logger) *Registry {
	return &Registry{
		log:     log,
		natives: make(map[string]NativeFactory),
		classes: make(map[string]Class),
		loading: make(map[string]bool),
	}
}

// RegisterNative installs a factory for a native class name, e.g.
// "java/io/PrintStream". Must be called before that class is first
// referenced.
func (r *Registry) RegisterNative(name string, factory NativeFactory) {
	r.natives[name] = factory
}

func (r *Registry) Log() *trace.Logger { return r.log }

// Get loads (or returns the cached) Class for name. Parsed classes
// load their superclass first (so a cyclic superclass chain is
// reported as a cyclic class load), are read once, have deferred statics and <clinit> triggered on
// first real touch (see loadedClass.ensureInit), and are cached for
// the life of the registry.
func (r *Registry) Get(name string) (Class, error) {
	if c, ok := r.classes[name]; ok {
		return c, nil
	}
	if r.loading[name] {
		return nil, faultf("cyclic class load: %s", name)
	}

	if factory, ok := r.natives[name]; ok {
		r.loading[name] = true
		defer delete(r.loading, name)
		c := factory(r)
		r.classes[name] = c
		r.log.Infof("loaded native class %s", name)
		return c, nil
	}

	r.loading[name] = true
	defer delete(r.loading, name)

	file, err := classfile.Parse(name + ".class")
	if err != nil {
		return nil, fmt.Errorf("loading class %s: %w", name, err)
	}
	if file.SuperName != "" {
		if _, err := r.Get(file.SuperName); err != nil {
			return nil, fmt.Errorf("loading superclass of %s: %w", name, err)
		}
	}
	c := newLoadedClass(r, file)
	r.classes[name] = c
	r.log.Infof("parsed class %s (super=%s)", file.Name, file.SuperName)
	return c, nil
}
