package service

import (
	"fmt"
	"sort"
	"sync"
)

// Registry holds the service singletons built at startup.
type Registry struct {
	mu       sync.RWMutex
	services map[string]any
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{services: make(map[string]any)}
}

// Register adds svc under name. Registering a name twice panics.
func (r *Registry) Register(name string, svc any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.services[name]; ok {
		panic(fmt.Sprintf("service %q registered twice", name))
	}
	r.services[name] = svc
}

// Lookup returns the service registered under name.
func (r *Registry) Lookup(name string) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	svc, ok := r.services[name]
	return svc, ok
}

// LookupAs returns the service registered under name when it implements T.
func LookupAs[T any](r *Registry, name string) (T, bool) {
	var zero T
	svc, ok := r.Lookup(name)
	if !ok {
		return zero, false
	}
	typed, ok := svc.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}

// Names lists the registered service names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.services))
	for n := range r.services {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
