package verify

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/ppiankov/dyadt/internal/model"
)

// ErrCheckerNotFound is returned by Resolve for names nobody registered
var ErrCheckerNotFound = errors.New("checker not found")

// Checker evaluates Custom evidence from its string parameters.
//
// Returning an error, or a finding without a valid outcome, makes the item an Error.
type Checker interface {
	Check(params map[string]string) (model.Finding, error)
}

// CheckerFunc adapts a plain function to Checker
type CheckerFunc func(params map[string]string) (model.Finding, error)

// Check calls f(params)
func (f CheckerFunc) Check(params map[string]string) (model.Finding, error) {
	return f(params)
}

// Registry maps checker names to Custom evidence logic.
//
// Built-in evidence kinds never go through the registry. Registering an existing
// name replaces the previous binding. Lookups and registrations are mutually
// exclusive, so a registry may be shared by sequential verifications.
type Registry struct {
	mu       sync.RWMutex
	checkers map[string]Checker
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{checkers: make(map[string]Checker)}
}

// Register binds name to checker, replacing any prior binding
func (r *Registry) Register(name string, checker Checker) error {
	if name == "" {
		return fmt.Errorf("register checker: name is required")
	}
	if checker == nil {
		return fmt.Errorf("register checker %q: checker is nil", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkers[name] = checker
	return nil
}

// RegisterFunc binds name to a function checker
func (r *Registry) RegisterFunc(name string, fn func(params map[string]string) (model.Finding, error)) error {
	if fn == nil {
		return fmt.Errorf("register checker %q: checker is nil", name)
	}
	return r.Register(name, CheckerFunc(fn))
}

// Resolve returns the checker bound to name
func (r *Registry) Resolve(name string) (Checker, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	checker, ok := r.checkers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCheckerNotFound, name)
	}
	return checker, nil
}

// Names returns the registered checker names, sorted
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.checkers))
	for name := range r.checkers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered checkers
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.checkers)
}
