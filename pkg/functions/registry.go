// Package functions provides the function registry used by the expression
// evaluator.
//
// A Registry maps lower-cased names to Descriptors. Two kinds of functions
// share the same descriptor shape:
//
//   - Built-ins: the catalog installed by NewRegistry, grouped in
//     categories (math, string, regex, datetime, graph, conversion,
//     container, hash) that a Config can switch on and off.
//   - Custom functions: closures registered by the host with
//     RegisterCustom. Lookup consults them first, so a host can shadow a
//     built-in without unregistering it.
//
// Every call goes through Call, which checks the argument count against the
// descriptor before the body runs.
//
// Example:
//
//	reg := functions.NewRegistry(functions.DefaultConfig())
//
//	_ = reg.RegisterCustom(functions.Descriptor{
//		Name:     "double",
//		MinArity: 1, MaxArity: 1,
//		Pure:     true,
//		Body: func(_ functions.Env, args []value.Value) (value.Value, error) {
//			return value.Mul(args[0], value.Int(2))
//		},
//	})
//
//	v, err := reg.Call(env, "double", []value.Value{value.Int(21)}) // 42
//
// The registry is safe for concurrent use. Function bodies are not allowed
// to retain their argument slice.
package functions

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/orneryd/nornicexpr/pkg/cache"
	"github.com/orneryd/nornicexpr/pkg/value"
)

// Category groups related built-ins for enablement and listing.
type Category string

const (
	CategoryMath       Category = "math"
	CategoryString     Category = "string"
	CategoryRegex      Category = "regex"
	CategoryDateTime   Category = "datetime"
	CategoryGraph      Category = "graph"
	CategoryConversion Category = "conversion"
	CategoryContainer  Category = "container"
	CategoryHash       Category = "hash"
	CategoryCustom     Category = "custom"
)

// AllCategories lists the built-in categories in display order.
var AllCategories = []Category{
	CategoryMath, CategoryString, CategoryRegex, CategoryDateTime,
	CategoryGraph, CategoryConversion, CategoryContainer, CategoryHash,
}

// Variadic is the MaxArity of a function that accepts any number of
// trailing arguments.
const Variadic = -1

var (
	// ErrUndefinedFunction is returned when no function has the given name.
	ErrUndefinedFunction = errors.New("undefined function")
	// ErrArgumentCount is returned when a call has the wrong number of arguments.
	ErrArgumentCount = errors.New("wrong number of arguments")
	// ErrInvalidArgument is returned when an argument has an unusable type or value.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrDisabled is returned for functions switched off by the Config.
	ErrDisabled = errors.New("function disabled")
	// ErrDuplicateFunction is returned when a custom name is already taken.
	ErrDuplicateFunction = errors.New("function already registered")
)

// Env is what a function body may ask of its caller. Expression contexts
// implement it.
type Env interface {
	// Cache returns the literal cache for compiled patterns and parsed
	// temporal literals. It may return nil.
	Cache() *cache.LiteralCache
}

// Body is the implementation of a function. args has already passed the
// arity check.
type Body func(env Env, args []value.Value) (value.Value, error)

// Descriptor describes a registered function.
type Descriptor struct {
	Name        string   // Lower-case call name (e.g. "substring")
	Category    Category // Category for enablement and listing
	MinArity    int      // Fewest accepted arguments
	MaxArity    int      // Most accepted arguments, or Variadic
	Pure        bool     // Same arguments always give the same result
	Custom      bool     // Registered by the host rather than built in
	Description string   // Human-readable description
	Examples    []string // Usage examples
	Body        Body
}

// Variadic reports whether the function accepts unbounded trailing arguments.
func (d *Descriptor) Variadic() bool { return d.MaxArity == Variadic }

// Signature renders the name with its arity, e.g. "substring/2..3".
func (d *Descriptor) Signature() string {
	switch {
	case d.Variadic():
		return fmt.Sprintf("%s/%d+", d.Name, d.MinArity)
	case d.MinArity == d.MaxArity:
		return fmt.Sprintf("%s/%d", d.Name, d.MinArity)
	default:
		return fmt.Sprintf("%s/%d..%d", d.Name, d.MinArity, d.MaxArity)
	}
}

// CheckArity validates n against the descriptor.
func (d *Descriptor) CheckArity(n int) error {
	if n >= d.MinArity && (d.Variadic() || n <= d.MaxArity) {
		return nil
	}
	var want string
	switch {
	case d.Variadic():
		want = fmt.Sprintf("at least %d", d.MinArity)
	case d.MinArity == d.MaxArity:
		want = fmt.Sprintf("%d", d.MinArity)
	default:
		want = fmt.Sprintf("%d to %d", d.MinArity, d.MaxArity)
	}
	return fmt.Errorf("%w: %s expects %s, got %d", ErrArgumentCount, d.Name, want, n)
}

// Registry manages built-in and custom functions.
type Registry struct {
	mu       sync.RWMutex
	builtins map[string]*Descriptor
	custom   map[string]*Descriptor
	config   *Config
	now      func() time.Time
	log      *logrus.Entry
}

// NewRegistry creates a registry holding the built-in catalog. A nil cfg
// enables everything.
func NewRegistry(cfg *Config) *Registry {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	r := &Registry{
		builtins: make(map[string]*Descriptor),
		custom:   make(map[string]*Descriptor),
		config:   cfg,
		now:      time.Now,
		log:      logrus.WithField("component", "functions"),
	}
	r.registerBuiltins()

	disabled := 0
	for _, d := range r.builtins {
		if !cfg.IsEnabled(d.Name, d.Category) {
			disabled++
		}
	}
	r.log.WithFields(logrus.Fields{
		"builtins": len(r.builtins),
		"disabled": disabled,
	}).Debug("function registry initialised")
	return r
}

// SetClock replaces the time source used by now() and timestamp().
func (r *Registry) SetClock(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
}

func (r *Registry) clock() time.Time {
	r.mu.RLock()
	now := r.now
	r.mu.RUnlock()
	return now()
}

// Config returns the enablement configuration.
func (r *Registry) Config() *Config { return r.config }

func (r *Registry) add(d Descriptor) {
	d.Name = strings.ToLower(d.Name)
	if _, exists := r.builtins[d.Name]; exists {
		panic("functions: duplicate built-in " + d.Name)
	}
	r.builtins[d.Name] = &d
}

// RegisterCustom registers a host function. Custom names are unique among
// custom functions but may shadow a built-in.
func (r *Registry) RegisterCustom(d Descriptor) error {
	if d.Name == "" {
		return fmt.Errorf("%w: empty function name", ErrInvalidArgument)
	}
	if d.Body == nil {
		return fmt.Errorf("%w: function %s has no body", ErrInvalidArgument, d.Name)
	}
	if d.MinArity < 0 || (d.MaxArity != Variadic && d.MaxArity < d.MinArity) {
		return fmt.Errorf("%w: function %s has arity %d..%d", ErrInvalidArgument, d.Name, d.MinArity, d.MaxArity)
	}
	d.Name = strings.ToLower(d.Name)
	d.Custom = true
	if d.Category == "" {
		d.Category = CategoryCustom
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.custom[d.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateFunction, d.Name)
	}
	r.custom[d.Name] = &d

	entry := r.log.WithField("function", d.Name)
	if _, shadows := r.builtins[d.Name]; shadows {
		entry.Info("custom function shadows built-in")
	} else {
		entry.Debug("custom function registered")
	}
	return nil
}

// Unregister removes a custom function. Built-ins cannot be removed.
func (r *Registry) Unregister(name string) bool {
	name = strings.ToLower(name)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.custom[name]; !ok {
		return false
	}
	delete(r.custom, name)
	return true
}

// ClearCustom removes every custom function.
func (r *Registry) ClearCustom() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.custom = make(map[string]*Descriptor)
}

// Lookup resolves name, custom functions first. Disabled built-ins are
// reported as missing.
func (r *Registry) Lookup(name string) (*Descriptor, bool) {
	d, err := r.Resolve(name)
	return d, err == nil
}

// Resolve is Lookup with the reason: ErrUndefinedFunction or ErrDisabled.
func (r *Registry) Resolve(name string) (*Descriptor, error) {
	key := strings.ToLower(name)
	r.mu.RLock()
	d, ok := r.custom[key]
	if !ok {
		d, ok = r.builtins[key]
	}
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUndefinedFunction, name)
	}
	if !d.Custom && !r.config.IsEnabled(d.Name, d.Category) {
		return nil, fmt.Errorf("%w: %s", ErrDisabled, d.Name)
	}
	return d, nil
}

// Call resolves name, checks the argument count and runs the body.
func (r *Registry) Call(env Env, name string, args []value.Value) (value.Value, error) {
	d, err := r.Resolve(name)
	if err != nil {
		return nil, err
	}
	if err := d.CheckArity(len(args)); err != nil {
		return nil, err
	}
	return d.Body(env, args)
}

// IsPure reports whether name resolves to a pure function.
func (r *Registry) IsPure(name string) bool {
	d, ok := r.Lookup(name)
	return ok && d.Pure
}

// Names returns every callable name, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[string]struct{}, len(r.builtins)+len(r.custom))
	for name := range r.custom {
		seen[name] = struct{}{}
	}
	for name, d := range r.builtins {
		if r.config.IsEnabled(d.Name, d.Category) {
			seen[name] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// List returns the descriptors of every callable function, sorted by name.
func (r *Registry) List() []*Descriptor {
	names := r.Names()
	out := make([]*Descriptor, 0, len(names))
	for _, name := range names {
		if d, ok := r.Lookup(name); ok {
			out = append(out, d)
		}
	}
	return out
}

// ListByCategory returns the callable functions of one category.
func (r *Registry) ListByCategory(category Category) []*Descriptor {
	var out []*Descriptor
	for _, d := range r.List() {
		if d.Category == category {
			out = append(out, d)
		}
	}
	return out
}

// Categories returns the categories that have at least one callable
// function, in display order.
func (r *Registry) Categories() []Category {
	present := make(map[Category]bool)
	for _, d := range r.List() {
		present[d.Category] = true
	}
	var out []Category
	for _, c := range append(append([]Category{}, AllCategories...), CategoryCustom) {
		if present[c] {
			out = append(out, c)
		}
	}
	return out
}

// Describe renders a one-paragraph help text for name.
func (r *Registry) Describe(name string) (string, error) {
	d, err := r.Resolve(name)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s [%s]", d.Signature(), d.Category)
	if !d.Pure {
		b.WriteString(" (impure)")
	}
	if d.Description != "" {
		b.WriteString("\n  ")
		b.WriteString(d.Description)
	}
	for _, ex := range d.Examples {
		b.WriteString("\n  e.g. ")
		b.WriteString(ex)
	}
	return b.String(), nil
}

// registerBuiltins installs the whole catalog.
func (r *Registry) registerBuiltins() {
	registerMath(r)
	registerStrings(r)
	registerRegex(r)
	registerDateTime(r)
	registerGraph(r)
	registerConversion(r)
	registerContainer(r)
	registerHash(r)
}
