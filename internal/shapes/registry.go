// Package shapes holds the registry of object shapes, hooks and globals
// consulted by type inference and effect analysis.
package shapes

import (
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"forget/internal/hir"
)

// Shape is a named object layout. Call is set for callable shapes.
type Shape struct {
	ID         string
	Properties map[string]hir.Type
	Call       *hir.FunctionSignature
}

// Registry implements hir.Registry. Declarations happen before compilation;
// queries are safe for concurrent use afterwards.
type Registry struct {
	shapes  map[string]*Shape
	globals map[string]*hir.Global
	hooks   map[string]*hir.HookDefinition

	mu     sync.Mutex
	custom map[string]*hir.HookDefinition
}

var _ hir.Registry = (*Registry)(nil)

// New returns an empty registry.
func New() *Registry {
	return &Registry{
		shapes:  make(map[string]*Shape),
		globals: make(map[string]*hir.Global),
		hooks:   make(map[string]*hir.HookDefinition),
		custom:  make(map[string]*hir.HookDefinition),
	}
}

// AddShape declares or replaces a shape.
func (r *Registry) AddShape(s *Shape) {
	if s.Properties == nil {
		s.Properties = make(map[string]hir.Type)
	}
	r.shapes[s.ID] = s
}

// AddFunction declares a callable shape and returns its type.
func (r *Registry) AddFunction(id string, sig hir.FunctionSignature) *hir.FunctionType {
	r.AddShape(&Shape{ID: id, Call: &sig})
	return &hir.FunctionType{ShapeID: id, Return: sig.Return}
}

func (r *Registry) AddGlobal(name string, t hir.Type) {
	r.globals[name] = &hir.Global{Name: name, Type: t}
}

func (r *Registry) AddHook(def *hir.HookDefinition) {
	r.hooks[def.Name] = def
}

func (r *Registry) Shape(id string) *Shape { return r.shapes[id] }

func (r *Registry) GetPropertyType(t hir.Type, name string) hir.Type {
	var id string
	switch tt := t.(type) {
	case *hir.ObjectType:
		id = tt.ShapeID
	case *hir.FunctionType:
		id = tt.ShapeID
	default:
		return nil
	}
	s := r.shapes[id]
	if s == nil {
		return nil
	}
	return s.Properties[name]
}

func (r *Registry) GetFunctionSignature(t hir.Type) *hir.FunctionSignature {
	switch tt := t.(type) {
	case *hir.FunctionType:
		if s := r.shapes[tt.ShapeID]; s != nil && s.Call != nil {
			return s.Call
		}
		if tt.Return != nil {
			return &hir.FunctionSignature{Return: tt.Return}
		}
	case *hir.HookType:
		if tt.Definition == nil {
			return nil
		}
		ret := tt.Definition.Return
		if ret == nil {
			ret = hir.PolyType{}
		}
		return &hir.FunctionSignature{Return: ret, ArgumentEffect: tt.Definition.Effect}
	}
	return nil
}

func (r *Registry) GetGlobalDeclaration(name string) *hir.Global {
	if g := r.globals[name]; g != nil {
		return g
	}
	if def := r.hooks[name]; def != nil {
		return &hir.Global{Name: name, Type: &hir.HookType{Definition: def}}
	}
	if IsHookName(name) {
		return &hir.Global{Name: name, Type: &hir.HookType{Definition: r.customHook(name)}}
	}
	return nil
}

func (r *Registry) customHook(name string) *hir.HookDefinition {
	r.mu.Lock()
	defer r.mu.Unlock()
	if def := r.custom[name]; def != nil {
		return def
	}
	def := &hir.HookDefinition{Name: name, Return: hir.PolyType{}, Custom: true}
	r.custom[name] = def
	return def
}

// IsHookName reports whether name follows the hook naming convention:
// "use" followed by an uppercase letter or a digit.
func IsHookName(name string) bool {
	rest, ok := strings.CutPrefix(name, "use")
	if !ok || rest == "" {
		return false
	}
	c, _ := utf8.DecodeRuneInString(rest)
	return unicode.IsUpper(c) || unicode.IsDigit(c)
}
