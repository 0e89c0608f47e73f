package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"forget/internal/hir"
	"forget/internal/shapes"
)

// TypeDecl describes a declared type. Kind is one of primitive, poly,
// object or function. For objects Shape names the shape; for functions
// Returns and ReturnShape describe the result and the effects describe
// what a call does to its arguments and receiver.
type TypeDecl struct {
	Kind           string `toml:"kind" yaml:"kind"`
	Shape          string `toml:"shape" yaml:"shape"`
	Returns        string `toml:"returns" yaml:"returns"`
	ReturnShape    string `toml:"return_shape" yaml:"return_shape"`
	ArgumentEffect string `toml:"argument_effect" yaml:"argument_effect"`
	ReceiverEffect string `toml:"receiver_effect" yaml:"receiver_effect"`
}

type ShapeDecl struct {
	ID         string              `toml:"id" yaml:"id"`
	Properties map[string]TypeDecl `toml:"properties" yaml:"properties"`
}

type GlobalDecl struct {
	Name     string `toml:"name" yaml:"name"`
	TypeDecl `yaml:",inline"`
}

type HookDecl struct {
	Name        string `toml:"name" yaml:"name"`
	ReturnKind  string `toml:"return_kind" yaml:"return_kind"`
	ReturnShape string `toml:"return_shape" yaml:"return_shape"`
	Effect      string `toml:"effect" yaml:"effect"`
}

var kinds = []string{"primitive", "poly", "object", "function"}

func parseEffect(s string) (hir.Effect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "unknown":
		return hir.EffectUnknown, nil
	case "freeze":
		return hir.EffectFreeze, nil
	case "read":
		return hir.EffectRead, nil
	case "capture":
		return hir.EffectCapture, nil
	case "store":
		return hir.EffectStore, nil
	case "mutate":
		return hir.EffectMutate, nil
	}
	return hir.EffectUnknown, fmt.Errorf("invalid effect %q (expected: freeze|read|capture|store|mutate)", s)
}

func (d TypeDecl) validate(where string) []error {
	var errs []error
	if !slices.Contains(kinds, d.Kind) {
		errs = append(errs, fmt.Errorf("%s: invalid kind %q (expected: %s)", where, d.Kind, strings.Join(kinds, "|")))
	}
	if d.Kind == "object" && d.Shape == "" {
		errs = append(errs, fmt.Errorf("%s: object kind requires a shape", where))
	}
	if d.Kind == "function" && d.Returns != "" && !slices.Contains(kinds[:3], d.Returns) {
		errs = append(errs, fmt.Errorf("%s: invalid returns %q", where, d.Returns))
	}
	for _, e := range []string{d.ArgumentEffect, d.ReceiverEffect} {
		if _, err := parseEffect(e); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", where, err))
		}
	}
	return errs
}

func (c *Config) validateDecls() []error {
	var errs []error
	for i, h := range c.Hooks {
		where := fmt.Sprintf("hooks[%d]", i)
		if !shapes.IsHookName(h.Name) {
			errs = append(errs, fmt.Errorf("%s: %q is not a hook name", where, h.Name))
		}
		if h.ReturnKind != "" && !slices.Contains(kinds[:3], h.ReturnKind) {
			errs = append(errs, fmt.Errorf("%s: invalid return_kind %q", where, h.ReturnKind))
		}
		if _, err := parseEffect(h.Effect); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", where, err))
		}
	}
	seen := make(map[string]bool)
	for i, s := range c.Shapes {
		where := fmt.Sprintf("shapes[%d]", i)
		if s.ID == "" {
			errs = append(errs, fmt.Errorf("%s: missing id", where))
		} else if seen[s.ID] {
			errs = append(errs, fmt.Errorf("%s: duplicate shape %q", where, s.ID))
		}
		seen[s.ID] = true
		for _, name := range sortedKeys(s.Properties) {
			errs = append(errs, s.Properties[name].validate(where+"."+name)...)
		}
	}
	for i, g := range c.Globals {
		where := fmt.Sprintf("globals[%d]", i)
		if g.Name == "" {
			errs = append(errs, fmt.Errorf("%s: missing name", where))
		}
		errs = append(errs, g.validate(where)...)
	}
	return errs
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Apply declares the configured shapes, globals and hooks in reg.
// Shapes are declared first so globals and properties may refer to them.
func (c *Config) Apply(reg *shapes.Registry) error {
	var errs []error
	for _, s := range c.Shapes {
		reg.AddShape(&shapes.Shape{ID: s.ID})
	}
	for _, s := range c.Shapes {
		shape := reg.Shape(s.ID)
		for _, name := range sortedKeys(s.Properties) {
			t, err := c.resolve(reg, s.ID+"."+name, s.Properties[name])
			if err != nil {
				errs = append(errs, err)
				continue
			}
			shape.Properties[name] = t
		}
	}
	for _, g := range c.Globals {
		t, err := c.resolve(reg, g.Name, g.TypeDecl)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		reg.AddGlobal(g.Name, t)
	}
	for _, h := range c.Hooks {
		effect, _ := parseEffect(h.Effect)
		ret, err := c.resolve(reg, h.Name, TypeDecl{Kind: h.ReturnKind, Shape: h.ReturnShape})
		if h.ReturnKind == "" {
			ret, err = hir.PolyType{}, nil
		}
		if err != nil {
			errs = append(errs, err)
			continue
		}
		reg.AddHook(&hir.HookDefinition{Name: h.Name, Return: ret, Effect: effect})
	}
	return errors.Join(errs...)
}

func (c *Config) resolve(reg *shapes.Registry, owner string, d TypeDecl) (hir.Type, error) {
	switch d.Kind {
	case "primitive":
		return hir.PrimitiveType{}, nil
	case "poly":
		return hir.PolyType{}, nil
	case "object":
		if reg.Shape(d.Shape) == nil {
			return nil, fmt.Errorf("%s: unknown shape %q", owner, d.Shape)
		}
		return &hir.ObjectType{ShapeID: d.Shape}, nil
	case "function":
		ret := hir.Type(hir.PolyType{})
		if d.Returns != "" {
			r, err := c.resolve(reg, owner, TypeDecl{Kind: d.Returns, Shape: d.ReturnShape})
			if err != nil {
				return nil, err
			}
			ret = r
		}
		arg, _ := parseEffect(d.ArgumentEffect)
		recv, _ := parseEffect(d.ReceiverEffect)
		return reg.AddFunction("User:"+owner, hir.FunctionSignature{Return: ret, ArgumentEffect: arg, ReceiverEffect: recv}), nil
	}
	return nil, fmt.Errorf("%s: invalid kind %q", owner, d.Kind)
}
