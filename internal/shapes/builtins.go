package shapes

import "forget/internal/hir"

// Built-in shape ids.
const (
	BuiltInObject     = "BuiltInObject"
	BuiltInArray      = "BuiltInArray"
	BuiltInFunction   = "BuiltInFunction"
	BuiltInJsx        = "BuiltInJsx"
	BuiltInUseState   = "BuiltInUseState"
	BuiltInSetState   = "BuiltInSetState"
	BuiltInUseRef     = "BuiltInUseRef"
	BuiltInMath       = "BuiltInMath"
	BuiltInConsole    = "BuiltInConsole"
	BuiltInJSON       = "BuiltInJSON"
	BuiltInObjectCtor = "BuiltInObjectConstructor"
	BuiltInArrayCtor  = "BuiltInArrayConstructor"
)

func object(id string) *hir.ObjectType { return &hir.ObjectType{ShapeID: id} }

// Default returns a registry populated with the built-in shapes, hooks and
// globals.
func Default() *Registry {
	r := New()
	prim := hir.PrimitiveType{}
	poly := hir.PolyType{}
	read := func(ret hir.Type) hir.FunctionSignature {
		return hir.FunctionSignature{Return: ret, ArgumentEffect: hir.EffectRead, ReceiverEffect: hir.EffectRead}
	}
	method := func(owner, name string, sig hir.FunctionSignature) (string, hir.Type) {
		return name, r.AddFunction(owner+"."+name, sig)
	}
	props := func(pairs ...any) map[string]hir.Type {
		m := make(map[string]hir.Type, len(pairs)/2)
		for i := 0; i+1 < len(pairs); i += 2 {
			m[pairs[i].(string)] = pairs[i+1].(hir.Type)
		}
		return m
	}
	withMethods := func(owner string, sigs map[string]hir.FunctionSignature, extra ...any) map[string]hir.Type {
		m := props(extra...)
		for name, sig := range sigs {
			k, t := method(owner, name, sig)
			m[k] = t
		}
		return m
	}

	r.AddShape(&Shape{ID: BuiltInObject})
	r.AddShape(&Shape{ID: BuiltInFunction})
	r.AddShape(&Shape{ID: BuiltInJsx})

	array := object(BuiltInArray)
	r.AddShape(&Shape{ID: BuiltInArray, Properties: withMethods(BuiltInArray, map[string]hir.FunctionSignature{
		"push":     {Return: prim, ArgumentEffect: hir.EffectCapture, ReceiverEffect: hir.EffectStore},
		"pop":      {Return: poly, ArgumentEffect: hir.EffectRead, ReceiverEffect: hir.EffectStore},
		"shift":    {Return: poly, ArgumentEffect: hir.EffectRead, ReceiverEffect: hir.EffectStore},
		"unshift":  {Return: prim, ArgumentEffect: hir.EffectCapture, ReceiverEffect: hir.EffectStore},
		"splice":   {Return: array, ArgumentEffect: hir.EffectCapture, ReceiverEffect: hir.EffectStore},
		"sort":     {Return: array, ArgumentEffect: hir.EffectRead, ReceiverEffect: hir.EffectStore},
		"reverse":  {Return: array, ArgumentEffect: hir.EffectRead, ReceiverEffect: hir.EffectStore},
		"map":      read(array),
		"filter":   read(array),
		"slice":    read(array),
		"concat":   read(array),
		"indexOf":  read(prim),
		"includes": read(prim),
		"join":     read(prim),
		"at":       read(poly),
		"find":     read(poly),
		"forEach":  read(prim),
	}, "length", hir.Type(prim))})

	setState := r.AddFunction(BuiltInSetState, hir.FunctionSignature{Return: prim, ArgumentEffect: hir.EffectFreeze})
	r.AddShape(&Shape{ID: BuiltInUseState, Properties: props("0", hir.Type(poly), "1", hir.Type(setState))})
	r.AddShape(&Shape{ID: BuiltInUseRef, Properties: props("current", hir.Type(poly))})

	r.AddShape(&Shape{ID: BuiltInMath, Properties: withMethods(BuiltInMath, map[string]hir.FunctionSignature{
		"max":    read(prim),
		"min":    read(prim),
		"abs":    read(prim),
		"floor":  read(prim),
		"ceil":   read(prim),
		"round":  read(prim),
		"random": read(prim),
		"pow":    read(prim),
		"sqrt":   read(prim),
	}, "PI", hir.Type(prim), "E", hir.Type(prim))})
	r.AddShape(&Shape{ID: BuiltInConsole, Properties: withMethods(BuiltInConsole, map[string]hir.FunctionSignature{
		"log":   read(prim),
		"info":  read(prim),
		"warn":  read(prim),
		"error": read(prim),
		"debug": read(prim),
	})})
	r.AddShape(&Shape{ID: BuiltInJSON, Properties: withMethods(BuiltInJSON, map[string]hir.FunctionSignature{
		"stringify": read(prim),
		"parse":     read(poly),
	})})
	r.AddShape(&Shape{ID: BuiltInObjectCtor, Properties: withMethods(BuiltInObjectCtor, map[string]hir.FunctionSignature{
		"keys":    read(array),
		"values":  read(array),
		"entries": read(array),
		"assign":  {Return: object(BuiltInObject), ArgumentEffect: hir.EffectCapture, ReceiverEffect: hir.EffectRead},
		"freeze":  {Return: object(BuiltInObject), ArgumentEffect: hir.EffectFreeze, ReceiverEffect: hir.EffectRead},
	})})
	r.AddShape(&Shape{ID: BuiltInArrayCtor, Properties: withMethods(BuiltInArrayCtor, map[string]hir.FunctionSignature{
		"isArray": read(prim),
		"from":    read(array),
		"of":      read(array),
	})})

	r.AddGlobal("Math", object(BuiltInMath))
	r.AddGlobal("console", object(BuiltInConsole))
	r.AddGlobal("JSON", object(BuiltInJSON))
	r.AddGlobal("Object", object(BuiltInObjectCtor))
	r.AddGlobal("Array", object(BuiltInArrayCtor))
	for _, name := range []string{"undefined", "NaN", "Infinity"} {
		r.AddGlobal(name, prim)
	}
	for _, name := range []string{"String", "Number", "Boolean"} {
		r.AddGlobal(name, r.AddFunction("BuiltIn"+name, read(prim)))
	}

	r.AddHook(&hir.HookDefinition{Name: "useState", Return: object(BuiltInUseState), Effect: hir.EffectFreeze})
	r.AddHook(&hir.HookDefinition{Name: "useReducer", Return: object(BuiltInUseState), Effect: hir.EffectFreeze})
	r.AddHook(&hir.HookDefinition{Name: "useRef", Return: object(BuiltInUseRef), Effect: hir.EffectCapture})
	r.AddHook(&hir.HookDefinition{Name: "useMemo", Return: poly, Effect: hir.EffectFreeze})
	r.AddHook(&hir.HookDefinition{Name: "useCallback", Return: poly, Effect: hir.EffectFreeze})
	r.AddHook(&hir.HookDefinition{Name: "useEffect", Return: prim, Effect: hir.EffectFreeze})
	r.AddHook(&hir.HookDefinition{Name: "useContext", Return: poly, Effect: hir.EffectRead})
	return r
}
