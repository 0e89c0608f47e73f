package hir

// Registry answers shape queries. It is read-only during compilation and
// may be shared by concurrent compilations.
type Registry interface {
	// GetPropertyType returns the type of property name on an object or
	// function type, or nil when unknown.
	GetPropertyType(t Type, name string) Type
	// GetFunctionSignature returns the call signature of a function or
	// hook type, or nil when unknown.
	GetFunctionSignature(t Type) *FunctionSignature
	// GetGlobalDeclaration returns the declaration of a global name, or
	// nil when the name is not a known global.
	GetGlobalDeclaration(name string) *Global
}

// FunctionSignature describes a callable shape.
type FunctionSignature struct {
	Return Type
	// ArgumentEffect is the effect the callee has on its arguments;
	// EffectUnknown means arguments may be mutated.
	ArgumentEffect Effect
	// ReceiverEffect is the effect a method call has on its receiver.
	ReceiverEffect Effect
}

// Global is a known global binding.
type Global struct {
	Name string
	Type Type
}

// HookDefinition describes a hook; Custom is set for names recognized only
// by the use-prefix convention.
type HookDefinition struct {
	Name   string
	Return Type
	Effect Effect // effect on arguments
	Custom bool
}
