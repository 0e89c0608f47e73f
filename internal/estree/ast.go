// Package estree models the subset of the ESTree JavaScript syntax tree
// (with JSX) consumed by the compiler. Parsing source text is done by an
// external tool; this package only holds the nodes and decodes them from
// the JSON the parser emits.
package estree

import "forget/internal/source"

// Node is any syntax node.
type Node interface {
	Span() source.Span
	Type() string
}

// Loc carries the source span of a node.
type Loc struct {
	Pos source.Span
}

func (l Loc) Span() source.Span { return l.Pos }

type (
	Program struct {
		Loc
		Body []Node
	}

	// Function covers declarations, expressions and arrows.
	Function struct {
		Loc
		Kind       FunctionKind
		ID         *Identifier
		Params     []Node
		Body       Node // *BlockStatement, or an expression for concise arrows
		Async      bool
		Generator  bool
		Expression bool
	}

	BlockStatement struct {
		Loc
		Body []Node
	}

	ExpressionStatement struct {
		Loc
		Expression Node
	}

	VariableDeclaration struct {
		Loc
		Kind         string // var, let, const
		Declarations []*VariableDeclarator
	}

	VariableDeclarator struct {
		Loc
		ID   Node
		Init Node
	}

	ReturnStatement struct {
		Loc
		Argument Node
	}

	IfStatement struct {
		Loc
		Test       Node
		Consequent Node
		Alternate  Node
	}

	WhileStatement struct {
		Loc
		Test Node
		Body Node
	}

	DoWhileStatement struct {
		Loc
		Body Node
		Test Node
	}

	ForStatement struct {
		Loc
		Init   Node
		Test   Node
		Update Node
		Body   Node
	}

	ForInStatement struct {
		Loc
		Of    bool
		Left  Node
		Right Node
		Body  Node
	}

	SwitchStatement struct {
		Loc
		Discriminant Node
		Cases        []*SwitchCase
	}

	SwitchCase struct {
		Loc
		Test       Node // nil for default
		Consequent []Node
	}

	LabeledStatement struct {
		Loc
		Label *Identifier
		Body  Node
	}

	BreakStatement struct {
		Loc
		Label *Identifier
	}

	ContinueStatement struct {
		Loc
		Label *Identifier
	}

	ThrowStatement struct {
		Loc
		Argument Node
	}

	TryStatement struct {
		Loc
		Block     *BlockStatement
		Handler   *CatchClause
		Finalizer *BlockStatement
	}

	CatchClause struct {
		Loc
		Param Node
		Body  *BlockStatement
	}

	EmptyStatement struct{ Loc }

	DebuggerStatement struct{ Loc }
)

type (
	Identifier struct {
		Loc
		Name string
	}

	ThisExpression struct{ Loc }

	// Literal holds string, number, boolean, null and regex literals.
	Literal struct {
		Loc
		Kind  LiteralKind
		Str   string
		Num   float64
		Bool  bool
		Raw   string
		Regex *Regex
	}

	Regex struct {
		Pattern string
		Flags   string
	}

	TemplateLiteral struct {
		Loc
		Quasis      []*TemplateElement
		Expressions []Node
	}

	TemplateElement struct {
		Loc
		Raw    string
		Cooked string
		Tail   bool
	}

	BinaryExpression struct {
		Loc
		Operator string
		Left     Node
		Right    Node
	}

	LogicalExpression struct {
		Loc
		Operator string // &&, ||, ??
		Left     Node
		Right    Node
	}

	UnaryExpression struct {
		Loc
		Operator string
		Argument Node
	}

	UpdateExpression struct {
		Loc
		Operator string // ++ or --
		Prefix   bool
		Argument Node
	}

	AssignmentExpression struct {
		Loc
		Operator string
		Left     Node
		Right    Node
	}

	ConditionalExpression struct {
		Loc
		Test       Node
		Consequent Node
		Alternate  Node
	}

	CallExpression struct {
		Loc
		Callee    Node
		Arguments []Node
		Optional  bool
	}

	NewExpression struct {
		Loc
		Callee    Node
		Arguments []Node
	}

	MemberExpression struct {
		Loc
		Object   Node
		Property Node
		Computed bool
		Optional bool
	}

	ObjectExpression struct {
		Loc
		Properties []Node // *Property or *SpreadElement
	}

	Property struct {
		Loc
		Key       Node
		Value     Node
		Computed  bool
		Shorthand bool
		Method    bool
		Kind      string // init, get, set
	}

	ArrayExpression struct {
		Loc
		Elements []Node // nil entries are holes
	}

	SequenceExpression struct {
		Loc
		Expressions []Node
	}

	AwaitExpression struct {
		Loc
		Argument Node
	}

	SpreadElement struct {
		Loc
		Argument Node
	}
)

type (
	JSXElement struct {
		Loc
		Name        Node // *JSXIdentifier, *JSXMemberExpression or *JSXNamespacedName
		Attributes  []Node
		Children    []Node
		SelfClosing bool
	}

	JSXFragment struct {
		Loc
		Children []Node
	}

	JSXAttribute struct {
		Loc
		Name  Node
		Value Node // nil for boolean attributes
	}

	JSXSpreadAttribute struct {
		Loc
		Argument Node
	}

	JSXIdentifier struct {
		Loc
		Name string
	}

	JSXMemberExpression struct {
		Loc
		Object   Node
		Property *JSXIdentifier
	}

	JSXNamespacedName struct {
		Loc
		Namespace *JSXIdentifier
		Name      *JSXIdentifier
	}

	JSXText struct {
		Loc
		Value string
	}

	JSXExpressionContainer struct {
		Loc
		Expression Node // *JSXEmptyExpression for {}
	}

	JSXEmptyExpression struct{ Loc }
)

type (
	ObjectPattern struct {
		Loc
		Properties []Node
	}

	ArrayPattern struct {
		Loc
		Elements []Node
	}

	RestElement struct {
		Loc
		Argument Node
	}

	AssignmentPattern struct {
		Loc
		Left  Node
		Right Node
	}

	// Unknown is any node type the decoder does not model.
	Unknown struct {
		Loc
		Kind string
	}
)

type FunctionKind uint8

const (
	FunctionDeclaration FunctionKind = iota
	FunctionExpression
	ArrowFunction
)

type LiteralKind uint8

const (
	LitString LiteralKind = iota
	LitNumber
	LitBoolean
	LitNull
	LitRegExp
)

func (n *Program) Type() string             { return "Program" }
func (n *BlockStatement) Type() string      { return "BlockStatement" }
func (n *ExpressionStatement) Type() string { return "ExpressionStatement" }
func (n *VariableDeclaration) Type() string { return "VariableDeclaration" }
func (n *VariableDeclarator) Type() string  { return "VariableDeclarator" }
func (n *ReturnStatement) Type() string     { return "ReturnStatement" }
func (n *IfStatement) Type() string         { return "IfStatement" }
func (n *WhileStatement) Type() string      { return "WhileStatement" }
func (n *DoWhileStatement) Type() string    { return "DoWhileStatement" }
func (n *ForStatement) Type() string        { return "ForStatement" }
func (n *SwitchStatement) Type() string     { return "SwitchStatement" }
func (n *SwitchCase) Type() string          { return "SwitchCase" }
func (n *LabeledStatement) Type() string    { return "LabeledStatement" }
func (n *BreakStatement) Type() string      { return "BreakStatement" }
func (n *ContinueStatement) Type() string   { return "ContinueStatement" }
func (n *ThrowStatement) Type() string      { return "ThrowStatement" }
func (n *TryStatement) Type() string        { return "TryStatement" }
func (n *CatchClause) Type() string         { return "CatchClause" }
func (n *EmptyStatement) Type() string      { return "EmptyStatement" }
func (n *DebuggerStatement) Type() string   { return "DebuggerStatement" }

func (n *Function) Type() string {
	switch n.Kind {
	case FunctionDeclaration:
		return "FunctionDeclaration"
	case ArrowFunction:
		return "ArrowFunctionExpression"
	default:
		return "FunctionExpression"
	}
}

func (n *ForInStatement) Type() string {
	if n.Of {
		return "ForOfStatement"
	}
	return "ForInStatement"
}

func (n *Identifier) Type() string            { return "Identifier" }
func (n *ThisExpression) Type() string        { return "ThisExpression" }
func (n *Literal) Type() string               { return "Literal" }
func (n *TemplateLiteral) Type() string       { return "TemplateLiteral" }
func (n *TemplateElement) Type() string       { return "TemplateElement" }
func (n *BinaryExpression) Type() string      { return "BinaryExpression" }
func (n *LogicalExpression) Type() string     { return "LogicalExpression" }
func (n *UnaryExpression) Type() string       { return "UnaryExpression" }
func (n *UpdateExpression) Type() string      { return "UpdateExpression" }
func (n *AssignmentExpression) Type() string  { return "AssignmentExpression" }
func (n *ConditionalExpression) Type() string { return "ConditionalExpression" }
func (n *CallExpression) Type() string        { return "CallExpression" }
func (n *NewExpression) Type() string         { return "NewExpression" }
func (n *MemberExpression) Type() string      { return "MemberExpression" }
func (n *ObjectExpression) Type() string      { return "ObjectExpression" }
func (n *Property) Type() string              { return "Property" }
func (n *ArrayExpression) Type() string       { return "ArrayExpression" }
func (n *SequenceExpression) Type() string    { return "SequenceExpression" }
func (n *AwaitExpression) Type() string       { return "AwaitExpression" }
func (n *SpreadElement) Type() string         { return "SpreadElement" }

func (n *JSXElement) Type() string             { return "JSXElement" }
func (n *JSXFragment) Type() string            { return "JSXFragment" }
func (n *JSXAttribute) Type() string           { return "JSXAttribute" }
func (n *JSXSpreadAttribute) Type() string     { return "JSXSpreadAttribute" }
func (n *JSXIdentifier) Type() string          { return "JSXIdentifier" }
func (n *JSXMemberExpression) Type() string    { return "JSXMemberExpression" }
func (n *JSXNamespacedName) Type() string      { return "JSXNamespacedName" }
func (n *JSXText) Type() string                { return "JSXText" }
func (n *JSXExpressionContainer) Type() string { return "JSXExpressionContainer" }
func (n *JSXEmptyExpression) Type() string     { return "JSXEmptyExpression" }

func (n *ObjectPattern) Type() string     { return "ObjectPattern" }
func (n *ArrayPattern) Type() string      { return "ArrayPattern" }
func (n *RestElement) Type() string       { return "RestElement" }
func (n *AssignmentPattern) Type() string { return "AssignmentPattern" }
func (n *Unknown) Type() string           { return n.Kind }
