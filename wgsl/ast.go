package wgsl

// Module represents a WGSL module (translation unit). Decls keeps the
// top-level declarations in source order.
type Module struct {
	Enables     []Enable
	Diagnostics []DiagnosticDirective
	Decls       []Decl
	Span
}

// Enable represents an enable directive.
type Enable struct {
	Extensions []string
	Span
}

// DiagnosticDirective represents a module-level diagnostic directive.
type DiagnosticDirective struct {
	Severity string
	Rule     string
	Span
}

// Node is the base interface for all AST nodes.
type Node interface {
	Pos() Span
}

// Decl is the interface for top-level declarations.
type Decl interface {
	Node
	declNode()
}

// Stmt is the interface for statements.
type Stmt interface {
	Node
	stmtNode()
}

// Expr is the interface for expressions.
type Expr interface {
	Node
	exprNode()
}

// Type is the interface for type expressions.
type Type interface {
	Node
	typeNode()
}

// DeclName returns the symbol a declaration introduces, or "" for
// declarations without one (const_assert).
func DeclName(d Decl) string {
	switch d := d.(type) {
	case *StructDecl:
		return d.Name
	case *AliasDecl:
		return d.Name
	case *FunctionDecl:
		return d.Name
	case *VarDecl:
		return d.Name
	case *ConstDecl:
		return d.Name
	case *OverrideDecl:
		return d.Name
	}
	return ""
}

// DeclKind returns the keyword-like kind name used in diagnostics.
func DeclKind(d Decl) string {
	switch d.(type) {
	case *StructDecl:
		return "struct"
	case *AliasDecl:
		return "alias"
	case *FunctionDecl:
		return "function"
	case *VarDecl:
		return "var"
	case *ConstDecl:
		return "const"
	case *OverrideDecl:
		return "override"
	case *ConstAssertDecl:
		return "const_assert"
	}
	return "<unknown>"
}

// Declarations

// StructDecl represents a struct declaration.
type StructDecl struct {
	Name    string
	Members []*StructMember
	Span
}

// StructMember represents a struct member.
type StructMember struct {
	Name       string
	Type       Type
	Attributes []Attribute
	Span
}

// FunctionDecl represents a function declaration.
type FunctionDecl struct {
	Name        string
	Params      []*Parameter
	ReturnType  Type        // nil for functions without a return value
	ReturnAttrs []Attribute // e.g. @builtin(position), @location(0)
	Attributes  []Attribute
	Body        *BlockStmt
	Span
}

// Parameter represents a function parameter.
type Parameter struct {
	Name       string
	Type       Type
	Attributes []Attribute
	Span
}

// VarDecl represents a `var` declaration at module or function scope.
type VarDecl struct {
	Name         string
	Type         Type
	Init         Expr
	AddressSpace string // function, private, workgroup, uniform, storage
	AccessMode   string // read, write, read_write
	Attributes   []Attribute
	Span
}

// ConstDecl represents a `const` declaration at module or function scope.
type ConstDecl struct {
	Name string
	Type Type
	Init Expr
	Span
}

// OverrideDecl represents a pipeline-overridable constant.
type OverrideDecl struct {
	Name       string
	Type       Type
	Init       Expr
	Attributes []Attribute
	Span
}

// LetDecl represents a function-scope `let` declaration.
type LetDecl struct {
	Name string
	Type Type
	Init Expr
	Span
}

// AliasDecl represents a type alias declaration.
type AliasDecl struct {
	Name string
	Type Type
	Span
}

// ConstAssertDecl represents a const_assert at module or function scope.
type ConstAssertDecl struct {
	Cond Expr
	Span
}

// Attribute represents an attribute (e.g., @location(0)).
type Attribute struct {
	Name string
	Args []Expr
	Span
}

// FindAttribute returns the first attribute with the given name.
func FindAttribute(attrs []Attribute, name string) (Attribute, bool) {
	for _, a := range attrs {
		if a.Name == name {
			return a, true
		}
	}
	return Attribute{}, false
}

// Types

// NamedType represents a named type, optionally templated (e.g., f32,
// vec3<f32>, texture_storage_2d<rgba8unorm, write>).
type NamedType struct {
	Name       string
	TypeParams []Type
	Span
}

// ArrayType represents an array type.
type ArrayType struct {
	Element Type
	Size    Expr // nil for runtime-sized arrays
	Span
}

// PtrType represents a pointer type.
type PtrType struct {
	AddressSpace string
	PointeeType  Type
	AccessMode   string
	Span
}

// Statements

// BlockStmt represents a block statement.
type BlockStmt struct {
	Statements []Stmt
	Span
}

// ReturnStmt represents a return statement.
type ReturnStmt struct {
	Value Expr
	Span
}

// IfStmt represents an if statement.
type IfStmt struct {
	Condition Expr
	Body      *BlockStmt
	Else      Stmt // *BlockStmt, *IfStmt or nil
	Span
}

// ForStmt represents a for loop.
type ForStmt struct {
	Init      Stmt
	Condition Expr
	Update    Stmt
	Body      *BlockStmt
	Span
}

// WhileStmt represents a while loop.
type WhileStmt struct {
	Condition Expr
	Body      *BlockStmt
	Span
}

// LoopStmt represents a loop statement.
type LoopStmt struct {
	Body       *BlockStmt
	Continuing *BlockStmt // nil when absent
	Span
}

// BreakStmt represents a break statement.
type BreakStmt struct {
	Span
}

// BreakIfStmt represents `break if cond;`, the last statement of a
// continuing block.
type BreakIfStmt struct {
	Condition Expr
	Span
}

// ContinueStmt represents a continue statement.
type ContinueStmt struct {
	Span
}

// DiscardStmt represents a discard statement.
type DiscardStmt struct {
	Span
}

// AssignStmt represents plain, compound and phony assignment.
type AssignStmt struct {
	Left  Expr      // nil for the phony assignment `_ = e`
	Op    TokenKind // TokenEqual or a compound operator such as TokenPlusEqual
	Right Expr
	Span
}

// IncDecStmt represents `e++` and `e--`.
type IncDecStmt struct {
	Expr      Expr
	Increment bool
	Span
}

// ExprStmt represents a call used as a statement.
type ExprStmt struct {
	Expr Expr
	Span
}

// SwitchStmt represents a switch statement.
type SwitchStmt struct {
	Selector Expr
	Cases    []*SwitchCaseClause
	Span
}

// SwitchCaseClause represents a case clause in a switch statement.
// A nil entry in Selectors stands for `default`.
type SwitchCaseClause struct {
	Selectors []Expr
	Body      *BlockStmt
	Span
}

// HasDefault reports whether the clause contains the default selector.
func (c *SwitchCaseClause) HasDefault() bool {
	for _, s := range c.Selectors {
		if s == nil {
			return true
		}
	}
	return false
}

// Expressions

// Ident represents an identifier.
type Ident struct {
	Name string
	Span
}

// Literal represents a literal value.
type Literal struct {
	Kind  TokenKind // IntLiteral, FloatLiteral, BoolLiteral
	Value string
	Span
}

// BinaryExpr represents a binary expression.
type BinaryExpr struct {
	Left  Expr
	Op    TokenKind
	Right Expr
	Span
}

// UnaryExpr represents a unary expression: -, !, ~, & (address-of) or
// * (indirection).
type UnaryExpr struct {
	Op      TokenKind
	Operand Expr
	Span
}

// CallExpr represents a call of a function, a built-in or a non-templated
// type constructor (f32(x), S(a, b)).
type CallExpr struct {
	Func *Ident
	Args []Expr
	Span
}

// IndexExpr represents an index expression.
type IndexExpr struct {
	Expr  Expr
	Index Expr
	Span
}

// MemberExpr represents a member access or swizzle.
type MemberExpr struct {
	Expr   Expr
	Member string
	Span
}

// ConstructExpr represents a templated type constructor such as
// vec3<f32>(...) or array<i32, 4>(...).
type ConstructExpr struct {
	Type Type
	Args []Expr
	Span
}

// BitcastExpr represents a bitcast expression: bitcast<TargetType>(expr).
type BitcastExpr struct {
	Type Type
	Expr Expr
	Span
}

func (*StructDecl) declNode()      {}
func (*FunctionDecl) declNode()    {}
func (*VarDecl) declNode()         {}
func (*ConstDecl) declNode()       {}
func (*OverrideDecl) declNode()    {}
func (*AliasDecl) declNode()       {}
func (*ConstAssertDecl) declNode() {}

func (*VarDecl) stmtNode()         {}
func (*ConstDecl) stmtNode()       {}
func (*LetDecl) stmtNode()         {}
func (*ConstAssertDecl) stmtNode() {}
func (*BlockStmt) stmtNode()       {}
func (*ReturnStmt) stmtNode()      {}
func (*IfStmt) stmtNode()          {}
func (*ForStmt) stmtNode()         {}
func (*WhileStmt) stmtNode()       {}
func (*LoopStmt) stmtNode()        {}
func (*BreakStmt) stmtNode()       {}
func (*BreakIfStmt) stmtNode()     {}
func (*ContinueStmt) stmtNode()    {}
func (*DiscardStmt) stmtNode()     {}
func (*AssignStmt) stmtNode()      {}
func (*IncDecStmt) stmtNode()      {}
func (*ExprStmt) stmtNode()        {}
func (*SwitchStmt) stmtNode()      {}

func (*Ident) exprNode()         {}
func (*Literal) exprNode()       {}
func (*BinaryExpr) exprNode()    {}
func (*UnaryExpr) exprNode()     {}
func (*CallExpr) exprNode()      {}
func (*IndexExpr) exprNode()     {}
func (*MemberExpr) exprNode()    {}
func (*ConstructExpr) exprNode() {}
func (*BitcastExpr) exprNode()   {}

func (*NamedType) typeNode() {}
func (*ArrayType) typeNode() {}
func (*PtrType) typeNode()   {}
