package wgsl

import "fmt"

// Inspect traverses the AST rooted at node in depth-first source order. It
// calls f(n) for every node n; if f returns false the children of n are
// skipped. Attribute arguments are visited as the children of the node that
// carries the attributes.
func Inspect(node Node, f func(Node) bool) {
	if node == nil || !f(node) {
		return
	}
	for _, child := range Children(node) {
		Inspect(child, f)
	}
}

// Children returns the direct child nodes of node in source order. Absent
// optional children are omitted.
func Children(node Node) []Node {
	var out []Node
	add := func(n Node) {
		if n != nil && !isNilNode(n) {
			out = append(out, n)
		}
	}
	attrs := func(list []Attribute) {
		for _, a := range list {
			for _, arg := range a.Args {
				add(arg)
			}
		}
	}

	switch n := node.(type) {
	case *Module:
		for _, d := range n.Decls {
			add(d)
		}

	case *StructDecl:
		for _, m := range n.Members {
			add(m)
		}
	case *StructMember:
		attrs(n.Attributes)
		add(n.Type)
	case *FunctionDecl:
		attrs(n.Attributes)
		for _, p := range n.Params {
			add(p)
		}
		attrs(n.ReturnAttrs)
		add(n.ReturnType)
		add(n.Body)
	case *Parameter:
		attrs(n.Attributes)
		add(n.Type)
	case *VarDecl:
		attrs(n.Attributes)
		add(n.Type)
		add(n.Init)
	case *ConstDecl:
		add(n.Type)
		add(n.Init)
	case *OverrideDecl:
		attrs(n.Attributes)
		add(n.Type)
		add(n.Init)
	case *LetDecl:
		add(n.Type)
		add(n.Init)
	case *AliasDecl:
		add(n.Type)
	case *ConstAssertDecl:
		add(n.Cond)

	case *NamedType:
		for _, p := range n.TypeParams {
			add(p)
		}
	case *ArrayType:
		add(n.Element)
		add(n.Size)
	case *PtrType:
		add(n.PointeeType)

	case *BlockStmt:
		for _, s := range n.Statements {
			add(s)
		}
	case *ReturnStmt:
		add(n.Value)
	case *IfStmt:
		add(n.Condition)
		add(n.Body)
		add(n.Else)
	case *ForStmt:
		add(n.Init)
		add(n.Condition)
		add(n.Update)
		add(n.Body)
	case *WhileStmt:
		add(n.Condition)
		add(n.Body)
	case *LoopStmt:
		add(n.Body)
		add(n.Continuing)
	case *BreakIfStmt:
		add(n.Condition)
	case *AssignStmt:
		add(n.Left)
		add(n.Right)
	case *IncDecStmt:
		add(n.Expr)
	case *ExprStmt:
		add(n.Expr)
	case *SwitchStmt:
		add(n.Selector)
		for _, c := range n.Cases {
			add(c)
		}
	case *SwitchCaseClause:
		for _, s := range n.Selectors {
			add(s)
		}
		add(n.Body)
	case *BreakStmt, *ContinueStmt, *DiscardStmt:

	case *Ident, *Literal:
	case *BinaryExpr:
		add(n.Left)
		add(n.Right)
	case *UnaryExpr:
		add(n.Operand)
	case *CallExpr:
		add(n.Func)
		for _, a := range n.Args {
			add(a)
		}
	case *IndexExpr:
		add(n.Expr)
		add(n.Index)
	case *MemberExpr:
		add(n.Expr)
	case *ConstructExpr:
		add(n.Type)
		for _, a := range n.Args {
			add(a)
		}
	case *BitcastExpr:
		add(n.Type)
		add(n.Expr)

	default:
		panic(fmt.Sprintf("wgsl.Children: unexpected node type %T", node))
	}
	return out
}

// isNilNode reports whether n is an interface holding a typed nil pointer,
// as produced by optional fields such as IfStmt.Else.
func isNilNode(n Node) bool {
	switch n := n.(type) {
	case *BlockStmt:
		return n == nil
	case *Ident:
		return n == nil
	}
	return false
}
