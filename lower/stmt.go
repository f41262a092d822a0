package lower

import (
	"github.com/gogpu/wgslfront/diag"
	"github.com/gogpu/wgslfront/ir"
	"github.com/gogpu/wgslfront/wgsl"
)

// statements lowers list in order. Statements after the cursor becomes
// unreachable are not lowered.
func (fl *funcLowerer) statements(list []wgsl.Stmt) error {
	for _, s := range list {
		if fl.current == nil {
			return nil
		}
		if err := fl.statement(s); err != nil {
			return err
		}
	}
	return nil
}

// block lowers b in a new scope.
func (fl *funcLowerer) block(b *wgsl.BlockStmt) error {
	fl.scopes.Push()
	defer fl.scopes.Pop()
	return fl.statements(b.Statements)
}

func (fl *funcLowerer) statement(s wgsl.Stmt) error {
	switch s := s.(type) {
	case *wgsl.BlockStmt:
		return fl.block(s)
	case *wgsl.VarDecl:
		return fl.localVar(s)
	case *wgsl.LetDecl:
		return fl.letDecl(s)
	case *wgsl.ConstDecl:
		c, err := fl.constDecl(s)
		if err != nil {
			return err
		}
		fl.scopes.Set(s.Name, binding{decl: s, kind: bindValue, value: c})
		return nil
	case *wgsl.ConstAssertDecl:
		return fl.constAssert(s)
	case *wgsl.AssignStmt:
		return fl.assign(s)
	case *wgsl.IncDecStmt:
		return fl.incDec(s)
	case *wgsl.ExprStmt:
		_, err := fl.expr(s.Expr)
		return err
	case *wgsl.IfStmt:
		return fl.ifStmt(s)
	case *wgsl.ForStmt:
		return fl.forStmt(s)
	case *wgsl.WhileStmt:
		return fl.whileStmt(s)
	case *wgsl.LoopStmt:
		return fl.loopStmt(s)
	case *wgsl.SwitchStmt:
		return fl.switchStmt(s)
	case *wgsl.BreakStmt:
		return fl.breakStmt(s)
	case *wgsl.BreakIfStmt:
		return errorf(diag.CodeInvalidControlFlow, s, "break if must be the last statement of a continuing block")
	case *wgsl.ContinueStmt:
		return fl.continueStmt(s)
	case *wgsl.ReturnStmt:
		return fl.returnStmt(s)
	case *wgsl.DiscardStmt:
		emit(fl, ir.NewDiscard())
		return nil
	}
	return internalf(s, "unhandled statement type: %T", s)
}

func (fl *funcLowerer) localVar(d *wgsl.VarDecl) error {
	if d.AddressSpace != "" && d.AddressSpace != "function" {
		return errorf(diag.CodeInvalidOperand, d, "function-scope var '%s' cannot be in the '%s' address space", d.Name, d.AddressSpace)
	}

	var store ir.Type
	if d.Type != nil {
		t, err := fl.resolveType(d.Type)
		if err != nil {
			return err
		}
		store = t
	}
	var init ir.Value
	if d.Init != nil {
		v, err := fl.rvalue(d.Init)
		if err != nil {
			return err
		}
		if store == nil {
			init, err = concretize(v)
		} else {
			init, err = materialize(v, store)
		}
		if err != nil {
			return operandError(d.Init, err)
		}
		store = init.Type()
	}
	if store == nil {
		return errorf(diag.CodeInvalidOperand, d, "var '%s' needs a type or an initializer", d.Name)
	}

	ptr := ir.PointerType{Base: store, Space: ir.SpaceFunction, Access: ir.AccessReadWrite}
	v := emit(fl, ir.NewVar(d.Name, ptr, init))
	fl.scopes.Set(d.Name, binding{decl: d, kind: bindRef, value: v.Result()})
	return nil
}

func (fl *funcLowerer) letDecl(d *wgsl.LetDecl) error {
	v, err := fl.rvalue(d.Init)
	if err != nil {
		return err
	}
	if d.Type != nil {
		t, err := fl.resolveType(d.Type)
		if err != nil {
			return err
		}
		v, err = materialize(v, t)
		if err != nil {
			return operandError(d.Init, err)
		}
	} else if v, err = concretize(v); err != nil {
		return operandError(d.Init, err)
	}
	l := emit(fl, ir.NewLet(d.Name, v))
	fl.scopes.Set(d.Name, binding{decl: d, kind: bindValue, value: l.Result()})
	return nil
}

func (fl *funcLowerer) assign(s *wgsl.AssignStmt) error {
	if s.Left == nil {
		v, err := fl.rvalue(s.Right)
		if err != nil {
			return err
		}
		if _, err := concretize(v); err != nil {
			return operandError(s.Right, err)
		}
		return nil
	}

	if s.Op == wgsl.TokenEqual {
		rhs, err := fl.rvalue(s.Right)
		if err != nil {
			return err
		}
		ptr, store, err := fl.reference(s.Left)
		if err != nil {
			return err
		}
		if rhs, err = materialize(rhs, store); err != nil {
			return operandError(s.Right, err)
		}
		emit(fl, ir.NewStore(ptr, rhs))
		return nil
	}

	op, ok := assignOps[s.Op]
	if !ok {
		return internalf(s, "unhandled assignment operator: %s", s.Op)
	}
	ptr, _, err := fl.reference(s.Left)
	if err != nil {
		return err
	}
	current := emit(fl, ir.NewLoad(ptr)).Result()
	rhs, err := fl.rvalue(s.Right)
	if err != nil {
		return err
	}
	v, err := fl.binaryOp(s, op, current, rhs)
	if err != nil {
		return err
	}
	if v.Type() != current.Type() {
		return errorf(diag.CodeInvalidOperand, s, "cannot assign %s to %s", v.Type(), current.Type())
	}
	emit(fl, ir.NewStore(ptr, v))
	return nil
}

func (fl *funcLowerer) incDec(s *wgsl.IncDecStmt) error {
	ptr, store, err := fl.reference(s.Expr)
	if err != nil {
		return err
	}
	st, ok := store.(ir.ScalarType)
	if !ok || (st.Kind != ir.ScalarSint && st.Kind != ir.ScalarUint) {
		return errorf(diag.CodeInvalidOperand, s, "increment and decrement require an integer variable, got %s", store)
	}
	op := ir.BinarySubtract
	if s.Increment {
		op = ir.BinaryAdd
	}
	current := emit(fl, ir.NewLoad(ptr)).Result()
	next := emit(fl, ir.NewBinary(op, st, current, ir.IntConst(st, 1))).Result()
	emit(fl, ir.NewStore(ptr, next))
	return nil
}

// condition lowers a bool condition.
func (fl *funcLowerer) condition(e wgsl.Expr, what string) (ir.Value, error) {
	v, err := fl.rvalue(e)
	if err != nil {
		return nil, err
	}
	if v.Type() != ir.Type(ir.Bool) {
		return nil, errorf(diag.CodeInvalidOperand, e, "%s condition must be bool, got %s", what, v.Type())
	}
	return v, nil
}

func (fl *funcLowerer) ifStmt(s *wgsl.IfStmt) error {
	cond, err := fl.condition(s.Condition, "if")
	if err != nil {
		return err
	}
	i := emit(fl, ir.NewIf(cond))

	fl.current = i.True
	if err := fl.block(s.Body); err != nil {
		return err
	}
	fl.closeRegion(i)

	fl.current = i.False
	switch e := s.Else.(type) {
	case nil:
	case *wgsl.BlockStmt:
		if e != nil {
			err = fl.block(e)
		}
	case *wgsl.IfStmt:
		err = fl.ifStmt(e)
	default:
		err = internalf(e, "unhandled else branch: %T", e)
	}
	if err != nil {
		return err
	}
	fl.closeRegion(i)

	fl.enterMerge(i)
	return nil
}

// loopStmt lowers loop { body continuing { ... } }. The continuing block
// sees the declarations of the body.
func (fl *funcLowerer) loopStmt(s *wgsl.LoopStmt) error {
	l := emit(fl, ir.NewLoop())
	fl.pushControl(l)
	defer fl.popControl()

	fl.scopes.Push()
	defer fl.scopes.Pop()

	fl.current = l.Body
	if err := fl.statements(s.Body.Statements); err != nil {
		return err
	}
	if fl.current != nil {
		fl.terminate(ir.NewContinue(l))
	}

	if err := fl.continuing(l, s.Continuing, nil); err != nil {
		return err
	}
	fl.enterMerge(l)
	return nil
}

// continuing lowers the continuing block of l from the statements of b
// followed by update. A trailing break if becomes the block's terminator.
func (fl *funcLowerer) continuing(l *ir.Loop, b *wgsl.BlockStmt, update wgsl.Stmt) error {
	fl.controls[len(fl.controls)-1].continuing = true
	defer func() { fl.controls[len(fl.controls)-1].continuing = false }()

	fl.current = l.Continuing
	if update != nil {
		if err := fl.statement(update); err != nil {
			return err
		}
	}
	if b != nil {
		fl.scopes.Push()
		defer fl.scopes.Pop()

		stmts := b.Statements
		var breakIf *wgsl.BreakIfStmt
		if n := len(stmts); n > 0 {
			if bi, ok := stmts[n-1].(*wgsl.BreakIfStmt); ok {
				breakIf, stmts = bi, stmts[:n-1]
			}
		}
		if err := fl.statements(stmts); err != nil {
			return err
		}
		if breakIf != nil && fl.current != nil {
			cond, err := fl.condition(breakIf.Condition, "break if")
			if err != nil {
				return err
			}
			emit(fl, ir.NewBreakIf(l, cond))
			fl.exits[l]++
			fl.current = nil
		}
	}
	if fl.current != nil {
		fl.terminate(ir.NewNextIteration(l))
	}
	return nil
}

// loopCondition starts a loop body with `if cond {} else { break }`.
func (fl *funcLowerer) loopCondition(l *ir.Loop, e wgsl.Expr) error {
	cond, err := fl.condition(e, "loop")
	if err != nil {
		return err
	}
	i := emit(fl, ir.NewIf(cond))
	fl.current = i.True
	fl.exit(i)
	fl.current = i.False
	fl.exit(l)
	fl.current = i.Merge
	return nil
}

func (fl *funcLowerer) whileStmt(s *wgsl.WhileStmt) error {
	l := emit(fl, ir.NewLoop())
	fl.pushControl(l)
	defer fl.popControl()

	fl.current = l.Body
	if err := fl.loopCondition(l, s.Condition); err != nil {
		return err
	}
	if err := fl.block(s.Body); err != nil {
		return err
	}
	if fl.current != nil {
		fl.terminate(ir.NewContinue(l))
	}

	if err := fl.continuing(l, nil, nil); err != nil {
		return err
	}
	fl.enterMerge(l)
	return nil
}

// forStmt lowers for (init; cond; update) body. The initializer runs once
// in the enclosing block and its declarations are visible to the whole
// loop.
func (fl *funcLowerer) forStmt(s *wgsl.ForStmt) error {
	fl.scopes.Push()
	defer fl.scopes.Pop()

	if s.Init != nil {
		if err := fl.statement(s.Init); err != nil {
			return err
		}
	}

	l := emit(fl, ir.NewLoop())
	fl.pushControl(l)
	defer fl.popControl()

	fl.current = l.Body
	if s.Condition != nil {
		if err := fl.loopCondition(l, s.Condition); err != nil {
			return err
		}
	}
	if err := fl.block(s.Body); err != nil {
		return err
	}
	if fl.current != nil {
		fl.terminate(ir.NewContinue(l))
	}

	if err := fl.continuing(l, nil, s.Update); err != nil {
		return err
	}
	fl.enterMerge(l)
	return nil
}

func (fl *funcLowerer) switchStmt(s *wgsl.SwitchStmt) error {
	sel, err := fl.rvalue(s.Selector)
	if err != nil {
		return err
	}

	// Case values are evaluated before the switch so the selector and the
	// case values can be brought to one concrete type.
	values := make([][]*ir.Constant, len(s.Cases))
	selType := sel.Type()
	for i, clause := range s.Cases {
		for _, e := range clause.Selectors {
			if e == nil {
				values[i] = append(values[i], nil)
				continue
			}
			c, err := fl.constant(e)
			if err != nil {
				return err
			}
			if ir.IsAbstract(selType) && !ir.IsAbstract(c.Type()) {
				selType = c.Type()
			}
			values[i] = append(values[i], c)
		}
	}
	selType = concreteType(selType)
	if selType != ir.Type(ir.I32) && selType != ir.Type(ir.U32) {
		return errorf(diag.CodeInvalidOperand, s.Selector, "switch selector must be i32 or u32, got %s", selType)
	}
	if sel, err = materialize(sel, selType); err != nil {
		return operandError(s.Selector, err)
	}

	sw := emit(fl, ir.NewSwitch(sel))
	fl.pushControl(sw)
	defer fl.popControl()

	for i, clause := range s.Cases {
		selectors := make([]ir.CaseSelector, len(values[i]))
		for j, c := range values[i] {
			if c == nil {
				continue
			}
			v, err := materialize(c, selType)
			if err != nil {
				return operandError(clause.Selectors[j], err)
			}
			selectors[j] = ir.CaseSelector{Value: v.(*ir.Constant)}
		}
		fl.current = sw.AddCase(selectors...)
		if err := fl.block(clause.Body); err != nil {
			return err
		}
		fl.closeRegion(sw)
	}

	fl.enterMerge(sw)
	return nil
}

func (fl *funcLowerer) breakStmt(s *wgsl.BreakStmt) error {
	if len(fl.controls) == 0 {
		return errorf(diag.CodeInvalidControlFlow, s, "break statement must be in a loop or switch")
	}
	c := fl.controls[len(fl.controls)-1]
	if c.continuing {
		return errorf(diag.CodeInvalidControlFlow, s, "break is not allowed in a continuing block; use break if")
	}
	fl.exit(c.inst)
	return nil
}

func (fl *funcLowerer) continueStmt(s *wgsl.ContinueStmt) error {
	for i := len(fl.controls) - 1; i >= 0; i-- {
		c := fl.controls[i]
		l, ok := c.inst.(*ir.Loop)
		if !ok {
			continue
		}
		if c.continuing {
			return errorf(diag.CodeInvalidControlFlow, s, "continue is not allowed in a continuing block")
		}
		fl.terminate(ir.NewContinue(l))
		return nil
	}
	return errorf(diag.CodeInvalidControlFlow, s, "continue statement must be in a loop")
}

func (fl *funcLowerer) returnStmt(s *wgsl.ReturnStmt) error {
	if fl.inContinuing() {
		return errorf(diag.CodeInvalidControlFlow, s, "return is not allowed in a continuing block")
	}

	var value ir.Value
	switch {
	case s.Value != nil && fl.fn.ReturnType == nil:
		return errorf(diag.CodeInvalidOperand, s, "function '%s' does not return a value", fl.fn.Name)
	case s.Value == nil && fl.fn.ReturnType != nil:
		return errorf(diag.CodeInvalidOperand, s, "return statement of function '%s' needs a value of type %s", fl.fn.Name, fl.fn.ReturnType)
	case s.Value != nil:
		v, err := fl.rvalue(s.Value)
		if err != nil {
			return err
		}
		if value, err = materialize(v, fl.fn.ReturnType); err != nil {
			return operandError(s.Value, err)
		}
	}
	fl.terminate(ir.NewReturn(fl.fn, value))
	return nil
}
