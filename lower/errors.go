package lower

import (
	"errors"
	"fmt"

	"github.com/gogpu/wgslfront/diag"
	"github.com/gogpu/wgslfront/wgsl"
)

// lowerError is a problem found while lowering one declaration or
// function body. It aborts lowering of that declaration or body.
type lowerError struct {
	code     diag.Code
	span     wgsl.Span
	message  string
	internal bool
}

func (e *lowerError) Error() string {
	return fmt.Sprintf("%s: %s", e.span, e.message)
}

func errorf(code diag.Code, node wgsl.Node, format string, args ...any) error {
	return &lowerError{code: code, span: spanOf(node), message: fmt.Sprintf(format, args...)}
}

func internalf(node wgsl.Node, format string, args ...any) error {
	return &lowerError{
		code:     diag.CodeUnhandledNode,
		span:     spanOf(node),
		message:  fmt.Sprintf(format, args...),
		internal: true,
	}
}

// operandError reports err, usually from an ir type rule, at node.
func operandError(node wgsl.Node, err error) error {
	var le *lowerError
	if errors.As(err, &le) {
		return err
	}
	return errorf(diag.CodeInvalidOperand, node, "%v", err)
}

func isInternal(err error) bool {
	var le *lowerError
	return errors.As(err, &le) && le.internal
}

func reportTo(l *diag.List, err error) {
	var le *lowerError
	if !errors.As(err, &le) {
		l.AddInternal(diag.SystemLower, diag.CodeBrokenInvariant, wgsl.Span{}, "%v", err)
		return
	}
	if le.internal {
		l.AddInternal(diag.SystemLower, le.code, le.span, "%s", le.message)
		return
	}
	l.AddError(diag.SystemLower, le.code, le.span, "%s", le.message)
}

func spanOf(node wgsl.Node) wgsl.Span {
	if node == nil {
		return wgsl.Span{}
	}
	return node.Pos()
}
