package diag

// Code identifies the kind of a diagnostic independently of its text.
type Code string

const (
	// Resolver diagnostics (R prefix)
	CodeUnknownIdentifier  Code = "R0001"
	CodeRedeclaration      Code = "R0002"
	CodeCyclicDependency   Code = "R0003"
	CodeUsedBeforeDeclared Code = "R0004"
	CodeUnknownAttribute   Code = "R0005"

	// Lowering diagnostics (L prefix)
	CodeNotImplemented     Code = "L0001"
	CodeMissingReturn      Code = "L0002"
	CodeInvalidControlFlow Code = "L0003"
	CodeNotConstant        Code = "L0004"
	CodeConstAssertFailed  Code = "L0005"
	CodeInvalidOperand     Code = "L0006"

	// Internal consistency violations (I prefix)
	CodeUnhandledNode    Code = "I0001"
	CodeBrokenInvariant  Code = "I0002"
	CodeInvalidTransform Code = "I0003"
)
