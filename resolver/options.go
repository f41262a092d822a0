package resolver

// Options configures Build.
type Options struct {
	// RejectOutOfOrder reports uses of module-scope declarations that
	// precede the declaration in source order. The dependency graph does not
	// require declaration order, so the check is off by default. It only
	// runs when scanning and sorting reported no errors.
	RejectOutOfOrder bool
}
