// Package transform rewrites IR modules in place.
//
// MergeReturn gives every function a single Return on its top-level block
// chain. Earlier returns set a function-scope flag, store the value to a
// return slot and exit their region; the code that follows each affected
// merge block is then guarded by the flag.
package transform
