// Package ir defines the control-flow intermediate representation produced
// from WGSL function bodies.
//
// # Structure
//
// A Module holds a root block with module-scope variables and a list of
// functions. Each Function has a start block. A Block is a sequence of
// instructions that ends in exactly one terminator:
//
//   - Structured control instructions (If, Loop, Switch) own their child
//     blocks and name a merge block where execution continues.
//   - Exits (ExitIf, ExitLoop, ExitSwitch) leave a structured region and
//     may carry arguments that bind the merge block's parameters.
//   - Continue, NextIteration and BreakIf drive loops.
//   - Return leaves the function; Unreachable marks a block that no path
//     reaches.
//
// Values are either constants, instruction results, function or block
// parameters, or Undef. Every instruction result is assigned exactly once.
//
// # Types
//
// Types are comparable Go values: two types are the same type exactly when
// they compare equal. Struct types are pointers and compare by identity.
// A TypeRegistry assigns dense handles to the types a module uses.
//
// # Text form
//
// Disassemble renders a module as text:
//
//	%f = func(%c:bool):i32 -> %b1 {
//	  %b1 = block {
//	    if %c [t: %b2, f: %b3, m: %b4]
//	      # True block
//	      %b2 = block {
//	        ret 1i
//	      }
//	  ...
package ir
