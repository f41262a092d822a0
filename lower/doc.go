// Package lower builds the control-flow IR of a resolved WGSL module.
//
// Module-scope declarations are processed in dependency order: structs and
// aliases become ir types, constants are folded, module-scope variables
// become Var instructions in the root block and every function gets an
// ir.Function shell. Function bodies are then lowered one statement at a
// time. A cursor names the block being appended to and a control stack
// holds the loops and switches that break and continue can target.
//
// Bodies share no mutable state, so Options.Parallel lowers them
// concurrently. The result does not depend on the schedule.
package lower
