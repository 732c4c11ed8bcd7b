// Package morpha provides a bootstrap runtime for a forward-only
// rewrite system: an arena of words holding cells, morphs, rules,
// and halts, and a stepper that evaluates them.
//
// The core code is in package 'core'.  Compositions (a readable
// description of an arena) are in 'comp', and some command-line tools
// are in `cmd`.
package morpha
