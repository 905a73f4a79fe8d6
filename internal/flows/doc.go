// Package flows contains the engine's orchestration logic as plain
// functions over injected dependencies. Each flow declares a Deps struct
// of narrow funcs and interfaces so it stays testable in isolation and
// free of root-package imports.
//
// Flows classify failures with enum kinds; the root engine maps those to
// its public error taxonomy.
package flows
