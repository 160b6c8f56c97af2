// Package scope tracks which session is "current" for a logical unit of work.
//
// The current-session slot is carried by context.Context, the per-logical-unit
// storage Go gives every request or task: a value bound inside one goroutine's
// call tree is invisible to concurrently executing units and disappears when
// the derived context is discarded, which makes nested scopes a strict stack
// by construction.
//
// The slot holds one of three states: nothing (the default state), an opaque
// scope identifier used purely as a lookup key, or a concrete bound session.
// The Registry reads the slot and maps each identifier to at most one live
// session, minting lazily through the session factory and returning the
// identical session for repeated lookups until the slot is cleared.
//
// Each Registry binds values under its own context key, so two gormscope
// clients in one process never observe each other's scopes.
package scope
