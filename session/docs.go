// Package session implements the unit-of-work handle used by gormscope.
//
// A Session coordinates one coherent sequence of reads and writes against a
// shared GORM engine, backed by at most one checked-out connection at a time.
// The transaction is begun lazily on the first statement, so creating a
// session is cheap and never touches the pool. A session is either active or
// closed; once closed it is terminal and any further use returns
// errs.SessionClosedError.
//
// Sessions are minted by a Factory, which is built once with the engine and
// fixed construction options. Each session is exclusively owned by one logical
// unit of work (one goroutine's call tree); sessions are never shared for
// concurrent mutation. The one deliberate exception is the default session
// held by the scope registry, whose concurrent use is the caller's
// responsibility.
package session
