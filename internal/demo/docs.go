// Package demo is a small user-account service showing how the scope
// middleware, the facade and background jobs fit together in a real
// application. It is wired up by cmd/ and is not part of the library API.
package demo
