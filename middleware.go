package gormscope

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// Middleware binds one unit-of-work scope to each inbound HTTP request.
//
// The scope is entered before the handler runs and exited after it returns,
// on the error path included: a handler error rolls the request's session
// back, a clean return commits it per the client's commit-on-exit setting.
// Handlers reach the request's session through db.Session(ctx) or any facade
// operation, using the request context.
//
// Re-entry is idempotent: when the request context already carries a scope
// for this client (a sub-application mounted inside a parent pipeline that
// installed the middleware too), the request passes through untouched, so the
// scope is entered and exited exactly once per request.
//
// Example:
//
//	e := echo.New()
//	e.Use(gormscope.Middleware(db))
//	e.GET("/users/:id", func(c echo.Context) error {
//	    var user User
//	    found, err := db.Get(c.Request().Context(), &user, c.Param("id"))
//	    ...
//	})
func Middleware(db *DB) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if db.registry.Bound(req.Context()) {
				return next(c)
			}

			// Each request gets its own opaque scope identifier; the session
			// is minted lazily on the handler's first database touch.
			ctx, sc := db.EnterScope(req.Context(), WithScopeID("request:"+uuid.NewString()))
			c.SetRequest(req.WithContext(ctx))

			defer func() {
				if r := recover(); r != nil {
					_ = sc.Exit(fmt.Errorf("panic in request handler: %v", r))
					panic(r)
				}
			}()

			return sc.Exit(next(c))
		}
	}
}
