// Package router implements the route table and matcher of the navigation core.
//
// The router provides:
//   - An immutable, ordered route table built once from route definitions
//   - A segment tree for matching with a fixed precedence rule
//   - Parameter extraction with percent-decoding
//   - Query string and fragment parsing
//   - Named-route path construction
//
// # Patterns
//
// Route patterns are written with colons for parameters and a trailing star
// for a wildcard:
//
//	/                 → root
//	/about            → literal
//	/users/:id        → one parameter
//	/files/*path      → wildcard, binds all remaining segments ("a/b/c")
//	/*                → wildcard bound to "pathMatch"
//
// # Precedence
//
// When more than one pattern matches a path, segments are compared from the
// left and the first difference decides: a literal segment beats a parameter,
// and a parameter beats a wildcard. Patterns of identical shape (for example
// "/users/:id" and "/users/:uid") resolve to the one registered first; the
// later one is reported by Table.Shadowed and never matches.
//
// # Usage
//
//	table, err := router.Build([]router.Route{
//	    {Path: "/", Name: "wallet", View: "WalletView"},
//	    {Path: "/users/:id", Name: "user", View: "UserView"},
//	}, router.WithFallback("NotFoundView"))
//	if err != nil {
//	    log.Fatal(err) // *router.ConfigError
//	}
//
//	m, ok := table.Match("/users/42?tab=keys")
//	// ok == true, m.Name() == "user", m.Params["id"] == "42", m.Query["tab"] == "keys"
//
//	m, ok = table.Match("/missing")
//	// ok == false, m.NotFound == true, m.View() == "NotFoundView"
package router
