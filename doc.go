// Package qarray compiles JavaScript-style predicate functions into SQL
// WHERE clauses.
//
// A predicate is the source text of a function taking a row parameter and
// an optional helper namespace:
//
//	users := qarray.New("Users")
//	stmt, err := users.Filter(`(user) => user.age >= 18 && ['admin','editor'].includes(user.role)`)
//	// SELECT * FROM Users WHERE user.age >= 18 AND user.role IN ['admin', 'editor'];
//
// Supported bodies are a single expression, or a block ending in a chain of
// if/else and switch statements whose branches each return one expression.
// Ternaries and control flow lower to CASE expressions. Loops, assignments
// and declarations are rejected with a *compiler.CompileError.
//
// # Helpers
//
// The second parameter names the helper namespace. Calls to its like, glob,
// match and regexp members become the LIKE, GLOB, MATCH and REGEXP
// operators; any other call renders as a SQL function call.
//
// # Caching
//
// Filter caches statements by table and predicate text. Each Table owns an
// in-memory cache by default; WithCache shares a store, such as one from
// NewBoundedCache or OpenSQLiteCache, between tables.
package qarray
