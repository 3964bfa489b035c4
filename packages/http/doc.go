// Package http is the request execution engine: it lowers a
// declarative request description into transport primitives, performs
// one HTTP exchange through a pluggable Transport, and annotates the
// result with headers, cookies, a timing breakdown, size accounting,
// renderer hints and classified error text.
//
// Each execution is a single atomic request/response exchange. The
// engine holds no state across calls; transport failures are
// represented inside the Response (Status 0 plus Error) rather than
// raised, so the only hard error Execute returns is a malformed URL.
package http
