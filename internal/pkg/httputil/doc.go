// Package httputil provides shared HTTP response/request utilities for handlers.
//
// Handlers and middleware use these helpers instead of writing raw
// http.ResponseWriter calls, so every endpoint shares one JSON format and one
// error envelope.
package httputil
