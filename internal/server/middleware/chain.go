// Package middleware contains HTTP middleware of the API server.
package middleware

import "net/http"

// Chain применяет middleware в порядке перечисления: первый оказывается внешним
func Chain(h http.Handler, mws ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
