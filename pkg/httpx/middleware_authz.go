package httpx

import "net/http"

// Require lets the request through only when allow returns true, answering
// 403 access_denied otherwise. The predicate usually inspects whatever an
// earlier middleware placed on the context.
func Require(allow func(*http.Request) bool, desc string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !allow(r) {
				WriteError(w, http.StatusForbidden, "access_denied", desc)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
