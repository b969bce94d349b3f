package middleware

import "net/http"

// Every response, including errors and unmatched routes, carries the same
// permissive header set so browser dashboards can call the proxy directly.
var corsHeaders = map[string]string{
	"Access-Control-Allow-Origin":  "*",
	"Access-Control-Allow-Methods": "GET, OPTIONS",
	"Access-Control-Allow-Headers": "Content-Type",
}

// CORS stamps the fixed cross-origin headers before the handler runs.
func CORS() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			for k, v := range corsHeaders {
				h.Set(k, v)
			}
			next.ServeHTTP(w, r)
		})
	}
}
