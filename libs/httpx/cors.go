package httpx

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// CORSPolicy is the browser-facing policy for the match API.
// An empty AllowedOrigins disables the middleware.
type CORSPolicy struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
	MaxAge         time.Duration
}

func WithCORS(p CORSPolicy) Middleware {
	origins := map[string]bool{}
	wildcard := false
	for _, o := range p.AllowedOrigins {
		o = strings.ToLower(strings.TrimSpace(o))
		switch o {
		case "":
		case "*":
			wildcard = true
		default:
			origins[o] = true
		}
	}
	if !wildcard && len(origins) == 0 {
		return nil
	}

	methods := strings.Join(trimAll(p.AllowedMethods), ", ")
	headers := strings.Join(trimAll(p.AllowedHeaders), ", ")
	maxAge := ""
	if secs := int(p.MaxAge.Seconds()); secs > 0 {
		maxAge = strconv.Itoa(secs)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			h := w.Header()
			h.Add("Vary", "Origin")
			if origin == "" || !(wildcard || origins[strings.ToLower(origin)]) {
				next.ServeHTTP(w, r)
				return
			}

			if wildcard {
				h.Set("Access-Control-Allow-Origin", "*")
			} else {
				h.Set("Access-Control-Allow-Origin", origin)
			}
			if methods != "" {
				h.Set("Access-Control-Allow-Methods", methods)
			}
			if headers != "" {
				h.Set("Access-Control-Allow-Headers", headers)
			}
			if maxAge != "" {
				h.Set("Access-Control-Max-Age", maxAge)
			}

			// Preflight never reaches the API handlers.
			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
