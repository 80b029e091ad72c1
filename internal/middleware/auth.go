package middleware

import (
	"net/http"
	"strings"

	"github.com/dukerupert/shoplist/internal/auth"
)

const deviceHeader = "X-Device-ID"

// RequireToken checks the bearer token against gate and populates the
// request's auth.Caller. Browsers cannot set headers on a WebSocket upgrade,
// so the token and device id may also arrive as "token" and "device" query
// parameters.
func RequireToken(gate *auth.TokenGate) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller := auth.Caller{DeviceID: deviceID(r)}

			if gate.Enabled() {
				if !gate.Check(bearerToken(r)) {
					w.Header().Set("WWW-Authenticate", `Bearer realm="shoplist"`)
					writeError(w, http.StatusUnauthorized, "unauthorized")
					return
				}
				caller.Authenticated = true
			}

			ctx := auth.WithCaller(r.Context(), caller)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	return r.URL.Query().Get("token")
}

func deviceID(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get(deviceHeader)); id != "" {
		return id
	}
	return strings.TrimSpace(r.URL.Query().Get("device"))
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(`{"error":"` + msg + `"}`))
}
