package auth

import (
	"net/http"
	"strings"
)

// BearerFromRequest extracts the bearer credential from the Authorization
// header, falling back to the token query parameter for websocket handshakes
// where browsers cannot set headers.
func BearerFromRequest(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	return r.URL.Query().Get("token")
}
