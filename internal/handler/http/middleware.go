package http

import (
	"encoding/json"
	"net/http"
	"strings"

	apperrors "github.com/davybookzone/server/pkg/errors"
)

// ContentTypeJSON rejects mutating requests whose body is not JSON.
// Multipart endpoints are mounted outside this middleware.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
			ct := r.Header.Get("Content-Type")
			if ct != "" && !strings.HasPrefix(ct, "application/json") {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnsupportedMediaType)
				_ = json.NewEncoder(w).Encode(map[string]string{
					"code":    "UNSUPPORTED_MEDIA_TYPE",
					"message": "content type must be application/json",
				})
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// decodeJSON reads a JSON body into dst, mapping malformed input to an
// invalid-input error.
func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperrors.InvalidInput("invalid request body")
	}
	return nil
}
